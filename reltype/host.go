package reltype

import (
	"reflect"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"mit.edu/dsg/relopt/common"
)

// HostTypeFactory maps Go types to relational types. Variants that wrap
// Go-typed sources derive their row type through it.
type HostTypeFactory interface {
	// TypeOf returns a scalar type for scalar Go types and a record type for
	// structs.
	TypeOf(t reflect.Type) (*Type, error)

	// StructTypeOf returns a record type whose fields mirror the exported
	// fields of a struct type.
	StructTypeOf(t reflect.Type) (*Type, error)

	// HostType returns the Go type a relational type was created from.
	HostType(rt *Type) (reflect.Type, bool)
}

var timeType = reflect.TypeOf(time.Time{})

// GoTypeFactory is a Factory that also understands Go types.
//
// Fields are named after the Go field unless a `rel:"name"` tag is present;
// `rel:"-"` skips a field. Pointer types become nullable.
type GoTypeFactory struct {
	*Factory
	hosts *xsync.MapOf[*Type, reflect.Type]
}

var _ HostTypeFactory = (*GoTypeFactory)(nil)

func NewGoTypeFactory() *GoTypeFactory {
	return &GoTypeFactory{
		Factory: NewFactory(),
		hosts:   xsync.NewMapOf[*Type, reflect.Type](),
	}
}

func (f *GoTypeFactory) TypeOf(t reflect.Type) (*Type, error) {
	rt, err := f.typeOf(t)
	if err != nil {
		return nil, err
	}
	f.hosts.LoadOrStore(rt, t)
	return rt, nil
}

func (f *GoTypeFactory) StructTypeOf(t reflect.Type) (*Type, error) {
	base := t
	if base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	if base.Kind() != reflect.Struct || base == timeType {
		return nil, common.NewErrorf(common.UnsupportedTypeError, "%s is not a struct", t)
	}
	return f.TypeOf(t)
}

// HostType performs the reverse lookup. Since types are interned, a type that
// several Go types map to reports the first one seen.
func (f *GoTypeFactory) HostType(rt *Type) (reflect.Type, bool) {
	return f.hosts.Load(rt)
}

func (f *GoTypeFactory) typeOf(t reflect.Type) (*Type, error) {
	nullable := false
	if t.Kind() == reflect.Pointer {
		nullable = true
		t = t.Elem()
	}
	if t == timeType {
		return f.Scalar(TimestampType, nullable), nil
	}

	switch t.Kind() {
	case reflect.Bool:
		return f.Scalar(BooleanType, nullable), nil
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Uint8, reflect.Uint16:
		return f.Scalar(IntegerType, nullable), nil
	case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint32, reflect.Uint64:
		return f.Scalar(BigIntType, nullable), nil
	case reflect.Float32, reflect.Float64:
		return f.Scalar(DoubleType, nullable), nil
	case reflect.String:
		return f.Varchar(0, nullable), nil
	case reflect.Struct:
		return f.structOf(t)
	}
	return nil, common.NewErrorf(common.UnsupportedTypeError, "no relational type for %s", t)
}

func (f *GoTypeFactory) structOf(t reflect.Type) (*Type, error) {
	names := make([]string, 0, t.NumField())
	types := make([]*Type, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := sf.Name
		if tag, ok := sf.Tag.Lookup("rel"); ok {
			if tag == "-" {
				continue
			}
			if tag != "" {
				name = tag
			}
		}
		ft, err := f.TypeOf(sf.Type)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
		types = append(types, ft)
	}
	return f.Struct(names, types), nil
}
