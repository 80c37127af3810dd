package reltype

import (
	"github.com/puzpuzpuz/xsync/v3"
	"mit.edu/dsg/relopt/common"
)

// Factory creates canonical types. Every type it returns is interned by its
// type string, so structurally equal types share one instance and may be
// compared by pointer.
type Factory struct {
	cache *xsync.MapOf[string, *Type]
}

func NewFactory() *Factory {
	return &Factory{
		cache: xsync.NewMapOf[string, *Type](),
	}
}

func (f *Factory) canonize(t *Type) *Type {
	t.digest = t.computeDigest()
	actual, _ := f.cache.LoadOrStore(t.digest, t)
	return actual
}

// Scalar returns the scalar type of the given family.
func (f *Factory) Scalar(sqlType SQLType, nullable bool) *Type {
	common.Assert(sqlType != RecordType, "use Struct to create record types")
	return f.canonize(&Type{sqlType: sqlType, nullable: nullable})
}

// Varchar returns a VARCHAR type of the given length; 0 means unbounded.
func (f *Factory) Varchar(precision int, nullable bool) *Type {
	common.Assert(precision >= 0, "negative varchar precision %d", precision)
	return f.canonize(&Type{sqlType: VarcharType, nullable: nullable, precision: precision})
}

// Struct returns the record type with the given field names and types.
func (f *Factory) Struct(names []string, types []*Type) *Type {
	common.Assert(len(names) == len(types), "struct has %d names but %d types", len(names), len(types))
	fields := make([]Field, len(names))
	for i := range names {
		common.Assert(types[i] != nil, "field %q has no type", names[i])
		fields[i] = Field{Name: names[i], Index: i, Type: types[i]}
	}
	return f.canonize(&Type{sqlType: RecordType, fields: fields})
}

// WithNullability returns a copy of a scalar type with the given
// nullability. Record types are returned unchanged.
func (f *Factory) WithNullability(t *Type, nullable bool) *Type {
	if t.IsStruct() || t.nullable == nullable {
		return t
	}
	return f.canonize(&Type{sqlType: t.sqlType, nullable: nullable, precision: t.precision})
}

// LeastRestrictive returns the narrowest type to which all the given types can
// be converted, or nil if there is none. Records must have the same number of
// fields; names are taken from the first record.
func (f *Factory) LeastRestrictive(types []*Type) *Type {
	if len(types) == 0 {
		return nil
	}
	result := types[0]
	for _, t := range types[1:] {
		result = f.leastRestrictive2(result, t)
		if result == nil {
			return nil
		}
	}
	return result
}

func (f *Factory) leastRestrictive2(a, b *Type) *Type {
	if a.IsStruct() != b.IsStruct() {
		return nil
	}
	if a.IsStruct() {
		if a.FieldCount() != b.FieldCount() {
			return nil
		}
		names := make([]string, a.FieldCount())
		types := make([]*Type, a.FieldCount())
		for i, fa := range a.fields {
			t := f.leastRestrictive2(fa.Type, b.fields[i].Type)
			if t == nil {
				return nil
			}
			names[i] = fa.Name
			types[i] = t
		}
		return f.Struct(names, types)
	}

	nullable := a.nullable || b.nullable
	switch {
	case a.sqlType == AnyType || b.sqlType == AnyType:
		return f.Scalar(AnyType, nullable)
	case a.sqlType == b.sqlType && a.sqlType == VarcharType:
		p := a.precision
		if p != 0 && (b.precision == 0 || b.precision > p) {
			p = b.precision
		}
		return f.Varchar(p, nullable)
	case a.sqlType == b.sqlType:
		return f.Scalar(a.sqlType, nullable)
	case a.sqlType.IsNumeric() && b.sqlType.IsNumeric():
		wide := a.sqlType
		if b.sqlType > wide {
			wide = b.sqlType
		}
		return f.Scalar(wide, nullable)
	}
	return nil
}
