// Package reltype models the row and scalar types produced by relational
// expressions. Types are created and interned by a Factory, so two types with
// the same structure obtained from the same factory are the same pointer.
package reltype

import (
	"fmt"
	"strings"

	"mit.edu/dsg/relopt/common"
)

// SQLType identifies the family of a type.
type SQLType int8

const (
	AnyType SQLType = iota
	BooleanType
	IntegerType
	BigIntType
	DoubleType
	VarcharType
	TimestampType
	RecordType
)

func (t SQLType) String() string {
	switch t {
	case AnyType:
		return "ANY"
	case BooleanType:
		return "BOOLEAN"
	case IntegerType:
		return "INTEGER"
	case BigIntType:
		return "BIGINT"
	case DoubleType:
		return "DOUBLE"
	case VarcharType:
		return "VARCHAR"
	case TimestampType:
		return "TIMESTAMP"
	case RecordType:
		return "RECORD"
	}
	return "unknown"
}

// ParseSQLType parses the name of a scalar type, as printed by String.
func ParseSQLType(name string) (SQLType, error) {
	for t := AnyType; t < RecordType; t++ {
		if t.String() == name {
			return t, nil
		}
	}
	return AnyType, common.NewErrorf(common.UnsupportedTypeError, "unknown type %q", name)
}

func (t SQLType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *SQLType) UnmarshalText(text []byte) error {
	parsed, err := ParseSQLType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// IsNumeric returns true for the integer and floating point families.
func (t SQLType) IsNumeric() bool {
	return t == IntegerType || t == BigIntType || t == DoubleType
}

// Field is a named, positioned member of a record type.
type Field struct {
	Name  string
	Index int
	Type  *Type
}

func (f Field) String() string {
	return f.Type.String() + " " + f.Name
}

// Type is either a scalar type or a record type whose fields are themselves
// types. A Type is immutable once the factory hands it out.
type Type struct {
	sqlType   SQLType
	nullable  bool
	precision int
	fields    []Field
	digest    string
}

func (t *Type) SQLType() SQLType {
	return t.sqlType
}

func (t *Type) Nullable() bool {
	return t.nullable
}

// Precision returns the declared length of a VARCHAR, or 0 if unbounded.
func (t *Type) Precision() int {
	return t.precision
}

func (t *Type) IsStruct() bool {
	return t.sqlType == RecordType
}

// Fields returns the fields of a record type, or nil for a scalar.
func (t *Type) Fields() []Field {
	return t.fields
}

func (t *Type) FieldCount() int {
	return len(t.fields)
}

// FieldNames returns the names of the fields in order.
func (t *Type) FieldNames() []string {
	names := make([]string, len(t.fields))
	for i, f := range t.fields {
		names[i] = f.Name
	}
	return names
}

// Field looks up a field by name.
func (t *Type) Field(name string) (Field, bool) {
	for _, f := range t.fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// String returns the full type string, which is also its identity.
func (t *Type) String() string {
	return t.digest
}

// Equal returns true if both types have the same structure, including field
// names and nullability.
func (t *Type) Equal(o *Type) bool {
	if t == o {
		return true
	}
	if t == nil || o == nil {
		return false
	}
	return t.digest == o.digest
}

func (t *Type) computeDigest() string {
	var sb strings.Builder
	if t.sqlType == RecordType {
		sb.WriteString("RecordType(")
		for i, f := range t.fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(f.String())
		}
		sb.WriteString(")")
		return sb.String()
	}
	sb.WriteString(t.sqlType.String())
	if t.precision > 0 {
		fmt.Fprintf(&sb, "(%d)", t.precision)
	}
	if !t.nullable {
		sb.WriteString(" NOT NULL")
	}
	return sb.String()
}
