package trait

import (
	"fmt"
	"strings"
)

type collationDef struct{}

// CollationDef is the kind describing the sort order of a node's output.
var CollationDef Def = collationDef{}

func (collationDef) Name() string {
	return "collation"
}

func (collationDef) Default() Trait {
	return EmptyCollation
}

type Direction int8

const (
	Ascending Direction = iota
	Descending
)

type NullDirection int8

const (
	NullsUnspecified NullDirection = iota
	NullsFirst
	NullsLast
)

// FieldCollation is the sort order of one output field.
type FieldCollation struct {
	FieldIndex int
	Direction  Direction
	Nulls      NullDirection
}

func (fc FieldCollation) String() string {
	s := fmt.Sprintf("%d", fc.FieldIndex)
	if fc.Direction == Descending {
		s += " DESC"
	}
	switch fc.Nulls {
	case NullsFirst:
		s += "-nulls-first"
	case NullsLast:
		s += "-nulls-last"
	}
	return s
}

// Collation is an ordered list of field collations. The empty collation means
// the output is not known to be sorted.
type Collation struct {
	fields []FieldCollation
}

var EmptyCollation = Collation{}

func NewCollation(fields ...FieldCollation) Collation {
	return Collation{fields: append([]FieldCollation(nil), fields...)}
}

// Fields returns the field collations, outermost first.
func (c Collation) Fields() []FieldCollation {
	return c.fields
}

func (c Collation) Def() Def {
	return CollationDef
}

func (c Collation) Equal(other Trait) bool {
	o, ok := other.(Collation)
	if !ok || len(o.fields) != len(c.fields) {
		return false
	}
	for i := range c.fields {
		if c.fields[i] != o.fields[i] {
			return false
		}
	}
	return true
}

// Satisfies returns true if the required collation is a prefix of c: output
// sorted on (a, b) is also sorted on (a).
func (c Collation) Satisfies(required Trait) bool {
	o, ok := required.(Collation)
	if !ok || len(o.fields) > len(c.fields) {
		return false
	}
	for i := range o.fields {
		if c.fields[i] != o.fields[i] {
			return false
		}
	}
	return true
}

func (c Collation) String() string {
	parts := make([]string, len(c.fields))
	for i, f := range c.fields {
		parts[i] = f.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
