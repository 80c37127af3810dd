package rex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mit.edu/dsg/relopt/reltype"
)

// Row type used by the tests: (id INTEGER NOT NULL, name VARCHAR(20), age INTEGER)
func makeRowType(f *reltype.Factory) *reltype.Type {
	return f.Struct(
		[]string{"id", "name", "age"},
		[]*reltype.Type{f.Scalar(reltype.IntegerType, false), f.Varchar(20, true), f.Scalar(reltype.IntegerType, true)},
	)
}

func TestExprStrings(t *testing.T) {
	f := reltype.NewFactory()
	b := NewBuilder(f)
	row := makeRowType(f)

	id := b.InputRef(row, 0)
	name := b.InputRef(row, 1)
	ten := b.Literal(10, f.Scalar(reltype.IntegerType, false))
	bob := b.Literal("bob", f.Varchar(3, false))

	tests := []struct {
		name     string
		expr     Expr
		expected string
	}{
		{"ref", id, "$0"},
		{"int literal", ten, "10"},
		{"string literal", bob, "'bob'"},
		{"null literal", b.Literal(nil, f.Scalar(reltype.AnyType, true)), "null"},
		{"comparison", b.Compare(GreaterThan, id, ten), "($0 > 10)"},
		{"not equal", b.Compare(NotEqual, name, bob), "($1 <> 'bob')"},
		{"and", b.And(b.Compare(Equal, id, ten), b.Compare(Equal, name, bob)), "(($0 = 10) AND ($1 = 'bob'))"},
		{"or", b.Or(b.Compare(LessThan, id, ten), b.Compare(GreaterThanOrEqual, id, ten), b.Compare(LessThanOrEqual, id, ten)),
			"(($0 < 10) OR ($0 >= 10) OR ($0 <= 10))"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.expr.String())
		})
	}
}

func TestExprTypes(t *testing.T) {
	f := reltype.NewFactory()
	b := NewBuilder(f)
	row := makeRowType(f)

	notNull := b.Compare(Equal, b.InputRef(row, 0), b.Literal(1, f.Scalar(reltype.IntegerType, false)))
	assert.Equal(t, "BOOLEAN NOT NULL", notNull.Type().String())

	nullable := b.Compare(Equal, b.InputRef(row, 2), b.Literal(1, f.Scalar(reltype.IntegerType, false)))
	assert.Equal(t, "BOOLEAN", nullable.Type().String())
	assert.Equal(t, "BOOLEAN", b.And(notNull, nullable).Type().String())

	assert.Panics(t, func() { b.InputRef(row, 3) })
	assert.Panics(t, func() { b.And(notNull) })
	assert.Panics(t, func() { b.And(notNull, b.InputRef(row, 0)) })
}

func TestCollectCorrelVariables(t *testing.T) {
	f := reltype.NewFactory()
	b := NewBuilder(f)
	row := makeRowType(f)

	cond := b.And(
		b.Compare(Equal, b.InputRef(row, 0), b.CorrelField("$cor0", row, "id")),
		b.Compare(Equal, b.InputRef(row, 1), b.CorrelField("$cor2", row, "name")),
	)
	assert.Equal(t, "(($0 = $cor0.id) AND ($1 = $cor2.name))", cond.String())

	set := map[string]struct{}{}
	CollectCorrelVariables(cond, set)
	require.Len(t, set, 2)
	assert.Contains(t, set, "$cor0")
	assert.Contains(t, set, "$cor2")

	assert.Panics(t, func() { b.CorrelField("$cor0", row, "salary") })
}
