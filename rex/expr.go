// Package rex holds the scalar expressions that relational expressions carry
// as child expressions, such as a filter condition. Their string form is part
// of the owning node's digest.
package rex

import (
	"fmt"
	"strings"

	"mit.edu/dsg/relopt/common"
	"mit.edu/dsg/relopt/reltype"
)

// Expr represents a node in a scalar expression tree.
// Expressions are stateless and immutable.
type Expr interface {
	// Type returns the type of value this expression produces.
	Type() *reltype.Type

	// Operands returns the direct sub-expressions.
	Operands() []Expr

	// String returns the canonical text of the expression.
	String() string
}

// InputRef references a field of the input row by position.
type InputRef struct {
	index int
	typ   *reltype.Type
}

func (e *InputRef) Index() int {
	return e.index
}

func (e *InputRef) Type() *reltype.Type {
	return e.typ
}

func (e *InputRef) Operands() []Expr {
	return nil
}

func (e *InputRef) String() string {
	return fmt.Sprintf("$%d", e.index)
}

// Literal is a constant.
type Literal struct {
	value any
	typ   *reltype.Type
}

func (e *Literal) Value() any {
	return e.value
}

func (e *Literal) Type() *reltype.Type {
	return e.typ
}

func (e *Literal) Operands() []Expr {
	return nil
}

func (e *Literal) String() string {
	switch v := e.value.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("'%s'", v)
	}
	return fmt.Sprint(e.value)
}

// CorrelField accesses a field of the row bound to a correlation variable.
// It is how a correlated subexpression refers to the current row of an outer
// relational expression.
type CorrelField struct {
	correl string
	field  reltype.Field
}

func (e *CorrelField) Correl() string {
	return e.correl
}

func (e *CorrelField) Type() *reltype.Type {
	return e.field.Type
}

func (e *CorrelField) Operands() []Expr {
	return nil
}

func (e *CorrelField) String() string {
	return e.correl + "." + e.field.Name
}

type ComparisonType int

const (
	Equal ComparisonType = iota
	NotEqual
	GreaterThan
	LessThan
	GreaterThanOrEqual
	LessThanOrEqual
)

func (c ComparisonType) String() string {
	switch c {
	case Equal:
		return "="
	case NotEqual:
		return "<>"
	case GreaterThan:
		return ">"
	case LessThan:
		return "<"
	case GreaterThanOrEqual:
		return ">="
	case LessThanOrEqual:
		return "<="
	}
	return "???"
}

type Comparison struct {
	left     Expr
	right    Expr
	compType ComparisonType
	typ      *reltype.Type
}

func (e *Comparison) Type() *reltype.Type {
	return e.typ
}

func (e *Comparison) Operands() []Expr {
	return []Expr{e.left, e.right}
}

func (e *Comparison) String() string {
	return fmt.Sprintf("(%s %s %s)", e.left.String(), e.compType.String(), e.right.String())
}

type LogicType int

const (
	And LogicType = iota
	Or
)

func (l LogicType) String() string {
	switch l {
	case And:
		return "AND"
	case Or:
		return "OR"
	}
	return "???"
}

// Logic combines boolean operands with AND or OR.
type Logic struct {
	operands  []Expr
	logicType LogicType
	typ       *reltype.Type
}

func (e *Logic) Type() *reltype.Type {
	return e.typ
}

func (e *Logic) Operands() []Expr {
	return e.operands
}

func (e *Logic) String() string {
	parts := make([]string, len(e.operands))
	for i, o := range e.operands {
		parts[i] = o.String()
	}
	return "(" + strings.Join(parts, " "+e.logicType.String()+" ") + ")"
}

// Builder creates expressions with types from a factory.
type Builder struct {
	factory *reltype.Factory
}

func NewBuilder(factory *reltype.Factory) *Builder {
	return &Builder{factory: factory}
}

// InputRef references field index of rowType.
func (b *Builder) InputRef(rowType *reltype.Type, index int) *InputRef {
	common.Assert(index >= 0 && index < rowType.FieldCount(),
		"input ref $%d out of range for %s", index, rowType)
	return &InputRef{index: index, typ: rowType.Fields()[index].Type}
}

func (b *Builder) Literal(value any, typ *reltype.Type) *Literal {
	return &Literal{value: value, typ: typ}
}

// CorrelField references the named field of the row type bound to correl.
func (b *Builder) CorrelField(correl string, rowType *reltype.Type, name string) *CorrelField {
	f, ok := rowType.Field(name)
	common.Assert(ok, "field %q not in %s", name, rowType)
	return &CorrelField{correl: correl, field: f}
}

func (b *Builder) Compare(compType ComparisonType, left, right Expr) *Comparison {
	nullable := left.Type().Nullable() || right.Type().Nullable()
	return &Comparison{
		left:     left,
		right:    right,
		compType: compType,
		typ:      b.factory.Scalar(reltype.BooleanType, nullable),
	}
}

func (b *Builder) And(operands ...Expr) *Logic {
	return b.logic(And, operands)
}

func (b *Builder) Or(operands ...Expr) *Logic {
	return b.logic(Or, operands)
}

func (b *Builder) logic(logicType LogicType, operands []Expr) *Logic {
	common.Assert(len(operands) >= 2, "%s needs at least two operands", logicType)
	nullable := false
	for _, o := range operands {
		common.Assert(o.Type().SQLType() == reltype.BooleanType, "%s operand %s is not boolean", logicType, o)
		nullable = nullable || o.Type().Nullable()
	}
	return &Logic{
		operands:  append([]Expr(nil), operands...),
		logicType: logicType,
		typ:       b.factory.Scalar(reltype.BooleanType, nullable),
	}
}

// Walk calls fn for e and each of its descendants, parents first.
func Walk(e Expr, fn func(Expr)) {
	fn(e)
	for _, o := range e.Operands() {
		Walk(o, fn)
	}
}

// CollectCorrelVariables adds the correlation variables referenced by e to
// set.
func CollectCorrelVariables(e Expr, set map[string]struct{}) {
	Walk(e, func(e Expr) {
		if c, ok := e.(*CorrelField); ok {
			set[c.correl] = struct{}{}
		}
	})
}
