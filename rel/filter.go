package rel

import (
	"mit.edu/dsg/relopt/common"
	"mit.edu/dsg/relopt/reltype"
	"mit.edu/dsg/relopt/rex"
	"mit.edu/dsg/relopt/trait"
)

// filterSelectivity is the fraction of rows a filter is assumed to keep.
const filterSelectivity = 0.25

// Filter returns the rows of its input for which a boolean condition holds.
// The condition may refer to correlation variables bound above the filter.
type Filter struct {
	Base
	input     Node
	condition rex.Expr
}

func NewFilter(cluster *Cluster, input Node, condition rex.Expr) *Filter {
	checkCluster(cluster, "Filter")
	return newFilter(cluster, cluster.TraitSetOf(trait.None), input, condition)
}

func newFilter(cluster *Cluster, traits trait.Set, input Node, condition rex.Expr) *Filter {
	if input == nil || condition == nil {
		common.Fatalf(common.PreconditionError, "filter needs an input and a condition")
	}
	f := &Filter{input: input, condition: condition}
	f.Init(f, cluster, traits)
	return f
}

func (f *Filter) Condition() rex.Expr {
	return f.condition
}

func (f *Filter) Inputs() []Node {
	return []Node{f.input}
}

func (f *Filter) ChildExprs() []rex.Expr {
	return []rex.Expr{f.condition}
}

func (f *Filter) DeriveRowType() *reltype.Type {
	return f.input.RowType()
}

func (f *Filter) Copy(traits trait.Set, inputs []Node) Node {
	input := sole(inputs)
	if traits.Equal(f.Traits()) && input == f.input {
		return f
	}
	return newFilter(f.Cluster(), traits, input, f.condition)
}

func (f *Filter) Explain(w PlanWriter) {
	w.Explain(f, []string{"input", "condition"}, nil)
}

// IsValid checks that the condition is boolean and that its input references
// are in range.
func (f *Filter) IsValid(fail bool) bool {
	if f.condition.Type().SQLType() != reltype.BooleanType {
		if fail {
			common.Fatalf(common.ValidationError, "condition %s of %s is not boolean", f.condition, f.Description())
		}
		return false
	}
	width := f.input.RowType().FieldCount()
	valid := true
	rex.Walk(f.condition, func(e rex.Expr) {
		if ref, ok := e.(*rex.InputRef); ok && ref.Index() >= width {
			valid = false
		}
	})
	if !valid && fail {
		common.Fatalf(common.ValidationError, "condition %s of %s refers past the %d fields of its input",
			f.condition, f.Description(), width)
	}
	return valid
}

func (f *Filter) ReplaceInput(ordinal int, input Node) {
	common.Assert(ordinal == 0, "filter has one input, got ordinal %d", ordinal)
	f.checkReplaceInput(ordinal, f.input, input)
	f.input = input
	f.RecomputeDigest()
}

func (f *Filter) EstimatedRowCount(mq *MetadataQuery) float64 {
	return filterSelectivity * mq.RowCount(f.input)
}

func (f *Filter) CollectVariablesUsed(set map[string]struct{}) {
	rex.CollectCorrelVariables(f.condition, set)
}
