package rel

import (
	"math"
	"strconv"

	"golang.org/x/exp/slices"
	"mit.edu/dsg/relopt/common"
	"mit.edu/dsg/relopt/reltype"
	"mit.edu/dsg/relopt/trait"
)

// SetKind identifies a set operation.
type SetKind int8

const (
	UnionKind SetKind = iota
	IntersectKind
	MinusKind
)

func (k SetKind) String() string {
	switch k {
	case UnionKind:
		return "Union"
	case IntersectKind:
		return "Intersect"
	case MinusKind:
		return "Minus"
	}
	return "unknown"
}

// SetOp is the shared implementation of Union, Intersect and Minus: a
// variadic operator over inputs of compatible row types. If all is set the
// operator has bag semantics and keeps duplicates; otherwise it eliminates
// them.
type SetOp struct {
	Base
	kind   SetKind
	inputs []Node
	all    bool
}

type Union struct{ SetOp }

type Intersect struct{ SetOp }

type Minus struct{ SetOp }

func NewUnion(cluster *Cluster, inputs []Node, all bool) *Union {
	checkCluster(cluster, "Union")
	return NewSetOp(cluster, UnionKind, cluster.TraitSetOf(trait.None), inputs, all).(*Union)
}

func NewIntersect(cluster *Cluster, inputs []Node, all bool) *Intersect {
	checkCluster(cluster, "Intersect")
	return NewSetOp(cluster, IntersectKind, cluster.TraitSetOf(trait.None), inputs, all).(*Intersect)
}

func NewMinus(cluster *Cluster, inputs []Node, all bool) *Minus {
	checkCluster(cluster, "Minus")
	return NewSetOp(cluster, MinusKind, cluster.TraitSetOf(trait.None), inputs, all).(*Minus)
}

// NewSetOp creates the set operation of the given kind. The input slice is
// copied.
func NewSetOp(cluster *Cluster, kind SetKind, traits trait.Set, inputs []Node, all bool) Node {
	if len(inputs) == 0 {
		common.Fatalf(common.PreconditionError, "%s needs at least one input", kind)
	}
	inputs = append([]Node(nil), inputs...)
	switch kind {
	case UnionKind:
		u := &Union{SetOp{kind: kind, inputs: inputs, all: all}}
		u.Init(u, cluster, traits)
		return u
	case IntersectKind:
		i := &Intersect{SetOp{kind: kind, inputs: inputs, all: all}}
		i.Init(i, cluster, traits)
		return i
	case MinusKind:
		m := &Minus{SetOp{kind: kind, inputs: inputs, all: all}}
		m.Init(m, cluster, traits)
		return m
	}
	common.Fatalf(common.PreconditionError, "unknown set kind %d", kind)
	return nil
}

func (s *SetOp) Kind() SetKind {
	return s.kind
}

// All reports whether the operator keeps duplicates.
func (s *SetOp) All() bool {
	return s.all
}

func (s *SetOp) Inputs() []Node {
	return s.inputs
}

func (s *SetOp) IsDistinct() bool {
	return !s.all
}

// Copy rebuilds the operator over new inputs, keeping its kind, arity and
// all flag.
func (s *SetOp) Copy(traits trait.Set, inputs []Node) Node {
	if len(inputs) != len(s.inputs) {
		common.Fatalf(common.PreconditionError, "%s has %d inputs, copy got %d",
			s.Description(), len(s.inputs), len(inputs))
	}
	if traits.Equal(s.Traits()) && slices.Equal(s.inputs, inputs) {
		return s.self
	}
	return NewSetOp(s.Cluster(), s.kind, traits, inputs, s.all)
}

func (s *SetOp) Explain(w PlanWriter) {
	names := make([]string, 0, len(s.inputs)+1)
	for i := range s.inputs {
		names = append(names, inputTermName(i))
	}
	names = append(names, "all")
	w.Explain(s.self, names, []any{s.all})
}

// DeriveRowType returns the least restrictive type of the inputs' row types.
func (s *SetOp) DeriveRowType() *reltype.Type {
	t := s.leastRestrictive()
	if t == nil {
		common.Fatalf(common.ValidationError, "inputs of %s have incompatible row types", s.Description())
	}
	return t
}

func (s *SetOp) leastRestrictive() *reltype.Type {
	types := make([]*reltype.Type, len(s.inputs))
	for i, input := range s.inputs {
		types[i] = input.RowType()
	}
	return s.Cluster().TypeFactory().LeastRestrictive(types)
}

// IsValid checks that every input has the same number of columns and that
// their types have a common supertype.
func (s *SetOp) IsValid(fail bool) bool {
	width := s.inputs[0].RowType().FieldCount()
	for i, input := range s.inputs {
		if input.RowType().FieldCount() != width {
			if fail {
				common.Fatalf(common.ValidationError, "input %d of %s has %d columns, expected %d",
					i, s.Description(), input.RowType().FieldCount(), width)
			}
			return false
		}
	}
	if s.leastRestrictive() == nil {
		if fail {
			common.Fatalf(common.ValidationError, "inputs of %s are not union-compatible", s.Description())
		}
		return false
	}
	return true
}

func (s *SetOp) ReplaceInput(ordinal int, input Node) {
	common.Assert(ordinal >= 0 && ordinal < len(s.inputs), "input ordinal %d out of range", ordinal)
	s.checkReplaceInput(ordinal, s.inputs[ordinal], input)
	s.inputs[ordinal] = input
	s.RecomputeDigest()
}

func (s *SetOp) EstimatedRowCount(mq *MetadataQuery) float64 {
	switch s.kind {
	case UnionKind:
		// The union holds at least as many rows as its largest input. Without
		// duplicates we guess half the rows overlap.
		var sum, largest float64
		for _, input := range s.inputs {
			rows := mq.RowCount(input)
			sum += rows
			largest = math.Max(largest, rows)
		}
		if s.all {
			return sum
		}
		return math.Max(largest, sum/2)
	case IntersectKind:
		smallest := math.Inf(1)
		for _, input := range s.inputs {
			smallest = math.Min(smallest, mq.RowCount(input))
		}
		if !s.all {
			smallest /= 2
		}
		return smallest
	case MinusKind:
		// Each later input removes half its size from the first. This is a
		// rough guess, not a bag difference.
		rows := mq.RowCount(s.inputs[0])
		for _, input := range s.inputs[1:] {
			rows -= 0.5 * mq.RowCount(input)
		}
		return math.Max(rows, 0)
	}
	common.Assert(false, "unknown set kind %d", s.kind)
	return 0
}

func inputTermName(i int) string {
	return "input#" + strconv.Itoa(i)
}
