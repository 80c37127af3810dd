// Package rel implements relational expressions: the operator nodes of a
// query's algebraic tree, their digests, and the protocol by which a tree is
// registered with a planner.
//
// Every node embeds Base, which supplies identity, digest and row type
// caching, correlation bookkeeping and the default implementations of the
// Node contract. Variants override what differs.
package rel

import (
	"mit.edu/dsg/relopt/reltype"
	"mit.edu/dsg/relopt/rex"
	"mit.edu/dsg/relopt/trait"
)

// Node is a relational expression.
//
// A node is immutable once it has been registered with a planner. Until then
// only ReplaceInput may change it, and doing so recomputes its digest.
type Node interface {
	// ID is unique among the nodes of one Query and increases with creation
	// order. It is a handle for display and tracing, not an equivalence key.
	ID() int

	// TypeName is the name of the operator, e.g. "Union".
	TypeName() string

	Cluster() *Cluster
	Traits() trait.Set
	Convention() *trait.Convention

	// Inputs returns the ordered child nodes. The slice must not be modified.
	Inputs() []Node
	Input(ordinal int) Node

	// ChildExprs returns the scalar expressions the node carries, in the
	// order they appear in its digest.
	ChildExprs() []rex.Expr

	// RowType returns the output row type, deriving it on first use.
	RowType() *reltype.Type

	// DeriveRowType computes the row type. It is called at most once per
	// node, by RowType.
	DeriveRowType() *reltype.Type

	// ExpectedInputRowType is the row type the node expects from the input at
	// the given position.
	ExpectedInputRowType(ordinal int) *reltype.Type

	// Digest is the equivalence key of the node: two registered nodes with
	// the same digest are interchangeable.
	Digest() string

	// Description is "rel#<id>:<digest>".
	Description() string
	String() string

	// RecomputeDigest computes the digest from the node's terms and stores it.
	RecomputeDigest() string

	// Explain writes the node's terms to w: inputs first, then child
	// expressions, then operand values.
	Explain(w PlanWriter)

	// Copy returns a node like this one but with the given traits and
	// inputs. If both are unchanged it returns the receiver.
	Copy(traits trait.Set, inputs []Node) Node

	// EstimatedRowCount is the node's own cardinality heuristic. Callers
	// should go through MetadataQuery.RowCount, which lets providers
	// override it.
	EstimatedRowCount(mq *MetadataQuery) float64

	// SelfCost is the cost of this node alone, not counting its inputs.
	SelfCost(p Planner) Cost

	// IsValid checks the node's internal consistency. If fail is set, an
	// invalid node raises a ValidationError instead of returning false.
	IsValid(fail bool) bool

	// IsDistinct returns true if the node never produces duplicate rows.
	IsDistinct() bool

	// Table returns the table a node reads, or nil.
	Table() Table
	IsAccessTo(table Table) bool

	CollationList() []trait.Collation

	CorrelVariable() string
	SetCorrelVariable(name string)
	GetOrCreateCorrelVariable() string
	CollectVariablesUsed(set map[string]struct{})
	CollectVariablesSet(set map[string]struct{})

	// VariablesStopped returns the correlation variables bound by this node
	// that are not visible above it.
	VariablesStopped() []string

	ChildrenAccept(v Visitor)

	// ReplaceInput swaps the input at the given position in place. Only
	// variants with mutable inputs support it, and only before registration.
	ReplaceInput(ordinal int, input Node)

	// OnRegister is invoked by the planner when the node first enters the
	// search space. It registers the inputs, rebuilds the node if any input
	// was replaced by an equivalent, finalizes the digest and validates.
	OnRegister(p Planner) Node

	// Freeze marks the node as registered.
	Freeze()
	Frozen() bool
}

// Planner is the part of the optimizer the node model calls back into.
type Planner interface {
	// EnsureRegistered registers n if it has not been registered and returns
	// its canonical form: either n, a rebuilt copy of it, or an equivalent node
	// registered earlier.
	EnsureRegistered(n Node) Node

	// MakeCost creates a cost.
	MakeCost(rows, cpu, io float64) Cost
}

// Table is the catalog handle read by a table scan. Two handles denote the
// same table only if they are equal as interface values.
type Table interface {
	QualifiedName() []string
	RowType() *reltype.Type
	RowCount() float64
}

// Visitor is called by ChildrenAccept for each input of a node.
type Visitor interface {
	Visit(n Node, ordinal int, parent Node)
}

// VisitorFunc adapts a function to the Visitor interface.
type VisitorFunc func(n Node, ordinal int, parent Node)

func (f VisitorFunc) Visit(n Node, ordinal int, parent Node) {
	f(n, ordinal, parent)
}

// Walk visits root and then every node below it, parents before children.
// A node shared by several parents is visited once per parent.
func Walk(root Node, fn func(n Node, ordinal int, parent Node)) {
	fn(root, 0, nil)
	var v VisitorFunc
	v = func(n Node, ordinal int, parent Node) {
		fn(n, ordinal, parent)
		n.ChildrenAccept(v)
	}
	root.ChildrenAccept(v)
}
