package rel

import (
	"fmt"
	"io"
	"strings"

	"github.com/dchest/siphash"
	"mit.edu/dsg/relopt/common"
	"mit.edu/dsg/relopt/rex"
)

// PlanWriter receives the terms of a node from Node.Explain. names holds one
// name per input, then one per child expression, then one per value.
//
// The digest is computed by a PlanWriter too, so every writer sees the same
// terms in the same order as the digest does.
type PlanWriter interface {
	Explain(n Node, names []string, values []any)
}

// Term is one name=value pair of a node's explanation. Exactly one of Input,
// Expr and Value is meaningful.
type Term struct {
	Name  string
	Input Node
	Expr  rex.Expr
	Value any
}

func (t Term) IsInput() bool {
	return t.Input != nil
}

// ValueString renders the value part of the term. Inputs are rendered by
// their digest.
func (t Term) ValueString() string {
	switch {
	case t.Input != nil:
		return t.Input.Digest()
	case t.Expr != nil:
		return t.Expr.String()
	}
	return formatValue(t.Value)
}

func (t Term) String() string {
	return t.Name + "=" + t.ValueString()
}

func formatValue(v any) string {
	switch v := v.(type) {
	case []string:
		return "[" + strings.Join(v, ", ") + "]"
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(v)
}

// Terms pairs the names passed to PlanWriter.Explain with the node's inputs,
// child expressions and values, in that order.
func Terms(n Node, names []string, values []any) []Term {
	inputs := n.Inputs()
	exprs := n.ChildExprs()
	common.Assert(len(names) == len(inputs)+len(exprs)+len(values),
		"%s: %d term names for %d inputs, %d child expressions and %d values",
		n.TypeName(), len(names), len(inputs), len(exprs), len(values))

	terms := make([]Term, 0, len(names))
	j := 0
	for _, input := range inputs {
		terms = append(terms, Term{Name: names[j], Input: input})
		j++
	}
	for _, e := range exprs {
		terms = append(terms, Term{Name: names[j], Expr: e})
		j++
	}
	for _, v := range values {
		terms = append(terms, Term{Name: names[j], Value: v})
		j++
	}
	return terms
}

// digestWriter renders "<type><traits>(<terms>)" for a single node.
type digestWriter struct {
	sb strings.Builder
}

func (w *digestWriter) Explain(n Node, names []string, values []any) {
	terms := Terms(n, names, values)
	w.sb.WriteString(n.TypeName())
	w.sb.WriteString(n.Traits().String())
	w.sb.WriteString("(")
	for i, t := range terms {
		if i > 0 {
			w.sb.WriteString(",")
		}
		w.sb.WriteString(t.String())
	}
	w.sb.WriteString(")")
}

func (w *digestWriter) String() string {
	return w.sb.String()
}

// Fingerprint hashes a digest. Equal digests have equal fingerprints; the
// converse holds only with high probability.
func Fingerprint(digest string) uint64 {
	return siphash.Hash(0x736f6d6570736575, 0x646f72616e646f6d, []byte(digest))
}

// TermRecorder is a PlanWriter that keeps the terms it is given.
type TermRecorder struct {
	Nodes []Node
	Terms [][]Term
}

func (r *TermRecorder) Explain(n Node, names []string, values []any) {
	r.Nodes = append(r.Nodes, n)
	r.Terms = append(r.Terms, Terms(n, names, values))
}

// Detail controls how much an ExplainWriter prints.
type Detail int

const (
	// NoAttributes prints only operator names.
	NoAttributes Detail = iota
	// DigestAttributes prints what the digest contains.
	DigestAttributes
	// AllAttributes adds identity, estimated row count and cost.
	AllAttributes
)

// ExplainWriter prints a plan as an indented tree, one node per line.
type ExplainWriter struct {
	w       io.Writer
	detail  Detail
	planner Planner
	level   int
}

// NewExplainWriter creates a writer. The planner is only used at
// AllAttributes, to compute costs; it may be nil otherwise.
func NewExplainWriter(w io.Writer, detail Detail, planner Planner) *ExplainWriter {
	return &ExplainWriter{w: w, detail: detail, planner: planner}
}

func (ew *ExplainWriter) Explain(n Node, names []string, values []any) {
	terms := Terms(n, names, values)

	var sb strings.Builder
	sb.WriteString(strings.Repeat("  ", ew.level))
	sb.WriteString(n.TypeName())
	if ew.detail != NoAttributes {
		sb.WriteString(n.Traits().String())
		sb.WriteString("(")
		first := true
		for _, t := range terms {
			if t.IsInput() {
				continue
			}
			if !first {
				sb.WriteString(", ")
			}
			first = false
			sb.WriteString(t.String())
		}
		sb.WriteString(")")
	}
	if ew.detail == AllAttributes {
		fmt.Fprintf(&sb, ": rowcount = %g", n.Cluster().Metadata().RowCount(n))
		if ew.planner != nil {
			fmt.Fprintf(&sb, ", cost = %s", n.SelfCost(ew.planner))
		}
		fmt.Fprintf(&sb, ", id = %d", n.ID())
	}
	sb.WriteString("\n")
	_, _ = io.WriteString(ew.w, sb.String())

	ew.level++
	for _, t := range terms {
		if t.IsInput() {
			t.Input.Explain(ew)
		}
	}
	ew.level--
}

// Explain renders the tree rooted at n.
func Explain(n Node, detail Detail, planner Planner) string {
	var sb strings.Builder
	n.Explain(NewExplainWriter(&sb, detail, planner))
	return sb.String()
}
