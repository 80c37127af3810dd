package rel

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/redact"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
	"mit.edu/dsg/relopt/common"
	"mit.edu/dsg/relopt/reltype"
	"mit.edu/dsg/relopt/rex"
	"mit.edu/dsg/relopt/trait"
)

// Base implements the parts of Node shared by every variant. A variant embeds
// Base and calls Init from its constructor, passing itself so that Base can
// dispatch to the variant's overrides.
type Base struct {
	self     Node
	cluster  *Cluster
	id       int
	typeName string
	traits   trait.Set

	// digest is provisional ("<type>#<id>") until RecomputeDigest runs.
	digest string
	desc   string

	rowTypeOnce sync.Once
	rowType     *reltype.Type

	correlVariable string
	frozen         atomic.Bool
}

// Init assigns the node its identity and provisional digest. It must be
// called exactly once, after the variant's own fields are set.
func (b *Base) Init(self Node, cluster *Cluster, traits trait.Set) {
	checkCluster(cluster, typeNameOf(self))
	common.Assert(b.self == nil, "node initialized twice")
	b.self = self
	b.cluster = cluster
	b.traits = traits
	b.typeName = typeNameOf(self)
	b.id = cluster.Query().nextNodeID()
	b.digest = fmt.Sprintf("%s#%d", b.typeName, b.id)
	b.desc = b.digest
	cluster.Logger().Debug("new", zap.String("rel", b.digest))
}

func checkCluster(cluster *Cluster, typeName string) {
	if cluster == nil {
		common.Fatalf(common.PreconditionError, "cannot create %s without a cluster", typeName)
	}
}

func typeNameOf(n Node) string {
	t := reflect.TypeOf(n)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

func (b *Base) ID() int {
	return b.id
}

func (b *Base) TypeName() string {
	return b.typeName
}

func (b *Base) Cluster() *Cluster {
	return b.cluster
}

func (b *Base) Traits() trait.Set {
	return b.traits
}

func (b *Base) Convention() *trait.Convention {
	t, err := b.traits.Get(trait.ConventionDef)
	common.Assert(err == nil, "%s has no convention: %v", redact.Safe(b.desc), err)
	return t.(*trait.Convention)
}

func (b *Base) Inputs() []Node {
	return nil
}

func (b *Base) Input(ordinal int) Node {
	return b.self.Inputs()[ordinal]
}

func (b *Base) ChildExprs() []rex.Expr {
	return nil
}

func (b *Base) RowType() *reltype.Type {
	b.rowTypeOnce.Do(func() {
		b.rowType = b.self.DeriveRowType()
	})
	common.Assert(b.rowType != nil, "%s has no row type", redact.Safe(b.desc))
	return b.rowType
}

// DeriveRowType fails for variants that do not supply a derivation.
func (b *Base) DeriveRowType() *reltype.Type {
	common.Fatalf(common.UnsupportedOperationError, "%s does not derive a row type", b.typeName)
	return nil
}

func (b *Base) ExpectedInputRowType(ordinal int) *reltype.Type {
	return b.self.RowType()
}

func (b *Base) Digest() string {
	return b.digest
}

func (b *Base) Description() string {
	return b.desc
}

func (b *Base) String() string {
	return b.desc
}

func (b *Base) RecomputeDigest() string {
	w := &digestWriter{}
	b.self.Explain(w)
	d := w.String()
	common.Assert(d != "", "empty digest for %s", redact.Safe(b.desc))
	b.desc = fmt.Sprintf("rel#%d:%s", b.id, d)
	b.digest = d
	return d
}

// Explain writes no terms. Variants with inputs, child expressions or
// operands must override it.
func (b *Base) Explain(w PlanWriter) {
	w.Explain(b.self, nil, nil)
}

// Copy returns the receiver when nothing changes. Otherwise it raises
// MustOverrideCopyError: an empty input list always equals itself, so only
// variants with zero inputs can rely on this implementation.
func (b *Base) Copy(traits trait.Set, inputs []Node) Node {
	if traits.Equal(b.traits) && slices.Equal(b.self.Inputs(), inputs) {
		return b.self
	}
	common.Fatalf(common.MustOverrideCopyError,
		"relational expression should override Copy; type=%s traits=%s desired traits=%s",
		b.typeName, b.traits, traits)
	return nil
}

func (b *Base) EstimatedRowCount(mq *MetadataQuery) float64 {
	return 1.0
}

// SelfCost assumes the cost is proportional to the number of rows: every row
// produced is a row read, and there is no I/O.
func (b *Base) SelfCost(p Planner) Cost {
	rows := b.cluster.Metadata().RowCount(b.self)
	return p.MakeCost(rows, rows, 0)
}

func (b *Base) IsValid(fail bool) bool {
	return true
}

func (b *Base) IsDistinct() bool {
	return false
}

func (b *Base) Table() Table {
	return nil
}

func (b *Base) IsAccessTo(table Table) bool {
	return b.self.Table() == table
}

func (b *Base) CollationList() []trait.Collation {
	c, ok := b.traits.GetOrDefault(trait.CollationDef).(trait.Collation)
	if !ok || len(c.Fields()) == 0 {
		return nil
	}
	return []trait.Collation{c}
}

func (b *Base) CorrelVariable() string {
	return b.correlVariable
}

// SetCorrelVariable binds the node to a correlation variable. A node has at
// most one; assigning a second is a precondition violation.
func (b *Base) SetCorrelVariable(name string) {
	common.Assert(name != "", "empty correlation variable")
	if b.correlVariable != "" {
		common.Fatalf(common.PreconditionError, "%s already has correlation variable %s, cannot set %s",
			b.desc, b.correlVariable, name)
	}
	b.correlVariable = name
	b.cluster.Query().MapCorrel(name, b.self)
}

func (b *Base) GetOrCreateCorrelVariable() string {
	if b.correlVariable == "" {
		b.SetCorrelVariable(b.cluster.Query().CreateCorrel())
	}
	return b.correlVariable
}

func (b *Base) CollectVariablesUsed(set map[string]struct{}) {}

func (b *Base) CollectVariablesSet(set map[string]struct{}) {
	if b.correlVariable != "" {
		set[b.correlVariable] = struct{}{}
	}
}

func (b *Base) VariablesStopped() []string {
	return nil
}

func (b *Base) ChildrenAccept(v Visitor) {
	for i, input := range b.self.Inputs() {
		v.Visit(input, i, b.self)
	}
}

func (b *Base) ReplaceInput(ordinal int, input Node) {
	common.Fatalf(common.PreconditionError, "ReplaceInput called on %s", b.desc)
}

// checkReplaceInput validates a ReplaceInput call of a variant with mutable
// inputs.
func (b *Base) checkReplaceInput(ordinal int, old, input Node) {
	if b.Frozen() {
		common.Fatalf(common.PreconditionError, "ReplaceInput called on registered node %s", b.desc)
	}
	if !old.RowType().Equal(input.RowType()) {
		common.Fatalf(common.ValidationError, "input %d of %s changes row type from %s to %s",
			ordinal, b.desc, old.RowType(), input.RowType())
	}
}

func (b *Base) OnRegister(p Planner) Node {
	oldInputs := b.self.Inputs()
	inputs := make([]Node, len(oldInputs))
	for i, input := range oldInputs {
		e := p.EnsureRegistered(input)
		if e != input && !input.RowType().Equal(e.RowType()) {
			common.Fatalf(common.ValidationError,
				"row type of %s before registration %s differs from row type of %s after registration %s",
				input, input.RowType(), e, e.RowType())
		}
		inputs[i] = e
	}
	r := b.self
	if !slices.Equal(oldInputs, inputs) {
		r = b.self.Copy(b.traits, inputs)
	}
	r.RecomputeDigest()
	if !r.IsValid(true) {
		common.Fatalf(common.ValidationError, "%s is not valid", r.Description())
	}
	return r
}

func (b *Base) Freeze() {
	b.frozen.Store(true)
}

func (b *Base) Frozen() bool {
	return b.frozen.Load()
}

// sole returns the only element of inputs.
func sole(inputs []Node) Node {
	if len(inputs) != 1 {
		common.Fatalf(common.PreconditionError, "expected exactly one input, got %d", len(inputs))
	}
	return inputs[0]
}
