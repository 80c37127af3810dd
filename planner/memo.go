// Package planner drives the registration of relational expressions. A Memo
// holds every node registered for one query, interned by digest, so that
// structurally equal subtrees are represented by a single node.
package planner

import (
	"fmt"
	"io"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/tidwall/btree"
	"go.uber.org/zap"
	"mit.edu/dsg/relopt/common"
	"mit.edu/dsg/relopt/rel"
)

type memoEntry struct {
	id   int
	node rel.Node
}

// Memo is the search space of one query. It implements rel.Planner.
//
// Registration is serialized by the Memo. Registered nodes are frozen and
// may be read concurrently, e.g. to explain or cost a plan.
type Memo struct {
	mu     sync.Mutex
	opts   Options
	logger *zap.Logger

	// query is the query of the first node registered. Node identities are
	// only unique within a query, so nodes of other queries are rejected.
	query *rel.Query

	// byDigest maps a digest fingerprint to the registered nodes with that
	// fingerprint. Collisions are resolved by comparing digests.
	byDigest *xsync.MapOf[uint64, []rel.Node]
	// byID orders the registered nodes by identity.
	byID *btree.BTreeG[memoEntry]

	// err is set when a registration fails. The memo may then hold a
	// partially registered tree and refuses further work.
	err error
}

var _ rel.Planner = (*Memo)(nil)

func New(opts Options, logger *zap.Logger) *Memo {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Memo{
		opts:     opts,
		logger:   logger,
		byDigest: xsync.NewMapOf[uint64, []rel.Node](),
		byID: btree.NewBTreeG(func(a, b memoEntry) bool {
			return a.id < b.id
		}),
	}
}

// Register adds the tree rooted at n to the memo and returns its canonical
// form. Fatal conditions raised while registering (invalid nodes, broken
// preconditions in a variant) are returned as errors; after the first one the
// memo returns the same error for every call.
func (m *Memo) Register(n rel.Node) (result rel.Node, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	defer func() {
		if r := recover(); r != nil {
			ok, e := common.ShouldCatch(r)
			if !ok {
				panic(r)
			}
			m.err = e
			m.logger.Error("registration failed", zap.String("rel", n.Description()), zap.Error(e))
			result, err = nil, e
		}
	}()
	return m.EnsureRegistered(n), nil
}

// Err returns the error that stopped the memo, if any.
func (m *Memo) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// EnsureRegistered implements rel.Planner. It must only be called by Register
// or, through OnRegister, by the nodes being registered.
func (m *Memo) EnsureRegistered(n rel.Node) rel.Node {
	if e, ok := m.byID.Get(memoEntry{id: n.ID()}); ok && e.node == n {
		return n
	}
	if n.Frozen() {
		common.Fatalf(common.PreconditionError, "%s is registered with another planner", n.Description())
	}
	m.bind(n)

	r := n.OnRegister(m)
	if r != n {
		m.logger.Debug("rebuilt", zap.String("rel", n.Description()), zap.Int("new", r.ID()))
		if m.opts.CheckRowTypes && !r.RowType().Equal(n.RowType()) {
			common.Fatalf(common.ValidationError, "rebuilding %s changed its row type from %s to %s",
				n.Description(), n.RowType(), r.RowType())
		}
	}

	fp := rel.Fingerprint(r.Digest())
	bucket, _ := m.byDigest.Load(fp)
	for _, existing := range bucket {
		if existing.Digest() == r.Digest() {
			m.logger.Debug("duplicate", zap.String("rel", r.Description()), zap.Int("existing", existing.ID()))
			return existing
		}
	}

	r.Freeze()
	m.byDigest.Store(fp, append(bucket[:len(bucket):len(bucket)], r))
	m.byID.Set(memoEntry{id: r.ID(), node: r})
	m.logger.Debug("registered", zap.String("rel", r.Description()),
		zap.Stringer("query", r.Cluster().Query().ID()))
	return r
}

func (m *Memo) bind(n rel.Node) {
	q := n.Cluster().Query()
	if m.query == nil {
		m.query = q
		return
	}
	if q != m.query {
		common.Fatalf(common.PreconditionError, "%s belongs to query %s, memo serves query %s",
			n.Description(), q.ID(), m.query.ID())
	}
}

// Lookup returns the registered node with the given digest.
func (m *Memo) Lookup(digest string) (rel.Node, bool) {
	bucket, _ := m.byDigest.Load(rel.Fingerprint(digest))
	for _, n := range bucket {
		if n.Digest() == digest {
			return n, true
		}
	}
	return nil, false
}

// Nodes returns the registered nodes in order of identity.
func (m *Memo) Nodes() []rel.Node {
	m.mu.Lock()
	defer m.mu.Unlock()
	nodes := make([]rel.Node, 0, m.byID.Len())
	m.byID.Scan(func(e memoEntry) bool {
		nodes = append(nodes, e.node)
		return true
	})
	return nodes
}

func (m *Memo) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID.Len()
}

// Dump writes the description of every registered node, one per line.
func (m *Memo) Dump(w io.Writer) error {
	for _, n := range m.Nodes() {
		if _, err := fmt.Fprintln(w, n.Description()); err != nil {
			return err
		}
	}
	return nil
}

func (m *Memo) MakeCost(rows, cpu, io float64) rel.Cost {
	return rel.Cost{Rows: rows, CPU: cpu, IO: io}
}

// CumulativeCost is the cost of n and all the nodes below it. A node shared
// by several parents is counted once per parent.
func (m *Memo) CumulativeCost(n rel.Node) rel.Cost {
	cost := n.SelfCost(m)
	for _, input := range n.Inputs() {
		cost = cost.Plus(m.CumulativeCost(input))
	}
	return cost
}

// Less compares costs with the configured weights.
func (m *Memo) Less(a, b rel.Cost) bool {
	return a.Less(b, m.opts.CostWeights)
}
