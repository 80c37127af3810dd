package rel

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"
	"mit.edu/dsg/relopt/common"
	"mit.edu/dsg/relopt/reltype"
	"mit.edu/dsg/relopt/rex"
	"mit.edu/dsg/relopt/trait"
)

// Query is the container for one query being optimized. It owns the
// generators for node identities and correlation variable names, and maps
// each correlation variable to the node that binds it.
type Query struct {
	id         uuid.UUID
	nextID     atomic.Int64
	nextCorrel atomic.Int64
	correls    *xsync.MapOf[string, Node]
}

func NewQuery() *Query {
	return &Query{
		id:      uuid.New(),
		correls: xsync.NewMapOf[string, Node](),
	}
}

// ID identifies the query in traces.
func (q *Query) ID() uuid.UUID {
	return q.id
}

func (q *Query) nextNodeID() int {
	return int(q.nextID.Add(1) - 1)
}

// CreateCorrel returns a correlation variable name not used before in this
// query.
func (q *Query) CreateCorrel() string {
	return fmt.Sprintf("$cor%d", q.nextCorrel.Add(1)-1)
}

// MapCorrel records that name refers to rows of n.
func (q *Query) MapCorrel(name string, n Node) {
	q.correls.Store(name, n)
}

// LookupCorrel returns the node a correlation variable refers to.
func (q *Query) LookupCorrel(name string) (Node, bool) {
	return q.correls.Load(name)
}

// Cluster is the environment shared by all the nodes of one tree: the query,
// the type factory, the trait kinds in use and the metadata facility. The
// cluster outlives the nodes built from it; nodes refer to it but never own
// it.
type Cluster struct {
	query       *Query
	types       *reltype.Factory
	rexBuilder  *rex.Builder
	traitDefs   []trait.Def
	emptyTraits trait.Set
	metadata    *MetadataQuery
	logger      *zap.Logger
}

type ClusterOption func(*Cluster)

// WithLogger sets the logger nodes trace their creation to.
func WithLogger(logger *zap.Logger) ClusterOption {
	return func(c *Cluster) {
		c.logger = logger
	}
}

// WithTraitDefs sets the trait kinds every node of the cluster carries, in
// digest order. The default is convention followed by collation.
func WithTraitDefs(defs ...trait.Def) ClusterOption {
	return func(c *Cluster) {
		c.traitDefs = defs
	}
}

// WithMetadataQuery replaces the default metadata facility.
func WithMetadataQuery(mq *MetadataQuery) ClusterOption {
	return func(c *Cluster) {
		c.metadata = mq
	}
}

func NewCluster(query *Query, types *reltype.Factory, opts ...ClusterOption) *Cluster {
	if query == nil || types == nil {
		common.Fatalf(common.PreconditionError, "cluster needs a query and a type factory")
	}
	c := &Cluster{
		query:      query,
		types:      types,
		rexBuilder: rex.NewBuilder(types),
		traitDefs:  []trait.Def{trait.ConventionDef, trait.CollationDef},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metadata == nil {
		c.metadata = NewMetadataQuery()
	}
	c.emptyTraits = trait.DefaultSet(c.traitDefs...)
	return c
}

func (c *Cluster) Query() *Query {
	return c.query
}

func (c *Cluster) TypeFactory() *reltype.Factory {
	return c.types
}

func (c *Cluster) RexBuilder() *rex.Builder {
	return c.rexBuilder
}

func (c *Cluster) Metadata() *MetadataQuery {
	return c.metadata
}

func (c *Cluster) Logger() *zap.Logger {
	return c.logger
}

// TraitSet returns the set holding the default of every trait kind.
func (c *Cluster) TraitSet() trait.Set {
	return c.emptyTraits
}

// TraitSetOf returns the default set with the given traits substituted.
func (c *Cluster) TraitSetOf(traits ...trait.Trait) trait.Set {
	s := c.emptyTraits
	for _, t := range traits {
		s = s.Replace(t)
	}
	return s
}
