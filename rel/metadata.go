package rel

import (
	"math"

	"github.com/puzpuzpuz/xsync/v3"
)

// RowCountProvider supplies row count estimates for some nodes. ok is false
// if the provider has no opinion about n.
type RowCountProvider interface {
	RowCount(n Node, mq *MetadataQuery) (rows float64, ok bool)
}

// RowCountFunc adapts a function to the RowCountProvider interface.
type RowCountFunc func(n Node, mq *MetadataQuery) (float64, bool)

func (f RowCountFunc) RowCount(n Node, mq *MetadataQuery) (float64, bool) {
	return f(n, mq)
}

// MetadataQuery answers statistical questions about nodes. Providers are
// consulted in order; if none answers, the node's own EstimatedRowCount is
// used.
//
// Answers for registered nodes are cached by node identity. Unregistered
// nodes may still change and are recomputed on every call.
type MetadataQuery struct {
	providers []RowCountProvider
	rowCounts *xsync.MapOf[int, float64]
}

func NewMetadataQuery(providers ...RowCountProvider) *MetadataQuery {
	return &MetadataQuery{
		providers: providers,
		rowCounts: xsync.NewMapOf[int, float64](),
	}
}

// RowCount estimates the number of rows n produces. The result is never
// negative.
func (mq *MetadataQuery) RowCount(n Node) float64 {
	if n.Frozen() {
		if rows, ok := mq.rowCounts.Load(n.ID()); ok {
			return rows
		}
	}
	rows := mq.rowCount(n)
	if n.Frozen() {
		mq.rowCounts.Store(n.ID(), rows)
	}
	return rows
}

func (mq *MetadataQuery) rowCount(n Node) float64 {
	for _, p := range mq.providers {
		if rows, ok := p.RowCount(n, mq); ok {
			return math.Max(rows, 0)
		}
	}
	return math.Max(n.EstimatedRowCount(mq), 0)
}

// Invalidate drops every cached answer.
func (mq *MetadataQuery) Invalidate() {
	mq.rowCounts.Clear()
}
