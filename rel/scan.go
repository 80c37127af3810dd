package rel

import (
	"mit.edu/dsg/relopt/common"
	"mit.edu/dsg/relopt/reltype"
	"mit.edu/dsg/relopt/trait"
)

// TableScan reads every row of a table. It is a leaf in the NONE convention;
// its row type is the table's.
type TableScan struct {
	Base
	table Table
}

func NewTableScan(cluster *Cluster, table Table) *TableScan {
	checkCluster(cluster, "TableScan")
	return newTableScan(cluster, cluster.TraitSetOf(trait.None), table)
}

func newTableScan(cluster *Cluster, traits trait.Set, table Table) *TableScan {
	if table == nil {
		common.Fatalf(common.PreconditionError, "table scan needs a table")
	}
	s := &TableScan{table: table}
	s.Init(s, cluster, traits)
	return s
}

func (s *TableScan) Table() Table {
	return s.table
}

func (s *TableScan) DeriveRowType() *reltype.Type {
	return s.table.RowType()
}

// Copy accepts only an empty input list and a trait set in the NONE
// convention.
func (s *TableScan) Copy(traits trait.Set, inputs []Node) Node {
	if len(inputs) != 0 {
		common.Fatalf(common.PreconditionError, "table scan %s cannot have inputs, got %d", s.Description(), len(inputs))
	}
	if !traits.Comprises(trait.None) {
		common.Fatalf(common.PreconditionError, "table scan %s must stay in convention NONE, got %s", s.Description(), traits)
	}
	if traits.Equal(s.Traits()) {
		return s
	}
	return newTableScan(s.Cluster(), traits, s.table)
}

func (s *TableScan) Explain(w PlanWriter) {
	w.Explain(s, []string{"table"}, []any{s.table.QualifiedName()})
}

func (s *TableScan) EstimatedRowCount(mq *MetadataQuery) float64 {
	return s.table.RowCount()
}

// SelfCost charges one more unit of CPU than rows, so that a scan is never
// free even over an empty table.
func (s *TableScan) SelfCost(p Planner) Cost {
	rows := s.Cluster().Metadata().RowCount(s)
	return p.MakeCost(rows, rows+1, 0)
}
