package rel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"mit.edu/dsg/relopt/common"
	"mit.edu/dsg/relopt/reltype"
	"mit.edu/dsg/relopt/rex"
)

func TestExplainWriter(t *testing.T) {
	c := newTestCluster(t)
	p := newTestPlanner()
	b := c.RexBuilder()
	emps := NewTableScan(c, empsTable(c, 100))
	filter := NewFilter(c, emps, b.Compare(rex.Equal, b.InputRef(emps.RowType(), 0),
		b.Literal(7, c.TypeFactory().Scalar(reltype.IntegerType, false))))
	root := p.EnsureRegistered(NewUnion(c, []Node{filter, NewTableScan(c, contractorsTable(c, 20))}, false))

	tests := []struct {
		detail   Detail
		expected string
	}{
		{NoAttributes, "" +
			"Union\n" +
			"  Filter\n" +
			"    TableScan\n" +
			"  TableScan\n"},
		{DigestAttributes, "" +
			"Union.NONE.[](all=false)\n" +
			"  Filter.NONE.[](condition=($0 = 7))\n" +
			"    TableScan.NONE.[](table=[hr, emps])\n" +
			"  TableScan.NONE.[](table=[hr, contractors])\n"},
		{AllAttributes, "" +
			"Union.NONE.[](all=false): rowcount = 25, cost = {25 rows, 25 cpu, 0 io}, id = 3\n" +
			"  Filter.NONE.[](condition=($0 = 7)): rowcount = 25, cost = {25 rows, 25 cpu, 0 io}, id = 1\n" +
			"    TableScan.NONE.[](table=[hr, emps]): rowcount = 100, cost = {100 rows, 101 cpu, 0 io}, id = 0\n" +
			"  TableScan.NONE.[](table=[hr, contractors]): rowcount = 20, cost = {20 rows, 21 cpu, 0 io}, id = 2\n"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, Explain(root, tt.detail, p))
	}

	// Without a planner no cost is printed.
	assert.Equal(t,
		"TableScan.NONE.[](table=[hr, emps]): rowcount = 100, id = 0\n",
		Explain(emps, AllAttributes, nil))
}

func TestTermsMismatch(t *testing.T) {
	c := newTestCluster(t)
	s := NewTableScan(c, empsTable(c, 1))
	u := NewUnion(c, []Node{s, s}, true)

	err := common.Catch(func() { Terms(u, []string{"input#0", "all"}, []any{true}) })
	assert.Error(t, err)
	_, ok := common.CodeOf(err)
	assert.False(t, ok)

	terms := Terms(u, []string{"a", "b", "all"}, []any{true})
	assert.Equal(t, []string{"a=TableScan#0", "b=TableScan#0", "all=true"},
		[]string{terms[0].String(), terms[1].String(), terms[2].String()})
}
