package rel

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"mit.edu/dsg/relopt/common"
	"mit.edu/dsg/relopt/reltype"
)

type testTable struct {
	name    []string
	rowType *reltype.Type
	rows    float64
}

func (t *testTable) QualifiedName() []string {
	return t.name
}

func (t *testTable) RowType() *reltype.Type {
	return t.rowType
}

func (t *testTable) RowCount() float64 {
	return t.rows
}

func newTestCluster(t *testing.T, opts ...ClusterOption) *Cluster {
	opts = append([]ClusterOption{WithLogger(zaptest.NewLogger(t))}, opts...)
	return NewCluster(NewQuery(), reltype.NewFactory(), opts...)
}

// RecordType(INTEGER NOT NULL empno, VARCHAR(20) name)
func empsTable(c *Cluster, rows float64) *testTable {
	f := c.TypeFactory()
	return &testTable{
		name: []string{"hr", "emps"},
		rowType: f.Struct([]string{"empno", "name"},
			[]*reltype.Type{f.Scalar(reltype.IntegerType, false), f.Varchar(20, true)}),
		rows: rows,
	}
}

// RecordType(BIGINT NOT NULL id, VARCHAR(30) NOT NULL name)
func contractorsTable(c *Cluster, rows float64) *testTable {
	f := c.TypeFactory()
	return &testTable{
		name: []string{"hr", "contractors"},
		rowType: f.Struct([]string{"id", "name"},
			[]*reltype.Type{f.Scalar(reltype.BigIntType, false), f.Varchar(30, false)}),
		rows: rows,
	}
}

// RecordType(INTEGER NOT NULL deptno)
func deptsTable(c *Cluster, rows float64) *testTable {
	f := c.TypeFactory()
	return &testTable{
		name:    []string{"hr", "depts"},
		rowType: f.Struct([]string{"deptno"}, []*reltype.Type{f.Scalar(reltype.IntegerType, false)}),
		rows:    rows,
	}
}

// namedTable is a table with one integer column and the given row count.
func namedTable(c *Cluster, name string, rows float64) *testTable {
	f := c.TypeFactory()
	return &testTable{
		name:    []string{name},
		rowType: f.Struct([]string{"x"}, []*reltype.Type{f.Scalar(reltype.IntegerType, false)}),
		rows:    rows,
	}
}

// testPlanner registers nodes in a map keyed by digest.
type testPlanner struct {
	byDigest map[string]Node
	calls    int
}

func newTestPlanner() *testPlanner {
	return &testPlanner{byDigest: map[string]Node{}}
}

func (p *testPlanner) EnsureRegistered(n Node) Node {
	p.calls++
	if n.Frozen() {
		return n
	}
	r := n.OnRegister(p)
	if existing, ok := p.byDigest[r.Digest()]; ok {
		return existing
	}
	r.Freeze()
	p.byDigest[r.Digest()] = r
	return r
}

func (p *testPlanner) MakeCost(rows, cpu, io float64) Cost {
	return Cost{Rows: rows, CPU: cpu, IO: io}
}

// requireFatal runs fn and requires it to raise an error with the given code.
func requireFatal(t *testing.T, code common.ErrorCode, fn func()) {
	t.Helper()
	err := common.Catch(fn)
	require.Error(t, err)
	c, ok := common.CodeOf(err)
	require.True(t, ok, "no error code in %v", err)
	require.Equal(t, code, c, "unexpected error %v", err)
}
