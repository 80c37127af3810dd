package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"mit.edu/dsg/relopt/common"
	"mit.edu/dsg/relopt/rel"
	"mit.edu/dsg/relopt/reltype"
)

// Catalog holds the tables the optimizer can scan, together with the
// statistics it estimates row counts from.
// For simplicity, the catalog is serialized as a single JSON blob and every
// change is written through to the PersistenceProvider.
//
// Table handles are stable for the lifetime of the catalog: a scan node
// compares tables by handle, so looking up the same table twice must return
// the same *Table.
type Catalog struct {
	catalogState

	mu    sync.RWMutex
	types *reltype.Factory

	// In-memory structures for fast lookups
	tableMap  map[string]*Table   // schema.name -> Table
	columnMap map[string][]*Table // ColumnName -> List of Tables containing this column
}

// Column represents the basic unit of a table schema.
type Column struct {
	Name      string          `json:"name"`
	Type      reltype.SQLType `json:"type"`
	Precision int             `json:"precision,omitempty"`
	Nullable  bool            `json:"nullable,omitempty"`
}

// Stats are the statistics kept for a table.
type Stats struct {
	RowCount float64 `json:"row_count"`
}

// Table is the primary metadata structure. It implements rel.Table.
type Table struct {
	Oid     common.ObjectID `json:"oid"`
	Schema  string          `json:"schema,omitempty"`
	Name    string          `json:"name"`
	Columns []Column        `json:"columns"`
	Stats   Stats           `json:"stats"`

	rowType *reltype.Type
}

var _ rel.Table = (*Table)(nil)

// PersistenceProvider abstracts how the catalog is saved to and loaded from disk.
type PersistenceProvider interface {
	LoadCatalogState() (json string, err error)
	SaveCatalogState(json string) error
}

// QualifiedName returns the schema, if any, followed by the table name.
func (t *Table) QualifiedName() []string {
	if t.Schema == "" {
		return []string{t.Name}
	}
	return []string{t.Schema, t.Name}
}

func (t *Table) RowType() *reltype.Type {
	return t.rowType
}

func (t *Table) RowCount() float64 {
	return t.Stats.RowCount
}

func (t *Table) String() string {
	b, _ := json.MarshalIndent(t, "", "  ")
	return string(b)
}

type catalogState struct {
	NextId uint32   `json:"next_id"`
	Tables []*Table `json:"tables"`
}

func tableKey(schema, name string) string {
	if schema == "" {
		return name
	}
	return schema + "." + name
}

func (c *Catalog) String() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	b, _ := json.MarshalIndent(c.catalogState, "", "  ")
	return string(b)
}

func (c *Catalog) toJSON() (string, error) {
	b, err := json.MarshalIndent(c.catalogState, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (c *Catalog) fromJSON(jsonData string) error {
	if err := json.Unmarshal([]byte(jsonData), &c.catalogState); err != nil {
		return err
	}
	for _, t := range c.Tables {
		rowType, err := c.rowTypeOf(t.Columns)
		if err != nil {
			return errors.Wrapf(err, "table %s", tableKey(t.Schema, t.Name))
		}
		t.rowType = rowType
		c.index(t)
	}
	return nil
}

func (c *Catalog) index(t *Table) {
	c.tableMap[tableKey(t.Schema, t.Name)] = t
	for _, f := range t.Columns {
		c.columnMap[f.Name] = append(c.columnMap[f.Name], t)
	}
}

func (c *Catalog) rowTypeOf(columns []Column) (*reltype.Type, error) {
	names := make([]string, len(columns))
	types := make([]*reltype.Type, len(columns))
	seen := make(map[string]bool, len(columns))
	for i, col := range columns {
		if seen[col.Name] {
			return nil, common.NewErrorf(common.DuplicateObjectError, "column '%s' appears twice", col.Name)
		}
		seen[col.Name] = true
		switch col.Type {
		case reltype.RecordType:
			return nil, common.NewErrorf(common.UnsupportedTypeError, "column '%s' cannot be a record", col.Name)
		case reltype.VarcharType:
			types[i] = c.types.Varchar(col.Precision, col.Nullable)
		default:
			types[i] = c.types.Scalar(col.Type, col.Nullable)
		}
		names[i] = col.Name
	}
	return c.types.Struct(names, types), nil
}

// NewCatalog initializes a catalog whose row types are created by types. It
// attempts to load existing state from the provider; if no state exists, it
// starts empty.
func NewCatalog(provider PersistenceProvider, types *reltype.Factory) (*Catalog, error) {
	result := &Catalog{
		catalogState: catalogState{
			NextId: 0,
			Tables: make([]*Table, 0),
		},
		types:     types,
		tableMap:  make(map[string]*Table),
		columnMap: make(map[string][]*Table),
	}

	jsonData, err := provider.LoadCatalogState()
	if errors.Is(err, os.ErrNotExist) {
		// Start from scratch
		return result, nil
	}
	if err != nil {
		return nil, err
	}

	if err = result.fromJSON(jsonData); err != nil {
		// Parsing errors usually indicate corruption
		return nil, errors.Wrap(err, "failed to parse catalog state")
	}

	return result, nil
}

// AddTable registers a new table in the catalog.
// It assigns a unique ObjectID to the table and persists the updated state. If
// a table with that name already exists in the schema, it returns
// DuplicateObjectError.
func (c *Catalog) AddTable(schema, tableName string, columns []Column, provider PersistenceProvider) (*Table, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.tableMap[tableKey(schema, tableName)]; exists {
		return nil, common.NewErrorf(common.DuplicateObjectError, "table '%s' already exists", tableKey(schema, tableName))
	}
	rowType, err := c.rowTypeOf(columns)
	if err != nil {
		return nil, err
	}

	// oid 0 is reserved for INVALID
	c.NextId++

	t := &Table{
		Oid:     common.ObjectID(c.NextId),
		Schema:  schema,
		Name:    tableName,
		Columns: columns,
		rowType: rowType,
	}

	c.Tables = append(c.Tables, t)
	c.index(t)

	jsonData, err := c.toJSON()
	if err != nil {
		return nil, err
	}
	return t, provider.SaveCatalogState(jsonData)
}

// AddStructTable registers a table whose columns mirror the exported fields
// of a Go struct type, as mapped by host.
func (c *Catalog) AddStructTable(schema, tableName string, host reltype.HostTypeFactory, goType reflect.Type, provider PersistenceProvider) (*Table, error) {
	rowType, err := host.StructTypeOf(goType)
	if err != nil {
		return nil, err
	}
	columns := make([]Column, 0, rowType.FieldCount())
	for _, f := range rowType.Fields() {
		columns = append(columns, Column{
			Name:      f.Name,
			Type:      f.Type.SQLType(),
			Precision: f.Type.Precision(),
			Nullable:  f.Type.Nullable(),
		})
	}
	return c.AddTable(schema, tableName, columns, provider)
}

// SetRowCount records the number of rows of a table and persists the change.
// Nodes registered before the change keep the estimate they cached; the
// caller should invalidate its rel.MetadataQuery.
func (c *Catalog) SetRowCount(schema, tableName string, rows float64, provider PersistenceProvider) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	table, err := c.getTable(schema, tableName)
	if err != nil {
		return err
	}
	if rows < 0 {
		return errors.Newf("negative row count %g for table %s", rows, tableKey(schema, tableName))
	}
	table.Stats.RowCount = rows

	jsonData, err := c.toJSON()
	if err != nil {
		return err
	}
	return provider.SaveCatalogState(jsonData)
}

// GetTable fetches a table by schema and name.
func (c *Catalog) GetTable(schema, tableName string) (*Table, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.getTable(schema, tableName)
}

func (c *Catalog) getTable(schema, tableName string) (*Table, error) {
	table, exists := c.tableMap[tableKey(schema, tableName)]
	if !exists {
		return nil, common.NewErrorf(common.NoSuchObjectError, "table '%s' does not exist", tableKey(schema, tableName))
	}
	return table, nil
}

// Resolve looks up a table by a dotted name such as "hr.emps".
func (c *Catalog) Resolve(name string) (*Table, error) {
	schema, tableName, ok := strings.Cut(name, ".")
	if !ok {
		schema, tableName = "", name
	}
	return c.GetTable(schema, tableName)
}

// FindTablesWithColumnName returns all tables that contain a column with
// the given name.
func (c *Catalog) FindTablesWithColumnName(columnName string) []*Table {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.columnMap[columnName]
}

const CatalogFileName = "catalog.json"

type DiskCatalogManager struct {
	rootPath string
}

func NewDiskCatalogManager(rootPath string) *DiskCatalogManager {
	return &DiskCatalogManager{
		rootPath: rootPath,
	}
}

// LoadCatalogState implements the catalog.PersistenceProvider interface.
func (dcm *DiskCatalogManager) LoadCatalogState() (string, error) {
	path := filepath.Join(dcm.rootPath, CatalogFileName)
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err // Let the caller (Catalog) handle os.ErrNotExist
	}
	return string(content), nil
}

// SaveCatalogState implements the catalog.PersistenceProvider interface.
func (dcm *DiskCatalogManager) SaveCatalogState(jsonData string) error {
	// Write to a temporary file and rename it over the old state.
	tmpPath := filepath.Join(dcm.rootPath, CatalogFileName+".tmp")
	finalPath := filepath.Join(dcm.rootPath, CatalogFileName)

	if err := os.WriteFile(tmpPath, []byte(jsonData), 0644); err != nil {
		return err
	}

	return os.Rename(tmpPath, finalPath)
}

// MemoryCatalogManager keeps the catalog state in memory. It is used by tests
// and by callers that build a catalog per optimization run.
type MemoryCatalogManager struct {
	mu    sync.Mutex
	state string
	saved bool
}

func NewMemoryCatalogManager() *MemoryCatalogManager {
	return &MemoryCatalogManager{}
}

func (m *MemoryCatalogManager) LoadCatalogState() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.saved {
		return "", fmt.Errorf("no catalog state: %w", os.ErrNotExist)
	}
	return m.state, nil
}

func (m *MemoryCatalogManager) SaveCatalogState(jsonData string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = jsonData
	m.saved = true
	return nil
}
