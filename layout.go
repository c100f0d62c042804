package depot

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/TheBitDrifter/mask"
	"github.com/TheBitDrifter/table"
)

// Every column type registers in one schema so that masks of different tables
// are comparable. A value type maps to exactly one element type, whatever the
// number of Column handles created for it.
var (
	columnSchema   = table.Factory.NewSchema()
	columnTypes    = map[reflect.Type]table.ElementType{}
	columnSchemaMu sync.Mutex
)

func elementTypeFor[T any]() table.ElementType {
	typ := reflect.TypeFor[T]()
	columnSchemaMu.Lock()
	defer columnSchemaMu.Unlock()
	if et, ok := columnTypes[typ]; ok {
		return et
	}
	et := table.FactoryNewElementType[T]()
	columnTypes[typ] = et
	return et
}

// layout is the declared column signature shared by every table kind.
type layout struct {
	name    string
	columns []AnyColumn
	slots   map[reflect.Type]int
	mask    mask.Mask
}

func newLayout(name string, columns []AnyColumn) (layout, error) {
	if len(columns) == 0 {
		return layout{}, TableSchemaError{Table: name, Reason: "no columns declared"}
	}
	l := layout{
		name:    name,
		columns: append([]AnyColumn(nil), columns...),
		slots:   make(map[reflect.Type]int, len(columns)),
	}

	for i, col := range columns {
		typ := col.valueType()
		if _, dup := l.slots[typ]; dup {
			return layout{}, TableSchemaError{Table: name, Reason: "duplicate column " + typ.String()}
		}
		l.slots[typ] = i
	}
	m, err := columnMask(name, columns...)
	if err != nil {
		return layout{}, err
	}
	l.mask = m
	return l, nil
}

func (l *layout) Name() string {
	return l.name
}

func (l *layout) Columns() []AnyColumn {
	return append([]AnyColumn(nil), l.columns...)
}

func (l *layout) Mask() mask.Mask {
	return l.mask
}

// ContainsAll reports whether the table declares every given column
func (l *layout) ContainsAll(columns ...AnyColumn) bool {
	m, err := columnMask(l.name, columns...)
	if err != nil {
		return false
	}
	return l.mask.ContainsAll(m)
}

func columnMask(name string, columns ...AnyColumn) (mask.Mask, error) {
	elementTypes := make([]table.ElementType, len(columns))
	for i, col := range columns {
		elementTypes[i] = col.elementType()
	}
	columnSchemaMu.Lock()
	defer columnSchemaMu.Unlock()
	return schemaMask(columnSchema, name, elementTypes)
}

// schemaMask registers elementTypes in schema and marks their bits. Element types
// the mask cannot hold fail with TableSchemaError.
func schemaMask(schema table.Schema, name string, elementTypes []table.ElementType) (mask.Mask, error) {
	var m mask.Mask
	for _, et := range elementTypes {
		schema.Register(et)
		if !schema.Contains(et) {
			return m, columnLimitError(name, et)
		}
		bit := schema.RowIndexFor(et)
		if bit >= mask.MaxBits {
			return m, columnLimitError(name, et)
		}
		m.Mark(bit)
	}
	return m, nil
}

func columnLimitError(name string, et table.ElementType) error {
	return TableSchemaError{
		Table:  name,
		Reason: fmt.Sprintf("column %v exceeds the limit of %d column types", et.Type(), mask.MaxBits),
	}
}

// newColumnTable builds a TheBitDrifter/table Table holding columns.
func newColumnTable(name string, columns []AnyColumn) (table.Table, error) {
	elementTypes := make([]table.ElementType, len(columns))
	for i, col := range columns {
		elementTypes[i] = col.elementType()
	}

	columnSchemaMu.Lock()
	defer columnSchemaMu.Unlock()
	tbl, err := table.NewTableBuilder().
		WithSchema(columnSchema).
		WithEntryIndex(table.Factory.NewEntryIndex()).
		WithElementTypes(elementTypes...).
		WithEvents(Config.tableEvents).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build table '%s': %w", name, err)
	}
	return tbl, nil
}

func (l *layout) slot(typ reflect.Type) (int, error) {
	slot, ok := l.slots[typ]
	if !ok {
		return 0, ColumnNotFoundError{Table: l.name, Column: typ.String()}
	}
	return slot, nil
}

func (l *layout) newStores(n int) []sliceStore {
	stores := make([]sliceStore, len(l.columns))
	for i, col := range l.columns {
		stores[i] = col.newStore(n)
	}
	return stores
}

func (l *layout) newTableStores(tbl table.Table) []store {
	stores := make([]store, len(l.columns))
	for i, col := range l.columns {
		stores[i] = col.newTableStore(tbl)
	}
	return stores
}

func rowOf[S store](stores []S, offset int) Row {
	row := make(Row, len(stores))
	for i, s := range stores {
		row[i] = s.ptr(offset)
	}
	return row
}
