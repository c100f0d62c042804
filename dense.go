package depot

import (
	"fmt"

	"github.com/TheBitDrifter/mask"
	"github.com/TheBitDrifter/table"
)

var _ mask.Maskable = &DenseTable{}

// DenseTable is an append-only table stored as contiguous columns of a
// TheBitDrifter/table Table. Column access through GetFromDense and SetOnDense is
// not bounds-checked.
type DenseTable struct {
	name    string
	columns []AnyColumn
	tbl     table.Table
}

func newDenseTable(name string, columns ...AnyColumn) (*DenseTable, error) {
	l, err := newLayout(name, columns)
	if err != nil {
		return nil, err
	}
	tbl, err := newColumnTable(name, l.columns)
	if err != nil {
		return nil, err
	}
	return &DenseTable{
		name:    name,
		columns: l.columns,
		tbl:     tbl,
	}, nil
}

// PushBack appends a row with default values and returns its index
func (t *DenseTable) PushBack() (int, error) {
	if _, err := t.tbl.NewEntries(1); err != nil {
		return -1, fmt.Errorf("failed to append to dense table '%s': %w", t.name, err)
	}
	return t.tbl.Length() - 1, nil
}

// Resize grows the table to size rows. It never shrinks.
func (t *DenseTable) Resize(size int) error {
	n := size - t.tbl.Length()
	if n <= 0 {
		return nil
	}
	if _, err := t.tbl.NewEntries(n); err != nil {
		return fmt.Errorf("failed to resize dense table '%s': %w", t.name, err)
	}
	return nil
}

func (t *DenseTable) Size() int {
	return t.tbl.Length()
}

func (t *DenseTable) IsValid(index int) bool {
	return index >= 0 && index < t.tbl.Length()
}

func (t *DenseTable) Name() string {
	return t.name
}

func (t *DenseTable) Columns() []AnyColumn {
	return append([]AnyColumn(nil), t.columns...)
}

// Contains reports whether the table stores col. Unknown columns are registered
// with the shared schema first.
func (t *DenseTable) Contains(col AnyColumn) bool {
	m, err := columnMask(t.name, col)
	if err != nil {
		return false
	}
	return t.Mask().ContainsAll(m)
}

func (t *DenseTable) Mask() mask.Mask {
	return t.tbl.(mask.Maskable).Mask()
}

// Table exposes the underlying table for code built on TheBitDrifter/table directly
func (t *DenseTable) Table() table.Table {
	return t.tbl
}
