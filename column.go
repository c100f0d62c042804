package depot

import (
	"reflect"

	"github.com/TheBitDrifter/table"
)

var _ AnyColumn = Column[int]{}

// Column is a typed handle for one attribute of a table's rows.
// Columns are addressed by value type: two handles created for the same T are
// interchangeable, and a table declares each value type at most once.
type Column[T any] struct {
	table.ElementType
	table.Accessor[T] // dense and flex tables.
	typ               reflect.Type
	mode              resetMode
}

func newColumn[T any](mode resetMode) Column[T] {
	iden := elementTypeFor[T]()
	if mode == resetZero {
		if _, ok := any((*T)(nil)).(Resetter); ok {
			mode = resetHook
		}
	}
	return Column[T]{
		ElementType: iden,
		Accessor:    table.FactoryNewAccessor[T](iden),
		typ:         reflect.TypeFor[T](),
		mode:        mode,
	}
}

func (c Column[T]) elementType() table.ElementType {
	return c.ElementType
}

func (c Column[T]) valueType() reflect.Type {
	return c.typ
}

func (c Column[T]) newStore(n int) sliceStore {
	return newColumnStore[T](n, c.mode)
}

func (c Column[T]) newTableStore(tbl table.Table) store {
	return &tableStore[T]{tbl: tbl, accessor: c.Accessor, mode: c.mode}
}

// Get returns a pointer to the row's value. For stable tables and keyed maps the
// pointer stays valid for the row's lifetime; for the other tables it is valid
// until the next structural change.
func (c Column[T]) Get(tbl Columnar, index int) (*T, error) {
	s, offset, err := tbl.locate(c.typ, index)
	if err != nil {
		return nil, err
	}
	return valueAt[T](s, offset), nil
}

func (c Column[T]) Value(tbl Columnar, index int) (T, error) {
	ptr, err := c.Get(tbl, index)
	if err != nil {
		var zero T
		return zero, err
	}
	return *ptr, nil
}

func (c Column[T]) Set(tbl Columnar, index int, value T) error {
	ptr, err := c.Get(tbl, index)
	if err != nil {
		return err
	}
	*ptr = value
	return nil
}

// Find returns the first index whose value satisfies pred, in the table's scan order.
// Stable tables hold their lock while pred runs.
func (c Column[T]) Find(tbl Columnar, pred func(T) bool) (int, bool) {
	found := -1
	err := tbl.scan(c.typ, func(index int, s store, offset int) bool {
		if pred(*valueAt[T](s, offset)) {
			found = index
			return false
		}
		return true
	})
	if err != nil || found < 0 {
		return -1, false
	}
	return found, true
}

// Visit calls fn for every index the table scans, with a pointer to the value.
func (c Column[T]) Visit(tbl Columnar, fn func(index int, value *T)) error {
	return tbl.scan(c.typ, func(index int, s store, offset int) bool {
		fn(index, valueAt[T](s, offset))
		return true
	})
}

// GetFromCursor retrieves the value for the row at the cursor position
func (c Column[T]) GetFromCursor(cursor *Cursor) *T {
	ptr, err := c.Get(cursor.table, cursor.Index())
	if err != nil {
		return nil
	}
	return ptr
}

// GetFromDense retrieves the value at index without bounds checking
func (c Column[T]) GetFromDense(t *DenseTable, index int) *T {
	return c.Accessor.Get(index, t.tbl)
}

func (c Column[T]) SetOnDense(t *DenseTable, index int, value T) {
	*c.Accessor.Get(index, t.tbl) = value
}

// CheckDense determines if the dense table stores this column
func (c Column[T]) CheckDense(t *DenseTable) bool {
	if !t.Contains(c) {
		return false
	}
	return c.Accessor.Check(t.tbl)
}

func (c Column[T]) FindDense(t *DenseTable, pred func(T) bool) (int, bool) {
	n := t.Size()
	for i := 0; i < n; i++ {
		if pred(*c.Accessor.Get(i, t.tbl)) {
			return i, true
		}
	}
	return -1, false
}

// FindValue returns the first index whose value equals value.
func FindValue[T comparable](tbl Columnar, c Column[T], value T) (int, bool) {
	return c.Find(tbl, func(v T) bool { return v == value })
}

func FindDenseValue[T comparable](t *DenseTable, c Column[T], value T) (int, bool) {
	return c.FindDense(t, func(v T) bool { return v == value })
}
