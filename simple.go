package depot

import (
	"reflect"
)

var _ AppendTable = &SimpleTable{}

// SimpleTable is a single-threaded, append-only table for rows that are written
// once and read many times. Column access is bounds-checked against Size.
type SimpleTable struct {
	layout
	stores []sliceStore
	size   int
}

func newSimpleTable(name string, columns ...AnyColumn) (*SimpleTable, error) {
	l, err := newLayout(name, columns)
	if err != nil {
		return nil, err
	}
	t := &SimpleTable{layout: l}
	t.stores = t.newStores(0)
	return t, nil
}

// PushBack appends a row with default values and returns its index
func (t *SimpleTable) PushBack() int {
	for _, s := range t.stores {
		s.grow(1)
	}
	t.size++
	return t.size - 1
}

// Resize grows the table to size rows. It never shrinks.
func (t *SimpleTable) Resize(size int) {
	if size <= t.size {
		return
	}
	for _, s := range t.stores {
		s.grow(size - t.size)
	}
	t.size = size
}

func (t *SimpleTable) IsValid(index int) bool {
	return index >= 0 && index < t.size
}

func (t *SimpleTable) Size() int {
	return t.size
}

func (t *SimpleTable) Row(index int) (Row, error) {
	if !t.IsValid(index) {
		return nil, t.outOfRange(index)
	}
	return rowOf(t.stores, index), nil
}

func (t *SimpleTable) outOfRange(index int) error {
	return OutOfRangeError{Table: t.name, Index: index, Bound: t.size, Kind: boundSize}
}

func (t *SimpleTable) locate(typ reflect.Type, index int) (store, int, error) {
	slot, err := t.slot(typ)
	if err != nil {
		return nil, 0, err
	}
	if !t.IsValid(index) {
		return nil, 0, t.outOfRange(index)
	}
	return t.stores[slot], index, nil
}

func (t *SimpleTable) scan(typ reflect.Type, fn func(index int, s store, offset int) bool) error {
	slot, err := t.slot(typ)
	if err != nil {
		return err
	}
	s := t.stores[slot]
	for i := 0; i < t.size; i++ {
		if !fn(i, s, i) {
			return nil
		}
	}
	return nil
}
