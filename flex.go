package depot

import (
	"fmt"
	"reflect"

	"github.com/TheBitDrifter/table"
	"go.uber.org/zap"
)

var _ CompactingTable = &FlexTable{}

// FlexTable keeps live rows packed in a TheBitDrifter/table Table. Logical indices
// go through an index map, so erasing one row moves another row's storage without
// changing its logical index. Not safe for concurrent use.
type FlexTable struct {
	layout
	tbl    table.Table
	stores []store

	// indexMap maps logical to physical positions, -1 for freed indices.
	// logicalOf is the reverse for every live physical position.
	indexMap  []int
	logicalOf []int
	free      []int

	logger *zap.Logger
}

func newFlexTable(name string, columns ...AnyColumn) (*FlexTable, error) {
	l, err := newLayout(name, columns)
	if err != nil {
		return nil, err
	}
	tbl, err := newColumnTable(name, l.columns)
	if err != nil {
		return nil, err
	}
	t := &FlexTable{
		layout: l,
		tbl:    tbl,
		logger: tableLogger("flex", name),
	}
	t.stores = t.newTableStores(tbl)
	return t, nil
}

// Add returns a logical index for a new row with default values, reusing the most
// recently erased index first.
func (t *FlexTable) Add() (int, error) {
	physical := t.tbl.Length()
	if _, err := t.tbl.NewEntries(1); err != nil {
		return -1, fmt.Errorf("failed to add to flex table '%s': %w", t.name, err)
	}
	// Storage past the live region may still hold a deleted row's values.
	for _, s := range t.stores {
		s.reset(physical)
	}

	var logical int
	if n := len(t.free); n > 0 {
		logical = t.free[n-1]
		t.free = t.free[:n-1]
		t.indexMap[logical] = physical
	} else {
		logical = len(t.indexMap)
		t.indexMap = append(t.indexMap, physical)
	}
	t.logicalOf = append(t.logicalOf, logical)
	return logical, nil
}

// Erase moves the last live row into the erased row's storage and frees the
// logical index.
func (t *FlexTable) Erase(index int) error {
	physical, err := t.physical(index)
	if err != nil {
		return err
	}
	if _, err := t.tbl.DeleteEntries(physical); err != nil {
		return fmt.Errorf("failed to erase from flex table '%s': %w", t.name, err)
	}
	last := len(t.logicalOf) - 1
	if physical != last {
		moved := t.logicalOf[last]
		t.indexMap[moved] = physical
		t.logicalOf[physical] = moved
	}
	t.logicalOf = t.logicalOf[:last]
	t.indexMap[index] = -1
	t.free = append(t.free, index)
	return nil
}

// IsValid reports whether index is in range and not erased.
func (t *FlexTable) IsValid(index int) bool {
	return index >= 0 && index < len(t.indexMap) && t.indexMap[index] >= 0
}

// Size returns the number of live rows
func (t *FlexTable) Size() int {
	return len(t.logicalOf)
}

// Slots returns the number of logical indices ever handed out
func (t *FlexTable) Slots() int {
	return len(t.indexMap)
}

// Clear deletes every row and frees every logical index; Add then hands out 0, 1, 2, ...
func (t *FlexTable) Clear() {
	if n := len(t.logicalOf); n > 0 {
		// The entry index refuses to recycle all of its entries in one batch.
		rest := make([]int, 0, n-1)
		for i := 1; i < n; i++ {
			rest = append(rest, i)
		}
		for _, batch := range [][]int{rest, {0}} {
			if len(batch) == 0 {
				continue
			}
			if _, err := t.tbl.DeleteEntries(batch...); err != nil {
				t.logger.Warn("delete during clear failed", zap.Int("rows", len(batch)), zap.Error(err))
			}
		}
	}
	n := len(t.indexMap)
	t.free = t.free[:0]
	for i := 0; i < n; i++ {
		t.indexMap[i] = -1
		t.free = append(t.free, n-1-i)
	}
	t.logicalOf = t.logicalOf[:0]
	t.logger.Debug("table cleared", zap.Int("slots", n))
}

func (t *FlexTable) Row(index int) (Row, error) {
	physical, err := t.physical(index)
	if err != nil {
		return nil, err
	}
	return rowOf(t.stores, physical), nil
}

func (t *FlexTable) physical(index int) (int, error) {
	if index < 0 || index >= len(t.indexMap) {
		return 0, OutOfRangeError{Table: t.name, Index: index, Bound: len(t.indexMap), Kind: boundSlots}
	}
	physical := t.indexMap[index]
	if physical < 0 {
		return 0, StaleIndexError{Table: t.name, Index: index}
	}
	return physical, nil
}

func (t *FlexTable) locate(typ reflect.Type, index int) (store, int, error) {
	slot, err := t.slot(typ)
	if err != nil {
		return nil, 0, err
	}
	physical, err := t.physical(index)
	if err != nil {
		return nil, 0, err
	}
	return t.stores[slot], physical, nil
}

// scan walks live rows in storage order and reports their logical indices
func (t *FlexTable) scan(typ reflect.Type, fn func(index int, s store, offset int) bool) error {
	slot, err := t.slot(typ)
	if err != nil {
		return err
	}
	s := t.stores[slot]
	for physical, logical := range t.logicalOf {
		if !fn(logical, s, physical) {
			return nil
		}
	}
	return nil
}

// Table exposes the underlying table. Its row order is the physical order, not
// the logical one.
func (t *FlexTable) Table() table.Table {
	return t.tbl
}
