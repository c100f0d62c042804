package depot

import (
	"github.com/TheBitDrifter/table"
)

type resetMode uint8

const (
	resetZero resetMode = iota
	resetHook
	resetKeep
)

// store is the type-erased storage for one column.
type store interface {
	reset(i int)
	ptr(i int) any
}

// sliceStore is a store the owning table grows itself.
type sliceStore interface {
	store
	grow(n int)
}

var (
	_ sliceStore = &columnStore[int]{}
	_ store      = &tableStore[int]{}
)

func resetValue[T any](v *T, mode resetMode) {
	switch mode {
	case resetKeep:
		return
	case resetHook:
		any(v).(Resetter).Reset()
	default:
		var zero T
		*v = zero
	}
}

type columnStore[T any] struct {
	data []T
	mode resetMode
}

func newColumnStore[T any](n int, mode resetMode) *columnStore[T] {
	return &columnStore[T]{
		data: make([]T, n),
		mode: mode,
	}
}

func (s *columnStore[T]) reset(i int) {
	resetValue(&s.data[i], s.mode)
}

func (s *columnStore[T]) grow(n int) {
	s.data = append(s.data, make([]T, n)...)
}

func (s *columnStore[T]) ptr(i int) any {
	return &s.data[i]
}

// tableStore reads one column of a TheBitDrifter/table Table through its accessor.
// The table owns growth and deletion.
type tableStore[T any] struct {
	tbl      table.Table
	accessor table.Accessor[T]
	mode     resetMode
}

func (s *tableStore[T]) reset(i int) {
	resetValue(s.accessor.Get(i, s.tbl), s.mode)
}

func (s *tableStore[T]) ptr(i int) any {
	return s.accessor.Get(i, s.tbl)
}

// valueAt resolves a pointer into s without going through ptr's interface boxing
// for the two known store kinds.
func valueAt[T any](s store, i int) *T {
	switch s := s.(type) {
	case *columnStore[T]:
		return &s.data[i]
	case *tableStore[T]:
		return s.accessor.Get(i, s.tbl)
	}
	return s.ptr(i).(*T)
}
