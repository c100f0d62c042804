package depot

import (
	"iter"
	"reflect"

	"github.com/TheBitDrifter/mask"
	"github.com/TheBitDrifter/table"
)

// Columnar is implemented by every table that resolves row indices through
// bounds-checked column access.
type Columnar interface {
	Name() string
	Columns() []AnyColumn
	locate(typ reflect.Type, index int) (store, int, error)
	scan(typ reflect.Type, fn func(index int, s store, offset int) bool) error
}

// AnyColumn is the untyped view of a Column, used to declare a table's column list.
type AnyColumn interface {
	elementType() table.ElementType
	valueType() reflect.Type
	newStore(n int) sliceStore
	newTableStore(tbl table.Table) store
}

// Resetter is implemented by column values that release resources when their row
// is reset. Reset is called on a pointer into column storage.
type Resetter interface {
	Reset()
}

// Row holds one pointer per declared column, in declaration order.
type Row []any

// Table is a named set of declared columns with a comparable column mask.
type Table interface {
	Columnar
	mask.Maskable
	ContainsAll(...AnyColumn) bool
}

// RowAllocator hands out stable row indices and recycles them.
type RowAllocator interface {
	Table
	Acquire() int
	Release(int) error
	ReleaseNoReset(int) error
	Clear()
	Capacity() int
	ActiveRows() int
	Living() []int
	LivingSeq() iter.Seq[int]
}

// CompactingTable keeps live rows packed while logical indices stay stable.
type CompactingTable interface {
	Table
	Add() (int, error)
	Erase(int) error
	IsValid(int) bool
	Size() int
	Clear()
}

// AppendTable only grows; indices run from 0 to Size()-1.
type AppendTable interface {
	Table
	PushBack() int
	Resize(int)
	IsValid(int) bool
	Size() int
}

// Associative is the pluggable map used by KeyedMap for both directions of its
// key/index binding.
type Associative[K, V any] interface {
	Insert(K, V)
	Lookup(K) (V, bool)
	Erase(K) bool
	Len() int
	Range(func(K, V) bool)
	Clear()
}

// Cursor walks the living rows of one StableTable. The table counts as scanning
// from the first Next until Next returns false or Reset is called; a cursor
// abandoned in between must be Reset, or queued releases are never applied.
type Cursor struct {
	table *StableTable

	// Snapshot of living indices taken on first advance
	indices  []int
	position int

	initialized bool
}

// KeyHandle is a key together with the row index it was bound to.
type KeyHandle[K comparable] struct {
	Key   K
	Index int
}

// StableOptions configures a StableTable. A zero BlockSize selects DefaultBlockSize.
type StableOptions struct {
	BlockSize int
}
