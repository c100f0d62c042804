package depot

import (
	"iter"
	"reflect"
	"sync"
	"sync/atomic"

	iter_util "github.com/TheBitDrifter/util/iter"
	"go.uber.org/zap"
)

var _ RowAllocator = &StableTable{}

// DefaultBlockSize is the block size used when StableOptions.BlockSize is zero.
const DefaultBlockSize = 512

// StableTable stores rows in fixed-size blocks that never move once allocated.
//
// Acquire, Release, Clear and every scan take one table-wide mutex. Column access
// by index does not: a goroutine holding an acquired index may read and write its
// row while other goroutines acquire and release different rows, because the
// block directory is append-only and published atomically.
//
// Reading a released index is not detected. The slot may already belong to a new
// row; its content is whatever that row holds.
type StableTable struct {
	layout
	blockSize int

	mu     sync.Mutex
	blocks atomic.Pointer[[]*block]
	free   []int

	scanning atomic.Int32
	opQueue  opQueue

	logger *zap.Logger
}

func newStableTable(name string, opts StableOptions, columns ...AnyColumn) (*StableTable, error) {
	if opts.BlockSize == 0 {
		opts.BlockSize = DefaultBlockSize
	}
	if opts.BlockSize < 0 {
		return nil, TableSchemaError{Table: name, Reason: "block size must be positive"}
	}
	l, err := newLayout(name, columns)
	if err != nil {
		return nil, err
	}
	t := &StableTable{
		layout:    l,
		blockSize: opts.BlockSize,
		logger:    tableLogger("stable", name),
	}
	t.blocks.Store(&[]*block{})
	return t, nil
}

// Acquire returns a free row index, allocating a new block when none is free.
// The most recently released index is handed out first.
func (t *StableTable) Acquire() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.free) == 0 {
		t.addBlock()
	}
	last := len(t.free) - 1
	index := t.free[last]
	t.free = t.free[:last]

	blocks := *t.blocks.Load()
	blocks[index/t.blockSize].occupy(index % t.blockSize)
	return index
}

// Release resets every column of the row and recycles its index.
func (t *StableTable) Release(index int) error {
	return t.release(index, true)
}

// ReleaseNoReset recycles the index without resetting the row. This is the one
// deliberately unsafe operation of the table: values owning resources (files,
// pooled buffers, Resetter implementations) are not released and leak, and the
// next Acquire of the index sees the old values.
func (t *StableTable) ReleaseNoReset(index int) error {
	return t.release(index, false)
}

func (t *StableTable) release(index int, reset bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	b, sub, err := t.lookup(index)
	if err != nil {
		return err
	}
	if !b.alive(sub) {
		return StaleIndexError{Table: t.name, Index: index}
	}
	if reset {
		b.reset(sub)
	}
	b.vacate(sub)
	t.free = append(t.free, index)
	return nil
}

// Clear resets every slot and makes the whole capacity free again. Blocks are kept.
// After Clear, Acquire hands out 0, 1, 2, ... in order.
func (t *StableTable) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	blocks := *t.blocks.Load()
	released := 0
	for _, b := range blocks {
		released += b.count()
		b.resetAll()
	}
	capacity := len(blocks) * t.blockSize
	t.free = t.free[:0]
	for i := capacity - 1; i >= 0; i-- {
		t.free = append(t.free, i)
	}
	t.logger.Debug("table cleared", zap.Int("capacity", capacity), zap.Int("released", released))
}

func (t *StableTable) Capacity() int {
	return len(*t.blocks.Load()) * t.blockSize
}

func (t *StableTable) ActiveRows() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.Capacity() - len(t.free)
}

func (t *StableTable) BlockSize() int {
	return t.blockSize
}

func (t *StableTable) BlockCount() int {
	return len(*t.blocks.Load())
}

// Visit calls fn for every index in [0, Capacity()), free slots included.
// fn runs under the table lock and must not call locking table methods; use
// EnqueueRelease to release rows from inside fn.
func (t *StableTable) Visit(fn func(index int)) {
	t.beginScan()
	defer t.endScan()
	t.mu.Lock()
	defer t.mu.Unlock()
	capacity := t.Capacity()
	for i := 0; i < capacity; i++ {
		fn(i)
	}
}

// IsAlive reports whether index is currently acquired.
func (t *StableTable) IsAlive(index int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	b, sub, err := t.lookup(index)
	if err != nil {
		return false
	}
	return b.alive(sub)
}

// Living returns the acquired indices in ascending order
func (t *StableTable) Living() []int {
	return iter_util.Collect(t.LivingSeq())
}

// LivingSeq yields acquired indices in ascending order. The lock is taken once per
// block and never held while yielding, so rows acquired or released during
// iteration may or may not be seen.
func (t *StableTable) LivingSeq() iter.Seq[int] {
	return func(yield func(int) bool) {
		buf := make([]int, 0, t.blockSize)
		for bi := 0; ; bi++ {
			blocks := *t.blocks.Load()
			if bi >= len(blocks) {
				return
			}
			buf = buf[:0]
			t.mu.Lock()
			for sub := range blocks[bi].occupied() {
				buf = append(buf, bi*t.blockSize+sub)
			}
			t.mu.Unlock()
			for _, index := range buf {
				if !yield(index) {
					return
				}
			}
		}
	}
}

// Row returns pointers to every column of the row, in declaration order
func (t *StableTable) Row(index int) (Row, error) {
	b, sub, err := t.lookup(index)
	if err != nil {
		return nil, err
	}
	return rowOf(b.stores, sub), nil
}

// MoveFrom takes over src's blocks and free list, leaving src empty. Both tables
// must declare the same column types and block size. Neither table may be in use
// by other goroutines during the move.
func (t *StableTable) MoveFrom(src *StableTable) error {
	if src == t {
		return nil
	}
	if t.mask != src.mask || t.blockSize != src.blockSize {
		return TableSchemaError{Table: t.name, Reason: "cannot move from incompatible table '" + src.name + "'"}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	src.mu.Lock()
	defer src.mu.Unlock()

	// Blocks keep src's column order.
	t.columns = src.columns
	t.slots = src.slots
	t.blocks.Store(src.blocks.Load())
	t.free = src.free

	src.blocks.Store(&[]*block{})
	src.free = nil
	t.logger.Debug("table moved", zap.String("source", src.name), zap.Int("capacity", t.Capacity()))
	return nil
}

func (t *StableTable) addBlock() {
	blocks := *t.blocks.Load()
	base := len(blocks) * t.blockSize
	for i := t.blockSize - 1; i >= 0; i-- {
		t.free = append(t.free, base+i)
	}
	// Readers holding the previous directory never index past its length, so
	// appending in place is safe.
	grown := append(blocks, newBlock(&t.layout, t.blockSize))
	t.blocks.Store(&grown)
	t.logger.Debug("block allocated",
		zap.Int("block", len(blocks)),
		zap.Int("capacity", len(grown)*t.blockSize),
	)
}

func (t *StableTable) lookup(index int) (*block, int, error) {
	blocks := *t.blocks.Load()
	capacity := len(blocks) * t.blockSize
	if index < 0 || index >= capacity {
		return nil, 0, OutOfRangeError{Table: t.name, Index: index, Bound: capacity, Kind: boundCapacity}
	}
	return blocks[index/t.blockSize], index % t.blockSize, nil
}

func (t *StableTable) locate(typ reflect.Type, index int) (store, int, error) {
	slot, err := t.slot(typ)
	if err != nil {
		return nil, 0, err
	}
	b, sub, err := t.lookup(index)
	if err != nil {
		return nil, 0, err
	}
	return b.stores[slot], sub, nil
}

func (t *StableTable) scan(typ reflect.Type, fn func(index int, s store, offset int) bool) error {
	slot, err := t.slot(typ)
	if err != nil {
		return err
	}
	t.beginScan()
	defer t.endScan()
	t.mu.Lock()
	defer t.mu.Unlock()
	for bi, b := range *t.blocks.Load() {
		s := b.stores[slot]
		for sub := 0; sub < t.blockSize; sub++ {
			if !fn(bi*t.blockSize+sub, s, sub) {
				return nil
			}
		}
	}
	return nil
}
