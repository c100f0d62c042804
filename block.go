package depot

import (
	"iter"

	"github.com/bits-and-blooms/bitset"
)

// block owns exactly size slots of every column plus the occupancy bit of each
// slot. It does no locking and no bounds checks; the owning table guarantees
// sub < size.
type block struct {
	stores []sliceStore
	live   *bitset.BitSet
	size   int
}

func newBlock(l *layout, size int) *block {
	return &block{
		stores: l.newStores(size),
		live:   bitset.New(uint(size)),
		size:   size,
	}
}

func (b *block) reset(sub int) {
	for _, s := range b.stores {
		s.reset(sub)
	}
}

func (b *block) resetAll() {
	for sub := 0; sub < b.size; sub++ {
		b.reset(sub)
	}
	b.live.ClearAll()
}

func (b *block) occupy(sub int) {
	b.live.Set(uint(sub))
}

func (b *block) vacate(sub int) {
	b.live.Clear(uint(sub))
}

func (b *block) alive(sub int) bool {
	return b.live.Test(uint(sub))
}

func (b *block) count() int {
	return int(b.live.Count())
}

// occupied yields the occupied sub-indices in ascending order
func (b *block) occupied() iter.Seq[int] {
	return func(yield func(int) bool) {
		for i, ok := b.live.NextSet(0); ok; i, ok = b.live.NextSet(i + 1) {
			if !yield(int(i)) {
				return
			}
		}
	}
}
