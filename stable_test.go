package depot

import (
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test column types
type Position struct {
	X, Y float64
}

type Velocity struct {
	X, Y float64
}

type Health struct {
	Current, Max int
}

type Score struct {
	Value int
}

func TestStableAcquireReleaseResets(t *testing.T) {
	intCol := FactoryNewColumn[int]()
	floatCol := FactoryNewColumn[float32]()
	scoreCol := FactoryNewColumn[Score]()

	tbl, err := Factory.NewStableTable("scores", StableOptions{BlockSize: 512}, intCol, floatCol, scoreCol)
	require.NoError(t, err)

	h1 := tbl.Acquire()
	h2 := tbl.Acquire()
	h3 := tbl.Acquire()

	rows := []struct {
		handle int
		i      int
		f      float32
		s      Score
	}{
		{h1, 111, 111.1, Score{111}},
		{h2, 222, 222.2, Score{222}},
		{h3, 333, 333.3, Score{333}},
	}
	for _, r := range rows {
		require.NoError(t, intCol.Set(tbl, r.handle, r.i))
		require.NoError(t, floatCol.Set(tbl, r.handle, r.f))
		require.NoError(t, scoreCol.Set(tbl, r.handle, r.s))
	}

	require.NoError(t, tbl.Release(h1))

	for _, r := range rows[1:] {
		i, err := intCol.Value(tbl, r.handle)
		require.NoError(t, err)
		f, err := floatCol.Value(tbl, r.handle)
		require.NoError(t, err)
		s, err := scoreCol.Value(tbl, r.handle)
		require.NoError(t, err)
		assert.Equal(t, r.i, i)
		assert.Equal(t, r.f, f)
		assert.Equal(t, r.s, s)
	}

	again := tbl.Acquire()
	assert.Equal(t, h1, again, "most recently released index is reused first")

	row, err := tbl.Row(again)
	require.NoError(t, err)
	assert.Equal(t, 0, *row[0].(*int))
	assert.Equal(t, float32(0), *row[1].(*float32))
	assert.Equal(t, Score{}, *row[2].(*Score))
}

func TestStableCapacity(t *testing.T) {
	tests := []struct {
		name      string
		blockSize int
		acquires  int
		wantCap   int
	}{
		{"No rows", 4, 0, 0},
		{"Partial block", 4, 3, 4},
		{"Exact block", 4, 4, 4},
		{"Second block", 4, 5, 8},
		{"Default block size", 0, 1, DefaultBlockSize},
		{"Many blocks", 16, 1000, 1008},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := Factory.NewStableTable("capacity", StableOptions{BlockSize: tt.blockSize}, FactoryNewColumn[Position]())
			if err != nil {
				t.Fatalf("Failed to create table: %v", err)
			}
			for i := 0; i < tt.acquires; i++ {
				tbl.Acquire()
			}
			if got := tbl.ActiveRows(); got != tt.acquires {
				t.Errorf("ActiveRows() = %d, want %d", got, tt.acquires)
			}
			if got := tbl.Capacity(); got != tt.wantCap {
				t.Errorf("Capacity() = %d, want %d", got, tt.wantCap)
			}
			if tbl.Capacity()%tbl.BlockSize() != 0 {
				t.Errorf("Capacity %d is not a multiple of block size %d", tbl.Capacity(), tbl.BlockSize())
			}
		})
	}
}

func TestStableHandlesUniqueUnderChurn(t *testing.T) {
	tbl, err := Factory.NewStableTable("churn", StableOptions{BlockSize: 8}, FactoryNewColumn[int]())
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(7))
	live := map[int]struct{}{}
	var order []int

	for step := 0; step < 5000; step++ {
		if len(order) > 0 && rng.Intn(3) == 0 {
			pick := rng.Intn(len(order))
			h := order[pick]
			order[pick] = order[len(order)-1]
			order = order[:len(order)-1]
			delete(live, h)
			require.NoError(t, tbl.Release(h))
			continue
		}
		h := tbl.Acquire()
		_, dup := live[h]
		require.False(t, dup, "index %d handed out twice", h)
		require.Less(t, h, tbl.Capacity())
		live[h] = struct{}{}
		order = append(order, h)
	}
	assert.Equal(t, len(live), tbl.ActiveRows())
	assert.Len(t, tbl.Living(), len(live))
}

func TestStableReleaseNoReset(t *testing.T) {
	score := FactoryNewColumn[Score]()
	tbl, err := Factory.NewStableTable("no-reset", StableOptions{BlockSize: 4}, score)
	require.NoError(t, err)

	h := tbl.Acquire()
	require.NoError(t, score.Set(tbl, h, Score{42}))
	require.NoError(t, tbl.ReleaseNoReset(h))

	again := tbl.Acquire()
	require.Equal(t, h, again)
	got, err := score.Value(tbl, again)
	require.NoError(t, err)
	assert.Equal(t, Score{42}, got, "ReleaseNoReset keeps the old value")
}

func TestStableClear(t *testing.T) {
	health := FactoryNewColumn[Health]()
	tbl, err := Factory.NewStableTable("clear", StableOptions{BlockSize: 4}, health)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		h := tbl.Acquire()
		require.NoError(t, health.Set(tbl, h, Health{Current: i, Max: 10}))
	}
	require.NoError(t, tbl.Release(3))
	capacity := tbl.Capacity()

	tbl.Clear()
	assert.Equal(t, 0, tbl.ActiveRows())
	assert.Equal(t, capacity, tbl.Capacity(), "clear keeps blocks")
	assert.Empty(t, tbl.Living())

	for want := 0; want < capacity; want++ {
		h := tbl.Acquire()
		assert.Equal(t, want, h)
		v, err := health.Value(tbl, h)
		require.NoError(t, err)
		assert.Equal(t, Health{}, v)
	}
}

func TestStableOutOfRange(t *testing.T) {
	pos := FactoryNewColumn[Position]()
	tbl, err := Factory.NewStableTable("bodies", StableOptions{BlockSize: 4}, pos)
	require.NoError(t, err)

	_, err = pos.Get(tbl, 0)
	var rangeErr OutOfRangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, "bodies", rangeErr.Table)
	assert.Equal(t, 0, rangeErr.Index)
	assert.Equal(t, 0, rangeErr.Bound)
	assert.True(t, errors.Is(err, ErrOutOfRange))

	tbl.Acquire()
	_, err = pos.Get(tbl, 4)
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, 4, rangeErr.Bound)

	assert.ErrorIs(t, tbl.Release(-1), ErrOutOfRange)
	_, err = tbl.Row(99)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestStableDoubleRelease(t *testing.T) {
	tbl, err := Factory.NewStableTable("double", StableOptions{BlockSize: 4}, FactoryNewColumn[int]())
	require.NoError(t, err)

	h := tbl.Acquire()
	require.NoError(t, tbl.Release(h))
	assert.ErrorIs(t, tbl.Release(h), ErrStaleIndex)
	assert.ErrorIs(t, tbl.ReleaseNoReset(h), ErrStaleIndex)
	assert.Equal(t, 0, tbl.ActiveRows())
}

func TestStableLiving(t *testing.T) {
	tbl, err := Factory.NewStableTable("living", StableOptions{BlockSize: 2}, FactoryNewColumn[int]())
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		tbl.Acquire()
	}
	require.NoError(t, tbl.Release(1))
	require.NoError(t, tbl.Release(3))

	assert.Equal(t, []int{0, 2, 4}, tbl.Living())
	assert.True(t, tbl.IsAlive(2))
	assert.False(t, tbl.IsAlive(3))
	assert.False(t, tbl.IsAlive(100))

	var firstTwo []int
	for index := range tbl.LivingSeq() {
		firstTwo = append(firstTwo, index)
		if len(firstTwo) == 2 {
			break
		}
	}
	assert.Equal(t, []int{0, 2}, firstTwo)
}

func TestStableVisitAndFind(t *testing.T) {
	score := FactoryNewColumn[Score]()
	tbl, err := Factory.NewStableTable("visit", StableOptions{BlockSize: 4}, score)
	require.NoError(t, err)

	for i := 0; i < 6; i++ {
		h := tbl.Acquire()
		require.NoError(t, score.Set(tbl, h, Score{Value: h * 10}))
	}

	visited := 0
	tbl.Visit(func(int) { visited++ })
	assert.Equal(t, tbl.Capacity(), visited, "visit covers free slots too")

	index, ok := FindValue(tbl, score, Score{Value: 30})
	require.True(t, ok)
	assert.Equal(t, 3, index)

	_, ok = score.Find(tbl, func(s Score) bool { return s.Value == 999 })
	assert.False(t, ok)

	sum := 0
	require.NoError(t, score.Visit(tbl, func(_ int, s *Score) {
		s.Value++
		sum += s.Value
	}))
	// six live rows incremented plus two free slots going from 0 to 1
	assert.Equal(t, 150+6+2, sum)
}

func TestStableColumnNotDeclared(t *testing.T) {
	tbl, err := Factory.NewStableTable("narrow", StableOptions{BlockSize: 4}, FactoryNewColumn[Position]())
	require.NoError(t, err)
	h := tbl.Acquire()

	vel := FactoryNewColumn[Velocity]()
	_, err = vel.Get(tbl, h)
	assert.ErrorIs(t, err, ErrColumnNotFound)
	_, ok := vel.Find(tbl, func(Velocity) bool { return true })
	assert.False(t, ok)
}

func TestStableSchemaValidation(t *testing.T) {
	tests := []struct {
		name    string
		opts    StableOptions
		columns []AnyColumn
	}{
		{"No columns", StableOptions{}, nil},
		{"Duplicate column type", StableOptions{}, []AnyColumn{FactoryNewColumn[int](), FactoryNewColumn[int]()}},
		{"Negative block size", StableOptions{BlockSize: -1}, []AnyColumn{FactoryNewColumn[int]()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Factory.NewStableTable("invalid", tt.opts, tt.columns...)
			var schemaErr TableSchemaError
			if !errors.As(err, &schemaErr) {
				t.Errorf("NewStableTable() error = %v, want TableSchemaError", err)
			}
		})
	}
}

func TestStableContainsAll(t *testing.T) {
	pos := FactoryNewColumn[Position]()
	vel := FactoryNewColumn[Velocity]()
	health := FactoryNewColumn[Health]()

	tbl, err := Factory.NewStableTable("contains", StableOptions{BlockSize: 4}, pos, vel)
	require.NoError(t, err)

	assert.True(t, tbl.ContainsAll(pos))
	assert.True(t, tbl.ContainsAll(vel, pos))
	assert.False(t, tbl.ContainsAll(pos, health))
	assert.True(t, tbl.ContainsAll(FactoryNewColumn[Position]()), "columns are matched by type")
}

type pooledBuffer struct {
	data   []byte
	resets int
}

func (b *pooledBuffer) Reset() {
	b.data = b.data[:0]
	b.resets++
}

func TestStableResetPolicies(t *testing.T) {
	buffers := FactoryNewColumn[pooledBuffer]()
	labels := FactoryNewColumnKeep[string]()
	counts := FactoryNewColumn[int]()

	tbl, err := Factory.NewStableTable("policies", StableOptions{BlockSize: 2}, buffers, labels, counts)
	require.NoError(t, err)

	h := tbl.Acquire()
	require.NoError(t, buffers.Set(tbl, h, pooledBuffer{data: []byte("abc")}))
	require.NoError(t, labels.Set(tbl, h, "kept"))
	require.NoError(t, counts.Set(tbl, h, 9))
	require.NoError(t, tbl.Release(h))

	buf, err := buffers.Get(tbl, h)
	require.NoError(t, err)
	assert.Empty(t, buf.data)
	assert.Equal(t, 1, buf.resets, "Resetter values are reset through Reset")

	label, err := labels.Value(tbl, h)
	require.NoError(t, err)
	assert.Equal(t, "kept", label)

	count, err := counts.Value(tbl, h)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestStableMoveFrom(t *testing.T) {
	pos := FactoryNewColumn[Position]()
	vel := FactoryNewColumn[Velocity]()

	src, err := Factory.NewStableTable("src", StableOptions{BlockSize: 4}, pos, vel)
	require.NoError(t, err)
	dst, err := Factory.NewStableTable("dst", StableOptions{BlockSize: 4}, vel, pos)
	require.NoError(t, err)

	h := src.Acquire()
	require.NoError(t, pos.Set(src, h, Position{X: 1, Y: 2}))
	require.NoError(t, vel.Set(src, h, Velocity{X: 3, Y: 4}))

	require.NoError(t, dst.MoveFrom(src))

	assert.Equal(t, 0, src.Capacity())
	assert.Equal(t, 0, src.ActiveRows())
	assert.Equal(t, 4, dst.Capacity())
	assert.Equal(t, 1, dst.ActiveRows())

	gotPos, err := pos.Value(dst, h)
	require.NoError(t, err)
	assert.Equal(t, Position{X: 1, Y: 2}, gotPos)
	gotVel, err := vel.Value(dst, h)
	require.NoError(t, err)
	assert.Equal(t, Velocity{X: 3, Y: 4}, gotVel)

	// The source is usable again from scratch
	assert.Equal(t, 0, src.Acquire())

	other, err := Factory.NewStableTable("other", StableOptions{BlockSize: 4}, pos)
	require.NoError(t, err)
	var schemaErr TableSchemaError
	assert.ErrorAs(t, dst.MoveFrom(other), &schemaErr)
}

func TestStableEnqueueReleaseDuringScan(t *testing.T) {
	score := FactoryNewColumn[Score]()
	tbl, err := Factory.NewStableTable("queued", StableOptions{BlockSize: 4}, score)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		h := tbl.Acquire()
		require.NoError(t, score.Set(tbl, h, Score{Value: i}))
	}

	require.NoError(t, score.Visit(tbl, func(index int, s *Score) {
		if s.Value%2 == 1 {
			require.True(t, tbl.Scanning())
			require.NoError(t, tbl.EnqueueRelease(index))
		}
	}))

	assert.False(t, tbl.Scanning())
	assert.Equal(t, []int{0, 2}, tbl.Living())

	// Outside a scan the release is immediate
	require.NoError(t, tbl.EnqueueRelease(0))
	assert.Equal(t, []int{2}, tbl.Living())
	assert.ErrorIs(t, tbl.EnqueueRelease(64), ErrOutOfRange)
}

func TestStableConcurrentAcquireRelease(t *testing.T) {
	counter := FactoryNewColumn[int64]()
	tbl, err := Factory.NewStableTable("concurrent", StableOptions{BlockSize: 16}, counter)
	require.NoError(t, err)

	const workers = 8
	const rounds = 500

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			held := make([]int, 0, rounds)
			for r := 0; r < rounds; r++ {
				h := tbl.Acquire()
				ptr, err := counter.Get(tbl, h)
				if err != nil {
					errs <- err
					return
				}
				*ptr = id
				held = append(held, h)
			}
			for _, h := range held {
				ptr, err := counter.Get(tbl, h)
				if err != nil {
					errs <- err
					return
				}
				if *ptr != id {
					errs <- errors.New("row overwritten by another worker")
					return
				}
				if err := tbl.Release(h); err != nil {
					errs <- err
					return
				}
			}
		}(int64(w + 1))
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	assert.Equal(t, 0, tbl.ActiveRows())
	assert.Equal(t, 0, tbl.Capacity()%16)
	assert.GreaterOrEqual(t, tbl.Capacity(), rounds)
}

func TestStablePointersSurviveGrowth(t *testing.T) {
	pos := FactoryNewColumn[Position]()
	tbl, err := Factory.NewStableTable("growth", StableOptions{BlockSize: 2}, pos)
	require.NoError(t, err)

	h := tbl.Acquire()
	ptr, err := pos.Get(tbl, h)
	require.NoError(t, err)
	ptr.X = 5

	for i := 0; i < 100; i++ {
		tbl.Acquire()
	}
	again, err := pos.Get(tbl, h)
	require.NoError(t, err)
	assert.Same(t, ptr, again)
	assert.Equal(t, 5.0, again.X)
}

func TestStableMoveFromSeparateHandles(t *testing.T) {
	src, err := Factory.NewStableTable("src", StableOptions{BlockSize: 4},
		FactoryNewColumn[Position](), FactoryNewColumn[Health]())
	require.NoError(t, err)
	dst, err := Factory.NewStableTable("dst", StableOptions{BlockSize: 4},
		FactoryNewColumn[Health](), FactoryNewColumn[Position]())
	require.NoError(t, err)
	require.Equal(t, src.Mask(), dst.Mask())

	h := src.Acquire()
	require.NoError(t, FactoryNewColumn[Health]().Set(src, h, Health{Current: 2, Max: 3}))
	require.NoError(t, dst.MoveFrom(src))

	got, err := FactoryNewColumn[Health]().Value(dst, h)
	require.NoError(t, err)
	assert.Equal(t, Health{Current: 2, Max: 3}, got)
	assert.True(t, dst.ContainsAll(FactoryNewColumn[Position]()))
}
