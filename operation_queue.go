package depot

import (
	"sync"

	"go.uber.org/zap"
)

type operation struct {
	typ   operationType
	index int
}

type operationType int

const (
	opRelease operationType = iota
	opReleaseNoReset
)

// opQueue holds releases requested while the table is being scanned.
type opQueue struct {
	mu  sync.Mutex
	ops []operation
}

// Scanning reports whether a Visit, Find or Cursor is currently running on the table.
func (t *StableTable) Scanning() bool {
	return t.scanning.Load() > 0
}

// EnqueueRelease releases the row immediately when no scan is running, otherwise
// when the last running scan ends. It is the way to release rows from inside
// Visit and Find callbacks.
func (t *StableTable) EnqueueRelease(index int) error {
	return t.enqueue(operation{typ: opRelease, index: index})
}

// EnqueueReleaseNoReset is EnqueueRelease for ReleaseNoReset.
func (t *StableTable) EnqueueReleaseNoReset(index int) error {
	return t.enqueue(operation{typ: opReleaseNoReset, index: index})
}

func (t *StableTable) enqueue(op operation) error {
	if _, _, err := t.lookup(op.index); err != nil {
		return err
	}
	t.opQueue.mu.Lock()
	if t.scanning.Load() == 0 {
		t.opQueue.mu.Unlock()
		return t.apply(op)
	}
	t.opQueue.ops = append(t.opQueue.ops, op)
	t.opQueue.mu.Unlock()
	return nil
}

func (t *StableTable) beginScan() {
	t.scanning.Add(1)
}

func (t *StableTable) endScan() {
	t.opQueue.mu.Lock()
	if t.scanning.Add(-1) > 0 || len(t.opQueue.ops) == 0 {
		t.opQueue.mu.Unlock()
		return
	}
	ops := t.opQueue.ops
	t.opQueue.ops = nil
	t.opQueue.mu.Unlock()
	t.processOperationQueue(ops)
}

func (t *StableTable) processOperationQueue(ops []operation) {
	failed := 0
	for _, op := range ops {
		if err := t.apply(op); err != nil {
			failed++
			t.logger.Warn("queued release failed", zap.Int("index", op.index), zap.Error(err))
		}
	}
	t.logger.Debug("queued releases flushed",
		zap.Int("released", len(ops)-failed),
		zap.Int("failed", failed),
	)
}

func (t *StableTable) apply(op operation) error {
	switch op.typ {
	case opReleaseNoReset:
		return t.ReleaseNoReset(op.index)
	default:
		return t.Release(op.index)
	}
}
