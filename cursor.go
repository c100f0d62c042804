package depot

import (
	"iter"
)

func newCursor(tbl *StableTable) *Cursor {
	return &Cursor{
		table: tbl,
	}
}

// Next advances to the next living row. The first call snapshots the living
// indices and marks the table as scanning; the call returning false ends the scan.
func (c *Cursor) Next() bool {
	if !c.initialized {
		c.initialize()
	}
	if c.position < len(c.indices) {
		c.position++
		return true
	}
	c.Reset()
	return false
}

func (c *Cursor) Entities() iter.Seq[int] {
	return func(yield func(int) bool) {
		c.initialize()
		for c.position < len(c.indices) {
			c.position++
			if !yield(c.indices[c.position-1]) {
				c.Reset()
				return
			}
		}
		c.Reset()
	}
}

func (c *Cursor) initialize() {
	if c.initialized {
		return
	}
	c.table.beginScan()
	c.indices = c.table.Living()
	c.position = 0
	c.initialized = true
}

// Reset ends the scan, applying releases queued while it ran
func (c *Cursor) Reset() {
	if !c.initialized {
		return
	}
	c.position = 0
	c.indices = nil
	c.initialized = false
	c.table.endScan()
}

// Index returns the row index at the cursor position, or -1 before the first Next.
func (c *Cursor) Index() int {
	if c.position == 0 {
		return -1
	}
	return c.indices[c.position-1]
}

func (c *Cursor) Remaining() int {
	return len(c.indices) - c.position
}

// TotalMatched starts the scan if it has not started; pair it with Next or Reset.
func (c *Cursor) TotalMatched() int {
	if !c.initialized {
		c.initialize()
	}
	return len(c.indices)
}
