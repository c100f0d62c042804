/*
Package depot provides column-oriented row storage with stable integer handles.

A table stores one value per declared column for every row. Columns are typed
handles created once and shared by every table that declares them; the handle
reads and writes the column's values by row index.

Table kinds:

  - StableTable: rows live in fixed-size blocks that never move. Acquire and
    Release recycle indices through a LIFO free list under one mutex; column
    access by index is lock-free. Per-block liveness bits enumerate living rows.
  - KeyedMap: a StableTable addressed by an external key as well as by index.
  - FlexTable: live rows are kept packed; erasing swaps with the last row behind
    an index map so other indices stay valid.
  - SimpleTable: append-only, bounds-checked.
  - DenseTable: append-only, unchecked, built on TheBitDrifter/table.
  - Pool: a single-value StableTable.

Basic Usage:

	position := depot.FactoryNewColumn[Position]()
	velocity := depot.FactoryNewColumn[Velocity]()

	bodies, _ := depot.Factory.NewStableTable("bodies", depot.StableOptions{BlockSize: 512}, position, velocity)

	row := bodies.Acquire()
	velocity.Set(bodies, row, Velocity{X: 1})

	cursor := depot.Factory.NewCursor(bodies)
	for cursor.Next() {
		pos := position.GetFromCursor(cursor)
		vel := velocity.GetFromCursor(cursor)
		pos.X += vel.X
	}

	bodies.Release(row)

Only StableTable is safe for concurrent use. The other tables need external locking.
*/
package depot
