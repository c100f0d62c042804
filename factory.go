package depot

type factory struct{}

var Factory factory

// NewStableTable creates a block table. A zero BlockSize selects DefaultBlockSize.
func (f factory) NewStableTable(name string, opts StableOptions, columns ...AnyColumn) (*StableTable, error) {
	return newStableTable(name, opts, columns...)
}

func (f factory) NewFlexTable(name string, columns ...AnyColumn) (*FlexTable, error) {
	return newFlexTable(name, columns...)
}

func (f factory) NewSimpleTable(name string, columns ...AnyColumn) (*SimpleTable, error) {
	return newSimpleTable(name, columns...)
}

func (f factory) NewDenseTable(name string, columns ...AnyColumn) (*DenseTable, error) {
	return newDenseTable(name, columns...)
}

func (f factory) NewCursor(tbl *StableTable) *Cursor {
	return newCursor(tbl)
}

// FactoryNewColumn creates a column whose values reset to the zero value, or
// through Reset when *T implements Resetter.
func FactoryNewColumn[T any]() Column[T] {
	return newColumn[T](resetZero)
}

// FactoryNewColumnKeep creates a column whose values are left untouched when
// their row is reset.
func FactoryNewColumnKeep[T any]() Column[T] {
	return newColumn[T](resetKeep)
}

func FactoryNewKeyedMap[K comparable](name string, opts StableOptions, columns []AnyColumn, options ...KeyedOption[K]) (*KeyedMap[K], error) {
	return newKeyedMap(name, opts, columns, options...)
}

func FactoryNewPool[T any](name string, blockSize int) (*Pool[T], error) {
	return newPool[T](name, blockSize)
}
