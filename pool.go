package depot

// Pool is a stable growing pool of single values: a one-column StableTable.
// Pointers returned by Get stay valid until the index is released.
type Pool[T any] struct {
	rows  *StableTable
	value Column[T]
}

func newPool[T any](name string, blockSize int) (*Pool[T], error) {
	value := FactoryNewColumn[T]()
	rows, err := newStableTable(name, StableOptions{BlockSize: blockSize}, value)
	if err != nil {
		return nil, err
	}
	return &Pool[T]{rows: rows, value: value}, nil
}

func (p *Pool[T]) Acquire() int {
	return p.rows.Acquire()
}

// Release resets the value and recycles its index
func (p *Pool[T]) Release(index int) error {
	return p.rows.Release(index)
}

func (p *Pool[T]) Get(index int) (*T, error) {
	return p.value.Get(p.rows, index)
}

func (p *Pool[T]) Set(index int, value T) error {
	return p.value.Set(p.rows, index, value)
}

func (p *Pool[T]) Capacity() int {
	return p.rows.Capacity()
}

func (p *Pool[T]) Active() int {
	return p.rows.ActiveRows()
}
