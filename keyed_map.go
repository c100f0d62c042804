package depot

import (
	"iter"
	"reflect"
)

var _ Columnar = &KeyedMap[string]{}

// KeyedMap binds external keys to the rows of a StableTable. Both directions of
// the binding are kept in pluggable Associative maps. A KeyedMap is not safe for
// concurrent use.
type KeyedMap[K comparable] struct {
	rows    *StableTable
	keys    Associative[K, int]
	indices Associative[int, K]
}

type keyedConfig[K comparable] struct {
	keys    func() Associative[K, int]
	indices func() Associative[int, K]
}

type KeyedOption[K comparable] func(*keyedConfig[K])

// WithKeyIndex sets the map used for key to index lookups
func WithKeyIndex[K comparable](factory func() Associative[K, int]) KeyedOption[K] {
	return func(cfg *keyedConfig[K]) {
		cfg.keys = factory
	}
}

// WithIndexKeys sets the map used for index to key lookups
func WithIndexKeys[K comparable](factory func() Associative[int, K]) KeyedOption[K] {
	return func(cfg *keyedConfig[K]) {
		cfg.indices = factory
	}
}

func newKeyedMap[K comparable](name string, opts StableOptions, columns []AnyColumn, options ...KeyedOption[K]) (*KeyedMap[K], error) {
	cfg := keyedConfig[K]{
		keys:    func() Associative[K, int] { return NewHashMap[K, int]() },
		indices: func() Associative[int, K] { return NewHashMap[int, K]() },
	}
	for _, opt := range options {
		opt(&cfg)
	}
	rows, err := newStableTable(name, opts, columns...)
	if err != nil {
		return nil, err
	}
	return &KeyedMap[K]{
		rows:    rows,
		keys:    cfg.keys(),
		indices: cfg.indices(),
	}, nil
}

// Add acquires a row for key. Adding a key that is already bound fails with
// KeyExistsError and leaves the existing binding untouched.
func (m *KeyedMap[K]) Add(key K) (KeyHandle[K], error) {
	if m.Exists(key) {
		return KeyHandle[K]{}, KeyExistsError[K]{Key: key}
	}
	index := m.rows.Acquire()
	m.keys.Insert(key, index)
	m.indices.Insert(index, key)
	return KeyHandle[K]{Key: key, Index: index}, nil
}

func (m *KeyedMap[K]) Exists(key K) bool {
	_, ok := m.keys.Lookup(key)
	return ok
}

func (m *KeyedMap[K]) Lookup(key K) (KeyHandle[K], bool) {
	index, ok := m.keys.Lookup(key)
	if !ok {
		return KeyHandle[K]{}, false
	}
	return KeyHandle[K]{Key: key, Index: index}, true
}

func (m *KeyedMap[K]) KeyOf(index int) (K, bool) {
	return m.indices.Lookup(index)
}

// Erase unbinds key and releases its row, resetting every column.
func (m *KeyedMap[K]) Erase(key K) error {
	index, ok := m.keys.Lookup(key)
	if !ok {
		return KeyNotFoundError[K]{Key: key}
	}
	return m.unbind(key, index)
}

func (m *KeyedMap[K]) EraseIndex(index int) error {
	key, ok := m.indices.Lookup(index)
	if !ok {
		return IndexNotFoundError{Table: m.rows.Name(), Index: index}
	}
	return m.unbind(key, index)
}

// EraseHandle erases the handle's key, failing if the key is now bound to another index.
func (m *KeyedMap[K]) EraseHandle(handle KeyHandle[K]) error {
	index, ok := m.keys.Lookup(handle.Key)
	if !ok {
		return KeyNotFoundError[K]{Key: handle.Key}
	}
	if index != handle.Index {
		return StaleIndexError{Table: m.rows.Name(), Index: handle.Index}
	}
	return m.unbind(handle.Key, index)
}

func (m *KeyedMap[K]) unbind(key K, index int) error {
	m.keys.Erase(key)
	m.indices.Erase(index)
	return m.rows.Release(index)
}

// Living returns the indices of bound rows in ascending order
func (m *KeyedMap[K]) Living() []int {
	return m.rows.Living()
}

// LivingPairs yields (key, index) for every bound row in ascending index order
func (m *KeyedMap[K]) LivingPairs() iter.Seq2[K, int] {
	return func(yield func(K, int) bool) {
		for index := range m.rows.LivingSeq() {
			key, ok := m.indices.Lookup(index)
			if !ok {
				continue
			}
			if !yield(key, index) {
				return
			}
		}
	}
}

func (m *KeyedMap[K]) Len() int {
	return m.keys.Len()
}

// Clear unbinds every key and resets every row
func (m *KeyedMap[K]) Clear() {
	m.keys.Clear()
	m.indices.Clear()
	m.rows.Clear()
}

func (m *KeyedMap[K]) Rows() *StableTable {
	return m.rows
}

func (m *KeyedMap[K]) Name() string {
	return m.rows.Name()
}

func (m *KeyedMap[K]) Columns() []AnyColumn {
	return m.rows.Columns()
}

func (m *KeyedMap[K]) locate(typ reflect.Type, index int) (store, int, error) {
	return m.rows.locate(typ, index)
}

// scan skips slots that are not bound to a key
func (m *KeyedMap[K]) scan(typ reflect.Type, fn func(index int, s store, offset int) bool) error {
	return m.rows.scan(typ, func(index int, s store, offset int) bool {
		if _, ok := m.indices.Lookup(index); !ok {
			return true
		}
		return fn(index, s, offset)
	})
}

// GetByKey resolves key and returns a pointer to its value in column c
func GetByKey[T any, K comparable](m *KeyedMap[K], c Column[T], key K) (*T, error) {
	index, ok := m.keys.Lookup(key)
	if !ok {
		return nil, KeyNotFoundError[K]{Key: key}
	}
	return c.Get(m, index)
}

func SetByKey[T any, K comparable](m *KeyedMap[K], c Column[T], key K, value T) error {
	index, ok := m.keys.Lookup(key)
	if !ok {
		return KeyNotFoundError[K]{Key: key}
	}
	return c.Set(m, index, value)
}
