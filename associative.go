package depot

import (
	"cmp"
	"sync"

	"github.com/google/btree"
)

var (
	_ Associative[string, int] = &HashMap[string, int]{}
	_ Associative[string, int] = &BTreeMap[string, int]{}
	_ Associative[string, int] = &SyncMap[string, int]{}
)

// HashMap is the default Associative, backed by a builtin map.
type HashMap[K comparable, V any] struct {
	items map[K]V
}

func NewHashMap[K comparable, V any]() *HashMap[K, V] {
	return &HashMap[K, V]{items: make(map[K]V)}
}

func (m *HashMap[K, V]) Insert(key K, value V) {
	m.items[key] = value
}

func (m *HashMap[K, V]) Lookup(key K) (V, bool) {
	value, ok := m.items[key]
	return value, ok
}

func (m *HashMap[K, V]) Erase(key K) bool {
	if _, ok := m.items[key]; !ok {
		return false
	}
	delete(m.items, key)
	return true
}

func (m *HashMap[K, V]) Len() int {
	return len(m.items)
}

func (m *HashMap[K, V]) Range(fn func(K, V) bool) {
	for k, v := range m.items {
		if !fn(k, v) {
			return
		}
	}
}

func (m *HashMap[K, V]) Clear() {
	clear(m.items)
}

type btreeEntry[K cmp.Ordered, V any] struct {
	key   K
	value V
}

// BTreeMap is an ordered Associative; Range visits keys in ascending order.
type BTreeMap[K cmp.Ordered, V any] struct {
	tree *btree.BTreeG[btreeEntry[K, V]]
}

func NewBTreeMap[K cmp.Ordered, V any]() *BTreeMap[K, V] {
	return &BTreeMap[K, V]{
		tree: btree.NewG(32, func(a, b btreeEntry[K, V]) bool {
			return cmp.Less(a.key, b.key)
		}),
	}
}

func (m *BTreeMap[K, V]) Insert(key K, value V) {
	m.tree.ReplaceOrInsert(btreeEntry[K, V]{key: key, value: value})
}

func (m *BTreeMap[K, V]) Lookup(key K) (V, bool) {
	entry, ok := m.tree.Get(btreeEntry[K, V]{key: key})
	return entry.value, ok
}

func (m *BTreeMap[K, V]) Erase(key K) bool {
	_, ok := m.tree.Delete(btreeEntry[K, V]{key: key})
	return ok
}

func (m *BTreeMap[K, V]) Len() int {
	return m.tree.Len()
}

func (m *BTreeMap[K, V]) Range(fn func(K, V) bool) {
	m.tree.Ascend(func(entry btreeEntry[K, V]) bool {
		return fn(entry.key, entry.value)
	})
}

func (m *BTreeMap[K, V]) Clear() {
	m.tree.Clear(false)
}

// SyncMap is an Associative backed by sync.Map, for maps read from many goroutines.
type SyncMap[K comparable, V any] struct {
	items sync.Map
}

func NewSyncMap[K comparable, V any]() *SyncMap[K, V] {
	return &SyncMap[K, V]{}
}

func (m *SyncMap[K, V]) Insert(key K, value V) {
	m.items.Store(key, value)
}

func (m *SyncMap[K, V]) Lookup(key K) (V, bool) {
	value, ok := m.items.Load(key)
	if !ok {
		var zero V
		return zero, false
	}
	return value.(V), true
}

func (m *SyncMap[K, V]) Erase(key K) bool {
	_, ok := m.items.LoadAndDelete(key)
	return ok
}

func (m *SyncMap[K, V]) Len() int {
	n := 0
	m.items.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (m *SyncMap[K, V]) Range(fn func(K, V) bool) {
	m.items.Range(func(k, v any) bool {
		return fn(k.(K), v.(V))
	})
}

func (m *SyncMap[K, V]) Clear() {
	m.items.Clear()
}
