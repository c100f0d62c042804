package depot

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfRange     = errors.New("index out of range")
	ErrStaleIndex     = errors.New("stale index")
	ErrColumnNotFound = errors.New("column not found")
	ErrKeyExists      = errors.New("key already exists")
	ErrKeyNotFound    = errors.New("key not found")
)

// Bound kinds reported by OutOfRangeError.
const (
	boundCapacity = "capacity"
	boundSize     = "size"
	boundSlots    = "slot count"
)

// OutOfRangeError is returned when an index is at or past the table's current bound.
type OutOfRangeError struct {
	Table string
	Index int
	Bound int
	Kind  string
}

func (e OutOfRangeError) Error() string {
	return fmt.Sprintf("table '%s': %d is not a valid index, the table %s is %d", e.Table, e.Index, e.Kind, e.Bound)
}

func (e OutOfRangeError) Is(target error) bool {
	return target == ErrOutOfRange
}

type StaleIndexError struct {
	Table string
	Index int
}

func (e StaleIndexError) Error() string {
	return fmt.Sprintf("table '%s': index %d has been released", e.Table, e.Index)
}

func (e StaleIndexError) Is(target error) bool {
	return target == ErrStaleIndex
}

type ColumnNotFoundError struct {
	Table  string
	Column string
}

func (e ColumnNotFoundError) Error() string {
	return fmt.Sprintf("table '%s' has no column of type %s", e.Table, e.Column)
}

func (e ColumnNotFoundError) Is(target error) bool {
	return target == ErrColumnNotFound
}

type TableSchemaError struct {
	Table  string
	Reason string
}

func (e TableSchemaError) Error() string {
	return fmt.Sprintf("table '%s': %s", e.Table, e.Reason)
}

type KeyExistsError[K comparable] struct {
	Key K
}

func (e KeyExistsError[K]) Error() string {
	return fmt.Sprintf("key already exists in map: %v", e.Key)
}

func (e KeyExistsError[K]) Is(target error) bool {
	return target == ErrKeyExists
}

type KeyNotFoundError[K comparable] struct {
	Key K
}

func (e KeyNotFoundError[K]) Error() string {
	return fmt.Sprintf("key does not exist in map: %v", e.Key)
}

func (e KeyNotFoundError[K]) Is(target error) bool {
	return target == ErrKeyNotFound
}

type IndexNotFoundError struct {
	Table string
	Index int
}

func (e IndexNotFoundError) Error() string {
	return fmt.Sprintf("table '%s': index %d is not bound to a key", e.Table, e.Index)
}

func (e IndexNotFoundError) Is(target error) bool {
	return target == ErrKeyNotFound
}
