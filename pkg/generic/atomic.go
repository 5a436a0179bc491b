package generic

import "sync/atomic"

// AtomicValue provides a generic atomic holder for any type. Every write
// bumps the version, so readers can tell whether the value changed since
// they last looked.
type AtomicValue[T any] struct {
	value   atomic.Pointer[T]
	version atomic.Uint64
}

// NewAtomicValue creates a new AtomicValue with the given initial value
func NewAtomicValue[T any](initialValue T) *AtomicValue[T] {
	a := &AtomicValue[T]{}
	a.value.Store(&initialValue)
	a.version.Store(1)
	return a
}

// Get returns the current value atomically
func (a *AtomicValue[T]) Get() T {
	return *a.value.Load()
}

// Set sets the value atomically
func (a *AtomicValue[T]) Set(value T) {
	a.value.Store(&value)
	a.version.Add(1)
}

// Swap atomically swaps the value and returns the old value
func (a *AtomicValue[T]) Swap(value T) T {
	old := a.value.Swap(&value)
	a.version.Add(1)
	return *old
}

// Version returns the current version number
func (a *AtomicValue[T]) Version() uint64 {
	return a.version.Load()
}
