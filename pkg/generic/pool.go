package generic

import "sync"

// Pool is a typed sync.Pool for scratch values that are reused across
// calls, such as per-step buffers.
type Pool[T any] struct {
	pool  sync.Pool
	reset func(T)
}

type PoolOption[T any] func(*Pool[T], func() T)

// WithReset makes Put pass every value through reset before pooling it.
func WithReset[T any](reset func(T)) PoolOption[T] {
	return func(p *Pool[T], _ func() T) { p.reset = reset }
}

// WithPrefill puts n freshly generated values into the pool up front.
func WithPrefill[T any](n int) PoolOption[T] {
	return func(p *Pool[T], generate func() T) {
		for i := 0; i < n; i++ {
			p.pool.Put(generate())
		}
	}
}

func NewPool[T any](generate func() T, opts ...PoolOption[T]) *Pool[T] {
	p := &Pool[T]{}
	p.pool.New = func() any { return generate() }
	for _, opt := range opts {
		opt(p, generate)
	}
	return p
}

func (p *Pool[T]) Get() T {
	return p.pool.Get().(T)
}

func (p *Pool[T]) Put(value T) {
	if p.reset != nil {
		p.reset(value)
	}
	p.pool.Put(value)
}
