// Package pool provides bounded object recycling for hot allocation paths.
package pool

import (
	"sync"
	"sync/atomic"
)

// Pool is a generic object pool built on sync.Pool with usage counters.
type Pool[T any] struct {
	pool  sync.Pool
	new   func() T
	reset func(T)

	// Stats
	gets    atomic.Int64
	puts    atomic.Int64
	creates atomic.Int64
}

// New creates a pool. newFn allocates a fresh object, resetFn (optional)
// restores a recycled object to its zero state before reuse.
func New[T any](newFn func() T, resetFn func(T)) *Pool[T] {
	p := &Pool[T]{
		new:   newFn,
		reset: resetFn,
	}
	p.pool.New = func() interface{} {
		p.creates.Add(1)
		return p.new()
	}
	return p
}

// Get retrieves an object from the pool
func (p *Pool[T]) Get() T {
	p.gets.Add(1)
	return p.pool.Get().(T)
}

// Put returns an object to the pool
func (p *Pool[T]) Put(obj T) {
	p.puts.Add(1)
	if p.reset != nil {
		p.reset(obj)
	}
	p.pool.Put(obj)
}

// Stats reports pool usage counters
func (p *Pool[T]) Stats() (gets, puts, creates int64) {
	return p.gets.Load(), p.puts.Load(), p.creates.Load()
}

// BytesPool recycles byte slices in power-of-two size buckets.
// Variant payloads tagged as pool-owned return their backing here.
type BytesPool struct {
	buckets []*Pool[*[]byte]
	sizes   []int
}

// bucket sizes: 64B to 64KB
var bytesPoolSizes = []int{64, 256, 1024, 4096, 16384, 65536}

// NewBytesPool creates a size-bucketed byte slice pool.
func NewBytesPool() *BytesPool {
	bp := &BytesPool{
		sizes:   bytesPoolSizes,
		buckets: make([]*Pool[*[]byte], len(bytesPoolSizes)),
	}
	for i, size := range bp.sizes {
		sz := size
		bp.buckets[i] = New(
			func() *[]byte {
				b := make([]byte, 0, sz)
				return &b
			},
			func(b *[]byte) {
				*b = (*b)[:0]
			},
		)
	}
	return bp
}

// Get returns a slice with length n backed by a bucket of capacity >= n.
// Requests larger than the biggest bucket fall through to make.
func (bp *BytesPool) Get(n int) []byte {
	for i, size := range bp.sizes {
		if n <= size {
			b := *bp.buckets[i].Get()
			return b[:n]
		}
	}
	return make([]byte, n)
}

// Put returns a slice to its bucket. Slices whose capacity matches no
// bucket are left for the garbage collector.
func (bp *BytesPool) Put(b []byte) {
	c := cap(b)
	for i, size := range bp.sizes {
		if c == size {
			s := b[:0]
			bp.buckets[i].Put(&s)
			return
		}
	}
}

// Bytes is the process-wide payload pool.
var Bytes = NewBytesPool()
