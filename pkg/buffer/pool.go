package buffer

import (
	"sync"
)

// Pool recycles owned buffers on a capped LIFO stack. Borrow returns a
// cleared buffer of at least the requested size; Return re-pools only
// owned buffers and drops everything else for the garbage collector.
type Pool struct {
	items []*Buffer
	cap   int
	align int
}

// NewPool creates a pool holding at most capacity buffers. align is the
// minimum capacity of a freshly allocated buffer; preload buffers are
// allocated up front.
func NewPool(capacity, align, preload int) *Pool {
	if align <= 0 {
		align = 1
	}
	p := &Pool{
		items: make([]*Buffer, 0, capacity),
		cap:   capacity,
		align: align,
	}
	for i := 0; i < preload && i < capacity; i++ {
		p.items = append(p.items, Alloc(align))
	}
	return p
}

// Borrow returns a cleared buffer with capacity of at least size.
func (p *Pool) Borrow(size int) *Buffer {
	if n := len(p.items); n > 0 {
		b := p.items[n-1]
		p.items = p.items[:n-1]
		if b.capacity < size {
			_ = b.Realloc(size)
		}
		b.Clear()
		return b
	}
	if size < p.align {
		size = p.align
	}
	return Alloc(size)
}

// Return puts an owned buffer back on the stack if there is room.
// Foreign buffers (wrapped, sliced, mapped) are never cached.
func (p *Pool) Return(b *Buffer) {
	if b == nil || b.kind != Owned {
		if b != nil {
			_ = b.Free()
		}
		return
	}
	if len(p.items) < p.cap {
		b.Clear()
		p.items = append(p.items, b)
	}
}

// Close frees all pooled buffers.
func (p *Pool) Close() {
	for _, b := range p.items {
		_ = b.Free()
	}
	p.items = p.items[:0]
}

// SafePool guards a Pool for cross-goroutine handoff.
type SafePool struct {
	mu   sync.Mutex
	pool *Pool
}

// NewSafePool creates a mutex-guarded buffer pool.
func NewSafePool(capacity, align, preload int) *SafePool {
	return &SafePool{pool: NewPool(capacity, align, preload)}
}

// Borrow returns a cleared buffer with capacity of at least size.
func (p *SafePool) Borrow(size int) *Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pool.Borrow(size)
}

// Return puts a buffer back into the pool.
func (p *SafePool) Return(b *Buffer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pool.Return(b)
}

// Close frees all pooled buffers.
func (p *SafePool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pool.Close()
}
