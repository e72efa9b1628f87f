package row

import (
	"sync"

	"github.com/basaltdb/basalt/pkg/errors"
)

const (
	defaultRowsPerSchema = 256
	defaultMaxSchemas    = 32
)

// Pool recycles rows per schema. Acquired rows behave like fresh ones
// with defaults applied; Release on the last reference returns them
// here instead of the garbage collector.
type Pool struct {
	mu            sync.Mutex
	buckets       map[*Meta][]*Row
	rowsPerSchema int
	maxSchemas    int
}

// NewPool creates a row pool. Non-positive limits take the defaults.
func NewPool(rowsPerSchema, maxSchemas int) *Pool {
	if rowsPerSchema <= 0 {
		rowsPerSchema = defaultRowsPerSchema
	}
	if maxSchemas <= 0 {
		maxSchemas = defaultMaxSchemas
	}
	return &Pool{
		buckets:       make(map[*Meta][]*Row),
		rowsPerSchema: rowsPerSchema,
		maxSchemas:    maxSchemas,
	}
}

// Acquire returns a row for the schema, recycled when one is
// available.
func (p *Pool) Acquire(meta *Meta) (*Row, error) {
	if meta == nil {
		return nil, errors.New(errors.ErrorTypeConfig, "pool acquire requires a schema")
	}
	p.mu.Lock()
	bucket := p.buckets[meta]
	if n := len(bucket); n > 0 {
		r := bucket[n-1]
		p.buckets[meta] = bucket[:n-1]
		p.mu.Unlock()
		r.refs.Store(1)
		r.applyDefaults()
		return r, nil
	}
	p.mu.Unlock()

	r, err := New(meta)
	if err != nil {
		return nil, err
	}
	r.pool = p
	return r, nil
}

// put returns a fully released row to its bucket. Full buckets and
// the schema cap drop the row on the floor.
func (p *Pool) put(r *Row) {
	r.Reset()
	p.mu.Lock()
	defer p.mu.Unlock()
	bucket, ok := p.buckets[r.meta]
	if !ok && len(p.buckets) >= p.maxSchemas {
		return
	}
	if len(bucket) >= p.rowsPerSchema {
		return
	}
	p.buckets[r.meta] = append(bucket, r)
}

// Size reports how many rows are parked for the schema.
func (p *Pool) Size(meta *Meta) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buckets[meta])
}
