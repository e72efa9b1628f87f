package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shell struct {
	id   int
	data []byte
}

func TestPoolRecyclesWithReset(t *testing.T) {
	p := New(
		func() *shell { return &shell{data: make([]byte, 0, 8)} },
		func(s *shell) { s.id = 0; s.data = s.data[:0] },
	)

	s := p.Get()
	s.id = 42
	s.data = append(s.data, 1, 2, 3)
	p.Put(s)

	r := p.Get()
	assert.Equal(t, 0, r.id)
	assert.Empty(t, r.data)

	gets, puts, creates := p.Stats()
	assert.Equal(t, int64(2), gets)
	assert.Equal(t, int64(1), puts)
	assert.GreaterOrEqual(t, creates, int64(1))
}

func TestBytesPoolBuckets(t *testing.T) {
	bp := NewBytesPool()

	b := bp.Get(100)
	require.Len(t, b, 100)
	assert.Equal(t, 256, cap(b))
	bp.Put(b)

	small := bp.Get(10)
	require.Len(t, small, 10)
	assert.Equal(t, 64, cap(small))
}

func TestBytesPoolOversized(t *testing.T) {
	bp := NewBytesPool()
	huge := bp.Get(1 << 20)
	require.Len(t, huge, 1<<20)
	// oversized slices bypass the buckets both ways
	bp.Put(huge)
}

func TestBytesPoolForeignCapacity(t *testing.T) {
	bp := NewBytesPool()
	// a slice with a non-bucket capacity is dropped, not pooled
	bp.Put(make([]byte, 0, 100))
	b := bp.Get(50)
	assert.Equal(t, 64, cap(b))
}
