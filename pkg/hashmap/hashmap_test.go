package hashmap

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGetRemove(t *testing.T) {
	m := New[string, int](0, StringHasher)

	m.Put("a", 1)
	m.Put("b", 2)
	m.Put("c", 3)
	require.Equal(t, 3, m.Len())

	v, ok := m.Get("b")
	require.True(t, ok)
	assert.Equal(t, 2, v)

	m.Put("b", 20)
	v, _ = m.Get("b")
	assert.Equal(t, 20, v)
	assert.Equal(t, 3, m.Len())

	require.True(t, m.Remove("a"))
	require.False(t, m.Remove("a"))
	_, ok = m.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 2, m.Len())
}

func TestInsertionOrderIteration(t *testing.T) {
	m := New[string, int](4, StringHasher)
	keys := []string{"delta", "alpha", "echo", "bravo", "charlie"}
	for i, k := range keys {
		m.Put(k, i)
	}

	var got []string
	m.Range(func(k string, v int) bool {
		got = append(got, k)
		return true
	})
	assert.Equal(t, keys, got)

	// updates do not reorder an insertion-order map
	m.Put("alpha", 100)
	got = got[:0]
	m.Range(func(k string, v int) bool {
		got = append(got, k)
		return true
	})
	assert.Equal(t, keys, got)
}

func TestLRUEviction(t *testing.T) {
	m := NewLRU[int64, int64](16, 3, Int64Hasher)
	var evicted []int64
	m.OnEvict(func(k, v int64) { evicted = append(evicted, k) })

	m.Put(1, 10)
	m.Put(2, 20)
	m.Put(3, 30)
	m.Put(4, 40) // evicts 1
	require.Equal(t, 3, m.Len())
	assert.Equal(t, []int64{1}, evicted)
	assert.False(t, m.Contains(1))

	// touching 2 makes 3 the oldest
	_, ok := m.Get(2)
	require.True(t, ok)
	k, _, ok := m.Oldest()
	require.True(t, ok)
	assert.Equal(t, int64(3), k)

	m.Put(5, 50) // evicts 3
	assert.False(t, m.Contains(3))
	assert.True(t, m.Contains(2))
	assert.True(t, m.Contains(4))
	assert.True(t, m.Contains(5))
}

func TestLRUUpdateRefreshesRecency(t *testing.T) {
	m := NewLRU[int64, int64](16, 2, Int64Hasher)
	m.Put(1, 1)
	m.Put(2, 2)
	m.Put(1, 11) // update promotes 1, so 2 is now oldest
	m.Put(3, 3)  // evicts 2
	assert.True(t, m.Contains(1))
	assert.False(t, m.Contains(2))
	assert.True(t, m.Contains(3))
}

func TestBackwardShiftCollisionChains(t *testing.T) {
	// constant hasher forces every key into one probe chain, exercising
	// the shift loop across wraparound
	m := New[int64, int64](8, func(k int64) uint64 { return 7 })
	for k := int64(0); k < 5; k++ {
		m.Put(k, k*10)
	}
	require.True(t, m.Remove(1))
	require.True(t, m.Remove(3))
	for _, k := range []int64{0, 2, 4} {
		v, ok := m.Get(k)
		require.True(t, ok, "key %d lost after compaction", k)
		assert.Equal(t, k*10, v)
	}
	assert.Equal(t, 3, m.Len())

	// list order must survive entry relocation
	var order []int64
	m.Range(func(k, v int64) bool {
		order = append(order, k)
		return true
	})
	assert.Equal(t, []int64{0, 2, 4}, order)
}

func TestGrowPreservesOrder(t *testing.T) {
	m := New[int64, int64](4, Int64Hasher)
	var want []int64
	for k := int64(0); k < 200; k++ {
		m.Put(k, -k)
		want = append(want, k)
	}
	require.Equal(t, 200, m.Len())

	var got []int64
	m.Range(func(k, v int64) bool {
		assert.Equal(t, -k, v)
		got = append(got, k)
		return true
	})
	assert.Equal(t, want, got)
}

func TestRandomizedAgainstBuiltin(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	m := New[int64, int64](8, Int64Hasher)
	ref := make(map[int64]int64)

	for i := 0; i < 20000; i++ {
		k := int64(rng.Intn(512))
		switch rng.Intn(3) {
		case 0, 1:
			v := rng.Int63()
			m.Put(k, v)
			ref[k] = v
		case 2:
			removed := m.Remove(k)
			_, inRef := ref[k]
			require.Equal(t, inRef, removed)
			delete(ref, k)
		}
	}

	require.Equal(t, len(ref), m.Len())
	for k, v := range ref {
		got, ok := m.Get(k)
		require.True(t, ok, "missing key %d", k)
		require.Equal(t, v, got)
	}
}

func TestClearInvokesEvict(t *testing.T) {
	m := New[string, int](0, StringHasher)
	n := 0
	m.OnEvict(func(string, int) { n++ })
	for i := 0; i < 5; i++ {
		m.Put(fmt.Sprintf("k%d", i), i)
	}
	m.Clear()
	assert.Equal(t, 5, n)
	assert.Equal(t, 0, m.Len())
	_, ok := m.Get("k0")
	assert.False(t, ok)
}

func TestTreeMapOrdered(t *testing.T) {
	tm := NewTreeMap(nil)
	for _, k := range []int64{42, 7, 99, 1, 60} {
		tm.Put(k, k*2)
	}
	require.Equal(t, 5, tm.Len())

	var keys []int64
	tm.Range(func(k, v int64) bool {
		keys = append(keys, k)
		return true
	})
	assert.Equal(t, []int64{1, 7, 42, 60, 99}, keys)

	k, v, ok := tm.Min()
	require.True(t, ok)
	assert.Equal(t, int64(1), k)
	assert.Equal(t, int64(2), v)
	k, _, _ = tm.Max()
	assert.Equal(t, int64(99), k)

	require.True(t, tm.Remove(42))
	require.False(t, tm.Remove(42))
	assert.Equal(t, 4, tm.Len())
}
