package rbtree

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutGetRemove(t *testing.T) {
	tr := New(nil)
	tr.Put(5, 50)
	tr.Put(1, 10)
	tr.Put(9, 90)

	v, ok := tr.Get(5)
	require.True(t, ok)
	assert.Equal(t, int64(50), v)
	assert.Equal(t, int64(3), tr.Len())

	tr.Put(5, 55)
	v, _ = tr.Get(5)
	assert.Equal(t, int64(55), v)
	assert.Equal(t, int64(3), tr.Len())

	tr.Remove(5)
	_, ok = tr.Get(5)
	assert.False(t, ok)
	assert.Equal(t, int64(2), tr.Len())

	// removing a missing key is a no-op
	tr.Remove(1234)
	assert.Equal(t, int64(2), tr.Len())
}

func TestMinMaxWalk(t *testing.T) {
	tr := New(nil)
	for _, k := range []int64{7, 3, 11, 1, 9} {
		tr.Put(k, k*10)
	}
	k, v, ok := tr.Min()
	require.True(t, ok)
	assert.Equal(t, int64(1), k)
	assert.Equal(t, int64(10), v)

	k, _, ok = tr.Max()
	require.True(t, ok)
	assert.Equal(t, int64(11), k)

	var keys []int64
	tr.Walk(func(k, v int64) bool {
		keys = append(keys, k)
		return true
	})
	assert.Equal(t, []int64{1, 3, 7, 9, 11}, keys)

	// early stop
	n := 0
	tr.Walk(func(k, v int64) bool {
		n++
		return n < 2
	})
	assert.Equal(t, 2, n)
}

func TestComparatorOrder(t *testing.T) {
	// reverse order comparator
	tr := New(func(a, b int64) int {
		switch {
		case a > b:
			return -1
		case a < b:
			return 1
		}
		return 0
	})
	tr.Put(1, 1)
	tr.Put(2, 2)
	tr.Put(3, 3)

	var keys []int64
	tr.Walk(func(k, v int64) bool {
		keys = append(keys, k)
		return true
	})
	assert.Equal(t, []int64{3, 2, 1}, keys)
}

func TestRandomizedAgainstMap(t *testing.T) {
	tr := New(nil)
	ref := map[int64]int64{}
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 5000; i++ {
		k := int64(rng.Intn(500))
		switch rng.Intn(3) {
		case 0, 1:
			v := rng.Int63n(1 << 40)
			tr.Put(k, v)
			ref[k] = v
		case 2:
			tr.Remove(k)
			delete(ref, k)
		}
	}

	assert.Equal(t, int64(len(ref)), tr.Len())
	for k, v := range ref {
		got, ok := tr.Get(k)
		require.True(t, ok, "missing key %d", k)
		assert.Equal(t, v, got)
	}

	// in-order walk is sorted
	prev := int64(-1)
	tr.Walk(func(k, v int64) bool {
		require.Greater(t, k, prev)
		prev = k
		return true
	})
}

func TestOnDeleteCallback(t *testing.T) {
	tr := New(nil)
	for i := int64(0); i < 5; i++ {
		tr.Put(i, i*10)
	}

	var got map[int64]int64
	tr.OnDelete(func(k, v int64) {
		if got == nil {
			got = map[int64]int64{}
		}
		got[k] = v
	})

	tr.Remove(3)
	require.Equal(t, map[int64]int64{3: 30}, got)

	got = nil
	tr.Remove(3) // absent, no callback
	assert.Nil(t, got)

	tr.Clear()
	assert.Equal(t, map[int64]int64{0: 0, 1: 10, 2: 20, 4: 40}, got)
	assert.Equal(t, int64(0), tr.Len())
}

func TestPooledNodesReused(t *testing.T) {
	tr := NewPooled(nil, 64)
	for i := int64(0); i < 100; i++ {
		tr.Put(i, i)
	}
	for i := int64(0); i < 100; i++ {
		tr.Remove(i)
	}
	require.Equal(t, int64(0), tr.Len())

	// reinsert through the freelist and verify structure survives
	for i := int64(100); i > 0; i-- {
		tr.Put(i, -i)
	}
	assert.Equal(t, int64(100), tr.Len())
	prev := int64(0)
	tr.Walk(func(k, v int64) bool {
		require.Equal(t, prev+1, k)
		require.Equal(t, -k, v)
		prev = k
		return true
	})
}

// blackHeight verifies no right-leaning red links, no two reds in a
// row, and an equal black count on every root-to-nil path. Returns -1
// on violation.
func blackHeight(x *node, parentRed bool) int {
	if x == nil {
		return 0
	}
	if x.color == red && (parentRed || isRed(x.right)) {
		return -1
	}
	if isRed(x.right) && !isRed(x.left) {
		return -1
	}
	l := blackHeight(x.left, x.color == red)
	r := blackHeight(x.right, x.color == red)
	if l < 0 || r < 0 || l != r {
		return -1
	}
	if x.color == black {
		return l + 1
	}
	return l
}

func TestRedBlackInvariantHolds(t *testing.T) {
	tr := New(nil)
	rng := rand.New(rand.NewSource(11))
	live := map[int64]bool{}
	for op := 0; op < 5000; op++ {
		k := int64(rng.Intn(600))
		if rng.Intn(3) == 0 {
			tr.Remove(k)
			delete(live, k)
		} else {
			tr.Put(k, k)
			live[k] = true
		}
		require.GreaterOrEqual(t, blackHeight(tr.root, false), 0, "op %d", op)
	}
	require.Equal(t, int64(len(live)), tr.Len())
}
