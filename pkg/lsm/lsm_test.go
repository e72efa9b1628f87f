package lsm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T, mode Mode) *Tree {
	t.Helper()
	path := filepath.Join(t.TempDir(), "idx")
	tree, err := Open(path, mode, 1600) // 100-entry memtable
	require.NoError(t, err)
	t.Cleanup(func() { tree.Close() })
	return tree
}

func TestPutGetMemtable(t *testing.T) {
	tree := openTemp(t, ReadWrite)

	require.NoError(t, tree.Put(42, 1000))
	require.NoError(t, tree.Put(7, 2000))

	off, ok := tree.Get(42)
	require.True(t, ok)
	assert.Equal(t, int64(1000), off)

	_, ok = tree.Get(99)
	assert.False(t, ok)
	assert.Equal(t, int64(2), tree.MemEntries())
}

func TestFlushServesFromSegment(t *testing.T) {
	tree := openTemp(t, ReadWrite)

	for k := int64(0); k < 50; k++ {
		require.NoError(t, tree.Put(k, k*10))
	}
	require.NoError(t, tree.Flush())
	assert.Equal(t, int64(0), tree.MemEntries())
	require.Len(t, tree.Segments(), 1)
	assert.Equal(t, int64(50), tree.Segments()[0])

	for k := int64(0); k < 50; k++ {
		off, ok := tree.Get(k)
		require.True(t, ok, "key %d", k)
		assert.Equal(t, k*10, off)
	}
	_, ok := tree.Get(50)
	assert.False(t, ok)
}

func TestAutomaticFlushOnBudget(t *testing.T) {
	tree := openTemp(t, ReadWrite)
	require.Equal(t, int64(100), tree.MemMax())

	for k := int64(0); k < 150; k++ {
		require.NoError(t, tree.Put(k, k))
	}
	require.Len(t, tree.Segments(), 1)

	for k := int64(0); k < 150; k++ {
		off, ok := tree.Get(k)
		require.True(t, ok, "key %d", k)
		assert.Equal(t, k, off)
	}
}

func TestNewerSegmentWins(t *testing.T) {
	tree := openTemp(t, ReadWrite)

	require.NoError(t, tree.Put(5, 111))
	require.NoError(t, tree.Flush())
	require.NoError(t, tree.Put(5, 222))
	require.NoError(t, tree.Flush())
	require.Len(t, tree.Segments(), 2)

	off, ok := tree.Get(5)
	require.True(t, ok)
	assert.Equal(t, int64(222), off)
}

func TestDeleteTombstone(t *testing.T) {
	tree := openTemp(t, ReadWrite)

	require.NoError(t, tree.Put(1, 100))
	require.NoError(t, tree.Delete(1))

	off, ok := tree.Get(1)
	require.True(t, ok)
	assert.Equal(t, Tombstone, off)

	// still a tombstone after the memtable flushes
	require.NoError(t, tree.Flush())
	off, ok = tree.Get(1)
	require.True(t, ok)
	assert.Equal(t, Tombstone, off)
}

func TestCompactionMergesAndDropsTombstones(t *testing.T) {
	tree := openTemp(t, ReadWrite)

	// nine flushed segments, the tenth flush trips compaction
	for seg := int64(0); seg < 9; seg++ {
		for k := seg * 10; k < (seg+1)*10; k++ {
			require.NoError(t, tree.Put(k, k+1000))
		}
		require.NoError(t, tree.Flush())
	}
	require.Len(t, tree.Segments(), 9)

	require.NoError(t, tree.Put(3, 9999)) // overwrite in newest segment
	require.NoError(t, tree.Delete(7))
	require.NoError(t, tree.Flush())

	require.Len(t, tree.Segments(), 1)

	off, ok := tree.Get(3)
	require.True(t, ok)
	assert.Equal(t, int64(9999), off)

	// tombstoned key is gone from the merged run entirely
	_, ok = tree.Get(7)
	assert.False(t, ok)

	for k := int64(0); k < 90; k++ {
		if k == 3 || k == 7 {
			continue
		}
		off, ok := tree.Get(k)
		require.True(t, ok, "key %d", k)
		assert.Equal(t, k+1000, off)
	}
}

func TestSegmentFileNaming(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "orders")
	tree, err := Open(path, ReadWrite, 1600)
	require.NoError(t, err)

	require.NoError(t, tree.Put(1, 1))
	require.NoError(t, tree.Flush())
	require.NoError(t, tree.Put(2, 2))
	require.NoError(t, tree.Flush())
	require.NoError(t, tree.Close())

	_, err = os.Stat(path + ".00001.sst")
	assert.NoError(t, err)
	_, err = os.Stat(path + ".00002.sst")
	assert.NoError(t, err)
}

func TestReopenAndReadOnly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "idx")

	tree, err := Open(path, ReadWrite, 1600)
	require.NoError(t, err)
	for k := int64(0); k < 20; k++ {
		require.NoError(t, tree.Put(k, k*3))
	}
	// Close flushes the memtable for read-write trees
	require.NoError(t, tree.Close())

	ro, err := Open(path, ReadOnly, 1600)
	require.NoError(t, err)
	defer ro.Close()

	for k := int64(0); k < 20; k++ {
		off, ok := ro.Get(k)
		require.True(t, ok, "key %d", k)
		assert.Equal(t, k*3, off)
	}
	assert.Error(t, ro.Put(99, 99))
	assert.Error(t, ro.Delete(1))
}
