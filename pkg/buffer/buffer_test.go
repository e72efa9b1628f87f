package buffer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basaltdb/basalt/pkg/errors"
)

func TestAllocWriteFlipRead(t *testing.T) {
	b := Alloc(64)
	assert.Equal(t, 64, b.Capacity())

	require.NoError(t, b.PutI8(-5))
	require.NoError(t, b.PutI16(1000))
	require.NoError(t, b.PutI32(-70000))
	require.NoError(t, b.PutI64(1<<40))
	require.NoError(t, b.PutF64(2.5))
	require.NoError(t, b.PutF32(-1.5))
	require.NoError(t, b.PutBytes([]byte("abc")))

	b.Flip()
	assert.Equal(t, 1+2+4+8+8+4+3, b.Limit())

	i8, err := b.GetI8()
	require.NoError(t, err)
	assert.Equal(t, int8(-5), i8)
	i16, err := b.GetI16()
	require.NoError(t, err)
	assert.Equal(t, int16(1000), i16)
	i32, err := b.GetI32()
	require.NoError(t, err)
	assert.Equal(t, int32(-70000), i32)
	i64v, err := b.GetI64()
	require.NoError(t, err)
	assert.Equal(t, int64(1<<40), i64v)
	f64, err := b.GetF64()
	require.NoError(t, err)
	assert.Equal(t, 2.5, f64)
	f32, err := b.GetF32()
	require.NoError(t, err)
	assert.Equal(t, float32(-1.5), f32)
	raw, err := b.GetBytes(3)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), raw)
	assert.Equal(t, 0, b.Remaining())
}

func TestLittleEndianLayout(t *testing.T) {
	b := Alloc(8)
	require.NoError(t, b.PutI32(0x01020304))
	assert.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, b.Array()[:4])
}

func TestPutPastCapacityFails(t *testing.T) {
	b := Alloc(4)
	require.NoError(t, b.PutI32(1))
	err := b.PutI8(1)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeBounds))
	// the failed put must not move the cursor
	assert.Equal(t, 4, b.Position())
}

func TestWrapAndSlice(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	b := Wrap(data)
	assert.Equal(t, 8, b.Remaining())

	s, err := b.Slice(2, 4)
	require.NoError(t, err)
	assert.Equal(t, []byte{3, 4, 5, 6}, s.Bytes())

	// slices share the backing array
	data[2] = 99
	assert.Equal(t, byte(99), s.Bytes()[0])

	_, err = b.Slice(6, 4)
	assert.Error(t, err)
}

func TestClearFlipSkip(t *testing.T) {
	b := Alloc(16)
	require.NoError(t, b.PutI64(7))
	b.Flip()
	assert.Equal(t, 8, b.Remaining())
	b.Skip(8)
	assert.Equal(t, 0, b.Remaining())
	b.Clear()
	assert.Equal(t, 0, b.Position())
	assert.Equal(t, 16, b.Limit())
}

func TestReallocGrowsOwnedOnly(t *testing.T) {
	b := Alloc(4)
	require.NoError(t, b.PutI32(42))
	require.NoError(t, b.Realloc(32))
	assert.Equal(t, 32, b.Capacity())
	assert.Equal(t, 4, b.Position())
	b.Flip()
	v, err := b.GetI32()
	require.NoError(t, err)
	assert.Equal(t, int32(42), v)

	w := Wrap(make([]byte, 4))
	assert.Error(t, w.Realloc(8))
}

func TestMapReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	content := []byte("mapped file contents")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	b, err := Map(path, 0, len(content))
	require.NoError(t, err)
	defer b.Free()

	assert.Equal(t, content, b.Bytes())
	got, err := b.GetBytes(6)
	require.NoError(t, err)
	assert.Equal(t, []byte("mapped"), got)
}

func TestPoolBorrowReturn(t *testing.T) {
	p := NewPool(2, 64, 1)
	defer p.Close()

	a := p.Borrow(16)
	assert.GreaterOrEqual(t, a.Capacity(), 16)
	require.NoError(t, a.PutI64(1))
	p.Return(a)

	// the recycled buffer comes back cleared
	b := p.Borrow(16)
	assert.Equal(t, 0, b.Position())
	assert.Same(t, a, b)

	// foreign buffers are never pooled
	w := Wrap(make([]byte, 8))
	p.Return(w)
	c := p.Borrow(8)
	assert.NotSame(t, w, c)
}

func TestSafePoolConcurrentHandoff(t *testing.T) {
	p := NewSafePool(8, 64, 0)
	defer p.Close()

	done := make(chan struct{})
	for g := 0; g < 4; g++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 200; i++ {
				b := p.Borrow(128)
				if err := b.PutI64(int64(i)); err != nil {
					t.Error(err)
					return
				}
				p.Return(b)
			}
		}()
	}
	for g := 0; g < 4; g++ {
		<-done
	}
}

func TestDumpHex(t *testing.T) {
	out := DumpHex([]byte("Hello\x00World!"), 0, 12, 8)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "48 65 6c 6c 6f 00 57 6f")
	assert.Contains(t, lines[0], "Hello.Wo")
	assert.Contains(t, lines[1], "rld!")
}
