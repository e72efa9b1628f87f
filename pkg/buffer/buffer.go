// Package buffer implements a position/limit byte cursor over owned,
// wrapped, sliced, or memory-mapped arrays, with little-endian typed
// access and bounded pooling.
package buffer

import (
	"encoding/binary"
	"math"

	"github.com/basaltdb/basalt/pkg/errors"
	"github.com/basaltdb/basalt/pkg/mmap"
)

// Kind identifies who owns the backing array and how Free behaves.
type Kind int

const (
	// Owned buffers allocate and may grow their array.
	Owned Kind = iota
	// Wrapped buffers borrow a caller-provided array.
	Wrapped
	// Sliced buffers share another buffer's array.
	Sliced
	// Mapped buffers view a memory-mapped file region.
	Mapped
)

// Buffer is a cursor over a byte array. position is the read/write
// cursor, limit the valid-data boundary, capacity the array size.
type Buffer struct {
	array    []byte
	position int
	limit    int
	capacity int
	kind     Kind
	region   *mmap.Region
}

// Alloc creates an owned buffer of the given capacity, ready for writing.
func Alloc(capacity int) *Buffer {
	return &Buffer{
		array:    make([]byte, capacity),
		limit:    capacity,
		capacity: capacity,
		kind:     Owned,
	}
}

// Wrap borrows an existing array without copying.
func Wrap(array []byte) *Buffer {
	return &Buffer{
		array:    array,
		limit:    len(array),
		capacity: len(array),
		kind:     Wrapped,
	}
}

// Map opens a read-only memory-mapped view of a file range.
// length <= 0 maps to the end of the file.
func Map(path string, offset int64, length int) (*Buffer, error) {
	region, err := mmap.Open(path, offset, length)
	if err != nil {
		return nil, err
	}
	data := region.Bytes()
	return &Buffer{
		array:    data,
		limit:    len(data),
		capacity: len(data),
		kind:     Mapped,
		region:   region,
	}, nil
}

// Slice creates a non-owning view of length bytes starting at
// position+offset, sharing the backing array.
func (b *Buffer) Slice(offset, length int) (*Buffer, error) {
	if offset < 0 || length < 0 || b.position+offset+length > b.limit {
		return nil, errors.Newf(errors.ErrorTypeBounds,
			"slice offset %d length %d exceeds limit %d", offset, length, b.limit)
	}
	start := b.position + offset
	return &Buffer{
		array:    b.array[start : start+length : start+length],
		limit:    length,
		capacity: length,
		kind:     Sliced,
	}, nil
}

// Position returns the cursor.
func (b *Buffer) Position() int { return b.position }

// Limit returns the valid-data boundary.
func (b *Buffer) Limit() int { return b.limit }

// Capacity returns the backing array size.
func (b *Buffer) Capacity() int { return b.capacity }

// Bytes returns the window between position and limit without copying.
func (b *Buffer) Bytes() []byte { return b.array[b.position:b.limit] }

// Array returns the full backing array.
func (b *Buffer) Array() []byte { return b.array[:b.capacity] }

// Clear prepares the buffer for writing: limit=capacity, position=0.
func (b *Buffer) Clear() {
	b.limit = b.capacity
	b.position = 0
}

// Flip prepares the buffer for reading what was written:
// limit=position, position=0.
func (b *Buffer) Flip() {
	b.limit = b.position
	b.position = 0
}

// Skip advances the cursor by n and returns the new position.
func (b *Buffer) Skip(n int) int {
	b.position += n
	return b.position
}

// SetPosition moves the cursor.
func (b *Buffer) SetPosition(p int) { b.position = p }

// Remaining returns limit - position.
func (b *Buffer) Remaining() int {
	return b.limit - b.position
}

func (b *Buffer) checkPut(n int) error {
	if b.position+n > b.capacity {
		return errors.Newf(errors.ErrorTypeBounds,
			"put of %d bytes at position %d exceeds capacity %d", n, b.position, b.capacity)
	}
	return nil
}

func (b *Buffer) checkGet(n int) error {
	if b.position+n > b.capacity {
		return errors.Newf(errors.ErrorTypeBounds,
			"get of %d bytes at position %d exceeds capacity %d", n, b.position, b.capacity)
	}
	return nil
}

// PutBytes writes raw bytes at the cursor.
func (b *Buffer) PutBytes(p []byte) error {
	if err := b.checkPut(len(p)); err != nil {
		return err
	}
	copy(b.array[b.position:], p)
	b.position += len(p)
	return nil
}

// GetBytes returns n bytes at the cursor without copying.
func (b *Buffer) GetBytes(n int) ([]byte, error) {
	if err := b.checkGet(n); err != nil {
		return nil, err
	}
	p := b.array[b.position : b.position+n]
	b.position += n
	return p, nil
}

// PutI8 writes one byte.
func (b *Buffer) PutI8(v int8) error {
	if err := b.checkPut(1); err != nil {
		return err
	}
	b.array[b.position] = byte(v)
	b.position++
	return nil
}

// PutI16 writes a little-endian 16-bit integer.
func (b *Buffer) PutI16(v int16) error {
	if err := b.checkPut(2); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(b.array[b.position:], uint16(v))
	b.position += 2
	return nil
}

// PutI32 writes a little-endian 32-bit integer.
func (b *Buffer) PutI32(v int32) error {
	if err := b.checkPut(4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b.array[b.position:], uint32(v))
	b.position += 4
	return nil
}

// PutI64 writes a little-endian 64-bit integer.
func (b *Buffer) PutI64(v int64) error {
	if err := b.checkPut(8); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(b.array[b.position:], uint64(v))
	b.position += 8
	return nil
}

// PutF64 writes a little-endian IEEE-754 double.
func (b *Buffer) PutF64(v float64) error {
	if err := b.checkPut(8); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(b.array[b.position:], math.Float64bits(v))
	b.position += 8
	return nil
}

// PutF32 writes a little-endian IEEE-754 float.
func (b *Buffer) PutF32(v float32) error {
	if err := b.checkPut(4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b.array[b.position:], math.Float32bits(v))
	b.position += 4
	return nil
}

// GetI8 reads one byte.
func (b *Buffer) GetI8() (int8, error) {
	if err := b.checkGet(1); err != nil {
		return 0, err
	}
	v := int8(b.array[b.position])
	b.position++
	return v, nil
}

// GetI16 reads a little-endian 16-bit integer.
func (b *Buffer) GetI16() (int16, error) {
	if err := b.checkGet(2); err != nil {
		return 0, err
	}
	v := int16(binary.LittleEndian.Uint16(b.array[b.position:]))
	b.position += 2
	return v, nil
}

// GetI32 reads a little-endian 32-bit integer.
func (b *Buffer) GetI32() (int32, error) {
	if err := b.checkGet(4); err != nil {
		return 0, err
	}
	v := int32(binary.LittleEndian.Uint32(b.array[b.position:]))
	b.position += 4
	return v, nil
}

// GetI64 reads a little-endian 64-bit integer.
func (b *Buffer) GetI64() (int64, error) {
	if err := b.checkGet(8); err != nil {
		return 0, err
	}
	v := int64(binary.LittleEndian.Uint64(b.array[b.position:]))
	b.position += 8
	return v, nil
}

// GetF64 reads a little-endian IEEE-754 double.
func (b *Buffer) GetF64() (float64, error) {
	if err := b.checkGet(8); err != nil {
		return 0, err
	}
	v := math.Float64frombits(binary.LittleEndian.Uint64(b.array[b.position:]))
	b.position += 8
	return v, nil
}

// GetF32 reads a little-endian IEEE-754 float.
func (b *Buffer) GetF32() (float32, error) {
	if err := b.checkGet(4); err != nil {
		return 0, err
	}
	v := math.Float32frombits(binary.LittleEndian.Uint32(b.array[b.position:]))
	b.position += 4
	return v, nil
}

// Realloc grows an owned buffer to the given capacity. Position is
// preserved; limit tracks the new capacity.
func (b *Buffer) Realloc(capacity int) error {
	if b.kind != Owned {
		return errors.New(errors.ErrorTypeBounds, "realloc on non-owned buffer")
	}
	if capacity <= b.capacity {
		return nil
	}
	grown := make([]byte, capacity)
	copy(grown, b.array)
	b.array = grown
	b.capacity = capacity
	b.limit = capacity
	return nil
}

// Free releases buffer resources. Mapped buffers unmap their region;
// all other kinds rely on the garbage collector.
func (b *Buffer) Free() error {
	if b.kind == Mapped && b.region != nil {
		err := b.region.Close()
		b.region = nil
		b.array = nil
		return err
	}
	return nil
}
