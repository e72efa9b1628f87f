package variant

import (
	"encoding/binary"
	"math"
)

// FNV-1a with Murmur-style finalization. The byte-level layouts are
// fixed little-endian so hashes are stable across platforms.

const (
	fnvOffset32 = 2166136261
	fnvPrime32  = 16777619
	fnvOffset64 = 1469598103934665603
	fnvPrime64  = 1099511628211
)

// Fmix32 is the 32-bit avalanche finalizer.
func Fmix32(h uint32) uint32 {
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16
	return h
}

// Fmix64 is the 64-bit avalanche finalizer.
func Fmix64(k uint64) uint64 {
	k ^= k >> 33
	k *= 0xff51afd7ed558ccd
	k ^= k >> 33
	k *= 0xc4ceb9fe1a85ec53
	k ^= k >> 33
	return k
}

// Hash32Bytes hashes data with a seeded 32-bit FNV-1a core and a
// finalizer mixing in the length.
func Hash32Bytes(data []byte, seed uint32) uint32 {
	h := seed ^ fnvOffset32
	for _, b := range data {
		h ^= uint32(b)
		h *= fnvPrime32
	}
	return Fmix32(h ^ uint32(len(data)))
}

// Hash64Bytes is the 64-bit companion of Hash32Bytes.
func Hash64Bytes(data []byte, seed uint64) uint64 {
	h := seed ^ fnvOffset64
	for _, b := range data {
		h ^= uint64(b)
		h *= fnvPrime64
	}
	return Fmix64(h ^ uint64(len(data)))
}

// Hash32 hashes the variant. The type tag mixes in first so equal
// payloads of different types never collide trivially.
func (v *Variant) Hash32(seed uint32) uint32 {
	var tag [4]byte
	binary.LittleEndian.PutUint32(tag[:], uint32(v.typ))
	h := Hash32Bytes(tag[:], seed)

	switch v.typ {
	case Null, Zero:
		return Fmix32(h ^ 0xA5A5A5A5)
	case Int8, Uint8:
		return Hash32Bytes([]byte{byte(v.i)}, h)
	case Int16, Uint16:
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(v.i))
		return Hash32Bytes(b[:], h)
	case Int32, Uint32:
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(v.i))
		return Hash32Bytes(b[:], h)
	case Int64:
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], uint64(v.i))
		return Hash32Bytes(b[:], h)
	case Double:
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], canonF64(v.f))
		return Hash32Bytes(b[:], h)
	case Float:
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], canonF32(v.f))
		return Hash32Bytes(b[:], h)
	case String, Bytes, UUID, IPv6, Blob, Object:
		return Hash32Bytes(v.b, h)
	case Decimal:
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], decimalTag(v))
		h = Hash32Bytes(b[:], h)
		return Hash32Bytes(v.dec.Bytes(), h)
	case Date, Time:
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], uint64(v.i))
		return Hash32Bytes(b[:], h)
	}
	return Fmix32(h)
}

// Hash64 is the 64-bit companion of Hash32.
func (v *Variant) Hash64(seed uint64) uint64 {
	var tag [4]byte
	binary.LittleEndian.PutUint32(tag[:], uint32(v.typ))
	h := Hash64Bytes(tag[:], seed)

	switch v.typ {
	case Null, Zero:
		return Fmix64(h ^ 0xA5A5A5A5A5A5A5A5)
	case Int8, Uint8:
		return Hash64Bytes([]byte{byte(v.i)}, h)
	case Int16, Uint16:
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(v.i))
		return Hash64Bytes(b[:], h)
	case Int32, Uint32:
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(v.i))
		return Hash64Bytes(b[:], h)
	case Int64:
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], uint64(v.i))
		return Hash64Bytes(b[:], h)
	case Double:
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], canonF64(v.f))
		return Hash64Bytes(b[:], h)
	case Float:
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], canonF32(v.f))
		return Hash64Bytes(b[:], h)
	case String, Bytes, UUID, IPv6, Blob, Object:
		return Hash64Bytes(v.b, h)
	case Decimal:
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], decimalTag(v))
		h = Hash64Bytes(b[:], h)
		return Hash64Bytes(v.dec.Bytes(), h)
	case Date, Time:
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], uint64(v.i))
		return Hash64Bytes(b[:], h)
	}
	return Fmix64(h)
}

// canonF64 squashes -0.0 and canonicalizes NaN payloads before taking
// the bit pattern.
func canonF64(f float64) uint64 {
	if f == 0 {
		f = 0
	}
	if math.IsNaN(f) {
		f = math.NaN()
	}
	return math.Float64bits(f)
}

func canonF32(f float64) uint32 {
	fv := float32(f)
	if fv == 0 {
		fv = 0
	}
	if fv != fv {
		fv = float32(math.NaN())
	}
	return math.Float32bits(fv)
}

func decimalTag(v *Variant) uint32 {
	var sign uint32
	if v.dec.Negative() {
		sign = 1
	}
	return (sign | uint32(v.dec.Scale())<<8) ^ uint32(len(v.dec.Bytes()))
}
