package decimal

import (
	"math/big"
	"strconv"
)

// The binary row codec carries decimals as the minimal little-endian
// two's-complement encoding of the unscaled integer value; the scale
// is recovered from the schema.

// Unscaled returns the signed unscaled integer value: the digit string
// read as an int64 (values beyond int64 wrap, matching the reference
// codec's 64-bit path).
func (d Decimal) Unscaled() int64 {
	var v int64
	for _, dg := range d.digits() {
		v = v*10 + int64(dg)
	}
	if d.sign {
		v = -v
	}
	return v
}

// UnscaledBytes encodes the unscaled value as minimal little-endian
// two's complement: redundant sign-extension bytes are stripped from
// the high end.
func (d Decimal) UnscaledBytes() []byte {
	v := d.Unscaled()
	out := make([]byte, 8)
	for i := 0; i < 8; i++ {
		out[i] = byte(v >> (8 * i))
	}
	n := 8
	for n > 1 {
		hi, next := out[n-1], out[n-2]
		if (hi == 0x00 && next&0x80 == 0) || (hi == 0xFF && next&0x80 != 0) {
			n--
			continue
		}
		break
	}
	return out[:n]
}

// FromUnscaledBytes decodes a minimal little-endian two's-complement
// unscaled value at the given scale.
func FromUnscaledBytes(b []byte, scale int) Decimal {
	if len(b) == 0 {
		return Zero(scale)
	}
	var v int64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | int64(b[i])
	}
	// sign-extend from the top input byte
	bits := uint(len(b) * 8)
	if bits < 64 && b[len(b)-1]&0x80 != 0 {
		v |= -1 << bits
	}
	return FromUnscaledInt64(v, scale)
}

// FromTwosBytes decodes a little-endian two's-complement unscaled
// value wider than 64 bits at the given scale.
func FromTwosBytes(b []byte, scale int) Decimal {
	if len(b) == 0 {
		return Zero(scale)
	}
	if len(b) <= 8 {
		return FromUnscaledBytes(b, scale)
	}
	neg := b[len(b)-1]&0x80 != 0
	be := make([]byte, len(b))
	for i, x := range b {
		be[len(b)-1-i] = x
	}
	v := new(big.Int).SetBytes(be)
	if neg {
		// undo two's complement: v - 2^(8n)
		mod := new(big.Int).Lsh(big.NewInt(1), uint(len(b)*8))
		v.Sub(v, mod)
	}
	digits := v.Text(10)
	if neg {
		digits = digits[1:]
	}
	if scale < 0 {
		scale = 0
	}
	for len(digits) <= scale {
		digits = "0" + digits
	}
	s := digits
	if scale > 0 {
		s = digits[:len(digits)-scale] + "." + digits[len(digits)-scale:]
	}
	if neg {
		s = "-" + s
	}
	return FromString(s, scale)
}

// FromUnscaledInt64 builds a decimal whose digit string is v with the
// decimal point scale digits from the right.
func FromUnscaledInt64(v int64, scale int) Decimal {
	if scale < 0 {
		scale = 0
	}
	neg := v < 0
	digits := strconv.FormatInt(v, 10)
	if neg {
		digits = digits[1:]
	}
	for len(digits) <= scale {
		digits = "0" + digits
	}
	var s string
	if scale > 0 {
		s = digits[:len(digits)-scale] + "." + digits[len(digits)-scale:]
	} else {
		s = digits
	}
	if neg {
		s = "-" + s
	}
	return FromString(s, scale)
}
