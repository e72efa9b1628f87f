package row

import (
	"github.com/basaltdb/basalt/pkg/buffer"
	"github.com/basaltdb/basalt/pkg/decimal"
	"github.com/basaltdb/basalt/pkg/errors"
	"github.com/basaltdb/basalt/pkg/variant"
)

// BinaryFormatter encodes rows in the binary record layout: a u16
// column count, then per column a u16 type tag (0 for Null, no
// payload) followed by the fixed-width or length-prefixed payload.
// All integers are little-endian except the packed 3-byte date.
type BinaryFormatter struct {
	meta *Meta
}

// NewBinaryFormatter creates a binary formatter for the schema.
func NewBinaryFormatter(meta *Meta) (*BinaryFormatter, error) {
	if meta == nil || len(meta.Columns) == 0 {
		return nil, errors.New(errors.ErrorTypeConfig, "binary formatter requires a schema")
	}
	return &BinaryFormatter{meta: meta}, nil
}

// Encode serializes the row into out and flips it for reading.
func (f *BinaryFormatter) Encode(r *Row, out *buffer.Buffer) error {
	if r == nil || out == nil {
		return errors.New(errors.ErrorTypeInternal, "encode requires a row and buffer")
	}
	m := f.meta
	estimate := 2
	for i := range m.Columns {
		c := &m.Columns[i]
		estimate += 2
		if c.typ.IsVarLen() {
			estimate += 2 + c.Width
			if c.typ == variant.Decimal {
				estimate += 8
			}
		} else {
			estimate += c.typ.FixedWidth()
		}
	}
	out.Clear()
	ensure(out, estimate)

	if err := out.PutI16(int16(len(m.Columns))); err != nil {
		return err
	}
	for i := range m.Columns {
		if i >= r.Len() {
			break
		}
		c := &m.Columns[i]
		cell := &r.cells[i]
		if cell.IsNull() {
			if err := out.PutI16(int16(variant.Null)); err != nil {
				return err
			}
			continue
		}
		if err := out.PutI16(int16(c.typ)); err != nil {
			return err
		}
		var err error
		if c.typ.IsVarLen() {
			err = f.encodeVarLen(c, cell, out)
		} else {
			err = f.encodeFixed(c, cell, out)
		}
		if err != nil {
			return err
		}
	}
	out.Flip()
	return nil
}

func (f *BinaryFormatter) encodeVarLen(c *Column, cell *variant.Variant, out *buffer.Buffer) error {
	switch c.typ {
	case variant.String:
		var payload []byte
		if cell.Type() == variant.String {
			payload = cell.Payload()
		} else {
			payload = []byte(cell.StringValue())
		}
		n := len(payload)
		if c.Width > 0 && n > c.Width {
			n = c.Width
		}
		if err := out.PutI16(int16(n)); err != nil {
			return err
		}
		return out.PutBytes(payload[:n])

	case variant.Decimal:
		d, err := cell.ToDecimal()
		if err != nil {
			d = decimal.Zero(c.Precision)
		}
		b := d.UnscaledBytes()
		if err := out.PutI16(int16(len(b))); err != nil {
			return err
		}
		return out.PutBytes(b)

	default: // BYTES, BLOB, OBJECT
		payload := cell.Payload()
		n := len(payload)
		if c.Width > 0 && n > c.Width {
			n = c.Width
		}
		if err := out.PutI16(int16(n)); err != nil {
			return err
		}
		if n > 0 {
			return out.PutBytes(payload[:n])
		}
		return nil
	}
}

func (f *BinaryFormatter) encodeFixed(c *Column, cell *variant.Variant, out *buffer.Buffer) error {
	switch c.typ {
	case variant.Int8, variant.Uint8:
		n, _ := cell.Int64Value()
		return out.PutI8(int8(n))
	case variant.Int16, variant.Uint16:
		n, _ := cell.Int64Value()
		return out.PutI16(int16(n))
	case variant.Int32, variant.Uint32:
		n, _ := cell.Int64Value()
		return out.PutI32(int32(n))
	case variant.Int64:
		n, _ := cell.Int64Value()
		return out.PutI64(n)
	case variant.Double:
		v, _ := cell.Float64Value()
		return out.PutF64(v)
	case variant.Float:
		v, _ := cell.Float64Value()
		return out.PutF32(float32(v))
	case variant.Date:
		t, err := cell.EpochValue()
		if err != nil {
			t, _ = cell.Int64Value()
		}
		year, month, day := CivilFromDays(t / 86400)
		packed := uint32(year)<<9 | uint32(month)<<5 | uint32(day)&0x1F
		return putU24(out, packed)
	case variant.Time:
		t, err := cell.EpochValue()
		if err != nil {
			t, _ = cell.Int64Value()
		}
		return out.PutI64(t * 1000)
	case variant.UUID, variant.IPv6:
		p := cell.Payload()
		if len(p) >= 16 {
			return out.PutBytes(p[len(p)-16:])
		}
		var pad [16]byte
		copy(pad[16-len(p):], p)
		return out.PutBytes(pad[:])
	}
	return errors.Newf(errors.ErrorTypeMalformed, "no fixed-width encoding for %s", c.typ)
}

// Decode fills the row from the buffer's current position. Decoded
// string cells borrow the input buffer; copy the row before the
// buffer is recycled.
func (f *BinaryFormatter) Decode(in *buffer.Buffer, r *Row) error {
	if in == nil || r == nil {
		return errors.New(errors.ErrorTypeInternal, "decode requires a buffer and row")
	}
	m := f.meta
	// Optional row header: the exact encoder writes the column count
	// first. A header also means no legacy var-len padding follows.
	saved := in.Position()
	first, err := in.GetI16()
	if err != nil {
		return err
	}
	rowHeaderSeen := int(first) == len(m.Columns)
	if !rowHeaderSeen {
		in.SetPosition(saved)
	}

	for i := range m.Columns {
		if i >= r.Len() {
			break
		}
		tag, err := in.GetI16()
		if err != nil {
			return err
		}
		ctype := variant.Type(tag)
		c := &m.Columns[i]
		if ctype.IsVarLen() {
			if err := f.decodeVarLen(in, r, i, c, ctype, rowHeaderSeen); err != nil {
				return err
			}
			continue
		}
		if err := f.decodeFixed(in, r, i, ctype); err != nil {
			return err
		}
	}
	return nil
}

func (f *BinaryFormatter) decodeVarLen(in *buffer.Buffer, r *Row, i int, c *Column, ctype variant.Type, rowHeaderSeen bool) error {
	ln, err := in.GetI16()
	if err != nil {
		return err
	}
	n := 0
	if ln > 0 {
		n = int(ln)
	}
	var p []byte
	if n > 0 {
		if p, err = in.GetBytes(n); err != nil {
			return err
		}
	}
	// Legacy writers padded var-len payloads with zeros up to the
	// column width. Skip the pad only when the zero run is followed by
	// a plausible tag or row header.
	if !rowHeaderSeen && c.Width > n {
		f.maybeSkipPadding(in, i, c.Width-n)
	}
	cell := &r.cells[i]
	switch ctype {
	case variant.String:
		cell.SetStringRef(p)
	case variant.Decimal:
		scale := c.Precision
		if n <= 8 {
			cell.SetDecimal(decimal.FromUnscaledBytes(p, scale))
		} else if n <= 32 {
			cell.SetDecimal(decimal.FromTwosBytes(p, scale))
		} else {
			cell.SetDecimal(decimal.FromTwosBytes(p[:32], scale))
		}
	case variant.Bytes, variant.Blob, variant.Object:
		cell.SetBytes(p)
	default:
		cell.SetNull()
	}
	return nil
}

func (f *BinaryFormatter) maybeSkipPadding(in *buffer.Buffer, col, padLen int) {
	pos, lim := in.Position(), in.Limit()
	if pos+padLen > lim {
		return
	}
	arr := in.Array()
	for z := 0; z < padLen; z++ {
		if arr[pos+z] != 0 {
			return
		}
	}
	if pos+padLen+2 <= lim {
		after := variant.Type(uint16(arr[pos+padLen]) | uint16(arr[pos+padLen+1])<<8)
		if col+1 < len(f.meta.Columns) {
			expected := f.meta.Columns[col+1].typ
			if after != expected && after != variant.Null {
				return
			}
		} else if int(after) != len(f.meta.Columns) {
			return
		}
	}
	in.Skip(padLen)
}

func (f *BinaryFormatter) decodeFixed(in *buffer.Buffer, r *Row, i int, ctype variant.Type) error {
	cell := &r.cells[i]
	switch ctype {
	case variant.Int8:
		v, err := in.GetI8()
		if err != nil {
			return err
		}
		cell.SetInt8(v)
	case variant.Uint8:
		v, err := in.GetI8()
		if err != nil {
			return err
		}
		cell.SetUint8(uint8(v))
	case variant.Int16:
		v, err := in.GetI16()
		if err != nil {
			return err
		}
		cell.SetInt16(v)
	case variant.Uint16:
		v, err := in.GetI16()
		if err != nil {
			return err
		}
		cell.SetUint16(uint16(v))
	case variant.Int32:
		v, err := in.GetI32()
		if err != nil {
			return err
		}
		cell.SetInt32(v)
	case variant.Uint32:
		v, err := in.GetI32()
		if err != nil {
			return err
		}
		cell.SetUint32(uint32(v))
	case variant.Int64:
		v, err := in.GetI64()
		if err != nil {
			return err
		}
		cell.SetInt64(v)
	case variant.Double:
		v, err := in.GetF64()
		if err != nil {
			return err
		}
		cell.SetFloat64(v)
	case variant.Float:
		v, err := in.GetF32()
		if err != nil {
			return err
		}
		cell.SetFloat32(v)
	case variant.Date:
		packed, err := getU24(in)
		if err != nil {
			return err
		}
		year := int(packed >> 9)
		month := int(packed >> 5 & 0x0F)
		day := int(packed & 0x1F)
		var t int64
		if year >= 1900 && year <= 9999 && month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			t = daysFromCivil(year, month, day) * 86400
		} else {
			// legacy encoding: plain days since epoch
			t = int64(packed) * 86400
		}
		cell.SetDate(t)
	case variant.Time:
		ms, err := in.GetI64()
		if err != nil {
			return err
		}
		cell.SetTime(ms / 1000)
	case variant.UUID:
		p, err := in.GetBytes(16)
		if err != nil {
			return err
		}
		if err := cell.SetUUIDBytes(p); err != nil {
			return err
		}
	case variant.IPv6:
		p, err := in.GetBytes(16)
		if err != nil {
			return err
		}
		if err := cell.SetIPv6(p); err != nil {
			return err
		}
	default:
		if w := ctype.FixedWidth(); w > 0 {
			in.Skip(w)
		}
		cell.SetNull()
	}
	return nil
}

// putU24 writes a 24-bit value high byte first, the packed date
// layout shared with other readers of this format.
func putU24(b *buffer.Buffer, v uint32) error {
	if err := b.PutI8(int8(v >> 16)); err != nil {
		return err
	}
	if err := b.PutI8(int8(v >> 8)); err != nil {
		return err
	}
	return b.PutI8(int8(v))
}

func getU24(b *buffer.Buffer) (uint32, error) {
	b1, err := b.GetI8()
	if err != nil {
		return 0, err
	}
	b2, err := b.GetI8()
	if err != nil {
		return 0, err
	}
	b3, err := b.GetI8()
	if err != nil {
		return 0, err
	}
	return uint32(uint8(b1))<<16 | uint32(uint8(b2))<<8 | uint32(uint8(b3)), nil
}
