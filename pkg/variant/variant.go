package variant

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/basaltdb/basalt/pkg/decimal"
	"github.com/basaltdb/basalt/pkg/errors"
	"github.com/basaltdb/basalt/pkg/pool"
)

// Ownership says how a variable-length payload is released.
type Ownership uint8

const (
	// Borrowed payloads are never released by the variant.
	Borrowed Ownership = iota
	// OwnedHeap payloads are left for the garbage collector.
	OwnedHeap
	// OwnedPool payloads return to the shared bytes pool on release.
	OwnedPool
)

// NilString is the textual rendering of a Null variant.
const NilString = `\N`

// Variant holds one dynamically-typed value. Integers, dates and
// times share the i field (dates/times as epoch seconds, UTC);
// doubles and floats use f; decimals use dec; variable-length types
// use b with an ownership tag.
type Variant struct {
	typ   Type
	owned Ownership
	i     int64
	f     float64
	dec   decimal.Decimal
	b     []byte
}

// Type returns the runtime type tag.
func (v *Variant) Type() Type { return v.typ }

// IsNull reports whether the variant holds Null.
func (v *Variant) IsNull() bool { return v == nil || v.typ == Null }

// Ownership returns the payload ownership tag.
func (v *Variant) Ownership() Ownership { return v.owned }

// release returns any owned payload and detaches it. Idempotent on
// non-owning variants.
func (v *Variant) release() {
	if v.owned == OwnedPool && v.b != nil {
		pool.Bytes.Put(v.b)
	}
	v.b = nil
	v.owned = Borrowed
}

// SetNull releases any owned payload and resets to Null.
func (v *Variant) SetNull() {
	v.release()
	v.typ = Null
	v.i = 0
	v.f = 0
	v.dec = decimal.Decimal{}
}

// SetZero installs the ZERO marker value.
func (v *Variant) SetZero() {
	v.release()
	v.typ = Zero
	v.i = 0
}

// SetInt8 installs an INT8 value.
func (v *Variant) SetInt8(val int8) { v.release(); v.typ = Int8; v.i = int64(val) }

// SetUint8 installs a UINT8 value.
func (v *Variant) SetUint8(val uint8) { v.release(); v.typ = Uint8; v.i = int64(val) }

// SetInt16 installs an INT16 value.
func (v *Variant) SetInt16(val int16) { v.release(); v.typ = Int16; v.i = int64(val) }

// SetUint16 installs a UINT16 value.
func (v *Variant) SetUint16(val uint16) { v.release(); v.typ = Uint16; v.i = int64(val) }

// SetInt32 installs an INT32 value.
func (v *Variant) SetInt32(val int32) { v.release(); v.typ = Int32; v.i = int64(val) }

// SetUint32 installs a UINT32 value.
func (v *Variant) SetUint32(val uint32) { v.release(); v.typ = Uint32; v.i = int64(val) }

// SetInt64 installs an INT64 value.
func (v *Variant) SetInt64(val int64) { v.release(); v.typ = Int64; v.i = val }

// SetFloat64 installs a DOUBLE value.
func (v *Variant) SetFloat64(val float64) { v.release(); v.typ = Double; v.f = val }

// SetFloat32 installs a FLOAT value.
func (v *Variant) SetFloat32(val float32) { v.release(); v.typ = Float; v.f = float64(val) }

// SetDate installs a DATE value as epoch seconds (UTC midnight).
func (v *Variant) SetDate(epochSec int64) { v.release(); v.typ = Date; v.i = epochSec }

// SetTime installs a TIME value as epoch seconds.
func (v *Variant) SetTime(epochSec int64) { v.release(); v.typ = Time; v.i = epochSec }

// SetDecimal installs a DECIMAL value.
func (v *Variant) SetDecimal(d decimal.Decimal) {
	v.release()
	v.typ = Decimal
	v.dec = d
}

// SetString copies s into a pool-owned payload.
func (v *Variant) SetString(s string) {
	v.release()
	v.typ = String
	b := pool.Bytes.Get(len(s))
	copy(b, s)
	v.b = b
	v.owned = OwnedPool
}

// SetStringRef installs a borrowed reference to b without copying.
// The caller must guarantee b outlives the variant.
func (v *Variant) SetStringRef(b []byte) {
	v.release()
	v.typ = String
	v.b = b
	v.owned = Borrowed
}

// SetBytes copies data into a pool-owned BYTES payload.
func (v *Variant) SetBytes(data []byte) {
	v.release()
	v.typ = Bytes
	b := pool.Bytes.Get(len(data))
	copy(b, data)
	v.b = b
	v.owned = OwnedPool
}

// SetUUID installs a UUID value.
func (v *Variant) SetUUID(u uuid.UUID) {
	v.release()
	v.typ = UUID
	b := pool.Bytes.Get(16)
	copy(b, u[:])
	v.b = b
	v.owned = OwnedPool
}

// SetUUIDBytes installs a UUID from raw bytes; exactly 16 are required.
func (v *Variant) SetUUIDBytes(data []byte) error {
	if len(data) != 16 {
		return errors.Newf(errors.ErrorTypeMalformed, "uuid requires 16 bytes, got %d", len(data))
	}
	v.release()
	v.typ = UUID
	b := pool.Bytes.Get(16)
	copy(b, data)
	v.b = b
	v.owned = OwnedPool
	return nil
}

// SetIPv6 installs an IPV6 address; exactly 16 bytes are required.
func (v *Variant) SetIPv6(data []byte) error {
	if len(data) != 16 {
		return errors.Newf(errors.ErrorTypeMalformed, "ipv6 requires 16 bytes, got %d", len(data))
	}
	v.release()
	v.typ = IPv6
	b := pool.Bytes.Get(16)
	copy(b, data)
	v.b = b
	v.owned = OwnedPool
	return nil
}

// CopyFrom releases the destination payload and installs an owned
// copy of src; copies never share buffers regardless of src ownership.
func (v *Variant) CopyFrom(src *Variant) {
	v.release()
	v.typ = src.typ
	v.i = src.i
	v.f = src.f
	v.dec = src.dec
	switch src.typ {
	case String, Bytes, UUID, IPv6, Blob, Object:
		if len(src.b) == 0 {
			v.b = nil
			v.owned = Borrowed
			return
		}
		b := pool.Bytes.Get(len(src.b))
		copy(b, src.b)
		v.b = b
		v.owned = OwnedPool
	}
}

// Length returns the payload length for variable-length types, 0
// otherwise.
func (v *Variant) Length() int {
	return len(v.b)
}

// Payload returns the raw variable-length payload without copying.
func (v *Variant) Payload() []byte { return v.b }

// Int64Value converts any numeric, ZERO, or numeric-string variant to
// int64, truncating floats.
func (v *Variant) Int64Value() (int64, error) {
	switch v.typ {
	case Int8, Uint8, Int16, Uint16, Int32, Uint32, Int64:
		return v.i, nil
	case Double, Float:
		return int64(v.f), nil
	case Zero:
		return 0, nil
	case String:
		n, err := ParseInt64(v.b)
		if err != nil {
			return 0, errors.Newf(errors.ErrorTypeCast, "invalid numeric string %q", v.b)
		}
		return n, nil
	}
	return 0, errors.Newf(errors.ErrorTypeCast, "type mismatch: expected numeric, got %s", v.typ)
}

// Float64Value converts any numeric, ZERO, or numeric-string variant
// to float64.
func (v *Variant) Float64Value() (float64, error) {
	switch v.typ {
	case Double, Float:
		return v.f, nil
	case Int8, Uint8, Int16, Uint16, Int32, Uint32, Int64:
		return float64(v.i), nil
	case Zero:
		return 0, nil
	case String:
		f, err := ParseFloat64(v.b)
		if err != nil {
			return 0, errors.Newf(errors.ErrorTypeCast, "invalid numeric string %q", v.b)
		}
		return f, nil
	}
	return 0, errors.Newf(errors.ErrorTypeCast, "type mismatch: expected numeric, got %s", v.typ)
}

// DecimalValue returns the DECIMAL payload.
func (v *Variant) DecimalValue() (decimal.Decimal, error) {
	if v.typ != Decimal {
		return decimal.Decimal{}, errors.Newf(errors.ErrorTypeCast, "type mismatch: expected DECIMAL, got %s", v.typ)
	}
	return v.dec, nil
}

// BytesValue returns the BYTES payload.
func (v *Variant) BytesValue() ([]byte, error) {
	if v.typ != Bytes {
		return nil, errors.Newf(errors.ErrorTypeCast, "type mismatch: expected BYTES, got %s", v.typ)
	}
	return v.b, nil
}

// UUIDValue returns the UUID payload.
func (v *Variant) UUIDValue() (uuid.UUID, error) {
	if v.typ != UUID || len(v.b) != 16 {
		return uuid.UUID{}, errors.Newf(errors.ErrorTypeCast, "type mismatch: expected UUID, got %s", v.typ)
	}
	var u uuid.UUID
	copy(u[:], v.b)
	return u, nil
}

// EpochValue returns the DATE or TIME payload as epoch seconds.
func (v *Variant) EpochValue() (int64, error) {
	if v.typ != Date && v.typ != Time {
		return 0, errors.Newf(errors.ErrorTypeCast, "type mismatch: expected DATE/TIME, got %s", v.typ)
	}
	return v.i, nil
}

// StringValue renders the value as its plain string form: strings
// verbatim, numerics in decimal notation, DATE/TIME as epoch seconds.
// Returns "" for types with no string view.
func (v *Variant) StringValue() string {
	switch v.typ {
	case String:
		return string(v.b)
	case Decimal:
		return v.dec.String()
	case Int8, Uint8, Int16, Uint16, Int32, Uint32, Int64:
		return strconv.FormatInt(v.i, 10)
	case Double, Float:
		return strconv.FormatFloat(v.f, 'g', 17, 64)
	case Zero:
		return "0"
	case Date, Time:
		return strconv.FormatInt(v.i, 10)
	}
	return ""
}

// String renders a human-readable form: Null as \N, BYTES as a short
// hex preview, dates and times in civil notation.
func (v *Variant) String() string {
	switch v.typ {
	case Null:
		return NilString
	case String:
		return string(v.b)
	case Bytes, Blob, Object:
		return hexPreview(v.b)
	case Int8, Uint8, Int16, Uint16, Int32, Uint32, Int64:
		return strconv.FormatInt(v.i, 10)
	case Double, Float:
		return strconv.FormatFloat(v.f, 'g', 17, 64)
	case Decimal:
		return v.dec.String()
	case Date:
		return time.Unix(v.i, 0).UTC().Format("2006-01-02")
	case Time:
		return time.Unix(v.i, 0).UTC().Format("2006-01-02 15:04:05") + ".0"
	case UUID:
		if len(v.b) == 16 {
			var u uuid.UUID
			copy(u[:], v.b)
			return u.String()
		}
		return NilString
	case Zero:
		return "0"
	}
	return NilString
}

func hexPreview(b []byte) string {
	if b == nil {
		return NilString
	}
	const maxPreview = 16
	var sb strings.Builder
	sb.WriteString("<HEX ")
	show := len(b)
	if show > maxPreview {
		show = maxPreview
	}
	const hexdigits = "0123456789ABCDEF"
	for i := 0; i < show; i++ {
		sb.WriteByte(hexdigits[b[i]>>4])
		sb.WriteByte(hexdigits[b[i]&0x0F])
	}
	if len(b) > show {
		sb.WriteString("...")
	}
	fmt.Fprintf(&sb, " (len=%d)>", len(b))
	return sb.String()
}

// ToDecimal converts numeric, decimal and numeric-string variants to
// a Decimal. Integers convert at scale 0; doubles keep their rendered
// fraction digits unless the rendering needed exponent notation, in
// which case a fixed scale of 6 applies.
func (v *Variant) ToDecimal() (decimal.Decimal, error) {
	switch v.typ {
	case Decimal:
		return v.dec, nil
	case Zero:
		return decimal.FromInt64(0), nil
	case Int8, Uint8, Int16, Uint16, Int32, Uint32, Int64:
		return decimal.FromInt64(v.i), nil
	case Double, Float:
		return floatToDecimal(v.f), nil
	case String:
		s := string(v.b)
		if !strings.ContainsAny(s, "eE") {
			scale := 0
			if i := strings.IndexByte(s, '.'); i >= 0 {
				scale = len(s) - i - 1
			}
			return decimal.FromString(s, scale), nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return decimal.Decimal{}, errors.Newf(errors.ErrorTypeCast, "invalid numeric string %q", s)
		}
		return decimal.FromFloat64(f, 6), nil
	}
	return decimal.Decimal{}, errors.Newf(errors.ErrorTypeCast, "type mismatch: expected numeric/decimal/string, got %s", v.typ)
}

func floatToDecimal(f float64) decimal.Decimal {
	s := strconv.FormatFloat(f, 'g', 17, 64)
	if strings.ContainsAny(s, "eE") {
		return decimal.FromFloat64(f, 6)
	}
	scale := 0
	if i := strings.IndexByte(s, '.'); i >= 0 {
		scale = len(s) - i - 1
	}
	return decimal.FromString(s, scale)
}
