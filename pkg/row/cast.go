package row

import (
	"encoding/hex"
	"strconv"

	"github.com/basaltdb/basalt/pkg/decimal"
	"github.com/basaltdb/basalt/pkg/errors"
	"github.com/basaltdb/basalt/pkg/variant"
)

// Set stores v into column i, converting to the column's declared
// type. Values that fail to parse become Null; type pairs with no
// conversion copy the value through unchanged.
func (r *Row) Set(i int, v *variant.Variant) error {
	if i < 0 || i >= len(r.cells) {
		return errors.Newf(errors.ErrorTypeBounds, "column index %d out of range [0,%d)", i, len(r.cells))
	}
	if v == nil {
		return errors.New(errors.ErrorTypeInternal, "source variant is nil")
	}
	dst := &r.cells[i]
	target := r.meta.Columns[i].typ

	if v.IsNull() || target == v.Type() {
		dst.CopyFrom(v)
		return nil
	}

	switch target {
	case variant.String:
		switch v.Type() {
		case variant.Int8, variant.Uint8, variant.Int16, variant.Uint16,
			variant.Int32, variant.Uint32, variant.Int64:
			n, _ := v.Int64Value()
			dst.SetString(strconv.FormatInt(n, 10))
		case variant.Double, variant.Float:
			f, _ := v.Float64Value()
			dst.SetString(strconv.FormatFloat(f, 'g', 17, 64))
		default:
			dst.SetString("")
		}
		return nil

	case variant.Int8, variant.Uint8, variant.Int16, variant.Uint16,
		variant.Int32, variant.Uint32, variant.Int64:
		n, ok, empty := castToInt64(v)
		switch {
		case empty:
			dst.SetNull()
		case ok:
			setIntAs(dst, target, n)
		default:
			dst.SetNull()
		}
		return nil

	case variant.Double, variant.Float:
		switch v.Type() {
		case variant.String:
			if v.Length() == 0 {
				dst.SetNull()
				return nil
			}
			f, err := variant.ParseFloat64(v.Payload())
			if err != nil {
				dst.SetNull()
				return nil
			}
			setFloatAs(dst, target, f)
		case variant.Double, variant.Float:
			f, _ := v.Float64Value()
			setFloatAs(dst, target, f)
		case variant.Int8, variant.Uint8, variant.Int16, variant.Uint16,
			variant.Int32, variant.Uint32, variant.Int64, variant.Zero:
			n, _ := v.Int64Value()
			setFloatAs(dst, target, float64(n))
		default:
			dst.CopyFrom(v)
		}
		return nil

	case variant.Date, variant.Time:
		switch v.Type() {
		case variant.Date, variant.Time:
			t, _ := v.EpochValue()
			setEpochAs(dst, target, t)
		case variant.String:
			if v.Length() == 0 {
				dst.SetNull()
				return nil
			}
			t, err := ParseDateTime(string(v.Payload()))
			if err != nil {
				dst.SetNull()
				return nil
			}
			setEpochAs(dst, target, t)
		default:
			dst.CopyFrom(v)
		}
		return nil

	case variant.Bytes:
		if v.Type() == variant.String {
			if v.Length() == 0 {
				dst.SetNull()
				return nil
			}
			b, err := hex.DecodeString(string(v.Payload()))
			if err != nil {
				dst.SetNull()
				return nil
			}
			dst.SetBytes(b)
			return nil
		}
		dst.CopyFrom(v)
		return nil

	case variant.UUID, variant.IPv6:
		switch v.Type() {
		case variant.Bytes:
			if err := setFixed16(dst, target, v.Payload()); err != nil {
				dst.SetNull()
			}
			return nil
		case variant.String:
			b, err := hex.DecodeString(string(v.Payload()))
			if err != nil || len(b) != 16 {
				dst.SetNull()
				return nil
			}
			if err := setFixed16(dst, target, b); err != nil {
				dst.SetNull()
			}
			return nil
		}
		dst.CopyFrom(v)
		return nil

	case variant.Decimal:
		scale := r.meta.Columns[i].Precision
		switch v.Type() {
		case variant.String:
			if v.Length() == 0 {
				dst.SetNull()
				return nil
			}
			dst.SetDecimal(decimal.FromString(string(v.Payload()), scale))
		case variant.Double, variant.Float:
			f, _ := v.Float64Value()
			dst.SetDecimal(decimal.FromFloat64(f, scale))
		case variant.Int8, variant.Uint8, variant.Int16, variant.Uint16,
			variant.Int32, variant.Uint32, variant.Int64, variant.Zero:
			n, _ := v.Int64Value()
			dst.SetDecimal(decimal.FromString(strconv.FormatInt(n, 10), scale))
		default:
			dst.CopyFrom(v)
		}
		return nil
	}

	// BLOB, OBJECT and anything else: no conversion defined.
	dst.CopyFrom(v)
	return nil
}

// castToInt64 extracts an integer from a numeric or string variant.
// empty marks an empty string, which maps to Null.
func castToInt64(v *variant.Variant) (n int64, ok, empty bool) {
	switch v.Type() {
	case variant.String:
		if v.Length() == 0 {
			return 0, false, true
		}
		x, err := variant.ParseInt64(v.Payload())
		if err != nil {
			return 0, false, false
		}
		return x, true, false
	case variant.Double, variant.Float:
		f, _ := v.Float64Value()
		return int64(f), true, false
	case variant.Int8, variant.Uint8, variant.Int16, variant.Uint16,
		variant.Int32, variant.Uint32, variant.Int64, variant.Zero:
		x, _ := v.Int64Value()
		return x, true, false
	}
	return 0, false, false
}

// setIntAs narrows n to the target width with wraparound, matching
// integer conversion in C.
func setIntAs(dst *variant.Variant, target variant.Type, n int64) {
	switch target {
	case variant.Int8:
		dst.SetInt8(int8(n))
	case variant.Uint8:
		dst.SetUint8(uint8(n))
	case variant.Int16:
		dst.SetInt16(int16(n))
	case variant.Uint16:
		dst.SetUint16(uint16(n))
	case variant.Int32:
		dst.SetInt32(int32(n))
	case variant.Uint32:
		dst.SetUint32(uint32(n))
	default:
		dst.SetInt64(n)
	}
}

func setFloatAs(dst *variant.Variant, target variant.Type, f float64) {
	if target == variant.Float {
		dst.SetFloat32(float32(f))
		return
	}
	dst.SetFloat64(f)
}

func setEpochAs(dst *variant.Variant, target variant.Type, t int64) {
	if target == variant.Date {
		dst.SetDate(t)
		return
	}
	dst.SetTime(t)
}

func setFixed16(dst *variant.Variant, target variant.Type, b []byte) error {
	if target == variant.UUID {
		return dst.SetUUIDBytes(b)
	}
	return dst.SetIPv6(b)
}

// ParseDateTime parses "yyyy-MM-dd" or "yyyy-MM-dd HH:mm:ss" into
// epoch seconds (UTC). Years before 1900 are rejected.
func ParseDateTime(s string) (int64, error) {
	var year, mon, day, hh, mm, ss int
	switch {
	case len(s) == 10:
		if s[4] != '-' || s[7] != '-' {
			return 0, errors.Newf(errors.ErrorTypeMalformed, "invalid date %q", s)
		}
		var ok bool
		if year, ok = digits(s[0:4]); !ok {
			return 0, errors.Newf(errors.ErrorTypeMalformed, "invalid date %q", s)
		}
		if mon, ok = digits(s[5:7]); !ok {
			return 0, errors.Newf(errors.ErrorTypeMalformed, "invalid date %q", s)
		}
		if day, ok = digits(s[8:10]); !ok {
			return 0, errors.Newf(errors.ErrorTypeMalformed, "invalid date %q", s)
		}
	case len(s) >= 19:
		if s[4] != '-' || s[7] != '-' || s[10] != ' ' || s[13] != ':' || s[16] != ':' {
			return 0, errors.Newf(errors.ErrorTypeMalformed, "invalid datetime %q", s)
		}
		var ok bool
		if year, ok = digits(s[0:4]); !ok {
			return 0, errors.Newf(errors.ErrorTypeMalformed, "invalid datetime %q", s)
		}
		if mon, ok = digits(s[5:7]); !ok {
			return 0, errors.Newf(errors.ErrorTypeMalformed, "invalid datetime %q", s)
		}
		if day, ok = digits(s[8:10]); !ok {
			return 0, errors.Newf(errors.ErrorTypeMalformed, "invalid datetime %q", s)
		}
		if hh, ok = digits(s[11:13]); !ok {
			return 0, errors.Newf(errors.ErrorTypeMalformed, "invalid datetime %q", s)
		}
		if mm, ok = digits(s[14:16]); !ok {
			return 0, errors.Newf(errors.ErrorTypeMalformed, "invalid datetime %q", s)
		}
		if ss, ok = digits(s[17:19]); !ok {
			return 0, errors.Newf(errors.ErrorTypeMalformed, "invalid datetime %q", s)
		}
	default:
		return 0, errors.Newf(errors.ErrorTypeMalformed, "invalid datetime %q", s)
	}
	if year < 1900 || mon < 1 || mon > 12 || day < 1 || day > 31 {
		return 0, errors.Newf(errors.ErrorTypeMalformed, "datetime out of range %q", s)
	}
	days := daysFromCivil(year, mon, day)
	return days*86400 + int64(hh)*3600 + int64(mm)*60 + int64(ss), nil
}

func digits(s string) (int, bool) {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

// daysFromCivil converts a civil date to days since the Unix epoch.
func daysFromCivil(y, m, d int) int64 {
	if m <= 2 {
		y--
	}
	var era int
	if y >= 0 {
		era = y / 400
	} else {
		era = (y - 399) / 400
	}
	yoe := y - era*400
	var adj int
	if m > 2 {
		adj = -3
	} else {
		adj = 9
	}
	doy := (153*(m+adj)+2)/5 + d - 1
	doe := yoe*365 + yoe/4 - yoe/100 + doy
	return int64(era)*146097 + int64(doe) - 719468
}

// CivilFromDays converts days since the Unix epoch back to a civil
// Y/M/D date.
func CivilFromDays(days int64) (year, month, day int) {
	z := days + 719468
	var era int64
	if z >= 0 {
		era = z / 146097
	} else {
		era = (z - 146096) / 146097
	}
	doe := z - era*146097
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365
	y := yoe + era*400
	doy := doe - (365*yoe + yoe/4 - yoe/100)
	mp := (5*doy + 2) / 153
	d := doy - (153*mp+2)/5 + 1
	var m int64
	if mp < 10 {
		m = mp + 3
	} else {
		m = mp - 9
	}
	if m <= 2 {
		y++
	}
	return int(y), int(m), int(d)
}

func isNilToken(s string, m *Meta) bool {
	if s == "" {
		return true
	}
	if m != nil && m.NilToken != "" && s == m.NilToken {
		return true
	}
	switch s {
	case `\N`, "NULL", "null", "Null":
		return true
	}
	return false
}
