// Package decimal implements fixed-point arbitrary-precision numerals
// stored as packed BCD. Digits are most-significant-nibble first; an
// odd digit count left-pads a zero nibble so the encoding is always a
// whole number of bytes, clamped at 16 bytes (32 digits). Arithmetic
// is exact digit-string schoolbook work with truncation, never
// rounding, so the byte layout stays compatible across
// implementations of the same format.
package decimal

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/basaltdb/basalt/pkg/errors"
)

// MaxBytes is the BCD payload limit: 16 bytes = 32 digits.
const MaxBytes = 16

// Decimal is a value type: sign, scale (fractional digit count) and
// packed BCD magnitude.
type Decimal struct {
	sign   bool
	scale  uint8
	length uint8
	data   [MaxBytes]byte
}

// Zero returns the zero decimal at the given scale.
func Zero(scale int) Decimal {
	if scale < 0 {
		scale = 0
	}
	return Decimal{scale: uint8(scale)}
}

// Negative reports whether the value carries a negative sign.
func (d Decimal) Negative() bool { return d.sign }

// Scale returns the fractional digit count.
func (d Decimal) Scale() int { return int(d.scale) }

// Bytes returns the packed BCD payload.
func (d Decimal) Bytes() []byte { return d.data[:d.length] }

// IsZero reports whether every stored digit is zero.
func (d Decimal) IsZero() bool {
	for i := 0; i < int(d.length); i++ {
		if d.data[i] != 0 {
			return false
		}
	}
	return true
}

// FromString parses an optional sign, a digit run and at most one
// decimal point, then fixes the value to exactly scale fractional
// digits: missing fraction digits are zero-padded, excess digits are
// truncated. Leading zeros are stripped down to scale+1 digits.
// Digits beyond 32 are silently dropped from the high end.
func FromString(s string, scale int) Decimal {
	s = strings.TrimLeft(s, " \t\n\r")
	neg := false
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	digits := make([]byte, 0, 128)
	dot := -1
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
			if len(digits) < 128 {
				digits = append(digits, c-'0')
			}
		case c == '.' && dot < 0:
			dot = len(digits)
		default:
			i = len(s)
		}
	}
	if len(digits) == 0 {
		return Decimal{}
	}

	frac := 0
	if dot >= 0 {
		frac = len(digits) - dot
	}
	target := scale
	if target < 0 {
		target = 0
	}
	keep := len(digits)
	if frac < target {
		for i := frac; i < target && len(digits) < 128; i++ {
			digits = append(digits, 0)
		}
		keep = len(digits)
	} else if frac > target {
		keep = len(digits) - (frac - target)
	}
	if keep <= 0 {
		return Decimal{}
	}

	// Strip leading zeros but keep at least target+1 digits.
	lead := 0
	for lead < keep-1 && digits[lead] == 0 && keep-lead > target+1 {
		lead++
	}
	used := keep - lead
	if used < 1 {
		used = 1
	}
	if used > 2*MaxBytes {
		used = 2 * MaxBytes
	}

	return pack(digits[lead:lead+used], neg, target)
}

// pack encodes decimal digits (values 0-9, MSD first) as BCD.
func pack(digits []byte, neg bool, scale int) Decimal {
	d := Decimal{sign: neg, scale: uint8(scale)}
	total := len(digits)
	pad := total & 1 // left-pad a zero nibble for odd digit counts
	nbytes := (total + pad) / 2
	if nbytes > MaxBytes {
		nbytes = MaxBytes
	}
	src := 0
	for nib, bi := 0, 0; nib < total+pad && bi < nbytes; nib++ {
		var val byte
		if pad == 1 && nib == 0 {
			val = 0
		} else {
			val = digits[src] & 0x0F
			src++
		}
		if nib&1 == 0 {
			d.data[bi] = val << 4
		} else {
			d.data[bi] |= val
			bi++
		}
	}
	d.length = uint8(nbytes)
	return d
}

// digits unpacks the BCD payload into one decimal digit per byte.
func (d Decimal) digits() []byte {
	out := make([]byte, 0, int(d.length)*2)
	for i := 0; i < int(d.length); i++ {
		out = append(out, d.data[i]>>4, d.data[i]&0x0F)
	}
	return out
}

// String renders the value with the decimal point placed scale digits
// from the right. Leading zeros are trimmed; an empty integer part
// renders as "0".
func (d Decimal) String() string {
	arr := d.digits()
	if len(arr) == 0 {
		arr = []byte{0}
	}
	start := 0
	for start < len(arr)-1 && arr[start] == 0 {
		start++
	}
	scale := int(d.scale)

	var sb strings.Builder
	if d.sign {
		sb.WriteByte('-')
	}
	intDigits := (len(arr) - start) - scale
	if intDigits <= 0 {
		sb.WriteByte('0')
	} else {
		for i := 0; i < intDigits; i++ {
			sb.WriteByte('0' + arr[start+i])
		}
	}
	if scale > 0 {
		sb.WriteByte('.')
		fracStart := start
		if intDigits > 0 {
			fracStart += intDigits
		}
		for z := 0; z < -intDigits; z++ {
			sb.WriteByte('0')
		}
		for i := fracStart; i < len(arr); i++ {
			sb.WriteByte('0' + arr[i])
		}
	}
	return sb.String()
}

// FromInt64 returns v as a scale-0 decimal.
func FromInt64(v int64) Decimal {
	return FromString(strconv.FormatInt(v, 10), 0)
}

// FromFloat64 renders v at the given scale and parses the result.
func FromFloat64(v float64, scale int) Decimal {
	if scale < 0 {
		scale = 0
	}
	return FromString(fmt.Sprintf("%.*f", scale, v), scale)
}

// Float64 converts the decimal to the nearest double.
func (d Decimal) Float64() (float64, error) {
	v, err := strconv.ParseFloat(d.String(), 64)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeCast, "decimal to float64")
	}
	return v, nil
}

// Negate flips the sign. Zero stays unsigned.
func (d Decimal) Negate() Decimal {
	if d.IsZero() {
		d.sign = false
		return d
	}
	d.sign = !d.sign
	return d
}

// Plus adds two decimals and truncates the exact result to scale.
func (d Decimal) Plus(other Decimal, scale int) Decimal {
	s := scale
	if s < 0 {
		s = 0
	}
	aDigits, aNeg := normalize(d, s)
	bDigits, bNeg := normalize(other, s)

	var sum []byte
	var neg bool
	if aNeg == bNeg {
		neg = aNeg
		sum = addAbs(aDigits, bDigits)
	} else {
		switch cmpAbs(aDigits, bDigits) {
		case 0:
			sum, neg = []byte{'0'}, false // exact cancellation is unsigned
		case 1:
			neg = aNeg
			sum = subAbs(aDigits, bDigits)
		default:
			neg = bNeg
			sum = subAbs(bDigits, aDigits)
		}
	}
	return fromScaledDigits(sum, neg, s)
}

// Divide computes d/other truncated to scale. Division by the zero
// decimal fails.
func (d Decimal) Divide(other Decimal, scale int) (Decimal, error) {
	s := scale
	if s < 0 {
		s = 0
	}

	nDigits := stripDot(d.String())
	dDigits := stripDot(other.String())
	if allZero(nDigits) {
		return Zero(s), nil
	}
	if allZero(dDigits) {
		return Decimal{}, errors.New(errors.ErrorTypeDivideByZero, "decimal division by zero")
	}

	// Shift so integer division of the scaled operands yields a
	// quotient carrying exactly s fractional digits.
	k := s + other.Scale() - d.Scale()
	num := append([]byte(nil), nDigits...)
	den := trimLeadingZeros(append([]byte(nil), dDigits...))
	if k > 0 {
		for i := 0; i < k; i++ {
			num = append(num, '0')
		}
	} else if k < 0 {
		for i := 0; i < -k; i++ {
			den = append(den, '0')
		}
	}

	// Schoolbook long division, one quotient digit per numerator digit.
	rem := make([]byte, 0, len(den)+1)
	quot := make([]byte, 0, len(num))
	for i := 0; i < len(num); i++ {
		if len(rem) == 1 && rem[0] == '0' {
			rem = rem[:0]
		}
		rem = append(rem, num[i])
		rem = trimLeadingZeros(rem)

		qd := byte(0)
		if cmpAbs(rem, den) >= 0 {
			for q := byte(9); q >= 1; q-- {
				prod := mulSmall(den, int(q))
				if cmpAbs(prod, rem) <= 0 {
					qd = q
					rem = subAbs(rem, prod)
					break
				}
			}
		}
		quot = append(quot, '0'+qd)
	}
	quot = trimLeadingZeros(quot)

	neg := d.sign != other.sign
	if allZero(nDigits) {
		neg = false
	}
	return fromScaledDigits(quot, neg, s), nil
}

// Compare orders two decimals numerically: -1, 0 or 1.
func (d Decimal) Compare(other Decimal) int {
	az, bz := d.IsZero(), other.IsZero()
	if az && bz {
		return 0
	}
	if d.sign != other.sign {
		if d.sign {
			return -1
		}
		return 1
	}
	s := d.Scale()
	if other.Scale() > s {
		s = other.Scale()
	}
	aDigits, _ := normalize(d, s)
	bDigits, _ := normalize(other, s)
	c := cmpAbs(aDigits, bDigits)
	if d.sign {
		c = -c
	}
	return c
}

// normalize renders d at exactly scale s and returns its bare digit
// string (no sign, no dot) plus the sign.
func normalize(d Decimal, s int) ([]byte, bool) {
	str := d.String()
	neg := false
	if strings.HasPrefix(str, "-") {
		neg = true
		str = str[1:]
	}
	intPart, fracPart := str, ""
	if i := strings.IndexByte(str, '.'); i >= 0 {
		intPart, fracPart = str[:i], str[i+1:]
	}
	intPart = strings.TrimLeft(intPart, "0")
	if intPart == "" {
		intPart = "0"
	}
	if len(fracPart) > s {
		fracPart = fracPart[:s]
	}
	for len(fracPart) < s {
		fracPart += "0"
	}
	return []byte(intPart + fracPart), neg
}

// fromScaledDigits builds a decimal from a bare digit string that
// already carries s fractional digits.
func fromScaledDigits(digits []byte, neg bool, s int) Decimal {
	var sb strings.Builder
	if neg && !allZero(digits) {
		sb.WriteByte('-')
	}
	if s == 0 {
		sb.Write(digits)
	} else if len(digits) <= s {
		sb.WriteString("0.")
		for i := len(digits); i < s; i++ {
			sb.WriteByte('0')
		}
		sb.Write(digits)
	} else {
		intd := len(digits) - s
		sb.Write(digits[:intd])
		sb.WriteByte('.')
		sb.Write(digits[intd:])
	}
	return FromString(sb.String(), s)
}

func stripDot(s string) []byte {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '.' || c == '-' || c == '+' {
			continue
		}
		if c < '0' || c > '9' {
			break
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		out = append(out, '0')
	}
	return out
}

func allZero(digits []byte) bool {
	for _, c := range digits {
		if c != '0' {
			return false
		}
	}
	return true
}

func trimLeadingZeros(digits []byte) []byte {
	z := 0
	for z < len(digits)-1 && digits[z] == '0' {
		z++
	}
	return digits[z:]
}

// cmpAbs compares two bare digit strings by magnitude.
func cmpAbs(a, b []byte) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// addAbs adds two bare digit strings.
func addAbs(a, b []byte) []byte {
	ia, ib := len(a)-1, len(b)-1
	carry := 0
	out := make([]byte, 0, len(a)+1)
	for ia >= 0 || ib >= 0 || carry > 0 {
		sum := carry
		if ia >= 0 {
			sum += int(a[ia] - '0')
			ia--
		}
		if ib >= 0 {
			sum += int(b[ib] - '0')
			ib--
		}
		out = append(out, byte('0'+sum%10))
		carry = sum / 10
	}
	reverse(out)
	return out
}

// subAbs computes a-b assuming |a| >= |b|.
func subAbs(a, b []byte) []byte {
	ia, ib := len(a)-1, len(b)-1
	borrow := 0
	out := make([]byte, 0, len(a))
	for ia >= 0 {
		da := int(a[ia] - '0')
		ia--
		db := 0
		if ib >= 0 {
			db = int(b[ib] - '0')
			ib--
		}
		diff := da - borrow - db
		if diff < 0 {
			diff += 10
			borrow = 1
		} else {
			borrow = 0
		}
		out = append(out, byte('0'+diff))
	}
	// out is reversed; strip what will become leading zeros
	for len(out) > 1 && out[len(out)-1] == '0' {
		out = out[:len(out)-1]
	}
	reverse(out)
	return out
}

// mulSmall multiplies a bare digit string by a single digit.
func mulSmall(a []byte, m int) []byte {
	if m <= 0 || len(a) == 0 {
		return []byte{'0'}
	}
	carry := 0
	out := make([]byte, 0, len(a)+1)
	for i := len(a) - 1; i >= 0; i-- {
		v := int(a[i]-'0')*m + carry
		out = append(out, byte('0'+v%10))
		carry = v / 10
	}
	for carry > 0 {
		out = append(out, byte('0'+carry%10))
		carry /= 10
	}
	reverse(out)
	return trimLeadingZeros(out)
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
