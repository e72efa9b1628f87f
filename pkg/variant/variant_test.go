package variant

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basaltdb/basalt/pkg/decimal"
)

func TestSetAndGetIntegers(t *testing.T) {
	var v Variant
	v.SetInt32(42)
	assert.Equal(t, Int32, v.Type())
	n, err := v.Int64Value()
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	v.SetInt8(-5)
	assert.Equal(t, Int8, v.Type())
	n, err = v.Int64Value()
	require.NoError(t, err)
	assert.Equal(t, int64(-5), n)

	v.SetUint16(65535)
	n, err = v.Int64Value()
	require.NoError(t, err)
	assert.Equal(t, int64(65535), n)
}

func TestNullAndZero(t *testing.T) {
	var v Variant
	assert.True(t, v.IsNull())

	v.SetZero()
	assert.False(t, v.IsNull())
	n, err := v.Int64Value()
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	f, err := v.Float64Value()
	require.NoError(t, err)
	assert.Equal(t, 0.0, f)

	v.SetNull()
	assert.True(t, v.IsNull())
	assert.Equal(t, `\N`, v.String())
}

func TestStringOwnershipAndRelease(t *testing.T) {
	var v Variant
	v.SetString("hello")
	assert.Equal(t, String, v.Type())
	assert.Equal(t, OwnedPool, v.Ownership())
	assert.Equal(t, "hello", v.StringValue())

	buf := []byte("borrowed")
	v.SetStringRef(buf)
	assert.Equal(t, Borrowed, v.Ownership())
	assert.Equal(t, "borrowed", v.StringValue())

	// Setting a new value over a borrowed payload must not touch it.
	v.SetInt64(1)
	assert.Equal(t, "borrowed", string(buf))
}

func TestNumericStringConversions(t *testing.T) {
	var v Variant
	v.SetString("  -1234 ")
	n, err := v.Int64Value()
	require.NoError(t, err)
	assert.Equal(t, int64(-1234), n)

	v.SetString("3.5")
	f, err := v.Float64Value()
	require.NoError(t, err)
	assert.Equal(t, 3.5, f)

	v.SetString("not a number")
	_, err = v.Int64Value()
	assert.Error(t, err)
}

func TestCopyFromAlwaysOwns(t *testing.T) {
	var src, dst Variant
	payload := []byte("shared payload")
	src.SetStringRef(payload)

	dst.CopyFrom(&src)
	assert.Equal(t, OwnedPool, dst.Ownership())
	assert.Equal(t, "shared payload", dst.StringValue())

	// Mutating the source buffer must not affect the copy.
	payload[0] = 'X'
	assert.Equal(t, "shared payload", dst.StringValue())
}

func TestUUIDRoundTrip(t *testing.T) {
	u := uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e")
	var v Variant
	v.SetUUID(u)
	got, err := v.UUIDValue()
	require.NoError(t, err)
	assert.Equal(t, u, got)
	assert.Equal(t, "0f8fad5b-d9cb-469f-a165-70867728950e", v.String())

	err = v.SetUUIDBytes([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestToDecimal(t *testing.T) {
	var v Variant
	v.SetInt64(123)
	d, err := v.ToDecimal()
	require.NoError(t, err)
	assert.Equal(t, "123", d.String())
	assert.Equal(t, 0, d.Scale())

	v.SetFloat64(3.25)
	d, err = v.ToDecimal()
	require.NoError(t, err)
	assert.Equal(t, "3.25", d.String())

	v.SetString("12.345")
	d, err = v.ToDecimal()
	require.NoError(t, err)
	assert.Equal(t, 3, d.Scale())
	assert.Equal(t, "12.345", d.String())

	v.SetBytes([]byte{1})
	_, err = v.ToDecimal()
	assert.Error(t, err)
}

func TestCompareSameType(t *testing.T) {
	var a, b Variant
	a.SetInt64(1)
	b.SetInt64(2)
	assert.Equal(t, -1, Compare(&a, &b))
	assert.Equal(t, 1, Compare(&b, &a))

	a.SetString("abc")
	b.SetString("abc")
	assert.Equal(t, 0, Compare(&a, &b))
	b.SetString("abcd")
	assert.Equal(t, -1, Compare(&a, &b))

	a.SetFloat64(1.5)
	b.SetFloat64(-1.5)
	assert.Equal(t, 1, Compare(&a, &b))
}

func TestCompareCrossTypeNumeric(t *testing.T) {
	var a, b Variant
	a.SetInt32(10)
	b.SetInt64(10)
	assert.Equal(t, 0, Compare(&a, &b))

	a.SetInt64(2)
	b.SetFloat64(2.5)
	assert.Equal(t, -1, Compare(&a, &b))

	a.SetZero()
	b.SetInt8(0)
	assert.Equal(t, 0, Compare(&a, &b))
}

func TestCompareNullOrdering(t *testing.T) {
	var null, x Variant
	x.SetInt64(0)
	assert.Equal(t, -1, Compare(&null, &x))
	assert.Equal(t, 1, Compare(&x, &null))
	var null2 Variant
	assert.Equal(t, 0, Compare(&null, &null2))
}

func TestCompareDecimal(t *testing.T) {
	var a, b Variant
	a.SetDecimal(decimal.FromString("1.50", 2))
	b.SetDecimal(decimal.FromString("1.50", 2))
	assert.Equal(t, 0, Compare(&a, &b))
	b.SetDecimal(decimal.FromString("2.00", 2))
	assert.Equal(t, -1, Compare(&a, &b))
}

func TestHashStability(t *testing.T) {
	var a, b Variant
	a.SetInt64(12345)
	b.SetInt64(12345)
	assert.Equal(t, a.Hash32(0), b.Hash32(0))
	assert.Equal(t, a.Hash64(0), b.Hash64(0))

	b.SetInt64(12346)
	assert.NotEqual(t, a.Hash32(0), b.Hash32(0))

	// Same payload bits, different type tags.
	b.SetInt32(12345)
	assert.NotEqual(t, a.Hash32(7), b.Hash32(7))
}

func TestHashSeedSensitivity(t *testing.T) {
	var v Variant
	v.SetString("seed me")
	assert.NotEqual(t, v.Hash32(1), v.Hash32(2))
	assert.NotEqual(t, v.Hash64(1), v.Hash64(2))
}

func TestHashNegativeZeroDouble(t *testing.T) {
	var a, b Variant
	a.SetFloat64(0.0)
	b.SetFloat64(negZero())
	assert.Equal(t, a.Hash32(0), b.Hash32(0))
	assert.Equal(t, a.Hash64(0), b.Hash64(0))
}

func negZero() float64 {
	z := 0.0
	return -z
}

func TestHashNaNCanonical(t *testing.T) {
	// two different NaN bit patterns hash identically
	var a, b Variant
	a.SetFloat64(math.NaN())
	b.SetFloat64(math.Float64frombits(math.Float64bits(math.NaN()) | 1))
	assert.Equal(t, a.Hash32(0), b.Hash32(0))
	assert.Equal(t, a.Hash64(0), b.Hash64(0))
}

func TestStringRendering(t *testing.T) {
	var v Variant
	v.SetBytes([]byte{0xDE, 0xAD, 0xBE, 0xEF})
	assert.Equal(t, "<HEX DEADBEEF (len=4)>", v.String())

	v.SetDate(0)
	assert.Equal(t, "1970-01-01", v.String())

	v.SetTime(86400 + 3600)
	assert.Equal(t, "1970-01-02 01:00:00.0", v.String())
}

func TestParseInt64(t *testing.T) {
	n, err := ParseInt64([]byte("+77"))
	require.NoError(t, err)
	assert.Equal(t, int64(77), n)

	_, err = ParseInt64([]byte(""))
	assert.Error(t, err)
	_, err = ParseInt64([]byte("12x"))
	assert.Error(t, err)
}
