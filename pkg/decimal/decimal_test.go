package decimal

import (
	"math/big"
	"math/rand"
	"testing"

	oracle "github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// equalsOracle compares d numerically against want, tolerating
// rendering differences like "-0.00".
func equalsOracle(t *testing.T, want oracle.Decimal, d Decimal) {
	t.Helper()
	got, err := oracle.NewFromString(d.String())
	require.NoError(t, err, "unparseable rendering %q", d.String())
	assert.True(t, want.Equal(got), "want %s, got %s", want, got)
}

func TestFromStringRendering(t *testing.T) {
	cases := []struct {
		in    string
		scale int
		out   string
	}{
		{"123.456", 2, "123.45"}, // excess fraction digits truncate
		{"123.4", 3, "123.400"},
		{"0.5", 2, "0.50"},
		{".25", 2, "0.25"},
		{"-17", 0, "-17"},
		{"-0.5", 1, "-0.5"},
		{"0", 4, "0.0000"},
		{"00012", 0, "12"},
		{"99999999.99", 2, "99999999.99"},
	}
	for _, c := range cases {
		got := FromString(c.in, c.scale).String()
		assert.Equal(t, c.out, got, "FromString(%q, %d)", c.in, c.scale)
	}
}

func TestFromStringGarbage(t *testing.T) {
	assert.True(t, FromString("", 2).IsZero())
	assert.True(t, FromString("abc", 2).IsZero())
	// parsing stops at the first non-numeric rune
	assert.Equal(t, "12.00", FromString("12abc", 2).String())
	assert.Equal(t, "3.1", FromString("3.1.4", 1).String())
}

func TestZeroAndNegate(t *testing.T) {
	z := Zero(3)
	assert.True(t, z.IsZero())
	assert.Equal(t, 3, z.Scale())
	assert.Equal(t, "0.000", z.String())
	assert.False(t, z.Negate().Negative())

	d := FromString("1.25", 2)
	n := d.Negate()
	assert.True(t, n.Negative())
	assert.Equal(t, "-1.25", n.String())
	assert.Equal(t, "1.25", n.Negate().String())
}

func TestCompare(t *testing.T) {
	assert.Equal(t, 0, FromString("1.50", 2).Compare(FromString("1.5", 2)))
	assert.Equal(t, -1, FromString("-2", 0).Compare(FromString("1", 0)))
	assert.Equal(t, 1, FromString("10.01", 2).Compare(FromString("10.00", 2)))
	assert.Equal(t, 0, Zero(2).Compare(Zero(5)))
	assert.Equal(t, -1, FromString("-3", 0).Compare(FromString("-2", 0)))
}

func TestPlusAgainstOracle(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 500; i++ {
		scale := rng.Intn(5)
		a := oracle.New(rng.Int63n(2_000_000_000)-1_000_000_000, -int32(scale))
		b := oracle.New(rng.Int63n(2_000_000_000)-1_000_000_000, -int32(scale))

		da := FromString(a.String(), scale)
		db := FromString(b.String(), scale)
		sum := da.Plus(db, scale)

		equalsOracle(t, a.Add(b), sum)
	}
}

func TestPlusMixedScales(t *testing.T) {
	// operands are truncated to the target scale before adding
	a := FromString("1.999", 3)
	b := FromString("0.5", 1)
	assert.Equal(t, "2.49", a.Plus(b, 2).String())

	// exact cancellation is unsigned zero
	c := FromString("5.5", 1).Plus(FromString("-5.5", 1), 1)
	assert.True(t, c.IsZero())
	assert.False(t, c.Negative())
}

func TestPlusAdditiveConsistency(t *testing.T) {
	// a + (-a + b) == b at matching scales
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 200; i++ {
		scale := rng.Intn(6)
		a := FromUnscaledInt64(int64(rng.Intn(2000000)-1000000), scale)
		b := FromUnscaledInt64(int64(rng.Intn(2000000)-1000000), scale)
		got := a.Plus(a.Negate().Plus(b, scale), scale)
		assert.Equal(t, 0, got.Compare(b), "a=%s b=%s got=%s", a, b, got)
	}
}

func TestDivide(t *testing.T) {
	cases := []struct {
		a, b  string
		scale int
		out   string
	}{
		{"1", "3", 4, "0.3333"},
		{"10", "4", 2, "2.50"},
		{"1", "8", 2, "0.12"}, // quotient truncates, never rounds
		{"100", "7", 3, "14.285"},
		{"-7", "2", 0, "-3"},
		{"7.5", "0.5", 1, "15.0"},
		{"0", "5", 2, "0.00"},
	}
	for _, c := range cases {
		da := FromString(c.a, scaleOf(c.a))
		db := FromString(c.b, scaleOf(c.b))
		got, err := da.Divide(db, c.scale)
		require.NoError(t, err, "%s / %s", c.a, c.b)
		assert.Equal(t, c.out, got.String(), "%s / %s at scale %d", c.a, c.b, c.scale)
	}

	_, err := FromString("1", 0).Divide(Zero(0), 2)
	assert.Error(t, err)
}

// scaleOf counts fraction digits in a literal.
func scaleOf(s string) int {
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			return len(s) - i - 1
		}
	}
	return 0
}

func TestFloatConversions(t *testing.T) {
	// the float is rendered with fmt's rounding before parsing
	d := FromFloat64(3.14159, 4)
	assert.Equal(t, "3.1416", d.String())

	f, err := FromString("-12.5", 1).Float64()
	require.NoError(t, err)
	assert.Equal(t, -12.5, f)
}

func TestUnscaledRoundTrip(t *testing.T) {
	d := FromUnscaledInt64(-1234567, 2)
	assert.Equal(t, "-12345.67", d.String())
	assert.Equal(t, int64(-1234567), d.Unscaled())

	raw := d.UnscaledBytes()
	back := FromUnscaledBytes(raw, 2)
	assert.Equal(t, 0, d.Compare(back))
}

func TestFromTwosBytesWide(t *testing.T) {
	// values wider than 8 bytes go through the big-integer path
	big1 := new(big.Int)
	big1.SetString("100000000000000000007", 10) // needs 9 bytes

	for _, neg := range []bool{false, true} {
		v := new(big.Int).Set(big1)
		if neg {
			v.Neg(v)
		}
		le := twosLE(v, 12)
		d := FromTwosBytes(le, 0)
		assert.Equal(t, v.String(), d.String())
	}
}

// twosLE renders v as n little-endian two's-complement bytes.
func twosLE(v *big.Int, n int) []byte {
	u := new(big.Int).Set(v)
	if u.Sign() < 0 {
		mod := new(big.Int).Lsh(big.NewInt(1), uint(8*n))
		u.Add(u, mod)
	}
	be := u.Bytes()
	out := make([]byte, n)
	for i, b := range be {
		out[len(be)-1-i] = b
	}
	return out
}
