package variant

import (
	"strconv"
)

// ParseInt64 parses a decimal integer from raw bytes without
// allocating. Leading and trailing ASCII whitespace is tolerated;
// anything else fails.
func ParseInt64(b []byte) (int64, error) {
	b = trimSpace(b)
	if len(b) == 0 {
		return 0, strconv.ErrSyntax
	}
	neg := false
	switch b[0] {
	case '-':
		neg = true
		b = b[1:]
	case '+':
		b = b[1:]
	}
	if len(b) == 0 {
		return 0, strconv.ErrSyntax
	}
	var n int64
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, strconv.ErrSyntax
		}
		n = n*10 + int64(c-'0')
	}
	if neg {
		n = -n
	}
	return n, nil
}

// ParseFloat64 parses a floating-point number from raw bytes.
func ParseFloat64(b []byte) (float64, error) {
	b = trimSpace(b)
	if len(b) == 0 {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseFloat(string(b), 64)
}

func trimSpace(b []byte) []byte {
	for len(b) > 0 && isSpace(b[0]) {
		b = b[1:]
	}
	for len(b) > 0 && isSpace(b[len(b)-1]) {
		b = b[:len(b)-1]
	}
	return b
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}
