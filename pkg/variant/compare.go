package variant

import "bytes"

// Compare orders two variants. Null sorts before every non-null
// value. Same-type comparisons take the natural ordering of the type;
// mixed numeric types compare as int64 when neither side is floating,
// otherwise both promote to float64. Incomparable pairs fall back to
// type-tag order.
func Compare(a, b *Variant) int {
	an, bn := a.IsNull(), b.IsNull()
	if an || bn {
		if an && bn {
			return 0
		}
		if an {
			return -1
		}
		return 1
	}
	if a.typ == b.typ {
		switch a.typ {
		case Zero:
			return 0
		case Int8, Uint8, Int16, Uint16, Int32, Uint32, Int64, Date, Time:
			return cmpI64(a.i, b.i)
		case Double, Float:
			return cmpF64(a.f, b.f)
		case String, Bytes, UUID, IPv6, Blob, Object:
			return cmpBytes(a.b, b.b)
		case Decimal:
			return a.dec.Compare(b.dec)
		}
		return 0
	}
	if isNumericOrZero(a.typ) && isNumericOrZero(b.typ) {
		if a.typ != Double && a.typ != Float && b.typ != Double && b.typ != Float {
			return cmpI64(numI64(a), numI64(b))
		}
		return cmpF64(numF64(a), numF64(b))
	}
	return cmpI64(int64(a.typ), int64(b.typ))
}

func isNumericOrZero(t Type) bool {
	return t.IsNumeric() || t == Zero
}

func numI64(v *Variant) int64 {
	if v.typ == Zero {
		return 0
	}
	return v.i
}

func numF64(v *Variant) float64 {
	switch v.typ {
	case Double, Float:
		return v.f
	case Zero:
		return 0
	}
	return float64(v.i)
}

func cmpI64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpF64(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// cmpBytes compares the shared prefix first, then breaks ties on
// length so a proper prefix sorts before its extension.
func cmpBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if c := bytes.Compare(a[:n], b[:n]); c != 0 {
		return c
	}
	return cmpI64(int64(len(a)), int64(len(b)))
}
