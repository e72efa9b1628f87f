// Package variant implements the tagged-union value type that row
// cells hold: one SQL value of any supported column type, with
// ownership tracking for variable-length payloads.
package variant

// Type tags a variant's runtime type. The numeric values are part of
// the binary row format and must not change.
type Type uint16

const (
	Null    Type = 0
	Zero    Type = 1
	Int32   Type = 2
	Uint32  Type = 3
	Int8    Type = 4
	Uint8   Type = 5
	Int16   Type = 6
	Uint16  Type = 7
	Int64   Type = 8
	Double  Type = 9
	Float   Type = 10
	String  Type = 11
	Decimal Type = 12
	Bytes   Type = 13
	Date    Type = 14
	Time    Type = 15
	UUID    Type = 16
	IPv6    Type = 17
	Blob    Type = 18
	Object  Type = 31
)

var typeNames = map[Type]string{
	Null:    "NULL",
	Zero:    "ZERO",
	Int32:   "INT32",
	Uint32:  "UINT32",
	Int8:    "INT8",
	Uint8:   "UINT8",
	Int16:   "INT16",
	Uint16:  "UINT16",
	Int64:   "INT64",
	Double:  "DOUBLE",
	Float:   "FLOAT",
	String:  "STRING",
	Decimal: "DECIMAL",
	Bytes:   "BYTES",
	Date:    "DATE",
	Time:    "TIME",
	UUID:    "UUID",
	IPv6:    "IPV6",
	Blob:    "BLOB",
	Object:  "OBJECT",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "UNKNOWN"
}

// ParseType resolves a type name as used in schema files.
func ParseType(s string) (Type, bool) {
	for t, name := range typeNames {
		if name == s {
			return t, true
		}
	}
	return Null, false
}

// IsNumeric reports whether the type belongs to the numeric family
// (integers and floating point).
func (t Type) IsNumeric() bool {
	switch t {
	case Int8, Uint8, Int16, Uint16, Int32, Uint32, Int64, Double, Float:
		return true
	}
	return false
}

// IsInteger reports whether the type is an integer type.
func (t Type) IsInteger() bool {
	return t.IsNumeric() && t != Double && t != Float
}

// IsVarLen reports whether the binary codec writes the type with a
// length prefix instead of a fixed width.
func (t Type) IsVarLen() bool {
	switch t {
	case String, Decimal, Bytes, Blob, Object:
		return true
	}
	return false
}

// FixedWidth returns the binary payload width of a fixed-size type,
// or 0 for var-len and unsupported types.
func (t Type) FixedWidth() int {
	switch t {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float:
		return 4
	case Int64, Double:
		return 8
	case Date:
		return 3 // packed Y/M/D in a u24
	case Time:
		return 8 // ms since epoch
	case UUID, IPv6:
		return 16
	}
	return 0
}
