package runtime

import (
	"math"
	"strconv"
)

type ValueKind uint8

const (
	KindUnsigned ValueKind = iota
	KindSigned
	KindFloat
	KindBool
)

var ValueKindToString = map[ValueKind]string{
	KindUnsigned: "unsigned",
	KindSigned:   "signed",
	KindFloat:    "float",
	KindBool:     "bool",
}

// Value is a tagged union of the four scalar shapes a register decodes to.
// The payload is stored as raw bits; accessors return the zero value of the
// requested type when the tag does not match.
type Value struct {
	kind ValueKind
	bits uint64
}

func Unsigned(u uint64) Value {
	return Value{kind: KindUnsigned, bits: u}
}

func Signed(i int64) Value {
	return Value{kind: KindSigned, bits: uint64(i)}
}

func Float(f float64) Value {
	return Value{kind: KindFloat, bits: math.Float64bits(f)}
}

func Bool(b bool) Value {
	if b {
		return Value{kind: KindBool, bits: 1}
	}
	return Value{kind: KindBool}
}

func (v Value) Kind() ValueKind { return v.kind }

func (v Value) IsUnsigned() bool { return v.kind == KindUnsigned }

func (v Value) IsSigned() bool { return v.kind == KindSigned }

func (v Value) IsFloat() bool { return v.kind == KindFloat }

func (v Value) IsBool() bool { return v.kind == KindBool }

func (v Value) AsUnsigned() uint64 {
	if v.kind != KindUnsigned {
		return 0
	}
	return v.bits
}

func (v Value) AsSigned() int64 {
	if v.kind != KindSigned {
		return 0
	}
	return int64(v.bits)
}

func (v Value) AsFloat() float64 {
	if v.kind != KindFloat {
		return 0
	}
	return math.Float64frombits(v.bits)
}

func (v Value) AsBool() bool {
	if v.kind != KindBool {
		return false
	}
	return v.bits != 0
}

// ToUnsigned converts any tag to an unsigned working value. Negative and
// fractional inputs wrap and truncate the way a C cast would.
func (v Value) ToUnsigned() uint64 {
	switch v.kind {
	case KindSigned:
		return uint64(int64(v.bits))
	case KindFloat:
		f := math.Float64frombits(v.bits)
		if f < 0 {
			return uint64(int64(f))
		}
		return uint64(f)
	default:
		return v.bits
	}
}

func (v Value) ToSigned() int64 {
	switch v.kind {
	case KindFloat:
		return int64(math.Float64frombits(v.bits))
	default:
		return int64(v.bits)
	}
}

func (v Value) ToFloat() float64 {
	switch v.kind {
	case KindUnsigned:
		return float64(v.bits)
	case KindSigned:
		return float64(int64(v.bits))
	case KindFloat:
		return math.Float64frombits(v.bits)
	default:
		return float64(v.bits)
	}
}

// Equal reports whether both values carry the same tag and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	if v.kind == KindFloat {
		return math.Float64frombits(v.bits) == math.Float64frombits(o.bits)
	}
	return v.bits == o.bits
}

// EqualUnsigned is true only for an Unsigned value holding u. A Signed value
// never equals an unsigned operand, even when the numbers match.
func (v Value) EqualUnsigned(u uint64) bool {
	return v.kind == KindUnsigned && v.bits == u
}

func (v Value) EqualSigned(i int64) bool {
	return v.kind == KindSigned && int64(v.bits) == i
}

func (v Value) EqualFloat(f float64) bool {
	return v.kind == KindFloat && math.Float64frombits(v.bits) == f
}

func (v Value) EqualBool(b bool) bool {
	return v.kind == KindBool && (v.bits != 0) == b
}

// AppendJSON appends the JSON form of v. Non-finite floats become null.
func (v Value) AppendJSON(dst []byte) []byte {
	switch v.kind {
	case KindUnsigned:
		return strconv.AppendUint(dst, v.bits, 10)
	case KindSigned:
		return strconv.AppendInt(dst, int64(v.bits), 10)
	case KindFloat:
		f := math.Float64frombits(v.bits)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return append(dst, "null"...)
		}
		return strconv.AppendFloat(dst, f, 'g', -1, 64)
	default:
		return strconv.AppendBool(dst, v.bits != 0)
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	return v.AppendJSON(make([]byte, 0, 24)), nil
}

func (v Value) String() string {
	return string(v.AppendJSON(nil))
}
