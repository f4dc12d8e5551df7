package nyx

import (
	"math"
	"strconv"
	"strings"
)

// ValueTag distinguishes the variants of Value (§3 "Value").
type ValueTag uint8

const (
	TagUndefined ValueTag = iota
	TagNull
	TagBoolean
	TagNumber
	TagString
	TagObject
	TagArray
	TagFunction
	TagBigInt
	TagSymbol
)

func (t ValueTag) String() string {
	switch t {
	case TagUndefined:
		return "undefined"
	case TagNull:
		return "null"
	case TagBoolean:
		return "boolean"
	case TagNumber:
		return "number"
	case TagString:
		return "string"
	case TagObject:
		return "object"
	case TagArray:
		return "array"
	case TagFunction:
		return "function"
	case TagBigInt:
		return "bigint"
	case TagSymbol:
		return "symbol"
	default:
		return "unknown"
	}
}

// Value is a tagged union of primitive and heap-reference values.
// Heap references are non-owning handles into the managed heap: they
// are cheap to copy, exactly as required by §3.
type Value struct {
	tag ValueTag
	num float64
	ref gcObject
}

func Undefined() Value { return Value{tag: TagUndefined} }
func Null() Value       { return Value{tag: TagNull} }

func Bool(b bool) Value {
	if b {
		return Value{tag: TagBoolean, num: 1}
	}
	return Value{tag: TagBoolean, num: 0}
}

func Number(f float64) Value { return Value{tag: TagNumber, num: f} }

func StringValue(s *StringObject) Value { return Value{tag: TagString, ref: s} }
func ObjectValue(o *Object) Value       { return Value{tag: TagObject, ref: o} }
func ArrayValue(a *Array) Value         { return Value{tag: TagArray, ref: a} }
func FunctionValue(f *Function) Value   { return Value{tag: TagFunction, ref: f} }
func BigIntValue(b *BigIntObject) Value { return Value{tag: TagBigInt, ref: b} }
func SymbolValue(s *SymbolObject) Value { return Value{tag: TagSymbol, ref: s} }

func (v Value) Tag() ValueTag { return v.tag }

func (v Value) IsUndefined() bool { return v.tag == TagUndefined }
func (v Value) IsNull() bool      { return v.tag == TagNull }
func (v Value) IsNullish() bool   { return v.tag == TagUndefined || v.tag == TagNull }
func (v Value) IsNumber() bool    { return v.tag == TagNumber }
func (v Value) IsString() bool    { return v.tag == TagString }
func (v Value) IsObject() bool    { return v.tag == TagObject }
func (v Value) IsArray() bool     { return v.tag == TagArray }
func (v Value) IsFunction() bool  { return v.tag == TagFunction }

func (v Value) AsBool() bool    { return v.num != 0 }
func (v Value) AsNumber() float64 { return v.num }

func (v Value) AsStringObject() *StringObject { s, _ := v.ref.(*StringObject); return s }
func (v Value) AsObject() *Object             { o, _ := v.ref.(*Object); return o }
func (v Value) AsArray() *Array               { a, _ := v.ref.(*Array); return a }
func (v Value) AsFunction() *Function         { f, _ := v.ref.(*Function); return f }

// heapRef returns the underlying gcObject, or nil for primitives. Used
// by the GC mark phase (gcmark.go) to walk the reference graph.
func (v Value) heapRef() gcObject { return v.ref }

// ---- §4.1 coercions ----

// ToBoolean implements the ToBoolean coercion table of §4.1.
func ToBoolean(v Value) bool {
	switch v.tag {
	case TagUndefined, TagNull:
		return false
	case TagBoolean:
		return v.num != 0
	case TagNumber:
		return v.num != 0 && !math.IsNaN(v.num)
	case TagString:
		return v.AsStringObject().data != ""
	default:
		return true
	}
}

// ToNumber implements the ToNumber coercion table of §4.1.
func ToNumber(v Value) float64 {
	switch v.tag {
	case TagUndefined:
		return math.NaN()
	case TagNull:
		return 0
	case TagBoolean:
		return v.num
	case TagNumber:
		return v.num
	case TagString:
		return stringToNumber(v.AsStringObject().data)
	default:
		return math.NaN()
	}
}

func stringToNumber(s string) float64 {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0
	}
	switch trimmed {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	case "NaN":
		return math.NaN()
	}
	if strings.HasPrefix(trimmed, "0x") || strings.HasPrefix(trimmed, "0X") {
		n, err := strconv.ParseUint(trimmed[2:], 16, 64)
		if err != nil {
			return math.NaN()
		}
		return float64(n)
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// ToString implements the ToString coercion table of §4.1.
func ToString(v Value) string {
	switch v.tag {
	case TagUndefined:
		return "undefined"
	case TagNull:
		return "null"
	case TagBoolean:
		if v.num != 0 {
			return "true"
		}
		return "false"
	case TagNumber:
		return numberToString(v.num)
	case TagString:
		return v.AsStringObject().data
	case TagObject:
		return "[object Object]"
	case TagArray:
		return "[object Array]"
	case TagFunction:
		return "[object Function]"
	case TagBigInt:
		return v.ref.(*BigIntObject).digits
	case TagSymbol:
		return "Symbol(" + v.ref.(*SymbolObject).description + ")"
	default:
		return ""
	}
}

func numberToString(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// ToInt32 coerces v to a signed 32-bit integer, per the bitwise-op
// semantics in §4.5 (ToInt32 per ECMAScript: wrap through modulo
// 2^32, then reinterpret two's-complement). NaN/Infinity/non-finite
// values coerce to 0.
func ToInt32(v Value) int32 {
	f := ToNumber(v)
	if math.IsNaN(f) || math.IsInf(f, 0) || f == 0 {
		return 0
	}
	f = math.Trunc(f)
	const twoTo32 = 4294967296.0
	m := math.Mod(f, twoTo32)
	if m < 0 {
		m += twoTo32
	}
	if m >= twoTo32/2 {
		m -= twoTo32
	}
	return int32(m)
}

// StrictEquals implements the strict-equality rule used by ==/!= in
// the VM (§4.1): tags must match; primitives compare by value, strings
// by bytes, heap objects by reference identity.
func StrictEquals(a, b Value) bool {
	if a.tag != b.tag {
		return false
	}
	switch a.tag {
	case TagUndefined, TagNull:
		return true
	case TagBoolean, TagNumber:
		return a.num == b.num
	case TagString:
		return a.AsStringObject().data == b.AsStringObject().data
	case TagBigInt:
		return a.ref.(*BigIntObject).digits == b.ref.(*BigIntObject).digits
	default:
		return a.ref == b.ref
	}
}

// TypeOf implements the `typeof` operator of §4.1. Null maps to
// "object" — a deliberately preserved language quirk.
func TypeOf(v Value) string {
	switch v.tag {
	case TagUndefined:
		return "undefined"
	case TagNull:
		return "object"
	case TagBoolean:
		return "boolean"
	case TagNumber:
		return "number"
	case TagString:
		return "string"
	case TagFunction:
		return "function"
	case TagBigInt:
		return "bigint"
	case TagSymbol:
		return "symbol"
	default:
		return "object"
	}
}
