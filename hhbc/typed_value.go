package hhbc

import (
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// TypedValue: compile-time constant values
// ---------------------------------------------------------------------------

// ValueKind tags a TypedValue.
type ValueKind uint8

const (
	KindUninit ValueKind = iota
	KindNull
	KindBool
	KindInt
	KindDouble
	KindString
	KindVec
	KindDict
	KindKeyset
)

// DictEntry is one key/value pair of a dict constant, in insertion order.
type DictEntry struct {
	Key   TypedValue `cbor:"k"`
	Value TypedValue `cbor:"v"`
}

// TypedValue is a constant-folded value. Only the fields matching Kind are
// meaningful.
type TypedValue struct {
	Kind   ValueKind    `cbor:"t"`
	Bool   bool         `cbor:"b,omitempty"`
	Int    int64        `cbor:"i,omitempty"`
	Double float64      `cbor:"d,omitempty"`
	Str    string       `cbor:"s,omitempty"`
	Elems  []TypedValue `cbor:"e,omitempty"` // vec and keyset elements
	Fields []DictEntry  `cbor:"f,omitempty"` // dict entries
}

// Uninit is the marker for "no value yet".
func Uninit() TypedValue { return TypedValue{Kind: KindUninit} }

// NullValue returns the null constant.
func NullValue() TypedValue { return TypedValue{Kind: KindNull} }

// BoolValue wraps a bool.
func BoolValue(b bool) TypedValue { return TypedValue{Kind: KindBool, Bool: b} }

// IntValue wraps an int.
func IntValue(i int64) TypedValue { return TypedValue{Kind: KindInt, Int: i} }

// DoubleValue wraps a float.
func DoubleValue(d float64) TypedValue { return TypedValue{Kind: KindDouble, Double: d} }

// StringValue wraps a string.
func StringValue(s string) TypedValue { return TypedValue{Kind: KindString, Str: s} }

// VecValue builds a vec constant.
func VecValue(elems ...TypedValue) TypedValue { return TypedValue{Kind: KindVec, Elems: elems} }

// KeysetValue builds a keyset constant.
func KeysetValue(elems ...TypedValue) TypedValue {
	return TypedValue{Kind: KindKeyset, Elems: elems}
}

// DictValue builds a dict constant.
func DictValue(fields ...DictEntry) TypedValue { return TypedValue{Kind: KindDict, Fields: fields} }

// Entry is shorthand for a string-keyed dict entry.
func Entry(key string, v TypedValue) DictEntry {
	return DictEntry{Key: StringValue(key), Value: v}
}

// Lookup returns the value stored under a string key of a dict.
func (v TypedValue) Lookup(key string) (TypedValue, bool) {
	for _, f := range v.Fields {
		if f.Key.Kind == KindString && f.Key.Str == key {
			return f.Value, true
		}
	}
	return TypedValue{}, false
}

// String renders the value in assembler syntax.
func (v TypedValue) String() string {
	var sb strings.Builder
	v.write(&sb)
	return sb.String()
}

func (v TypedValue) write(sb *strings.Builder) {
	switch v.Kind {
	case KindUninit:
		sb.WriteString("uninit")
	case KindNull:
		sb.WriteString("null")
	case KindBool:
		sb.WriteString(strconv.FormatBool(v.Bool))
	case KindInt:
		sb.WriteString(strconv.FormatInt(v.Int, 10))
	case KindDouble:
		sb.WriteString(strconv.FormatFloat(v.Double, 'g', -1, 64))
	case KindString:
		sb.WriteString(strconv.Quote(v.Str))
	case KindVec, KindKeyset:
		if v.Kind == KindVec {
			sb.WriteString("vec[")
		} else {
			sb.WriteString("keyset[")
		}
		for i, e := range v.Elems {
			if i > 0 {
				sb.WriteString(", ")
			}
			e.write(sb)
		}
		sb.WriteString("]")
	case KindDict:
		sb.WriteString("dict[")
		for i, f := range v.Fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			f.Key.write(sb)
			sb.WriteString(" => ")
			f.Value.write(sb)
		}
		sb.WriteString("]")
	}
}
