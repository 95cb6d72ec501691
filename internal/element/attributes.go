package element

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// Attr is a single attribute. Value is either a string or a number; any Go
// integer or float kind is accepted. Signed integers are stored as int64,
// unsigned ones as uint64 and floats as float64.
type Attr struct {
	Key   string
	Value any
}

// Attrs is an insertion-ordered attribute list.
type Attrs []Attr

// A builds an Attrs from alternating keys and values:
//
//	element.A("id", "d1", "width", 100)
//
// A trailing key without a value is ignored.
func A(pairs ...any) Attrs {
	attrs := make(Attrs, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		attrs = append(attrs, Attr{Key: fmt.Sprint(pairs[i]), Value: pairs[i+1]})
	}
	return attrs
}

// Get returns the value stored under key.
func (a Attrs) Get(key string) (any, bool) {
	for _, attr := range a {
		if attr.Key == key {
			return attr.Value, true
		}
	}
	return nil, false
}

// Has reports whether the exact key/value pair is present.
func (a Attrs) Has(key string, value any) bool {
	v, ok := a.Get(key)
	return ok && valuesEqual(v, value)
}

// normalized returns a copy with numeric values widened to 64 bits and
// repeated keys collapsed onto their first position, last value winning.
func (a Attrs) normalized() Attrs {
	if len(a) == 0 {
		return nil
	}
	out := make(Attrs, 0, len(a))
	index := make(map[string]int, len(a))
	for _, attr := range a {
		value := normalizeValue(attr.Value)
		if i, ok := index[attr.Key]; ok {
			out[i].Value = value
			continue
		}
		index[attr.Key] = len(out)
		out = append(out, Attr{Key: attr.Key, Value: value})
	}
	return out
}

// normalizeValue widens signed integers to int64, unsigned integers to
// uint64 and floats to float64. Integers stay exact.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint:
		return uint64(x)
	case uint8:
		return uint64(x)
	case uint16:
		return uint64(x)
	case uint32:
		return uint64(x)
	case float32:
		return float64(x)
	default:
		return v
	}
}

// valuesEqual compares strings by content and numbers by value across
// numeric kinds, so 100, uint8(100) and 100.0 are equal.
func valuesEqual(a, b any) bool {
	a, b = normalizeValue(a), normalizeValue(b)
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		return ok && x == y
	case int64:
		switch y := b.(type) {
		case int64:
			return x == y
		case uint64:
			return intEqualsUint(x, y)
		case float64:
			return intEqualsFloat(x, y)
		}
		return false
	case uint64:
		switch y := b.(type) {
		case int64:
			return intEqualsUint(y, x)
		case uint64:
			return x == y
		case float64:
			return uintEqualsFloat(x, y)
		}
		return false
	case float64:
		switch y := b.(type) {
		case int64:
			return intEqualsFloat(y, x)
		case uint64:
			return uintEqualsFloat(y, x)
		case float64:
			return x == y
		}
		return false
	default:
		return reflect.DeepEqual(a, b)
	}
}

func intEqualsUint(i int64, u uint64) bool {
	return i >= 0 && uint64(i) == u
}

// intEqualsFloat reports whether f holds exactly the integer i. Floats
// outside [-2^63, 2^63) cannot.
func intEqualsFloat(i int64, f float64) bool {
	if f != math.Trunc(f) || f < -(1<<63) || f >= 1<<63 {
		return false
	}
	return int64(f) == i
}

func uintEqualsFloat(u uint64, f float64) bool {
	if f != math.Trunc(f) || f < 0 || f >= 1<<64 {
		return false
	}
	return uint64(f) == u
}

// formatValue renders an attribute value: quoted for strings, bare otherwise.
func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return "'" + x + "'"
	case int64:
		return strconv.FormatInt(x, 10)
	case uint64:
		return strconv.FormatUint(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// valueText is the unquoted text form of a value, used for ids.
func valueText(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case nil:
		return ""
	default:
		return formatValue(x)
	}
}
