// Package jsonv is the JSON value engine used as the wire format for the
// daemon's RPC interface. Values form a closed sum: Null, Bool, Int, Float,
// String, Array and Object. Objects serialize with lexicographically ordered
// keys so structurally equal values always encode identically.
package jsonv

import "fmt"

// Value is one JSON value. Exactly one of the concrete types in this
// package implements it per kind.
type Value interface {
	isValue()
}

type Null struct{}

type Bool bool

// Int and Float stay distinct: a literal without '.' or exponent parses as
// Int, everything else as Float.
type Int int64

type Float float64

type String string

type Array []Value

type Object map[string]Value

func (Null) isValue()   {}
func (Bool) isValue()   {}
func (Int) isValue()    {}
func (Float) isValue()  {}
func (String) isValue() {}
func (Array) isValue()  {}
func (Object) isValue() {}

// TypeError reports a typed accessor applied to a value of the wrong kind.
type TypeError struct {
	Want string
	Got  string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("jsonv: cannot read %s as %s", e.Got, e.Want)
}

// KindName returns a human-readable name for the value's kind.
func KindName(v Value) string {
	switch v.(type) {
	case Null, nil:
		return "null"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	}
	return "unknown"
}

// AsBool returns the boolean payload. Only Bool converts.
func AsBool(v Value) (bool, error) {
	if b, ok := v.(Bool); ok {
		return bool(b), nil
	}
	return false, &TypeError{Want: "bool", Got: KindName(v)}
}

// AsInt returns the value as int64. Both numeric kinds convert.
func AsInt(v Value) (int64, error) {
	switch n := v.(type) {
	case Int:
		return int64(n), nil
	case Float:
		return int64(n), nil
	}
	return 0, &TypeError{Want: "int", Got: KindName(v)}
}

// AsFloat returns the value as float64. Both numeric kinds convert.
func AsFloat(v Value) (float64, error) {
	switch n := v.(type) {
	case Float:
		return float64(n), nil
	case Int:
		return float64(n), nil
	}
	return 0, &TypeError{Want: "float", Got: KindName(v)}
}

// AsString returns the string payload. Only String converts.
func AsString(v Value) (string, error) {
	if s, ok := v.(String); ok {
		return string(s), nil
	}
	return "", &TypeError{Want: "string", Got: KindName(v)}
}

// Get returns the member value for key, or Null when the receiver is not an
// object or the key is absent. Chained Get calls are safe on any value.
func Get(v Value, key string) Value {
	if obj, ok := v.(Object); ok {
		if member, ok := obj[key]; ok && member != nil {
			return member
		}
	}
	return Null{}
}

// At returns element i, or Null when the receiver is not an array or the
// index is out of range.
func At(v Value, i int) Value {
	if arr, ok := v.(Array); ok && i >= 0 && i < len(arr) {
		return arr[i]
	}
	return Null{}
}

// Has reports whether v is an object containing key.
func Has(v Value, key string) bool {
	obj, ok := v.(Object)
	if !ok {
		return false
	}
	_, ok = obj[key]
	return ok
}

// Len returns the element count of an array or member count of an object.
func Len(v Value) int {
	switch c := v.(type) {
	case Array:
		return len(c)
	case Object:
		return len(c)
	}
	return 0
}

// The Or accessors mirror the lookup pattern the RPC consumers lean on: a
// non-object receiver, a missing key, a null member or a kind mismatch all
// yield the supplied default instead of an error.

func BoolOr(v Value, key string, def bool) bool {
	b, err := AsBool(Get(v, key))
	if err != nil {
		return def
	}
	return b
}

func IntOr(v Value, key string, def int64) int64 {
	n, err := AsInt(Get(v, key))
	if err != nil {
		return def
	}
	return n
}

func FloatOr(v Value, key string, def float64) float64 {
	f, err := AsFloat(Get(v, key))
	if err != nil {
		return def
	}
	return f
}

func StrOr(v Value, key, def string) string {
	s, err := AsString(Get(v, key))
	if err != nil {
		return def
	}
	return s
}

// IsNull reports whether v is the null value.
func IsNull(v Value) bool {
	switch v.(type) {
	case Null, nil:
		return true
	}
	return false
}
