package resp

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the RESP type of a Value. Its value is the type prefix byte.
type Kind byte

// RESP2 value kinds.
const (
	KindSimpleString Kind = '+'
	KindError        Kind = '-'
	KindInteger      Kind = ':'
	KindBulkString   Kind = '$'
	KindArray        Kind = '*'
)

// String returns a human readable kind name.
func (k Kind) String() string {
	switch k {
	case KindSimpleString:
		return "simple string"
	case KindError:
		return "error"
	case KindInteger:
		return "integer"
	case KindBulkString:
		return "bulk string"
	case KindArray:
		return "array"
	default:
		return fmt.Sprintf("kind(%q)", byte(k))
	}
}

// Value is a single protocol value.
//
// Only the fields relevant to Kind are meaningful: Str for simple strings and
// errors, Int for integers, Bulk for bulk strings and Array for arrays. Null
// marks a null bulk string ($-1) or a null array (*-1).
type Value struct {
	Kind  Kind
	Str   string
	Int   int64
	Bulk  []byte
	Array []Value
	Null  bool
}

// SimpleString returns a simple string value.
func SimpleString(s string) Value {
	return Value{Kind: KindSimpleString, Str: s}
}

// ErrorString returns an error value.
func ErrorString(s string) Value {
	return Value{Kind: KindError, Str: s}
}

// Integer returns an integer value.
func Integer(n int64) Value {
	return Value{Kind: KindInteger, Int: n}
}

// BulkString returns a bulk string value holding s.
func BulkString(s string) Value {
	return Value{Kind: KindBulkString, Bulk: []byte(s)}
}

// BulkBytes returns a bulk string value holding b.
// A nil b is an empty bulk string, not a null one; use NullBulk for that.
func BulkBytes(b []byte) Value {
	if b == nil {
		b = []byte{}
	}
	return Value{Kind: KindBulkString, Bulk: b}
}

// NullBulk returns the null bulk string.
func NullBulk() Value {
	return Value{Kind: KindBulkString, Null: true}
}

// Array returns an array value of the given elements.
func Array(elems ...Value) Value {
	if elems == nil {
		elems = []Value{}
	}
	return Value{Kind: KindArray, Array: elems}
}

// NullArray returns the null array.
func NullArray() Value {
	return Value{Kind: KindArray, Null: true}
}

// Command builds a request: an array of bulk strings.
func Command(args ...string) Value {
	elems := make([]Value, len(args))
	for i, a := range args {
		elems[i] = BulkString(a)
	}
	return Array(elems...)
}

// IsNull reports whether v is a null bulk string or a null array.
func (v Value) IsNull() bool {
	return v.Null && (v.Kind == KindBulkString || v.Kind == KindArray)
}

// Text returns the textual payload of a simple string, error or non-null
// bulk string.
func (v Value) Text() (string, bool) {
	switch v.Kind {
	case KindSimpleString, KindError:
		return v.Str, true
	case KindBulkString:
		if v.Null {
			return "", false
		}
		return string(v.Bulk), true
	default:
		return "", false
	}
}

// Equal reports whether v and o describe the same protocol value.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindSimpleString, KindError:
		return v.Str == o.Str
	case KindInteger:
		return v.Int == o.Int
	case KindBulkString:
		if v.Null || o.Null {
			return v.Null == o.Null
		}
		return bytes.Equal(v.Bulk, o.Bulk)
	case KindArray:
		if v.Null || o.Null {
			return v.Null == o.Null
		}
		if len(v.Array) != len(o.Array) {
			return false
		}
		for i := range v.Array {
			if !v.Array[i].Equal(o.Array[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String returns a debug representation of the value.
func (v Value) String() string {
	switch v.Kind {
	case KindSimpleString:
		return v.Str
	case KindError:
		return "(error) " + v.Str
	case KindInteger:
		return strconv.FormatInt(v.Int, 10)
	case KindBulkString:
		if v.Null {
			return "(nil)"
		}
		return strconv.Quote(string(v.Bulk))
	case KindArray:
		if v.Null {
			return "(nil)"
		}
		parts := make([]string, len(v.Array))
		for i, item := range v.Array {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprintf("unknown type %c", byte(v.Kind))
	}
}
