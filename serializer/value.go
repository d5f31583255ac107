package serializer

import (
	"fmt"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindText
	KindSequence
	KindMap
	KindPlaceholder
)

// String returns the lower-case name of the kind
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindSequence:
		return "sequence"
	case KindMap:
		return "map"
	case KindPlaceholder:
		return "placeholder"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is a bounded, cycle-free tree of primitive values. Values built by a
// Serializer satisfy the depth and text length limits of the call that built
// them; values built directly with the constructors below are taken as given.
//
// The zero Value is Null.
type Value struct {
	kind   Kind
	b      bool
	i      int64
	f      float64
	s      string
	items  []Value
	fields []Field
}

// Field is one entry of a Map value.
type Field struct {
	Key   string
	Value Value
}

// Null returns the null value.
func Null() Value { return Value{kind: KindNull} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int returns an integer value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a floating point value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Text returns a text value holding s as is.
func Text(s string) Value { return Value{kind: KindText, s: s} }

// Placeholder returns a placeholder standing in for an unexpanded value.
func Placeholder(s string) Value { return Value{kind: KindPlaceholder, s: s} }

// Sequence returns an ordered sequence of items.
func Sequence(items ...Value) Value {
	out := make([]Value, len(items))
	copy(out, items)
	return Value{kind: KindSequence, items: out}
}

// Map returns an ordered map. Later fields with a key already present are dropped.
func Map(fields ...Field) Value {
	out := make([]Field, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, dup := seen[f.Key]; dup {
			continue
		}
		seen[f.Key] = struct{}{}
		out = append(out, f)
	}
	return Value{kind: KindMap, fields: out}
}

// Pair is shorthand for a Map field.
func Pair(key string, v Value) Field {
	return Field{Key: key, Value: v}
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean held by v, or false for other kinds.
func (v Value) AsBool() bool { return v.b }

// AsInt returns the integer held by v, or 0 for other kinds.
func (v Value) AsInt() int64 { return v.i }

// AsFloat returns the float held by v, or 0 for other kinds.
func (v Value) AsFloat() float64 { return v.f }

// AsString returns the content of a Text or Placeholder value, or "" for other kinds.
func (v Value) AsString() string { return v.s }

// Len returns the number of items of a Sequence or fields of a Map.
func (v Value) Len() int {
	switch v.kind {
	case KindSequence:
		return len(v.items)
	case KindMap:
		return len(v.fields)
	}
	return 0
}

// Index returns the i-th item of a Sequence. It panics if i is out of range.
func (v Value) Index(i int) Value {
	return v.items[i]
}

// Items returns a copy of the items of a Sequence.
func (v Value) Items() []Value {
	out := make([]Value, len(v.items))
	copy(out, v.items)
	return out
}

// Fields returns a copy of the fields of a Map in order.
func (v Value) Fields() []Field {
	out := make([]Field, len(v.fields))
	copy(out, v.fields)
	return out
}

// Lookup returns the value stored under key in a Map.
func (v Value) Lookup(key string) (Value, bool) {
	for _, f := range v.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Interface converts v to plain Go values: nil, bool, int64, float64, string,
// []interface{} and map[string]interface{}. Map order is lost.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindText, KindPlaceholder:
		return v.s
	case KindSequence:
		out := make([]interface{}, len(v.items))
		for i, item := range v.items {
			out[i] = item.Interface()
		}
		return out
	case KindMap:
		out := make(map[string]interface{}, len(v.fields))
		for _, f := range v.fields {
			out[f.Key] = f.Value.Interface()
		}
		return out
	default:
		return nil
	}
}

// String renders v as compact JSON.
func (v Value) String() string {
	b, err := v.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("!(%v)", err)
	}
	return string(b)
}
