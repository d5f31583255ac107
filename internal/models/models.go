package models

import "reflect"

// Category is the closed set of shapes the classifier can assign to an input value.
type Category int

const (
	Unrecognized Category = iota
	Scalar
	TextLike
	SequenceLike
	CompositeLike
	OpaqueResource
)

// String returns the category name used in debug output
func (c Category) String() string {
	switch c {
	case Scalar:
		return "scalar"
	case TextLike:
		return "text"
	case SequenceLike:
		return "sequence"
	case CompositeLike:
		return "composite"
	case OpaqueResource:
		return "resource"
	default:
		return "unrecognized"
	}
}

// Identity is the reference identity of a composite reached through a pointer.
// The type is part of the key because a struct and its first field share an address.
type Identity struct {
	Addr uintptr
	Type reflect.Type
}

// IsZero reports whether the composite has no reference identity (an unaddressed struct value).
func (id Identity) IsZero() bool {
	return id.Addr == 0 && id.Type == nil
}

// Classification is the classifier's verdict for one value. Only the fields
// relevant to Category are populated.
type Classification struct {
	Category Category

	// Scalar holds nil, bool, int64 or float64 for Scalar values.
	Scalar interface{}

	// Text or Bytes hold the raw content of TextLike values.
	Text    string
	Bytes   []byte
	IsBytes bool

	// Value is the dereferenced container for SequenceLike and CompositeLike values.
	Value reflect.Value
	// Keyed is true for sequences addressed by key (maps) rather than index.
	Keyed bool
	// Len is the element count of a SequenceLike value.
	Len int

	// Identity and TypeName describe a CompositeLike value.
	Identity Identity
	TypeName string

	// Kind names an OpaqueResource ("stream", "socket", "chan", ...) or the
	// category label of an Unrecognized value ("Value", "Pointer").
	Kind string

	// Description names the runtime type of an Unrecognized value.
	Description string
}

// Entry is one child of a sequence or composite: its output key (empty for
// index-addressed sequences) and its input value.
type Entry struct {
	Key   string
	Value reflect.Value
}
