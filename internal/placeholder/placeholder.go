// Package placeholder renders the short descriptive strings that stand in for
// values the serializer does not expand.
package placeholder

import "fmt"

// Array describes a sequence or map collapsed at the depth limit.
func Array(length int) string {
	return fmt.Sprintf("Array of length %d", length)
}

// Object describes a composite that was not expanded.
func Object(typeName string) string {
	return fmt.Sprintf("Object %s", typeName)
}

// Resource describes an opaque handle such as a file or socket.
func Resource(kind string) string {
	return fmt.Sprintf("Resource %s", kind)
}

// Unrecognized is the catch-all for values no other rule handles.
func Unrecognized(category, description string) string {
	return fmt.Sprintf("%s %s", category, description)
}
