// Package classifier inspects arbitrary Go values and sorts them into the
// closed set of shapes the serializer knows how to bound.
package classifier

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net"
	"os"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/iancoleman/strcase"
	"github.com/mcncl/gobound/internal/models"
	"github.com/mcncl/gobound/internal/placeholder"
	"github.com/mcncl/gobound/internal/textnorm"
)

// FieldNaming selects how struct field names become output keys.
type FieldNaming string

const (
	// NamingGo keeps the Go field name.
	NamingGo FieldNaming = "go"
	// NamingJSON uses the name from the json struct tag and skips fields tagged "-".
	NamingJSON FieldNaming = "json"
	// NamingSnake converts the Go field name to snake_case.
	NamingSnake FieldNaming = "snake"
	// NamingCamel converts the Go field name to lowerCamelCase.
	NamingCamel FieldNaming = "camel"
)

// maxIndirections bounds pointer and interface unwrapping so self-referential
// pointers (p := new(any); *p = p) terminate.
const maxIndirections = 32

var (
	fileType       = reflect.TypeOf((*os.File)(nil))
	jsonNumberType = reflect.TypeOf(json.Number(""))
	connType       = reflect.TypeOf((*net.Conn)(nil)).Elem()
	listenerType   = reflect.TypeOf((*net.Listener)(nil)).Elem()
	readerType     = reflect.TypeOf((*io.Reader)(nil)).Elem()
	writerType     = reflect.TypeOf((*io.Writer)(nil)).Elem()
	closerType     = reflect.TypeOf((*io.Closer)(nil)).Elem()
)

// Classifier assigns a models.Category to values and enumerates the children
// of containers. It holds no per-call state and is safe for concurrent use.
type Classifier struct {
	naming FieldNaming
	text   *textnorm.Normalizer
}

// NewClassifier creates a Classifier. An empty naming defaults to NamingGo and a
// nil normalizer to one that replaces invalid UTF-8.
func NewClassifier(naming FieldNaming, text *textnorm.Normalizer) (*Classifier, error) {
	switch naming {
	case "":
		naming = NamingGo
	case NamingGo, NamingJSON, NamingSnake, NamingCamel:
	default:
		return nil, fmt.Errorf("unknown field naming '%s'", naming)
	}
	if text == nil {
		text = &textnorm.Normalizer{}
	}
	return &Classifier{naming: naming, text: text}, nil
}

// Classify returns the classification of v. It never calls methods on the
// value and never reads unexported state.
func (c *Classifier) Classify(v reflect.Value) models.Classification {
	var id models.Identity

	for hops := 0; ; hops++ {
		if !v.IsValid() {
			return scalar(nil)
		}
		if hops > maxIndirections {
			return unrecognized("Pointer", v.Type().String())
		}

		switch v.Kind() {
		case reflect.Interface:
			if v.IsNil() {
				return scalar(nil)
			}
			v = v.Elem()
			continue
		case reflect.Pointer:
			if v.IsNil() {
				return scalar(nil)
			}
			if kind, ok := resourceKind(v.Type()); ok {
				return resource(kind)
			}
			if v.Type().Elem().Kind() == reflect.Struct {
				id = models.Identity{Addr: v.Pointer(), Type: v.Type().Elem()}
			}
			v = v.Elem()
			continue
		}
		break
	}

	if kind, ok := resourceKind(v.Type()); ok {
		return resource(kind)
	}

	switch v.Kind() {
	case reflect.Bool:
		return scalar(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return scalar(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := v.Uint()
		if u > math.MaxInt64 {
			return text(strconv.FormatUint(u, 10))
		}
		return scalar(int64(u))
	case reflect.Float32, reflect.Float64:
		return scalar(v.Float())
	case reflect.String:
		if v.Type() == jsonNumberType {
			return number(v.String())
		}
		return text(v.String())
	case reflect.Slice:
		if v.IsNil() {
			return scalar(nil)
		}
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return models.Classification{Category: models.TextLike, Bytes: v.Bytes(), IsBytes: true}
		}
		return models.Classification{Category: models.SequenceLike, Value: v, Len: v.Len()}
	case reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return models.Classification{Category: models.TextLike, Bytes: arrayBytes(v), IsBytes: true}
		}
		return models.Classification{Category: models.SequenceLike, Value: v, Len: v.Len()}
	case reflect.Map:
		if v.IsNil() {
			return scalar(nil)
		}
		return models.Classification{Category: models.SequenceLike, Value: v, Len: v.Len(), Keyed: true}
	case reflect.Struct:
		return models.Classification{
			Category: models.CompositeLike,
			Value:    v,
			Identity: id,
			TypeName: v.Type().String(),
		}
	case reflect.Chan:
		if v.IsNil() {
			return scalar(nil)
		}
		return resource("chan")
	case reflect.Func:
		if v.IsNil() {
			return scalar(nil)
		}
		return resource("func")
	case reflect.UnsafePointer:
		if v.Pointer() == 0 {
			return scalar(nil)
		}
		return resource("pointer")
	default:
		return unrecognized("Value", v.Type().String())
	}
}

// Elements returns the children of an index-addressed sequence in order.
func (c *Classifier) Elements(cls models.Classification) []models.Entry {
	entries := make([]models.Entry, 0, cls.Len)
	for i := 0; i < cls.Value.Len(); i++ {
		entries = append(entries, models.Entry{Value: cls.Value.Index(i)})
	}
	return entries
}

// MapEntries returns the children of a map with keys rendered to unique,
// normalized strings. Maps are unordered, so entries are sorted by key: first
// by family (signed, unsigned, float, string, bool, other), then numerically
// within a number family and by rendered text otherwise.
func (c *Classifier) MapEntries(cls models.Classification) []models.Entry {
	type keyed struct {
		raw  reflect.Value
		name string
		val  reflect.Value
	}

	items := make([]keyed, 0, cls.Value.Len())
	iter := cls.Value.MapRange()
	for iter.Next() {
		k := unwrapKey(iter.Key())
		items = append(items, keyed{raw: k, name: c.text.Normalize(keyName(k)), val: iter.Value()})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return keyLess(items[i].raw, items[i].name, items[j].raw, items[j].name)
	})

	seen := make(map[string]struct{}, len(items))
	entries := make([]models.Entry, 0, len(items))
	for _, item := range items {
		entries = append(entries, models.Entry{Key: uniqueKey(item.name, seen), Value: item.val})
	}
	return entries
}

// Fields returns the externally visible fields of a composite in declaration
// order, named according to the configured FieldNaming. Fields promoted from
// embedded structs are included; the embedded struct itself is not.
func (c *Classifier) Fields(cls models.Classification) []models.Entry {
	v := cls.Value
	fields := reflect.VisibleFields(v.Type())
	seen := make(map[string]struct{}, len(fields))
	entries := make([]models.Entry, 0, len(fields))

	for _, f := range fields {
		if !f.IsExported() {
			continue
		}
		if f.Anonymous && isStructLike(f.Type) {
			continue
		}
		name, ok := c.fieldName(f)
		if !ok {
			continue
		}
		fv, err := v.FieldByIndexErr(f.Index)
		if err != nil {
			// Promoted through a nil embedded pointer.
			continue
		}
		entries = append(entries, models.Entry{Key: uniqueKey(c.text.Normalize(name), seen), Value: fv})
	}
	return entries
}

func (c *Classifier) fieldName(f reflect.StructField) (string, bool) {
	switch c.naming {
	case NamingJSON:
		tag := f.Tag.Get("json")
		if tag == "-" {
			return "", false
		}
		if name, _, _ := strings.Cut(tag, ","); name != "" {
			return name, true
		}
		return f.Name, true
	case NamingSnake:
		return strcase.ToSnake(f.Name), true
	case NamingCamel:
		return strcase.ToLowerCamel(f.Name), true
	default:
		return f.Name, true
	}
}

func isStructLike(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}

func resourceKind(t reflect.Type) (string, bool) {
	switch {
	case t.Implements(connType):
		return "socket", true
	case t.Implements(listenerType):
		return "listener", true
	case t == fileType || t == fileType.Elem(),
		t.Implements(readerType), t.Implements(writerType), t.Implements(closerType):
		// Files are streams like any other reader or writer.
		return "stream", true
	}
	return "", false
}

func unwrapKey(k reflect.Value) reflect.Value {
	for i := 0; i < maxIndirections && k.Kind() == reflect.Interface && !k.IsNil(); i++ {
		k = k.Elem()
	}
	return k
}

func keyName(k reflect.Value) string {
	switch k.Kind() {
	case reflect.String:
		return k.String()
	case reflect.Bool:
		return strconv.FormatBool(k.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(k.Uint(), 10)
	case reflect.Float32:
		return strconv.FormatFloat(k.Float(), 'g', -1, 32)
	case reflect.Float64:
		return strconv.FormatFloat(k.Float(), 'g', -1, 64)
	case reflect.Interface:
		return "null"
	default:
		return placeholder.Unrecognized("Key", k.Type().String())
	}
}

// keyFamily ranks key kinds so that keys of different families never compare
// by value. Together with the per-family comparison this is a total order, so
// the result does not depend on map iteration order.
func keyFamily(k reflect.Value) int {
	switch {
	case isInt(k):
		return 0
	case isUint(k):
		return 1
	case isFloat(k):
		return 2
	case k.Kind() == reflect.String:
		return 3
	case k.Kind() == reflect.Bool:
		return 4
	default:
		return 5
	}
}

func keyLess(a reflect.Value, aName string, b reflect.Value, bName string) bool {
	if fa, fb := keyFamily(a), keyFamily(b); fa != fb {
		return fa < fb
	}
	switch {
	case isInt(a):
		if a.Int() != b.Int() {
			return a.Int() < b.Int()
		}
	case isUint(a):
		if a.Uint() != b.Uint() {
			return a.Uint() < b.Uint()
		}
	case isFloat(a):
		x, y := a.Float(), b.Float()
		// NaN sorts after every number.
		switch {
		case math.IsNaN(x) || math.IsNaN(y):
			if math.IsNaN(x) != math.IsNaN(y) {
				return math.IsNaN(y)
			}
		case x != y:
			return x < y
		}
	}
	if aName != bName {
		return aName < bName
	}
	if at, bt := a.Type().String(), b.Type().String(); at != bt {
		return at < bt
	}
	return keyRepr(a) < keyRepr(b)
}

// keyRepr renders a comparable key from its reflected contents without calling
// any of its methods. It separates keys that share a rendered name, such as two
// distinct array or struct keys.
func keyRepr(k reflect.Value) string {
	var b strings.Builder
	writeKeyRepr(&b, k, 0)
	return b.String()
}

func writeKeyRepr(b *strings.Builder, k reflect.Value, hops int) {
	if hops > maxIndirections {
		b.WriteString("...")
		return
	}
	switch k.Kind() {
	case reflect.Interface:
		if k.IsNil() {
			b.WriteString("nil")
			return
		}
		b.WriteString(k.Elem().Type().String())
		b.WriteByte(':')
		writeKeyRepr(b, k.Elem(), hops+1)
	case reflect.Array:
		b.WriteByte('[')
		for i := 0; i < k.Len(); i++ {
			if i > 0 {
				b.WriteByte(' ')
			}
			writeKeyRepr(b, k.Index(i), hops+1)
		}
		b.WriteByte(']')
	case reflect.Struct:
		b.WriteByte('{')
		for i := 0; i < k.NumField(); i++ {
			if i > 0 {
				b.WriteByte(' ')
			}
			writeKeyRepr(b, k.Field(i), hops+1)
		}
		b.WriteByte('}')
	case reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		fmt.Fprintf(b, "%#x", k.Pointer())
	case reflect.Complex64, reflect.Complex128:
		b.WriteString(strconv.FormatComplex(k.Complex(), 'g', -1, 128))
	case reflect.Invalid:
		b.WriteString("invalid")
	default:
		b.WriteString(keyName(k))
	}
}

func isInt(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUint(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func isFloat(v reflect.Value) bool {
	return v.Kind() == reflect.Float32 || v.Kind() == reflect.Float64
}

// uniqueKey returns name, or name with a " (n)" suffix if it was already used.
func uniqueKey(name string, seen map[string]struct{}) string {
	key := name
	for n := 2; ; n++ {
		if _, dup := seen[key]; !dup {
			break
		}
		key = fmt.Sprintf("%s (%d)", name, n)
	}
	seen[key] = struct{}{}
	return key
}

func arrayBytes(v reflect.Value) []byte {
	b := make([]byte, v.Len())
	for i := range b {
		b[i] = byte(v.Index(i).Uint())
	}
	return b
}

func number(s string) models.Classification {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return scalar(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return scalar(f)
	}
	return text(s)
}

func scalar(x interface{}) models.Classification {
	return models.Classification{Category: models.Scalar, Scalar: x}
}

func text(s string) models.Classification {
	return models.Classification{Category: models.TextLike, Text: s}
}

func resource(kind string) models.Classification {
	return models.Classification{Category: models.OpaqueResource, Kind: kind}
}

func unrecognized(category, description string) models.Classification {
	return models.Classification{Category: models.Unrecognized, Kind: category, Description: description}
}
