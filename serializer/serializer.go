// Package serializer converts arbitrary Go values into bounded Value trees that
// are safe to encode and log: nesting is limited to a maximum depth, cycles
// through pointers collapse to placeholders, text is valid UTF-8 of at most
// MaxStringLength bytes, and opaque handles such as files and sockets are
// never read.
//
// A Serializer is safe for concurrent use; every call builds its own
// expansion state.
package serializer

import (
	"fmt"
	"log/slog"
	"reflect"
	"sync/atomic"

	"github.com/mcncl/gobound/internal/classifier"
	"github.com/mcncl/gobound/internal/models"
	"github.com/mcncl/gobound/internal/placeholder"
	"github.com/mcncl/gobound/internal/textnorm"
	"github.com/mcncl/gobound/internal/tracker"
)

const (
	// DefaultMaxDepth is the container depth used when none is configured.
	DefaultMaxDepth = 3
	// MaxStringLength is the maximum byte length of any Text value.
	MaxStringLength = textnorm.MaxStringLength
)

// Config holds the serializer options.
type Config struct {
	// ExpandObjects controls whether structs are expanded field by field or
	// rendered as "Object <type>" placeholders.
	ExpandObjects bool
	// MaxDepth is the depth used by Bound. Zero selects DefaultMaxDepth.
	MaxDepth int
	// FieldNaming is one of "go" (default), "json", "snake" or "camel".
	FieldNaming string
	// FallbackCharset names the charset used to decode text that is not valid
	// UTF-8. Empty replaces invalid bytes with U+FFFD.
	FallbackCharset string
}

// Option configures a Serializer.
type Option func(*Serializer)

// WithLogger sets the logger receiving debug records about collapsed values.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Serializer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Serializer bounds values according to its Config.
type Serializer struct {
	expandObjects atomic.Bool
	maxDepth      int
	classifier    *classifier.Classifier
	text          *textnorm.Normalizer
	logger        *slog.Logger
}

// New creates a Serializer. It fails only on an unknown FieldNaming or
// FallbackCharset.
func New(cfg Config, opts ...Option) (*Serializer, error) {
	text, err := textnorm.New(cfg.FallbackCharset)
	if err != nil {
		return nil, err
	}
	cls, err := classifier.NewClassifier(classifier.FieldNaming(cfg.FieldNaming), text)
	if err != nil {
		return nil, err
	}

	s := &Serializer{
		maxDepth:   cfg.MaxDepth,
		classifier: cls,
		text:       text,
		logger:     slog.New(slog.DiscardHandler),
	}
	if s.maxDepth == 0 {
		s.maxDepth = DefaultMaxDepth
	}
	s.expandObjects.Store(cfg.ExpandObjects)
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewDefault creates a Serializer with the default Config.
func NewDefault(opts ...Option) *Serializer {
	s, err := New(Config{}, opts...)
	if err != nil {
		panic(fmt.Sprintf("serializer: default config rejected: %v", err))
	}
	return s
}

var defaultSerializer = NewDefault()

// Serialize bounds v with a default Serializer (objects not expanded).
func Serialize(v interface{}, maxDepth int) Value {
	return defaultSerializer.Serialize(v, maxDepth)
}

// SerializeComposite expands the fields of composite v with a default Serializer.
func SerializeComposite(v interface{}, maxDepth int) Value {
	return defaultSerializer.SerializeComposite(v, maxDepth)
}

// Attr returns a log attribute holding the bounded form of v.
func Attr(key string, v interface{}) slog.Attr {
	return defaultSerializer.Attr(key, v)
}

// ExpandObjects reports whether structs are expanded.
func (s *Serializer) ExpandObjects() bool {
	return s.expandObjects.Load()
}

// SetExpandObjects changes whether structs are expanded. Calls already running
// keep the setting they started with.
func (s *Serializer) SetExpandObjects(expand bool) {
	s.expandObjects.Store(expand)
}

// MaxDepth returns the depth used by Bound.
func (s *Serializer) MaxDepth() int {
	return s.maxDepth
}

// Serialize converts v into a bounded Value. Containers at depth maxDepth or
// deeper (the root is depth 0) become placeholders; a negative maxDepth is
// treated as 0. Serialize never fails.
func (s *Serializer) Serialize(v interface{}, maxDepth int) Value {
	return s.run(reflect.ValueOf(v), maxDepth, false)
}

// SerializeComposite is like Serialize but expands structs even when
// ExpandObjects is false, for the whole call. Depth and cycle limits still
// apply. For a value that is not a struct it behaves exactly like Serialize.
// Forcing covers every struct reached from v, including structs inside
// slices and maps, not only structs nested directly in other structs.
func (s *Serializer) SerializeComposite(v interface{}, maxDepth int) Value {
	rv := reflect.ValueOf(v)
	forced := s.classifier.Classify(rv).Category == models.CompositeLike
	return s.run(rv, maxDepth, forced)
}

// Bound serializes v with the configured MaxDepth.
func (s *Serializer) Bound(v interface{}) Value {
	return s.Serialize(v, s.maxDepth)
}

// Attr returns a log attribute holding the bounded form of v at the configured MaxDepth.
func (s *Serializer) Attr(key string, v interface{}) slog.Attr {
	return slog.Any(key, s.Bound(v))
}

// call is the state of one top-level serialization.
type call struct {
	s      *Serializer
	state  *tracker.State
	expand bool
}

func (s *Serializer) run(v reflect.Value, maxDepth int, forced bool) (out Value) {
	c := &call{
		s:      s,
		state:  tracker.NewState(maxDepth),
		expand: forced || s.ExpandObjects(),
	}

	defer func() {
		if r := recover(); r != nil {
			typeName := "invalid"
			if v.IsValid() {
				typeName = v.Type().String()
			}
			s.logger.Warn("serializer recovered from panic", "type", typeName, "panic", r)
			out = Placeholder(placeholder.Unrecognized("Value", typeName))
		}
	}()

	return c.build(v, 0)
}

func (c *call) build(v reflect.Value, depth int) Value {
	cls := c.s.classifier.Classify(v)

	switch cls.Category {
	case models.Scalar:
		return scalarValue(cls.Scalar)
	case models.TextLike:
		if cls.IsBytes {
			return Text(c.s.text.NormalizeBytes(cls.Bytes))
		}
		return Text(c.s.text.Normalize(cls.Text))
	case models.SequenceLike:
		return c.sequence(cls, depth)
	case models.CompositeLike:
		return c.composite(cls, depth)
	case models.OpaqueResource:
		return Placeholder(placeholder.Resource(cls.Kind))
	default:
		return Placeholder(placeholder.Unrecognized(cls.Kind, cls.Description))
	}
}

func (c *call) sequence(cls models.Classification, depth int) Value {
	if tracker.ShouldCollapseContainer(depth, c.state.MaxDepth) {
		c.s.logger.Debug("collapsing sequence at depth limit", "depth", depth, "length", cls.Len)
		return Placeholder(placeholder.Array(cls.Len))
	}

	if cls.Keyed {
		entries := c.s.classifier.MapEntries(cls)
		fields := make([]Field, 0, len(entries))
		for _, e := range entries {
			fields = append(fields, Field{Key: e.Key, Value: c.build(e.Value, depth+1)})
		}
		return Map(fields...)
	}

	entries := c.s.classifier.Elements(cls)
	items := make([]Value, 0, len(entries))
	for _, e := range entries {
		items = append(items, c.build(e.Value, depth+1))
	}
	return Sequence(items...)
}

func (c *call) composite(cls models.Classification, depth int) Value {
	if !c.expand {
		return Placeholder(placeholder.Object(cls.TypeName))
	}
	if tracker.ShouldCollapseForCycle(cls.Identity, c.state) {
		c.s.logger.Debug("collapsing object already being expanded", "type", cls.TypeName, "depth", depth)
		return Placeholder(placeholder.Object(cls.TypeName))
	}
	if tracker.ShouldCollapseContainer(depth, c.state.MaxDepth) {
		c.s.logger.Debug("collapsing object at depth limit", "type", cls.TypeName, "depth", depth)
		return Placeholder(placeholder.Object(cls.TypeName))
	}
	return c.expandFields(cls, depth)
}

func (c *call) expandFields(cls models.Classification, depth int) Value {
	c.state.Push(cls.Identity)
	defer c.state.Pop(cls.Identity)

	entries := c.s.classifier.Fields(cls)
	fields := make([]Field, 0, len(entries))
	for _, e := range entries {
		fields = append(fields, Field{Key: e.Key, Value: c.build(e.Value, depth+1)})
	}
	return Map(fields...)
}

func scalarValue(x interface{}) Value {
	switch v := x.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(v)
	case int64:
		return Int(v)
	case float64:
		return Float(v)
	default:
		return Placeholder(placeholder.Unrecognized("Value", fmt.Sprintf("%T", x)))
	}
}
