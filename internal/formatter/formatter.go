package formatter

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mcncl/gobound/serializer"
	"gopkg.in/yaml.v3"
)

const indentWidth = 2

// Formatter writes bounded values as JSON or YAML text
type Formatter struct {
	format string
	indent bool
}

// NewFormatter creates a Formatter for "json" or "yaml". For YAML, indent
// false selects flow style on a single line.
func NewFormatter(format string, indent bool) (*Formatter, error) {
	switch format {
	case "json", "yaml":
	default:
		return nil, fmt.Errorf("unsupported output format '%s'", format)
	}
	return &Formatter{format: format, indent: indent}, nil
}

// Format renders v. The result always ends with a newline.
func (f *Formatter) Format(v serializer.Value) (string, error) {
	if f.format == "yaml" {
		return f.formatYAML(v)
	}
	return f.formatJSON(v)
}

func (f *Formatter) formatJSON(v serializer.Value) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	// Bounded text is meant to be read, not embedded in HTML
	enc.SetEscapeHTML(false)
	if f.indent {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("failed to encode JSON: %w", err)
	}
	return buf.String(), nil
}

func (f *Formatter) formatYAML(v serializer.Value) (string, error) {
	marshaled, err := v.MarshalYAML()
	if err != nil {
		return "", fmt.Errorf("failed to build YAML: %w", err)
	}
	node, ok := marshaled.(*yaml.Node)
	if !ok {
		return "", fmt.Errorf("unexpected YAML representation %T", marshaled)
	}
	if !f.indent {
		node.Style = yaml.FlowStyle
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(indentWidth)
	if err := enc.Encode(node); err != nil {
		return "", fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to encode YAML: %w", err)
	}
	return buf.String(), nil
}
