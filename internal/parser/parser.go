package parser

import (
	"encoding/json"
	stderrors "errors" // Standard errors package
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mcncl/gobound/internal/errors" // Custom errors package
	"gopkg.in/yaml.v3"
)

// Format names an input encoding
type Format string

const (
	FormatAuto Format = ""
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a format name given on the command line
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return FormatAuto, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return FormatAuto, errors.NewInputError(fmt.Sprintf("unknown input format '%s'", name), errors.ErrInvalidInput)
	}
}

// FormatFromPath picks YAML for .yml/.yaml files and JSON for everything else
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Document is a single decoded input value
type Document struct {
	Root   interface{}
	Format Format
}

// Parse decodes exactly one value from reader. FormatAuto is read as JSON.
func Parse(reader io.Reader, format Format) (Document, error) {
	switch format {
	case FormatYAML:
		return parseYAML(reader)
	case FormatAuto, FormatJSON:
		return parseJSON(reader)
	default:
		return Document{}, errors.NewInputError(fmt.Sprintf("unknown input format '%s'", format), errors.ErrInvalidInput)
	}
}

func parseJSON(reader io.Reader) (Document, error) {
	decoder := json.NewDecoder(reader)
	decoder.UseNumber() // Keep numbers as json.Number so integers stay exact

	var root interface{}
	if err := decoder.Decode(&root); err != nil {
		if stderrors.Is(err, io.EOF) {
			return Document{}, errors.NewParsingError("input is empty or contains only whitespace", errors.ErrEmptyInput)
		}
		var syntaxError *json.SyntaxError
		if stderrors.As(err, &syntaxError) {
			return Document{}, errors.NewParsingError(
				fmt.Sprintf("JSON syntax error at offset %d", syntaxError.Offset),
				errors.ErrInvalidInput,
			)
		}
		return Document{}, errors.NewParsingError("failed to decode JSON", err)
	}

	// Only whitespace may follow the first value
	var trailing interface{}
	if err := decoder.Decode(&trailing); err == nil {
		return Document{}, errors.NewParsingError("multiple JSON values found at the root", errors.ErrMultipleValues)
	} else if !stderrors.Is(err, io.EOF) {
		return Document{}, errors.NewParsingError("invalid trailing data after first JSON value", err)
	}

	return Document{Root: root, Format: FormatJSON}, nil
}

func parseYAML(reader io.Reader) (Document, error) {
	decoder := yaml.NewDecoder(reader)

	var root interface{}
	if err := decoder.Decode(&root); err != nil {
		if stderrors.Is(err, io.EOF) {
			return Document{}, errors.NewParsingError("input is empty or contains only whitespace", errors.ErrEmptyInput)
		}
		return Document{}, errors.NewParsingError(
			fmt.Sprintf("YAML syntax error: %v", err),
			errors.ErrInvalidInput,
		)
	}

	var trailing interface{}
	if err := decoder.Decode(&trailing); err == nil {
		return Document{}, errors.NewParsingError("multiple YAML documents found", errors.ErrMultipleValues)
	} else if !stderrors.Is(err, io.EOF) {
		return Document{}, errors.NewParsingError("invalid trailing YAML document", err)
	}

	return Document{Root: root, Format: FormatYAML}, nil
}

// ParseString parses a value from a string
func ParseString(input string, format Format) (Document, error) {
	if strings.TrimSpace(input) == "" {
		return Document{}, errors.NewInputError("input string is empty or consists only of whitespace", errors.ErrEmptyInput)
	}
	return Parse(strings.NewReader(input), format)
}

// ParseFile parses a value from a file path. FormatAuto picks the format from
// the file extension.
func ParseFile(filePath string, format Format) (Document, error) {
	if strings.TrimSpace(filePath) == "" {
		return Document{}, errors.NewInputError("file path is empty", errors.ErrInvalidFilePath)
	}
	if format == FormatAuto {
		format = FormatFromPath(filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return Document{}, errors.NewInputError(
				fmt.Sprintf("file '%s' not found", filePath),
				errors.ErrFileNotFound,
			)
		}
		return Document{}, errors.NewInputError(
			fmt.Sprintf("failed to open file '%s'", filePath),
			err,
		)
	}
	defer func() {
		if err := file.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Error closing file: %v\n", err)
		}
	}()

	stat, err := file.Stat()
	if err != nil {
		return Document{}, errors.NewInputError(
			fmt.Sprintf("failed to get file stats for '%s'", filePath),
			err,
		)
	}
	if stat.Size() == 0 {
		return Document{}, errors.NewInputError(
			fmt.Sprintf("input file '%s' is empty", filePath),
			errors.ErrFileEmpty,
		)
	}

	return Parse(file, format)
}
