package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mcncl/gobound/internal/config"
	"github.com/mcncl/gobound/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRun_WithOutputFile(t *testing.T) {
	originalCLI := CLI
	defer func() { CLI = originalCLI }()

	CLI.Input = writeInput(t, "input.json", `{"id": 1, "nested": {"a": {"b": {"c": [1]}}}}`)
	CLI.Output = filepath.Join(t.TempDir(), "out.json")
	CLI.InputFormat = "auto"

	cfg := config.NewConfig()
	cfg.Output.Indent = false
	err := run(&Context{Config: cfg})
	require.NoError(t, err)

	outputContent, err := os.ReadFile(CLI.Output)
	require.NoError(t, err)
	assert.Equal(t, `{"id":1,"nested":{"a":{"b":"Array of length 1"}}}`+"\n", string(outputContent))
}

func TestRun_YAMLToYAML(t *testing.T) {
	originalCLI := CLI
	defer func() { CLI = originalCLI }()

	CLI.Input = writeInput(t, "input.yml", "name: gobound\nlong: "+strings.Repeat("y", 2000)+"\n")
	CLI.Output = filepath.Join(t.TempDir(), "out.yml")
	CLI.InputFormat = "auto"

	cfg := config.NewConfig()
	cfg.Output.Format = "yaml"
	require.NoError(t, run(&Context{Config: cfg}))

	outputContent, err := os.ReadFile(CLI.Output)
	require.NoError(t, err)
	assert.Contains(t, string(outputContent), "name: gobound\n")
	assert.Contains(t, string(outputContent), "long: "+strings.Repeat("y", 1024)+"\n")
}

func TestRun_DebugLogsCollapses(t *testing.T) {
	originalCLI := CLI
	defer func() { CLI = originalCLI }()

	CLI.Input = writeInput(t, "input.json", `[[[[1]]]]`)
	CLI.Output = filepath.Join(t.TempDir(), "out.json")
	CLI.InputFormat = "json"

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	require.NoError(t, run(&Context{Debug: true, Config: config.NewConfig(), Logger: logger}))

	assert.Contains(t, logs.String(), "collapsing sequence at depth limit")
}

func TestParseInput_FromFile(t *testing.T) {
	originalCLI := CLI
	defer func() { CLI = originalCLI }()

	CLI.Input = writeInput(t, "input.json", `{"user": {"name": "Alice", "id": 42}}`)
	CLI.InputFormat = "auto"

	doc, err := parseInput()
	require.NoError(t, err)
	assert.NotNil(t, doc.Root)
}

func TestParseInput_FromStdin(t *testing.T) {
	originalCLI := CLI
	originalStdin := os.Stdin
	defer func() {
		CLI = originalCLI
		os.Stdin = originalStdin
	}()

	// Clear input file to force stdin reading
	CLI.Input = ""
	CLI.InputFormat = "yaml"

	r, w, err := os.Pipe()
	require.NoError(t, err)

	go func() {
		defer func() { _ = w.Close() }()
		_, _ = w.WriteString("- item: apple\n- item: banana\n")
	}()

	os.Stdin = r
	defer func() { _ = r.Close() }()

	doc, err := parseInput()
	require.NoError(t, err)
	items, ok := doc.Root.([]interface{})
	require.True(t, ok)
	assert.Len(t, items, 2)
}

func TestParseInput_EmptyFile(t *testing.T) {
	originalCLI := CLI
	defer func() { CLI = originalCLI }()

	CLI.Input = writeInput(t, "empty.json", "")
	CLI.InputFormat = "auto"

	_, err := parseInput()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestParseInput_InvalidJSON(t *testing.T) {
	originalCLI := CLI
	defer func() { CLI = originalCLI }()

	CLI.Input = writeInput(t, "invalid.json", `{"invalid": json}`)
	CLI.InputFormat = "auto"

	_, err := parseInput()
	assert.Error(t, err)
}

func TestParseInput_NonExistentFile(t *testing.T) {
	originalCLI := CLI
	defer func() { CLI = originalCLI }()

	CLI.Input = "/non/existent/file.json"
	CLI.InputFormat = "auto"

	_, err := parseInput()
	assert.Error(t, err)
}

func TestWriteOutput_ToFile(t *testing.T) {
	originalCLI := CLI
	defer func() { CLI = originalCLI }()

	CLI.Output = filepath.Join(t.TempDir(), "out.json")

	err := writeOutput("{\"a\":1}\n")
	require.NoError(t, err)

	content, err := os.ReadFile(CLI.Output)
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":1}\n", string(content))
}

func TestWriteOutput_FileError(t *testing.T) {
	originalCLI := CLI
	defer func() { CLI = originalCLI }()

	CLI.Output = "/non/existent/dir/output.json"

	err := writeOutput("{}")
	assert.Error(t, err)
}

func TestNewContext_FlagsOverrideConfigFile(t *testing.T) {
	originalCLI := CLI
	defer func() { CLI = originalCLI }()

	CLI.Config = writeInput(t, "gobound.yml", "serializer:\n  max_depth: 2\ntext:\n  fallback_charset: latin1\n")
	depth := 5
	CLI.MaxDepth = &depth
	CLI.Format = "yaml"

	ctx, err := newContext()
	require.NoError(t, err)
	assert.Equal(t, 5, ctx.Config.Serializer.MaxDepth)
	assert.Equal(t, "latin1", ctx.Config.Text.FallbackCharset)
	assert.Equal(t, "yaml", ctx.Config.Output.Format)
	assert.NotNil(t, ctx.Logger)
}

func TestNewContext_InvalidFlag(t *testing.T) {
	originalCLI := CLI
	defer func() { CLI = originalCLI }()

	CLI.Config = writeInput(t, "gobound.yml", "dev:\n  debug: false\n")
	depth := -1
	CLI.MaxDepth = &depth

	_, err := newContext()
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
	assert.Contains(t, errors.UserFriendlyError(err), "max_depth must not be negative")
}

func TestRun_ConfigChangesOutput(t *testing.T) {
	originalCLI := CLI
	defer func() { CLI = originalCLI }()

	// !!binary keeps the raw windows-1252 byte for "é" in the decoded string.
	CLI.Input = writeInput(t, "input.yml", "name: !!binary Y2Fm6Q==\nnested:\n  a:\n    b: 1\n")
	CLI.Output = filepath.Join(t.TempDir(), "out.json")
	CLI.InputFormat = "auto"
	CLI.Config = writeInput(t, "gobound.yml", "text:\n  fallback_charset: windows-1252\noutput:\n  indent: false\n")
	depth := 1
	CLI.MaxDepth = &depth

	ctx, err := newContext()
	require.NoError(t, err)
	require.NoError(t, run(ctx))

	outputContent, err := os.ReadFile(CLI.Output)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"café","nested":"Array of length 1"}`+"\n", string(outputContent))
}
