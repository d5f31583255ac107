package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/mcncl/gobound/internal/config"
	"github.com/mcncl/gobound/internal/errors"
	"github.com/mcncl/gobound/internal/formatter"
	"github.com/mcncl/gobound/internal/parser"
	"github.com/mcncl/gobound/serializer"
)

// CLI defines the command-line interface
var CLI struct {
	Input       string `help:"Path to input JSON or YAML file. If not specified, reads from stdin." short:"i" type:"path"`
	Output      string `help:"Path to output file. If not specified, writes to stdout." short:"o" type:"path"`
	InputFormat string `help:"Input format: auto, json or yaml. Auto uses the file extension, JSON for stdin." default:"auto" enum:"auto,json,yaml"`
	Format      string `help:"Output format: json or yaml. Overrides the config file." short:"f"`
	MaxDepth    *int   `help:"Maximum container depth (0 uses the default of 3); deeper containers become placeholders." short:"m"`
	Config      string `help:"Path to config file. Defaults to the nearest .gobound.yml." short:"c" type:"path"`
	Debug       bool   `help:"Enable debug logging." short:"d"`
	Version     bool   `help:"Show version information." short:"v"`
	Interactive bool   `help:"Run in interactive mode, allowing direct input with Ctrl+D to process." short:"I"`
}

// Context holds the runtime context
type Context struct {
	Debug  bool
	Config *config.Config
	Logger *slog.Logger
}

// Version information
const (
	Version = "0.1.0"
)

func main() {
	cli := kong.Must(&CLI,
		kong.Name("gobound"),
		kong.Description("Bound JSON or YAML documents: limit nesting depth and string length"),
		kong.UsageOnError(),
	)

	// Check if no arguments provided and set interactive mode by default
	if len(os.Args) == 1 {
		CLI.Interactive = true
	}

	if _, err := cli.Parse(os.Args[1:]); err != nil {
		// Usage is already shown by kong.UsageOnError()
		os.Exit(1)
	}

	if CLI.Version {
		fmt.Printf("gobound version %s\n", Version)
		return
	}

	ctx, err := newContext()
	if err == nil {
		err = run(ctx)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", errors.UserFriendlyError(err))
		fmt.Fprintf(os.Stderr, "\nFor help, run: gobound --help\n")
		os.Exit(1)
	}
}

// newContext resolves the configuration from the config file and flags
func newContext() (*Context, error) {
	configPath := CLI.Config
	if configPath == "" {
		configPath = config.FindConfigFile()
	}

	cfg, err := config.LoadConfigWithCLI(configPath, cliOverrides())
	if err != nil {
		return nil, errors.NewConfigError("failed to load configuration", err)
	}

	return &Context{
		Debug:  cfg.Dev.Debug,
		Config: cfg,
		Logger: newLogger(cfg.Dev.Debug),
	}, nil
}

// cliOverrides collects the flags that were explicitly set
func cliOverrides() config.Overrides {
	return config.Overrides{
		MaxDepth: CLI.MaxDepth,
		Format:   CLI.Format,
		Debug:    CLI.Debug,
	}
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// run executes the main program logic
func run(ctx *Context) error {
	cfg := ctx.Config
	if cfg == nil {
		cfg = config.NewConfig()
	}
	logger := ctx.Logger
	if logger == nil {
		logger = newLogger(ctx.Debug)
	}

	// 1. Parse input
	doc, err := parseInput()
	if err != nil {
		return err
	}
	logger.Debug("parsed input", "format", string(doc.Format))

	// 2. Bound the document
	s, err := serializer.New(cfg.SerializerConfig(), serializer.WithLogger(logger))
	if err != nil {
		return errors.NewConfigError("failed to create serializer", err)
	}
	bounded := s.Bound(doc.Root)

	// 3. Render
	f, err := formatter.NewFormatter(cfg.Output.Format, cfg.Output.Indent)
	if err != nil {
		return errors.NewConfigError("failed to create formatter", err)
	}
	out, err := f.Format(bounded)
	if err != nil {
		return errors.NewSerializeError("failed to render bounded value", err)
	}

	// 4. Output the result
	return writeOutput(out)
}

// parseInput reads the document from file or stdin
func parseInput() (parser.Document, error) {
	format, err := parser.ParseFormat(CLI.InputFormat)
	if err != nil {
		return parser.Document{}, err
	}

	if CLI.Input != "" {
		return parser.ParseFile(CLI.Input, format)
	}

	stdinInfo, err := os.Stdin.Stat()
	if err != nil {
		return parser.Document{}, errors.NewInputError("failed to access stdin", err)
	}

	if (stdinInfo.Mode() & os.ModeCharDevice) != 0 {
		// Terminal is interactive (not piped)
		if CLI.Interactive {
			return readInteractiveInput(format)
		}
		return parser.Document{}, errors.NewInputError("no input provided", errors.ErrNoInput)
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return parser.Document{}, errors.NewInputError("failed to read from stdin", err)
	}

	if len(data) == 0 {
		return parser.Document{}, errors.NewInputError("empty input received from stdin", errors.ErrEmptyInput)
	}

	return parser.ParseString(string(data), format)
}

// writeOutput writes the rendered value to file or stdout
func writeOutput(out string) error {
	if CLI.Output != "" {
		if err := os.WriteFile(CLI.Output, []byte(out), 0o644); err != nil {
			return errors.NewOutputError(fmt.Sprintf("failed to write to file '%s'", CLI.Output), err)
		}
		fmt.Fprintf(os.Stderr, "Bounded output written to %s\n", CLI.Output)
		return nil
	}

	if _, err := io.WriteString(os.Stdout, out); err != nil {
		return errors.NewOutputError("failed to write to stdout", err)
	}
	return nil
}

// readInteractiveInput lets users paste a document and signal completion
// with Ctrl+D (EOF)
func readInteractiveInput(format parser.Format) (parser.Document, error) {
	fmt.Fprintln(os.Stderr, "gobound Interactive Mode")
	fmt.Fprintln(os.Stderr, "Paste your JSON or YAML below and press Ctrl+D (or Ctrl+Z on Windows) when done:")

	data, err := io.ReadAll(bufio.NewReader(os.Stdin))
	if err != nil {
		return parser.Document{}, errors.NewInputError("error reading input", err)
	}
	if len(data) == 0 {
		return parser.Document{}, errors.NewInputError("empty input received", errors.ErrEmptyInput)
	}

	fmt.Fprintln(os.Stderr, "\nProcessing input...")
	return parser.ParseString(string(data), format)
}
