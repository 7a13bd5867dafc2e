package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/mattn/go-isatty"

	"github.com/funvibe/solidscript/internal/config"
)

// options are the command line settings. Values left unset fall back to the
// configuration file.
type options struct {
	configPath string
	output     string
	format     string
	dumpAST    bool
	fmtSource  bool
	stats      bool
	cachePath  string
	memo       bool
	workers    int
	verbose    bool
	logFormat  string
	expr       string
	files      []string

	set map[string]bool
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{set: make(map[string]bool)}
	fs := flag.NewFlagSet("solidscript", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "configuration file (default: nearest "+config.DefaultConfigFile+")")
	fs.StringVar(&opts.output, "o", "", "output file, or directory when several scripts are given; - for stdout")
	fs.StringVar(&opts.format, "format", "", "mesh format: stl or obj")
	fs.BoolVar(&opts.dumpAST, "ast", false, "print the syntax tree instead of evaluating")
	fs.BoolVar(&opts.fmtSource, "fmt", false, "print the formatted script instead of evaluating")
	fs.BoolVar(&opts.stats, "stats", false, "print mesh sizes and kernel counters")
	fs.StringVar(&opts.cachePath, "cache", "", "SQLite mesh cache file")
	fs.BoolVar(&opts.memo, "memo", false, "memoize heavy builtin calls")
	fs.IntVar(&opts.workers, "workers", 0, "concurrent heavy calls and scripts")
	fs.BoolVar(&opts.verbose, "v", false, "debug logging")
	fs.StringVar(&opts.logFormat, "log-format", "", "log format: text or json")
	fs.StringVar(&opts.expr, "e", "", "evaluate the given script text")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: solidscript [flags] [file%s ...]\n", config.SourceFileExt)
		fmt.Fprintln(stderr, "Reads the script from stdin when no file and no -e is given.")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })
	opts.files = fs.Args()

	if opts.expr != "" && len(opts.files) > 0 {
		return nil, fmt.Errorf("-e cannot be combined with script files")
	}
	if opts.dumpAST && opts.fmtSource {
		return nil, fmt.Errorf("-ast and -fmt are mutually exclusive")
	}
	return opts, nil
}

// loadConfig reads the configuration file and applies flag overrides.
func loadConfig(opts *options) (*config.Config, error) {
	path := opts.configPath
	if path == "" {
		found, err := config.FindConfig(".")
		if err != nil {
			return nil, err
		}
		path = found
	}

	cfg := config.Default()
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if opts.set["workers"] {
		cfg.Workers = opts.workers
	}
	if opts.set["memo"] {
		cfg.Memoize = opts.memo
	}
	if opts.set["format"] {
		cfg.Output.Format = opts.format
	}
	if opts.set["cache"] {
		cfg.Cache.Path = opts.cachePath
	}
	if opts.set["log-format"] {
		cfg.Log.Format = opts.logFormat
	}
	if opts.verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	hopts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(slog.NewTextHandler(w, hopts))
}

func useColor(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func main() {
	// Catch panics and show user-friendly error
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r)
			}
			fmt.Fprintf(os.Stderr, "Internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "This is a bug. Please report it.")
			os.Exit(1)
		}
	}()

	var stdin io.Reader
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		stdin = os.Stdin
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], stdin, os.Stdout, os.Stderr, useColor(os.Stderr))
	stop()
	os.Exit(code)
}
