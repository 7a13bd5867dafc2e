package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/kr/pretty"
	"golang.org/x/sync/errgroup"

	"github.com/funvibe/solidscript/internal/config"
	"github.com/funvibe/solidscript/internal/diagnostics"
	"github.com/funvibe/solidscript/internal/evaluator"
	"github.com/funvibe/solidscript/internal/export"
	"github.com/funvibe/solidscript/internal/kernel"
	"github.com/funvibe/solidscript/internal/kernel/memkernel"
	"github.com/funvibe/solidscript/internal/lexer"
	"github.com/funvibe/solidscript/internal/meshcache"
	"github.com/funvibe/solidscript/internal/parser"
	"github.com/funvibe/solidscript/internal/pipeline"
	"github.com/funvibe/solidscript/internal/prettyprinter"
)

const kernelName = "memkernel"

// job is one script to process.
type job struct {
	name   string
	path   string
	source string

	errors []*diagnostics.DiagnosticError
	mesh   *kernel.Mesh
	cached bool
	// stdout holds output printed after all jobs finish, in input order.
	stdout bytes.Buffer
}

type app struct {
	opts   *options
	cfg    *config.Config
	logger *slog.Logger
	kernel *kernel.Instrumented
	exec   *evaluator.ExecContext
	cache  *meshcache.Cache
	multi  bool
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, color bool) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return 2
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return 2
	}

	jobs, err := collectJobs(opts, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return 1
	}

	logger := newLogger(cfg.Log, stderr)
	k := kernel.Instrument(memkernel.New(), logger)
	a := &app{
		opts:   opts,
		cfg:    cfg,
		logger: logger,
		kernel: k,
		exec: evaluator.NewExecContext(k, evaluator.ExecOptions{
			Workers: cfg.Workers,
			Memoize: cfg.Memoize,
			Logger:  logger,
		}),
		multi: len(jobs) > 1,
	}
	if cfg.Cache.Path != "" && !opts.dumpAST && !opts.fmtSource {
		a.cache, err = meshcache.Open(cfg.Cache.Path)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %s\n", err)
			return 1
		}
		defer a.cache.Close()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for _, j := range jobs {
		g.Go(func() error { return a.process(gctx, j) })
	}
	err = g.Wait()

	failed := false
	for _, j := range jobs {
		for _, d := range j.errors {
			diagnostics.Render(stderr, j.source, d, color)
			failed = true
		}
		stdout.Write(j.stdout.Bytes())
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		failed = true
	}
	if opts.stats {
		a.printStats(stderr, jobs)
	}
	if failed {
		return 1
	}
	return 0
}

func collectJobs(opts *options, stdin io.Reader) ([]*job, error) {
	switch {
	case opts.expr != "":
		return []*job{{name: "expr", source: opts.expr}}, nil
	case len(opts.files) == 0:
		if stdin == nil {
			return nil, fmt.Errorf("no input: pass a script file, -e or pipe a script on stdin")
		}
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return []*job{{name: "stdin", source: string(data)}}, nil
	}

	paths, err := expandPaths(opts.files)
	if err != nil {
		return nil, err
	}
	jobs := make([]*job, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading input: %w", err)
		}
		base := filepath.Base(path)
		jobs = append(jobs, &job{
			name:   strings.TrimSuffix(base, filepath.Ext(base)),
			path:   path,
			source: string(data),
		})
	}
	return jobs, nil
}

// expandPaths replaces every directory argument by the script files it
// directly contains.
func expandPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("reading input: %w", err)
		}
		for _, e := range entries {
			if !e.IsDir() && slices.Contains(config.SourceFileExtensions, filepath.Ext(e.Name())) {
				paths = append(paths, filepath.Join(arg, e.Name()))
			}
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no script files in %s", strings.Join(args, ", "))
	}
	return paths, nil
}

func (a *app) process(ctx context.Context, j *job) error {
	logger := a.logger.With("script", j.name)

	var key string
	if a.cache != nil {
		key = meshcache.Key(j.source, kernelName)
		mesh, ok, err := a.cache.Get(ctx, key)
		if err != nil {
			logger.Warn("mesh cache read failed", "error", err)
		} else if ok {
			logger.Debug("mesh cache hit")
			j.mesh, j.cached = mesh, true
			return a.write(j)
		}
	}

	pctx := pipeline.NewPipelineContext(j.source)
	pctx.FilePath = j.path
	pctx.Logger = logger

	stages := []pipeline.Processor{&lexer.LexerProcessor{}, &parser.ParserProcessor{}}
	evaluate := !a.opts.dumpAST && !a.opts.fmtSource
	if evaluate {
		stages = append(stages,
			&evaluator.EvaluatorProcessor{Exec: a.exec, Context: ctx},
			&evaluator.MeshProcessor{Exec: a.exec},
		)
	}
	pctx = pipeline.New(stages...).Run(pctx)
	if pctx.Failed() {
		j.errors = pctx.Errors
		return nil
	}

	switch {
	case a.opts.dumpAST:
		pretty.Fprintf(&j.stdout, "%# v\n", pctx.AstRoot)
		return nil
	case a.opts.fmtSource:
		j.stdout.WriteString(prettyprinter.Format(pctx.AstRoot))
		return nil
	}

	j.mesh = pctx.Mesh
	if a.cache != nil {
		if err := a.cache.Put(ctx, key, j.mesh); err != nil {
			logger.Warn("mesh cache write failed", "error", err)
		}
	}
	return a.write(j)
}

// destination returns the output path for j, or "" for stdout.
func (a *app) destination(j *job) string {
	ext := export.Extension(a.cfg.Output.Format)
	switch {
	case a.opts.output == "-":
		return ""
	case a.opts.output != "" && a.multi:
		return filepath.Join(a.opts.output, j.name+ext)
	case a.opts.output != "":
		return a.opts.output
	case j.path == "":
		return ""
	}
	return strings.TrimSuffix(j.path, filepath.Ext(j.path)) + ext
}

func (a *app) write(j *job) error {
	dest := a.destination(j)
	if dest == "" {
		return export.Write(&j.stdout, a.cfg.Output.Format, j.name, j.mesh)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	if err := export.Write(f, a.cfg.Output.Format, j.name, j.mesh); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", dest, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", dest, err)
	}
	a.logger.Debug("mesh written", "script", j.name, "path", dest)
	return nil
}

func (a *app) printStats(w io.Writer, jobs []*job) {
	for _, j := range jobs {
		if j.mesh == nil {
			continue
		}
		note := ""
		if j.cached {
			note = " (cached)"
		}
		fmt.Fprintf(w, "%s: %d vertices, %d triangles%s\n", j.name, j.mesh.VertexCount(), j.mesh.TriangleCount(), note)
	}
	ks := a.kernel.Stats()
	fmt.Fprintf(w, "kernel: %d primitives, %d transforms, %d unions, %d differences, %d intersections, %d fallbacks, boolean time %s\n",
		ks.Primitives, ks.Transforms, ks.Unions, ks.Differences, ks.Intersections, ks.Fallbacks, ks.BooleanTime)
	es := a.exec.Stats()
	fmt.Fprintf(w, "builtins: %d calls, %d heavy, %d memo hits, %d heavy statements\n",
		es.Calls, es.HeavyCalls, es.MemoHits, es.HeavyStatements)
}
