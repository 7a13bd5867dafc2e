package evaluator

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/funvibe/solidscript/internal/ast"
	"github.com/funvibe/solidscript/internal/config"
	"github.com/funvibe/solidscript/internal/kernel"
)

// ExecOptions configures an ExecContext.
type ExecOptions struct {
	// Workers bounds how many heavy builtins run at once. Zero means
	// config.DefaultWorkers.
	Workers int
	// Memoize caches heavy builtin results by call site and arguments.
	Memoize bool
	Logger  *slog.Logger
}

// ExecStats counts builtin invocations.
type ExecStats struct {
	Calls           int64
	HeavyCalls      int64
	MemoHits        int64
	MemoMisses      int64
	HeavyStatements int64
}

// ExecContext schedules builtin calls for any number of evaluators sharing
// one kernel. Heavy calls hold a worker slot while they run; with
// memoization on, a heavy call site evaluated again with the same argument
// values returns the earlier result.
type ExecContext struct {
	Kernel  kernel.Kernel
	Logger  *slog.Logger
	memoize bool
	workers int64

	sem   *semaphore.Weighted
	group singleflight.Group

	mu   sync.Mutex
	memo map[string]memoEntry

	calls, heavy, hits, misses, heavyStmts atomic.Int64
}

type memoEntry struct {
	// inputs keeps the argument objects reachable so the addresses used in
	// the key are not reused while the entry exists.
	inputs []Object
	value  Object
}

func NewExecContext(k kernel.Kernel, opts ExecOptions) *ExecContext {
	workers := opts.Workers
	if workers <= 0 {
		workers = config.DefaultWorkers
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ExecContext{
		Kernel:  k,
		Logger:  logger,
		memoize: opts.Memoize,
		workers: int64(workers),
		sem:     semaphore.NewWeighted(int64(workers)),
		memo:    make(map[string]memoEntry),
	}
}

func (x *ExecContext) Workers() int { return int(x.workers) }

func (x *ExecContext) Memoizing() bool { return x.memoize }

func (x *ExecContext) Stats() ExecStats {
	return ExecStats{
		Calls:           x.calls.Load(),
		HeavyCalls:      x.heavy.Load(),
		MemoHits:        x.hits.Load(),
		MemoMisses:      x.misses.Load(),
		HeavyStatements: x.heavyStmts.Load(),
	}
}

// MemoSize returns the number of cached results.
func (x *ExecContext) MemoSize() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.memo)
}

// Invoke runs fn for the call at node.
func (x *ExecContext) Invoke(ctx context.Context, node *ast.Node, fn BuiltinFunc, c *CallCtx) (Object, error) {
	x.calls.Add(1)
	if c.Kernel == nil {
		c.Kernel = x.Kernel
	}
	if !c.Heavy {
		return fn.Call(c)
	}
	x.heavy.Add(1)
	if !x.memoize {
		return x.run(ctx, fn, c)
	}

	key := memoKey(node, c)
	if v, ok := x.lookup(key); ok {
		x.hits.Add(1)
		return v, nil
	}
	v, err, _ := x.group.Do(key, func() (interface{}, error) {
		if v, ok := x.lookup(key); ok {
			x.hits.Add(1)
			return v, nil
		}
		x.misses.Add(1)
		v, err := x.run(ctx, fn, c)
		if err != nil {
			return nil, err
		}
		x.store(key, c, v)
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Object), nil
}

// run holds a worker slot for the duration of a heavy call.
func (x *ExecContext) run(ctx context.Context, fn BuiltinFunc, c *CallCtx) (Object, error) {
	if err := x.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer x.sem.Release(1)
	return fn.Call(c)
}

func (x *ExecContext) lookup(key string) (Object, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	e, ok := x.memo[key]
	return e.value, ok
}

func (x *ExecContext) store(key string, c *CallCtx, v Object) {
	inputs := make([]Object, 0, len(c.Positional)+len(c.Named)+len(c.Children))
	inputs = append(inputs, c.Positional...)
	for _, o := range c.Named {
		inputs = append(inputs, o)
	}
	inputs = append(inputs, c.Children...)

	x.mu.Lock()
	x.memo[key] = memoEntry{inputs: inputs, value: v}
	x.mu.Unlock()
}

// Forget drops every memoized result.
func (x *ExecContext) Forget() {
	x.mu.Lock()
	x.memo = make(map[string]memoEntry)
	x.mu.Unlock()
}

func (x *ExecContext) countHeavyStatement() {
	x.heavyStmts.Add(1)
}

// memoKey identifies a call by its node and the content of its arguments.
// Numbers compare by value; solids and functions by identity.
func memoKey(node *ast.Node, c *CallCtx) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%p|%s(", node, c.Name)
	for _, o := range c.Positional {
		writeKeyPart(&b, o)
		b.WriteByte(',')
	}
	names := make([]string, 0, len(c.Named))
	for name := range c.Named {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b.WriteString(name)
		b.WriteByte('=')
		writeKeyPart(&b, c.Named[name])
		b.WriteByte(',')
	}
	b.WriteString("){")
	for _, o := range c.Children {
		writeKeyPart(&b, o)
		b.WriteByte(',')
	}
	b.WriteByte('}')
	return b.String()
}

func writeKeyPart(b *strings.Builder, o Object) {
	switch v := o.(type) {
	case *Number:
		b.WriteString(strconv.FormatFloat(v.Value, 'g', -1, 64))
	case *SolidValue:
		fmt.Fprintf(b, "s%p", v.Solid)
	case *Builtin:
		fmt.Fprintf(b, "f%p", v)
	default:
		fmt.Fprintf(b, "%s%p", o.Type(), o)
	}
}
