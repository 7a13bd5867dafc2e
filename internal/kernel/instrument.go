package kernel

import (
	"log/slog"
	"sync/atomic"
	"time"
)

// Stats is a snapshot of the operations an Instrumented kernel has served.
type Stats struct {
	Primitives    int64
	Transforms    int64
	Unions        int64
	Differences   int64
	Intersections int64
	Fallbacks     int64
	Meshes        int64
	Clones        int64
	Frees         int64
	Failures      int64
	BooleanTime   time.Duration
}

// Booleans returns the total number of boolean operations.
func (s Stats) Booleans() int64 {
	return s.Unions + s.Differences + s.Intersections
}

// Instrumented wraps a Kernel, counting every call and logging boolean
// fallbacks and failures.
type Instrumented struct {
	inner  Kernel
	logger *slog.Logger

	primitives    atomic.Int64
	transforms    atomic.Int64
	unions        atomic.Int64
	differences   atomic.Int64
	intersections atomic.Int64
	fallbacks     atomic.Int64
	meshes        atomic.Int64
	clones        atomic.Int64
	frees         atomic.Int64
	failures      atomic.Int64
	booleanNanos  atomic.Int64
}

// Instrument wraps k. A nil logger discards log output.
func Instrument(k Kernel, logger *slog.Logger) *Instrumented {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Instrumented{inner: k, logger: logger}
}

// Unwrap returns the wrapped kernel.
func (k *Instrumented) Unwrap() Kernel { return k.inner }

func (k *Instrumented) Stats() Stats {
	return Stats{
		Primitives:    k.primitives.Load(),
		Transforms:    k.transforms.Load(),
		Unions:        k.unions.Load(),
		Differences:   k.differences.Load(),
		Intersections: k.intersections.Load(),
		Fallbacks:     k.fallbacks.Load(),
		Meshes:        k.meshes.Load(),
		Clones:        k.clones.Load(),
		Frees:         k.frees.Load(),
		Failures:      k.failures.Load(),
		BooleanTime:   time.Duration(k.booleanNanos.Load()),
	}
}

func (k *Instrumented) fail(op string, err error) {
	k.failures.Add(1)
	k.logger.Debug("kernel operation failed", "op", op, "err", err)
}

func (k *Instrumented) NewBox(x, y, z float64) (Shape, error) {
	k.primitives.Add(1)
	s, err := k.inner.NewBox(x, y, z)
	if err != nil {
		k.fail("box", err)
	}
	return s, err
}

func (k *Instrumented) NewCylinder(r, h float64, facets int) (Shape, error) {
	k.primitives.Add(1)
	s, err := k.inner.NewCylinder(r, h, facets)
	if err != nil {
		k.fail("cylinder", err)
	}
	return s, err
}

func (k *Instrumented) Transform(s Shape, m Matrix) (Shape, error) {
	k.transforms.Add(1)
	out, err := k.inner.Transform(s, m)
	if err != nil {
		k.fail("transform", err)
	}
	return out, err
}

func (k *Instrumented) Boolean(a, b Shape, op BooleanOp) (BooleanResult, error) {
	switch op {
	case Union:
		k.unions.Add(1)
	case Difference:
		k.differences.Add(1)
	case Intersection:
		k.intersections.Add(1)
	}

	start := time.Now()
	res, err := k.inner.Boolean(a, b, op)
	k.booleanNanos.Add(int64(time.Since(start)))
	if err != nil {
		k.fail(op.String(), err)
		return res, err
	}
	if res.Fallback {
		k.fallbacks.Add(1)
		k.logger.Warn("boolean operation used fallback algorithm", "op", op.String())
	}
	return res, nil
}

func (k *Instrumented) Mesh(s Shape) (*Mesh, error) {
	k.meshes.Add(1)
	m, err := k.inner.Mesh(s)
	if err != nil {
		k.fail("mesh", err)
	}
	return m, err
}

func (k *Instrumented) Clone(s Shape) (Shape, error) {
	k.clones.Add(1)
	out, err := k.inner.Clone(s)
	if err != nil {
		k.fail("clone", err)
	}
	return out, err
}

func (k *Instrumented) Free(s Shape) {
	k.frees.Add(1)
	k.inner.Free(s)
}
