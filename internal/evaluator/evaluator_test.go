package evaluator

import (
	"context"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/funvibe/solidscript/internal/ast"
	"github.com/funvibe/solidscript/internal/geometry"
	"github.com/funvibe/solidscript/internal/kernel"
	"github.com/funvibe/solidscript/internal/kernel/kerneltest"
	"github.com/funvibe/solidscript/internal/kernel/memkernel"
	"github.com/funvibe/solidscript/internal/parser"
)

const scenario = `x = 2;
translate(z=-5, y=-5) union() {
    cube(x, 30, 20);
    translate(z=5, y=5) anti() cube(10, 10, 10);
}`

func parse(t *testing.T, src string) []*ast.Node {
	t.Helper()
	nodes, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	return nodes
}

func run(t *testing.T, k kernel.Kernel, src string) (*geometry.Solid, error) {
	t.Helper()
	return New(NewExecContext(k, ExecOptions{})).Run(parse(t, src))
}

func mustRun(t *testing.T, k kernel.Kernel, src string) *geometry.Solid {
	t.Helper()
	s, err := run(t, k, src)
	if err != nil {
		t.Fatalf("Run(%q): %v", src, err)
	}
	return s
}

// evalBody evaluates src as a plain body in a scope holding the builtins.
func evalBody(t *testing.T, k kernel.Kernel, src string) (Object, error) {
	t.Helper()
	env := NewEnvironment()
	RegisterBuiltins(env)
	return New(NewExecContext(k, ExecOptions{})).EvalBody(parse(t, src), env)
}

func expectEvalError(t *testing.T, src string, kind ErrorKind) *Error {
	t.Helper()
	_, err := run(t, kerneltest.New(), src)
	if err == nil {
		t.Fatalf("expected %s error for %q, got none", kind, src)
	}
	var evalErr *Error
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected *Error for %q, got %T: %v", src, err, err)
	}
	if evalErr.Kind != kind {
		t.Fatalf("expected %s for %q, got %v", kind, src, evalErr)
	}
	return evalErr
}

func boxArgs(rec *kerneltest.Recorder) [][]float64 {
	var out [][]float64
	for _, c := range rec.Calls() {
		if c.Op == "box" || c.Op == "cylinder" {
			out = append(out, c.Args)
		}
	}
	return out
}

func TestLetChainingEvaluates(t *testing.T) {
	v, err := evalBody(t, kerneltest.New(), "a = 1; b = 2; b")
	if err != nil {
		t.Fatal(err)
	}
	n, ok := v.(*Number)
	if !ok || n.Value != 2 {
		t.Fatalf("got %s, want 2", v.Inspect())
	}
}

func TestNumbers(t *testing.T) {
	tests := []struct {
		src  string
		want float64
	}{
		{"1 + 2 * 3 - 4 / 2 % 3", 5},
		{"(1 + 2) * 3", 9},
		{"10 - 4 - 3", 3},
		{"-2 * 3", -6},
		{"7 % 4", 3},
		{"a = 1; b = a + 1; a = 10; a + b", 12},
		{"x = 2; y = x * x; y * y", 16},
	}
	for _, tt := range tests {
		v, err := evalBody(t, kerneltest.New(), tt.src)
		if err != nil {
			t.Errorf("%q: %v", tt.src, err)
			continue
		}
		if n, ok := v.(*Number); !ok || n.Value != tt.want {
			t.Errorf("%q = %s, want %g", tt.src, v.Inspect(), tt.want)
		}
	}

	v, err := evalBody(t, kerneltest.New(), "1 / 0")
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsInf(v.(*Number).Value, 1) {
		t.Errorf("1 / 0 = %s", v.Inspect())
	}
}

func TestMixedBodyRejected(t *testing.T) {
	tests := []string{
		"cube(1, 1, 1); 5",
		"cube(); a = 1; a",
		"union() { cube(); 2 }",
	}
	for _, src := range tests {
		err := expectEvalError(t, src, MixedBodyResult)
		if !strings.Contains(err.Message, "not both") {
			t.Errorf("unexpected message %q", err.Message)
		}
	}

	if _, err := evalBody(t, kerneltest.New(), "cube(1, 1, 1); 5"); err == nil {
		t.Error("EvalBody accepted a body with geometry and a return value")
	}
}

func TestBodyDiscardsNumbers(t *testing.T) {
	rec := kerneltest.New()
	s := mustRun(t, rec, "1 + 2; cube(); 3;")
	if s.Len() != 1 {
		t.Errorf("result has %d items, want 1", s.Len())
	}
}

func TestEmptyScript(t *testing.T) {
	rec := kerneltest.New()
	s := mustRun(t, rec, "// nothing")
	if !s.IsEmpty() {
		t.Errorf("empty script produced %s", s)
	}
	if len(rec.Calls()) != 0 {
		t.Errorf("kernel called for an empty script: %v", rec.Ops())
	}
}

func TestEvalErrors(t *testing.T) {
	tests := []struct {
		src  string
		kind ErrorKind
		span ast.Span
	}{
		{"cube(q);", UndefinedVariable, ast.Span{Start: 5, End: 6}},
		{"sphere(1);", UndefinedFunction, ast.Span{Start: 0, End: 9}},
		{"a = 1; a();", NotCallable, ast.Span{Start: 7, End: 10}},
		{"1 + cube();", NotANumber, ast.Span{Start: 0, End: 10}},
		{"cube() * 2;", NotANumber, ast.Span{Start: 0, End: 10}},
		{"union() { 5 }", TypeMismatch, ast.Span{Start: 0, End: 13}},
		{"cube(x=union());", TypeMismatch, ast.Span{Start: 0, End: 15}},
		{"translate(1) { 2 }", TypeMismatch, ast.Span{Start: 0, End: 18}},
		{"cube(w=1);", InvalidArgument, ast.Span{Start: 0, End: 9}},
		{"cube(1, 2, 3, 4);", InvalidArgument, ast.Span{Start: 0, End: 16}},
		{"anti(1) cube();", InvalidArgument, ast.Span{Start: 0, End: 14}},
		{"cylinder($fn=1/0);", InvalidArgument, ast.Span{Start: 0, End: 17}},
		{"a = 1; b = 2; b", TypeMismatch, ast.Span{Start: 0, End: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			err := expectEvalError(t, tt.src, tt.kind)
			if err.Span != tt.span {
				t.Errorf("span = %v, want %v", err.Span, tt.span)
			}
		})
	}
}

func TestErrorsStopEvaluation(t *testing.T) {
	rec := kerneltest.New()
	_, err := run(t, rec, "cube(1); cube(q); cube(3);")
	if err == nil {
		t.Fatal("expected error")
	}
	if got := boxArgs(rec); len(got) != 1 {
		t.Errorf("evaluation continued after the error: %v", got)
	}
}

func TestArgumentOrder(t *testing.T) {
	rec := kerneltest.New()
	_, err := run(t, rec, "translate(cube(1), y=cube(2)) cube(3);")
	var evalErr *Error
	if !errors.As(err, &evalErr) || evalErr.Kind != TypeMismatch {
		t.Fatalf("expected TypeMismatch, got %v", err)
	}
	want := [][]float64{{1, 1, 1}, {2, 1, 1}, {3, 1, 1}}
	if got := boxArgs(rec); !reflect.DeepEqual(got, want) {
		t.Errorf("arguments evaluated as %v, want %v", got, want)
	}

	rec.Reset()
	expectEvalError(t, "translate(q, y=cube(2)) cube(3);", UndefinedVariable)
}

func TestCubeArguments(t *testing.T) {
	tests := []struct {
		src  string
		want []float64
	}{
		{"cube();", []float64{1, 1, 1}},
		{"cube(2);", []float64{2, 1, 1}},
		{"cube(2, y=3);", []float64{2, 3, 1}},
		{"cube(z=4);", []float64{1, 1, 4}},
		{"cube(2, x=5);", []float64{5, 1, 1}},
		{"cube(0, 0, 0);", []float64{1e-3, 1e-3, 1e-3}},
		{"cube(-5, 2, 0.0001);", []float64{1e-3, 2, 1e-3}},
	}
	for _, tt := range tests {
		rec := kerneltest.New()
		mustRun(t, rec, tt.src)
		got := boxArgs(rec)
		if len(got) != 1 || !reflect.DeepEqual(got[0], tt.want) {
			t.Errorf("%s built %v, want %v", tt.src, got, tt.want)
		}
	}
}

func TestCylinderArguments(t *testing.T) {
	tests := []struct {
		src  string
		want []float64
	}{
		{"cylinder();", []float64{1, 1, 10}},
		{"cylinder(2, 3, 7.9);", []float64{2, 3, 7}},
		{"cylinder(d=4, h=2, $fn=2);", []float64{2, 2, 3}},
		{"cylinder(r=0, h=0);", []float64{1e-3, 1e-3, 10}},
		{"cylinder(h=5, r=0.5);", []float64{0.5, 5, 10}},
	}
	for _, tt := range tests {
		rec := kerneltest.New()
		mustRun(t, rec, tt.src)
		got := boxArgs(rec)
		if len(got) != 1 || !reflect.DeepEqual(got[0], tt.want) {
			t.Errorf("%s built %v, want %v", tt.src, got, tt.want)
		}
	}
}

func TestCylinderRadiusAndDiameter(t *testing.T) {
	tests := []string{
		"cylinder(r=1, d=2);",
		"cylinder(d=2, r=1);",
		"cylinder(r=0.5, d=7);",
		"cylinder(3, d=2);",
	}
	for _, src := range tests {
		err := expectEvalError(t, src, InvalidArgument)
		if err.Message != "cannot specify both diameter and radius" {
			t.Errorf("%s: message %q", src, err.Message)
		}
	}
}

func TestKernelErrorsAreLocated(t *testing.T) {
	boom := errors.New("boom")
	rec := kerneltest.New()
	rec.FailOn = map[string]error{"box": boom}

	_, err := run(t, rec, "union() {\n  cube();\n}")
	var evalErr *Error
	if !errors.As(err, &evalErr) || evalErr.Kind != KernelError {
		t.Fatalf("expected KernelError, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Error("kernel error is not wrapped")
	}
	if evalErr.Span != (ast.Span{Start: 12, End: 18}) {
		t.Errorf("span = %v, want the cube() call", evalErr.Span)
	}

	rec = kerneltest.New()
	rec.FailOn = map[string]error{"difference": boom}
	_, err = run(t, rec, "union() { cube(); anti() cube(); }")
	if !errors.As(err, &evalErr) || evalErr.Kind != KernelError || !strings.Contains(evalErr.Message, "difference") {
		t.Fatalf("expected difference KernelError, got %v", err)
	}
}

func TestFallbackIsNotAnError(t *testing.T) {
	rec := kerneltest.New()
	rec.Fallback = true
	s := mustRun(t, rec, "union() { cube(); cube(2); }")
	if s.Len() != 1 {
		t.Errorf("got %s", s)
	}
}

func TestScenario(t *testing.T) {
	rec := kerneltest.New()
	s := mustRun(t, rec, scenario)

	if s.Len() != 1 {
		t.Fatalf("result has %d items, want 1", s.Len())
	}
	if _, ok := s.Shape(); !ok {
		t.Fatal("result is not a collapsed shape")
	}

	want := []string{"box", "box", "clone", "transform", "difference", "free", "free", "transform"}
	if got := rec.Ops(); !reflect.DeepEqual(got, want) {
		t.Fatalf("kernel calls = %v, want %v", got, want)
	}
	if got := boxArgs(rec); !reflect.DeepEqual(got, [][]float64{{2, 30, 20}, {10, 10, 10}}) {
		t.Errorf("boxes = %v", got)
	}

	calls := rec.Calls()
	hole := calls[3]
	if !hole.Matrix.ApproxEqual(kernel.Translation(0, 5, 5), 1e-12) {
		t.Errorf("hole transform = %v", hole.Matrix)
	}
	if diff := calls[4]; diff.Inputs[0] != calls[2].Result || diff.Inputs[1] != hole.Result {
		t.Errorf("difference inputs = %v", diff)
	}
	outer := calls[7]
	if outer.Inputs[0] != calls[4].Result || !outer.Matrix.ApproxEqual(kernel.Translation(0, -5, -5), 1e-12) {
		t.Errorf("outer transform = %v", outer)
	}
}

// A second top-level statement makes the implicit union fuse two solids.
func TestScenarioWithSecondStatement(t *testing.T) {
	rec := kerneltest.New()
	s := mustRun(t, rec, scenario+"\ntranslate(x=-10, y=2, z=2) cube(20, 6, 6);")
	if s.Len() != 1 {
		t.Fatalf("result has %d items, want 1", s.Len())
	}
	want := []string{"difference", "union"}
	if got := rec.BooleanOps(); !reflect.DeepEqual(got, want) {
		t.Errorf("boolean calls = %v, want %v", got, want)
	}
}

func TestScenarioGeometry(t *testing.T) {
	s := mustRun(t, memkernel.New(), scenario)
	shape, ok := s.Shape()
	if !ok {
		t.Fatal("result is not a collapsed shape")
	}
	tests := []struct {
		p    [3]float64
		want bool
	}{
		{[3]float64{1, 5, 5}, false},
		{[3]float64{1, 20, 12}, true},
		{[3]float64{1, -4, -4}, true},
		{[3]float64{5, -4, -4}, false},
		{[3]float64{1, 24, 14}, true},
		{[3]float64{1, 26, 0}, false},
	}
	for _, tt := range tests {
		got, err := memkernel.Contains(shape, tt.p)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("Contains(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
	min, max, ok, err := memkernel.Bounds(shape)
	if err != nil || !ok {
		t.Fatalf("Bounds: %v %v", ok, err)
	}
	if min != [3]float64{0, -5, -5} || max != [3]float64{2, 25, 15} {
		t.Errorf("bounds = %v %v", min, max)
	}
}

func TestIntersection(t *testing.T) {
	rec := kerneltest.New()
	mustRun(t, rec, "intersection() { cube(2); translate(x=1) cube(2); }")
	if got := rec.BooleanOps(); !reflect.DeepEqual(got, []string{"intersection"}) {
		t.Errorf("boolean calls = %v", got)
	}

	s := mustRun(t, memkernel.New(), "intersection() { cube(2); translate(x=1) cube(2); }")
	shape, _ := s.Shape()
	for _, tt := range []struct {
		p    [3]float64
		want bool
	}{
		{[3]float64{1.5, 1, 1}, true},
		{[3]float64{0.5, 1, 1}, false},
		{[3]float64{2.5, 1, 1}, false},
	} {
		if got, _ := memkernel.Contains(shape, tt.p); got != tt.want {
			t.Errorf("Contains(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestAntiOnlyScriptIsEmpty(t *testing.T) {
	rec := kerneltest.New()
	s := mustRun(t, rec, "anti() cube(); translate(x=1) anti() cube(2);")
	if !s.IsEmpty() {
		t.Errorf("got %s, want the empty solid", s)
	}
	if n := len(rec.BooleanOps()); n != 0 {
		t.Errorf("%d boolean calls for an empty result", n)
	}
}

func TestTranslateAndAntiAreDeferred(t *testing.T) {
	rec := kerneltest.New()
	v, err := evalBody(t, rec, "translate(1, 2, 3) anti() translate(z=1) cube();")
	if err != nil {
		t.Fatal(err)
	}
	if got := rec.Ops(); !reflect.DeepEqual(got, []string{"box"}) {
		t.Fatalf("kernel calls = %v, want only the box", got)
	}
	items := v.(*SolidValue).Solid.Items()
	if len(items) != 1 || !items[0].Anti {
		t.Fatalf("items = %+v", items)
	}
	if !items[0].Matrix().ApproxEqual(kernel.Translation(1, 2, 4), 1e-12) {
		t.Errorf("transform = %v", items[0].Matrix())
	}
}

func TestCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := New(NewExecContext(kerneltest.New(), ExecOptions{}))
	e.Context = ctx
	if _, err := e.Run(parse(t, "cube();")); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestIsNodeHeavy(t *testing.T) {
	env := NewEnvironment()
	RegisterBuiltins(env)
	tests := []struct {
		src  string
		want bool
	}{
		{"cube();", true},
		{"union() { cube(); }", true},
		{"translate(x=1) cube();", false},
		{"anti() cube();", false},
		{"a = cube(); a", true},
		{"a = 1; cube();", true},
		{"a = 1; a + 2", false},
		{"1 + 2", false},
	}
	for _, tt := range tests {
		nodes := parse(t, tt.src)
		if got := IsBodyHeavy(env, nodes); got != tt.want {
			t.Errorf("IsBodyHeavy(%q) = %v, want %v", tt.src, got, tt.want)
		}
	}
}
