package evaluator

import (
	"sync"
	"testing"

	"github.com/funvibe/solidscript/internal/ast"
	"github.com/funvibe/solidscript/internal/kernel/kerneltest"
)

func TestMemoizationAcrossRuns(t *testing.T) {
	rec := kerneltest.New()
	exec := NewExecContext(rec, ExecOptions{Memoize: true})
	nodes := parse(t, "union() { cube(1); cube(2); }")

	for i := 0; i < 2; i++ {
		if _, err := New(exec).Run(nodes); err != nil {
			t.Fatal(err)
		}
	}

	if n := rec.Count("box"); n != 2 {
		t.Errorf("box built %d times, want 2", n)
	}
	if n := rec.Count("union"); n != 1 {
		t.Errorf("union computed %d times, want 1", n)
	}
	want := ExecStats{Calls: 8, HeavyCalls: 8, MemoHits: 3, MemoMisses: 5, HeavyStatements: 6}
	if got := exec.Stats(); got != want {
		t.Errorf("stats = %+v, want %+v", got, want)
	}

	exec.Forget()
	if exec.MemoSize() != 0 {
		t.Error("Forget left entries behind")
	}
}

func TestNoMemoizationByDefault(t *testing.T) {
	rec := kerneltest.New()
	exec := NewExecContext(rec, ExecOptions{})
	nodes := parse(t, "union() { cube(1); cube(2); }")
	for i := 0; i < 2; i++ {
		if _, err := New(exec).Run(nodes); err != nil {
			t.Fatal(err)
		}
	}
	if n := rec.Count("box"); n != 4 {
		t.Errorf("box built %d times, want 4", n)
	}
	if exec.MemoSize() != 0 || exec.Stats().MemoHits != 0 {
		t.Error("memo used while disabled")
	}
	if exec.Workers() != 8 {
		t.Errorf("default workers = %d", exec.Workers())
	}
}

func TestMemoKeysOnArgumentValues(t *testing.T) {
	node := ast.NewNode(ast.Span{}, &ast.Call{Name: "cube"})
	call := func(x float64) *CallCtx {
		return &CallCtx{
			Name:       "cube",
			Positional: []Object{&Number{Value: x}},
			Named:      map[string]Object{"z": &Number{Value: 3}, "y": &Number{Value: 2}},
		}
	}
	if memoKey(node, call(1)) != memoKey(node, call(1)) {
		t.Error("equal arguments give different keys")
	}
	if memoKey(node, call(1)) == memoKey(node, call(2)) {
		t.Error("different arguments share a key")
	}
	other := ast.NewNode(ast.Span{}, &ast.Call{Name: "cube"})
	if memoKey(node, call(1)) == memoKey(other, call(1)) {
		t.Error("different call sites share a key")
	}
}

func TestConcurrentRunsShareMemo(t *testing.T) {
	rec := kerneltest.New()
	exec := NewExecContext(rec, ExecOptions{Memoize: true, Workers: 2})
	nodes := parse(t, "cube(4, 5, 6);")

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := New(exec).Run(nodes); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
	if n := rec.Count("box"); n != 1 {
		t.Errorf("box built %d times, want 1", n)
	}
}
