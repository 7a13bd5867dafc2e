package evaluator

import (
	"context"
	"errors"

	"github.com/funvibe/solidscript/internal/ast"
	"github.com/funvibe/solidscript/internal/diagnostics"
	"github.com/funvibe/solidscript/internal/pipeline"
)

// EvaluatorProcessor evaluates ctx.AstRoot into ctx.Result.
type EvaluatorProcessor struct {
	Exec *ExecContext
	// Context cancels the evaluation. Nil means context.Background().
	Context context.Context
}

func (ep *EvaluatorProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.Failed() {
		return ctx
	}

	eval := New(ep.Exec)
	if ep.Context != nil {
		eval.Context = ep.Context
	}
	if ctx.Logger != nil {
		eval.Logger = ctx.Logger.With("run", eval.RunID)
	}
	if ctx.FilePath != "" {
		eval.Logger = eval.Logger.With("file", ctx.FilePath)
	}

	result, err := eval.Run(ctx.AstRoot)
	if err != nil {
		ctx.AddError(toDiagnostic(ctx.SourceCode, err))
		return ctx
	}
	ctx.Result = result
	return ctx
}

func toDiagnostic(source string, err error) *diagnostics.DiagnosticError {
	var evalErr *Error
	if errors.As(err, &evalErr) {
		return evalErr.ToDiagnostic(source)
	}
	return diagnostics.NewSpanError(diagnostics.ErrR008, source, ast.Span{}, "evaluation cancelled: "+err.Error())
}

// MeshProcessor collapses ctx.Result and meshes it into ctx.Mesh.
type MeshProcessor struct {
	Exec *ExecContext
}

func (mp *MeshProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.Failed() || ctx.Result == nil {
		return ctx
	}
	mesh, err := ctx.Result.Mesh(mp.Exec.Kernel)
	if err != nil {
		ctx.AddError(diagnostics.NewSpanError(diagnostics.ErrK001, ctx.SourceCode, ast.Span{}, err.Error()))
		return ctx
	}
	ctx.Mesh = mesh
	return ctx
}
