package lexer

import (
	"github.com/funvibe/solidscript/internal/diagnostics"
	"github.com/funvibe/solidscript/internal/pipeline"
	"github.com/funvibe/solidscript/internal/token"
)

type LexerProcessor struct{}

func (lp *LexerProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	tokens := New(ctx.SourceCode).Tokenize()
	ctx.TokenStream = tokens

	last := tokens[len(tokens)-1]
	if last.Type == token.ILLEGAL {
		code := diagnostics.ErrP007
		if last.Literal == UnterminatedComment {
			code = diagnostics.ErrP005
		}
		ctx.AddError(diagnostics.NewError(code, last, "%s", last.Literal))
	}
	return ctx
}
