package blade

import (
	"strconv"
	"strings"

	"github.com/itsatony/go-blade/internal"
)

// NewViewCompiler creates a compiler with the control-flow directives plus
// the view directives (layouts, sections, stacks, partials) that call into
// a Renderer at run time.
func NewViewCompiler(compilationPath string, opts ...CompilerOption) (*Compiler, error) {
	c, err := NewCompiler(compilationPath, opts...)
	if err != nil {
		return nil, err
	}
	if err := c.registerViewDirectives(); err != nil {
		return nil, err
	}
	return c, nil
}

// viewStatement emits a runtime call whose result is discarded.
func viewStatement(fn string) internal.DirectiveHandler {
	return func(_ *internal.CompileState, expr string, _ bool) (string, error) {
		return internal.HostBlock(fn + "(" + expr + ");"), nil
	}
}

// viewEcho emits a runtime call whose result is written to the output.
func viewEcho(fn string) internal.DirectiveHandler {
	return func(_ *internal.CompileState, expr string, _ bool) (string, error) {
		return internal.HostBlock("echo " + fn + "(" + expr + ");"), nil
	}
}

func (c *Compiler) registerViewDirectives() error {
	statements := []struct {
		name  string
		arity internal.Arity
		fn    string
	}{
		{DirectiveExtends, internal.ArityRequired, FuncExtends},
		{DirectiveExtendsString, internal.ArityRequired, FuncExtendsString},
		{DirectiveSection, internal.ArityRequired, FuncSection},
		{DirectiveEndSection, internal.ArityNone, FuncEndSection},
		{DirectivePush, internal.ArityRequired, FuncPush},
		{DirectiveEndPush, internal.ArityNone, FuncEndPush},
	}
	for _, s := range statements {
		if err := c.register(s.name, s.arity, viewStatement(s.fn)); err != nil {
			return err
		}
	}

	echoes := []struct {
		name  string
		arity internal.Arity
		fn    string
	}{
		{DirectiveContent, internal.ArityNone, FuncContent},
		{DirectiveShow, internal.ArityNone, FuncShow},
		{DirectiveParent, internal.ArityNone, FuncParent},
		{DirectiveYield, internal.ArityRequired, FuncYield},
		{DirectiveStack, internal.ArityRequired, FuncStack},
		{DirectiveRender, internal.ArityRequired, FuncRender},
		{DirectiveRenderIfExists, internal.ArityRequired, FuncRenderIfExists},
		{DirectiveRenderString, internal.ArityRequired, FuncRenderString},
		{DirectiveRenderStringIfExists, internal.ArityRequired, FuncRenderStringIfExists},
		{DirectivePartial, internal.ArityRequired, FuncPartial},
		{DirectivePartialIfExists, internal.ArityRequired, FuncPartialIfExists},
		{DirectivePartialString, internal.ArityRequired, FuncPartialString},
		{DirectivePartialStringIfExists, internal.ArityRequired, FuncPartialStringIfExists},
		{DirectiveEach, internal.ArityRequired, FuncEach},
		{DirectiveEachIfExists, internal.ArityRequired, FuncEachIfExists},
		{DirectiveEachString, internal.ArityRequired, FuncEachString},
		{DirectiveEachStringIfExists, internal.ArityRequired, FuncEachStringIfExists},
	}
	for _, e := range echoes {
		if err := c.register(e.name, e.arity, viewEcho(e.fn)); err != nil {
			return err
		}
	}
	return nil
}

// AddViewDirective registers @name[(args)] as a call to the viewer's
// format callable of the same name. Registering a name twice is a no-op.
func (c *Compiler) AddViewDirective(name string) error {
	if c.HasDirective(name) {
		return nil
	}
	quoted := strconv.Quote(name)
	return c.register(name, internal.ArityOptional, func(_ *internal.CompileState, expr string, hasExpr bool) (string, error) {
		var b strings.Builder
		b.WriteString("echo ")
		b.WriteString(FuncFormat)
		b.WriteString("(")
		b.WriteString(quoted)
		if hasExpr && strings.TrimSpace(expr) != "" {
			b.WriteString(", ")
			b.WriteString(expr)
		}
		b.WriteString(");")
		return internal.HostBlock(b.String()), nil
	})
}
