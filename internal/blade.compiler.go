package internal

import (
	"errors"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// CompilerPass rewrites one text segment. Passes never see host code.
type CompilerPass func(text string) (string, error)

// echoOrPattern rewrites `$var or fallback` into a null-coalescing echo.
var echoOrPattern = regexp.MustCompile(`^(\$[\s\S]+?)\s+or\s+([\s\S]+)$`)

// Scan options per template construct
var (
	commentScan   = ScanOptions{IgnoreQuotes: true}
	rawEchoScan   = ScanOptions{IgnoreQuotes: true, Trim: true, NormalizeNewlines: true}
	echoScan      = ScanOptions{Trim: true, NormalizeNewlines: true}
	directiveScan = ScanOptions{Recursive: true, Trim: true, NormalizeNewlines: true}
)

// DirectiveCompiler turns template text into host code. Each instance owns
// its directive registry and compiler passes; Compile is safe for
// concurrent use once registration is done.
type DirectiveCompiler struct {
	registry *DirectiveRegistry
	mu       sync.RWMutex
	passes   []CompilerPass
	logger   *zap.Logger
}

// NewDirectiveCompiler creates a compiler with the control-flow directives
// registered.
func NewDirectiveCompiler(logger *zap.Logger) *DirectiveCompiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := NewDirectiveRegistry()
	RegisterControlFlowDirectives(registry)

	return &DirectiveCompiler{
		registry: registry,
		logger:   logger,
	}
}

// Registry returns the compiler's directive registry
func (c *DirectiveCompiler) Registry() *DirectiveRegistry {
	return c.registry
}

// AddPass appends a user compiler pass. Passes run after directives, in
// registration order.
func (c *DirectiveCompiler) AddPass(pass CompilerPass) {
	if pass == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.passes = append(c.passes, pass)
}

// PassCount returns the number of user passes
func (c *DirectiveCompiler) PassCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.passes)
}

// Compile turns template text into host code.
func (c *DirectiveCompiler) Compile(text string) (string, error) {
	c.logger.Debug(LogMsgCompileStart, zap.Int(LogFieldLength, len(text)))

	offsets := []*OffsetMap{{}}
	body, verbatim := extractVerbatim(text, offsets[0])
	state := NewCompileState()

	for _, pass := range c.builtinPasses(state) {
		m := &OffsetMap{}
		var err error
		body, err = MapTextOffsets(body, m, pass)
		if err != nil {
			return "", sourceOffset(err, offsets)
		}
		offsets = append(offsets, m)
	}
	for _, pass := range c.userPasses() {
		var err error
		body, err = MapText(body, pass)
		if err != nil {
			return "", err
		}
	}

	if err := state.CheckBalanced(); err != nil {
		return "", err
	}

	c.logger.Debug(LogMsgCompileDone,
		zap.Int(LogFieldLength, len(body)),
		zap.Int(LogFieldVerbatim, verbatim.Len()))

	return verbatim.Restore(body), nil
}

// builtinPasses returns the fixed comment, raw echo, echo and directive
// passes in that order.
func (c *DirectiveCompiler) builtinPasses(state *CompileState) []SegmentFunc {
	return []SegmentFunc{
		compileComments,
		compileRawEchos,
		compileEchos,
		func(text string, base int, _ *OffsetMap) (string, error) {
			out, err := c.compileDirectives(state, text)
			var ce *CompileError
			if errors.As(err, &ce) && ce.Offset >= 0 {
				ce.Offset += base
			}
			return out, err
		},
	}
}

func (c *DirectiveCompiler) userPasses() []CompilerPass {
	c.mu.RLock()
	defer c.mu.RUnlock()

	passes := make([]CompilerPass, 0, len(c.passes))
	for _, pass := range c.passes {
		passes = append(passes, wrapPass(pass))
	}
	return passes
}

// sourceOffset rewrites the offset of a compile error, taken in the text
// after the passes recorded in offsets, into an offset of the template.
func sourceOffset(err error, offsets []*OffsetMap) error {
	var ce *CompileError
	if !errors.As(err, &ce) || ce.Offset < 0 {
		return err
	}
	for i := len(offsets) - 1; i >= 0; i-- {
		ce.Offset = offsets[i].Source(ce.Offset)
	}
	return err
}

func wrapPass(pass CompilerPass) CompilerPass {
	return func(text string) (string, error) {
		out, err := pass(text)
		if err != nil {
			var ce *CompileError
			if errors.As(err, &ce) {
				return "", err
			}
			return "", NewCompileError(ErrMsgPassFailed, "", -1, err)
		}
		return out, nil
	}
}

// HostBlock wraps host code in block markers.
func HostBlock(code string) string {
	return HostOpen + " " + code + " " + HostClose
}

func compileComments(text string, _ int, m *OffsetMap) (string, error) {
	return replaceSpans(text, CommentOpen, CommentClose, commentScan, false, m, func(span Span) string {
		content := strings.ReplaceAll(span.Content, HostCommentClose, "*\\/")
		return HostBlock(HostCommentOpen + content + HostCommentClose)
	}), nil
}

func compileRawEchos(text string, _ int, m *OffsetMap) (string, error) {
	return replaceSpans(text, RawEchoOpen, RawEchoClose, rawEchoScan, false, m, func(span Span) string {
		if span.Content == "" {
			return ""
		}
		return HostBlock(KeywordEcho + " " + span.Content + HostStmtSep)
	}), nil
}

func compileEchos(text string, _ int, m *OffsetMap) (string, error) {
	return replaceSpans(text, EchoOpen, EchoClose, echoScan, true, m, func(span Span) string {
		expr := span.Content
		if expr == "" {
			return ""
		}
		if m := echoOrPattern.FindStringSubmatch(expr); m != nil {
			expr = m[1] + " ?? " + m[2]
		}
		return HostBlock(KeywordEcho + " " + FuncNameEscape + ParenOpen + expr + ParenClose + HostStmtSep)
	}), nil
}

// replaceSpans rewrites every start...end span of text through fn. When
// escapable, a span preceded by @ keeps its literal text and loses the @.
// Unterminated spans leave the rest of text untouched. Rewrites are
// recorded in m.
func replaceSpans(text, start, end string, opts ScanOptions, escapable bool, m *OffsetMap, fn func(Span) string) string {
	if !strings.Contains(text, start) {
		return text
	}

	var sb strings.Builder
	sb.Grow(len(text))
	pos := 0
	for {
		m.Mark(sb.Len(), pos)
		idx := strings.Index(text[pos:], start)
		if idx < 0 {
			sb.WriteString(text[pos:])
			break
		}
		openAt := pos + idx
		span, ok := ScanAt(text, start, end, openAt, opts)
		if !ok {
			sb.WriteString(text[pos:])
			break
		}
		if escapable && openAt > pos && text[openAt-1] == DirectiveMarker {
			sb.WriteString(text[pos : openAt-1])
			m.Mark(sb.Len(), openAt)
			sb.WriteString(text[openAt:span.End])
		} else {
			sb.WriteString(text[pos:openAt])
			m.Mark(sb.Len(), openAt)
			sb.WriteString(fn(span))
		}
		pos = span.End
	}
	return sb.String()
}

// compileDirectives dispatches every @name occurrence of text through the
// registry.
func (c *DirectiveCompiler) compileDirectives(state *CompileState, text string) (string, error) {
	if strings.IndexByte(text, DirectiveMarker) < 0 {
		return text, nil
	}

	names := c.registry.Names()
	var sb strings.Builder
	sb.Grow(len(text))
	pos := 0
	for {
		idx := strings.IndexByte(text[pos:], DirectiveMarker)
		if idx < 0 {
			sb.WriteString(text[pos:])
			break
		}
		at := pos + idx
		sb.WriteString(text[pos:at])

		if strings.HasPrefix(text[at:], VerbatimPlaceholder) {
			sb.WriteString(VerbatimPlaceholder)
			pos = at + len(VerbatimPlaceholder)
			continue
		}

		if at+1 < len(text) && text[at+1] == DirectiveMarker {
			if name := matchName(text, at+2, names); name != "" {
				sb.WriteByte(DirectiveMarker)
				sb.WriteString(name)
				pos = at + 2 + len(name)
				continue
			}
			sb.WriteString(text[at : at+2])
			pos = at + 2
			continue
		}

		name := matchName(text, at+1, names)
		if name == "" {
			sb.WriteByte(DirectiveMarker)
			pos = at + 1
			continue
		}
		spec, _ := c.registry.Resolve(name)

		// After a word, a directive that needs an expression only matches
		// with one, so user@if.com stays text.
		if at > 0 && isIdentByte(text[at-1]) && spec.Arity == ArityRequired && !hasParen(text, at+1+len(name)) {
			sb.WriteByte(DirectiveMarker)
			pos = at + 1
			continue
		}

		match, err := ParseDirective(text, at, spec)
		if err != nil {
			return "", err
		}

		code, err := spec.Handler(state, match.Expr, match.HasExpr)
		if err != nil {
			return "", attachDirective(err, name, at)
		}

		c.logger.Debug(LogMsgDirectiveCompiled,
			zap.String(LogFieldDirective, name),
			zap.Int(LogFieldOffset, at))

		sb.WriteString(code)
		pos = match.End
	}
	return sb.String(), nil
}

// ParseDirective reads the directive occurrence for spec starting at the @
// at offset at.
func ParseDirective(text string, at int, spec *DirectiveSpec) (DirectiveMatch, error) {
	m := DirectiveMatch{
		Name:  spec.Name,
		Start: at,
		End:   at + 1 + len(spec.Name),
	}

	if spec.Arity != ArityNone {
		i := skipHorizontalSpaces(text, m.End)
		if i < len(text) && text[i] == ParenOpen[0] {
			span, ok := ScanAt(text, ParenOpen, ParenClose, i, directiveScan)
			switch {
			case ok:
				m.Expr = span.Content
				m.HasExpr = true
				m.End = span.End
			case spec.Arity == ArityRequired:
				return m, NewCompileError(ErrMsgDirectiveUnterminated, spec.Name, at, nil)
			}
		}
		if !m.HasExpr && spec.Arity == ArityRequired {
			return m, NewCompileError(ErrMsgDirectiveNeedsExpr, spec.Name, at, nil)
		}
	}

	if m.End < len(text) && text[m.End] == DirectiveTerminator {
		m.End++
	}
	return m, nil
}

func hasParen(text string, i int) bool {
	i = skipHorizontalSpaces(text, i)
	return i < len(text) && text[i] == ParenOpen[0]
}

func attachDirective(err error, name string, at int) error {
	var ce *CompileError
	if errors.As(err, &ce) {
		if ce.Directive == "" {
			ce.Directive = name
		}
		if ce.Offset < 0 {
			ce.Offset = at
		}
		return ce
	}
	return NewCompileError(ErrMsgDirectiveFailed, name, at, err)
}
