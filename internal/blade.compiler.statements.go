package internal

import (
	"strconv"
	"strings"
)

// LoopFrame tracks one open foreach during a compile.
type LoopFrame struct {
	EmptyVar      string
	ItemsVar      string
	LoopVar       string
	Depth         int
	ParentLoopVar string
	EmptyOpened   bool
}

// CompileState is the per-compile scratch space handed to directive
// handlers. It never outlives one Compile call.
type CompileState struct {
	frames   []*LoopFrame
	loopSeq  int
	metadata map[string]any
}

// NewCompileState creates an empty compile state
func NewCompileState() *CompileState {
	return &CompileState{}
}

// LoopDepth returns the number of open foreach frames
func (s *CompileState) LoopDepth() int {
	return len(s.frames)
}

// PushLoop opens a foreach frame. The outermost frame has depth 0 and a
// null parent.
func (s *CompileState) PushLoop() *LoopFrame {
	s.loopSeq++
	id := strconv.Itoa(s.loopSeq)

	parent := KeywordNull
	if n := len(s.frames); n > 0 {
		parent = s.frames[n-1].LoopVar
	}

	frame := &LoopFrame{
		EmptyVar:      VariableSigil + LoopEmptyVarPrefix + id,
		ItemsVar:      VariableSigil + LoopItemsVarPrefix + id,
		LoopVar:       VariableSigil + LoopStateVarPrefix + id,
		Depth:         len(s.frames),
		ParentLoopVar: parent,
	}
	s.frames = append(s.frames, frame)
	return frame
}

// TopLoop returns the innermost open frame.
func (s *CompileState) TopLoop() (*LoopFrame, bool) {
	if len(s.frames) == 0 {
		return nil, false
	}
	return s.frames[len(s.frames)-1], true
}

// PopLoop closes the innermost frame.
func (s *CompileState) PopLoop() (*LoopFrame, bool) {
	frame, ok := s.TopLoop()
	if !ok {
		return nil, false
	}
	s.frames = s.frames[:len(s.frames)-1]
	return frame, true
}

// CheckBalanced reports loops left open at the end of a compile.
func (s *CompileState) CheckBalanced() error {
	if len(s.frames) > 0 {
		return NewCompileError(ErrMsgLoopNotClosed, DirectiveForeach, -1, nil)
	}
	return nil
}

// Set stores a value for the rest of the compile. Custom directives use it
// to pair openers with closers.
func (s *CompileState) Set(key string, value any) {
	if s.metadata == nil {
		s.metadata = make(map[string]any)
	}
	s.metadata[key] = value
}

// Get returns a value stored with Set
func (s *CompileState) Get(key string) (any, bool) {
	v, ok := s.metadata[key]
	return v, ok
}

// RegisterControlFlowDirectives registers the built-in control-flow
// directives on r.
func RegisterControlFlowDirectives(r *DirectiveRegistry) {
	r.MustRegister(DirectiveIf, ArityRequired, blockOpener(KeywordIf, false))
	r.MustRegister(DirectiveElseIf, ArityRequired, blockOpener(KeywordElseIf, false))
	r.MustRegister(DirectiveElse, ArityNone, fixed(KeywordElse+string(HostBlockColon)))
	r.MustRegister(DirectiveEndIf, ArityNone, fixed(KeywordEndIf+HostStmtSep))

	r.MustRegister(DirectiveUnless, ArityRequired, blockOpener(KeywordIf, true))
	r.MustRegister(DirectiveElseUnless, ArityRequired, blockOpener(KeywordElseIf, true))
	r.MustRegister(DirectiveEndUnless, ArityNone, fixed(KeywordEndIf+HostStmtSep))

	r.MustRegister(DirectiveFor, ArityRequired, blockOpener(KeywordFor, false))
	r.MustRegister(DirectiveEndFor, ArityNone, fixed(KeywordEndFor+HostStmtSep))

	r.MustRegister(DirectiveWhile, ArityRequired, blockOpener(KeywordWhile, false))
	r.MustRegister(DirectiveEndWhile, ArityNone, fixed(KeywordEndWhile+HostStmtSep))

	r.MustRegister(DirectiveSwitch, ArityRequired, blockOpener(KeywordSwitch, false))
	r.MustRegister(DirectiveCase, ArityRequired, blockOpener(KeywordCase, false))
	r.MustRegister(DirectiveDefault, ArityNone, fixed(KeywordDefault+string(HostBlockColon)))
	r.MustRegister(DirectiveEndSwitch, ArityNone, fixed(KeywordEndSwitch+HostStmtSep))

	r.MustRegister(DirectiveBreak, ArityOptional, loopJump(KeywordBreak))
	r.MustRegister(DirectiveContinue, ArityOptional, loopJump(KeywordContinue))
	r.MustRegister(DirectiveStop, ArityNone, fixed(KeywordReturn+HostStmtSep))

	r.MustRegister(DirectiveForeach, ArityRequired, compileForeach)
	r.MustRegister(DirectiveEmpty, ArityNone, compileForeachEmpty)
	r.MustRegister(DirectiveForelse, ArityNone, compileForeachEmpty)
	r.MustRegister(DirectiveEndForeach, ArityNone, compileEndForeach)
	r.MustRegister(DirectiveEndForelse, ArityNone, compileEndForeach)

	r.MustRegister(DirectiveClean, ArityRequired, func(_ *CompileState, expr string, _ bool) (string, error) {
		return HostBlock(KeywordEcho + " " + FuncNameClean + ParenOpen + expr + ParenClose + HostStmtSep), nil
	})
}

func fixed(code string) DirectiveHandler {
	return func(_ *CompileState, _ string, _ bool) (string, error) {
		return HostBlock(code), nil
	}
}

// blockOpener emits `keyword (E):`, or `keyword (!(E)):` when negated.
func blockOpener(keyword string, negate bool) DirectiveHandler {
	return func(_ *CompileState, expr string, _ bool) (string, error) {
		if negate {
			expr = "!" + ParenOpen + expr + ParenClose
		}
		return HostBlock(blockHeader(keyword, expr)), nil
	}
}

func blockHeader(keyword, expr string) string {
	return keyword + " " + ParenOpen + expr + ParenClose + string(HostBlockColon)
}

// loopJump emits break/continue, guarded by a condition when one is given.
func loopJump(keyword string) DirectiveHandler {
	return func(_ *CompileState, expr string, hasExpr bool) (string, error) {
		if !hasExpr || expr == "" {
			return HostBlock(keyword + HostStmtSep), nil
		}
		return HostBlock(blockHeader(KeywordIf, expr) + " " + keyword + HostStmtSep + " " + KeywordEndIf + HostStmtSep), nil
	}
}

// compileForeach splits `ITER as ALIAS[, LOOPVAR]` and opens a loop frame.
func compileForeach(state *CompileState, expr string, _ bool) (string, error) {
	asAt := IndexKeyword(expr, KeywordAs)
	if asAt < 0 {
		return "", NewCompileError(ErrMsgForeachMissingAs, DirectiveForeach, -1, nil)
	}
	iter := strings.TrimSpace(expr[:asAt])
	parts := SplitTopLevel(expr[asAt+len(KeywordAs):], HostListSep)
	alias := strings.TrimSpace(parts[0])
	if iter == "" || alias == "" || len(parts) > 2 {
		return "", NewCompileError(ErrMsgForeachInvalidAlias, DirectiveForeach, -1, nil)
	}
	loopVar := ""
	if len(parts) == 2 {
		loopVar = strings.TrimSpace(parts[1])
		if loopVar == "" {
			return "", NewCompileError(ErrMsgForeachInvalidAlias, DirectiveForeach, -1, nil)
		}
	}

	frame := state.PushLoop()

	var sb strings.Builder
	sb.WriteString(assign(frame.EmptyVar, KeywordTrue))
	sb.WriteString(assign(frame.ItemsVar, iter))
	sb.WriteString(assign(frame.LoopVar, FuncNameLoop+ParenOpen+frame.ItemsVar+", "+strconv.Itoa(frame.Depth)+", "+frame.ParentLoopVar+ParenClose))
	sb.WriteString(blockHeader(KeywordForeach, frame.ItemsVar+" "+KeywordAs+" "+alias))
	sb.WriteString(" ")
	sb.WriteString(assign(frame.EmptyVar, KeywordFalse))
	sb.WriteString(FuncNameTick + ParenOpen + frame.LoopVar + ParenClose + HostStmtSep)
	if loopVar != "" {
		sb.WriteString(" ")
		sb.WriteString(assign(loopVar, frame.LoopVar))
	}
	return HostBlock(strings.TrimSpace(sb.String())), nil
}

func assign(target, value string) string {
	return target + " = " + value + HostStmtSep + " "
}

func compileForeachEmpty(state *CompileState, _ string, _ bool) (string, error) {
	frame, ok := state.TopLoop()
	if !ok {
		return "", NewCompileError(ErrMsgEmptyWithoutLoop, DirectiveEmpty, -1, nil)
	}
	if frame.EmptyOpened {
		return "", NewCompileError(ErrMsgEmptyTwice, DirectiveEmpty, -1, nil)
	}
	frame.EmptyOpened = true
	return HostBlock(KeywordEndForeach + HostStmtSep + " " + blockHeader(KeywordIf, frame.EmptyVar)), nil
}

func compileEndForeach(state *CompileState, _ string, _ bool) (string, error) {
	frame, ok := state.PopLoop()
	if !ok {
		return "", NewCompileError(ErrMsgEndLoopWithoutLoop, DirectiveEndForeach, -1, nil)
	}
	if frame.EmptyOpened {
		return HostBlock(KeywordEndIf + HostStmtSep), nil
	}
	return HostBlock(KeywordEndForeach + HostStmtSep), nil
}
