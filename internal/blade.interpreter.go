package internal

import (
	"context"
	"io"

	"go.uber.org/zap"
)

// Evaluator evaluates one opaque host expression against a scope.
type Evaluator interface {
	Eval(expr string, scope Scope) (any, error)
}

// Scope is the variable and function environment of one program run.
// Names carry no sigil.
type Scope interface {
	Get(name string) (any, bool)
	Set(name string, value any)
	Func(name string) (*Func, bool)
}

// flow is the control signal a statement hands back to its enclosing block.
type flow int

const (
	flowNormal flow = iota
	flowBreak
	flowContinue
	flowReturn
)

// Interpreter runs parsed programs, writing output to out.
type Interpreter struct {
	eval   Evaluator
	scope  Scope
	out    io.Writer
	logger *zap.Logger
}

// NewInterpreter creates a new interpreter
func NewInterpreter(eval Evaluator, scope Scope, out io.Writer, logger *zap.Logger) *Interpreter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Interpreter{
		eval:   eval,
		scope:  scope,
		out:    out,
		logger: logger,
	}
}

// Run executes program. A return statement ends the run without error.
func (it *Interpreter) Run(ctx context.Context, program *Program) error {
	if it.eval == nil {
		return NewExecError(ErrMsgExecNoEvaluator, "", nil)
	}
	it.logger.Debug(LogMsgRunStart, zap.Int(LogFieldStmts, len(program.Body)))

	f, err := it.execBlock(ctx, program.Body)
	if err != nil {
		return err
	}
	switch f {
	case flowBreak:
		return NewExecError(ErrMsgExecBreakOutsideLoop, "", nil)
	case flowContinue:
		return NewExecError(ErrMsgExecContinueOutsideLoop, "", nil)
	}
	return nil
}

func (it *Interpreter) execBlock(ctx context.Context, stmts []Stmt) (flow, error) {
	for _, stmt := range stmts {
		f, err := it.exec(ctx, stmt)
		if err != nil || f != flowNormal {
			return f, err
		}
	}
	return flowNormal, nil
}

func (it *Interpreter) exec(ctx context.Context, stmt Stmt) (flow, error) {
	switch s := stmt.(type) {
	case *TextStmt:
		return flowNormal, it.write(s.Text)
	case *EchoStmt:
		v, err := it.evaluate(s.Expr)
		if err != nil {
			return flowNormal, err
		}
		return flowNormal, it.write(anyToString(v))
	case *ExprStmt:
		_, err := it.evaluate(s.Expr)
		return flowNormal, err
	case *IfStmt:
		return it.execIf(ctx, s)
	case *ForStmt:
		return it.execFor(ctx, s)
	case *ForeachStmt:
		return it.execForeach(ctx, s)
	case *WhileStmt:
		return it.execWhile(ctx, s)
	case *SwitchStmt:
		return it.execSwitch(ctx, s)
	case *BreakStmt:
		return flowBreak, nil
	case *ContinueStmt:
		return flowContinue, nil
	case *ReturnStmt:
		return flowReturn, nil
	}
	return flowNormal, NewExecError(ErrMsgExecUnknownStatement, string(stmt.Type()), nil)
}

func (it *Interpreter) write(s string) error {
	if s == "" {
		return nil
	}
	if _, err := io.WriteString(it.out, s); err != nil {
		return NewExecError(ErrMsgExecWriteFailed, "", err)
	}
	return nil
}

func (it *Interpreter) evaluate(expr string) (any, error) {
	v, err := it.eval.Eval(expr, it.scope)
	if err != nil {
		return nil, NewExecError(ErrMsgExecEvalFailed, expr, err)
	}
	return v, nil
}

func (it *Interpreter) truth(expr string) (bool, error) {
	v, err := it.evaluate(expr)
	if err != nil {
		return false, err
	}
	return isTruthy(v), nil
}

func (it *Interpreter) execIf(ctx context.Context, s *IfStmt) (flow, error) {
	for _, branch := range s.Branches {
		ok, err := it.truth(branch.Cond)
		if err != nil {
			return flowNormal, err
		}
		if ok {
			return it.execBlock(ctx, branch.Body)
		}
	}
	if s.Else != nil {
		return it.execBlock(ctx, s.Else)
	}
	return flowNormal, nil
}

// loopFlow folds a loop body's signal: done reports the loop must stop,
// and the returned flow is what the loop hands upward.
func loopFlow(f flow) (flow, bool) {
	switch f {
	case flowBreak:
		return flowNormal, true
	case flowReturn:
		return flowReturn, true
	}
	return flowNormal, false
}

func (it *Interpreter) execFor(ctx context.Context, s *ForStmt) (flow, error) {
	for _, expr := range s.Init {
		if _, err := it.evaluate(expr); err != nil {
			return flowNormal, err
		}
	}
	for {
		if err := ctx.Err(); err != nil {
			return flowNormal, err
		}
		ok := true
		for _, expr := range s.Cond {
			v, err := it.evaluate(expr)
			if err != nil {
				return flowNormal, err
			}
			ok = isTruthy(v)
		}
		if !ok {
			return flowNormal, nil
		}

		f, err := it.execBlock(ctx, s.Body)
		if err != nil {
			return flowNormal, err
		}
		if up, done := loopFlow(f); done {
			return up, nil
		}

		for _, expr := range s.Step {
			if _, err := it.evaluate(expr); err != nil {
				return flowNormal, err
			}
		}
	}
}

func (it *Interpreter) execForeach(ctx context.Context, s *ForeachStmt) (flow, error) {
	items, err := it.evaluate(s.Iter)
	if err != nil {
		return flowNormal, err
	}

	result := flowNormal
	err = EachItem(items, func(key, value any) (bool, error) {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if s.Key != "" {
			it.scope.Set(s.Key, key)
		}
		it.scope.Set(s.Value, value)

		f, err := it.execBlock(ctx, s.Body)
		if err != nil {
			return false, err
		}
		up, done := loopFlow(f)
		result = up
		return !done, nil
	})
	if err != nil {
		return flowNormal, err
	}
	return result, nil
}

func (it *Interpreter) execWhile(ctx context.Context, s *WhileStmt) (flow, error) {
	for {
		if err := ctx.Err(); err != nil {
			return flowNormal, err
		}
		ok, err := it.truth(s.Cond)
		if err != nil {
			return flowNormal, err
		}
		if !ok {
			return flowNormal, nil
		}

		f, err := it.execBlock(ctx, s.Body)
		if err != nil {
			return flowNormal, err
		}
		if up, done := loopFlow(f); done {
			return up, nil
		}
	}
}

// execSwitch runs from the first matching case, or the default, through
// the following cases until a break. Continue propagates to the enclosing
// loop.
func (it *Interpreter) execSwitch(ctx context.Context, s *SwitchStmt) (flow, error) {
	subject, err := it.evaluate(s.Subject)
	if err != nil {
		return flowNormal, err
	}

	start := -1
	for i, c := range s.Cases {
		if c.IsDefault {
			continue
		}
		v, err := it.evaluate(c.Expr)
		if err != nil {
			return flowNormal, err
		}
		if LooseEqual(subject, v) {
			start = i
			break
		}
	}
	if start < 0 {
		for i, c := range s.Cases {
			if c.IsDefault {
				start = i
				break
			}
		}
	}
	if start < 0 {
		return flowNormal, nil
	}

	for _, c := range s.Cases[start:] {
		f, err := it.execBlock(ctx, c.Body)
		if err != nil {
			return flowNormal, err
		}
		switch f {
		case flowBreak:
			return flowNormal, nil
		case flowContinue, flowReturn:
			return f, nil
		}
	}
	return flowNormal, nil
}
