package internal

import (
	"fmt"
)

// Error format strings
const (
	ErrFmtWithDirective = "%s (directive @%s at offset %d)"
	ErrFmtWithName      = "%s: %s"
	ErrFmtWithCause     = "%s: %v"
)

// Compile error messages
const (
	ErrMsgInvalidDirectiveName  = "invalid directive name"
	ErrMsgNilDirectiveHandler   = "directive handler is nil"
	ErrMsgDirectiveExists       = "directive already registered"
	ErrMsgDirectiveNeedsExpr    = "directive requires an expression"
	ErrMsgDirectiveUnterminated = "unterminated directive expression"
	ErrMsgDirectiveFailed       = "directive handler failed"
	ErrMsgPassFailed            = "compiler pass failed"
	ErrMsgEmptyWithoutLoop      = "empty directive without an open foreach"
	ErrMsgEndLoopWithoutLoop    = "endforeach directive without an open foreach"
	ErrMsgEmptyTwice            = "foreach already has an empty branch"
	ErrMsgLoopNotClosed         = "foreach block not closed"
	ErrMsgForeachMissingAs      = "foreach expression requires 'as'"
	ErrMsgForeachInvalidAlias   = "invalid foreach alias"
)

// Host program error messages
const (
	ErrMsgHostUnexpectedKeyword = "unexpected host statement"
	ErrMsgHostMissingParen      = "expected '(' after host keyword"
	ErrMsgHostUnterminated      = "unterminated host statement"
	ErrMsgHostMissingColon      = "expected ':' after block header"
	ErrMsgHostBlockNotClosed    = "host block not closed"
	ErrMsgHostForHeader         = "for header requires three clauses"
	ErrMsgHostForeachHeader     = "invalid foreach header"
	ErrMsgHostSwitchBody        = "unexpected content before first case"
	ErrMsgHostDefaultTwice      = "only one default case allowed in switch"
)

// Interpreter error messages
const (
	ErrMsgExecBreakOutsideLoop    = "break outside of loop or switch"
	ErrMsgExecContinueOutsideLoop = "continue outside of loop"
	ErrMsgExecNotIterable         = "value is not iterable"
	ErrMsgExecEvalFailed          = "expression evaluation failed"
	ErrMsgExecWriteFailed         = "output write failed"
	ErrMsgExecNoEvaluator         = "no evaluator configured"
	ErrMsgExecUnknownStatement    = "unknown statement type"
)

// CompileError reports a template that cannot be turned into host code.
// Offset is a byte offset into the template, or -1 when no position
// applies.
type CompileError struct {
	Message   string
	Directive string
	Offset    int
	Cause     error
}

// NewCompileError creates a new compile error
func NewCompileError(message, directive string, offset int, cause error) *CompileError {
	return &CompileError{
		Message:   message,
		Directive: directive,
		Offset:    offset,
		Cause:     cause,
	}
}

// Error implements the error interface
func (e *CompileError) Error() string {
	var result string
	switch {
	case e.Directive != "" && e.Offset >= 0:
		result = fmt.Sprintf(ErrFmtWithDirective, e.Message, e.Directive, e.Offset)
	case e.Directive != "":
		result = fmt.Sprintf(ErrFmtWithName, e.Message, e.Directive)
	default:
		result = e.Message
	}
	if e.Cause != nil {
		result = fmt.Sprintf(ErrFmtWithCause, result, e.Cause)
	}
	return result
}

// Unwrap returns the underlying cause error
func (e *CompileError) Unwrap() error {
	return e.Cause
}

// ProgramError reports host code that cannot be parsed into a program.
type ProgramError struct {
	Message string
	Detail  string
}

// NewProgramError creates a new program error
func NewProgramError(message, detail string) *ProgramError {
	return &ProgramError{Message: message, Detail: detail}
}

// Error implements the error interface
func (e *ProgramError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf(ErrFmtWithName, e.Message, e.Detail)
	}
	return e.Message
}

// ExecError reports a failure while running a program.
type ExecError struct {
	Message string
	Detail  string
	Cause   error
}

// NewExecError creates a new exec error
func NewExecError(message, detail string, cause error) *ExecError {
	return &ExecError{Message: message, Detail: detail, Cause: cause}
}

// Error implements the error interface
func (e *ExecError) Error() string {
	result := e.Message
	if e.Detail != "" {
		result = fmt.Sprintf(ErrFmtWithName, result, e.Detail)
	}
	if e.Cause != nil {
		result = fmt.Sprintf(ErrFmtWithCause, result, e.Cause)
	}
	return result
}

// Unwrap returns the underlying cause error
func (e *ExecError) Unwrap() error {
	return e.Cause
}
