package internal

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
)

// Func is a function callable from template expressions. MaxArgs -1
// accepts any number of trailing arguments.
type Func struct {
	Name    string
	MinArgs int
	MaxArgs int
	Fn      func(args []any) (any, error)
}

// Call checks the argument count and invokes the function. A failure of
// the body comes back wrapped in a *FuncError.
func (f *Func) Call(args []any) (any, error) {
	if n := len(args); n < f.MinArgs || (f.MaxArgs >= 0 && n > f.MaxArgs) {
		return nil, f.arityError(n)
	}
	result, err := f.Fn(args)
	if err != nil {
		var fe *FuncError
		if errors.As(err, &fe) {
			return nil, err
		}
		return nil, &FuncError{Message: ErrMsgFuncFailed, FuncName: f.Name, Cause: err}
	}
	return result, nil
}

func (f *Func) arityError(got int) *FuncError {
	e := &FuncError{FuncName: f.Name}
	want := strconv.Itoa(f.MinArgs)
	switch {
	case got < f.MinArgs:
		e.Message = ErrMsgFuncTooFewArgs
	default:
		e.Message = ErrMsgFuncTooManyArgs
		want = strconv.Itoa(f.MaxArgs)
	}
	e.Detail = fmt.Sprintf("want %s, got %d", want, got)
	return e
}

// FuncRegistry maps expression function names to functions. Names are
// identifiers and bind once.
type FuncRegistry struct {
	mu    sync.RWMutex
	funcs map[string]*Func
}

// NewFuncRegistry creates an empty registry
func NewFuncRegistry() *FuncRegistry {
	return &FuncRegistry{funcs: make(map[string]*Func)}
}

// NewBuiltinFuncRegistry creates a registry holding every builtin
func NewBuiltinFuncRegistry() *FuncRegistry {
	r := NewFuncRegistry()
	RegisterBuiltinFuncs(r)
	return r
}

// Register binds f under f.Name.
func (r *FuncRegistry) Register(f *Func) error {
	switch {
	case f == nil || f.Fn == nil:
		name := ""
		if f != nil {
			name = f.Name
		}
		return NewFuncError(ErrMsgFuncNilFunc, name)
	case !isIdentifier(f.Name):
		return NewFuncError(ErrMsgFuncInvalidName, f.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.funcs[f.Name]; exists {
		return NewFuncError(ErrMsgFuncAlreadyExists, f.Name)
	}
	r.funcs[f.Name] = f
	return nil
}

// MustRegister is Register that panics on error. Used for builtins.
func (r *FuncRegistry) MustRegister(f *Func) {
	if err := r.Register(f); err != nil {
		panic(err)
	}
}

// Get returns the function bound to name.
func (r *FuncRegistry) Get(name string) (*Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.funcs[name]
	return f, ok
}

// Call resolves name and calls it with args.
func (r *FuncRegistry) Call(name string, args []any) (any, error) {
	f, ok := r.Get(name)
	if !ok {
		return nil, NewFuncError(ErrMsgFuncNotFound, name)
	}
	return f.Call(args)
}

// Names returns the bound names, sorted.
func (r *FuncRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func isIdentifier(name string) bool {
	if name == "" || !isIdentStart(name[0]) {
		return false
	}
	for i := 1; i < len(name); i++ {
		if !isIdentByte(name[i]) {
			return false
		}
	}
	return true
}

// FuncError reports a failed function registration, lookup or call.
type FuncError struct {
	Message  string
	FuncName string
	Detail   string // argument position or counts, when known
	Cause    error
}

// NewFuncError creates a function error
func NewFuncError(message, funcName string) *FuncError {
	return &FuncError{Message: message, FuncName: funcName}
}

// NewFuncTypeError reports an argument of the wrong type.
func NewFuncTypeError(message, funcName string, argIndex int) *FuncError {
	return &FuncError{Message: message, FuncName: funcName, Detail: fmt.Sprintf("argument %d", argIndex)}
}

func (e *FuncError) Error() string {
	msg := e.Message
	if e.FuncName != "" {
		msg = fmt.Sprintf(ErrFmtWithName, msg, e.FuncName)
	}
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the error raised by the function body
func (e *FuncError) Unwrap() error {
	return e.Cause
}

// Function error messages
const (
	ErrMsgFuncNilFunc           = "function has no body"
	ErrMsgFuncInvalidName       = "function name is not an identifier"
	ErrMsgFuncAlreadyExists     = "function already registered"
	ErrMsgFuncNotFound          = "function not found"
	ErrMsgFuncFailed            = "function failed"
	ErrMsgFuncTooFewArgs        = "too few arguments"
	ErrMsgFuncTooManyArgs       = "too many arguments"
	ErrMsgFuncExpectedString    = "expected string argument"
	ErrMsgFuncExpectedSlice     = "expected slice or array argument"
	ErrMsgFuncExpectedMap       = "expected map argument"
	ErrMsgFuncExpectedStringKey = "expected string key"
	ErrMsgFuncExpectedLoop      = "expected loop state argument"
	ErrMsgFuncConversionFailed  = "type conversion failed"
	ErrMsgFuncInvalidStep       = "range step must not be zero"
	ErrMsgFuncRangeTooLarge     = "range exceeds maximum size"
)

// Argument index constants for error reporting
const (
	ArgIndexFirst  = 0
	ArgIndexSecond = 1
	ArgIndexThird  = 2
)

// Built-in function names
const (
	FuncNameLen        = "len"
	FuncNameCount      = "count"
	FuncNameContains   = "contains"
	FuncNameUpper      = "upper"
	FuncNameLower      = "lower"
	FuncNameTrim       = "trim"
	FuncNameTrimPrefix = "trimPrefix"
	FuncNameTrimSuffix = "trimSuffix"
	FuncNameHasPrefix  = "hasPrefix"
	FuncNameHasSuffix  = "hasSuffix"
	FuncNameReplace    = "replace"
	FuncNameSplit      = "split"
	FuncNameJoin       = "join"
	FuncNameFirst      = "first"
	FuncNameLast       = "last"
	FuncNameKeys       = "keys"
	FuncNameValues     = "values"
	FuncNameHas        = "has"
	FuncNameRange      = "range"
	FuncNameToString   = "toString"
	FuncNameToInt      = "toInt"
	FuncNameToFloat    = "toFloat"
	FuncNameToBool     = "toBool"
	FuncNameTypeOf     = "typeOf"
	FuncNameIsNil      = "isNil"
	FuncNameIsEmpty    = "isEmpty"
	FuncNameIsset      = "isset"
	FuncNameDefault    = "default"
	FuncNameCoalesce   = "coalesce"
	FuncNameStripTags  = "stripTags"
)

// String value constants for type conversions
const (
	StringValueNil   = "nil"
	StringValueTrue  = "true"
	StringValueFalse = "false"
	StringValueEmpty = ""
)

// Numeric constants for conversions
const (
	FloatFormatFlag   = 'f'
	FloatPrecisionAll = -1
	FloatBitSize64    = 64
	IntBase10         = 10
	MaxRangeSize      = 100000
)

// RegisterBuiltinFuncs registers all built-in functions with the registry
func RegisterBuiltinFuncs(r *FuncRegistry) {
	registerStringFuncs(r)
	registerCollectionFuncs(r)
	registerTypeFuncs(r)
	registerUtilFuncs(r)
	registerHTMLFuncs(r)
	registerLoopFuncs(r)
}
