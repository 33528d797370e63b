package blade

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/itsatony/go-cuserr"

	"github.com/itsatony/go-blade/internal"
)

// Error message constants
const (
	ErrMsgCompileFailed       = "template compilation failed"
	ErrMsgRenderFailed        = "template execution failed"
	ErrMsgSectionNested       = "You cannot have a section in another section."
	ErrMsgSectionUndefined    = "You cannot end an undefined section."
	ErrMsgSectionNotClosed    = "section was not closed before the end of the view"
	ErrMsgStackNested         = "You cannot have a stack in another stack."
	ErrMsgStackUndefined      = "You cannot end an undefined stack."
	ErrMsgStackNotClosed      = "stack was not closed before the end of the view"
	ErrMsgExtendsTooDeep      = "maximum extends depth exceeded"
	ErrMsgCacheRead           = "failed to read artifact"
	ErrMsgCacheWrite          = "failed to write artifact"
	ErrMsgCacheClear          = "failed to remove artifacts"
	ErrMsgSourceRead          = "failed to read template source"
	ErrMsgInvalidArgument     = "invalid argument"
	ErrMsgInvalidFormatName   = "invalid format directive name"
	ErrMsgNilFormatFunc       = "format function is nil"
	ErrMsgCompilerNotFoundExt = "view compiler for extension not found"
	ErrMsgInvalidConfig       = "invalid configuration"
	ErrMsgConfigRead          = "failed to read configuration"
	ErrMsgConfigFormat        = "unsupported configuration format"
	ErrMsgTempCreate          = "failed to create temp artifact"
	ErrMsgNilCompiler         = "compiler is nil"
)

// Error message formats for messages that name a view or directive
const (
	ErrFmtViewNotFound      = "View file `%s` does not exist in view paths."
	ErrFmtCompilerNotFound  = "Could not find a compiler for view `%s`."
	ErrFmtDirectiveNotFound = "Directive `%s` is not defined."
)

// Error codes
const (
	ErrCodeCompile = "BLADE_COMPILE"
	ErrCodeSource  = "BLADE_SOURCE"
	ErrCodeRuntime = "BLADE_RUNTIME"
	ErrCodeCache   = "BLADE_CACHE"
	ErrCodeExec    = "BLADE_EXEC"
	ErrCodeFormat  = "BLADE_FORMAT"
	ErrCodeConfig  = "BLADE_CONFIG"
)

// Metadata keys
const (
	MetaKeyKind      = "kind"
	MetaKeyDirective = "directive"
	MetaKeyOffset    = "offset"
	MetaKeySource    = "source"
	MetaKeyView      = "view"
	MetaKeyKey       = "key"
	MetaKeyOperation = "operation"
	MetaKeyDepth     = "depth"
	MetaKeyMaxDepth  = "max_depth"
	MetaKeyName      = "name"
	MetaKeyExtension = "extension"
	MetaKeyPath      = "path"
	MetaKeyFuncName  = "func_name"
	MetaKeyReason    = "reason"
)

// Error kinds stored under MetaKeyKind
const (
	KindCompile        = "compile"
	KindSourceNotFound = "source_not_found"
	KindRuntimeState   = "runtime_state"
	KindCacheIO        = "cache_io"
	KindExec           = "exec"
	KindFormat         = "format"
	KindConfig         = "config"
)

// Resource names for not-found errors
const (
	ResourceView      = "view"
	ResourceCompiler  = "compiler"
	ResourceDirective = "directive"
)

// NewCompileError wraps a compiler or host-program failure.
func NewCompileError(source string, cause error) error {
	err := cuserr.WrapStdError(cause, ErrCodeCompile, ErrMsgCompileFailed).
		WithMetadata(MetaKeyKind, KindCompile).
		WithMetadata(MetaKeySource, source)

	var ce *internal.CompileError
	if errors.As(cause, &ce) {
		if ce.Directive != "" {
			err = err.WithMetadata(MetaKeyDirective, ce.Directive)
		}
		if ce.Offset >= 0 {
			err = err.WithMetadata(MetaKeyOffset, strconv.Itoa(ce.Offset))
		}
	}
	return err
}

// NewViewNotFoundError reports a view name missing from every search path.
func NewViewNotFoundError(name string) error {
	return cuserr.NewNotFoundError(ResourceView, fmt.Sprintf(ErrFmtViewNotFound, name)).
		WithMetadata(MetaKeyKind, KindSourceNotFound).
		WithMetadata(MetaKeyView, name)
}

// NewCompilerNotFoundError reports a string id no registered extension
// matches.
func NewCompilerNotFoundError(id string) error {
	return cuserr.NewNotFoundError(ResourceCompiler, fmt.Sprintf(ErrFmtCompilerNotFound, id)).
		WithMetadata(MetaKeyKind, KindSourceNotFound).
		WithMetadata(MetaKeyView, id)
}

// NewExtensionCompilerError reports an extension with no view compiler.
func NewExtensionCompilerError(ext string) error {
	return cuserr.NewNotFoundError(ResourceCompiler, ErrMsgCompilerNotFoundExt).
		WithMetadata(MetaKeyKind, KindSourceNotFound).
		WithMetadata(MetaKeyExtension, ext)
}

// NewSourceNotFoundError reports a template file that does not exist.
func NewSourceNotFoundError(path string) error {
	return cuserr.NewNotFoundError(ResourceView, fmt.Sprintf(ErrFmtViewNotFound, path)).
		WithMetadata(MetaKeyKind, KindSourceNotFound).
		WithMetadata(MetaKeyPath, path)
}

// NewRuntimeStateError reports a section, stack or extends violation.
func NewRuntimeStateError(msg, name string) error {
	err := cuserr.NewValidationError(ErrCodeRuntime, msg).
		WithMetadata(MetaKeyKind, KindRuntimeState)
	if name != "" {
		err = err.WithMetadata(MetaKeyName, name)
	}
	return err
}

// NewExtendsDepthError reports an extends chain longer than the limit.
func NewExtendsDepthError(depth, max int) error {
	return cuserr.NewValidationError(ErrCodeRuntime, ErrMsgExtendsTooDeep).
		WithMetadata(MetaKeyKind, KindRuntimeState).
		WithMetadata(MetaKeyDepth, strconv.Itoa(depth)).
		WithMetadata(MetaKeyMaxDepth, strconv.Itoa(max))
}

// NewCacheIOError wraps an artifact store failure.
func NewCacheIOError(msg, key string, cause error) error {
	return cuserr.WrapStdError(cause, ErrCodeCache, msg).
		WithMetadata(MetaKeyKind, KindCacheIO).
		WithMetadata(MetaKeyKey, key)
}

// NewExecError wraps an evaluation failure raised while rendering.
func NewExecError(source string, cause error) error {
	return cuserr.WrapStdError(cause, ErrCodeExec, ErrMsgRenderFailed).
		WithMetadata(MetaKeyKind, KindExec).
		WithMetadata(MetaKeySource, source)
}

// NewInvalidArgumentError reports a runtime function called with an
// argument of the wrong shape.
func NewInvalidArgumentError(funcName, reason string) error {
	return cuserr.NewValidationError(ErrCodeExec, ErrMsgInvalidArgument).
		WithMetadata(MetaKeyKind, KindExec).
		WithMetadata(MetaKeyFuncName, funcName).
		WithMetadata(MetaKeyReason, reason)
}

// NewDirectiveNotDefinedError reports a format call with no registered
// callable.
func NewDirectiveNotDefinedError(name string) error {
	return cuserr.NewNotFoundError(ResourceDirective, fmt.Sprintf(ErrFmtDirectiveNotFound, name)).
		WithMetadata(MetaKeyKind, KindFormat).
		WithMetadata(MetaKeyDirective, name)
}

// NewFormatError reports an invalid format registration.
func NewFormatError(msg, name string) error {
	return cuserr.NewValidationError(ErrCodeFormat, msg).
		WithMetadata(MetaKeyKind, KindFormat).
		WithMetadata(MetaKeyDirective, name)
}

// NewConfigError reports an unreadable or invalid configuration.
func NewConfigError(msg, path string, cause error) error {
	var err *cuserr.CustomError
	if cause != nil {
		err = cuserr.WrapStdError(cause, ErrCodeConfig, msg)
	} else {
		err = cuserr.NewValidationError(ErrCodeConfig, msg)
	}
	return err.
		WithMetadata(MetaKeyKind, KindConfig).
		WithMetadata(MetaKeyPath, path)
}

// ErrorKind returns the kind recorded on err, or "" for foreign errors.
func ErrorKind(err error) string {
	var ce *cuserr.CustomError
	if !errors.As(err, &ce) {
		return ""
	}
	kind, _ := ce.GetMetadata(MetaKeyKind)
	return kind
}

// IsCompileError reports whether err is a compile failure.
func IsCompileError(err error) bool {
	return ErrorKind(err) == KindCompile
}

// IsSourceNotFound reports whether err is a missing view, partial, extends
// target or string compiler.
func IsSourceNotFound(err error) bool {
	return ErrorKind(err) == KindSourceNotFound
}

// IsRuntimeStateError reports whether err is a section, stack or extends
// violation.
func IsRuntimeStateError(err error) bool {
	return ErrorKind(err) == KindRuntimeState
}

// IsCacheIOError reports whether err is an artifact store failure.
func IsCacheIOError(err error) bool {
	return ErrorKind(err) == KindCacheIO
}

// IsExecError reports whether err is an evaluation failure.
func IsExecError(err error) bool {
	return ErrorKind(err) == KindExec
}

// fromRun converts an error escaping the interpreter. Errors raised by
// runtime functions travel through the interpreter wrapped and come back
// out unchanged.
func fromRun(source string, err error) error {
	if err == nil {
		return nil
	}
	var ce *cuserr.CustomError
	if errors.As(err, &ce) {
		return ce
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return NewExecError(source, err)
}
