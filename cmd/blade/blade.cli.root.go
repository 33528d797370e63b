package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/itsatony/go-blade"
)

// cliError carries the exit code and message a command failed with.
// Errors cobra returns on its own are usage errors.
type cliError struct {
	code int
	msg  string
	err  error
}

func (e *cliError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

func (e *cliError) Unwrap() error {
	return e.err
}

func newCLIError(code int, msg string, err error) error {
	return &cliError{code: code, msg: msg, err: err}
}

func reportError(err error, stderr io.Writer) int {
	var ce *cliError
	if errors.As(err, &ce) {
		if ce.err != nil {
			fmt.Fprintf(stderr, FmtErrorWithCause, ce.msg, ce.err)
		} else {
			fmt.Fprintf(stderr, FmtError, ce.msg)
		}
		return ce.code
	}
	fmt.Fprintf(stderr, FmtError, err)
	return ExitCodeUsageError
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           CLIName,
		Short:         HelpRootShort,
		Long:          HelpRootLong,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(
		NewRenderCmd(NewRenderOptions()),
		NewCompileCmd(NewCompileOptions()),
		NewClearCmd(NewClearOptions()),
		NewVersionCmd(),
	)
	return cmd
}

// ViewerFlags are the flags shared by commands that build a viewer.
type ViewerFlags struct {
	Paths           []string
	ConfigPath      string
	CompilationPath string
	Debug           bool
}

// Set registers the flags on cmd.
func (f *ViewerFlags) Set(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.Paths, FlagPath, FlagPathShort, nil, "View search path (repeatable)")
	cmd.Flags().StringVarP(&f.ConfigPath, FlagConfig, FlagConfigShort, "", "YAML or TOML config file")
	cmd.Flags().StringVar(&f.CompilationPath, FlagCompilationPath, "", "Directory for compiled artifacts")
	cmd.Flags().BoolVar(&f.Debug, FlagDebug, false, "Log cache and render activity to stderr")
}

// Options converts the flags into viewer options. Flags override the
// config file.
func (f *ViewerFlags) Options(stderr io.Writer) ([]blade.Option, error) {
	var opts []blade.Option
	if f.ConfigPath != "" {
		cfg, err := blade.LoadConfig(f.ConfigPath)
		if err != nil {
			return nil, newCLIError(ExitCodeInputError, ErrMsgConfigFailed, err)
		}
		opts = append(opts, cfg.Options()...)
	}
	if len(f.Paths) > 0 {
		opts = append(opts, blade.WithPaths(f.Paths...))
	} else if f.ConfigPath == "" {
		opts = append(opts, blade.WithPaths(FlagDefaultPath))
	}
	if f.CompilationPath != "" {
		opts = append(opts, blade.WithCompilationPath(f.CompilationPath))
	}
	if f.Debug {
		opts = append(opts, blade.WithLogger(newLogger(stderr)))
	}
	return opts, nil
}

// NewViewer builds a viewer from the flags.
func (f *ViewerFlags) NewViewer(stderr io.Writer) (*blade.Viewer, error) {
	opts, err := f.Options(stderr)
	if err != nil {
		return nil, err
	}
	v, err := blade.NewViewer(opts...)
	if err != nil {
		return nil, newCLIError(ExitCodeError, ErrMsgViewerFailed, err)
	}
	return v, nil
}

func newLogger(w io.Writer) *zap.Logger {
	encoder := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.AddSync(w), zapcore.DebugLevel)
	return zap.New(core)
}
