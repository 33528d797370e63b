package main

// Command names
const (
	CmdNameRender  = "render"
	CmdNameCompile = "compile"
	CmdNameClear   = "clear"
	CmdNameVersion = "version"
)

// Flag names - long form
const (
	FlagPath            = "path"
	FlagConfig          = "config"
	FlagCompilationPath = "compile-dir"
	FlagData            = "data"
	FlagDataFile        = "data-file"
	FlagOutput          = "output"
	FlagDebug           = "debug"
)

// Flag names - short form
const (
	FlagPathShort     = "p"
	FlagConfigShort   = "c"
	FlagDataShort     = "d"
	FlagDataFileShort = "f"
	FlagOutputShort   = "o"
)

// Flag default values
const (
	FlagDefaultOutput = "-" // stdout
	FlagDefaultPath   = "."
)

// Exit codes
const (
	ExitCodeSuccess    = 0
	ExitCodeError      = 1
	ExitCodeUsageError = 2
	ExitCodeInputError = 4
)

// Input source indicators
const (
	InputSourceStdin = "-"
)

// Error messages - ALL must be constants
const (
	ErrMsgInvalidData        = "invalid data"
	ErrMsgReadFileFailed     = "failed to read file"
	ErrMsgWriteOutputFailed  = "failed to write output"
	ErrMsgConfigFailed       = "failed to load configuration"
	ErrMsgViewerFailed       = "failed to create viewer"
	ErrMsgRenderFailed       = "render failed"
	ErrMsgCompileFailed      = "compilation failed"
	ErrMsgClearFailed        = "failed to remove compiled files"
	ErrMsgClearNeedsLocation = "clear needs --config or --compile-dir"
)

// Help text
const (
	HelpRootShort = "Blade-style view templates"
	HelpRootLong  = `blade compiles Blade-style view templates and renders them.

Views are looked up by name in the search paths, trying each registered
extension in order (.blade.html, .html, .txt).`

	HelpRenderShort   = "Render a view with data"
	HelpRenderExample = `  blade render welcome -p views -d '{"name": "Alice"}'
  blade render emails/reset -c blade.yaml -f data.yaml
  cat data.json | blade render page -p views -f -`

	HelpCompileShort   = "Print the host code a template compiles to"
	HelpCompileExample = `  blade compile views/welcome.blade.html
  echo '{{ $name }}' | blade compile -`

	HelpClearShort   = "Remove compiled artifacts"
	HelpClearExample = `  blade clear -c blade.yaml
  blade clear --compile-dir /var/cache/blade`

	HelpVersionShort = "Print version"
)

// Version output
const (
	VersionTextTemplate = "blade version %s\nGo: %s\n"
)

// CLI metadata
const (
	CLIName = "blade"
)

// File permission constant
const (
	FilePermissions = 0644
)

// Format string constants
const (
	FmtErrorWithCause = "%s: %v\n"
	FmtError          = "%v\n"
)
