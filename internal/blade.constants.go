package internal

// Host code markers. Compiled artifacts interleave literal text with host
// blocks; templates may embed host blocks directly.
const (
	HostOpen     = "<?blade"
	HostEchoOpen = "<?="
	HostClose    = "?>"
)

// Template delimiters
const (
	CommentOpen  = "{{--"
	CommentClose = "--}}"
	RawEchoOpen  = "{!!"
	RawEchoClose = "!!}"
	EchoOpen     = "{{"
	EchoClose    = "}}"
	ParenOpen    = "("
	ParenClose   = ")"

	DirectiveMarker     = '@'
	DirectiveTerminator = ';'
)

// Verbatim markers
const (
	VerbatimOpen        = "@verbatim"
	VerbatimClose       = "@endverbatim"
	VerbatimPlaceholder = "@__verbatim__@"
)

// Control-flow directive names
const (
	DirectiveIf         = "if"
	DirectiveElseIf     = "elseif"
	DirectiveElse       = "else"
	DirectiveEndIf      = "endif"
	DirectiveUnless     = "unless"
	DirectiveElseUnless = "elseunless"
	DirectiveEndUnless  = "endunless"
	DirectiveFor        = "for"
	DirectiveEndFor     = "endfor"
	DirectiveForeach    = "foreach"
	DirectiveEmpty      = "empty"
	DirectiveForelse    = "forelse"
	DirectiveEndForeach = "endforeach"
	DirectiveEndForelse = "endforelse"
	DirectiveWhile      = "while"
	DirectiveEndWhile   = "endwhile"
	DirectiveSwitch     = "switch"
	DirectiveCase       = "case"
	DirectiveDefault    = "default"
	DirectiveEndSwitch  = "endswitch"
	DirectiveBreak      = "break"
	DirectiveContinue   = "continue"
	DirectiveStop       = "stop"
	DirectiveClean      = "clean"
)

// Host statement keywords
const (
	KeywordIf         = "if"
	KeywordElseIf     = "elseif"
	KeywordElse       = "else"
	KeywordEndIf      = "endif"
	KeywordFor        = "for"
	KeywordEndFor     = "endfor"
	KeywordForeach    = "foreach"
	KeywordEndForeach = "endforeach"
	KeywordWhile      = "while"
	KeywordEndWhile   = "endwhile"
	KeywordSwitch     = "switch"
	KeywordCase       = "case"
	KeywordDefault    = "default"
	KeywordEndSwitch  = "endswitch"
	KeywordBreak      = "break"
	KeywordContinue   = "continue"
	KeywordReturn     = "return"
	KeywordEcho       = "echo"
	KeywordAs         = "as"
	KeywordNull       = "null"
	KeywordTrue       = "true"
	KeywordFalse      = "false"

	HostCommentOpen  = "/*"
	HostCommentClose = "*/"
	HostArrow        = "=>"
	HostBlockColon   = ':'
	HostStmtEnd      = ';'
	HostStmtSep      = ";"
	HostListSep      = ","
)

// Generated binding prefixes for foreach frames
const (
	LoopEmptyVarPrefix = "__empty_"
	LoopItemsVarPrefix = "__items_"
	LoopStateVarPrefix = "__loop_"
	VariableSigil      = "$"
)

// Loop and escape runtime function names emitted by the compiler
const (
	FuncNameLoop   = "loop"
	FuncNameTick   = "tick"
	FuncNameEscape = "e"
	FuncNameClean  = "clean"
)

// Loop state property names
const (
	LoopPropIteration = "iteration"
	LoopPropIndex     = "index"
	LoopPropRemaining = "remaining"
	LoopPropCount     = "count"
	LoopPropFirst     = "first"
	LoopPropLast      = "last"
	LoopPropDepth     = "depth"
	LoopPropParent    = "parent"
)

// Log messages
const (
	LogMsgCompileStart      = "compiling template"
	LogMsgCompileDone       = "template compiled"
	LogMsgDirectiveCompiled = "directive compiled"
	LogMsgProgramParsed     = "program parsed"
	LogMsgRunStart          = "running program"
)

// Log field names
const (
	LogFieldDirective = "directive"
	LogFieldOffset    = "offset"
	LogFieldLength    = "length"
	LogFieldSegments  = "segments"
	LogFieldStmts     = "statements"
	LogFieldVerbatim  = "verbatim_blocks"
)
