package internal

// StmtType identifies a host program statement
type StmtType string

// Statement type constants
const (
	StmtTypeText     StmtType = "TEXT"
	StmtTypeEcho     StmtType = "ECHO"
	StmtTypeExpr     StmtType = "EXPR"
	StmtTypeIf       StmtType = "IF"
	StmtTypeFor      StmtType = "FOR"
	StmtTypeForeach  StmtType = "FOREACH"
	StmtTypeWhile    StmtType = "WHILE"
	StmtTypeSwitch   StmtType = "SWITCH"
	StmtTypeBreak    StmtType = "BREAK"
	StmtTypeContinue StmtType = "CONTINUE"
	StmtTypeReturn   StmtType = "RETURN"
)

// Stmt is one node of a parsed host program.
type Stmt interface {
	Type() StmtType
}

// Program is a parsed artifact ready to run.
type Program struct {
	Body []Stmt
}

// TextStmt writes literal text.
type TextStmt struct {
	Text string
}

// Type implements Stmt
func (s *TextStmt) Type() StmtType { return StmtTypeText }

// EchoStmt evaluates Expr and writes its string form.
type EchoStmt struct {
	Expr string
}

// Type implements Stmt
func (s *EchoStmt) Type() StmtType { return StmtTypeEcho }

// ExprStmt evaluates Expr for its side effects.
type ExprStmt struct {
	Expr string
}

// Type implements Stmt
func (s *ExprStmt) Type() StmtType { return StmtTypeExpr }

// CondBranch is one if/elseif arm.
type CondBranch struct {
	Cond string
	Body []Stmt
}

// IfStmt is an if/elseif/else chain. Else is nil when absent.
type IfStmt struct {
	Branches []CondBranch
	Else     []Stmt
}

// Type implements Stmt
func (s *IfStmt) Type() StmtType { return StmtTypeIf }

// ForStmt is a three-clause loop. Each clause holds comma-separated
// expressions; the loop runs while the last Cond expression is truthy.
type ForStmt struct {
	Init []string
	Cond []string
	Step []string
	Body []Stmt
}

// Type implements Stmt
func (s *ForStmt) Type() StmtType { return StmtTypeFor }

// ForeachStmt iterates Iter binding Value, and Key when set. Key and Value
// are variable names without the sigil.
type ForeachStmt struct {
	Iter  string
	Key   string
	Value string
	Body  []Stmt
}

// Type implements Stmt
func (s *ForeachStmt) Type() StmtType { return StmtTypeForeach }

// WhileStmt loops while Cond is truthy.
type WhileStmt struct {
	Cond string
	Body []Stmt
}

// Type implements Stmt
func (s *WhileStmt) Type() StmtType { return StmtTypeWhile }

// SwitchCase is one case arm. Default arms have no Expr.
type SwitchCase struct {
	Expr      string
	IsDefault bool
	Body      []Stmt
}

// SwitchStmt runs the first matching case and falls through subsequent
// cases until a break.
type SwitchStmt struct {
	Subject string
	Cases   []SwitchCase
}

// Type implements Stmt
func (s *SwitchStmt) Type() StmtType { return StmtTypeSwitch }

// BreakStmt leaves the innermost loop or switch.
type BreakStmt struct{}

// Type implements Stmt
func (s *BreakStmt) Type() StmtType { return StmtTypeBreak }

// ContinueStmt skips to the next loop iteration.
type ContinueStmt struct{}

// Type implements Stmt
func (s *ContinueStmt) Type() StmtType { return StmtTypeContinue }

// ReturnStmt stops the current program.
type ReturnStmt struct{}

// Type implements Stmt
func (s *ReturnStmt) Type() StmtType { return StmtTypeReturn }
