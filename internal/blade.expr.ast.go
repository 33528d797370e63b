package internal

import (
	"fmt"
	"strings"
)

// ExprNodeType identifies the type of expression AST node
type ExprNodeType int

// Expression node type constants
const (
	ExprNodeTypeLiteral ExprNodeType = iota
	ExprNodeTypeIdentifier
	ExprNodeTypeUnary
	ExprNodeTypeBinary
	ExprNodeTypeCall
	ExprNodeTypeMember
	ExprNodeTypeIndex
	ExprNodeTypeArray
	ExprNodeTypeMap
	ExprNodeTypeTernary
	ExprNodeTypeAssign
	ExprNodeTypeUpdate
)

var exprNodeTypeNames = map[ExprNodeType]string{
	ExprNodeTypeLiteral:    "LITERAL",
	ExprNodeTypeIdentifier: "IDENTIFIER",
	ExprNodeTypeUnary:      "UNARY",
	ExprNodeTypeBinary:     "BINARY",
	ExprNodeTypeCall:       "CALL",
	ExprNodeTypeMember:     "MEMBER",
	ExprNodeTypeIndex:      "INDEX",
	ExprNodeTypeArray:      "ARRAY",
	ExprNodeTypeMap:        "MAP",
	ExprNodeTypeTernary:    "TERNARY",
	ExprNodeTypeAssign:     "ASSIGN",
	ExprNodeTypeUpdate:     "UPDATE",
}

// String returns the string representation of the node type
func (t ExprNodeType) String() string {
	if name, ok := exprNodeTypeNames[t]; ok {
		return name
	}
	return exprNodeTypeNames[ExprNodeTypeLiteral]
}

// ExprNode is the interface for all expression AST nodes
type ExprNode interface {
	// Type returns the node type
	Type() ExprNodeType
	// String returns a string representation for debugging
	String() string
	exprNode()
}

// LiteralKind identifies the kind of literal value
type LiteralKind int

// Literal kind constants
const (
	LiteralKindString LiteralKind = iota
	LiteralKindNumber
	LiteralKindBool
	LiteralKindNil
)

// LiteralNode represents a literal value
type LiteralNode struct {
	Value any
	Kind  LiteralKind
}

func (n *LiteralNode) Type() ExprNodeType { return ExprNodeTypeLiteral }
func (n *LiteralNode) exprNode()          {}

func (n *LiteralNode) String() string {
	switch n.Kind {
	case LiteralKindString:
		return fmt.Sprintf("%q", n.Value)
	case LiteralKindNil:
		return ExprKeywordNull
	default:
		return fmt.Sprintf("%v", n.Value)
	}
}

// IdentifierNode is a variable reference, or a function name when it is
// the callee of a CallNode. Sigil records a leading $.
type IdentifierNode struct {
	Name  string
	Sigil bool
}

func (n *IdentifierNode) Type() ExprNodeType { return ExprNodeTypeIdentifier }
func (n *IdentifierNode) exprNode()          {}

func (n *IdentifierNode) String() string {
	if n.Sigil {
		return VariableSigil + n.Name
	}
	return n.Name
}

// UnaryNode represents a prefix operation (!x, -x)
type UnaryNode struct {
	Op    ExprTokenType
	Right ExprNode
}

func (n *UnaryNode) Type() ExprNodeType { return ExprNodeTypeUnary }
func (n *UnaryNode) exprNode()          {}

func (n *UnaryNode) String() string {
	return fmt.Sprintf("(%s%s)", n.Op, n.Right.String())
}

// BinaryNode represents a binary operation (a && b, a + b, a ?? b)
type BinaryNode struct {
	Left  ExprNode
	Op    ExprTokenType
	Right ExprNode
}

func (n *BinaryNode) Type() ExprNodeType { return ExprNodeTypeBinary }
func (n *BinaryNode) exprNode()          {}

func (n *BinaryNode) String() string {
	return fmt.Sprintf("(%s %s %s)", n.Left.String(), n.Op, n.Right.String())
}

// CallNode represents a function call (e.g., count($items))
type CallNode struct {
	Name string
	Args []ExprNode
}

func (n *CallNode) Type() ExprNodeType { return ExprNodeTypeCall }
func (n *CallNode) exprNode()          {}

func (n *CallNode) String() string {
	return fmt.Sprintf("%s(%s)", n.Name, joinNodes(n.Args))
}

// MemberNode reads a named property ($loop->last, $user.name)
type MemberNode struct {
	Object ExprNode
	Name   string
}

func (n *MemberNode) Type() ExprNodeType { return ExprNodeTypeMember }
func (n *MemberNode) exprNode()          {}

func (n *MemberNode) String() string {
	return fmt.Sprintf("%s->%s", n.Object.String(), n.Name)
}

// IndexNode reads an element by key or position ($items[0])
type IndexNode struct {
	Object ExprNode
	Index  ExprNode
}

func (n *IndexNode) Type() ExprNodeType { return ExprNodeTypeIndex }
func (n *IndexNode) exprNode()          {}

func (n *IndexNode) String() string {
	return fmt.Sprintf("%s[%s]", n.Object.String(), n.Index.String())
}

// ArrayNode is a list literal [a, b]
type ArrayNode struct {
	Elements []ExprNode
}

func (n *ArrayNode) Type() ExprNodeType { return ExprNodeTypeArray }
func (n *ArrayNode) exprNode()          {}

func (n *ArrayNode) String() string {
	return "[" + joinNodes(n.Elements) + "]"
}

// MapEntry is one key => value pair of a map literal
type MapEntry struct {
	Key   ExprNode
	Value ExprNode
}

// MapNode is a map literal [k => v]
type MapNode struct {
	Entries []MapEntry
}

func (n *MapNode) Type() ExprNodeType { return ExprNodeTypeMap }
func (n *MapNode) exprNode()          {}

func (n *MapNode) String() string {
	parts := make([]string, len(n.Entries))
	for i, e := range n.Entries {
		parts[i] = e.Key.String() + " => " + e.Value.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// TernaryNode is cond ? then : else. A nil Then is the short form cond ?: else.
type TernaryNode struct {
	Cond ExprNode
	Then ExprNode
	Else ExprNode
}

func (n *TernaryNode) Type() ExprNodeType { return ExprNodeTypeTernary }
func (n *TernaryNode) exprNode()          {}

func (n *TernaryNode) String() string {
	if n.Then == nil {
		return fmt.Sprintf("(%s ?: %s)", n.Cond.String(), n.Else.String())
	}
	return fmt.Sprintf("(%s ? %s : %s)", n.Cond.String(), n.Then.String(), n.Else.String())
}

// AssignNode stores a value in a variable (=, +=, -=, .=)
type AssignNode struct {
	Name  string
	Op    ExprTokenType
	Value ExprNode
}

func (n *AssignNode) Type() ExprNodeType { return ExprNodeTypeAssign }
func (n *AssignNode) exprNode()          {}

func (n *AssignNode) String() string {
	return fmt.Sprintf("(%s%s %s %s)", VariableSigil, n.Name, n.Op, n.Value.String())
}

// UpdateNode increments or decrements a variable. Prefix forms yield the
// new value, postfix forms the old one.
type UpdateNode struct {
	Name   string
	Op     ExprTokenType
	Prefix bool
}

func (n *UpdateNode) Type() ExprNodeType { return ExprNodeTypeUpdate }
func (n *UpdateNode) exprNode()          {}

func (n *UpdateNode) String() string {
	if n.Prefix {
		return fmt.Sprintf("(%s %s%s)", n.Op, VariableSigil, n.Name)
	}
	return fmt.Sprintf("(%s%s %s)", VariableSigil, n.Name, n.Op)
}

func joinNodes(nodes []ExprNode) string {
	parts := make([]string, len(nodes))
	for i, node := range nodes {
		parts[i] = node.String()
	}
	return strings.Join(parts, ", ")
}

// NewLiteralString creates a string literal node
func NewLiteralString(value string) *LiteralNode {
	return &LiteralNode{Value: value, Kind: LiteralKindString}
}

// NewLiteralNumber creates a number literal node holding an int or float64
func NewLiteralNumber(value any) *LiteralNode {
	return &LiteralNode{Value: value, Kind: LiteralKindNumber}
}

// NewLiteralBool creates a boolean literal node
func NewLiteralBool(value bool) *LiteralNode {
	return &LiteralNode{Value: value, Kind: LiteralKindBool}
}

// NewLiteralNil creates a nil literal node
func NewLiteralNil() *LiteralNode {
	return &LiteralNode{Value: nil, Kind: LiteralKindNil}
}

// NewIdentifier creates an identifier node
func NewIdentifier(name string, sigil bool) *IdentifierNode {
	return &IdentifierNode{Name: name, Sigil: sigil}
}

// NewUnary creates a unary operation node
func NewUnary(op ExprTokenType, right ExprNode) *UnaryNode {
	return &UnaryNode{Op: op, Right: right}
}

// NewBinary creates a binary operation node
func NewBinary(left ExprNode, op ExprTokenType, right ExprNode) *BinaryNode {
	return &BinaryNode{Left: left, Op: op, Right: right}
}

// NewCall creates a function call node
func NewCall(name string, args []ExprNode) *CallNode {
	return &CallNode{Name: name, Args: args}
}
