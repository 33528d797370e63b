package internal

import "fmt"

// ExprParser parses expression tokens into an AST
type ExprParser struct {
	tokens []ExprToken
	pos    int
}

// NewExprParser creates a new expression parser
func NewExprParser(tokens []ExprToken) *ExprParser {
	return &ExprParser{
		tokens: tokens,
		pos:    0,
	}
}

// Parse parses the expression and returns the root AST node
func (p *ExprParser) Parse() (ExprNode, error) {
	if len(p.tokens) == 0 || (len(p.tokens) == 1 && p.tokens[0].Type == ExprTokenTypeEOF) {
		return nil, NewExprParseError(ErrMsgExprEmptyExpression, 0, "")
	}

	node, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}

	if !p.isAtEnd() {
		return nil, NewExprParseError(ErrMsgExprUnexpectedToken, p.peek().Pos, p.peek().Value)
	}

	return node, nil
}

var assignOps = []ExprTokenType{
	ExprTokenTypeAssign,
	ExprTokenTypePlusAssign,
	ExprTokenTypeMinusAssign,
	ExprTokenTypeConcatAssign,
}

// parseAssignment parses assignments (lowest precedence, right-associative)
func (p *ExprParser) parseAssignment() (ExprNode, error) {
	left, err := p.parseTernary()
	if err != nil {
		return nil, err
	}

	if p.matchAny(assignOps...) {
		op := p.previous()
		target, ok := left.(*IdentifierNode)
		if !ok || !target.Sigil {
			return nil, NewExprParseError(ErrMsgExprInvalidTarget, op.Pos, left.String())
		}
		value, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		return &AssignNode{Name: target.Name, Op: op.Type, Value: value}, nil
	}

	return left, nil
}

// parseTernary parses cond ? a : b and cond ?: b
func (p *ExprParser) parseTernary() (ExprNode, error) {
	cond, err := p.parseCoalesce()
	if err != nil {
		return nil, err
	}

	if !p.match(ExprTokenTypeQuestion) {
		return cond, nil
	}

	node := &TernaryNode{Cond: cond}
	if !p.match(ExprTokenTypeColon) {
		if node.Then, err = p.parseAssignment(); err != nil {
			return nil, err
		}
		if !p.match(ExprTokenTypeColon) {
			return nil, NewExprParseError(ErrMsgExprExpectedColon, p.currentPos(), "")
		}
	}
	if node.Else, err = p.parseAssignment(); err != nil {
		return nil, err
	}
	return node, nil
}

// parseCoalesce parses a ?? b (right-associative)
func (p *ExprParser) parseCoalesce() (ExprNode, error) {
	left, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	if p.match(ExprTokenTypeCoalesce) {
		right, err := p.parseCoalesce()
		if err != nil {
			return nil, err
		}
		return NewBinary(left, ExprTokenTypeCoalesce, right), nil
	}

	return left, nil
}

// binaryLevel parses one left-associative precedence level.
func (p *ExprParser) binaryLevel(next func() (ExprNode, error), ops ...ExprTokenType) (ExprNode, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}

	for p.matchAny(ops...) {
		op := p.previous().Type
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = NewBinary(left, op, right)
	}

	return left, nil
}

// parseOr parses OR expressions
func (p *ExprParser) parseOr() (ExprNode, error) {
	return p.binaryLevel(p.parseAnd, ExprTokenTypeOr)
}

// parseAnd parses AND expressions
func (p *ExprParser) parseAnd() (ExprNode, error) {
	return p.binaryLevel(p.parseEquality, ExprTokenTypeAnd)
}

// parseEquality parses ==, !=, === and !==
func (p *ExprParser) parseEquality() (ExprNode, error) {
	return p.binaryLevel(p.parseComparison,
		ExprTokenTypeEq, ExprTokenTypeNeq, ExprTokenTypeIdentical, ExprTokenTypeNotIdentical)
}

// parseComparison parses <, >, <= and >=
func (p *ExprParser) parseComparison() (ExprNode, error) {
	return p.binaryLevel(p.parseAdditive,
		ExprTokenTypeLt, ExprTokenTypeGt, ExprTokenTypeLte, ExprTokenTypeGte)
}

// parseAdditive parses + and -
func (p *ExprParser) parseAdditive() (ExprNode, error) {
	return p.binaryLevel(p.parseMultiplicative, ExprTokenTypePlus, ExprTokenTypeMinus)
}

// parseMultiplicative parses *, / and %
func (p *ExprParser) parseMultiplicative() (ExprNode, error) {
	return p.binaryLevel(p.parseUnary, ExprTokenTypeStar, ExprTokenTypeSlash, ExprTokenTypePercent)
}

// parseUnary parses !, unary minus and prefix ++/--
func (p *ExprParser) parseUnary() (ExprNode, error) {
	if p.matchAny(ExprTokenTypeNot, ExprTokenTypeMinus) {
		op := p.previous().Type
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return NewUnary(op, right), nil
	}

	if p.matchAny(ExprTokenTypeIncrement, ExprTokenTypeDecrement) {
		op := p.previous()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		target, ok := operand.(*IdentifierNode)
		if !ok || !target.Sigil {
			return nil, NewExprParseError(ErrMsgExprInvalidTarget, op.Pos, operand.String())
		}
		return &UpdateNode{Name: target.Name, Op: op.Type, Prefix: true}, nil
	}

	return p.parsePostfix()
}

// parsePostfix parses calls, member and index access, and postfix ++/--
func (p *ExprParser) parsePostfix() (ExprNode, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		switch {
		case p.check(ExprTokenTypeLParen):
			ident, ok := node.(*IdentifierNode)
			if !ok || ident.Sigil {
				return nil, NewExprParseError(ErrMsgExprNotCallable, p.currentPos(), node.String())
			}
			p.advance()
			if node, err = p.finishCall(ident.Name); err != nil {
				return nil, err
			}

		case p.matchAny(ExprTokenTypeDot, ExprTokenTypeArrow):
			if !p.match(ExprTokenTypeIdentifier) {
				return nil, NewExprParseError(ErrMsgExprExpectedMember, p.currentPos(), "")
			}
			node = &MemberNode{Object: node, Name: p.previous().Value}

		case p.match(ExprTokenTypeLBracket):
			index, err := p.parseAssignment()
			if err != nil {
				return nil, err
			}
			if !p.match(ExprTokenTypeRBracket) {
				return nil, NewExprParseError(ErrMsgExprExpectedRBracket, p.currentPos(), "")
			}
			node = &IndexNode{Object: node, Index: index}

		case p.matchAny(ExprTokenTypeIncrement, ExprTokenTypeDecrement):
			op := p.previous()
			target, ok := node.(*IdentifierNode)
			if !ok || !target.Sigil {
				return nil, NewExprParseError(ErrMsgExprInvalidTarget, op.Pos, node.String())
			}
			node = &UpdateNode{Name: target.Name, Op: op.Type}

		default:
			return node, nil
		}
	}
}

// finishCall finishes parsing a function call after the opening paren
func (p *ExprParser) finishCall(name string) (ExprNode, error) {
	args, err := p.parseList(ExprTokenTypeRParen)
	if err != nil {
		return nil, err
	}
	if !p.match(ExprTokenTypeRParen) {
		return nil, NewExprParseError(ErrMsgExprExpectedRParen, p.currentPos(), "")
	}
	return NewCall(name, args), nil
}

// parseList parses comma-separated expressions up to closer, allowing a
// trailing comma.
func (p *ExprParser) parseList(closer ExprTokenType) ([]ExprNode, error) {
	var items []ExprNode
	for !p.check(closer) {
		item, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if !p.match(ExprTokenTypeComma) {
			break
		}
	}
	return items, nil
}

// parseCollection parses [a, b] and [k => v] after the opening bracket
func (p *ExprParser) parseCollection() (ExprNode, error) {
	var (
		elements []ExprNode
		entries  []MapEntry
	)
	for !p.check(ExprTokenTypeRBracket) {
		item, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		if p.match(ExprTokenTypeFatArrow) {
			if len(elements) > 0 {
				return nil, NewExprParseError(ErrMsgExprMixedCollection, p.previous().Pos, "")
			}
			value, err := p.parseAssignment()
			if err != nil {
				return nil, err
			}
			entries = append(entries, MapEntry{Key: item, Value: value})
		} else {
			if len(entries) > 0 {
				return nil, NewExprParseError(ErrMsgExprMixedCollection, p.currentPos(), "")
			}
			elements = append(elements, item)
		}
		if !p.match(ExprTokenTypeComma) {
			break
		}
	}
	if !p.match(ExprTokenTypeRBracket) {
		return nil, NewExprParseError(ErrMsgExprExpectedRBracket, p.currentPos(), "")
	}
	if len(entries) > 0 {
		return &MapNode{Entries: entries}, nil
	}
	return &ArrayNode{Elements: elements}, nil
}

// parsePrimary parses literals, identifiers, collections and parenthesized expressions
func (p *ExprParser) parsePrimary() (ExprNode, error) {
	switch {
	case p.match(ExprTokenTypeString):
		return NewLiteralString(p.previous().Literal.(string)), nil
	case p.match(ExprTokenTypeNumber):
		return NewLiteralNumber(p.previous().Literal), nil
	case p.match(ExprTokenTypeBool):
		return NewLiteralBool(p.previous().Literal.(bool)), nil
	case p.match(ExprTokenTypeNil):
		return NewLiteralNil(), nil
	case p.match(ExprTokenTypeVariable):
		return NewIdentifier(p.previous().Value, true), nil
	case p.match(ExprTokenTypeIdentifier):
		return NewIdentifier(p.previous().Value, false), nil
	case p.match(ExprTokenTypeLBracket):
		return p.parseCollection()
	case p.match(ExprTokenTypeLParen):
		expr, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		if !p.match(ExprTokenTypeRParen) {
			return nil, NewExprParseError(ErrMsgExprExpectedRParen, p.currentPos(), "")
		}
		return expr, nil
	}

	if p.isAtEnd() {
		return nil, NewExprParseError(ErrMsgExprUnexpectedEOF, p.currentPos(), "")
	}
	return nil, NewExprParseError(ErrMsgExprUnexpectedToken, p.peek().Pos, p.peek().Value)
}

// match checks if the current token matches and advances if so
func (p *ExprParser) match(tokenType ExprTokenType) bool {
	if p.check(tokenType) {
		p.advance()
		return true
	}
	return false
}

// matchAny checks if the current token matches any of the given types
func (p *ExprParser) matchAny(types ...ExprTokenType) bool {
	for _, t := range types {
		if p.match(t) {
			return true
		}
	}
	return false
}

// check returns true if the current token is of the given type
func (p *ExprParser) check(tokenType ExprTokenType) bool {
	if p.isAtEnd() {
		return false
	}
	return p.peek().Type == tokenType
}

// advance moves to the next token and returns the previous one
func (p *ExprParser) advance() ExprToken {
	if !p.isAtEnd() {
		p.pos++
	}
	return p.previous()
}

// peek returns the current token
func (p *ExprParser) peek() ExprToken {
	if p.pos >= len(p.tokens) {
		return ExprToken{Type: ExprTokenTypeEOF, Pos: p.currentPos()}
	}
	return p.tokens[p.pos]
}

// previous returns the previous token
func (p *ExprParser) previous() ExprToken {
	if p.pos == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.pos-1]
}

// isAtEnd returns true if we've consumed all tokens
func (p *ExprParser) isAtEnd() bool {
	return p.pos >= len(p.tokens) || p.tokens[p.pos].Type == ExprTokenTypeEOF
}

// currentPos returns the current position for error reporting
func (p *ExprParser) currentPos() int {
	if p.pos >= len(p.tokens) {
		if len(p.tokens) > 0 {
			return p.tokens[len(p.tokens)-1].Pos
		}
		return 0
	}
	return p.tokens[p.pos].Pos
}

// ExprParseError represents an error during expression parsing
type ExprParseError struct {
	Message string
	Pos     int
	Detail  string
}

// NewExprParseError creates a new expression parse error
func NewExprParseError(message string, pos int, detail string) *ExprParseError {
	return &ExprParseError{
		Message: message,
		Pos:     pos,
		Detail:  detail,
	}
}

// Error implements the error interface
func (e *ExprParseError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s at position %d: %s", e.Message, e.Pos, e.Detail)
	}
	return fmt.Sprintf("%s at position %d", e.Message, e.Pos)
}

// Expression parser error messages
const (
	ErrMsgExprEmptyExpression  = "empty expression"
	ErrMsgExprUnexpectedToken  = "unexpected token"
	ErrMsgExprExpectedRParen   = "expected closing parenthesis"
	ErrMsgExprExpectedRBracket = "expected closing bracket"
	ErrMsgExprExpectedColon    = "expected ':' in conditional expression"
	ErrMsgExprExpectedMember   = "expected property name"
	ErrMsgExprUnexpectedEOF    = "unexpected end of expression"
	ErrMsgExprInvalidTarget    = "invalid assignment target"
	ErrMsgExprNotCallable      = "expression is not callable"
	ErrMsgExprMixedCollection  = "cannot mix keyed and positional elements"
)

// ParseExpression is a convenience function that tokenizes and parses an expression string
func ParseExpression(expr string) (ExprNode, error) {
	tokenizer := NewExprTokenizer(expr)
	tokens, err := tokenizer.Tokenize()
	if err != nil {
		return nil, err
	}

	parser := NewExprParser(tokens)
	return parser.Parse()
}
