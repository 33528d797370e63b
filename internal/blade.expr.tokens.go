package internal

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// ExprTokenType represents the type of an expression token
type ExprTokenType string

// Expression token type constants
const (
	ExprTokenTypeIdentifier ExprTokenType = "IDENT"
	ExprTokenTypeVariable   ExprTokenType = "VAR"
	ExprTokenTypeString     ExprTokenType = "STRING"
	ExprTokenTypeNumber     ExprTokenType = "NUMBER"
	ExprTokenTypeBool       ExprTokenType = "BOOL"
	ExprTokenTypeNil        ExprTokenType = "NIL"
	ExprTokenTypeLParen     ExprTokenType = "LPAREN"
	ExprTokenTypeRParen     ExprTokenType = "RPAREN"
	ExprTokenTypeLBracket   ExprTokenType = "LBRACKET"
	ExprTokenTypeRBracket   ExprTokenType = "RBRACKET"
	ExprTokenTypeComma      ExprTokenType = "COMMA"
	ExprTokenTypeDot        ExprTokenType = "DOT"
	ExprTokenTypeArrow      ExprTokenType = "ARROW"
	ExprTokenTypeFatArrow   ExprTokenType = "FATARROW"
	ExprTokenTypeQuestion   ExprTokenType = "QUESTION"
	ExprTokenTypeColon      ExprTokenType = "COLON"

	// Operators
	ExprTokenTypeCoalesce     ExprTokenType = "COALESCE"
	ExprTokenTypeAnd          ExprTokenType = "AND"
	ExprTokenTypeOr           ExprTokenType = "OR"
	ExprTokenTypeNot          ExprTokenType = "NOT"
	ExprTokenTypeEq           ExprTokenType = "EQ"
	ExprTokenTypeNeq          ExprTokenType = "NEQ"
	ExprTokenTypeIdentical    ExprTokenType = "IDENTICAL"
	ExprTokenTypeNotIdentical ExprTokenType = "NOT_IDENTICAL"
	ExprTokenTypeLt           ExprTokenType = "LT"
	ExprTokenTypeGt           ExprTokenType = "GT"
	ExprTokenTypeLte          ExprTokenType = "LTE"
	ExprTokenTypeGte          ExprTokenType = "GTE"
	ExprTokenTypePlus         ExprTokenType = "PLUS"
	ExprTokenTypeMinus        ExprTokenType = "MINUS"
	ExprTokenTypeStar         ExprTokenType = "STAR"
	ExprTokenTypeSlash        ExprTokenType = "SLASH"
	ExprTokenTypePercent      ExprTokenType = "PERCENT"
	ExprTokenTypeAssign       ExprTokenType = "ASSIGN"
	ExprTokenTypePlusAssign   ExprTokenType = "PLUS_ASSIGN"
	ExprTokenTypeMinusAssign  ExprTokenType = "MINUS_ASSIGN"
	ExprTokenTypeConcatAssign ExprTokenType = "CONCAT_ASSIGN"
	ExprTokenTypeIncrement    ExprTokenType = "INC"
	ExprTokenTypeDecrement    ExprTokenType = "DEC"

	ExprTokenTypeEOF ExprTokenType = "EOF"
)

// Expression keyword constants
const (
	ExprKeywordTrue  = "true"
	ExprKeywordFalse = "false"
	ExprKeywordNil   = "nil"
	ExprKeywordNull  = "null"
	ExprKeywordAnd   = "and"
	ExprKeywordOr    = "or"
)

// exprOperators lists operator spellings, longest first within each length.
var exprOperators = []struct {
	text string
	typ  ExprTokenType
}{
	{"===", ExprTokenTypeIdentical},
	{"!==", ExprTokenTypeNotIdentical},
	{"&&", ExprTokenTypeAnd},
	{"||", ExprTokenTypeOr},
	{"==", ExprTokenTypeEq},
	{"!=", ExprTokenTypeNeq},
	{"<=", ExprTokenTypeLte},
	{">=", ExprTokenTypeGte},
	{"??", ExprTokenTypeCoalesce},
	{"->", ExprTokenTypeArrow},
	{"=>", ExprTokenTypeFatArrow},
	{"+=", ExprTokenTypePlusAssign},
	{"-=", ExprTokenTypeMinusAssign},
	{".=", ExprTokenTypeConcatAssign},
	{"++", ExprTokenTypeIncrement},
	{"--", ExprTokenTypeDecrement},
	{"(", ExprTokenTypeLParen},
	{")", ExprTokenTypeRParen},
	{"[", ExprTokenTypeLBracket},
	{"]", ExprTokenTypeRBracket},
	{",", ExprTokenTypeComma},
	{".", ExprTokenTypeDot},
	{"?", ExprTokenTypeQuestion},
	{":", ExprTokenTypeColon},
	{"!", ExprTokenTypeNot},
	{"<", ExprTokenTypeLt},
	{">", ExprTokenTypeGt},
	{"+", ExprTokenTypePlus},
	{"-", ExprTokenTypeMinus},
	{"*", ExprTokenTypeStar},
	{"/", ExprTokenTypeSlash},
	{"%", ExprTokenTypePercent},
	{"=", ExprTokenTypeAssign},
}

// ExprToken represents a token in an expression
type ExprToken struct {
	Type    ExprTokenType
	Value   string
	Pos     int
	Literal any // parsed value for literals (string, int, float64, bool, nil)
}

// String returns the string representation of the token
func (t ExprToken) String() string {
	if t.Value != "" {
		return fmt.Sprintf("%s(%s)", t.Type, t.Value)
	}
	return string(t.Type)
}

// ExprTokenizer tokenizes expression strings
type ExprTokenizer struct {
	input string
	pos   int
	len   int
}

// NewExprTokenizer creates a new expression tokenizer
func NewExprTokenizer(input string) *ExprTokenizer {
	return &ExprTokenizer{
		input: input,
		pos:   0,
		len:   len(input),
	}
}

// Tokenize converts the input string into a slice of tokens
func (t *ExprTokenizer) Tokenize() ([]ExprToken, error) {
	var tokens []ExprToken

	for {
		t.skipWhitespace()

		if t.pos >= t.len {
			tokens = append(tokens, ExprToken{Type: ExprTokenTypeEOF, Pos: t.pos})
			break
		}

		token, err := t.nextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}

	return tokens, nil
}

// nextToken reads the next token from the input
func (t *ExprTokenizer) nextToken() (ExprToken, error) {
	startPos := t.pos
	ch := t.peek()

	if ch == '"' || ch == '\'' {
		return t.readString()
	}

	if isDigit(ch) || (ch == '.' && t.pos+1 < t.len && isDigit(t.input[t.pos+1])) {
		return t.readNumber()
	}

	if ch == VariableSigil[0] {
		if t.pos+1 < t.len && isIdentStart(t.input[t.pos+1]) {
			t.pos++
			name := t.readWord()
			return ExprToken{Type: ExprTokenTypeVariable, Value: name, Pos: startPos}, nil
		}
		return ExprToken{}, NewExprTokenError(ErrMsgExprUnexpectedChar, startPos, string(ch))
	}

	if unicode.IsLetter(rune(ch)) || ch == '_' {
		return t.readIdentifier()
	}

	for _, op := range exprOperators {
		if strings.HasPrefix(t.input[t.pos:], op.text) {
			t.pos += len(op.text)
			return ExprToken{Type: op.typ, Value: op.text, Pos: startPos}, nil
		}
	}

	return ExprToken{}, NewExprTokenError(ErrMsgExprUnexpectedChar, startPos, string(ch))
}

// readString reads a string literal
func (t *ExprTokenizer) readString() (ExprToken, error) {
	startPos := t.pos
	quote := t.input[t.pos]
	t.pos++

	var sb strings.Builder
	for t.pos < t.len {
		ch := t.input[t.pos]
		if ch == quote {
			t.pos++
			value := sb.String()
			return ExprToken{
				Type:    ExprTokenTypeString,
				Value:   value,
				Pos:     startPos,
				Literal: value,
			}, nil
		}
		if ch == '\\' && t.pos+1 < t.len {
			t.pos++
			escaped := t.input[t.pos]
			switch escaped {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '\\', '"', '\'', '$':
				sb.WriteByte(escaped)
			default:
				sb.WriteByte('\\')
				sb.WriteByte(escaped)
			}
			t.pos++
			continue
		}
		sb.WriteByte(ch)
		t.pos++
	}

	return ExprToken{}, NewExprTokenError(ErrMsgExprUnterminatedStr, startPos, "")
}

// readNumber reads an integer or decimal literal
func (t *ExprTokenizer) readNumber() (ExprToken, error) {
	startPos := t.pos
	hasDecimal := false

	for t.pos < t.len {
		ch := t.input[t.pos]
		if ch == '.' {
			if hasDecimal || t.pos+1 >= t.len || !isDigit(t.input[t.pos+1]) {
				break
			}
			hasDecimal = true
			t.pos++
			continue
		}
		if !isDigit(ch) {
			break
		}
		t.pos++
	}

	value := t.input[startPos:t.pos]

	if !hasDecimal {
		n, err := strconv.Atoi(value)
		if err != nil {
			return ExprToken{}, NewExprTokenError(ErrMsgExprInvalidNumber, startPos, value)
		}
		return ExprToken{Type: ExprTokenTypeNumber, Value: value, Pos: startPos, Literal: n}, nil
	}

	f, err := strconv.ParseFloat(value, FloatBitSize64)
	if err != nil {
		return ExprToken{}, NewExprTokenError(ErrMsgExprInvalidNumber, startPos, value)
	}
	return ExprToken{Type: ExprTokenTypeNumber, Value: value, Pos: startPos, Literal: f}, nil
}

// readIdentifier reads an identifier or keyword
func (t *ExprTokenizer) readIdentifier() (ExprToken, error) {
	startPos := t.pos
	value := t.readWord()

	switch strings.ToLower(value) {
	case ExprKeywordTrue:
		return ExprToken{Type: ExprTokenTypeBool, Value: value, Pos: startPos, Literal: true}, nil
	case ExprKeywordFalse:
		return ExprToken{Type: ExprTokenTypeBool, Value: value, Pos: startPos, Literal: false}, nil
	case ExprKeywordNil, ExprKeywordNull:
		return ExprToken{Type: ExprTokenTypeNil, Value: value, Pos: startPos, Literal: nil}, nil
	case ExprKeywordAnd:
		return ExprToken{Type: ExprTokenTypeAnd, Value: value, Pos: startPos}, nil
	case ExprKeywordOr:
		return ExprToken{Type: ExprTokenTypeOr, Value: value, Pos: startPos}, nil
	}

	return ExprToken{Type: ExprTokenTypeIdentifier, Value: value, Pos: startPos}, nil
}

func (t *ExprTokenizer) readWord() string {
	start := t.pos
	for t.pos < t.len {
		ch := rune(t.input[t.pos])
		if !unicode.IsLetter(ch) && !unicode.IsDigit(ch) && ch != '_' {
			break
		}
		t.pos++
	}
	return t.input[start:t.pos]
}

// peek returns the current character without advancing
func (t *ExprTokenizer) peek() byte {
	if t.pos >= t.len {
		return 0
	}
	return t.input[t.pos]
}

// skipWhitespace skips whitespace characters
func (t *ExprTokenizer) skipWhitespace() {
	for t.pos < t.len && unicode.IsSpace(rune(t.input[t.pos])) {
		t.pos++
	}
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// ExprTokenError represents an error during expression tokenization
type ExprTokenError struct {
	Message string
	Pos     int
	Detail  string
}

// NewExprTokenError creates a new expression token error
func NewExprTokenError(message string, pos int, detail string) *ExprTokenError {
	return &ExprTokenError{
		Message: message,
		Pos:     pos,
		Detail:  detail,
	}
}

// Error implements the error interface
func (e *ExprTokenError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s at position %d: %s", e.Message, e.Pos, e.Detail)
	}
	return fmt.Sprintf("%s at position %d", e.Message, e.Pos)
}

// Expression tokenizer error messages
const (
	ErrMsgExprUnexpectedChar  = "unexpected character"
	ErrMsgExprUnterminatedStr = "unterminated string literal"
	ErrMsgExprInvalidNumber   = "invalid number format"
)
