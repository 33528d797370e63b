package internal

import (
	"strings"

	"go.uber.org/zap"
)

// hostToken is one flat host statement, or a run of literal text.
type hostToken struct {
	keyword string // host keyword, KeywordEcho, or empty for expression statements
	arg     string // parenthesized header, echo expression, or expression statement
	text    string
	isText  bool
}

// headerKeywords take a parenthesized header followed by a colon.
var headerKeywords = map[string]bool{
	KeywordIf:      true,
	KeywordElseIf:  true,
	KeywordFor:     true,
	KeywordForeach: true,
	KeywordWhile:   true,
	KeywordSwitch:  true,
	KeywordCase:    true,
}

// bareKeywords stand alone, optionally followed by a semicolon.
var bareKeywords = map[string]bool{
	KeywordEndIf:      true,
	KeywordEndFor:     true,
	KeywordEndForeach: true,
	KeywordEndWhile:   true,
	KeywordEndSwitch:  true,
	KeywordBreak:      true,
	KeywordContinue:   true,
	KeywordReturn:     true,
}

// terminatorKeywords end an enclosing block.
var terminatorKeywords = map[string]bool{
	KeywordElseIf:     true,
	KeywordElse:       true,
	KeywordEndIf:      true,
	KeywordEndFor:     true,
	KeywordEndForeach: true,
	KeywordEndWhile:   true,
	KeywordCase:       true,
	KeywordDefault:    true,
	KeywordEndSwitch:  true,
}

// headerScan captures block headers with nested parentheses.
var headerScan = ScanOptions{Recursive: true, Trim: true}

// ProgramParser turns compiled host form into a statement tree.
type ProgramParser struct {
	logger *zap.Logger
}

// NewProgramParser creates a new program parser
func NewProgramParser(logger *zap.Logger) *ProgramParser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgramParser{logger: logger}
}

// Parse parses compiled host form.
func (pp *ProgramParser) Parse(code string) (*Program, error) {
	tokens, err := tokenizeProgram(code)
	if err != nil {
		return nil, err
	}

	p := &programParser{tokens: tokens}
	body, stop, err := p.parseBlock(nil)
	if err != nil {
		return nil, err
	}
	if stop != nil {
		return nil, NewProgramError(ErrMsgHostUnexpectedKeyword, stop.keyword)
	}

	pp.logger.Debug(LogMsgProgramParsed,
		zap.Int(LogFieldLength, len(code)),
		zap.Int(LogFieldStmts, len(body)))

	return &Program{Body: body}, nil
}

// ParseProgram parses compiled host form without logging.
func ParseProgram(code string) (*Program, error) {
	return NewProgramParser(nil).Parse(code)
}

func tokenizeProgram(code string) ([]hostToken, error) {
	var tokens []hostToken
	for _, seg := range Classify(code) {
		if seg.Kind == SegmentText {
			tokens = append(tokens, hostToken{isText: true, text: seg.Text})
			continue
		}

		body, echo := hostBody(seg.Text)
		if echo {
			expr := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(body), HostStmtSep))
			if expr != "" {
				tokens = append(tokens, hostToken{keyword: KeywordEcho, arg: expr})
			}
			continue
		}

		stmts, err := tokenizeHost(body)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, stmts...)
	}
	return tokens, nil
}

// hostBody strips the block markers from a host segment.
func hostBody(block string) (string, bool) {
	echo := false
	switch {
	case strings.HasPrefix(block, HostOpen):
		block = block[len(HostOpen):]
	case strings.HasPrefix(block, HostEchoOpen):
		block = block[len(HostEchoOpen):]
		echo = true
	}
	block = strings.TrimSuffix(block, HostClose)
	return block, echo
}

// tokenizeHost splits the body of one host block into statements.
func tokenizeHost(code string) ([]hostToken, error) {
	var tokens []hostToken
	i := 0
	for {
		i = skipSpaces(code, i)
		if i >= len(code) {
			break
		}

		if strings.HasPrefix(code[i:], HostCommentOpen) {
			idx := strings.Index(code[i+len(HostCommentOpen):], HostCommentClose)
			if idx < 0 {
				return nil, NewProgramError(ErrMsgHostUnterminated, code[i:])
			}
			i += len(HostCommentOpen) + idx + len(HostCommentClose)
			continue
		}
		if code[i] == HostStmtEnd {
			i++
			continue
		}

		word := ""
		if isIdentStart(code[i]) {
			word = readWord(code, i)
		}
		after := i + len(word)

		switch {
		case headerKeywords[word]:
			j := skipSpaces(code, after)
			if j >= len(code) || code[j] != ParenOpen[0] {
				return nil, NewProgramError(ErrMsgHostMissingParen, word)
			}
			span, ok := ScanAt(code, ParenOpen, ParenClose, j, headerScan)
			if !ok {
				return nil, NewProgramError(ErrMsgHostUnterminated, word)
			}
			k := skipSpaces(code, span.End)
			if k >= len(code) || code[k] != HostBlockColon {
				return nil, NewProgramError(ErrMsgHostMissingColon, word)
			}
			tokens = append(tokens, hostToken{keyword: word, arg: span.Content})
			i = k + 1
			continue

		case word == KeywordElse || word == KeywordDefault:
			if k := skipSpaces(code, after); k < len(code) && code[k] == HostBlockColon {
				tokens = append(tokens, hostToken{keyword: word})
				i = k + 1
				continue
			}

		case bareKeywords[word]:
			tokens = append(tokens, hostToken{keyword: word})
			i = after
			continue

		case word == KeywordEcho:
			stmt, next := readStatement(code, after)
			if stmt == "" {
				return nil, NewProgramError(ErrMsgHostUnterminated, word)
			}
			tokens = append(tokens, hostToken{keyword: KeywordEcho, arg: stmt})
			i = next
			continue
		}

		stmt, next := readStatement(code, i)
		if stmt != "" {
			tokens = append(tokens, hostToken{arg: stmt})
		}
		i = next
	}
	return tokens, nil
}

// readStatement reads an expression up to the next top-level semicolon.
func readStatement(code string, from int) (string, int) {
	rest := code[from:]
	end := IndexTopLevel(rest, HostStmtSep)
	if end < 0 {
		return strings.TrimSpace(rest), len(code)
	}
	return strings.TrimSpace(rest[:end]), from + end + 1
}

type programParser struct {
	tokens []hostToken
	pos    int
}

// parseBlock parses statements until a terminator keyword. It returns the
// terminator token, or nil at the end of input. Terminators not in stops
// are errors.
func (p *programParser) parseBlock(stops map[string]bool) ([]Stmt, *hostToken, error) {
	var body []Stmt
	for p.pos < len(p.tokens) {
		tok := &p.tokens[p.pos]
		p.pos++

		if tok.isText {
			body = append(body, &TextStmt{Text: tok.text})
			continue
		}

		if terminatorKeywords[tok.keyword] {
			if !stops[tok.keyword] {
				return nil, nil, NewProgramError(ErrMsgHostUnexpectedKeyword, tok.keyword)
			}
			return body, tok, nil
		}

		stmt, err := p.parseStatement(tok)
		if err != nil {
			return nil, nil, err
		}
		body = append(body, stmt)
	}

	if len(stops) > 0 {
		return nil, nil, NewProgramError(ErrMsgHostBlockNotClosed, "")
	}
	return body, nil, nil
}

func (p *programParser) parseStatement(tok *hostToken) (Stmt, error) {
	switch tok.keyword {
	case "":
		return &ExprStmt{Expr: tok.arg}, nil
	case KeywordEcho:
		return &EchoStmt{Expr: tok.arg}, nil
	case KeywordBreak:
		return &BreakStmt{}, nil
	case KeywordContinue:
		return &ContinueStmt{}, nil
	case KeywordReturn:
		return &ReturnStmt{}, nil
	case KeywordIf:
		return p.parseIf(tok)
	case KeywordFor:
		return p.parseFor(tok)
	case KeywordForeach:
		return p.parseForeach(tok)
	case KeywordWhile:
		body, err := p.parseUntil(KeywordEndWhile)
		if err != nil {
			return nil, err
		}
		return &WhileStmt{Cond: tok.arg, Body: body}, nil
	case KeywordSwitch:
		return p.parseSwitch(tok)
	}
	return nil, NewProgramError(ErrMsgHostUnexpectedKeyword, tok.keyword)
}

func (p *programParser) parseUntil(end string) ([]Stmt, error) {
	body, _, err := p.parseBlock(map[string]bool{end: true})
	return body, err
}

var ifStops = map[string]bool{KeywordElseIf: true, KeywordElse: true, KeywordEndIf: true}

func (p *programParser) parseIf(tok *hostToken) (Stmt, error) {
	stmt := &IfStmt{}
	cond := tok.arg
	for {
		body, stop, err := p.parseBlock(ifStops)
		if err != nil {
			return nil, err
		}
		stmt.Branches = append(stmt.Branches, CondBranch{Cond: cond, Body: body})

		switch stop.keyword {
		case KeywordElseIf:
			cond = stop.arg
		case KeywordElse:
			elseBody, err := p.parseUntil(KeywordEndIf)
			if err != nil {
				return nil, err
			}
			if elseBody == nil {
				elseBody = []Stmt{}
			}
			stmt.Else = elseBody
			return stmt, nil
		default:
			return stmt, nil
		}
	}
}

func (p *programParser) parseFor(tok *hostToken) (Stmt, error) {
	clauses := SplitTopLevel(tok.arg, HostStmtSep)
	if len(clauses) != 3 {
		return nil, NewProgramError(ErrMsgHostForHeader, tok.arg)
	}
	body, err := p.parseUntil(KeywordEndFor)
	if err != nil {
		return nil, err
	}
	return &ForStmt{
		Init: splitExprList(clauses[0]),
		Cond: splitExprList(clauses[1]),
		Step: splitExprList(clauses[2]),
		Body: body,
	}, nil
}

func splitExprList(clause string) []string {
	var exprs []string
	for _, part := range SplitTopLevel(clause, HostListSep) {
		if part = strings.TrimSpace(part); part != "" {
			exprs = append(exprs, part)
		}
	}
	return exprs
}

func (p *programParser) parseForeach(tok *hostToken) (Stmt, error) {
	asAt := IndexKeyword(tok.arg, KeywordAs)
	if asAt < 0 {
		return nil, NewProgramError(ErrMsgHostForeachHeader, tok.arg)
	}
	stmt := &ForeachStmt{Iter: strings.TrimSpace(tok.arg[:asAt])}
	alias := strings.TrimSpace(tok.arg[asAt+len(KeywordAs):])

	value := alias
	if arrow := IndexTopLevel(alias, HostArrow); arrow >= 0 {
		key, ok := variableName(alias[:arrow])
		if !ok {
			return nil, NewProgramError(ErrMsgHostForeachHeader, tok.arg)
		}
		stmt.Key = key
		value = alias[arrow+len(HostArrow):]
	}
	name, ok := variableName(value)
	if !ok || stmt.Iter == "" {
		return nil, NewProgramError(ErrMsgHostForeachHeader, tok.arg)
	}
	stmt.Value = name

	body, err := p.parseUntil(KeywordEndForeach)
	if err != nil {
		return nil, err
	}
	stmt.Body = body
	return stmt, nil
}

// variableName strips the sigil from a $name binding target.
func variableName(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, VariableSigil) {
		return "", false
	}
	name := s[len(VariableSigil):]
	if name == "" || !isIdentStart(name[0]) || readWord(name, 0) != name {
		return "", false
	}
	return name, true
}

var switchStops = map[string]bool{KeywordCase: true, KeywordDefault: true, KeywordEndSwitch: true}

func (p *programParser) parseSwitch(tok *hostToken) (Stmt, error) {
	stmt := &SwitchStmt{Subject: tok.arg}

	lead, stop, err := p.parseBlock(switchStops)
	if err != nil {
		return nil, err
	}
	for _, s := range lead {
		text, ok := s.(*TextStmt)
		if !ok || strings.TrimSpace(text.Text) != "" {
			return nil, NewProgramError(ErrMsgHostSwitchBody, tok.arg)
		}
	}

	hasDefault := false
	for stop.keyword != KeywordEndSwitch {
		c := SwitchCase{Expr: stop.arg, IsDefault: stop.keyword == KeywordDefault}
		if c.IsDefault {
			if hasDefault {
				return nil, NewProgramError(ErrMsgHostDefaultTwice, tok.arg)
			}
			hasDefault = true
		}
		c.Body, stop, err = p.parseBlock(switchStops)
		if err != nil {
			return nil, err
		}
		stmt.Cases = append(stmt.Cases, c)
	}
	return stmt, nil
}
