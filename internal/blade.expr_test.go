package internal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenTypes(tokens []ExprToken) []ExprTokenType {
	types := make([]ExprTokenType, len(tokens))
	for i, tok := range tokens {
		types[i] = tok.Type
	}
	return types
}

func TestExprTokenizer_Tokenize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []ExprTokenType
	}{
		{"variable", "$name", []ExprTokenType{ExprTokenTypeVariable, ExprTokenTypeEOF}},
		{"identical", "$a === $b", []ExprTokenType{ExprTokenTypeVariable, ExprTokenTypeIdentical, ExprTokenTypeVariable, ExprTokenTypeEOF}},
		{"arrow member", "$loop->last", []ExprTokenType{ExprTokenTypeVariable, ExprTokenTypeArrow, ExprTokenTypeIdentifier, ExprTokenTypeEOF}},
		{"concat assign", "$s .= 'x'", []ExprTokenType{ExprTokenTypeVariable, ExprTokenTypeConcatAssign, ExprTokenTypeString, ExprTokenTypeEOF}},
		{"increment", "$i++", []ExprTokenType{ExprTokenTypeVariable, ExprTokenTypeIncrement, ExprTokenTypeEOF}},
		{"word operators", "true and not_a or null", []ExprTokenType{ExprTokenTypeBool, ExprTokenTypeAnd, ExprTokenTypeIdentifier, ExprTokenTypeOr, ExprTokenTypeNil, ExprTokenTypeEOF}},
		{"map literal", "['a' => 1]", []ExprTokenType{ExprTokenTypeLBracket, ExprTokenTypeString, ExprTokenTypeFatArrow, ExprTokenTypeNumber, ExprTokenTypeRBracket, ExprTokenTypeEOF}},
		{"coalesce", "$a ?? 1", []ExprTokenType{ExprTokenTypeVariable, ExprTokenTypeCoalesce, ExprTokenTypeNumber, ExprTokenTypeEOF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := NewExprTokenizer(tt.input).Tokenize()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, tokenTypes(tokens))
		})
	}
}

func TestExprTokenizer_Literals(t *testing.T) {
	tokens, err := NewExprTokenizer(`42 3.5 'it\'s' "a\nb"`).Tokenize()
	require.NoError(t, err)

	assert.Equal(t, 42, tokens[0].Literal)
	assert.Equal(t, 3.5, tokens[1].Literal)
	assert.Equal(t, "it's", tokens[2].Literal)
	assert.Equal(t, "a\nb", tokens[3].Literal)
}

func TestExprTokenizer_Errors(t *testing.T) {
	for _, input := range []string{`"open`, "$", "#"} {
		t.Run(input, func(t *testing.T) {
			_, err := NewExprTokenizer(input).Tokenize()
			require.Error(t, err)

			var te *ExprTokenError
			assert.True(t, errors.As(err, &te))
		})
	}
}

func TestParseExpression_Structure(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1 + 2 * 3", "(1 PLUS (2 STAR 3))"},
		{"$a ?? $b ?? 'c'", `($a COALESCE ($b COALESCE "c"))`},
		{"!$a && $b", "((NOT$a) AND $b)"},
		{"$x ?: 'd'", `($x ?: "d")`},
		{"$a ? 1 : 2", "($a ? 1 : 2)"},
		{"$user.name", "$user->name"},
		{"$items[0]", "$items[0]"},
		{"count($a, 1)", "count($a, 1)"},
		{"$i = $j = 1", "($i ASSIGN ($j ASSIGN 1))"},
		{"++$i", "(INC $i)"},
		{"$i--", "($i DEC)"},
		{"[1, 2]", "[1, 2]"},
		{"['a' => 1]", `["a" => 1]`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			node, err := ParseExpression(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, node.String())
		})
	}
}

func TestParseExpression_Errors(t *testing.T) {
	tests := []struct {
		input   string
		wantMsg string
	}{
		{"", ErrMsgExprEmptyExpression},
		{"1 +", ErrMsgExprUnexpectedEOF},
		{"(1", ErrMsgExprExpectedRParen},
		{"$a[1", ErrMsgExprExpectedRBracket},
		{"$a ? 1", ErrMsgExprExpectedColon},
		{"$a->", ErrMsgExprExpectedMember},
		{"name = 1", ErrMsgExprInvalidTarget},
		{"1++", ErrMsgExprInvalidTarget},
		{"$f(1)", ErrMsgExprNotCallable},
		{"[1, 'a' => 2]", ErrMsgExprMixedCollection},
		{"1 2", ErrMsgExprUnexpectedToken},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := ParseExpression(tt.input)
			require.Error(t, err)

			var pe *ExprParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.wantMsg, pe.Message)
		})
	}
}

type profile struct {
	Name  string
	Email string
	tags  []string
}

func TestExprEvaluator_Eval(t *testing.T) {
	scope := NewMapScope(map[string]any{
		"name":    "Alice",
		"count":   3,
		"price":   2.5,
		"items":   []any{"a", "b", "c"},
		"user":    map[string]any{"name": "Bob", "tags": []string{"x", "y"}},
		"profile": &profile{Name: "Carol", tags: []string{"hidden"}},
		"empty":   "",
		"nothing": nil,
	}, nil)

	tests := []struct {
		name     string
		input    string
		expected any
	}{
		{"variable", "$name", "Alice"},
		{"bare variable", "name", "Alice"},
		{"missing variable", "$missing", nil},
		{"int arithmetic", "$count * 2 + 1", 7},
		{"exact division stays int", "6 / 3", 2},
		{"inexact division", "7 / 2", 3.5},
		{"modulo", "7 % 3", 1},
		{"mixed arithmetic", "$price * 2", 5.0},
		{"negation", "-$count", -3},
		{"string concat", "'Hi ' + $name", "Hi Alice"},
		{"number concat", "'n' + 1", "n1"},
		{"map member", "$user.name", "Bob"},
		{"arrow member", "$user->name", "Bob"},
		{"nested index", "$user.tags[1]", "y"},
		{"struct field", "$profile->Name", "Carol"},
		{"struct field lower", "$profile->name", "Carol"},
		{"unexported field", "$profile->tags", nil},
		{"missing member", "$user.age", nil},
		{"index", "$items[0]", "a"},
		{"index out of range", "$items[9]", nil},
		{"string index", "$name[0]", "A"},
		{"map index", "$user['name']", "Bob"},
		{"coalesce nil", "$nothing ?? 'x'", "x"},
		{"coalesce empty string", "$empty ?? 'x'", ""},
		{"elvis", "$empty ?: 'x'", "x"},
		{"ternary", "$count > 2 ? 'many' : 'few'", "many"},
		{"and", "$count && $name", true},
		{"or short circuit", "true || (1 / 0)", true},
		{"and short circuit", "false && (1 / 0)", false},
		{"word operators", "$count > 1 and not_set or true", true},
		{"not", "!$empty", true},
		{"loose equal number string", "$count == '3'", true},
		{"strict not equal", "$count === '3'", false},
		{"strict equal", "$count === 3", true},
		{"int float equal", "2 == 2.0", true},
		{"int float not identical", "2 === 2.0", false},
		{"not identical", "'a' !== 'a'", false},
		{"nil equals empty", "$nothing == ''", true},
		{"nil equals nil", "null == nil", true},
		{"nil not equal zero string", "$nothing == '0'", false},
		{"string compare", "'a' < 'b'", true},
		{"lte", "3 <= 3", true},
		{"gte", "2 >= 3", false},
		{"array literal", "[1, 'two']", []any{1, "two"}},
		{"map literal", "['a' => 1, 'b' => $count]", map[string]any{"a": 1, "b": 3}},
		{"builtin call", "upper($name)", "ALICE"},
		{"builtin on collection", "count($items)", 3},
		{"case insensitive keyword", "TRUE", true},
	}

	eval := NewExprEvaluator(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := eval.Eval(tt.input, scope)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestExprEvaluator_Assignments(t *testing.T) {
	scope := NewMapScope(map[string]any{"s": "a", "n": 1}, nil)
	eval := NewExprEvaluator(nil)

	run := func(expr string) any {
		t.Helper()
		v, err := eval.Eval(expr, scope)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, 5, run("$x = 5"))
	assert.Equal(t, 8, run("$x += 3"))
	assert.Equal(t, 6, run("$x -= 2"))
	assert.Equal(t, "ab", run("$s .= 'b'"))
	assert.Equal(t, 1, run("$n++"))
	assert.Equal(t, 2, run("$n"))
	assert.Equal(t, 3, run("++$n"))
	assert.Equal(t, 2, run("--$n"))
	assert.Equal(t, 0, run("$fresh++"))
	assert.Equal(t, 1, run("$fresh"))

	vars := scope.Vars()
	assert.Equal(t, 6, vars["x"])
	assert.Equal(t, "ab", vars["s"])
}

func TestExprEvaluator_ScopeFuncsFirst(t *testing.T) {
	funcs := NewFuncRegistry()
	funcs.MustRegister(&Func{
		Name:    "upper",
		MinArgs: 1,
		MaxArgs: 1,
		Fn: func(args []any) (any, error) {
			return "shadowed", nil
		},
	})
	scope := NewMapScope(nil, funcs)

	result, err := NewExprEvaluator(nil).Eval("upper('x')", scope)
	require.NoError(t, err)
	assert.Equal(t, "shadowed", result)
}

func TestExprEvaluator_Errors(t *testing.T) {
	scope := NewMapScope(map[string]any{"list": []any{1}}, nil)
	eval := NewExprEvaluator(nil)

	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{"division by zero", "1 / 0", ErrMsgExprDivisionByZero},
		{"modulo by zero", "1 % 0", ErrMsgExprDivisionByZero},
		{"type mismatch", "$list - 1", ErrMsgExprTypeMismatch},
		{"incomparable", "$list < 1", ErrMsgExprTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := eval.Eval(tt.input, scope)
			require.Error(t, err)

			var ee *ExprEvalError
			require.True(t, errors.As(err, &ee))
			assert.Equal(t, tt.wantMsg, ee.Message)
		})
	}

	t.Run("unknown function", func(t *testing.T) {
		_, err := eval.Eval("nope(1)", scope)
		require.Error(t, err)
		assert.Contains(t, err.Error(), ErrMsgFuncNotFound)
	})

	t.Run("parse error", func(t *testing.T) {
		_, err := eval.Eval("1 +", scope)
		require.Error(t, err)
	})
}

func TestExprEvaluator_CachesParsedExpressions(t *testing.T) {
	eval := NewExprEvaluator(nil)
	scope := NewMapScope(map[string]any{"a": 1}, nil)

	for i := 0; i < 3; i++ {
		v, err := eval.Eval("$a + 1", scope)
		require.NoError(t, err)
		assert.Equal(t, 2, v)
	}

	eval.mu.RLock()
	defer eval.mu.RUnlock()
	assert.Len(t, eval.cache, 1)
}

func TestLooseEqual(t *testing.T) {
	assert.True(t, LooseEqual(1, 1.0))
	assert.True(t, LooseEqual("1.5", 1.5))
	assert.True(t, LooseEqual(true, 1))
	assert.True(t, LooseEqual(nil, false))
	assert.True(t, LooseEqual([]any{1}, []any{1}))
	assert.False(t, LooseEqual("abc", 0))
	assert.False(t, LooseEqual(nil, "x"))
}

func TestStrictEqual(t *testing.T) {
	assert.True(t, StrictEqual(int64(2), 2))
	assert.True(t, StrictEqual(nil, nil))
	assert.False(t, StrictEqual(nil, false))
	assert.False(t, StrictEqual(1, 1.0))
	assert.False(t, StrictEqual("1", 1))
}

func TestEvaluateExpression(t *testing.T) {
	v, err := EvaluateExpression("len('abc')", NewMapScope(nil, nil))
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}
