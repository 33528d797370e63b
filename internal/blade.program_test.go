package internal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProgram_Statements(t *testing.T) {
	program, err := ParseProgram(`a<?blade echo $x; $y = 1; /* note */ ?>b<?= $z ?>`)
	require.NoError(t, err)

	assert.Equal(t, []Stmt{
		&TextStmt{Text: "a"},
		&EchoStmt{Expr: "$x"},
		&ExprStmt{Expr: "$y = 1"},
		&TextStmt{Text: "b"},
		&EchoStmt{Expr: "$z"},
	}, program.Body)
}

func TestParseProgram_If(t *testing.T) {
	program, err := ParseProgram(`<?blade if ($a): ?>A<?blade elseif ($b): ?>B<?blade else: ?>C<?blade endif; ?>`)
	require.NoError(t, err)
	require.Len(t, program.Body, 1)

	assert.Equal(t, &IfStmt{
		Branches: []CondBranch{
			{Cond: "$a", Body: []Stmt{&TextStmt{Text: "A"}}},
			{Cond: "$b", Body: []Stmt{&TextStmt{Text: "B"}}},
		},
		Else: []Stmt{&TextStmt{Text: "C"}},
	}, program.Body[0])
}

func TestParseProgram_Loops(t *testing.T) {
	t.Run("for", func(t *testing.T) {
		program, err := ParseProgram(`<?blade for ($i = 0, $j = 1; $i < 3; $i++): ?>x<?blade endfor; ?>`)
		require.NoError(t, err)
		assert.Equal(t, &ForStmt{
			Init: []string{"$i = 0", "$j = 1"},
			Cond: []string{"$i < 3"},
			Step: []string{"$i++"},
			Body: []Stmt{&TextStmt{Text: "x"}},
		}, program.Body[0])
	})

	t.Run("foreach with key", func(t *testing.T) {
		program, err := ParseProgram(`<?blade foreach ($items as $k => $v): ?>x<?blade endforeach; ?>`)
		require.NoError(t, err)
		assert.Equal(t, &ForeachStmt{
			Iter:  "$items",
			Key:   "k",
			Value: "v",
			Body:  []Stmt{&TextStmt{Text: "x"}},
		}, program.Body[0])
	})

	t.Run("while", func(t *testing.T) {
		program, err := ParseProgram(`<?blade while ($go): break; endwhile; ?>`)
		require.NoError(t, err)
		assert.Equal(t, &WhileStmt{
			Cond: "$go",
			Body: []Stmt{&BreakStmt{}},
		}, program.Body[0])
	})
}

func TestParseProgram_Switch(t *testing.T) {
	program, err := ParseProgram("<?blade switch ($v): ?>\n  <?blade case ('a'): ?>A<?blade break; ?><?blade default: ?>D<?blade endswitch; ?>")
	require.NoError(t, err)

	assert.Equal(t, &SwitchStmt{
		Subject: "$v",
		Cases: []SwitchCase{
			{Expr: "'a'", Body: []Stmt{&TextStmt{Text: "A"}, &BreakStmt{}}},
			{IsDefault: true, Body: []Stmt{&TextStmt{Text: "D"}}},
		},
	}, program.Body[0])
}

func TestParseProgram_CompiledForeach(t *testing.T) {
	code, err := NewDirectiveCompiler(nil).Compile("@foreach($items as $item) x @empty none @endforeach")
	require.NoError(t, err)

	program, err := ParseProgram(code)
	require.NoError(t, err)

	// empty flag, items, loop state, foreach, empty branch
	require.Len(t, program.Body, 5)
	assert.Equal(t, &ExprStmt{Expr: "$__items_1 = $items"}, program.Body[1])

	loop, ok := program.Body[3].(*ForeachStmt)
	require.True(t, ok)
	assert.Equal(t, "item", loop.Value)
	assert.Equal(t, []Stmt{
		&ExprStmt{Expr: "$__empty_1 = false"},
		&ExprStmt{Expr: "tick($__loop_1)"},
		&TextStmt{Text: " x "},
	}, loop.Body)

	empty, ok := program.Body[4].(*IfStmt)
	require.True(t, ok)
	assert.Equal(t, "$__empty_1", empty.Branches[0].Cond)
}

func TestParseProgram_Errors(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
	}{
		{"stray endif", "<?blade endif; ?>", ErrMsgHostUnexpectedKeyword},
		{"unclosed if", "<?blade if ($a): ?>x", ErrMsgHostBlockNotClosed},
		{"missing paren", "<?blade if $a: ?>", ErrMsgHostMissingParen},
		{"missing colon", "<?blade if ($a) ?>", ErrMsgHostMissingColon},
		{"unterminated header", "<?blade if ($a: ?>", ErrMsgHostUnterminated},
		{"bad for header", "<?blade for ($i = 0; $i < 3): endfor; ?>", ErrMsgHostForHeader},
		{"bad foreach header", "<?blade foreach ($items): endforeach; ?>", ErrMsgHostForeachHeader},
		{"foreach alias without sigil", "<?blade foreach ($items as item): endforeach; ?>", ErrMsgHostForeachHeader},
		{"text before case", "<?blade switch ($v): ?>x<?blade case (1): endswitch; ?>", ErrMsgHostSwitchBody},
		{"two defaults", "<?blade switch ($v): default: default: endswitch; ?>", ErrMsgHostDefaultTwice},
		{"endfor closing while", "<?blade while ($a): endfor; ?>", ErrMsgHostUnexpectedKeyword},
		{"unterminated comment", "<?blade /* x ?>", ErrMsgHostUnterminated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProgram(tt.code)
			require.Error(t, err)

			var pe *ProgramError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.wantMsg, pe.Message)
		})
	}
}
