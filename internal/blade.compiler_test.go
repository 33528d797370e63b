package internal

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func compileText(t *testing.T, text string) string {
	t.Helper()
	out, err := NewDirectiveCompiler(zap.NewNop()).Compile(text)
	require.NoError(t, err)
	return out
}

func TestDirectiveCompiler_Echoes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"escaped echo", "{{ $name }}", "<?blade echo e($name); ?>"},
		{"raw echo", "{!! $name !!}", "<?blade echo $name; ?>"},
		{"or fallback", "{{ $name or 'Guest' }}", "<?blade echo e($name ?? 'Guest'); ?>"},
		{"or inside string is kept", "{{ 'this or that' }}", "<?blade echo e('this or that'); ?>"},
		{"escaped braces", "@{{ $name }}", "{{ $name }}"},
		{"empty echo", "a{{ }}b", "ab"},
		{"comment", "{{-- hidden --}}", "<?blade /* hidden */ ?>"},
		{"comment closing host comment", "{{-- a */ b --}}", "<?blade /* a *\\/ b */ ?>"},
		{"multiline echo", "{{\r\n $a\r\n}}", "<?blade echo e($a); ?>"},
		{"unterminated echo", "{{ $a", "{{ $a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, compileText(t, tt.input))
		})
	}
}

func TestDirectiveCompiler_ControlFlow(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "if else",
			input:    "@if($a) x @else y @endif",
			expected: "<?blade if ($a): ?> x <?blade else: ?> y <?blade endif; ?>",
		},
		{
			name:     "elseif",
			input:    "@if ($a) @elseif(count($b) > 1) @endif",
			expected: "<?blade if ($a): ?> <?blade elseif (count($b) > 1): ?> <?blade endif; ?>",
		},
		{
			name:     "unless",
			input:    "@unless($a) @elseunless($b) @endunless",
			expected: "<?blade if (!($a)): ?> <?blade elseif (!($b)): ?> <?blade endif; ?>",
		},
		{
			name:     "for",
			input:    "@for($i = 0; $i < 3; $i++) @endfor",
			expected: "<?blade for ($i = 0; $i < 3; $i++): ?> <?blade endfor; ?>",
		},
		{
			name:     "while",
			input:    "@while(true) @endwhile",
			expected: "<?blade while (true): ?> <?blade endwhile; ?>",
		},
		{
			name:     "switch",
			input:    "@switch($v) @case(1) @break @default @endswitch",
			expected: "<?blade switch ($v): ?> <?blade case (1): ?> <?blade break; ?> <?blade default: ?> <?blade endswitch; ?>",
		},
		{
			name:     "conditional break and continue",
			input:    "@break($i > 2) @continue($i == 1)",
			expected: "<?blade if ($i > 2): break; endif; ?> <?blade if ($i == 1): continue; endif; ?>",
		},
		{
			name:     "stop",
			input:    "@stop",
			expected: "<?blade return; ?>",
		},
		{
			name:     "terminator is consumed",
			input:    "@if($a); x @endif;",
			expected: "<?blade if ($a): ?> x <?blade endif; ?>",
		},
		{
			name:     "clean",
			input:    "@clean($html)",
			expected: "<?blade echo clean($html); ?>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, compileText(t, tt.input))
		})
	}
}

func TestDirectiveCompiler_Foreach(t *testing.T) {
	t.Run("single loop", func(t *testing.T) {
		out := compileText(t, "@foreach($items as $item) x @endforeach")
		assert.Equal(t,
			"<?blade $__empty_1 = true; $__items_1 = $items; $__loop_1 = loop($__items_1, 0, null); "+
				"foreach ($__items_1 as $item): $__empty_1 = false; tick($__loop_1); ?> x <?blade endforeach; ?>",
			out)
	})

	t.Run("loop variable and key alias", func(t *testing.T) {
		out := compileText(t, "@foreach($map as $k => $v, $loop)@endforeach")
		assert.Contains(t, out, "foreach ($__items_1 as $k => $v):")
		assert.Contains(t, out, "tick($__loop_1); $loop = $__loop_1;")
	})

	t.Run("nested loops link parents", func(t *testing.T) {
		out := compileText(t, "@foreach($a as $x)@foreach($x as $y)@endforeach@endforeach")
		assert.Contains(t, out, "$__loop_1 = loop($__items_1, 0, null);")
		assert.Contains(t, out, "$__loop_2 = loop($__items_2, 1, $__loop_1);")
	})

	t.Run("empty branch", func(t *testing.T) {
		out := compileText(t, "@foreach($items as $item) x @empty y @endforeach")
		assert.Contains(t, out, "<?blade endforeach; if ($__empty_1): ?> y <?blade endif; ?>")
	})

	t.Run("forelse aliases", func(t *testing.T) {
		out := compileText(t, "@foreach($items as $item) x @forelse y @endforelse")
		assert.Contains(t, out, "<?blade endforeach; if ($__empty_1): ?> y <?blade endif; ?>")
	})

	t.Run("counter is per compile", func(t *testing.T) {
		c := NewDirectiveCompiler(nil)
		first, err := c.Compile("@foreach($a as $x)@endforeach")
		require.NoError(t, err)
		second, err := c.Compile("@foreach($a as $x)@endforeach")
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestDirectiveCompiler_LongestMatch(t *testing.T) {
	out := compileText(t, "@foreach($a as $x)@endforeach")
	assert.Contains(t, out, "<?blade endforeach; ?>")
	assert.NotContains(t, out, "<?blade endfor; ?>")
}

func TestDirectiveCompiler_AfterWord(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"endif after text", "@if(true)foo@endif", "<?blade if (true): ?>foo<?blade endif; ?>"},
		{"endwhile after text", "@while(false)x@endwhile", "<?blade while (false): ?>x<?blade endwhile; ?>"},
		{"case after text", "@switch(1)@case(1)a@break@case(2)b@endswitch",
			"<?blade switch (1): ?><?blade case (1): ?>a<?blade break; ?><?blade case (2): ?>b<?blade endswitch; ?>"},
		{"argument directive after text", "x@section(\"b\")", "x<?blade section(\"b\"); ?>"},
		{"directive after verbatim", "@verbatim{{ x }}@endverbatim@if(true)y@endif", "{{ x }}<?blade if (true): ?>y<?blade endif; ?>"},
	}

	c := NewDirectiveCompiler(nil)
	c.Registry().MustRegister("section", ArityRequired, func(_ *CompileState, expr string, _ bool) (string, error) {
		return HostBlock("section(" + expr + ");"), nil
	})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := c.Compile(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestDirectiveCompiler_SourceOffsets(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"after echo", "{{ $aaaaaaaaaaaaaaaaaaaa }} @if"},
		{"after raw echo and comment", "{!! $a !!}{{-- note --}} x @if"},
		{"after escaped echo", "@{{ $a }} @if"},
		{"after empty echo", "a{{ }}b @if"},
		{"after verbatim", "@verbatim {{ x }} @endverbatim @if"},
		{"after host block", "<?blade echo 1; ?> @if"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDirectiveCompiler(nil).Compile(tt.input)
			require.Error(t, err)

			var ce *CompileError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, strings.LastIndex(tt.input, "@if"), ce.Offset)
		})
	}
}

func TestDirectiveCompiler_Literals(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"email address", "mail me at user@if.com", "mail me at user@if.com"},
		{"escaped directive", "@@if($a)", "@if($a)"},
		{"escaped unknown name", "@@foo", "@@foo"},
		{"unknown directive", "@foo($a)", "@foo($a)"},
		{"prefix of a longer word", "@iffy", "@iffy"},
		{"host block untouched", `<?blade echo "@if {{ x }}"; ?>`, `<?blade echo "@if {{ x }}"; ?>`},
		{"verbatim", "@verbatim {{ Hello! }} @endverbatim", " {{ Hello! }} "},
		{"lone at", "a @ b", "a @ b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, compileText(t, tt.input))
		})
	}
}

func TestDirectiveCompiler_Errors(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantMsg   string
		directive string
		offset    int
	}{
		{"if without expression", "@if", ErrMsgDirectiveNeedsExpr, "if", 0},
		{"if without expression after text", "ab @if x", ErrMsgDirectiveNeedsExpr, "if", 3},
		{"unterminated expression", "@if($a", ErrMsgDirectiveUnterminated, "if", 0},
		{"empty without loop", "@empty", ErrMsgEmptyWithoutLoop, "empty", 0},
		{"endforeach without loop", "@endforeach", ErrMsgEndLoopWithoutLoop, "endforeach", 0},
		{"empty twice", "@foreach($a as $b) @empty @empty @endforeach", ErrMsgEmptyTwice, "empty", 26},
		{"foreach missing as", "@foreach($a)@endforeach", ErrMsgForeachMissingAs, "foreach", 0},
		{"foreach too many aliases", "@foreach($a as $b, $c, $d)@endforeach", ErrMsgForeachInvalidAlias, "foreach", 0},
		{"loop not closed", "@foreach($a as $b)", ErrMsgLoopNotClosed, "foreach", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDirectiveCompiler(nil).Compile(tt.input)
			require.Error(t, err)

			var ce *CompileError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.wantMsg, ce.Message)
			assert.Equal(t, tt.directive, ce.Directive)
			assert.Equal(t, tt.offset, ce.Offset)
		})
	}
}

func TestDirectiveCompiler_CustomDirectives(t *testing.T) {
	c := NewDirectiveCompiler(nil)
	r := c.Registry()

	require.NoError(t, r.Register("hello", ArityRequired, func(_ *CompileState, expr string, _ bool) (string, error) {
		return "Hello " + strings.Trim(expr, `'"`) + "!", nil
	}))
	require.NoError(t, r.Register("br", ArityNone, func(_ *CompileState, _ string, _ bool) (string, error) {
		return "<br />", nil
	}))
	require.NoError(t, r.Register("comment", ArityOptional, func(_ *CompileState, expr string, hasExpr bool) (string, error) {
		if !hasExpr {
			return "<!--  -->", nil
		}
		return "<!-- " + strings.Trim(expr, `'"`) + " -->", nil
	}))

	out, err := c.Compile(`@hello('World') @br @comment @comment("This is a comment")`)
	require.NoError(t, err)
	assert.Equal(t, "Hello World! <br /> <!--  --> <!-- This is a comment -->", out)
}

func TestDirectiveCompiler_HandlerError(t *testing.T) {
	c := NewDirectiveCompiler(nil)
	c.Registry().MustRegister("boom", ArityNone, func(_ *CompileState, _ string, _ bool) (string, error) {
		return "", errors.New("kaput")
	})

	_, err := c.Compile("x @boom")
	require.Error(t, err)

	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, ErrMsgDirectiveFailed, ce.Message)
	assert.Equal(t, "boom", ce.Directive)
	assert.Equal(t, 2, ce.Offset)
	assert.Contains(t, err.Error(), "kaput")
}

func TestDirectiveCompiler_Passes(t *testing.T) {
	c := NewDirectiveCompiler(nil)
	c.AddPass(func(text string) (string, error) {
		return strings.ReplaceAll(text, "[SPLIT]", "<hr />"), nil
	})
	c.AddPass(nil)
	assert.Equal(t, 1, c.PassCount())

	out, err := c.Compile(`a[SPLIT]b<?blade echo "[SPLIT]"; ?>`)
	require.NoError(t, err)
	assert.Equal(t, `a<hr />b<?blade echo "[SPLIT]"; ?>`, out)
}

func TestDirectiveCompiler_PassError(t *testing.T) {
	c := NewDirectiveCompiler(nil)
	c.AddPass(func(text string) (string, error) {
		return "", errors.New("bad pass")
	})

	_, err := c.Compile("text")
	require.Error(t, err)

	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, ErrMsgPassFailed, ce.Message)
}

func TestHostBlock(t *testing.T) {
	assert.Equal(t, "<?blade echo 1; ?>", HostBlock("echo 1;"))
}
