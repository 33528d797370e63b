package blade

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/itsatony/go-cuserr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCompiler(t *testing.T) *Compiler {
	t.Helper()
	c, err := NewCompiler("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func errMetadata(t *testing.T, err error, key string) string {
	t.Helper()
	var ce *cuserr.CustomError
	require.True(t, errors.As(err, &ce))
	v, _ := ce.GetMetadata(key)
	return v
}

func TestCompiler_Compile(t *testing.T) {
	c := newTestCompiler(t)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"verbatim", "@verbatim {{ Hello! }} @endverbatim", " {{ Hello! }} "},
		{"comment", "{{-- note --}}", "<?blade /* note */ ?>"},
		{"raw echo", "{!! $a !!}", "<?blade echo $a; ?>"},
		{"escaped echo", "{{ $a }}", "<?blade echo e($a); ?>"},
		{"or fallback", "{{ $a or 'b' }}", "<?blade echo e($a ?? 'b'); ?>"},
		{"if", "@if($a) x @endif", "<?blade if ($a): ?> x <?blade endif; ?>"},
		{"plain text", "no directives here", "no directives here"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := c.Compile(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestCompiler_CompileErrors(t *testing.T) {
	c := newTestCompiler(t)

	t.Run("if without expression", func(t *testing.T) {
		_, err := c.Compile("@if")
		require.Error(t, err)
		assert.True(t, IsCompileError(err))
		assert.Equal(t, "if", errMetadata(t, err, MetaKeyDirective))
		assert.Equal(t, "0", errMetadata(t, err, MetaKeyOffset))
	})

	t.Run("offset counts echoes before the directive", func(t *testing.T) {
		const src = "{{ $aaaaaaaaaaaaaaaaaaaa }} @if"
		_, err := c.Compile(src)
		require.Error(t, err)
		assert.Equal(t, strconv.Itoa(strings.Index(src, "@if")), errMetadata(t, err, MetaKeyOffset))
	})

	t.Run("unclosed foreach", func(t *testing.T) {
		_, err := c.Compile("@foreach($a as $b)")
		require.Error(t, err)
		assert.True(t, IsCompileError(err))
	})
}

func TestCompiler_CustomDirectives(t *testing.T) {
	c := newTestCompiler(t)

	require.NoError(t, c.AddDirective("hello", func(expr string) (string, error) {
		return "Hello " + strings.Trim(expr, `'"`) + "!", nil
	}))
	require.NoError(t, c.AddEmptyDirective("br", func() (string, error) {
		return "<br />", nil
	}))
	require.NoError(t, c.AddOptionalDirective("comment", func(expr string, hasExpr bool) (string, error) {
		if !hasExpr {
			return "<!--  -->", nil
		}
		return "<!-- " + strings.Trim(expr, `'"`) + " -->", nil
	}))

	assert.True(t, c.HasDirective("hello"))
	assert.Contains(t, c.Directives(), "comment")

	out, err := c.Compile(`@hello('World') @br @comment @comment("This is a comment")`)
	require.NoError(t, err)
	assert.Equal(t, "Hello World! <br /> <!--  --> <!-- This is a comment -->", out)

	t.Run("name collision", func(t *testing.T) {
		err := c.AddEmptyDirective("if", func() (string, error) { return "", nil })
		require.Error(t, err)
		assert.True(t, IsCompileError(err))
	})

	t.Run("nil handler", func(t *testing.T) {
		require.Error(t, c.AddDirective("nothing", nil))
		require.Error(t, c.AddEmptyDirective("nothing", nil))
		require.Error(t, c.AddOptionalDirective("nothing", nil))
	})

	t.Run("handler error", func(t *testing.T) {
		require.NoError(t, c.AddEmptyDirective("boom", func() (string, error) {
			return "", errors.New("kaput")
		}))
		_, err := c.Compile("@boom")
		require.Error(t, err)
		assert.True(t, IsCompileError(err))
		assert.Contains(t, err.Error(), "kaput")
	})
}

func TestCompiler_Passes(t *testing.T) {
	c := newTestCompiler(t)
	c.AddCompilerPass(func(text string) (string, error) {
		return strings.ReplaceAll(text, "[SPLIT]", "<hr />"), nil
	})
	c.AddCompilerPass(nil)

	out, err := c.Compile("one[SPLIT]two")
	require.NoError(t, err)
	assert.Equal(t, "one<hr />two", out)
}

func TestCompiler_CompiledArtifacts(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	views := t.TempDir()

	c, err := NewCompiler(dir)
	require.NoError(t, err)
	defer c.Close()

	t.Run("string", func(t *testing.T) {
		a, err := c.CompiledString(ctx, "test", "Hello {{ $name }}")
		require.NoError(t, err)
		assert.Equal(t, "098f6bcd4621d373cade4e832627b4f6", a.Key)

		code, err := os.ReadFile(filepath.Join(dir, a.Key+ArtifactCompiledSuffix))
		require.NoError(t, err)
		assert.Equal(t, "Hello <?blade echo e($name); ?>", string(code))

		original, err := os.ReadFile(filepath.Join(dir, a.Key+ArtifactSourceSuffix))
		require.NoError(t, err)
		assert.Equal(t, "Hello {{ $name }}", string(original))
	})

	t.Run("file", func(t *testing.T) {
		path := writeTemplate(t, views, "hello.blade.html", "@if($a) yes @endif")
		a, err := c.CompiledFile(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, ArtifactKey(path), a.Key)

		_, err = os.Stat(filepath.Join(dir, a.Key+ArtifactCompiledSuffix))
		require.NoError(t, err)
		_, err = os.Stat(filepath.Join(dir, a.Key+ArtifactSourceSuffix))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("remove compiled files", func(t *testing.T) {
		require.NoError(t, c.RemoveCompiledFiles(ctx))
		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	assert.Equal(t, 2, c.Stats().Compiles)
}

func TestCompiler_CompiledFileAfterTouch(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := writeTemplate(t, t.TempDir(), "touch.blade.html", "{{ $a }}")

	c, err := NewCompiler(dir)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.CompiledFile(ctx, path)
	require.NoError(t, err)

	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	for i := 0; i < 3; i++ {
		_, err = c.CompiledFile(ctx, path)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, c.Stats().Compiles)

	t.Run("stamp survives a new compiler", func(t *testing.T) {
		again, err := NewCompiler(dir)
		require.NoError(t, err)
		defer again.Close()

		_, err = again.CompiledFile(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, 0, again.Stats().Compiles)
	})
}

func TestCompiler_WithStore(t *testing.T) {
	store := NewMemoryStore()
	c, err := NewCompiler("ignored", WithCompilerStore(store), WithCompilerCache(CacheConfig{MaxEntries: 5}))
	require.NoError(t, err)
	assert.Same(t, store, c.Cache().Store())
}

func TestViewCompiler_Directives(t *testing.T) {
	c, err := NewViewCompiler("")
	require.NoError(t, err)
	defer c.Close()

	tests := []struct {
		input    string
		expected string
	}{
		{`@extends("layout")`, `<?blade extends("layout"); ?>`},
		{`@extendsString("l.blade.html", $layout)`, `<?blade extendsString("l.blade.html", $layout); ?>`},
		{`@section("a")<b>x</b>@endsection`, `<?blade section("a"); ?><b>x</b><?blade endSection(); ?>`},
		{`@section("a", "x")`, `<?blade section("a", "x"); ?>`},
		{`@section("a")<b>x</b>@show`, `<?blade section("a"); ?><b>x</b><?blade echo show(); ?>`},
		{`@section("a")@parent @endsection`, `<?blade section("a"); ?><?blade echo parent(); ?> <?blade endSection(); ?>`},
		{`@yield("a", "b")`, `<?blade echo yield("a", "b"); ?>`},
		{`@content`, `<?blade echo content(); ?>`},
		{`@push("s")<b>x</b>@endpush`, `<?blade push("s"); ?><b>x</b><?blade endPush(); ?>`},
		{`@stack("s")`, `<?blade echo stack("s"); ?>`},
		{`@render("a")`, `<?blade echo render("a"); ?>`},
		{`@partialIfExists("a", ["x" => 1])`, `<?blade echo partialIfExists("a", ["x" => 1]); ?>`},
		{`@each("item", $items)`, `<?blade echo each("item", $items); ?>`},
		{`@eachStringIfExists("i.blade.html", $tpl, $items)`, `<?blade echo eachStringIfExists("i.blade.html", $tpl, $items); ?>`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			out, err := c.Compile(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestCompiler_AddViewDirective(t *testing.T) {
	c := newTestCompiler(t)

	require.NoError(t, c.AddViewDirective("upper"))
	require.NoError(t, c.AddViewDirective("upper"))
	assert.True(t, c.HasDirective("upper"))

	out, err := c.Compile(`@upper("hi") @upper @upper()`)
	require.NoError(t, err)
	assert.Equal(t, `<?blade echo format("upper", "hi"); ?> <?blade echo format("upper"); ?> <?blade echo format("upper"); ?>`, out)

	t.Run("existing directive is left alone", func(t *testing.T) {
		require.NoError(t, c.AddViewDirective("if"))
		out, err := c.Compile("@if($a)@endif")
		require.NoError(t, err)
		assert.Equal(t, "<?blade if ($a): ?><?blade endif; ?>", out)
	})
}

func TestCompiler_AtInsideWord(t *testing.T) {
	c := newTestCompiler(t)

	out, err := c.Compile("mail user@if.com")
	require.NoError(t, err)
	assert.Equal(t, "mail user@if.com", out)
}
