package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test data constants
const (
	testViewContent   = "Hello, {{ $user }}!"
	testLayoutContent = "<main>@content</main>"
	testPageContent   = `@extends("layout")Hi {{ $user }}`
	testDataJSON      = `{"user": "Alice"}`
	testDataYAML      = "user: Bob\n"
	testExpected      = "Hello, Alice!"
)

// setupViews creates a view directory in a temp directory
func setupViews(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		"hello.blade.html":  testViewContent,
		"layout.blade.html": testLayoutContent,
		"page.blade.html":   testPageContent,
		"data.json":         testDataJSON,
		"data.yaml":         testDataYAML,
		"broken.blade.html": "@foreach($a as $b)",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), FilePermissions))
	}
	return dir
}

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	code := run(args, strings.NewReader(stdin), stdout, stderr)
	return code, stdout.String(), stderr.String()
}

// ==================== run() dispatch tests ====================

func TestRun_NoArgs_ShowsHelp(t *testing.T) {
	code, stdout, _ := runCLI(t, "")

	assert.Equal(t, ExitCodeSuccess, code)
	assert.Contains(t, stdout, CLIName)
	assert.Contains(t, stdout, CmdNameRender)
	assert.Contains(t, stdout, CmdNameCompile)
}

func TestRun_UnknownCommand(t *testing.T) {
	code, _, stderr := runCLI(t, "", "unknown")

	assert.Equal(t, ExitCodeUsageError, code)
	assert.Contains(t, stderr, "unknown command")
}

func TestRun_VersionCommand(t *testing.T) {
	code, stdout, _ := runCLI(t, "", CmdNameVersion)

	assert.Equal(t, ExitCodeSuccess, code)
	assert.Contains(t, stdout, "blade version "+Version)
}

// ==================== render tests ====================

func TestRender(t *testing.T) {
	dir := setupViews(t)

	tests := []struct {
		name     string
		stdin    string
		args     []string
		expected string
	}{
		{"inline json", "", []string{"hello", "-p", dir, "-d", testDataJSON}, testExpected},
		{"data file", "", []string{"hello", "-p", dir, "-f", filepath.Join(dir, "data.json")}, testExpected},
		{"yaml data file", "", []string{"hello", "-p", dir, "-f", filepath.Join(dir, "data.yaml")}, "Hello, Bob!"},
		{"data from stdin", testDataYAML, []string{"hello", "-p", dir, "-f", "-"}, "Hello, Bob!"},
		{"no data", "", []string{"hello", "-p", dir}, "Hello, !"},
		{"layout", "", []string{"page", "-p", dir, "-d", testDataJSON}, "<main>Hi Alice</main>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{CmdNameRender}, tt.args...)
			code, stdout, stderr := runCLI(t, tt.stdin, args...)

			require.Equal(t, ExitCodeSuccess, code, stderr)
			assert.Equal(t, tt.expected, stdout)
		})
	}
}

func TestRender_OutputFile(t *testing.T) {
	dir := setupViews(t)
	out := filepath.Join(t.TempDir(), "out.html")

	code, stdout, _ := runCLI(t, "", CmdNameRender, "hello", "-p", dir, "-d", testDataJSON, "-o", out)
	require.Equal(t, ExitCodeSuccess, code)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, testExpected, string(data))
}

func TestRender_CompileDir(t *testing.T) {
	dir := setupViews(t)
	compiled := t.TempDir()

	code, _, _ := runCLI(t, "", CmdNameRender, "hello", "-p", dir, "--compile-dir", compiled)
	require.Equal(t, ExitCodeSuccess, code)

	entries, err := os.ReadDir(compiled)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)

	t.Run("clear", func(t *testing.T) {
		code, _, stderr := runCLI(t, "", CmdNameClear, "--compile-dir", compiled)
		require.Equal(t, ExitCodeSuccess, code, stderr)

		entries, err := os.ReadDir(compiled)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestRender_Config(t *testing.T) {
	dir := setupViews(t)
	config := filepath.Join(dir, "blade.yaml")
	require.NoError(t, os.WriteFile(config, []byte("paths: [\".\"]\nparams:\n  user: Config\n"), FilePermissions))

	code, stdout, stderr := runCLI(t, "", CmdNameRender, "hello", "-c", config)
	require.Equal(t, ExitCodeSuccess, code, stderr)
	assert.Equal(t, "Hello, Config!", stdout)

	code, stdout, _ = runCLI(t, "", CmdNameRender, "hello", "-c", config, "-d", testDataJSON)
	require.Equal(t, ExitCodeSuccess, code)
	assert.Equal(t, testExpected, stdout)
}

func TestRender_Debug(t *testing.T) {
	dir := setupViews(t)

	code, _, stderr := runCLI(t, "", CmdNameRender, "page", "-p", dir, "--debug")
	require.Equal(t, ExitCodeSuccess, code)
	assert.Contains(t, stderr, "following extends target")
}

func TestRender_Errors(t *testing.T) {
	dir := setupViews(t)

	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantMsg  string
	}{
		{"missing name", []string{}, ExitCodeUsageError, ""},
		{"unknown flag", []string{"hello", "--nope"}, ExitCodeUsageError, ""},
		{"missing view", []string{"missing", "-p", dir}, ExitCodeError, "View file `missing` does not exist in view paths."},
		{"compile error", []string{"broken", "-p", dir}, ExitCodeError, ErrMsgRenderFailed},
		{"invalid data", []string{"hello", "-p", dir, "-d", "{user: [unclosed"}, ExitCodeInputError, ErrMsgInvalidData},
		{"missing data file", []string{"hello", "-p", dir, "-f", filepath.Join(dir, "nope.json")}, ExitCodeInputError, ErrMsgInvalidData},
		{"missing config", []string{"hello", "-c", filepath.Join(dir, "nope.yaml")}, ExitCodeInputError, ErrMsgConfigFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{CmdNameRender}, tt.args...)
			code, _, stderr := runCLI(t, "", args...)

			assert.Equal(t, tt.wantCode, code)
			assert.Contains(t, stderr, tt.wantMsg)
		})
	}
}

// ==================== compile tests ====================

func TestCompile(t *testing.T) {
	dir := setupViews(t)

	t.Run("file", func(t *testing.T) {
		code, stdout, _ := runCLI(t, "", CmdNameCompile, filepath.Join(dir, "hello.blade.html"))
		require.Equal(t, ExitCodeSuccess, code)
		assert.Equal(t, "Hello, <?blade echo e($user); ?>!", stdout)
	})

	t.Run("stdin", func(t *testing.T) {
		code, stdout, _ := runCLI(t, `@extends("layout")`, CmdNameCompile, "-")
		require.Equal(t, ExitCodeSuccess, code)
		assert.Equal(t, `<?blade extends("layout"); ?>`, stdout)
	})

	t.Run("compile error", func(t *testing.T) {
		code, _, stderr := runCLI(t, "", CmdNameCompile, filepath.Join(dir, "broken.blade.html"))
		assert.Equal(t, ExitCodeError, code)
		assert.Contains(t, stderr, ErrMsgCompileFailed)
	})

	t.Run("missing file", func(t *testing.T) {
		code, _, stderr := runCLI(t, "", CmdNameCompile, filepath.Join(dir, "nope"))
		assert.Equal(t, ExitCodeInputError, code)
		assert.Contains(t, stderr, ErrMsgReadFileFailed)
	})
}

// ==================== clear tests ====================

func TestClear_NeedsLocation(t *testing.T) {
	code, _, stderr := runCLI(t, "", CmdNameClear)

	assert.Equal(t, ExitCodeUsageError, code)
	assert.Contains(t, stderr, ErrMsgClearNeedsLocation)
}

// ==================== input helper tests ====================

func TestLoadData(t *testing.T) {
	data, err := loadData("", "", strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, data)

	data, err = loadData(`{"n": 1, "tags": ["a"]}`, "", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, data["n"])
	assert.Equal(t, []any{"a"}, data["tags"])
}
