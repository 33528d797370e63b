package internal

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Segment
	}{
		{
			name: "text only",
			in:   "hello",
			want: []Segment{{Kind: SegmentText, Text: "hello"}},
		},
		{
			name: "host block between text",
			in:   "a<?blade echo 1; ?>b",
			want: []Segment{
				{Kind: SegmentText, Text: "a"},
				{Kind: SegmentHost, Text: "<?blade echo 1; ?>"},
				{Kind: SegmentText, Text: "b"},
			},
		},
		{
			name: "echo short form",
			in:   "<?= $x ?>!",
			want: []Segment{
				{Kind: SegmentHost, Text: "<?= $x ?>"},
				{Kind: SegmentText, Text: "!"},
			},
		},
		{
			name: "close marker inside string",
			in:   `<?blade echo "?>"; ?>x`,
			want: []Segment{
				{Kind: SegmentHost, Text: `<?blade echo "?>"; ?>`},
				{Kind: SegmentText, Text: "x"},
			},
		},
		{
			name: "close marker inside host comment",
			in:   "<?blade /* it's ?> */ ?>x",
			want: []Segment{
				{Kind: SegmentHost, Text: "<?blade /* it's ?> */ ?>"},
				{Kind: SegmentText, Text: "x"},
			},
		},
		{
			name: "unterminated host block",
			in:   "a<?blade echo 1;",
			want: []Segment{
				{Kind: SegmentText, Text: "a"},
				{Kind: SegmentHost, Text: "<?blade echo 1;"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, Classify(tt.in)); diff != "" {
				t.Errorf("Classify() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMapText_SkipsHost(t *testing.T) {
	out, err := MapText("ab<?blade ab ?>ab", func(s string) (string, error) {
		return strings.ToUpper(s), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "AB<?blade ab ?>AB", out)
}

func TestSegmentKind_String(t *testing.T) {
	assert.Equal(t, "TEXT", SegmentText.String())
	assert.Equal(t, "HOST", SegmentHost.String())
}

func TestExtractVerbatim(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		in := "a @verbatim {{ $x }} @endverbatim b @verbatim @if @endverbatim c"
		body, stack := ExtractVerbatim(in)
		assert.Equal(t, "a @__verbatim__@ b @__verbatim__@ c", body)
		assert.Equal(t, 2, stack.Len())

		assert.Equal(t, "a  {{ $x }}  b  @if  c", stack.Restore(body))
		assert.Equal(t, 0, stack.Len())
	})

	t.Run("escaped marker", func(t *testing.T) {
		body, stack := ExtractVerbatim("@@verbatim x")
		assert.Equal(t, "@verbatim x", body)
		assert.Equal(t, 0, stack.Len())
	})

	t.Run("unterminated block", func(t *testing.T) {
		body, stack := ExtractVerbatim("a @verbatim b")
		assert.Equal(t, "a @verbatim b", body)
		assert.Equal(t, 0, stack.Len())
	})

	t.Run("no blocks", func(t *testing.T) {
		body, stack := ExtractVerbatim("plain")
		assert.Equal(t, "plain", body)
		assert.Equal(t, "plain", RestoreVerbatim(body, stack))
	})

	t.Run("nil stack", func(t *testing.T) {
		assert.Equal(t, "x", RestoreVerbatim("x", nil))
	})
}
