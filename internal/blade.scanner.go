package internal

import (
	"strings"
)

// ScanOptions controls how a delimited span is located.
type ScanOptions struct {
	// Recursive counts nested start/end markers so the full outer span is returned.
	Recursive bool
	// IgnoreQuotes disables skipping of quoted runs inside the span.
	IgnoreQuotes bool
	// Trim trims surrounding whitespace from the captured content.
	Trim bool
	// NormalizeNewlines converts CRLF and CR line endings in the content to LF.
	NormalizeNewlines bool
}

// Span is one delimited region of text.
type Span struct {
	Content string // captured content between the markers, shaped by ScanOptions
	Start   int    // offset of the start marker
	End     int    // offset just past the end marker
}

// Scan finds the first span delimited by start and end at or after from.
// It reports false when no start marker exists or the span is unterminated.
func Scan(text, start, end string, from int, opts ScanOptions) (Span, bool) {
	if from < 0 {
		from = 0
	}
	if from > len(text) {
		return Span{}, false
	}
	idx := strings.Index(text[from:], start)
	if idx < 0 {
		return Span{}, false
	}
	return ScanAt(text, start, end, from+idx, opts)
}

// ScanAt scans a span whose start marker begins exactly at openAt.
func ScanAt(text, start, end string, openAt int, opts ScanOptions) (Span, bool) {
	if openAt < 0 || openAt > len(text) || !strings.HasPrefix(text[openAt:], start) {
		return Span{}, false
	}

	contentStart := openAt + len(start)
	depth := 1
	i := contentStart
	for i < len(text) {
		ch := text[i]
		if !opts.IgnoreQuotes && isQuote(ch) {
			next, ok := skipQuoted(text, i)
			if !ok {
				return Span{}, false
			}
			i = next
			continue
		}
		if strings.HasPrefix(text[i:], end) {
			depth--
			if depth == 0 || !opts.Recursive {
				return Span{
					Content: shapeContent(text[contentStart:i], opts),
					Start:   openAt,
					End:     i + len(end),
				}, true
			}
			i += len(end)
			continue
		}
		if opts.Recursive && strings.HasPrefix(text[i:], start) {
			depth++
			i += len(start)
			continue
		}
		i++
	}

	return Span{}, false
}

func shapeContent(content string, opts ScanOptions) string {
	if opts.NormalizeNewlines {
		content = normalizeNewlines(content)
	}
	if opts.Trim {
		content = strings.TrimSpace(content)
	}
	return content
}

func normalizeNewlines(s string) string {
	if !strings.ContainsRune(s, '\r') {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

func isQuote(ch byte) bool {
	return ch == '"' || ch == '\''
}

// skipQuoted returns the offset just past the quoted run starting at i.
func skipQuoted(text string, i int) (int, bool) {
	quote := text[i]
	for j := i + 1; j < len(text); j++ {
		switch text[j] {
		case '\\':
			j++
		case quote:
			return j + 1, true
		}
	}
	return 0, false
}

// walkTopLevel calls fn for every offset of s that sits outside quotes and
// brackets. Walking stops when fn returns true.
func walkTopLevel(s string, fn func(i int) bool) {
	depth := 0
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case isQuote(ch):
			next, ok := skipQuoted(s, i)
			if !ok {
				return
			}
			i = next - 1
			continue
		case ch == '(' || ch == '[' || ch == '{':
			depth++
			continue
		case ch == ')' || ch == ']' || ch == '}':
			if depth > 0 {
				depth--
			}
			continue
		}
		if depth == 0 && fn(i) {
			return
		}
	}
}

// IndexTopLevel returns the offset of the first top-level occurrence of sep, or -1.
func IndexTopLevel(s, sep string) int {
	found := -1
	walkTopLevel(s, func(i int) bool {
		if strings.HasPrefix(s[i:], sep) {
			found = i
			return true
		}
		return false
	})
	return found
}

// IndexKeyword returns the offset of the first top-level occurrence of the
// whole word kw, or -1.
func IndexKeyword(s, kw string) int {
	found := -1
	walkTopLevel(s, func(i int) bool {
		if !strings.HasPrefix(s[i:], kw) {
			return false
		}
		if i > 0 && isIdentByte(s[i-1]) {
			return false
		}
		if end := i + len(kw); end < len(s) && isIdentByte(s[end]) {
			return false
		}
		found = i
		return true
	})
	return found
}

// SplitTopLevel splits s on every top-level occurrence of sep.
func SplitTopLevel(s, sep string) []string {
	var parts []string
	last := 0
	skipUntil := 0
	walkTopLevel(s, func(i int) bool {
		if i < skipUntil {
			return false
		}
		if strings.HasPrefix(s[i:], sep) {
			parts = append(parts, s[last:i])
			last = i + len(sep)
			skipUntil = last
		}
		return false
	})
	return append(parts, s[last:])
}

func isIdentByte(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

// readWord returns the identifier starting at i.
func readWord(s string, i int) string {
	j := i
	for j < len(s) && isIdentByte(s[j]) {
		j++
	}
	return s[i:j]
}

func skipSpaces(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	return i
}

func skipHorizontalSpaces(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return i
}
