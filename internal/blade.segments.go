package internal

import (
	"sort"
	"strings"
)

// SegmentKind tells plain template text apart from embedded host code.
type SegmentKind int

const (
	// SegmentText is template text eligible for directive compilation.
	SegmentText SegmentKind = iota
	// SegmentHost is a host code block passed through unchanged.
	SegmentHost
)

// String returns the segment kind name
func (k SegmentKind) String() string {
	if k == SegmentHost {
		return "HOST"
	}
	return "TEXT"
}

// Segment is one classified run of template text.
type Segment struct {
	Kind SegmentKind
	Text string
}

// Classify splits text into alternating text and host segments. Host blocks
// keep their markers; an unterminated host block runs to the end of text.
func Classify(text string) []Segment {
	var segments []Segment
	pos := 0
	for pos < len(text) {
		openAt, marker := nextHostOpen(text, pos)
		if openAt < 0 {
			segments = append(segments, Segment{Kind: SegmentText, Text: text[pos:]})
			break
		}
		if openAt > pos {
			segments = append(segments, Segment{Kind: SegmentText, Text: text[pos:openAt]})
		}
		end := scanHost(text, openAt+len(marker))
		segments = append(segments, Segment{Kind: SegmentHost, Text: text[openAt:end]})
		pos = end
	}
	return segments
}

func nextHostOpen(text string, from int) (int, string) {
	block := strings.Index(text[from:], HostOpen)
	echo := strings.Index(text[from:], HostEchoOpen)
	switch {
	case block < 0 && echo < 0:
		return -1, ""
	case echo < 0 || (block >= 0 && block < echo):
		return from + block, HostOpen
	default:
		return from + echo, HostEchoOpen
	}
}

// scanHost returns the offset just past the ?> closing a host block whose
// body starts at from. Quoted runs and /* */ comments are skipped.
func scanHost(text string, from int) int {
	i := from
	for i < len(text) {
		switch {
		case isQuote(text[i]):
			next, ok := skipQuoted(text, i)
			if !ok {
				return len(text)
			}
			i = next
		case strings.HasPrefix(text[i:], HostCommentOpen):
			idx := strings.Index(text[i+len(HostCommentOpen):], HostCommentClose)
			if idx < 0 {
				return len(text)
			}
			i += len(HostCommentOpen) + idx + len(HostCommentClose)
		case strings.HasPrefix(text[i:], HostClose):
			return i + len(HostClose)
		default:
			i++
		}
	}
	return len(text)
}

// MapText applies fn to every text segment of text and joins the result.
// Host segments are copied unchanged.
func MapText(text string, fn func(string) (string, error)) (string, error) {
	return MapTextOffsets(text, nil, func(seg string, _ int, _ *OffsetMap) (string, error) {
		return fn(seg)
	})
}

// SegmentFunc rewrites one text segment starting at offset base of the
// text being mapped. It may record its own rewrites in m.
type SegmentFunc func(seg string, base int, m *OffsetMap) (string, error)

// MapTextOffsets is MapText that records in m how offsets of the result
// map back to text. A nil m records nothing.
func MapTextOffsets(text string, m *OffsetMap, fn SegmentFunc) (string, error) {
	var sb strings.Builder
	sb.Grow(len(text))
	in := 0
	for _, seg := range Classify(text) {
		out := sb.Len()
		m.Mark(out, in)
		if seg.Kind == SegmentHost {
			sb.WriteString(seg.Text)
		} else {
			var local *OffsetMap
			if m != nil {
				local = &OffsetMap{}
			}
			res, err := fn(seg.Text, in, local)
			if err != nil {
				return "", err
			}
			if local != nil {
				for _, a := range local.anchors {
					m.Mark(out+a.out, in+a.in)
				}
			}
			sb.WriteString(res)
		}
		in += len(seg.Text)
	}
	return sb.String(), nil
}

// OffsetMap translates offsets of rewritten text back to the text it was
// rewritten from. Anchors are recorded in increasing output order; a nil
// map is the identity.
type OffsetMap struct {
	anchors []offsetAnchor
}

type offsetAnchor struct {
	out, in int
}

// Mark records that output offset out continues input offset in.
func (m *OffsetMap) Mark(out, in int) {
	if m == nil {
		return
	}
	m.anchors = append(m.anchors, offsetAnchor{out: out, in: in})
}

// Source returns the input offset for output offset out.
func (m *OffsetMap) Source(out int) int {
	if m == nil || out < 0 {
		return out
	}
	i := sort.Search(len(m.anchors), func(i int) bool { return m.anchors[i].out > out })
	if i == 0 {
		return out
	}
	a := m.anchors[i-1]
	return a.in + out - a.out
}

// VerbatimStack holds extracted verbatim blocks in first-in-first-out order.
type VerbatimStack struct {
	blocks []string
}

// Len returns the number of blocks still waiting to be restored.
func (v *VerbatimStack) Len() int {
	return len(v.blocks)
}

// ExtractVerbatim replaces each @verbatim ... @endverbatim block with a
// placeholder and returns the blocks in order of appearance. An escaped
// @@verbatim is emitted as a literal @verbatim.
func ExtractVerbatim(text string) (string, *VerbatimStack) {
	return extractVerbatim(text, nil)
}

func extractVerbatim(text string, m *OffsetMap) (string, *VerbatimStack) {
	stack := &VerbatimStack{}
	if !strings.Contains(text, VerbatimOpen) {
		return text, stack
	}

	var sb strings.Builder
	pos := 0
	for {
		m.Mark(sb.Len(), pos)
		idx := strings.Index(text[pos:], VerbatimOpen)
		if idx < 0 {
			sb.WriteString(text[pos:])
			break
		}
		openAt := pos + idx
		if openAt > 0 && text[openAt-1] == DirectiveMarker {
			sb.WriteString(text[pos : openAt-1])
			m.Mark(sb.Len(), openAt)
			sb.WriteString(VerbatimOpen)
			pos = openAt + len(VerbatimOpen)
			continue
		}
		contentStart := openAt + len(VerbatimOpen)
		closeIdx := strings.Index(text[contentStart:], VerbatimClose)
		if closeIdx < 0 {
			sb.WriteString(text[pos:])
			break
		}
		sb.WriteString(text[pos:openAt])
		m.Mark(sb.Len(), openAt)
		sb.WriteString(VerbatimPlaceholder)
		stack.blocks = append(stack.blocks, text[contentStart:contentStart+closeIdx])
		pos = contentStart + closeIdx + len(VerbatimClose)
	}
	return sb.String(), stack
}

// RestoreVerbatim substitutes the blocks of stack back into text.
func RestoreVerbatim(text string, stack *VerbatimStack) string {
	if stack == nil {
		return text
	}
	return stack.Restore(text)
}

// Restore substitutes placeholders in text with the stacked blocks, first in
// first out. Placeholders without a block are left in place.
func (v *VerbatimStack) Restore(text string) string {
	if len(v.blocks) == 0 {
		return text
	}
	var sb strings.Builder
	pos := 0
	for len(v.blocks) > 0 {
		idx := strings.Index(text[pos:], VerbatimPlaceholder)
		if idx < 0 {
			break
		}
		sb.WriteString(text[pos : pos+idx])
		sb.WriteString(v.blocks[0])
		v.blocks = v.blocks[1:]
		pos += idx + len(VerbatimPlaceholder)
	}
	sb.WriteString(text[pos:])
	return sb.String()
}
