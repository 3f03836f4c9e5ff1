// Package annotation maps text selections to character offsets and merges
// stored annotations back into renderable segments. All functions are pure.
package annotation

import (
	"errors"
	"sort"
	"strings"
	"unicode/utf8"
)

// ErrEmptySelection indicates the selected text was empty or whitespace-only.
var ErrEmptySelection = errors.New("selection is empty")

// ErrSelectionNotFound indicates the selected text does not occur in the content.
var ErrSelectionNotFound = errors.New("selection not found in content")

// Span is a stored annotation range over the content, end exclusive.
type Span struct {
	Start   int
	End     int
	Payload any
}

// Segment is one piece of rendered content. Payload is nil for plain text
// and carries the annotation payload for highlighted pieces.
type Segment struct {
	Text    string
	Payload any
}

// Annotated reports whether the segment carries an annotation.
func (s Segment) Annotated() bool {
	return s.Payload != nil
}

// ResolveSelection locates selected within container and returns its
// [start, end) offsets. When hint is a valid offset at which selected
// actually occurs it wins; otherwise the first textual occurrence is used.
// The first-occurrence fallback can anchor the wrong instance of a repeated
// phrase; that limitation is part of the contract.
func ResolveSelection(container, selected string, hint int) (int, int, error) {
	if strings.TrimSpace(selected) == "" {
		return 0, 0, ErrEmptySelection
	}

	if hint >= 0 && hint+len(selected) <= len(container) && container[hint:hint+len(selected)] == selected {
		return hint, hint + len(selected), nil
	}

	start := strings.Index(container, selected)
	if start < 0 {
		return 0, 0, ErrSelectionNotFound
	}

	return start, start + len(selected), nil
}

// Merge splits content into an ordered sequence of plain and annotated
// segments. Spans are stably sorted by start, so malformed ties keep their
// insertion order. A span overlapping already-emitted text has its start
// clamped to the cursor; a span running past the content has its end clamped
// to len(content). Stale offsets landing mid-rune are backed off to the
// preceding rune boundary so every segment stays valid UTF-8. Concatenating
// all segment texts always reproduces content.
func Merge(content string, spans []Span) []Segment {
	ordered := make([]Span, len(spans))
	copy(ordered, spans)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Start < ordered[j].Start
	})

	segments := make([]Segment, 0, 2*len(ordered)+1)
	cursor := 0

	for _, span := range ordered {
		start := alignToRune(content, span.Start)
		if start < cursor {
			start = cursor
		}

		end := span.End
		if end > len(content) {
			end = len(content)
		}
		end = alignToRune(content, end)

		if end <= start {
			continue
		}

		if start > cursor {
			segments = append(segments, Segment{Text: content[cursor:start]})
		}

		segments = append(segments, Segment{Text: content[start:end], Payload: span.Payload})
		cursor = end
	}

	if cursor < len(content) {
		segments = append(segments, Segment{Text: content[cursor:]})
	}

	return segments
}

// alignToRune moves pos left to the nearest rune boundary in content. The
// cursor only ever advances to aligned positions, so aligning span bounds is
// enough to keep all segment boundaries on rune starts.
func alignToRune(content string, pos int) int {
	for pos > 0 && pos < len(content) && !utf8.RuneStart(content[pos]) {
		pos--
	}
	return pos
}

// PayloadAt returns the payload of the segment at index, if that segment is
// annotated. It is the lookup behind click handling on rendered segments.
func PayloadAt(segments []Segment, index int) (any, bool) {
	if index < 0 || index >= len(segments) {
		return nil, false
	}
	if !segments[index].Annotated() {
		return nil, false
	}
	return segments[index].Payload, true
}
