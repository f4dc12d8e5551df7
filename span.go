package nyx

import (
	"fmt"
	"sort"
)

// Span is a half-open byte range [Start, End) within a source file.
type Span struct{ Start, End int }

// NewSpan returns the span covering [start, end).
func NewSpan(start, end int) Span { return Span{Start: start, End: end} }

func (s Span) String() string {
	if s.Start == s.End {
		return fmt.Sprintf("%d", s.Start)
	}
	return fmt.Sprintf("%d..%d", s.Start, s.End)
}

// Slice returns the source bytes covered by the span.
func (s Span) Slice(src []byte) string { return string(src[s.Start:s.End]) }

// Location is a 1-based line/column position, with the raw byte cursor
// kept alongside for span arithmetic.
type Location struct {
	Line, Column int
	Cursor       int
}

func (l Location) String() string { return fmt.Sprintf("%d:%d", l.Line, l.Column) }

// LineIndex converts byte offsets to line/column positions in O(log
// lines) after an O(n) one-time scan of the source.
type LineIndex struct {
	src       []byte
	lineStart []int
}

// NewLineIndex builds a LineIndex over src.
func NewLineIndex(src []byte) *LineIndex {
	lineStart := make([]int, 1, 64)
	lineStart[0] = 0
	for i, b := range src {
		if b == '\n' {
			lineStart = append(lineStart, i+1)
		}
	}
	return &LineIndex{src: src, lineStart: lineStart}
}

// LocationAt returns the 1-based line/column for a byte cursor.
func (li *LineIndex) LocationAt(cursor int) Location {
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(li.src) {
		cursor = len(li.src)
	}
	idx := sort.Search(len(li.lineStart), func(i int) bool {
		return li.lineStart[i] > cursor
	}) - 1
	if idx < 0 {
		idx = 0
	}
	lineStart := li.lineStart[idx]
	col := 1
	for _, b := range li.src[lineStart:cursor] {
		_ = b
		col++
	}
	return Location{Line: idx + 1, Column: col, Cursor: cursor}
}
