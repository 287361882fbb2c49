package report

import "sort"

// TextSpan represents a range or "span" of source text.  The offsets are
// absolute byte offsets into the source file and are half-open: StartOffset is
// the offset of the first character in the span and EndOffset is one past the
// last character.  The line and column numbers are zero-indexed and describe
// the same range for display purposes.
type TextSpan struct {
	// The absolute offsets of the span.
	StartOffset, EndOffset int

	// The line and column beginning the text span.
	StartLine, StartCol int

	// The line and column ending the text span (column is one past the last
	// character).
	EndLine, EndCol int
}

// NewSpanOver returns a new text span which spans over and between the two
// given text spans.
func NewSpanOver(start, end *TextSpan) *TextSpan {
	return &TextSpan{
		StartOffset: start.StartOffset,
		EndOffset:   end.EndOffset,
		StartLine:   start.StartLine,
		StartCol:    start.StartCol,
		EndLine:     end.EndLine,
		EndCol:      end.EndCol,
	}
}

// Len returns the number of bytes covered by the span.
func (ts *TextSpan) Len() int {
	return ts.EndOffset - ts.StartOffset
}

// Contains returns whether the offset lies within the span.
func (ts *TextSpan) Contains(offset int) bool {
	return ts.StartOffset <= offset && offset < ts.EndOffset
}

// -----------------------------------------------------------------------------

// LineIndex maps absolute offsets in a source text to line and column numbers.
type LineIndex struct {
	// The offsets at which each line begins.
	lineStarts []int
}

// NewLineIndex builds the line index of the given source text.
func NewLineIndex(src []byte) *LineIndex {
	li := &LineIndex{lineStarts: []int{0}}

	for i, c := range src {
		if c == '\n' {
			li.lineStarts = append(li.lineStarts, i+1)
		}
	}

	return li
}

// Position returns the zero-indexed line and column of an offset.
func (li *LineIndex) Position(offset int) (int, int) {
	line := sort.Search(len(li.lineStarts), func(i int) bool {
		return li.lineStarts[i] > offset
	}) - 1

	if line < 0 {
		line = 0
	}

	return line, offset - li.lineStarts[line]
}

// Span builds a complete text span from a pair of offsets.
func (li *LineIndex) Span(start, end int) *TextSpan {
	startLine, startCol := li.Position(start)
	endLine, endCol := li.Position(end)

	return &TextSpan{
		StartOffset: start,
		EndOffset:   end,
		StartLine:   startLine,
		StartCol:    startCol,
		EndLine:     endLine,
		EndCol:      endCol,
	}
}

// LineCount returns the number of lines in the indexed text.
func (li *LineIndex) LineCount() int {
	return len(li.lineStarts)
}
