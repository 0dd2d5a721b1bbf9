package pvm

import (
	"fmt"
	"sort"
)

const eof = -1

// Range is a half-open byte offset interval [Start, End) within some
// input. It is used by the grammar front-end to report syntax errors
// and is the basis for Location/LineIndex below.
type Range struct{ Start, End int }

func NewRange(start, end int) Range {
	return Range{Start: start, End: end}
}

func (r Range) String() string {
	if r.Start == r.End {
		return fmt.Sprintf("%d", r.Start)
	}
	return fmt.Sprintf("%d..%d", r.Start, r.End)
}

func (r Range) Str(v []byte) string {
	return string(v[r.Start:r.End])
}

func (r Range) Contains(other Range) bool {
	return other.Start >= r.Start && other.End <= r.End
}

// Location is a byte cursor resolved to a line/column pair.
type Location struct {
	Line, Column, Cursor int
}

func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// LineIndex allows fast conversion from byte cursor offsets to
// line/column, following the same binary-search-over-line-starts
// idea the grammar loader used for its own error positions.
//
// Construction is O(n) over the input; lookups are O(log lines).
type LineIndex struct {
	input     []byte
	lineStart []int
}

func NewLineIndex(input []byte) *LineIndex {
	lineStart := make([]int, 1, 64)
	lineStart[0] = 0
	for i, b := range input {
		if b == '\n' {
			lineStart = append(lineStart, i+1)
		}
	}
	return &LineIndex{input: input, lineStart: lineStart}
}

func (li *LineIndex) LocationAt(cursor int) Location {
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(li.input) {
		cursor = len(li.input)
	}

	lineIdx := sort.Search(len(li.lineStart), func(i int) bool {
		return li.lineStart[i] > cursor
	}) - 1
	if lineIdx < 0 {
		lineIdx = 0
	}

	lineStart := li.lineStart[lineIdx]
	return Location{
		Line:   lineIdx + 1,
		Column: cursor - lineStart + 1,
		Cursor: cursor,
	}
}
