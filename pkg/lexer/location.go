package lexer

import "fmt"

// Location is a 1-based line and 0-based column.
type Location struct {
	Line   int
	Column int
}

func (l Location) String() string { return fmt.Sprintf("%d:%d", l.Line, l.Column) }

// Locate maps a byte offset in src to its line and column. It walks the
// buffer from the start on every call and is meant for diagnostics only.
// Any of "\n", "\r", "\r\n" and "\n\r" counts as a single line break, and a
// NUL byte ends the scan.
func Locate(src []byte, offset int) Location {
	if offset > len(src) {
		offset = len(src)
	}
	loc := Location{Line: 1}
	for p := 0; p < offset && src[p] != 0; {
		c := src[p]
		if c != '\n' && c != '\r' {
			p++
			loc.Column++
			continue
		}
		p++
		if p < len(src) && (src[p] == '\n' || src[p] == '\r') && src[p] != c {
			p++
		}
		loc.Line++
		loc.Column = 0
	}
	return loc
}

// LineBounds returns the half-open byte range of the line containing offset,
// without its terminator.
func LineBounds(src []byte, offset int) (start, end int) {
	offset = max(0, min(offset, len(src)))
	start = offset
	for start > 0 && src[start-1] != '\n' && src[start-1] != '\r' {
		start--
	}
	end = offset
	for end < len(src) && src[end] != '\n' && src[end] != '\r' {
		end++
	}
	return start, end
}
