package buffer

import (
	"sort"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

type LineLocation int

const (
	LineBegin          LineLocation = iota // first byte of the line
	LineFirstGraphChar                     // first non-blank glyph
	LineLastNonCR                          // last glyph before the newline
	LineLastGraphChar                      // last non-blank glyph
	LineCRBegin                            // the newline itself (or the sentinel)
	BeyondLineEnd                          // first byte of the next line
)

func (b *Buffer) LineCount() int {
	return len(b.lineEnds)
}

// LineRange returns [start, end) of a line, end including its newline.
func (b *Buffer) LineRange(line int) (int, int) {
	line = max(0, min(line, len(b.lineEnds)-1))
	start := 0
	if line > 0 {
		start = b.lineEnds[line-1]
	}
	return start, b.lineEnds[line]
}

func (b *Buffer) LineFromOffset(offset int) int {
	offset = b.Clamp(offset)
	return sort.SearchInts(b.lineEnds, offset+1)
}

// LineCol converts an offset into a line and byte column.
func (b *Buffer) LineCol(offset int) Cursor {
	offset = b.LocationFromOffset(offset)
	line := b.LineFromOffset(offset)
	start, _ := b.LineRange(line)
	return Cursor{Line: line, Col: offset - start}
}

// OffsetOf converts a line and byte column back into an offset. Columns
// past the end of the line land on its newline.
func (b *Buffer) OffsetOf(c Cursor) int {
	start, end := b.LineRange(c.Line)
	return b.LocationFromOffset(start + max(0, min(c.Col, end-start-1)))
}

// LinePos finds a landmark on the line containing it.
func (b *Buffer) LinePos(it GlyphIterator, loc LineLocation) GlyphIterator {
	start, end := b.LineRange(b.LineFromOffset(it.Index()))
	crPos := end - 1

	blank := func(c byte) bool { return c == ' ' || c == '\t' }

	switch loc {
	case LineBegin:
		return NewIterator(b, start)
	case LineFirstGraphChar:
		i := start
		for i < crPos && blank(b.ByteAt(i)) {
			i++
		}
		return NewIterator(b, i)
	case LineLastNonCR:
		if crPos <= start {
			return NewIterator(b, start)
		}
		return NewIterator(b, crPos).Prev()
	case LineLastGraphChar:
		i := crPos
		for i > start {
			p := NewIterator(b, i).Prev().Index()
			if !blank(b.ByteAt(p)) {
				return NewIterator(b, p)
			}
			i = p
		}
		return NewIterator(b, start)
	case LineCRBegin:
		return NewIterator(b, crPos)
	case BeyondLineEnd:
		return NewIterator(b, end)
	}
	return it
}

// MoveClamped moves count glyphs without leaving the current line. limit
// picks the furthest landmark the iterator may reach on the right.
func (it GlyphIterator) MoveClamped(count int, limit LineLocation) GlyphIterator {
	if it.buf == nil {
		return it
	}
	lo := it.buf.LinePos(it, LineBegin)
	hi := it.buf.LinePos(it, limit)
	moved := it.Move(count)
	switch {
	case moved.Less(lo):
		return lo
	case hi.Less(moved):
		return hi
	}
	return moved
}

// DisplayColumn is the screen column of offset, expanding tabs to tabSize
// and counting wide glyphs as two cells.
func (b *Buffer) DisplayColumn(offset, tabSize int) int {
	if tabSize <= 0 {
		tabSize = 4
	}
	offset = b.LocationFromOffset(offset)
	start, _ := b.LineRange(b.LineFromOffset(offset))
	text := b.text.slice(start, offset)
	col := 0
	for len(text) > 0 {
		r, n := utf8.DecodeRune(text)
		text = text[n:]
		if r == '\t' {
			col += tabSize - col%tabSize
			continue
		}
		col += runewidth.RuneWidth(r)
	}
	return col
}
