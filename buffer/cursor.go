package buffer

// Cursor is a zero-based line and byte column.
type Cursor struct {
	Line, Col int
}

func (c Cursor) Before(other Cursor) bool {
	if c.Line != other.Line {
		return c.Line < other.Line
	}
	return c.Col < other.Col
}

func (c Cursor) Equal(other Cursor) bool {
	return c.Line == other.Line && c.Col == other.Col
}

// GlyphRange is a half-open span between two iterators on the same buffer.
type GlyphRange struct {
	Start, End GlyphIterator
}

// NewRange orders a and b so Start never follows End.
func NewRange(a, b GlyphIterator) GlyphRange {
	if b.Less(a) {
		return GlyphRange{Start: b, End: a}
	}
	return GlyphRange{Start: a, End: b}
}

func (r GlyphRange) Contains(it GlyphIterator) bool {
	return !it.Less(r.Start) && it.Less(r.End)
}

func (r GlyphRange) Empty() bool {
	return r.Start.Equal(r.End)
}

// Text returns the bytes covered by the range.
func (r GlyphRange) Text() string {
	if r.Start.buf == nil {
		return ""
	}
	return r.Start.buf.Slice(r.Start.Index(), r.End.Index())
}
