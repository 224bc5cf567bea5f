package buffer

import "unicode/utf8"

// GlyphIterator is a byte offset into a Buffer that always sits on the
// first byte of a UTF-8 sequence. Offsets are clamped to [0, Size()) when
// the iterator is built and again whenever it is read after an edit.
type GlyphIterator struct {
	buf   *Buffer
	index int
}

func NewIterator(b *Buffer, offset int) GlyphIterator {
	return GlyphIterator{buf: b, index: b.LocationFromOffset(offset)}
}

// Begin returns an iterator at offset 0.
func (b *Buffer) Begin() GlyphIterator {
	return GlyphIterator{buf: b}
}

// End returns an iterator on the sentinel byte.
func (b *Buffer) End() GlyphIterator {
	return GlyphIterator{buf: b, index: b.Size() - 1}
}

func (b *Buffer) Iterator(offset int) GlyphIterator {
	return NewIterator(b, offset)
}

func (it GlyphIterator) Buffer() *Buffer { return it.buf }

// Index returns the clamped, glyph aligned byte offset.
func (it GlyphIterator) Index() int {
	if it.buf == nil {
		return it.index
	}
	return it.buf.LocationFromOffset(it.index)
}

// Valid reports whether the iterator still lies inside its buffer.
func (it GlyphIterator) Valid() bool {
	return it.buf != nil && it.index >= 0 && it.index < it.buf.Size()
}

// Char returns the byte under the iterator.
func (it GlyphIterator) Char() byte {
	if it.buf == nil {
		return 0
	}
	return it.buf.ByteAt(it.Index())
}

// Rune decodes the glyph under the iterator.
func (it GlyphIterator) Rune() (rune, int) {
	if it.buf == nil {
		return utf8.RuneError, 0
	}
	i := it.Index()
	n := glyphLen(it.buf.ByteAt(i))
	end := min(i+n, it.buf.Size())
	return utf8.DecodeRune(it.buf.text.slice(i, end))
}

// Move steps count glyphs forward, or backward when count is negative.
func (it GlyphIterator) Move(count int) GlyphIterator {
	if it.buf == nil {
		return it
	}
	i := it.Index()
	last := it.buf.Size() - 1
	for ; count > 0 && i < last; count-- {
		i = min(i+glyphLen(it.buf.ByteAt(i)), last)
	}
	for ; count < 0 && i > 0; count++ {
		i--
		for i > 0 && !utf8.RuneStart(it.buf.ByteAt(i)) {
			i--
		}
	}
	return GlyphIterator{buf: it.buf, index: i}
}

func (it GlyphIterator) Next() GlyphIterator { return it.Move(1) }
func (it GlyphIterator) Prev() GlyphIterator { return it.Move(-1) }

func (it GlyphIterator) Less(other GlyphIterator) bool  { return it.Index() < other.Index() }
func (it GlyphIterator) Equal(other GlyphIterator) bool { return it.Index() == other.Index() }

// Compare returns -1, 0 or 1 by offset.
func (it GlyphIterator) Compare(other GlyphIterator) int {
	a, b := it.Index(), other.Index()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Clamped returns a copy with the stored offset re-clamped.
func (it GlyphIterator) Clamped() GlyphIterator {
	if it.buf == nil {
		return it
	}
	return GlyphIterator{buf: it.buf, index: it.Index()}
}

// ByteDistance is the number of bytes from it to other.
func (it GlyphIterator) ByteDistance(other GlyphIterator) int {
	return other.Index() - it.Index()
}

// GlyphDistance counts glyphs between it and other; negative when other
// comes first.
func (it GlyphIterator) GlyphDistance(other GlyphIterator) int {
	from, to := it.Index(), other.Index()
	sign := 1
	if to < from {
		from, to, sign = to, from, -1
	}
	if it.buf == nil {
		return sign * (to - from)
	}
	return sign * utf8.RuneCount(it.buf.text.slice(from, to))
}

// glyphLen returns the sequence length implied by a UTF-8 lead byte.
// Stray continuation bytes count as one.
func glyphLen(c byte) int {
	switch {
	case c < 0x80:
		return 1
	case c&0xE0 == 0xC0:
		return 2
	case c&0xF0 == 0xE0:
		return 3
	case c&0xF8 == 0xF0:
		return 4
	}
	return 1
}
