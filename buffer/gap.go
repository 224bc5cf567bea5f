package buffer

import "fmt"

const defaultGapSize = 1024

// gapBuffer stores bytes in a single slice with an unused region
// [gapStart, gapEnd) that is moved to wherever the next edit happens.
type gapBuffer struct {
	data       []byte
	gapStart   int
	gapEnd     int
	defaultGap int
}

func newGapBuffer(gap int) *gapBuffer {
	if gap <= 0 {
		gap = defaultGapSize
	}
	return &gapBuffer{
		data:       make([]byte, gap),
		gapEnd:     gap,
		defaultGap: gap,
	}
}

func (g *gapBuffer) len() int {
	return len(g.data) - (g.gapEnd - g.gapStart)
}

func (g *gapBuffer) gapSize() int {
	return g.gapEnd - g.gapStart
}

// moveGap relocates the gap so it starts at logical offset pos.
func (g *gapBuffer) moveGap(pos int) {
	switch {
	case pos < g.gapStart:
		n := g.gapStart - pos
		copy(g.data[g.gapEnd-n:g.gapEnd], g.data[pos:g.gapStart])
		g.gapStart -= n
		g.gapEnd -= n
	case pos > g.gapStart:
		n := pos - g.gapStart
		copy(g.data[g.gapStart:g.gapStart+n], g.data[g.gapEnd:g.gapEnd+n])
		g.gapStart += n
		g.gapEnd += n
	}
}

// grow makes room for need more bytes, leaving defaultGap spare after the insert.
func (g *gapBuffer) grow(need int) {
	if g.gapSize() >= need {
		return
	}
	extra := need + g.defaultGap - g.gapSize()
	data := make([]byte, len(g.data)+extra)
	copy(data, g.data[:g.gapStart])
	tail := len(g.data) - g.gapEnd
	copy(data[len(data)-tail:], g.data[g.gapEnd:])
	g.data = data
	g.gapEnd = len(data) - tail
}

func (g *gapBuffer) insert(pos int, text []byte) {
	if len(text) == 0 {
		return
	}
	g.moveGap(pos)
	g.grow(len(text))
	copy(g.data[g.gapStart:], text)
	g.gapStart += len(text)
}

// delete removes [start, end) by widening the gap over it.
func (g *gapBuffer) delete(start, end int) {
	if end <= start {
		return
	}
	g.moveGap(end)
	g.gapStart -= end - start
}

func (g *gapBuffer) at(pos int) byte {
	if pos < g.gapStart {
		return g.data[pos]
	}
	return g.data[pos+g.gapSize()]
}

// slice copies the logical range [start, end).
func (g *gapBuffer) slice(start, end int) []byte {
	if end <= start {
		return nil
	}
	out := make([]byte, 0, end-start)
	if start < g.gapStart {
		out = append(out, g.data[start:min(end, g.gapStart)]...)
	}
	if end > g.gapStart {
		from := max(start, g.gapStart) + g.gapSize()
		out = append(out, g.data[from:end+g.gapSize()]...)
	}
	return out
}

func (g *gapBuffer) bytes() []byte {
	return g.slice(0, g.len())
}

func (g *gapBuffer) reset(text []byte) {
	size := len(text) + g.defaultGap
	g.data = make([]byte, size)
	copy(g.data, text)
	g.gapStart = len(text)
	g.gapEnd = size
}

// debugString renders the buffer as "before|gap|after" for tests.
func (g *gapBuffer) debugString() string {
	return fmt.Sprintf("%s|%d|%s", g.data[:g.gapStart], g.gapSize(), g.data[g.gapEnd:])
}
