package buffer

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/spf13/afero"
)

// MaxFileSize is the largest file NewBufferFromFile will load.
const MaxFileSize = 100 * 1024 * 1024

var (
	ErrFileTooLarge = errors.New("file too large")
	ErrIsDirectory  = errors.New("is a directory")
)

type ChangeKind int

const (
	TextAdded ChangeKind = iota
	TextDeleted
	TextReset
)

func (k ChangeKind) String() string {
	switch k {
	case TextAdded:
		return "added"
	case TextDeleted:
		return "deleted"
	case TextReset:
		return "reset"
	}
	return "unknown"
}

// Change describes one mutation. For TextAdded, [Start, End) is the new
// text; for TextDeleted it is the range that was removed.
type Change struct {
	Kind       ChangeKind
	Start, End int
	Generation uint64
}

// Buffer is a UTF-8 text store backed by a gap buffer. The stored bytes
// always end in a 0 sentinel which is never deleted, so Size is at least 1.
//
// A Buffer is owned by a single editing goroutine; only Generation is safe
// to read from elsewhere.
type Buffer struct {
	Path           string
	ReadOnly       bool
	TabSize        int
	UseTabs        bool   // indent with real tabs
	HasTabs        bool   // content contained a tab when loaded
	HasSpaceIndent bool   // some line was indented with spaces when loaded
	LineEnding     string // "LF" or "CRLF"; CRs are stripped on load and restored on save
	Encoding       string // detected on load
	FileSize       int64
	LastSaveTime   time.Time
	LastUpdate     time.Time
	UpdateCount    int

	text       *gapBuffer
	lineEnds   []int // offset one past each '\n', then Size()
	generation atomic.Uint64
	savedGen   uint64
	listeners  []listener
	nextID     int
}

type listener struct {
	id int
	fn func(Change)
}

func NewBuffer(tabSize int) *Buffer {
	return newBufferWithGap(tabSize, defaultGapSize)
}

func newBufferWithGap(tabSize, gap int) *Buffer {
	b := &Buffer{
		TabSize:    tabSize,
		LineEnding: "LF",
		Encoding:   "UTF-8",
		text:       newGapBuffer(gap),
	}
	b.text.insert(0, []byte{0})
	b.lineEnds = []int{1}
	return b
}

// NewBufferFromFile loads path from fs. A missing file gives an empty
// buffer bound to path.
func NewBufferFromFile(fs afero.Fs, path string, tabSize int) (*Buffer, error) {
	b := NewBuffer(tabSize)
	b.Path = path

	info, err := fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return b, nil
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("open %s: %w", path, ErrIsDirectory)
	}
	if info.Size() > MaxFileSize {
		return nil, fmt.Errorf("%w (%d MB), max supported is %d MB", ErrFileTooLarge,
			info.Size()/(1024*1024), MaxFileSize/(1024*1024))
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	b.FileSize = info.Size()
	b.ReadOnly = IsBinary(data)
	b.Encoding = detectEncoding(data)
	switch b.Encoding {
	case "UTF-8 BOM":
		data = data[3:]
	case "Latin-1":
		data = latin1ToUTF8(data)
	}
	if b.ReadOnly {
		data = []byte(strings.ToValidUTF8(string(data), "\uFFFD"))
	}

	b.SetText(string(data))
	b.savedGen = b.Generation()
	return b, nil
}

// IsBinary reports whether the first 8KB contain a NUL byte.
func IsBinary(data []byte) bool {
	n := min(len(data), 8192)
	for i := 0; i < n; i++ {
		if data[i] == 0 {
			return true
		}
	}
	return false
}

// detectEncoding checks the BOM and validates UTF-8.
func detectEncoding(data []byte) string {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return "UTF-8 BOM"
	}
	if len(data) >= 2 {
		if data[0] == 0xFF && data[1] == 0xFE {
			return "UTF-16 LE"
		}
		if data[0] == 0xFE && data[1] == 0xFF {
			return "UTF-16 BE"
		}
	}
	if utf8.Valid(data) {
		return "UTF-8"
	}
	return "Latin-1"
}

func latin1ToUTF8(data []byte) []byte {
	out := make([]byte, 0, len(data)+len(data)/4)
	for _, c := range data {
		out = utf8.AppendRune(out, rune(c))
	}
	return out
}

// SetText replaces the whole content. Carriage returns are stripped and
// remembered in LineEnding.
func (b *Buffer) SetText(text string) {
	b.LineEnding = "LF"
	if strings.Contains(text, "\r") {
		b.LineEnding = "CRLF"
		text = strings.ReplaceAll(text, "\r", "")
	}
	text = strings.ToValidUTF8(text, "\uFFFD")
	b.HasTabs = strings.Contains(text, "\t")
	b.HasSpaceIndent = strings.HasPrefix(text, " ") || strings.Contains(text, "\n ")
	if text != "" {
		b.TabSize, b.UseTabs = DetectIndentation(strings.Split(text, "\n"), b.TabSize)
	}

	raw := make([]byte, len(text)+1)
	copy(raw, text)
	b.text.reset(raw)
	b.rebuildLineEnds()
	b.changed(Change{Kind: TextReset, Start: 0, End: b.Size()})
}

func (b *Buffer) Clear() {
	b.SetText("")
}

// Reload replaces the content with the file on disk and marks the buffer
// clean. Listeners see one TextReset.
func (b *Buffer) Reload(fs afero.Fs) error {
	if b.Path == "" {
		return fmt.Errorf("reload: buffer has no path")
	}
	fresh, err := NewBufferFromFile(fs, b.Path, b.TabSize)
	if err != nil {
		return err
	}
	b.ReadOnly = fresh.ReadOnly
	b.Encoding = fresh.Encoding
	b.FileSize = fresh.FileSize
	b.SetText(fresh.String())
	b.LineEnding = fresh.LineEnding
	b.savedGen = b.Generation()
	return nil
}

// DetectIndentation guesses the indent width and whether tabs are used
// from the leading whitespace of lines.
func DetectIndentation(lines []string, fallback int) (int, bool) {
	if fallback <= 0 {
		fallback = 4
	}
	tabLines := 0
	widths := map[int]int{}
	for _, line := range lines {
		indent := len(line) - len(strings.TrimLeft(line, " \t"))
		if indent == 0 {
			continue
		}
		lead := line[:indent]
		if strings.Contains(lead, "\t") {
			tabLines++
			continue
		}
		for _, w := range []int{2, 4, 8} {
			if indent%w == 0 {
				widths[w]++
			}
		}
	}
	if tabLines > 10 {
		return fallback, true
	}

	best, bestCount := fallback, 0
	for _, w := range []int{8, 4, 2} {
		if widths[w] > bestCount {
			best, bestCount = w, widths[w]
		}
	}
	if bestCount > 5 {
		return best, false
	}
	return fallback, false
}

// Size is the stored length in bytes, sentinel included.
func (b *Buffer) Size() int {
	return b.text.len()
}

// Generation increases on every mutation.
func (b *Buffer) Generation() uint64 {
	return b.generation.Load()
}

func (b *Buffer) IsDirty() bool {
	return b.Generation() != b.savedGen
}

// Clamp limits offset to [0, Size()-1].
func (b *Buffer) Clamp(offset int) int {
	return max(0, min(offset, b.Size()-1))
}

// LocationFromOffset clamps offset and moves it back onto the lead byte of
// the glyph containing it.
func (b *Buffer) LocationFromOffset(offset int) int {
	offset = b.Clamp(offset)
	for offset > 0 && !utf8.RuneStart(b.text.at(offset)) {
		offset--
	}
	return offset
}

// ClampRange returns the glyph aligned range [start, end) that Delete would
// remove. The sentinel is never part of it.
func (b *Buffer) ClampRange(start, end int) (int, int) {
	start = b.LocationFromOffset(start)
	end = b.LocationFromOffset(end)
	if end < start {
		end = start
	}
	return start, end
}

// Insert places text at offset and returns the offset just past it.
// Out-of-range offsets are clamped. Invalid UTF-8 is replaced with U+FFFD.
func (b *Buffer) Insert(offset int, text string) int {
	offset = b.LocationFromOffset(offset)
	if text == "" {
		return offset
	}
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "\uFFFD")
	}
	b.text.insert(offset, []byte(text))
	b.shiftLinesInsert(offset, text)
	end := offset + len(text)
	b.changed(Change{Kind: TextAdded, Start: offset, End: end})
	return end
}

// Delete removes [start, end). end is clamped so the sentinel survives.
func (b *Buffer) Delete(start, end int) {
	start, end = b.ClampRange(start, end)
	if start == end {
		return
	}
	b.text.delete(start, end)
	b.shiftLinesDelete(start, end)
	b.changed(Change{Kind: TextDeleted, Start: start, End: end})
}

// Replace swaps [start, end) for text and returns the end of the new text.
func (b *Buffer) Replace(start, end int, text string) int {
	start, end = b.ClampRange(start, end)
	b.Delete(start, end)
	return b.Insert(start, text)
}

// Text returns a copy of the content without the sentinel.
func (b *Buffer) Text() []byte {
	return b.text.slice(0, b.Size()-1)
}

func (b *Buffer) String() string {
	return string(b.Text())
}

// Slice returns the content of [start, end) after clamping.
func (b *Buffer) Slice(start, end int) string {
	start, end = b.ClampRange(start, end)
	return string(b.text.slice(start, end))
}

// ByteAt returns the byte at offset, or 0 outside the buffer.
func (b *Buffer) ByteAt(offset int) byte {
	if offset < 0 || offset >= b.Size() {
		return 0
	}
	return b.text.at(offset)
}

// Subscribe registers fn to run after every mutation, on the goroutine
// that made the edit. The returned func removes it.
func (b *Buffer) Subscribe(fn func(Change)) func() {
	b.nextID++
	id := b.nextID
	b.listeners = append(b.listeners, listener{id: id, fn: fn})
	return func() {
		for i, l := range b.listeners {
			if l.id == id {
				b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
				return
			}
		}
	}
}

func (b *Buffer) changed(c Change) {
	c.Generation = b.generation.Add(1)
	b.UpdateCount++
	b.LastUpdate = time.Now()
	for _, l := range b.listeners {
		l.fn(c)
	}
}

// Save writes the buffer to its path, restoring CRLF line endings.
func (b *Buffer) Save(fs afero.Fs) error {
	if b.Path == "" || b.ReadOnly {
		return nil
	}
	content := b.String()
	if b.LineEnding == "CRLF" {
		content = strings.ReplaceAll(content, "\n", "\r\n")
	}
	if b.Encoding == "UTF-8 BOM" {
		content = "\uFEFF" + content
	}
	if err := afero.WriteFile(fs, b.Path, []byte(content), 0644); err != nil {
		return fmt.Errorf("save %s: %w", b.Path, err)
	}
	b.savedGen = b.Generation()
	b.LastSaveTime = time.Now()
	return nil
}

func (b *Buffer) rebuildLineEnds() {
	b.lineEnds = b.lineEnds[:0]
	size := b.Size()
	for i := 0; i < size-1; i++ {
		if b.text.at(i) == '\n' {
			b.lineEnds = append(b.lineEnds, i+1)
		}
	}
	b.lineEnds = append(b.lineEnds, size)
}

func (b *Buffer) shiftLinesInsert(offset int, text string) {
	k := sort.SearchInts(b.lineEnds, offset+1)
	var added []int
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			added = append(added, offset+i+1)
		}
	}
	for i := k; i < len(b.lineEnds); i++ {
		b.lineEnds[i] += len(text)
	}
	if len(added) > 0 {
		b.lineEnds = append(b.lineEnds[:k], append(added, b.lineEnds[k:]...)...)
	}
}

func (b *Buffer) shiftLinesDelete(start, end int) {
	lo := sort.SearchInts(b.lineEnds, start+1)
	hi := sort.SearchInts(b.lineEnds, end+1)
	b.lineEnds = append(b.lineEnds[:lo], b.lineEnds[hi:]...)
	for i := lo; i < len(b.lineEnds); i++ {
		b.lineEnds[i] -= end - start
	}
}
