package highlight

import (
	"bytes"
	"path/filepath"
	"strings"
)

// Grammar classifies text one token at a time.
type Grammar interface {
	Name() string
	// Resume returns an offset at or before from where tokenizing can
	// restart without context from earlier text.
	Resume(text []byte, from int) int
	// Tokenizer starts tokenizing text at start.
	Tokenizer(text []byte, start int) Tokenizer
}

// Tokenizer classifies the token at pos and returns the offset just past it.
// Calls come in increasing pos order.
type Tokenizer interface {
	Next(pos int) (end int, d Data)
}

// ForFile picks a grammar from the file name.
func ForFile(filename string) Grammar {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".orca":
		return Orca{}
	case ".c", ".cc", ".cpp", ".cxx", ".h", ".hpp":
		return CPP()
	}
	if lang := DetectLanguage(filename); lang != "" {
		return NewChroma(lang)
	}
	return NewChroma("")
}

// lineStart returns the offset of the first byte on the line holding pos.
func lineStart(text []byte, pos int) int {
	pos = max(0, min(pos, len(text)))
	return bytes.LastIndexByte(text[:pos], '\n') + 1
}

// Orca classifies single lowercase letters as keywords, '#' comments that
// run to the next '#' or newline, digit runs as numbers and everything else
// as plain text. FoldCase treats uppercase letters like lowercase.
type Orca struct {
	FoldCase bool
}

func (Orca) Name() string { return "orca" }

func (Orca) Resume(text []byte, from int) int {
	return lineStart(text, from)
}

func (o Orca) Tokenizer(text []byte, _ int) Tokenizer {
	return orcaTokenizer{text: text, foldCase: o.FoldCase}
}

type orcaTokenizer struct {
	text     []byte
	foldCase bool
}

func (t orcaTokenizer) Next(pos int) (int, Data) {
	text := t.text
	c := text[pos]
	switch {
	case c >= 'a' && c <= 'z', t.foldCase && c >= 'A' && c <= 'Z':
		return pos + 1, fg(Keyword)
	case c == '#':
		end := pos + 1
		for end < len(text) {
			ch := text[end]
			end++
			if ch == '#' || ch == '\n' {
				break
			}
		}
		return end, fg(Comment)
	case isDigit(c):
		end := pos + 1
		for end < len(text) && isDigit(text[end]) {
			end++
		}
		return end, fg(Number)
	}
	return pos + 1, fg(Normal)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
