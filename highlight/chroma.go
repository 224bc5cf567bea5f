package highlight

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
)

// Chroma adapts a chroma lexer to the Grammar interface. Lexer state is not
// recoverable mid-file, so every pass starts at the top.
type Chroma struct {
	lexer chroma.Lexer
	name  string
}

// NewChroma looks up a lexer by language name, falling back to plain text.
func NewChroma(lang string) *Chroma {
	var lexer chroma.Lexer
	if lang != "" {
		lexer = lexers.Get(lang)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	name := lang
	if cfg := lexer.Config(); cfg != nil {
		name = cfg.Name
	}
	return &Chroma{lexer: chroma.Coalesce(lexer), name: name}
}

func (c *Chroma) Name() string { return c.name }

func (c *Chroma) Resume([]byte, int) int { return 0 }

func (c *Chroma) Tokenizer(text []byte, _ int) Tokenizer {
	iter, err := c.lexer.Tokenise(nil, string(text))
	if err != nil {
		return &chromaTokenizer{size: len(text)}
	}
	return &chromaTokenizer{iter: iter, size: len(text)}
}

type chromaTokenizer struct {
	iter chroma.Iterator
	off  int
	size int
}

// Next pulls tokens lazily until one covers pos. Once the lexer is
// exhausted the rest of the text is plain.
func (t *chromaTokenizer) Next(pos int) (int, Data) {
	for t.iter != nil {
		tok := t.iter()
		if tok == chroma.EOF {
			t.iter = nil
			break
		}
		t.off += len(tok.Value)
		if t.off > pos {
			return t.off, fg(classOf(tok))
		}
	}
	return t.size, fg(Normal)
}

// DetectLanguage returns the chroma language name for a file, or "".
func DetectLanguage(filename string) string {
	lexer := lexers.Match(filename)
	if lexer == nil {
		return ""
	}
	config := lexer.Config()
	if config == nil {
		return ""
	}
	return config.Name
}

func classOf(tok chroma.Token) Class {
	t := tok.Type
	switch {
	case t.InCategory(chroma.Keyword):
		return Keyword
	case t.InCategory(chroma.Comment):
		return Comment
	case t.InSubCategory(chroma.LiteralString):
		return String
	case t.InSubCategory(chroma.LiteralNumber):
		return Number
	case t == chroma.NameBuiltin || t == chroma.NameBuiltinPseudo ||
		t == chroma.NameFunction || t == chroma.NameFunctionMagic ||
		t == chroma.NameClass || t == chroma.NameDecorator:
		return Identifier
	case t == chroma.Punctuation && strings.ContainsAny(tok.Value, "()[]{}"):
		return Parenthesis
	case t == chroma.TextWhitespace:
		return Whitespace
	}
	return Normal
}
