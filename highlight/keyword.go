package highlight

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

var cppKeywords = []string{
	"alignas", "alignof", "and", "and_eq", "asm", "auto", "bitand", "bitor", "bool", "break", "case", "catch",
	"char", "char16_t", "char32_t", "class", "compl", "concept", "const", "constexpr", "const_cast", "continue",
	"decltype", "default", "delete", "do", "double", "dynamic_cast", "else", "enum", "explicit", "export",
	"extern", "false", "float", "for", "friend", "goto", "if", "import", "inline", "int", "long", "module",
	"mutable", "namespace", "new", "noexcept", "not", "not_eq", "nullptr", "operator", "or", "or_eq", "private",
	"protected", "public", "register", "reinterpret_cast", "requires", "return", "short", "signed", "sizeof",
	"static", "static_assert", "static_cast", "struct", "switch", "template", "this", "thread_local", "throw",
	"true", "try", "typedef", "typeid", "typename", "union", "unsigned", "using", "virtual", "void", "volatile",
	"wchar_t", "while", "xor", "xor_eq", "#define", "#include", "#pragma", "#if", "#ifdef", "#ifndef", "#endif",
	"uint32_t", "int32_t", "uint64_t", "int64_t", "size_t", "uint8_t", "int8_t", "int16_t", "uint16_t",
}

var cppIdentifiers = []string{
	"abort", "abs", "acos", "asin", "atan", "atexit", "atof", "atoi", "atol", "ceil", "clock", "cosh", "ctime",
	"div", "exit", "fabs", "floor", "fmod", "getchar", "getenv", "isalnum", "isalpha", "isdigit", "isgraph",
	"ispunct", "isspace", "isupper", "log10", "log2", "log", "memcmp", "modf", "pow", "printf", "sprintf",
	"snprintf", "putchar", "putenv", "puts", "rand", "remove", "rename", "sinh", "sqrt", "srand", "strcat",
	"strcmp", "strerror", "time", "tolower", "toupper", "std", "string", "vector", "map", "unordered_map", "set",
	"unordered_set", "min", "max",
}

// Keywords is a C-like grammar driven by word lists: line and block
// comments, quoted strings, numbers, brackets, and words looked up in the
// keyword and identifier sets.
type Keywords struct {
	name        string
	keywords    map[string]bool
	identifiers map[string]bool
	foldCase    bool
}

func NewKeywords(name string, keywords, identifiers []string, foldCase bool) *Keywords {
	k := &Keywords{
		name:        name,
		keywords:    make(map[string]bool, len(keywords)),
		identifiers: make(map[string]bool, len(identifiers)),
		foldCase:    foldCase,
	}
	for _, w := range keywords {
		k.keywords[k.fold(w)] = true
	}
	for _, w := range identifiers {
		k.identifiers[k.fold(w)] = true
	}
	return k
}

// CPP returns the C and C++ grammar.
func CPP() *Keywords {
	return NewKeywords("cpp", cppKeywords, cppIdentifiers, false)
}

func (k *Keywords) fold(w string) string {
	if k.foldCase {
		return strings.ToLower(w)
	}
	return w
}

func (k *Keywords) Name() string { return k.name }

// Resume backs up to the start of the line, or further to an unterminated
// block comment opened before it.
func (k *Keywords) Resume(text []byte, from int) int {
	start := lineStart(text, from)
	open := bytes.LastIndex(text[:start], []byte("/*"))
	if open >= 0 && bytes.LastIndex(text[:start], []byte("*/")) < open {
		return lineStart(text, open)
	}
	return start
}

func (k *Keywords) Tokenizer(text []byte, _ int) Tokenizer {
	return keywordTokenizer{k: k, text: text}
}

type keywordTokenizer struct {
	k    *Keywords
	text []byte
}

func (t keywordTokenizer) Next(pos int) (int, Data) {
	text := t.text
	c := text[pos]
	switch {
	case c == ' ' || c == '\t' || c == '\n':
		end := pos + 1
		for end < len(text) && (text[end] == ' ' || text[end] == '\t' || text[end] == '\n') {
			end++
		}
		return end, fg(Whitespace)
	case bytes.HasPrefix(text[pos:], []byte("//")):
		end := bytes.IndexByte(text[pos:], '\n')
		if end < 0 {
			return len(text), fg(Comment)
		}
		return pos + end, fg(Comment)
	case bytes.HasPrefix(text[pos:], []byte("/*")):
		end := bytes.Index(text[pos+2:], []byte("*/"))
		if end < 0 {
			return len(text), fg(Comment)
		}
		return pos + 2 + end + 2, fg(Comment)
	case c == '"' || c == '\'':
		return t.quoted(pos, c), fg(String)
	case isDigit(c):
		end := pos + 1
		for end < len(text) && (isWordByte(text[end]) || text[end] == '.') {
			end++
		}
		return end, fg(Number)
	case isWordByte(c) || c == '#':
		end := pos + 1
		for end < len(text) && isWordByte(text[end]) {
			end++
		}
		word := t.k.fold(string(text[pos:end]))
		switch {
		case t.k.keywords[word]:
			return end, fg(Keyword)
		case t.k.identifiers[word]:
			return end, fg(Identifier)
		}
		return end, fg(Normal)
	case strings.IndexByte("()[]{}", c) >= 0:
		return pos + 1, fg(Parenthesis)
	case c >= utf8.RuneSelf:
		_, n := utf8.DecodeRune(text[pos:])
		return pos + n, fg(Normal)
	}
	return pos + 1, fg(Normal)
}

// quoted finds the end of a string opened at pos, honouring backslash
// escapes. Unterminated strings stop at the end of the line.
func (t keywordTokenizer) quoted(pos int, quote byte) int {
	text := t.text
	for i := pos + 1; i < len(text); i++ {
		switch text[i] {
		case '\\':
			i++
		case quote:
			return i + 1
		case '\n':
			return i
		}
	}
	return len(text)
}

func isWordByte(c byte) bool {
	return c == '_' || isDigit(c) || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
