package highlight

// Class is a themed token category.
type Class int

const (
	None Class = iota
	Normal
	Keyword
	Identifier
	Number
	String
	Comment
	Whitespace
	Parenthesis
)

var classNames = [...]string{
	None:        "none",
	Normal:      "normal",
	Keyword:     "keyword",
	Identifier:  "identifier",
	Number:      "number",
	String:      "string",
	Comment:     "comment",
	Whitespace:  "whitespace",
	Parenthesis: "parenthesis",
}

func (c Class) String() string {
	if c < 0 || int(c) >= len(classNames) {
		return "unknown"
	}
	return classNames[c]
}

// Data is the classification of one buffer byte.
type Data struct {
	Foreground Class
	Background Class
	Underline  bool
}

func fg(c Class) Data { return Data{Foreground: c} }
