package config

import (
	"github.com/gdamore/tcell/v2"

	"textcore/highlight"
)

type ColorScheme struct {
	Name       string
	Background tcell.Color
	Foreground tcell.Color
	Selection  tcell.Color
	LineNumber tcell.Color
	Syntax     map[highlight.Class]tcell.Color
}

// Color maps a class to its theme colour. Classes the theme leaves out
// use the foreground.
func (s *ColorScheme) Color(c highlight.Class) tcell.Color {
	if col, ok := s.Syntax[c]; ok {
		return col
	}
	return s.Foreground
}

// Style renders one classified byte.
func (s *ColorScheme) Style(d highlight.Data) tcell.Style {
	bg := s.Background
	if d.Background != highlight.None {
		bg = s.Color(d.Background)
	}
	st := tcell.StyleDefault.Foreground(s.Color(d.Foreground)).Background(bg)
	switch d.Foreground {
	case highlight.Keyword:
		st = st.Bold(true)
	case highlight.Comment:
		st = st.Italic(true)
	}
	if d.Underline {
		st = st.Underline(true)
	}
	return st
}

var Themes = map[string]*ColorScheme{
	"dark": {
		Name:       "Dark",
		Background: tcell.ColorBlack,
		Foreground: tcell.ColorWhite,
		Selection:  tcell.ColorDarkBlue,
		LineNumber: tcell.ColorGray,
		Syntax: map[highlight.Class]tcell.Color{
			highlight.Keyword:     tcell.ColorBlue,
			highlight.Identifier:  tcell.ColorYellow,
			highlight.Number:      tcell.ColorDarkCyan,
			highlight.String:      tcell.ColorGreen,
			highlight.Comment:     tcell.ColorGray,
			highlight.Whitespace:  tcell.ColorDarkGray,
			highlight.Parenthesis: tcell.ColorWhite,
		},
	},
	"light": {
		Name:       "Light",
		Background: tcell.ColorWhite,
		Foreground: tcell.ColorBlack,
		Selection:  tcell.ColorLightBlue,
		LineNumber: tcell.ColorGray,
		Syntax: map[highlight.Class]tcell.Color{
			highlight.Keyword:     tcell.ColorNavy,
			highlight.Identifier:  tcell.ColorOlive,
			highlight.Number:      tcell.ColorTeal,
			highlight.String:      tcell.ColorDarkGreen,
			highlight.Comment:     tcell.ColorGray,
			highlight.Whitespace:  tcell.ColorLightGray,
			highlight.Parenthesis: tcell.ColorBlack,
		},
	},
	"monokai": {
		Name:       "Monokai",
		Background: tcell.NewRGBColor(39, 40, 34),
		Foreground: tcell.NewRGBColor(248, 248, 242),
		Selection:  tcell.NewRGBColor(73, 72, 62),
		LineNumber: tcell.NewRGBColor(144, 144, 128),
		Syntax: map[highlight.Class]tcell.Color{
			highlight.Keyword:     tcell.NewRGBColor(249, 38, 114),
			highlight.Identifier:  tcell.NewRGBColor(102, 217, 239),
			highlight.Number:      tcell.NewRGBColor(174, 129, 255),
			highlight.String:      tcell.NewRGBColor(230, 219, 116),
			highlight.Comment:     tcell.NewRGBColor(117, 113, 94),
			highlight.Whitespace:  tcell.NewRGBColor(70, 71, 60),
			highlight.Parenthesis: tcell.NewRGBColor(248, 248, 242),
		},
	},
	"nord": {
		Name:       "Nord",
		Background: tcell.NewRGBColor(46, 52, 64),
		Foreground: tcell.NewRGBColor(236, 239, 244),
		Selection:  tcell.NewRGBColor(67, 76, 94),
		LineNumber: tcell.NewRGBColor(76, 86, 106),
		Syntax: map[highlight.Class]tcell.Color{
			highlight.Keyword:     tcell.NewRGBColor(129, 161, 193),
			highlight.Identifier:  tcell.NewRGBColor(136, 192, 208),
			highlight.Number:      tcell.NewRGBColor(180, 142, 173),
			highlight.String:      tcell.NewRGBColor(163, 190, 140),
			highlight.Comment:     tcell.NewRGBColor(97, 110, 136),
			highlight.Whitespace:  tcell.NewRGBColor(59, 66, 82),
			highlight.Parenthesis: tcell.NewRGBColor(236, 239, 244),
		},
	},
	"gruvbox": {
		Name:       "Gruvbox Dark",
		Background: tcell.NewRGBColor(40, 40, 40),
		Foreground: tcell.NewRGBColor(235, 219, 178),
		Selection:  tcell.NewRGBColor(60, 56, 54),
		LineNumber: tcell.NewRGBColor(124, 111, 100),
		Syntax: map[highlight.Class]tcell.Color{
			highlight.Keyword:     tcell.NewRGBColor(251, 73, 52),
			highlight.Identifier:  tcell.NewRGBColor(250, 189, 47),
			highlight.Number:      tcell.NewRGBColor(211, 134, 155),
			highlight.String:      tcell.NewRGBColor(184, 187, 38),
			highlight.Comment:     tcell.NewRGBColor(146, 131, 116),
			highlight.Whitespace:  tcell.NewRGBColor(60, 56, 54),
			highlight.Parenthesis: tcell.NewRGBColor(235, 219, 178),
		},
	},
	"dracula": {
		Name:       "Dracula",
		Background: tcell.NewRGBColor(40, 42, 54),
		Foreground: tcell.NewRGBColor(248, 248, 242),
		Selection:  tcell.NewRGBColor(68, 71, 90),
		LineNumber: tcell.NewRGBColor(98, 114, 164),
		Syntax: map[highlight.Class]tcell.Color{
			highlight.Keyword:     tcell.NewRGBColor(255, 121, 198),
			highlight.Identifier:  tcell.NewRGBColor(139, 233, 253),
			highlight.Number:      tcell.NewRGBColor(189, 147, 249),
			highlight.String:      tcell.NewRGBColor(241, 250, 140),
			highlight.Comment:     tcell.NewRGBColor(98, 114, 164),
			highlight.Whitespace:  tcell.NewRGBColor(68, 71, 90),
			highlight.Parenthesis: tcell.NewRGBColor(248, 248, 242),
		},
	},
}
