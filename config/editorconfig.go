package config

import (
	"bufio"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

const editorConfigName = ".editorconfig"

type EditorConfigSettings struct {
	IndentStyle string // "tab" or "space"
	IndentSize  int    // 0 means unset
	TabWidth    int    // 0 means unset
	EndOfLine   string // "lf" or "crlf"
	Charset     string
}

// TabSize is the visual tab width the settings imply, or 0.
func (s *EditorConfigSettings) TabSize() int {
	if s.TabWidth > 0 {
		return s.TabWidth
	}
	return s.IndentSize
}

// set applies one property and reports whether it was understood.
func (s *EditorConfigSettings) set(key, value string) bool {
	switch key {
	case "indent_style":
		s.IndentStyle = value
	case "end_of_line":
		s.EndOfLine = value
	case "charset":
		s.Charset = value
	case "indent_size", "tab_width":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return false
		}
		if key == "indent_size" {
			s.IndentSize = n
		} else {
			s.TabWidth = n
		}
	default:
		return false
	}
	return true
}

type editorConfigSection struct {
	match *Matcher
	props [][2]string
}

// editorConfigFile is one parsed .editorconfig, sections in file order.
type editorConfigFile struct {
	dir      string
	root     bool
	sections []editorConfigSection
}

// FindEditorConfig collects .editorconfig files from the file's directory
// up to the first one marked root = true and applies their matching
// sections, farthest first, so nearer files and later sections win. It
// returns nil when nothing applies.
func FindEditorConfig(fsys afero.Fs, filePath string) *EditorConfigSettings {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil
	}

	var chain []*editorConfigFile
	for dir := filepath.Dir(absPath); ; {
		if f := readEditorConfig(fsys, dir); f != nil {
			chain = append(chain, f)
			if f.root {
				break
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	s := &EditorConfigSettings{}
	applied := false
	for i := len(chain) - 1; i >= 0; i-- {
		if chain[i].apply(absPath, s) {
			applied = true
		}
	}
	if !applied {
		return nil
	}
	return s
}

func (f *editorConfigFile) apply(absPath string, s *EditorConfigSettings) bool {
	rel, err := filepath.Rel(f.dir, absPath)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)

	applied := false
	for _, sec := range f.sections {
		if !sec.match.Match(rel) {
			continue
		}
		for _, kv := range sec.props {
			if s.set(kv[0], kv[1]) {
				applied = true
			}
		}
	}
	return applied
}

// readEditorConfig parses dir/.editorconfig, or returns nil when there is
// none. Sections whose glob does not compile are skipped.
func readEditorConfig(fsys afero.Fs, dir string) *editorConfigFile {
	fh, err := fsys.Open(filepath.Join(dir, editorConfigName))
	if err != nil {
		return nil
	}
	defer fh.Close()

	f := &editorConfigFile{dir: dir}
	var cur *editorConfigSection
	preamble := true
	sc := bufio.NewScanner(fh)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "", line[0] == '#', line[0] == ';':
			continue
		case line[0] == '[' && strings.HasSuffix(line, "]"):
			preamble = false
			m, err := NewMatcher([]string{line[1 : len(line)-1]})
			if err != nil {
				cur = nil
				continue
			}
			f.sections = append(f.sections, editorConfigSection{match: m})
			cur = &f.sections[len(f.sections)-1]
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.ToLower(strings.TrimSpace(value))
		switch {
		case cur != nil:
			cur.props = append(cur.props, [2]string{key, value})
		case preamble && key == "root":
			f.root = value == "true"
		}
	}
	return f
}
