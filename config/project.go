package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/gobwas/glob"
	"github.com/spf13/afero"
)

const (
	ProjectDir  = ".textcore"
	ProjectFile = "project.toml"
)

type ProjectConfig struct {
	Search SearchConfig `toml:"search"`

	// Undecoded lists keys in the file that no field consumed.
	Undecoded []string `toml:"-"`
}

type SearchConfig struct {
	Ignore  []string `toml:"ignore"`
	Include []string `toml:"include"`
}

// DefaultProject skips common build output and includes every file.
func DefaultProject() ProjectConfig {
	return ProjectConfig{
		Search: SearchConfig{
			Ignore: []string{"[Bb]uild/*", "**/[Oo]bj/**", "**/[Bb]in/**", "[Bb]uilt*"},
		},
	}
}

func ProjectPath(root string) string {
	return filepath.Join(root, ProjectDir, ProjectFile)
}

// FindProjectRoot walks upward from start to the nearest directory holding
// a .git entry.
func FindProjectRoot(fsys afero.Fs, start string) (string, bool) {
	dir := filepath.Clean(start)
	if fi, err := fsys.Stat(dir); err == nil && !fi.IsDir() {
		dir = filepath.Dir(dir)
	}
	for {
		if _, err := fsys.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// LoadProject reads <root>/.textcore/project.toml. Keys the file sets
// replace the defaults; a missing file yields the defaults. On a decode
// error the defaults are returned along with the error.
func LoadProject(fsys afero.Fs, root string) (ProjectConfig, error) {
	cfg := DefaultProject()
	data, err := afero.ReadFile(fsys, ProjectPath(root))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}

	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return DefaultProject(), fmt.Errorf("parse %s: %w", ProjectPath(root), err)
	}
	for _, k := range md.Undecoded() {
		cfg.Undecoded = append(cfg.Undecoded, k.String())
	}
	return cfg, nil
}

func SaveProject(fsys afero.Fs, root string, cfg ProjectConfig) error {
	if err := fsys.MkdirAll(filepath.Join(root, ProjectDir), 0755); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return err
	}
	return afero.WriteFile(fsys, ProjectPath(root), buf.Bytes(), 0644)
}

// Matcher tests slash-separated relative paths against a set of globs.
// Wildcards cross '/', so "*.log" hits "a/b/c.log".
type Matcher struct {
	patterns []string
	globs    []glob.Glob
}

func NewMatcher(patterns []string) (*Matcher, error) {
	m := &Matcher{}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		g, err := glob.Compile(strings.TrimPrefix(p, "/"))
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", p, err)
		}
		m.patterns = append(m.patterns, p)
		m.globs = append(m.globs, g)
	}
	return m, nil
}

func (m *Matcher) Empty() bool { return m == nil || len(m.globs) == 0 }

func (m *Matcher) Match(rel string) bool {
	if m == nil {
		return false
	}
	for _, g := range m.globs {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

func (m *Matcher) Patterns() []string {
	if m == nil {
		return nil
	}
	return m.patterns
}
