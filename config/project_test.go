package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
)

func TestFindProjectRoot(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll("/work/proj/.git", 0755); err != nil {
		t.Fatal(err)
	}
	if err := fs.MkdirAll("/work/proj/src/deep", 0755); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(fs, "/work/proj/src/deep/a.go", nil, 0644); err != nil {
		t.Fatal(err)
	}

	for _, start := range []string{"/work/proj", "/work/proj/src/deep", "/work/proj/src/deep/a.go"} {
		root, ok := FindProjectRoot(fs, start)
		if !ok || root != "/work/proj" {
			t.Fatalf("%s: expected /work/proj, got %q %v", start, root, ok)
		}
	}
	if _, ok := FindProjectRoot(fs, "/work"); ok {
		t.Fatalf("expected no root above the repository")
	}
}

func TestLoadProjectDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg, err := LoadProject(fs, "/proj")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(DefaultProject(), cfg); diff != "" {
		t.Fatalf("unexpected config (-want +got):\n%s", diff)
	}
}

func TestLoadProjectOverrides(t *testing.T) {
	fs := afero.NewMemMapFs()
	data := `
[search]
ignore = ["*.log"]
extra = 1
`
	if err := afero.WriteFile(fs, ProjectPath("/proj"), []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadProject(fs, "/proj")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff([]string{"*.log"}, cfg.Search.Ignore); diff != "" {
		t.Fatalf("unexpected ignore (-want +got):\n%s", diff)
	}
	if len(cfg.Search.Include) != 0 {
		t.Fatalf("expected no include patterns, got %v", cfg.Search.Include)
	}
	if diff := cmp.Diff([]string{"search.extra"}, cfg.Undecoded); diff != "" {
		t.Fatalf("unexpected undecoded keys (-want +got):\n%s", diff)
	}
}

func TestLoadProjectMalformed(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, ProjectPath("/proj"), []byte("[search\nignore = "), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadProject(fs, "/proj")
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if diff := cmp.Diff(DefaultProject(), cfg); diff != "" {
		t.Fatalf("expected defaults on error (-want +got):\n%s", diff)
	}
}

func TestSaveProject(t *testing.T) {
	fs := afero.NewMemMapFs()
	want := ProjectConfig{Search: SearchConfig{Ignore: []string{"vendor/**"}, Include: []string{"*.go"}}}
	if err := SaveProject(fs, "/proj", want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := LoadProject(fs, "/proj")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected config (-want +got):\n%s", diff)
	}
}

func TestMatcher(t *testing.T) {
	m, err := NewMatcher(DefaultProject().Search.Ignore)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	cases := map[string]bool{
		"build/out.o":     true,
		"Build/out.o":     true,
		"src/obj/x.o":     true,
		"a/b/bin/tool":    true,
		"Built.txt":       true,
		"src/build/x.o":   false,
		"src/main.go":     false,
		"rebuild/note.md": false,
	}
	for path, want := range cases {
		if got := m.Match(path); got != want {
			t.Fatalf("%s: expected %v, got %v", path, want, got)
		}
	}

	logs, err := NewMatcher([]string{"*.log", " "})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !logs.Match("deep/dir/b.log") || logs.Match("b.txt") {
		t.Fatalf("expected wildcards to cross directories")
	}
	if len(logs.Patterns()) != 1 {
		t.Fatalf("expected blank patterns dropped, got %v", logs.Patterns())
	}

	var none *Matcher
	if !none.Empty() || none.Match("x") {
		t.Fatalf("expected nil matcher to match nothing")
	}
	if _, err := NewMatcher([]string{"[a"}); err == nil {
		t.Fatalf("expected compile error")
	}
}
