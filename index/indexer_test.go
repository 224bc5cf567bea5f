package index

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"textcore/config"
)

func writeTree(t *testing.T, fs afero.Fs, files map[string]string) {
	t.Helper()
	for name, body := range files {
		if err := afero.WriteFile(fs, name, []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func newProject(t *testing.T, ignore ...string) (afero.Fs, *Indexer) {
	t.Helper()
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll("/proj/.git", 0755); err != nil {
		t.Fatal(err)
	}
	writeTree(t, fs, map[string]string{
		"/proj/a.txt":     "alpha beta\n",
		"/proj/b.log":     "noise\n",
		"/proj/sub/c.txt": "gamma\n  alpha\n",
	})
	if len(ignore) > 0 {
		if err := config.SaveProject(fs, "/proj", config.ProjectConfig{Search: config.SearchConfig{Ignore: ignore}}); err != nil {
			t.Fatal(err)
		}
	}
	ix := New(Options{Fs: fs, WorkDir: "/proj/sub", Workers: 2})
	t.Cleanup(func() { ix.Close() })
	return fs, ix
}

func waitIndex(t *testing.T, ix *Indexer) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ix.Wait(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}
}

func TestIndexHonoursIgnore(t *testing.T) {
	_, ix := newProject(t, "*.log")
	if !ix.StartIndexing() {
		t.Fatalf("expected indexing to start")
	}
	if ix.Root() != "/proj" {
		t.Fatalf("expected root /proj, got %s", ix.Root())
	}
	waitIndex(t, ix)

	if !ix.IsIndexingComplete() || !ix.IsSymbolSearchComplete() {
		t.Fatalf("expected both phases complete")
	}
	res := ix.Result()
	if diff := cmp.Diff([]string{"a.txt", "sub/c.txt"}, res.Paths); diff != "" {
		t.Fatalf("unexpected paths (-want +got):\n%s", diff)
	}
	for i, p := range res.Paths {
		if res.LowerPaths[i] != strings.ToLower(p) {
			t.Fatalf("expected lower path of %s, got %s", p, res.LowerPaths[i])
		}
	}
	if res.Errors != "" || res.Err != nil {
		t.Fatalf("unexpected errors %q %v", res.Errors, res.Err)
	}
}

func TestIndexSkipsProjectAndVCSDirs(t *testing.T) {
	fs, ix := newProject(t)
	writeTree(t, fs, map[string]string{
		"/proj/.git/HEAD":     "ref",
		"/proj/.hg/store":     "x",
		"/proj/build/out.o":   "x",
		"/proj/src/obj/gen.c": "x",
		"/proj/Upper.TXT":     "x",
	})
	ix.StartIndexing()
	waitIndex(t, ix)

	want := []string{"Upper.TXT", "a.txt", "b.log", "sub/c.txt"}
	if diff := cmp.Diff(want, ix.Paths()); diff != "" {
		t.Fatalf("unexpected paths (-want +got):\n%s", diff)
	}
	if got := ix.Result().LowerPaths[0]; got != "upper.txt" {
		t.Fatalf("expected lowercase projection, got %s", got)
	}
}

func TestIndexInclude(t *testing.T) {
	fs, ix := newProject(t)
	cfg := config.ProjectConfig{Search: config.SearchConfig{Include: []string{"sub/*"}}}
	if err := config.SaveProject(fs, "/proj", cfg); err != nil {
		t.Fatal(err)
	}
	ix.StartIndexing()
	waitIndex(t, ix)
	if diff := cmp.Diff([]string{"sub/c.txt"}, ix.Paths()); diff != "" {
		t.Fatalf("unexpected paths (-want +got):\n%s", diff)
	}
}

func TestIndexNotAGitProject(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTree(t, fs, map[string]string{"/loose/a.txt": "x"})
	ix := New(Options{Fs: fs, WorkDir: "/loose"})
	defer ix.Close()
	if ix.StartIndexing() {
		t.Fatalf("expected no repository")
	}
	if ix.Tick() || ix.IsIndexingComplete() {
		t.Fatalf("expected nothing to index")
	}
}

func TestIndexMalformedProject(t *testing.T) {
	fs, ix := newProject(t)
	writeTree(t, fs, map[string]string{config.ProjectPath("/proj"): "[search\n"})
	if !ix.StartIndexing() {
		t.Fatalf("expected indexing to start")
	}
	if !ix.Tick() {
		t.Fatalf("expected the failed config to resolve immediately")
	}
	res := ix.Result()
	if !strings.Contains(res.Errors, "failed to parse") || len(res.Paths) != 0 {
		t.Fatalf("expected parse diagnostic, got %q %v", res.Errors, res.Paths)
	}
}

func TestScanRootFailure(t *testing.T) {
	fs := afero.NewMemMapFs()
	res := scan(context.Background(), fs, "/missing", nil, nil)
	if res.Err == nil {
		t.Fatalf("expected root error")
	}
	writeTree(t, fs, map[string]string{"/file": "x"})
	if res := scan(context.Background(), fs, "/file", nil, nil); !errors.Is(res.Err, ErrNotDirectory) {
		t.Fatalf("expected error for a file root")
	}
}

// deniedFs fails Open for the listed paths.
type deniedFs struct {
	afero.Fs
	denied map[string]bool
}

func (fs deniedFs) Open(name string) (afero.File, error) {
	if fs.denied[name] {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
	}
	return fs.Fs.Open(name)
}

func TestScanEntryErrorIsSoft(t *testing.T) {
	base, _ := newProject(t)
	writeTree(t, base, map[string]string{"/proj/z.txt": "zeta\n"})
	fs := deniedFs{Fs: base, denied: map[string]bool{"/proj/sub": true}}

	res := scan(context.Background(), fs, "/proj", nil, nil)
	if res.Err != nil {
		t.Fatalf("expected no hard failure, got %v", res.Err)
	}
	if !strings.Contains(res.Errors, "/proj/sub") || !strings.Contains(res.Errors, "permission denied") {
		t.Fatalf("expected the unreadable directory in errors, got %q", res.Errors)
	}
	if diff := cmp.Diff([]string{"a.txt", "b.log", "z.txt"}, res.Paths); diff != "" {
		t.Fatalf("unexpected paths (-want +got):\n%s", diff)
	}
}

func TestSymbolErrors(t *testing.T) {
	base, _ := newProject(t)
	fs := deniedFs{Fs: base, denied: map[string]bool{"/proj/a.txt": true}}
	ix := New(Options{Fs: fs, WorkDir: "/proj", Workers: 2})
	defer ix.Close()
	if !ix.StartIndexing() {
		t.Fatalf("expected indexing to start")
	}
	waitIndex(t, ix)

	errs := ix.SymbolErrors()
	if len(errs) != 1 || !strings.HasPrefix(errs[0], "a.txt : ") {
		t.Fatalf("expected one error for a.txt, got %v", errs)
	}
	if diff := cmp.Diff([]Location{{Path: "sub/c.txt", Line: 1, Column: 2}}, ix.Lookup("alpha")); diff != "" {
		t.Fatalf("expected the other files to be scanned (-want +got):\n%s", diff)
	}
}

func TestScanCancelled(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeTree(t, fs, map[string]string{"/p/a": "x", "/p/b": "y"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := scan(ctx, fs, "/p", nil, nil)
	if res.Err == nil || len(res.Paths) != 0 {
		t.Fatalf("expected cancelled scan, got %v %v", res.Err, res.Paths)
	}
}

func TestSupersededScanIsDiscarded(t *testing.T) {
	fs, ix := newProject(t, "*.log")
	ix.StartIndexing()
	first := ix.scan
	writeTree(t, fs, map[string]string{"/proj/d.txt": "delta\n"})
	ix.StartIndexing()
	if ix.scan == first {
		t.Fatalf("expected a new scan")
	}
	waitIndex(t, ix)
	if diff := cmp.Diff([]string{"a.txt", "d.txt", "sub/c.txt"}, ix.Paths()); diff != "" {
		t.Fatalf("unexpected paths (-want +got):\n%s", diff)
	}
}

func TestSymbols(t *testing.T) {
	fs, ix := newProject(t, "*.log")
	writeTree(t, fs, map[string]string{"/proj/bin.dat": "alpha\x00beta"})
	ix.StartIndexing()
	waitIndex(t, ix)

	want := []Location{
		{Path: "a.txt", Line: 0, Column: 0},
		{Path: "sub/c.txt", Line: 1, Column: 2},
	}
	if diff := cmp.Diff(want, ix.Lookup("alpha")); diff != "" {
		t.Fatalf("unexpected locations (-want +got):\n%s", diff)
	}
	syms := ix.Symbols()
	if diff := cmp.Diff([]Location{{Path: "a.txt", Line: 0, Column: 6}}, syms["beta"]); diff != "" {
		t.Fatalf("binary files should be skipped (-want +got):\n%s", diff)
	}
	if _, ok := syms["noise"]; ok {
		t.Fatalf("expected ignored files to be skipped")
	}

	syms["alpha"] = nil
	if len(ix.Lookup("alpha")) != 2 {
		t.Fatalf("expected Symbols to return a copy")
	}
}

func TestSuggest(t *testing.T) {
	_, ix := newProject(t)
	if got := ix.Suggest("alpha", 3); got != nil {
		t.Fatalf("expected no suggestions before a search, got %v", got)
	}
	ix.StartIndexing()
	waitIndex(t, ix)

	if diff := cmp.Diff([]string{"alpha"}, ix.Suggest("alpa", 3)); diff != "" {
		t.Fatalf("unexpected suggestions (-want +got):\n%s", diff)
	}
	if got := ix.Suggest("alpha", 3); len(got) != 0 {
		t.Fatalf("expected the exact name to be left out, got %v", got)
	}
	if got := ix.Suggest("zzzzzz", 3); len(got) != 0 {
		t.Fatalf("expected nothing close to zzzzzz, got %v", got)
	}
}

func TestSuggestRanking(t *testing.T) {
	got := suggest("buffer", []string{"buffers", "bufer", "Buffer", "cursor", "buff"}, 0)
	want := []string{"Buffer", "bufer", "buffers", "buff"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected ranking (-want +got):\n%s", diff)
	}
	if got := suggest("buffer", []string{"bufer", "buffers"}, 1); len(got) != 1 {
		t.Fatalf("expected the limit to apply, got %v", got)
	}
}

func TestExtractSymbols(t *testing.T) {
	got := extractSymbols([]byte("int x1 = 42;\n\tfoo(x1, _bar);\n9lives"))
	want := map[string]Location{
		"int":  {Line: 0, Column: 0},
		"x1":   {Line: 0, Column: 4},
		"foo":  {Line: 1, Column: 1},
		"_bar": {Line: 1, Column: 9},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected symbols (-want +got):\n%s", diff)
	}
}

func TestFind(t *testing.T) {
	res := &FileIndexResult{}
	for _, p := range []string{"docs/readme.md", "buffer/buffer.go", "buffer/undo.go", "index/indexer.go"} {
		res.add(p)
	}
	got := res.Find("buf", 0)
	if len(got) != 2 || got[0].Path != "buffer/buffer.go" {
		t.Fatalf("expected buffer.go first, got %+v", got)
	}
	if diff := cmp.Diff([]int{0, 1, 2}, got[0].Indexes); diff != "" {
		t.Fatalf("unexpected match indexes (-want +got):\n%s", diff)
	}
	if got := res.Find("UNDO", 1); len(got) != 1 || got[0].Path != "buffer/undo.go" {
		t.Fatalf("expected case-insensitive match, got %+v", got)
	}
	if got := res.Find("zzz", 0); len(got) != 0 {
		t.Fatalf("expected no match, got %+v", got)
	}
}

func TestWatchRescans(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, ".git"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0644); err != nil {
		t.Fatal(err)
	}
	ix := New(Options{Fs: afero.NewOsFs(), WorkDir: dir})
	defer ix.Close()
	if !ix.StartIndexing() {
		t.Fatalf("expected indexing to start")
	}
	waitIndex(t, ix)
	if err := ix.Watch(); err != nil {
		t.Fatalf("watch: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "b.txt"), []byte("b"), 0644); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		ix.Tick()
		if len(ix.Paths()) == 2 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("expected rescan to pick up b.txt, got %v", ix.Paths())
}

func TestWatcherLogsWalkFailure(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	missing := filepath.Join(t.TempDir(), "gone")
	w, err := NewWatcher(missing, func() {}, zap.New(core))
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Close()
	if n := logs.FilterMessage("watch walk").Len(); n != 1 {
		t.Fatalf("expected the walk failure to be logged once, got %d", n)
	}
}
