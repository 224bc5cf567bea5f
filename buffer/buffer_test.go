package buffer

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
)

func TestNewBufferHasSentinel(t *testing.T) {
	b := NewBuffer(4)
	if b.Size() != 1 {
		t.Fatalf("expected size 1, got %d", b.Size())
	}
	if b.ByteAt(0) != 0 {
		t.Fatalf("expected sentinel byte, got %q", b.ByteAt(0))
	}
	if len(b.Text()) != 0 {
		t.Fatalf("expected empty text, got %q", b.Text())
	}
}

func TestInsertClampsAndReturnsEnd(t *testing.T) {
	b := NewBuffer(4)
	if end := b.Insert(0, "hello"); end != 5 {
		t.Fatalf("expected end 5, got %d", end)
	}
	if end := b.Insert(100, "!"); end != 6 {
		t.Fatalf("expected clamped insert to end at 6, got %d", end)
	}
	if end := b.Insert(-3, ">"); end != 1 {
		t.Fatalf("expected clamped insert to end at 1, got %d", end)
	}
	if got := b.String(); got != ">hello!" {
		t.Fatalf("expected >hello!, got %q", got)
	}
	if b.ByteAt(b.Size()-1) != 0 {
		t.Fatalf("expected sentinel to stay last")
	}
}

func TestInsertAlignsToGlyph(t *testing.T) {
	b := NewBuffer(4)
	b.SetText("aé")
	// offset 2 is inside the two byte é
	b.Insert(2, "x")
	if got := b.String(); got != "axé" {
		t.Fatalf("expected axé, got %q", got)
	}
}

func TestInsertReplacesInvalidUTF8(t *testing.T) {
	b := NewBuffer(4)
	b.Insert(0, "a\xffb")
	if got := b.String(); got != "a�b" {
		t.Fatalf("expected replacement char, got %q", got)
	}
}

func TestDeleteNeverRemovesSentinel(t *testing.T) {
	b := NewBuffer(4)
	b.SetText("abc")
	b.Delete(1, 100)
	if got := b.String(); got != "a" {
		t.Fatalf("expected a, got %q", got)
	}
	b.Delete(0, 100)
	b.Delete(0, 100)
	b.Delete(-5, 5)
	if b.Size() != 1 {
		t.Fatalf("expected size 1 after deletes, got %d", b.Size())
	}
	if b.ByteAt(0) != 0 {
		t.Fatalf("expected sentinel to survive")
	}
}

func TestDeleteEmptyBufferCollapses(t *testing.T) {
	b := NewBuffer(4)
	gen := b.Generation()
	b.Delete(0, 10)
	if b.Generation() != gen {
		t.Fatalf("expected no mutation on empty buffer")
	}
}

func TestGenerationAndListeners(t *testing.T) {
	b := NewBuffer(4)
	var got []Change
	unsubscribe := b.Subscribe(func(c Change) { got = append(got, c) })

	b.Insert(0, "hello")
	b.Delete(1, 3)
	unsubscribe()
	b.Insert(0, "zzz")

	want := []Change{
		{Kind: TextAdded, Start: 0, End: 5, Generation: 1},
		{Kind: TextDeleted, Start: 1, End: 3, Generation: 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected changes (-want +got):\n%s", diff)
	}
	if b.Generation() != 3 {
		t.Fatalf("expected generation 3, got %d", b.Generation())
	}
}

func TestSetTextStripsCR(t *testing.T) {
	b := NewBuffer(4)
	b.SetText("one\r\ntwo\r\n")
	if got := b.String(); got != "one\ntwo\n" {
		t.Fatalf("expected CRs stripped, got %q", got)
	}
	if b.LineEnding != "CRLF" {
		t.Fatalf("expected CRLF line ending, got %s", b.LineEnding)
	}
}

func TestSetTextIndentFlags(t *testing.T) {
	b := NewBuffer(4)
	b.SetText("func f() {\n\treturn\n}\n")
	if !b.HasTabs || b.HasSpaceIndent {
		t.Fatalf("expected tabs only, got tabs=%v spaces=%v", b.HasTabs, b.HasSpaceIndent)
	}
	b.SetText("def f():\n    return\n")
	if b.HasTabs || !b.HasSpaceIndent {
		t.Fatalf("expected spaces only, got tabs=%v spaces=%v", b.HasTabs, b.HasSpaceIndent)
	}
}

func TestLoadAndSaveRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/p/a.txt", []byte("x\r\n\ty\r\n"), 0644); err != nil {
		t.Fatal(err)
	}
	b, err := NewBufferFromFile(fs, "/p/a.txt", 4)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !b.HasTabs || b.LineEnding != "CRLF" || b.Encoding != "UTF-8" {
		t.Fatalf("unexpected flags: tabs=%v eol=%s enc=%s", b.HasTabs, b.LineEnding, b.Encoding)
	}
	if b.IsDirty() {
		t.Fatalf("expected fresh buffer to be clean")
	}
	b.Insert(0, "z")
	if !b.IsDirty() {
		t.Fatalf("expected dirty after insert")
	}
	if err := b.Save(fs); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, _ := afero.ReadFile(fs, "/p/a.txt")
	if string(data) != "zx\r\n\ty\r\n" {
		t.Fatalf("expected CRLF restored, got %q", data)
	}
	if b.IsDirty() {
		t.Fatalf("expected clean after save")
	}
}

func TestReload(t *testing.T) {
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/p/a.txt", []byte("one\r\n"), 0644); err != nil {
		t.Fatal(err)
	}
	b, err := NewBufferFromFile(fs, "/p/a.txt", 4)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	b.Insert(0, "local ")

	var kinds []ChangeKind
	b.Subscribe(func(c Change) { kinds = append(kinds, c.Kind) })
	if err := afero.WriteFile(fs, "/p/a.txt", []byte("two\r\nthree\r\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := b.Reload(fs); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if b.String() != "two\nthree\n" || b.LineEnding != "CRLF" || b.IsDirty() {
		t.Fatalf("unexpected state %q eol=%s dirty=%v", b.String(), b.LineEnding, b.IsDirty())
	}
	if diff := cmp.Diff([]ChangeKind{TextReset}, kinds); diff != "" {
		t.Fatalf("unexpected changes (-want +got):\n%s", diff)
	}

	if err := NewBuffer(4).Reload(fs); err == nil {
		t.Fatalf("expected error without a path")
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	b, err := NewBufferFromFile(afero.NewMemMapFs(), "/nope.txt", 4)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if b.Size() != 1 || b.Path != "/nope.txt" {
		t.Fatalf("expected empty buffer bound to path")
	}
}

func TestLoadBinaryIsReadOnly(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/bin", []byte{'a', 0, 'b'}, 0644)
	b, err := NewBufferFromFile(fs, "/bin", 4)
	if err != nil {
		t.Fatal(err)
	}
	if !b.ReadOnly {
		t.Fatalf("expected binary file to be read-only")
	}
}

func TestLoadLatin1(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/l1", []byte{'c', 'a', 'f', 0xE9}, 0644)
	b, err := NewBufferFromFile(fs, "/l1", 4)
	if err != nil {
		t.Fatal(err)
	}
	if b.Encoding != "Latin-1" || b.String() != "café" {
		t.Fatalf("expected decoded latin-1, got %s %q", b.Encoding, b.String())
	}
}

func TestDetectIndentation(t *testing.T) {
	var lines []string
	for i := 0; i < 8; i++ {
		lines = append(lines, "  x")
	}
	size, tabs := DetectIndentation(lines, 4)
	if size != 2 || tabs {
		t.Fatalf("expected 2 spaces, got %d tabs=%v", size, tabs)
	}

	lines = lines[:0]
	for i := 0; i < 12; i++ {
		lines = append(lines, "\tx")
	}
	if _, tabs := DetectIndentation(lines, 4); !tabs {
		t.Fatalf("expected tabs to be detected")
	}
}
