package editor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"textcore/buffer"
	"textcore/config"
	"textcore/highlight"
	"textcore/index"
)

// Services are the collaborators an Editor is built from.
type Services struct {
	Config *config.Config
	Fs     afero.Fs
	Log    *zap.Logger
}

// Editor owns the open documents and the project indexer. It is driven
// from one goroutine: edits, Tick and the accessors all run there.
type Editor struct {
	cfg   *config.Config
	fs    afero.Fs
	log   *zap.Logger
	theme *config.ColorScheme

	docs      []*Document
	activeTab int

	indexer *index.Indexer
}

func New(svc Services) *Editor {
	if svc.Config == nil {
		svc.Config = config.Default()
	}
	if svc.Fs == nil {
		svc.Fs = afero.NewOsFs()
	}
	if svc.Log == nil {
		svc.Log = zap.NewNop()
	}
	return &Editor{
		cfg:       svc.Config,
		fs:        svc.Fs,
		log:       svc.Log,
		theme:     svc.Config.GetTheme(),
		activeTab: -1,
	}
}

func (e *Editor) Documents() []*Document { return e.docs }

func (e *Editor) Active() *Document {
	if e.activeTab < 0 || e.activeTab >= len(e.docs) {
		return nil
	}
	return e.docs[e.activeTab]
}

func (e *Editor) SwitchTab(idx int) {
	if idx >= 0 && idx < len(e.docs) {
		e.activeTab = idx
	}
}

// Open loads path, or switches to it when it is already open. A missing
// file opens as a new empty document.
func (e *Editor) Open(path string) (*Document, error) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	for i, d := range e.docs {
		if d.Buffer.Path == path {
			e.SwitchTab(i)
			return d, nil
		}
	}

	buf, err := buffer.NewBufferFromFile(e.fs, path, e.cfg.TabSize)
	if err != nil {
		return nil, err
	}
	lang := highlight.DetectLanguage(path)
	e.applyFileSettings(buf, lang)

	log := e.log.With(zap.String("file", filepath.Base(path)))
	switch {
	case buf.ReadOnly:
		log.Info("binary file opened as read-only")
	case buf.FileSize > 10*1024*1024:
		log.Info("large file", zap.Int64("mb", buf.FileSize/(1024*1024)))
	}
	return e.add(buf, highlight.ForFile(path), lang), nil
}

// NewDocument opens an empty untitled document.
func (e *Editor) NewDocument() *Document {
	return e.add(buffer.NewBuffer(e.cfg.TabSize), highlight.NewChroma(""), "")
}

func (e *Editor) add(buf *buffer.Buffer, g highlight.Grammar, lang string) *Document {
	d := &Document{
		Buffer:   buf,
		History:  buffer.NewCommandStack(e.cfg.UndoLimit),
		Language: lang,
		cursor:   buf.Begin(),
	}
	d.Syntax = highlight.NewEngine(buf, g, highlight.Options{
		Sync: e.cfg.SyntaxSync,
		Log:  e.log,
	})
	d.Syntax.UpdateSyntax()
	e.docs = append(e.docs, d)
	e.activeTab = len(e.docs) - 1
	return d
}

// applyFileSettings applies per-language defaults and .editorconfig to a buffer.
func (e *Editor) applyFileSettings(buf *buffer.Buffer, lang string) {
	buf.TabSize = e.cfg.LanguageTabSize(lang)
	buf.UseTabs = e.cfg.LanguageUseTabs(lang)

	if buf.Path == "" {
		return
	}
	ec := config.FindEditorConfig(e.fs, buf.Path)
	if ec == nil {
		return
	}
	if n := ec.TabSize(); n > 0 {
		buf.TabSize = n
	}
	switch ec.IndentStyle {
	case "tab":
		buf.UseTabs = true
	case "space":
		buf.UseTabs = false
	}
	switch ec.EndOfLine {
	case "crlf":
		buf.LineEnding = "CRLF"
	case "lf":
		buf.LineEnding = "LF"
	}
}

// Close drops a document and stops its syntax engine.
func (e *Editor) Close(d *Document) {
	for i, doc := range e.docs {
		if doc != d {
			continue
		}
		d.Syntax.Close()
		e.docs = append(e.docs[:i], e.docs[i+1:]...)
		if e.activeTab >= len(e.docs) {
			e.activeTab = len(e.docs) - 1
		}
		return
	}
}

func (e *Editor) Save(d *Document) error {
	if d.Buffer.Path == "" {
		return errors.New("save: document has no path")
	}
	if err := e.fs.MkdirAll(filepath.Dir(d.Buffer.Path), 0755); err != nil {
		return err
	}
	return d.Buffer.Save(e.fs)
}

// Reload rereads a document from disk. Unsaved edits are refused unless
// force is set. The undo history does not survive a reload.
func (e *Editor) Reload(d *Document, force bool) error {
	if d.Buffer.Path == "" {
		return errors.New("reload: document has no path")
	}
	if _, err := e.fs.Stat(d.Buffer.Path); os.IsNotExist(err) {
		return fmt.Errorf("reload: %s doesn't exist on disk", d.Buffer.Path)
	}
	if d.Buffer.IsDirty() && !force {
		return fmt.Errorf("reload: %s has unsaved changes", d.Name())
	}

	line := d.Buffer.LineCol(d.Cursor().Index())
	if err := d.Buffer.Reload(e.fs); err != nil {
		return err
	}
	e.applyFileSettings(d.Buffer, d.Language)
	d.History.Clear()
	d.SetCursor(d.Buffer.OffsetOf(line))
	return nil
}

// StyleAt renders the classified byte at offset with the configured theme.
func (e *Editor) StyleAt(d *Document, offset int) tcell.Style {
	return e.theme.Style(d.Syntax.GetSyntaxAt(d.Buffer.Iterator(offset)))
}

func (e *Editor) Theme() *config.ColorScheme { return e.theme }

// StartIndexing begins indexing the repository that holds workDir.
func (e *Editor) StartIndexing(workDir string) bool {
	if e.indexer == nil {
		e.indexer = index.New(index.Options{
			Fs:      e.fs,
			WorkDir: workDir,
			Workers: e.cfg.IndexWorkers,
			Log:     e.log,
		})
	}
	if !e.indexer.StartIndexing() {
		return false
	}
	if e.cfg.Watch {
		if err := e.indexer.Watch(); err != nil {
			e.log.Warn("file watching disabled", zap.Error(err))
		}
	}
	return true
}

func (e *Editor) Indexer() *index.Indexer { return e.indexer }

// Tick merges finished background work. It never blocks and reports
// whether anything changed.
func (e *Editor) Tick() bool {
	changed := false
	for _, d := range e.docs {
		if d.Syntax.Poll() {
			changed = true
		}
	}
	if e.indexer != nil && e.indexer.Tick() {
		changed = true
	}
	return changed
}

// Wait blocks until every syntax pass and the indexer are idle.
func (e *Editor) Wait(ctx context.Context) error {
	for _, d := range e.docs {
		if err := d.Syntax.Wait(ctx); err != nil {
			return err
		}
	}
	if e.indexer != nil {
		return e.indexer.Wait(ctx)
	}
	return nil
}

// Shutdown stops all background work and waits for it to exit.
func (e *Editor) Shutdown() error {
	for _, d := range e.docs {
		d.Syntax.Close()
	}
	e.docs = nil
	e.activeTab = -1
	if e.indexer != nil {
		return e.indexer.Close()
	}
	return nil
}
