package editor

import (
	"errors"
	"fmt"
	"path/filepath"

	"textcore/buffer"
	"textcore/highlight"
)

var ErrReadOnly = errors.New("buffer is read-only")

// Document is an open buffer with its undo history, syntax engine and
// caret.
type Document struct {
	Buffer   *buffer.Buffer
	History  *buffer.CommandStack
	Syntax   *highlight.Engine
	Language string

	cursor buffer.GlyphIterator
}

func (d *Document) Name() string {
	if d.Buffer.Path == "" {
		return "untitled"
	}
	return filepath.Base(d.Buffer.Path)
}

func (d *Document) Cursor() buffer.GlyphIterator { return d.cursor.Clamped() }

func (d *Document) SetCursor(offset int) {
	d.cursor = d.Buffer.Iterator(offset)
}

func (d *Document) submit(cmd *buffer.Command) error {
	if d.Buffer.ReadOnly {
		return ErrReadOnly
	}
	d.History.Submit(cmd)
	d.cursor = cmd.CursorAfter.Clamped()
	return nil
}

// Insert types text at the caret.
func (d *Document) Insert(text string) error {
	return d.submit(buffer.NewInsert(d.Buffer, d.Cursor().Index(), text))
}

func (d *Document) Delete(start, end int) error {
	return d.submit(buffer.NewDeleteRange(d.Buffer, start, end))
}

func (d *Document) Replace(start, end int, text string, mode buffer.ReplaceMode) error {
	return d.submit(buffer.NewReplaceRange(d.Buffer, start, end, text, mode))
}

// Group runs fn with every command it submits bracketed into one undo
// unit.
func (d *Document) Group(fn func() error) error {
	if d.Buffer.ReadOnly {
		return ErrReadOnly
	}
	d.History.Submit(buffer.GroupMarker())
	err := fn()
	d.History.Submit(buffer.EndGroup())
	return err
}

func (d *Document) Undo() bool {
	it, ok := d.History.Undo()
	if ok {
		d.cursor = it.Clamped()
	}
	return ok
}

func (d *Document) Redo() bool {
	it, ok := d.History.Redo()
	if ok {
		d.cursor = it.Clamped()
	}
	return ok
}

// StatusLine summarises the document the way a status bar would.
func (d *Document) StatusLine() string {
	b := d.Buffer
	off := d.Cursor().Index()
	pos := b.LineCol(off)
	col := b.DisplayColumn(off, b.TabSize)

	name := d.Name()
	if b.IsDirty() {
		name += " [+]"
	}
	if b.ReadOnly {
		name += " [RO]"
	}
	indent := fmt.Sprintf("Spaces: %d", b.TabSize)
	if b.UseTabs {
		indent = "Tabs"
	}
	lang := d.Language
	if lang == "" {
		lang = "plaintext"
	}
	return fmt.Sprintf("%s  Ln %d, Col %d  %s  %s  %s  %s",
		name, pos.Line+1, col+1, lang, b.Encoding, b.LineEnding, indent)
}
