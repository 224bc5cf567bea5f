package buffer

import (
	"strings"
	"unicode/utf8"
)

type CommandKind int

const (
	CmdInsert CommandKind = iota
	CmdDeleteRange
	CmdReplaceRange
	CmdGroupMarker
	CmdEndGroup
)

func (k CommandKind) String() string {
	switch k {
	case CmdInsert:
		return "insert"
	case CmdDeleteRange:
		return "delete"
	case CmdReplaceRange:
		return "replace"
	case CmdGroupMarker:
		return "group"
	case CmdEndGroup:
		return "endgroup"
	}
	return "unknown"
}

type ReplaceMode int

const (
	// ReplaceText deletes the range and inserts the new text.
	ReplaceText ReplaceMode = iota
	// ReplaceFill overwrites every glyph in the range with the first glyph
	// of the command text. Newlines are kept.
	ReplaceFill
)

// NoOffset marks an insert that put nothing into the buffer.
const NoOffset = -1

// ChangeRecord is what a command did the last time it was applied.
type ChangeRecord struct {
	Start       int
	Deleted     string
	InsertedEnd int
}

// Command is one reversible edit. Kind selects which fields apply.
type Command struct {
	Kind         CommandKind
	Start, End   int
	Text         string
	Mode         ReplaceMode
	CursorBefore GlyphIterator
	CursorAfter  GlyphIterator

	buf    *Buffer
	record ChangeRecord
}

// cursorAt builds an iterator without clamping; the offset is clamped
// when read, after the command has run.
func cursorAt(b *Buffer, offset int) GlyphIterator {
	return GlyphIterator{buf: b, index: offset}
}

// NewInsert records an insertion of text at at. Invalid UTF-8 is replaced
// up front so CursorAfter lands past what the buffer will actually hold.
func NewInsert(b *Buffer, at int, text string) *Command {
	at = b.LocationFromOffset(at)
	text = strings.ToValidUTF8(text, "\uFFFD")
	return &Command{
		Kind:         CmdInsert,
		Start:        at,
		Text:         text,
		CursorBefore: cursorAt(b, at),
		CursorAfter:  cursorAt(b, at+len(text)),
		buf:          b,
	}
}

func NewDeleteRange(b *Buffer, start, end int) *Command {
	start, end = b.ClampRange(start, end)
	return &Command{
		Kind:         CmdDeleteRange,
		Start:        start,
		End:          end,
		CursorBefore: cursorAt(b, start),
		CursorAfter:  cursorAt(b, start),
		buf:          b,
	}
}

func NewReplaceRange(b *Buffer, start, end int, text string, mode ReplaceMode) *Command {
	start, end = b.ClampRange(start, end)
	return &Command{
		Kind:         CmdReplaceRange,
		Start:        start,
		End:          end,
		Text:         text,
		Mode:         mode,
		CursorBefore: cursorAt(b, end),
		CursorAfter:  cursorAt(b, start),
		buf:          b,
	}
}

func GroupMarker() *Command { return &Command{Kind: CmdGroupMarker} }
func EndGroup() *Command    { return &Command{Kind: CmdEndGroup} }

// WithCursors overrides the default caret positions.
func (c *Command) WithCursors(before, after GlyphIterator) *Command {
	c.CursorBefore = before
	c.CursorAfter = after
	return c
}

// Record returns the change captured by the last Redo.
func (c *Command) Record() ChangeRecord { return c.record }

func (c *Command) isMarker() bool {
	return c.Kind == CmdGroupMarker || c.Kind == CmdEndGroup
}

// Redo applies the command and captures what Undo needs.
func (c *Command) Redo() {
	switch c.Kind {
	case CmdInsert:
		c.record = ChangeRecord{Start: c.buf.LocationFromOffset(c.Start), InsertedEnd: NoOffset}
		if end := c.buf.Insert(c.record.Start, c.Text); end > c.record.Start {
			c.record.InsertedEnd = end
		}
	case CmdDeleteRange:
		start, end := c.buf.ClampRange(c.Start, c.End)
		c.record = ChangeRecord{Start: start, Deleted: c.buf.Slice(start, end), InsertedEnd: NoOffset}
		c.buf.Delete(start, end)
	case CmdReplaceRange:
		start, end := c.buf.ClampRange(c.Start, c.End)
		deleted := c.buf.Slice(start, end)
		text := c.Text
		if c.Mode == ReplaceFill {
			text = fill(deleted, c.Text)
		}
		c.record = ChangeRecord{Start: start, Deleted: deleted, InsertedEnd: NoOffset}
		c.buf.Delete(start, end)
		if ins := c.buf.Insert(start, text); ins > start {
			c.record.InsertedEnd = ins
		}
	}
}

// Undo reverses the last Redo. Commands that changed nothing undo nothing.
func (c *Command) Undo() {
	switch c.Kind {
	case CmdInsert:
		if c.record.InsertedEnd == NoOffset {
			return
		}
		c.buf.Delete(c.record.Start, c.record.InsertedEnd)
	case CmdDeleteRange:
		if c.record.Deleted == "" {
			return
		}
		c.buf.Insert(c.record.Start, c.record.Deleted)
	case CmdReplaceRange:
		if c.record.InsertedEnd != NoOffset {
			c.buf.Delete(c.record.Start, c.record.InsertedEnd)
		}
		if c.record.Deleted != "" {
			c.buf.Insert(c.record.Start, c.record.Deleted)
		}
	}
}

func fill(deleted, with string) string {
	r, _ := utf8.DecodeRuneInString(with)
	if with == "" {
		return ""
	}
	var sb strings.Builder
	for _, d := range deleted {
		if d == '\n' {
			sb.WriteByte('\n')
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

const DefaultMaxEntries = 1000

// CommandStack is the undo history of one buffer. commands[:pos] are
// applied, the rest form the redo tail. It is used from the editing
// goroutine only.
type CommandStack struct {
	MaxEntries int

	commands []*Command
	pos      int
}

func NewCommandStack(maxEntries int) *CommandStack {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &CommandStack{MaxEntries: maxEntries}
}

// Submit applies cmd, drops the redo tail and records cmd. An EndGroup
// that closes a group with nothing in it removes the group instead, so
// Undo never sees an empty unit.
func (s *CommandStack) Submit(cmd *Command) {
	if cmd.Kind == CmdEndGroup && s.pos > 0 && s.commands[s.pos-1].Kind == CmdGroupMarker {
		s.pos--
		for i := s.pos; i < len(s.commands); i++ {
			s.commands[i] = nil
		}
		s.commands = s.commands[:s.pos]
		return
	}
	cmd.Redo()
	for i := s.pos; i < len(s.commands); i++ {
		s.commands[i] = nil
	}
	s.commands = append(s.commands[:s.pos], cmd)
	s.pos = len(s.commands)
	s.evict()
}

// Undo reverts one command, or one whole bracketed group, and returns the
// caret position from before it.
func (s *CommandStack) Undo() (GlyphIterator, bool) {
	var cursor GlyphIterator
	depth, undone := 0, false
	for s.pos > 0 {
		s.pos--
		c := s.commands[s.pos]
		switch c.Kind {
		case CmdEndGroup:
			depth++
		case CmdGroupMarker:
			depth = max(depth-1, 0)
		default:
			c.Undo()
			cursor = c.CursorBefore
			undone = true
		}
		if depth == 0 && undone {
			break
		}
	}
	return cursor.Clamped(), undone
}

// Redo replays one command or group and returns the caret position after it.
func (s *CommandStack) Redo() (GlyphIterator, bool) {
	var cursor GlyphIterator
	depth, redone := 0, false
	for s.pos < len(s.commands) {
		c := s.commands[s.pos]
		s.pos++
		switch c.Kind {
		case CmdGroupMarker:
			depth++
		case CmdEndGroup:
			depth = max(depth-1, 0)
		default:
			c.Redo()
			cursor = c.CursorAfter
			redone = true
		}
		if depth == 0 && redone {
			break
		}
	}
	return cursor.Clamped(), redone
}

func (s *CommandStack) CanUndo() bool {
	for i := s.pos - 1; i >= 0; i-- {
		if !s.commands[i].isMarker() {
			return true
		}
	}
	return false
}

func (s *CommandStack) CanRedo() bool {
	for i := s.pos; i < len(s.commands); i++ {
		if !s.commands[i].isMarker() {
			return true
		}
	}
	return false
}

func (s *CommandStack) Len() int { return len(s.commands) }

func (s *CommandStack) Clear() {
	s.commands = nil
	s.pos = 0
}

// evict drops the oldest entries past MaxEntries, cutting only between
// complete groups.
func (s *CommandStack) evict() {
	excess := len(s.commands) - s.MaxEntries
	if excess <= 0 {
		return
	}
	depth, cut := 0, -1
	for i, c := range s.commands {
		switch c.Kind {
		case CmdGroupMarker:
			depth++
		case CmdEndGroup:
			depth = max(depth-1, 0)
		}
		if depth == 0 && i+1 >= excess {
			cut = i + 1
			break
		}
	}
	if cut <= 0 || cut > s.pos {
		return
	}
	clear(s.commands[:cut])
	s.commands = s.commands[cut:]
	s.pos -= cut
}
