package highlight

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"textcore/buffer"
	"textcore/future"
)

type Options struct {
	// Sync runs every pass inline on the editing goroutine.
	Sync bool
	Log  *zap.Logger
}

// Engine keeps one Data per buffer byte up to date. Passes run on a worker
// goroutine over a snapshot of the text and are merged back by Poll on the
// editing goroutine. All methods must be called from that goroutine.
type Engine struct {
	buf     *buffer.Buffer
	grammar Grammar
	log     *zap.Logger
	inline  bool

	syntax    []Data
	processed int // bytes before this offset are known good
	target    int // earliest offset invalidated since the last full pass
	pending   bool

	pass        *pass
	wg          sync.WaitGroup
	unsubscribe func()
}

type pass struct {
	gen      uint64
	start    int
	stop     atomic.Bool
	progress atomic.Int64
	result   *future.Future[passResult]
}

type passResult struct {
	gen      uint64
	start    int
	data     []Data
	complete bool
}

func NewEngine(buf *buffer.Buffer, grammar Grammar, opts Options) *Engine {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		buf:     buf,
		grammar: grammar,
		log:     log.With(zap.String("grammar", grammar.Name())),
		inline:  opts.Sync,
		syntax:  make([]Data, buf.Size()),
		pending: true,
	}
	e.unsubscribe = buf.Subscribe(e.onChange)
	return e
}

func (e *Engine) Grammar() Grammar { return e.grammar }

// SetGrammar swaps the grammar and reclassifies from the top.
func (e *Engine) SetGrammar(g Grammar) {
	e.Stop()
	e.pass = nil
	e.grammar = g
	e.log = e.log.With(zap.String("grammar", g.Name()))
	e.processed, e.target, e.pending = 0, 0, true
	e.UpdateSyntax()
}

// UpdateSyntax interrupts any running pass and starts a new one from the
// earliest stale offset.
func (e *Engine) UpdateSyntax() {
	e.Stop()
	if e.pass != nil && e.pass.result.Ready() {
		e.Poll()
	}

	text := e.buf.Text()
	from := min(e.target, e.processed)
	if !e.pending {
		from = e.processed
	}
	from = max(0, min(e.grammar.Resume(text, from), len(text)))

	p := &pass{gen: e.buf.Generation(), start: from}
	p.progress.Store(int64(from))
	e.pass = p

	if e.inline {
		p.result = future.Ready(run(e.grammar, text, p))
		e.Poll()
		return
	}

	grammar := e.grammar
	e.wg.Add(1)
	p.result = future.Go(func() passResult {
		defer e.wg.Done()
		return run(grammar, text, p)
	})
}

// run classifies text from p.start to the end, plus the sentinel byte.
func run(g Grammar, text []byte, p *pass) passResult {
	out := make([]Data, 0, len(text)+1-p.start)
	tok := g.Tokenizer(text, p.start)
	for pos := p.start; pos < len(text); {
		if p.stop.Load() {
			return passResult{gen: p.gen, start: p.start, data: out}
		}
		p.progress.Store(int64(pos))
		end, d := tok.Next(pos)
		end = max(pos+1, min(end, len(text)))
		for ; pos < end; pos++ {
			out = append(out, d)
		}
	}
	out = append(out, fg(Normal))
	p.progress.Store(int64(len(text)))
	return passResult{gen: p.gen, start: p.start, data: out, complete: true}
}

// Poll merges a finished pass. It never blocks and reports whether new
// classifications were merged.
func (e *Engine) Poll() bool {
	if e.pass == nil {
		return false
	}
	res, ok := e.pass.result.Get()
	if !ok {
		return false
	}
	e.pass = nil
	return e.merge(res)
}

func (e *Engine) merge(res passResult) bool {
	if res.gen != e.buf.Generation() {
		e.log.Debug("discarding stale syntax pass",
			zap.Uint64("pass", res.gen), zap.Uint64("buffer", e.buf.Generation()))
		return false
	}
	end := min(res.start+len(res.data), len(e.syntax))
	copy(e.syntax[res.start:end], res.data)
	if res.complete {
		e.processed = e.buf.Size() - 1
		e.target = 0
		e.pending = false
		return true
	}
	e.processed = max(e.processed, end)
	// Everything before end is current, so the next pass resumes there.
	e.target = max(e.target, e.processed)
	return len(res.data) > 0
}

// Stop asks the running pass to finish early. It does not wait.
func (e *Engine) Stop() {
	if e.pass != nil {
		e.pass.stop.Store(true)
	}
}

// Wait blocks until the running pass ends, then merges it.
func (e *Engine) Wait(ctx context.Context) error {
	if e.pass == nil {
		return nil
	}
	if _, err := e.pass.result.Wait(ctx); err != nil {
		return err
	}
	e.Poll()
	return nil
}

// Busy reports whether a pass is in flight.
func (e *Engine) Busy() bool {
	return e.pass != nil && !e.pass.result.Ready()
}

// Progress is the offset the running pass has reached, or ProcessedChar
// when idle.
func (e *Engine) Progress() int {
	if e.pass == nil {
		return e.processed
	}
	return int(e.pass.progress.Load())
}

func (e *Engine) ProcessedChar() int { return e.processed }
func (e *Engine) TargetChar() int    { return e.target }

// GetSyntaxAt returns the classification of the byte under it. Offsets past
// ProcessedChar may be stale.
func (e *Engine) GetSyntaxAt(it buffer.GlyphIterator) Data {
	i := it.Index()
	if i < 0 || i >= len(e.syntax) {
		return Data{}
	}
	return e.syntax[i]
}

// Syntax returns a copy of the per-byte classifications.
func (e *Engine) Syntax() []Data {
	return slices.Clone(e.syntax)
}

func (e *Engine) onChange(c buffer.Change) {
	e.Stop()
	e.pass = nil

	switch c.Kind {
	case buffer.TextAdded:
		e.syntax = slices.Insert(e.syntax, c.Start, make([]Data, c.End-c.Start)...)
	case buffer.TextDeleted:
		e.syntax = slices.Delete(e.syntax, c.Start, c.End)
	case buffer.TextReset:
		e.syntax = make([]Data, e.buf.Size())
	}

	if e.pending {
		e.target = min(e.target, c.Start)
	} else {
		e.target = c.Start
	}
	e.pending = true
	e.processed = min(e.processed, c.Start)
	e.UpdateSyntax()
}

// Close stops the engine, detaches it from the buffer and waits for the
// worker goroutines to exit.
func (e *Engine) Close() {
	e.unsubscribe()
	e.Stop()
	e.wg.Wait()
	e.pass = nil
}
