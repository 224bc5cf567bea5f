package index

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"textcore/buffer"
	"textcore/future"
)

// Location is a zero-based line and byte column within an indexed file.
type Location struct {
	Path   string
	Line   int
	Column int
}

// SymbolContainer maps an identifier to the first place it appears in
// each file.
type SymbolContainer map[string][]Location

func (c SymbolContainer) clone() SymbolContainer {
	out := make(SymbolContainer, len(c))
	for k, v := range c {
		out[k] = slices.Clone(v)
	}
	return out
}

// symbolSearch is one run over a queue of paths. Workers pop from the
// queue under queueMu and record into symbols under symbolMu; no worker
// holds both.
type symbolSearch struct {
	fs     afero.Fs
	root   string
	log    *zap.Logger
	cancel context.CancelFunc
	done   *future.Future[error]

	queueMu sync.Mutex
	queue   []string

	symbolMu sync.Mutex
	symbols  SymbolContainer
	errors   []string
}

func (s *symbolSearch) pop() (string, bool) {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()
	if len(s.queue) == 0 {
		return "", false
	}
	p := s.queue[0]
	s.queue = s.queue[1:]
	return p, true
}

// run drains the queue with n workers.
func (s *symbolSearch) run(ctx context.Context, n int) error {
	g, ctx := errgroup.WithContext(ctx)
	for range max(n, 1) {
		g.Go(func() error {
			for {
				if err := ctx.Err(); err != nil {
					return err
				}
				rel, ok := s.pop()
				if !ok {
					return nil
				}
				if err := s.scanFile(rel); err != nil {
					s.log.Debug("symbol scan", zap.String("path", rel), zap.Error(err))
					s.symbolMu.Lock()
					s.errors = append(s.errors, fmt.Sprintf("%s : %v", rel, err))
					s.symbolMu.Unlock()
				}
			}
		})
	}
	return g.Wait()
}

func (s *symbolSearch) scanFile(rel string) error {
	full := filepath.Join(s.root, filepath.FromSlash(rel))
	info, err := s.fs.Stat(full)
	if err != nil {
		return err
	}
	if info.Size() > buffer.MaxFileSize {
		return nil
	}
	data, err := afero.ReadFile(s.fs, full)
	if err != nil {
		return err
	}
	if buffer.IsBinary(data) {
		return nil
	}

	found := extractSymbols(data)
	if len(found) == 0 {
		return nil
	}

	s.symbolMu.Lock()
	defer s.symbolMu.Unlock()
	for name, loc := range found {
		loc.Path = rel
		s.symbols[name] = append(s.symbols[name], loc)
	}
	return nil
}

// extractSymbols returns the first location of every identifier-like token:
// a letter or underscore followed by letters, digits or underscores.
func extractSymbols(data []byte) map[string]Location {
	found := make(map[string]Location)
	line, lineStart := 0, 0
	for i := 0; i < len(data); {
		c := data[i]
		switch {
		case c == '\n':
			line++
			i++
			lineStart = i
		case isIdentStart(c):
			start := i
			for i < len(data) && isIdentByte(data[i]) {
				i++
			}
			name := string(data[start:i])
			if _, ok := found[name]; !ok {
				found[name] = Location{Line: line, Column: start - lineStart}
			}
		case isIdentByte(c):
			// Digits glued to a number.
			for i < len(data) && isIdentByte(data[i]) {
				i++
			}
		default:
			i++
		}
	}
	return found
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentByte(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func sortLocations(locs []Location) {
	slices.SortFunc(locs, func(a, b Location) int {
		if c := strings.Compare(a.Path, b.Path); c != 0 {
			return c
		}
		if a.Line != b.Line {
			return a.Line - b.Line
		}
		return a.Column - b.Column
	})
}

// suggest ranks candidates whose edit distance from name is under 40% of
// the longer length. Case is ignored when measuring.
func suggest(name string, candidates []string, limit int) []string {
	type scored struct {
		name string
		dist int
	}
	upper := strings.ToUpper(name)
	var hits []scored
	for _, c := range candidates {
		if c == name {
			continue
		}
		d := levenshtein.ComputeDistance(upper, strings.ToUpper(c))
		if float64(d)/float64(max(len(name), len(c))) < 0.4 {
			hits = append(hits, scored{c, d})
		}
	}
	slices.SortFunc(hits, func(a, b scored) int {
		if a.dist != b.dist {
			return a.dist - b.dist
		}
		return strings.Compare(a.name, b.name)
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.name
	}
	return out
}
