package index

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"textcore/config"
	"textcore/future"
)

type Options struct {
	Fs afero.Fs
	// WorkDir is where the upward search for the repository root starts.
	WorkDir string
	// Workers bounds the symbol scan goroutines.
	Workers int
	Log     *zap.Logger
}

// Indexer scans the enclosing repository in the background. Its methods
// belong to the editing goroutine; results arrive through Tick.
type Indexer struct {
	fs      afero.Fs
	workDir string
	workers int
	log     *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	root       string
	scan       *future.Future[*FileIndexResult]
	cancelScan context.CancelFunc
	result     *FileIndexResult
	search     *symbolSearch

	watcher *Watcher
	stale   atomic.Bool
}

func New(opts Options) *Indexer {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Indexer{
		fs:      opts.Fs,
		workDir: opts.WorkDir,
		workers: max(opts.Workers, 1),
		log:     opts.Log,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Root is the repository root found by the last StartIndexing.
func (ix *Indexer) Root() string { return ix.root }

// StartIndexing finds the repository root above the working directory and
// starts a scan of it, superseding any scan in flight. It returns false when
// there is no repository to index.
func (ix *Indexer) StartIndexing() bool {
	root, ok := config.FindProjectRoot(ix.fs, ix.workDir)
	if !ok {
		ix.log.Info("not a git project", zap.String("dir", ix.workDir))
		return false
	}
	if err := ix.fs.MkdirAll(filepath.Join(root, config.ProjectDir), 0755); err != nil {
		ix.log.Error("create index folder", zap.String("root", root), zap.Error(err))
		return false
	}
	ix.root = root
	ix.scan = ix.indexPaths(root)
	return true
}

func (ix *Indexer) indexPaths(root string) *future.Future[*FileIndexResult] {
	if ix.cancelScan != nil {
		ix.cancelScan()
		ix.cancelScan = nil
	}

	proj, err := config.LoadProject(ix.fs, root)
	if err != nil {
		return future.Ready(&FileIndexResult{Root: root, Errors: fmt.Sprintf("%s : failed to parse. %v\n", config.ProjectFile, err)})
	}
	if len(proj.Undecoded) > 0 {
		ix.log.Warn("unknown project settings", zap.Strings("keys", proj.Undecoded))
	}
	ignore, err := config.NewMatcher(proj.Search.Ignore)
	if err != nil {
		return future.Ready(&FileIndexResult{Root: root, Errors: fmt.Sprintf("%s : ignore %v\n", config.ProjectFile, err)})
	}
	include, err := config.NewMatcher(proj.Search.Include)
	if err != nil {
		return future.Ready(&FileIndexResult{Root: root, Errors: fmt.Sprintf("%s : include %v\n", config.ProjectFile, err)})
	}

	ctx, cancel := context.WithCancel(ix.ctx)
	ix.cancelScan = cancel
	fs := ix.fs
	log := ix.log.With(zap.String("root", root))
	ix.wg.Add(1)
	return future.Go(func() *FileIndexResult {
		defer ix.wg.Done()
		res := scan(ctx, fs, root, ignore, include)
		log.Debug("scan finished", zap.Int("files", len(res.Paths)), zap.Error(res.Err))
		return res
	})
}

// Tick polls the background work without blocking. A finished scan becomes
// the current result and starts a symbol search; a change seen by the
// watcher starts a re-scan. It reports whether a new result arrived.
func (ix *Indexer) Tick() bool {
	if ix.root != "" && ix.stale.Swap(false) {
		ix.log.Debug("project tree changed, rescanning", zap.String("root", ix.root))
		ix.scan = ix.indexPaths(ix.root)
	}
	if ix.scan == nil {
		return false
	}
	res, ok := ix.scan.Get()
	if !ok {
		return false
	}
	ix.scan = nil
	ix.result = res

	switch {
	case res.Err != nil:
		ix.log.Error("index", zap.Error(res.Err))
		return true
	case res.Errors != "":
		ix.log.Warn("index", zap.String("errors", strings.TrimSpace(res.Errors)))
	}
	ix.StartSymbolSearch()
	return true
}

// StartSymbolSearch scans every indexed file for identifiers, replacing the
// symbol table. A search already running is cancelled.
func (ix *Indexer) StartSymbolSearch() {
	if ix.search != nil {
		ix.search.cancel()
	}
	if ix.result == nil {
		return
	}

	ctx, cancel := context.WithCancel(ix.ctx)
	s := &symbolSearch{
		fs:      ix.fs,
		root:    ix.result.Root,
		log:     ix.log,
		cancel:  cancel,
		queue:   append([]string(nil), ix.result.Paths...),
		symbols: make(SymbolContainer),
	}
	ix.search = s

	workers := ix.workers
	ix.wg.Add(1)
	s.done = future.Go(func() error {
		defer ix.wg.Done()
		err := s.run(ctx, workers)
		s.symbolMu.Lock()
		for _, locs := range s.symbols {
			sortLocations(locs)
		}
		s.symbolMu.Unlock()
		return err
	})
}

func (ix *Indexer) IsIndexingComplete() bool {
	return ix.scan == nil && ix.result != nil
}

func (ix *Indexer) IsSymbolSearchComplete() bool {
	return ix.search == nil || ix.search.done.Ready()
}

// Result is the latest completed scan, or nil.
func (ix *Indexer) Result() *FileIndexResult { return ix.result }

func (ix *Indexer) Paths() []string {
	if ix.result == nil {
		return nil
	}
	return append([]string(nil), ix.result.Paths...)
}

// Symbols returns a copy of the symbol table as it stands. It may be
// partial while a search is running.
func (ix *Indexer) Symbols() SymbolContainer {
	if ix.search == nil {
		return SymbolContainer{}
	}
	ix.search.symbolMu.Lock()
	defer ix.search.symbolMu.Unlock()
	return ix.search.symbols.clone()
}

func (ix *Indexer) Lookup(name string) []Location {
	if ix.search == nil {
		return nil
	}
	ix.search.symbolMu.Lock()
	locs := append([]Location(nil), ix.search.symbols[name]...)
	ix.search.symbolMu.Unlock()
	sortLocations(locs)
	return locs
}

// Suggest returns up to limit symbol names close to name by edit
// distance, nearest first. Exact matches are left out.
func (ix *Indexer) Suggest(name string, limit int) []string {
	if ix.search == nil || name == "" {
		return nil
	}
	ix.search.symbolMu.Lock()
	names := make([]string, 0, len(ix.search.symbols))
	for n := range ix.search.symbols {
		names = append(names, n)
	}
	ix.search.symbolMu.Unlock()
	return suggest(name, names, limit)
}

// SymbolErrors lists files the last symbol search could not read.
func (ix *Indexer) SymbolErrors() []string {
	if ix.search == nil {
		return nil
	}
	ix.search.symbolMu.Lock()
	defer ix.search.symbolMu.Unlock()
	return append([]string(nil), ix.search.errors...)
}

// Wait blocks until the scan and symbol search in flight finish, ticking
// as results arrive.
func (ix *Indexer) Wait(ctx context.Context) error {
	for {
		if ix.scan != nil {
			if _, err := ix.scan.Wait(ctx); err != nil {
				return err
			}
			ix.Tick()
			continue
		}
		if ix.search != nil {
			if _, err := ix.search.done.Wait(ctx); err != nil {
				return err
			}
		}
		return nil
	}
}

// Watch re-scans the root whenever files are created, removed or renamed
// beneath it. It needs an OS-backed filesystem.
func (ix *Indexer) Watch() error {
	if ix.root == "" {
		return fmt.Errorf("watch: no project root")
	}
	if ix.watcher != nil {
		return nil
	}
	w, err := NewWatcher(ix.root, func() { ix.stale.Store(true) }, ix.log)
	if err != nil {
		return fmt.Errorf("watch %s: %w", ix.root, err)
	}
	ix.watcher = w
	return nil
}

// Close cancels all background work and waits for it to exit.
func (ix *Indexer) Close() error {
	ix.cancel()
	var err error
	if ix.watcher != nil {
		err = ix.watcher.Close()
		ix.watcher = nil
	}
	ix.wg.Wait()
	return err
}
