package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"textcore/config"
	"textcore/editor"
	"textcore/logger"
)

type options struct {
	configPath string
	find       string
	symbol     string
	limit      int
	timeout    time.Duration
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := pflag.NewFlagSet("textcore", pflag.ContinueOnError)
	var opts options
	flags.StringVarP(&opts.configPath, "config", "c", config.ConfigPath(), "settings file")
	flags.StringVarP(&opts.find, "find", "f", "", "fuzzy search the indexed paths")
	flags.StringVarP(&opts.symbol, "symbol", "s", "", "look up a symbol")
	flags.IntVarP(&opts.limit, "limit", "n", 10, "maximum results to print")
	flags.DurationVar(&opts.timeout, "timeout", time.Minute, "give up indexing after this long")
	flags.Int("tab-size", 4, "default tab width")
	flags.String("theme", "monokai", "color scheme")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-file", "", "write logs to a file instead of stderr")
	flags.Bool("syntax-sync", false, "classify syntax on the calling goroutine")
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: textcore [options] [dir] [files...]\n\nOptions:\n")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	osFs := afero.NewOsFs()
	cfg, err := config.LoadFlags(osFs, opts.configPath, flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v, using defaults\n", err)
		cfg = config.Default()
	}

	log, err := logger.New(logger.Options{Level: cfg.LogLevel, Path: cfg.LogFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	defer log.Sync()

	files := flags.Args()
	if len(files) > 0 {
		if info, err := os.Stat(files[0]); err == nil && info.IsDir() {
			if err := os.Chdir(files[0]); err != nil {
				fmt.Fprintf(os.Stderr, "error: cannot change to directory %s: %v\n", files[0], err)
				return 1
			}
			files = files[1:]
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.NewContext(ctx, log)

	e := editor.New(editor.Services{Config: cfg, Fs: osFs, Log: log})
	defer e.Shutdown()

	for _, f := range files {
		if _, err := e.Open(f); err != nil {
			log.Error("open", zap.String("file", f), zap.Error(err))
		}
	}

	if err := report(ctx, e, opts); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func report(ctx context.Context, e *editor.Editor, opts options) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	indexed := e.StartIndexing(wd)

	waitCtx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()
	if err := e.Wait(waitCtx); err != nil {
		return fmt.Errorf("indexing: %w", err)
	}

	for _, d := range e.Documents() {
		fmt.Println(d.StatusLine())
	}
	if !indexed {
		logger.L(ctx).Debug("no repository to index", zap.String("dir", wd))
		return nil
	}

	ix := e.Indexer()
	res := ix.Result()
	if res == nil || res.Err != nil {
		return fmt.Errorf("indexing %s failed", ix.Root())
	}
	fmt.Printf("%s: %d files, %d symbols\n", ix.Root(), len(res.Paths), len(ix.Symbols()))
	for _, msg := range ix.SymbolErrors() {
		fmt.Fprintf(os.Stderr, "unreadable: %s\n", msg)
	}

	if opts.find != "" {
		for _, m := range res.Find(opts.find, opts.limit) {
			fmt.Printf("%6d  %s\n", m.Score, m.Path)
		}
	}
	if opts.symbol != "" {
		locs := ix.Lookup(opts.symbol)
		if len(locs) == 0 {
			fmt.Printf("%s: not found\n", opts.symbol)
			if s := ix.Suggest(opts.symbol, 3); len(s) > 0 {
				fmt.Printf("did you mean: %v\n", s)
			}
		}
		for i, l := range locs {
			if opts.limit > 0 && i == opts.limit {
				break
			}
			fmt.Printf("%s:%d:%d\n", l.Path, l.Line+1, l.Column+1)
		}
	}
	return nil
}
