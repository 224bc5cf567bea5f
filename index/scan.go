package index

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"textcore/config"
)

// skipDirs are never indexed or watched.
var skipDirs = map[string]bool{
	".git":            true,
	".hg":             true,
	".svn":            true,
	config.ProjectDir: true,
}

// ErrNotDirectory is wrapped into FileIndexResult.Err when the root is a file.
var ErrNotDirectory = errors.New("not a directory")

// scan walks root and collects every file that no ignore pattern matches
// and, when include is non-empty, some include pattern matches. Ignored
// directories are not descended. Cancelling ctx stops the walk between
// entries.
func scan(ctx context.Context, fs afero.Fs, root string, ignore, include *config.Matcher) *FileIndexResult {
	res := &FileIndexResult{Root: root}

	info, err := fs.Stat(root)
	if err == nil && !info.IsDir() {
		err = ErrNotDirectory
	}
	if err != nil {
		res.Err = fmt.Errorf("open root %s: %w", root, err)
		return res
	}

	walkErr := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			if path == root {
				return err
			}
			res.addError("%s : %v", path, err)
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			res.addError("%s : %v", path, err)
			return nil
		}
		rel = filepath.ToSlash(rel)

		if info.IsDir() {
			if skipDirs[info.Name()] || ignore.Match(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if ignore.Match(rel) {
			return nil
		}
		if !include.Empty() && !include.Match(rel) {
			return nil
		}
		res.add(rel)
		return nil
	})
	if walkErr != nil {
		res.Err = fmt.Errorf("scan %s: %w", root, walkErr)
	}
	return res
}
