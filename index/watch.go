package index

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"textcore/config"
)

const watchDebounce = 100 * time.Millisecond

// Watcher recursively watches a directory tree on the OS filesystem and
// calls onChange once per burst of create, remove or rename events.
type Watcher struct {
	w        *fsnotify.Watcher
	root     string
	onChange func()
	log      *zap.Logger
	done     chan struct{}
}

func NewWatcher(root string, onChange func(), log *zap.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	fw := &Watcher{
		w:        w,
		root:     root,
		onChange: onChange,
		log:      log,
		done:     make(chan struct{}),
	}
	fw.addRecursive(root)
	go fw.run()
	return fw, nil
}

func (fw *Watcher) run() {
	defer close(fw.done)

	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	pending := false

	for {
		select {
		case event, ok := <-fw.w.Events:
			if !ok {
				timer.Stop()
				return
			}
			if fw.ignored(event.Name) {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					fw.addRecursive(event.Name)
				}
			}
			if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 || fw.isProjectFile(event.Name) {
				pending = true
				timer.Reset(watchDebounce)
			}

		case <-timer.C:
			if pending {
				pending = false
				fw.onChange()
			}

		case err, ok := <-fw.w.Errors:
			if !ok {
				timer.Stop()
				return
			}
			fw.log.Warn("watch", zap.Error(err))
		}
	}
}

// Close stops watching and waits for the event loop to exit.
func (fw *Watcher) Close() error {
	err := fw.w.Close()
	<-fw.done
	return err
}

func (fw *Watcher) addRecursive(root string) {
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			fw.log.Debug("watch walk", zap.String("path", path), zap.Error(err))
			return nil
		}
		if info.IsDir() {
			if path != fw.root && fw.ignored(path) {
				return filepath.SkipDir
			}
			if err := fw.w.Add(path); err != nil {
				fw.log.Debug("watch add", zap.String("path", path), zap.Error(err))
			}
		}
		return nil
	})
	if err != nil {
		fw.log.Debug("watch walk", zap.String("root", root), zap.Error(err))
	}
}

// ignored reports whether path lies in a VCS directory.
func (fw *Watcher) ignored(path string) bool {
	rel, err := filepath.Rel(fw.root, path)
	if err != nil {
		return true
	}
	for dir := rel; dir != "." && dir != string(filepath.Separator); dir = filepath.Dir(dir) {
		if base := filepath.Base(dir); base != config.ProjectDir && skipDirs[base] {
			return true
		}
	}
	return false
}

func (fw *Watcher) isProjectFile(path string) bool {
	return path == config.ProjectPath(fw.root)
}
