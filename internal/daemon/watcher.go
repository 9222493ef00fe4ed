package daemon

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/xamyl/wikii/internal/logfields"
)

// SourceWatcher watches the source tree and calls onChange once per burst of
// filesystem events, after the tree has been quiet for the debounce window.
type SourceWatcher struct {
	root     string
	debounce time.Duration
	onChange func()

	watcher *fsnotify.Watcher
	mu      sync.Mutex
	timer   *time.Timer
	started bool
	done    chan struct{}
}

// NewSourceWatcher creates a watcher for every directory under root.
func NewSourceWatcher(root string, debounce time.Duration, onChange func()) (*SourceWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to resolve source path: %w", err)
	}
	return &SourceWatcher{
		root:     absRoot,
		debounce: debounce,
		onChange: onChange,
		watcher:  w,
		done:     make(chan struct{}),
	}, nil
}

// Start registers the directories and begins processing events.
func (sw *SourceWatcher) Start(ctx context.Context) error {
	err := filepath.WalkDir(sw.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return sw.watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to watch source directory %s: %w", sw.root, err)
	}

	slog.Info("Watching source directory", logfields.Path(sw.root), slog.Duration("debounce", sw.debounce))
	sw.mu.Lock()
	sw.started = true
	sw.mu.Unlock()
	go sw.watchLoop(ctx)
	return nil
}

// Stop closes the underlying watcher and cancels a pending callback.
func (sw *SourceWatcher) Stop() error {
	sw.mu.Lock()
	if sw.timer != nil {
		sw.timer.Stop()
	}
	started := sw.started
	sw.mu.Unlock()

	err := sw.watcher.Close()
	if started {
		<-sw.done
	}
	return err
}

func (sw *SourceWatcher) watchLoop(ctx context.Context) {
	defer close(sw.done)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if event.Op == fsnotify.Chmod {
				continue
			}
			if event.Has(fsnotify.Create) {
				sw.watchIfDir(event.Name)
			}
			slog.Debug("Source change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))
			sw.schedule()

		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Source watcher error", logfields.Error(err))
		}
	}
}

// watchIfDir adds newly created directories so nested documents are seen.
func (sw *SourceWatcher) watchIfDir(path string) {
	_ = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if addErr := sw.watcher.Add(p); addErr != nil {
				slog.Warn("Failed to watch new directory", logfields.Path(p), logfields.Error(addErr))
			}
		}
		return nil
	})
}

func (sw *SourceWatcher) schedule() {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if sw.timer != nil {
		sw.timer.Stop()
	}
	sw.timer = time.AfterFunc(sw.debounce, sw.onChange)
}
