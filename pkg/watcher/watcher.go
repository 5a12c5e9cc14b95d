package watcher

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// FileWatcher calls OnChange, debounced, whenever the watched file is
// written, created or renamed into place.
type FileWatcher struct {
	path      string
	onChange  func()
	debouncer *Debouncer
	logger    *zap.Logger
	fsw       *fsnotify.Watcher
	done      chan struct{}
}

// NewFileWatcher prepares a watcher for path. Call Start to begin watching.
func NewFileWatcher(path string, onChange func(), debouncer *Debouncer, logger *zap.Logger) *FileWatcher {
	if debouncer == nil {
		debouncer = NewDebouncer(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileWatcher{
		path:      filepath.Clean(path),
		onChange:  onChange,
		debouncer: debouncer,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Start watches the file's directory, so editors that replace the file
// through a rename are still seen. It returns once the watch is
// established; events are handled until ctx is done or Close is called.
func (w *FileWatcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()
		return fmt.Errorf("watch %s: %w", w.path, err)
	}
	w.fsw = fsw

	go w.loop(ctx)
	return nil
}

func (w *FileWatcher) loop(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			w.debouncer.Cancel()
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				w.debouncer.Cancel()
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				w.logger.Debug("block map changed", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
				w.debouncer.Trigger(w.onChange)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", zap.Error(err))
		}
	}
}

// Close stops watching and waits for the event loop to exit.
func (w *FileWatcher) Close() error {
	if w.fsw == nil {
		return nil
	}
	err := w.fsw.Close()
	<-w.done
	return err
}
