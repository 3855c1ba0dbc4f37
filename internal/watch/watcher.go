// Package watch monitors a collections directory and triggers a reload
// callback when documents change on disk, so a running server picks up edits
// without a restart.
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// debounceWindow batches rapid successive events (editors often write a file
// several times per save) into one reload.
const debounceWindow = 250 * time.Millisecond

// Watcher watches one directory tree for collection file changes.
type Watcher struct {
	fs       *fsnotify.Watcher
	dir      string
	logger   *zap.Logger
	onChange func() error

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// New creates a watcher over dir. onChange runs after each debounced batch of
// changes; its error is logged, not fatal, so a half-saved document does not
// kill the watch loop.
func New(dir string, logger *zap.Logger, onChange func() error) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		fs:       fs,
		dir:      dir,
		logger:   logger,
		onChange: onChange,
		stopChan: make(chan struct{}),
	}, nil
}

// Start registers the directory tree and begins watching in the background.
func (w *Watcher) Start() error {
	err := filepath.Walk(w.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	w.logger.Info("watching collections", zap.String("dir", w.dir))

	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop shuts the watcher down and waits for the loop to exit.
func (w *Watcher) Stop() error {
	select {
	case <-w.stopChan:
		return nil
	default:
		close(w.stopChan)
	}
	w.wg.Wait()
	return w.fs.Close()
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !isCollectionFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debug("collection file changed", zap.String("file", event.Name))
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
				fire = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounceWindow)
			}

		case <-fire:
			timer = nil
			fire = nil
			if err := w.onChange(); err != nil {
				w.logger.Warn("collection reload failed", zap.Error(err))
			} else {
				w.logger.Info("collections reloaded")
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.Error(err))

		case <-w.stopChan:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

func isCollectionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}
