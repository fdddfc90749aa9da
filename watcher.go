package main

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// NodeFileWatcher calls onChange after the node file has been written and
// then left alone for the debounce period
type NodeFileWatcher struct {
	path     string
	onChange func()
	debounce time.Duration
}

// NewNodeFileWatcher creates a watcher for path
func NewNodeFileWatcher(path string, onChange func()) *NodeFileWatcher {
	return &NodeFileWatcher{
		path:     path,
		onChange: onChange,
		debounce: 500 * time.Millisecond,
	}
}

// WithDebounce sets the debounce duration
func (w *NodeFileWatcher) WithDebounce(d time.Duration) *NodeFileWatcher {
	w.debounce = d
	return w
}

// Watch blocks until ctx is cancelled or the underlying watcher fails
func (w *NodeFileWatcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory so editors that replace the file are still seen
	dir := filepath.Dir(w.path)
	filename := filepath.Base(w.path)

	if err := watcher.Add(dir); err != nil {
		return err
	}

	log.Printf("👀 Watching %s for changes\n", w.path)

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if filepath.Base(event.Name) != filename {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			if debounceTimer == nil {
				debounceTimer = time.AfterFunc(w.debounce, func() {
					log.Printf("File changed: %s\n", w.path)
					w.onChange()
				})
			} else {
				debounceTimer.Reset(w.debounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("Watcher error: %v\n", err)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
