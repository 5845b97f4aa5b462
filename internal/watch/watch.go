// Package watch reloads the served search index when the documentation build
// rewrites it on disk.
package watch

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when a non-positive debounce is given
const DefaultDebounce = 250 * time.Millisecond

// ReloadFunc is called once per burst of changes to the watched file
type ReloadFunc func() error

// Watcher watches a single artifact file
type Watcher struct {
	path     string
	debounce time.Duration
	reload   ReloadFunc
	watcher  *fsnotify.Watcher
}

// New creates a watcher for path. The parent directory is watched rather than
// the file, since generators replace the artifact by renaming a temp file over it.
func New(path string, debounce time.Duration, reload ReloadFunc) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	return &Watcher{
		path:     abs,
		debounce: debounce,
		reload:   reload,
		watcher:  fw,
	}, nil
}

// Path returns the absolute path of the watched file
func (w *Watcher) Path() string {
	return w.path
}

// Run dispatches events until ctx is cancelled, then closes the watcher.
// Reload failures are logged; the caller keeps serving its previous table.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	log.Printf("✓ Watching %s for changes", w.path)

	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if w.relevant(event) {
				// Restart the quiet period on every change in a burst
				fire = time.After(w.debounce)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("Warning: File watcher error: %v", err)

		case <-fire:
			fire = nil
			w.fire()
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

func (w *Watcher) fire() {
	log.Printf("Search index changed on disk, reloading...")
	if err := w.reload(); err != nil {
		log.Printf("Warning: Keeping previous search index: %v", err)
	}
}
