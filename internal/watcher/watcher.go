// Package watcher signals when any log file under the configured
// roots grows or appears. Consumers re-run the full ingestion pipeline
// on each signal; no incremental read state is kept beyond file sizes.
package watcher

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const logExt = ".jsonl"

type Watcher struct {
	roots        []string
	pollInterval time.Duration
	onChange     func()

	mu    sync.Mutex
	sizes map[string]int64 // path -> last seen size

	stop chan struct{}
	wg   sync.WaitGroup
}

func New(roots []string, pollInterval time.Duration, onChange func()) *Watcher {
	return &Watcher{
		roots:        roots,
		pollInterval: pollInterval,
		onChange:     onChange,
		sizes:        make(map[string]int64),
		stop:         make(chan struct{}),
	}
}

// Prime records current file sizes so the first poll only fires for
// growth after this point.
func (w *Watcher) Prime() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, size := range w.snapshot() {
		w.sizes[path] = size
	}
}

// Start begins watching with fsnotify plus a polling fallback. The
// polling loop always runs as a safety net for filesystems where
// fsnotify is unreliable.
func (w *Watcher) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err == nil {
		for _, root := range w.roots {
			_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
				if err == nil && d.IsDir() {
					_ = fsw.Add(path)
				}
				return nil
			})
		}

		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			for {
				select {
				case event, ok := <-fsw.Events:
					if !ok {
						return
					}
					if filepath.Ext(event.Name) == logExt &&
						(event.Op&fsnotify.Write != 0 || event.Op&fsnotify.Create != 0) {
						if w.checkFile(event.Name) {
							w.onChange()
						}
					}
				case <-w.stop:
					fsw.Close()
					return
				}
			}
		}()
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(w.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if w.Scan() {
					w.onChange()
				}
			case <-w.stop:
				return
			}
		}
	}()

	return nil
}

// Stop signals goroutines to exit and waits for them to finish.
func (w *Watcher) Stop() {
	close(w.stop)
	w.wg.Wait()
}

// Scan walks all roots once and reports whether any log file grew or
// appeared since the previous scan.
func (w *Watcher) Scan() bool {
	current := w.snapshot()

	w.mu.Lock()
	defer w.mu.Unlock()
	changed := false
	for path, size := range current {
		if size > w.sizes[path] {
			changed = true
		}
		w.sizes[path] = size
	}
	return changed
}

func (w *Watcher) checkFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if info.Size() <= w.sizes[path] {
		return false
	}
	w.sizes[path] = info.Size()
	return true
}

// snapshot collects current sizes of all log files without holding the
// lock.
func (w *Watcher) snapshot() map[string]int64 {
	sizes := make(map[string]int64)
	for _, root := range w.roots {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() || filepath.Ext(path) != logExt {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return nil
			}
			sizes[path] = info.Size()
			return nil
		})
	}
	return sizes
}
