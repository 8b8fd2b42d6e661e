// Package watch re-triggers processing when files in a directory change.
package watch

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
)

// DefaultDebounce is the quiet period a file must reach before it is reported.
const DefaultDebounce = 600 * time.Millisecond

// minTick bounds how often pending files are checked.
const minTick = time.Millisecond

// Watcher watches one directory and reports changed regular files.
type Watcher struct {
	Dir      string
	Debounce time.Duration
	// Ignore, when set, filters out paths before they are reported, such as
	// the outputs the caller writes into the watched directory.
	Ignore func(path string) bool

	fs      afero.Fs
	mu      sync.Mutex
	pending map[string]time.Time
	logf    func(string, ...any)
}

// New returns a Watcher for dir. Pending paths are checked on fs before they
// are reported; events always come from the OS.
func New(fs afero.Fs, dir string, debounce time.Duration, logf func(string, ...any)) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		Dir:      dir,
		Debounce: debounce,
		fs:       fs,
		pending:  make(map[string]time.Time),
		logf:     logf,
	}
}

// Run blocks until ctx is done, calling onChange for every file that was
// written or created and then left alone for the debounce period. onChange
// runs on the caller's goroutine, one path at a time.
func (w *Watcher) Run(ctx context.Context, onChange func(path string)) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(w.Dir); err != nil {
		return err
	}
	w.debugf("watching %s", w.Dir)

	done := make(chan struct{})
	defer close(done)
	go w.collect(fw, done)

	ticker := time.NewTicker(max(w.Debounce/2, minTick))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			for _, path := range w.due(now) {
				if ctx.Err() != nil {
					return nil
				}
				onChange(path)
			}
		}
	}
}

func (w *Watcher) collect(fw *fsnotify.Watcher, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.Touch(event.Name, time.Now())
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.debugf("watcher error: %v", err)
		}
	}
}

// Touch records activity on path at the given time.
func (w *Watcher) Touch(path string, at time.Time) {
	if w.Ignore != nil && w.Ignore(path) {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[path] = at
}

// due removes and returns, sorted, the pending paths that have been quiet
// for the debounce period and still are regular files.
func (w *Watcher) due(now time.Time) []string {
	w.mu.Lock()
	var ready []string
	for path, at := range w.pending {
		if now.Sub(at) >= w.Debounce {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	sort.Strings(ready)
	out := ready[:0]
	for _, path := range ready {
		info, err := w.fs.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		out = append(out, path)
	}
	return out
}

func (w *Watcher) debugf(format string, args ...any) {
	if w.logf == nil {
		return
	}
	w.logf(format, args...)
}
