package module

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher drops a module's Host cache entry when its source file
// changes on disk, then calls a reload callback with that module's id;
// modules that import it are not touched. Nothing in the engine or
// cmd/engine constructs a Watcher, and config.Module.WatchMode is not
// read outside internal/config. It mirrors the teacher's debounced
// FileWatcher: fsnotify fires once per write syscall (often several
// per save), so events are coalesced for the debounce window before
// the reload callback runs, and only for paths this Watcher was told
// to track.
type Watcher struct {
	fsw   *fsnotify.Watcher
	host  *Host
	debounce time.Duration

	mu      sync.Mutex
	pending map[ModuleId]bool
	timer   *time.Timer

	onReload func(id ModuleId)

	done chan struct{}
}

// NewWatcher opens an fsnotify watcher bound to host, debouncing
// coalesced events by debounce (config.Module.WatchDebounceMs).
// onReload is invoked, on the Watcher's own goroutine, once per
// distinct changed module after the debounce window elapses, after
// the Watcher has already invalidated that module's cache entry.
func NewWatcher(host *Host, debounce time.Duration, onReload func(id ModuleId)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fsw:      fsw,
		host:     host,
		debounce: debounce,
		pending:  map[ModuleId]bool{},
		onReload: onReload,
		done:     make(chan struct{}),
	}, nil
}

// Track adds id's source file to the watch set. A FSLoader-resolved
// ModuleId is already an absolute file path, so no further resolution
// is needed here.
func (w *Watcher) Track(id ModuleId) error {
	return w.fsw.Add(filepath.Clean(string(id)))
}

// Run processes fsnotify events until Close is called. Intended to run
// on its own goroutine, the same shape as the teacher's
// FileWatcher.processEvents.
func (w *Watcher) Run() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.schedule(ModuleId(filepath.Clean(event.Name)))
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		case <-w.done:
			return
		}
	}
}

// schedule marks id dirty and (re)arms the debounce timer; only the
// trailing edge of a burst of writes to the same file triggers a
// reload, same as the teacher's eventDebouncer.
func (w *Watcher) schedule(id ModuleId) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pending[id] = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	ids := w.pending
	w.pending = map[ModuleId]bool{}
	w.mu.Unlock()

	for id := range ids {
		w.host.Invalidate(id)
		if w.onReload != nil {
			w.onReload(id)
		}
	}
}

// Close stops the watcher goroutine and releases the underlying
// fsnotify watcher's file descriptor.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
