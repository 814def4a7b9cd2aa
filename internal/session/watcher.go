package session

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces bursts of writes into a single change event
const DefaultDebounce = 250 * time.Millisecond

// ChangeEvent reports that the sessions directory changed since the last event
type ChangeEvent struct {
	Paths    []string // Changed transcript or registry files, sorted
	Registry bool     // True if the registry file was among them
}

// Watcher monitors the sessions directory and signals when a new snapshot is due.
// It carries no parse state: consumers rebuild the snapshot on each event.
type Watcher struct {
	fsWatcher    *fsnotify.Watcher
	dir          string
	registryFile string
	debounce     time.Duration

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	stopped bool

	Events chan ChangeEvent
	Errors chan error
	done   chan struct{}
}

// NewWatcher creates a watcher for dir, whose registry file is named registryFile
func NewWatcher(dir, registryFile string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		fsWatcher:    fsw,
		dir:          filepath.Clean(dir),
		registryFile: registryFile,
		debounce:     DefaultDebounce,
		pending:      make(map[string]struct{}),
		Events:       make(chan ChangeEvent, 16),
		Errors:       make(chan error, 10),
		done:         make(chan struct{}),
	}, nil
}

// SetDebounce changes the coalescing window; call before Start
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Start begins watching. If the sessions directory does not exist yet, its
// parent is watched so the directory is picked up once created.
func (w *Watcher) Start() error {
	if err := w.fsWatcher.Add(w.dir); err != nil {
		if perr := w.fsWatcher.Add(filepath.Dir(w.dir)); perr != nil {
			return err
		}
	}
	go w.watchLoop()
	return nil
}

// Stop stops the watcher. Calls after the first are no-ops.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	close(w.done)
	return w.fsWatcher.Close()
}

// watchLoop handles fsnotify events
func (w *Watcher) watchLoop() {
	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
				// Error channel full, drop
			}
		}
	}
}

// handleFSEvent processes a filesystem event
func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	name := filepath.Clean(event.Name)

	// Sessions directory appeared under the watched parent
	if name == w.dir && event.Op&fsnotify.Create == fsnotify.Create {
		_ = w.fsWatcher.Add(w.dir)
		w.queue(name)
		return
	}

	if filepath.Dir(name) != w.dir || !w.relevant(name) {
		return
	}

	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	w.queue(name)
}

// relevant reports whether a file inside the sessions directory affects snapshots
func (w *Watcher) relevant(path string) bool {
	base := filepath.Base(path)
	return base == w.registryFile || strings.HasSuffix(base, ".jsonl")
}

// queue records a changed path and arms the flush timer
func (w *Watcher) queue(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	w.pending[path] = struct{}{}
	if w.timer == nil {
		w.timer = time.AfterFunc(w.debounce, w.flush)
	}
}

// flush emits one ChangeEvent for everything queued since the last flush
func (w *Watcher) flush() {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]struct{})
	w.timer = nil
	stopped := w.stopped
	w.mu.Unlock()

	if stopped || len(paths) == 0 {
		return
	}
	sort.Strings(paths)

	ev := ChangeEvent{Paths: paths}
	for _, p := range paths {
		if filepath.Base(p) == w.registryFile || p == w.dir {
			ev.Registry = true
			break
		}
	}

	select {
	case w.Events <- ev:
	default:
		// Event channel full; a pending event already forces a rebuild
	}
}
