package reload

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/gnana997/twtheme/pkg/theme"
	"github.com/gnana997/twtheme/pkg/util"
)

// DefaultDebounce groups the burst of events an editor save produces.
const DefaultDebounce = 200 * time.Millisecond

// WatchOptions configures a Watcher.
type WatchOptions struct {
	// Debounce is the quiet period before a reload. Zero uses DefaultDebounce.
	Debounce time.Duration

	// Cache is invalidated before each reload so the loader sees the new
	// bytes. Optional.
	Cache util.SourceCache

	// OnReload is called after every reload attempt. Optional.
	OnReload func(Result)
}

// Result describes one reload attempt.
type Result struct {
	Path     string
	Document *theme.Document // nil when Err is set
	Err      error
	Duration time.Duration
}

// WatcherStats reports reload counters.
type WatcherStats struct {
	Reloads   int64
	Failures  int64
	Pending   bool
	IsRunning bool
}

// Watcher reloads a declaration when it changes and publishes the result
// to a Store. A reload that fails leaves the previous document live.
//
//	w, err := reload.NewWatcher(path, store, loader, reload.WatchOptions{}, logger)
//	if err != nil {
//	    return err
//	}
//	if err := w.Start(); err != nil {
//	    return err
//	}
//	defer w.Stop()
type Watcher struct {
	path    string
	store   *Store
	loader  *theme.Loader
	options WatchOptions
	logger  *slog.Logger

	watcher *fsnotify.Watcher

	// Debouncing
	timer      *time.Timer
	debounceMu sync.Mutex

	reloadMu sync.Mutex
	reloads  atomic.Int64
	failures atomic.Int64

	// Lifecycle
	stopChan chan struct{}
	started  bool
	stopped  bool
	mu       sync.Mutex
}

// NewWatcher creates a watcher for the declaration at path.
func NewWatcher(path string, store *Store, loader *theme.Loader, options WatchOptions, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if options.Debounce <= 0 {
		options.Debounce = DefaultDebounce
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{
		path:     abs,
		store:    store,
		loader:   loader,
		options:  options,
		logger:   logger,
		watcher:  fsw,
		stopChan: make(chan struct{}),
	}, nil
}

// Start begins watching. The declaration's directory is watched rather than
// the file itself, so saves that replace the file are still seen.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return errors.New("watcher already stopped")
	}
	if w.started {
		return errors.New("watcher already started")
	}

	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.started = true

	w.logger.Info("Config watcher started", "path", w.path, "debounce", w.options.Debounce)

	go w.eventLoop()
	return nil
}

// Stop stops the watcher. Safe to call more than once.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopChan)

	w.debounceMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.debounceMu.Unlock()

	err := w.watcher.Close()
	w.logger.Info("Config watcher stopped", "path", w.path)
	return err
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case <-w.stopChan:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Config watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
		return
	}

	w.logger.Debug("Config event", "op", event.Op.String(), "path", event.Name)
	w.debounceReload()
}

// debounceReload restarts the quiet period; only the last event in a burst
// triggers a reload.
func (w *Watcher) debounceReload() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(w.options.Debounce, func() { w.fire(t) })
	w.timer = t
}

// fire runs when a debounce timer expires. A timer that was replaced while
// it fired is stale and leaves the newer one pending.
func (w *Watcher) fire(t *time.Timer) {
	w.debounceMu.Lock()
	current := w.timer == t
	if current {
		w.timer = nil
	}
	w.debounceMu.Unlock()
	if !current {
		return
	}

	select {
	case <-w.stopChan:
		return
	default:
	}
	w.Reload()
}

// Reload loads the declaration now and publishes it on success.
func (w *Watcher) Reload() Result {
	w.reloadMu.Lock()
	defer w.reloadMu.Unlock()

	start := time.Now()
	// The cache's size/mtime check misses same-size saves within the file
	// system's timestamp resolution, so every reload goes back to disk.
	if w.options.Cache != nil {
		w.options.Cache.Invalidate(w.path)
	}

	doc, err := w.loader.LoadFile(w.path)
	result := Result{
		Path:     w.path,
		Document: doc,
		Err:      err,
		Duration: time.Since(start),
	}

	if err != nil {
		w.failures.Add(1)
		w.logger.Warn("Config reload failed, keeping previous version",
			"path", w.path,
			"error", err)
	} else {
		w.store.Swap(doc)
		w.reloads.Add(1)
		w.logger.Info("Config reloaded",
			"path", w.path,
			"tokens", len(doc.Colors),
			"version", w.store.Version(),
			"duration", result.Duration)
	}

	if w.options.OnReload != nil {
		w.options.OnReload(result)
	}
	return result
}

// Stats returns reload counters.
func (w *Watcher) Stats() WatcherStats {
	w.debounceMu.Lock()
	pending := w.timer != nil
	w.debounceMu.Unlock()

	w.mu.Lock()
	running := w.started && !w.stopped
	w.mu.Unlock()

	return WatcherStats{
		Reloads:   w.reloads.Load(),
		Failures:  w.failures.Load(),
		Pending:   pending,
		IsRunning: running,
	}
}
