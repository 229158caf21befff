// Package watch observes the canonical registry files and reports
// debounced batches of changes, so long-running commands can rebuild
// derived artifacts as the index and records are edited.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/tech4life-beyond/product-registry/internal/config"
)

// DefaultDebounce is how long to wait for more changes before reporting.
const DefaultDebounce = 500 * time.Millisecond

// eventChannelBuffer is the size of the batch channel.
const eventChannelBuffer = 1

// Watcher watches the index file and records directory of a registry.
type Watcher struct {
	root     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	logger   *slog.Logger

	indexPath  string
	recordsDir string

	// Debouncing: collect changes before reporting
	pendingMu sync.Mutex
	pending   map[string]bool

	events chan []string
}

// New creates a watcher for the registry rooted at root.
func New(root string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Watcher{
		root:       root,
		debounce:   debounce,
		watcher:    fsw,
		logger:     logger,
		indexPath:  config.IndexPath(root),
		recordsDir: config.RecordsPath(root),
		pending:    make(map[string]bool),
		events:     make(chan []string, eventChannelBuffer),
	}, nil
}

// Events returns the channel of change batches. Each batch holds the
// root-relative paths that changed since the last report.
func (w *Watcher) Events() <-chan []string {
	return w.events
}

// Start begins watching. The events channel closes when ctx is
// cancelled or the watcher is stopped.
func (w *Watcher) Start(ctx context.Context) error {
	if err := os.MkdirAll(w.recordsDir, 0755); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(w.indexPath), 0755); err != nil {
		return err
	}

	// fsnotify watches directories; watching the index file itself would
	// break on editors that replace it by rename.
	if err := w.watcher.Add(filepath.Dir(w.indexPath)); err != nil {
		return err
	}
	if err := w.watcher.Add(w.recordsDir); err != nil {
		return err
	}

	go w.processEvents(ctx)

	w.logger.Info("registry watcher started",
		"root", w.root,
		"debounce", w.debounce)

	return nil
}

// Stop stops the watcher. The events channel is closed by the
// processing goroutine when it exits.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

// processEvents handles fsnotify events with debouncing.
func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events)
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watcher error", "error", err)

		case <-ticker.C:
			w.flushPending()
		}
	}
}

// handleFSEvent records one fsnotify event if it touches a canonical file.
func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	if event.Op == fsnotify.Chmod {
		return
	}
	if !w.relevant(event.Name) {
		return
	}

	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		rel = event.Name
	}

	w.pendingMu.Lock()
	w.pending[rel] = true
	w.pendingMu.Unlock()

	w.logger.Debug("registry change detected", "path", rel, "op", event.Op.String())
}

// relevant reports whether a path is the index file or a record file.
func (w *Watcher) relevant(path string) bool {
	if path == w.indexPath {
		return true
	}
	return filepath.Dir(path) == w.recordsDir && strings.EqualFold(filepath.Ext(path), ".md")
}

// flushPending reports accumulated changes. Pending paths are kept
// until the receiver takes the batch, so nothing is lost while a
// rebuild pass is still running.
func (w *Watcher) flushPending() {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	if len(w.pending) == 0 {
		return
	}

	paths := make([]string, 0, len(w.pending))
	for path := range w.pending {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	select {
	case w.events <- paths:
		w.pending = make(map[string]bool)
	default:
	}
}
