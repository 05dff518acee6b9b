// Package watcher monitors a directory for newly added photos and emits
// their paths once the files have settled on disk.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mrusso19/picshuttle/internal/logger"
)

// DefaultSettleDelay is how long a file must stay quiet before it is
// considered fully written. Cameras and phones copy large photos in many
// writes, so emitting on the first event would ship a truncated file.
const DefaultSettleDelay = 2 * time.Second

// DefaultExtensions are the file extensions picked up when none are
// configured.
var DefaultExtensions = []string{".jpg", ".jpeg", ".png", ".heic", ".mp4", ".mov"}

// Options configures a Watcher.
type Options struct {
	// Extensions filters emitted files; empty means DefaultExtensions.
	// Matching is case-insensitive and includes the leading dot.
	Extensions []string

	// SettleDelay is the quiet period before a file is emitted. Values <= 0
	// mean DefaultSettleDelay.
	SettleDelay time.Duration
}

// Watcher watches one directory and delivers settled file paths on Files.
type Watcher struct {
	dir        string
	extensions map[string]struct{}
	settle     time.Duration

	fsw     *fsnotify.Watcher
	settled chan string
	files   chan string

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// New creates a watcher for dir. The directory must exist.
func New(dir string, opts Options) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot watch %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("cannot watch %s: not a directory", dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	extSet := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		extSet[strings.ToLower(ext)] = struct{}{}
	}

	settle := opts.SettleDelay
	if settle <= 0 {
		settle = DefaultSettleDelay
	}

	return &Watcher{
		dir:        dir,
		extensions: extSet,
		settle:     settle,
		fsw:        fsw,
		settled:    make(chan string, 64),
		files:      make(chan string, 64),
		pending:    make(map[string]*time.Timer),
	}, nil
}

// Files returns the channel of settled file paths. It is closed when Run
// returns.
func (w *Watcher) Files() <-chan string {
	return w.files
}

// Run processes filesystem events until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.files)
	defer w.cancelPending()
	defer func() { _ = w.fsw.Close() }()

	logger.Info("watching directory", "dir", w.dir, "settle_delay", w.settle)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case path := <-w.settled:
			w.emit(ctx, path)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("file watcher error", "dir", w.dir, "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	if !w.wants(event.Name) {
		return
	}

	// Each create/write resets the file's settle timer; the file is emitted
	// only after a full quiet period.
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[event.Name]; ok {
		timer.Stop()
	}
	path := event.Name
	w.pending[path] = time.AfterFunc(w.settle, func() {
		// Non-blocking: only Run touches the output channel, so a timer can
		// never race its closure.
		select {
		case w.settled <- path:
		default:
			logger.Warn("settle queue full, dropping file event", "path", path)
		}
	})
}

func (w *Watcher) emit(ctx context.Context, path string) {
	w.mu.Lock()
	delete(w.pending, path)
	w.mu.Unlock()

	// The file may have been renamed or removed while settling.
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}

	select {
	case w.files <- path:
		logger.Debug("file settled", "path", path, "size", info.Size())
	case <-ctx.Done():
	}
}

func (w *Watcher) wants(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	_, ok := w.extensions[ext]
	return ok
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
}
