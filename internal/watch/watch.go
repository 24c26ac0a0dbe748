// Package watch re-runs a callback when schema or override files change.
package watch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 200 * time.Millisecond

// Config configures a Watcher.
type Config struct {
	// Paths are files or directories to watch. Directories are watched
	// recursively; files are watched through their parent directory so
	// that editors replacing the file are noticed.
	Paths []string

	// Pattern filters events under watched directories (doublestar syntax,
	// matched against the slash-separated path relative to the directory).
	// Empty matches everything.
	Pattern string

	// Debounce coalesces bursts of events. Zero means 200ms.
	Debounce time.Duration

	// OnChange receives the changed paths, sorted.
	OnChange func(ctx context.Context, changed []string) error

	Logger *slog.Logger
}

// Watcher delivers debounced change notifications.
type Watcher struct {
	cfg      Config
	fsw      *fsnotify.Watcher
	files    map[string]bool // explicitly watched files
	dirs     map[string]bool // recursively watched roots
	debounce time.Duration
	logger   *slog.Logger
}

// New creates a watcher for cfg.Paths.
func New(cfg Config) (*Watcher, error) {
	if len(cfg.Paths) == 0 {
		return nil, fmt.Errorf("watch: no paths")
	}
	if cfg.Pattern != "" && !doublestar.ValidatePattern(cfg.Pattern) {
		return nil, fmt.Errorf("watch: invalid pattern %q", cfg.Pattern)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
		debounce: cfg.Debounce,
		logger:   cfg.Logger,
	}
	if w.debounce <= 0 {
		w.debounce = defaultDebounce
	}
	if w.logger == nil {
		w.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	for _, p := range cfg.Paths {
		if err := w.add(p); err != nil {
			fsw.Close() //nolint:errcheck // best-effort cleanup
			return nil, err
		}
	}
	return w, nil
}

func (w *Watcher) add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("watch: resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	if !info.IsDir() {
		w.files[abs] = true
		return w.fsw.Add(filepath.Dir(abs))
	}

	w.dirs[abs] = true
	return filepath.WalkDir(abs, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.fsw.Add(p)
		}
		return nil
	})
}

// relevant reports whether an event on path should trigger a run.
func (w *Watcher) relevant(path string) bool {
	if w.files[path] {
		return true
	}
	for root := range w.dirs {
		rel, ok := within(root, path)
		if !ok {
			continue
		}
		if w.cfg.Pattern == "" {
			return true
		}
		if ok, _ := doublestar.Match(w.cfg.Pattern, filepath.ToSlash(rel)); ok {
			return true
		}
	}
	return false
}

// Run delivers notifications until ctx is done. It closes the underlying
// watcher on return and must be called at most once.
func (w *Watcher) Run(ctx context.Context) error {
	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
	)

	fire := func() {
		if ctx.Err() != nil {
			return
		}
		mu.Lock()
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()
		if len(changed) == 0 || w.cfg.OnChange == nil {
			return
		}
		if err := w.cfg.OnChange(ctx, changed); err != nil {
			w.logger.Warn("watch callback failed", "error", err)
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("close fsnotify watcher", "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return fmt.Errorf("watch: fsnotify event channel closed unexpectedly")
			}
			if evt.Has(fsnotify.Chmod) && !evt.Has(fsnotify.Write) {
				continue
			}
			if evt.Has(fsnotify.Create) && w.underRoot(evt.Name) {
				if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
					if err := w.fsw.Add(evt.Name); err != nil {
						w.logger.Warn("watch new directory", "path", evt.Name, "error", err)
					}
				}
			}
			if !w.relevant(evt.Name) {
				continue
			}
			w.logger.Debug("file changed", "path", evt.Name, "op", evt.Op.String())

			mu.Lock()
			pending[evt.Name] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return fmt.Errorf("watch: fsnotify error channel closed unexpectedly")
			}
			w.logger.Warn("fsnotify error", "error", err)
		}
	}
}

func (w *Watcher) underRoot(path string) bool {
	for root := range w.dirs {
		if _, ok := within(root, path); ok {
			return true
		}
	}
	return false
}

// within returns path relative to root when path lies under root.
func within(root, path string) (string, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}
