package site

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce is the quiet period after the last change before a rebuild
const DefaultWatchDebounce = 300 * time.Millisecond

// Watcher rebuilds the site when files under the watched trees change.
// Bursts of events (an editor saving several files) collapse into one rebuild.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	rebuild  func(ctx context.Context) error
	ignore   []string
}

// NewWatcher creates a watcher that calls rebuild after each settled burst of changes.
func NewWatcher(debounce time.Duration, rebuild func(ctx context.Context) error) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	return &Watcher{fsw: fsw, debounce: debounce, rebuild: rebuild}, nil
}

// Ignore excludes dir and everything below it, typically the build output.
func (w *Watcher) Ignore(dir string) {
	if abs, err := filepath.Abs(dir); err == nil {
		w.ignore = append(w.ignore, abs)
	}
}

func (w *Watcher) ignored(p string) bool {
	abs, err := filepath.Abs(p)
	if err != nil {
		return false
	}
	for _, dir := range w.ignore {
		if abs == dir || strings.HasPrefix(abs, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// Add watches root and every directory below it. fsnotify is not recursive,
// so directories created later are added as their events arrive.
func (w *Watcher) Add(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.ignored(p) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(p); err != nil {
			return fmt.Errorf("watching directory %s: %w", p, err)
		}
		return nil
	})
}

// Run processes events until ctx is cancelled. Rebuild failures are logged
// and watching continues, so a half-edited registry does not end the session.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.Add(event.Name); err != nil {
						slog.Warn("watch new directory", "path", event.Name, "error", err)
					}
				}
			}
			slog.Debug("change detected", "path", event.Name, "op", event.Op.String())
			timer.Reset(w.debounce)

		case <-timer.C:
			start := time.Now()
			if err := w.rebuild(ctx); err != nil {
				slog.Error("rebuild failed", "error", err)
				continue
			}
			slog.Info("rebuilt", "duration", time.Since(start))

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", "error", err)
		}
	}
}

// relevant drops chmod-only events and anything under an ignored directory.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	return !w.ignored(event.Name)
}
