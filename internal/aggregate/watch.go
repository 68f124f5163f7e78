package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces bursts of writes (temp file + rename) into one nudge.
const watchDebounce = 150 * time.Millisecond

// Watch reports changes under the store root so a view can refresh before
// its next tick. The channel is closed when ctx is done. Project directories
// created after Watch starts are picked up as they appear. Watching is an
// optimisation only; polling remains the source of truth.
func Watch(ctx context.Context, root string, logger *slog.Logger) (<-chan struct{}, error) {
	if logger == nil {
		logger = discardLogger()
	}

	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create status directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(root); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", root, err)
	}

	entries, _ := os.ReadDir(root)
	for _, entry := range entries {
		if entry.IsDir() {
			if err := watcher.Add(filepath.Join(root, entry.Name())); err != nil {
				logger.Debug("failed to watch project directory", "dir", entry.Name(), "error", err)
			}
		}
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer watcher.Close()

		var timer *time.Timer
		var fire <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Create) && filepath.Dir(event.Name) == filepath.Clean(root) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						_ = watcher.Add(event.Name)
					}
				}
				if timer == nil {
					timer = time.NewTimer(watchDebounce)
					fire = timer.C
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Debug("file watcher error", "error", err)

			case <-fire:
				timer = nil
				fire = nil
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()

	return out, nil
}
