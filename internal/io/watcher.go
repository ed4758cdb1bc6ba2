package io

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"image-tree/internal/core"
)

// DefaultDebounce collapses the burst of events editors emit for one save.
const DefaultDebounce = 150 * time.Millisecond

// SourceWatcher reloads a source file whenever it changes on disk and hands
// the new artifact to replace, typically a tree root's ReplaceSource.
type SourceWatcher[T any] struct {
	path     string
	load     func(path string) (T, error)
	replace  func(T) error
	release  func(T)
	debounce time.Duration
	logger   logrus.FieldLogger
	ready    chan struct{}
}

func NewSourceWatcher[T any](path string, load func(string) (T, error), replace func(T) error, logger logrus.FieldLogger) *SourceWatcher[T] {
	return &SourceWatcher[T]{
		path:     filepath.Clean(path),
		load:     load,
		replace:  replace,
		debounce: DefaultDebounce,
		logger:   logger.WithField("source", path),
		ready:    make(chan struct{}),
	}
}

// WithRelease sets the function used to free an artifact that could not be
// handed over.
func (w *SourceWatcher[T]) WithRelease(release func(T)) *SourceWatcher[T] {
	w.release = release
	return w
}

func (w *SourceWatcher[T]) WithDebounce(d time.Duration) *SourceWatcher[T] {
	w.debounce = d
	return w
}

// Ready is closed once the watch is installed.
func (w *SourceWatcher[T]) Ready() <-chan struct{} {
	return w.ready
}

// Run watches until ctx is cancelled or the receiving tree is terminated.
// The directory is watched rather than the file so atomic renames by editors
// are seen.
func (w *SourceWatcher[T]) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}
	close(w.ready)
	w.logger.Info("Watching source for changes")

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("Watcher error")
		case <-fire:
			fire = nil
			if stop := w.reload(); stop {
				return nil
			}
		}
	}
}

// reload returns true when the receiver no longer accepts artifacts.
func (w *SourceWatcher[T]) reload() bool {
	artifact, err := w.load(w.path)
	if err != nil {
		w.logger.WithError(err).Warn("Reload failed, keeping previous source")
		return false
	}
	if err := w.replace(artifact); err != nil {
		if w.release != nil {
			w.release(artifact)
		}
		if errors.Is(err, core.ErrTerminated) {
			w.logger.Debug("Tree terminated, watcher stopping")
			return true
		}
		w.logger.WithError(err).Warn("Source replacement rejected")
		return false
	}
	w.logger.Info("Source reloaded")
	return false
}
