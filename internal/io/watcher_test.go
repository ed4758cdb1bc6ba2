package io

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"image-tree/internal/core"
)

func readString(path string) (string, error) {
	b, err := os.ReadFile(path)
	return string(b), err
}

func startWatcher(t *testing.T, w *SourceWatcher[string]) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	select {
	case <-w.Ready():
	case err := <-done:
		cancel()
		t.Fatalf("watcher exited early: %v", err)
	case <-time.After(2 * time.Second):
		cancel()
		t.Fatal("watcher never became ready")
	}
	return cancel, done
}

func TestSourceWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "source.png")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	got := make(chan string, 4)
	logger, _ := test.NewNullLogger()
	w := NewSourceWatcher(path, readString, func(s string) error {
		got <- s
		return nil
	}, logger).WithDebounce(10 * time.Millisecond)

	cancel, done := startWatcher(t, w)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.png"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))

	deadline := time.After(2 * time.Second)
	for last := ""; last != "v2"; {
		select {
		case last = <-got:
		case <-deadline:
			t.Fatalf("no reload of v2 after write, last seen %q", last)
		}
	}

	cancel()
	assert.NoError(t, <-done)
}

func TestSourceWatcher_StopsWhenTreeTerminated(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "source.png")
	require.NoError(t, os.WriteFile(path, []byte("v1"), 0o644))

	released := make(chan string, 1)
	logger, _ := test.NewNullLogger()
	w := NewSourceWatcher(path, readString, func(string) error {
		return core.ErrTerminated
	}, logger).
		WithDebounce(10 * time.Millisecond).
		WithRelease(func(s string) { released <- s })

	cancel, done := startWatcher(t, w)
	defer cancel()
	require.NoError(t, os.WriteFile(path, []byte("v2"), 0o644))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher kept running after termination")
	}
	assert.Len(t, released, 1, "the undelivered artifact is released")
}

func TestSourceWatcher_MissingDirectory(t *testing.T) {
	logger, _ := test.NewNullLogger()
	w := NewSourceWatcher(filepath.Join(t.TempDir(), "nope", "a.png"), readString,
		func(string) error { return nil }, logger)

	err := w.Run(context.Background())
	assert.Error(t, err)
}

func TestIsSupportedFormat(t *testing.T) {
	assert.True(t, IsSupportedFormat("strawberry.PNG"))
	assert.True(t, IsSupportedFormat("/tmp/a.b/c.tif"))
	assert.False(t, IsSupportedFormat("notes.txt"))
	assert.False(t, IsSupportedFormat("dir.png/file"))
}
