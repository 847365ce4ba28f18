package sweeper

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createAged(t *testing.T, dir, name string, now time.Time, age time.Duration) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(name), 0644))
	mtime := now.Add(-age)
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func newTestSweeper(dir string, now time.Time) *Sweeper {
	s := New(dir, time.Hour, time.Minute, nil)
	s.now = func() time.Time { return now }
	return s
}

func TestNewDefaults(t *testing.T) {
	s := New("downloads", 0, -1, nil)
	assert.Equal(t, DefaultMaxAge, s.maxAge)
	assert.Equal(t, DefaultInterval, s.interval)
}

func TestSweepRemovesOnlyExpiredFiles(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	createAged(t, dir, "old.mp4", now, 2*time.Hour)
	createAged(t, dir, "just-under.mp4", now, time.Hour-time.Second)
	createAged(t, dir, "just-over.mp4", now, time.Hour+time.Second)
	createAged(t, dir, "fresh.mp4", now, 10*time.Minute)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0755))

	removed := newTestSweeper(dir, now).Sweep()

	assert.ElementsMatch(t, []string{"old.mp4", "just-over.mp4"}, removed)
	assert.FileExists(t, filepath.Join(dir, "just-under.mp4"))
	assert.FileExists(t, filepath.Join(dir, "fresh.mp4"))
	assert.DirExists(t, filepath.Join(dir, "subdir"))
}

func TestSweepKeepsFileAtExactlyMaxAge(t *testing.T) {
	dir := t.TempDir()
	// 整秒的时间戳在任何文件系统上都能精确保存
	now := time.Now().Truncate(time.Second)
	createAged(t, dir, "boundary.mp4", now, time.Hour)

	removed := newTestSweeper(dir, now).Sweep()

	assert.Empty(t, removed)
	assert.FileExists(t, filepath.Join(dir, "boundary.mp4"))
}

func TestSweepIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	createAged(t, dir, "old.mp4", now, 3*time.Hour)
	createAged(t, dir, "fresh.mp4", now, time.Minute)

	s := newTestSweeper(dir, now)
	first := s.Sweep()
	second := s.Sweep()

	assert.Equal(t, []string{"old.mp4"}, first)
	assert.Empty(t, second)
	assert.FileExists(t, filepath.Join(dir, "fresh.mp4"))
}

func TestSweepMissingDirectoryDoesNotPanic(t *testing.T) {
	s := newTestSweeper(filepath.Join(t.TempDir(), "missing"), time.Now())
	assert.NotPanics(t, func() {
		assert.Empty(t, s.Sweep())
	})
}

func TestRunSweepsImmediatelyAndStopsWithContext(t *testing.T) {
	dir := t.TempDir()
	createAged(t, dir, "old.mp4", time.Now(), 2*time.Hour)

	s := New(dir, time.Hour, time.Hour, nil)
	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(finished)
	}()

	assert.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(dir, "old.mp4"))
		return os.IsNotExist(err)
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}
