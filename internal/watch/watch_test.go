package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	cerrors "choromap/internal/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestWatcherReportsChangedInput(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "votes.csv")
	other := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(data, []byte("code,vote\n"), 0o644))

	w, err := New([]string{data}, 20*time.Millisecond, nil)
	require.NoError(t, err)
	defer w.Stop()

	changes := make(chan []string, 4)
	require.NoError(t, w.Start(context.Background(), func(paths []string) { changes <- paths }))

	require.NoError(t, os.WriteFile(other, []byte("ignored"), 0o644))
	require.NoError(t, os.WriteFile(data, []byte("code,vote\nA,1\n"), 0o644))

	abs, err := filepath.Abs(data)
	require.NoError(t, err)
	select {
	case got := <-changes:
		assert.Equal(t, []string{abs}, got)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestWatcherStopsWithContext(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "states.geojson")
	require.NoError(t, os.WriteFile(p, []byte("{}"), 0o644))

	w, err := New([]string{p}, time.Millisecond, nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx, func([]string) {}))
	require.NoError(t, w.Start(ctx, func([]string) {}), "second start is a no-op")

	cancel()
	w.Stop()
	w.Stop()
}

func TestSettledDebounces(t *testing.T) {
	now := time.Now()
	w := &Watcher{debounce: time.Second, pending: map[string]time.Time{
		"/a": now.Add(-2 * time.Second),
		"/b": now,
		"/c": now.Add(-time.Second),
	}}

	assert.Equal(t, []string{"/a", "/c"}, w.settled(now))
	assert.Equal(t, map[string]time.Time{"/b": now}, w.pending)
	assert.Empty(t, w.settled(now))
}

func TestNewErrors(t *testing.T) {
	_, err := New(nil, time.Second, nil)
	assert.True(t, cerrors.Is(err, cerrors.KindValidation))

	_, err = New([]string{filepath.Join(t.TempDir(), "missing", "votes.csv")}, time.Second, nil)
	assert.True(t, cerrors.Is(err, cerrors.KindFile))
}
