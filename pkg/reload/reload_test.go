package reload

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/twtheme/pkg/theme"
	"github.com/gnana997/twtheme/pkg/util"
	"github.com/gnana997/twtheme/presets"
)

func quietLogger() *slog.Logger {
	return util.NewLogger(util.LoggerConfig{Level: util.LevelError, Output: io.Discard})
}

type fixture struct {
	path   string
	store  *Store
	loader *theme.Loader
	cache  util.SourceCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, presets.TailwindConfigName)
	require.NoError(t, os.WriteFile(path, presets.TailwindConfig, 0o644))

	cache := util.NewSourceCache(util.DefaultSourceCacheConfig())
	t.Cleanup(func() { cache.Close() })

	loader := theme.NewLoader(theme.LoaderConfig{
		Cache:  cache,
		Logger: quietLogger(),
	})
	t.Cleanup(func() { loader.Close() })

	doc, err := loader.LoadFile(path)
	require.NoError(t, err)

	return &fixture{path: path, store: NewStore(doc), loader: loader, cache: cache}
}

func (f *fixture) rewrite(t *testing.T, old, new string) {
	t.Helper()
	data, err := os.ReadFile(f.path)
	require.NoError(t, err)
	updated := strings.Replace(string(data), old, new, 1)
	require.NotEqual(t, string(data), updated)
	require.NoError(t, os.WriteFile(f.path, []byte(updated), 0o644))
}

func accent(t *testing.T, s *Store, mode theme.Mode) string {
	t.Helper()
	v, err := s.Current().ResolveColor("accent", mode)
	require.NoError(t, err)
	return v
}

func TestStore_SwapAndVersion(t *testing.T) {
	f := newFixture(t)
	first := f.store.Current()
	require.NotNil(t, first)
	assert.Equal(t, uint64(1), f.store.Version())

	second, err := f.loader.LoadFile(f.path)
	require.NoError(t, err)

	old := f.store.Swap(second)
	assert.Same(t, first, old)
	assert.Same(t, second, f.store.Current())
	assert.Equal(t, uint64(2), f.store.Version())

	assert.Same(t, second, f.store.Swap(nil), "nil is ignored")
	assert.Equal(t, uint64(2), f.store.Version())
}

func TestWatcher_ReloadKeepsPreviousOnFailure(t *testing.T) {
	f := newFixture(t)

	var results []Result
	w, err := NewWatcher(f.path, f.store, f.loader, WatchOptions{
		Cache:    f.cache,
		OnReload: func(r Result) { results = append(results, r) },
	}, quietLogger())
	require.NoError(t, err)
	defer w.Stop()

	f.rewrite(t, "light: '#a78bfa'", "light: '#000000'")
	res := w.Reload()
	require.NoError(t, res.Err)
	assert.Equal(t, "#000000", accent(t, f.store, theme.ModeLight))

	f.rewrite(t, "dark: '#9f7aea',", "")
	res = w.Reload()
	require.ErrorIs(t, res.Err, theme.ErrMalformedConfig)
	assert.Nil(t, res.Document)
	assert.Equal(t, "#000000", accent(t, f.store, theme.ModeLight), "previous document stays live")
	assert.Equal(t, "#9f7aea", accent(t, f.store, theme.ModeDark))

	require.NoError(t, os.Remove(f.path))
	res = w.Reload()
	assert.ErrorIs(t, res.Err, os.ErrNotExist)
	assert.NotNil(t, f.store.Current())

	require.Len(t, results, 3)
	stats := w.Stats()
	assert.Equal(t, int64(1), stats.Reloads)
	assert.Equal(t, int64(2), stats.Failures)
	assert.False(t, stats.IsRunning)
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	f := newFixture(t)

	var mu sync.Mutex
	var results []Result
	w, err := NewWatcher(f.path, f.store, f.loader, WatchOptions{
		Debounce: 20 * time.Millisecond,
		Cache:    f.cache,
		OnReload: func(r Result) {
			mu.Lock()
			results = append(results, r)
			mu.Unlock()
		},
	}, quietLogger())
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	assert.True(t, w.Stats().IsRunning)
	assert.Error(t, w.Start(), "second start is rejected")

	f.rewrite(t, "dark: '#9f7aea'", "dark: '#ffffff'")

	assert.Eventually(t, func() bool {
		v, err := f.store.Current().ResolveColor("accent", theme.ModeDark)
		return err == nil && v == "#ffffff"
	}, 5*time.Second, 10*time.Millisecond)

	mu.Lock()
	require.NotEmpty(t, results)
	assert.NoError(t, results[len(results)-1].Err)
	mu.Unlock()
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	f := newFixture(t)

	reloaded := make(chan Result, 1)
	w, err := NewWatcher(f.path, f.store, f.loader, WatchOptions{
		Debounce: 10 * time.Millisecond,
		OnReload: func(r Result) { reloaded <- r },
	}, quietLogger())
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	other := filepath.Join(filepath.Dir(f.path), "notes.txt")
	require.NoError(t, os.WriteFile(other, []byte("hello"), 0o644))

	select {
	case r := <-reloaded:
		t.Fatalf("unexpected reload: %+v", r)
	case <-time.After(200 * time.Millisecond):
	}
	assert.Equal(t, uint64(1), f.store.Version())
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	f := newFixture(t)

	w, err := NewWatcher(f.path, f.store, f.loader, WatchOptions{}, quietLogger())
	require.NoError(t, err)
	require.NoError(t, w.Start())

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())
	assert.Error(t, w.Start())
	assert.False(t, w.Stats().IsRunning)
}

func TestWatcher_StaleTimerKeepsNewerPending(t *testing.T) {
	f := newFixture(t)

	w, err := NewWatcher(f.path, f.store, f.loader, WatchOptions{Debounce: time.Hour}, quietLogger())
	require.NoError(t, err)
	require.NoError(t, w.Start())
	defer w.Stop()

	w.debounceReload()
	w.debounceMu.Lock()
	stale := w.timer
	w.debounceMu.Unlock()

	w.debounceReload()
	w.fire(stale)

	stats := w.Stats()
	assert.True(t, stats.Pending, "newer timer must stay pending")
	assert.Equal(t, int64(0), stats.Reloads)
	assert.Equal(t, uint64(1), f.store.Version())

	w.debounceMu.Lock()
	current := w.timer
	w.debounceMu.Unlock()
	current.Stop()
	w.fire(current)

	stats = w.Stats()
	assert.False(t, stats.Pending)
	assert.Equal(t, int64(1), stats.Reloads)
	assert.Equal(t, uint64(2), f.store.Version())
}
