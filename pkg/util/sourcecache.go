// SourceCache keeps declaration files memory-mapped between loads.
//
// The tool server and the reload watcher load the same declaration many
// times over a process lifetime. Each entry remembers the size and
// modification time it was mapped at; a Read that finds the file changed on
// disk remaps it, and the watcher can drop an entry eagerly via Invalidate.
//
// Read always returns a private copy, so callers never hold a slice into a
// mapping that a later Invalidate or Close unmaps.
package util

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/edsrzf/mmap-go"
)

// SourceCache provides cached, mmap-backed reads of declaration files.
// It is safe for concurrent use.
type SourceCache interface {
	// Read returns the current contents of filePath.
	Read(filePath string) ([]byte, error)

	// Invalidate unmaps filePath so the next Read goes back to disk.
	Invalidate(filePath string)

	// Size returns number of currently cached files.
	Size() int

	// Stats returns current cache metrics.
	Stats() SourceCacheStats

	// Close unmaps all files and releases resources.
	Close() error
}

// SourceCacheConfig controls SourceCache behavior.
type SourceCacheConfig struct {
	// MaxFiles is the maximum number of files kept mapped. Zero means
	// unlimited. Read fails once the limit is reached.
	MaxFiles int

	// Logger for warnings. If nil, uses slog.Default().
	Logger *slog.Logger
}

// DefaultSourceCacheConfig returns limits suited to a handful of
// declarations per process.
func DefaultSourceCacheConfig() *SourceCacheConfig {
	return &SourceCacheConfig{MaxFiles: 64}
}

// SourceCacheStats tracks cache performance metrics.
type SourceCacheStats struct {
	FilesLoaded   int64
	FilesCached   int
	CacheHits     int64
	CacheMisses   int64
	Invalidations int64
	MmapFailures  int64
}

type mappedSource struct {
	data    mmap.MMap // nil for empty files and fallback reads
	file    *os.File
	copy    []byte // fallback contents when mmap failed
	size    int64
	modTime time.Time
}

func (m *mappedSource) bytes() []byte {
	if m.data != nil {
		return m.data
	}
	return m.copy
}

func (m *mappedSource) release() error {
	var errs []error
	if m.data != nil {
		if err := m.data.Unmap(); err != nil {
			errs = append(errs, fmt.Errorf("unmap: %w", err))
		}
		m.data = nil
	}
	if m.file != nil {
		if err := m.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close: %w", err))
		}
		m.file = nil
	}
	return errors.Join(errs...)
}

// NewSourceCache creates a SourceCache. A nil config uses
// DefaultSourceCacheConfig().
func NewSourceCache(config *SourceCacheConfig) SourceCache {
	if config == nil {
		config = DefaultSourceCacheConfig()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &sourceCacheImpl{
		config:  config,
		logger:  logger,
		entries: make(map[string]*mappedSource),
	}
}

type sourceCacheImpl struct {
	config *SourceCacheConfig
	logger *slog.Logger

	entries map[string]*mappedSource // absolute path -> mapping
	mu      sync.Mutex

	stats   SourceCacheStats
	statsMu sync.Mutex
}

func (sc *sourceCacheImpl) Read(filePath string) ([]byte, error) {
	key, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", filePath, err)
	}

	stat, err := os.Stat(key)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file %q: %w", filePath, err)
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	if entry, ok := sc.entries[key]; ok {
		if entry.size == stat.Size() && entry.modTime.Equal(stat.ModTime()) {
			sc.record(func(s *SourceCacheStats) { s.CacheHits++ })
			return cloneBytes(entry.bytes()), nil
		}
		// Stale mapping: the file changed since it was mapped.
		if err := entry.release(); err != nil {
			sc.logger.Warn("failed to release stale mapping", "path", key, "error", err)
		}
		delete(sc.entries, key)
	}

	sc.record(func(s *SourceCacheStats) { s.CacheMisses++ })

	if sc.config.MaxFiles > 0 && len(sc.entries) >= sc.config.MaxFiles {
		return nil, fmt.Errorf("source cache limit reached: %d files (limit: %d files)",
			len(sc.entries), sc.config.MaxFiles)
	}

	entry, err := sc.load(key)
	if err != nil {
		return nil, err
	}
	sc.entries[key] = entry
	sc.record(func(s *SourceCacheStats) { s.FilesLoaded++ })

	return cloneBytes(entry.bytes()), nil
}

// load maps path read-only, falling back to os.ReadFile if mmap fails.
// Must be called while holding mu.
func (sc *sourceCacheImpl) load(path string) (*mappedSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %q: %w", path, err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat file %q: %w", path, err)
	}

	// Zero-length files cannot be mapped.
	if stat.Size() == 0 {
		file.Close()
		return &mappedSource{modTime: stat.ModTime()}, nil
	}

	data, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		sc.logger.Warn("mmap failed, using fallback",
			"file", path,
			"size", stat.Size(),
			"error", err)
		file.Close()

		raw, readErr := os.ReadFile(path)
		if readErr != nil {
			return nil, fmt.Errorf("mmap failed and fallback failed for %q: mmap error: %v, read error: %w",
				path, err, readErr)
		}
		sc.record(func(s *SourceCacheStats) { s.MmapFailures++ })
		return &mappedSource{copy: raw, size: stat.Size(), modTime: stat.ModTime()}, nil
	}

	return &mappedSource{
		data:    data,
		file:    file,
		size:    stat.Size(),
		modTime: stat.ModTime(),
	}, nil
}

func (sc *sourceCacheImpl) Invalidate(filePath string) {
	key, err := filepath.Abs(filePath)
	if err != nil {
		return
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	entry, ok := sc.entries[key]
	if !ok {
		return
	}
	if err := entry.release(); err != nil {
		sc.logger.Warn("failed to release mapping", "path", key, "error", err)
	}
	delete(sc.entries, key)
	sc.record(func(s *SourceCacheStats) { s.Invalidations++ })
}

func (sc *sourceCacheImpl) Size() int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return len(sc.entries)
}

func (sc *sourceCacheImpl) Stats() SourceCacheStats {
	sc.mu.Lock()
	cached := len(sc.entries)
	sc.mu.Unlock()

	sc.statsMu.Lock()
	defer sc.statsMu.Unlock()
	stats := sc.stats
	stats.FilesCached = cached
	return stats
}

func (sc *sourceCacheImpl) Close() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	var errs []error
	for path, entry := range sc.entries {
		if err := entry.release(); err != nil {
			errs = append(errs, fmt.Errorf("%q: %w", path, err))
		}
	}
	sc.entries = make(map[string]*mappedSource)

	sc.statsMu.Lock()
	sc.logger.Debug("source cache closed",
		"files_loaded", sc.stats.FilesLoaded,
		"cache_hits", sc.stats.CacheHits)
	sc.statsMu.Unlock()

	return errors.Join(errs...)
}

// cloneBytes copies b, returning an empty non-nil slice for empty input.
func cloneBytes(b []byte) []byte {
	out := bytes.Clone(b)
	if out == nil {
		out = []byte{}
	}
	return out
}

func (sc *sourceCacheImpl) record(update func(*SourceCacheStats)) {
	sc.statsMu.Lock()
	update(&sc.stats)
	sc.statsMu.Unlock()
}
