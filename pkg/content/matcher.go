// Package content decides which project files the theme's content globs
// select, and walks a project tree to list them.
package content

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/bmatcuk/doublestar/v4"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of path answers a Matcher remembers.
const DefaultCacheSize = 4096

// ErrInvalidPattern reports a glob that doublestar cannot compile.
var ErrInvalidPattern = errors.New("invalid glob pattern")

// MatcherConfig configures a Matcher.
type MatcherConfig struct {
	// Base is the directory relative patterns are anchored at. Absolute
	// paths passed to Match are made relative to it. Empty means paths are
	// taken as given.
	Base string

	// CacheSize bounds the answer cache. Zero selects DefaultCacheSize.
	CacheSize int
}

// Matcher answers whether a path is selected by a set of content globs.
//
// Patterns follow doublestar semantics: "*" stays within one path segment,
// "**" crosses segments and "{a,b}" lists alternatives. A leading "./" is
// ignored and a leading "!" turns the pattern into an exclusion.
//
// A Matcher never changes its patterns after construction. The answer cache
// is internally synchronized, so a Matcher may be shared across goroutines.
type Matcher struct {
	patterns []string
	include  []string
	exclude  []string
	base     string

	cache  *lru.Cache[string, bool]
	hits   atomic.Int64
	misses atomic.Int64
}

// MatcherStats reports answer cache usage.
type MatcherStats struct {
	Patterns    int   `json:"patterns"`
	CachedPaths int   `json:"cached_paths"`
	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`
}

// ValidatePattern checks one content glob.
func ValidatePattern(pattern string) error {
	p, _ := normalizePattern(pattern)
	if p == "" {
		return fmt.Errorf("%w: empty pattern", ErrInvalidPattern)
	}
	if !doublestar.ValidatePattern(p) {
		return fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
	}
	return nil
}

// NewMatcher compiles patterns into a Matcher. Every invalid pattern is
// reported.
func NewMatcher(patterns []string, config MatcherConfig) (*Matcher, error) {
	var errs []error
	m := &Matcher{
		patterns: append([]string(nil), patterns...),
	}

	for _, raw := range patterns {
		if err := ValidatePattern(raw); err != nil {
			errs = append(errs, err)
			continue
		}
		p, negated := normalizePattern(raw)
		if negated {
			m.exclude = append(m.exclude, p)
		} else {
			m.include = append(m.include, p)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if config.Base != "" {
		base, err := filepath.Abs(config.Base)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve base %q: %w", config.Base, err)
		}
		m.base = filepath.ToSlash(base)
	}

	size := config.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, bool](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create match cache: %w", err)
	}
	m.cache = cache

	return m, nil
}

// Patterns returns the patterns as declared.
func (m *Matcher) Patterns() []string {
	return append([]string(nil), m.patterns...)
}

// Match reports whether p is selected: at least one include pattern matches
// and no exclusion does.
func (m *Matcher) Match(p string) bool {
	rel, abs := m.normalizePath(p)
	key := rel + "\x00" + abs

	if v, ok := m.cache.Get(key); ok {
		m.hits.Add(1)
		return v
	}
	m.misses.Add(1)

	matched := m.matchAny(m.include, rel, abs) && !m.matchAny(m.exclude, rel, abs)
	m.cache.Add(key, matched)
	return matched
}

// Excluded reports whether an exclusion pattern matches p. Discovery uses it
// to prune whole directories.
func (m *Matcher) Excluded(p string) bool {
	rel, abs := m.normalizePath(p)
	return m.matchAny(m.exclude, rel, abs)
}

// Stats returns cache statistics.
func (m *Matcher) Stats() MatcherStats {
	return MatcherStats{
		Patterns:    len(m.patterns),
		CachedPaths: m.cache.Len(),
		CacheHits:   m.hits.Load(),
		CacheMisses: m.misses.Load(),
	}
}

func (m *Matcher) matchAny(patterns []string, rel, abs string) bool {
	for _, pattern := range patterns {
		name := rel
		if path.IsAbs(pattern) {
			if abs == "" {
				continue
			}
			name = abs
		}
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

// normalizePath returns the slash-separated form of p relative to the base,
// and its absolute form when one can be derived.
func (m *Matcher) normalizePath(p string) (rel, abs string) {
	p = filepath.ToSlash(p)

	if path.IsAbs(p) {
		abs = path.Clean(p)
		if m.base != "" {
			if r, ok := relativeTo(m.base, abs); ok {
				return r, abs
			}
			// Outside the base: "../shared/a.html" still meets "../shared/**" patterns.
			if r, err := filepath.Rel(filepath.FromSlash(m.base), filepath.FromSlash(abs)); err == nil {
				return filepath.ToSlash(r), abs
			}
		}
		return abs, abs
	}

	rel = cleanRelative(p)
	if m.base != "" {
		abs = path.Join(m.base, rel)
	}
	return rel, abs
}

func relativeTo(base, abs string) (string, bool) {
	if abs == base {
		return "", true
	}
	prefix := strings.TrimSuffix(base, "/") + "/"
	if !strings.HasPrefix(abs, prefix) {
		return "", false
	}
	return strings.TrimPrefix(abs, prefix), true
}

func cleanRelative(p string) string {
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	if p == "" || p == "." {
		return ""
	}
	return path.Clean(p)
}

func normalizePattern(raw string) (pattern string, negated bool) {
	pattern = strings.TrimSpace(raw)
	if strings.HasPrefix(pattern, "!") {
		negated = true
		pattern = strings.TrimSpace(pattern[1:])
	}
	pattern = filepath.ToSlash(pattern)
	if path.IsAbs(pattern) {
		return pattern, negated
	}
	return cleanRelative(pattern), negated
}
