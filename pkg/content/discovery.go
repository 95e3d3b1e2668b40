package content

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
)

// skippedDirs are never descended into, whatever the globs say.
var skippedDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	".hg":          true,
	".svn":         true,
	".next":        true,
	".cache":       true,
}

// DiscoverFiles walks rootDir and returns the files m selects, as sorted
// absolute paths. Paths are matched relative to rootDir.
func DiscoverFiles(rootDir string, m *Matcher) ([]string, error) {
	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path: %w", err)
	}

	var files []string

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Continue walking on errors.
		}

		relPath, err := filepath.Rel(absRoot, path)
		if err != nil {
			relPath = path
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if path != absRoot && (skippedDirs[d.Name()] || m.Excluded(relPath)) {
				return filepath.SkipDir
			}
			return nil
		}

		if m.Match(relPath) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}
