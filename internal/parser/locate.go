package parser

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/samber/lo"
)

// LogExt is the extension of the assistant's append-only log files.
const LogExt = ".jsonl"

// DefaultRoots returns the conventional log locations. Roots that do
// not exist are skipped at locate time, so listing a legacy path here
// is harmless.
func DefaultRoots() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return []string{filepath.Join(".", ".claude", "projects")}
	}
	return []string{
		filepath.Join(home, ".claude", "projects"),
		filepath.Join(home, ".config", "claude", "projects"),
	}
}

// LocateLogs walks each root recursively and returns the absolute
// paths of all log files, lexicographically sorted and deduplicated.
// Missing or unreadable roots are skipped, never errors: an optional
// root that is absent is an expected condition. The deterministic
// ordering is what makes first-encountered-wins deduplication
// reproducible across runs.
func LocateLogs(roots []string) []string {
	if len(roots) == 0 {
		roots = DefaultRoots()
	}

	var paths []string
	for _, root := range roots {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil // skip unreadable entries
			}
			if d.IsDir() || filepath.Ext(path) != LogExt {
				return nil
			}
			if abs, err := filepath.Abs(path); err == nil {
				path = abs
			}
			paths = append(paths, path)
			return nil
		})
	}

	paths = lo.Uniq(paths)
	sort.Strings(paths)
	return paths
}
