package document

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

const tempPrefix = "qrlabels-"

// CleanupStale removes label dirs left in the system temp dir by runs that
// were killed before their deferred cleanup ran, if older than maxAge and
// owned by the current user. A non-positive maxAge disables the sweep.
func CleanupStale(maxAge time.Duration) int {
	if maxAge <= 0 {
		return 0
	}
	dir := os.TempDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	now := time.Now()
	removed := 0
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), tempPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if !ownedByCurrentUser(info) {
			continue
		}
		if now.Sub(info.ModTime()) >= maxAge {
			if os.RemoveAll(filepath.Join(dir, e.Name())) == nil {
				removed++
			}
		}
	}
	return removed
}
