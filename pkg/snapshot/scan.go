package snapshot

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Entry is one snapshot candidate found directly under the root directory.
type Entry struct {
	// Name is the bare directory entry name.
	Name string

	// Path is the entry joined onto the root it was found under.
	Path string
}

// Scan lists the immediate child directories of root. It looks exactly one
// level deep, never recursing, and excludes anything that is not a directory.
// Enumeration order is whatever the filesystem reports; callers must not
// assume any ordering.
//
// Individual entries that cannot be classified are skipped with a debug log
// rather than aborting the scan: one unreadable entry must not block work on
// the rest.
func Scan(root string, log *slog.Logger) ([]Entry, error) {
	dirents, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("scanning %q: %w", root, err)
	}

	entries := make([]Entry, 0, len(dirents))
	for _, d := range dirents {
		if !d.IsDir() {
			log.Debug("skipping non-directory entry", "entry", d.Name())
			continue
		}
		entries = append(entries, Entry{
			Name: d.Name(),
			Path: filepath.Join(root, d.Name()),
		})
	}
	return entries, nil
}
