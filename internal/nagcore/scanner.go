package nagcore

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ScanEntry is one surviving regular file discovered by the Working-Tree
// Scanner: its repo-relative, forward-slash-normalized path and the blob
// OID of its current on-disk content.
type ScanEntry struct {
	Path string
	OID  string
}

// ScanWorkingTree walks h.Root, skips the metadata directory, consults
// oracle for every file and directory, and returns (oid, path) for every
// surviving regular file. Directories rejected by the oracle are pruned
// entirely (their contents are never visited).
func ScanWorkingTree(h *RepoHandle, oracle IgnoreOracle) ([]ScanEntry, error) {
	var entries []ScanEntry

	err := filepath.WalkDir(h.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == h.Root {
			return nil
		}

		rel, err := filepath.Rel(h.Root, path)
		if err != nil {
			return err
		}
		rel = normalizeScanPath(rel)

		if d.IsDir() {
			if d.Name() == MetaDirName && filepath.Dir(path) == h.Root {
				return filepath.SkipDir
			}
			if oracle.ShouldIgnore(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}
		if oracle.ShouldIgnore(rel, false) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("ScanWorkingTree: reading %s: %w", path, err)
		}

		entries = append(entries, ScanEntry{Path: rel, OID: HashBytes(data)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ScanWorkingTree: %w", err)
	}
	return entries, nil
}

// normalizeScanPath replaces OS path separators with "/" and strips a
// leading "./".
func normalizeScanPath(p string) string {
	p = filepath.ToSlash(p)
	p = strings.TrimPrefix(p, "./")
	return p
}
