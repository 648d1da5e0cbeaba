package nagcore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Add implements spec §4.8's add(path): if path no longer exists on disk,
// it stages the deletion by dropping the matching index entry; otherwise it
// consults the Ignore Oracle, recurses into directories, and for each file
// hashes the content, stores the blob, and update-or-inserts an index
// entry.
func Add(h *RepoHandle, store *ObjectStore, oracle IgnoreOracle, path string) error {
	entries, err := ReadIndex(h)
	if err != nil {
		return fmt.Errorf("Add(%s): %w", path, err)
	}

	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(h.Root, path)
	}

	entries, err = addWalk(h, store, oracle, abs, entries)
	if err != nil {
		return fmt.Errorf("Add(%s): %w", path, err)
	}

	if err := WriteIndex(h, entries); err != nil {
		return fmt.Errorf("Add(%s): %w", path, err)
	}
	return nil
}

func relFromRoot(h *RepoHandle, abs string) string {
	rel, err := filepath.Rel(h.Root, abs)
	if err != nil {
		rel = abs
	}
	return normalizeScanPath(rel)
}

func addWalk(h *RepoHandle, store *ObjectStore, oracle IgnoreOracle, abs string, entries []IndexEntry) ([]IndexEntry, error) {
	info, err := os.Lstat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			rel := relFromRoot(h, abs)
			return removeEntry(entries, rel), nil
		}
		return nil, err
	}

	rel := relFromRoot(h, abs)
	if rel == MetaDirName || strings.HasPrefix(rel, MetaDirName+"/") {
		return entries, nil
	}

	if info.IsDir() {
		if oracle.ShouldIgnore(rel, true) {
			return entries, nil
		}
		children, err := os.ReadDir(abs)
		if err != nil {
			return nil, err
		}
		for _, child := range children {
			entries, err = addWalk(h, store, oracle, filepath.Join(abs, child.Name()), entries)
			if err != nil {
				return nil, err
			}
		}
		return entries, nil
	}

	if oracle.ShouldIgnore(rel, false) {
		return entries, nil
	}
	if !info.Mode().IsRegular() {
		return entries, nil
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, err
	}
	oid := HashBytes(data)
	if err := store.Put(oid, data); err != nil {
		return nil, err
	}

	mode := ModeFile
	if info.Mode()&0o111 != 0 {
		mode = ModeExecutable
	}

	return upsertClean(entries, rel, oid, mode), nil
}
