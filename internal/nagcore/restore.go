package nagcore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Restore implements spec §4.8's restore(path): for every HEAD-tree entry
// whose path equals path or starts with "path/", recreate directories or
// write file contents from the corresponding blob. ErrNotFound if nothing
// matched.
func Restore(h *RepoHandle, store *ObjectStore, path string) error {
	_, headOID, err := ResolveHead(h)
	if err != nil {
		return fmt.Errorf("Restore(%s): %w", path, err)
	}
	if headOID == "" {
		return fmt.Errorf("Restore(%s): %w", path, ErrNotFound)
	}

	treeOID, err := CommitTree(store, headOID)
	if err != nil {
		return fmt.Errorf("Restore(%s): %w", path, err)
	}
	index, err := ReadTreeToIndex(store, treeOID)
	if err != nil {
		return fmt.Errorf("Restore(%s): %w", path, err)
	}

	restored := 0
	prefix := path + "/"

	for _, e := range index {
		if e.Path != path && !strings.HasPrefix(e.Path, prefix) {
			continue
		}

		dest := filepath.Join(h.Root, filepath.FromSlash(e.Path))

		if e.Mode == ModeDir {
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return fmt.Errorf("Restore(%s): %w", path, err)
			}
			continue
		}
		if len(e.OIDs) == 0 {
			continue
		}

		data, err := store.Get(e.OIDs[0])
		if err != nil {
			return fmt.Errorf("Restore(%s): %w", path, err)
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return fmt.Errorf("Restore(%s): %w", path, err)
		}
		perm := os.FileMode(0o644)
		if e.Mode == ModeExecutable {
			perm = 0o755
		}
		if err := os.WriteFile(dest, data, perm); err != nil {
			return fmt.Errorf("Restore(%s): %w", path, err)
		}
		restored++
	}

	if restored == 0 {
		return fmt.Errorf("Restore(%s): %w", path, ErrNotFound)
	}
	return nil
}
