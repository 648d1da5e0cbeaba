package nagcore

import (
	"fmt"
	"os"
	"path/filepath"
)

// Resolve implements spec §4.8's resolve(path): hash the working-tree bytes
// at path, store the blob, and replace the matching index entry's OIDs with
// [newOID], clearing its conflict state. ErrNotFound if no index entry
// matches path.
func Resolve(h *RepoHandle, store *ObjectStore, path string) error {
	entries, err := ReadIndex(h)
	if err != nil {
		return fmt.Errorf("Resolve(%s): %w", path, err)
	}

	entry := findEntry(entries, path)
	if entry == nil {
		return fmt.Errorf("Resolve(%s): %w", path, ErrNotFound)
	}

	data, err := os.ReadFile(filepath.Join(h.Root, filepath.FromSlash(path)))
	if err != nil {
		return fmt.Errorf("Resolve(%s): %w", path, err)
	}

	oid, err := store.PutHashed(data)
	if err != nil {
		return fmt.Errorf("Resolve(%s): %w", path, err)
	}

	entry.OIDs = []string{oid}
	entry.Type = EntryClean

	if err := WriteIndex(h, entries); err != nil {
		return fmt.Errorf("Resolve(%s): %w", path, err)
	}
	return nil
}
