package nagcore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ObjectStore is the durable, deduplicating, content-addressed repository of
// blob/tree/commit/annotated-tag payloads, keyed by OID in a flat directory.
// Object kind is never stored: it is inferred by the caller from context
// (which operation asked for it) and the payload's own shape, never from a
// header byte or file extension.
type ObjectStore struct {
	dir string
}

// NewObjectStore returns the object store rooted at h's metadata directory.
func NewObjectStore(h *RepoHandle) *ObjectStore {
	return &ObjectStore{dir: filepath.Join(h.MetaDir, "objects")}
}

func (s *ObjectStore) path(oid string) string {
	return filepath.Join(s.dir, oid)
}

// Put writes data under oid. If oid is already present, Put is a no-op:
// objects are never overwritten, so the fast path for re-adding identical
// content is simply "exists? return". Two concurrent writers of the same
// content race harmlessly — the first rename wins and the second either
// renames over identical bytes or finds the target already exists.
func (s *ObjectStore) Put(oid string, data []byte) error {
	if s.Exists(oid) {
		return nil
	}
	if err := writeDurable(s.path(oid), data); err != nil {
		return fmt.Errorf("ObjectStore.Put(%s): %w", oid, err)
	}
	return nil
}

// Get reads the entire payload stored under oid. A missing object surfaces
// as ErrNotFound.
func (s *ObjectStore) Get(oid string) ([]byte, error) {
	data, err := os.ReadFile(s.path(oid))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("ObjectStore.Get(%s): %w", oid, ErrNotFound)
		}
		return nil, fmt.Errorf("ObjectStore.Get(%s): %w", oid, err)
	}
	return data, nil
}

// Exists reports whether oid is present in the store.
func (s *ObjectStore) Exists(oid string) bool {
	_, err := os.Stat(s.path(oid))
	return err == nil
}

// PutHashed hashes data with HashBytes, stores it, and returns the OID. This
// is the put-then-name pattern add() and commit() both use.
func (s *ObjectStore) PutHashed(data []byte) (string, error) {
	oid := HashBytes(data)
	if err := s.Put(oid, data); err != nil {
		return "", err
	}
	return oid, nil
}
