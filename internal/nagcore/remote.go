package nagcore

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
)

func remotePath(h *RepoHandle, name string) string {
	return filepath.Join(h.MetaDir, "remotes", name)
}

// AddRemote validates that url points at a repository (its .nag directory
// has refs/heads, objects, and HEAD) and records the url under
// remotes/<name>.
func AddRemote(h *RepoHandle, name, url string) error {
	remoteMeta := filepath.Join(url, MetaDirName)
	for _, required := range []string{"refs/heads", "objects", "HEAD"} {
		if _, err := os.Stat(filepath.Join(remoteMeta, required)); err != nil {
			return fmt.Errorf("AddRemote(%s): %s is not a repository: %w", name, url, ErrNotFound)
		}
	}
	if err := writeDurable(remotePath(h, name), []byte(url+"\n")); err != nil {
		return fmt.Errorf("AddRemote(%s): %w", name, err)
	}
	return nil
}

// RemoveRemote deletes remotes/<name>.
func RemoveRemote(h *RepoHandle, name string) error {
	path := remotePath(h, name)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("RemoveRemote(%s): %w", name, ErrNotFound)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("RemoveRemote(%s): %w", name, err)
	}
	return nil
}

// Fetch copies, for every branch ref in the named remote, the transitively
// reachable commit/tree/blob graph into the local object store (skipping
// objects already present), then updates refs/remotes/<name>/<branch> to the
// fetched tip. Fetch is idempotent: re-running when the remote graph has not
// grown adds no new objects.
//
// A single missing or unreadable object does not abort the whole fetch:
// every per-object failure is accumulated with go.uber.org/multierr and
// surfaced once, after every other object has still been copied.
func Fetch(h *RepoHandle, localStore *ObjectStore, name string) error {
	data, err := os.ReadFile(remotePath(h, name))
	if err != nil {
		return fmt.Errorf("Fetch(%s): %w", name, ErrNotFound)
	}
	remoteURL := string(data)
	remoteURL = trimNewline(remoteURL)

	remoteHandle, err := Open(remoteURL)
	if err != nil {
		return fmt.Errorf("Fetch(%s): %w", name, err)
	}
	remoteStore := NewObjectStore(remoteHandle)

	branches, err := ListRefs(remoteHandle, "refs/heads")
	if err != nil {
		return fmt.Errorf("Fetch(%s): %w", name, err)
	}

	var errs error
	for _, branch := range branches {
		tip, err := ReadRef(remoteHandle, "refs/heads/"+branch)
		if err != nil || tip == "" {
			errs = multierr.Append(errs, fmt.Errorf("Fetch(%s): reading remote branch %s: %w", name, branch, err))
			continue
		}

		if err := copyReachable(remoteStore, localStore, tip); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("Fetch(%s): copying %s: %w", name, branch, err))
			continue
		}

		if err := UpdateRef(h, fmt.Sprintf("refs/remotes/%s/%s", name, branch), tip); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}

// copyReachable copies commitOID and everything it transitively references
// (parents, trees, blobs) from src into dst, skipping objects dst already
// has.
func copyReachable(src, dst *ObjectStore, commitOID string) error {
	visited := map[string]bool{}
	var errs error

	var walkCommit func(oid string)
	var walkTree func(oid string)

	walkTree = func(oid string) {
		if oid == "" || visited[oid] {
			return
		}
		visited[oid] = true

		data, err := copyObject(src, dst, oid)
		if err != nil {
			errs = multierr.Append(errs, err)
			return
		}

		// Parse rows directly rather than reusing ReadTreeToIndex, since
		// that helper reads subtrees from its own store (which may not yet
		// have this tree's children) rather than from src.
		rows, err := parseTreeRows(data)
		if err != nil {
			errs = multierr.Append(errs, err)
			return
		}
		for _, row := range rows {
			switch row.Mode {
			case ModeDir:
				walkTree(row.OID)
			case ModeFile, ModeExecutable:
				if !visited[row.OID] {
					visited[row.OID] = true
					if _, err := copyObject(src, dst, row.OID); err != nil {
						errs = multierr.Append(errs, err)
					}
				}
			}
		}
	}

	walkCommit = func(oid string) {
		if oid == "" || visited[oid] {
			return
		}
		visited[oid] = true

		data, err := copyObject(src, dst, oid)
		if err != nil {
			errs = multierr.Append(errs, err)
			return
		}
		c, err := ParseCommit(data)
		if err != nil {
			errs = multierr.Append(errs, err)
			return
		}

		walkTree(c.Tree)
		for _, p := range c.Parents {
			walkCommit(p)
		}
	}

	walkCommit(commitOID)
	return errs
}

// copyObject returns the bytes of oid (reading from dst if already present,
// else from src, copying into dst in the latter case).
func copyObject(src, dst *ObjectStore, oid string) ([]byte, error) {
	if dst.Exists(oid) {
		return dst.Get(oid)
	}
	data, err := src.Get(oid)
	if err != nil {
		return nil, fmt.Errorf("copyObject(%s): %w", oid, err)
	}
	if err := dst.Put(oid, data); err != nil {
		return nil, fmt.Errorf("copyObject(%s): %w", oid, err)
	}
	return data, nil
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r' || s[len(s)-1] == ' ') {
		s = s[:len(s)-1]
	}
	return s
}
