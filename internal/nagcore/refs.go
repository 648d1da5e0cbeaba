package nagcore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// headsPrefix is prepended to any ref name that isn't already namespaced
// under "refs/", matching spec §4.2's implicit-prefix rule.
const headsPrefix = "refs/heads/"

// qualifyRef implicitly prefixes a bare branch name with refs/heads/.
func qualifyRef(name string) string {
	if strings.HasPrefix(name, "refs/") {
		return name
	}
	return headsPrefix + name
}

func refFilePath(h *RepoHandle, name string) string {
	return filepath.Join(h.MetaDir, filepath.FromSlash(qualifyRef(name)))
}

// ReadRef returns the trimmed OID stored under name (implicitly qualified
// under refs/heads/ if bare). A missing ref file is ErrNotFound.
func ReadRef(h *RepoHandle, name string) (string, error) {
	data, err := os.ReadFile(refFilePath(h, name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("ReadRef(%s): %w", name, ErrNotFound)
		}
		return "", fmt.Errorf("ReadRef(%s): %w", name, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// UpdateRef writes oid under name, creating parent directories as needed.
// UpdateRef never validates that oid names an object that actually exists
// in the Object Store — ordering that is the caller's responsibility
// (commit and merge write objects before advancing refs).
func UpdateRef(h *RepoHandle, name, oid string) error {
	path := refFilePath(h, name)
	if err := writeDurable(path, []byte(oid+"\n")); err != nil {
		return fmt.Errorf("UpdateRef(%s): %w", name, err)
	}
	return nil
}

// DeleteRef removes the ref file for name.
func DeleteRef(h *RepoHandle, name string) error {
	path := refFilePath(h, name)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("DeleteRef(%s): %w", name, ErrNotFound)
		}
		return fmt.Errorf("DeleteRef(%s): %w", name, err)
	}
	return nil
}

// ListRefs recursively walks the namespace rooted at prefix (e.g.
// "refs/heads" or "refs/tags") and returns the full nested ref names (using
// "/" as separator), case-insensitively sorted.
func ListRefs(h *RepoHandle, prefix string) ([]string, error) {
	root := filepath.Join(h.MetaDir, filepath.FromSlash(prefix))
	var names []string

	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return names, nil
		}
		return nil, fmt.Errorf("ListRefs(%s): %w", prefix, err)
	}
	if !info.IsDir() {
		return names, nil
	}

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ListRefs(%s): %w", prefix, err)
	}

	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
	return names, nil
}

// ResolveHead reads HEAD and reports either the currently attached branch
// (and its OID), or, for a detached HEAD, (nil, oid).
func ResolveHead(h *RepoHandle) (branch *string, oid string, err error) {
	data, err := os.ReadFile(filepath.Join(h.MetaDir, "HEAD"))
	if err != nil {
		return nil, "", fmt.Errorf("ResolveHead: %w", ErrNotFound)
	}
	content := strings.TrimSpace(string(data))

	if rest, ok := strings.CutPrefix(content, "ref: "); ok {
		refName := strings.TrimSpace(rest)
		resolved, err := ReadRef(h, refName)
		if err != nil {
			return nil, "", fmt.Errorf("ResolveHead: %w", err)
		}
		name := strings.TrimPrefix(refName, headsPrefix)
		return &name, resolved, nil
	}

	return nil, content, nil
}

// headBranchRefName returns the fully-qualified ref name HEAD currently
// points at, failing with ErrDetachedHeadForbidden if HEAD is detached.
func headBranchRefName(h *RepoHandle) (string, error) {
	data, err := os.ReadFile(filepath.Join(h.MetaDir, "HEAD"))
	if err != nil {
		return "", fmt.Errorf("headBranchRefName: %w", ErrNotFound)
	}
	content := strings.TrimSpace(string(data))
	rest, ok := strings.CutPrefix(content, "ref: ")
	if !ok {
		return "", fmt.Errorf("headBranchRefName: %w", ErrDetachedHeadForbidden)
	}
	return strings.TrimSpace(rest), nil
}

// SetHeadSymbolic points HEAD at branch, asserting the branch ref exists.
func SetHeadSymbolic(h *RepoHandle, branch string) error {
	refName := qualifyRef(branch)
	if _, err := os.Stat(refFilePath(h, refName)); err != nil {
		return fmt.Errorf("SetHeadSymbolic(%s): %w", branch, ErrNotFound)
	}
	headPath := filepath.Join(h.MetaDir, "HEAD")
	if err := writeDurable(headPath, []byte(fmt.Sprintf("ref: %s\n", refName))); err != nil {
		return fmt.Errorf("SetHeadSymbolic(%s): %w", branch, err)
	}
	return nil
}

// SetHeadDetached points HEAD directly at oid, asserting the commit object
// exists.
func SetHeadDetached(h *RepoHandle, store *ObjectStore, oid string) error {
	if !store.Exists(oid) {
		return fmt.Errorf("SetHeadDetached(%s): %w", oid, ErrNotFound)
	}
	headPath := filepath.Join(h.MetaDir, "HEAD")
	if err := writeDurable(headPath, []byte(oid+"\n")); err != nil {
		return fmt.Errorf("SetHeadDetached(%s): %w", oid, err)
	}
	return nil
}
