package nagcore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// MetaDirName is the name of the repository metadata directory. The source
// this spec was distilled from calls it ".nag"; an implementer is free to
// choose any name, but this one is kept for on-disk compatibility with that
// source.
const MetaDirName = ".nag"

// RepoHandle is an owned reference to an initialized repository: the
// absolute working-tree root and its metadata directory. Every core
// operation takes a *RepoHandle explicitly rather than rediscovering the
// repository root from the process's current working directory — the
// re-architecture spec.md §9 calls for in place of the original's ambient
// CWD-walk. Only a thin discovery helper (DiscoverRepo) performs that walk,
// and it does so once, at a program's entry point, to produce the handle.
type RepoHandle struct {
	Root    string // absolute path to the working tree root
	MetaDir string // absolute path to Root/.nag
}

func newHandle(root string) *RepoHandle {
	return &RepoHandle{Root: root, MetaDir: filepath.Join(root, MetaDirName)}
}

// DiscoverRepo walks upward from startDir looking for a MetaDirName
// directory, exactly as the original source's find_repo_root does. This is
// the one place in the module allowed to consult an ambient starting point;
// every operation from here on takes the resulting handle explicitly.
func DiscoverRepo(startDir string) (*RepoHandle, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return nil, fmt.Errorf("DiscoverRepo: %w", err)
	}

	dir := abs
	for {
		if info, err := os.Stat(filepath.Join(dir, MetaDirName)); err == nil && info.IsDir() {
			return newHandle(dir), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, fmt.Errorf("DiscoverRepo: not a repository (or any parent up to %s): %w", abs, ErrNotFound)
		}
		dir = parent
	}
}

// Open constructs a handle for a known repository root without walking the
// filesystem, validating that root/.nag/HEAD exists.
func Open(root string) (*RepoHandle, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("Open: %w", err)
	}
	h := newHandle(abs)
	if _, err := os.Stat(filepath.Join(h.MetaDir, "HEAD")); err != nil {
		return nil, fmt.Errorf("Open %s: %w", root, ErrNotFound)
	}
	return h, nil
}

// Init establishes the repository skeleton at root: the metadata directory,
// the object directory, refs/heads, refs/tags, refs/remotes, an empty main
// branch file, and HEAD pointing symbolically at main.
//
// Init is idempotent: if the repository is already initialized, it reports
// reinitialized=true and leaves HEAD and the main ref file untouched.
func Init(root string) (h *RepoHandle, reinitialized bool, err error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, false, fmt.Errorf("Init: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, false, fmt.Errorf("Init: %w", err)
	}

	h = newHandle(abs)

	if info, err := os.Stat(h.MetaDir); err == nil && info.IsDir() {
		// Already initialized: ensure the skeleton is complete but never
		// touch HEAD or an existing main ref.
		for _, dir := range []string{"objects", "refs/heads", "refs/tags", "refs/remotes"} {
			if err := os.MkdirAll(filepath.Join(h.MetaDir, dir), 0o755); err != nil {
				return nil, false, fmt.Errorf("Init: %w", err)
			}
		}
		return h, true, nil
	}

	for _, dir := range []string{"objects", "refs/heads", "refs/tags", "refs/remotes"} {
		if err := os.MkdirAll(filepath.Join(h.MetaDir, dir), 0o755); err != nil {
			return nil, false, fmt.Errorf("Init: %w", err)
		}
	}

	mainRef := filepath.Join(h.MetaDir, "refs", "heads", "main")
	if err := writeDurable(mainRef, []byte{}); err != nil {
		return nil, false, fmt.Errorf("Init: writing main ref: %w", err)
	}

	headPath := filepath.Join(h.MetaDir, "HEAD")
	if err := writeDurable(headPath, []byte("ref: refs/heads/main\n")); err != nil {
		return nil, false, fmt.Errorf("Init: writing HEAD: %w", err)
	}

	return h, false, nil
}

// ApplyDefaultBranch renames the skeleton "main" branch Init always creates
// to name. Init itself keeps "main" as its literal default per spec §4.8;
// this is the narrow exception spec §2's Ambient Stack carves out for
// cmd/nag's thin CLI wrapper, which reads config.toml's init.default_branch
// after Init has run and may rename the still-commit-less main branch before
// the user stages anything. A no-op for an empty or "main" name, and also a
// no-op (returning nil, leaving main in place) if main already has a commit;
// fails with ErrAlreadyExists if a branch called name already exists.
func ApplyDefaultBranch(h *RepoHandle, name string) error {
	if name == "" || name == "main" {
		return nil
	}
	mainOID, err := ReadRef(h, "refs/heads/main")
	if err != nil {
		return fmt.Errorf("ApplyDefaultBranch(%s): %w", name, err)
	}
	if mainOID != "" {
		return nil
	}
	if _, err := ReadRef(h, "refs/heads/"+name); err == nil {
		return fmt.Errorf("ApplyDefaultBranch(%s): %w", name, ErrAlreadyExists)
	}
	if err := UpdateRef(h, "refs/heads/"+name, ""); err != nil {
		return fmt.Errorf("ApplyDefaultBranch(%s): %w", name, err)
	}
	if err := DeleteRef(h, "refs/heads/main"); err != nil {
		return fmt.Errorf("ApplyDefaultBranch(%s): %w", name, err)
	}
	return SetHeadSymbolic(h, name)
}

// writeDurable implements the crash-safety discipline shared by the Object
// Store, the Ref Store, the Index, and HEAD: write to a per-process,
// randomly-suffixed temp file in the same directory, fsync the file, rename
// it into place (atomic on POSIX filesystems), then fsync the enclosing
// directory so the rename itself survives a crash. A UUIDv4 suffix
// (google/uuid) replaces the PID+random suffix the original source used for
// the same collision-free purpose.
func writeDurable(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("writeDurable: %w", err)
	}

	tmpPath := filepath.Join(dir, fmt.Sprintf(".tmp.%s", uuid.NewString()))

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("writeDurable: creating temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writeDurable: writing temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writeDurable: fsync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writeDurable: closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writeDurable: rename into place: %w", err)
	}

	if err := fsyncDir(dir); err != nil {
		return fmt.Errorf("writeDurable: fsync directory: %w", err)
	}

	return nil
}

// fsyncDir fsyncs a directory so that a preceding rename within it is
// durable across a crash. On platforms where opening a directory for fsync
// is not meaningful, the error is treated as non-fatal.
func fsyncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		return err
	}
	return nil
}
