package nagcore

import (
	"fmt"
	"os"
	"path/filepath"
)

// Checkout implements spec §4.8's checkout(branch): refuses on a dirty
// working tree, then wipes every working-tree entry except the metadata
// directory and materializes the target branch's tree, rewriting the index
// to match and pointing HEAD symbolically at branch. Re-implementations may
// want a smarter diff-then-apply strategy (spec §9's open question); this
// one wipes unconditionally, matching the documented source behavior.
func Checkout(h *RepoHandle, store *ObjectStore, oracle IgnoreOracle, branch string) error {
	status, err := Status(h, store, oracle)
	if err != nil {
		return fmt.Errorf("Checkout(%s): %w", branch, err)
	}
	if !status.IsClean() {
		return fmt.Errorf("Checkout(%s): %w", branch, ErrDirtyWorkingTree)
	}

	branchOID, err := ReadRef(h, "refs/heads/"+branch)
	if err != nil {
		return fmt.Errorf("Checkout(%s): %w", branch, ErrNotFound)
	}
	if branchOID == "" {
		return fmt.Errorf("Checkout(%s): branch has no commits: %w", branch, ErrNotFound)
	}

	treeOID, err := CommitTree(store, branchOID)
	if err != nil {
		return fmt.Errorf("Checkout(%s): %w", branch, err)
	}

	index, err := ReadTreeToIndex(store, treeOID)
	if err != nil {
		return fmt.Errorf("Checkout(%s): %w", branch, err)
	}

	if err := wipeWorkingTree(h); err != nil {
		return fmt.Errorf("Checkout(%s): %w", branch, err)
	}

	if err := materializeIndex(h, store, index); err != nil {
		return fmt.Errorf("Checkout(%s): %w", branch, err)
	}

	if err := WriteIndex(h, index); err != nil {
		return fmt.Errorf("Checkout(%s): %w", branch, err)
	}

	if err := SetHeadSymbolic(h, branch); err != nil {
		return fmt.Errorf("Checkout(%s): %w", branch, err)
	}

	return nil
}

func wipeWorkingTree(h *RepoHandle) error {
	children, err := os.ReadDir(h.Root)
	if err != nil {
		return err
	}
	for _, c := range children {
		if c.Name() == MetaDirName {
			continue
		}
		if err := os.RemoveAll(filepath.Join(h.Root, c.Name())); err != nil {
			return err
		}
	}
	return nil
}

func materializeIndex(h *RepoHandle, store *ObjectStore, index []IndexEntry) error {
	for _, e := range index {
		if e.Mode == ModeDir || len(e.OIDs) == 0 {
			continue
		}
		dest := filepath.Join(h.Root, filepath.FromSlash(e.Path))
		if parent := filepath.Dir(dest); parent != "" {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return err
			}
		}
		data, err := store.Get(e.OIDs[0])
		if err != nil {
			return err
		}
		perm := os.FileMode(0o644)
		if e.Mode == ModeExecutable {
			perm = 0o755
		}
		if err := os.WriteFile(dest, data, perm); err != nil {
			return err
		}
	}
	return nil
}
