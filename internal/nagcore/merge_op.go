package nagcore

import (
	"fmt"
	"os"
	"path/filepath"
)

// MergeResult reports what merge() actually did.
type MergeResult struct {
	FastForward   bool
	AlreadyUpToDate bool
	Conflicts     []string
}

// Merge implements spec §4.8's merge(targetBranch):
//  1. refuse if the working tree is dirty,
//  2. require HEAD to be attached,
//  3. if the target branch's tip equals HEAD's commit, report already up to
//     date,
//  4. classify HEAD against the target with the Ancestor Walker and either
//     fast-forward, no-op, three-way merge, or fail.
func Merge(h *RepoHandle, store *ObjectStore, oracle IgnoreOracle, targetBranch string) (*MergeResult, error) {
	status, err := Status(h, store, oracle)
	if err != nil {
		return nil, fmt.Errorf("Merge(%s): %w", targetBranch, err)
	}
	if !status.IsClean() {
		return nil, fmt.Errorf("Merge(%s): %w", targetBranch, ErrDirtyWorkingTree)
	}

	currentBranch, headOID, err := ResolveHead(h)
	if err != nil {
		return nil, fmt.Errorf("Merge(%s): %w", targetBranch, err)
	}
	if currentBranch == nil {
		return nil, fmt.Errorf("Merge(%s): %w", targetBranch, ErrDetachedHeadForbidden)
	}

	targetOID, err := ReadRef(h, "refs/heads/"+targetBranch)
	if err != nil {
		return nil, fmt.Errorf("Merge(%s): %w", targetBranch, ErrNotFound)
	}

	if targetOID == headOID {
		return &MergeResult{AlreadyUpToDate: true}, nil
	}

	classification, err := Classify(store, headOID, targetOID)
	if err != nil {
		return nil, fmt.Errorf("Merge(%s): %w", targetBranch, err)
	}

	switch classification.Relation {
	case RelDirect:
		// HEAD is an ancestor of the target: fast-forward. Per spec §5's
		// ordering (ref update, then HEAD swap, then working-tree checkout),
		// the branch ref already points at targetOID below before the
		// working tree catches up — so the working-tree materialization
		// below must not route through the guarded, user-facing Checkout:
		// that checks Status first, and Status would now compare the old
		// index/working tree against the already-advanced HEAD-tree and see
		// every changed path as Staged, misreporting a clean fast-forward as
		// a dirty tree.
		if err := UpdateRef(h, "refs/heads/"+*currentBranch, targetOID); err != nil {
			return nil, fmt.Errorf("Merge(%s): %w", targetBranch, err)
		}
		if err := fastForwardWorkingTree(h, store, targetOID); err != nil {
			return nil, fmt.Errorf("Merge(%s): %w", targetBranch, err)
		}
		return &MergeResult{FastForward: true}, nil

	case RelDirectReverse:
		return &MergeResult{AlreadyUpToDate: true}, nil

	case RelShared:
		return threeWayMergeOp(h, store, *currentBranch, headOID, targetOID, classification.Shared)

	default:
		return nil, fmt.Errorf("Merge(%s): %w", targetBranch, ErrNotFound)
	}
}

// fastForwardWorkingTree materializes commitOID's tree into the working tree
// and index unconditionally, without Checkout's dirty-tree guard. It is only
// ever called right after the current branch's ref has already been advanced
// to commitOID, so HEAD stays symbolically attached to that branch throughout
// — there is no branch switch here, only catching the working tree up to a
// ref that has already moved.
func fastForwardWorkingTree(h *RepoHandle, store *ObjectStore, commitOID string) error {
	treeOID, err := CommitTree(store, commitOID)
	if err != nil {
		return err
	}
	index, err := ReadTreeToIndex(store, treeOID)
	if err != nil {
		return err
	}
	if err := wipeWorkingTree(h); err != nil {
		return err
	}
	if err := materializeIndex(h, store, index); err != nil {
		return err
	}
	return WriteIndex(h, index)
}

func threeWayMergeOp(h *RepoHandle, store *ObjectStore, currentBranch, headOID, targetOID, ancestorOID string) (*MergeResult, error) {
	headTree, err := CommitTree(store, headOID)
	if err != nil {
		return nil, err
	}
	targetTree, err := CommitTree(store, targetOID)
	if err != nil {
		return nil, err
	}
	ancestorTree, err := CommitTree(store, ancestorOID)
	if err != nil {
		return nil, err
	}

	outcome, err := ThreeWayMerge(store, ancestorTree, headTree, targetTree)
	if err != nil {
		return nil, err
	}

	for _, e := range outcome.Entries {
		dest := filepath.Join(h.Root, filepath.FromSlash(e.Path))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return nil, err
		}

		if e.Type == EntryClean {
			data, err := store.Get(e.OIDs[0])
			if err != nil {
				return nil, err
			}
			perm := os.FileMode(0o644)
			if e.Mode == ModeExecutable {
				perm = 0o755
			}
			if err := os.WriteFile(dest, data, perm); err != nil {
				return nil, err
			}
			continue
		}

		// EntryConflict: write the literal conflict-marker file.
		baseBytes, err := resolveConflictSideBytes(store, e.OIDs[0])
		if err != nil {
			return nil, err
		}
		targetBytes, err := resolveConflictSideBytes(store, e.OIDs[1])
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(dest, BuildConflictFile(baseBytes, targetBytes), 0o644); err != nil {
			return nil, err
		}
	}

	if err := WriteIndex(h, outcome.Entries); err != nil {
		return nil, err
	}

	if len(outcome.Conflicts) > 0 {
		return &MergeResult{Conflicts: outcome.Conflicts}, &ConflictError{Paths: outcome.Conflicts}
	}

	return &MergeResult{}, nil
}
