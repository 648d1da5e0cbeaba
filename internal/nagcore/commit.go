package nagcore

import "fmt"

// Commit implements spec §4.8's commit(message): materialize the index into
// a root tree, build the commit payload (optionally parented on HEAD's
// current commit), store it, advance the branch HEAD attaches to, and
// rewrite the index to exactly what the commit recorded (a round-trip
// through ReadTreeToIndex).
//
// Commit forbids a detached HEAD, resolving spec §9's open question the way
// spec.md §4.8 itself resolves it ("we permit it only when HEAD is
// symbolic").
func Commit(h *RepoHandle, store *ObjectStore, message string) (string, error) {
	branchRef, err := headBranchRefName(h)
	if err != nil {
		return "", fmt.Errorf("Commit: %w", err)
	}

	index, err := ReadIndex(h)
	if err != nil {
		return "", fmt.Errorf("Commit: %w", err)
	}

	treeOID, err := WriteTreeFromIndex(store, index)
	if err != nil {
		return "", fmt.Errorf("Commit: %w", err)
	}

	var parents []string
	if parentOID, err := ReadRef(h, branchRef); err == nil && parentOID != "" {
		parents = []string{parentOID}
	}

	payload := BuildCommit(CommitObject{Tree: treeOID, Parents: parents, Message: message})
	commitOID, err := store.PutHashed(payload)
	if err != nil {
		return "", fmt.Errorf("Commit: %w", err)
	}

	if err := UpdateRef(h, branchRef, commitOID); err != nil {
		return "", fmt.Errorf("Commit: %w", err)
	}

	committedIndex, err := ReadTreeToIndex(store, treeOID)
	if err != nil {
		return "", fmt.Errorf("Commit: %w", err)
	}
	if err := WriteIndex(h, committedIndex); err != nil {
		return "", fmt.Errorf("Commit: %w", err)
	}

	return commitOID, nil
}
