package nagcore

import (
	"fmt"
	"strings"
)

// CreateBranch implements spec §4.8's branch(name, from_oid?). It fails with
// ErrAlreadyExists if a branch of that name already exists; otherwise it
// writes a new ref equal to fromOID, if given, or the HEAD-resolved OID.
// Nested names (e.g. "feature/ui") create nested ref directories naturally,
// since UpdateRef creates parent directories as needed.
func CreateBranch(h *RepoHandle, name string, fromOID *string) error {
	existing, _, err := ListBranches(h)
	if err != nil {
		return fmt.Errorf("CreateBranch(%s): %w", name, err)
	}
	for _, b := range existing {
		if b == name {
			return fmt.Errorf("CreateBranch(%s): %w", name, ErrAlreadyExists)
		}
	}

	var oid string
	if fromOID != nil {
		oid = *fromOID
	} else {
		_, headOID, err := ResolveHead(h)
		if err != nil {
			return fmt.Errorf("CreateBranch(%s): %w", name, err)
		}
		oid = headOID
	}

	if err := UpdateRef(h, "refs/heads/"+name, oid); err != nil {
		return fmt.Errorf("CreateBranch(%s): %w", name, err)
	}
	return nil
}

// ListBranches returns every branch ref's name (nested names joined with
// "/"), case-insensitively sorted, plus the name of the currently attached
// branch (empty if HEAD is detached).
func ListBranches(h *RepoHandle) (names []string, current string, err error) {
	names, err = ListRefs(h, "refs/heads")
	if err != nil {
		return nil, "", err
	}

	branch, _, err := ResolveHead(h)
	if err != nil {
		return names, "", err
	}
	if branch != nil {
		current = *branch
	}
	return names, current, nil
}

// FormatBranchList renders ListBranches' output the way spec §4.8 describes
// `branch --list`: one name per line, the active branch prefixed with "*".
func FormatBranchList(names []string, current string) string {
	var b strings.Builder
	for _, n := range names {
		if n == current {
			b.WriteByte('*')
		}
		b.WriteString(n)
		b.WriteByte('\n')
	}
	return b.String()
}
