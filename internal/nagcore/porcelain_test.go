package nagcore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func noopOracle(t *testing.T) IgnoreOracle {
	t.Helper()
	return &defaultIgnoreOracle{}
}

func TestStageCommitRestore(t *testing.T) {
	root := t.TempDir()
	h, _, err := Init(root)
	require.NoError(t, err)
	store := NewObjectStore(h)
	oracle := noopOracle(t)

	writeFile(t, root, "hello.txt", "hello")
	require.NoError(t, Add(h, store, oracle, "hello.txt"))

	commitOID, err := Commit(h, store, "first commit")
	require.NoError(t, err)
	require.True(t, IsValidOID(commitOID))

	// Mutate the working tree, then restore from HEAD.
	writeFile(t, root, "hello.txt", "mutated")
	require.NoError(t, Restore(h, store, "hello.txt"))

	data, err := os.ReadFile(filepath.Join(root, "hello.txt"))
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))

	status, err := Status(h, store, oracle)
	require.NoError(t, err)
	require.True(t, status.IsClean())
}

func TestFastForwardMerge(t *testing.T) {
	root := t.TempDir()
	h, _, err := Init(root)
	require.NoError(t, err)
	store := NewObjectStore(h)
	oracle := noopOracle(t)

	writeFile(t, root, "a.txt", "v1")
	require.NoError(t, Add(h, store, oracle, "a.txt"))
	_, err = Commit(h, store, "c1")
	require.NoError(t, err)

	require.NoError(t, CreateBranch(h, "feature", nil))

	require.NoError(t, Checkout(h, store, oracle, "feature"))
	writeFile(t, root, "a.txt", "v2")
	require.NoError(t, Add(h, store, oracle, "a.txt"))
	featureTip, err := Commit(h, store, "c2 on feature")
	require.NoError(t, err)

	require.NoError(t, Checkout(h, store, oracle, "main"))

	result, err := Merge(h, store, oracle, "feature")
	require.NoError(t, err)
	require.True(t, result.FastForward)

	_, headOID, err := ResolveHead(h)
	require.NoError(t, err)
	require.Equal(t, featureTip, headOID)
}

func TestThreeWayAutoMergeCleanSides(t *testing.T) {
	root := t.TempDir()
	h, _, err := Init(root)
	require.NoError(t, err)
	store := NewObjectStore(h)
	oracle := noopOracle(t)

	writeFile(t, root, "shared.txt", "base")
	writeFile(t, root, "a.txt", "a")
	require.NoError(t, Add(h, store, oracle, "shared.txt"))
	require.NoError(t, Add(h, store, oracle, "a.txt"))
	_, err = Commit(h, store, "root commit")
	require.NoError(t, err)

	require.NoError(t, CreateBranch(h, "feature", nil))

	// On main: edit a.txt.
	writeFile(t, root, "a.txt", "a edited on main")
	require.NoError(t, Add(h, store, oracle, "a.txt"))
	_, err = Commit(h, store, "edit a on main")
	require.NoError(t, err)

	// On feature: add a new file, leave a.txt untouched.
	require.NoError(t, Checkout(h, store, oracle, "feature"))
	writeFile(t, root, "b.txt", "new on feature")
	require.NoError(t, Add(h, store, oracle, "b.txt"))
	_, err = Commit(h, store, "add b on feature")
	require.NoError(t, err)

	require.NoError(t, Checkout(h, store, oracle, "main"))

	result, err := Merge(h, store, oracle, "feature")
	require.NoError(t, err)
	require.Empty(t, result.Conflicts)

	data, err := os.ReadFile(filepath.Join(root, "b.txt"))
	require.NoError(t, err)
	require.Equal(t, "new on feature", string(data))

	data, err = os.ReadFile(filepath.Join(root, "a.txt"))
	require.NoError(t, err)
	require.Equal(t, "a edited on main", string(data))
}

func TestThreeWayMergeConflictProducesMarkerFile(t *testing.T) {
	root := t.TempDir()
	h, _, err := Init(root)
	require.NoError(t, err)
	store := NewObjectStore(h)
	oracle := noopOracle(t)

	writeFile(t, root, "f.txt", "base")
	require.NoError(t, Add(h, store, oracle, "f.txt"))
	_, err = Commit(h, store, "root")
	require.NoError(t, err)

	require.NoError(t, CreateBranch(h, "feature", nil))

	writeFile(t, root, "f.txt", "main edit")
	require.NoError(t, Add(h, store, oracle, "f.txt"))
	_, err = Commit(h, store, "edit on main")
	require.NoError(t, err)

	require.NoError(t, Checkout(h, store, oracle, "feature"))
	writeFile(t, root, "f.txt", "feature edit")
	require.NoError(t, Add(h, store, oracle, "f.txt"))
	_, err = Commit(h, store, "edit on feature")
	require.NoError(t, err)

	require.NoError(t, Checkout(h, store, oracle, "main"))

	result, mergeErr := Merge(h, store, oracle, "feature")
	require.Error(t, mergeErr)
	var conflictErr *ConflictError
	require.ErrorAs(t, mergeErr, &conflictErr)
	require.Equal(t, []string{"f.txt"}, conflictErr.Paths)
	require.Equal(t, []string{"f.txt"}, result.Conflicts)

	data, err := os.ReadFile(filepath.Join(root, "f.txt"))
	require.NoError(t, err)
	require.Contains(t, string(data), "<<< Base <<<\n")
	require.Contains(t, string(data), "main edit")
	require.Contains(t, string(data), "==============\n")
	require.Contains(t, string(data), "feature edit")
	require.Contains(t, string(data), ">>> Target >>>\n")

	// Resolve the conflict and confirm the index entry clears.
	writeFile(t, root, "f.txt", "resolved")
	require.NoError(t, Resolve(h, store, "f.txt"))

	entries, err := ReadIndex(h)
	require.NoError(t, err)
	entry := findEntry(entries, "f.txt")
	require.NotNil(t, entry)
	require.Equal(t, EntryClean, entry.Type)
}

func TestStatusClassification(t *testing.T) {
	root := t.TempDir()
	h, _, err := Init(root)
	require.NoError(t, err)
	store := NewObjectStore(h)
	oracle := noopOracle(t)

	writeFile(t, root, "committed.txt", "v1")
	writeFile(t, root, "staged-delete.txt", "v1")
	require.NoError(t, Add(h, store, oracle, "committed.txt"))
	require.NoError(t, Add(h, store, oracle, "staged-delete.txt"))
	_, err = Commit(h, store, "root")
	require.NoError(t, err)

	// Untracked: new file never added.
	writeFile(t, root, "untracked.txt", "new")

	// Modified: edit a tracked, committed file without staging.
	writeFile(t, root, "committed.txt", "v2")

	// Staged (Added, since not yet in HEAD): stage a brand new file.
	writeFile(t, root, "added.txt", "new staged")
	require.NoError(t, Add(h, store, oracle, "added.txt"))

	// StagedDelete: remove a committed file from the index via add() on a
	// now-missing path.
	require.NoError(t, os.Remove(filepath.Join(root, "staged-delete.txt")))
	require.NoError(t, Add(h, store, oracle, "staged-delete.txt"))

	status, err := Status(h, store, oracle)
	require.NoError(t, err)
	require.Contains(t, status.Untracked, "untracked.txt")
	require.Contains(t, status.Modified, "committed.txt")
	require.Contains(t, status.Added, "added.txt")
	require.Contains(t, status.StagedDelete, "staged-delete.txt")
}

func TestFetchIsIdempotent(t *testing.T) {
	originRoot := t.TempDir()
	origin, _, err := Init(originRoot)
	require.NoError(t, err)
	originStore := NewObjectStore(origin)
	oracle := noopOracle(t)

	writeFile(t, originRoot, "a.txt", "v1")
	require.NoError(t, Add(origin, originStore, oracle, "a.txt"))
	_, err = Commit(origin, originStore, "c1")
	require.NoError(t, err)

	localRoot := t.TempDir()
	local, _, err := Init(localRoot)
	require.NoError(t, err)
	localStore := NewObjectStore(local)

	require.NoError(t, AddRemote(local, "origin", originRoot))
	require.NoError(t, Fetch(local, localStore, "origin"))

	tip, err := ReadRef(local, "refs/remotes/origin/main")
	require.NoError(t, err)
	require.NotEmpty(t, tip)

	countObjects := func() int {
		entries, err := os.ReadDir(filepath.Join(local.MetaDir, "objects"))
		require.NoError(t, err)
		return len(entries)
	}
	before := countObjects()

	// Re-fetching an unchanged origin must add no new objects.
	require.NoError(t, Fetch(local, localStore, "origin"))
	require.Equal(t, before, countObjects())
}

func TestBranchCollision(t *testing.T) {
	root := t.TempDir()
	h, _, err := Init(root)
	require.NoError(t, err)
	store := NewObjectStore(h)
	oracle := noopOracle(t)

	writeFile(t, root, "a.txt", "v1")
	require.NoError(t, Add(h, store, oracle, "a.txt"))
	_, err = Commit(h, store, "c1")
	require.NoError(t, err)

	require.NoError(t, CreateBranch(h, "dup", nil))
	err = CreateBranch(h, "dup", nil)
	require.ErrorIs(t, err, ErrAlreadyExists)
}
