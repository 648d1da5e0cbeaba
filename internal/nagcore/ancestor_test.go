package nagcore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// commitChain builds a linear chain of empty-tree commits c0 -> c1 -> ... and
// returns their OIDs in order.
func commitChain(t *testing.T, store *ObjectStore, treeOID string, n int) []string {
	t.Helper()
	var oids []string
	var parents []string
	for i := 0; i < n; i++ {
		oid, err := store.PutHashed(BuildCommit(CommitObject{Tree: treeOID, Parents: parents, Message: "c"}))
		require.NoError(t, err)
		oids = append(oids, oid)
		parents = []string{oid}
	}
	return oids
}

func emptyTreeOID(t *testing.T, store *ObjectStore) string {
	t.Helper()
	oid, err := WriteTreeFromIndex(store, nil)
	require.NoError(t, err)
	return oid
}

func TestClassifyDirectAncestor(t *testing.T) {
	h, _, err := Init(t.TempDir())
	require.NoError(t, err)
	store := NewObjectStore(h)
	tree := emptyTreeOID(t, store)

	chain := commitChain(t, store, tree, 3)

	res, err := Classify(store, chain[0], chain[2])
	require.NoError(t, err)
	require.Equal(t, RelDirect, res.Relation)
}

func TestClassifyDirectReverse(t *testing.T) {
	h, _, err := Init(t.TempDir())
	require.NoError(t, err)
	store := NewObjectStore(h)
	tree := emptyTreeOID(t, store)

	chain := commitChain(t, store, tree, 3)

	res, err := Classify(store, chain[2], chain[0])
	require.NoError(t, err)
	require.Equal(t, RelDirectReverse, res.Relation)
}

func TestClassifySharedAncestor(t *testing.T) {
	h, _, err := Init(t.TempDir())
	require.NoError(t, err)
	store := NewObjectStore(h)
	tree := emptyTreeOID(t, store)

	base := commitChain(t, store, tree, 1)[0]

	branchAOID, err := store.PutHashed(BuildCommit(CommitObject{Tree: tree, Parents: []string{base}, Message: "a"}))
	require.NoError(t, err)
	branchBOID, err := store.PutHashed(BuildCommit(CommitObject{Tree: tree, Parents: []string{base}, Message: "b"}))
	require.NoError(t, err)

	res, err := Classify(store, branchAOID, branchBOID)
	require.NoError(t, err)
	require.Equal(t, RelShared, res.Relation)
	require.Equal(t, base, res.Shared)
}

func TestClassifyNotFoundForUnrelatedHistories(t *testing.T) {
	h, _, err := Init(t.TempDir())
	require.NoError(t, err)
	store := NewObjectStore(h)
	tree := emptyTreeOID(t, store)

	a := commitChain(t, store, tree, 1)[0]
	bOID, err := store.PutHashed(BuildCommit(CommitObject{Tree: tree, Message: "unrelated"}))
	require.NoError(t, err)

	res, err := Classify(store, a, bOID)
	require.NoError(t, err)
	require.Equal(t, RelNotFound, res.Relation)
}

func TestBestCommonAncestorFindsSharedParent(t *testing.T) {
	h, _, err := Init(t.TempDir())
	require.NoError(t, err)
	store := NewObjectStore(h)
	tree := emptyTreeOID(t, store)

	base := commitChain(t, store, tree, 1)[0]
	branchAOID, err := store.PutHashed(BuildCommit(CommitObject{Tree: tree, Parents: []string{base}, Message: "a"}))
	require.NoError(t, err)
	branchBOID, err := store.PutHashed(BuildCommit(CommitObject{Tree: tree, Parents: []string{base}, Message: "b"}))
	require.NoError(t, err)

	bca, err := BestCommonAncestor(store, branchAOID, branchBOID)
	require.NoError(t, err)
	require.Equal(t, base, bca)
}
