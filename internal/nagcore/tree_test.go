package nagcore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteTreeAndReadTreeRoundTrip(t *testing.T) {
	h, _, err := Init(t.TempDir())
	require.NoError(t, err)
	store := NewObjectStore(h)

	aOID, err := store.PutHashed([]byte("file a"))
	require.NoError(t, err)
	bOID, err := store.PutHashed([]byte("file b"))
	require.NoError(t, err)

	entries := []IndexEntry{
		{Type: EntryClean, Mode: ModeFile, Path: "a.txt", OIDs: []string{aOID}},
		{Type: EntryClean, Mode: ModeFile, Path: "dir/b.txt", OIDs: []string{bOID}},
	}

	treeOID, err := WriteTreeFromIndex(store, entries)
	require.NoError(t, err)
	require.True(t, IsValidOID(treeOID))

	back, err := ReadTreeToIndex(store, treeOID)
	require.NoError(t, err)
	require.Len(t, back, 2)

	byPath := map[string]IndexEntry{}
	for _, e := range back {
		byPath[e.Path] = e
	}
	require.Equal(t, []string{aOID}, byPath["a.txt"].OIDs)
	require.Equal(t, []string{bOID}, byPath["dir/b.txt"].OIDs)
}

func TestWriteTreeIsDeterministicForEqualIndexes(t *testing.T) {
	h, _, err := Init(t.TempDir())
	require.NoError(t, err)
	store := NewObjectStore(h)

	oid, err := store.PutHashed([]byte("x"))
	require.NoError(t, err)

	// Two index slices listing the same entries in different orders must
	// still serialize to the same tree OID (lexicographic-by-name output).
	e1 := []IndexEntry{
		{Type: EntryClean, Mode: ModeFile, Path: "z.txt", OIDs: []string{oid}},
		{Type: EntryClean, Mode: ModeFile, Path: "a.txt", OIDs: []string{oid}},
	}
	e2 := []IndexEntry{
		{Type: EntryClean, Mode: ModeFile, Path: "a.txt", OIDs: []string{oid}},
		{Type: EntryClean, Mode: ModeFile, Path: "z.txt", OIDs: []string{oid}},
	}

	t1, err := WriteTreeFromIndex(store, e1)
	require.NoError(t, err)
	t2, err := WriteTreeFromIndex(store, e2)
	require.NoError(t, err)
	require.Equal(t, t1, t2)
}

func TestWriteTreeExcludesConflictedEntries(t *testing.T) {
	h, _, err := Init(t.TempDir())
	require.NoError(t, err)
	store := NewObjectStore(h)

	oid, err := store.PutHashed([]byte("x"))
	require.NoError(t, err)

	entries := []IndexEntry{
		{Type: EntryClean, Mode: ModeFile, Path: "a.txt", OIDs: []string{oid}},
		{Type: EntryConflict, Mode: ModeFile, Path: "b.txt", OIDs: []string{oid, oid}},
	}
	treeOID, err := WriteTreeFromIndex(store, entries)
	require.NoError(t, err)

	back, err := ReadTreeToIndex(store, treeOID)
	require.NoError(t, err)
	require.Len(t, back, 1)
	require.Equal(t, "a.txt", back[0].Path)
}

func TestWriteTreeMissingBlobIsNotFound(t *testing.T) {
	h, _, err := Init(t.TempDir())
	require.NoError(t, err)
	store := NewObjectStore(h)

	entries := []IndexEntry{
		{Type: EntryClean, Mode: ModeFile, Path: "a.txt", OIDs: []string{"deadbeef"}},
	}
	_, err = WriteTreeFromIndex(store, entries)
	require.ErrorIs(t, err, ErrNotFound)
}
