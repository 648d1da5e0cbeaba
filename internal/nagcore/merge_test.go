package nagcore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestThreeWayMergeCleanlyTakesNonConflictingSides(t *testing.T) {
	h, _, err := Init(t.TempDir())
	require.NoError(t, err)
	store := NewObjectStore(h)

	sharedOID, err := store.PutHashed([]byte("shared"))
	require.NoError(t, err)
	baseChangedOID, err := store.PutHashed([]byte("base changed"))
	require.NoError(t, err)
	targetAddedOID, err := store.PutHashed([]byte("target added"))
	require.NoError(t, err)

	ancestorTree, err := WriteTreeFromIndex(store, []IndexEntry{
		{Type: EntryClean, Mode: ModeFile, Path: "shared.txt", OIDs: []string{sharedOID}},
		{Type: EntryClean, Mode: ModeFile, Path: "a.txt", OIDs: []string{sharedOID}},
	})
	require.NoError(t, err)

	baseTree, err := WriteTreeFromIndex(store, []IndexEntry{
		{Type: EntryClean, Mode: ModeFile, Path: "shared.txt", OIDs: []string{sharedOID}},
		{Type: EntryClean, Mode: ModeFile, Path: "a.txt", OIDs: []string{baseChangedOID}},
	})
	require.NoError(t, err)

	targetTree, err := WriteTreeFromIndex(store, []IndexEntry{
		{Type: EntryClean, Mode: ModeFile, Path: "shared.txt", OIDs: []string{sharedOID}},
		{Type: EntryClean, Mode: ModeFile, Path: "a.txt", OIDs: []string{sharedOID}},
		{Type: EntryClean, Mode: ModeFile, Path: "new.txt", OIDs: []string{targetAddedOID}},
	})
	require.NoError(t, err)

	outcome, err := ThreeWayMerge(store, ancestorTree, baseTree, targetTree)
	require.NoError(t, err)
	require.Empty(t, outcome.Conflicts)

	byPath := map[string]IndexEntry{}
	for _, e := range outcome.Entries {
		byPath[e.Path] = e
	}
	require.Equal(t, []string{baseChangedOID}, byPath["a.txt"].OIDs)
	require.Equal(t, []string{targetAddedOID}, byPath["new.txt"].OIDs)
	require.Equal(t, EntryClean, byPath["shared.txt"].Type)
}

func TestThreeWayMergeDivergentEditsConflict(t *testing.T) {
	h, _, err := Init(t.TempDir())
	require.NoError(t, err)
	store := NewObjectStore(h)

	ancestorOID, err := store.PutHashed([]byte("original"))
	require.NoError(t, err)
	baseOID, err := store.PutHashed([]byte("base edit"))
	require.NoError(t, err)
	targetOID, err := store.PutHashed([]byte("target edit"))
	require.NoError(t, err)

	ancestorTree, err := WriteTreeFromIndex(store, []IndexEntry{
		{Type: EntryClean, Mode: ModeFile, Path: "f.txt", OIDs: []string{ancestorOID}},
	})
	require.NoError(t, err)
	baseTree, err := WriteTreeFromIndex(store, []IndexEntry{
		{Type: EntryClean, Mode: ModeFile, Path: "f.txt", OIDs: []string{baseOID}},
	})
	require.NoError(t, err)
	targetTree, err := WriteTreeFromIndex(store, []IndexEntry{
		{Type: EntryClean, Mode: ModeFile, Path: "f.txt", OIDs: []string{targetOID}},
	})
	require.NoError(t, err)

	outcome, err := ThreeWayMerge(store, ancestorTree, baseTree, targetTree)
	require.NoError(t, err)
	require.Equal(t, []string{"f.txt"}, outcome.Conflicts)
	require.Len(t, outcome.Entries, 1)
	require.Equal(t, EntryConflict, outcome.Entries[0].Type)
	require.Equal(t, []string{baseOID, targetOID}, outcome.Entries[0].OIDs)
}

func TestBuildConflictFileFormat(t *testing.T) {
	out := BuildConflictFile([]byte("BASE"), []byte("TARGET"))
	require.Equal(t, "<<< Base <<<\nBASE==============\nTARGET>>> Target >>>\n", string(out))
}

func TestMergeCellDeletedOnBothSidesIsClean(t *testing.T) {
	ancestor := "x"
	result := mergeCell(&ancestor, nil, nil)
	require.Equal(t, actionDelete, result.action)
}

func TestMergeCellDeleteVsEditConflicts(t *testing.T) {
	ancestor := "x"
	base := "y"
	result := mergeCell(&ancestor, &base, nil)
	require.Equal(t, actionConflict, result.action)
	require.Equal(t, [2]string{"y", emptySentinel}, result.conflictOIDs)
}
