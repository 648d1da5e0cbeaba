package nagcore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteIndexReadIndexRoundTrip(t *testing.T) {
	h, _, err := Init(t.TempDir())
	require.NoError(t, err)

	entries := []IndexEntry{
		{Type: EntryClean, Mode: ModeFile, Path: "a.txt", OIDs: []string{"aaaa"}},
		{Type: EntryConflict, Mode: ModeFile, Path: "b.txt", OIDs: []string{"bbbb", "cccc"}},
	}
	require.NoError(t, WriteIndex(h, entries))

	back, err := ReadIndex(h)
	require.NoError(t, err)
	require.Equal(t, entries, back)
}

func TestReadIndexMissingIsEmptyNotError(t *testing.T) {
	h, _, err := Init(t.TempDir())
	require.NoError(t, err)

	entries, err := ReadIndex(h)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestUpsertCleanInsertsThenReplaces(t *testing.T) {
	var entries []IndexEntry
	entries = upsertClean(entries, "a.txt", "oid1", ModeFile)
	require.Len(t, entries, 1)
	require.Equal(t, []string{"oid1"}, entries[0].OIDs)

	entries = upsertClean(entries, "a.txt", "oid2", ModeExecutable)
	require.Len(t, entries, 1)
	require.Equal(t, []string{"oid2"}, entries[0].OIDs)
	require.Equal(t, ModeExecutable, entries[0].Mode)
}

func TestRemoveEntryDropsMatchingPath(t *testing.T) {
	entries := []IndexEntry{
		{Path: "a.txt", OIDs: []string{"x"}},
		{Path: "b.txt", OIDs: []string{"y"}},
	}
	out := removeEntry(entries, "a.txt")
	require.Len(t, out, 1)
	require.Equal(t, "b.txt", out[0].Path)
}
