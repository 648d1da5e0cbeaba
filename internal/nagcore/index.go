package nagcore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EntryType distinguishes a cleanly-staged index entry from one still
// carrying an unresolved merge conflict.
type EntryType byte

const (
	EntryClean    EntryType = 'C'
	EntryConflict EntryType = 'X'
)

// File modes an index entry or tree row may carry.
const (
	ModeFile       = "100644"
	ModeExecutable = "100755"
	ModeSymlink    = "120000"
	ModeDir        = "040000"
)

// IndexEntry is one staged path: its conflict state, file mode, repo-root-
// relative forward-slash path, and one (clean) or more (conflicted, base
// then target side) content OIDs.
type IndexEntry struct {
	Type EntryType
	Mode string
	Path string
	OIDs []string
}

func indexPath(h *RepoHandle) string {
	return filepath.Join(h.MetaDir, "index")
}

// ReadIndex parses the on-disk index. A missing index file is not an error:
// it is treated as an empty index (the state before the first `add`).
//
// Encoding: one entry per line, tab-separated:
// entry_type<TAB>mode<TAB>path<TAB>oid1[<TAB>oid2...]. Lines with fewer than
// four fields are skipped (tolerant of a trailing blank line). An
// unrecognized entry_type is ErrInvalidData.
func ReadIndex(h *RepoHandle) ([]IndexEntry, error) {
	data, err := os.ReadFile(indexPath(h))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("ReadIndex: %w", err)
	}

	var entries []IndexEntry
	for _, line := range strings.Split(string(data), "\n") {
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 4 {
			continue
		}

		var et EntryType
		switch fields[0] {
		case "C":
			et = EntryClean
		case "X":
			et = EntryConflict
		default:
			return nil, fmt.Errorf("ReadIndex: unrecognized entry type %q: %w", fields[0], ErrInvalidData)
		}

		entries = append(entries, IndexEntry{
			Type: et,
			Mode: fields[1],
			Path: fields[2],
			OIDs: append([]string(nil), fields[3:]...),
		})
	}
	return entries, nil
}

// WriteIndex overwrites the index wholesale with entries, via the same
// durable-write discipline as the Object Store.
func WriteIndex(h *RepoHandle, entries []IndexEntry) error {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%c\t%s\t%s\t%s\n", byte(e.Type), e.Mode, e.Path, strings.Join(e.OIDs, "\t"))
	}
	if err := writeDurable(indexPath(h), []byte(b.String())); err != nil {
		return fmt.Errorf("WriteIndex: %w", err)
	}
	return nil
}

// upsertClean implements add()'s update-or-insert semantics: for path, an
// existing entry's OIDs are replaced wholesale by [oid]; otherwise a new
// clean entry is appended with the given mode.
func upsertClean(entries []IndexEntry, path, oid, mode string) []IndexEntry {
	for i := range entries {
		if entries[i].Path == path {
			entries[i].Type = EntryClean
			entries[i].OIDs = []string{oid}
			entries[i].Mode = mode
			return entries
		}
	}
	return append(entries, IndexEntry{Type: EntryClean, Mode: mode, Path: path, OIDs: []string{oid}})
}

// removeEntry drops the entry for path, if any. Used by add() to stage a
// deletion when the working-tree path no longer exists.
func removeEntry(entries []IndexEntry, path string) []IndexEntry {
	out := entries[:0]
	for _, e := range entries {
		if e.Path != path {
			out = append(out, e)
		}
	}
	return out
}

// findEntry returns a pointer to the entry for path, or nil.
func findEntry(entries []IndexEntry, path string) *IndexEntry {
	for i := range entries {
		if entries[i].Path == path {
			return &entries[i]
		}
	}
	return nil
}
