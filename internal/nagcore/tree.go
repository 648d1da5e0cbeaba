package nagcore

import (
	"fmt"
	"strings"

	"github.com/emirpasic/gods/v2/maps/treemap"
)

// treeRow is one line of a serialized tree object:
// entry_type<TAB>mode<TAB>name<TAB>oid.
type treeRow struct {
	Type EntryType
	Mode string
	Name string
	OID  string
}

func (r treeRow) encode() string {
	return fmt.Sprintf("%c\t%s\t%s\t%s\n", byte(r.Type), r.Mode, r.Name, r.OID)
}

// WriteTreeFromIndex serializes entries into a hierarchy of tree objects and
// returns the root tree's OID. Conflicted (X) entries are excluded: a tree
// must never be written from an index that still carries conflicts.
//
// Entries are grouped by their first path segment using ordered tree maps
// (emirpasic/gods treemap), and the combined leaf and directory rows are
// then sorted by name, so rows are always emitted lexicographic by name —
// the determinism spec §4.4 requires for equal indexes to produce equal tree
// OIDs.
func WriteTreeFromIndex(store *ObjectStore, entries []IndexEntry) (string, error) {
	groups := treemap.New[string, []IndexEntry]()
	leaves := treemap.New[string, IndexEntry]()

	for _, e := range entries {
		if e.Type != EntryClean {
			continue
		}
		if slash := strings.IndexByte(e.Path, '/'); slash >= 0 {
			head, rest := e.Path[:slash], e.Path[slash+1:]
			sub, _ := groups.Get(head)
			sub = append(sub, IndexEntry{Type: e.Type, Mode: e.Mode, Path: rest, OIDs: e.OIDs})
			groups.Put(head, sub)
		} else {
			leaves.Put(e.Path, e)
		}
	}

	var rows []treeRow

	for _, name := range leaves.Keys() {
		e, _ := leaves.Get(name)
		if len(e.OIDs) == 0 {
			return "", fmt.Errorf("WriteTreeFromIndex: entry %q has no content OID: %w", e.Path, ErrInvalidData)
		}
		if !store.Exists(e.OIDs[0]) {
			return "", fmt.Errorf("WriteTreeFromIndex: blob %s for %q: %w", e.OIDs[0], e.Path, ErrNotFound)
		}
		rows = append(rows, treeRow{Type: EntryClean, Mode: e.Mode, Name: name, OID: e.OIDs[0]})
	}

	for _, name := range groups.Keys() {
		sub, _ := groups.Get(name)
		subOID, err := WriteTreeFromIndex(store, sub)
		if err != nil {
			return "", err
		}
		rows = append(rows, treeRow{Type: EntryClean, Mode: ModeDir, Name: name, OID: subOID})
	}

	var b strings.Builder
	// Re-sort the combined leaf+directory rows lexicographically by name:
	// the two treemaps above are each individually ordered, but leaves and
	// subdirectories must be interleaved by name, not leaves-then-dirs.
	sortRowsByName(rows)
	for _, r := range rows {
		b.WriteString(r.encode())
	}

	return store.PutHashed([]byte(b.String()))
}

// parseTreeRows parses a tree object's raw payload into its rows without
// validating or recursing into subtrees — used by fetch's reachability walk,
// which must read subtrees from whichever store currently has them rather
// than assuming they already exist in the destination.
func parseTreeRows(data []byte) ([]treeRow, error) {
	var rows []treeRow
	for _, line := range strings.Split(string(data), "\n") {
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 4 {
			return nil, fmt.Errorf("parseTreeRows: malformed row %q: %w", line, ErrInvalidData)
		}
		var et EntryType
		switch fields[0] {
		case "C":
			et = EntryClean
		case "X":
			et = EntryConflict
		default:
			return nil, fmt.Errorf("parseTreeRows: unrecognized entry type %q: %w", fields[0], ErrInvalidData)
		}
		rows = append(rows, treeRow{Type: et, Mode: fields[1], Name: fields[2], OID: fields[3]})
	}
	return rows, nil
}

func sortRowsByName(rows []treeRow) {
	for i := 1; i < len(rows); i++ {
		for j := i; j > 0 && rows[j].Name < rows[j-1].Name; j-- {
			rows[j], rows[j-1] = rows[j-1], rows[j]
		}
	}
}

// ReadTreeToIndex deserializes the tree rooted at treeOID back into a flat
// list of clean index entries. File-mode rows (100644/100755) become leaf
// entries; 040000 rows recurse into the named subtree, prepending
// "<name>/" to every path produced by the recursion. X rows never appear in
// a tree (WriteTreeFromIndex excludes them) but are ignored defensively.
// Rows with any other mode (notably 120000, symlinks) are tolerated but not
// emitted — round-tripping a symlink through the system is lossy, an
// accepted, documented limitation rather than a silently "fixed" one.
func ReadTreeToIndex(store *ObjectStore, treeOID string) ([]IndexEntry, error) {
	return readTreeToIndexPrefixed(store, treeOID, "")
}

func readTreeToIndexPrefixed(store *ObjectStore, treeOID, prefix string) ([]IndexEntry, error) {
	data, err := store.Get(treeOID)
	if err != nil {
		return nil, fmt.Errorf("ReadTreeToIndex(%s): %w", treeOID, err)
	}

	var entries []IndexEntry
	for _, line := range strings.Split(string(data), "\n") {
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 4 {
			return nil, fmt.Errorf("ReadTreeToIndex(%s): malformed row %q: %w", treeOID, line, ErrInvalidData)
		}
		if fields[0] == "X" {
			continue
		}
		mode, name, oid := fields[1], fields[2], fields[3]
		path := name
		if prefix != "" {
			path = prefix + "/" + name
		}

		switch mode {
		case ModeFile, ModeExecutable:
			entries = append(entries, IndexEntry{Type: EntryClean, Mode: mode, Path: path, OIDs: []string{oid}})
		case ModeDir:
			sub, err := readTreeToIndexPrefixed(store, oid, path)
			if err != nil {
				return nil, err
			}
			entries = append(entries, sub...)
		default:
			// Unrecognized mode (e.g. a symlink): tolerated, not emitted.
		}
	}
	return entries, nil
}
