package nagcore

import "fmt"

// emptySentinel is the literal OID-slot token spec §3/§4.8 uses to mark "this
// side deleted the path" inside a conflict entry's OIDs. Spec.md §9 flags
// that this collides, by naming coincidence only, with any real hex OID that
// happens to read "empty" — which cannot occur, since HashBytes always
// produces exactly 64 hex characters and "empty" is 5. The literal string is
// kept rather than swapped for an unambiguous sentinel like "-" to stay
// byte-compatible with the documented on-disk format; this is an accepted,
// recorded risk, not an oversight.
const emptySentinel = "empty"

// mergeAction is the outcome of applying the three-way merge table to a
// single path.
type mergeAction int

const (
	actionDelete mergeAction = iota
	actionTake
	actionConflict
)

type mergeCellResult struct {
	action        mergeAction
	oid           string   // for actionTake
	conflictOIDs  [2]string // for actionConflict: [base-side, target-side]
}

// mergeCell applies the three-way merge table from spec §4.8 to a single
// path's (ancestor, base, target) blob OIDs, any of which may be absent
// (nil). base is the side HEAD currently points at; target is the incoming
// branch.
func mergeCell(ancestor, base, target *string) mergeCellResult {
	switch {
	case ancestor != nil && base != nil && target != nil:
		switch {
		case *base == *ancestor && *target == *ancestor:
			return mergeCellResult{action: actionTake, oid: *ancestor}
		case *base == *ancestor && *target != *ancestor:
			return mergeCellResult{action: actionTake, oid: *target}
		case *base != *ancestor && *target == *ancestor:
			return mergeCellResult{action: actionTake, oid: *base}
		case *base == *target:
			return mergeCellResult{action: actionTake, oid: *base}
		default:
			return mergeCellResult{action: actionConflict, conflictOIDs: [2]string{*base, *target}}
		}

	case ancestor != nil && base != nil && target == nil:
		if *base == *ancestor {
			return mergeCellResult{action: actionDelete}
		}
		return mergeCellResult{action: actionConflict, conflictOIDs: [2]string{*base, emptySentinel}}

	case ancestor != nil && base == nil && target != nil:
		if *ancestor == *target {
			return mergeCellResult{action: actionDelete}
		}
		return mergeCellResult{action: actionConflict, conflictOIDs: [2]string{*target, emptySentinel}}

	case ancestor == nil && base != nil && target == nil:
		return mergeCellResult{action: actionTake, oid: *base}

	case ancestor == nil && base == nil && target != nil:
		return mergeCellResult{action: actionTake, oid: *target}

	case ancestor == nil && base != nil && target != nil:
		if *base == *target {
			return mergeCellResult{action: actionTake, oid: *base}
		}
		return mergeCellResult{action: actionConflict, conflictOIDs: [2]string{*base, *target}}

	default:
		// Both sides deleted (or absent everywhere): nothing to emit.
		return mergeCellResult{action: actionDelete}
	}
}

// MergeOutcome is the result of a three-way merge: the merged index
// (directory-mode entries excluded, per spec) and the set of paths left in
// conflict (also present in the index as type X entries).
type MergeOutcome struct {
	Entries   []IndexEntry
	Conflicts []string
}

// ThreeWayMerge reconciles ancestorTree, baseTree, and targetTree path-by-
// path per spec §4.8's merge table. It does not touch the working tree or
// write any refs; the merge porcelain operation uses the returned
// MergeOutcome to materialize files and write the index.
func ThreeWayMerge(store *ObjectStore, ancestorTree, baseTree, targetTree string) (*MergeOutcome, error) {
	ancestorEntries, err := ReadTreeToIndex(store, ancestorTree)
	if err != nil {
		return nil, fmt.Errorf("ThreeWayMerge: ancestor tree: %w", err)
	}
	baseEntries, err := ReadTreeToIndex(store, baseTree)
	if err != nil {
		return nil, fmt.Errorf("ThreeWayMerge: base tree: %w", err)
	}
	targetEntries, err := ReadTreeToIndex(store, targetTree)
	if err != nil {
		return nil, fmt.Errorf("ThreeWayMerge: target tree: %w", err)
	}

	ancestorMap := indexByPath(ancestorEntries)
	baseMap := indexByPath(baseEntries)
	targetMap := indexByPath(targetEntries)

	paths := map[string]bool{}
	for p := range ancestorMap {
		paths[p] = true
	}
	for p := range baseMap {
		paths[p] = true
	}
	for p := range targetMap {
		paths[p] = true
	}

	outcome := &MergeOutcome{}

	for path := range paths {
		aEntry, aOK := ancestorMap[path]
		bEntry, bOK := baseMap[path]
		tEntry, tOK := targetMap[path]

		var aOID, bOID, tOID *string
		if aOK {
			aOID = &aEntry.OIDs[0]
		}
		if bOK {
			bOID = &bEntry.OIDs[0]
		}
		if tOK {
			tOID = &tEntry.OIDs[0]
		}

		result := mergeCell(aOID, bOID, tOID)

		switch result.action {
		case actionDelete:
			continue
		case actionTake:
			mode := pickMode(result.oid, bEntry, tEntry, aEntry, bOK, tOK, aOK)
			outcome.Entries = append(outcome.Entries, IndexEntry{
				Type: EntryClean,
				Mode: mode,
				Path: path,
				OIDs: []string{result.oid},
			})
		case actionConflict:
			mode := ModeFile
			if bOK {
				mode = bEntry.Mode
			} else if tOK {
				mode = tEntry.Mode
			}
			outcome.Entries = append(outcome.Entries, IndexEntry{
				Type: EntryConflict,
				Mode: mode,
				Path: path,
				OIDs: []string{result.conflictOIDs[0], result.conflictOIDs[1]},
			})
			outcome.Conflicts = append(outcome.Conflicts, path)
		}
	}

	return outcome, nil
}

func indexByPath(entries []IndexEntry) map[string]IndexEntry {
	m := make(map[string]IndexEntry, len(entries))
	for _, e := range entries {
		if e.Mode == ModeDir || len(e.OIDs) == 0 {
			continue
		}
		m[e.Path] = e
	}
	return m
}

func pickMode(oid string, bEntry, tEntry, aEntry IndexEntry, bOK, tOK, aOK bool) string {
	if bOK && len(bEntry.OIDs) > 0 && bEntry.OIDs[0] == oid {
		return bEntry.Mode
	}
	if tOK && len(tEntry.OIDs) > 0 && tEntry.OIDs[0] == oid {
		return tEntry.Mode
	}
	if aOK && len(aEntry.OIDs) > 0 && aEntry.OIDs[0] == oid {
		return aEntry.Mode
	}
	return ModeFile
}

// BuildConflictFile renders the literal whole-file conflict marker format
// spec §6 defines: this is byte-for-byte concatenation of both sides, not a
// line-level diff3 merge.
func BuildConflictFile(baseBytes, targetBytes []byte) []byte {
	var out []byte
	out = append(out, []byte("<<< Base <<<\n")...)
	out = append(out, baseBytes...)
	out = append(out, []byte("==============\n")...)
	out = append(out, targetBytes...)
	out = append(out, []byte(">>> Target >>>\n")...)
	return out
}

// resolveConflictSideBytes returns the blob bytes for one side of a conflict
// entry's OID slot, treating the emptySentinel as "this side deleted the
// file" (empty content).
func resolveConflictSideBytes(store *ObjectStore, oid string) ([]byte, error) {
	if oid == emptySentinel {
		return []byte{}, nil
	}
	return store.Get(oid)
}
