package nagcore

import "sort"

// StatusResult is the six-bucket classification spec §4.6 defines over the
// triple (HEAD-tree, saved index, working scan), keyed by path. The buckets
// are not mutually exclusive: each path falls into every bucket whose
// condition it independently satisfies (a path can be both Modified and
// Staged relative to different base states, for instance, but never
// Untracked and Staged at once since Untracked requires absence from the
// index).
type StatusResult struct {
	Untracked    []string
	Modified     []string
	Deleted      []string
	Added        []string
	Staged       []string
	StagedDelete []string
}

// IsClean reports whether every bucket is empty.
func (r *StatusResult) IsClean() bool {
	return len(r.Untracked) == 0 && len(r.Modified) == 0 && len(r.Deleted) == 0 &&
		len(r.Added) == 0 && len(r.Staged) == 0 && len(r.StagedDelete) == 0
}

// headTreeIndex returns the path->oid map of the HEAD commit's tree, or an
// empty map if there is no HEAD commit yet (newborn branch).
func headTreeIndex(h *RepoHandle, store *ObjectStore) (map[string]string, error) {
	_, headOID, err := ResolveHead(h)
	if err != nil {
		return nil, err
	}
	if headOID == "" {
		return map[string]string{}, nil
	}

	treeOID, err := CommitTree(store, headOID)
	if err != nil {
		return nil, err
	}
	entries, err := ReadTreeToIndex(store, treeOID)
	if err != nil {
		return nil, err
	}
	m := make(map[string]string, len(entries))
	for _, e := range entries {
		if len(e.OIDs) > 0 {
			m[e.Path] = e.OIDs[0]
		}
	}
	return m, nil
}

// HeadTreeIndex returns the path->oid map of HEAD's tree (empty if there is
// no commit yet). Exported for status --verbose callers that need HEAD-side
// blob OIDs (DiffIndexVsHead) without recomputing a full StatusResult.
func HeadTreeIndex(h *RepoHandle, store *ObjectStore) (map[string]string, error) {
	return headTreeIndex(h, store)
}

// ComputeStatus runs the Diff Engine: it reads the saved index, the HEAD
// tree, and scans the working directory, then classifies every observed
// path into the six buckets of spec §4.6. Paths rejected by the Ignore
// Oracle never enter any bucket: ScanWorkingTree already excludes them from
// the working scan, and they are skipped in the index and HEAD-tree maps.
func ComputeStatus(h *RepoHandle, store *ObjectStore, oracle IgnoreOracle) (*StatusResult, error) {
	index, err := ReadIndex(h)
	if err != nil {
		return nil, err
	}
	headMap, err := headTreeIndex(h, store)
	if err != nil {
		return nil, err
	}
	scan, err := ScanWorkingTree(h, oracle)
	if err != nil {
		return nil, err
	}

	indexMap := make(map[string]string, len(index))
	for _, e := range index {
		if e.Type == EntryClean && len(e.OIDs) > 0 && !oracle.ShouldIgnore(e.Path, false) {
			indexMap[e.Path] = e.OIDs[0]
		}
	}
	for path := range headMap {
		if oracle.ShouldIgnore(path, false) {
			delete(headMap, path)
		}
	}

	scanMap := make(map[string]string, len(scan))
	for _, s := range scan {
		scanMap[s.Path] = s.OID
	}

	result := &StatusResult{}

	for path, oid := range scanMap {
		indexOID, inIndex := indexMap[path]
		if !inIndex {
			result.Untracked = append(result.Untracked, path)
			continue
		}
		if oid != indexOID {
			result.Modified = append(result.Modified, path)
		}
	}

	for path, indexOID := range indexMap {
		if _, stillOnDisk := scanMap[path]; !stillOnDisk {
			result.Deleted = append(result.Deleted, path)
		}
		headOID, inHead := headMap[path]
		if !inHead {
			result.Added = append(result.Added, path)
		} else if indexOID != headOID {
			result.Staged = append(result.Staged, path)
		}
	}

	for path := range headMap {
		if _, inIndex := indexMap[path]; !inIndex {
			result.StagedDelete = append(result.StagedDelete, path)
		}
	}

	sort.Strings(result.Untracked)
	sort.Strings(result.Modified)
	sort.Strings(result.Deleted)
	sort.Strings(result.Added)
	sort.Strings(result.Staged)
	sort.Strings(result.StagedDelete)

	return result, nil
}
