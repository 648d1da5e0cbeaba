package nagcore

import (
	"container/heap"
	"fmt"
)

// Relation classifies two commits per spec §4.7.
type Relation int

const (
	RelNotFound Relation = iota
	RelDirect          // A is an ancestor of B: fast-forward candidate
	RelDirectReverse   // B is an ancestor of A: already up to date
	RelShared          // A and B share a common ancestor
)

// ClassifyResult is the outcome of classifying two commits.
type ClassifyResult struct {
	Relation Relation
	Shared   string // populated only when Relation == RelShared
}

// ancestorsDFS returns the transitive closure of `parent` edges from oid
// (not including oid itself) as both a DFS preorder slice and a membership
// set. A worklist+visited-set replaces the original source's per-parent
// recursion (the re-architecture spec.md §9 calls for), but preorder
// discovery order is preserved so Classify's "first found" behavior below
// matches the documented source quirk rather than silently becoming best-
// common-ancestor selection.
func ancestorsDFS(store *ObjectStore, oid string) ([]string, map[string]bool, error) {
	visited := map[string]bool{oid: true}
	var order []string

	stack := []string{oid}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		data, err := store.Get(cur)
		if err != nil {
			return nil, nil, fmt.Errorf("ancestorsDFS: reading %s: %w", cur, err)
		}
		c, err := ParseCommit(data)
		if err != nil {
			return nil, nil, fmt.Errorf("ancestorsDFS: parsing %s: %w", cur, err)
		}

		for _, p := range c.Parents {
			if visited[p] {
				continue
			}
			visited[p] = true
			order = append(order, p)
			stack = append(stack, p)
		}
	}

	delete(visited, oid)
	return order, visited, nil
}

// Classify implements spec §4.7's Ancestor Walker exactly, including its
// documented limitation: Shared picks the first intersection element found
// during a's DFS traversal, which is not guaranteed to be the best common
// ancestor. This is the function merge() calls. See BestCommonAncestor for
// a documented, opt-in alternative that is not wired into merge().
func Classify(store *ObjectStore, a, b string) (ClassifyResult, error) {
	_, bAncestors, err := ancestorsDFS(store, b)
	if err != nil {
		return ClassifyResult{}, err
	}
	if bAncestors[a] {
		return ClassifyResult{Relation: RelDirect}, nil
	}

	aOrder, aAncestors, err := ancestorsDFS(store, a)
	if err != nil {
		return ClassifyResult{}, err
	}
	if aAncestors[b] {
		return ClassifyResult{Relation: RelDirectReverse}, nil
	}

	for _, c := range aOrder {
		if bAncestors[c] {
			return ClassifyResult{Relation: RelShared, Shared: c}, nil
		}
	}

	return ClassifyResult{Relation: RelNotFound}, nil
}

// bcaItem is a (generation-depth, oid) pair ordered by depth for the
// bidirectional frontier search below. Depth substitutes for the commit
// date the teacher's own MergeBase uses as its heap key: this spec's commit
// object (tree/parent lines/message) carries no timestamp, so BFS distance
// from the query commits is the closest available proxy for "more recent".
type bcaItem struct {
	depth int
	oid   string
}

type bcaHeap []bcaItem

func (h bcaHeap) Len() int            { return len(h) }
func (h bcaHeap) Less(i, j int) bool  { return h[i].depth < h[j].depth }
func (h bcaHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *bcaHeap) Push(x interface{}) { *h = append(*h, x.(bcaItem)) }
func (h *bcaHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

const (
	sideA = 1 << 0
	sideB = 1 << 1
)

// BestCommonAncestor is the documented alternative spec.md §9's DESIGN NOTES
// section calls for but does not wire into merge(): a bidirectional
// frontier expansion ordered by generation depth (adapted from the
// teacher's own commit-date max-heap in merge.go, substituting depth for
// date since this spec's commits carry no timestamp) that finds a genuine
// lowest common ancestor rather than an arbitrary DFS-intersection element.
// It is exercised only by its own tests; Classify/merge() keep the spec-
// documented "first found" behavior.
func BestCommonAncestor(store *ObjectStore, a, b string) (string, error) {
	visited := map[string]int{a: sideA, b: sideB}
	h := &bcaHeap{{depth: 0, oid: a}, {depth: 0, oid: b}}
	heap.Init(h)

	for h.Len() > 0 {
		item := heap.Pop(h).(bcaItem)
		if visited[item.oid] == (sideA | sideB) {
			return item.oid, nil
		}

		data, err := store.Get(item.oid)
		if err != nil {
			return "", fmt.Errorf("BestCommonAncestor: reading %s: %w", item.oid, err)
		}
		c, err := ParseCommit(data)
		if err != nil {
			return "", fmt.Errorf("BestCommonAncestor: parsing %s: %w", item.oid, err)
		}

		mask := visited[item.oid]
		for _, p := range c.Parents {
			prev, seen := visited[p]
			visited[p] = prev | mask
			if visited[p] == (sideA | sideB) {
				return p, nil
			}
			if !seen {
				heap.Push(h, bcaItem{depth: item.depth + 1, oid: p})
			}
		}
	}

	return "", fmt.Errorf("BestCommonAncestor(%s, %s): %w", a, b, ErrNotFound)
}
