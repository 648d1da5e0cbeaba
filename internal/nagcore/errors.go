// Package nagcore implements the content-addressed object/index/ref engine:
// durable object storage, refs, the staged index, the tree codec, working
// tree diffing, ancestor classification, and the porcelain operations built
// on top of them.
package nagcore

import "fmt"

// Sentinel errors modeling the taxonomy: NotFound, AlreadyExists,
// InvalidData, DirtyWorkingTree, DetachedHeadForbidden. MergeConflict is a
// distinct type (ConflictError) below since it carries payload. Io failures
// are not given their own sentinel — they are the underlying *os.PathError
// or similar, wrapped with fmt.Errorf("...: %w", err) at the call site, and
// are distinguished from the other six simply by not matching any sentinel
// here.
var (
	ErrNotFound              = fmt.Errorf("nagcore: not found")
	ErrAlreadyExists         = fmt.Errorf("nagcore: already exists")
	ErrInvalidData           = fmt.Errorf("nagcore: invalid data")
	ErrDirtyWorkingTree      = fmt.Errorf("nagcore: working tree has uncommitted changes")
	ErrDetachedHeadForbidden = fmt.Errorf("nagcore: HEAD is detached")
)

// ConflictError reports a three-way merge that completed with at least one
// unresolved path. The merged index and conflict marker files are already on
// disk; the caller resolves each path and reruns resolve().
type ConflictError struct {
	Paths []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("nagcore: merge conflict in %d path(s)", len(e.Paths))
}
