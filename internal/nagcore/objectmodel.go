package nagcore

import (
	"fmt"
	"strings"
)

// CommitObject is the in-memory, typed view of a commit object's textual payload:
// "tree <oid>\n", zero or more "parent <oid>\n" lines, a blank line, then a
// free-form message. This is the tagged-sum-type treatment spec.md §9 asks
// for in place of ad-hoc string parsing at each call site — on-disk bytes
// stay untyed text; ParseCommit/BuildCommit are the single seam where that
// text becomes (and stops being) a Go value.
type CommitObject struct {
	Tree    string
	Parents []string
	Message string
}

// BuildCommit renders a CommitObject to its on-disk textual payload.
func BuildCommit(c CommitObject) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "tree %s\n", c.Tree)
	for _, p := range c.Parents {
		fmt.Fprintf(&b, "parent %s\n", p)
	}
	b.WriteByte('\n')
	b.WriteString(strings.TrimRight(c.Message, "\n"))
	b.WriteByte('\n')
	return []byte(b.String())
}

// ParseCommit parses a commit object's textual payload.
func ParseCommit(data []byte) (CommitObject, error) {
	text := string(data)
	lines := strings.Split(text, "\n")

	var c CommitObject
	i := 0
	if i >= len(lines) || !strings.HasPrefix(lines[i], "tree ") {
		return CommitObject{}, fmt.Errorf("ParseCommit: missing tree line: %w", ErrInvalidData)
	}
	c.Tree = strings.TrimSpace(strings.TrimPrefix(lines[i], "tree "))
	i++

	for i < len(lines) && strings.HasPrefix(lines[i], "parent ") {
		c.Parents = append(c.Parents, strings.TrimSpace(strings.TrimPrefix(lines[i], "parent ")))
		i++
	}

	if i >= len(lines) || lines[i] != "" {
		return CommitObject{}, fmt.Errorf("ParseCommit: missing blank line before message: %w", ErrInvalidData)
	}
	i++

	c.Message = strings.Join(lines[i:], "\n")
	c.Message = strings.TrimRight(c.Message, "\n")
	return c, nil
}

// AnnotatedTag is the in-memory view of an annotated tag object:
// "object <oid>\n", a blank line, then a free-form message.
type AnnotatedTag struct {
	Object  string
	Message string
}

// BuildAnnotatedTag renders an AnnotatedTag to its on-disk textual payload.
func BuildAnnotatedTag(t AnnotatedTag) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "object %s\n\n", t.Object)
	b.WriteString(strings.TrimRight(t.Message, "\n"))
	b.WriteByte('\n')
	return []byte(b.String())
}

// ParseAnnotatedTag parses an annotated tag object's textual payload.
func ParseAnnotatedTag(data []byte) (AnnotatedTag, error) {
	text := string(data)
	lines := strings.Split(text, "\n")

	if len(lines) == 0 || !strings.HasPrefix(lines[0], "object ") {
		return AnnotatedTag{}, fmt.Errorf("ParseAnnotatedTag: missing object line: %w", ErrInvalidData)
	}
	object := strings.TrimSpace(strings.TrimPrefix(lines[0], "object "))

	if len(lines) < 2 || lines[1] != "" {
		return AnnotatedTag{}, fmt.Errorf("ParseAnnotatedTag: missing blank line before message: %w", ErrInvalidData)
	}

	message := strings.TrimRight(strings.Join(lines[2:], "\n"), "\n")
	return AnnotatedTag{Object: object, Message: message}, nil
}

// CommitTree reads and parses the commit at oid, returning its tree OID.
func CommitTree(store *ObjectStore, commitOID string) (string, error) {
	data, err := store.Get(commitOID)
	if err != nil {
		return "", fmt.Errorf("CommitTree(%s): %w", commitOID, err)
	}
	c, err := ParseCommit(data)
	if err != nil {
		return "", fmt.Errorf("CommitTree(%s): %w", commitOID, err)
	}
	return c.Tree, nil
}
