package nagcore

import "fmt"

// CreateLightweightTag writes a ref under refs/tags/<name> pointing at oid.
func CreateLightweightTag(h *RepoHandle, name, oid string) error {
	existing, err := ListRefs(h, "refs/tags")
	if err != nil {
		return fmt.Errorf("CreateLightweightTag(%s): %w", name, err)
	}
	for _, t := range existing {
		if t == name {
			return fmt.Errorf("CreateLightweightTag(%s): %w", name, ErrAlreadyExists)
		}
	}
	if err := UpdateRef(h, "refs/tags/"+name, oid); err != nil {
		return fmt.Errorf("CreateLightweightTag(%s): %w", name, err)
	}
	return nil
}

// CreateAnnotatedTag writes an annotated-tag object ("object <oid>\n\n<msg>")
// and points refs/tags/<name> at the tag object's own OID.
func CreateAnnotatedTag(h *RepoHandle, store *ObjectStore, name, oid, message string) error {
	existing, err := ListRefs(h, "refs/tags")
	if err != nil {
		return fmt.Errorf("CreateAnnotatedTag(%s): %w", name, err)
	}
	for _, t := range existing {
		if t == name {
			return fmt.Errorf("CreateAnnotatedTag(%s): %w", name, ErrAlreadyExists)
		}
	}

	payload := BuildAnnotatedTag(AnnotatedTag{Object: oid, Message: message})
	tagOID, err := store.PutHashed(payload)
	if err != nil {
		return fmt.Errorf("CreateAnnotatedTag(%s): %w", name, err)
	}
	if err := UpdateRef(h, "refs/tags/"+name, tagOID); err != nil {
		return fmt.Errorf("CreateAnnotatedTag(%s): %w", name, err)
	}
	return nil
}

// DeleteTag removes refs/tags/<name>.
func DeleteTag(h *RepoHandle, name string) error {
	if err := DeleteRef(h, "refs/tags/"+name); err != nil {
		return fmt.Errorf("DeleteTag(%s): %w", name, err)
	}
	return nil
}

// ListTags returns every tag ref's name, case-insensitively sorted.
func ListTags(h *RepoHandle) ([]string, error) {
	return ListRefs(h, "refs/tags")
}
