package nagcore

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashBytes is the hash collaborator spec.md places out of scope: it
// produces the lowercase hex digest of a 256-bit cryptographic function over
// raw bytes. crypto/sha256 is the direct Go analogue of the original
// source's sha2 crate usage (see core/hash.rs) and is the only hash used in
// this module — every OID in the object store, every ref, and every commit
// line is keyed by this function's output.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// IsValidOID reports whether s has the shape of a hash produced by
// HashBytes: 64 lowercase hex characters. It does not check that the OID
// names an object that actually exists in any store.
func IsValidOID(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		default:
			return false
		}
	}
	return true
}
