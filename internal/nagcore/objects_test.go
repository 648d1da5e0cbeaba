package nagcore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestObjectStorePutGetRoundTrip(t *testing.T) {
	h, _, err := Init(t.TempDir())
	require.NoError(t, err)
	store := NewObjectStore(h)

	oid, err := store.PutHashed([]byte("hello world"))
	require.NoError(t, err)
	require.True(t, IsValidOID(oid))

	require.True(t, store.Exists(oid))
	data, err := store.Get(oid)
	require.NoError(t, err)
	require.Equal(t, "hello world", string(data))
}

func TestObjectStorePutIsIdempotent(t *testing.T) {
	h, _, err := Init(t.TempDir())
	require.NoError(t, err)
	store := NewObjectStore(h)

	oid := HashBytes([]byte("same content"))
	require.NoError(t, store.Put(oid, []byte("same content")))
	// A second Put of identical content under the same OID must not error,
	// and must not alter the stored bytes.
	require.NoError(t, store.Put(oid, []byte("same content")))

	data, err := store.Get(oid)
	require.NoError(t, err)
	require.Equal(t, "same content", string(data))
}

func TestObjectStoreGetMissingIsNotFound(t *testing.T) {
	h, _, err := Init(t.TempDir())
	require.NoError(t, err)
	store := NewObjectStore(h)

	_, err = store.Get("deadbeef")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestHashBytesIsDeterministic(t *testing.T) {
	a := HashBytes([]byte("abc"))
	b := HashBytes([]byte("abc"))
	require.Equal(t, a, b)
	require.Len(t, a, 64)
	require.NotEqual(t, a, HashBytes([]byte("abd")))
}
