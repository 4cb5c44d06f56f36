package common

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSha256Hash(t *testing.T) {
	t.Parallel()

	expected := sha256.Sum256([]byte("hello world"))
	assert.Equal(t, Hash(expected), Sha256Hash([]byte("hello world")))

	// Chunked input hashes the concatenation.
	assert.Equal(t, Hash(expected), Sha256Hash([]byte("hello "), []byte("world")))
}

func TestSha256DoubleHash(t *testing.T) {
	t.Parallel()

	inner := sha256.Sum256([]byte("payload"))
	expected := sha256.Sum256(inner[:])
	assert.Equal(t, Hash(expected), Sha256DoubleHash([]byte("payload")))
}

func TestHexRoundTrip(t *testing.T) {
	t.Parallel()

	h := Sha256Hash([]byte("value"))
	parsed, err := HexToHash(h.Hex())
	require.NoError(t, err)
	assert.Equal(t, h, parsed)
}

func TestBytesToHashPadding(t *testing.T) {
	t.Parallel()

	h := BytesToHash([]byte{0x01, 0x02})
	assert.Equal(t, byte(0x01), h[30])
	assert.Equal(t, byte(0x02), h[31])
	assert.True(t, BytesToHash(nil).Empty())
}

func TestSerializeDeterministic(t *testing.T) {
	t.Parallel()

	payload := map[string]uint64{"b": 2, "a": 1, "c": 3}
	data1, err := SerializeBinaryPersistent(payload)
	require.NoError(t, err)
	data2, err := SerializeBinaryPersistent(payload)
	require.NoError(t, err)
	assert.Equal(t, data1, data2)

	var decoded map[string]uint64
	require.NoError(t, DeserializeBinaryPersistent(&decoded, data1))
	assert.Equal(t, payload, decoded)
}
