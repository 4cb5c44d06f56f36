package common

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"sync"
)

// HashSize is the width of every content address in the system.
const HashSize = 32

// Hash is a 32-byte content address. The zero value doubles as the empty
// sentinel for absent tree children and empty roots.
type Hash [HashSize]byte

var EmptyHash = Hash{}

func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > HashSize {
		b = b[len(b)-HashSize:]
	}
	copy(h[HashSize-len(b):], b)
	return h
}

func HexToHash(s string) (Hash, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return EmptyHash, err
	}
	return BytesToHash(b), nil
}

func (h Hash) Bytes() []byte { return h[:] }

func (h Hash) Empty() bool { return h == EmptyHash }

func (h Hash) Hex() string { return hex.EncodeToString(h[:]) }

func (h Hash) String() string { return h.Hex() }

var sha256Pool = sync.Pool{
	New: func() any {
		return sha256.New()
	},
}

// Sha256Hash computes the content hash of the concatenation of the given
// byte slices.
func Sha256Hash(chunks ...[]byte) Hash {
	h, _ := sha256Pool.Get().(hash.Hash)
	h.Reset()
	for _, c := range chunks {
		h.Write(c)
	}
	var out Hash
	h.Sum(out[:0])
	sha256Pool.Put(h)
	return out
}

// Sha256DoubleHash hashes the concatenation twice. Used for channel id
// derivation from external-chain lock parameters.
func Sha256DoubleHash(chunks ...[]byte) Hash {
	first := Sha256Hash(chunks...)
	return Sha256Hash(first[:])
}
