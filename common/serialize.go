package common

import (
	"bytes"

	"github.com/fxamacker/cbor/v2"
)

var persistentEncMode cbor.EncMode

func init() {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	persistentEncMode = em
}

// SerializeBinaryPersistent produces the canonical wire representation of val.
// The encoding is deterministic, so it is safe to derive content addresses
// from the output.
func SerializeBinaryPersistent[T any](val T) ([]byte, error) {
	var buf bytes.Buffer
	err := persistentEncMode.NewEncoder(&buf).Encode(val)
	return buf.Bytes(), err
}

func MustSerializeBinaryPersistent[T any](val T) []byte {
	data, err := SerializeBinaryPersistent(val)
	if err != nil {
		panic("unexpected serialization error")
	}
	return data
}

func DeserializeBinaryPersistent[T any](val *T, data []byte) error {
	return cbor.NewDecoder(bytes.NewReader(data)).Decode(val)
}
