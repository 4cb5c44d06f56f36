// Package zkp defines the proof artifact carried alongside state objects
// and the contract the external succinct-proof backend must satisfy.
package zkp

import (
	"bytes"
	"errors"

	"github.com/overpass-network/overpass/common"
)

var (
	ErrInvalidProof = errors.New("invalid proof")
	ErrEmptyProof   = errors.New("empty proof data")
)

// Metadata tracks the context a proof was generated in.
type Metadata struct {
	Timestamp uint64      `cbor:"1,keyasint"`
	Nonce     uint64      `cbor:"2,keyasint"`
	ContextId common.Hash `cbor:"3,keyasint"`
}

// Proof is the artifact produced by the proof backend. Beyond the
// public-input and commitment fields, which the core inspects for binding
// checks, the payload is opaque.
type Proof struct {
	Data           []byte      `cbor:"1,keyasint"`
	PublicInputs   [][]byte    `cbor:"2,keyasint"`
	CommitmentRoot common.Hash `cbor:"3,keyasint"`
	Metadata       Metadata    `cbor:"4,keyasint"`
}

func NewProof(data []byte, publicInputs [][]byte, commitmentRoot common.Hash, meta Metadata) *Proof {
	return &Proof{
		Data:           data,
		PublicInputs:   publicInputs,
		CommitmentRoot: commitmentRoot,
		Metadata:       meta,
	}
}

// BindsTo reports whether the proof's public inputs consist of exactly the
// given content hash. Storage admission requires this binding.
func (p *Proof) BindsTo(contentHash common.Hash) bool {
	return len(p.PublicInputs) == 1 && bytes.Equal(p.PublicInputs[0], contentHash.Bytes())
}

func (p *Proof) Encode() ([]byte, error) {
	return common.SerializeBinaryPersistent(p)
}

func DecodeProof(data []byte) (*Proof, error) {
	p := new(Proof)
	if err := common.DeserializeBinaryPersistent(p, data); err != nil {
		return nil, err
	}
	return p, nil
}
