package zkp

import (
	"errors"

	"github.com/overpass-network/overpass/common"
)

// devWitness is the payload the development backend emits in place of a
// real succinct proof.
type devWitness struct {
	OldBalance uint64      `cbor:"1,keyasint"`
	OldNonce   uint64      `cbor:"2,keyasint"`
	NewBalance uint64      `cbor:"3,keyasint"`
	NewNonce   uint64      `cbor:"4,keyasint"`
	Transfer   uint64      `cbor:"5,keyasint"`
	Commitment common.Hash `cbor:"6,keyasint"`
}

// DevBackend is a deterministic stand-in for the production proof circuit.
// Generate emits a self-describing witness sealed with a content hash;
// Verify checks the seal and the balance arithmetic. It provides no
// cryptographic soundness and exists so nodes can run end to end before the
// circuit backend is wired in.
type DevBackend struct{}

var _ Backend = DevBackend{}

func (DevBackend) Generate(oldBalance, oldNonce, newBalance, newNonce, transferAmount uint64) ([]byte, error) {
	if oldBalance < transferAmount {
		return nil, errors.New("transfer exceeds balance")
	}
	if newBalance != oldBalance-transferAmount {
		return nil, errors.New("balance transition mismatch")
	}
	if newNonce != oldNonce+1 && transferAmount != 0 {
		return nil, errors.New("nonce transition mismatch")
	}

	w := devWitness{
		OldBalance: oldBalance,
		OldNonce:   oldNonce,
		NewBalance: newBalance,
		NewNonce:   newNonce,
		Transfer:   transferAmount,
	}
	w.Commitment = sealWitness(&w)
	return common.SerializeBinaryPersistent(&w)
}

func (DevBackend) Verify(data []byte) (bool, error) {
	if len(data) == 0 {
		return false, ErrEmptyProof
	}

	var w devWitness
	if err := common.DeserializeBinaryPersistent(&w, data); err != nil {
		// Not a witness this backend produced.
		return false, nil
	}
	if w.Commitment != sealWitness(&w) {
		return false, nil
	}
	if w.OldBalance < w.Transfer || w.NewBalance != w.OldBalance-w.Transfer {
		return false, nil
	}
	return true, nil
}

func sealWitness(w *devWitness) common.Hash {
	unsealed := *w
	unsealed.Commitment = common.EmptyHash
	return common.Sha256Hash(common.MustSerializeBinaryPersistent(&unsealed))
}
