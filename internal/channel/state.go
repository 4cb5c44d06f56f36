// Package channel implements the client layer of the hierarchy: payment
// channel state folded into a per-channel sparse Merkle tree, transition
// verification, and proof export toward the intermediate layer.
package channel

import (
	"encoding/binary"

	"github.com/overpass-network/overpass/common"
	"github.com/overpass-network/overpass/internal/types"
)

// State is one channel snapshot. ChannelId and OwnerKeyHash never change
// over a channel's lifetime; Sequence increments by exactly one per accepted
// transition.
type State struct {
	ChannelId    common.Hash        `cbor:"1,keyasint"`
	StateRoot    common.Hash        `cbor:"2,keyasint"`
	Balance      uint64             `cbor:"3,keyasint"`
	Nonce        uint64             `cbor:"4,keyasint"`
	Sequence     uint64             `cbor:"5,keyasint"`
	OwnerKeyHash types.OwnerKeyHash `cbor:"6,keyasint"`
}

func (s *State) Encode() ([]byte, error) {
	return common.SerializeBinaryPersistent(s)
}

func DecodeState(data []byte) (*State, error) {
	st := new(State)
	if err := common.DeserializeBinaryPersistent(st, data); err != nil {
		return nil, err
	}
	return st, nil
}

// DeriveChannelId derives a channel's identity from the external-chain lock
// parameters. Double hashing matches the lock-script convention of the
// settlement chain.
func DeriveChannelId(lockScriptHash common.Hash, lockHeight uint32, owner types.OwnerKeyHash) common.Hash {
	var height [4]byte
	binary.LittleEndian.PutUint32(height[:], lockHeight)
	return common.Sha256DoubleHash(lockScriptHash.Bytes(), height[:], owner.Bytes())
}
