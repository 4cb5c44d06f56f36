package types

import (
	"encoding/hex"

	"github.com/overpass-network/overpass/common"
)

// NodeId identifies a storage node in the replication overlay.
type NodeId [32]byte

func BytesToNodeId(b []byte) NodeId {
	var id NodeId
	if len(b) > len(id) {
		b = b[len(b)-len(id):]
	}
	copy(id[len(id)-len(b):], b)
	return id
}

func (id NodeId) Bytes() []byte { return id[:] }

func (id NodeId) String() string { return hex.EncodeToString(id[:]) }

// Address identifies a contract or channel in the commitment hierarchy.
// Addresses share the content-address width so they can key tree updates
// directly.
type Address = common.Hash

// OwnerKeyHash is the 20-byte hash of the channel owner's public key.
type OwnerKeyHash [20]byte

func (o OwnerKeyHash) Bytes() []byte { return o[:] }
