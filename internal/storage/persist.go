package storage

import (
	"context"
	"errors"

	"github.com/overpass-network/overpass/common"
	"github.com/overpass-network/overpass/internal/db"
	"github.com/overpass-network/overpass/internal/types"
	"github.com/overpass-network/overpass/internal/zkp"
)

var nodeStateKey = []byte("state")

type nodeState struct {
	BatteryCharge uint64         `cbor:"1,keyasint"`
	Peers         []types.NodeId `cbor:"2,keyasint,omitempty"`
}

// SaveState persists the node's volatile runtime state. Stored objects and
// proofs are already durable; this covers the battery level and peer set.
func (n *Node) SaveState(ctx context.Context) error {
	n.mu.RLock()
	state := nodeState{
		BatteryCharge: n.battery.Level(),
		Peers:         make([]types.NodeId, 0, len(n.peers)),
	}
	for peer := range n.peers {
		state.Peers = append(state.Peers, peer)
	}
	n.mu.RUnlock()

	data, err := common.SerializeBinaryPersistent(&state)
	if err != nil {
		return err
	}

	tx, err := n.db.CreateRwTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := tx.Put(db.NodeStateTable, nodeStateKey, data); err != nil {
		return err
	}
	return tx.Commit()
}

// LoadState restores the battery level and peer set saved by SaveState and
// reloads stored object and proof pairs into the in-memory maps. A node
// with no saved state starts from its configuration defaults.
func (n *Node) LoadState(ctx context.Context) error {
	tx, err := n.db.CreateRoTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	data, err := tx.Get(db.NodeStateTable, nodeStateKey)
	if err == nil {
		var state nodeState
		if err := common.DeserializeBinaryPersistent(&state, data); err != nil {
			return err
		}

		n.battery.restore(state.BatteryCharge)

		n.mu.Lock()
		for _, peer := range state.Peers {
			n.peers[peer] = struct{}{}
		}
		n.mu.Unlock()
	} else if !errors.Is(err, db.ErrKeyNotFound) {
		return err
	}

	return n.loadStoredPairs(tx)
}

func (n *Node) loadStoredPairs(tx db.RoTx) error {
	iter, err := tx.Range(db.StoredObjectsTable, nil, nil)
	if err != nil {
		return err
	}
	defer iter.Close()

	n.mu.Lock()
	defer n.mu.Unlock()

	for iter.HasNext() {
		key, object, err := iter.Next()
		if err != nil {
			return err
		}
		hash := common.BytesToHash(key)
		n.objects[hash] = object

		proofData, err := tx.Get(db.StoredProofsTable, key)
		if err != nil {
			// Objects and proofs are written as a pair; a lone object
			// means external corruption.
			return err
		}
		proof, err := zkp.DecodeProof(proofData)
		if err != nil {
			return err
		}
		n.proofs[hash] = proof
	}
	return nil
}
