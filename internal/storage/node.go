package storage

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/overpass-network/overpass/common"
	"github.com/overpass-network/overpass/common/logging"
	"github.com/overpass-network/overpass/internal/db"
	"github.com/overpass-network/overpass/internal/types"
	"github.com/overpass-network/overpass/internal/zkp"
)

const retrieveCacheSize = 512

// Node is a staked storage node. It admits objects together with proofs
// binding to their content hash and keeps both in the database as an atomic
// pair, mirrored in memory for the verification loop.
type Node struct {
	config  Config
	stake   uint64
	battery *Battery
	db      db.DB
	logger  zerolog.Logger

	mu      sync.RWMutex
	objects map[common.Hash][]byte
	proofs  map[common.Hash]*zkp.Proof
	peers   map[types.NodeId]struct{}

	cache *lru.Cache[common.Hash, []byte]
}

// NewNode constructs a storage node. Construction fails when the stake is
// below MinStake; no node state is created in that case.
func NewNode(config Config, stake uint64, database db.DB, logger zerolog.Logger) (*Node, error) {
	if stake < MinStake {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientStake, stake, MinStake)
	}

	cache, err := lru.New[common.Hash, []byte](retrieveCacheSize)
	if err != nil {
		return nil, err
	}

	return &Node{
		config: config,
		stake:  stake,
		battery: NewBattery(
			config.Battery.InitialCharge,
			config.Battery.MaxCharge,
			config.Battery.CostPerOperation),
		db:      database,
		logger:  logger.With().Stringer(logging.FieldNodeId, config.NodeId).Logger(),
		objects: make(map[common.Hash][]byte),
		proofs:  make(map[common.Hash]*zkp.Proof),
		peers:   make(map[types.NodeId]struct{}),
		cache:   cache,
	}, nil
}

func (n *Node) Id() types.NodeId { return n.config.NodeId }

func (n *Node) Stake() uint64 { return n.stake }

func (n *Node) Battery() *Battery { return n.battery }

// Store admits an object with its binding proof. The battery is debited
// before any validation and the debit sticks even when admission is
// rejected afterwards. On success the object and proof are persisted
// atomically as a pair.
func (n *Node) Store(ctx context.Context, object []byte, proof *zkp.Proof) (common.Hash, error) {
	if err := n.battery.ChargeForProcessing(); err != nil {
		return common.EmptyHash, err
	}

	hash := common.Sha256Hash(object)
	if !proof.BindsTo(hash) {
		return common.EmptyHash, fmt.Errorf("%w: object %s", ErrInvalidProof, hash)
	}

	proofData, err := proof.Encode()
	if err != nil {
		return common.EmptyHash, err
	}

	tx, err := n.db.CreateRwTx(ctx)
	if err != nil {
		return common.EmptyHash, err
	}
	defer tx.Rollback()

	if err := tx.Put(db.StoredObjectsTable, hash.Bytes(), object); err != nil {
		return common.EmptyHash, err
	}
	if err := tx.Put(db.StoredProofsTable, hash.Bytes(), proofData); err != nil {
		return common.EmptyHash, err
	}
	if err := tx.Commit(); err != nil {
		return common.EmptyHash, err
	}

	n.mu.Lock()
	n.objects[hash] = object
	n.proofs[hash] = proof
	n.mu.Unlock()
	n.cache.Add(hash, object)

	n.logger.Debug().
		Stringer(logging.FieldObjectId, hash).
		Int("size", len(object)).
		Msg("object admitted")
	return hash, nil
}

// Retrieve returns the object stored under hash.
func (n *Node) Retrieve(ctx context.Context, hash common.Hash) ([]byte, error) {
	if object, ok := n.cache.Get(hash); ok {
		return object, nil
	}

	n.mu.RLock()
	object, ok := n.objects[hash]
	n.mu.RUnlock()
	if ok {
		n.cache.Add(hash, object)
		return object, nil
	}

	tx, err := n.db.CreateRoTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	object, err = tx.Get(db.StoredObjectsTable, hash.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, hash)
	}
	n.cache.Add(hash, object)
	return object, nil
}

// RetrieveProof returns the proof stored alongside the object under hash.
func (n *Node) RetrieveProof(ctx context.Context, hash common.Hash) (*zkp.Proof, error) {
	n.mu.RLock()
	proof, ok := n.proofs[hash]
	n.mu.RUnlock()
	if ok {
		return proof, nil
	}

	tx, err := n.db.CreateRoTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	data, err := tx.Get(db.StoredProofsTable, hash.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrProofNotFound, hash)
	}
	return zkp.DecodeProof(data)
}

func (n *Node) AddPeer(peer types.NodeId) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.config.Network.MaxPeers > 0 && len(n.peers) >= n.config.Network.MaxPeers {
		if _, ok := n.peers[peer]; !ok {
			return false
		}
	}
	n.peers[peer] = struct{}{}
	return true
}

func (n *Node) RemovePeer(peer types.NodeId) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.peers, peer)
}

func (n *Node) Peers() []types.NodeId {
	n.mu.RLock()
	defer n.mu.RUnlock()

	peers := make([]types.NodeId, 0, len(n.peers))
	for peer := range n.peers {
		peers = append(peers, peer)
	}
	return peers
}

// TotalCellSize is the aggregate size of all stored objects in bytes.
func (n *Node) TotalCellSize() int {
	n.mu.RLock()
	defer n.mu.RUnlock()

	total := 0
	for _, object := range n.objects {
		total += len(object)
	}
	return total
}

// ProofHashes lists the content hashes with a stored proof.
func (n *Node) ProofHashes() []common.Hash {
	n.mu.RLock()
	defer n.mu.RUnlock()

	hashes := make([]common.Hash, 0, len(n.proofs))
	for hash := range n.proofs {
		hashes = append(hashes, hash)
	}
	return hashes
}
