package replication

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overpass-network/overpass/common"
	"github.com/overpass-network/overpass/internal/storage"
	"github.com/overpass-network/overpass/internal/types"
)

// recordingSender tallies offers and confirms them unless told otherwise.
type recordingSender struct {
	mu      sync.Mutex
	offers  []types.NodeId
	confirm bool
	err     error
}

func (s *recordingSender) Offer(
	ctx context.Context, peer types.NodeId, hash common.Hash, payload []byte,
) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offers = append(s.offers, peer)
	return s.confirm, s.err
}

func (s *recordingSender) offerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.offers)
}

func replicationConfig(redundancy int, probability float64) storage.ReplicationConfig {
	return storage.ReplicationConfig{
		RedundancyFactor:       redundancy,
		PropagationProbability: probability,
	}
}

func TestNewDistributionManagerValidation(t *testing.T) {
	t.Parallel()

	node := newTestNode(t)
	sender := &recordingSender{confirm: true}

	_, err := NewDistributionManager(node, sender, replicationConfig(0, 0.5), 1, zerolog.Nop())
	require.ErrorIs(t, err, ErrInvalidRedundancy)

	_, err = NewDistributionManager(node, sender, replicationConfig(3, -0.1), 1, zerolog.Nop())
	require.ErrorIs(t, err, ErrInvalidProbability)

	_, err = NewDistributionManager(node, sender, replicationConfig(3, 1.5), 1, zerolog.Nop())
	require.ErrorIs(t, err, ErrInvalidProbability)

	_, err = NewDistributionManager(node, sender, replicationConfig(3, 0.5), 1, zerolog.Nop())
	require.NoError(t, err)
}

func TestDistributeStopsAtRedundancyTarget(t *testing.T) {
	t.Parallel()

	node := newTestNode(t)
	for i := byte(0x10); i < 0x20; i++ {
		require.True(t, node.AddPeer(testNodeId(i)))
	}
	hash := storeObject(t, node, []byte("replicated object"))

	sender := &recordingSender{confirm: true}
	manager, err := NewDistributionManager(node, sender, replicationConfig(2, 1.0), 1, zerolog.Nop())
	require.NoError(t, err)

	replicas, err := manager.Distribute(context.Background(), hash)
	require.NoError(t, err)
	assert.Equal(t, 2, replicas)
	assert.Equal(t, 2, sender.offerCount())
}

func TestDistributeZeroProbability(t *testing.T) {
	t.Parallel()

	node := newTestNode(t)
	node.AddPeer(testNodeId(0x10))
	node.AddPeer(testNodeId(0x11))
	hash := storeObject(t, node, []byte("replicated object"))

	sender := &recordingSender{confirm: true}
	manager, err := NewDistributionManager(node, sender, replicationConfig(2, 0.0), 1, zerolog.Nop())
	require.NoError(t, err)

	replicas, err := manager.Distribute(context.Background(), hash)
	require.NoError(t, err)
	assert.Zero(t, replicas)
	assert.Zero(t, sender.offerCount())
}

func TestDistributeExhaustsPeerSet(t *testing.T) {
	t.Parallel()

	node := newTestNode(t)
	node.AddPeer(testNodeId(0x10))
	node.AddPeer(testNodeId(0x11))
	hash := storeObject(t, node, []byte("replicated object"))

	// Peers decline, so every peer is offered and no replica confirmed.
	sender := &recordingSender{confirm: false}
	manager, err := NewDistributionManager(node, sender, replicationConfig(5, 1.0), 1, zerolog.Nop())
	require.NoError(t, err)

	replicas, err := manager.Distribute(context.Background(), hash)
	require.NoError(t, err)
	assert.Zero(t, replicas)
	assert.Equal(t, 2, sender.offerCount())
}

func TestDistributeToleratesSendErrors(t *testing.T) {
	t.Parallel()

	node := newTestNode(t)
	node.AddPeer(testNodeId(0x10))
	hash := storeObject(t, node, []byte("replicated object"))

	sender := &recordingSender{err: errors.New("peer unreachable")}
	manager, err := NewDistributionManager(node, sender, replicationConfig(1, 1.0), 1, zerolog.Nop())
	require.NoError(t, err)

	replicas, err := manager.Distribute(context.Background(), hash)
	require.NoError(t, err)
	assert.Zero(t, replicas)
	assert.Equal(t, 1, sender.offerCount())
}

func TestDistributeUnknownObject(t *testing.T) {
	t.Parallel()

	node := newTestNode(t)
	sender := &recordingSender{confirm: true}
	manager, err := NewDistributionManager(node, sender, replicationConfig(1, 1.0), 1, zerolog.Nop())
	require.NoError(t, err)

	_, err = manager.Distribute(context.Background(), common.Sha256Hash([]byte("missing")))
	require.ErrorIs(t, err, storage.ErrObjectNotFound)
}
