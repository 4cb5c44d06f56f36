package replication

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/rs/zerolog"

	"github.com/overpass-network/overpass/common"
	"github.com/overpass-network/overpass/common/logging"
	"github.com/overpass-network/overpass/internal/storage"
	"github.com/overpass-network/overpass/internal/types"
)

// Sender delivers a replication offer to one peer. The boolean reports
// whether the peer confirmed holding a replica; an error means the offer
// never reached a decision.
type Sender interface {
	Offer(ctx context.Context, peer types.NodeId, hash common.Hash, payload []byte) (bool, error)
}

// DistributionManager gossips admitted objects to a random subset of peers.
// Replication is probabilistic: each round offers the object to peers with
// independent probability until the redundancy target is met or the peer
// set is exhausted. Exact replica counts are converged to over repeated
// rounds, not guaranteed per round.
type DistributionManager struct {
	node        *storage.Node
	sender      Sender
	redundancy  int
	probability float64
	logger      zerolog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewDistributionManager(
	node *storage.Node,
	sender Sender,
	config storage.ReplicationConfig,
	seed int64,
	logger zerolog.Logger,
) (*DistributionManager, error) {
	if config.RedundancyFactor < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidRedundancy, config.RedundancyFactor)
	}
	if config.PropagationProbability < 0 || config.PropagationProbability > 1 {
		return nil, fmt.Errorf("%w: got %f", ErrInvalidProbability, config.PropagationProbability)
	}

	return &DistributionManager{
		node:        node,
		sender:      sender,
		redundancy:  config.RedundancyFactor,
		probability: config.PropagationProbability,
		logger:      logger.With().Str(logging.FieldComponent, "distribution-manager").Logger(),
		rng:         rand.New(rand.NewSource(seed)),
	}, nil
}

// Distribute runs one gossip round for the object stored under hash and
// returns the number of replicas confirmed in this round.
func (d *DistributionManager) Distribute(ctx context.Context, hash common.Hash) (int, error) {
	payload, err := d.node.Retrieve(ctx, hash)
	if err != nil {
		return 0, err
	}

	peers := d.node.Peers()
	d.shuffle(peers)

	replicas := 0
	for _, peer := range peers {
		if replicas >= d.redundancy {
			break
		}
		if err := ctx.Err(); err != nil {
			return replicas, err
		}
		if !d.flip() {
			continue
		}

		confirmed, err := d.sender.Offer(ctx, peer, hash, payload)
		if err != nil {
			d.logger.Warn().Err(err).
				Stringer(logging.FieldPeerId, peer).
				Stringer(logging.FieldObjectId, hash).
				Msg("replication offer failed")
			continue
		}
		if confirmed {
			replicas++
		}
	}

	d.logger.Debug().
		Stringer(logging.FieldObjectId, hash).
		Int(logging.FieldReplicas, replicas).
		Msg("gossip round finished")
	return replicas, nil
}

func (d *DistributionManager) shuffle(peers []types.NodeId) {
	d.rngMu.Lock()
	defer d.rngMu.Unlock()
	d.rng.Shuffle(len(peers), func(i, j int) {
		peers[i], peers[j] = peers[j], peers[i]
	})
}

func (d *DistributionManager) flip() bool {
	d.rngMu.Lock()
	defer d.rngMu.Unlock()
	return d.rng.Float64() < d.probability
}

// LogSender is a transportless Sender that confirms every offer. It stands
// in where no network layer is wired up.
type LogSender struct {
	Logger zerolog.Logger
}

func (s LogSender) Offer(
	ctx context.Context, peer types.NodeId, hash common.Hash, payload []byte,
) (bool, error) {
	s.Logger.Info().
		Stringer(logging.FieldPeerId, peer).
		Stringer(logging.FieldObjectId, hash).
		Int("size", len(payload)).
		Msg("replication offer")
	return true, nil
}
