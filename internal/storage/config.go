package storage

import (
	"time"

	"github.com/overpass-network/overpass/internal/types"
)

// MinStake is the minimum stake required to construct a storage node.
const MinStake = 1000

type FeeConfig struct {
	// BaseFee is charged per stored object, in stake units.
	BaseFee uint64

	// SizeFee is charged per stored byte, in stake units.
	SizeFee uint64
}

type BatteryConfig struct {
	// InitialCharge is the charge a fresh node starts with.
	InitialCharge uint64

	// MaxCharge caps the charge a recharge can restore to.
	MaxCharge uint64

	// CostPerOperation is debited per admission attempt.
	CostPerOperation uint64
}

type SyncConfig struct {
	// ResponseThreshold is the number of distinct stored proofs required
	// before a verification cycle runs the batch. Must be at least 1.
	ResponseThreshold int

	// ResponseInterval is the minimum spacing between verification
	// cycles. Must be at least one second.
	ResponseInterval time.Duration
}

type ReplicationConfig struct {
	// RedundancyFactor is the target number of confirmed replicas per
	// stored object.
	RedundancyFactor int

	// PropagationProbability is the independent per-peer gossip
	// probability in each replication round, in [0, 1].
	PropagationProbability float64
}

type NetworkConfig struct {
	// MaxPeers bounds the peer set size; zero means unbounded.
	MaxPeers int
}

type Config struct {
	NodeId      types.NodeId
	Fee         FeeConfig
	Whitelist   []types.NodeId
	Battery     BatteryConfig
	Sync        SyncConfig
	Replication ReplicationConfig
	Network     NetworkConfig
}

func DefaultConfig(nodeId types.NodeId) Config {
	return Config{
		NodeId: nodeId,
		Fee: FeeConfig{
			BaseFee: 1,
			SizeFee: 0,
		},
		Battery: BatteryConfig{
			InitialCharge:    1000,
			MaxCharge:        1000,
			CostPerOperation: 1,
		},
		Sync: SyncConfig{
			ResponseThreshold: 1,
			ResponseInterval:  time.Second,
		},
		Replication: ReplicationConfig{
			RedundancyFactor:       3,
			PropagationProbability: 0.5,
		},
		Network: NetworkConfig{
			MaxPeers: 64,
		},
	}
}
