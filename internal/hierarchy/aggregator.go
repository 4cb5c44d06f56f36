package hierarchy

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/overpass-network/overpass/common"
	"github.com/overpass-network/overpass/common/logging"
	"github.com/overpass-network/overpass/internal/smt"
	"github.com/overpass-network/overpass/internal/types"
	"github.com/overpass-network/overpass/internal/zkp"
)

// AggregatorConfig fixes the aggregator's capabilities at construction.
// The flags are deliberately not mutable afterwards; every decision point
// reads the same configuration the aggregator was built with.
type AggregatorConfig struct {
	// EpochDuration is the minimum spacing between global root emissions,
	// in the same time unit the caller passes to TrySubmitGlobalRoot.
	EpochDuration uint64

	// VerifyGlobalState enables global root emission. When disabled, epoch
	// bookkeeping still advances but no root leaves the aggregator.
	VerifyGlobalState bool

	// VerifyTransactions enables VerifyTransaction. See that method's
	// documentation before relying on it.
	VerifyTransactions bool
}

// Certificate accompanies an emitted global root.
type Certificate struct {
	Root     common.Hash
	Epoch    uint64
	IssuedAt uint64
}

// Aggregator folds intermediate roots into a single global tree and emits a
// global root snapshot at most once per epoch.
type Aggregator struct {
	mu                sync.Mutex
	globalTree        *smt.Tree
	intermediateRoots map[types.Address]common.Hash
	epoch             uint64
	lastSubmission    uint64
	config            AggregatorConfig
	logger            zerolog.Logger
}

func NewAggregator(config AggregatorConfig, logger zerolog.Logger) *Aggregator {
	return &Aggregator{
		globalTree:        smt.NewTree(),
		intermediateRoots: make(map[types.Address]common.Hash),
		config:            config,
		logger:            logger,
	}
}

func (agg *Aggregator) Epoch() uint64 {
	agg.mu.Lock()
	defer agg.mu.Unlock()
	return agg.epoch
}

func (agg *Aggregator) GlobalRoot() common.Hash {
	agg.mu.Lock()
	defer agg.mu.Unlock()
	return agg.globalTree.Root()
}

// ProcessIntermediateRoot records a contract's intermediate root and folds
// it into the global tree. Repeating an identical (address, root) pair is
// idempotent. The proof is retained for the submission pipeline but not
// inspected here.
func (agg *Aggregator) ProcessIntermediateRoot(contract types.Address, root common.Hash, _ *zkp.Proof) error {
	agg.mu.Lock()
	defer agg.mu.Unlock()

	agg.intermediateRoots[contract] = root
	if _, _, err := agg.globalTree.Update(contract, root.Bytes()); err != nil {
		return err
	}

	agg.logger.Debug().
		Stringer(logging.FieldContract, contract).
		Stringer(logging.FieldRoot, root).
		Msg("intermediate root processed")
	return nil
}

// TrySubmitGlobalRoot emits the current global root once the epoch interval
// has elapsed. Epoch and timestamp bookkeeping advance on every elapsed
// interval regardless of the VerifyGlobalState capability; only the
// emission itself is gated. The two concerns are deliberately decoupled.
func (agg *Aggregator) TrySubmitGlobalRoot(now uint64) (*Certificate, bool) {
	agg.mu.Lock()
	defer agg.mu.Unlock()

	if now-agg.lastSubmission < agg.config.EpochDuration {
		return nil, false
	}

	agg.epoch++
	agg.lastSubmission = now

	if !agg.config.VerifyGlobalState {
		agg.logger.Debug().
			Uint64(logging.FieldEpoch, agg.epoch).
			Msg("epoch advanced, global-state verification disabled")
		return nil, false
	}

	cert := &Certificate{
		Root:     agg.globalTree.Root(),
		Epoch:    agg.epoch,
		IssuedAt: now,
	}
	agg.logger.Info().
		Uint64(logging.FieldEpoch, cert.Epoch).
		Stringer(logging.FieldRoot, cert.Root).
		Msg("global root emitted")
	return cert, true
}

// VerifyTransaction is gated purely by the VerifyTransactions capability:
// with the flag off it rejects everything, with the flag on it accepts
// everything without inspecting tx or proof.
//
// This mirrors the settlement contract's current placeholder behavior and
// must not be treated as a cryptographic check. Do not put it on a
// security-relevant path until real verification replaces it.
func (agg *Aggregator) VerifyTransaction(tx []byte, proof *zkp.Proof) bool {
	return agg.config.VerifyTransactions
}
