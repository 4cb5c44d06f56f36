package channel

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/overpass-network/overpass/common"
	"github.com/overpass-network/overpass/common/logging"
	"github.com/overpass-network/overpass/internal/smt"
	"github.com/overpass-network/overpass/internal/zkp"
)

var ErrInvalidState = errors.New("invalid channel state")

// Verifier owns a client-side state tree and checks channel transitions
// against it. The tree is shared between appliers and verifiers, so all
// access goes through the verifier's lock.
type Verifier struct {
	mu      sync.RWMutex
	tree    *smt.Tree
	backend zkp.Backend
	logger  zerolog.Logger
}

func NewVerifier(tree *smt.Tree, backend zkp.Backend, logger zerolog.Logger) *Verifier {
	return &Verifier{
		tree:    tree,
		backend: backend,
		logger:  logger,
	}
}

// ApplyState folds a channel snapshot into the state tree and returns the
// new wallet root together with the update's constraint accumulator for the
// proof backend.
func (v *Verifier) ApplyState(st *State) (common.Hash, *smt.Accumulator, error) {
	data, err := st.Encode()
	if err != nil {
		return common.EmptyHash, nil, err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	root, acc, err := v.tree.Update(st.ChannelId, data)
	if err != nil {
		return common.EmptyHash, nil, fmt.Errorf("state tree update failed: %w", err)
	}

	v.logger.Debug().
		Stringer(logging.FieldChannelId, st.ChannelId).
		Stringer(logging.FieldRoot, root).
		Uint64(logging.FieldSequence, st.Sequence).
		Msg("channel state applied")
	return root, acc, nil
}

// StateProof returns the inclusion path for a channel in the current tree.
func (v *Verifier) StateProof(channelId common.Hash) ([]smt.ProofStep, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.tree.Proof(channelId)
}

func (v *Verifier) Root() common.Hash {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.tree.Root()
}

// VerifyTransition checks a proposed transition between two channel
// snapshots. Structural constraints are checked first, then root
// derivability, then the succinct proof; a failure at any stage rejects the
// transition regardless of proof validity.
func (v *Verifier) VerifyTransition(prev, next *State, proof *zkp.Proof) (bool, error) {
	if !verifyStateConstraints(prev, next) {
		return false, nil
	}

	v.mu.RLock()
	rootOk := v.tree.VerifyRootTransition(prev.StateRoot, next.StateRoot)
	v.mu.RUnlock()
	if !rootOk {
		return false, nil
	}

	ok, err := v.backend.Verify(proof.Data)
	if err != nil {
		return false, fmt.Errorf("%w: %w", zkp.ErrBackendUnavailable, err)
	}
	return ok, nil
}

// verifyStateConstraints enforces the per-transition invariants: identity
// immutable, sequence strictly incremented by one.
func verifyStateConstraints(prev, next *State) bool {
	if prev.ChannelId != next.ChannelId {
		return false
	}
	if next.Sequence != prev.Sequence+1 {
		return false
	}
	if prev.OwnerKeyHash != next.OwnerKeyHash {
		return false
	}
	return true
}
