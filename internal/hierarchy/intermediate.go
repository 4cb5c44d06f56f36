// Package hierarchy contains the intermediate and root layers of the
// commitment scheme: per-contract trees folding channel roots, and the
// epoch-gated aggregator that commits intermediate roots into one global
// tree.
package hierarchy

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/overpass-network/overpass/common"
	"github.com/overpass-network/overpass/common/logging"
	"github.com/overpass-network/overpass/internal/smt"
	"github.com/overpass-network/overpass/internal/types"
)

// Intermediate maintains one tree per contract, keyed by channel id. Wallet
// roots arriving from clients are folded in; the resulting contract root is
// what gets submitted to the aggregator.
type Intermediate struct {
	mu     sync.Mutex
	trees  map[types.Address]*smt.Tree
	logger zerolog.Logger
}

func NewIntermediate(logger zerolog.Logger) *Intermediate {
	return &Intermediate{
		trees:  make(map[types.Address]*smt.Tree),
		logger: logger,
	}
}

// ProcessWalletRoot folds a channel's new wallet root into the contract's
// tree and returns the updated intermediate root.
func (im *Intermediate) ProcessWalletRoot(contract types.Address, channelId, walletRoot common.Hash) (common.Hash, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	tree, ok := im.trees[contract]
	if !ok {
		tree = smt.NewTree()
		im.trees[contract] = tree
	}

	prev := tree.Root()
	root, _, err := tree.Update(channelId, walletRoot.Bytes())
	if err != nil {
		return common.EmptyHash, err
	}

	if !tree.VerifyRootTransition(prev, root) {
		// A fold that is not a single-leaf transition means the tree got
		// corrupted under us.
		return common.EmptyHash, smt.ErrNodeNotFound
	}

	im.logger.Debug().
		Stringer(logging.FieldContract, contract).
		Stringer(logging.FieldChannelId, channelId).
		Stringer(logging.FieldRoot, root).
		Msg("wallet root folded into contract tree")
	return root, nil
}

// ContractRoot returns the current root for a contract, or false if the
// contract has no tree yet.
func (im *Intermediate) ContractRoot(contract types.Address) (common.Hash, bool) {
	im.mu.Lock()
	defer im.mu.Unlock()

	tree, ok := im.trees[contract]
	if !ok {
		return common.EmptyHash, false
	}
	return tree.Root(), true
}

// Proof returns the inclusion path for a channel inside its contract tree.
func (im *Intermediate) Proof(contract types.Address, channelId common.Hash) ([]smt.ProofStep, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	tree, ok := im.trees[contract]
	if !ok {
		return nil, smt.ErrNodeNotFound
	}
	return tree.Proof(channelId)
}
