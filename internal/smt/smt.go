// Package smt implements the fixed-height sparse Merkle tree used at the
// client, intermediate and root layers of the commitment hierarchy. The
// three layers share the core semantics and differ only in key space.
package smt

import (
	"fmt"
	"slices"

	"github.com/overpass-network/overpass/common"
	"github.com/overpass-network/overpass/internal/boc"
)

// TreeHeight equals the key width in bits, so key collisions are
// structurally impossible for 256-bit keys.
const TreeHeight = 256

type Tree struct {
	root  common.Hash
	nodes map[common.Hash]*MerkleNode
}

func NewTree() *Tree {
	return &Tree{
		root:  common.EmptyHash,
		nodes: make(map[common.Hash]*MerkleNode),
	}
}

func (t *Tree) Root() common.Hash {
	return t.root
}

// keyBit extracts the bit at the given level, most-significant bit first.
func keyBit(key common.Hash, level int) byte {
	return (key[level/8] >> (7 - level%8)) & 1
}

// walk descends from the current root along the key's bit path and collects
// the sibling hash at every level. Untouched subtrees contribute the zero
// sentinel. A non-sentinel reference that is missing from the node map is a
// fatal consistency error.
func (t *Tree) walk(key common.Hash) ([]common.Hash, error) {
	siblings := make([]common.Hash, TreeHeight)
	cur := t.root
	for level := range TreeHeight {
		var left, right common.Hash
		if !cur.Empty() {
			node, ok := t.nodes[cur]
			if !ok {
				return nil, fmt.Errorf("%w: level %d, ref %s", ErrNodeNotFound, level, cur)
			}
			left, right = node.LeftHash(), node.RightHash()
		}
		if keyBit(key, level) == 1 {
			siblings[level] = left
			cur = right
		} else {
			siblings[level] = right
			cur = left
		}
	}
	return siblings, nil
}

// Update folds a new leaf for key into the tree, recomputing every node on
// the key's path, and returns the new root. Nodes are created or
// overwritten, never deleted.
//
// The returned Accumulator carries the field-element commitments the proof
// backend needs to build a succinct membership proof for this update. It is
// built fresh per call and is not part of the tree's persistent state.
func (t *Tree) Update(key common.Hash, value []byte) (common.Hash, *Accumulator, error) {
	siblings, err := t.walk(key)
	if err != nil {
		return common.EmptyHash, nil, err
	}

	leafHash := hashLeaf(key, value)
	t.nodes[leafHash] = newLeafNode(value)

	acc := newAccumulator(TreeHeight + 3)
	acc.commit(key)
	acc.commit(leafHash)

	cur := leafHash
	for level := TreeHeight - 1; level >= 0; level-- {
		sibling := siblings[level]
		var node *MerkleNode
		if keyBit(key, level) == 1 {
			node = newInteriorNode(sibling, cur)
		} else {
			node = newInteriorNode(cur, sibling)
		}
		cur = hashInterior(node.LeftHash(), node.RightHash())
		t.nodes[cur] = node
		acc.commit(sibling)
	}

	t.root = cur
	acc.commit(cur)
	return cur, acc, nil
}

// ProofStep is one level of an inclusion proof. Left reports whether the
// sibling sits on the left at this level.
type ProofStep struct {
	Sibling common.Hash
	Left    bool
}

// Proof returns the key's sibling path, one step per level from the root
// down. It serves both external inclusion verification and binding
// certificates for the proof backend.
func (t *Tree) Proof(key common.Hash) ([]ProofStep, error) {
	siblings, err := t.walk(key)
	if err != nil {
		return nil, err
	}

	steps := make([]ProofStep, TreeHeight)
	for level, sibling := range siblings {
		steps[level] = ProofStep{Sibling: sibling, Left: keyBit(key, level) == 1}
	}
	return steps, nil
}

// VerifyInclusion folds the sibling path from the leaf up and compares the
// result against root.
func VerifyInclusion(root, key common.Hash, value []byte, steps []ProofStep) bool {
	if len(steps) != TreeHeight {
		return false
	}

	cur := hashLeaf(key, value)
	for level := TreeHeight - 1; level >= 0; level-- {
		if steps[level].Left {
			cur = hashInterior(steps[level].Sibling, cur)
		} else {
			cur = hashInterior(cur, steps[level].Sibling)
		}
	}
	return cur == root
}

// VerifyRootTransition reports whether newRoot is derivable from prevRoot by
// a single leaf update along some path. It gates cross-layer root
// propagation; a transition that touches more than one path, or references
// nodes unknown to this tree, is rejected.
func (t *Tree) VerifyRootTransition(prevRoot, newRoot common.Hash) bool {
	if prevRoot == newRoot {
		return true
	}
	return t.singleLeafDiff(prevRoot, newRoot, 0)
}

func (t *Tree) children(ref common.Hash) (left, right common.Hash, isLeaf, ok bool) {
	if ref.Empty() {
		return common.EmptyHash, common.EmptyHash, false, true
	}
	node, found := t.nodes[ref]
	if !found {
		return common.EmptyHash, common.EmptyHash, false, false
	}
	return node.LeftHash(), node.RightHash(), node.IsLeaf, true
}

func (t *Tree) singleLeafDiff(prev, next common.Hash, level int) bool {
	if level == TreeHeight {
		node, ok := t.nodes[next]
		return ok && node.IsLeaf
	}

	prevLeft, prevRight, prevLeaf, ok := t.children(prev)
	if !ok || prevLeaf {
		return false
	}
	nextLeft, nextRight, nextLeaf, ok := t.children(next)
	if !ok || nextLeaf || next.Empty() {
		return false
	}

	switch {
	case prevLeft == nextLeft && prevRight == nextRight:
		// Roots differ but children agree: corrupted hash.
		return false
	case prevLeft == nextLeft:
		return t.singleLeafDiff(prevRight, nextRight, level+1)
	case prevRight == nextRight:
		return t.singleLeafDiff(prevLeft, nextLeft, level+1)
	default:
		return false
	}
}

// SerializeState folds the tree into a bag-of-cells container: one cell for
// the root hash, one per node, each node referenced from the root cell.
// Node cells are added in hash order so the container encoding is
// deterministic.
func (t *Tree) SerializeState(c *boc.Container) error {
	rootCell := c.AddCell(t.root.Bytes())

	hashes := make([]common.Hash, 0, len(t.nodes))
	for h := range t.nodes {
		hashes = append(hashes, h)
	}
	slices.SortFunc(hashes, func(a, b common.Hash) int {
		return slices.Compare(a.Bytes(), b.Bytes())
	})

	for _, h := range hashes {
		data, err := t.nodes[h].Encode()
		if err != nil {
			return err
		}
		cell := c.AddCell(data)
		if err := c.AddReference(rootCell, cell); err != nil {
			return err
		}
	}
	return nil
}
