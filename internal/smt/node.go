package smt

import (
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/overpass-network/overpass/common"
)

// MerkleNode is owned exclusively by its tree's node map and referenced by
// content hash, never by pointer. Child references are hashes looked up in
// the map, so the structure is acyclic by construction.
//
// An empty child slice stands for the zero sentinel (absent subtree).
type MerkleNode struct {
	Left   []byte
	Right  []byte
	Value  []byte
	IsLeaf bool
}

func newLeafNode(value []byte) *MerkleNode {
	return &MerkleNode{Value: append([]byte(nil), value...), IsLeaf: true}
}

func newInteriorNode(left, right common.Hash) *MerkleNode {
	n := &MerkleNode{}
	if !left.Empty() {
		n.Left = left.Bytes()
	}
	if !right.Empty() {
		n.Right = right.Bytes()
	}
	return n
}

func (n *MerkleNode) LeftHash() common.Hash {
	if len(n.Left) == 0 {
		return common.EmptyHash
	}
	return common.BytesToHash(n.Left)
}

func (n *MerkleNode) RightHash() common.Hash {
	if len(n.Right) == 0 {
		return common.EmptyHash
	}
	return common.BytesToHash(n.Right)
}

func (n *MerkleNode) Encode() ([]byte, error) {
	return rlp.EncodeToBytes(n)
}

func DecodeNode(data []byte) (*MerkleNode, error) {
	node := new(MerkleNode)
	if err := rlp.DecodeBytes(data, node); err != nil {
		return nil, err
	}
	return node, nil
}

// hashLeaf is the content hash of key‖value.
func hashLeaf(key common.Hash, value []byte) common.Hash {
	return common.Sha256Hash(key.Bytes(), value)
}

// hashInterior is the content hash of the concatenated child hashes; an
// absent child contributes the zero sentinel of the same width.
func hashInterior(left, right common.Hash) common.Hash {
	return common.Sha256Hash(left.Bytes(), right.Bytes())
}
