package channel

import (
	"encoding/binary"

	"github.com/overpass-network/overpass/common"
	"github.com/overpass-network/overpass/internal/boc"
	"github.com/overpass-network/overpass/internal/zkp"
)

// ProofType tags the role of an exported proof.
type ProofType uint8

const (
	ProofTypeStateTransition ProofType = iota
	ProofTypeBalanceTransfer
	ProofTypeMerkleInclusion
	ProofTypeWalletRoot
	ProofTypeChannelStateTransition
)

// RootProof bundles a wallet root with its proof and context for submission
// to the intermediate layer.
type RootProof struct {
	WalletRoot common.Hash
	Proof      *zkp.Proof
	Type       ProofType
	ChannelId  common.Hash
	StateRoot  common.Hash
}

// ExportContainer folds the wallet root, public inputs, proof payload and
// metadata into a bag-of-cells container: a root cell carrying the header
// referencing one cell per section.
func (rp *RootProof) ExportContainer() (*boc.Container, error) {
	c := boc.NewContainer()

	header := make([]byte, 0, 2*common.HashSize+17)
	header = append(header, rp.WalletRoot.Bytes()...)
	header = append(header, rp.StateRoot.Bytes()...)
	header = binary.LittleEndian.AppendUint64(header, rp.Proof.Metadata.Timestamp)
	header = binary.LittleEndian.AppendUint64(header, rp.Proof.Metadata.Nonce)
	header = append(header, byte(rp.Type))
	root := c.AddCell(header)

	var inputs []byte
	for _, in := range rp.Proof.PublicInputs {
		inputs = append(inputs, in...)
	}
	inputCell := c.AddCell(inputs)
	proofCell := c.AddCell(rp.Proof.Data)

	if err := c.AddReference(root, inputCell); err != nil {
		return nil, err
	}
	if err := c.AddReference(root, proofCell); err != nil {
		return nil, err
	}
	return c, nil
}
