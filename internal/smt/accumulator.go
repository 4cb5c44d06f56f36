package smt

import (
	"encoding/binary"

	"github.com/consensys/gnark-crypto/field/goldilocks"

	"github.com/overpass-network/overpass/common"
)

// Accumulator records the field-element commitments of one tree update:
// key, leaf hash, the sibling at every level, and the resulting root, in
// that order. It is ephemeral state, separate from the node map, and is
// consumed by the succinct-proof backend.
type Accumulator struct {
	elements []goldilocks.Element
}

func newAccumulator(capacity int) *Accumulator {
	return &Accumulator{elements: make([]goldilocks.Element, 0, capacity)}
}

// commit maps a hash to a field element from its first 8 little-endian
// bytes, matching the encoding the proof circuit expects.
func (a *Accumulator) commit(h common.Hash) {
	var e goldilocks.Element
	e.SetUint64(binary.LittleEndian.Uint64(h[:8]))
	a.elements = append(a.elements, e)
}

func (a *Accumulator) Len() int {
	return len(a.elements)
}

func (a *Accumulator) Elements() []goldilocks.Element {
	out := make([]goldilocks.Element, len(a.elements))
	copy(out, a.elements)
	return out
}

// PublicInputs renders the commitments as canonical byte strings for the
// proof artifact's public-input section.
func (a *Accumulator) PublicInputs() [][]byte {
	out := make([][]byte, len(a.elements))
	for i, e := range a.elements {
		b := e.Bytes()
		out[i] = b[:]
	}
	return out
}
