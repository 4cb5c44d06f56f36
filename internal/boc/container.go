// Package boc provides the content-addressed cell container ("bag of
// cells") that serialized state objects travel in. Only the container
// contract matters to the rest of the system: content-addressable cells and
// an acyclic reference graph. The exact binary wire layout is produced by an
// external encoder.
package boc

import (
	"errors"

	"github.com/overpass-network/overpass/common"
)

var (
	ErrCellNotFound    = errors.New("cell not found in container")
	ErrSelfReference   = errors.New("cell cannot reference itself")
	ErrBackwardRef     = errors.New("reference target must follow source")
	ErrEmptyContainer  = errors.New("container has no cells")
	ErrDuplicateRef    = errors.New("duplicate cell reference")
	errRefOutOfBounds  = errors.New("cell id out of bounds")
)

type CellId int

type Cell struct {
	Data []byte      `cbor:"1,keyasint"`
	Hash common.Hash `cbor:"2,keyasint"`
	Refs []CellId    `cbor:"3,keyasint,omitempty"`
}

// Container holds content-addressed cells. References may only point from a
// later cell to an earlier one, which keeps the graph acyclic by
// construction.
type Container struct {
	Cells []Cell `cbor:"1,keyasint"`

	incoming map[CellId]int
}

func NewContainer() *Container {
	return &Container{incoming: make(map[CellId]int)}
}

// AddCell appends a content-addressed cell and returns its id.
func (c *Container) AddCell(data []byte) CellId {
	cell := Cell{
		Data: append([]byte(nil), data...),
		Hash: common.Sha256Hash(data),
	}
	c.Cells = append(c.Cells, cell)
	return CellId(len(c.Cells) - 1)
}

// AddReference links from → to. Both cells must already exist and the
// target must follow the source in insertion order, so reference chains
// strictly descend and can never close a cycle.
func (c *Container) AddReference(from, to CellId) error {
	if from == to {
		return ErrSelfReference
	}
	if int(from) >= len(c.Cells) || int(to) >= len(c.Cells) || from < 0 || to < 0 {
		return errRefOutOfBounds
	}
	if to < from {
		return ErrBackwardRef
	}
	for _, ref := range c.Cells[from].Refs {
		if ref == to {
			return ErrDuplicateRef
		}
	}
	c.Cells[from].Refs = append(c.Cells[from].Refs, to)
	if c.incoming == nil {
		c.incoming = make(map[CellId]int)
	}
	c.incoming[to]++
	return nil
}

// Roots returns the ids of cells with no incoming references, in insertion
// order.
func (c *Container) Roots() []CellId {
	roots := make([]CellId, 0, len(c.Cells))
	for i := range c.Cells {
		if c.incoming[CellId(i)] == 0 {
			roots = append(roots, CellId(i))
		}
	}
	return roots
}

// CellSize is the total byte size of all cell payloads.
func (c *Container) CellSize() int {
	total := 0
	for i := range c.Cells {
		total += len(c.Cells[i].Data)
	}
	return total
}

// Encode renders the container in its canonical persistent form. The
// encoding is deterministic, so ContentHash is stable across processes.
func (c *Container) Encode() ([]byte, error) {
	if len(c.Cells) == 0 {
		return nil, ErrEmptyContainer
	}
	return common.SerializeBinaryPersistent(c)
}

func Decode(data []byte) (*Container, error) {
	c := new(Container)
	if err := common.DeserializeBinaryPersistent(c, data); err != nil {
		return nil, err
	}
	c.incoming = make(map[CellId]int)
	for i := range c.Cells {
		for _, ref := range c.Cells[i].Refs {
			if ref < 0 || int(ref) >= len(c.Cells) || ref <= CellId(i) {
				return nil, errRefOutOfBounds
			}
			c.incoming[ref]++
		}
	}
	return c, nil
}

// ContentHash is the container's storage key: the hash of its canonical
// encoding.
func (c *Container) ContentHash() (common.Hash, error) {
	data, err := c.Encode()
	if err != nil {
		return common.EmptyHash, err
	}
	return common.Sha256Hash(data), nil
}
