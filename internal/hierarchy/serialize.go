package hierarchy

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/overpass-network/overpass/common"
	"github.com/overpass-network/overpass/internal/boc"
	"github.com/overpass-network/overpass/internal/types"
)

// aggregatorHeaderSize is the fixed little-endian header: epoch,
// epoch duration, last submission, then one byte per capability flag.
const aggregatorHeaderSize = 26

var ErrStateTooShort = errors.New("aggregator state data too short")

// MarshalBinary renders the aggregator state as the fixed header followed
// by the canonical encoding of the intermediate root map.
func (agg *Aggregator) MarshalBinary() ([]byte, error) {
	agg.mu.Lock()
	defer agg.mu.Unlock()

	out := make([]byte, 0, aggregatorHeaderSize)
	out = binary.LittleEndian.AppendUint64(out, agg.epoch)
	out = binary.LittleEndian.AppendUint64(out, agg.config.EpochDuration)
	out = binary.LittleEndian.AppendUint64(out, agg.lastSubmission)
	out = append(out, flagByte(agg.config.VerifyGlobalState))
	out = append(out, flagByte(agg.config.VerifyTransactions))

	roots, err := common.SerializeBinaryPersistent(agg.intermediateRoots)
	if err != nil {
		return nil, err
	}
	return append(out, roots...), nil
}

// UnmarshalAggregator reconstructs an aggregator from MarshalBinary output.
// The global tree is rebuilt by refolding the restored intermediate roots;
// the fold order does not affect the resulting root.
func UnmarshalAggregator(data []byte, logger zerolog.Logger) (*Aggregator, error) {
	if len(data) < aggregatorHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrStateTooShort, len(data))
	}

	agg := NewAggregator(AggregatorConfig{
		EpochDuration:      binary.LittleEndian.Uint64(data[8:16]),
		VerifyGlobalState:  data[24] != 0,
		VerifyTransactions: data[25] != 0,
	}, logger)
	agg.epoch = binary.LittleEndian.Uint64(data[0:8])
	agg.lastSubmission = binary.LittleEndian.Uint64(data[16:24])

	if rest := data[aggregatorHeaderSize:]; len(rest) > 0 {
		var roots map[types.Address]common.Hash
		if err := common.DeserializeBinaryPersistent(&roots, rest); err != nil {
			return nil, err
		}
		for contract, root := range roots {
			agg.intermediateRoots[contract] = root
			if _, _, err := agg.globalTree.Update(contract, root.Bytes()); err != nil {
				return nil, err
			}
		}
	}
	return agg, nil
}

// SerializeState folds the aggregator's global tree into a bag-of-cells
// container for archival alongside the binary state.
func (agg *Aggregator) SerializeState(c *boc.Container) error {
	agg.mu.Lock()
	defer agg.mu.Unlock()
	return agg.globalTree.SerializeState(c)
}

func flagByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
