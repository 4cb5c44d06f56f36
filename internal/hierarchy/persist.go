package hierarchy

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/overpass-network/overpass/internal/db"
)

var aggregatorStateKey = []byte("state")

// SaveAggregator persists the aggregator's state so epoch gating survives a
// restart.
func SaveAggregator(ctx context.Context, database db.DB, agg *Aggregator) error {
	data, err := agg.MarshalBinary()
	if err != nil {
		return err
	}

	tx, err := database.CreateRwTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := tx.Put(db.AggregatorTable, aggregatorStateKey, data); err != nil {
		return err
	}
	return tx.Commit()
}

// LoadAggregator restores a previously saved aggregator. A missing record
// yields db.ErrKeyNotFound; the caller decides whether to start fresh.
func LoadAggregator(ctx context.Context, database db.DB, logger zerolog.Logger) (*Aggregator, error) {
	tx, err := database.CreateRoTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	data, err := tx.Get(db.AggregatorTable, aggregatorStateKey)
	if err != nil {
		return nil, err
	}
	return UnmarshalAggregator(data, logger)
}
