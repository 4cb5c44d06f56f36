package hierarchy

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overpass-network/overpass/common"
	"github.com/overpass-network/overpass/internal/db"
)

func TestSaveLoadAggregator(t *testing.T) {
	t.Parallel()

	database, err := db.NewBadgerDbInMemory()
	require.NoError(t, err)
	t.Cleanup(database.Close)

	ctx := context.Background()

	agg := newTestAggregator(10)
	require.NoError(t, agg.ProcessIntermediateRoot(
		testAddress(0x01), common.Sha256Hash([]byte("root")), nil))
	_, ok := agg.TrySubmitGlobalRoot(10)
	require.True(t, ok)

	require.NoError(t, SaveAggregator(ctx, database, agg))

	restored, err := LoadAggregator(ctx, database, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, agg.Epoch(), restored.Epoch())
	assert.Equal(t, agg.GlobalRoot(), restored.GlobalRoot())
}

func TestLoadAggregatorMissing(t *testing.T) {
	t.Parallel()

	database, err := db.NewBadgerDbInMemory()
	require.NoError(t, err)
	t.Cleanup(database.Close)

	_, err = LoadAggregator(context.Background(), database, zerolog.Nop())
	require.ErrorIs(t, err, db.ErrKeyNotFound)
}
