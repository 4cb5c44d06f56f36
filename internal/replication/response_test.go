package replication

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overpass-network/overpass/common"
	"github.com/overpass-network/overpass/internal/db"
	"github.com/overpass-network/overpass/internal/storage"
	"github.com/overpass-network/overpass/internal/types"
	"github.com/overpass-network/overpass/internal/zkp"
)

// flakyBackend fails verification a fixed number of times before accepting.
type flakyBackend struct {
	mu       sync.Mutex
	failures int
	calls    int
}

func (b *flakyBackend) Generate(oldBalance, oldNonce, newBalance, newNonce, transferAmount uint64) ([]byte, error) {
	return nil, errors.New("not implemented")
}

func (b *flakyBackend) Verify(data []byte) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if b.calls <= b.failures {
		return false, nil
	}
	return true, nil
}

func (b *flakyBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func testNodeId(b byte) types.NodeId {
	var id types.NodeId
	id[0] = b
	return id
}

func newTestNode(t *testing.T) *storage.Node {
	t.Helper()

	database, err := db.NewBadgerDbInMemory()
	require.NoError(t, err)
	t.Cleanup(database.Close)

	node, err := storage.NewNode(
		storage.DefaultConfig(testNodeId(0x01)), storage.MinStake, database, zerolog.Nop())
	require.NoError(t, err)
	return node
}

func storeObject(t *testing.T, node *storage.Node, object []byte) common.Hash {
	t.Helper()

	hash := common.Sha256Hash(object)
	proof := zkp.NewProof([]byte("proof"), [][]byte{hash.Bytes()}, common.EmptyHash, zkp.Metadata{})
	stored, err := node.Store(context.Background(), object, proof)
	require.NoError(t, err)
	return stored
}

func TestNewResponseManagerValidation(t *testing.T) {
	t.Parallel()

	node := newTestNode(t)

	_, err := NewResponseManager(node, &flakyBackend{}, 0, time.Second, zerolog.Nop())
	require.ErrorIs(t, err, ErrInvalidThreshold)

	_, err = NewResponseManager(node, &flakyBackend{}, 1, 500*time.Millisecond, zerolog.Nop())
	require.ErrorIs(t, err, ErrInvalidInterval)

	_, err = NewResponseManager(node, &flakyBackend{}, 1, time.Second, zerolog.Nop())
	require.NoError(t, err)
}

func TestStartGuard(t *testing.T) {
	t.Parallel()

	node := newTestNode(t)
	manager, err := NewResponseManager(node, &flakyBackend{}, 1, time.Second, zerolog.Nop())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, manager.Start(ctx))
	require.ErrorIs(t, manager.Start(ctx), ErrVerificationInProgress)

	manager.Stop()
	require.NoError(t, manager.Start(ctx))
	manager.Stop()
}

func TestRetryAccounting(t *testing.T) {
	t.Parallel()

	node := newTestNode(t)
	storeObject(t, node, []byte("object"))

	backend := &flakyBackend{failures: 2}
	manager, err := NewResponseManager(node, backend, 1, time.Second, zerolog.Nop())
	require.NoError(t, err)
	manager.backoffBase = time.Millisecond

	manager.runCycle(context.Background())

	assert.Equal(t, 3, backend.callCount())
	snapshot := manager.Metrics()
	assert.Equal(t, uint64(1), snapshot.SuccessfulVerifications)
	assert.Equal(t, uint64(0), snapshot.FailedVerifications)
	assert.Equal(t, uint64(1), snapshot.TotalVerifications)
}

func TestRetryExhaustion(t *testing.T) {
	t.Parallel()

	node := newTestNode(t)
	storeObject(t, node, []byte("object"))

	backend := &flakyBackend{failures: 10}
	manager, err := NewResponseManager(node, backend, 1, time.Second, zerolog.Nop())
	require.NoError(t, err)
	manager.backoffBase = time.Millisecond

	manager.runCycle(context.Background())

	// Bounded attempts, one failure tally.
	assert.Equal(t, 3, backend.callCount())
	snapshot := manager.Metrics()
	assert.Equal(t, uint64(0), snapshot.SuccessfulVerifications)
	assert.Equal(t, uint64(1), snapshot.FailedVerifications)
}

func TestThresholdGate(t *testing.T) {
	t.Parallel()

	node := newTestNode(t)
	storeObject(t, node, []byte("object"))

	backend := &flakyBackend{}
	manager, err := NewResponseManager(node, backend, 2, time.Second, zerolog.Nop())
	require.NoError(t, err)

	manager.runCycle(context.Background())
	assert.Zero(t, backend.callCount())

	storeObject(t, node, []byte("second object"))
	manager.runCycle(context.Background())
	assert.Equal(t, 2, backend.callCount())
}

func TestSizeCeilingAbortsCycle(t *testing.T) {
	t.Parallel()

	node := newTestNode(t)
	storeObject(t, node, make([]byte, maxCellDataSize+1))

	backend := &flakyBackend{}
	manager, err := NewResponseManager(node, backend, 1, time.Second, zerolog.Nop())
	require.NoError(t, err)

	manager.runCycle(context.Background())

	// The cycle aborts before verification; the manager itself stays usable.
	assert.Zero(t, backend.callCount())
	assert.Equal(t, uint64(0), manager.Metrics().TotalVerifications)
}

func TestStopInterruptsBackoff(t *testing.T) {
	t.Parallel()

	node := newTestNode(t)
	storeObject(t, node, []byte("object"))

	backend := &flakyBackend{failures: 10}
	manager, err := NewResponseManager(node, backend, 1, time.Second, zerolog.Nop())
	require.NoError(t, err)
	manager.backoffBase = time.Minute

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		manager.runCycle(ctx)
	}()

	// Give the cycle time to enter its first backoff delay, then cancel.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("cycle did not observe cancellation during backoff")
	}

	// A canceled verification is not tallied.
	assert.Equal(t, uint64(0), manager.Metrics().TotalVerifications)
}

func TestMetricsRunningAverage(t *testing.T) {
	t.Parallel()

	m := &Metrics{}
	m.recordSuccess(10)
	m.recordFailure(20)
	m.recordSuccess(30)

	snapshot := m.Snapshot()
	assert.Equal(t, uint64(3), snapshot.TotalVerifications)
	assert.Equal(t, uint64(2), snapshot.SuccessfulVerifications)
	assert.Equal(t, uint64(1), snapshot.FailedVerifications)
	assert.InDelta(t, 20.0, snapshot.AverageLatencyMs, 0.001)
}
