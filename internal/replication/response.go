package replication

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/overpass-network/overpass/common"
	"github.com/overpass-network/overpass/common/concurrent"
	"github.com/overpass-network/overpass/common/logging"
	"github.com/overpass-network/overpass/internal/storage"
	"github.com/overpass-network/overpass/internal/zkp"
)

const (
	// maxCellDataSize is the ceiling on aggregate stored object size.
	// Exceeding it aborts the cycle without evicting anything.
	maxCellDataSize = 1 << 20

	minResponseInterval = time.Second

	maxVerifyAttempts = 3
	defaultBackoff    = time.Second
	maxBackoff        = 30 * time.Second
)

// ResponseManager runs the background verification loop of a storage node.
// At most one loop runs per manager; cycles are sequential and a stored
// proof that appears mid-cycle is picked up on the next one.
type ResponseManager struct {
	node      *storage.Node
	backend   zkp.Backend
	threshold int
	interval  time.Duration

	// backoffBase seeds the inter-attempt delay sequence. Tests shrink it.
	backoffBase time.Duration

	stats   *Metrics
	handler *MetricsHandler
	logger  zerolog.Logger

	running atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewResponseManager validates the loop configuration up front. A threshold
// below 1 or an interval below one second is a construction error, not a
// runtime fault.
func NewResponseManager(
	node *storage.Node,
	backend zkp.Backend,
	threshold int,
	interval time.Duration,
	logger zerolog.Logger,
) (*ResponseManager, error) {
	if threshold < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidThreshold, threshold)
	}
	if interval < minResponseInterval {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidInterval, interval)
	}

	return &ResponseManager{
		node:        node,
		backend:     backend,
		threshold:   threshold,
		interval:    interval,
		backoffBase: defaultBackoff,
		stats:       &Metrics{},
		logger:      logger.With().Str(logging.FieldComponent, "response-manager").Logger(),
	}, nil
}

// WithMetricsHandler attaches an exporter-backed handler. Must be called
// before Start.
func (m *ResponseManager) WithMetricsHandler(handler *MetricsHandler) *ResponseManager {
	m.handler = handler
	return m
}

func (m *ResponseManager) Metrics() MetricsSnapshot {
	return m.stats.Snapshot()
}

// Start launches the verification loop. A second Start while the loop runs
// fails with ErrVerificationInProgress rather than silently doing nothing.
func (m *ResponseManager) Start(ctx context.Context) error {
	if !m.running.CompareAndSwap(false, true) {
		return ErrVerificationInProgress
	}

	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})

	go func() {
		defer close(m.done)
		defer m.running.Store(false)
		concurrent.RunTickerLoop(loopCtx, m.interval, m.runCycle)
	}()

	m.logger.Info().
		Int("threshold", m.threshold).
		Stringer("interval", m.interval).
		Msg("verification loop started")
	return nil
}

// Stop cancels the loop and waits for the current cycle to wind down.
// A cycle sitting in a backoff delay observes the cancellation instead of
// completing the sleep.
func (m *ResponseManager) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
	m.logger.Info().Msg("verification loop stopped")
}

func (m *ResponseManager) runCycle(ctx context.Context) {
	if m.handler != nil {
		m.handler.StartCycleMeasurement()
		defer m.handler.EndCycleMeasurement(ctx)
	}

	if size := m.node.TotalCellSize(); size > maxCellDataSize {
		m.logger.Error().
			Err(ErrResponseSizeExceeded).
			Int("size", size).
			Int("limit", maxCellDataSize).
			Msg("verification cycle aborted")
		if m.handler != nil {
			m.handler.RecordAbortedCycle(ctx)
		}
		return
	}

	hashes := m.node.ProofHashes()
	if len(hashes) < m.threshold {
		return
	}

	for _, hash := range hashes {
		select {
		case <-ctx.Done():
			return
		default:
		}
		m.verifyProof(ctx, hash)
	}
}

// verifyProof verifies one stored proof with bounded retries. Whatever the
// attempt count, the outcome lands in the metrics exactly once.
func (m *ResponseManager) verifyProof(ctx context.Context, hash common.Hash) {
	proof, err := m.node.RetrieveProof(ctx, hash)
	if err != nil {
		m.logger.Warn().Err(err).
			Stringer(logging.FieldProofHash, hash).
			Msg("stored proof disappeared before verification")
		return
	}

	runner := common.NewRetryRunner(common.RetryConfig{
		ShouldRetry: common.LimitRetries(maxVerifyAttempts),
		NextDelay:   common.DoublingDelay(m.backoffBase, maxBackoff),
	}, m.logger)

	started := time.Now()
	err = runner.Do(ctx, func(ctx context.Context) error {
		ok, err := m.backend.Verify(proof.Data)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s", ErrVerificationFailed, hash)
		}
		return nil
	})
	latencyMs := float64(time.Since(started)) / float64(time.Millisecond)

	if ctx.Err() != nil {
		// Canceled mid-verification; the proof is retried next start.
		return
	}

	if err != nil {
		m.stats.recordFailure(latencyMs)
		if m.handler != nil {
			m.handler.RecordFailure(ctx, int64(latencyMs))
		}
		m.logger.Error().Err(err).
			Stringer(logging.FieldProofHash, hash).
			Msg("proof verification failed after retries")
		return
	}

	m.stats.recordSuccess(latencyMs)
	if m.handler != nil {
		m.handler.RecordSuccess(ctx, int64(latencyMs))
	}
	m.logger.Debug().
		Stringer(logging.FieldProofHash, hash).
		Msg("proof verified")
}
