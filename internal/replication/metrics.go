package replication

import "sync"

// Metrics accumulates verification outcomes. The verification loop is the
// only writer; readers may snapshot concurrently.
type Metrics struct {
	mu                      sync.RWMutex
	totalVerifications      uint64
	successfulVerifications uint64
	failedVerifications     uint64
	averageLatencyMs        float64
}

// MetricsSnapshot is a point-in-time copy of the counters.
type MetricsSnapshot struct {
	TotalVerifications      uint64
	SuccessfulVerifications uint64
	FailedVerifications     uint64
	AverageLatencyMs        float64
}

func (m *Metrics) recordSuccess(latencyMs float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.successfulVerifications++
	m.recordLatency(latencyMs)
}

func (m *Metrics) recordFailure(latencyMs float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failedVerifications++
	m.recordLatency(latencyMs)
}

// recordLatency maintains a running average over all verifications.
// Callers must hold the write lock.
func (m *Metrics) recordLatency(latencyMs float64) {
	m.totalVerifications++
	m.averageLatencyMs = (m.averageLatencyMs*float64(m.totalVerifications-1) + latencyMs) /
		float64(m.totalVerifications)
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return MetricsSnapshot{
		TotalVerifications:      m.totalVerifications,
		SuccessfulVerifications: m.successfulVerifications,
		FailedVerifications:     m.failedVerifications,
		AverageLatencyMs:        m.averageLatencyMs,
	}
}
