package replication

import (
	"context"

	"github.com/overpass-network/overpass/internal/telemetry"
)

// MetricsHandler exports verification outcomes through the configured
// meter provider, alongside the in-process Metrics counters.
type MetricsHandler struct {
	measurer *telemetry.Measurer

	// Histograms
	verificationLatency telemetry.Histogram

	// Counters
	successfulVerifications telemetry.Counter
	failedVerifications     telemetry.Counter
	abortedCycles           telemetry.Counter
}

func NewMetricsHandler(name string) (*MetricsHandler, error) {
	meter := telemetry.NewMeter(name)
	measurer, err := telemetry.NewMeasurer(meter, "verification_cycle")
	if err != nil {
		return nil, err
	}

	handler := &MetricsHandler{
		measurer: measurer,
	}

	if err := handler.initMetrics(meter); err != nil {
		return nil, err
	}

	return handler, nil
}

func (mh *MetricsHandler) initMetrics(meter telemetry.Meter) error {
	var err error

	mh.verificationLatency, err = meter.Int64Histogram("verification_latency_ms")
	if err != nil {
		return err
	}

	mh.successfulVerifications, err = meter.Int64Counter("successful_verifications")
	if err != nil {
		return err
	}

	mh.failedVerifications, err = meter.Int64Counter("failed_verifications")
	if err != nil {
		return err
	}

	mh.abortedCycles, err = meter.Int64Counter("aborted_cycles")
	if err != nil {
		return err
	}

	return nil
}

func (mh *MetricsHandler) StartCycleMeasurement() {
	mh.measurer.Restart()
}

func (mh *MetricsHandler) EndCycleMeasurement(ctx context.Context) {
	mh.measurer.Measure(ctx)
}

func (mh *MetricsHandler) RecordSuccess(ctx context.Context, latencyMs int64) {
	mh.successfulVerifications.Add(ctx, 1)
	mh.verificationLatency.Record(ctx, latencyMs)
}

func (mh *MetricsHandler) RecordFailure(ctx context.Context, latencyMs int64) {
	mh.failedVerifications.Add(ctx, 1)
	mh.verificationLatency.Record(ctx, latencyMs)
}

func (mh *MetricsHandler) RecordAbortedCycle(ctx context.Context) {
	mh.abortedCycles.Add(ctx, 1)
}
