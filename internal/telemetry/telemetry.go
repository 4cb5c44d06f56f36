package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

type (
	Meter     = metric.Meter
	Counter   = metric.Int64Counter
	Histogram = metric.Int64Histogram
	Gauge     = metric.Int64Gauge
)

type ExportOption int

const (
	ExportOptionNone ExportOption = iota
	ExportOptionStdout
	ExportOptionGrpc
)

type Config struct {
	ServiceName string

	MetricExportOption ExportOption
}

func Init(ctx context.Context, config *Config) error {
	return initMetrics(ctx, config)
}

func Shutdown(ctx context.Context) {
	shutdownMetrics(ctx)
}

func NewMeter(name string) Meter {
	return otel.Meter(name)
}
