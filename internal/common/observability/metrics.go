// internal/common/observability/metrics.go
package observability

import (
	"context"
	"fmt"
	"time"

	"gradmatch-workers/internal/common/config"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// Observability owns the OTel meter and tracer providers. A nil
// *Observability is valid and records nothing.
type Observability struct {
	serviceName    string
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer

	jobCounter   otelmetric.Int64Counter
	jobDuration  otelmetric.Float64Histogram
	matchCount   otelmetric.Int64Histogram
	coverageMiss otelmetric.Int64Counter
}

// New builds the providers. reg may be nil to use the default Prometheus
// registerer.
func New(cfg config.ObservabilityConfig, reg promclient.Registerer) (*Observability, error) {
	o := &Observability{serviceName: cfg.ServiceName}

	opts := []prometheus.Option{}
	if reg != nil {
		opts = append(opts, prometheus.WithRegisterer(reg))
	}
	exporter, err := prometheus.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	o.meterProvider = metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(o.meterProvider)
	meter := o.meterProvider.Meter(cfg.ServiceName)

	o.jobCounter, _ = meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	)
	o.jobDuration, _ = meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	)
	o.matchCount, _ = meter.Int64Histogram(
		"matches.generated",
		otelmetric.WithDescription("Distinct matches returned per run"),
	)
	o.coverageMiss, _ = meter.Int64Counter(
		"matches.coverage_insufficient",
		otelmetric.WithDescription("Runs with fewer matches than required"),
	)

	if cfg.TracingEnabled {
		tp, err := newTracerProvider(cfg)
		if err != nil {
			_ = o.meterProvider.Shutdown(context.Background())
			return nil, err
		}
		o.tracerProvider = tp
		otel.SetTracerProvider(tp)
	}
	o.tracer = otel.Tracer(cfg.ServiceName)

	return o, nil
}

func (o *Observability) RecordJobProcessed(ctx context.Context, taskType, status string) {
	if o == nil || o.jobCounter == nil {
		return
	}
	o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("status", status),
	))
}

func (o *Observability) RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string) {
	if o == nil || o.jobDuration == nil {
		return
	}
	o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("status", status),
	))
}

func (o *Observability) RecordMatchRun(ctx context.Context, count int, sufficient bool) {
	if o == nil || o.matchCount == nil {
		return
	}
	o.matchCount.Record(ctx, int64(count))
	if !sufficient {
		o.coverageMiss.Add(ctx, 1)
	}
}

func (o *Observability) Shutdown(ctx context.Context) {
	if o == nil {
		return
	}
	if o.tracerProvider != nil {
		_ = o.tracerProvider.Shutdown(ctx)
	}
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
}
