// Package telemetry provides OpenTelemetry-based observability for the
// pipeline package: one span per pipeline invocation and RED (Rate, Errors,
// Duration) metrics broken out by pipeline name and terminal status.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// AttrTraceId and AttrStatus are the engine's own span/metric attribute
// keys, distinct from the OTel trace id that the exporter assigns a span —
// trace_id here is the engine's audit-chain trace_id (spec.md §3).
var (
	AttrTraceId = attribute.Key("provenance.trace_id")
	AttrStatus  = attribute.Key("provenance.status")
)

// Config configures the OpenTelemetry providers.
type Config struct {
	ServiceName  string        `yaml:"service_name" json:"service_name"`
	OTLPEndpoint string        `yaml:"otlp_endpoint" json:"otlp_endpoint"` // e.g. "localhost:4317"
	SampleRate   float64       `yaml:"sample_rate" json:"sample_rate"`
	BatchTimeout time.Duration `yaml:"batch_timeout" json:"batch_timeout"`
	Enabled      bool          `yaml:"enabled" json:"enabled"`
	Insecure     bool          `yaml:"insecure" json:"insecure"`
}

// DefaultConfig returns telemetry disabled by default — a deployment opts
// in by setting Enabled and an OTLPEndpoint via pkg/config.
func DefaultConfig() Config {
	return Config{
		ServiceName:  "provenance-engine",
		OTLPEndpoint: "localhost:4317",
		SampleRate:   1.0,
		BatchTimeout: 5 * time.Second,
		Enabled:      false,
		Insecure:     true,
	}
}

// Provider holds the tracer/meter and the RED instruments every pipeline
// invocation records through. A nil *Provider is valid and every method on
// it is a no-op, so pipeline.Deps can carry one unconditionally.
type Provider struct {
	config         Config
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	tracer         trace.Tracer
	meter          metric.Meter
	logger         *slog.Logger

	pipelineCounter metric.Int64Counter
	errorCounter    metric.Int64Counter
	durationHist    metric.Float64Histogram
}

// New builds a Provider. When cfg.Enabled is false it returns a Provider
// whose methods are all no-ops but that still satisfies every call site —
// the caller need not branch on whether telemetry is configured.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	p := &Provider{config: cfg, logger: slog.Default().With("component", "telemetry")}
	if !cfg.Enabled {
		return p, nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: build resource: %w", err)
	}

	if err := p.initTraceProvider(ctx, res); err != nil {
		return nil, fmt.Errorf("telemetry: init trace provider: %w", err)
	}
	if err := p.initMetricProvider(ctx, res); err != nil {
		return nil, fmt.Errorf("telemetry: init metric provider: %w", err)
	}

	p.tracer = otel.Tracer("provenance-engine/pipeline")
	p.meter = otel.Meter("provenance-engine/pipeline")
	if err := p.initInstruments(); err != nil {
		return nil, fmt.Errorf("telemetry: init instruments: %w", err)
	}

	p.logger.InfoContext(ctx, "telemetry initialized", "endpoint", cfg.OTLPEndpoint, "sample_rate", cfg.SampleRate)
	return p, nil
}

func (p *Provider) initTraceProvider(ctx context.Context, res *resource.Resource) error {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(p.config.OTLPEndpoint)}
	if p.config.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return err
	}

	var sampler sdktrace.Sampler
	switch {
	case p.config.SampleRate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	case p.config.SampleRate <= 0.0:
		sampler = sdktrace.NeverSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(p.config.SampleRate)
	}

	p.tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(p.config.BatchTimeout)),
		sdktrace.WithSampler(sampler),
	)
	otel.SetTracerProvider(p.tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	return nil
}

func (p *Provider) initMetricProvider(ctx context.Context, res *resource.Resource) error {
	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(p.config.OTLPEndpoint)}
	if p.config.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return err
	}

	p.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(15*time.Second))),
	)
	otel.SetMeterProvider(p.meterProvider)
	return nil
}

func (p *Provider) initInstruments() error {
	var err error
	p.pipelineCounter, err = p.meter.Int64Counter("provenance.pipeline.runs",
		metric.WithDescription("Pipeline invocations, by pipeline name and terminal status"),
		metric.WithUnit("{run}"))
	if err != nil {
		return err
	}
	p.errorCounter, err = p.meter.Int64Counter("provenance.pipeline.errors",
		metric.WithDescription("Pipeline invocations that returned an error"),
		metric.WithUnit("{error}"))
	if err != nil {
		return err
	}
	p.durationHist, err = p.meter.Float64Histogram("provenance.pipeline.duration",
		metric.WithDescription("Pipeline wall-clock duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0))
	return err
}

// Shutdown flushes and tears down the exporters. Safe to call on a nil or
// disabled Provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	if p.tracerProvider != nil {
		if err := p.tracerProvider.Shutdown(ctx); err != nil {
			return err
		}
	}
	if p.meterProvider != nil {
		return p.meterProvider.Shutdown(ctx)
	}
	return nil
}

// TrackPipeline starts a span named pipeline and returns an end function
// the caller defers, passing the pipeline's terminal status (or an error,
// which takes precedence over status for the span's own error recording).
// Safe to call on a nil Provider — the returned end func is then a no-op.
func (p *Provider) TrackPipeline(traceId, pipeline string) func(status string, err error) {
	if p == nil || p.tracer == nil {
		return func(string, error) {}
	}

	start := time.Now()
	_, span := p.tracer.Start(context.Background(), pipeline,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(AttrTraceId.String(traceId)),
	)

	return func(status string, err error) {
		duration := time.Since(start)
		attrs := []attribute.KeyValue{
			attribute.String("pipeline", pipeline),
			AttrStatus.String(status),
		}
		if p.pipelineCounter != nil {
			p.pipelineCounter.Add(context.Background(), 1, metric.WithAttributes(attrs...))
		}
		if p.durationHist != nil {
			p.durationHist.Record(context.Background(), duration.Seconds(), metric.WithAttributes(attrs...))
		}
		if err != nil {
			span.RecordError(err)
			if p.errorCounter != nil {
				p.errorCounter.Add(context.Background(), 1, metric.WithAttributes(attrs...))
			}
		} else {
			span.SetAttributes(AttrStatus.String(status))
		}
		span.End()
	}
}
