package observability

import (
	"context"
	"time"

	"feedbackboard/internal/config"
	contextutils "feedbackboard/internal/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// InitMetrics initializes OpenTelemetry metrics
func InitMetrics(cfg *config.OpenTelemetryConfig) (result0 *metric.MeterProvider, err error) {
	ctx := context.Background()

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var exporter metric.Exporter
	switch cfg.Protocol {
	case "grpc":
		opts := []otlpmetricgrpc.Option{
			otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
			otlpmetricgrpc.WithHeaders(cfg.Headers),
		}
		if cfg.Insecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		exp, err := otlpmetricgrpc.New(ctx, opts...)
		if err != nil {
			return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create otlp grpc metric exporter: %w", err)
		}
		exporter = exp
	case "http":
		opts := []otlpmetrichttp.Option{
			otlpmetrichttp.WithEndpoint(cfg.Endpoint),
			otlpmetrichttp.WithHeaders(cfg.Headers),
		}
		if cfg.Insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		exp, err := otlpmetrichttp.New(ctx, opts...)
		if err != nil {
			return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create otlp http metric exporter: %w", err)
		}
		exporter = exp
	default:
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "unsupported otel protocol: %s", cfg.Protocol)
	}

	mp := metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(exporter)),
		metric.WithResource(res),
	)
	return mp, nil
}

// BoardMetrics holds the instruments recorded by the board controller
type BoardMetrics struct {
	reloads  otelmetric.Int64Counter
	stale    otelmetric.Int64Counter
	duration otelmetric.Float64Histogram
}

// NewBoardMetrics registers the board instruments on meter. A nil meter uses
// the global meter provider.
func NewBoardMetrics(meter otelmetric.Meter) (result0 *BoardMetrics, err error) {
	if meter == nil {
		meter = otel.Meter("feedbackboard")
	}

	reloads, err := meter.Int64Counter("board.reloads",
		otelmetric.WithDescription("Completed list reloads by trigger and outcome"))
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create reload counter: %w", err)
	}
	stale, err := meter.Int64Counter("board.reloads.stale",
		otelmetric.WithDescription("List responses discarded because a newer reload was issued"))
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create stale counter: %w", err)
	}
	duration, err := meter.Float64Histogram("board.reload.duration_ms",
		otelmetric.WithDescription("List reload latency"),
		otelmetric.WithUnit("ms"))
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create reload histogram: %w", err)
	}

	return &BoardMetrics{reloads: reloads, stale: stale, duration: duration}, nil
}

// RecordReload counts one finished reload and its latency
func (m *BoardMetrics) RecordReload(ctx context.Context, trigger, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("trigger", trigger),
		attribute.String("outcome", outcome),
	)
	m.reloads.Add(ctx, 1, attrs)
	m.duration.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)
}

// RecordStale counts one discarded out-of-order response
func (m *BoardMetrics) RecordStale(ctx context.Context, trigger string) {
	if m == nil {
		return
	}
	m.stale.Add(ctx, 1, otelmetric.WithAttributes(attribute.String("trigger", trigger)))
}
