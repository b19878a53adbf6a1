package observability

import (
	"context"
	"os"

	"feedbackboard/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// SetupObservability initializes tracing, metrics, and logging for a service.
// Disabled signals fall back to no-op providers so callers never nil-check.
func SetupObservability(cfg *config.OpenTelemetryConfig, serviceName string) (result0 trace.TracerProvider, result1 *metric.MeterProvider, result2 *Logger, err error) {
	if serviceName != "" {
		cfg.ServiceName = serviceName
	}

	var tp trace.TracerProvider = noop.NewTracerProvider()
	var mp *metric.MeterProvider

	if err := os.Setenv("OTEL_SERVICE_NAME", cfg.ServiceName); err != nil {
		return nil, nil, nil, err
	}
	if err := os.Setenv("OTEL_SERVICE_VERSION", cfg.ServiceVersion); err != nil {
		return nil, nil, nil, err
	}

	logger := NewLogger(cfg)

	if cfg.EnableTracing {
		tp, err = InitStandardTracing(cfg)
		if err != nil {
			return nil, nil, nil, err
		}
		otel.SetTracerProvider(tp)
		InitTracing(cfg)
		InitGlobalTracer()

		logger.Info(context.Background(), "Tracing enabled", map[string]interface{}{"service_name": cfg.ServiceName, "protocol": cfg.Protocol})
	}

	if cfg.EnableMetrics {
		mp, err = InitMetrics(cfg)
		if err != nil {
			return nil, nil, nil, err
		}
		otel.SetMeterProvider(mp)
	}

	return tp, mp, logger, nil
}

// Shutdown flushes and stops whichever providers SetupObservability created
func Shutdown(ctx context.Context, tp trace.TracerProvider, mp *metric.MeterProvider, logger *Logger) {
	if sdkTP, ok := tp.(interface{ Shutdown(context.Context) error }); ok {
		if err := sdkTP.Shutdown(ctx); err != nil {
			logger.Error(ctx, "Failed to shut down tracer provider", err, nil)
		}
	}
	if mp != nil {
		if err := mp.Shutdown(ctx); err != nil {
			logger.Error(ctx, "Failed to shut down meter provider", err, nil)
		}
	}
	_ = logger.Sync()
}
