package otel

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"basegraph.app/specflow/core/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv126 "go.opentelemetry.io/otel/semconv/v1.26.0"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
)

// A run produces a handful of spans and then exits, so batches are small and
// flushed often; Shutdown drains whatever is left.
const (
	batchTimeout  = time.Second
	exportTimeout = 10 * time.Second
)

// Telemetry owns the trace and log providers for one process.
// A nil *Telemetry is valid and does nothing.
type Telemetry struct {
	tracerProvider *sdktrace.TracerProvider
	loggerProvider *sdklog.LoggerProvider
}

// Shutdown flushes pending spans and log records. Call it before the process
// exits or the last batch is lost.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}

	var errs []error
	if t.tracerProvider != nil {
		if err := t.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
		}
	}
	if t.loggerProvider != nil {
		if err := t.loggerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("logger shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Setup exports traces and logs over OTLP/HTTP and installs the providers
// globally. Returns nil when no endpoint is configured.
func Setup(ctx context.Context, cfg config.Config) (*Telemetry, error) {
	if !cfg.OTel.Enabled() {
		return nil, nil
	}

	res, err := newResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}
	headers := ParseHeaders(cfg.OTel.Headers)

	tracerProvider, err := newTracerProvider(ctx, cfg.OTel.Endpoint, headers, res)
	if err != nil {
		return nil, err
	}

	loggerProvider, err := newLoggerProvider(ctx, cfg.OTel.Endpoint, headers, res)
	if err != nil {
		_ = tracerProvider.Shutdown(ctx)
		return nil, err
	}

	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	global.SetLoggerProvider(loggerProvider)

	return &Telemetry{
		tracerProvider: tracerProvider,
		loggerProvider: loggerProvider,
	}, nil
}

// newResource describes this process: service identity, environment, and the
// models serving each pipeline node, so traces can be filtered by model.
func newResource(cfg config.Config) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.OTel.ServiceName),
			semconv.ServiceVersion(cfg.OTel.ServiceVersion),
			semconv126.DeploymentEnvironment(cfg.Env),
			attribute.String("specflow.reader.provider", cfg.ReaderLLM.Provider),
			attribute.String("specflow.reader.model", cfg.ReaderLLM.Model),
			attribute.String("specflow.writer.provider", cfg.WriterLLM.Provider),
			attribute.String("specflow.writer.model", cfg.WriterLLM.Model),
		),
	)
}

func newTracerProvider(ctx context.Context, endpoint string, headers map[string]string, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(SignalURL(endpoint, "traces")),
		otlptracehttp.WithHeaders(headers),
		otlptracehttp.WithTimeout(exportTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter, sdktrace.WithBatchTimeout(batchTimeout)),
		sdktrace.WithResource(res),
	), nil
}

func newLoggerProvider(ctx context.Context, endpoint string, headers map[string]string, res *resource.Resource) (*sdklog.LoggerProvider, error) {
	exporter, err := otlploghttp.New(ctx,
		otlploghttp.WithEndpointURL(SignalURL(endpoint, "logs")),
		otlploghttp.WithHeaders(headers),
		otlploghttp.WithTimeout(exportTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("creating log exporter: %w", err)
	}

	return sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter, sdklog.WithExportInterval(batchTimeout))),
		sdklog.WithResource(res),
	), nil
}

// SignalURL builds the OTLP/HTTP URL for signal ("traces" or "logs") from the
// base endpoint. An endpoint that already names a signal path is reduced to
// its base first, so either form of OTEL_EXPORTER_OTLP_ENDPOINT works.
func SignalURL(endpoint, signal string) string {
	base := strings.TrimSuffix(endpoint, "/")
	for _, s := range []string{"/v1/traces", "/v1/logs"} {
		base = strings.TrimSuffix(base, s)
	}
	return base + "/v1/" + signal
}

// ParseHeaders parses the OTEL_EXPORTER_OTLP_HEADERS format: "k1=v1,k2=v2".
// Empty keys are dropped.
func ParseHeaders(s string) map[string]string {
	headers := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		headers[key] = strings.TrimSpace(value)
	}
	return headers
}
