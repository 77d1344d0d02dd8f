package observability

import (
	"context"
	"net/http"

	"feedback-insights-demo/backend/pkg/logger"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// SetupTracing installs an OpenTelemetry tracer provider. The stdout
// exporter stands in for OTLP until a collector is deployed.
func SetupTracing(serviceName string, log *logger.Logger) func() {
	exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		log.Error("failed to initialize stdouttrace exporter", "error", err)
		return func() {}
	}
	res, _ := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
	provider := trace.NewTracerProvider(
		trace.WithBatcher(exp),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	return func() { _ = provider.Shutdown(context.Background()) }
}

// SetupPrometheusMetrics wires the OTel metric pipeline into the default
// Prometheus registry and serves /metrics on its own listener, away from
// the API port.
func SetupPrometheusMetrics(addr string, log *logger.Logger) *metric.MeterProvider {
	exp, err := prometheus.New()
	if err != nil {
		log.Error("failed to initialize prometheus exporter", "error", err)
		return nil
	}
	mp := metric.NewMeterProvider(metric.WithReader(exp))
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Error("metrics listener stopped", "error", err)
		}
	}()
	return mp
}
