// Package metrics sets up the OTel meter provider and its readers.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"
)

// MetricProvider is an installed meter provider.
type MetricProvider interface {
	Meter(name string, options ...metric.MeterOption) metric.Meter
	Shutdown(ctx context.Context) error
}

// Settings selects the metric readers.
type Settings struct {
	ServiceName string
	// Prometheus exposes a pull endpoint through Provider.Handler.
	Prometheus bool
	// OTLPEndpoint pushes to a collector over gRPC when set.
	OTLPEndpoint string
	OTLPHeaders  map[string]string
	Insecure     bool
	Interval     time.Duration
}

// Provider owns the meter provider and the Prometheus registry behind it.
type Provider struct {
	*sdkmetric.MeterProvider
	registry *prometheus.Registry
}

// NewMetricProvider builds the readers named in s and installs the provider
// globally. Instruments created through otel.Meter before this call are
// rebound by the OTel global delegate.
func NewMetricProvider(ctx context.Context, s Settings) (*Provider, error) {
	var (
		opts     []sdkmetric.Option
		registry *prometheus.Registry
	)

	if s.Prometheus {
		registry = prometheus.NewRegistry()
		exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
		if err != nil {
			return nil, err
		}
		opts = append(opts, sdkmetric.WithReader(exporter))
	}

	if s.OTLPEndpoint != "" {
		grpcOpts := []otlpmetricgrpc.Option{
			otlpmetricgrpc.WithEndpointURL(s.OTLPEndpoint),
			otlpmetricgrpc.WithHeaders(s.OTLPHeaders),
		}
		if s.Insecure {
			grpcOpts = append(grpcOpts, otlpmetricgrpc.WithInsecure())
		}
		exporter, err := otlpmetricgrpc.New(ctx, grpcOpts...)
		if err != nil {
			return nil, err
		}

		interval := s.Interval
		if interval <= 0 {
			interval = 30 * time.Second
		}
		opts = append(opts, sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval)),
		))
	}

	opts = append(opts, sdkmetric.WithResource(
		resource.NewSchemaless(semconv.ServiceNameKey.String(s.ServiceName)),
	))

	mp := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(mp)

	return &Provider{MeterProvider: mp, registry: registry}, nil
}

// Handler serves the Prometheus exposition format. It answers 404 when
// Prometheus is disabled.
func (p *Provider) Handler() http.Handler {
	if p.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
