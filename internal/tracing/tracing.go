package tracing

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"time"

	"github.com/moolen/researchlab/internal/config"
	"github.com/moolen/researchlab/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

// ServiceName is reported as service.name on every exported span.
const ServiceName = "researchlab"

// Provider owns the OTLP exporter for pipeline spans and implements
// lifecycle.Component so buffered spans are flushed on shutdown.
type Provider struct {
	tracerProvider *sdktrace.TracerProvider
	logger         *logging.Logger
	enabled        bool
}

// NewProvider builds the exporter described by cfg. When tracing is disabled
// the returned provider is a no-op and the global otel provider is left alone.
func NewProvider(cfg config.TracingConfig, version string) (*Provider, error) {
	logger := logging.GetLogger("tracing")

	if !cfg.Enabled {
		logger.Debug("Tracing disabled")
		return &Provider{logger: logger}, nil
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("tracing enabled but endpoint not configured")
	}

	creds, err := transportCredentials(cfg, logger)
	if err != nil {
		return nil, err
	}

	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(creds)),
	}
	if cfg.TLSCAPath == "" && !cfg.TLSInsecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	if version == "" {
		version = "dev"
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(ServiceName),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)

	logger.Info("Tracing initialized with endpoint: %s", cfg.Endpoint)
	return &Provider{tracerProvider: tp, logger: logger, enabled: true}, nil
}

func transportCredentials(cfg config.TracingConfig, logger *logging.Logger) (credentials.TransportCredentials, error) {
	switch {
	case cfg.TLSInsecure:
		logger.Info("TLS enabled for tracing with certificate verification disabled (insecure mode)")
		return credentials.NewTLS(&tls.Config{
			InsecureSkipVerify: true, //nolint:gosec // opt-in via tracing.tls_insecure
			MinVersion:         tls.VersionTLS12,
		}), nil
	case cfg.TLSCAPath != "":
		caCert, err := os.ReadFile(cfg.TLSCAPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to append CA certificate to pool")
		}
		logger.Info("TLS enabled for tracing with CA from: %s", cfg.TLSCAPath)
		return credentials.NewTLS(&tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}), nil
	default:
		logger.Debug("TLS disabled for tracing")
		return insecure.NewCredentials(), nil
	}
}

// Start implements lifecycle.Component.
func (p *Provider) Start(ctx context.Context) error {
	return nil
}

// Stop flushes remaining spans.
func (p *Provider) Stop(ctx context.Context) error {
	if !p.enabled {
		return nil
	}
	if err := p.tracerProvider.Shutdown(ctx); err != nil {
		p.logger.Error("Error shutting down tracer provider: %v", err)
		return err
	}
	p.logger.Debug("Tracing provider stopped")
	return nil
}

// Name implements lifecycle.Component.
func (p *Provider) Name() string {
	return "tracing"
}

// Tracer returns a tracer from the global provider. It is a no-op tracer when
// tracing is disabled.
func (p *Provider) Tracer(name string) trace.Tracer {
	return otel.GetTracerProvider().Tracer(name)
}

// IsEnabled reports whether spans are exported.
func (p *Provider) IsEnabled() bool {
	return p.enabled
}
