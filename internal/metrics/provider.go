package metrics

import (
	"context"
	"fmt"

	"bankcore/internal/config"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
)

// NewMeterProvider builds the SDK meter provider for the service. When
// cfg.Endpoint is set, metrics are pushed to that OTLP/gRPC collector every
// cfg.ExportInterval. Extra options (such as a reader in tests) are applied
// last. The caller owns Shutdown.
func NewMeterProvider(ctx context.Context, cfg config.MetricsConfig, opts ...sdkmetric.Option) (*sdkmetric.MeterProvider, error) {
	res := sdkresource.NewSchemaless(
		attribute.String("service.name", cfg.ServiceName),
	)
	options := []sdkmetric.Option{sdkmetric.WithResource(res)}

	if cfg.Endpoint != "" {
		exp, err := otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
			otlpmetricgrpc.WithInsecure())
		if err != nil {
			return nil, fmt.Errorf("can't initialize metric exporter: %w", err)
		}

		var readerOpts []sdkmetric.PeriodicReaderOption
		if cfg.ExportInterval > 0 {
			readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.ExportInterval))
		}
		options = append(options, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp, readerOpts...)))
	}

	return sdkmetric.NewMeterProvider(append(options, opts...)...), nil
}
