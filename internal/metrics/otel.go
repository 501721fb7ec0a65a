// Package metrics exports transfer metrics through OpenTelemetry.
package metrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "bankcore.transfer"

// OtelCollector implements transfer.MetricsCollector.
type OtelCollector struct {
	duration     metric.Float64Histogram
	results      metric.Int64Counter
	errors       metric.Int64Counter
	transactions metric.Int64Counter
	volume       metric.Int64Counter
}

// NewOtelCollector creates the instruments on provider, or on the global
// provider when nil.
func NewOtelCollector(provider metric.MeterProvider) (*OtelCollector, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(meterName)

	var (
		c   OtelCollector
		err error
	)

	c.duration, err = meter.Float64Histogram(
		"transfer.operation.duration",
		metric.WithDescription("Duration of transfer operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create transfer.operation.duration histogram: %w", err)
	}

	c.results, err = meter.Int64Counter(
		"transfer.operation.results",
		metric.WithDescription("Outcomes of transfer operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create transfer.operation.results counter: %w", err)
	}

	c.errors, err = meter.Int64Counter(
		"transfer.errors",
		metric.WithDescription("Failed transfer operations by error kind"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create transfer.errors counter: %w", err)
	}

	c.transactions, err = meter.Int64Counter(
		"transfer.transactions",
		metric.WithDescription("Committed transfers"),
		metric.WithUnit("{transfer}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create transfer.transactions counter: %w", err)
	}

	c.volume, err = meter.Int64Counter(
		"transfer.volume",
		metric.WithDescription("Sum of committed transfer amounts in minor units"),
		metric.WithUnit("{minor_unit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create transfer.volume counter: %w", err)
	}

	return &c, nil
}

func (c *OtelCollector) RecordOperationDuration(operation string, duration time.Duration) {
	c.duration.Record(context.Background(), duration.Seconds(),
		metric.WithAttributes(attribute.String("operation", operation)))
}

func (c *OtelCollector) RecordOperationResult(operation, result string) {
	c.results.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("operation", operation), attribute.String("result", result)))
}

func (c *OtelCollector) RecordError(operation, errType string) {
	c.errors.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("operation", operation), attribute.String("error_type", errType)))
}

func (c *OtelCollector) RecordTransaction(txType string, amount int64) {
	attrs := metric.WithAttributes(attribute.String("type", txType))
	c.transactions.Add(context.Background(), 1, attrs)
	c.volume.Add(context.Background(), amount, attrs)
}
