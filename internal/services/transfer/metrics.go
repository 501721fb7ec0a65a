package transfer

import "time"

// NoopMetricsCollector is a no-op implementation of MetricsCollector
type NoopMetricsCollector struct{}

func (n *NoopMetricsCollector) RecordOperationDuration(string, time.Duration) {}
func (n *NoopMetricsCollector) RecordOperationResult(string, string)          {}
func (n *NoopMetricsCollector) RecordError(string, string)                    {}
func (n *NoopMetricsCollector) RecordTransaction(string, int64)               {}
