package transfer

import "time"

// Default configuration values
const (
	DefaultUnitTimeout    = 10 * time.Second
	DefaultMaxRetries     = 3
	DefaultRetryBaseDelay = 20 * time.Millisecond
)

// Operation names reported to MetricsCollector.
const (
	OperationExecute = "transfer.execute"

	ResultSuccess = "success"
	ResultFailure = "failure"
)
