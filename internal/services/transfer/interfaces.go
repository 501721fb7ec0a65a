package transfer

import (
	"context"
	"time"
)

// Service executes transfers between accounts.
type Service interface {
	Execute(ctx context.Context, req Request) (*Result, error)
}

// OTPVerifier checks a one-time code issued to subject.
type OTPVerifier interface {
	Verify(ctx context.Context, subject, code string) error
}

// BalanceInvalidator evicts cached balances after a commit.
type BalanceInvalidator interface {
	InvalidateBalances(ctx context.Context, accountNumbers ...string) error
}

// MetricsCollector defines the interface for collecting transfer metrics
type MetricsCollector interface {
	// Operation metrics
	RecordOperationDuration(operation string, duration time.Duration)
	RecordOperationResult(operation, result string)

	// Error metrics
	RecordError(operation, errType string)

	// Transaction metrics
	RecordTransaction(txType string, amount int64)
}
