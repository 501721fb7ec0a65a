package transfer

import (
	"context"
	"time"

	apperrors "bankcore/internal/errors"
	"bankcore/internal/models"
	"bankcore/internal/repositories"
	"bankcore/internal/services/audit"
	"bankcore/internal/utils/validation"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Deps are the collaborators of the transfer service. Only Store is required.
type Deps struct {
	Store    repositories.Store
	Audit    audit.Sink
	Metrics  MetricsCollector
	OTP      OTPVerifier
	Balances BalanceInvalidator
	Logger   *zap.Logger
	Clock    func() time.Time
}

type service struct {
	store    repositories.Store
	audit    audit.Sink
	metrics  MetricsCollector
	otp      OTPVerifier
	balances BalanceInvalidator
	logger   *zap.Logger
	clock    func() time.Time
	config   Config
}

// NewService creates a new transfer service
func NewService(deps Deps, config Config) Service {
	if deps.Store == nil {
		panic("store is required")
	}
	if config.RequireOTP && deps.OTP == nil {
		panic("otp verifier is required when RequireOTP is set")
	}

	if config.UnitTimeout <= 0 {
		config.UnitTimeout = DefaultUnitTimeout
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = DefaultMaxRetries
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.RetryBaseDelay <= 0 {
		config.RetryBaseDelay = DefaultRetryBaseDelay
	}

	if deps.Audit == nil {
		deps.Audit = audit.NopSink{}
	}
	// Metrics is optional, create no-op collector if nil
	if deps.Metrics == nil {
		deps.Metrics = &NoopMetricsCollector{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}

	return &service{
		store:    deps.Store,
		audit:    deps.Audit,
		metrics:  deps.Metrics,
		otp:      deps.OTP,
		balances: deps.Balances,
		logger:   deps.Logger.Named("transfer"),
		clock:    deps.Clock,
		config:   config,
	}
}

// Execute validates req and, if it passes, moves the funds and appends the
// ledger record as one atomic unit. The returned error is always classified
// with an apperrors.Kind.
func (s *service) Execute(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	req = req.normalized()

	result, err := s.execute(ctx, req)

	s.metrics.RecordOperationDuration(OperationExecute, time.Since(start))
	if err != nil {
		kind := apperrors.KindOf(err)
		s.metrics.RecordOperationResult(OperationExecute, ResultFailure)
		s.metrics.RecordError(OperationExecute, string(kind))
		s.logFailure(req, kind, err)
	} else {
		s.metrics.RecordOperationResult(OperationExecute, ResultSuccess)
		s.metrics.RecordTransaction(models.TransferTypeTransfer, result.Amount)
		s.invalidateBalances(ctx, req.SenderAccount, req.ReceiverAccount)
		s.logger.Info("transfer committed",
			zap.String("transfer_id", result.TransferID),
			zap.String("sender", result.SenderAccount),
			zap.String("receiver", result.ReceiverAccount),
			zap.Int64("amount", result.Amount),
			zap.Time("timestamp", result.Timestamp))
	}

	s.notify(ctx, req, result, err)
	return result, err
}

func (s *service) execute(ctx context.Context, req Request) (*Result, error) {
	if err := validation.Struct(req); err != nil {
		return nil, apperrors.Wrap(apperrors.KindInvalidRequest, err.Error(), err)
	}

	if s.config.RequireOTP {
		if req.OTP == "" {
			return nil, apperrors.New(apperrors.KindInvalidRequest, "otp is required")
		}
		if err := s.otp.Verify(ctx, req.SenderAccount, req.OTP); err != nil {
			return nil, err
		}
	}

	// Fail fast before taking any lock. The same checks run again under
	// the locks, where they are authoritative.
	sender, err := s.store.GetByNumber(ctx, req.SenderAccount)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetByNumber(ctx, req.ReceiverAccount); err != nil {
		return nil, err
	}
	if sender.Balance < req.Amount {
		return nil, apperrors.New(apperrors.KindInsufficientFunds, "insufficient funds")
	}

	record := &models.TransferRecord{
		TransferID:      uuid.NewString(),
		Type:            models.TransferTypeTransfer,
		Amount:          req.Amount,
		SenderAccount:   req.SenderAccount,
		ReceiverAccount: req.ReceiverAccount,
		PaymentMethod:   req.PaymentMethod,
		Kind:            req.Kind,
		Message:         req.Message,
	}

	// Once the unit starts the caller can no longer cancel it; only the
	// unit timeout bounds it.
	unitCtx := context.WithoutCancel(ctx)
	if err := s.withRetry(unitCtx, func() error { return s.runUnit(unitCtx, record) }); err != nil {
		return nil, err
	}

	return &Result{
		SenderAccount:   record.SenderAccount,
		ReceiverAccount: record.ReceiverAccount,
		Amount:          record.Amount,
		TransferID:      record.TransferID,
		Timestamp:       record.Timestamp,
	}, nil
}

func (s *service) runUnit(ctx context.Context, record *models.TransferRecord) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.UnitTimeout)
	defer cancel()

	return s.store.ExecuteInTransaction(ctx, func(tx repositories.TransferTx) error {
		accounts, err := tx.LockAccounts(ctx, record.SenderAccount, record.ReceiverAccount)
		if err != nil {
			return err
		}
		sender, receiver := accounts[record.SenderAccount], accounts[record.ReceiverAccount]
		if sender.Balance < record.Amount {
			return apperrors.New(apperrors.KindInsufficientFunds, "insufficient funds")
		}

		at := s.commitTime(sender, receiver)
		if err := tx.ApplyDelta(ctx, record.SenderAccount, -record.Amount, at); err != nil {
			return err
		}
		if err := tx.ApplyDelta(ctx, record.ReceiverAccount, record.Amount, at); err != nil {
			return err
		}

		record.ID = 0
		record.Timestamp = at
		return tx.Append(ctx, record)
	})
}

// commitTime is now, raised to the latest transfer time of the locked
// accounts so that timestamps never go backwards for either account.
func (s *service) commitTime(accounts ...*models.Account) time.Time {
	at := s.clock().UTC().Truncate(time.Microsecond)
	for _, a := range accounts {
		if last := a.LastTransferAt.UTC(); last.After(at) {
			at = last
		}
	}
	return at
}

// withRetry reruns op from scratch while it fails with a conflict.
func (s *service) withRetry(ctx context.Context, op func() error) error {
	expBackOff := backoff.NewExponentialBackOff()
	expBackOff.InitialInterval = s.config.RetryBaseDelay
	expBackOff.MaxInterval = s.config.UnitTimeout
	policy := backoff.WithContext(backoff.WithMaxRetries(expBackOff, uint64(s.config.MaxRetries)), ctx)

	attempt := 0
	return backoff.RetryNotify(func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}
		if apperrors.IsKind(err, apperrors.KindConflict) {
			return err
		}
		return backoff.Permanent(err)
	}, policy, func(err error, wait time.Duration) {
		s.logger.Warn("transfer conflicted, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
			zap.Error(err))
	})
}

func (s *service) invalidateBalances(ctx context.Context, accountNumbers ...string) {
	if s.balances == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()

	if err := s.balances.InvalidateBalances(ctx, accountNumbers...); err != nil {
		s.logger.Warn("failed to invalidate cached balances",
			zap.Strings("accounts", accountNumbers),
			zap.Error(err))
	}
}

func (s *service) notify(ctx context.Context, req Request, result *Result, execErr error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("audit sink panicked", zap.Any("panic", r))
		}
	}()

	details := map[string]any{
		"sender_account_number":   req.SenderAccount,
		"receiver_account_number": req.ReceiverAccount,
		"amount":                  req.Amount,
		"payment_method":          req.PaymentMethod,
		"type":                    req.Kind,
	}
	event := audit.Event{
		Action:  audit.ActionTransferMoney,
		Status:  audit.StatusOK,
		Details: details,
		At:      s.clock().UTC(),
	}
	if execErr != nil {
		event.Status = audit.StatusError
		details["error"] = apperrors.Message(execErr)
		details["error_kind"] = string(apperrors.KindOf(execErr))
	} else {
		details["transfer_id"] = result.TransferID
		details["timestamp"] = result.Timestamp
	}

	s.audit.Record(context.WithoutCancel(ctx), event)
}

func (s *service) logFailure(req Request, kind apperrors.Kind, err error) {
	fields := []zap.Field{
		zap.String("sender", req.SenderAccount),
		zap.String("receiver", req.ReceiverAccount),
		zap.Int64("amount", req.Amount),
		zap.String("kind", string(kind)),
		zap.Error(err),
	}
	switch kind {
	case apperrors.KindInvalidRequest, apperrors.KindAccountNotFound, apperrors.KindInsufficientFunds:
		s.logger.Info("transfer rejected", fields...)
	default:
		s.logger.Error("transfer failed", fields...)
	}
}
