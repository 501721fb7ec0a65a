package ledger

import (
	"context"

	apperrors "bankcore/internal/errors"
	"bankcore/internal/models"
	"bankcore/internal/repositories"

	"go.uber.org/zap"
)

// History page bounds.
const (
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 100
)

// Repository is the read side of the Store used by this service.
type Repository interface {
	repositories.AccountRepository
	repositories.LedgerRepository
}

// BalanceCache holds recently read balances. GetBalance reports the
// account's invalidation version on a miss; CacheBalance writes only if that
// version is still current and reports whether it did.
type BalanceCache interface {
	GetBalance(ctx context.Context, accountNumber string) (balance, version int64, found bool, err error)
	CacheBalance(ctx context.Context, accountNumber string, balance, version int64) (bool, error)
	InvalidateBalances(ctx context.Context, accountNumbers ...string) error
}

// Service answers balance, history and reconciliation queries.
type Service interface {
	Balance(ctx context.Context, accountNumber string) (int64, error)
	History(ctx context.Context, accountNumber string, limit int) ([]models.TransferRecord, error)
	Reconcile(ctx context.Context, accountNumber string) (*models.Reconciliation, error)
	InvalidateBalances(ctx context.Context, accountNumbers ...string) error
}

type service struct {
	repo   Repository
	cache  BalanceCache
	logger *zap.Logger
}

// NewService creates a ledger read service. cache may be nil.
func NewService(repo Repository, cache BalanceCache, logger *zap.Logger) Service {
	if repo == nil {
		panic("repo is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		repo:   repo,
		cache:  cache,
		logger: logger.Named("ledger"),
	}
}

func (s *service) Balance(ctx context.Context, accountNumber string) (int64, error) {
	fill := false
	var version int64
	if s.cache != nil {
		balance, v, found, err := s.cache.GetBalance(ctx, accountNumber)
		switch {
		case err != nil:
			s.logger.Warn("balance cache read failed", zap.String("account", accountNumber), zap.Error(err))
		case found:
			return balance, nil
		default:
			fill, version = true, v
		}
	}

	account, err := s.repo.GetByNumber(ctx, accountNumber)
	if err != nil {
		return 0, err
	}

	if fill {
		stored, err := s.cache.CacheBalance(ctx, accountNumber, account.Balance, version)
		if err != nil {
			s.logger.Warn("balance cache write failed", zap.String("account", accountNumber), zap.Error(err))
		} else if !stored {
			s.logger.Debug("balance changed while reading, not cached", zap.String("account", accountNumber))
		}
	}
	return account.Balance, nil
}

// History returns the most recent records touching the account, newest
// first. limit is clamped to [1, MaxHistoryLimit]; zero means the default.
func (s *service) History(ctx context.Context, accountNumber string, limit int) ([]models.TransferRecord, error) {
	if limit < 0 {
		return nil, apperrors.New(apperrors.KindInvalidRequest, "limit must not be negative")
	}
	if limit == 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	if _, err := s.repo.GetByNumber(ctx, accountNumber); err != nil {
		return nil, err
	}
	return s.repo.History(ctx, accountNumber, limit)
}

func (s *service) Reconcile(ctx context.Context, accountNumber string) (*models.Reconciliation, error) {
	rec, err := s.repo.Reconcile(ctx, accountNumber)
	if err != nil {
		return nil, err
	}
	if !rec.Balanced {
		s.logger.Error("ledger does not reconcile with balance",
			zap.String("account", rec.AccountNumber),
			zap.Int64("opening_balance", rec.OpeningBalance),
			zap.Int64("credits", rec.Credits),
			zap.Int64("debits", rec.Debits),
			zap.Int64("expected", rec.Expected),
			zap.Int64("actual", rec.Actual))
	}
	return rec, nil
}

func (s *service) InvalidateBalances(ctx context.Context, accountNumbers ...string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.InvalidateBalances(ctx, accountNumbers...)
}
