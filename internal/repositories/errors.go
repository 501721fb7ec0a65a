package repositories

import (
	"context"
	"errors"
	"strings"

	apperrors "bankcore/internal/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// PostgreSQL error codes the store reacts to.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgLockNotAvailable     = "55P03"
	pgQueryCanceled        = "57014"
	pgCheckViolation       = "23514"
	pgUniqueViolation      = "23505"
)

const balanceCheckConstraint = "chk_accounts_balance_non_negative"

// classify turns a driver or gorm error into a DomainError. Errors that are
// already classified pass through unchanged.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var de *apperrors.DomainError
	if errors.As(err, &de) {
		return err
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.Wrap(apperrors.KindAccountNotFound, "account not found", err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperrors.Wrap(apperrors.KindTimeout, op+" timed out", err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected:
			return apperrors.Wrap(apperrors.KindConflict, "conflicting concurrent update", err)
		case pgLockNotAvailable, pgQueryCanceled:
			return apperrors.Wrap(apperrors.KindTimeout, "timed out waiting for account lock", err)
		case pgCheckViolation:
			if pgErr.ConstraintName == balanceCheckConstraint {
				return apperrors.Wrap(apperrors.KindInsufficientFunds, "insufficient funds", err)
			}
			return apperrors.Wrap(apperrors.KindInvalidRequest, "constraint violation", err)
		case pgUniqueViolation:
			return apperrors.Wrap(apperrors.KindConflict, "duplicate key", err)
		}
		// Class 08 is connection exceptions; everything else is still an
		// infrastructure failure from the caller's point of view.
		if strings.HasPrefix(pgErr.Code, "08") {
			return apperrors.Wrap(apperrors.KindStoreUnavailable, op+": connection lost", err)
		}
	}

	return apperrors.Wrap(apperrors.KindStoreUnavailable, op+" failed", err)
}
