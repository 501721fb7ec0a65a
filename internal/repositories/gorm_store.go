package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "bankcore/internal/errors"
	"bankcore/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errAlreadyLocked = errors.New("accounts already locked in this unit")

type gormStore struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

// NewGormStore returns a PostgreSQL backed Store. lockTimeout bounds how long
// a transfer waits for a row lock before failing with a timeout.
func NewGormStore(db *gorm.DB, lockTimeout time.Duration) Store {
	return &gormStore{
		db:          db,
		lockTimeout: lockTimeout,
	}
}

func (r *gormStore) GetByNumber(ctx context.Context, accountNumber string) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Where("account_number = ?", accountNumber).First(&account).Error; err != nil {
		return nil, classify("get account", err)
	}
	return &account, nil
}

func (r *gormStore) Create(ctx context.Context, account *models.Account) error {
	if err := validateOpening(account); err != nil {
		return err
	}
	account.Balance = account.OpeningBalance

	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return apperrors.Wrap(apperrors.KindInvalidRequest, "account already exists", err)
		}
		return classify("create account", err)
	}
	return nil
}

func (r *gormStore) History(ctx context.Context, accountNumber string, limit int) ([]models.TransferRecord, error) {
	var records []models.TransferRecord
	q := r.db.WithContext(ctx).
		Where("sender_account = ? OR receiver_account = ?", accountNumber, accountNumber).
		Order("timestamp DESC").
		Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, classify("get transfer history", err)
	}
	return records, nil
}

func (r *gormStore) Reconcile(ctx context.Context, accountNumber string) (*models.Reconciliation, error) {
	var result *models.Reconciliation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var account models.Account
		if err := tx.Where("account_number = ?", accountNumber).First(&account).Error; err != nil {
			return err
		}

		var credits, debits int64
		if err := tx.Model(&models.TransferRecord{}).
			Where("receiver_account = ?", accountNumber).
			Select("COALESCE(SUM(amount), 0)").
			Scan(&credits).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.TransferRecord{}).
			Where("sender_account = ?", accountNumber).
			Select("COALESCE(SUM(amount), 0)").
			Scan(&debits).Error; err != nil {
			return err
		}

		result = models.NewReconciliation(&account, credits, debits)
		return nil
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, classify("reconcile account", err)
	}
	return result, nil
}

func (r *gormStore) ExecuteInTransaction(ctx context.Context, fn func(TransferTx) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if r.lockTimeout > 0 {
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return fn(&gormTx{db: tx, locked: make(map[string]bool, 2)})
	})
	return classify("transfer", err)
}

type gormTx struct {
	db     *gorm.DB
	locked map[string]bool
}

func (t *gormTx) LockAccounts(ctx context.Context, accountNumbers ...string) (map[string]*models.Account, error) {
	if len(t.locked) > 0 {
		return nil, errAlreadyLocked
	}

	accounts := make(map[string]*models.Account, len(accountNumbers))
	for _, n := range lockOrder(accountNumbers) {
		var account models.Account
		err := t.db.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("account_number = ?", n).
			First(&account).Error
		if err != nil {
			return nil, classify("lock account "+n, err)
		}
		t.locked[n] = true
		accounts[n] = &account
	}
	return accounts, nil
}

func (t *gormTx) ApplyDelta(ctx context.Context, accountNumber string, delta int64, at time.Time) error {
	if !t.locked[accountNumber] {
		return fmt.Errorf("apply delta: account %s is not locked in this unit", accountNumber)
	}

	// The balance guard sits in the WHERE clause so the row is left untouched
	// when the delta would overdraw it; the check constraint backs it up.
	res := t.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("account_number = ? AND balance + ? >= 0", accountNumber, delta).
		Updates(map[string]interface{}{
			"balance":          gorm.Expr("balance + ?", delta),
			"last_transfer_at": at,
		})
	if res.Error != nil {
		return classify("apply delta", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.New(apperrors.KindInsufficientFunds, "insufficient funds")
	}
	return nil
}

func (t *gormTx) Append(ctx context.Context, record *models.TransferRecord) error {
	if !t.locked[record.SenderAccount] || !t.locked[record.ReceiverAccount] {
		return fmt.Errorf("append: accounts of transfer %s are not locked in this unit", record.TransferID)
	}
	if err := t.db.WithContext(ctx).Create(record).Error; err != nil {
		return classify("append ledger record", err)
	}
	return nil
}

func validateOpening(account *models.Account) error {
	account.AccountNumber = strings.TrimSpace(account.AccountNumber)
	if account.AccountNumber == "" {
		return apperrors.New(apperrors.KindInvalidRequest, "account number is required")
	}
	if account.OpeningBalance < 0 {
		return apperrors.New(apperrors.KindInvalidRequest, "opening balance must not be negative")
	}
	return nil
}
