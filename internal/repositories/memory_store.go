package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "bankcore/internal/errors"
	"bankcore/internal/models"
)

type memAccount struct {
	// token is a one-slot semaphore; holding it is holding the row lock.
	token   chan struct{}
	account models.Account
}

// MemoryStore is an in-process Store with the same locking and atomicity
// rules as the PostgreSQL store. It backs tests and local runs without a
// database.
type MemoryStore struct {
	mu          sync.RWMutex
	accounts    map[string]*memAccount
	records     []models.TransferRecord
	byAccount   map[string][]int
	lockTimeout time.Duration
	commitHook  func() error
}

func NewMemoryStore(lockTimeout time.Duration) *MemoryStore {
	return &MemoryStore{
		accounts:    make(map[string]*memAccount),
		byAccount:   make(map[string][]int),
		lockTimeout: lockTimeout,
	}
}

// SetCommitHook installs fn to run just before a unit's changes are applied.
// A non-nil error from fn aborts the commit.
func (s *MemoryStore) SetCommitHook(fn func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitHook = fn
}

func (s *MemoryStore) GetByNumber(ctx context.Context, accountNumber string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[accountNumber]
	if !ok {
		return nil, apperrors.New(apperrors.KindAccountNotFound, "account not found")
	}
	account := a.account
	return &account, nil
}

func (s *MemoryStore) Create(ctx context.Context, account *models.Account) error {
	if err := validateOpening(account); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.AccountNumber]; ok {
		return apperrors.New(apperrors.KindInvalidRequest, "account already exists")
	}

	now := time.Now().UTC()
	account.Balance = account.OpeningBalance
	account.CreatedAt = now
	account.UpdatedAt = now
	s.accounts[account.AccountNumber] = &memAccount{
		token:   make(chan struct{}, 1),
		account: *account,
	}
	return nil
}

func (s *MemoryStore) History(ctx context.Context, accountNumber string, limit int) ([]models.TransferRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.byAccount[accountNumber]
	n := len(idx)
	if limit > 0 && limit < n {
		n = limit
	}

	// Commit order is timestamp order, so walking the index backwards yields
	// newest first with ties broken by commit sequence.
	out := make([]models.TransferRecord, 0, n)
	for i := len(idx) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.records[idx[i]])
	}
	return out, nil
}

func (s *MemoryStore) Reconcile(ctx context.Context, accountNumber string) (*models.Reconciliation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[accountNumber]
	if !ok {
		return nil, apperrors.New(apperrors.KindAccountNotFound, "account not found")
	}

	var credits, debits int64
	for _, i := range s.byAccount[accountNumber] {
		rec := s.records[i]
		if rec.ReceiverAccount == accountNumber {
			credits += rec.Amount
		}
		if rec.SenderAccount == accountNumber {
			debits += rec.Amount
		}
	}

	account := a.account
	return models.NewReconciliation(&account, credits, debits), nil
}

func (s *MemoryStore) ExecuteInTransaction(ctx context.Context, fn func(TransferTx) error) error {
	tx := &memTx{
		store:  s,
		staged: make(map[string]*models.Account, 2),
	}
	defer tx.release()

	if err := fn(tx); err != nil {
		return err
	}
	return s.commit(tx)
}

func (s *MemoryStore) commit(tx *memTx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.commitHook != nil {
		if err := s.commitHook(); err != nil {
			return apperrors.Wrap(apperrors.KindStoreUnavailable, "commit failed", err)
		}
	}

	for n, account := range tx.staged {
		s.accounts[n].account = *account
	}
	for _, rec := range tx.pending {
		rec.ID = uint64(len(s.records) + 1)
		s.records = append(s.records, *rec)
		pos := len(s.records) - 1
		s.byAccount[rec.SenderAccount] = append(s.byAccount[rec.SenderAccount], pos)
		if rec.ReceiverAccount != rec.SenderAccount {
			s.byAccount[rec.ReceiverAccount] = append(s.byAccount[rec.ReceiverAccount], pos)
		}
	}
	return nil
}

type memTx struct {
	store   *MemoryStore
	locked  bool
	held    []*memAccount
	staged  map[string]*models.Account
	pending []*models.TransferRecord
}

func (t *memTx) LockAccounts(ctx context.Context, accountNumbers ...string) (map[string]*models.Account, error) {
	if t.locked {
		return nil, errAlreadyLocked
	}
	t.locked = true

	var expired <-chan time.Time
	if t.store.lockTimeout > 0 {
		timer := time.NewTimer(t.store.lockTimeout)
		defer timer.Stop()
		expired = timer.C
	}

	order := lockOrder(accountNumbers)
	for _, n := range order {
		t.store.mu.RLock()
		a, ok := t.store.accounts[n]
		t.store.mu.RUnlock()
		if !ok {
			return nil, apperrors.New(apperrors.KindAccountNotFound, "account not found")
		}

		select {
		case a.token <- struct{}{}:
			t.held = append(t.held, a)
		case <-expired:
			return nil, apperrors.Wrap(apperrors.KindTimeout, "timed out waiting for account lock", context.DeadlineExceeded)
		case <-ctx.Done():
			return nil, apperrors.Wrap(apperrors.KindTimeout, "timed out waiting for account lock", ctx.Err())
		}
	}

	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	out := make(map[string]*models.Account, len(order))
	for i, n := range order {
		staged := t.held[i].account
		t.staged[n] = &staged
		view := staged
		out[n] = &view
	}
	return out, nil
}

func (t *memTx) ApplyDelta(ctx context.Context, accountNumber string, delta int64, at time.Time) error {
	account, ok := t.staged[accountNumber]
	if !ok {
		return fmt.Errorf("apply delta: account %s is not locked in this unit", accountNumber)
	}
	if account.Balance+delta < 0 {
		return apperrors.New(apperrors.KindInsufficientFunds, "insufficient funds")
	}
	account.Balance += delta
	account.LastTransferAt = at
	account.UpdatedAt = at
	return nil
}

func (t *memTx) Append(ctx context.Context, record *models.TransferRecord) error {
	_, senderLocked := t.staged[record.SenderAccount]
	_, receiverLocked := t.staged[record.ReceiverAccount]
	if !senderLocked || !receiverLocked {
		return fmt.Errorf("append: accounts of transfer %s are not locked in this unit", record.TransferID)
	}
	t.pending = append(t.pending, record)
	return nil
}

func (t *memTx) release() {
	for _, a := range t.held {
		<-a.token
	}
	t.held = nil
}
