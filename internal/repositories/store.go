package repositories

import (
	"context"
	"sort"
	"time"

	"bankcore/internal/models"
)

// AccountRepository reads and opens accounts. Balances are never changed
// through it; see TransferTx.
type AccountRepository interface {
	GetByNumber(ctx context.Context, accountNumber string) (*models.Account, error)
	Create(ctx context.Context, account *models.Account) error
}

// LedgerRepository is the read side of the ledger. There is no update or
// delete operation.
type LedgerRepository interface {
	// History returns at most limit records touching the account, most
	// recent first.
	History(ctx context.Context, accountNumber string, limit int) ([]models.TransferRecord, error)
	// Reconcile compares the balance with the ledger from one consistent snapshot.
	Reconcile(ctx context.Context, accountNumber string) (*models.Reconciliation, error)
}

// TransferTx is the set of operations available inside one atomic unit.
type TransferTx interface {
	// LockAccounts locks the given accounts in ascending account number
	// order and returns their balances as seen inside the unit. It may be
	// called only once per unit.
	LockAccounts(ctx context.Context, accountNumbers ...string) (map[string]*models.Account, error)
	// ApplyDelta adds delta to a locked account's balance and stamps its
	// LastTransferAt. A delta that would make the balance negative fails.
	ApplyDelta(ctx context.Context, accountNumber string, delta int64, at time.Time) error
	// Append writes a ledger record and sets its ID.
	Append(ctx context.Context, record *models.TransferRecord) error
}

// Store is everything the transfer engine and ledger reads need.
type Store interface {
	AccountRepository
	LedgerRepository
	// ExecuteInTransaction runs fn as one atomic unit: either every change
	// made through the TransferTx commits, or none does.
	ExecuteInTransaction(ctx context.Context, fn func(TransferTx) error) error
}

// lockOrder returns the distinct account numbers in ascending order. Every
// unit locks accounts in this order, so two transfers between the same pair
// of accounts in opposite directions can never wait on each other in a cycle.
func lockOrder(accountNumbers []string) []string {
	out := make([]string, 0, len(accountNumbers))
	seen := make(map[string]struct{}, len(accountNumbers))
	for _, n := range accountNumbers {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
