package models

import (
	"time"
)

// Account holds the balance of one customer account in minor units (cents).
type Account struct {
	AccountNumber  string `gorm:"primaryKey;size:32"`
	Balance        int64  `gorm:"not null;default:0;check:chk_accounts_balance_non_negative,balance >= 0"`
	OpeningBalance int64  `gorm:"not null;default:0"`
	// LastTransferAt is the commit timestamp of the latest transfer that
	// touched this account; ledger timestamps never go below it.
	LastTransferAt time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (Account) TableName() string {
	return "accounts"
}

// Reconciliation compares an account balance with the ledger history that
// produced it.
type Reconciliation struct {
	AccountNumber  string `json:"account_number"`
	OpeningBalance int64  `json:"opening_balance"`
	Credits        int64  `json:"credits"`
	Debits         int64  `json:"debits"`
	Expected       int64  `json:"expected"`
	Actual         int64  `json:"actual"`
	Balanced       bool   `json:"balanced"`
}

// NewReconciliation derives the expected balance and whether it matches.
func NewReconciliation(account *Account, credits, debits int64) *Reconciliation {
	expected := account.OpeningBalance + credits - debits
	return &Reconciliation{
		AccountNumber:  account.AccountNumber,
		OpeningBalance: account.OpeningBalance,
		Credits:        credits,
		Debits:         debits,
		Expected:       expected,
		Actual:         account.Balance,
		Balanced:       expected == account.Balance,
	}
}
