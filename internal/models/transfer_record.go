package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// TransferTypeTransfer is the only record type written by the transfer engine.
const TransferTypeTransfer = "TRANSFER"

// ErrLedgerImmutable is returned when something tries to change a committed record.
var ErrLedgerImmutable = errors.New("ledger records are append-only")

// TransferRecord is one committed ledger entry. It is written exactly once,
// in the same database transaction as the two balance changes it describes.
type TransferRecord struct {
	// ID is the commit sequence and breaks ties between equal timestamps.
	ID              uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	TransferID      string    `gorm:"uniqueIndex;size:36;not null" json:"transfer_id"`
	Type            string    `gorm:"size:16;not null;default:'TRANSFER'" json:"type"`
	Amount          int64     `gorm:"not null;check:chk_transfer_records_amount_positive,amount > 0" json:"amount"`
	SenderAccount   string    `gorm:"size:32;not null;index" json:"sender_account_number"`
	ReceiverAccount string    `gorm:"size:32;not null;index" json:"receiver_account_number"`
	PaymentMethod   string    `gorm:"not null" json:"payment_method"`
	Kind            string    `gorm:"not null" json:"kind"`
	Message         string    `json:"message,omitempty"`
	Timestamp       time.Time `gorm:"not null;index" json:"timestamp"`
}

func (TransferRecord) TableName() string {
	return "transfer_records"
}

func (r *TransferRecord) BeforeUpdate(tx *gorm.DB) error {
	return ErrLedgerImmutable
}

func (r *TransferRecord) BeforeDelete(tx *gorm.DB) error {
	return ErrLedgerImmutable
}

// Touches reports whether the record debits or credits accountNumber.
func (r *TransferRecord) Touches(accountNumber string) bool {
	return r.SenderAccount == accountNumber || r.ReceiverAccount == accountNumber
}
