package transfer

import (
	"strings"
	"time"
)

// Request asks to move Amount minor units from SenderAccount to ReceiverAccount.
type Request struct {
	Amount          int64  `json:"amount" validate:"gt=0"`
	PaymentMethod   string `json:"payment_method" validate:"required"`
	SenderAccount   string `json:"sender_account_number" validate:"required"`
	ReceiverAccount string `json:"receiver_account_number" validate:"required,nefield=SenderAccount"`
	Kind            string `json:"type" validate:"required"`
	Message         string `json:"message" validate:"max=500"`
	// OTP is checked only when the service is configured to require one.
	OTP string `json:"otp,omitempty"`
}

func (r Request) normalized() Request {
	r.PaymentMethod = strings.TrimSpace(r.PaymentMethod)
	r.SenderAccount = strings.TrimSpace(r.SenderAccount)
	r.ReceiverAccount = strings.TrimSpace(r.ReceiverAccount)
	r.Kind = strings.TrimSpace(r.Kind)
	r.Message = strings.TrimSpace(r.Message)
	r.OTP = strings.TrimSpace(r.OTP)
	return r
}

// Result describes a committed transfer.
type Result struct {
	SenderAccount   string    `json:"sender_account_number"`
	ReceiverAccount string    `json:"receiver_account_number"`
	Amount          int64     `json:"amount"`
	TransferID      string    `json:"transfer_id"`
	Timestamp       time.Time `json:"timestamp"`
}

// Config holds configuration for transfer execution
type Config struct {
	// UnitTimeout bounds one attempt of the atomic unit, lock waits included.
	UnitTimeout time.Duration
	// MaxRetries is how many times a conflicting unit is retried.
	MaxRetries     int
	RetryBaseDelay time.Duration
	RequireOTP     bool
}
