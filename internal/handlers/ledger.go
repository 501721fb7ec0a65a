package handlers

import (
	"time"

	"bankcore/internal/models"
	"bankcore/internal/services/ledger"
	"bankcore/internal/utils/money"
	"bankcore/internal/utils/pagination"
	"bankcore/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// Directions of a history entry relative to the queried account.
const (
	DirectionDebit  = "DEBIT"
	DirectionCredit = "CREDIT"
)

// LedgerHandler exposes balance, history and reconciliation queries.
type LedgerHandler struct {
	service ledger.Service
}

func NewLedgerHandler(s ledger.Service) *LedgerHandler { return &LedgerHandler{service: s} }

type historyEntry struct {
	TransferID      string    `json:"transfer_id"`
	Direction       string    `json:"direction"`
	Amount          string    `json:"amount"`
	SenderAccount   string    `json:"sender_account_number"`
	ReceiverAccount string    `json:"receiver_account_number"`
	PaymentMethod   string    `json:"payment_method"`
	Type            string    `json:"type"`
	Message         string    `json:"message,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

func newHistoryEntry(accountNumber string, r models.TransferRecord) historyEntry {
	direction := DirectionCredit
	if r.SenderAccount == accountNumber {
		direction = DirectionDebit
	}
	return historyEntry{
		TransferID:      r.TransferID,
		Direction:       direction,
		Amount:          money.Format(r.Amount),
		SenderAccount:   r.SenderAccount,
		ReceiverAccount: r.ReceiverAccount,
		PaymentMethod:   r.PaymentMethod,
		Type:            r.Kind,
		Message:         r.Message,
		Timestamp:       r.Timestamp,
	}
}

// Balance handles GET /api/accounts/:number/balance.
func (h *LedgerHandler) Balance(c *fiber.Ctx) error {
	number := c.Params("number")
	balance, err := h.service.Balance(c.UserContext(), number)
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Balance retrieved successfully", fiber.Map{
		"account_number": number,
		"balance":        money.Format(balance),
	})
}

// History handles GET /api/accounts/:number/history?limit=N.
func (h *LedgerHandler) History(c *fiber.Ctx) error {
	number := c.Params("number")
	limit := pagination.ParseLimit(c, ledger.DefaultHistoryLimit, ledger.MaxHistoryLimit)

	records, err := h.service.History(c.UserContext(), number, limit)
	if err != nil {
		return response.DomainError(c, err)
	}

	entries := make([]historyEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, newHistoryEntry(number, r))
	}
	return response.Success(c, "Transaction history retrieved successfully", entries)
}

// Reconcile handles GET /api/admin/accounts/:number/reconcile.
func (h *LedgerHandler) Reconcile(c *fiber.Ctx) error {
	rec, err := h.service.Reconcile(c.UserContext(), c.Params("number"))
	if err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "Reconciliation completed", rec)
}
