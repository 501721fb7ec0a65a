package handlers

import (
	"strings"
	"time"

	apperrors "bankcore/internal/errors"
	"bankcore/internal/middleware"
	"bankcore/internal/services/audit"
	"bankcore/internal/services/transfer"
	"bankcore/internal/utils/money"
	"bankcore/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// TransferHandler exposes the transfer endpoint.
type TransferHandler struct {
	service transfer.Service
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(s transfer.Service) *TransferHandler { return &TransferHandler{service: s} }

type transferRequest struct {
	Amount          decimal.Decimal `json:"amount"`
	PaymentMethod   string          `json:"payment_method"`
	SenderAccount   string          `json:"sender_account_number"`
	ReceiverAccount string          `json:"receiver_account_number"`
	Message         string          `json:"message"`
	Type            string          `json:"type"`
	OTP             string          `json:"otp"`
}

type transferResponse struct {
	SenderAccount   string    `json:"sender_account_number"`
	ReceiverAccount string    `json:"receiver_account_number"`
	Amount          string    `json:"amount"`
	TransferID      string    `json:"transfer_id"`
	Timestamp       time.Time `json:"timestamp"`
}

// Transfer handles POST /api/transfer requests.
func (h *TransferHandler) Transfer(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return response.Unauthorized(c)
	}

	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return response.DomainError(c, apperrors.Wrap(apperrors.KindInvalidRequest, "invalid request body", err))
	}
	if !claims.OwnsAccount(strings.TrimSpace(req.SenderAccount)) {
		return response.Forbidden(c)
	}

	amount, err := money.ToMinor(req.Amount)
	if err != nil {
		return response.DomainError(c, apperrors.Wrap(apperrors.KindInvalidRequest, err.Error(), err))
	}

	ctx := audit.WithActor(c.UserContext(), audit.Actor{
		CustomerID: claims.CustomerID,
		IPAddress:  c.IP(),
	})
	res, err := h.service.Execute(ctx, transfer.Request{
		Amount:          amount,
		PaymentMethod:   req.PaymentMethod,
		SenderAccount:   req.SenderAccount,
		ReceiverAccount: req.ReceiverAccount,
		Kind:            req.Type,
		Message:         req.Message,
		OTP:             req.OTP,
	})
	if err != nil {
		return response.DomainError(c, err)
	}

	return response.Success(c, "Money transferred successfully", transferResponse{
		SenderAccount:   res.SenderAccount,
		ReceiverAccount: res.ReceiverAccount,
		Amount:          money.Format(res.Amount),
		TransferID:      res.TransferID,
		Timestamp:       res.Timestamp,
	})
}
