package handlers

import (
	"context"
	"strings"

	"bankcore/internal/middleware"
	"bankcore/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

// OTPIssuer issues a one-time code for an account.
type OTPIssuer interface {
	Issue(ctx context.Context, subject string) error
}

// OTPHandler lets account owners request a transfer code.
type OTPHandler struct {
	issuer OTPIssuer
}

func NewOTPHandler(issuer OTPIssuer) *OTPHandler { return &OTPHandler{issuer: issuer} }

// Request handles POST /api/otp/request.
func (h *OTPHandler) Request(c *fiber.Ctx) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return response.Unauthorized(c)
	}

	var req struct {
		AccountNumber string `json:"account_number"`
	}
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	account := strings.TrimSpace(req.AccountNumber)
	if account == "" {
		return response.BadRequest(c, "account_number is required")
	}
	if !claims.OwnsAccount(account) {
		return response.Forbidden(c)
	}

	if err := h.issuer.Issue(c.UserContext(), account); err != nil {
		return response.DomainError(c, err)
	}
	return response.Success(c, "OTP sent", nil)
}
