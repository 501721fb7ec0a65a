// Package routes defines the API routing configuration.
// It sets up all HTTP routes and their corresponding handlers,
// including middleware and authentication requirements.
package routes

import (
	"time"

	"bankcore/internal/config"
	"bankcore/internal/handlers"
	"bankcore/internal/middleware"
	"bankcore/internal/models"
	"bankcore/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// Handlers groups every HTTP handler the API mounts.
type Handlers struct {
	Health   *handlers.HealthHandler
	Transfer *handlers.TransferHandler
	Ledger   *handlers.LedgerHandler
	OTP      *handlers.OTPHandler
}

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, h Handlers, auth *middleware.AuthMiddleware, cfg config.HTTPConfig) {
	app.Get("/health", h.Health.Check)

	api := app.Group("/api", auth.Handler)

	transferChain := []fiber.Handler{middleware.HasPermission(models.PermissionTransferWrite)}
	if cfg.TransferRateLimit > 0 {
		transferChain = append(transferChain, limiter.New(limiter.Config{
			Max:        cfg.TransferRateLimit,
			Expiration: time.Minute,
			LimitReached: func(c *fiber.Ctx) error {
				return response.Error(c, fiber.StatusTooManyRequests, "too many transfer requests")
			},
		}))
	}
	transferChain = append(transferChain, h.Transfer.Transfer)
	api.Post("/transfer", transferChain...)

	canRead := middleware.HasPermission(models.PermissionLedgerRead)
	owner := middleware.OwnsAccount("number")
	api.Get("/accounts/:number/balance", canRead, owner, h.Ledger.Balance)
	api.Get("/accounts/:number/history", canRead, owner, h.Ledger.History)

	api.Post("/otp/request", middleware.HasPermission(models.PermissionOTPRequest), h.OTP.Request)

	// Admin routes
	admin := api.Group("/admin", middleware.AdminAuthMiddleware)
	admin.Get("/accounts/:number/reconcile", h.Ledger.Reconcile)
}
