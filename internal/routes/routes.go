// Package routes defines the API routing configuration.
package routes

import (
	"kobo/internal/handlers"
	"kobo/internal/middleware"
	"kobo/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Handlers groups everything SetupRoutes mounts. A nil webhook handler
// leaves that provider's endpoint unmounted.
type Handlers struct {
	Auth            *middleware.AuthMiddleware
	Wallet          *handlers.WalletHandler
	Deposit         *handlers.DepositHandler
	PaystackWebhook *handlers.WebhookHandler
	StripeWebhook   *handlers.WebhookHandler
	Health          *handlers.HealthHandler
}

// SetupRoutes configures all application routes.
func SetupRoutes(app fiber.Router, h Handlers) {
	if h.Health != nil {
		app.Get("/health", h.Health.HealthCheck)
	}

	wallet := app.Group("/api/wallet")

	// Provider notifications authenticate by signature, not by token.
	if h.PaystackWebhook != nil {
		wallet.Post("/paystack/webhook", h.PaystackWebhook.Handle)
	}
	if h.StripeWebhook != nil {
		wallet.Post("/stripe/webhook", h.StripeWebhook.Handle)
	}

	// Auth is attached per route so it never runs in front of the webhooks.
	auth := h.Auth.Handler
	wallet.Post("/", auth, h.Wallet.EnsureWallet)
	wallet.Get("/balance", auth, middleware.HasPermission(models.PermissionRead), h.Wallet.GetBalance)
	wallet.Get("/transactions", auth, middleware.HasPermission(models.PermissionRead), h.Wallet.GetTransactions)
	wallet.Post("/transfer", auth, middleware.HasPermission(models.PermissionTransfer), h.Wallet.Transfer)
	wallet.Post("/deposit", auth, middleware.HasPermission(models.PermissionDeposit), h.Deposit.InitiateDeposit)
	wallet.Get("/deposit/:reference/status", auth, middleware.HasPermission(models.PermissionRead), h.Deposit.GetDepositStatus)
}
