// Package middleware provides HTTP middleware components for the application.
// Identity is owned by an upstream service; this package only verifies the
// bearer token it issued and checks permissions carried in its claims.
package middleware

import (
	"strings"

	"kobo/internal/models"
	"kobo/internal/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// AuthMiddleware handles JWT token validation.
type AuthMiddleware struct {
	secret string
	logger *zap.Logger
}

func NewAuthMiddleware(secret string, logger *zap.Logger) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{
		secret: secret,
		logger: logger.Named("auth"),
	}
}

// Handler validates the bearer token and stores the claims in the request
// context under utils.ClaimsKey.
func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return utils.Unauthorized(c, "missing authorization header")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return utils.Unauthorized(c, "invalid authorization format")
	}

	claims, err := utils.ParseToken(m.secret, strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		m.logger.Debug("token rejected", zap.String("path", c.Path()), zap.Error(err))
		return utils.Unauthorized(c, "invalid token")
	}

	c.Locals(utils.ClaimsKey, claims)
	return c.Next()
}

// HasPermission returns a middleware that checks for a specific permission.
func HasPermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals(utils.ClaimsKey).(*models.UserClaims)
		if !ok || claims == nil {
			return utils.Unauthorized(c, "unauthorized")
		}
		if !claims.HasPermission(permission) {
			return utils.Forbidden(c, "insufficient permissions")
		}
		return c.Next()
	}
}
