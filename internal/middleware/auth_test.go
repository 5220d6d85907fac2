package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"kobo/internal/models"
	"kobo/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp() *fiber.App {
	app := fiber.New()
	auth := NewAuthMiddleware("secret", nil)
	app.Get("/read", auth.Handler, HasPermission(models.PermissionRead), func(c *fiber.Ctx) error {
		owner, err := utils.GetOwnerID(c)
		if err != nil {
			return err
		}
		return c.SendString(owner.String())
	})
	app.Get("/transfer", auth.Handler, HasPermission(models.PermissionTransfer), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusNoContent)
	})
	return app
}

func token(t *testing.T, owner uuid.UUID, perms ...string) string {
	t.Helper()
	tok, err := utils.GenerateToken("secret", &models.UserClaims{UserID: owner.String(), Permissions: perms}, time.Hour)
	require.NoError(t, err)
	return tok
}

func TestAuthMiddleware(t *testing.T) {
	app := newApp()
	owner := uuid.New()

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{name: "no header", path: "/read", want: http.StatusUnauthorized},
		{name: "not bearer", path: "/read", header: "Basic abc", want: http.StatusUnauthorized},
		{name: "bad token", path: "/read", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "allowed", path: "/read", header: "Bearer " + token(t, owner, models.PermissionRead), want: http.StatusOK},
		{name: "missing permission", path: "/transfer", header: "Bearer " + token(t, owner, models.PermissionRead), want: http.StatusForbidden},
		{name: "granted permission", path: "/transfer", header: "Bearer " + token(t, owner, models.GetDefaultPermissions()...), want: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
