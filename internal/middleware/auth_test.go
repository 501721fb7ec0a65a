package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bankcore/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func sign(t *testing.T, method jwt.SigningMethod, key interface{}, claims *models.UserClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func customerClaims(expires time.Time) *models.UserClaims {
	return &models.UserClaims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(expires)},
		CustomerID:       "cust-1",
		Role:             models.RoleCustomer,
		Accounts:         []string{"ACC-1"},
		Permissions:      []string{models.PermissionLedgerRead},
	}
}

func newApp() *fiber.App {
	app := fiber.New()
	auth := NewAuthMiddleware(testSecret, nil)
	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }

	api := app.Group("/api", auth.Handler)
	api.Get("/accounts/:number", OwnsAccount("number"), ok)
	api.Get("/read", HasPermission(models.PermissionLedgerRead), ok)
	api.Get("/write", HasPermission(models.PermissionTransferWrite), ok)
	api.Get("/admin", AdminAuthMiddleware, ok)
	return app
}

func do(t *testing.T, app *fiber.App, path, token string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestAuthMiddleware(t *testing.T) {
	app := newApp()
	valid := sign(t, jwt.SigningMethodHS256, []byte(testSecret), customerClaims(time.Now().Add(time.Hour)))

	tests := []struct {
		name  string
		path  string
		token string
		want  int
	}{
		{"no token", "/api/read", "", fiber.StatusUnauthorized},
		{"bad signature", "/api/read", sign(t, jwt.SigningMethodHS256, []byte("other"), customerClaims(time.Now().Add(time.Hour))), fiber.StatusUnauthorized},
		{"expired", "/api/read", sign(t, jwt.SigningMethodHS256, []byte(testSecret), customerClaims(time.Now().Add(-time.Minute))), fiber.StatusUnauthorized},
		{"wrong algorithm", "/api/read", sign(t, jwt.SigningMethodHS512, []byte(testSecret), customerClaims(time.Now().Add(time.Hour))), fiber.StatusUnauthorized},
		{"permission granted", "/api/read", valid, fiber.StatusOK},
		{"permission missing", "/api/write", valid, fiber.StatusForbidden},
		{"own account", "/api/accounts/ACC-1", valid, fiber.StatusOK},
		{"foreign account", "/api/accounts/ACC-2", valid, fiber.StatusForbidden},
		{"not admin", "/api/admin", valid, fiber.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, do(t, app, tt.path, tt.token))
		})
	}
}

func TestAuthMiddleware_Admin(t *testing.T) {
	app := newApp()
	claims := customerClaims(time.Now().Add(time.Hour))
	claims.Role = models.RoleAdmin
	claims.Accounts = nil
	claims.Permissions = nil
	token := sign(t, jwt.SigningMethodHS256, []byte(testSecret), claims)

	assert.Equal(t, fiber.StatusOK, do(t, app, "/api/admin", token))
	assert.Equal(t, fiber.StatusOK, do(t, app, "/api/write", token))
	assert.Equal(t, fiber.StatusOK, do(t, app, "/api/accounts/ACC-2", token))
}

func TestAuthMiddleware_MalformedHeader(t *testing.T) {
	app := newApp()
	req := httptest.NewRequest(http.MethodGet, "/api/read", nil)
	req.Header.Set("Authorization", "Token abc")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
