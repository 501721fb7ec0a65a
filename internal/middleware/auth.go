// Package middleware provides HTTP middleware components for the application.
// It includes authentication and authorization middleware for the fiber web
// framework.
package middleware

import (
	"strings"

	"bankcore/internal/models"
	"bankcore/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// ClaimsKey is the fiber Locals key holding *models.UserClaims.
const ClaimsKey = "claims"

// AuthMiddleware handles JWT token validation.
// It extracts the JWT token from the Authorization header, validates it,
// and adds the user claims to the request context.
type AuthMiddleware struct {
	secret []byte
	logger *zap.Logger
}

func NewAuthMiddleware(secret string, logger *zap.Logger) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{
		secret: []byte(secret),
		logger: logger.Named("auth"),
	}
}

// Handler validates the bearer token and stores its claims under ClaimsKey.
func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return response.Error(c, fiber.StatusUnauthorized, "missing authorization header")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return response.Error(c, fiber.StatusUnauthorized, "invalid authorization format")
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")

	token, err := jwt.ParseWithClaims(tokenString, &models.UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		m.logger.Debug("token rejected", zap.String("ip", c.IP()), zap.Error(err))
		return response.Error(c, fiber.StatusUnauthorized, "invalid token")
	}

	claims, ok := token.Claims.(*models.UserClaims)
	if !ok || claims.CustomerID == "" {
		return response.Error(c, fiber.StatusUnauthorized, "invalid claims")
	}

	c.Locals(ClaimsKey, claims)
	return c.Next()
}

// Claims returns the claims stored by Handler.
func Claims(c *fiber.Ctx) (*models.UserClaims, bool) {
	claims, ok := c.Locals(ClaimsKey).(*models.UserClaims)
	return claims, ok && claims != nil
}

// AdminAuthMiddleware verifies that the request has valid admin claims.
func AdminAuthMiddleware(c *fiber.Ctx) error {
	claims, ok := Claims(c)
	if !ok {
		return response.Unauthorized(c)
	}
	if claims.Role != models.RoleAdmin {
		return response.Forbidden(c)
	}
	return c.Next()
}

// HasPermission returns a middleware that checks for a specific permission.
func HasPermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := Claims(c)
		if !ok {
			return response.Unauthorized(c)
		}
		if !claims.HasPermission(permission) {
			return response.Forbidden(c)
		}
		return c.Next()
	}
}

// OwnsAccount returns a middleware that only lets the owner of the account
// named by route parameter param through.
func OwnsAccount(param string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := Claims(c)
		if !ok {
			return response.Unauthorized(c)
		}
		if !claims.OwnsAccount(c.Params(param)) {
			return response.Forbidden(c)
		}
		return c.Next()
	}
}
