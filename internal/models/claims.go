package models

import (
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

// Application permissions
const (
	PermissionTransferWrite = "transfer:write"
	PermissionLedgerRead    = "ledger:read"
	PermissionOTPRequest    = "otp:request"
)

// Roles
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// UserClaims is the bearer token payload issued by the authentication service.
type UserClaims struct {
	jwt.RegisteredClaims
	CustomerID  string   `json:"customer_id"`
	Role        string   `json:"role"`
	Accounts    []string `json:"accounts"`
	Permissions []string `json:"permissions"`
}

// HasPermission checks if the claims include a specific permission
func (c *UserClaims) HasPermission(permission string) bool {
	return c.Role == RoleAdmin || slices.Contains(c.Permissions, permission)
}

// OwnsAccount reports whether the account belongs to the token holder.
// Admins act on every account.
func (c *UserClaims) OwnsAccount(accountNumber string) bool {
	return c.Role == RoleAdmin || slices.Contains(c.Accounts, accountNumber)
}

// GetDefaultPermissions returns default permissions based on role
func GetDefaultPermissions(role string) []string {
	switch role {
	case RoleAdmin, RoleCustomer:
		return []string{
			PermissionTransferWrite,
			PermissionLedgerRead,
			PermissionOTPRequest,
		}
	default:
		return []string{}
	}
}
