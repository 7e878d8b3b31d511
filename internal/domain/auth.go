/**
 * @description
 * Authenticated-identity models: the signed-in user, the session envelope
 * returned by the upstream auth endpoints, and the role set that drives
 * customer-scope resolution.
 */

package domain

import "strings"

// Roles recognized by the feed. ADMIN and SUPPORT see every customer;
// CUSTOMER sees only its own accounts. Anything else normalizes to CUSTOMER.
const (
	RoleAdmin    = "ADMIN"
	RoleSupport  = "SUPPORT"
	RoleCustomer = "CUSTOMER"
)

// NormalizeRole maps an upstream role value onto the recognized role set.
func NormalizeRole(raw string) string {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case RoleAdmin:
		return RoleAdmin
	case RoleSupport:
		return RoleSupport
	default:
		return RoleCustomer
	}
}

// IsPrivilegedRole reports whether the role grants the all-customers scope.
func IsPrivilegedRole(role string) bool {
	return role == RoleAdmin || role == RoleSupport
}

// AuthUser is the normalized identity attached to a session.
type AuthUser struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// AuthSession pairs the upstream bearer token with its normalized user.
type AuthSession struct {
	Token string   `json:"token"`
	User  AuthUser `json:"user"`
}

// LoginPayload is the DTO for sign-in requests.
type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterPayload is the DTO for registration requests.
type RegisterPayload struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
