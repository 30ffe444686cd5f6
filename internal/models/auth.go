package models

import "github.com/golang-jwt/jwt/v5"

// UserRole is the portal role carried in operator tokens.
type UserRole string

// Roles known to the portal. Only admins and coordinators take decisions or edit rosters.
const (
	RoleAdmin       UserRole = "ADMIN"
	RoleCoordinator UserRole = "COORDINATOR"
	RoleViewer      UserRole = "VIEWER"
)

// DecisionRoles may approve, reject, resume and correct rosters.
var DecisionRoles = []UserRole{RoleAdmin, RoleCoordinator}

// Known reports whether r is one of the portal roles.
func (r UserRole) Known() bool {
	switch r {
	case RoleAdmin, RoleCoordinator, RoleViewer:
		return true
	}
	return false
}

// JWTClaims is the access token payload issued by the hospital identity provider.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}
