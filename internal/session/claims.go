package session

import (
	jwt "github.com/golang-jwt/jwt/v5"

	"sarasavi/pkg/domain"
)

// RoleFromToken extracts the role claim from a server-issued token. The
// client does not hold the signing key; the claim is parsed without
// verification and only reflected in the UI. Enforcement happens server-side.
func RoleFromToken(token string) domain.UserRole {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return ""
	}
	role, _ := claims["role"].(string)
	return domain.UserRole(role)
}

// IsAdminToken reports whether the token carries the admin role claim.
func IsAdminToken(token string) bool {
	return RoleFromToken(token) == domain.RoleAdmin
}
