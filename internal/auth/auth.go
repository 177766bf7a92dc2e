package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Role carries the permission flags embedded in the access token.
type Role struct {
	Name            string `json:"name,omitempty"`
	IsAdmin         bool   `json:"is_admin,omitempty"`
	CanViewOrders   bool   `json:"can_view_orders,omitempty"`
	CanEditOrders   bool   `json:"can_edit_orders,omitempty"`
	CanDeleteOrders bool   `json:"can_delete_orders,omitempty"`
	CanViewReports  bool   `json:"can_view_reports,omitempty"`
}

// Claims is the JWT payload issued to API users.
type Claims struct {
	jwt.RegisteredClaims
	Role Role `json:"role"`
}

// MayViewOrders reports whether read access to orders is granted.
func (c *Claims) MayViewOrders() bool {
	return c.Role.IsAdmin || c.Role.CanViewOrders
}

// MayEditOrders reports whether write access to orders is granted.
func (c *Claims) MayEditOrders() bool {
	return c.Role.IsAdmin || c.Role.CanEditOrders
}

// MayViewReports reports whether access to the report subsystem is granted.
// The original permission model uses the same flag for report reads and writes.
func (c *Claims) MayViewReports() bool {
	return c.Role.IsAdmin || c.Role.CanViewReports
}

// Parse validates a bearer token (HS256 only) and returns its claims.
func Parse(token, secret string) (*Claims, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt secret not configured")
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &Claims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("subject claim required")
	}
	return claims, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(authz string) (string, bool) {
	parts := strings.Fields(authz)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}
