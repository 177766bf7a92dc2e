package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const claimsContextKey = "auth.claims"

// Middleware authenticates requests by bearer token and stores the claims
// in the echo context. Requests without a valid token are rejected.
func Middleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}

			claims, err := Parse(token, secret)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(claimsContextKey, claims)
			return next(c)
		}
	}
}

// ClaimsFromContext returns the authenticated claims, if any.
func ClaimsFromContext(c echo.Context) (*Claims, bool) {
	claims, ok := c.Get(claimsContextKey).(*Claims)
	return claims, ok
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// GateOrders enforces the order access rules: safe methods require view
// permission, mutating methods require edit permission.
func GateOrders() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := ClaimsFromContext(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}

			if isSafeMethod(c.Request().Method) {
				if !claims.MayViewOrders() {
					return echo.NewHTTPError(http.StatusForbidden, "order view permission required")
				}
			} else if !claims.MayEditOrders() {
				return echo.NewHTTPError(http.StatusForbidden, "order edit permission required")
			}
			return next(c)
		}
	}
}

// GateReports enforces report access: a single view flag covers both reads
// and report management, matching the legacy permission model.
func GateReports() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := ClaimsFromContext(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if !claims.MayViewReports() {
				return echo.NewHTTPError(http.StatusForbidden, "report permission required")
			}
			return next(c)
		}
	}
}
