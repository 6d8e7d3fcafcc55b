package middleware // reusable HTTP middleware for the echo router

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/booking-resolver/internal/utils"
)

// Context keys set by the middleware in this package.
const (
	ctxOperatorID = "operator_id"
	ctxRole       = "role"
	ctxRequestID  = "request_id"
)

// JWTAuth returns a middleware that verifies a Bearer operator token and
// stores its subject and role in the context.  Tokens are only verified
// here; issuing them is someone else's job.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			claims, err := utils.ParseOperatorToken(secret, strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			c.Set(ctxOperatorID, claims.Subject)
			c.Set(ctxRole, claims.Role)
			return next(c)
		}
	}
}
