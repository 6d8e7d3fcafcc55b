package middleware

// identity.go turns what the other middleware left in the echo context
// into values handlers and services use.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/booking-resolver/internal/model"
)

// Operator returns the session identity of the request.  Unauthenticated
// requests yield an "anonymous" operator with an empty role.
func Operator(c echo.Context) model.Operator {
	op := model.Operator{ID: operatorID(c), RequestID: RequestIDFrom(c)}
	if r, ok := c.Get(ctxRole).(string); ok {
		op.Role = r
	}
	return op
}

func operatorID(c echo.Context) string {
	if v, ok := c.Get(ctxOperatorID).(string); ok && v != "" {
		return v
	}
	return "anonymous"
}

// RequestIDFrom returns the id assigned by RequestID, or "".
func RequestIDFrom(c echo.Context) string {
	if v, ok := c.Get(ctxRequestID).(string); ok {
		return v
	}
	return ""
}
