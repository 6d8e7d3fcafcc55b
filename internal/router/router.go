package router // package router registers the HTTP routes of the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/booking-resolver/internal/handler"
	"github.com/iliyamo/booking-resolver/internal/middleware"
)

// RegisterRoutes registers the unauthenticated liveness probe.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterBookings registers the booking and payment views.  cache wraps
// the payment listing only: booking reads may repair the Mirror and are
// never served from cache.
func RegisterBookings(e *echo.Echo, b *handler.BookingHandler, p *handler.PaymentHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1")
	g.GET("/bookings", b.List)
	g.GET("/bookings/:id", b.Get)
	g.GET("/bookings/:id/cancellation", b.Eligibility)
	g.POST("/bookings/:id/cancel", b.Cancel)

	if cache == nil {
		g.GET("/payments", p.List)
	} else {
		g.GET("/payments", p.List, cache)
	}
}

// RegisterDiagnostics registers the operator endpoints.  Every route
// requires a verified token with the OPERATOR or ADMIN role; limit, when
// set, runs after authentication so buckets are per operator.
func RegisterDiagnostics(e *echo.Echo, d *handler.DiagnosticsHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	mw := []echo.MiddlewareFunc{
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleOperator, middleware.RoleAdmin),
	}
	if limit != nil {
		mw = append(mw, limit)
	}
	g := e.Group("/v1/diagnostics", mw...)

	// static paths first; echo prefers them over :id regardless of order
	g.GET("/export", d.Export)
	g.DELETE("/mirror", d.ClearMirror)

	g.GET("/:id", d.Inspect)
	g.POST("/:id/repair", d.Repair)
	g.POST("/:id/cancel", d.Cancel)
}
