package handler

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/booking-resolver/internal/middleware"
	"github.com/iliyamo/booking-resolver/internal/service"
)

// DiagnosticsHandler serves the operator endpoints under /v1/diagnostics.
// JWTAuth and RequireRole run before every method, so the session identity
// is always present.
type DiagnosticsHandler struct {
	Diag *service.Diagnostics
}

func NewDiagnosticsHandler(d *service.Diagnostics) *DiagnosticsHandler {
	if d == nil {
		panic("nil diagnostics passed to NewDiagnosticsHandler")
	}
	return &DiagnosticsHandler{Diag: d}
}

// Inspect handles GET /v1/diagnostics/:id.
func (h *DiagnosticsHandler) Inspect(c echo.Context) error {
	r, err := h.Diag.Inspect(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

// Repair handles POST /v1/diagnostics/:id/repair.
func (h *DiagnosticsHandler) Repair(c echo.Context) error {
	b, err := h.Diag.ForceRepair(c.Request().Context(), middleware.Operator(c), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": b, "source": "synthesized"})
}

// Cancel handles POST /v1/diagnostics/:id/cancel.
func (h *DiagnosticsHandler) Cancel(c echo.Context) error {
	var req cancelRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
		}
	}
	res, err := h.Diag.Cancel(c.Request().Context(), middleware.Operator(c), c.Param("id"), req.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

type clearRequest struct {
	Confirm string `json:"confirm"`
}

// ClearMirror handles DELETE /v1/diagnostics/mirror.  The body must be
// {"confirm":"CLEAR"}.
func (h *DiagnosticsHandler) ClearMirror(c echo.Context) error {
	var req clearRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
		}
	}
	if err := h.Diag.ClearMirror(c.Request().Context(), middleware.Operator(c), req.Confirm); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Export handles GET /v1/diagnostics/export and serves the snapshot as a
// downloadable JSON document.
func (h *DiagnosticsHandler) Export(c echo.Context) error {
	doc, err := h.Diag.Export(c.Request().Context(), middleware.Operator(c))
	if err != nil {
		return respondError(c, err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="bookings-export-%s.json"`, doc.ExportID))
	return c.JSONPretty(http.StatusOK, doc, "  ")
}
