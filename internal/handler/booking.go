package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/booking-resolver/internal/service"
)

// BookingHandler serves the booking list, detail and cancellation
// endpoints.  Every detail lookup goes through the shared Resolver.
type BookingHandler struct {
	Resolver *service.Resolver
	Engine   *service.Engine
}

func NewBookingHandler(r *service.Resolver, e *service.Engine) *BookingHandler {
	if r == nil || e == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Resolver: r, Engine: e}
}

// List handles GET /v1/bookings and returns the Mirror collection.
func (h *BookingHandler) List(c echo.Context) error {
	bookings, err := h.Resolver.List(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": bookings, "count": len(bookings)})
}

// Get handles GET /v1/bookings/:id.  The body is the resolution, which
// tells the caller whether the record came from the Primary service, the
// Mirror or was synthesized from a payment.
func (h *BookingHandler) Get(c echo.Context) error {
	res, err := h.Resolver.Lookup(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Eligibility handles GET /v1/bookings/:id/cancellation.
func (h *BookingHandler) Eligibility(c echo.Context) error {
	el, err := h.Engine.Eligibility(c.Request().Context(), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, el)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// Cancel handles POST /v1/bookings/:id/cancel with an optional
// {"reason": "..."} body.
func (h *BookingHandler) Cancel(c echo.Context) error {
	var req cancelRequest
	if c.Request().ContentLength > 0 {
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
		}
	}
	res, err := h.Engine.Cancel(c.Request().Context(), c.Param("id"), req.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
