package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/booking-resolver/internal/service"
)

// respondError maps a service error to its HTTP status.  Transition
// errors carry their user-visible message; anything unclassified is a 500
// and the cause is left to the logs.
func respondError(c echo.Context, err error) error {
	switch {
	case service.IsNotFound(err):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	case service.IsInvalidTransition(err):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case service.IsConfirmationRequired(err):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	c.Logger().Errorf("request failed: %v", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
