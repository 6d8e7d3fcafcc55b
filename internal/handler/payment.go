package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/booking-resolver/internal/model"
	"github.com/iliyamo/booking-resolver/internal/repository"
)

// PaymentHandler exposes the payment ledger read-only.
type PaymentHandler struct {
	Ledger repository.PaymentStore
}

func NewPaymentHandler(l repository.PaymentStore) *PaymentHandler {
	return &PaymentHandler{Ledger: l}
}

// List handles GET /v1/payments.  An optional ?bookingId= narrows the
// result to payments referencing that id.
func (h *PaymentHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	var (
		out []model.Payment
		err error
	)
	if id := c.QueryParam("bookingId"); id != "" {
		out, err = h.Ledger.FindMatching(ctx, id)
	} else {
		out, err = h.Ledger.List(ctx)
	}
	if err != nil {
		return respondError(c, err)
	}
	if out == nil {
		out = []model.Payment{}
	}
	return c.JSON(http.StatusOK, echo.Map{"payments": out, "count": len(out)})
}
