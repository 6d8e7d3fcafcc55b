package model

import "time"

// Payment is an entry of the payment ledger.  It is an independent
// entity: BookingID is an optional back-reference and Booking an optional
// partial snapshot of the booking taken at purchase time.  Either may be
// missing or stale.
type Payment struct {
	ID            string           `json:"id"`
	BookingID     string           `json:"bookingId,omitempty"`
	Booking       *BookingSnapshot `json:"booking,omitempty"`
	Amount        float64          `json:"amount"`
	Currency      string           `json:"currency,omitempty"`
	Method        string           `json:"method,omitempty"`
	Status        string           `json:"status,omitempty"`
	TransactionID string           `json:"transactionId,omitempty"`
	UserID        string           `json:"userId,omitempty"`
	CreatedAt     *time.Time       `json:"createdAt,omitempty"`
}

// References reports whether the payment points at the given booking id
// through its back-reference or its embedded snapshot.
func (p Payment) References(id string) bool {
	if id == "" {
		return false
	}
	if p.BookingID == id {
		return true
	}
	if p.Booking != nil && (p.Booking.BookingID == id || p.Booking.ID == id) {
		return true
	}
	return false
}

// BookingSnapshot is the partial booking embedded in a payment.  Every
// field is optional; empty strings and nil pointers mean "absent".
type BookingSnapshot struct {
	ID            string         `json:"id,omitempty"`
	BookingID     string         `json:"bookingId,omitempty"`
	UserID        string         `json:"userId,omitempty"`
	RouteID       string         `json:"routeId,omitempty"`
	ScheduleID    string         `json:"scheduleId,omitempty"`
	TravelDate    string         `json:"travelDate,omitempty"`
	DepartureTime string         `json:"departureTime,omitempty"`
	PassengerInfo *PassengerInfo `json:"passengerInfo,omitempty"`
	SeatInfo      *SeatInfo      `json:"seatInfo,omitempty"`
	Pricing       *PricingPatch  `json:"pricing,omitempty"`
	RouteInfo     *RouteInfo     `json:"routeInfo,omitempty"`
}

// PricingPatch carries optional pricing values from a snapshot.  Pointers
// distinguish an explicit zero from an absent value.
type PricingPatch struct {
	BasePrice   *float64 `json:"basePrice,omitempty"`
	Taxes       *float64 `json:"taxes,omitempty"`
	Discounts   *float64 `json:"discounts,omitempty"`
	TotalAmount *float64 `json:"totalAmount,omitempty"`
	Currency    string   `json:"currency,omitempty"`
}
