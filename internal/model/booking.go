package model

import (
	"fmt"
	"strings"
	"time"
)

// BookingStatus is the lifecycle state of a booking.  Only the
// confirmed -> cancelled transition is ever performed by this service;
// every other state is terminal from its point of view.
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusNoShow    BookingStatus = "no_show"
)

// IsValid reports whether the status is one of the known values.
func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusConfirmed, BookingStatusPending, BookingStatusCancelled,
		BookingStatusCompleted, BookingStatusNoShow:
		return true
	}
	return false
}

// CanCancel reports whether a booking in this state may be cancelled.
func (s BookingStatus) CanCancel() bool { return s == BookingStatusConfirmed }

// Refund status values recorded in CancellationInfo.
const (
	RefundStatusPending    = "pending"
	RefundStatusProcessing = "processing"
)

// Booking is the canonical booking record.  The JSON shape is shared by
// the Primary service, the Mirror collection and the diagnostic export.
//
// Pricing.TotalAmount is not required to equal BasePrice + Taxes -
// Discounts; synthesized records set it straight from the payment.
type Booking struct {
	ID               string            `json:"id"`
	BookingID        string            `json:"bookingId"`
	UserID           string            `json:"userId"`
	RouteID          string            `json:"routeId"`
	ScheduleID       string            `json:"scheduleId"`
	TravelDate       string            `json:"travelDate"`
	DepartureTime    string            `json:"departureTime"`
	PassengerInfo    PassengerInfo     `json:"passengerInfo"`
	SeatInfo         SeatInfo          `json:"seatInfo"`
	Pricing          Pricing           `json:"pricing"`
	PaymentInfo      PaymentInfo       `json:"paymentInfo"`
	Status           BookingStatus     `json:"status"`
	CancellationInfo *CancellationInfo `json:"cancellationInfo,omitempty"`
	CheckInInfo      CheckInInfo       `json:"checkInInfo"`
	RouteInfo        RouteInfo         `json:"routeInfo"`
	IsActive         bool              `json:"isActive"`
	CreatedAt        time.Time         `json:"createdAt"`
	UpdatedAt        time.Time         `json:"updatedAt"`
}

type PassengerInfo struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	IDType        string `json:"idType"`
	IDNumber      string `json:"idNumber"`
	PassengerType string `json:"passengerType"`
}

type SeatInfo struct {
	SeatNumber  string   `json:"seatNumber"`
	SeatType    string   `json:"seatType"`
	Preferences []string `json:"preferences"`
}

type Pricing struct {
	BasePrice   float64 `json:"basePrice"`
	Taxes       float64 `json:"taxes"`
	Discounts   float64 `json:"discounts"`
	TotalAmount float64 `json:"totalAmount"`
	Currency    string  `json:"currency"`
}

type PaymentInfo struct {
	PaymentID     string    `json:"paymentId"`
	Method        string    `json:"method"`
	Status        string    `json:"status"`
	PaidAt        time.Time `json:"paidAt"`
	TransactionID string    `json:"transactionId"`
}

// CancellationInfo is present only once a booking has been cancelled.
type CancellationInfo struct {
	Reason       string    `json:"reason"`
	CancelledAt  time.Time `json:"cancelledAt"`
	RefundAmount float64   `json:"refundAmount"`
	RefundStatus string    `json:"refundStatus"`
}

type CheckInInfo struct {
	CheckedIn       bool       `json:"checkedIn"`
	CheckInTime     *time.Time `json:"checkInTime,omitempty"`
	CheckInLocation string     `json:"checkInLocation,omitempty"`
}

// RouteInfo is a denormalized display copy of the route.
type RouteInfo struct {
	Name            string `json:"name"`
	StartLocation   string `json:"startLocation"`
	EndLocation     string `json:"endLocation"`
	OperatorName    string `json:"operatorName"`
	OperatorContact string `json:"operatorContact"`
}

// Matches reports whether id names this booking, either by its public
// booking id or its internal key.
func (b Booking) Matches(id string) bool {
	if id == "" {
		return false
	}
	return b.BookingID == id || b.ID == id
}

// Key returns the identifier the booking is addressed by.
func (b Booking) Key() string {
	if b.BookingID != "" {
		return b.BookingID
	}
	return b.ID
}

// DepartureAt combines the date part of TravelDate with DepartureTime in
// the given location.  TravelDate may be a bare date or a full ISO
// timestamp; only its first ten characters are used.
func (b Booking) DepartureAt(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	date := strings.TrimSpace(b.TravelDate)
	if len(date) < 10 {
		return time.Time{}, fmt.Errorf("invalid travel date %q", b.TravelDate)
	}
	clock := strings.TrimSpace(b.DepartureTime)
	if clock == "" {
		clock = "00:00"
	}
	// tolerate HH:MM:SS
	if len(clock) > 5 {
		clock = clock[:5]
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", date[:10]+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid departure %q %q: %w", b.TravelDate, b.DepartureTime, err)
	}
	return t, nil
}
