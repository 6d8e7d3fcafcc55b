package service

import (
	"time"

	"github.com/iliyamo/booking-resolver/internal/model"
)

// Placeholder values used when a payment carries no richer booking data.
const (
	RecoveredUserID        = "unknown"
	RecoveredRouteID       = "recovered-route"
	RecoveredScheduleID    = "recovered-schedule"
	RecoveredDeparture     = "08:00"
	RecoveredSeatNumber    = "A12"
	RecoveredSeatType      = "window"
	RecoveredCurrency      = "LKR"
	RecoveredTransactionID = "recovered"
	recoveredTravelOffset  = 24 * time.Hour
)

var recoveredPassenger = model.PassengerInfo{
	Name:          "Recovered Passenger",
	Phone:         "+94770000000",
	Email:         "recovered@bookings.local",
	IDType:        "nic",
	IDNumber:      "000000000V",
	PassengerType: "adult",
}

var recoveredRoute = model.RouteInfo{
	Name:            "Colombo - Kandy",
	StartLocation:   "Colombo",
	EndLocation:     "Kandy",
	OperatorName:    "Recovered Operator",
	OperatorContact: "+94112000000",
}

// Synthesizer rebuilds a canonical booking from a ledger payment.  It is
// pure: it reads nothing but its arguments and the clock, and writes
// nothing.  TravelDate is written in Location (UTC when nil), which must
// match the location cancellation reads schedules in.
type Synthesizer struct {
	Now      func() time.Time
	Location *time.Location
}

// NewSynthesizer returns a synthesizer on the wall clock.
func NewSynthesizer() Synthesizer { return Synthesizer{Now: time.Now} }

func (s Synthesizer) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s Synthesizer) location() *time.Location {
	if s.Location != nil {
		return s.Location
	}
	return time.UTC
}

// Synthesize builds the booking for id from p.  Values present in the
// payment's embedded snapshot win over placeholders.  The result is
// always an active, confirmed, not checked-in booking whatever the
// payment's own status says.
func (s Synthesizer) Synthesize(id string, p model.Payment) model.Booking {
	now := s.now()
	paidAt := now
	createdAt := now
	if p.CreatedAt != nil && !p.CreatedAt.IsZero() {
		paidAt = *p.CreatedAt
		createdAt = *p.CreatedAt
	}

	b := model.Booking{
		ID:            id,
		BookingID:     id,
		UserID:        firstNonEmpty(p.UserID, RecoveredUserID),
		RouteID:       RecoveredRouteID,
		ScheduleID:    RecoveredScheduleID,
		TravelDate:    now.Add(recoveredTravelOffset).In(s.location()).Format(time.RFC3339),
		DepartureTime: RecoveredDeparture,
		PassengerInfo: recoveredPassenger,
		SeatInfo: model.SeatInfo{
			SeatNumber:  RecoveredSeatNumber,
			SeatType:    RecoveredSeatType,
			Preferences: []string{},
		},
		Pricing: model.Pricing{
			BasePrice:   p.Amount,
			TotalAmount: p.Amount,
			Currency:    firstNonEmpty(p.Currency, RecoveredCurrency),
		},
		PaymentInfo: model.PaymentInfo{
			PaymentID:     p.ID,
			Method:        p.Method,
			Status:        "completed",
			PaidAt:        paidAt,
			TransactionID: firstNonEmpty(p.TransactionID, RecoveredTransactionID),
		},
		RouteInfo: recoveredRoute,
		CreatedAt: createdAt,
		UpdatedAt: now,
	}

	if snap := p.Booking; snap != nil {
		applySnapshot(&b, snap)
	}
	// The record must stay addressable by the id it was synthesized for,
	// otherwise the next lookup would synthesize again.
	if !b.Matches(id) {
		b.BookingID = id
	}

	b.Status = model.BookingStatusConfirmed
	b.IsActive = true
	b.CheckInInfo = model.CheckInInfo{CheckedIn: false}
	b.CancellationInfo = nil
	return b
}

func applySnapshot(b *model.Booking, snap *model.BookingSnapshot) {
	b.ID = firstNonEmpty(snap.ID, b.ID)
	b.BookingID = firstNonEmpty(snap.BookingID, b.BookingID)
	b.UserID = firstNonEmpty(snap.UserID, b.UserID)
	b.RouteID = firstNonEmpty(snap.RouteID, b.RouteID)
	b.ScheduleID = firstNonEmpty(snap.ScheduleID, b.ScheduleID)
	b.TravelDate = firstNonEmpty(snap.TravelDate, b.TravelDate)
	b.DepartureTime = firstNonEmpty(snap.DepartureTime, b.DepartureTime)

	if pi := snap.PassengerInfo; pi != nil {
		b.PassengerInfo = model.PassengerInfo{
			Name:          firstNonEmpty(pi.Name, b.PassengerInfo.Name),
			Phone:         firstNonEmpty(pi.Phone, b.PassengerInfo.Phone),
			Email:         firstNonEmpty(pi.Email, b.PassengerInfo.Email),
			IDType:        firstNonEmpty(pi.IDType, b.PassengerInfo.IDType),
			IDNumber:      firstNonEmpty(pi.IDNumber, b.PassengerInfo.IDNumber),
			PassengerType: firstNonEmpty(pi.PassengerType, b.PassengerInfo.PassengerType),
		}
	}
	if si := snap.SeatInfo; si != nil {
		b.SeatInfo.SeatNumber = firstNonEmpty(si.SeatNumber, b.SeatInfo.SeatNumber)
		b.SeatInfo.SeatType = firstNonEmpty(si.SeatType, b.SeatInfo.SeatType)
		if len(si.Preferences) > 0 {
			b.SeatInfo.Preferences = append([]string(nil), si.Preferences...)
		}
	}
	if pr := snap.Pricing; pr != nil {
		if pr.BasePrice != nil {
			b.Pricing.BasePrice = *pr.BasePrice
		}
		if pr.Taxes != nil {
			b.Pricing.Taxes = *pr.Taxes
		}
		if pr.Discounts != nil {
			b.Pricing.Discounts = *pr.Discounts
		}
		if pr.TotalAmount != nil {
			b.Pricing.TotalAmount = *pr.TotalAmount
		}
		b.Pricing.Currency = firstNonEmpty(pr.Currency, b.Pricing.Currency)
	}
	if ri := snap.RouteInfo; ri != nil {
		b.RouteInfo = model.RouteInfo{
			Name:            firstNonEmpty(ri.Name, b.RouteInfo.Name),
			StartLocation:   firstNonEmpty(ri.StartLocation, b.RouteInfo.StartLocation),
			EndLocation:     firstNonEmpty(ri.EndLocation, b.RouteInfo.EndLocation),
			OperatorName:    firstNonEmpty(ri.OperatorName, b.RouteInfo.OperatorName),
			OperatorContact: firstNonEmpty(ri.OperatorContact, b.RouteInfo.OperatorContact),
		}
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
