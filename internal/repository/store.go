package repository

import (
	"context"

	"github.com/iliyamo/booking-resolver/internal/model"
)

// BookingStore is the read/write booking collection (the Mirror).
//
// Upsert replaces every record addressed by the booking's bookingId or id
// and then inserts the new record, so a store never holds two live
// records for the same id.
type BookingStore interface {
	Get(ctx context.Context, id string) (*model.Booking, error)
	List(ctx context.Context) ([]model.Booking, error)
	Upsert(ctx context.Context, b model.Booking) error
	RemoveByID(ctx context.Context, id string) (int, error)
	Clear(ctx context.Context) error
}

// PaymentStore is a read-only payment collection.  List order is the
// order in which the correlator considers candidates.
type PaymentStore interface {
	List(ctx context.Context) ([]model.Payment, error)
	FindMatching(ctx context.Context, id string) ([]model.Payment, error)
}

// replaceIn returns bookings with every record matching b's identifiers
// removed and b appended.
func replaceIn(bookings []model.Booking, b model.Booking) []model.Booking {
	out := removeFrom(bookings, b.BookingID)
	if b.ID != "" && b.ID != b.BookingID {
		out = removeFrom(out, b.ID)
	}
	return append(out, b)
}

// removeFrom drops every record matching id, returning the remaining
// records.
func removeFrom(bookings []model.Booking, id string) []model.Booking {
	if id == "" {
		return bookings
	}
	out := make([]model.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.Matches(id) {
			continue
		}
		out = append(out, b)
	}
	return out
}

func findIn(bookings []model.Booking, id string) (*model.Booking, bool) {
	for i := range bookings {
		if bookings[i].Matches(id) {
			b := bookings[i]
			return &b, true
		}
	}
	return nil, false
}

func matchingPayments(payments []model.Payment, id string) []model.Payment {
	var out []model.Payment
	for _, p := range payments {
		if p.References(id) {
			out = append(out, p)
		}
	}
	return out
}
