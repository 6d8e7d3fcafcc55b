package service

import (
	"strings"

	"github.com/iliyamo/booking-resolver/internal/model"
)

// similarPrefixLen is the length of the id prefix used for fuzzy matching.
const similarPrefixLen = 10

// FindPayment returns the first payment that references id exactly,
// through its bookingId or the bookingId / id of its embedded snapshot.
// Candidates are taken in slice order and ties are not disambiguated.
func FindPayment(id string, payments []model.Payment) (*model.Payment, bool) {
	for i := range payments {
		if payments[i].References(id) {
			p := payments[i]
			return &p, true
		}
	}
	return nil, false
}

// FindSimilar lists the known ids that contain the first ten characters of
// id.  The result is for human inspection only; nothing resolves or
// repairs a booking from it.
func FindSimilar(id string, known []string) []string {
	if id == "" {
		return []string{}
	}
	prefix := id
	if len(prefix) > similarPrefixLen {
		prefix = prefix[:similarPrefixLen]
	}
	seen := map[string]bool{id: true}
	out := []string{}
	for _, k := range known {
		if seen[k] {
			continue
		}
		if strings.Contains(k, prefix) {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

// KnownIDs collects every booking identifier mentioned by the mirror
// records and the payment ledger, in encounter order, without duplicates.
func KnownIDs(bookings []model.Booking, payments []model.Payment) []string {
	seen := map[string]bool{}
	var out []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, b := range bookings {
		add(b.BookingID)
		add(b.ID)
	}
	for _, p := range payments {
		add(p.BookingID)
		if p.Booking != nil {
			add(p.Booking.BookingID)
			add(p.Booking.ID)
		}
	}
	return out
}
