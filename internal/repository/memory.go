package repository

import (
	"context"
	"sync"

	"github.com/iliyamo/booking-resolver/internal/model"
)

// MemoryMirror is an in-process BookingStore.  It serves tests and runs in
// place of the Redis mirror when Redis is unreachable at startup.
type MemoryMirror struct {
	mu       sync.Mutex
	bookings []model.Booking
}

// NewMemoryMirror returns a mirror seeded with the given records.
func NewMemoryMirror(seed ...model.Booking) *MemoryMirror {
	m := &MemoryMirror{}
	for _, b := range seed {
		m.bookings = replaceIn(m.bookings, b)
	}
	return m
}

func (m *MemoryMirror) Get(_ context.Context, id string) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := findIn(m.bookings, id); ok {
		return b, nil
	}
	return nil, ErrBookingNotFound
}

func (m *MemoryMirror) List(_ context.Context) ([]model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Booking, len(m.bookings))
	copy(out, m.bookings)
	return out, nil
}

func (m *MemoryMirror) Upsert(_ context.Context, b model.Booking) error {
	if b.Key() == "" {
		return ErrInvalidRecord
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings = replaceIn(m.bookings, b)
	return nil
}

func (m *MemoryMirror) RemoveByID(_ context.Context, id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	before := len(m.bookings)
	m.bookings = removeFrom(m.bookings, id)
	return before - len(m.bookings), nil
}

func (m *MemoryMirror) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings = nil
	return nil
}

// MemoryLedger is a fixed, read-only PaymentStore.
type MemoryLedger struct {
	payments []model.Payment
}

func NewMemoryLedger(payments ...model.Payment) *MemoryLedger {
	return &MemoryLedger{payments: payments}
}

func (l *MemoryLedger) List(_ context.Context) ([]model.Payment, error) {
	out := make([]model.Payment, len(l.payments))
	copy(out, l.payments)
	return out, nil
}

func (l *MemoryLedger) FindMatching(_ context.Context, id string) ([]model.Payment, error) {
	return matchingPayments(l.payments, id), nil
}
