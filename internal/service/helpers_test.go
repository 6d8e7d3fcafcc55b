package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/booking-resolver/internal/model"
	"github.com/iliyamo/booking-resolver/internal/primary"
	"github.com/iliyamo/booking-resolver/internal/queue"
	"github.com/iliyamo/booking-resolver/internal/repository"
)

var fixedNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

// fakePrimary stands in for the remote booking service.  Unknown ids are
// reported as not found and cancellation fails unless cancelResult is set.
type fakePrimary struct {
	bookings     map[string]model.Booking
	getErr       error
	cancelResult *primary.CancelResult
	cancelErr    error
	gets         int
	cancelled    []string
}

func (f *fakePrimary) GetBooking(_ context.Context, id string) (*model.Booking, error) {
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	b, ok := f.bookings[id]
	if !ok {
		return nil, primary.ErrNotFound
	}
	return &b, nil
}

func (f *fakePrimary) CancelBooking(_ context.Context, id, _ string) (*primary.CancelResult, error) {
	f.cancelled = append(f.cancelled, id)
	if f.cancelErr != nil {
		return nil, f.cancelErr
	}
	if f.cancelResult == nil {
		return nil, primary.ErrUnavailable
	}
	return f.cancelResult, nil
}

// brokenMirror fails every write.
type brokenMirror struct {
	*repository.MemoryMirror
}

func (brokenMirror) Upsert(context.Context, model.Booking) error {
	return errors.New("mirror is read-only today")
}

type harness struct {
	mirror   repository.BookingStore
	ledger   *repository.MemoryLedger
	remote   *fakePrimary
	events   *queue.Recorder
	writer   *RepairWriter
	resolver *Resolver
	engine   *Engine
	diag     *Diagnostics
}

func newHarness(t *testing.T, mirror repository.BookingStore, payments ...model.Payment) *harness {
	t.Helper()
	if mirror == nil {
		mirror = repository.NewMemoryMirror()
	}
	h := &harness{
		mirror: mirror,
		ledger: repository.NewMemoryLedger(payments...),
		remote: &fakePrimary{bookings: map[string]model.Booking{}},
		events: &queue.Recorder{},
	}
	synth := Synthesizer{Now: clock}
	h.writer = NewRepairWriter(h.mirror, h.events, nil)
	h.writer.now = clock
	h.resolver = NewDefaultResolver(h.remote, h.mirror, h.ledger, h.writer, synth, nil)
	h.engine = NewEngine(h.resolver, h.remote, h.writer, h.events, nil)
	h.engine.Now = clock
	h.engine.Location = time.UTC
	h.diag = NewDiagnostics(h.mirror, h.ledger, h.writer, h.engine, synth, h.events, nil)
	h.diag.Now = clock
	return h
}

func confirmedBooking(id string, travelDate, departure string, total float64) model.Booking {
	return model.Booking{
		ID:            "int-" + id,
		BookingID:     id,
		UserID:        "u-1",
		TravelDate:    travelDate,
		DepartureTime: departure,
		Pricing:       model.Pricing{BasePrice: total, TotalAmount: total, Currency: "LKR"},
		Status:        model.BookingStatusConfirmed,
		IsActive:      true,
	}
}

func mirrorCount(t *testing.T, s repository.BookingStore, id string) int {
	t.Helper()
	all, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("list mirror: %v", err)
	}
	n := 0
	for _, b := range all {
		if b.Matches(id) {
			n++
		}
	}
	return n
}
