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

// fixedNow is 2025-06-01 10:00 UTC.

func TestCancelRejectsInsideWindow(t *testing.T) {
	b := confirmedBooking("BK1", "2025-06-01", "11:00", 1000)
	h := newHarness(t, repository.NewMemoryMirror(b))

	_, err := h.engine.Cancel(context.Background(), "BK1", "")
	var te TransitionError
	if !errors.As(err, &te) || te.Reason != ReasonTooClose {
		t.Fatalf("got %v, want too-close TransitionError", err)
	}
	if te.HoursUntilDeparture != 1 {
		t.Fatalf("hoursUntilDeparture = %v, want 1", te.HoursUntilDeparture)
	}
	if err.Error() != "cannot cancel: too close to departure" {
		t.Fatalf("message = %q", err.Error())
	}
	got, _ := h.mirror.Get(context.Background(), "BK1")
	if got.Status != model.BookingStatusConfirmed || got.CancellationInfo != nil {
		t.Fatalf("rejected cancellation mutated the booking: %+v", got)
	}
	if len(h.remote.cancelled) != 0 {
		t.Fatalf("remote cancel must not be attempted after a guard failure")
	}
}

func TestCancelAcceptsExactlyAtThreshold(t *testing.T) {
	h := newHarness(t, repository.NewMemoryMirror(confirmedBooking("BK1", "2025-06-01", "12:00", 1000)))
	if _, err := h.engine.Cancel(context.Background(), "BK1", ""); err != nil {
		t.Fatalf("two hours ahead should be cancellable: %v", err)
	}
}

func TestCancelRejectsNonConfirmed(t *testing.T) {
	for _, status := range []model.BookingStatus{
		model.BookingStatusPending, model.BookingStatusCancelled,
		model.BookingStatusCompleted, model.BookingStatusNoShow,
	} {
		b := confirmedBooking("BK1", "2025-06-05", "09:00", 1000)
		b.Status = status
		h := newHarness(t, repository.NewMemoryMirror(b))

		_, err := h.engine.Cancel(context.Background(), "BK1", "")
		var te TransitionError
		if !errors.As(err, &te) || te.Reason != ReasonWrongStatus {
			t.Fatalf("%s: got %v, want wrong-status TransitionError", status, err)
		}
		if err.Error() != "cannot cancel: wrong status" {
			t.Fatalf("%s: message = %q", status, err.Error())
		}
		got, _ := h.mirror.Get(context.Background(), "BK1")
		if got.Status != status {
			t.Fatalf("%s: status changed to %s", status, got.Status)
		}
	}
}

func TestCancelNotFound(t *testing.T) {
	h := newHarness(t, nil)
	if _, err := h.engine.Cancel(context.Background(), "BK404", ""); !IsNotFound(err) {
		t.Fatalf("got %v, want NotFoundError", err)
	}
}

func TestCancelLocalFallback(t *testing.T) {
	h := newHarness(t, repository.NewMemoryMirror(confirmedBooking("BK1", "2025-06-05", "09:00", 1000)))

	res, err := h.engine.Cancel(context.Background(), "BK1", "change of plans")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if res.Path != PathLocal || res.RefundAmount != 800 || res.RefundStatus != model.RefundStatusPending {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(h.remote.cancelled) != 1 {
		t.Fatalf("remote cancel should be attempted first")
	}

	got, err := h.mirror.Get(context.Background(), "BK1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != model.BookingStatusCancelled {
		t.Fatalf("status = %s, want cancelled", got.Status)
	}
	ci := got.CancellationInfo
	if ci == nil || ci.RefundAmount != 800 || ci.RefundStatus != "pending" || ci.Reason != "change of plans" {
		t.Fatalf("unexpected cancellation info %+v", ci)
	}
	if !ci.CancelledAt.Equal(fixedNow) || !got.UpdatedAt.Equal(fixedNow) {
		t.Fatalf("timestamps not set to now")
	}
	if n := mirrorCount(t, h.mirror, "BK1"); n != 1 {
		t.Fatalf("mirror holds %d entries for BK1", n)
	}
	if h.events.Count(queue.QueueBookingCancelled) != 1 {
		t.Fatalf("expected one booking.cancelled event")
	}
}

func TestCancelDefaultReason(t *testing.T) {
	h := newHarness(t, repository.NewMemoryMirror(confirmedBooking("BK1", "2025-06-05", "09:00", 100)))
	res, err := h.engine.Cancel(context.Background(), "BK1", "")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if res.Booking.CancellationInfo.Reason != DefaultCancelReason {
		t.Fatalf("reason = %q", res.Booking.CancellationInfo.Reason)
	}
}

func TestCancelRemoteTrusted(t *testing.T) {
	b := confirmedBooking("BK1", "2025-06-05", "09:00", 1000)
	h := newHarness(t, nil)
	h.remote.bookings["BK1"] = b
	h.remote.cancelResult = &primary.CancelResult{RefundAmount: 650}

	res, err := h.engine.Cancel(context.Background(), "BK1", "ill")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if res.Path != PathRemote || res.RefundAmount != 650 {
		t.Fatalf("server refund must be trusted, got %+v", res)
	}
	if res.Booking.Status != model.BookingStatusCancelled {
		t.Fatalf("status = %s", res.Booking.Status)
	}
	if n := mirrorCount(t, h.mirror, "BK1"); n != 0 {
		t.Fatalf("a primary-held booking cancelled remotely should not be written locally")
	}
}

func TestCancelRemoteUpdatesLocalCopy(t *testing.T) {
	h := newHarness(t, repository.NewMemoryMirror(confirmedBooking("BK1", "2025-06-05", "09:00", 1000)))
	h.remote.cancelResult = &primary.CancelResult{RefundAmount: 900}

	if _, err := h.engine.Cancel(context.Background(), "BK1", "ill"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	got, _ := h.mirror.Get(context.Background(), "BK1")
	if got.Status != model.BookingStatusCancelled || got.CancellationInfo.RefundAmount != 900 {
		t.Fatalf("mirror copy not updated with the server outcome: %+v", got)
	}
}

func TestCancelHonoursConfiguredLeadTime(t *testing.T) {
	h := newHarness(t, repository.NewMemoryMirror(confirmedBooking("BK1", "2025-06-01", "11:00", 1000)))
	h.engine.MinLeadTime = 30 * time.Minute
	if _, err := h.engine.Cancel(context.Background(), "BK1", ""); err != nil {
		t.Fatalf("Cancel with 30m lead time: %v", err)
	}
}

func TestCancelUnparseableSchedule(t *testing.T) {
	h := newHarness(t, repository.NewMemoryMirror(confirmedBooking("BK1", "soon", "09:00", 1000)))
	_, err := h.engine.Cancel(context.Background(), "BK1", "")
	var te TransitionError
	if !errors.As(err, &te) || te.Reason != ReasonNoSchedule {
		t.Fatalf("got %v, want no-schedule TransitionError", err)
	}
}

func TestEligibility(t *testing.T) {
	h := newHarness(t, repository.NewMemoryMirror(
		confirmedBooking("BK1", "2025-06-05", "09:00", 1000),
		confirmedBooking("BK2", "2025-06-01", "11:00", 1000)))
	ctx := context.Background()

	e, err := h.engine.Eligibility(ctx, "BK1")
	if err != nil {
		t.Fatalf("Eligibility: %v", err)
	}
	if !e.CanCancel || e.ProjectedRefund != 800 || e.MinLeadHours != 2 {
		t.Fatalf("unexpected eligibility %+v", e)
	}

	e, err = h.engine.Eligibility(ctx, "BK2")
	if err != nil {
		t.Fatalf("Eligibility: %v", err)
	}
	if e.CanCancel || e.Reason != ReasonTooClose || e.HoursUntilDeparture != 1 {
		t.Fatalf("unexpected eligibility %+v", e)
	}
	got, _ := h.mirror.Get(ctx, "BK2")
	if got.Status != model.BookingStatusConfirmed {
		t.Fatalf("eligibility check mutated the booking")
	}
}

func TestLocalRefund(t *testing.T) {
	cases := map[float64]float64{1000: 800, 1500: 1200, 999: 799, 0: 0, 12.5: 10}
	for total, want := range cases {
		if got := LocalRefund(total); got != want {
			t.Fatalf("LocalRefund(%v) = %v, want %v", total, got, want)
		}
	}
}

func TestEligibilityRepairsLedgerOnlyBookingWithoutCancelling(t *testing.T) {
	h := newHarness(t, nil, model.Payment{ID: "P9", BookingID: "BK9", Amount: 1000})
	ctx := context.Background()

	e, err := h.engine.Eligibility(ctx, "BK9")
	if err != nil {
		t.Fatalf("Eligibility: %v", err)
	}
	if !e.CanCancel || e.Status != string(model.BookingStatusConfirmed) {
		t.Fatalf("unexpected eligibility %+v", e)
	}
	b, err := h.mirror.Get(ctx, "BK9")
	if err != nil {
		t.Fatalf("ledger-only booking not repaired: %v", err)
	}
	if b.Status != model.BookingStatusConfirmed || len(h.remote.cancelled) != 0 {
		t.Fatalf("eligibility cancelled the booking: %+v", b)
	}
	if h.events.Count(queue.QueueBookingCancelled) != 0 {
		t.Fatalf("booking.cancelled published by eligibility")
	}
}
