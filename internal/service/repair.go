package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/booking-resolver/internal/model"
	"github.com/iliyamo/booking-resolver/internal/queue"
	"github.com/iliyamo/booking-resolver/internal/repository"
)

// Repair triggers reported in booking.repaired events.
const (
	TriggerResolve  = "resolve"
	TriggerOperator = "operator"
)

// RepairWriter writes records back to the Mirror.  A write replaces every
// existing entry addressed by the record's bookingId or id, so an id that
// is already present is overwritten rather than duplicated.
type RepairWriter struct {
	store repository.BookingStore
	pub   queue.Publisher
	log   *zap.Logger
	now   func() time.Time
}

func NewRepairWriter(store repository.BookingStore, pub queue.Publisher, log *zap.Logger) *RepairWriter {
	if pub == nil {
		pub = queue.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RepairWriter{store: store, pub: pub, log: log, now: time.Now}
}

// Persist stores b, replacing any record with the same identifiers.
func (w *RepairWriter) Persist(ctx context.Context, b model.Booking) error {
	if err := w.store.Upsert(ctx, b); err != nil {
		return fmt.Errorf("persist booking %s: %w", b.Key(), err)
	}
	return nil
}

// Pin returns b addressed only by id when another of its identifiers
// already names a different Mirror record.  Persisting b unpinned would
// replace that record with synthesized data.
func (w *RepairWriter) Pin(ctx context.Context, id string, b model.Booking) model.Booking {
	for _, key := range []string{b.BookingID, b.ID} {
		if key == "" || key == id {
			continue
		}
		existing, err := w.store.Get(ctx, key)
		if errors.Is(err, repository.ErrBookingNotFound) {
			continue
		}
		if err == nil && existing.Matches(id) {
			continue
		}
		w.log.Warn("synthesized booking collides with mirror record, pinning to requested id",
			zap.String("booking_id", id), zap.String("colliding_id", key), zap.Error(err))
		b.ID, b.BookingID = id, id
		return b
	}
	return b
}

// Repair persists a synthesized record and announces it.  The event is
// best-effort; a publish failure does not fail the repair.
func (w *RepairWriter) Repair(ctx context.Context, b model.Booking, trigger string) error {
	if err := w.Persist(ctx, b); err != nil {
		return err
	}
	w.log.Info("booking repaired",
		zap.String("booking_id", b.Key()),
		zap.String("payment_id", b.PaymentInfo.PaymentID),
		zap.String("trigger", trigger))

	ev := queue.BookingRepairedEvent{
		BookingID:   b.Key(),
		PaymentID:   b.PaymentInfo.PaymentID,
		TotalAmount: b.Pricing.TotalAmount,
		Currency:    b.Pricing.Currency,
		Trigger:     trigger,
		RepairedAt:  w.now().UTC().Format(time.RFC3339),
	}
	if err := w.pub.Publish(ctx, queue.QueueBookingRepaired, ev); err != nil {
		w.log.Warn("publish booking.repaired failed", zap.String("booking_id", b.Key()), zap.Error(err))
	}
	return nil
}
