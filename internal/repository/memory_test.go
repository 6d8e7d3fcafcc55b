package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/iliyamo/booking-resolver/internal/model"
)

func TestMemoryMirrorUpsertReplaces(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryMirror(model.Booking{ID: "k1", BookingID: "BK1", Status: model.BookingStatusConfirmed})

	if err := m.Upsert(ctx, model.Booking{ID: "k1", BookingID: "BK1", Status: model.BookingStatusCancelled}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	all, _ := m.List(ctx)
	if len(all) != 1 {
		t.Fatalf("expected one record, got %d", len(all))
	}
	if all[0].Status != model.BookingStatusCancelled {
		t.Fatalf("record not replaced: %+v", all[0])
	}
}

func TestMemoryMirrorUpsertMatchesInternalID(t *testing.T) {
	ctx := context.Background()
	// an older record addressed only by its internal key
	m := NewMemoryMirror(model.Booking{ID: "BK9"})
	if err := m.Upsert(ctx, model.Booking{BookingID: "BK9"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	all, _ := m.List(ctx)
	if len(all) != 1 {
		t.Fatalf("expected one record, got %d", len(all))
	}
}

func TestMemoryMirrorGetRemoveClear(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryMirror(model.Booking{BookingID: "BK1"}, model.Booking{ID: "x2", BookingID: "BK2"})

	if _, err := m.Get(ctx, "x2"); err != nil {
		t.Fatalf("get by internal id: %v", err)
	}
	if _, err := m.Get(ctx, "BK3"); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("got %v, want ErrBookingNotFound", err)
	}
	n, _ := m.RemoveByID(ctx, "BK1")
	if n != 1 {
		t.Fatalf("removed %d, want 1", n)
	}
	if err := m.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if all, _ := m.List(ctx); len(all) != 0 {
		t.Fatalf("mirror not cleared: %d records", len(all))
	}
}

func TestMemoryMirrorRejectsAnonymousRecord(t *testing.T) {
	if err := NewMemoryMirror().Upsert(context.Background(), model.Booking{}); !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("got %v, want ErrInvalidRecord", err)
	}
}

func TestMemoryLedgerFindMatching(t *testing.T) {
	l := NewMemoryLedger(
		model.Payment{ID: "P1", BookingID: "BK1"},
		model.Payment{ID: "P2", Booking: &model.BookingSnapshot{BookingID: "BK2"}},
		model.Payment{ID: "P3", Booking: &model.BookingSnapshot{ID: "BK2"}},
	)
	got, _ := l.FindMatching(context.Background(), "BK2")
	if len(got) != 2 || got[0].ID != "P2" || got[1].ID != "P3" {
		t.Fatalf("unexpected matches %+v", got)
	}
}
