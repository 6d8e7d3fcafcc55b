package service

import (
	"reflect"
	"testing"

	"github.com/iliyamo/booking-resolver/internal/model"
)

func TestFindPayment(t *testing.T) {
	payments := []model.Payment{
		{ID: "P0", BookingID: "BK0"},
		{ID: "P1", Booking: &model.BookingSnapshot{ID: "BK1"}},
		{ID: "P2", Booking: &model.BookingSnapshot{BookingID: "BK1"}},
		{ID: "P3", BookingID: "BK1"},
	}
	p, ok := FindPayment("BK1", payments)
	if !ok || p.ID != "P1" {
		t.Fatalf("got %+v, want first match P1", p)
	}
	if _, ok := FindPayment("BK9", payments); ok {
		t.Fatalf("unexpected match for BK9")
	}
	if _, ok := FindPayment("", []model.Payment{{ID: "P"}}); ok {
		t.Fatalf("empty id must never match")
	}
}

func TestFindPaymentIgnoresPrefixes(t *testing.T) {
	payments := []model.Payment{{ID: "P1", BookingID: "BK1234567899"}}
	if _, ok := FindPayment("BK1234567890", payments); ok {
		t.Fatalf("correlation must be exact")
	}
}

func TestFindSimilar(t *testing.T) {
	known := []string{"BK1234567890", "BK1234567899", "BK1234567899", "BK9999999999", "xBK1234567891"}
	got := FindSimilar("BK1234567890", known)
	want := []string{"BK1234567899", "xBK1234567891"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("FindSimilar = %v, want %v", got, want)
	}
}

func TestFindSimilarShortID(t *testing.T) {
	got := FindSimilar("BK12", []string{"BK123", "BK1", "ZZ"})
	if !reflect.DeepEqual(got, []string{"BK123"}) {
		t.Fatalf("FindSimilar = %v", got)
	}
	if got := FindSimilar("", []string{"BK1"}); len(got) != 0 {
		t.Fatalf("empty id should have no similar ids, got %v", got)
	}
}

func TestKnownIDs(t *testing.T) {
	bookings := []model.Booking{{ID: "i1", BookingID: "BK1"}, {BookingID: "BK2"}}
	payments := []model.Payment{{BookingID: "BK2"}, {Booking: &model.BookingSnapshot{ID: "BK3"}}}
	got := KnownIDs(bookings, payments)
	want := []string{"BK1", "i1", "BK2", "BK3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("KnownIDs = %v, want %v", got, want)
	}
}
