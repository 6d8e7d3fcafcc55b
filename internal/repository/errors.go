// Package repository implements the store abstraction over the three
// booking data sources: the Mirror (local durable booking cache), the
// Ledger (payment history) and, through an adapter, the remote payment
// history of the Primary service.
package repository

import "errors"

// ErrBookingNotFound is returned by BookingStore.Get when no record in the
// store is addressed by the requested id.
var ErrBookingNotFound = errors.New("booking not found")

// ErrConflict is returned when an optimistic write keeps losing the race
// against concurrent writers.
var ErrConflict = errors.New("conflict")

// ErrInvalidRecord is returned when a booking without any identifier is
// written.
var ErrInvalidRecord = errors.New("booking has no identifier")
