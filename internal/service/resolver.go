// Package service holds the booking resolution core: correlation,
// synthesis, repair, cancellation and the operator diagnostics built on
// them.  Every store is injected; nothing here reaches for global state.
package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/iliyamo/booking-resolver/internal/model"
	"github.com/iliyamo/booking-resolver/internal/primary"
	"github.com/iliyamo/booking-resolver/internal/repository"
)

// Strategy is one step of the resolution chain.  A strategy that does not
// know the id returns model.NotFound() and a nil error; an error means the
// source could not be consulted and is treated the same way by the
// Resolver.
type Strategy interface {
	Name() string
	Resolve(ctx context.Context, id string) (model.Resolution, error)
}

// BookingFetcher is the read side of the Primary client.
type BookingFetcher interface {
	GetBooking(ctx context.Context, id string) (*model.Booking, error)
}

// PrimaryStrategy asks the authoritative remote service.
type PrimaryStrategy struct {
	Client BookingFetcher
}

func (PrimaryStrategy) Name() string { return string(model.SourcePrimary) }

func (s PrimaryStrategy) Resolve(ctx context.Context, id string) (model.Resolution, error) {
	if s.Client == nil {
		return model.NotFound(), nil
	}
	b, err := s.Client.GetBooking(ctx, id)
	if errors.Is(err, primary.ErrNotFound) {
		return model.NotFound(), nil
	}
	if err != nil {
		return model.NotFound(), err
	}
	return model.Found(*b, model.SourcePrimary), nil
}

// MirrorStrategy looks the id up in the local booking collection.
type MirrorStrategy struct {
	Store repository.BookingStore
}

func (MirrorStrategy) Name() string { return string(model.SourceMirror) }

func (s MirrorStrategy) Resolve(ctx context.Context, id string) (model.Resolution, error) {
	b, err := s.Store.Get(ctx, id)
	if errors.Is(err, repository.ErrBookingNotFound) {
		return model.NotFound(), nil
	}
	if err != nil {
		return model.NotFound(), err
	}
	return model.Found(*b, model.SourceMirror), nil
}

// LedgerStrategy correlates the id against the payment ledger, synthesizes
// a booking from the matching payment and writes it back to the Mirror.
// The synthesized record is returned even when the write fails.
type LedgerStrategy struct {
	Ledger      repository.PaymentStore
	Synthesizer Synthesizer
	Writer      *RepairWriter
	Log         *zap.Logger
}

func (LedgerStrategy) Name() string { return "ledger" }

func (s LedgerStrategy) Resolve(ctx context.Context, id string) (model.Resolution, error) {
	payments, err := s.Ledger.FindMatching(ctx, id)
	if err != nil {
		return model.NotFound(), err
	}
	p, ok := FindPayment(id, payments)
	if !ok {
		return model.NotFound(), nil
	}

	b := s.Synthesizer.Synthesize(id, *p)
	if s.Writer != nil {
		b = s.Writer.Pin(ctx, id, b)
		if err := s.Writer.Repair(ctx, b, TriggerResolve); err != nil && s.Log != nil {
			s.Log.Error("repair after synthesis failed",
				zap.String("booking_id", id), zap.String("payment_id", p.ID), zap.Error(err))
		}
	}
	return model.Found(b, model.SourceSynthesized), nil
}

// Resolver runs its strategies in order, each at most once, and returns
// the first hit.
type Resolver struct {
	mirror     repository.BookingStore
	strategies []Strategy
	log        *zap.Logger
}

// NewResolver builds a resolver over an explicit strategy chain.  mirror
// backs List.
func NewResolver(mirror repository.BookingStore, log *zap.Logger, strategies ...Strategy) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{mirror: mirror, strategies: strategies, log: log}
}

// NewDefaultResolver wires the Primary, Mirror and Ledger strategies in
// that order.  remote may be nil when no Primary service is configured.
func NewDefaultResolver(remote BookingFetcher, mirror repository.BookingStore, ledger repository.PaymentStore,
	writer *RepairWriter, synth Synthesizer, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return NewResolver(mirror, log,
		PrimaryStrategy{Client: remote},
		MirrorStrategy{Store: mirror},
		LedgerStrategy{Ledger: ledger, Synthesizer: synth, Writer: writer, Log: log},
	)
}

// Resolve finds the booking for id.  Source failures are logged and
// skipped; the result is model.NotFound() only when every strategy came up
// empty.
func (r *Resolver) Resolve(ctx context.Context, id string) model.Resolution {
	if id == "" {
		return model.NotFound()
	}
	for _, s := range r.strategies {
		res, err := s.Resolve(ctx, id)
		if err != nil {
			r.log.Warn("resolution source unavailable",
				zap.String("source", s.Name()), zap.String("booking_id", id), zap.Error(err))
			continue
		}
		if res.Found {
			r.log.Debug("booking resolved", zap.String("booking_id", id), zap.String("source", string(res.Source)))
			return res
		}
	}
	return model.NotFound()
}

// Lookup is Resolve with NotFound reported as a NotFoundError.
func (r *Resolver) Lookup(ctx context.Context, id string) (model.Resolution, error) {
	res := r.Resolve(ctx, id)
	if !res.Found {
		return res, NotFoundError{Resource: "booking", ID: id}
	}
	return res, nil
}

// List returns the Mirror collection.
func (r *Resolver) List(ctx context.Context) ([]model.Booking, error) {
	return r.mirror.List(ctx)
}
