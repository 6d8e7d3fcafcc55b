package service

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/booking-resolver/internal/config"
	"github.com/iliyamo/booking-resolver/internal/model"
	"github.com/iliyamo/booking-resolver/internal/primary"
	"github.com/iliyamo/booking-resolver/internal/queue"
)

// DefaultCancelReason is recorded when the caller gives none.
const DefaultCancelReason = "Cancelled by user"

// LocalRefundRate is the share of the total refunded by the local
// fallback.  A remote cancellation uses the server's figure instead.
const LocalRefundRate = 0.8

// Cancellation paths.
const (
	PathRemote = "remote"
	PathLocal  = "local"
)

// Canceller is the write side of the Primary client.
type Canceller interface {
	CancelBooking(ctx context.Context, id, reason string) (*primary.CancelResult, error)
}

// CancellationResult describes an accepted cancellation.
type CancellationResult struct {
	Booking      model.Booking `json:"booking"`
	RefundAmount float64       `json:"refundAmount"`
	RefundStatus string        `json:"refundStatus"`
	Path         string        `json:"path"`
}

// Eligibility is the read-only answer to "may this booking be cancelled
// now", with the refund the local policy would grant.
type Eligibility struct {
	BookingID           string  `json:"bookingId"`
	Status              string  `json:"status"`
	CanCancel           bool    `json:"canCancel"`
	Reason              string  `json:"reason,omitempty"`
	HoursUntilDeparture float64 `json:"hoursUntilDeparture"`
	MinLeadHours        float64 `json:"minLeadHours"`
	ProjectedRefund     float64 `json:"projectedRefund"`
}

// Engine performs the confirmed -> cancelled transition.
type Engine struct {
	resolver *Resolver
	remote   Canceller
	writer   *RepairWriter
	pub      queue.Publisher
	log      *zap.Logger

	Now         func() time.Time
	Location    *time.Location
	MinLeadTime time.Duration
}

// NewEngine returns an engine with the default lead time on the wall
// clock.  remote may be nil, in which case every cancellation is local.
func NewEngine(resolver *Resolver, remote Canceller, writer *RepairWriter, pub queue.Publisher, log *zap.Logger) *Engine {
	if pub == nil {
		pub = queue.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		resolver:    resolver,
		remote:      remote,
		writer:      writer,
		pub:         pub,
		log:         log,
		Now:         time.Now,
		Location:    time.Local,
		MinLeadTime: config.DefaultMinLeadTime,
	}
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Engine) minLead() time.Duration {
	if e.MinLeadTime > 0 {
		return e.MinLeadTime
	}
	return config.DefaultMinLeadTime
}

// check applies the status and time-window guards to b.
func (e *Engine) check(b model.Booking) (hours float64, err error) {
	if !b.Status.CanCancel() {
		return 0, TransitionError{Reason: ReasonWrongStatus, Status: string(b.Status)}
	}
	dep, perr := b.DepartureAt(e.Location)
	if perr != nil {
		return 0, TransitionError{Reason: ReasonNoSchedule, Status: string(b.Status)}
	}
	until := dep.Sub(e.now())
	hours = until.Hours()
	if until < e.minLead() {
		return hours, TransitionError{Reason: ReasonTooClose, Status: string(b.Status), HoursUntilDeparture: hours}
	}
	return hours, nil
}

// Eligibility resolves id and reports whether Cancel would pass its
// guards.  It never cancels; resolving may still repair the Mirror when
// the booking is only known to the ledger.
func (e *Engine) Eligibility(ctx context.Context, id string) (Eligibility, error) {
	res, err := e.resolver.Lookup(ctx, id)
	if err != nil {
		return Eligibility{}, err
	}
	b := *res.Booking
	out := Eligibility{
		BookingID:       b.Key(),
		Status:          string(b.Status),
		MinLeadHours:    e.minLead().Hours(),
		ProjectedRefund: LocalRefund(b.Pricing.TotalAmount),
	}
	hours, cerr := e.check(b)
	out.HoursUntilDeparture = hours
	var te TransitionError
	if errors.As(cerr, &te) {
		out.Reason = te.Reason
		return out, nil
	}
	out.CanCancel = true
	return out, nil
}

// Cancel cancels the booking for id.  Guards run in order (existence,
// status, lead time) and the first failure returns with nothing changed.
// The Primary service is tried first; if it cannot be reached or refuses,
// the local policy is applied and the result persisted to the Mirror.
func (e *Engine) Cancel(ctx context.Context, id, reason string) (*CancellationResult, error) {
	if reason == "" {
		reason = DefaultCancelReason
	}
	res, err := e.resolver.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	b := *res.Booking
	if _, err := e.check(b); err != nil {
		e.log.Info("cancellation rejected", zap.String("booking_id", id), zap.Error(err))
		return nil, err
	}

	out, err := e.cancelRemote(ctx, id, reason, b, res.Source)
	if out == nil {
		if err != nil {
			e.log.Warn("remote cancellation failed, applying local policy", zap.String("booking_id", id), zap.Error(err))
		}
		out, err = e.cancelLocal(ctx, reason, b)
		if err != nil {
			return nil, err
		}
	}

	e.log.Info("booking cancelled",
		zap.String("booking_id", id),
		zap.String("path", out.Path),
		zap.Float64("refund_amount", out.RefundAmount))
	ev := queue.BookingCancelledEvent{
		BookingID:    out.Booking.Key(),
		Reason:       reason,
		RefundAmount: out.RefundAmount,
		RefundStatus: out.RefundStatus,
		Path:         out.Path,
		CancelledAt:  e.now().UTC().Format(time.RFC3339),
	}
	if perr := e.pub.Publish(ctx, queue.QueueBookingCancelled, ev); perr != nil {
		e.log.Warn("publish booking.cancelled failed", zap.String("booking_id", id), zap.Error(perr))
	}
	return out, nil
}

// cancelRemote returns a nil result when the Primary path was not taken
// or failed.
func (e *Engine) cancelRemote(ctx context.Context, id, reason string, b model.Booking, src model.Source) (*CancellationResult, error) {
	if e.remote == nil {
		return nil, nil
	}
	rr, err := e.remote.CancelBooking(ctx, id, reason)
	if err != nil {
		return nil, err
	}

	now := e.now()
	updated := b
	if rr.Booking != nil {
		updated = *rr.Booking
	} else {
		updated.Status = model.BookingStatusCancelled
		updated.CancellationInfo = &model.CancellationInfo{
			Reason:       reason,
			CancelledAt:  now,
			RefundAmount: rr.RefundAmount,
			RefundStatus: model.RefundStatusProcessing,
		}
		updated.UpdatedAt = now
	}
	refundStatus := model.RefundStatusProcessing
	if updated.CancellationInfo != nil && updated.CancellationInfo.RefundStatus != "" {
		refundStatus = updated.CancellationInfo.RefundStatus
	}

	// A record served from local storage would otherwise keep showing as
	// confirmed there.
	if src != model.SourcePrimary && e.writer != nil {
		if err := e.writer.Persist(ctx, updated); err != nil {
			e.log.Warn("mirror update after remote cancellation failed", zap.String("booking_id", id), zap.Error(err))
		}
	}
	return &CancellationResult{
		Booking:      updated,
		RefundAmount: rr.RefundAmount,
		RefundStatus: refundStatus,
		Path:         PathRemote,
	}, nil
}

func (e *Engine) cancelLocal(ctx context.Context, reason string, b model.Booking) (*CancellationResult, error) {
	now := e.now()
	refund := LocalRefund(b.Pricing.TotalAmount)
	b.Status = model.BookingStatusCancelled
	b.CancellationInfo = &model.CancellationInfo{
		Reason:       reason,
		CancelledAt:  now,
		RefundAmount: refund,
		RefundStatus: model.RefundStatusPending,
	}
	b.UpdatedAt = now
	if e.writer != nil {
		if err := e.writer.Persist(ctx, b); err != nil {
			return nil, err
		}
	}
	return &CancellationResult{
		Booking:      b,
		RefundAmount: refund,
		RefundStatus: model.RefundStatusPending,
		Path:         PathLocal,
	}, nil
}

// LocalRefund is floor(total * LocalRefundRate).
func LocalRefund(total float64) float64 {
	return math.Floor(total * LocalRefundRate)
}
