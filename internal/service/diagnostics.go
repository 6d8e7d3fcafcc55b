package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iliyamo/booking-resolver/internal/model"
	"github.com/iliyamo/booking-resolver/internal/queue"
	"github.com/iliyamo/booking-resolver/internal/repository"
)

// ClearConfirmation must be passed to ClearMirror verbatim.
const ClearConfirmation = "CLEAR"

// Operator actions recorded in audit events.
const (
	ActionRepair      = "repair"
	ActionCancel      = "cancel"
	ActionClearMirror = "clear_mirror"
	ActionExport      = "export"
)

var bookingIDFormat = regexp.MustCompile(`^BK\d+$`)

// ValidFormat reports whether id looks like a generated booking id.  It
// is advisory: ids that fail it may still resolve.
func ValidFormat(id string) bool { return bookingIDFormat.MatchString(id) }

// Report is the read-only diagnostic view of one id.
type Report struct {
	BookingID       string         `json:"bookingId"`
	FoundInBookings bool           `json:"foundInBookings"`
	FoundInPayments bool           `json:"foundInPayments"`
	ValidFormat     bool           `json:"validFormat"`
	SimilarIDs      []string       `json:"similarIds"`
	MirrorRecord    *model.Booking `json:"mirrorRecord,omitempty"`
	Payment         *model.Payment `json:"payment,omitempty"`
	CheckedAt       time.Time      `json:"checkedAt"`
}

// ExportDocument is a timestamped snapshot of both local collections.
type ExportDocument struct {
	ExportID   string          `json:"exportId"`
	ExportedAt time.Time       `json:"exportedAt"`
	Session    model.Operator  `json:"session"`
	Bookings   []model.Booking `json:"bookings"`
	Payments   []model.Payment `json:"payments"`
}

// Diagnostics serves operators.  Inspect and Export only read; every other
// method is an explicit action that is logged and audited.
type Diagnostics struct {
	mirror repository.BookingStore
	ledger repository.PaymentStore
	writer *RepairWriter
	engine *Engine
	synth  Synthesizer
	pub    queue.Publisher
	log    *zap.Logger

	Now func() time.Time
}

func NewDiagnostics(mirror repository.BookingStore, ledger repository.PaymentStore, writer *RepairWriter,
	engine *Engine, synth Synthesizer, pub queue.Publisher, log *zap.Logger) *Diagnostics {
	if pub == nil {
		pub = queue.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Diagnostics{
		mirror: mirror,
		ledger: ledger,
		writer: writer,
		engine: engine,
		synth:  synth,
		pub:    pub,
		log:    log,
		Now:    time.Now,
	}
}

func (d *Diagnostics) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Inspect reports where id can be found without synthesizing or
// repairing anything.
func (d *Diagnostics) Inspect(ctx context.Context, id string) (Report, error) {
	r := Report{
		BookingID:   id,
		ValidFormat: ValidFormat(id),
		SimilarIDs:  []string{},
		CheckedAt:   d.now(),
	}

	bookings, err := d.mirror.List(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("list mirror: %w", err)
	}
	payments, err := d.ledger.List(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("list ledger: %w", err)
	}

	for i := range bookings {
		if bookings[i].Matches(id) {
			b := bookings[i]
			r.FoundInBookings = true
			r.MirrorRecord = &b
			break
		}
	}
	if p, ok := FindPayment(id, payments); ok {
		r.FoundInPayments = true
		r.Payment = p
	}
	r.SimilarIDs = FindSimilar(id, KnownIDs(bookings, payments))
	return r, nil
}

// ForceRepair synthesizes the booking for id from the ledger and writes it
// to the Mirror whatever the Primary service or the Mirror currently hold.
func (d *Diagnostics) ForceRepair(ctx context.Context, op model.Operator, id string) (*model.Booking, error) {
	b, err := d.forceRepair(ctx, id)
	d.audit(ctx, op, ActionRepair, id, err)
	return b, err
}

func (d *Diagnostics) forceRepair(ctx context.Context, id string) (*model.Booking, error) {
	payments, err := d.ledger.FindMatching(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("search ledger: %w", err)
	}
	p, ok := FindPayment(id, payments)
	if !ok {
		return nil, NotFoundError{Resource: "booking", ID: id}
	}
	b := d.writer.Pin(ctx, id, d.synth.Synthesize(id, *p))
	if err := d.writer.Repair(ctx, b, TriggerOperator); err != nil {
		return nil, err
	}
	return &b, nil
}

// Cancel runs the cancellation engine on behalf of an operator.
func (d *Diagnostics) Cancel(ctx context.Context, op model.Operator, id, reason string) (*CancellationResult, error) {
	res, err := d.engine.Cancel(ctx, id, reason)
	d.audit(ctx, op, ActionCancel, id, err)
	return res, err
}

// ClearMirror empties the Mirror.  It refuses unless confirm equals
// ClearConfirmation.
func (d *Diagnostics) ClearMirror(ctx context.Context, op model.Operator, confirm string) error {
	var err error
	if confirm != ClearConfirmation {
		err = ConfirmationError{Action: ActionClearMirror}
	} else {
		err = d.mirror.Clear(ctx)
	}
	d.audit(ctx, op, ActionClearMirror, "", err)
	return err
}

// Export returns both collections as one document stamped with the
// operator's session.
func (d *Diagnostics) Export(ctx context.Context, op model.Operator) (*ExportDocument, error) {
	doc, err := d.export(ctx, op)
	d.audit(ctx, op, ActionExport, "", err)
	return doc, err
}

func (d *Diagnostics) export(ctx context.Context, op model.Operator) (*ExportDocument, error) {
	bookings, err := d.mirror.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list mirror: %w", err)
	}
	payments, err := d.ledger.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ledger: %w", err)
	}
	if bookings == nil {
		bookings = []model.Booking{}
	}
	if payments == nil {
		payments = []model.Payment{}
	}
	return &ExportDocument{
		ExportID:   uuid.NewString(),
		ExportedAt: d.now(),
		Session:    op,
		Bookings:   bookings,
		Payments:   payments,
	}, nil
}

func (d *Diagnostics) audit(ctx context.Context, op model.Operator, action, id string, err error) {
	outcome := "ok"
	switch {
	case err == nil:
	case IsNotFound(err):
		outcome = "not_found"
	case IsInvalidTransition(err):
		outcome = "rejected"
	case IsConfirmationRequired(err):
		outcome = "unconfirmed"
	default:
		outcome = "error"
	}

	fields := []zap.Field{
		zap.String("action", action),
		zap.String("operator", op.ID),
		zap.String("role", op.Role),
		zap.String("request_id", op.RequestID),
		zap.String("outcome", outcome),
	}
	if id != "" {
		fields = append(fields, zap.String("booking_id", id))
	}
	if err != nil && outcome == "error" {
		fields = append(fields, zap.Error(err))
	}
	d.log.Info("operator action", fields...)

	ev := queue.OperatorActionEvent{
		EventID:    uuid.NewString(),
		Action:     action,
		BookingID:  id,
		OperatorID: op.ID,
		Role:       op.Role,
		RequestID:  op.RequestID,
		Outcome:    outcome,
		At:         d.now().UTC().Format(time.RFC3339),
	}
	if perr := d.pub.Publish(ctx, queue.QueueOperatorAction, ev); perr != nil && !errors.Is(perr, context.Canceled) {
		d.log.Warn("publish operator.action failed", zap.String("action", action), zap.Error(perr))
	}
}
