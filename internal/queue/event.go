// Package queue defines message payloads exchanged over the message broker
// together with the publisher and the audit consumer.
package queue

// Queue names.  Each event type has its own durable queue on the default
// exchange.
const (
	QueueBookingRepaired  = "booking.repaired"
	QueueBookingCancelled = "booking.cancelled"
	QueueOperatorAction   = "operator.action"
)

// Queues lists every queue the audit consumer listens to.
var Queues = []string{QueueBookingRepaired, QueueBookingCancelled, QueueOperatorAction}

// BookingRepairedEvent is published after a synthesized record has been
// written back to the Mirror.
type BookingRepairedEvent struct {
	BookingID   string  `json:"booking_id"`
	PaymentID   string  `json:"payment_id"`
	TotalAmount float64 `json:"total_amount"`
	Currency    string  `json:"currency"`
	Trigger     string  `json:"trigger"` // "resolve" or "operator"
	RepairedAt  string  `json:"repaired_at"`
}

// BookingCancelledEvent is published once a cancellation has been
// accepted, remotely or locally.
type BookingCancelledEvent struct {
	BookingID    string  `json:"booking_id"`
	Reason       string  `json:"reason"`
	RefundAmount float64 `json:"refund_amount"`
	RefundStatus string  `json:"refund_status"`
	Path         string  `json:"path"` // "remote" or "local"
	CancelledAt  string  `json:"cancelled_at"`
}

// OperatorActionEvent records a diagnostic action taken by an operator.
type OperatorActionEvent struct {
	EventID    string `json:"event_id"`
	Action     string `json:"action"`
	BookingID  string `json:"booking_id,omitempty"`
	OperatorID string `json:"operator_id"`
	Role       string `json:"role"`
	RequestID  string `json:"request_id,omitempty"`
	Outcome    string `json:"outcome"`
	At         string `json:"at"`
}
