package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AuditFile is the name of the audit log written under the consumer's
// directory.
const AuditFile = "booking.log"

// AuditConsumer drains the event queues into an append-only audit log,
// one line per event.
type AuditConsumer struct {
	url string
	dir string
	log *zap.Logger
}

func NewAuditConsumer(url, dir string, log *zap.Logger) *AuditConsumer {
	if dir == "" {
		dir = "logs"
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AuditConsumer{url: url, dir: dir, log: log}
}

// Run connects to the broker and consumes until ctx is cancelled.  Lost
// connections are re-established with exponential backoff capped at 30s.
func (c *AuditConsumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("audit-consumer: dial failed", zap.Duration("retry_in", backoff), zap.Error(err))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("audit-consumer: consume loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *AuditConsumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn("audit-consumer: set QoS failed", zap.Error(err))
	}

	merged := make(chan delivery)
	done := make(chan struct{})
	defer close(done)

	for _, q := range Queues {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("queue declare %s: %w", q, err)
		}
		msgs, err := ch.Consume(q, "", false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("queue consume %s: %w", q, err)
		}
		go func(q string, msgs <-chan amqp.Delivery) {
			for d := range msgs {
				select {
				case merged <- delivery{queue: q, d: d}:
				case <-done:
					return
				}
			}
		}(q, msgs)
	}

	connClosed := conn.NotifyClose(make(chan *amqp.Error, 1))
	chClosed := ch.NotifyClose(make(chan *amqp.Error, 1))
	return c.drain(ctx, merged, connClosed, chClosed)
}

type delivery struct {
	queue string
	d     amqp.Delivery
}

// drain handles deliveries until ctx ends or the connection or the
// channel closes.  Either close returns an error so Run reconnects.
func (c *AuditConsumer) drain(ctx context.Context, merged <-chan delivery, connClosed, chClosed <-chan *amqp.Error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case amqpErr := <-connClosed:
			return closedError("connection", amqpErr)
		case amqpErr := <-chClosed:
			return closedError("channel", amqpErr)
		case m := <-merged:
			if err := c.Handle(m.queue, m.d.Body); err != nil {
				c.log.Warn("audit-consumer: handle message failed", zap.String("queue", m.queue), zap.Error(err))
				_ = m.d.Nack(false, false) // do not requeue; a bad payload would loop forever
				continue
			}
			_ = m.d.Ack(false)
		}
	}
}

func closedError(what string, amqpErr *amqp.Error) error {
	if amqpErr != nil {
		return fmt.Errorf("%s closed: %w", what, amqpErr)
	}
	return errors.New(what + " closed")
}

// Handle formats one message body from queue and appends it to the audit
// log.
func (c *AuditConsumer) Handle(queue string, body []byte) error {
	line, err := FormatAuditLine(queue, body)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", c.dir, err)
	}
	f, err := os.OpenFile(filepath.Join(c.dir, AuditFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

// FormatAuditLine renders an event as a single newline-terminated line.
func FormatAuditLine(queue string, body []byte) (string, error) {
	switch queue {
	case QueueBookingRepaired:
		var ev BookingRepairedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		return fmt.Sprintf("[%s] Booking repaired | booking_id=%s | payment_id=%s | total=%.2f %s | trigger=%s\n",
			ev.RepairedAt, ev.BookingID, ev.PaymentID, ev.TotalAmount, ev.Currency, ev.Trigger), nil
	case QueueBookingCancelled:
		var ev BookingCancelledEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		return fmt.Sprintf("[%s] Booking cancelled | booking_id=%s | path=%s | refund=%.2f | refund_status=%s | reason=%q\n",
			ev.CancelledAt, ev.BookingID, ev.Path, ev.RefundAmount, ev.RefundStatus, ev.Reason), nil
	case QueueOperatorAction:
		var ev OperatorActionEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		return fmt.Sprintf("[%s] Operator action | action=%s | booking_id=%s | operator=%s | role=%s | outcome=%s | request_id=%s\n",
			ev.At, ev.Action, ev.BookingID, ev.OperatorID, ev.Role, ev.Outcome, ev.RequestID), nil
	}
	return "", fmt.Errorf("unknown queue %q", queue)
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
