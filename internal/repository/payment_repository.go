package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/iliyamo/booking-resolver/internal/model"
)

// PaymentRepo reads the payments table of the MySQL ledger.  The table is
// created by the goose migrations in internal/database; rows are written
// by the upstream purchase flow, never by this service.  Rows are returned
// in insertion order (the seq column) which is the order the correlator
// relies on.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo returns a new PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

const paymentColumns = `id, booking_id, booking_snapshot, amount, currency, method, status, transaction_id, user_id, created_at`

// List returns every payment in the ledger.
func (r *PaymentRepo) List(ctx context.Context) ([]model.Payment, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+paymentColumns+` FROM payments ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return scanPayments(rows)
}

// FindMatching returns the payments that reference id through booking_id
// or through the bookingId / id of the embedded snapshot.
func (r *PaymentRepo) FindMatching(ctx context.Context, id string) ([]model.Payment, error) {
	const q = `SELECT ` + paymentColumns + `
               FROM payments
               WHERE booking_id = ?
                  OR JSON_UNQUOTE(JSON_EXTRACT(booking_snapshot, '$.bookingId')) = ?
                  OR JSON_UNQUOTE(JSON_EXTRACT(booking_snapshot, '$.id')) = ?
               ORDER BY seq`
	rows, err := r.db.QueryContext(ctx, q, id, id, id)
	if err != nil {
		return nil, fmt.Errorf("find payments for %s: %w", id, err)
	}
	return scanPayments(rows)
}

func scanPayments(rows *sql.Rows) ([]model.Payment, error) {
	defer rows.Close()
	out := []model.Payment{}
	for rows.Next() {
		var (
			p                                      model.Payment
			bookingID, snapshot                    sql.NullString
			currency, method, status, txID, userID sql.NullString
			createdAt                              sql.NullTime
		)
		if err := rows.Scan(&p.ID, &bookingID, &snapshot, &p.Amount, &currency, &method,
			&status, &txID, &userID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		p.BookingID = bookingID.String
		p.Currency = currency.String
		p.Method = method.String
		p.Status = status.String
		p.TransactionID = txID.String
		p.UserID = userID.String
		if createdAt.Valid {
			t := createdAt.Time
			p.CreatedAt = &t
		}
		if snapshot.Valid && snapshot.String != "" && snapshot.String != "null" {
			var snap model.BookingSnapshot
			if err := json.Unmarshal([]byte(snapshot.String), &snap); err != nil {
				return nil, fmt.Errorf("decode snapshot of payment %s: %w", p.ID, err)
			}
			p.Booking = &snap
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
