package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"spotrent/internal/db"
)

type PaymentRepository struct {
	DB *sql.DB
}

func NewPaymentRepository(database *sql.DB) *PaymentRepository {
	return &PaymentRepository{DB: database}
}

const paymentColumns = `id, booking_id, amount, currency, status, stripe_session_id, created_at, updated_at`

func scanPayment(row interface{ Scan(...any) error }) (*db.Payment, error) {
	var p db.Payment
	err := row.Scan(&p.ID, &p.BookingID, &p.Amount, &p.Currency, &p.Status, &p.StripeSessionID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error scanning payment: %w", err)
	}
	return &p, nil
}

// UpsertPayment creates the one-to-one payment row for a booking, or updates
// its amount/state if a charge was already requested.
func (r *PaymentRepository) UpsertPayment(ctx context.Context, p *db.Payment) error {
	query := `
		INSERT INTO payments (booking_id, amount, currency, status, stripe_session_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (booking_id) DO UPDATE
		SET amount = EXCLUDED.amount, status = EXCLUDED.status,
		    stripe_session_id = EXCLUDED.stripe_session_id, updated_at = NOW()
		RETURNING id, created_at, updated_at`
	return r.DB.QueryRowContext(ctx, query,
		p.BookingID, p.Amount, p.Currency, p.Status, p.StripeSessionID,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *PaymentRepository) GetPaymentByBookingID(ctx context.Context, bookingID int) (*db.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE booking_id = $1`
	return scanPayment(r.DB.QueryRowContext(ctx, query, bookingID))
}

func (r *PaymentRepository) GetPaymentByStripeSessionID(ctx context.Context, sessionID string) (*db.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE stripe_session_id = $1`
	return scanPayment(r.DB.QueryRowContext(ctx, query, sessionID))
}

func (r *PaymentRepository) UpdatePaymentStatus(ctx context.Context, id int, status string) error {
	query := `UPDATE payments SET status = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.DB.ExecContext(ctx, query, id, status); err != nil {
		return fmt.Errorf("error updating payment status: %w", err)
	}
	return nil
}
