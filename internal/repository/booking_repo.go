package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"gopkg.in/guregu/null.v4"

	"spotrent/internal/db"
)

// Conflict sentinels the service layer maps to business-rule errors. Either
// can surface from a losing racer: the DB-level constraints are the
// authority, the in-transaction checks just produce them earlier.
var (
	ErrNotFound        = errors.New("not found")
	ErrOverlapConflict = errors.New("requested window overlaps an existing reservation")
	ErrSpotOccupied    = errors.New("spot already has a started session")
)

type BookingRepository struct {
	DB *sql.DB
}

func NewBookingRepository(database *sql.DB) *BookingRepository {
	return &BookingRepository{DB: database}
}

const bookingColumns = `id, code, spot_id, renter_id, mode, status, start_time, end_time, access_token,
	vehicle_plate, actual_start_time, actual_end_time, start_lat, start_lng, stop_lat, stop_lng,
	duration_minutes, duration_seconds, total_price, cancelled_at, created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (*db.Booking, error) {
	var b db.Booking
	err := row.Scan(
		&b.ID, &b.Code, &b.SpotID, &b.RenterID, &b.Mode, &b.Status, &b.StartTime, &b.EndTime, &b.AccessToken,
		&b.VehiclePlate, &b.ActualStartTime, &b.ActualEndTime, &b.StartLat, &b.StartLng, &b.StopLat, &b.StopLng,
		&b.DurationMinutes, &b.DurationSeconds, &b.TotalPrice, &b.CancelledAt, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error scanning booking: %w", err)
	}
	return &b, nil
}

// CountAdvanceConflicts counts live advance bookings on the spot whose
// [start, end] window touches the requested one. Bounds are inclusive on
// both ends: a reservation ending exactly when another begins conflicts.
func (r *BookingRepository) CountAdvanceConflicts(ctx context.Context, spotID int, start, end time.Time) (int, error) {
	return countAdvanceConflicts(ctx, r.DB, spotID, start, end)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func countAdvanceConflicts(ctx context.Context, q queryRower, spotID int, start, end time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM bookings
		WHERE spot_id = $1
		  AND mode = 'advance'
		  AND status IN ('pending', 'confirmed', 'active')
		  AND start_time <= $3
		  AND end_time >= $2`
	var n int
	if err := q.QueryRowContext(ctx, query, spotID, start, end).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting conflicting reservations: %w", err)
	}
	return n, nil
}

// CreateAdvanceBooking re-checks availability and inserts the booking inside
// a serializable transaction, so only one of two racing requests succeeds.
// The loser gets ErrOverlapConflict, whether it loses to the in-transaction
// check, the exclusion constraint, or a serialization failure.
func (r *BookingRepository) CreateAdvanceBooking(ctx context.Context, res *db.Booking) error {
	tx, err := r.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}
	defer tx.Rollback()

	n, err := countAdvanceConflicts(ctx, tx, res.SpotID, res.StartTime.Time, res.EndTime.Time)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrOverlapConflict
	}

	query := `
		INSERT INTO bookings
		(code, spot_id, renter_id, mode, status, start_time, end_time, access_token, total_price, created_at, updated_at)
		VALUES ($1, $2, $3, 'advance', $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`
	err = tx.QueryRowContext(ctx, query,
		res.Code, res.SpotID, res.RenterID, res.Status, res.StartTime, res.EndTime,
		res.AccessToken, res.TotalPrice, res.CreatedAt, res.UpdatedAt,
	).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return translateConflict(err)
	}

	if err := tx.Commit(); err != nil {
		return translateConflict(err)
	}
	return nil
}

// StartSession inserts a started on-demand booking. Exclusivity is enforced
// by the partial unique index on (spot_id) WHERE status = 'started'; a
// racing second start maps to ErrSpotOccupied.
func (r *BookingRepository) StartSession(ctx context.Context, res *db.Booking) error {
	query := `
		INSERT INTO bookings
		(code, spot_id, renter_id, mode, status, vehicle_plate, actual_start_time, start_lat, start_lng, created_at, updated_at)
		VALUES ($1, $2, $3, 'on_demand', 'started', $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`
	err := r.DB.QueryRowContext(ctx, query,
		res.Code, res.SpotID, res.RenterID, res.VehiclePlate, res.ActualStartTime,
		res.StartLat, res.StartLng, res.CreatedAt, res.UpdatedAt,
	).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return translateConflict(err)
	}
	return nil
}

// StopSession records the stop-time fields and completes the booking.
func (r *BookingRepository) StopSession(ctx context.Context, b *db.Booking) error {
	query := `
		UPDATE bookings
		SET status = 'completed', actual_end_time = $2, stop_lat = $3, stop_lng = $4,
		    duration_minutes = $5, duration_seconds = $6, total_price = $7, updated_at = NOW()
		WHERE id = $1 AND status = 'started'
		RETURNING updated_at`
	err := r.DB.QueryRowContext(ctx, query,
		b.ID, b.ActualEndTime, b.StopLat, b.StopLng,
		b.DurationMinutes, b.DurationSeconds, b.TotalPrice,
	).Scan(&b.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("error stopping session: %w", err)
	}
	return nil
}

// HasStartedSession reports whether the spot currently holds a started
// on-demand booking. Advisory only; StartSession is the authority.
func (r *BookingRepository) HasStartedSession(ctx context.Context, spotID int) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE spot_id = $1 AND status = 'started'`, spotID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("error checking started sessions: %w", err)
	}
	return n > 0, nil
}

func (r *BookingRepository) GetBookingByCode(ctx context.Context, code string) (*db.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE code = $1`
	return scanBooking(r.DB.QueryRowContext(ctx, query, code))
}

func (r *BookingRepository) GetBookingByID(ctx context.Context, id int) (*db.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	return scanBooking(r.DB.QueryRowContext(ctx, query, id))
}

func (r *BookingRepository) ListBookingsForRenter(ctx context.Context, renterID int) ([]db.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE renter_id = $1 ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, renterID)
	if err != nil {
		return nil, fmt.Errorf("error listing bookings: %w", err)
	}
	defer rows.Close()

	var out []db.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (r *BookingRepository) ListBookingsForSpot(ctx context.Context, spotID int) ([]db.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE spot_id = $1 ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, spotID)
	if err != nil {
		return nil, fmt.Errorf("error listing spot bookings: %w", err)
	}
	defer rows.Close()

	var out []db.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

// CancelBooking flips the booking to cancelled and records when.
func (r *BookingRepository) CancelBooking(ctx context.Context, id int, cancelledAt time.Time) error {
	query := `UPDATE bookings SET status = 'cancelled', cancelled_at = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.DB.ExecContext(ctx, query, id, null.TimeFrom(cancelledAt)); err != nil {
		return fmt.Errorf("error cancelling booking: %w", err)
	}
	return nil
}

func (r *BookingRepository) UpdateBookingStatus(ctx context.Context, id int, status string) error {
	query := `UPDATE bookings SET status = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.DB.ExecContext(ctx, query, id, status); err != nil {
		return fmt.Errorf("error updating booking status: %w", err)
	}
	return nil
}

// translateConflict maps Postgres constraint and isolation failures onto the
// package conflict sentinels.
func translateConflict(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			// Bookings also carry a unique code; only the partial index
			// guarding session exclusivity means the spot is taken.
			if pqErr.Constraint == "one_started_session_per_spot" {
				return ErrSpotOccupied
			}
		case "23P01": // exclusion_violation: overlapping advance windows
			return ErrOverlapConflict
		case "40001": // serialization_failure: lost the race
			return ErrOverlapConflict
		}
	}
	return fmt.Errorf("error writing booking: %w", err)
}
