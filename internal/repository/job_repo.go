package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/lib/pq"
)

type JobRepository struct {
	DB *sql.DB
}

func NewJobRepository(database *sql.DB) *JobRepository {
	return &JobRepository{DB: database}
}

// GetConfirmedBookingIDsPastStartTime finds confirmed advance bookings whose
// window has begun, due to flip to active.
func (r *JobRepository) GetConfirmedBookingIDsPastStartTime(ctx context.Context) ([]int, error) {
	query := `SELECT id FROM bookings WHERE mode = 'advance' AND status = 'confirmed' AND start_time <= NOW()`
	return r.queryIDs(ctx, query)
}

// GetActiveBookingIDsPastEndTime finds active advance bookings whose window
// has ended, due to flip to completed.
func (r *JobRepository) GetActiveBookingIDsPastEndTime(ctx context.Context) ([]int, error) {
	query := `SELECT id FROM bookings WHERE mode = 'advance' AND status = 'active' AND end_time < NOW()`
	return r.queryIDs(ctx, query)
}

func (r *JobRepository) queryIDs(ctx context.Context, query string) ([]int, error) {
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying booking ids: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning booking id: %w", err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error after iterating rows: %w", err)
	}
	return ids, nil
}

// UpdateBookingStatuses flips a batch of bookings to newStatus.
func (r *JobRepository) UpdateBookingStatuses(ctx context.Context, ids []int, newStatus string) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE bookings SET status = $1, updated_at = NOW() WHERE id = ANY($2)`
	result, err := r.DB.ExecContext(ctx, query, newStatus, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("error updating booking statuses: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Printf("Could not get rows affected: %v", err)
	} else {
		log.Printf("Updated status for %d bookings to '%s'", rowsAffected, newStatus)
	}
	return nil
}

// CancelStalePendingBookings cancels unpaid pending bookings created before
// the cutoff. Bookings are history and are never deleted.
func (r *JobRepository) CancelStalePendingBookings(ctx context.Context, before time.Time) (int64, error) {
	query := `
		UPDATE bookings SET status = 'cancelled', cancelled_at = NOW(), updated_at = NOW()
		WHERE status = 'pending' AND created_at < $1`
	result, err := r.DB.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("error cancelling stale pending bookings: %w", err)
	}
	return result.RowsAffected()
}
