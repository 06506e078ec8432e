package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"spotrent/internal/db"
	"spotrent/internal/geo"
)

type SpotRepository struct {
	DB *sql.DB
}

func NewSpotRepository(database *sql.DB) *SpotRepository {
	return &SpotRepository{DB: database}
}

const spotColumns = `id, owner_id, name, kind, boundary, bounds_north, bounds_south, bounds_east, bounds_west,
	centroid_lat, centroid_lng, hourly_rate, per_minute_rate, allow_advance, allow_on_demand, active,
	gps_tolerance_m, created_at, updated_at`

func scanSpot(row interface{ Scan(...any) error }) (*db.ParkingSpot, error) {
	var s db.ParkingSpot
	var boundary []byte
	err := row.Scan(
		&s.ID, &s.OwnerID, &s.Name, &s.Kind, &boundary, &s.BoundsNorth, &s.BoundsSouth, &s.BoundsEast, &s.BoundsWest,
		&s.CentroidLat, &s.CentroidLng, &s.HourlyRate, &s.PerMinuteRate, &s.AllowAdvance, &s.AllowOnDemand, &s.Active,
		&s.GPSToleranceM, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error scanning spot: %w", err)
	}
	if err := json.Unmarshal(boundary, &s.Boundary); err != nil {
		return nil, fmt.Errorf("error decoding spot %d boundary: %w", s.ID, err)
	}
	return &s, nil
}

func (r *SpotRepository) CreateSpot(ctx context.Context, s *db.ParkingSpot) error {
	boundary, err := json.Marshal(s.Boundary)
	if err != nil {
		return fmt.Errorf("error encoding boundary: %w", err)
	}
	query := `
		INSERT INTO parking_spots
		(owner_id, name, kind, boundary, bounds_north, bounds_south, bounds_east, bounds_west,
		 centroid_lat, centroid_lng, hourly_rate, per_minute_rate, allow_advance, allow_on_demand, active, gps_tolerance_m)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at, updated_at`
	return r.DB.QueryRowContext(ctx, query,
		s.OwnerID, s.Name, s.Kind, boundary, s.BoundsNorth, s.BoundsSouth, s.BoundsEast, s.BoundsWest,
		s.CentroidLat, s.CentroidLng, s.HourlyRate, s.PerMinuteRate, s.AllowAdvance, s.AllowOnDemand,
		s.Active, s.GPSToleranceM,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

func (r *SpotRepository) GetSpotByID(ctx context.Context, id int) (*db.ParkingSpot, error) {
	query := `SELECT ` + spotColumns + ` FROM parking_spots WHERE id = $1`
	return scanSpot(r.DB.QueryRowContext(ctx, query, id))
}

func (r *SpotRepository) UpdateSpot(ctx context.Context, s *db.ParkingSpot) error {
	boundary, err := json.Marshal(s.Boundary)
	if err != nil {
		return fmt.Errorf("error encoding boundary: %w", err)
	}
	query := `
		UPDATE parking_spots
		SET name = $2, boundary = $3, bounds_north = $4, bounds_south = $5, bounds_east = $6, bounds_west = $7,
		    centroid_lat = $8, centroid_lng = $9, hourly_rate = $10, per_minute_rate = $11,
		    allow_advance = $12, allow_on_demand = $13, active = $14, gps_tolerance_m = $15, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	err = r.DB.QueryRowContext(ctx, query,
		s.ID, s.Name, boundary, s.BoundsNorth, s.BoundsSouth, s.BoundsEast, s.BoundsWest,
		s.CentroidLat, s.CentroidLng, s.HourlyRate, s.PerMinuteRate,
		s.AllowAdvance, s.AllowOnDemand, s.Active, s.GPSToleranceM,
	).Scan(&s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("error updating spot: %w", err)
	}
	return nil
}

func (r *SpotRepository) DeleteSpot(ctx context.Context, id int) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM parking_spots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting spot: %w", err)
	}
	n, err := result.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// HasLiveBookings reports whether the spot has any booking in a live status,
// which blocks deletion.
func (r *SpotRepository) HasLiveBookings(ctx context.Context, spotID int) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings
		 WHERE spot_id = $1 AND status IN ('pending', 'confirmed', 'active', 'started')`, spotID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("error checking live bookings: %w", err)
	}
	return n > 0, nil
}

// ListActiveBoundaries returns the boundary quads of all active spots except
// excludeID (0 to exclude none). Used for overlap validation at creation.
func (r *SpotRepository) ListActiveBoundaries(ctx context.Context, excludeID int) ([]geo.Quad, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT boundary FROM parking_spots WHERE active = TRUE AND id <> $1`, excludeID)
	if err != nil {
		return nil, fmt.Errorf("error listing active boundaries: %w", err)
	}
	defer rows.Close()

	var quads []geo.Quad
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("error scanning boundary: %w", err)
		}
		var q geo.Quad
		if err := json.Unmarshal(raw, &q); err != nil {
			return nil, fmt.Errorf("error decoding boundary: %w", err)
		}
		quads = append(quads, q)
	}
	return quads, rows.Err()
}

// ListActiveSpots returns all active spots. availableOnly additionally
// excludes spots currently held by a started on-demand session.
func (r *SpotRepository) ListActiveSpots(ctx context.Context, availableOnly bool) ([]db.ParkingSpot, error) {
	query := `SELECT ` + spotColumns + ` FROM parking_spots WHERE active = TRUE`
	if availableOnly {
		query += ` AND id NOT IN (SELECT spot_id FROM bookings WHERE status = 'started')`
	}
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing spots: %w", err)
	}
	defer rows.Close()

	var spots []db.ParkingSpot
	for rows.Next() {
		s, err := scanSpot(rows)
		if err != nil {
			return nil, err
		}
		spots = append(spots, *s)
	}
	return spots, rows.Err()
}
