package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"spotrent/internal/db"
	"spotrent/internal/repository"
)

type JobService struct {
	Repo *repository.JobRepository
}

func NewJobService(repo *repository.JobRepository) *JobService {
	return &JobService{Repo: repo}
}

// ActivateStartedBookings flips confirmed advance bookings whose window has
// begun to active.
func (s *JobService) ActivateStartedBookings(ctx context.Context) error {
	ids, err := s.Repo.GetConfirmedBookingIDsPastStartTime(ctx)
	if err != nil {
		return fmt.Errorf("cron job: failed to get confirmed bookings past start time: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}
	log.Printf("Cron Job: Found %d bookings to mark as 'active'. IDs: %v", len(ids), ids)
	return s.Repo.UpdateBookingStatuses(ctx, ids, db.StatusActive)
}

// CompleteFinishedBookings flips active advance bookings whose window has
// ended to completed.
func (s *JobService) CompleteFinishedBookings(ctx context.Context) error {
	ids, err := s.Repo.GetActiveBookingIDsPastEndTime(ctx)
	if err != nil {
		return fmt.Errorf("cron job: failed to get active bookings past end time: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}
	log.Printf("Cron Job: Found %d bookings to mark as 'completed'. IDs: %v", len(ids), ids)
	return s.Repo.UpdateBookingStatuses(ctx, ids, db.StatusCompleted)
}

// CancelStalePendingBookings cancels unpaid pending bookings older than the
// given age.
func (s *JobService) CancelStalePendingBookings(ctx context.Context, maxAge time.Duration) error {
	n, err := s.Repo.CancelStalePendingBookings(ctx, time.Now().UTC().Add(-maxAge))
	if err != nil {
		return fmt.Errorf("cron job: failed to cancel stale pending bookings: %w", err)
	}
	if n > 0 {
		log.Printf("Cron Job: Cancelled %d stale pending bookings", n)
	}
	return nil
}
