package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gopkg.in/guregu/null.v4"

	"spotrent/internal/db"
	"spotrent/internal/entities"
	apperrors "spotrent/internal/errors"
	"spotrent/internal/geo"
	"spotrent/internal/pricing"
	"spotrent/internal/repository"
)

// SessionService manages on-demand metered sessions: prepare, start, stop.
type SessionService struct {
	bookings BookingStore
	spots    SpotStore
	users    UserStore
	payments ChargeCoordinator
	now      func() time.Time
}

func NewSessionService(bookings BookingStore, spots SpotStore, users UserStore, payments ChargeCoordinator) *SessionService {
	return &SessionService{
		bookings: bookings,
		spots:    spots,
		users:    users,
		payments: payments,
		now:      time.Now,
	}
}

// Prepare is read-only and advisory: it reports whether a session could
// start right now and whether the caller passes GPS verification. Nothing is
// committed; Start re-validates atomically.
func (s *SessionService) Prepare(ctx context.Context, req entities.SessionRequest) (*entities.PrepareSessionResponse, error) {
	spot, err := s.spots.GetSpotByID(ctx, req.SpotID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("parking spot not found")
		}
		return nil, err
	}

	resp := &entities.PrepareSessionResponse{CanStart: true, GPSVerified: true}

	if !spot.Active || !spot.AllowOnDemand {
		resp.CanStart = false
		resp.Reason = apperrors.ReasonSpotUnavailable
	} else {
		occupied, err := s.bookings.HasStartedSession(ctx, spot.ID)
		if err != nil {
			return nil, err
		}
		if occupied {
			resp.CanStart = false
			resp.Reason = apperrors.ReasonSpotOccupied
		}
	}

	if req.RequireGPSVerification {
		resp.GPSVerified = geo.WithinMeters(req.Latitude, req.Longitude, spot.CentroidLat, spot.CentroidLng, spot.GPSToleranceM)
		if !resp.GPSVerified && resp.CanStart {
			resp.CanStart = false
			resp.Reason = apperrors.ReasonGPSVerification
		}
	}
	return resp, nil
}

// Start re-validates the prepare conditions and creates the started booking.
// Exclusivity (one started session per spot) is enforced by the store, so a
// racing second start loses with a conflict rather than corrupting state.
func (s *SessionService) Start(ctx context.Context, renterID int, req entities.SessionRequest) (*entities.StartSessionResponse, error) {
	if req.VehiclePlate == "" {
		return nil, apperrors.Validation("vehicle_plate is required")
	}

	spot, err := s.spots.GetSpotByID(ctx, req.SpotID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("parking spot not found")
		}
		return nil, err
	}
	if !spot.Active || !spot.AllowOnDemand {
		return nil, apperrors.BusinessRule(apperrors.ReasonSpotUnavailable, "spot does not accept on-demand sessions")
	}
	if req.RequireGPSVerification &&
		!geo.WithinMeters(req.Latitude, req.Longitude, spot.CentroidLat, spot.CentroidLng, spot.GPSToleranceM) {
		return nil, apperrors.BusinessRule(apperrors.ReasonGPSVerification, "reported location is outside the spot's GPS tolerance")
	}

	now := s.now().UTC()
	booking := &db.Booking{
		Code:            uuid.NewString(),
		SpotID:          spot.ID,
		RenterID:        renterID,
		Mode:            db.ModeOnDemand,
		Status:          db.StatusStarted,
		VehiclePlate:    null.StringFrom(req.VehiclePlate),
		ActualStartTime: null.TimeFrom(now),
		StartLat:        null.FloatFrom(req.Latitude),
		StartLng:        null.FloatFrom(req.Longitude),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.bookings.StartSession(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrSpotOccupied) {
			return nil, apperrors.BusinessRule(apperrors.ReasonSpotOccupied, "spot is already held by a running session")
		}
		return nil, err
	}

	rate := pricing.PerMinuteRate(spot.HourlyRate, spot.PerMinuteRate)
	return &entities.StartSessionResponse{
		Code:            booking.Code,
		SpotID:          spot.ID,
		Status:          booking.Status,
		ActualStartTime: now,
		EstimatedPrice:  pricing.EstimateRunning(rate, now, s.now().UTC()),
		PerMinuteRate:   rate,
	}, nil
}

// Stop ends a running session owned by the caller: records the stop time and
// GPS fix, computes the elapsed split and final price, completes the booking
// and records a pending payment. Payment capture is asynchronous; stopping
// does not itself guarantee the charge has been collected.
func (s *SessionService) Stop(ctx context.Context, renterID int, code string, lat, lng float64) (*entities.StopSessionResponse, error) {
	booking, err := s.bookings.GetBookingByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("booking not found")
		}
		return nil, err
	}
	if booking.RenterID != renterID {
		return nil, apperrors.Forbidden("only the renter may stop this session")
	}
	if booking.Status != db.StatusStarted {
		return nil, apperrors.BusinessRule(apperrors.ReasonBookingTerminal, "session is not running")
	}

	spot, err := s.spots.GetSpotByID(ctx, booking.SpotID)
	if err != nil {
		return nil, err
	}

	end := s.now().UTC()
	start := booking.ActualStartTime.Time
	minutes, seconds := pricing.SplitElapsed(start, end)
	rate := pricing.PerMinuteRate(spot.HourlyRate, spot.PerMinuteRate)
	total := pricing.SessionTotal(rate, start, end)

	booking.ActualEndTime = null.TimeFrom(end)
	booking.StopLat = null.FloatFrom(lat)
	booking.StopLng = null.FloatFrom(lng)
	booking.DurationMinutes = null.IntFrom(int64(minutes))
	booking.DurationSeconds = null.IntFrom(int64(seconds))
	booking.TotalPrice = null.FloatFrom(total)

	if err := s.bookings.StopSession(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.BusinessRule(apperrors.ReasonBookingTerminal, "session is not running")
		}
		return nil, err
	}
	booking.Status = db.StatusCompleted

	// Charge request is best-effort after the stop has committed; capture is
	// the payment coordinator's job.
	if renter, err := s.users.GetUserByID(ctx, renterID); err == nil {
		if _, err := s.payments.RequestCharge(ctx, booking, total, renter.Email); err != nil {
			log.Printf("charge creation failed for session %s: %v", booking.Code, err)
		}
	} else {
		log.Printf("could not load renter %d for session charge: %v", renterID, err)
	}

	return &entities.StopSessionResponse{
		Code:            booking.Code,
		DurationMinutes: minutes,
		DurationSeconds: seconds,
		TotalPrice:      total,
		ActualEndTime:   end,
	}, nil
}
