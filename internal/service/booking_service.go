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
	"spotrent/internal/pricing"
	"spotrent/internal/repository"
)

// ChargeCoordinator is the slice of PaymentService the booking lifecycle
// needs.
type ChargeCoordinator interface {
	RequestCharge(ctx context.Context, booking *db.Booking, amount float64, customerEmail string) (string, error)
	RefundBooking(ctx context.Context, booking *db.Booking) bool
}

type UserStore interface {
	GetUserByID(ctx context.Context, id int) (*db.User, error)
}

// cancelWindow: a booking is cancellable only strictly more than this long
// before its start time.
const cancelWindow = 30 * time.Minute

// BookingService owns the advance-booking side of the lifecycle state
// machine: creation, availability conflicts, confirmation and cancellation.
type BookingService struct {
	bookings BookingStore
	spots    SpotStore
	users    UserStore
	payments ChargeCoordinator
	notifier Notifier
	now      func() time.Time
}

func NewBookingService(bookings BookingStore, spots SpotStore, users UserStore, payments ChargeCoordinator, notifier Notifier) *BookingService {
	return &BookingService{
		bookings: bookings,
		spots:    spots,
		users:    users,
		payments: payments,
		notifier: notifier,
		now:      time.Now,
	}
}

// CheckAvailability reports whether the requested window is free of live
// advance bookings on the spot. Started on-demand sessions deliberately do
// not count: the two modes are independent resource pools.
func (s *BookingService) CheckAvailability(ctx context.Context, spotID int, start, end time.Time) (bool, error) {
	if !end.After(start) {
		return false, apperrors.BusinessRule(apperrors.ReasonInvalidTimeWindow, "end_time must be after start_time")
	}
	n, err := s.bookings.CountAdvanceConflicts(ctx, spotID, start, end)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// CreateAdvanceBooking validates the request, prices the window, and creates
// the booking atomically with the availability check. The returned response
// carries the checkout URL for payment.
func (s *BookingService) CreateAdvanceBooking(ctx context.Context, renterID int, req entities.CreateBookingRequest) (*entities.BookingResponse, error) {
	if !req.TermsAccepted {
		return nil, apperrors.BusinessRule(apperrors.ReasonTermsNotAccepted, "terms of service must be accepted")
	}
	now := s.now().UTC()
	if !req.StartTime.After(now) {
		return nil, apperrors.BusinessRule(apperrors.ReasonInvalidTimeWindow, "start_time must be in the future")
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, apperrors.BusinessRule(apperrors.ReasonInvalidTimeWindow, "end_time must be after start_time")
	}

	spot, err := s.spots.GetSpotByID(ctx, req.SpotID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("parking spot not found")
		}
		return nil, err
	}
	if !spot.Active || !spot.AllowAdvance {
		return nil, apperrors.BusinessRule(apperrors.ReasonSpotUnavailable, "spot does not accept advance reservations")
	}

	total := pricing.AdvanceTotal(spot.HourlyRate, req.StartTime, req.EndTime)

	booking := &db.Booking{
		Code:       uuid.NewString(),
		SpotID:     spot.ID,
		RenterID:   renterID,
		Mode:       db.ModeAdvance,
		Status:     db.StatusPending,
		StartTime:  null.TimeFrom(req.StartTime.UTC()),
		EndTime:    null.TimeFrom(req.EndTime.UTC()),
		TotalPrice: null.FloatFrom(total),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if spot.Kind == db.KindIndoor {
		booking.AccessToken = null.StringFrom(uuid.NewString())
	}

	if err := s.bookings.CreateAdvanceBooking(ctx, booking); err != nil {
		if errors.Is(err, repository.ErrOverlapConflict) {
			return nil, apperrors.BusinessRule(apperrors.ReasonOverlappingBooking, "requested window overlaps an existing reservation")
		}
		return nil, err
	}

	renter, err := s.users.GetUserByID(ctx, renterID)
	if err != nil {
		return nil, err
	}

	checkoutURL, err := s.payments.RequestCharge(ctx, booking, total, renter.Email)
	if err != nil {
		// The booking stays pending; the stale-pending sweep cancels it if
		// payment is never retried.
		log.Printf("charge creation failed for booking %s: %v", booking.Code, err)
		return nil, apperrors.NewHTTPError(502, "payment gateway unavailable")
	}

	s.notifier.NotifyBooking(booking, renter, db.StatusPending)

	resp := toBookingResponse(booking)
	resp.PaymentURL = checkoutURL
	return resp, nil
}

// GetBooking returns a booking visible to the caller: the renter owns it,
// the spot owner may only read it.
func (s *BookingService) GetBooking(ctx context.Context, userID int, code string) (*entities.BookingResponse, error) {
	booking, err := s.bookings.GetBookingByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("booking not found")
		}
		return nil, err
	}
	if booking.RenterID != userID {
		spot, err := s.spots.GetSpotByID(ctx, booking.SpotID)
		if err != nil || spot.OwnerID != userID {
			return nil, apperrors.Forbidden("not allowed to view this booking")
		}
	}
	return toBookingResponse(booking), nil
}

func (s *BookingService) ListMyBookings(ctx context.Context, renterID int) ([]entities.BookingResponse, error) {
	bookings, err := s.bookings.ListBookingsForRenter(ctx, renterID)
	if err != nil {
		return nil, err
	}
	out := make([]entities.BookingResponse, 0, len(bookings))
	for i := range bookings {
		out = append(out, *toBookingResponse(&bookings[i]))
	}
	return out, nil
}

// ListSpotBookings returns every booking on a spot, for its owner.
func (s *BookingService) ListSpotBookings(ctx context.Context, ownerID, spotID int) ([]entities.BookingResponse, error) {
	spot, err := s.spots.GetSpotByID(ctx, spotID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("parking spot not found")
		}
		return nil, err
	}
	if spot.OwnerID != ownerID {
		return nil, apperrors.Forbidden("only the owner may list a spot's bookings")
	}
	bookings, err := s.bookings.ListBookingsForSpot(ctx, spotID)
	if err != nil {
		return nil, err
	}
	out := make([]entities.BookingResponse, 0, len(bookings))
	for i := range bookings {
		out = append(out, *toBookingResponse(&bookings[i]))
	}
	return out, nil
}

// CancelBooking cancels a live advance booking. Permitted only to the renter,
// only while status is pending/confirmed/active, and only strictly more than
// 30 minutes before start. A completed payment is refunded best-effort; the
// cancellation itself never fails on a refund error.
func (s *BookingService) CancelBooking(ctx context.Context, renterID int, code string) (*entities.CancelBookingResponse, error) {
	booking, err := s.bookings.GetBookingByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("booking not found")
		}
		return nil, err
	}
	if booking.RenterID != renterID {
		return nil, apperrors.Forbidden("only the renter may cancel a booking")
	}
	if booking.Terminal() {
		return nil, apperrors.BusinessRule(apperrors.ReasonBookingTerminal, "booking is already completed or cancelled")
	}
	if !booking.Cancellable() {
		return nil, apperrors.BusinessRule(apperrors.ReasonNotCancellable,
			"on-demand sessions cannot be cancelled; stop the session instead")
	}
	if !booking.StartTime.Valid || booking.StartTime.Time.Sub(s.now()) <= cancelWindow {
		return nil, apperrors.BusinessRule(apperrors.ReasonCancelWindowPassed,
			"bookings can only be cancelled more than 30 minutes before the start time")
	}

	refunded := s.payments.RefundBooking(ctx, booking)

	cancelledAt := s.now().UTC()
	if err := s.bookings.CancelBooking(ctx, booking.ID, cancelledAt); err != nil {
		return nil, err
	}
	booking.Status = db.StatusCancelled
	booking.CancelledAt = null.TimeFrom(cancelledAt)

	if renter, err := s.users.GetUserByID(ctx, renterID); err == nil {
		s.notifier.NotifyBooking(booking, renter, db.StatusCancelled)
	} else {
		log.Printf("could not load renter %d for cancellation notice: %v", renterID, err)
	}

	return &entities.CancelBookingResponse{Refunded: refunded}, nil
}

// ConfirmFromCheckout flips a pending advance booking to confirmed once its
// checkout session completed. Called from the Stripe webhook; checkouts for
// already-completed on-demand sessions leave the booking untouched.
func (s *BookingService) ConfirmFromCheckout(ctx context.Context, bookingID int) error {
	booking, err := s.bookings.GetBookingByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.Mode != db.ModeAdvance || booking.Status != db.StatusPending {
		return nil
	}
	return s.bookings.UpdateBookingStatus(ctx, bookingID, db.StatusConfirmed)
}

func toBookingResponse(b *db.Booking) *entities.BookingResponse {
	resp := &entities.BookingResponse{
		Code:      b.Code,
		SpotID:    b.SpotID,
		Mode:      b.Mode,
		Status:    b.Status,
		CreatedAt: b.CreatedAt,
	}
	if b.StartTime.Valid {
		t := b.StartTime.Time
		resp.StartTime = &t
	}
	if b.EndTime.Valid {
		t := b.EndTime.Time
		resp.EndTime = &t
	}
	if b.TotalPrice.Valid {
		v := b.TotalPrice.Float64
		resp.TotalPrice = &v
	}
	if b.AccessToken.Valid {
		resp.AccessToken = b.AccessToken.String
	}
	return resp
}
