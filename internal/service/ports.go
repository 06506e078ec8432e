package service

import (
	"context"
	"time"

	"spotrent/internal/db"
	"spotrent/internal/geo"
)

// Store interfaces implemented by internal/repository. Declared here so the
// services can be exercised against in-memory fakes in tests.

type SpotStore interface {
	CreateSpot(ctx context.Context, s *db.ParkingSpot) error
	GetSpotByID(ctx context.Context, id int) (*db.ParkingSpot, error)
	UpdateSpot(ctx context.Context, s *db.ParkingSpot) error
	DeleteSpot(ctx context.Context, id int) error
	HasLiveBookings(ctx context.Context, spotID int) (bool, error)
	ListActiveBoundaries(ctx context.Context, excludeID int) ([]geo.Quad, error)
	ListActiveSpots(ctx context.Context, availableOnly bool) ([]db.ParkingSpot, error)
}

type BookingStore interface {
	CountAdvanceConflicts(ctx context.Context, spotID int, start, end time.Time) (int, error)
	CreateAdvanceBooking(ctx context.Context, b *db.Booking) error
	StartSession(ctx context.Context, b *db.Booking) error
	StopSession(ctx context.Context, b *db.Booking) error
	HasStartedSession(ctx context.Context, spotID int) (bool, error)
	GetBookingByCode(ctx context.Context, code string) (*db.Booking, error)
	GetBookingByID(ctx context.Context, id int) (*db.Booking, error)
	ListBookingsForRenter(ctx context.Context, renterID int) ([]db.Booking, error)
	ListBookingsForSpot(ctx context.Context, spotID int) ([]db.Booking, error)
	CancelBooking(ctx context.Context, id int, cancelledAt time.Time) error
	UpdateBookingStatus(ctx context.Context, id int, status string) error
}

type PaymentStore interface {
	UpsertPayment(ctx context.Context, p *db.Payment) error
	GetPaymentByBookingID(ctx context.Context, bookingID int) (*db.Payment, error)
	GetPaymentByStripeSessionID(ctx context.Context, sessionID string) (*db.Payment, error)
	UpdatePaymentStatus(ctx context.Context, id int, status string) error
}

// PaymentGateway is the external payment-processor contract. The Stripe
// implementation lives in stripe_service.go.
type PaymentGateway interface {
	CreateCheckoutSession(amount int64, currency, description, customerEmail string) (url, sessionID string, err error)
	RefundPaymentBySessionID(sessionID string) error
}

// Notifier delivers booking notifications. Best effort: failures are logged
// by implementations and never surface to callers.
type Notifier interface {
	NotifyBooking(booking *db.Booking, user *db.User, status string)
}
