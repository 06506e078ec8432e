package db

import (
	"time"

	"gopkg.in/guregu/null.v4"

	"spotrent/internal/geo"
)

// Booking statuses. pending/confirmed/active belong to advance bookings,
// started to on-demand sessions; completed and cancelled are terminal.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusActive    = "active"
	StatusStarted   = "started"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Booking modes.
const (
	ModeAdvance  = "advance"
	ModeOnDemand = "on_demand"
)

// Spot kinds.
const (
	KindOutdoor = "outdoor"
	KindIndoor  = "indoor"
)

// Payment statuses.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentRefunded  = "refunded"
)

// User roles.
const (
	RoleOwner  = "owner"
	RoleRenter = "renter"
)

type User struct {
	ID           int
	Email        string
	PasswordHash string
	Name         string
	Phone        string
	Role         string
	CreatedAt    time.Time
}

type ParkingSpot struct {
	ID            int
	OwnerID       int
	Name          string
	Kind          string
	Boundary      geo.Quad
	BoundsNorth   float64
	BoundsSouth   float64
	BoundsEast    float64
	BoundsWest    float64
	CentroidLat   float64
	CentroidLng   float64
	HourlyRate    float64
	PerMinuteRate null.Float
	AllowAdvance  bool
	AllowOnDemand bool
	Active        bool
	GPSToleranceM float64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Booking struct {
	ID       int
	Code     string
	SpotID   int
	RenterID int
	Mode     string
	Status   string

	// Advance bookings: window and price fixed at creation.
	StartTime   null.Time
	EndTime     null.Time
	AccessToken null.String

	// On-demand sessions.
	VehiclePlate    null.String
	ActualStartTime null.Time
	ActualEndTime   null.Time
	StartLat        null.Float
	StartLng        null.Float
	StopLat         null.Float
	StopLng         null.Float
	DurationMinutes null.Int
	DurationSeconds null.Int

	TotalPrice  null.Float
	CancelledAt null.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Payment struct {
	ID              int
	BookingID       int
	Amount          float64
	Currency        string
	Status          string
	StripeSessionID null.String
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Terminal reports whether no further lifecycle transitions are permitted.
func (b *Booking) Terminal() bool {
	return b.Status == StatusCompleted || b.Status == StatusCancelled
}

// Cancellable reports whether the booking's status still allows cancellation.
// The 30-minute window check lives in the service, not here.
func (b *Booking) Cancellable() bool {
	switch b.Status {
	case StatusPending, StatusConfirmed, StatusActive:
		return true
	}
	return false
}
