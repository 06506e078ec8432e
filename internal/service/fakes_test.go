package service

import (
	"context"
	"fmt"
	"time"

	"spotrent/internal/db"
	"spotrent/internal/geo"
	"spotrent/internal/repository"
)

// In-memory fakes implementing the store ports. The booking fake mirrors the
// DB-level guarantees: the advance insert is atomic with its conflict check,
// and at most one started session per spot is admitted.

type fakeSpotStore struct {
	spots map[int]*db.ParkingSpot
	// spot ids currently held by a started session, hidden from
	// available-only listings
	occupied map[int]bool
}

func newFakeSpotStore(spots ...*db.ParkingSpot) *fakeSpotStore {
	m := make(map[int]*db.ParkingSpot)
	for _, s := range spots {
		m[s.ID] = s
	}
	return &fakeSpotStore{spots: m, occupied: make(map[int]bool)}
}

func (f *fakeSpotStore) CreateSpot(_ context.Context, s *db.ParkingSpot) error {
	s.ID = len(f.spots) + 1
	f.spots[s.ID] = s
	return nil
}

func (f *fakeSpotStore) GetSpotByID(_ context.Context, id int) (*db.ParkingSpot, error) {
	s, ok := f.spots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s, nil
}

func (f *fakeSpotStore) UpdateSpot(_ context.Context, s *db.ParkingSpot) error {
	if _, ok := f.spots[s.ID]; !ok {
		return repository.ErrNotFound
	}
	f.spots[s.ID] = s
	return nil
}

func (f *fakeSpotStore) DeleteSpot(_ context.Context, id int) error {
	if _, ok := f.spots[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.spots, id)
	return nil
}

func (f *fakeSpotStore) HasLiveBookings(context.Context, int) (bool, error) { return false, nil }

func (f *fakeSpotStore) ListActiveBoundaries(_ context.Context, excludeID int) ([]geo.Quad, error) {
	var quads []geo.Quad
	for id, s := range f.spots {
		if s.Active && id != excludeID {
			quads = append(quads, s.Boundary)
		}
	}
	return quads, nil
}

func (f *fakeSpotStore) ListActiveSpots(_ context.Context, availableOnly bool) ([]db.ParkingSpot, error) {
	var out []db.ParkingSpot
	for _, s := range f.spots {
		if !s.Active {
			continue
		}
		if availableOnly && f.occupied[s.ID] {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

type fakeBookingStore struct {
	bookings []*db.Booking
	nextID   int
}

func (f *fakeBookingStore) CountAdvanceConflicts(_ context.Context, spotID int, start, end time.Time) (int, error) {
	n := 0
	for _, b := range f.bookings {
		if b.SpotID != spotID || b.Mode != db.ModeAdvance {
			continue
		}
		switch b.Status {
		case db.StatusPending, db.StatusConfirmed, db.StatusActive:
		default:
			continue
		}
		// Inclusive bounds at both ends.
		if !b.StartTime.Time.After(end) && !b.EndTime.Time.Before(start) {
			n++
		}
	}
	return n, nil
}

func (f *fakeBookingStore) CreateAdvanceBooking(ctx context.Context, b *db.Booking) error {
	n, _ := f.CountAdvanceConflicts(ctx, b.SpotID, b.StartTime.Time, b.EndTime.Time)
	if n > 0 {
		return repository.ErrOverlapConflict
	}
	f.nextID++
	b.ID = f.nextID
	f.bookings = append(f.bookings, b)
	return nil
}

func (f *fakeBookingStore) StartSession(ctx context.Context, b *db.Booking) error {
	occupied, _ := f.HasStartedSession(ctx, b.SpotID)
	if occupied {
		return repository.ErrSpotOccupied
	}
	f.nextID++
	b.ID = f.nextID
	f.bookings = append(f.bookings, b)
	return nil
}

func (f *fakeBookingStore) StopSession(_ context.Context, b *db.Booking) error {
	for _, existing := range f.bookings {
		if existing.ID == b.ID && existing.Status == db.StatusStarted {
			*existing = *b
			existing.Status = db.StatusCompleted
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeBookingStore) HasStartedSession(_ context.Context, spotID int) (bool, error) {
	for _, b := range f.bookings {
		if b.SpotID == spotID && b.Status == db.StatusStarted {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeBookingStore) GetBookingByCode(_ context.Context, code string) (*db.Booking, error) {
	for _, b := range f.bookings {
		if b.Code == code {
			return b, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeBookingStore) GetBookingByID(_ context.Context, id int) (*db.Booking, error) {
	for _, b := range f.bookings {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeBookingStore) ListBookingsForRenter(_ context.Context, renterID int) ([]db.Booking, error) {
	var out []db.Booking
	for _, b := range f.bookings {
		if b.RenterID == renterID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBookingStore) ListBookingsForSpot(_ context.Context, spotID int) ([]db.Booking, error) {
	var out []db.Booking
	for _, b := range f.bookings {
		if b.SpotID == spotID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeBookingStore) CancelBooking(_ context.Context, id int, cancelledAt time.Time) error {
	for _, b := range f.bookings {
		if b.ID == id {
			b.Status = db.StatusCancelled
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeBookingStore) UpdateBookingStatus(_ context.Context, id int, status string) error {
	for _, b := range f.bookings {
		if b.ID == id {
			b.Status = status
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeUserStore struct {
	users map[int]*db.User
}

func (f *fakeUserStore) GetUserByID(_ context.Context, id int) (*db.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

type fakePaymentGateway struct {
	checkoutErr error
	refundErr   error
	sessions    int
	refunded    []string
}

func (f *fakePaymentGateway) CreateCheckoutSession(int64, string, string, string) (string, string, error) {
	if f.checkoutErr != nil {
		return "", "", f.checkoutErr
	}
	f.sessions++
	return "https://checkout.example/session", fmt.Sprintf("cs_%d", f.sessions), nil
}

func (f *fakePaymentGateway) RefundPaymentBySessionID(sessionID string) error {
	if f.refundErr != nil {
		return f.refundErr
	}
	f.refunded = append(f.refunded, sessionID)
	return nil
}

type fakePaymentStore struct {
	payments map[int]*db.Payment // keyed by booking id
	nextID   int
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{payments: make(map[int]*db.Payment)}
}

func (f *fakePaymentStore) UpsertPayment(_ context.Context, p *db.Payment) error {
	if existing, ok := f.payments[p.BookingID]; ok {
		p.ID = existing.ID
	} else {
		f.nextID++
		p.ID = f.nextID
	}
	stored := *p
	f.payments[p.BookingID] = &stored
	return nil
}

func (f *fakePaymentStore) GetPaymentByBookingID(_ context.Context, bookingID int) (*db.Payment, error) {
	p, ok := f.payments[bookingID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (f *fakePaymentStore) GetPaymentByStripeSessionID(_ context.Context, sessionID string) (*db.Payment, error) {
	for _, p := range f.payments {
		if p.StripeSessionID.Valid && p.StripeSessionID.String == sessionID {
			return p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakePaymentStore) UpdatePaymentStatus(_ context.Context, id int, status string) error {
	for _, p := range f.payments {
		if p.ID == id {
			p.Status = status
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeCharger struct {
	chargeErr    error
	charges      []float64
	refundResult bool
	refunds      int
}

func (f *fakeCharger) RequestCharge(_ context.Context, _ *db.Booking, amount float64, _ string) (string, error) {
	if f.chargeErr != nil {
		return "", f.chargeErr
	}
	f.charges = append(f.charges, amount)
	return "https://checkout.example/session", nil
}

func (f *fakeCharger) RefundBooking(context.Context, *db.Booking) bool {
	f.refunds++
	return f.refundResult
}

type fakeNotifier struct {
	notices []string
}

func (f *fakeNotifier) NotifyBooking(_ *db.Booking, _ *db.User, status string) {
	f.notices = append(f.notices, status)
}
