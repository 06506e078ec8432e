package service

import (
	"context"
	"fmt"
	"log"
	"math"

	"gopkg.in/guregu/null.v4"

	"spotrent/internal/db"
	"spotrent/internal/repository"
)

const defaultCurrency = "eur"

// PaymentService is the thin coordinator between booking lifecycle events
// and the external payment gateway. Charge-creation failures surface to the
// caller; refund failures are swallowed (logged only) so cancellation still
// succeeds.
type PaymentService struct {
	gateway PaymentGateway
	store   PaymentStore
}

func NewPaymentService(gateway PaymentGateway, store PaymentStore) *PaymentService {
	return &PaymentService{gateway: gateway, store: store}
}

// RequestCharge records a pending payment row for the booking and opens a
// checkout session for it. The row is written before the gateway call: if
// the gateway is unreachable the amount owed is still on record and capture
// can be retried later. Returns the checkout URL for the caller to complete.
func (s *PaymentService) RequestCharge(ctx context.Context, booking *db.Booking, amount float64, customerEmail string) (string, error) {
	payment := &db.Payment{
		BookingID: booking.ID,
		Amount:    amount,
		Currency:  defaultCurrency,
		Status:    db.PaymentPending,
	}
	if err := s.store.UpsertPayment(ctx, payment); err != nil {
		return "", err
	}

	description := fmt.Sprintf("Spotrent booking %s", booking.Code)
	url, sessionID, err := s.gateway.CreateCheckoutSession(toCents(amount), defaultCurrency, description, customerEmail)
	if err != nil {
		return "", fmt.Errorf("error creating checkout session: %w", err)
	}

	payment.StripeSessionID = null.StringFrom(sessionID)
	if err := s.store.UpsertPayment(ctx, payment); err != nil {
		return "", err
	}
	return url, nil
}

// RefundBooking refunds the booking's payment if one completed. Best effort:
// any failure is logged and reported as refunded=false, never as an error.
func (s *PaymentService) RefundBooking(ctx context.Context, booking *db.Booking) bool {
	payment, err := s.store.GetPaymentByBookingID(ctx, booking.ID)
	if err != nil {
		if err != repository.ErrNotFound {
			log.Printf("refund: could not load payment for booking %s: %v", booking.Code, err)
		}
		return false
	}
	if payment.Status != db.PaymentCompleted || !payment.StripeSessionID.Valid {
		return false
	}

	if err := s.gateway.RefundPaymentBySessionID(payment.StripeSessionID.String); err != nil {
		log.Printf("refund: gateway refund failed for booking %s: %v", booking.Code, err)
		return false
	}
	if err := s.store.UpdatePaymentStatus(ctx, payment.ID, db.PaymentRefunded); err != nil {
		log.Printf("refund: could not mark payment %d refunded: %v", payment.ID, err)
	}
	return true
}

// MarkCheckoutCompleted flips the payment identified by a Stripe session to
// completed and returns it. Called from the webhook handler.
func (s *PaymentService) MarkCheckoutCompleted(ctx context.Context, sessionID string) (*db.Payment, error) {
	payment, err := s.store.GetPaymentByStripeSessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdatePaymentStatus(ctx, payment.ID, db.PaymentCompleted); err != nil {
		return nil, err
	}
	payment.Status = db.PaymentCompleted
	return payment, nil
}

func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
