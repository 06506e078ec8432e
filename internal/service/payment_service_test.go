package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/guregu/null.v4"

	"spotrent/internal/db"
)

func TestRequestCharge_RecordsPendingPaymentWithSession(t *testing.T) {
	gateway := &fakePaymentGateway{}
	store := newFakePaymentStore()
	svc := NewPaymentService(gateway, store)

	url, err := svc.RequestCharge(context.Background(), &db.Booking{ID: 1, Code: "b-1"}, 14.90, "renter@example.com")
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.example/session", url)

	payment, err := store.GetPaymentByBookingID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, db.PaymentPending, payment.Status)
	assert.Equal(t, 14.90, payment.Amount)
	assert.Equal(t, "cs_1", payment.StripeSessionID.String)
}

func TestRequestCharge_GatewayFailureStillRecordsDebt(t *testing.T) {
	gateway := &fakePaymentGateway{checkoutErr: errors.New("gateway unreachable")}
	store := newFakePaymentStore()
	svc := NewPaymentService(gateway, store)

	_, err := svc.RequestCharge(context.Background(), &db.Booking{ID: 1, Code: "b-1"}, 14.90, "renter@example.com")
	require.Error(t, err)

	// The amount owed is on record even though no checkout session exists,
	// so capture can be retried later.
	payment, err := store.GetPaymentByBookingID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, db.PaymentPending, payment.Status)
	assert.Equal(t, 14.90, payment.Amount)
	assert.False(t, payment.StripeSessionID.Valid)
}

func TestRefundBooking(t *testing.T) {
	booking := &db.Booking{ID: 1, Code: "b-1"}

	t.Run("refunds a completed payment", func(t *testing.T) {
		gateway := &fakePaymentGateway{}
		store := newFakePaymentStore()
		store.payments[1] = &db.Payment{
			ID: 1, BookingID: 1, Amount: 50,
			Status:          db.PaymentCompleted,
			StripeSessionID: null.StringFrom("cs_1"),
		}
		svc := NewPaymentService(gateway, store)

		assert.True(t, svc.RefundBooking(context.Background(), booking))
		assert.Equal(t, []string{"cs_1"}, gateway.refunded)
		assert.Equal(t, db.PaymentRefunded, store.payments[1].Status)
	})

	t.Run("pending payment is not refunded", func(t *testing.T) {
		gateway := &fakePaymentGateway{}
		store := newFakePaymentStore()
		store.payments[1] = &db.Payment{ID: 1, BookingID: 1, Status: db.PaymentPending}
		svc := NewPaymentService(gateway, store)

		assert.False(t, svc.RefundBooking(context.Background(), booking))
		assert.Empty(t, gateway.refunded)
	})

	t.Run("gateway failure reports not refunded", func(t *testing.T) {
		gateway := &fakePaymentGateway{refundErr: errors.New("gateway unreachable")}
		store := newFakePaymentStore()
		store.payments[1] = &db.Payment{
			ID: 1, BookingID: 1,
			Status:          db.PaymentCompleted,
			StripeSessionID: null.StringFrom("cs_1"),
		}
		svc := NewPaymentService(gateway, store)

		assert.False(t, svc.RefundBooking(context.Background(), booking))
		assert.Equal(t, db.PaymentCompleted, store.payments[1].Status)
	})
}
