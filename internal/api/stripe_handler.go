package api

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"spotrent/internal/service"
)

type StripeWebhookHandler struct {
	payments *service.PaymentService
	bookings *service.BookingService
}

func NewStripeWebhookHandler(payments *service.PaymentService, bookings *service.BookingService) *StripeWebhookHandler {
	return &StripeWebhookHandler{payments: payments, bookings: bookings}
}

// HandleWebhook processes checkout.session.completed events: the payment is
// marked completed and a pending advance booking becomes confirmed.
func (h *StripeWebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Error reading request body", http.StatusBadRequest)
		return
	}

	endpointSecret := os.Getenv("STRIPE_WEBHOOK_SECRET")
	event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), endpointSecret)
	if err != nil {
		log.Printf("stripe webhook: signature verification failed: %v", err)
		http.Error(w, "Invalid signature", http.StatusBadRequest)
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			log.Printf("stripe webhook: error parsing checkout session: %v", err)
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}

		payment, err := h.payments.MarkCheckoutCompleted(r.Context(), sess.ID)
		if err != nil {
			log.Printf("stripe webhook: could not mark payment completed for session %s: %v", sess.ID, err)
			http.Error(w, "Payment not found", http.StatusNotFound)
			return
		}
		if err := h.bookings.ConfirmFromCheckout(r.Context(), payment.BookingID); err != nil {
			log.Printf("stripe webhook: could not confirm booking %d: %v", payment.BookingID, err)
		}
	default:
		log.Printf("stripe webhook: ignoring event type %s", event.Type)
	}

	w.WriteHeader(http.StatusOK)
}
