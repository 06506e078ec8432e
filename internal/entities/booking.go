package entities

import "time"

type CreateBookingRequest struct {
	SpotID        int       `json:"spot_id"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	TermsAccepted bool      `json:"terms_accepted"`
}

type BookingResponse struct {
	Code        string     `json:"code"`
	SpotID      int        `json:"spot_id"`
	Mode        string     `json:"mode"`
	Status      string     `json:"status"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	TotalPrice  *float64   `json:"total_price,omitempty"`
	AccessToken string     `json:"access_token,omitempty"`
	PaymentURL  string     `json:"payment_url,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type CancelBookingResponse struct {
	Refunded bool `json:"refunded"`
}
