package errors

import "net/http"

// Machine-checkable reason codes returned alongside business-rule rejections.
const (
	ReasonWrongVertexCount    = "WRONG_VERTEX_COUNT"
	ReasonSelfIntersecting    = "SELF_INTERSECTING"
	ReasonOverlapsExisting    = "OVERLAPS_EXISTING_SPOT"
	ReasonOverlappingBooking  = "OVERLAPPING_RESERVATION"
	ReasonSpotOccupied        = "SPOT_OCCUPIED"
	ReasonSpotUnavailable     = "SPOT_UNAVAILABLE"
	ReasonCancelWindowPassed  = "CANCEL_WINDOW_PASSED"
	ReasonBookingTerminal     = "BOOKING_ALREADY_TERMINAL"
	ReasonNotCancellable      = "SESSION_NOT_CANCELLABLE"
	ReasonGPSVerification     = "GPS_VERIFICATION_FAILED"
	ReasonTermsNotAccepted    = "TERMS_NOT_ACCEPTED"
	ReasonInvalidTimeWindow   = "INVALID_TIME_WINDOW"
	ReasonSpotHasLiveBookings = "SPOT_HAS_LIVE_BOOKINGS"
)

// HTTPError represents an error with an associated HTTP status code and,
// for business-rule rejections, a machine-checkable reason code.
type HTTPError struct {
	Code    int    `json:"-"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"error"`
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTPError with the given code and message.
func NewHTTPError(code int, message string) *HTTPError {
	return &HTTPError{Code: code, Message: message}
}

func Validation(message string) *HTTPError {
	return &HTTPError{Code: http.StatusBadRequest, Message: message}
}

func BusinessRule(reason, message string) *HTTPError {
	return &HTTPError{Code: http.StatusBadRequest, Reason: reason, Message: message}
}

func Forbidden(message string) *HTTPError {
	return &HTTPError{Code: http.StatusForbidden, Message: message}
}

func Unauthorized(message string) *HTTPError {
	return &HTTPError{Code: http.StatusUnauthorized, Message: message}
}

func NotFound(message string) *HTTPError {
	return &HTTPError{Code: http.StatusNotFound, Message: message}
}
