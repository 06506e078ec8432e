package entities

import "time"

// SessionRequest is shared by the prepare and start endpoints.
type SessionRequest struct {
	SpotID                 int     `json:"spot_id"`
	VehiclePlate           string  `json:"vehicle_plate"`
	Latitude               float64 `json:"latitude"`
	Longitude              float64 `json:"longitude"`
	RequireGPSVerification bool    `json:"require_gps_verification"`
}

// PrepareSessionResponse is advisory only; nothing is committed.
type PrepareSessionResponse struct {
	CanStart    bool   `json:"can_start"`
	GPSVerified bool   `json:"gps_verified"`
	Reason      string `json:"reason,omitempty"`
}

type StartSessionResponse struct {
	Code            string    `json:"code"`
	SpotID          int       `json:"spot_id"`
	Status          string    `json:"status"`
	ActualStartTime time.Time `json:"actual_start_time"`
	EstimatedPrice  float64   `json:"estimated_price"`
	PerMinuteRate   float64   `json:"per_minute_rate"`
}

type StopSessionResponse struct {
	Code            string    `json:"code"`
	DurationMinutes int       `json:"duration_minutes"`
	DurationSeconds int       `json:"duration_seconds"`
	TotalPrice      float64   `json:"total_price"`
	ActualEndTime   time.Time `json:"actual_end_time"`
}
