package entities

import (
	"spotrent/internal/geo"
)

type CreateSpotRequest struct {
	Name          string      `json:"name"`
	Kind          string      `json:"kind"`
	Vertices      []geo.Point `json:"vertices"`
	HourlyRate    float64     `json:"hourly_rate"`
	PerMinuteRate *float64    `json:"per_minute_rate,omitempty"`
	AllowAdvance  bool        `json:"allow_advance"`
	AllowOnDemand bool        `json:"allow_on_demand"`
	GPSToleranceM *float64    `json:"gps_tolerance_m,omitempty"`
}

// UpdateSpotRequest applies partial updates; nil fields are left unchanged.
type UpdateSpotRequest struct {
	Name          *string     `json:"name,omitempty"`
	Vertices      []geo.Point `json:"vertices,omitempty"`
	HourlyRate    *float64    `json:"hourly_rate,omitempty"`
	PerMinuteRate *float64    `json:"per_minute_rate,omitempty"`
	AllowAdvance  *bool       `json:"allow_advance,omitempty"`
	AllowOnDemand *bool       `json:"allow_on_demand,omitempty"`
	Active        *bool       `json:"active,omitempty"`
	GPSToleranceM *float64    `json:"gps_tolerance_m,omitempty"`
}

type SpotResponse struct {
	ID            int         `json:"id"`
	OwnerID       int         `json:"owner_id"`
	Name          string      `json:"name"`
	Kind          string      `json:"kind"`
	Vertices      []geo.Point `json:"vertices"`
	Bounds        geo.Bounds  `json:"bounds"`
	Centroid      geo.Point   `json:"centroid"`
	HourlyRate    float64     `json:"hourly_rate"`
	PerMinuteRate float64     `json:"per_minute_rate"`
	AllowAdvance  bool        `json:"allow_advance"`
	AllowOnDemand bool        `json:"allow_on_demand"`
	Active        bool        `json:"active"`
	GPSToleranceM float64     `json:"gps_tolerance_m"`
}

// SearchResult is a spot plus its haversine distance from the query point.
type SearchResult struct {
	Spot       SpotResponse `json:"spot"`
	DistanceKm float64      `json:"distance_km"`
}
