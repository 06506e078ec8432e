package geo

import (
	"math"
	"testing"
)

func TestDistanceKm_KnownDistances(t *testing.T) {
	tests := []struct {
		name      string
		lat1      float64
		lng1      float64
		lat2      float64
		lng2      float64
		wantKm    float64
		tolerance float64
	}{
		{
			name: "same point",
			lat1: 59.9139, lng1: 10.7522,
			lat2: 59.9139, lng2: 10.7522,
			wantKm:    0,
			tolerance: 0.001,
		},
		{
			name: "central Oslo block (~0.12km)",
			lat1: 59.9139, lng1: 10.7522,
			lat2: 59.9149, lng2: 10.7532,
			wantKm:    0.12,
			tolerance: 0.01,
		},
		{
			name: "Oslo to Bergen (~305km)",
			lat1: 59.9139, lng1: 10.7522,
			lat2: 60.3913, lng2: 5.3221,
			wantKm:    305,
			tolerance: 10,
		},
		{
			name: "New York to Los Angeles (~3944km)",
			lat1: 40.7128, lng1: -74.0060,
			lat2: 34.0522, lng2: -118.2437,
			wantKm:    3944,
			tolerance: 50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceKm(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			if math.Abs(got-tt.wantKm) > tt.tolerance {
				t.Errorf("DistanceKm() = %f, want %f (±%f)", got, tt.wantKm, tt.tolerance)
			}
		})
	}
}

func TestDistanceKm_Symmetry(t *testing.T) {
	d1 := DistanceKm(59.9, 10.7, 60.9, 11.7)
	d2 := DistanceKm(60.9, 11.7, 59.9, 10.7)
	if math.Abs(d1-d2) > 0.0001 {
		t.Errorf("haversine is not symmetric: %f vs %f", d1, d2)
	}
}

func TestWithinMeters(t *testing.T) {
	// ~111m apart (0.001 degrees of latitude).
	if WithinMeters(59.9139, 10.7522, 59.9149, 10.7522, 50) {
		t.Error("points ~111m apart reported within 50m")
	}
	if !WithinMeters(59.9139, 10.7522, 59.9149, 10.7522, 150) {
		t.Error("points ~111m apart reported outside 150m")
	}
	if !WithinMeters(59.9139, 10.7522, 59.9139, 10.7522, 50) {
		t.Error("identical points reported outside tolerance")
	}
}
