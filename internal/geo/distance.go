// Package geo contains pure geographic computation helpers: great-circle
// distance and the quadrilateral boundary validation used when a spot is
// published.
package geo

import "math"

const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance in kilometres between two
// points specified in decimal degrees, via the haversine formula.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLng := degreesToRadians(lng2 - lng1)

	rLat1 := degreesToRadians(lat1)
	rLat2 := degreesToRadians(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// DistanceMeters returns the haversine distance in metres.
func DistanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	return DistanceKm(lat1, lng1, lat2, lng2) * 1000
}

// WithinMeters reports whether the two points are at most tolerance metres
// apart. Used for GPS proximity verification against a spot's centroid.
func WithinMeters(lat1, lng1, lat2, lng2, tolerance float64) bool {
	return DistanceMeters(lat1, lng1, lat2, lng2) <= tolerance
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
