// Package geo provides great-circle distance math and coordinate helpers.
package geo

import (
	"fmt"
	"math"
)

// EarthRadiusMeters is the mean Earth radius used by every distance
// computation in this codebase, including the SQL haversine function.
const EarthRadiusMeters = 6_371_000.0

// Point is a geographic coordinate pair.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Distance returns the haversine great-circle distance in meters between
// two coordinates. It is symmetric, returns 0 for identical points, and is
// well defined for antipodal inputs.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	// Clamp guards against rounding pushing a slightly above 1 at
	// antipodes, which would make Sqrt(1-a) NaN.
	if a > 1 {
		a = 1
	}
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMeters * c
}

func toRad(deg float64) float64 {
	return deg * (math.Pi / 180)
}

// ValidCoordinate reports whether lat/lng form a usable coordinate pair.
func ValidCoordinate(lat, lng float64) bool {
	return !math.IsNaN(lat) && !math.IsNaN(lng) &&
		lat >= -90 && lat <= 90 &&
		lng >= -180 && lng <= 180
}

// FormatDistance renders a distance in meters for human consumption.
func FormatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%dm", int(math.Round(meters)))
	}
	return fmt.Sprintf("%.1fkm", meters/1000)
}
