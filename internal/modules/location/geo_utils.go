// README: Pure great-circle distance helpers.
package location

import (
	"math"

	"nearmatch/internal/types"
)

const (
	earthRadiusKm = 6371.0
	// FeetPerMeter is the fixed conversion used for every proximity decision.
	FeetPerMeter = 3.28084
)

// haversineKm returns the great-circle distance in kilometres between two
// points specified in decimal degrees.
func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLng := degreesToRadians(lng2 - lng1)

	rLat1 := degreesToRadians(lat1)
	rLat2 := degreesToRadians(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// DistanceMeters is the haversine distance between a and b.
func DistanceMeters(a, b types.Coordinate) float64 {
	return haversineKm(a.Lat, a.Lng, b.Lat, b.Lng) * 1000
}

// DistanceFeet is DistanceMeters converted to feet.
func DistanceFeet(a, b types.Coordinate) float64 {
	return DistanceMeters(a, b) * FeetPerMeter
}
