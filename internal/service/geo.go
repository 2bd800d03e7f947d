package service

import (
	"math"

	"ridepay/internal/domain"
)

const earthRadiusKm = 6371.0

// Haversine returns the great-circle distance in kilometers between two points.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// DistanceFare prices a trip of distanceKm: the base fare covers the first tier,
// and every started tier after it adds the tier fare.
func DistanceFare(t domain.DistanceTariff, distanceKm float64) float64 {
	excess := distanceKm - t.TierDistance
	if excess <= 0 {
		return domain.RoundCents(t.BaseFare)
	}

	// Trim float noise so an exact multiple of the tier does not start another one.
	tiers := math.Ceil(math.Round(excess/t.TierDistance*1e9) / 1e9)

	return domain.RoundCents(t.BaseFare + tiers*t.TierFare)
}

// RoundKm rounds a distance to one decimal for recording.
func RoundKm(km float64) float64 {
	return math.Round(km*10) / 10
}

func validCoordinates(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
