// Package geo holds the two distance metrics used by the dispatch engine.
// Both are pure; NaN inputs propagate to a NaN result.
package geo

import (
	"math"

	"github.com/careguardian/careguardian-api/internal/apperr"
)

// EarthRadiusKm is the mean Earth radius used by HaversineKm.
const EarthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance in kilometres between two
// points given in decimal degrees. Used for proximity search.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return EarthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// PlanarDegrees returns the straight-line distance in raw coordinate degrees,
// with no great-circle correction. It is only meaningful for ranking nearby
// candidates against each other and is what emergency nearest-match uses.
func PlanarDegrees(lat1, lon1, lat2, lon2 float64) float64 {
	return math.Sqrt(math.Pow(lat2-lat1, 2) + math.Pow(lon2-lon1, 2))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// ValidateCoordinates rejects NaN, infinities and out-of-range values.
func ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || lat < -90 || lat > 90 {
		return apperr.Validation("latitude", "must be a number between -90 and 90")
	}
	if math.IsNaN(lon) || math.IsInf(lon, 0) || lon < -180 || lon > 180 {
		return apperr.Validation("longitude", "must be a number between -180 and 180")
	}
	return nil
}
