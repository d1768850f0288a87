package dispatch

import (
	"math"
	"sort"

	"github.com/careguardian/careguardian-api/internal/geo"
)

// Locatable is anything with optional coordinates.
type Locatable interface {
	Location() (lat, lon float64, ok bool)
}

// Ranked annotates a resource with its great-circle distance from the query.
type Ranked[T Locatable] struct {
	Resource   T       `json:"resource"`
	DistanceKm float64 `json:"distance_km"`
}

// RankByDistance keeps items with coordinates within maxKm of the query
// point and orders them nearest first. Ties keep their input order.
func RankByDistance[T Locatable](items []T, lat, lon, maxKm float64) []Ranked[T] {
	out := make([]Ranked[T], 0, len(items))
	for _, it := range items {
		ilat, ilon, ok := it.Location()
		if !ok {
			continue
		}
		d := geo.HaversineKm(lat, lon, ilat, ilon)
		if d <= maxKm {
			out = append(out, Ranked[T]{Resource: it, DistanceKm: d})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	return out
}

// NearestAvailable picks the candidate closest to the query by planar
// degree distance. The first candidate is the pre-seeded answer so that a
// non-empty pool always yields a result, even when nobody has coordinates.
// Ties resolve to the earlier candidate. Callers pass only available units.
func NearestAvailable[T Locatable](candidates []T, lat, lon float64) (T, bool) {
	var zero T
	if len(candidates) == 0 {
		return zero, false
	}
	best := candidates[0]
	bestDist := math.Inf(1)
	for _, c := range candidates {
		clat, clon, ok := c.Location()
		if !ok {
			continue
		}
		if d := geo.PlanarDegrees(lat, lon, clat, clon); d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best, true
}

// ValidateCoordinates rejects NaN, infinities and out-of-range values.
func ValidateCoordinates(lat, lon float64) error { return geo.ValidateCoordinates(lat, lon) }
