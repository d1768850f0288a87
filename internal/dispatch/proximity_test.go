package dispatch

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careguardian/careguardian-api/internal/apperr"
	"github.com/careguardian/careguardian-api/internal/model"
)

const kmPerDegLat = 111.19492664455873 // 6371 * pi / 180

func hospitalAt(id uint64, lat, lon float64) model.Hospital {
	return model.Hospital{ID: id, Name: "H", Latitude: ptr(lat), Longitude: ptr(lon)}
}

func ambulanceAt(id uint64, lat, lon float64) model.Ambulance {
	return model.Ambulance{ID: id, Status: model.AmbulanceAvailable, Latitude: ptr(lat), Longitude: ptr(lon)}
}

func TestRankByDistanceFiltersAndSorts(t *testing.T) {
	// 8 km, 2 km and 4 km north of the query point, in that fetch order
	hospitals := []model.Hospital{
		hospitalAt(1, 12.97+8/kmPerDegLat, 77.59),
		hospitalAt(2, 12.97+2/kmPerDegLat, 77.59),
		hospitalAt(3, 12.97+4/kmPerDegLat, 77.59),
		{ID: 4, Name: "no coordinates"},
	}

	got := RankByDistance(hospitals, 12.97, 77.59, 5)

	require.Len(t, got, 2)
	assert.Equal(t, uint64(2), got[0].Resource.ID)
	assert.Equal(t, uint64(3), got[1].Resource.ID)
	assert.InDelta(t, 2.0, got[0].DistanceKm, 0.01)
	assert.InDelta(t, 4.0, got[1].DistanceKm, 0.01)
}

func TestRankByDistanceNeverExceedsRadiusAndIsSorted(t *testing.T) {
	var fleet []model.Ambulance
	for i := 0; i < 60; i++ {
		lat := 12.5 + float64(i%10)*0.1
		lon := 77.2 + float64(i/10)*0.15
		fleet = append(fleet, ambulanceAt(uint64(i+1), lat, lon))
	}
	for _, radius := range []float64{0, 1, 10, 25, 50, 500} {
		got := RankByDistance(fleet, 12.97, 77.59, radius)
		for i, r := range got {
			assert.LessOrEqual(t, r.DistanceKm, radius)
			if i > 0 {
				assert.LessOrEqual(t, got[i-1].DistanceKm, r.DistanceKm)
			}
		}
	}
}

func TestRankByDistanceIsStableOnTies(t *testing.T) {
	fleet := []model.Ambulance{
		ambulanceAt(10, 0.1, 0),
		ambulanceAt(11, -0.1, 0),
		ambulanceAt(12, 0.1, 0),
	}
	got := RankByDistance(fleet, 0, 0, 50)
	require.Len(t, got, 3)
	assert.Equal(t, []uint64{10, 11, 12}, []uint64{got[0].Resource.ID, got[1].Resource.ID, got[2].Resource.ID})
}

func TestRankByDistanceEmptyIsNotAnError(t *testing.T) {
	got := RankByDistance([]model.Hospital{hospitalAt(1, 40, -70)}, 12.97, 77.59, 10)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestNearestAvailable(t *testing.T) {
	t.Run("empty pool", func(t *testing.T) {
		_, ok := NearestAvailable([]model.Ambulance{}, 12.97, 77.59)
		assert.False(t, ok)
	})

	t.Run("single candidate without coordinates", func(t *testing.T) {
		got, ok := NearestAvailable([]model.Ambulance{{ID: 9, Status: model.AmbulanceAvailable}}, 12.97, 77.59)
		require.True(t, ok)
		assert.Equal(t, uint64(9), got.ID)
	})

	t.Run("first is kept when nobody has coordinates", func(t *testing.T) {
		got, ok := NearestAvailable([]model.Ambulance{{ID: 1}, {ID: 2}}, 12.97, 77.59)
		require.True(t, ok)
		assert.Equal(t, uint64(1), got.ID)
	})

	t.Run("minimum planar distance wins", func(t *testing.T) {
		pool := []model.Ambulance{
			{ID: 1},
			ambulanceAt(2, 13.00, 77.60),
			ambulanceAt(3, 12.98, 77.59),
			ambulanceAt(4, 14.00, 78.00),
		}
		got, ok := NearestAvailable(pool, 12.97, 77.59)
		require.True(t, ok)
		assert.Equal(t, uint64(3), got.ID)
	})

	t.Run("ties go to the first evaluated", func(t *testing.T) {
		pool := []model.Ambulance{ambulanceAt(5, 1, 0), ambulanceAt(6, -1, 0), ambulanceAt(7, 0, 1)}
		got, _ := NearestAvailable(pool, 0, 0)
		assert.Equal(t, uint64(5), got.ID)
	})

	t.Run("uses planar degrees not great circle", func(t *testing.T) {
		// At 60N a degree of longitude is half a degree of latitude on the
		// ground, but planar distance treats them as equal.
		pool := []model.Ambulance{ambulanceAt(7, 60.0, 11.0), ambulanceAt(8, 60.9, 10.0)}
		got, _ := NearestAvailable(pool, 60.0, 10.0)
		assert.Equal(t, uint64(8), got.ID)
	})
}

func TestValidateCoordinates(t *testing.T) {
	assert.NoError(t, ValidateCoordinates(12.97, 77.59))
	assert.NoError(t, ValidateCoordinates(-90, 180))

	for _, tc := range []struct {
		lat, lon float64
		field    string
	}{
		{91, 0, "latitude"},
		{math.NaN(), 0, "latitude"},
		{0, -180.5, "longitude"},
		{0, math.Inf(1), "longitude"},
	} {
		ve, ok := apperr.AsValidation(ValidateCoordinates(tc.lat, tc.lon))
		require.True(t, ok)
		assert.Equal(t, tc.field, ve.Field)
	}
}
