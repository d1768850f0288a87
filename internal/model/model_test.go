package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIncidentStatusIsForwardOnly(t *testing.T) {
	assert.True(t, IncidentPending.CanAdvanceTo(IncidentDispatched))
	assert.True(t, IncidentDispatched.CanAdvanceTo(IncidentArrived))
	assert.True(t, IncidentArrived.CanAdvanceTo(IncidentCompleted))

	assert.False(t, IncidentPending.CanAdvanceTo(IncidentArrived), "no skipping")
	assert.False(t, IncidentArrived.CanAdvanceTo(IncidentDispatched), "no going back")
	assert.False(t, IncidentCompleted.CanAdvanceTo(IncidentCompleted))
}

func TestAmbulancePriorStates(t *testing.T) {
	assert.ElementsMatch(t,
		[]AmbulanceStatus{AmbulanceDispatched, AmbulanceUnavailable},
		AmbulanceAvailable.PriorStates())
	assert.Equal(t, []AmbulanceStatus{AmbulanceAvailable}, AmbulanceUnavailable.PriorStates())
	assert.False(t, AmbulanceStatus("on-leave").Valid())
}

func TestLocationRequiresBothCoordinates(t *testing.T) {
	lat := 12.97
	_, _, ok := Ambulance{Latitude: &lat}.Location()
	assert.False(t, ok)

	lon := 77.59
	gotLat, gotLon, ok := Hospital{Latitude: &lat, Longitude: &lon}.Location()
	assert.True(t, ok)
	assert.Equal(t, 12.97, gotLat)
	assert.Equal(t, 77.59, gotLon)
}

func TestSessionExpiryIsInclusive(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := Session{CreatedAt: now, ExpiresAt: now.Add(24 * time.Hour)}
	assert.False(t, s.Expired(now.Add(23*time.Hour)))
	assert.True(t, s.Expired(now.Add(24*time.Hour)))
}

func TestBookingTransitions(t *testing.T) {
	assert.True(t, BookingPending.CanAdvanceTo(BookingAccepted))
	assert.True(t, BookingAccepted.CanAdvanceTo(BookingCompleted))
	assert.False(t, BookingPending.CanAdvanceTo(BookingCompleted))
	assert.False(t, BookingCompleted.CanAdvanceTo(BookingPending))
	assert.Equal(t, "dispatched_at", BookingAccepted.TimestampColumn())
	assert.Empty(t, BookingPending.TimestampColumn())
}
