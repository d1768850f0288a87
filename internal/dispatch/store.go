package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/careguardian/careguardian-api/internal/apperr"
	"github.com/careguardian/careguardian-api/internal/model"
)

// ErrAmbulanceTaken is returned by AssignAmbulance when the ambulance was no
// longer available at claim time. Nothing is written in that case.
var ErrAmbulanceTaken = fmt.Errorf("ambulance already claimed: %w", apperr.ErrConflict)

// HospitalStore reads the hospital directory and lets a hospital operator
// place their own row on the map.
type HospitalStore interface {
	ListHospitals(ctx context.Context) ([]model.Hospital, error)
	HospitalsByCity(ctx context.Context, city string) ([]model.Hospital, error)
	GetHospital(ctx context.Context, id uint64) (model.Hospital, error)
	HospitalByUser(ctx context.Context, userID uint64) (model.Hospital, error)
	SetHospitalLocation(ctx context.Context, id uint64, lat, lon float64) (model.Hospital, error)
}

// FleetStore reads ambulances and applies operator-driven changes.
// SetAmbulanceStatus only succeeds when the current status is one of from,
// otherwise it returns apperr.ErrConflict.
type FleetStore interface {
	ListAvailableAmbulances(ctx context.Context) ([]model.Ambulance, error)
	GetAmbulance(ctx context.Context, id uint64) (model.Ambulance, error)
	AmbulanceByUser(ctx context.Context, userID uint64) (model.Ambulance, error)
	SetAmbulanceStatus(ctx context.Context, id uint64, to model.AmbulanceStatus, from []model.AmbulanceStatus) (model.Ambulance, error)
	SetAmbulanceLocation(ctx context.Context, id uint64, lat, lon float64) (model.Ambulance, error)
}

// IncidentStore persists emergency incidents.
//
// AssignAmbulance is the atomic claim: in one transaction it moves the
// ambulance from available to dispatched and the incident from pending to
// dispatched, stamping dispatched_at. A lost claim returns ErrAmbulanceTaken.
//
// AdvanceIncident moves an incident from -> to, stamping to's timestamp
// column only if it is still empty. Completing an incident also returns its
// ambulance to available in the same transaction.
type IncidentStore interface {
	CreateIncident(ctx context.Context, inc model.Incident) (model.Incident, error)
	GetIncident(ctx context.Context, id uint64) (model.Incident, error)
	ListIncidentsByUser(ctx context.Context, userID uint64) ([]model.Incident, error)
	AssignAmbulance(ctx context.Context, incidentID, ambulanceID uint64, at time.Time) (model.Incident, model.Ambulance, error)
	AdvanceIncident(ctx context.Context, id uint64, from, to model.IncidentStatus, at time.Time) (model.Incident, error)
}

// BookingStore persists scheduled ambulance bookings. AdvanceBooking is
// conditional on from, like AdvanceIncident.
type BookingStore interface {
	CreateBooking(ctx context.Context, b model.AmbulanceBooking) (model.AmbulanceBooking, error)
	GetBooking(ctx context.Context, id uint64) (model.AmbulanceBooking, error)
	ListBookingsByUser(ctx context.Context, userID uint64) ([]model.AmbulanceBooking, error)
	ListBookingsByAmbulance(ctx context.Context, ambulanceID uint64) ([]model.AmbulanceBooking, error)
	AdvanceBooking(ctx context.Context, id uint64, from, to model.BookingStatus, at time.Time) (model.AmbulanceBooking, error)
}

// Store is everything the engine persists through.
type Store interface {
	HospitalStore
	FleetStore
	IncidentStore
	BookingStore
}

// Notifier is told about dispatch outcomes. Failures are logged only.
type Notifier interface {
	IncidentDispatched(ctx context.Context, inc model.Incident, amb model.Ambulance) error
	IncidentStatusChanged(ctx context.Context, inc model.Incident) error
}

// Observer records dispatch metrics. May be nil.
type Observer interface {
	ObserveDispatch(outcome string)
	ObserveSearch(kind, mode string, results int)
}
