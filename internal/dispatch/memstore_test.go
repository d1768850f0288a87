package dispatch

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/careguardian/careguardian-api/internal/apperr"
	"github.com/careguardian/careguardian-api/internal/model"
)

// memStore is an in-memory Store whose AssignAmbulance is atomic under mu.
type memStore struct {
	mu         sync.Mutex
	hospitals  []model.Hospital
	fleet      []model.Ambulance
	incidents  []model.Incident
	bookings   []model.AmbulanceBooking
	failCreate error
	// beforeAssign runs inside AssignAmbulance before the availability check
	beforeAssign func(ambulanceID uint64)
}

func ptr[T any](v T) *T { return &v }

func (m *memStore) ListHospitals(context.Context) ([]model.Hospital, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.hospitals), nil
}

func (m *memStore) HospitalsByCity(_ context.Context, city string) ([]model.Hospital, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Hospital
	for _, h := range m.hospitals {
		if strings.EqualFold(h.City, city) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (m *memStore) GetHospital(_ context.Context, id uint64) (model.Hospital, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range m.hospitals {
		if h.ID == id {
			return h, nil
		}
	}
	return model.Hospital{}, apperr.ErrNotFound
}

func (m *memStore) HospitalByUser(_ context.Context, userID uint64) (model.Hospital, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range m.hospitals {
		if h.UserID != nil && *h.UserID == userID {
			return h, nil
		}
	}
	return model.Hospital{}, apperr.ErrNotFound
}

func (m *memStore) SetHospitalLocation(_ context.Context, id uint64, lat, lon float64) (model.Hospital, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.hospitals {
		if m.hospitals[i].ID == id {
			m.hospitals[i].Latitude, m.hospitals[i].Longitude = ptr(lat), ptr(lon)
			return m.hospitals[i], nil
		}
	}
	return model.Hospital{}, apperr.ErrNotFound
}

func (m *memStore) ListAvailableAmbulances(context.Context) ([]model.Ambulance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Ambulance
	for _, a := range m.fleet {
		if a.Status == model.AmbulanceAvailable {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) ambulance(id uint64) *model.Ambulance {
	for i := range m.fleet {
		if m.fleet[i].ID == id {
			return &m.fleet[i]
		}
	}
	return nil
}

func (m *memStore) GetAmbulance(_ context.Context, id uint64) (model.Ambulance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a := m.ambulance(id); a != nil {
		return *a, nil
	}
	return model.Ambulance{}, apperr.ErrNotFound
}

func (m *memStore) AmbulanceByUser(_ context.Context, userID uint64) (model.Ambulance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.fleet {
		if a.OperatedBy(userID) {
			return a, nil
		}
	}
	return model.Ambulance{}, apperr.ErrNotFound
}

func (m *memStore) SetAmbulanceStatus(_ context.Context, id uint64, to model.AmbulanceStatus, from []model.AmbulanceStatus) (model.Ambulance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.ambulance(id)
	if a == nil {
		return model.Ambulance{}, apperr.ErrNotFound
	}
	if !slices.Contains(from, a.Status) {
		return model.Ambulance{}, apperr.ErrConflict
	}
	a.Status = to
	return *a, nil
}

func (m *memStore) SetAmbulanceLocation(_ context.Context, id uint64, lat, lon float64) (model.Ambulance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.ambulance(id)
	if a == nil {
		return model.Ambulance{}, apperr.ErrNotFound
	}
	a.Latitude, a.Longitude = ptr(lat), ptr(lon)
	return *a, nil
}

func (m *memStore) CreateIncident(_ context.Context, inc model.Incident) (model.Incident, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate != nil {
		return model.Incident{}, m.failCreate
	}
	inc.ID = uint64(len(m.incidents) + 1)
	inc.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(inc.ID) * time.Minute)
	m.incidents = append(m.incidents, inc)
	return inc, nil
}

func (m *memStore) incident(id uint64) *model.Incident {
	for i := range m.incidents {
		if m.incidents[i].ID == id {
			return &m.incidents[i]
		}
	}
	return nil
}

func (m *memStore) GetIncident(_ context.Context, id uint64) (model.Incident, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if inc := m.incident(id); inc != nil {
		return *inc, nil
	}
	return model.Incident{}, apperr.ErrNotFound
}

func (m *memStore) ListIncidentsByUser(_ context.Context, userID uint64) ([]model.Incident, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Incident
	for _, inc := range m.incidents {
		if inc.UserID == userID {
			out = append(out, inc)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) AssignAmbulance(_ context.Context, incidentID, ambulanceID uint64, at time.Time) (model.Incident, model.Ambulance, error) {
	if m.beforeAssign != nil {
		m.beforeAssign(ambulanceID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.ambulance(ambulanceID)
	if a == nil || a.Status != model.AmbulanceAvailable {
		return model.Incident{}, model.Ambulance{}, ErrAmbulanceTaken
	}
	inc := m.incident(incidentID)
	if inc == nil || inc.Status != model.IncidentPending {
		return model.Incident{}, model.Ambulance{}, apperr.ErrConflict
	}
	a.Status = model.AmbulanceDispatched
	inc.Status = model.IncidentDispatched
	inc.AssignedAmbulanceID = ptr(ambulanceID)
	inc.DispatchedAt = ptr(at)
	return *inc, *a, nil
}

func (m *memStore) AdvanceIncident(_ context.Context, id uint64, from, to model.IncidentStatus, at time.Time) (model.Incident, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inc := m.incident(id)
	if inc == nil {
		return model.Incident{}, apperr.ErrNotFound
	}
	if inc.Status != from {
		return model.Incident{}, apperr.ErrConflict
	}
	inc.Status = to
	switch to {
	case model.IncidentArrived:
		if inc.ArrivedAt == nil {
			inc.ArrivedAt = ptr(at)
		}
	case model.IncidentCompleted:
		if inc.CompletedAt == nil {
			inc.CompletedAt = ptr(at)
		}
		if inc.AssignedAmbulanceID != nil {
			if a := m.ambulance(*inc.AssignedAmbulanceID); a != nil && a.Status == model.AmbulanceDispatched {
				a.Status = model.AmbulanceAvailable
			}
		}
	}
	return *inc, nil
}

func (m *memStore) CreateBooking(_ context.Context, b model.AmbulanceBooking) (model.AmbulanceBooking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = uint64(len(m.bookings) + 1)
	m.bookings = append(m.bookings, b)
	return b, nil
}

func (m *memStore) GetBooking(_ context.Context, id uint64) (model.AmbulanceBooking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.ID == id {
			return b, nil
		}
	}
	return model.AmbulanceBooking{}, apperr.ErrNotFound
}

func (m *memStore) ListBookingsByUser(_ context.Context, userID uint64) ([]model.AmbulanceBooking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.AmbulanceBooking
	for _, b := range m.bookings {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStore) ListBookingsByAmbulance(_ context.Context, ambulanceID uint64) ([]model.AmbulanceBooking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.AmbulanceBooking
	for _, b := range m.bookings {
		if b.AmbulanceID == ambulanceID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStore) AdvanceBooking(_ context.Context, id uint64, from, to model.BookingStatus, at time.Time) (model.AmbulanceBooking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.bookings {
		b := &m.bookings[i]
		if b.ID != id {
			continue
		}
		if b.Status != from {
			return model.AmbulanceBooking{}, apperr.ErrConflict
		}
		b.Status = to
		if to == model.BookingAccepted {
			b.DispatchedAt = ptr(at)
		} else {
			b.CompletedAt = ptr(at)
		}
		return *b, nil
	}
	return model.AmbulanceBooking{}, apperr.ErrNotFound
}
