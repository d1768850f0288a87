package model

import "time"

// IncidentStatus tracks an emergency through its forward-only lifecycle.
type IncidentStatus string

const (
	IncidentPending    IncidentStatus = "pending"
	IncidentDispatched IncidentStatus = "dispatched"
	IncidentArrived    IncidentStatus = "arrived"
	IncidentCompleted  IncidentStatus = "completed"
)

var incidentNext = map[IncidentStatus]IncidentStatus{
	IncidentPending:    IncidentDispatched,
	IncidentDispatched: IncidentArrived,
	IncidentArrived:    IncidentCompleted,
}

// CanAdvanceTo reports whether to is the single legal successor of s.
func (s IncidentStatus) CanAdvanceTo(to IncidentStatus) bool {
	next, ok := incidentNext[s]
	return ok && next == to
}

// Valid reports whether s is a known incident status.
func (s IncidentStatus) Valid() bool {
	switch s {
	case IncidentPending, IncidentDispatched, IncidentArrived, IncidentCompleted:
		return true
	}
	return false
}

// TimestampColumn names the column stamped when an incident enters s.
// Pending has none.
func (s IncidentStatus) TimestampColumn() string {
	switch s {
	case IncidentDispatched:
		return "dispatched_at"
	case IncidentArrived:
		return "arrived_at"
	case IncidentCompleted:
		return "completed_at"
	}
	return ""
}

// Incident mirrors the `emergency_incidents` table. Timestamps are
// append-only: once set they are never cleared or rewritten.
type Incident struct {
	ID                  uint64         `json:"id"`
	UserID              uint64         `json:"user_id"`
	Latitude            *float64       `json:"latitude"`
	Longitude           *float64       `json:"longitude"`
	Address             string         `json:"address,omitempty"`
	EmergencyType       string         `json:"emergency_type,omitempty"`
	Description         string         `json:"description,omitempty"`
	AssignedAmbulanceID *uint64        `json:"assigned_ambulance_id"`
	AssignedHospitalID  *uint64        `json:"assigned_hospital_id,omitempty"`
	Status              IncidentStatus `json:"status"`
	DispatchedAt        *time.Time     `json:"dispatched_at"`
	ArrivedAt           *time.Time     `json:"arrived_at"`
	CompletedAt         *time.Time     `json:"completed_at"`
	CreatedAt           time.Time      `json:"created_at"`
}

func (i Incident) Location() (float64, float64, bool) {
	return coords(i.Latitude, i.Longitude)
}
