// Package queue defines the dispatch events exchanged over RabbitMQ and the
// consumer that records them to an audit log.
package queue

import (
	"time"

	"github.com/careguardian/careguardian-api/internal/model"
)

// DispatchQueue carries every dispatch event.
const DispatchQueue = "dispatch.events"

const (
	EventIncidentDispatched = "incident.dispatched"
	EventIncidentStatus     = "incident.status"
)

// DispatchEvent is published when an ambulance is assigned to an incident
// or an incident changes status. Consumers need not query the database.
type DispatchEvent struct {
	Type          string   `json:"type"`
	IncidentID    uint64   `json:"incident_id"`
	UserID        uint64   `json:"user_id"`
	Status        string   `json:"status"`
	AmbulanceID   *uint64  `json:"ambulance_id,omitempty"`
	VehicleNumber string   `json:"vehicle_number,omitempty"`
	EmergencyType string   `json:"emergency_type,omitempty"`
	Latitude      *float64 `json:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty"`
	OccurredAt    string   `json:"occurred_at"`
}

// NewDispatchedEvent describes inc having been assigned amb.
func NewDispatchedEvent(inc model.Incident, amb model.Ambulance, at time.Time) DispatchEvent {
	ev := statusEvent(EventIncidentDispatched, inc, at)
	id := amb.ID
	ev.AmbulanceID = &id
	ev.VehicleNumber = amb.VehicleNumber
	return ev
}

func NewStatusEvent(inc model.Incident, at time.Time) DispatchEvent {
	return statusEvent(EventIncidentStatus, inc, at)
}

func statusEvent(kind string, inc model.Incident, at time.Time) DispatchEvent {
	return DispatchEvent{
		Type:          kind,
		IncidentID:    inc.ID,
		UserID:        inc.UserID,
		Status:        string(inc.Status),
		AmbulanceID:   inc.AssignedAmbulanceID,
		EmergencyType: inc.EmergencyType,
		Latitude:      inc.Latitude,
		Longitude:     inc.Longitude,
		OccurredAt:    at.UTC().Format(time.RFC3339),
	}
}
