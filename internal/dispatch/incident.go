package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/careguardian/careguardian-api/internal/apperr"
	"github.com/careguardian/careguardian-api/internal/model"
	"github.com/careguardian/careguardian-api/internal/session"
)

// ReportInput is an emergency report. Coordinates are optional, but must be
// given together.
type ReportInput struct {
	Latitude      *float64
	Longitude     *float64
	Address       string
	EmergencyType string
	Description   string
}

// Report is the outcome of emergency intake. A nil Ambulance is a normal
// outcome; Fallback then tells the caller to use the external number.
type Report struct {
	Incident  model.Incident   `json:"incident"`
	Ambulance *model.Ambulance `json:"ambulance"`
	Fallback  string           `json:"fallback,omitempty"`
}

// ReportEmergency persists the incident as pending, then tries to claim the
// nearest available ambulance. A claim lost to a concurrent report excludes
// that ambulance and retries, up to the policy's attempt budget.
func (e *Engine) ReportEmergency(ctx context.Context, actor session.Identity, in ReportInput) (Report, error) {
	if actor.UserID == 0 {
		return Report{}, apperr.ErrAuthenticationRequired
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return Report{}, apperr.Validation("location", "latitude and longitude must be given together")
	}
	if in.Latitude != nil {
		if err := ValidateCoordinates(*in.Latitude, *in.Longitude); err != nil {
			return Report{}, err
		}
	}

	inc, err := e.store.CreateIncident(ctx, model.Incident{
		UserID:        actor.UserID,
		Latitude:      in.Latitude,
		Longitude:     in.Longitude,
		Address:       in.Address,
		EmergencyType: in.EmergencyType,
		Description:   in.Description,
		Status:        model.IncidentPending,
	})
	if err != nil {
		return Report{}, fmt.Errorf("persist incident: %w", err)
	}
	log := e.log.With().Uint64("incident_id", inc.ID).Uint64("user_id", actor.UserID).Logger()

	lat, lon, ok := inc.Location()
	if !ok {
		log.Info().Msg("incident without location left pending")
		e.observeDispatch("no_location")
		return Report{Incident: inc, Fallback: e.policy.Fallback()}, nil
	}

	lost := map[uint64]bool{}
	for attempt := 1; attempt <= e.policy.ClaimAttempts; attempt++ {
		pool, err := e.store.ListAvailableAmbulances(ctx)
		if err != nil {
			return Report{}, fmt.Errorf("list available ambulances: %w", err)
		}
		candidates := make([]model.Ambulance, 0, len(pool))
		for _, a := range pool {
			if a.Status == model.AmbulanceAvailable && !lost[a.ID] {
				candidates = append(candidates, a)
			}
		}
		amb, found := NearestAvailable(candidates, lat, lon)
		if !found {
			break
		}

		assigned, claimed, err := e.store.AssignAmbulance(ctx, inc.ID, amb.ID, e.now())
		if errors.Is(err, ErrAmbulanceTaken) {
			log.Warn().Uint64("ambulance_id", amb.ID).Int("attempt", attempt).Msg("ambulance claimed concurrently")
			e.observeDispatch("claim_conflict")
			lost[amb.ID] = true
			continue
		}
		if err != nil {
			return Report{}, fmt.Errorf("assign ambulance: %w", err)
		}

		log.Info().Uint64("ambulance_id", claimed.ID).Msg("ambulance dispatched")
		e.observeDispatch("assigned")
		if e.notifier != nil {
			if err := e.notifier.IncidentDispatched(ctx, assigned, claimed); err != nil {
				log.Warn().Err(err).Msg("publish dispatch event")
			}
		}
		return Report{Incident: assigned, Ambulance: &claimed}, nil
	}

	log.Info().Msg("no ambulance available")
	e.observeDispatch("no_candidate")
	return Report{Incident: inc, Fallback: e.policy.Fallback()}, nil
}

// GetIncident returns an incident to its requester or to the operator of the
// assigned ambulance.
func (e *Engine) GetIncident(ctx context.Context, actor session.Identity, id uint64) (model.Incident, error) {
	inc, err := e.store.GetIncident(ctx, id)
	if err != nil {
		return model.Incident{}, err
	}
	if inc.UserID == actor.UserID {
		return inc, nil
	}
	if actor.Role == model.RoleAmbulance && e.operates(ctx, actor, inc) {
		return inc, nil
	}
	return model.Incident{}, apperr.ErrAuthorizationDenied
}

// ListIncidents returns the actor's own incidents, newest first.
func (e *Engine) ListIncidents(ctx context.Context, actor session.Identity) ([]model.Incident, error) {
	return e.store.ListIncidentsByUser(ctx, actor.UserID)
}

// AdvanceIncident moves an incident one step forward. Only the operator of
// the assigned ambulance may do this; requesters have read access only.
func (e *Engine) AdvanceIncident(ctx context.Context, actor session.Identity, id uint64, to model.IncidentStatus) (model.Incident, error) {
	if err := session.RequireRole(actor, model.RoleAmbulance); err != nil {
		return model.Incident{}, err
	}
	if !to.Valid() {
		return model.Incident{}, apperr.Validation("status", "must be dispatched, arrived or completed")
	}
	inc, err := e.store.GetIncident(ctx, id)
	if err != nil {
		return model.Incident{}, err
	}
	if !e.operates(ctx, actor, inc) {
		return model.Incident{}, apperr.ErrAuthorizationDenied
	}
	if !inc.Status.CanAdvanceTo(to) {
		return model.Incident{}, fmt.Errorf("incident %d %s -> %s: %w", id, inc.Status, to, apperr.ErrConflict)
	}

	updated, err := e.store.AdvanceIncident(ctx, id, inc.Status, to, e.now())
	if err != nil {
		return model.Incident{}, err
	}
	e.log.Info().Uint64("incident_id", id).Str("status", string(to)).Msg("incident advanced")
	if e.notifier != nil {
		if err := e.notifier.IncidentStatusChanged(ctx, updated); err != nil {
			e.log.Warn().Err(err).Uint64("incident_id", id).Msg("publish status event")
		}
	}
	return updated, nil
}

func (e *Engine) operates(ctx context.Context, actor session.Identity, inc model.Incident) bool {
	if inc.AssignedAmbulanceID == nil {
		return false
	}
	amb, err := e.store.AmbulanceByUser(ctx, actor.UserID)
	return err == nil && amb.ID == *inc.AssignedAmbulanceID
}
