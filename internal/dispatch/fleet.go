package dispatch

import (
	"context"
	"fmt"
	"strings"

	"github.com/careguardian/careguardian-api/internal/apperr"
	"github.com/careguardian/careguardian-api/internal/model"
	"github.com/careguardian/careguardian-api/internal/session"
)

// ListHospitals returns the directory, optionally narrowed to one city.
func (e *Engine) ListHospitals(ctx context.Context, city string) ([]model.Hospital, error) {
	if city = strings.TrimSpace(city); city != "" {
		return e.store.HospitalsByCity(ctx, city)
	}
	return e.store.ListHospitals(ctx)
}

func (e *Engine) GetHospital(ctx context.Context, id uint64) (model.Hospital, error) {
	return e.store.GetHospital(ctx, id)
}

// MyHospital returns the hospital operated by a hospital-role account.
func (e *Engine) MyHospital(ctx context.Context, actor session.Identity) (model.Hospital, error) {
	if err := session.RequireRole(actor, model.RoleHospital); err != nil {
		return model.Hospital{}, err
	}
	return e.store.HospitalByUser(ctx, actor.UserID)
}

// UpdateHospitalLocation places the caller's hospital on the map so it is
// found by proximity search.
func (e *Engine) UpdateHospitalLocation(ctx context.Context, actor session.Identity, lat, lon float64) (model.Hospital, error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return model.Hospital{}, err
	}
	h, err := e.MyHospital(ctx, actor)
	if err != nil {
		return model.Hospital{}, err
	}
	updated, err := e.store.SetHospitalLocation(ctx, h.ID, lat, lon)
	if err != nil {
		return model.Hospital{}, fmt.Errorf("hospital %d location: %w", h.ID, err)
	}
	e.log.Info().Uint64("hospital_id", h.ID).Msg("hospital location set")
	return updated, nil
}

func (e *Engine) ListAvailableAmbulances(ctx context.Context) ([]model.Ambulance, error) {
	return e.store.ListAvailableAmbulances(ctx)
}

// MyAmbulance returns the ambulance driven by an ambulance-role account.
func (e *Engine) MyAmbulance(ctx context.Context, actor session.Identity) (model.Ambulance, error) {
	if err := session.RequireRole(actor, model.RoleAmbulance); err != nil {
		return model.Ambulance{}, err
	}
	return e.store.AmbulanceByUser(ctx, actor.UserID)
}

// SetAmbulanceStatus applies an operator availability change. The store only
// writes when the current status is a legal predecessor of the target, so a
// concurrent emergency claim is never overwritten blindly.
func (e *Engine) SetAmbulanceStatus(ctx context.Context, actor session.Identity, status string) (model.Ambulance, error) {
	to := model.AmbulanceStatus(strings.ToLower(strings.TrimSpace(status)))
	if !to.Valid() {
		return model.Ambulance{}, apperr.Validation("status", "must be available, dispatched or unavailable")
	}
	amb, err := e.MyAmbulance(ctx, actor)
	if err != nil {
		return model.Ambulance{}, err
	}
	if amb.Status == to {
		return amb, nil
	}
	updated, err := e.store.SetAmbulanceStatus(ctx, amb.ID, to, to.PriorStates())
	if err != nil {
		return model.Ambulance{}, fmt.Errorf("ambulance %d %s -> %s: %w", amb.ID, amb.Status, to, err)
	}
	e.log.Info().Uint64("ambulance_id", amb.ID).Str("status", string(to)).Msg("availability changed")
	return updated, nil
}

// UpdateAmbulanceLocation records the operator's current position.
func (e *Engine) UpdateAmbulanceLocation(ctx context.Context, actor session.Identity, lat, lon float64) (model.Ambulance, error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return model.Ambulance{}, err
	}
	amb, err := e.MyAmbulance(ctx, actor)
	if err != nil {
		return model.Ambulance{}, err
	}
	return e.store.SetAmbulanceLocation(ctx, amb.ID, lat, lon)
}
