package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/careguardian/careguardian-api/internal/apperr"
	"github.com/careguardian/careguardian-api/internal/model"
	"github.com/careguardian/careguardian-api/internal/session"
)

// BookingInput is a scheduled transport request for a named ambulance.
type BookingInput struct {
	AmbulanceID      uint64
	PickupAddress    string
	PickupLatitude   *float64
	PickupLongitude  *float64
	DropoffAddress   string
	PatientName      string
	PatientPhone     string
	MedicalCondition string
	ScheduledTime    *time.Time
}

func (in BookingInput) validate() error {
	switch {
	case in.AmbulanceID == 0:
		return apperr.Validation("ambulance_id", "required")
	case strings.TrimSpace(in.PickupAddress) == "":
		return apperr.Validation("pickup_address", "required")
	case strings.TrimSpace(in.PatientName) == "":
		return apperr.Validation("patient_name", "required")
	case strings.TrimSpace(in.PatientPhone) == "":
		return apperr.Validation("patient_phone", "required")
	case (in.PickupLatitude == nil) != (in.PickupLongitude == nil):
		return apperr.Validation("pickup_location", "latitude and longitude must be given together")
	}
	if in.PickupLatitude != nil {
		return ValidateCoordinates(*in.PickupLatitude, *in.PickupLongitude)
	}
	return nil
}

// CreateBooking books a named ambulance. The booking starts pending and does
// not touch the ambulance's availability flag.
func (e *Engine) CreateBooking(ctx context.Context, actor session.Identity, in BookingInput) (model.AmbulanceBooking, error) {
	if actor.UserID == 0 {
		return model.AmbulanceBooking{}, apperr.ErrAuthenticationRequired
	}
	if err := in.validate(); err != nil {
		return model.AmbulanceBooking{}, err
	}
	if _, err := e.store.GetAmbulance(ctx, in.AmbulanceID); err != nil {
		return model.AmbulanceBooking{}, fmt.Errorf("ambulance %d: %w", in.AmbulanceID, err)
	}
	return e.store.CreateBooking(ctx, model.AmbulanceBooking{
		UserID:           actor.UserID,
		AmbulanceID:      in.AmbulanceID,
		PickupAddress:    strings.TrimSpace(in.PickupAddress),
		PickupLatitude:   in.PickupLatitude,
		PickupLongitude:  in.PickupLongitude,
		DropoffAddress:   strings.TrimSpace(in.DropoffAddress),
		PatientName:      strings.TrimSpace(in.PatientName),
		PatientPhone:     strings.TrimSpace(in.PatientPhone),
		MedicalCondition: in.MedicalCondition,
		Status:           model.BookingPending,
		ScheduledTime:    in.ScheduledTime,
	})
}

func (e *Engine) ListBookings(ctx context.Context, actor session.Identity) ([]model.AmbulanceBooking, error) {
	return e.store.ListBookingsByUser(ctx, actor.UserID)
}

// ListAmbulanceBookings lists bookings against the operator's own ambulance.
func (e *Engine) ListAmbulanceBookings(ctx context.Context, actor session.Identity) ([]model.AmbulanceBooking, error) {
	amb, err := e.MyAmbulance(ctx, actor)
	if err != nil {
		return nil, err
	}
	return e.store.ListBookingsByAmbulance(ctx, amb.ID)
}

func (e *Engine) AcceptBooking(ctx context.Context, actor session.Identity, id uint64) (model.AmbulanceBooking, error) {
	return e.advanceBooking(ctx, actor, id, model.BookingAccepted)
}

func (e *Engine) CompleteBooking(ctx context.Context, actor session.Identity, id uint64) (model.AmbulanceBooking, error) {
	return e.advanceBooking(ctx, actor, id, model.BookingCompleted)
}

func (e *Engine) advanceBooking(ctx context.Context, actor session.Identity, id uint64, to model.BookingStatus) (model.AmbulanceBooking, error) {
	amb, err := e.MyAmbulance(ctx, actor)
	if err != nil {
		return model.AmbulanceBooking{}, err
	}
	b, err := e.store.GetBooking(ctx, id)
	if err != nil {
		return model.AmbulanceBooking{}, err
	}
	if b.AmbulanceID != amb.ID {
		return model.AmbulanceBooking{}, apperr.ErrAuthorizationDenied
	}
	if !b.Status.CanAdvanceTo(to) {
		return model.AmbulanceBooking{}, fmt.Errorf("booking %d %s -> %s: %w", id, b.Status, to, apperr.ErrConflict)
	}
	return e.store.AdvanceBooking(ctx, id, b.Status, to, e.now())
}
