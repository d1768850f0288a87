package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/careguardian/careguardian-api/internal/apperr"
	"github.com/careguardian/careguardian-api/internal/dispatch"
	"github.com/careguardian/careguardian-api/internal/model"
	"github.com/careguardian/careguardian-api/internal/session"
)

type bookingReq struct {
	AmbulanceID      uint64     `json:"ambulance_id"`
	PickupAddress    string     `json:"pickup_address"`
	PickupLatitude   Coordinate `json:"pickup_latitude"`
	PickupLongitude  Coordinate `json:"pickup_longitude"`
	DropoffAddress   string     `json:"dropoff_address"`
	PatientName      string     `json:"patient_name"`
	PatientPhone     string     `json:"patient_phone"`
	MedicalCondition string     `json:"medical_condition"`
	ScheduledTime    string     `json:"scheduled_time"`
}

func (r bookingReq) input() (dispatch.BookingInput, error) {
	in := dispatch.BookingInput{
		AmbulanceID: r.AmbulanceID, PickupAddress: r.PickupAddress, DropoffAddress: r.DropoffAddress,
		PatientName: r.PatientName, PatientPhone: r.PatientPhone, MedicalCondition: r.MedicalCondition,
	}
	var err error
	if in.PickupLatitude, err = r.PickupLatitude.Optional("pickup_latitude"); err != nil {
		return in, err
	}
	if in.PickupLongitude, err = r.PickupLongitude.Optional("pickup_longitude"); err != nil {
		return in, err
	}
	if r.ScheduledTime != "" {
		t, err := time.Parse(time.RFC3339, r.ScheduledTime)
		if err != nil {
			return in, apperr.Validation("scheduled_time", "must be an RFC 3339 timestamp")
		}
		in.ScheduledTime = &t
	}
	return in, nil
}

func (h *DispatchHandler) CreateBooking(c echo.Context) error {
	var req bookingReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	in, err := req.input()
	if err != nil {
		return respondError(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Engine.CreateBooking(ctx, identity(c), in)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, b)
}

func (h *DispatchHandler) ListBookings(c echo.Context) error {
	return h.list(c, h.Engine.ListBookings)
}

// ListAmbulanceBookings lists bookings for the caller's own ambulance.
func (h *DispatchHandler) ListAmbulanceBookings(c echo.Context) error {
	return h.list(c, h.Engine.ListAmbulanceBookings)
}

func (h *DispatchHandler) AcceptBooking(c echo.Context) error {
	return h.advance(c, h.Engine.AcceptBooking)
}

func (h *DispatchHandler) CompleteBooking(c echo.Context) error {
	return h.advance(c, h.Engine.CompleteBooking)
}

type bookingLister func(ctx context.Context, actor session.Identity) ([]model.AmbulanceBooking, error)

func (h *DispatchHandler) list(c echo.Context, fn bookingLister) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := fn(ctx, identity(c))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if list == nil {
		list = []model.AmbulanceBooking{}
	}
	return c.JSON(http.StatusOK, list)
}

type bookingStep func(ctx context.Context, actor session.Identity, id uint64) (model.AmbulanceBooking, error)

func (h *DispatchHandler) advance(c echo.Context, fn bookingStep) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := fn(ctx, identity(c), id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}
