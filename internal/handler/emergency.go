package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/careguardian/careguardian-api/internal/dispatch"
	"github.com/careguardian/careguardian-api/internal/model"
)

// DispatchHandler serves emergency intake, proximity search, the fleet and
// bookings. It only decodes requests and encodes results; role and ownership
// checks and every state change happen in the Engine, and errors reach the
// client through respondError.
type DispatchHandler struct {
	Engine *dispatch.Engine
	Log    zerolog.Logger
}

func NewDispatchHandler(engine *dispatch.Engine, log zerolog.Logger) *DispatchHandler {
	return &DispatchHandler{Engine: engine, Log: log}
}

type emergencyReq struct {
	Latitude      Coordinate `json:"latitude"`
	Longitude     Coordinate `json:"longitude"`
	Address       string     `json:"address"`
	EmergencyType string     `json:"emergency_type"`
	Description   string     `json:"description"`
}

// ReportEmergency answers 201 whether or not an ambulance was assigned; an
// unassigned report carries the fallback instruction.
func (h *DispatchHandler) ReportEmergency(c echo.Context) error {
	var req emergencyReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	lat, err := req.Latitude.Optional("latitude")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	lon, err := req.Longitude.Optional("longitude")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	rep, err := h.Engine.ReportEmergency(ctx, identity(c), dispatch.ReportInput{
		Latitude: lat, Longitude: lon, Address: req.Address,
		EmergencyType: req.EmergencyType, Description: req.Description,
	})
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, rep)
}

func (h *DispatchHandler) ListIncidents(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Engine.ListIncidents(ctx, identity(c))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if list == nil {
		list = []model.Incident{}
	}
	return c.JSON(http.StatusOK, list)
}

func (h *DispatchHandler) GetIncident(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	inc, err := h.Engine.GetIncident(ctx, identity(c), id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, inc)
}

type statusReq struct {
	Status string `json:"status"`
}

// AdvanceIncident is called by the assigned ambulance operator.
func (h *DispatchHandler) AdvanceIncident(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	var req statusReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	inc, err := h.Engine.AdvanceIncident(ctx, identity(c), id, model.IncidentStatus(req.Status))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, inc)
}

type searchReq struct {
	Latitude    Coordinate `json:"latitude"`
	Longitude   Coordinate `json:"longitude"`
	MaxDistance Coordinate `json:"max_distance"`
	Mode        string     `json:"mode"`
	City        string     `json:"city"`
}

// query reads the hospital search. Coordinates are optional here; the
// engine decides between city, proximity and full directory.
func (r searchReq) query() (dispatch.SearchQuery, error) {
	var q dispatch.SearchQuery
	var err error
	if q.Latitude, err = r.Latitude.Optional("latitude"); err != nil {
		return q, err
	}
	if q.Longitude, err = r.Longitude.Optional("longitude"); err != nil {
		return q, err
	}
	maxKm, err := r.MaxDistance.Optional("max_distance")
	if err != nil {
		return q, err
	}
	if maxKm != nil {
		q.MaxDistanceKm = *maxKm
	}
	if q.Mode, err = dispatch.ParseMode(r.Mode); err != nil {
		return q, err
	}
	q.City = r.City
	return q, nil
}

// SearchHospitals accepts a city, a point with optional max_distance, or
// nothing for the full directory.
func (h *DispatchHandler) SearchHospitals(c echo.Context) error {
	var req searchReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	q, err := req.query()
	if err != nil {
		return respondError(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Engine.SearchHospitals(ctx, q)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, res)
}

// SearchAmbulances always uses the mode's radius.
func (h *DispatchHandler) SearchAmbulances(c echo.Context) error {
	var req searchReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	lat, lon, err := point(req.Latitude, req.Longitude)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	mode, err := dispatch.ParseMode(req.Mode)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Engine.SearchAmbulances(ctx, lat, lon, mode)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, res)
}
