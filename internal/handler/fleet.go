package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/careguardian/careguardian-api/internal/model"
)

// ListHospitals accepts an optional ?city= filter.
func (h *DispatchHandler) ListHospitals(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Engine.ListHospitals(ctx, c.QueryParam("city"))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if list == nil {
		list = []model.Hospital{}
	}
	return c.JSON(http.StatusOK, list)
}

func (h *DispatchHandler) GetHospital(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	hosp, err := h.Engine.GetHospital(ctx, id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, hosp)
}

func (h *DispatchHandler) MyHospital(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	hosp, err := h.Engine.MyHospital(ctx, identity(c))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, hosp)
}

func (h *DispatchHandler) ListAvailableAmbulances(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	list, err := h.Engine.ListAvailableAmbulances(ctx)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if list == nil {
		list = []model.Ambulance{}
	}
	return c.JSON(http.StatusOK, list)
}

func (h *DispatchHandler) MyAmbulance(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	amb, err := h.Engine.MyAmbulance(ctx, identity(c))
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, amb)
}

func (h *DispatchHandler) SetAmbulanceStatus(c echo.Context) error {
	var req statusReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	amb, err := h.Engine.SetAmbulanceStatus(ctx, identity(c), req.Status)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, amb)
}

type locationReq struct {
	Latitude  Coordinate `json:"latitude"`
	Longitude Coordinate `json:"longitude"`
}

// UpdateHospitalLocation places the caller's hospital on the map.
func (h *DispatchHandler) UpdateHospitalLocation(c echo.Context) error {
	var req locationReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	lat, lon, err := point(req.Latitude, req.Longitude)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	hosp, err := h.Engine.UpdateHospitalLocation(ctx, identity(c), lat, lon)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, hosp)
}

func (h *DispatchHandler) UpdateAmbulanceLocation(c echo.Context) error {
	var req locationReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	lat, lon, err := point(req.Latitude, req.Longitude)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	amb, err := h.Engine.UpdateAmbulanceLocation(ctx, identity(c), lat, lon)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, amb)
}
