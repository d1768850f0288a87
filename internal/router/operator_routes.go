package router

import (
	"github.com/labstack/echo/v4"

	"github.com/careguardian/careguardian-api/internal/handler"
	"github.com/careguardian/careguardian-api/internal/middleware"
	"github.com/careguardian/careguardian-api/internal/model"
)

// RegisterOperator registers the ambulance crew and hospital endpoints.
// The role gate here is coarse; the engine still checks that an operator
// acts only on their own vehicle, bookings and incidents.
func RegisterOperator(e *echo.Echo, d *handler.DispatchHandler, g Guards) {
	amb := e.Group("/v1", g.Auth, middleware.RequireRole(model.RoleAmbulance), g.Limit)
	amb.GET("/ambulance/me", d.MyAmbulance)
	amb.PATCH("/ambulance/status", d.SetAmbulanceStatus)
	amb.PATCH("/ambulance/location", d.UpdateAmbulanceLocation)
	amb.GET("/ambulance/bookings", d.ListAmbulanceBookings)
	amb.PATCH("/ambulance/bookings/:id/accept", d.AcceptBooking)
	amb.PATCH("/ambulance/bookings/:id/complete", d.CompleteBooking)
	amb.PATCH("/emergency/:id/status", d.AdvanceIncident)

	hosp := e.Group("/v1", g.Auth, middleware.RequireRole(model.RoleHospital), g.Limit)
	hosp.GET("/hospitals/me", d.MyHospital)
	hosp.PATCH("/hospitals/me/location", d.UpdateHospitalLocation)
}
