package router

import (
	"github.com/labstack/echo/v4"

	"github.com/careguardian/careguardian-api/internal/handler"
)

// RegisterMember registers endpoints open to any authenticated role:
// emergency reporting, ambulance search and booking, and the assistant.
func RegisterMember(e *echo.Echo, d *handler.DispatchHandler, as *handler.AssistantHandler, g Guards) {
	v1 := e.Group("/v1", g.Auth, g.Limit)

	v1.POST("/emergency", d.ReportEmergency)
	v1.GET("/emergency", d.ListIncidents)
	v1.GET("/emergency/:id", d.GetIncident)

	v1.GET("/ambulances/available", d.ListAvailableAmbulances)
	v1.POST("/ambulances/search", d.SearchAmbulances)
	v1.POST("/ambulance-bookings", d.CreateBooking)
	v1.GET("/ambulance-bookings", d.ListBookings)

	v1.POST("/symptom-checks", as.CheckSymptoms)
	v1.GET("/symptom-checks", as.SymptomChecks)
	v1.GET("/symptom-checks/:id", as.SymptomCheck)
	v1.GET("/chat/history", as.ChatHistory)
	v1.POST("/chat/messages", as.ChatMessage)
}
