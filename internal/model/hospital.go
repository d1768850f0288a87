package model

import "time"

// Hospital mirrors the `hospitals` table. Coordinates are nullable; a
// hospital without both is listed in the directory but never ranked.
type Hospital struct {
	ID                uint64    `json:"id"`
	Name              string    `json:"name"`
	Address           string    `json:"address"`
	City              string    `json:"city"`
	State             string    `json:"state"`
	Phone             string    `json:"phone,omitempty"`
	Latitude          *float64  `json:"latitude"`
	Longitude         *float64  `json:"longitude"`
	EmergencyServices bool      `json:"emergency_services"`
	UserID            *uint64   `json:"user_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

func (h Hospital) Location() (float64, float64, bool) {
	return coords(h.Latitude, h.Longitude)
}

func coords(lat, lon *float64) (float64, float64, bool) {
	if lat == nil || lon == nil {
		return 0, 0, false
	}
	return *lat, *lon, true
}
