package model

import "time"

// BookingStatus runs parallel to the ambulance availability flag.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingAccepted  BookingStatus = "accepted"
	BookingCompleted BookingStatus = "completed"
)

// CanAdvanceTo reports whether to directly follows s.
func (s BookingStatus) CanAdvanceTo(to BookingStatus) bool {
	return (s == BookingPending && to == BookingAccepted) ||
		(s == BookingAccepted && to == BookingCompleted)
}

// TimestampColumn names the column stamped on entering s. Acceptance is when
// the crew is dispatched.
func (s BookingStatus) TimestampColumn() string {
	switch s {
	case BookingAccepted:
		return "dispatched_at"
	case BookingCompleted:
		return "completed_at"
	}
	return ""
}

// AmbulanceBooking mirrors the `ambulance_bookings` table: a scheduled,
// non-emergency transport request against a named ambulance.
type AmbulanceBooking struct {
	ID               uint64        `json:"id"`
	UserID           uint64        `json:"user_id"`
	AmbulanceID      uint64        `json:"ambulance_id"`
	PickupAddress    string        `json:"pickup_address"`
	PickupLatitude   *float64      `json:"pickup_latitude"`
	PickupLongitude  *float64      `json:"pickup_longitude"`
	DropoffAddress   string        `json:"dropoff_address,omitempty"`
	PatientName      string        `json:"patient_name"`
	PatientPhone     string        `json:"patient_phone"`
	MedicalCondition string        `json:"medical_condition,omitempty"`
	Status           BookingStatus `json:"status"`
	ScheduledTime    *time.Time    `json:"scheduled_time"`
	DispatchedAt     *time.Time    `json:"dispatched_at"`
	CompletedAt      *time.Time    `json:"completed_at"`
	CreatedAt        time.Time     `json:"created_at"`
}
