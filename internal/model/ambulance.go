package model

// AmbulanceStatus is the coarse availability flag of an ambulance. It only
// changes through the dispatch engine's transition operations.
type AmbulanceStatus string

const (
	AmbulanceAvailable   AmbulanceStatus = "available"
	AmbulanceDispatched  AmbulanceStatus = "dispatched"
	AmbulanceUnavailable AmbulanceStatus = "unavailable"
)

// ambulanceTransitions lists the states an operator may move to from each
// state. Claiming for an emergency is a separate conditional update.
var ambulanceTransitions = map[AmbulanceStatus][]AmbulanceStatus{
	AmbulanceAvailable:   {AmbulanceDispatched, AmbulanceUnavailable},
	AmbulanceDispatched:  {AmbulanceAvailable},
	AmbulanceUnavailable: {AmbulanceAvailable},
}

// Valid reports whether s is a known availability state.
func (s AmbulanceStatus) Valid() bool {
	_, ok := ambulanceTransitions[s]
	return ok
}

// PriorStates returns the states from which an operator may move to s.
func (s AmbulanceStatus) PriorStates() []AmbulanceStatus {
	var out []AmbulanceStatus
	for from, tos := range ambulanceTransitions {
		for _, to := range tos {
			if to == s {
				out = append(out, from)
			}
		}
	}
	return out
}

// Ambulance mirrors the `ambulances` table. UserID links the vehicle to the
// operator account (role ambulance) that drives it.
type Ambulance struct {
	ID            uint64          `json:"id"`
	UserID        *uint64         `json:"user_id,omitempty"`
	VehicleNumber string          `json:"vehicle_number"`
	HospitalID    *uint64         `json:"hospital_id,omitempty"`
	Latitude      *float64        `json:"current_latitude"`
	Longitude     *float64        `json:"current_longitude"`
	Status        AmbulanceStatus `json:"status"`
	DriverName    string          `json:"driver_name,omitempty"`
	DriverPhone   string          `json:"driver_phone,omitempty"`
}

func (a Ambulance) Location() (float64, float64, bool) {
	return coords(a.Latitude, a.Longitude)
}

// OperatedBy reports whether userID is the ambulance's operator.
func (a Ambulance) OperatedBy(userID uint64) bool {
	return a.UserID != nil && *a.UserID == userID
}
