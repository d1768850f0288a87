package repository

import (
	"database/sql"

	"github.com/careguardian/careguardian-api/internal/dispatch"
)

// DispatchStore bundles the MySQL repositories behind dispatch.Store.
type DispatchStore struct {
	*HospitalRepo
	*AmbulanceRepo
	*IncidentRepo
	*BookingRepo
}

var _ dispatch.Store = (*DispatchStore)(nil)

func NewDispatchStore(db *sql.DB) *DispatchStore {
	return &DispatchStore{
		HospitalRepo:  NewHospitalRepo(db),
		AmbulanceRepo: NewAmbulanceRepo(db),
		IncidentRepo:  NewIncidentRepo(db),
		BookingRepo:   NewBookingRepo(db),
	}
}
