package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/careguardian/careguardian-api/internal/apperr"
	"github.com/careguardian/careguardian-api/internal/database"
	"github.com/careguardian/careguardian-api/internal/model"
)

const ambulanceColumns = "id, user_id, vehicle_number, hospital_id, current_latitude, current_longitude, status, driver_name, driver_phone"

// AmbulanceRepo reads the fleet and applies operator updates. Status changes
// are conditional UPDATEs so concurrent writers cannot skip a state.
type AmbulanceRepo struct{ DB *sql.DB }

func NewAmbulanceRepo(db *sql.DB) *AmbulanceRepo { return &AmbulanceRepo{DB: db} }

func (r *AmbulanceRepo) ListAvailableAmbulances(ctx context.Context) ([]model.Ambulance, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+ambulanceColumns+" FROM ambulances WHERE status=? ORDER BY id", string(model.AmbulanceAvailable))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Ambulance
	for rows.Next() {
		a, err := scanAmbulance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AmbulanceRepo) GetAmbulance(ctx context.Context, id uint64) (model.Ambulance, error) {
	return getAmbulance(ctx, r.DB, id)
}

func (r *AmbulanceRepo) AmbulanceByUser(ctx context.Context, userID uint64) (model.Ambulance, error) {
	return scanAmbulance(r.DB.QueryRowContext(ctx,
		"SELECT "+ambulanceColumns+" FROM ambulances WHERE user_id=? LIMIT 1", userID))
}

// SetAmbulanceStatus moves the ambulance to `to` only while its status is one
// of from. A missing row is ErrNotFound and a stale status is ErrConflict.
func (r *AmbulanceRepo) SetAmbulanceStatus(ctx context.Context, id uint64, to model.AmbulanceStatus, from []model.AmbulanceStatus) (model.Ambulance, error) {
	if len(from) == 0 {
		return model.Ambulance{}, apperr.ErrConflict
	}
	args := []any{string(to), id}
	for _, f := range from {
		args = append(args, string(f))
	}
	q := "UPDATE ambulances SET status=? WHERE id=? AND status IN (?" + strings.Repeat(",?", len(from)-1) + ")"

	var out model.Ambulance
	err := database.WithTx(ctx, r.DB, func(ctx context.Context, tx database.DBTX) error {
		res, err := tx.ExecContext(ctx, q, args...)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		out, err = getAmbulance(ctx, tx, id)
		if err != nil {
			return err
		}
		if n == 0 {
			return apperr.ErrConflict
		}
		return nil
	})
	if err != nil {
		return model.Ambulance{}, err
	}
	return out, nil
}

func (r *AmbulanceRepo) SetAmbulanceLocation(ctx context.Context, id uint64, lat, lon float64) (model.Ambulance, error) {
	if _, err := r.DB.ExecContext(ctx,
		"UPDATE ambulances SET current_latitude=?, current_longitude=? WHERE id=?", lat, lon, id); err != nil {
		return model.Ambulance{}, err
	}
	return r.GetAmbulance(ctx, id)
}

func (r *AmbulanceRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM ambulances").Scan(&n)
	return n, err
}

func (r *AmbulanceRepo) Create(ctx context.Context, a model.Ambulance) (model.Ambulance, error) {
	if a.Status == "" {
		a.Status = model.AmbulanceAvailable
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO ambulances (user_id, vehicle_number, hospital_id, current_latitude, current_longitude, status, driver_name, driver_phone) VALUES (?,?,?,?,?,?,?,?)",
		nullable(a.UserID), a.VehicleNumber, nullable(a.HospitalID), nullable(a.Latitude), nullable(a.Longitude), string(a.Status), a.DriverName, a.DriverPhone)
	if err != nil {
		return model.Ambulance{}, mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Ambulance{}, err
	}
	return r.GetAmbulance(ctx, uint64(id))
}

func getAmbulance(ctx context.Context, db database.DBTX, id uint64) (model.Ambulance, error) {
	return scanAmbulance(db.QueryRowContext(ctx, "SELECT "+ambulanceColumns+" FROM ambulances WHERE id=?", id))
}

func scanAmbulance(row rowScanner) (model.Ambulance, error) {
	var (
		a                  model.Ambulance
		status             string
		userID, hospitalID sql.NullInt64
		lat, lon           sql.NullFloat64
		name, phone        sql.NullString
	)
	if err := row.Scan(&a.ID, &userID, &a.VehicleNumber, &hospitalID, &lat, &lon, &status, &name, &phone); err != nil {
		return model.Ambulance{}, mapErr(err)
	}
	a.UserID, a.HospitalID = idPtr(userID), idPtr(hospitalID)
	a.Latitude, a.Longitude = floatPtr(lat), floatPtr(lon)
	a.Status = model.AmbulanceStatus(status)
	a.DriverName, a.DriverPhone = name.String, phone.String
	return a, nil
}
