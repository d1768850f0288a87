package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/careguardian/careguardian-api/internal/model"
)

const hospitalColumns = "id, name, address, city, state, phone, latitude, longitude, emergency_services, user_id, created_at"

// HospitalRepo reads and seeds the hospital directory.
type HospitalRepo struct{ DB *sql.DB }

func NewHospitalRepo(db *sql.DB) *HospitalRepo { return &HospitalRepo{DB: db} }

func (r *HospitalRepo) ListHospitals(ctx context.Context) ([]model.Hospital, error) {
	return r.query(ctx, "SELECT "+hospitalColumns+" FROM hospitals ORDER BY name")
}

// HospitalsByCity matches the city case-insensitively.
func (r *HospitalRepo) HospitalsByCity(ctx context.Context, city string) ([]model.Hospital, error) {
	return r.query(ctx, "SELECT "+hospitalColumns+" FROM hospitals WHERE LOWER(city)=? ORDER BY name",
		strings.ToLower(strings.TrimSpace(city)))
}

func (r *HospitalRepo) GetHospital(ctx context.Context, id uint64) (model.Hospital, error) {
	return scanHospital(r.DB.QueryRowContext(ctx, "SELECT "+hospitalColumns+" FROM hospitals WHERE id=?", id))
}

func (r *HospitalRepo) HospitalByUser(ctx context.Context, userID uint64) (model.Hospital, error) {
	return scanHospital(r.DB.QueryRowContext(ctx,
		"SELECT "+hospitalColumns+" FROM hospitals WHERE user_id=? ORDER BY id LIMIT 1", userID))
}

func (r *HospitalRepo) SetHospitalLocation(ctx context.Context, id uint64, lat, lon float64) (model.Hospital, error) {
	if _, err := r.DB.ExecContext(ctx,
		"UPDATE hospitals SET latitude=?, longitude=? WHERE id=?", lat, lon, id); err != nil {
		return model.Hospital{}, err
	}
	return r.GetHospital(ctx, id)
}

// Count is used by seeding to skip populated tables.
func (r *HospitalRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM hospitals").Scan(&n)
	return n, err
}

func (r *HospitalRepo) Create(ctx context.Context, h model.Hospital) (model.Hospital, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO hospitals (name, address, city, state, phone, latitude, longitude, emergency_services, user_id) VALUES (?,?,?,?,?,?,?,?,?)",
		h.Name, h.Address, h.City, h.State, h.Phone, nullable(h.Latitude), nullable(h.Longitude), h.EmergencyServices, nullable(h.UserID))
	if err != nil {
		return model.Hospital{}, mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Hospital{}, err
	}
	return r.GetHospital(ctx, uint64(id))
}

func (r *HospitalRepo) query(ctx context.Context, q string, args ...any) ([]model.Hospital, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Hospital
	for rows.Next() {
		h, err := scanHospital(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func scanHospital(row rowScanner) (model.Hospital, error) {
	var (
		h        model.Hospital
		phone    sql.NullString
		lat, lon sql.NullFloat64
		userID   sql.NullInt64
	)
	if err := row.Scan(&h.ID, &h.Name, &h.Address, &h.City, &h.State, &phone, &lat, &lon, &h.EmergencyServices, &userID, &h.CreatedAt); err != nil {
		return model.Hospital{}, mapErr(err)
	}
	h.Phone = phone.String
	h.Latitude, h.Longitude = floatPtr(lat), floatPtr(lon)
	h.UserID = idPtr(userID)
	return h, nil
}
