package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/careguardian/careguardian-api/internal/apperr"
	"github.com/careguardian/careguardian-api/internal/database"
	"github.com/careguardian/careguardian-api/internal/dispatch"
	"github.com/careguardian/careguardian-api/internal/model"
)

const incidentColumns = "id, user_id, latitude, longitude, address, emergency_type, description, assigned_ambulance_id, assigned_hospital_id, status, dispatched_at, arrived_at, completed_at, created_at"

// IncidentRepo persists emergency incidents and owns the dispatch claim.
type IncidentRepo struct{ DB *sql.DB }

func NewIncidentRepo(db *sql.DB) *IncidentRepo { return &IncidentRepo{DB: db} }

func (r *IncidentRepo) CreateIncident(ctx context.Context, inc model.Incident) (model.Incident, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO emergency_incidents (user_id, latitude, longitude, address, emergency_type, description, status) VALUES (?,?,?,?,?,?,?)",
		inc.UserID, nullable(inc.Latitude), nullable(inc.Longitude), inc.Address, inc.EmergencyType, inc.Description, string(model.IncidentPending))
	if err != nil {
		return model.Incident{}, mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Incident{}, err
	}
	return r.GetIncident(ctx, uint64(id))
}

func (r *IncidentRepo) GetIncident(ctx context.Context, id uint64) (model.Incident, error) {
	return getIncident(ctx, r.DB, id)
}

func (r *IncidentRepo) ListIncidentsByUser(ctx context.Context, userID uint64) ([]model.Incident, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+incidentColumns+" FROM emergency_incidents WHERE user_id=? ORDER BY created_at DESC, id DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Incident
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inc)
	}
	return out, rows.Err()
}

// AssignAmbulance claims the ambulance and dispatches the incident in one
// transaction. The ambulance UPDATE is guarded on status='available', so of
// two concurrent claims exactly one sees a row affected.
func (r *IncidentRepo) AssignAmbulance(ctx context.Context, incidentID, ambulanceID uint64, at time.Time) (model.Incident, model.Ambulance, error) {
	var (
		inc model.Incident
		amb model.Ambulance
	)
	err := database.WithTx(ctx, r.DB, func(ctx context.Context, tx database.DBTX) error {
		n, err := affected(tx.ExecContext(ctx,
			"UPDATE ambulances SET status=? WHERE id=? AND status=?",
			string(model.AmbulanceDispatched), ambulanceID, string(model.AmbulanceAvailable)))
		if err != nil {
			return err
		}
		if n == 0 {
			return dispatch.ErrAmbulanceTaken
		}

		n, err = affected(tx.ExecContext(ctx,
			"UPDATE emergency_incidents SET status=?, assigned_ambulance_id=?, dispatched_at=COALESCE(dispatched_at, ?) WHERE id=? AND status=?",
			string(model.IncidentDispatched), ambulanceID, at.UTC(), incidentID, string(model.IncidentPending)))
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("incident %d is not pending: %w", incidentID, apperr.ErrConflict)
		}

		if inc, err = getIncident(ctx, tx, incidentID); err != nil {
			return err
		}
		amb, err = getAmbulance(ctx, tx, ambulanceID)
		return err
	})
	if err != nil {
		return model.Incident{}, model.Ambulance{}, err
	}
	return inc, amb, nil
}

// AdvanceIncident applies from -> to. The target's timestamp column is only
// written when still NULL. On completion the assigned ambulance goes back to
// available if it is still dispatched.
func (r *IncidentRepo) AdvanceIncident(ctx context.Context, id uint64, from, to model.IncidentStatus, at time.Time) (model.Incident, error) {
	col := to.TimestampColumn()
	if col == "" {
		return model.Incident{}, apperr.Validation("status", "unknown incident status")
	}
	q := fmt.Sprintf("UPDATE emergency_incidents SET status=?, %[1]s=COALESCE(%[1]s, ?) WHERE id=? AND status=?", col)

	var out model.Incident
	err := database.WithTx(ctx, r.DB, func(ctx context.Context, tx database.DBTX) error {
		n, err := affected(tx.ExecContext(ctx, q, string(to), at.UTC(), id, string(from)))
		if err != nil {
			return err
		}
		if n == 0 {
			if _, err := getIncident(ctx, tx, id); err != nil {
				return err
			}
			return fmt.Errorf("incident %d is not %s: %w", id, from, apperr.ErrConflict)
		}
		if out, err = getIncident(ctx, tx, id); err != nil {
			return err
		}
		if to == model.IncidentCompleted && out.AssignedAmbulanceID != nil {
			_, err = tx.ExecContext(ctx,
				"UPDATE ambulances SET status=? WHERE id=? AND status=?",
				string(model.AmbulanceAvailable), *out.AssignedAmbulanceID, string(model.AmbulanceDispatched))
		}
		return err
	})
	if err != nil {
		return model.Incident{}, err
	}
	return out, nil
}

func affected(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func getIncident(ctx context.Context, db database.DBTX, id uint64) (model.Incident, error) {
	return scanIncident(db.QueryRowContext(ctx, "SELECT "+incidentColumns+" FROM emergency_incidents WHERE id=?", id))
}

func scanIncident(row rowScanner) (model.Incident, error) {
	var (
		inc                       model.Incident
		status                    string
		lat, lon                  sql.NullFloat64
		address, kind, desc       sql.NullString
		ambulanceID, hospitalID   sql.NullInt64
		dispatched, arrived, done sql.NullTime
	)
	if err := row.Scan(&inc.ID, &inc.UserID, &lat, &lon, &address, &kind, &desc, &ambulanceID, &hospitalID,
		&status, &dispatched, &arrived, &done, &inc.CreatedAt); err != nil {
		return model.Incident{}, mapErr(err)
	}
	inc.Latitude, inc.Longitude = floatPtr(lat), floatPtr(lon)
	inc.Address, inc.EmergencyType, inc.Description = address.String, kind.String, desc.String
	inc.AssignedAmbulanceID, inc.AssignedHospitalID = idPtr(ambulanceID), idPtr(hospitalID)
	inc.Status = model.IncidentStatus(status)
	inc.DispatchedAt, inc.ArrivedAt, inc.CompletedAt = timePtr(dispatched), timePtr(arrived), timePtr(done)
	return inc, nil
}
