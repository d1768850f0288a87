package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/careguardian/careguardian-api/internal/apperr"
	"github.com/careguardian/careguardian-api/internal/database"
	"github.com/careguardian/careguardian-api/internal/model"
)

const bookingColumns = "id, user_id, ambulance_id, pickup_address, pickup_latitude, pickup_longitude, dropoff_address, patient_name, patient_phone, medical_condition, status, scheduled_time, dispatched_at, completed_at, created_at"

type BookingRepo struct{ DB *sql.DB }

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{DB: db} }

func (r *BookingRepo) CreateBooking(ctx context.Context, b model.AmbulanceBooking) (model.AmbulanceBooking, error) {
	var scheduled any
	if b.ScheduledTime != nil {
		scheduled = b.ScheduledTime.UTC()
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO ambulance_bookings
		 (user_id, ambulance_id, pickup_address, pickup_latitude, pickup_longitude, dropoff_address, patient_name, patient_phone, medical_condition, status, scheduled_time)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		b.UserID, b.AmbulanceID, b.PickupAddress, nullable(b.PickupLatitude), nullable(b.PickupLongitude),
		b.DropoffAddress, b.PatientName, b.PatientPhone, b.MedicalCondition, string(model.BookingPending), scheduled)
	if err != nil {
		return model.AmbulanceBooking{}, mapErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.AmbulanceBooking{}, err
	}
	return r.GetBooking(ctx, uint64(id))
}

func (r *BookingRepo) GetBooking(ctx context.Context, id uint64) (model.AmbulanceBooking, error) {
	return getBooking(ctx, r.DB, id)
}

func (r *BookingRepo) ListBookingsByUser(ctx context.Context, userID uint64) ([]model.AmbulanceBooking, error) {
	return r.list(ctx, "SELECT "+bookingColumns+" FROM ambulance_bookings WHERE user_id=? ORDER BY created_at DESC, id DESC", userID)
}

func (r *BookingRepo) ListBookingsByAmbulance(ctx context.Context, ambulanceID uint64) ([]model.AmbulanceBooking, error) {
	return r.list(ctx, "SELECT "+bookingColumns+" FROM ambulance_bookings WHERE ambulance_id=? ORDER BY created_at DESC, id DESC", ambulanceID)
}

// AdvanceBooking applies from -> to, stamping the target column if empty.
func (r *BookingRepo) AdvanceBooking(ctx context.Context, id uint64, from, to model.BookingStatus, at time.Time) (model.AmbulanceBooking, error) {
	col := to.TimestampColumn()
	if col == "" {
		return model.AmbulanceBooking{}, apperr.Validation("status", "unknown booking status")
	}
	q := fmt.Sprintf("UPDATE ambulance_bookings SET status=?, %[1]s=COALESCE(%[1]s, ?) WHERE id=? AND status=?", col)

	var out model.AmbulanceBooking
	err := database.WithTx(ctx, r.DB, func(ctx context.Context, tx database.DBTX) error {
		n, err := affected(tx.ExecContext(ctx, q, string(to), at.UTC(), id, string(from)))
		if err != nil {
			return err
		}
		if out, err = getBooking(ctx, tx, id); err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("booking %d is %s: %w", id, out.Status, apperr.ErrConflict)
		}
		return nil
	})
	if err != nil {
		return model.AmbulanceBooking{}, err
	}
	return out, nil
}

func (r *BookingRepo) list(ctx context.Context, q string, args ...any) ([]model.AmbulanceBooking, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AmbulanceBooking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func getBooking(ctx context.Context, db database.DBTX, id uint64) (model.AmbulanceBooking, error) {
	return scanBooking(db.QueryRowContext(ctx, "SELECT "+bookingColumns+" FROM ambulance_bookings WHERE id=?", id))
}

func scanBooking(row rowScanner) (model.AmbulanceBooking, error) {
	var (
		b                          model.AmbulanceBooking
		status                     string
		lat, lon                   sql.NullFloat64
		dropoff, condition         sql.NullString
		scheduled, dispatched, end sql.NullTime
	)
	if err := row.Scan(&b.ID, &b.UserID, &b.AmbulanceID, &b.PickupAddress, &lat, &lon, &dropoff,
		&b.PatientName, &b.PatientPhone, &condition, &status, &scheduled, &dispatched, &end, &b.CreatedAt); err != nil {
		return model.AmbulanceBooking{}, mapErr(err)
	}
	b.PickupLatitude, b.PickupLongitude = floatPtr(lat), floatPtr(lon)
	b.DropoffAddress, b.MedicalCondition = dropoff.String, condition.String
	b.Status = model.BookingStatus(status)
	b.ScheduledTime, b.DispatchedAt, b.CompletedAt = timePtr(scheduled), timePtr(dispatched), timePtr(end)
	return b, nil
}
