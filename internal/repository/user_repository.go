package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/careguardian/careguardian-api/internal/database"
	"github.com/careguardian/careguardian-api/internal/model"
	"github.com/careguardian/careguardian-api/internal/session"
)

const userColumns = "id, username, email, password_hash, role, full_name, phone, city, state, created_at"

// UserRepo persists credential records and, at registration, the hospital or
// ambulance row the new account operates.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// CreateAccount inserts the user and its directory row in one transaction.
func (r *UserRepo) CreateAccount(ctx context.Context, acct session.NewAccount) (model.User, error) {
	u := acct.User
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	err := database.WithTx(ctx, r.DB, func(ctx context.Context, tx database.DBTX) error {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO users (username, email, password_hash, role, full_name, phone, city, state) VALUES (?,?,?,?,?,?,?,?)",
			u.Username, u.Email, u.PasswordHash, string(u.Role), u.FullName, u.Phone, u.City, u.State)
		if err != nil {
			return mapErr(err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		u.ID = uint64(id)

		if h := acct.Hospital; h != nil {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO hospitals (name, address, city, state, phone, latitude, longitude, emergency_services, user_id) VALUES (?,?,?,?,?,?,?,?,?)",
				h.Name, h.Address, h.City, h.State, h.Phone, nullable(h.Latitude), nullable(h.Longitude), h.EmergencyServices, u.ID); err != nil {
				return mapErr(err)
			}
		}
		if a := acct.Ambulance; a != nil {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO ambulances (user_id, vehicle_number, hospital_id, status, driver_name, driver_phone) VALUES (?,?,?,?,?,?)",
				u.ID, a.VehicleNumber, nullable(a.HospitalID), string(a.Status), a.DriverName, a.DriverPhone); err != nil {
				return mapErr(err)
			}
		}
		return tx.QueryRowContext(ctx, "SELECT created_at FROM users WHERE id=?", u.ID).Scan(&u.CreatedAt)
	})
	if err != nil {
		return model.User{}, err
	}
	return u, nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", strings.TrimSpace(username)))
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", strings.ToLower(strings.TrimSpace(email))))
}

func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

func scanUser(row rowScanner) (model.User, error) {
	var (
		u                            model.User
		role                         string
		fullName, phone, city, state sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &role, &fullName, &phone, &city, &state, &u.CreatedAt); err != nil {
		return model.User{}, mapErr(err)
	}
	u.Role = model.Role(role)
	u.FullName, u.Phone, u.City, u.State = fullName.String, phone.String, city.String, state.String
	return u, nil
}
