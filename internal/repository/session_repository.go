package repository

import (
	"context"
	"database/sql"

	"github.com/careguardian/careguardian-api/internal/model"
)

// SessionRepo keeps sessions in MySQL. It is used when Redis is unavailable.
// The primary key makes Create atomic.
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

func (r *SessionRepo) Create(ctx context.Context, s model.Session) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO sessions (id, user_id, created_at, expires_at) VALUES (?,?,?,?)",
		s.ID, s.UserID, s.CreatedAt, s.ExpiresAt)
	return mapErr(err)
}

func (r *SessionRepo) Get(ctx context.Context, id string) (model.Session, error) {
	s := model.Session{ID: id}
	err := r.DB.QueryRowContext(ctx,
		"SELECT user_id, created_at, expires_at FROM sessions WHERE id=? LIMIT 1", id).
		Scan(&s.UserID, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		return model.Session{}, mapErr(err)
	}
	return s, nil
}

func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM sessions WHERE id=?", id)
	return err
}

// PurgeExpired removes sessions past their expiry and returns how many.
func (r *SessionRepo) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= UTC_TIMESTAMP()")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
