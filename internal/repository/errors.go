// Package repository implements persistence for the gate, the dispatch
// engine and the assistant on MySQL, plus a Redis-backed session store.
// Absent rows surface as apperr.ErrNotFound and duplicate keys as
// apperr.ErrConflict so that callers never see driver errors for those.
package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/careguardian/careguardian-api/internal/apperr"
	"github.com/careguardian/careguardian-api/internal/database"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// mapErr translates driver errors into the shared taxonomy.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return apperr.ErrNotFound
	case database.IsDuplicateKey(err):
		return apperr.ErrConflict
	}
	return err
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func idPtr(n sql.NullInt64) *uint64 {
	if !n.Valid {
		return nil
	}
	v := uint64(n.Int64)
	return &v
}

func timePtr(n sql.NullTime) *time.Time {
	if !n.Valid {
		return nil
	}
	v := n.Time
	return &v
}

// nullable converts optional values into driver arguments.
func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
