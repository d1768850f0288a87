package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careguardian/careguardian-api/internal/apperr"
	"github.com/careguardian/careguardian-api/internal/model"
)

func TestSetAmbulanceStatusGuardsOnPriorStates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(q("UPDATE ambulances SET status=? WHERE id=? AND status IN (?,?)")).
		WithArgs("available", 3, "dispatched", "unavailable").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(q("FROM ambulances WHERE id=?")).WithArgs(3).
		WillReturnRows(ambulanceRow(3, model.AmbulanceAvailable))
	mock.ExpectCommit()

	amb, err := NewAmbulanceRepo(db).SetAmbulanceStatus(context.Background(), 3, model.AmbulanceAvailable,
		[]model.AmbulanceStatus{model.AmbulanceDispatched, model.AmbulanceUnavailable})
	require.NoError(t, err)
	assert.Equal(t, model.AmbulanceAvailable, amb.Status)
	require.NotNil(t, amb.UserID)
	assert.Equal(t, uint64(42), *amb.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetAmbulanceStatusConflictAndMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewAmbulanceRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(q("UPDATE ambulances SET status=?")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(q("FROM ambulances WHERE id=?")).WithArgs(3).
		WillReturnRows(ambulanceRow(3, model.AmbulanceUnavailable))
	mock.ExpectRollback()
	_, err = repo.SetAmbulanceStatus(context.Background(), 3, model.AmbulanceDispatched,
		[]model.AmbulanceStatus{model.AmbulanceAvailable})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	mock.ExpectBegin()
	mock.ExpectExec(q("UPDATE ambulances SET status=?")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(q("FROM ambulances WHERE id=?")).WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()
	_, err = repo.SetAmbulanceStatus(context.Background(), 4, model.AmbulanceDispatched,
		[]model.AmbulanceStatus{model.AmbulanceAvailable})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListAvailableAmbulances(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := ambulanceRow(1, model.AmbulanceAvailable).
		AddRow(2, nil, "KA-02-0001", 5, nil, nil, "available", nil, nil)
	mock.ExpectQuery(q("FROM ambulances WHERE status=? ORDER BY id")).WithArgs("available").WillReturnRows(rows)

	list, err := NewAmbulanceRepo(db).ListAvailableAmbulances(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	_, _, ok := list[1].Location()
	assert.False(t, ok)
	assert.Nil(t, list[1].UserID)
	require.NotNil(t, list[1].HospitalID)
	assert.Equal(t, uint64(5), *list[1].HospitalID)
}
