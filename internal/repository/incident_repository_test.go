package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careguardian/careguardian-api/internal/apperr"
	"github.com/careguardian/careguardian-api/internal/dispatch"
	"github.com/careguardian/careguardian-api/internal/model"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func incidentRow(id uint64, status model.IncidentStatus, ambulanceID any, dispatchedAt any) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "latitude", "longitude", "address", "emergency_type", "description",
		"assigned_ambulance_id", "assigned_hospital_id", "status", "dispatched_at", "arrived_at", "completed_at", "created_at"}).
		AddRow(id, 7, 12.97, 77.59, "MG Road", "cardiac", nil, ambulanceID, nil, string(status), dispatchedAt, nil, nil, t0)
}

func ambulanceRow(id uint64, status model.AmbulanceStatus) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "vehicle_number", "hospital_id", "current_latitude", "current_longitude",
		"status", "driver_name", "driver_phone"}).
		AddRow(id, 42, "KA-01-1234", nil, 12.98, 77.6, string(status), "Ravi", "555")
}

func q(s string) string { return regexp.QuoteMeta(s) }

func TestAssignAmbulanceClaimsInOneTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(q("UPDATE ambulances SET status=? WHERE id=? AND status=?")).
		WithArgs("dispatched", 3, "available").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("UPDATE emergency_incidents SET status=?, assigned_ambulance_id=?, dispatched_at=COALESCE(dispatched_at, ?)")).
		WithArgs("dispatched", 3, t0, 10, "pending").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(q("FROM emergency_incidents WHERE id=?")).WithArgs(10).
		WillReturnRows(incidentRow(10, model.IncidentDispatched, 3, t0))
	mock.ExpectQuery(q("FROM ambulances WHERE id=?")).WithArgs(3).
		WillReturnRows(ambulanceRow(3, model.AmbulanceDispatched))
	mock.ExpectCommit()

	inc, amb, err := NewIncidentRepo(db).AssignAmbulance(context.Background(), 10, 3, t0)
	require.NoError(t, err)
	assert.Equal(t, model.IncidentDispatched, inc.Status)
	require.NotNil(t, inc.AssignedAmbulanceID)
	assert.Equal(t, uint64(3), *inc.AssignedAmbulanceID)
	require.NotNil(t, inc.DispatchedAt)
	assert.Equal(t, model.AmbulanceDispatched, amb.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignAmbulanceLostClaimRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(q("UPDATE ambulances SET status=? WHERE id=? AND status=?")).
		WithArgs("dispatched", 3, "available").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, _, err = NewIncidentRepo(db).AssignAmbulance(context.Background(), 10, 3, t0)
	assert.ErrorIs(t, err, dispatch.ErrAmbulanceTaken)
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignAmbulanceIncidentNoLongerPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(q("UPDATE ambulances SET status=?")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("UPDATE emergency_incidents SET status=?")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, _, err = NewIncidentRepo(db).AssignAmbulance(context.Background(), 10, 3, t0)
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.False(t, errors.Is(err, dispatch.ErrAmbulanceTaken))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdvanceIncidentCompletionFreesAmbulance(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(q("UPDATE emergency_incidents SET status=?, completed_at=COALESCE(completed_at, ?) WHERE id=? AND status=?")).
		WithArgs("completed", t0, 10, "arrived").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(q("FROM emergency_incidents WHERE id=?")).WithArgs(10).
		WillReturnRows(incidentRow(10, model.IncidentCompleted, 3, t0))
	mock.ExpectExec(q("UPDATE ambulances SET status=? WHERE id=? AND status=?")).
		WithArgs("available", 3, "dispatched").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	inc, err := NewIncidentRepo(db).AdvanceIncident(context.Background(), 10, model.IncidentArrived, model.IncidentCompleted, t0)
	require.NoError(t, err)
	assert.Equal(t, model.IncidentCompleted, inc.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdvanceIncidentStaleStatusIsConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(q("UPDATE emergency_incidents SET status=?, arrived_at=COALESCE(arrived_at, ?)")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(q("FROM emergency_incidents WHERE id=?")).WithArgs(10).
		WillReturnRows(incidentRow(10, model.IncidentArrived, 3, t0))
	mock.ExpectRollback()

	_, err = NewIncidentRepo(db).AdvanceIncident(context.Background(), 10, model.IncidentDispatched, model.IncidentArrived, t0)
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetIncidentMissingIsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(q("FROM emergency_incidents WHERE id=?")).WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = NewIncidentRepo(db).GetIncident(context.Background(), 99)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestIncidentWithoutLocationScansNilCoordinates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "user_id", "latitude", "longitude", "address", "emergency_type", "description",
		"assigned_ambulance_id", "assigned_hospital_id", "status", "dispatched_at", "arrived_at", "completed_at", "created_at"}).
		AddRow(5, 7, nil, nil, nil, nil, nil, nil, nil, "pending", nil, nil, nil, t0)
	mock.ExpectQuery(q("FROM emergency_incidents WHERE id=?")).WithArgs(5).WillReturnRows(rows)

	inc, err := NewIncidentRepo(db).GetIncident(context.Background(), 5)
	require.NoError(t, err)
	_, _, ok := inc.Location()
	assert.False(t, ok)
	assert.Nil(t, inc.AssignedAmbulanceID)
	assert.Nil(t, inc.DispatchedAt)
}
