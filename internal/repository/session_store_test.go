package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careguardian/careguardian-api/internal/apperr"
	"github.com/careguardian/careguardian-api/internal/model"
)

func newRedisStore(t *testing.T) (*RedisSessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	s := NewRedisSessionStore(rdb, "")
	s.now = func() time.Time { return t0 }
	return s, mr
}

func TestRedisSessionRoundTripAndExpiry(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()
	sess := model.Session{ID: "abc", UserID: 9, CreatedAt: t0, ExpiresAt: t0.Add(time.Hour)}

	require.NoError(t, store.Create(ctx, sess))
	assert.Equal(t, time.Hour, mr.TTL("cg:session:abc"))

	got, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, uint64(9), got.UserID)
	assert.True(t, got.ExpiresAt.Equal(sess.ExpiresAt))

	mr.FastForward(time.Hour)
	_, err = store.Get(ctx, "abc")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRedisSessionCreateIsExclusive(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()
	sess := model.Session{ID: "dup", UserID: 1, CreatedAt: t0, ExpiresAt: t0.Add(time.Minute)}

	require.NoError(t, store.Create(ctx, sess))
	assert.ErrorIs(t, store.Create(ctx, sess), apperr.ErrConflict)

	expired := model.Session{ID: "old", UserID: 1, CreatedAt: t0, ExpiresAt: t0}
	assert.Error(t, store.Create(ctx, expired))
}

func TestRedisSessionDeleteIsIdempotent(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, model.Session{ID: "x", UserID: 1, CreatedAt: t0, ExpiresAt: t0.Add(time.Minute)}))

	require.NoError(t, store.Delete(ctx, "x"))
	require.NoError(t, store.Delete(ctx, "x"))
	_, err := store.Get(ctx, "x")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestMySQLSessionRepo(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewSessionRepo(db)
	ctx := context.Background()
	sess := model.Session{ID: "abc", UserID: 9, CreatedAt: t0, ExpiresAt: t0.Add(time.Hour)}

	mock.ExpectExec(q("INSERT INTO sessions")).WithArgs("abc", 9, t0, t0.Add(time.Hour)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("INSERT INTO sessions")).
		WillReturnError(&mysql.MySQLError{Number: 1062})
	mock.ExpectQuery(q("FROM sessions WHERE id=?")).WithArgs("abc").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "created_at", "expires_at"}).AddRow(9, t0, t0.Add(time.Hour)))
	mock.ExpectQuery(q("FROM sessions WHERE id=?")).WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "created_at", "expires_at"}))
	mock.ExpectExec(q("DELETE FROM sessions WHERE id=?")).WithArgs("abc").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(ctx, sess))
	assert.ErrorIs(t, repo.Create(ctx, sess), apperr.ErrConflict)

	got, err := repo.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, sess, got)

	_, err = repo.Get(ctx, "nope")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	require.NoError(t, repo.Delete(ctx, "abc"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
