package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/lingodeck/internal/domain"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func createUser(t *testing.T, db *DB, name string) int64 {
	t.Helper()
	id, err := db.CreateUser(context.Background(), name, "hash", t0)
	require.NoError(t, err)
	return id
}

func TestOpen(t *testing.T) {
	t.Run("unsupported driver", func(t *testing.T) {
		_, err := Open("mysql", "whatever")
		require.Error(t, err)
	})

	t.Run("schema is idempotent", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "twice.db")
		db, err := Open(DriverSQLite, path)
		require.NoError(t, err)
		require.NoError(t, db.Close())

		db, err = Open(DriverSQLite, path)
		require.NoError(t, err)
		require.NoError(t, db.Ping(context.Background()))
		require.NoError(t, db.Close())
	})
}

func TestSQLiteDSN(t *testing.T) {
	testCases := []struct {
		dsn      string
		expected string
	}{
		{"app.db", "app.db?_pragma=foreign_keys(1)"},
		{"file:app.db?cache=shared", "file:app.db?cache=shared&_pragma=foreign_keys(1)"},
		{"app.db?_pragma=foreign_keys(0)", "app.db?_pragma=foreign_keys(0)"},
	}
	for _, tc := range testCases {
		t.Run(tc.dsn, func(t *testing.T) {
			assert.Equal(t, tc.expected, sqliteDSN(tc.dsn))
		})
	}
}

func TestForeignKeysOnEveryConnection(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	// No idle connections: each statement runs on a freshly opened one.
	db.conn.SetMaxIdleConns(0)

	for i := 0; i < 3; i++ {
		var enabled int
		require.NoError(t, db.conn.GetContext(ctx, &enabled, "PRAGMA foreign_keys"))
		assert.Equal(t, 1, enabled)
	}

	err := db.UpsertSchedule(ctx, 999, "42", t0)
	assert.Error(t, err, "expected a schedule row for a missing user to violate the foreign key")
}

func TestUpsertSchedule(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	userID := createUser(t, db, "alice")

	require.NoError(t, db.UpsertSchedule(ctx, userID, "42", t0.Add(time.Hour)))
	require.NoError(t, db.UpsertSchedule(ctx, userID, "42", t0.Add(2*time.Hour)))

	entry, err := db.FindSchedule(ctx, userID, "42")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.True(t, entry.NextReviewAt.Equal(t0.Add(2*time.Hour)))

	var count int
	require.NoError(t, db.conn.Get(&count, "SELECT COUNT(*) FROM schedule_entries"))
	assert.Equal(t, 1, count)

	missing, err := db.FindSchedule(ctx, userID, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUpsertSchedule_UnknownUser(t *testing.T) {
	db := openTestDB(t)
	err := db.UpsertSchedule(context.Background(), 999, "42", t0)
	require.Error(t, err)
}

func TestDueSchedule(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	require.NoError(t, db.UpsertSchedule(ctx, alice, "c", t0.Add(-time.Minute)))
	require.NoError(t, db.UpsertSchedule(ctx, alice, "a", t0))
	require.NoError(t, db.UpsertSchedule(ctx, alice, "b", t0.Add(time.Nanosecond)))
	require.NoError(t, db.UpsertSchedule(ctx, bob, "z", t0.Add(-time.Hour)))

	entries, err := db.DueSchedule(ctx, alice, t0)
	require.NoError(t, err)

	var ids []string
	for _, e := range entries {
		ids = append(ids, e.CardID)
		assert.Equal(t, alice, e.UserID)
	}
	assert.Equal(t, []string{"c", "a"}, ids, "expected insertion order and an inclusive bound")

	none, err := db.DueSchedule(ctx, alice, t0.Add(-time.Hour))
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestPositions(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	userID := createUser(t, db, "alice")

	pos, err := db.FindPosition(ctx, userID, "basics")
	require.NoError(t, err)
	assert.Nil(t, pos)

	require.NoError(t, db.ResetPosition(ctx, userID, "basics"))
	pos, err = db.FindPosition(ctx, userID, "basics")
	require.NoError(t, err)
	assert.Nil(t, pos, "reset must not create a row")

	require.NoError(t, db.SetPosition(ctx, userID, "basics", 3))
	require.NoError(t, db.SetPosition(ctx, userID, "basics", 5))
	pos, err = db.FindPosition(ctx, userID, "basics")
	require.NoError(t, err)
	require.NotNil(t, pos)
	assert.Equal(t, 5, pos.CurrentIndex)

	require.NoError(t, db.ResetPosition(ctx, userID, "basics"))
	pos, err = db.FindPosition(ctx, userID, "basics")
	require.NoError(t, err)
	require.NotNil(t, pos)
	assert.Equal(t, 0, pos.CurrentIndex)
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	id, err := db.CreateUser(ctx, "alice", "hash", t0)
	require.NoError(t, err)
	assert.NotZero(t, id)

	_, err = db.CreateUser(ctx, "alice", "other", t0)
	assert.True(t, errors.Is(err, domain.ErrConflict), "got %v", err)

	u, err := db.FindUserByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, "hash", u.PasswordHash)
	assert.True(t, u.CreatedAt.Equal(t0))

	u, err = db.FindUserByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "alice", u.Username)

	u, err = db.FindUserByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestSessions(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	userID := createUser(t, db, "alice")

	require.NoError(t, db.InsertSession(ctx, domain.Session{Token: "live", UserID: userID, ExpiresAt: t0.Add(time.Hour)}))
	require.NoError(t, db.InsertSession(ctx, domain.Session{Token: "stale", UserID: userID, ExpiresAt: t0.Add(-time.Hour)}))

	s, err := db.FindSession(ctx, "live")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, userID, s.UserID)
	assert.True(t, s.ExpiresAt.Equal(t0.Add(time.Hour)))

	n, err := db.DeleteExpiredSessions(ctx, t0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, db.DeleteSession(ctx, "live"))
	require.NoError(t, db.DeleteSession(ctx, "live"))

	s, err = db.FindSession(ctx, "live")
	require.NoError(t, err)
	assert.Nil(t, s)
}
