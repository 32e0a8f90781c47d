package away

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var stateColumns = []string{"is_afk", "afk_message", "afk_start_time", "afk_start_offset", "notified_ids"}

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return NewPostgresStore(sqlx.NewDb(db, "postgres")), mock
}

func TestPostgresStoreLoad(t *testing.T) {
	store, mock := newMockStore(t)
	start := time.Date(2026, 10, 19, 16, 30, 15, 123456000, time.UTC)
	mock.ExpectQuery("SELECT is_afk, afk_message, afk_start_time, afk_start_offset, notified_ids FROM afk_state").
		WillReturnRows(sqlmock.NewRows(stateColumns).
			AddRow(true, "meeting", start, int64(-5*60*60), []byte("{111,42}")))

	st, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, st.IsAway)
	assert.Equal(t, "meeting", st.Message)
	assert.True(t, st.StartTime.Equal(start))
	_, offset := st.StartTime.Zone()
	assert.Equal(t, -5*60*60, offset)
	assert.Equal(t, 11, st.StartTime.Hour())
	assert.Equal(t, []int64{42, 111}, st.NotifiedList())
}

func TestPostgresStoreLoadNoRow(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT is_afk").WillReturnError(sql.ErrNoRows)

	st, err := store.Load(context.Background())
	require.ErrorIs(t, err, ErrCorruptOrMissing)
	assert.False(t, st.IsAway)
}

func TestPostgresStoreLoadAwayWithoutStart(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT is_afk").
		WillReturnRows(sqlmock.NewRows(stateColumns).AddRow(true, nil, nil, int64(0), []byte("{}")))

	st, err := store.Load(context.Background())
	require.ErrorIs(t, err, ErrCorruptOrMissing)
	assert.False(t, st.IsAway)
}

func TestPostgresStoreSave(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO afk_state").
		WithArgs(true, "meeting", sqlmock.AnyArg(), -5*60*60, "{42,111}").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Save(context.Background(), sampleState()))
}

func TestPostgresStoreSaveDefault(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO afk_state").
		WithArgs(false, nil, nil, 0, "{}").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Save(context.Background(), DefaultState()))
}

func TestPostgresStoreSaveError(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO afk_state").WillReturnError(errors.New("connection reset"))

	err := store.Save(context.Background(), sampleState())
	require.ErrorIs(t, err, ErrPersistence)
}
