package away

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	selectStateSQL = `SELECT is_afk, afk_message, afk_start_time, afk_start_offset, notified_ids
FROM afk_state WHERE id = 1`

	upsertStateSQL = `INSERT INTO afk_state (id, is_afk, afk_message, afk_start_time, afk_start_offset, notified_ids, updated_at)
VALUES (1, $1, $2, $3, $4, $5, now())
ON CONFLICT (id) DO UPDATE SET
	is_afk = EXCLUDED.is_afk,
	afk_message = EXCLUDED.afk_message,
	afk_start_time = EXCLUDED.afk_start_time,
	afk_start_offset = EXCLUDED.afk_start_offset,
	notified_ids = EXCLUDED.notified_ids,
	updated_at = EXCLUDED.updated_at`
)

// PostgresStore keeps the record as the single row of the afk_state table.
// TIMESTAMPTZ drops the offset, so it is stored next to the instant in seconds east of UTC.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an open connection. Schema comes from migrations.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type stateRow struct {
	IsAFK       bool           `db:"is_afk"`
	Message     sql.NullString `db:"afk_message"`
	StartTime   sql.NullTime   `db:"afk_start_time"`
	StartOffset int            `db:"afk_start_offset"`
	NotifiedIDs pq.Int64Array  `db:"notified_ids"`
}

// Load reads the row with id 1.
func (s *PostgresStore) Load(ctx context.Context) (State, error) {
	var row stateRow
	if err := s.db.GetContext(ctx, &row, selectStateSQL); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return DefaultState(), fmt.Errorf("%w: afk_state row does not exist", ErrCorruptOrMissing)
		}
		return DefaultState(), fmt.Errorf("%w: query afk_state: %v", ErrCorruptOrMissing, err)
	}

	st := DefaultState()
	st.IsAway = row.IsAFK
	if row.Message.Valid {
		st.Message = row.Message.String
	}
	if row.StartTime.Valid {
		st.StartTime = row.StartTime.Time.In(time.FixedZone("", row.StartOffset))
	}
	if st.IsAway && st.StartTime.IsZero() {
		return DefaultState(), fmt.Errorf("%w: afk_start_time is null while is_afk is set", ErrCorruptOrMissing)
	}
	for _, id := range row.NotifiedIDs {
		st.NotifiedIDs[id] = struct{}{}
	}
	return st, nil
}

// Save upserts the row in one statement, so readers never see a partial record.
func (s *PostgresStore) Save(ctx context.Context, st State) error {
	var (
		msg    sql.NullString
		start  sql.NullTime
		offset int
	)
	if st.Message != "" {
		msg = sql.NullString{String: st.Message, Valid: true}
	}
	if !st.StartTime.IsZero() {
		start = sql.NullTime{Time: st.StartTime, Valid: true}
		_, offset = st.StartTime.Zone()
	}
	ids := pq.Int64Array(st.NotifiedList())

	if _, err := s.db.ExecContext(ctx, upsertStateSQL, st.IsAway, msg, start, offset, ids); err != nil {
		return fmt.Errorf("%w: upsert afk_state: %v", ErrPersistence, err)
	}
	return nil
}
