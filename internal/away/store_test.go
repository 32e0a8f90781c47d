package away

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleState() State {
	st := DefaultState()
	st.IsAway = true
	st.Message = "meeting"
	st.StartTime = time.Date(2026, 10, 19, 11, 30, 15, 123456789, time.FixedZone("", -5*60*60))
	st.NotifiedIDs[111] = struct{}{}
	st.NotifiedIDs[42] = struct{}{}
	return st
}

func assertStateEqual(t *testing.T, want, got State) {
	t.Helper()
	assert.Equal(t, want.IsAway, got.IsAway)
	assert.Equal(t, want.Message, got.Message)
	assert.True(t, want.StartTime.Equal(got.StartTime), "start time %s != %s", want.StartTime, got.StartTime)
	_, wantOff := want.StartTime.Zone()
	_, gotOff := got.StartTime.Zone()
	assert.Equal(t, wantOff, gotOff)
	assert.Equal(t, want.StartTime.Nanosecond(), got.StartTime.Nanosecond())
	assert.Equal(t, want.NotifiedList(), got.NotifiedList())
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "nested", "afk_state.json"))

	want := sampleState()
	require.NoError(t, store.Save(ctx, want))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assertStateEqual(t, want, got)
}

func TestFileStoreRecordFormat(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "afk_state.json")
	store := NewFileStore(path)
	require.NoError(t, store.Save(ctx, sampleState()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.Equal(t, true, raw["is_afk"])
	assert.Equal(t, "meeting", raw["afk_message"])
	assert.Equal(t, "2026-10-19T11:30:15.123456789-05:00", raw["afk_start_time"])
	assert.Equal(t, []any{float64(42), float64(111)}, raw["notified_ids"])
}

func TestFileStoreDefaultRecordUsesNulls(t *testing.T) {
	data, err := json.Marshal(DefaultState())
	require.NoError(t, err)
	assert.JSONEq(t, `{"is_afk":false,"afk_message":null,"afk_start_time":null,"notified_ids":[]}`, string(data))
}

func TestFileStoreLoadMissing(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "absent.json"))

	st, err := store.Load(context.Background())
	require.ErrorIs(t, err, ErrCorruptOrMissing)
	assert.False(t, st.IsAway)
	assert.Empty(t, st.NotifiedIDs)
}

func TestFileStoreLoadCorrupt(t *testing.T) {
	cases := map[string]string{
		"truncated":        `{"is_afk": tr`,
		"bad time":         `{"is_afk": true, "afk_start_time": "yesterday", "notified_ids": []}`,
		"away without ts":  `{"is_afk": true, "afk_message": "x", "afk_start_time": null, "notified_ids": []}`,
		"ids not integers": `{"is_afk": false, "notified_ids": ["a"]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "afk_state.json")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

			st, err := NewFileStore(path).Load(context.Background())
			require.ErrorIs(t, err, ErrCorruptOrMissing)
			assert.False(t, st.IsAway)
			assert.NotNil(t, st.NotifiedIDs)
		})
	}
}

func TestFileStoreLoadDeduplicatesIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "afk_state.json")
	body := `{"is_afk": true, "afk_message": null, "afk_start_time": "2026-10-19T09:00:00Z", "notified_ids": [5, 5, 3]}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	st, err := NewFileStore(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 5}, st.NotifiedList())
	assert.Empty(t, st.Message)
}

func TestFileStoreCrashBeforeReplaceKeepsPreviousRecord(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "afk_state.json")
	store := NewFileStore(path)

	require.NoError(t, store.Save(ctx, DefaultState()))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	store.rename = func(string, string) error { return errors.New("process killed") }
	err = store.Save(ctx, sampleState())
	require.ErrorIs(t, err, ErrPersistence)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	st, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, st.IsAway)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must be cleaned up")
}

func TestFileStoreSaveIntoFileFails(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	store := NewFileStore(filepath.Join(blocker, "afk_state.json"))
	err := store.Save(context.Background(), DefaultState())
	require.ErrorIs(t, err, ErrPersistence)
}
