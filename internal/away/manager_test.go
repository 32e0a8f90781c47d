package away

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	saved   []State
	loadErr error
	initial State
	saveErr error
}

func (s *memStore) Load(context.Context) (State, error) {
	if s.loadErr != nil {
		return DefaultState(), s.loadErr
	}
	return s.initial.Clone(), nil
}

func (s *memStore) Save(_ context.Context, st State) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, st.Clone())
	return nil
}

func (s *memStore) last(t *testing.T) State {
	t.Helper()
	require.NotEmpty(t, s.saved, "expected at least one save")
	return s.saved[len(s.saved)-1]
}

var t0 = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func newTestManager(t *testing.T, store *memStore) (*Manager, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(t0)
	return NewManager(context.Background(), store, WithClock(clock)), clock
}

func TestManagerMeetingScenario(t *testing.T) {
	ctx := context.Background()
	store := &memStore{initial: DefaultState()}
	m, clock := newTestManager(t, store)

	_, err := m.Activate(ctx, "meeting")
	require.NoError(t, err)

	clock.Advance(5 * time.Minute)
	require.True(t, m.ShouldNotify(111))
	reply := m.Reply()
	assert.Contains(t, reply.Text(), "meeting")
	assert.Equal(t, 5*time.Minute, reply.Elapsed)
	require.NoError(t, m.RecordNotified(ctx, 111))
	assert.Equal(t, []int64{111}, store.last(t).NotifiedList())

	clock.Advance(5 * time.Minute)
	assert.False(t, m.ShouldNotify(111), "second message from the same sender must not be answered")

	clock.Advance(50 * time.Minute)
	d, err := m.Deactivate(ctx)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, d)
	assert.Equal(t, "1h", FormatDuration(d))

	st := m.State()
	assert.False(t, st.IsAway)
	assert.Empty(t, st.NotifiedIDs)
	assert.Empty(t, st.Message)
	assert.False(t, store.last(t).IsAway)
	assert.Empty(t, store.last(t).NotifiedIDs)
}

func TestManagerDeactivateWhenActiveIsNoop(t *testing.T) {
	store := &memStore{initial: DefaultState()}
	m, _ := newTestManager(t, store)

	d, err := m.Deactivate(context.Background())
	require.ErrorIs(t, err, ErrNotAway)
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Zero(t, d)
	assert.Empty(t, store.saved, "no persistence write expected")
	assert.False(t, m.IsAway())
}

func TestManagerRecordNotifiedWhenActive(t *testing.T) {
	store := &memStore{initial: DefaultState()}
	m, _ := newTestManager(t, store)

	err := m.RecordNotified(context.Background(), 42)
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Empty(t, store.saved)
	assert.Empty(t, m.State().NotifiedIDs)
}

func TestManagerReactivateRestartsSession(t *testing.T) {
	ctx := context.Background()
	store := &memStore{initial: DefaultState()}
	m, clock := newTestManager(t, store)

	_, err := m.Activate(ctx, "lunch")
	require.NoError(t, err)
	require.NoError(t, m.RecordNotified(ctx, 7))
	assert.False(t, m.ShouldNotify(7))

	clock.Advance(20 * time.Minute)
	st, err := m.Activate(ctx, "  gym ")
	require.NoError(t, err)
	assert.Equal(t, "gym", st.Message)
	assert.True(t, st.StartTime.Equal(t0.Add(20*time.Minute)))
	assert.True(t, m.ShouldNotify(7), "restarted session answers previous senders again")
	assert.Zero(t, m.Elapsed())
}

func TestManagerShouldNotifyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, &memStore{initial: DefaultState()})

	assert.False(t, m.ShouldNotify(5))
	assert.False(t, m.ShouldNotify(5))

	_, err := m.Activate(ctx, "")
	require.NoError(t, err)
	assert.True(t, m.ShouldNotify(5))
	assert.True(t, m.ShouldNotify(5))
	assert.Empty(t, m.State().NotifiedIDs)
}

func TestManagerDeactivateAlwaysClearsNotified(t *testing.T) {
	ctx := context.Background()
	m, clock := newTestManager(t, &memStore{initial: DefaultState()})

	for i := 0; i < 3; i++ {
		_, err := m.Activate(ctx, "round")
		require.NoError(t, err)
		for id := int64(1); id <= int64(i+2); id++ {
			require.NoError(t, m.RecordNotified(ctx, id))
		}
		clock.Advance(time.Minute)
		_, err = m.Deactivate(ctx)
		require.NoError(t, err)
		assert.False(t, m.IsAway())
		assert.Empty(t, m.State().NotifiedIDs)
	}
}

func TestManagerRestoresPersistedSession(t *testing.T) {
	ctx := context.Background()
	initial := DefaultState()
	initial.IsAway = true
	initial.Message = "vacation"
	initial.StartTime = t0.Add(-2 * time.Hour)
	initial.NotifiedIDs[99] = struct{}{}

	m, _ := newTestManager(t, &memStore{initial: initial})

	assert.True(t, m.IsAway())
	assert.False(t, m.ShouldNotify(99))
	assert.True(t, m.ShouldNotify(100))
	assert.Equal(t, 2*time.Hour, m.Elapsed())

	d, err := m.Deactivate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, d)
}

func TestManagerLoadFailureFallsBackToDefault(t *testing.T) {
	store := &memStore{loadErr: ErrCorruptOrMissing}
	m, _ := newTestManager(t, store)

	assert.False(t, m.IsAway())
	assert.NotNil(t, m.State().NotifiedIDs)
}

func TestManagerSaveFailureKeepsMemoryAuthoritative(t *testing.T) {
	ctx := context.Background()
	store := &memStore{initial: DefaultState(), saveErr: errors.New("disk full")}
	m, _ := newTestManager(t, store)

	_, err := m.Activate(ctx, "offline")
	require.ErrorIs(t, err, ErrPersistence)
	assert.True(t, m.IsAway())

	err = m.RecordNotified(ctx, 3)
	require.ErrorIs(t, err, ErrPersistence)
	assert.False(t, m.ShouldNotify(3))
}

func TestManagerRecordsStartTimeInLocation(t *testing.T) {
	berlin := time.FixedZone("CEST", 2*60*60)
	clock := clockwork.NewFakeClockAt(t0.Add(123456789 * time.Nanosecond))
	m := NewManager(context.Background(), &memStore{initial: DefaultState()}, WithClock(clock), WithLocation(berlin))

	st, err := m.Activate(context.Background(), "")
	require.NoError(t, err)
	_, offset := st.StartTime.Zone()
	assert.Equal(t, 2*60*60, offset)
	assert.Equal(t, 123456000, st.StartTime.Nanosecond())
}

func TestManagerReplyWithoutReason(t *testing.T) {
	m, clock := newTestManager(t, &memStore{initial: DefaultState()})
	assert.False(t, m.Reply().Away)

	_, err := m.Activate(context.Background(), "")
	require.NoError(t, err)
	clock.Advance(26*time.Hour + 3*time.Minute)

	reply := m.Reply()
	assert.True(t, reply.Away)
	assert.Contains(t, reply.Text(), GenericNotice)
	assert.Contains(t, reply.Text(), "1d 2h 3m")
}
