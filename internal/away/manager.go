package away

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/m3rciful/afkbot/core/logger"
)

const component = "afk"

// Manager owns the away state machine. It performs no locking: the Telegram
// runtime delivers updates one at a time.
type Manager struct {
	store Store
	clock clockwork.Clock
	loc   *time.Location
	state State
}

// Option customises a Manager.
type Option func(*Manager)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c clockwork.Clock) Option {
	return func(m *Manager) {
		if c != nil {
			m.clock = c
		}
	}
}

// WithLocation sets the zone whose offset is recorded with the start time.
func WithLocation(loc *time.Location) Option {
	return func(m *Manager) {
		if loc != nil {
			m.loc = loc
		}
	}
}

// NewManager loads the persisted state from store. A missing or corrupt
// record is logged and replaced by the default state.
func NewManager(ctx context.Context, store Store, opts ...Option) *Manager {
	m := &Manager{
		store: store,
		clock: clockwork.NewRealClock(),
		loc:   time.UTC,
	}
	for _, opt := range opts {
		opt(m)
	}

	st, err := store.Load(ctx)
	if err != nil {
		logger.Warn(ctx, component, "afk.state.load",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
			slog.Bool("default_state", true),
		)
		st = DefaultState()
	} else {
		logger.Info(ctx, component, "afk.state.load",
			slog.String("status", "ok"),
			slog.Bool("is_afk", st.IsAway),
			slog.Int("notified", len(st.NotifiedIDs)),
		)
	}
	if st.NotifiedIDs == nil {
		st.NotifiedIDs = make(map[int64]struct{})
	}
	m.state = st
	return m
}

// State returns a copy of the current state.
func (m *Manager) State() State {
	return m.state.Clone()
}

// IsAway reports whether an away session is active.
func (m *Manager) IsAway() bool {
	return m.state.IsAway
}

// Activate starts a new away session. Calling it while already away restarts
// the session: new start time, new reason, empty notified set. A save error
// is returned but the session is active in memory either way.
func (m *Manager) Activate(ctx context.Context, reason string) (State, error) {
	restarted := m.state.IsAway

	next := DefaultState()
	next.IsAway = true
	next.Message = strings.TrimSpace(reason)
	next.StartTime = m.now()

	err := m.commit(ctx, "activate", next)
	logger.Info(ctx, component, "afk.activate",
		slog.String("status", logger.Status(err)),
		slog.Bool("restarted", restarted),
		slog.Bool("has_reason", next.Message != ""),
		slog.Time("start_time", next.StartTime),
	)
	return next.Clone(), err
}

// Deactivate ends the away session and returns how long it lasted. When no
// session is active it returns ErrNotAway and does not touch the store.
func (m *Manager) Deactivate(ctx context.Context) (time.Duration, error) {
	if !m.state.IsAway {
		logger.Warn(ctx, component, "afk.deactivate",
			slog.String("status", "skip"),
			slog.String("reason", "not_away"),
		)
		return 0, ErrNotAway
	}

	elapsed := m.elapsed()
	answered, truncated := logger.Summarize(m.state.NotifiedList(), 10)
	next := DefaultState()
	err := m.commit(ctx, "deactivate", next)
	logger.Info(ctx, component, "afk.deactivate",
		slog.String("status", logger.Status(err)),
		slog.Duration("away_duration", elapsed),
		slog.String("answered", answered),
		slog.Bool("answered_truncated", truncated),
	)
	return elapsed, err
}

// ShouldNotify reports whether senderID is due an automatic reply. It never
// mutates state.
func (m *Manager) ShouldNotify(senderID int64) bool {
	return m.state.IsAway && !m.state.Notified(senderID)
}

// RecordNotified marks senderID as answered for the current session. Call it
// only after the reply was handed to the transport.
func (m *Manager) RecordNotified(ctx context.Context, senderID int64) error {
	if !m.state.IsAway {
		err := fmt.Errorf("%w: record notified sender %d", ErrNotAway, senderID)
		logger.Error(ctx, component, "afk.notify.record",
			slog.String("status", "fail"),
			slog.Int64("sender_id", senderID),
			slog.String("err", err.Error()),
		)
		return err
	}
	if m.state.Notified(senderID) {
		return nil
	}

	next := m.state.Clone()
	next.NotifiedIDs[senderID] = struct{}{}
	err := m.commit(ctx, "record_notified", next)
	logger.Debug(ctx, component, "afk.notify.record",
		slog.String("status", logger.Status(err)),
		slog.Int64("sender_id", senderID),
		slog.Int("notified", len(next.NotifiedIDs)),
	)
	return err
}

// Elapsed returns the time spent away so far, or zero when not away.
func (m *Manager) Elapsed() time.Duration {
	if !m.state.IsAway {
		return 0
	}
	return m.elapsed()
}

// Reply describes the automatic answer for the current session.
func (m *Manager) Reply() Reply {
	if !m.state.IsAway {
		return Reply{}
	}
	return Reply{
		Away:    true,
		Reason:  m.state.Message,
		Since:   m.state.StartTime,
		Elapsed: m.elapsed(),
	}
}

// commit saves next and installs it as the current state. The in-memory
// state advances even when the save fails.
func (m *Manager) commit(ctx context.Context, op string, next State) error {
	start := m.clock.Now()
	err := m.store.Save(ctx, next)
	m.state = next
	if err != nil {
		if !errors.Is(err, ErrPersistence) {
			err = fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		logger.Error(ctx, component, "afk.state.save",
			slog.String("status", "fail"),
			slog.String("op", op),
			slog.String("err", err.Error()),
			slog.Duration("duration", logger.RoundMS(m.clock.Since(start))),
		)
		return err
	}
	logger.Debug(ctx, component, "afk.state.save",
		slog.String("status", "ok"),
		slog.String("op", op),
	)
	return nil
}

// now truncates to microseconds so every store round-trips the value exactly.
func (m *Manager) now() time.Time {
	return m.clock.Now().In(m.loc).Truncate(time.Microsecond)
}

func (m *Manager) elapsed() time.Duration {
	d := m.clock.Since(m.state.StartTime)
	if d < 0 {
		return 0
	}
	return d
}
