// Package away implements the away (AFK) session of the bot owner: the
// persisted state record, its stores and the session manager deciding who
// receives an automatic reply.
package away

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"
)

var (
	// ErrCorruptOrMissing reports that no usable state record was found and the default state was used.
	ErrCorruptOrMissing = errors.New("afk state: record missing or corrupt")
	// ErrPersistence reports a failed attempt to persist the state record.
	ErrPersistence = errors.New("afk state: persistence failed")
	// ErrInvalidTransition reports an operation that is not allowed in the current state.
	ErrInvalidTransition = errors.New("afk: invalid transition")
	// ErrNotAway is returned when an operation requires an active away session.
	ErrNotAway = fmt.Errorf("%w: not away", ErrInvalidTransition)
)

// State is the single persisted away record.
type State struct {
	IsAway    bool
	Message   string
	StartTime time.Time
	// NotifiedIDs holds senders already answered during the current session.
	NotifiedIDs map[int64]struct{}
}

// DefaultState returns the state used on first run: not away, nobody notified.
func DefaultState() State {
	return State{NotifiedIDs: make(map[int64]struct{})}
}

// Notified reports whether senderID was already answered in this session.
func (s State) Notified(senderID int64) bool {
	_, ok := s.NotifiedIDs[senderID]
	return ok
}

// NotifiedList returns notified sender IDs in ascending order.
func (s State) NotifiedList() []int64 {
	ids := make([]int64, 0, len(s.NotifiedIDs))
	for id := range s.NotifiedIDs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Clone returns a deep copy so callers cannot mutate the manager's set.
func (s State) Clone() State {
	out := s
	out.NotifiedIDs = make(map[int64]struct{}, len(s.NotifiedIDs))
	for id := range s.NotifiedIDs {
		out.NotifiedIDs[id] = struct{}{}
	}
	return out
}

type stateRecord struct {
	IsAFK        bool    `json:"is_afk"`
	AFKMessage   *string `json:"afk_message"`
	AFKStartTime *string `json:"afk_start_time"`
	NotifiedIDs  []int64 `json:"notified_ids"`
}

// MarshalJSON encodes the state in the on-disk record format.
func (s State) MarshalJSON() ([]byte, error) {
	rec := stateRecord{
		IsAFK:       s.IsAway,
		NotifiedIDs: s.NotifiedList(),
	}
	if s.Message != "" {
		msg := s.Message
		rec.AFKMessage = &msg
	}
	if !s.StartTime.IsZero() {
		ts := s.StartTime.Format(time.RFC3339Nano)
		rec.AFKStartTime = &ts
	}
	return json.Marshal(rec)
}

// UnmarshalJSON decodes the on-disk record format. An active record without a
// valid start time is rejected.
func (s *State) UnmarshalJSON(data []byte) error {
	var rec stateRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	out := DefaultState()
	out.IsAway = rec.IsAFK
	if rec.AFKMessage != nil {
		out.Message = *rec.AFKMessage
	}
	if rec.AFKStartTime != nil && *rec.AFKStartTime != "" {
		ts, err := time.Parse(time.RFC3339Nano, *rec.AFKStartTime)
		if err != nil {
			return fmt.Errorf("afk_start_time: %w", err)
		}
		out.StartTime = ts
	}
	if out.IsAway && out.StartTime.IsZero() {
		return errors.New("afk_start_time is required while is_afk is set")
	}
	for _, id := range rec.NotifiedIDs {
		out.NotifiedIDs[id] = struct{}{}
	}
	*s = out
	return nil
}
