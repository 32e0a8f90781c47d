// Package metrics exposes away-session counters. Recorder is injected into the
// bot; NoopRecorder is used when no metrics listener is configured.
package metrics

// ReplyOutcome labels the fate of an automatic reply.
type ReplyOutcome string

const (
	// ReplySent means the reply was handed to the sender queue.
	ReplySent ReplyOutcome = "sent"
	// ReplyDuplicate means the sender was already answered this session.
	ReplyDuplicate ReplyOutcome = "duplicate"
	// ReplyFailed means the reply could not be dispatched.
	ReplyFailed ReplyOutcome = "failed"
)

// Recorder receives away-session events.
type Recorder interface {
	IncActivated(restarted bool)
	IncDeactivated()
	IncAutoReply(outcome ReplyOutcome)
	IncPersistenceFailure(op string)
	SetAway(away bool, notified int)
}

// NoopRecorder discards all events.
type NoopRecorder struct{}

func (NoopRecorder) IncActivated(bool)            {}
func (NoopRecorder) IncDeactivated()              {}
func (NoopRecorder) IncAutoReply(ReplyOutcome)    {}
func (NoopRecorder) IncPersistenceFailure(string) {}
func (NoopRecorder) SetAway(bool, int)            {}
