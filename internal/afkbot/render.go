package afkbot

import (
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/afkbot/core/telegram/format"
	"github.com/m3rciful/afkbot/internal/away"
)

const timeLayout = "2006-01-02 15:04 MST"

// Renderer builds MarkdownV2 texts. Times are shown in Location.
type Renderer struct {
	Location *time.Location
}

func (r Renderer) clock(t time.Time) string {
	loc := r.Location
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(timeLayout)
}

// Reply is the automatic answer sent to a sender.
func (r Renderer) Reply(rep away.Reply) string {
	var b strings.Builder
	b.WriteString(format.BoldV2("I am currently away"))
	if rep.Reason != "" {
		b.WriteString("\nReason: ")
		b.WriteString(format.CodeV2(rep.Reason))
	} else {
		b.WriteString("\n")
		b.WriteString(format.EscapeV2(away.GenericNotice))
	}
	b.WriteString("\nAway for: ")
	b.WriteString(format.CodeV2(away.FormatDuration(rep.Elapsed)))
	return b.String()
}

// Activated confirms a started session.
func (r Renderer) Activated(st away.State, restarted bool) string {
	var b strings.Builder
	if restarted {
		b.WriteString(format.BoldV2("Away mode restarted"))
	} else {
		b.WriteString(format.BoldV2("Away mode activated"))
	}
	if st.Message != "" {
		b.WriteString("\nMessage: ")
		b.WriteString(format.CodeV2(st.Message))
	}
	b.WriteString("\nSince: ")
	b.WriteString(format.CodeV2(r.clock(st.StartTime)))
	return b.String()
}

// Deactivated reports the length of the finished session.
func (r Renderer) Deactivated(d time.Duration) string {
	return format.BoldV2("Away mode deactivated") + "\nYou were away for " + format.CodeV2(away.FormatDuration(d))
}

// NotAway answers a deactivation with no running session.
func (r Renderer) NotAway() string {
	return format.BoldV2("Away mode was not active")
}

// Status describes the current session.
func (r Renderer) Status(st away.State, elapsed time.Duration) string {
	if !st.IsAway {
		return format.BoldV2("Available") + "\nAway mode is off"
	}
	var b strings.Builder
	b.WriteString(format.BoldV2("Away"))
	if st.Message != "" {
		b.WriteString("\nMessage: ")
		b.WriteString(format.CodeV2(st.Message))
	}
	b.WriteString("\nSince: ")
	b.WriteString(format.CodeV2(r.clock(st.StartTime)))
	b.WriteString("\nAway for: ")
	b.WriteString(format.CodeV2(away.FormatDuration(elapsed)))
	b.WriteString("\nAnswered: ")
	b.WriteString(strconv.Itoa(len(st.NotifiedIDs)))
	return b.String()
}

// NotSaved is appended when the state change could not be persisted.
func (r Renderer) NotSaved() string {
	return "\n\n" + format.ItalicV2("State could not be saved; it will be lost on restart.")
}
