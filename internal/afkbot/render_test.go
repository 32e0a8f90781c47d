package afkbot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/m3rciful/afkbot/internal/away"
)

func TestRendererReply(t *testing.T) {
	r := Renderer{}
	got := r.Reply(away.Reply{Away: true, Reason: "meeting", Elapsed: 5 * time.Minute})
	assert.Equal(t, "*I am currently away*\nReason: `meeting`\nAway for: `5m`", got)

	got = r.Reply(away.Reply{Away: true, Elapsed: 26 * time.Hour})
	assert.Equal(t, "*I am currently away*\nI am currently away and will get back to you later\\.\nAway for: `1d 2h`", got)
}

func TestRendererShowsTimesInLocation(t *testing.T) {
	loc := time.FixedZone("CEST", 2*60*60)
	r := Renderer{Location: loc}
	st := away.DefaultState()
	st.IsAway = true
	st.StartTime = time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	st.NotifiedIDs[1] = struct{}{}

	assert.Equal(t, "*Away mode activated*\nSince: `2026-10-19 10:00 CEST`", r.Activated(st, false))

	st.Message = "lunch"
	assert.Equal(t,
		"*Away*\nMessage: `lunch`\nSince: `2026-10-19 10:00 CEST`\nAway for: `1h 30m`\nAnswered: 1",
		r.Status(st, 90*time.Minute))
}

func TestRendererMisc(t *testing.T) {
	r := Renderer{}
	assert.Equal(t, "*Away mode deactivated*\nYou were away for `1h`", r.Deactivated(time.Hour))
	assert.Equal(t, "*Available*\nAway mode is off", r.Status(away.DefaultState(), 0))
	assert.Contains(t, r.Activated(away.State{IsAway: true, StartTime: time.Now()}, true), "restarted")
	assert.Contains(t, r.NotSaved(), `restart\.`)
}
