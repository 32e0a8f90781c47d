package afkbot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want Command
		ok   bool
	}{
		{"/away", Command{Kind: CommandActivate}, true},
		{"/away in a meeting", Command{Kind: CommandActivate, Reason: "in a meeting"}, true},
		{"  .afk   lunch  ", Command{Kind: CommandActivate, Reason: "lunch"}, true},
		{"/AFK@my_afk_bot back at 5", Command{Kind: CommandActivate, Reason: "back at 5"}, true},
		{"/away\nline one\nline two", Command{Kind: CommandActivate, Reason: "line one\nline two"}, true},
		{"/back", Command{Kind: CommandDeactivate}, true},
		{".unafk now", Command{Kind: CommandDeactivate}, true},
		{"/status@my_afk_bot", Command{Kind: CommandStatus}, true},
		{"/start", Command{}, false},
		{"afk", Command{}, false},
		{".afkk", Command{}, false},
		{"", Command{}, false},
	} {
		got, ok := ParseCommand(tc.in)
		assert.Equal(t, tc.ok, ok, "ParseCommand(%q)", tc.in)
		assert.Equal(t, tc.want, got, "ParseCommand(%q)", tc.in)
	}
}

func TestCommandKindString(t *testing.T) {
	assert.Equal(t, "activate", CommandActivate.String())
	assert.Equal(t, "deactivate", CommandDeactivate.String())
	assert.Equal(t, "status", CommandStatus.String())
	assert.Equal(t, "unknown", CommandKind(0).String())
}
