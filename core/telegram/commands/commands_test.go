package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandAliases(t *testing.T) {
	cmd := Command{Aliases: []string{"/afk", ".afk"}}

	assert.True(t, cmd.MatchesAlias("/AFK"))
	assert.True(t, cmd.MatchesAlias(".afk"))
	assert.True(t, cmd.MatchesAlias("afk"))
	assert.False(t, cmd.MatchesAlias(""))
	assert.False(t, cmd.MatchesAlias(".away"))
	assert.Equal(t, []string{"/afk"}, cmd.SlashAliases())
	assert.Empty(t, Command{}.SlashAliases())
}
