package commands

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Command represents a bot command with its handler, description, and metadata.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
	Hidden      bool
	// Aliases are extra words routed to the same handler, e.g. "/afk" or ".afk".
	// Aliases without a leading "/" are matched only against plain text.
	Aliases []string
}

// MatchesAlias reports whether name equals one of the aliases, ignoring case.
// A bare name also matches a slash alias of the same word.
func (c Command) MatchesAlias(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	for _, alias := range c.Aliases {
		if strings.EqualFold(alias, name) || strings.EqualFold(alias, "/"+name) {
			return true
		}
	}
	return false
}

// SlashAliases returns the aliases Telegram can route as bot commands.
func (c Command) SlashAliases() []string {
	var out []string
	for _, alias := range c.Aliases {
		if strings.HasPrefix(alias, "/") {
			out = append(out, alias)
		}
	}
	return out
}
