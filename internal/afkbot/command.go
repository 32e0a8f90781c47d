// Package afkbot connects the away session to Telegram: owner commands, the
// automatic reply to private messages and the runtime wiring.
package afkbot

import "strings"

// CommandKind enumerates the commands the owner can issue.
type CommandKind int

const (
	// CommandActivate starts (or restarts) an away session.
	CommandActivate CommandKind = iota + 1
	// CommandDeactivate ends the away session.
	CommandDeactivate
	// CommandStatus reports the current session.
	CommandStatus
)

func (k CommandKind) String() string {
	switch k {
	case CommandActivate:
		return "activate"
	case CommandDeactivate:
		return "deactivate"
	case CommandStatus:
		return "status"
	}
	return "unknown"
}

// Command is a validated owner command. Reason is only set for CommandActivate.
type Command struct {
	Kind   CommandKind
	Reason string
}

var commandWords = map[string]CommandKind{
	"/away":   CommandActivate,
	"/afk":    CommandActivate,
	".afk":    CommandActivate,
	"/back":   CommandDeactivate,
	"/unafk":  CommandDeactivate,
	".unafk":  CommandDeactivate,
	"/status": CommandStatus,
}

// ParseCommand recognises "/away [reason]", "/back" and "/status" with their
// aliases. A "@botname" suffix on the command word is ignored. Trailing text
// is only meaningful for activation and is dropped otherwise.
func ParseCommand(text string) (Command, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Command{}, false
	}
	word, rest, _ := strings.Cut(text, " ")
	if i := strings.IndexAny(word, "\n\t"); i >= 0 {
		word, rest = word[:i], word[i+1:]+" "+rest
	}
	if i := strings.Index(word, "@"); i > 0 {
		word = word[:i]
	}
	kind, ok := commandWords[strings.ToLower(word)]
	if !ok {
		return Command{}, false
	}
	cmd := Command{Kind: kind}
	if kind == CommandActivate {
		cmd.Reason = strings.TrimSpace(rest)
	}
	return cmd, true
}
