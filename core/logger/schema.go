package logger

import (
	"log/slog"
	"strings"
)

// vocabulary is a closed set of lower-case enum values for a log field.
type vocabulary map[string]struct{}

func newVocabulary(words ...string) vocabulary {
	v := make(vocabulary, len(words))
	for _, w := range words {
		v[w] = struct{}{}
	}
	return v
}

// normalize lower-cases s and reports whether it belongs to v.
func (v vocabulary) normalize(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", false
	}
	_, ok := v[s]
	return s, ok
}

var (
	statuses = newVocabulary("ok", "fail", "skip", "retry", "rate_limited", "cancelled")
	outcomes = newVocabulary("ok", "fail", "cancelled", "rate_limited")
)

// normalizeLevel maps level names, including slog offsets such as
// "INFO+2", onto DEBUG, INFO, WARN or ERROR.
func normalizeLevel(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return slog.LevelInfo.String()
	}
	if strings.EqualFold(name, "warning") {
		return slog.LevelWarn.String()
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(name)); err != nil {
		return strings.ToUpper(name)
	}
	switch {
	case lvl >= slog.LevelError:
		return slog.LevelError.String()
	case lvl >= slog.LevelWarn:
		return slog.LevelWarn.String()
	case lvl >= slog.LevelInfo:
		return slog.LevelInfo.String()
	default:
		return slog.LevelDebug.String()
	}
}

// defaultKeyOrder lists the fields rendered first, in this order. Remaining
// fields follow alphabetically.
var defaultKeyOrder = []string{
	// envelope
	"ts", "level", "component", "event", "status",
	"rid", "rid_full", "ts_unix_nano",
	// update
	"update_id", "user_id", "chat_id", "chat_type", "kind",
	"handler", "op", "cb_key", "command", "outcome",
	"duration_ms", "messages", "kb",
	// away session
	"sender_id", "is_afk", "restarted", "has_reason", "notified",
	"answered", "start_time", "away_duration_ms", "text_len", "lang",
	// transport and storage
	"mode", "listen", "public_url", "http_code",
	"action", "endpoint", "db", "host", "port", "path",
	// failures
	"err", "err_code", "error_kind", "cause", "retryable", "attempts", "backoff_ms",
}
