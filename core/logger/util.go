package logger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status maps err onto the status vocabulary accepted by the handler.
func Status(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return "fail"
	}
}

// Took returns rounded duration since start for compact logging.
func Took(start time.Time) time.Duration {
	return RoundMS(time.Since(start))
}

// RoundMS rounds duration to the nearest millisecond for consistent logging.
func RoundMS(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d.Round(time.Millisecond)
}

// Summarize joins up to limit elements and reports whether truncation happened.
func Summarize[T any](values []T, limit int) (string, bool) {
	if limit <= 0 {
		return "", len(values) > 0
	}
	truncated := len(values) > limit
	if truncated {
		values = values[:limit]
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ", "), truncated
}
