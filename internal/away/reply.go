package away

import (
	"fmt"
	"strings"
	"time"
)

// GenericNotice is sent when the session was started without a reason.
const GenericNotice = "I am currently away and will get back to you later."

// Reply is the content of an automatic answer.
type Reply struct {
	Away    bool
	Reason  string
	Since   time.Time
	Elapsed time.Duration
}

// Text renders the reply as plain text.
func (r Reply) Text() string {
	var b strings.Builder
	b.WriteString("I am currently away.")
	if r.Reason != "" {
		b.WriteString("\nReason: ")
		b.WriteString(r.Reason)
	} else {
		b.WriteString("\n")
		b.WriteString(GenericNotice)
	}
	b.WriteString("\nAway for: ")
	b.WriteString(FormatDuration(r.Elapsed))
	return b.String()
}

// FormatDuration renders d as days, hours and minutes, e.g. "2d 3h 15m".
// Zero units are omitted; minutes are always shown when nothing larger is.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	days := total / 86400
	total %= 86400
	hours := total / 3600
	total %= 3600
	minutes := total / 60

	parts := make([]string, 0, 3)
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	return strings.Join(parts, " ")
}
