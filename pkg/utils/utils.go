package utils

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// FileSlug sanitizes a channel or session label for use in file names.
// Anything outside letters, digits, dot, underscore and hyphen becomes
// a hyphen; the result is lowercased.
func FileSlug(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '.' || r == '_' || r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "session"
	}
	return out
}

// Timestamp formats a time as a compact UTC stamp for file names.
func Timestamp(t time.Time) string {
	return t.UTC().Format("20060102-150405")
}

// FormatDuration formats a duration in human-readable form for logs.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}

// TruncateString shortens a string to maxLen, appending an ellipsis
// when something was cut.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
