package tui

import (
	"time"
	"unicode/utf8"
)

// truncate shortens a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if maxLen < 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// formatEmailDate formats a provider timestamp in milliseconds for the
// header block.
func formatEmailDate(ms int64) string {
	if ms <= 0 {
		return "???"
	}
	return time.UnixMilli(ms).Local().Format(time.RFC1123)
}
