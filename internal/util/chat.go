package util

import (
	"fmt"
	"strings"
	"time"
)

const MaxMessageRunes = 4000

// NormalizeUsername lowercases and strips decoration so usernames compare
// the way the chat service treats them.
func NormalizeUsername(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "@")
	return strings.ToLower(s)
}

// ClampMessage truncates overly long outbound text at a rune boundary.
func ClampMessage(text string) string {
	runes := []rune(text)
	if len(runes) <= MaxMessageRunes {
		return text
	}
	return string(runes[:MaxMessageRunes-1]) + "…"
}

// HumanDuration renders an age like "3h 12m" or "45s" for presence output.
func HumanDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		h := int(d.Hours())
		m := int(d.Minutes()) - h*60
		return fmt.Sprintf("%dh %dm", h, m)
	}
	days := int(d.Hours()) / 24
	h := int(d.Hours()) - days*24
	return fmt.Sprintf("%dd %dh", days, h)
}

// TruncateText shortens quoted message previews.
func TruncateText(s string, n int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= n {
		return string(runes)
	}
	return string(runes[:n]) + "…"
}
