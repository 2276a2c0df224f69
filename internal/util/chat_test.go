package util

import (
	"strings"
	"testing"
	"time"
)

func TestNormalizeUsername(t *testing.T) {
	cases := map[string]string{
		"@Alice ":  "alice",
		"BOB":      "bob",
		"  @carol": "carol",
	}
	for in, want := range cases {
		if got := NormalizeUsername(in); got != want {
			t.Fatalf("NormalizeUsername(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestClampMessage(t *testing.T) {
	short := "hello"
	if got := ClampMessage(short); got != short {
		t.Fatalf("short message altered: %q", got)
	}
	long := strings.Repeat("가", MaxMessageRunes+50)
	got := ClampMessage(long)
	if runes := []rune(got); len(runes) != MaxMessageRunes {
		t.Fatalf("clamp length %d, want %d", len(runes), MaxMessageRunes)
	}
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("clamped message missing ellipsis")
	}
}

func TestHumanDuration(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{45 * time.Second, "45s"},
		{3 * time.Minute, "3m"},
		{90 * time.Minute, "1h 30m"},
		{26 * time.Hour, "1d 2h"},
		{-time.Second, "0s"},
	}
	for _, c := range cases {
		if got := HumanDuration(c.d); got != c.want {
			t.Fatalf("HumanDuration(%v) = %q, want %q", c.d, got, c.want)
		}
	}
}

func TestTruncateText(t *testing.T) {
	if got := TruncateText("  hello  ", 10); got != "hello" {
		t.Fatalf("unexpected trim: %q", got)
	}
	if got := TruncateText("abcdef", 3); got != "abc…" {
		t.Fatalf("unexpected truncation: %q", got)
	}
}
