package subscriber

import (
	"testing"
	"time"
)

func TestNormalizeFrequency(t *testing.T) {
	t.Parallel()

	tests := map[string]Frequency{
		"2x":           TwiceWeekly,
		"2x per week":  TwiceWeekly,
		"2X/Week":      TwiceWeekly,
		"twice_weekly": TwiceWeekly,
		"2x_week":      TwiceWeekly,
		" twice weekly": TwiceWeekly,
		"Weekly":       Weekly,
		"daily":        Daily,
		"":             Daily,
		"monthly":      Daily,
	}

	for raw, expect := range tests {
		if got := NormalizeFrequency(raw); got != expect {
			t.Fatalf("NormalizeFrequency(%q): expected %q, got %q", raw, expect, got)
		}
	}
}

func TestIsDueToSend(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	ago := func(d time.Duration) *time.Time {
		ts := now.Add(-d)
		return &ts
	}

	tests := []struct {
		name      string
		frequency string
		lastSent  *time.Time
		expect    bool
	}{
		{name: "never sent", frequency: "weekly", expect: true},
		{name: "daily after 23h", frequency: "daily", lastSent: ago(23 * time.Hour), expect: false},
		{name: "daily after 24h", frequency: "daily", lastSent: ago(24 * time.Hour), expect: true},
		{name: "twice weekly after 2 days", frequency: "2x", lastSent: ago(48 * time.Hour), expect: false},
		{name: "twice weekly after 3 days", frequency: "2x/week", lastSent: ago(72 * time.Hour), expect: true},
		{name: "weekly after 6 days", frequency: "weekly", lastSent: ago(6 * 24 * time.Hour), expect: false},
		{name: "weekly after 7 days", frequency: "weekly", lastSent: ago(7 * 24 * time.Hour), expect: true},
		{name: "unknown frequency is daily", frequency: "hourly", lastSent: ago(25 * time.Hour), expect: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := &Profile{Frequency: tt.frequency, LastSentAt: tt.lastSent}
			if got := IsDueToSend(p, now); got != tt.expect {
				t.Fatalf("expected %v, got %v", tt.expect, got)
			}
		})
	}
}

func TestProfileHelpers(t *testing.T) {
	p := &Profile{Email: "  ", TechnologiesPref: "Go, Rust", CompanyPref: "acme"}
	if p.HasIdentity() {
		t.Fatalf("blank email must not count as identity")
	}
	if p.Greeting() != "there" {
		t.Fatalf("expected fallback greeting, got %q", p.Greeting())
	}
	if techs := p.Technologies(); len(techs) != 2 || techs[0] != "go" || techs[1] != "rust" {
		t.Fatalf("unexpected technologies %v", techs)
	}
	if len(p.Languages()) != 0 {
		t.Fatalf("expected no languages")
	}
}
