package subscriber

import (
	"time"

	"github.com/spigell/remote-digest/internal/utils"
)

type Frequency string

const (
	Daily       Frequency = "daily"
	TwiceWeekly Frequency = "twice_weekly"
	Weekly      Frequency = "weekly"
)

// neverSentDays stands in for the elapsed time of a subscriber who never got a digest.
const neverSentDays = 9999

var twiceWeeklyAliases = map[string]struct{}{
	"2x":           {},
	"2x per week":  {},
	"2x/week":      {},
	"twice_weekly": {},
	"2x_week":      {},
	"twice weekly": {},
}

// NormalizeFrequency maps the free-form frequency values subscribers enter to
// a canonical Frequency. Unknown values fall back to Daily.
func NormalizeFrequency(raw string) Frequency {
	value := utils.Normalize(raw)
	if _, ok := twiceWeeklyAliases[value]; ok {
		return TwiceWeekly
	}
	if value == string(Weekly) {
		return Weekly
	}
	return Daily
}

// MinInterval is the minimum time between two digests.
func (f Frequency) MinInterval() time.Duration {
	switch f {
	case TwiceWeekly:
		return 3 * 24 * time.Hour
	case Weekly:
		return 7 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// DaysSinceLastSent returns the elapsed days since the last digest.
func (p *Profile) DaysSinceLastSent(now time.Time) float64 {
	if p.LastSentAt == nil {
		return neverSentDays
	}
	return now.Sub(*p.LastSentAt).Hours() / 24
}

// IsDueToSend reports whether the profile's frequency allows a digest at now.
func IsDueToSend(p *Profile, now time.Time) bool {
	freq := NormalizeFrequency(p.Frequency)
	minDays := freq.MinInterval().Hours() / 24
	return p.DaysSinceLastSent(now) >= minDays
}
