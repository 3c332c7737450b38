// Package scoring ranks postings that passed the filter chain for a subscriber.
package scoring

import (
	"time"

	"github.com/spigell/remote-digest/internal/filtering"
	"github.com/spigell/remote-digest/internal/posting"
	"github.com/spigell/remote-digest/internal/subscriber"
)

// Weights are the points each matched dimension contributes.
type Weights struct {
	Role        int `mapstructure:"role"`
	Location    int `mapstructure:"location"`
	Experience  int `mapstructure:"experience"`
	Employment  int `mapstructure:"employment"`
	Tech        int `mapstructure:"tech"`
	Company     int `mapstructure:"company"`
	HighSalary  int `mapstructure:"high-salary"`
	FreshDay    int `mapstructure:"fresh-day"`
	FreshTwoDay int `mapstructure:"fresh-two-days"`
	Global      int `mapstructure:"global"`
}

// DefaultWeights returns the standard scoring weights.
func DefaultWeights() Weights {
	return Weights{
		Role:        3,
		Location:    2,
		Experience:  2,
		Employment:  1,
		Tech:        1,
		Company:     1,
		HighSalary:  1,
		FreshDay:    2,
		FreshTwoDay: 1,
		Global:      1,
	}
}

// Breakdown lists what each dimension contributed to a score.
type Breakdown struct {
	Total int            `json:"total"`
	Parts map[string]int `json:"parts,omitempty"`
}

func (b *Breakdown) add(name string, points int) {
	if points == 0 {
		return
	}
	if b.Parts == nil {
		b.Parts = make(map[string]int)
	}
	b.Parts[name] += points
	b.Total += points
}

// Scorer computes additive relevance scores.
type Scorer struct {
	weights         Weights
	salaryThreshold float64
}

func New(weights Weights, salaryThreshold float64) *Scorer {
	if salaryThreshold <= 0 {
		salaryThreshold = filtering.DefaultSalaryThreshold
	}
	return &Scorer{weights: weights, salaryThreshold: salaryThreshold}
}

// Score evaluates p for s at now. Each dimension counts when its filter
// would let the posting through.
func (sc *Scorer) Score(p *posting.Posting, s *subscriber.Profile, now time.Time) Breakdown {
	var b Breakdown
	w := sc.weights

	if filtering.MatchRole(p, s).Passes() {
		b.add("role", w.Role)
	}
	if filtering.MatchLocation(p, s).Passes() {
		b.add("location", w.Location)
	}
	if filtering.MatchExperience(p, s).Passes() {
		b.add("experience", w.Experience)
	}
	if filtering.MatchEmployment(p, s).Passes() {
		b.add("employment", w.Employment)
	}
	if filtering.MatchTech(p, s).Passes() {
		b.add("tech", w.Tech)
	}
	if filtering.MatchCompany(p, s).Passes() {
		b.add("company", w.Company)
	}
	if s.HighSalaryOnly && filtering.MatchSalary(p, s, sc.salaryThreshold).Passes() {
		b.add("high_salary", w.HighSalary)
	}

	if seen, ok := p.LastSeen(); ok {
		age := now.Sub(seen)
		switch {
		case age <= 24*time.Hour:
			b.add("recency", w.FreshDay)
		case age <= 48*time.Hour:
			b.add("recency", w.FreshTwoDay)
		}
	}

	if p.RemoteScope.Normalized() == posting.ScopeGlobal {
		b.add("global", w.Global)
	}

	return b
}
