package posting

import (
	"strings"
	"time"
)

type RemoteScope string

const (
	ScopeGlobal   RemoteScope = "global"
	ScopeCountry  RemoteScope = "country"
	ScopeRegional RemoteScope = "regional"
	ScopeOnsite   RemoteScope = "onsite"
	ScopeUnknown  RemoteScope = "unknown"
)

// ParseRemoteScope normalizes a stored scope value. Anything unrecognized,
// including an empty value, is ScopeUnknown.
func ParseRemoteScope(s string) RemoteScope {
	switch scope := RemoteScope(strings.ToLower(strings.TrimSpace(s))); scope {
	case ScopeGlobal, ScopeCountry, ScopeRegional, ScopeOnsite:
		return scope
	default:
		return ScopeUnknown
	}
}

// Normalized re-parses the scope so values set outside a store still compare.
func (s RemoteScope) Normalized() RemoteScope {
	return ParseRemoteScope(string(s))
}

// Matchable reports whether postings with this scope may be offered to subscribers.
func (s RemoteScope) Matchable() bool {
	switch s.Normalized() {
	case ScopeGlobal, ScopeCountry, ScopeRegional:
		return true
	default:
		return false
	}
}

// Posting is a collected job posting. The engine never modifies it.
type Posting struct {
	ID             string      `json:"id,omitempty" mapstructure:"id"`
	Source         string      `json:"source,omitempty" mapstructure:"source"`
	SourceJobID    string      `json:"source_job_id,omitempty" mapstructure:"source_job_id"`
	Title          string      `json:"title,omitempty" mapstructure:"title"`
	Company        string      `json:"company,omitempty" mapstructure:"company"`
	Location       string      `json:"location,omitempty" mapstructure:"location"`
	RemoteScope    RemoteScope `json:"remote_scope,omitempty" mapstructure:"remote_scope"`
	JobRoles       string      `json:"job_roles,omitempty" mapstructure:"job_roles"`
	JobCategory    string      `json:"job_category,omitempty" mapstructure:"job_category"`
	Seniority      string      `json:"seniority,omitempty" mapstructure:"seniority"`
	EmploymentType string      `json:"employment_type,omitempty" mapstructure:"employment_type"`
	Tags           []string    `json:"tags,omitempty" mapstructure:"tags"`
	TechStack      []string    `json:"tech_stack,omitempty" mapstructure:"tech_stack"`
	MinSalary      *float64    `json:"min_salary,omitempty" mapstructure:"min_salary"`
	MaxSalary      *float64    `json:"max_salary,omitempty" mapstructure:"max_salary"`
	Currency       string      `json:"currency,omitempty" mapstructure:"currency"`
	HighSalary     bool        `json:"high_salary,omitempty" mapstructure:"high_salary"`
	PostedAt       *time.Time  `json:"posted_at,omitempty" mapstructure:"posted_at"`
	IngestedAt     *time.Time  `json:"ingested_at,omitempty" mapstructure:"ingested_at"`
	URL            string      `json:"url,omitempty" mapstructure:"url"`
	ApplyURL       string      `json:"apply_url,omitempty" mapstructure:"apply_url"`
}

// LastSeen returns the more recent of the posted and ingested timestamps.
func (p *Posting) LastSeen() (time.Time, bool) {
	var latest time.Time
	for _, ts := range []*time.Time{p.PostedAt, p.IngestedAt} {
		if ts != nil && ts.After(latest) {
			latest = *ts
		}
	}
	return latest, !latest.IsZero()
}

// IsRecent reports whether the posting was posted or ingested at or after cutoff.
func (p *Posting) IsRecent(cutoff time.Time) bool {
	seen, ok := p.LastSeen()
	return ok && !seen.Before(cutoff)
}

// SalaryCeiling returns the larger of the present salary bounds.
func (p *Posting) SalaryCeiling() (float64, bool) {
	switch {
	case p.MinSalary != nil && p.MaxSalary != nil:
		return max(*p.MinSalary, *p.MaxSalary), true
	case p.MaxSalary != nil:
		return *p.MaxSalary, true
	case p.MinSalary != nil:
		return *p.MinSalary, true
	default:
		return 0, false
	}
}

// Link prefers the direct application URL.
func (p *Posting) Link() string {
	if p.ApplyURL != "" {
		return p.ApplyURL
	}
	return p.URL
}
