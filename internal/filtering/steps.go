package filtering

import (
	"errors"
	"strconv"

	"github.com/spigell/remote-digest/internal/posting"
	"github.com/spigell/remote-digest/internal/subscriber"
	"go.uber.org/zap"
)

const (
	RemoteScopeFilter = "remote_scope"
	LocationFilter    = "location"
	RoleFilter        = "role"
	ExperienceFilter  = "experience"
	EmploymentFilter  = "employment_type"
	SalaryFilter      = "salary"
	TechFilter        = "tech"
	CompanyFilter     = "company"
	SearchFilter      = "search"
)

// step carries the state every filter shares.
type step struct {
	name     string
	disabled bool
	reason   string
}

func (s *step) Name() string { return s.name }

func (s *step) Disable(reason string) {
	s.disabled = true
	s.reason = reason
}

func (s *step) IsEnabled() bool { return !s.disabled }

func (s *step) Validate(*Config) error { return nil }

func (s *step) Status() Status {
	return Status{Name: s.name, Enabled: !s.disabled, Reason: s.reason}
}

// predicateFilter adapts a plain match function to the Filter interface.
type predicateFilter struct {
	step
	match func(p *posting.Posting, s *subscriber.Profile) Verdict
}

func (f *predicateFilter) Match(p *posting.Posting, s *subscriber.Profile) Verdict {
	return f.match(p, s)
}

func newPredicate(name string, match func(p *posting.Posting, s *subscriber.Profile) Verdict) Filter {
	return &predicateFilter{step: step{name: name}, match: match}
}

// NewRemoteScope creates the filter dropping onsite and unknown-scope postings.
func NewRemoteScope() Filter {
	return newPredicate(RemoteScopeFilter, func(p *posting.Posting, _ *subscriber.Profile) Verdict {
		return MatchRemoteScope(p)
	})
}

func NewLocation() Filter { return newPredicate(LocationFilter, MatchLocation) }

func NewRole() Filter { return newPredicate(RoleFilter, MatchRole) }

func NewExperience() Filter { return newPredicate(ExperienceFilter, MatchExperience) }

func NewEmployment() Filter { return newPredicate(EmploymentFilter, MatchEmployment) }

func NewTech() Filter { return newPredicate(TechFilter, MatchTech) }

func NewCompany() Filter { return newPredicate(CompanyFilter, MatchCompany) }

func NewSearch() Filter { return newPredicate(SearchFilter, MatchSearch) }

type salaryFilter struct {
	step
	threshold float64
}

// NewSalary creates the high-salary filter. The threshold is taken from the
// Config passed to Validate.
func NewSalary() Filter {
	return &salaryFilter{step: step{name: SalaryFilter}, threshold: DefaultSalaryThreshold}
}

func (f *salaryFilter) Validate(cfg *Config) error {
	if cfg == nil || cfg.SalaryThreshold == 0 {
		return nil
	}
	if cfg.SalaryThreshold < 0 {
		return errors.New("salary threshold must not be negative")
	}
	f.threshold = cfg.SalaryThreshold
	return nil
}

func (f *salaryFilter) Match(p *posting.Posting, s *subscriber.Profile) Verdict {
	return MatchSalary(p, s, f.threshold)
}

func (f *salaryFilter) Status() Status {
	status := f.step.Status()
	status.Details = map[string]string{
		"threshold": strconv.FormatFloat(f.threshold, 'f', -1, 64),
	}
	return status
}

// DefaultSteps returns the matching filters in evaluation order.
func DefaultSteps() []Filter {
	return []Filter{
		NewRemoteScope(),
		NewLocation(),
		NewRole(),
		NewExperience(),
		NewEmployment(),
		NewSalary(),
		NewTech(),
		NewCompany(),
		NewSearch(),
	}
}

// Default builds the standard chain.
func Default(cfg *Config, logger *zap.Logger) (*Filtering, error) {
	return New(cfg, DefaultSteps(), logger)
}
