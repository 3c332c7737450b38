package filtering

import (
	"testing"

	"github.com/spigell/remote-digest/internal/posting"
	"github.com/spigell/remote-digest/internal/rules"
	"github.com/spigell/remote-digest/internal/subscriber"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func salary(v float64) *float64 { return &v }

func TestMatchLocation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		scope    posting.RemoteScope
		location string
		pref     string
		expect   Verdict
	}{
		{name: "onsite never matches", scope: posting.ScopeOnsite, location: "Berlin", pref: "", expect: rules.NoMatch},
		{name: "no preference", scope: posting.ScopeCountry, location: "Canada", pref: "", expect: rules.Match},
		{name: "worldwide means anywhere", scope: posting.ScopeCountry, location: "Canada", pref: "Worldwide", expect: rules.Match},
		{name: "global scope", scope: posting.ScopeGlobal, location: "", pref: "Europe", expect: rules.Match},
		{name: "region keyword", scope: posting.ScopeRegional, location: "EMEA only", pref: "Europe", expect: rules.Match},
		{name: "region miss", scope: posting.ScopeRegional, location: "Brazil", pref: "europe / apac", expect: rules.NoMatch},
		{name: "alias", scope: posting.ScopeCountry, location: "USA only", pref: "United States", expect: rules.Match},
		{name: "raw substring", scope: posting.ScopeCountry, location: "Remote, Canada", pref: "canada", expect: rules.Match},
		{name: "raw miss", scope: posting.ScopeCountry, location: "Germany", pref: "canada, us", expect: rules.NoMatch},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := &posting.Posting{RemoteScope: tt.scope, Location: tt.location}
			s := &subscriber.Profile{LocationPref: tt.pref}
			if got := MatchLocation(p, s); got != tt.expect {
				t.Fatalf("expected %s, got %s", tt.expect, got)
			}
		})
	}
}

func TestMatchExperience(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		pref      string
		seniority string
		title     string
		expect    Verdict
	}{
		{name: "no preference", pref: "", title: "Junior Dev", expect: rules.Match},
		{name: "label contains preference", pref: "senior", seniority: "Senior", expect: rules.Match},
		{name: "label mismatch rejects", pref: "senior", seniority: "Mid", title: "Senior Dev", expect: rules.NoMatch},
		{name: "title graduated", pref: "senior", title: "Staff Engineer, Lead", expect: rules.Match},
		{name: "title without signal", pref: "senior", title: "Backend Engineer", expect: rules.Indeterminate},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := &posting.Posting{Seniority: tt.seniority, Title: tt.title}
			s := &subscriber.Profile{ExperienceLevel: tt.pref}
			if got := MatchExperience(p, s); got != tt.expect {
				t.Fatalf("expected %s, got %s", tt.expect, got)
			}
		})
	}
}

func TestMatchSalary(t *testing.T) {
	t.Parallel()

	wants := &subscriber.Profile{HighSalaryOnly: true}

	tests := []struct {
		name   string
		p      *posting.Posting
		s      *subscriber.Profile
		expect Verdict
	}{
		{name: "not requested", p: &posting.Posting{}, s: &subscriber.Profile{}, expect: rules.Match},
		{name: "flagged", p: &posting.Posting{HighSalary: true}, s: wants, expect: rules.Match},
		{name: "max over threshold", p: &posting.Posting{MinSalary: salary(80000), MaxSalary: salary(120000)}, s: wants, expect: rules.Match},
		{name: "exact threshold", p: &posting.Posting{MinSalary: salary(100000)}, s: wants, expect: rules.Match},
		{name: "below", p: &posting.Posting{MaxSalary: salary(90000)}, s: wants, expect: rules.NoMatch},
		{name: "unknown salary", p: &posting.Posting{}, s: wants, expect: rules.NoMatch},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := MatchSalary(tt.p, tt.s, DefaultSalaryThreshold); got != tt.expect {
				t.Fatalf("expected %s, got %s", tt.expect, got)
			}
		})
	}
}

func TestSimplePredicates(t *testing.T) {
	t.Parallel()

	p := &posting.Posting{
		Title:          "Senior Go Engineer",
		Company:        "Acme Robotics",
		EmploymentType: "Full-time",
		Tags:           []string{"Go", "Kubernetes"},
		TechStack:      []string{"PostgreSQL", "Redis"},
		JobRoles:       "Backend Engineer",
	}

	tests := []struct {
		name   string
		match  func(*posting.Posting, *subscriber.Profile) Verdict
		s      *subscriber.Profile
		expect Verdict
	}{
		{name: "employment match", match: MatchEmployment, s: &subscriber.Profile{EmploymentType: "full-time"}, expect: rules.Match},
		{name: "employment mismatch", match: MatchEmployment, s: &subscriber.Profile{EmploymentType: "contract"}, expect: rules.NoMatch},
		{name: "tech via stack", match: MatchTech, s: &subscriber.Profile{TechnologiesPref: "redis, kafka"}, expect: rules.Match},
		{name: "tech via tags", match: MatchTech, s: &subscriber.Profile{LanguagesPref: "go"}, expect: rules.Match},
		{name: "tech miss", match: MatchTech, s: &subscriber.Profile{TechnologiesPref: "go", LanguagesPref: "redis"}, expect: rules.NoMatch},
		{name: "tech no preference", match: MatchTech, s: &subscriber.Profile{}, expect: rules.Match},
		{name: "company substring", match: MatchCompany, s: &subscriber.Profile{CompanyPref: "globex, acme"}, expect: rules.Match},
		{name: "company miss", match: MatchCompany, s: &subscriber.Profile{CompanyPref: "globex"}, expect: rules.NoMatch},
		{name: "search title", match: MatchSearch, s: &subscriber.Profile{SearchTerm: "GO ENGINEER"}, expect: rules.Match},
		{name: "search tags", match: MatchSearch, s: &subscriber.Profile{SearchTerm: "kubernetes"}, expect: rules.Match},
		{name: "search miss", match: MatchSearch, s: &subscriber.Profile{SearchTerm: "rust"}, expect: rules.NoMatch},
		{name: "role bridge", match: MatchRole, s: &subscriber.Profile{JobRoles: "software developer"}, expect: rules.Match},
		{name: "role miss", match: MatchRole, s: &subscriber.Profile{JobRoles: "recruiter"}, expect: rules.NoMatch},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.match(p, tt.s); got != tt.expect {
				t.Fatalf("expected %s, got %s", tt.expect, got)
			}
		})
	}
}

func TestEvaluateStopsAtFirstRejection(t *testing.T) {
	chain, err := Default(&Config{}, nil)
	if err != nil {
		t.Fatalf("building chain: %v", err)
	}

	p := &posting.Posting{
		RemoteScope: posting.ScopeGlobal,
		JobRoles:    "Accountant",
		Company:     "Acme",
	}
	s := &subscriber.Profile{JobRoles: "software engineer", CompanyPref: "globex"}

	result := chain.Evaluate(p, s)
	if result.Passed || result.RejectedBy != RoleFilter {
		t.Fatalf("expected rejection by role, got %+v", result)
	}

	s.JobRoles = ""
	result = chain.Evaluate(p, s)
	if result.Passed || result.RejectedBy != CompanyFilter {
		t.Fatalf("expected rejection by company, got %+v", result)
	}

	s.CompanyPref = ""
	if result = chain.Evaluate(p, s); !result.Passed {
		t.Fatalf("expected pass, got %+v", result)
	}
}

func TestDisabledFilterPasses(t *testing.T) {
	chain, err := Default(&Config{Disabled: []string{CompanyFilter}}, nil)
	if err != nil {
		t.Fatalf("building chain: %v", err)
	}

	p := &posting.Posting{RemoteScope: posting.ScopeGlobal, Company: "Acme"}
	s := &subscriber.Profile{CompanyPref: "globex"}
	if result := chain.Evaluate(p, s); !result.Passed {
		t.Fatalf("expected disabled company filter to pass, got %+v", result)
	}

	for _, status := range Describe(chain.Steps()) {
		if status.Name == CompanyFilter {
			if status.Enabled || status.Reason == "" {
				t.Fatalf("expected company filter reported disabled, got %+v", status)
			}
			return
		}
	}
	t.Fatalf("company filter missing from description")
}

func TestSalaryThresholdValidation(t *testing.T) {
	if _, err := Default(&Config{SalaryThreshold: -1}, nil); err == nil {
		t.Fatalf("expected error for negative threshold")
	}

	chain, err := Default(&Config{SalaryThreshold: 50000}, nil)
	if err != nil {
		t.Fatalf("building chain: %v", err)
	}

	for _, status := range Describe(chain.Steps()) {
		if status.Name == SalaryFilter && status.Details["threshold"] != "50000" {
			t.Fatalf("expected threshold 50000, got %v", status.Details)
		}
	}

	p := &posting.Posting{RemoteScope: posting.ScopeGlobal, MaxSalary: salary(60000)}
	if result := chain.Evaluate(p, &subscriber.Profile{HighSalaryOnly: true}); !result.Passed {
		t.Fatalf("expected configured threshold to apply, got %+v", result)
	}
}

func TestTallyAndLog(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	chain, err := New(&Config{}, []Filter{NewRemoteScope(), NewCompany()}, zap.New(core))
	if err != nil {
		t.Fatalf("building chain: %v", err)
	}

	s := &subscriber.Profile{CompanyPref: "acme"}
	candidates := []*posting.Posting{
		{RemoteScope: posting.ScopeOnsite, Company: "Acme"},
		{RemoteScope: posting.ScopeGlobal, Company: "Globex"},
		{RemoteScope: posting.ScopeGlobal, Company: "Acme"},
	}

	tally := chain.NewTally()
	for _, p := range candidates {
		tally.Record(chain.Evaluate(p, s))
	}

	steps := tally.Steps()
	if len(steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(steps))
	}
	if steps[0].Step != (Step{Initial: 3, Dropped: 1, Left: 2}) {
		t.Fatalf("unexpected remote scope step %+v", steps[0])
	}
	if steps[1].Step != (Step{Initial: 2, Dropped: 1, Left: 1}) {
		t.Fatalf("unexpected company step %+v", steps[1])
	}

	chain.LogTally(tally, zap.String("email", "a@example.com"))
	entries := observed.FilterMessage("filter step").All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	if entries[0].ContextMap()["name"] != RemoteScopeFilter {
		t.Fatalf("unexpected first entry %v", entries[0].ContextMap())
	}
}
