package rules

import "testing"

var levels = Table{
	{Label: "junior", Keywords: []string{"junior", "jr "}},
	{Label: "senior", Keywords: []string{"senior", "lead"}},
	{Label: "lead", Keywords: []string{"lead", "principal"}},
}

func TestOccurringKeepsTableOrder(t *testing.T) {
	got := levels.Occurring("tech lead, platform")
	if len(got) != 2 || got[0] != "senior" || got[1] != "lead" {
		t.Fatalf("expected [senior lead], got %v", got)
	}

	if got := levels.Occurring("engineer"); len(got) != 0 {
		t.Fatalf("expected no labels, got %v", got)
	}
}

func TestContainingMatchesLabelAndKeywords(t *testing.T) {
	groups := Table{
		{Label: "software engineer", Keywords: []string{"software engineer", "sre"}},
		{Label: "devops engineer", Keywords: []string{"devops engineer", "sre"}},
	}

	got := groups.Containing("sre")
	if len(got) != 2 {
		t.Fatalf("expected two groups, got %v", got)
	}

	got = groups.Containing("devops engineer")
	if len(got) != 1 || got[0] != "devops engineer" {
		t.Fatalf("expected devops engineer, got %v", got)
	}
}

func TestResolve(t *testing.T) {
	aliases := Table{
		{Label: "usa", Keywords: []string{"us", "united states"}},
	}

	if got := aliases.Resolve("united states"); got != "usa" {
		t.Fatalf("expected usa, got %q", got)
	}
	if got := aliases.Resolve("canada"); got != "canada" {
		t.Fatalf("expected unknown token unchanged, got %q", got)
	}
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		outcome Outcome
		passes  bool
		name    string
	}{
		{Match, true, "match"},
		{NoMatch, false, "no_match"},
		{Indeterminate, true, "indeterminate"},
	}

	for _, tt := range tests {
		if tt.outcome.Passes() != tt.passes {
			t.Fatalf("%s: expected passes=%v", tt.name, tt.passes)
		}
		if tt.outcome.String() != tt.name {
			t.Fatalf("expected %q, got %q", tt.name, tt.outcome.String())
		}
	}

	if OutcomeOf(true) != Match || OutcomeOf(false) != NoMatch {
		t.Fatalf("unexpected OutcomeOf conversion")
	}
}

func TestContainsAnyIgnoresEmptyKeywords(t *testing.T) {
	if ContainsAny("anything", []string{""}) {
		t.Fatalf("empty keyword must not match")
	}
}
