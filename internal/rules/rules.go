// Package rules evaluates ordered label→keyword tables against free text.
//
// Tables are plain data so the heuristics they encode (seniority levels,
// regions, location aliases, role synonyms) can be extended without touching
// the matching code.
package rules

import "strings"

// Outcome is the tri-state result of a heuristic check.
type Outcome int

const (
	// Indeterminate means there was not enough signal to decide.
	Indeterminate Outcome = iota
	Match
	NoMatch
)

func (o Outcome) String() string {
	switch o {
	case Match:
		return "match"
	case NoMatch:
		return "no_match"
	default:
		return "indeterminate"
	}
}

// Passes collapses the outcome to a boolean. Ambiguity never blocks.
func (o Outcome) Passes() bool {
	return o != NoMatch
}

// OutcomeOf converts a boolean check into Match or NoMatch.
func OutcomeOf(ok bool) Outcome {
	if ok {
		return Match
	}
	return NoMatch
}

// Rule binds a label to the keywords that signal it.
type Rule struct {
	Label    string
	Keywords []string
}

// Table is an ordered list of rules. Order matters: lookups that return a
// single label return the first one in table order.
type Table []Rule

// Occurs reports whether any rule keyword is a substring of text.
func (r Rule) Occurs(text string) bool {
	return ContainsAny(text, r.Keywords)
}

// Has reports whether token equals the label or one of the keywords.
func (r Rule) Has(token string) bool {
	if token == r.Label {
		return true
	}
	for _, kw := range r.Keywords {
		if kw == token {
			return true
		}
	}
	return false
}

// Lookup returns the rule with the given label.
func (t Table) Lookup(label string) (Rule, bool) {
	for _, r := range t {
		if r.Label == label {
			return r, true
		}
	}
	return Rule{}, false
}

// Occurring returns labels of the rules with a keyword inside text, in table order.
func (t Table) Occurring(text string) []string {
	var labels []string
	for _, r := range t {
		if r.Occurs(text) {
			labels = append(labels, r.Label)
		}
	}
	return labels
}

// Containing returns labels of every rule that has token as its label or keyword.
func (t Table) Containing(token string) []string {
	var labels []string
	for _, r := range t {
		if r.Has(token) {
			labels = append(labels, r.Label)
		}
	}
	return labels
}

// Resolve returns the first label whose keywords contain token exactly.
// Unknown tokens are returned unchanged.
func (t Table) Resolve(token string) string {
	for _, r := range t {
		for _, kw := range r.Keywords {
			if kw == token {
				return r.Label
			}
		}
	}
	return token
}

// ContainsAny reports whether any non-empty keyword is a substring of text.
func ContainsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
