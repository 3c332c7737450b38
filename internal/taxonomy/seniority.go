package taxonomy

import "github.com/spigell/remote-digest/internal/rules"

// Seniority lists title keywords per level, most junior first.
var Seniority = rules.Table{
	{Label: "junior", Keywords: []string{"junior", "jr "}},
	{Label: "mid", Keywords: []string{"mid", "intermediate"}},
	{Label: "senior", Keywords: []string{"senior", "sr ", "sr.", "lead"}},
	{Label: "lead", Keywords: []string{"lead", "principal", "staff"}},
	{Label: "director", Keywords: []string{"director", "head of"}},
	{Label: "vp", Keywords: []string{"vp ", "vice president"}},
}

// acceptedLevels widens a preference to the levels it also accepts.
var acceptedLevels = map[string][]string{
	"senior": {"senior", "lead"},
	"lead":   {"lead", "director"},
}

// AcceptedLevels returns the seniority levels satisfying a preference.
func AcceptedLevels(pref string) []string {
	if levels, ok := acceptedLevels[pref]; ok {
		return levels
	}
	return []string{pref}
}

// TitleSeniority scans a lower-cased title for an accepted level. A title
// without a hit for any accepted level is indeterminate, never a rejection.
func TitleSeniority(pref, title string) rules.Outcome {
	for _, level := range AcceptedLevels(pref) {
		rule, ok := Seniority.Lookup(level)
		if ok && rule.Occurs(title) {
			return rules.Match
		}
	}
	return rules.Indeterminate
}
