package filtering

import (
	"strings"

	"github.com/spigell/remote-digest/internal/posting"
	"github.com/spigell/remote-digest/internal/rules"
	"github.com/spigell/remote-digest/internal/subscriber"
	"github.com/spigell/remote-digest/internal/taxonomy"
	"github.com/spigell/remote-digest/internal/utils"
)

// MatchRemoteScope accepts postings with a global, country or regional scope.
func MatchRemoteScope(p *posting.Posting) Verdict {
	return rules.OutcomeOf(p.RemoteScope.Matchable())
}

// MatchLocation checks the subscriber's location preference against the
// posting's location and scope.
func MatchLocation(p *posting.Posting, s *subscriber.Profile) Verdict {
	if !p.RemoteScope.Matchable() {
		return rules.NoMatch
	}

	tokens := utils.SplitAny(s.LocationPref, ",/")
	if len(tokens) == 0 {
		return rules.Match
	}

	for i, token := range tokens {
		tokens[i] = taxonomy.LocationAliases.Resolve(token)
		if tokens[i] == taxonomy.Anywhere {
			return rules.Match
		}
	}

	if p.RemoteScope.Normalized() == posting.ScopeGlobal {
		return rules.Match
	}

	location := utils.Normalize(p.Location)
	for _, token := range tokens {
		if region, ok := taxonomy.Regions.Lookup(token); ok {
			if region.Occurs(location) {
				return rules.Match
			}
			continue
		}
		if strings.Contains(location, token) {
			return rules.Match
		}
	}
	return rules.NoMatch
}

func MatchRole(p *posting.Posting, s *subscriber.Profile) Verdict {
	return rules.OutcomeOf(taxonomy.MatchRoles(p.JobRoles, s.JobRoles))
}

// MatchExperience compares the preferred level with the posting's seniority
// label, or with level keywords in the title when there is no label.
func MatchExperience(p *posting.Posting, s *subscriber.Profile) Verdict {
	pref := utils.Normalize(s.ExperienceLevel)
	if pref == "" {
		return rules.Match
	}

	if label := utils.Normalize(p.Seniority); label != "" {
		return rules.OutcomeOf(strings.Contains(label, pref))
	}

	return taxonomy.TitleSeniority(pref, utils.Normalize(p.Title))
}

func MatchEmployment(p *posting.Posting, s *subscriber.Profile) Verdict {
	pref := utils.Normalize(s.EmploymentType)
	kind := utils.Normalize(p.EmploymentType)
	if pref == "" || kind == "" {
		return rules.Match
	}
	return rules.OutcomeOf(strings.Contains(kind, pref))
}

// MatchSalary applies only to subscribers who want high-paying roles. Salaries
// are compared as-is, without currency conversion.
func MatchSalary(p *posting.Posting, s *subscriber.Profile, threshold float64) Verdict {
	if !s.HighSalaryOnly || p.HighSalary {
		return rules.Match
	}
	ceiling, ok := p.SalaryCeiling()
	return rules.OutcomeOf(ok && ceiling >= threshold)
}

// MatchTech passes when the posting's stack overlaps the preferred
// technologies or its tags overlap the preferred languages.
func MatchTech(p *posting.Posting, s *subscriber.Profile) Verdict {
	techs, langs := s.Technologies(), s.Languages()
	if len(techs) == 0 && len(langs) == 0 {
		return rules.Match
	}
	return rules.OutcomeOf(
		utils.Intersects(utils.NormalizeAll(p.TechStack), techs) ||
			utils.Intersects(utils.NormalizeAll(p.Tags), langs),
	)
}

func MatchCompany(p *posting.Posting, s *subscriber.Profile) Verdict {
	companies := s.Companies()
	if len(companies) == 0 {
		return rules.Match
	}
	return rules.OutcomeOf(rules.ContainsAny(utils.Normalize(p.Company), companies))
}

func MatchSearch(p *posting.Posting, s *subscriber.Profile) Verdict {
	term := utils.Normalize(s.SearchTerm)
	if term == "" {
		return rules.Match
	}
	haystack := strings.ToLower(strings.Join([]string{
		p.Title,
		p.Company,
		strings.Join(p.Tags, ", "),
		p.JobRoles,
	}, " "))
	return rules.OutcomeOf(strings.Contains(haystack, term))
}
