// Package taxonomy holds the canonical role groups and the location and
// seniority tables used by the matching filters.
package taxonomy

import (
	"github.com/spigell/remote-digest/internal/rules"
	"github.com/spigell/remote-digest/internal/utils"
)

// RoleGroups maps canonical roles to their synonyms. The order is significant
// for CanonicalRole when a synonym belongs to several groups.
var RoleGroups = rules.Table{
	{Label: "software engineer", Keywords: []string{
		"software engineer", "software developer", "swe", "backend engineer", "frontend engineer",
		"full-stack engineer", "full stack engineer", "mobile engineer", "devops engineer",
		"site reliability engineer", "sre", "platform engineer",
	}},
	{Label: "backend engineer", Keywords: []string{"backend engineer", "backend developer", "server engineer"}},
	{Label: "frontend engineer", Keywords: []string{"frontend engineer", "front-end engineer", "front end engineer", "ui engineer"}},
	{Label: "full-stack engineer", Keywords: []string{"full-stack engineer", "full stack engineer", "fullstack engineer"}},
	{Label: "devops engineer", Keywords: []string{"devops engineer", "site reliability engineer", "sre", "platform engineer"}},
	{Label: "data engineer", Keywords: []string{"data engineer", "analytics engineer", "data platform engineer"}},
	{Label: "data scientist", Keywords: []string{"data scientist", "ml engineer", "machine learning engineer"}},
	{Label: "data analyst", Keywords: []string{"data analyst", "business intelligence analyst", "bi analyst"}},
	{Label: "product manager", Keywords: []string{"product manager", "product owner", "product lead"}},
	{Label: "product designer", Keywords: []string{"product designer", "ux/ui designer", "ux designer", "ui designer"}},
	{Label: "marketing manager", Keywords: []string{"marketing manager", "digital marketing manager", "product marketing manager"}},
	{Label: "growth marketer", Keywords: []string{"growth marketer", "performance marketer", "paid media manager"}},
	{Label: "content marketer", Keywords: []string{"content marketer", "copywriter", "copy writer", "content writer"}},
	{Label: "sales representative", Keywords: []string{"sales representative", "sales dev rep", "sdr", "bdr", "inside sales"}},
	{Label: "account executive", Keywords: []string{"account executive", "ae"}},
	{Label: "customer success manager", Keywords: []string{"customer success manager", "customer success", "cs manager"}},
	{Label: "support specialist", Keywords: []string{"support specialist", "customer support", "technical support", "helpdesk"}},
	{Label: "recruiter", Keywords: []string{"recruiter", "talent acquisition", "talent partner"}},
	{Label: "hr generalist", Keywords: []string{"hr generalist", "hr specialist"}},
	{Label: "people operations", Keywords: []string{"people operations", "people ops", "people operations manager"}},
	{Label: "project manager", Keywords: []string{"project manager", "program manager", "delivery manager"}},
	{Label: "operations manager", Keywords: []string{"operations manager", "business operations", "ops manager"}},
	{Label: "finance manager", Keywords: []string{"finance manager", "fp&a manager", "financial analyst"}},
	{Label: "accountant", Keywords: []string{"accountant", "senior accountant"}},
	{Label: "legal counsel", Keywords: []string{"legal counsel", "corporate counsel", "attorney", "lawyer"}},
	{Label: "founder / ceo", Keywords: []string{"founder", "co-founder", "ceo"}},
	{Label: "cto", Keywords: []string{"cto", "chief technology officer"}},
	{Label: "cpo", Keywords: []string{"cpo", "chief product officer"}},
	{Label: "coo", Keywords: []string{"coo", "chief operating officer"}},
	{Label: "other", Keywords: []string{"other"}},
}

// ExpandSubscriberRoles turns a comma separated role preference into the set
// of canonical buckets it covers. Tokens outside the taxonomy are kept as is.
func ExpandSubscriberRoles(csv string) map[string]struct{} {
	expanded := make(map[string]struct{})
	for _, token := range utils.SplitCSV(csv) {
		buckets := RoleGroups.Containing(token)
		if len(buckets) == 0 {
			expanded[token] = struct{}{}
			continue
		}
		for _, bucket := range buckets {
			expanded[bucket] = struct{}{}
		}
	}
	return expanded
}

// CanonicalRole maps a single posting role to a canonical bucket. A value
// that names a bucket resolves to itself; otherwise the first group listing
// it as a synonym wins.
func CanonicalRole(raw string) string {
	role := utils.Normalize(raw)
	if role == "" {
		return ""
	}
	if _, ok := RoleGroups.Lookup(role); ok {
		return role
	}
	return RoleGroups.Resolve(role)
}

// MatchRoles reports whether a posting role satisfies a subscriber's role
// preference, directly or through a bucket that lists the posting's
// canonical role as a synonym.
func MatchRoles(postingRole, subscriberCSV string) bool {
	expanded := ExpandSubscriberRoles(subscriberCSV)
	if len(expanded) == 0 {
		return true
	}

	canonical := CanonicalRole(postingRole)
	if canonical == "" {
		return false
	}

	if _, ok := expanded[canonical]; ok {
		return true
	}

	for _, bucket := range RoleGroups.Containing(canonical) {
		if _, ok := expanded[bucket]; ok {
			return true
		}
	}
	return false
}
