package taxonomy

import "github.com/spigell/remote-digest/internal/rules"

// Anywhere is the normalized location preference that accepts every posting.
const Anywhere = "anywhere"

// LocationAliases normalizes location preference tokens.
var LocationAliases = rules.Table{
	{Label: "usa", Keywords: []string{"us", "united states", "united states of america"}},
	{Label: "united kingdom", Keywords: []string{"uk", "england", "scotland", "wales"}},
	{Label: Anywhere, Keywords: []string{"worldwide", "remote"}},
}

// Regions lists the keywords that identify a posting location as part of a region.
var Regions = rules.Table{
	{Label: "europe", Keywords: []string{"europe", "emea", "eu"}},
	{Label: "latam", Keywords: []string{"latam", "latin america"}},
	{Label: "apac", Keywords: []string{"apac", "asia pacific"}},
	{Label: "africa", Keywords: []string{"africa"}},
}
