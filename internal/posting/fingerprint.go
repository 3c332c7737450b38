package posting

import (
	"strings"

	"github.com/spigell/remote-digest/internal/utils"
)

// remoteMarkers are stripped from titles, in this order, so the same job
// cross-posted as "Remote - X" and "X (Remote)" collapses to one fingerprint.
var remoteMarkers = []string{"remote -", "remote/", "(remote)", "[remote]", "remote job", "remote"}

// Fingerprint identifies a posting across boards by its normalized title,
// company and location.
func Fingerprint(p *Posting) string {
	return strings.Join([]string{
		normalizeTitle(p.Title),
		utils.Normalize(p.Company),
		utils.Normalize(p.Location),
	}, "::")
}

func normalizeTitle(title string) string {
	title = utils.Normalize(title)
	for _, marker := range remoteMarkers {
		title = strings.TrimSpace(strings.ReplaceAll(title, marker, ""))
	}
	return title
}
