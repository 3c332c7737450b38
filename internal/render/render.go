// Package render turns a digest into the HTML body sent to subscribers.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/spigell/remote-digest/internal/digest"
	"github.com/spigell/remote-digest/internal/posting"
)

// DefaultSubject is used when no subject is configured.
const DefaultSubject = "Your remote job opportunities"

//go:embed templates/*.html
var templates embed.FS

var digestTemplate = template.Must(template.ParseFS(templates, "templates/digest.html"))

var printer = message.NewPrinter(language.English)

type item struct {
	Title      string
	Company    string
	Location   string
	Chips      []string
	HighSalary bool
	Salary     string
	ApplyURL   string
	BoardURL   string
	Source     string
}

type page struct {
	Greeting string
	Count    int
	Items    []item
	RunID    string
}

// HTML renders the digest body.
func HTML(d *digest.Digest) (string, error) {
	data := page{
		Greeting: d.Profile.Greeting(),
		Count:    len(d.Items),
		Items:    make([]item, 0, len(d.Items)),
		RunID:    d.RunID,
	}

	for _, rec := range d.Items {
		p := rec.Posting
		data.Items = append(data.Items, item{
			Title:      fallback(p.Title, "Untitled role"),
			Company:    fallback(p.Company, "Unknown company"),
			Location:   fallback(p.Location, "Remote"),
			Chips:      chips(p),
			HighSalary: p.HighSalary,
			Salary:     SalaryRange(p),
			ApplyURL:   p.Link(),
			BoardURL:   p.URL,
			Source:     p.Source,
		})
	}

	var buf bytes.Buffer
	if err := digestTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering digest: %w", err)
	}
	return buf.String(), nil
}

// SalaryRange formats the salary bounds, e.g. "90,000–120,000 USD",
// "up to 120,000 USD" or "from 90,000 USD". It is empty without bounds.
func SalaryRange(p *posting.Posting) string {
	var text string
	switch {
	case p.MinSalary != nil && p.MaxSalary != nil:
		text = fmt.Sprintf("%s–%s", amount(*p.MinSalary), amount(*p.MaxSalary))
	case p.MaxSalary != nil:
		text = "up to " + amount(*p.MaxSalary)
	case p.MinSalary != nil:
		text = "from " + amount(*p.MinSalary)
	default:
		return ""
	}

	if currency := strings.TrimSpace(p.Currency); currency != "" {
		text += " " + strings.ToUpper(currency)
	}
	return text
}

func amount(v float64) string {
	return printer.Sprintf("%d", int64(v))
}

func chips(p *posting.Posting) []string {
	var out []string
	for _, value := range []string{p.JobRoles, p.JobCategory, p.Seniority, p.EmploymentType} {
		if value = strings.TrimSpace(value); value != "" {
			out = append(out, value)
		}
	}
	if scope := p.RemoteScope.Normalized(); scope.Matchable() {
		out = append(out, "Remote: "+string(scope))
	}
	return out
}

func fallback(value, def string) string {
	if value = strings.TrimSpace(value); value != "" {
		return value
	}
	return def
}
