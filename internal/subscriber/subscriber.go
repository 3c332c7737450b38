package subscriber

import (
	"strings"
	"time"

	"github.com/spigell/remote-digest/internal/utils"
)

// Profile holds a subscriber's matching preferences. Empty preferences mean
// "no preference".
type Profile struct {
	ID               string     `json:"id,omitempty" mapstructure:"id"`
	Email            string     `json:"email,omitempty" mapstructure:"email"`
	FirstName        string     `json:"first_name,omitempty" mapstructure:"first_name"`
	JobRoles         string     `json:"job_roles,omitempty" mapstructure:"job_roles"`
	LocationPref     string     `json:"location_pref,omitempty" mapstructure:"location_pref"`
	ExperienceLevel  string     `json:"experience_level,omitempty" mapstructure:"experience_level"`
	EmploymentType   string     `json:"employment_type,omitempty" mapstructure:"employment_type"`
	HighSalaryOnly   bool       `json:"high_salary_only,omitempty" mapstructure:"high_salary_only"`
	TechnologiesPref string     `json:"technologies_pref,omitempty" mapstructure:"technologies_pref"`
	LanguagesPref    string     `json:"languages_pref,omitempty" mapstructure:"languages_pref"`
	CompanyPref      string     `json:"company_pref,omitempty" mapstructure:"company_pref"`
	SearchTerm       string     `json:"search_term,omitempty" mapstructure:"search_term"`
	Frequency        string     `json:"frequency,omitempty" mapstructure:"frequency"`
	LastSentAt       *time.Time `json:"last_sent_at,omitempty" mapstructure:"last_sent_at"`
}

// HasIdentity reports whether the profile can receive a digest.
func (p *Profile) HasIdentity() bool {
	return strings.TrimSpace(p.Email) != ""
}

// Greeting returns the name used to address the subscriber.
func (p *Profile) Greeting() string {
	if name := strings.TrimSpace(p.FirstName); name != "" {
		return name
	}
	return "there"
}

func (p *Profile) Technologies() []string { return utils.SplitCSV(p.TechnologiesPref) }

func (p *Profile) Languages() []string { return utils.SplitCSV(p.LanguagesPref) }

func (p *Profile) Companies() []string { return utils.SplitCSV(p.CompanyPref) }
