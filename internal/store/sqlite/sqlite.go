// Package sqlite keeps postings and subscribers in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/spigell/remote-digest/internal/posting"
	"github.com/spigell/remote-digest/internal/subscriber"
)

type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens the database at path and checks it is reachable.
func Open(ctx context.Context, path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection serializes writers and keeps :memory: databases shared.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configuring sqlite: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS postings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	source TEXT NOT NULL DEFAULT '',
	source_job_id TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	company TEXT NOT NULL DEFAULT '',
	location TEXT NOT NULL DEFAULT '',
	remote_scope TEXT NOT NULL DEFAULT 'unknown',
	job_roles TEXT NOT NULL DEFAULT '',
	job_category TEXT NOT NULL DEFAULT '',
	seniority TEXT NOT NULL DEFAULT '',
	employment_type TEXT NOT NULL DEFAULT '',
	tags TEXT NOT NULL DEFAULT '',
	tech_stack TEXT NOT NULL DEFAULT '',
	min_salary REAL NULL,
	max_salary REAL NULL,
	currency TEXT NOT NULL DEFAULT '',
	high_salary INTEGER NOT NULL DEFAULT 0,
	posted_at TEXT NULL,
	ingested_at TEXT NULL,
	url TEXT NOT NULL DEFAULT '',
	apply_url TEXT NOT NULL DEFAULT '',
	UNIQUE(source, source_job_id)
);

CREATE TABLE IF NOT EXISTS subscribers (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	email TEXT NOT NULL UNIQUE,
	first_name TEXT NOT NULL DEFAULT '',
	job_roles TEXT NOT NULL DEFAULT '',
	location_pref TEXT NOT NULL DEFAULT '',
	experience_level TEXT NOT NULL DEFAULT '',
	employment_type TEXT NOT NULL DEFAULT '',
	high_salary_only INTEGER NOT NULL DEFAULT 0,
	technologies_pref TEXT NOT NULL DEFAULT '',
	languages_pref TEXT NOT NULL DEFAULT '',
	company_pref TEXT NOT NULL DEFAULT '',
	search_term TEXT NOT NULL DEFAULT '',
	frequency TEXT NOT NULL DEFAULT '',
	last_sent_at TEXT NULL
);
`)
	return err
}

// ListPostings returns every stored posting in insertion order.
func (s *Store) ListPostings(ctx context.Context, _ time.Time) (*posting.Postings, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, source, source_job_id, title, company, location, remote_scope, job_roles, job_category,
	seniority, employment_type, tags, tech_stack, min_salary, max_salary, currency, high_salary,
	posted_at, ingested_at, url, apply_url
FROM postings
ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying postings: %w", err)
	}
	defer rows.Close()

	pool := &posting.Postings{Items: make([]*posting.Posting, 0)}
	for rows.Next() {
		var (
			p                    posting.Posting
			id                   int64
			scope, tags, stack   string
			minSalary, maxSalary sql.NullFloat64
			postedAt, ingestedAt sql.NullString
		)
		if err := rows.Scan(
			&id, &p.Source, &p.SourceJobID, &p.Title, &p.Company, &p.Location, &scope, &p.JobRoles, &p.JobCategory,
			&p.Seniority, &p.EmploymentType, &tags, &stack, &minSalary, &maxSalary, &p.Currency, &p.HighSalary,
			&postedAt, &ingestedAt, &p.URL, &p.ApplyURL,
		); err != nil {
			return nil, fmt.Errorf("scanning posting: %w", err)
		}

		p.ID = strconv.FormatInt(id, 10)
		p.RemoteScope = posting.ParseRemoteScope(scope)
		p.Tags = splitList(tags)
		p.TechStack = splitList(stack)
		p.MinSalary = nullFloat(minSalary)
		p.MaxSalary = nullFloat(maxSalary)
		p.PostedAt = parseTime(postedAt)
		p.IngestedAt = parseTime(ingestedAt)

		pool.Items = append(pool.Items, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating postings: %w", err)
	}
	return pool, nil
}

func (s *Store) ListSubscribers(ctx context.Context) ([]*subscriber.Profile, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, email, first_name, job_roles, location_pref, experience_level, employment_type,
	high_salary_only, technologies_pref, languages_pref, company_pref, search_term, frequency, last_sent_at
FROM subscribers
ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying subscribers: %w", err)
	}
	defer rows.Close()

	profiles := make([]*subscriber.Profile, 0)
	for rows.Next() {
		var (
			p        subscriber.Profile
			id       int64
			lastSent sql.NullString
		)
		if err := rows.Scan(
			&id, &p.Email, &p.FirstName, &p.JobRoles, &p.LocationPref, &p.ExperienceLevel, &p.EmploymentType,
			&p.HighSalaryOnly, &p.TechnologiesPref, &p.LanguagesPref, &p.CompanyPref, &p.SearchTerm, &p.Frequency, &lastSent,
		); err != nil {
			return nil, fmt.Errorf("scanning subscriber: %w", err)
		}
		p.ID = strconv.FormatInt(id, 10)
		p.LastSentAt = parseTime(lastSent)
		profiles = append(profiles, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating subscribers: %w", err)
	}
	return profiles, nil
}

func (s *Store) UpdateLastSent(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE subscribers SET last_sent_at = ? WHERE id = ?`, formatTime(&at), id)
	if err != nil {
		return fmt.Errorf("updating subscriber %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("subscriber %s not found", id)
	}
	return nil
}

// SavePosting inserts a posting or refreshes the stored copy with the same
// source and source job id.
func (s *Store) SavePosting(ctx context.Context, p *posting.Posting) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO postings (source, source_job_id, title, company, location, remote_scope, job_roles, job_category,
	seniority, employment_type, tags, tech_stack, min_salary, max_salary, currency, high_salary,
	posted_at, ingested_at, url, apply_url)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(source, source_job_id) DO UPDATE SET
	title = excluded.title,
	company = excluded.company,
	location = excluded.location,
	remote_scope = excluded.remote_scope,
	job_roles = excluded.job_roles,
	job_category = excluded.job_category,
	seniority = excluded.seniority,
	employment_type = excluded.employment_type,
	tags = excluded.tags,
	tech_stack = excluded.tech_stack,
	min_salary = excluded.min_salary,
	max_salary = excluded.max_salary,
	currency = excluded.currency,
	high_salary = excluded.high_salary,
	posted_at = excluded.posted_at,
	ingested_at = excluded.ingested_at,
	url = excluded.url,
	apply_url = excluded.apply_url`,
		p.Source, sourceJobID(p), p.Title, p.Company, p.Location, string(p.RemoteScope.Normalized()), p.JobRoles, p.JobCategory,
		p.Seniority, p.EmploymentType, strings.Join(p.Tags, ", "), strings.Join(p.TechStack, ", "),
		p.MinSalary, p.MaxSalary, p.Currency, p.HighSalary,
		formatTime(p.PostedAt), formatTime(p.IngestedAt), p.URL, p.ApplyURL,
	)
	if err != nil {
		return fmt.Errorf("saving posting %q: %w", p.Title, err)
	}
	return nil
}

// SaveSubscriber inserts a subscriber or updates the preferences of the one
// with the same email. The last sent time is kept unless the profile has one.
func (s *Store) SaveSubscriber(ctx context.Context, p *subscriber.Profile) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO subscribers (email, first_name, job_roles, location_pref, experience_level, employment_type,
	high_salary_only, technologies_pref, languages_pref, company_pref, search_term, frequency, last_sent_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(email) DO UPDATE SET
	first_name = excluded.first_name,
	job_roles = excluded.job_roles,
	location_pref = excluded.location_pref,
	experience_level = excluded.experience_level,
	employment_type = excluded.employment_type,
	high_salary_only = excluded.high_salary_only,
	technologies_pref = excluded.technologies_pref,
	languages_pref = excluded.languages_pref,
	company_pref = excluded.company_pref,
	search_term = excluded.search_term,
	frequency = excluded.frequency,
	last_sent_at = COALESCE(excluded.last_sent_at, subscribers.last_sent_at)`,
		strings.TrimSpace(p.Email), p.FirstName, p.JobRoles, p.LocationPref, p.ExperienceLevel, p.EmploymentType,
		p.HighSalaryOnly, p.TechnologiesPref, p.LanguagesPref, p.CompanyPref, p.SearchTerm, p.Frequency,
		formatTime(p.LastSentAt),
	)
	if err != nil {
		return fmt.Errorf("saving subscriber %q: %w", p.Email, err)
	}
	return nil
}

func sourceJobID(p *posting.Posting) string {
	if p.SourceJobID != "" {
		return p.SourceJobID
	}
	return posting.Fingerprint(p)
}

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime treats unparsable values as absent.
func parseTime(v sql.NullString) *time.Time {
	if !v.Valid {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, strings.TrimSpace(v.String)); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func splitList(s string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
