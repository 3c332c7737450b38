// Package postgres keeps postings and subscribers in PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spigell/remote-digest/internal/posting"
	"github.com/spigell/remote-digest/internal/subscriber"
)

const pingTimeout = 5 * time.Second

type Store struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// Connect opens a pool for dsn and pings it.
func Connect(ctx context.Context, dsn string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("postgres dsn is required")
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating postgres pool: %w", err)
	}

	pingCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, pingTimeout)
		defer cancel()
	}
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	logger.Debug("connected to postgres",
		zap.String("host", cfg.ConnConfig.Host),
		zap.String("database", cfg.ConnConfig.Database),
	)

	return &Store{pool: pool, logger: logger}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS postings (
	id BIGSERIAL PRIMARY KEY,
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
	tags TEXT[] NOT NULL DEFAULT '{}',
	tech_stack TEXT[] NOT NULL DEFAULT '{}',
	min_salary DOUBLE PRECISION NULL,
	max_salary DOUBLE PRECISION NULL,
	currency TEXT NOT NULL DEFAULT '',
	high_salary BOOLEAN NOT NULL DEFAULT FALSE,
	posted_at TIMESTAMPTZ NULL,
	ingested_at TIMESTAMPTZ NULL DEFAULT now(),
	url TEXT NOT NULL DEFAULT '',
	apply_url TEXT NOT NULL DEFAULT '',
	UNIQUE (source, source_job_id)
);

CREATE INDEX IF NOT EXISTS postings_seen_idx ON postings (GREATEST(posted_at, ingested_at));

CREATE TABLE IF NOT EXISTS subscribers (
	id BIGSERIAL PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	first_name TEXT NOT NULL DEFAULT '',
	job_roles TEXT NOT NULL DEFAULT '',
	location_pref TEXT NOT NULL DEFAULT '',
	experience_level TEXT NOT NULL DEFAULT '',
	employment_type TEXT NOT NULL DEFAULT '',
	high_salary_only BOOLEAN NOT NULL DEFAULT FALSE,
	technologies_pref TEXT NOT NULL DEFAULT '',
	languages_pref TEXT NOT NULL DEFAULT '',
	company_pref TEXT NOT NULL DEFAULT '',
	search_term TEXT NOT NULL DEFAULT '',
	frequency TEXT NOT NULL DEFAULT '',
	last_sent_at TIMESTAMPTZ NULL
);
`)
	return err
}

// ListPostings returns the matchable postings seen at or after since, oldest id first.
func (s *Store) ListPostings(ctx context.Context, since time.Time) (*posting.Postings, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, source, source_job_id, title, company, location, remote_scope, job_roles, job_category,
	seniority, employment_type, tags, tech_stack, min_salary, max_salary, currency, high_salary,
	posted_at, ingested_at, url, apply_url
FROM postings
WHERE GREATEST(posted_at, ingested_at) >= $1
	AND lower(remote_scope) IN ('global', 'country', 'regional')
ORDER BY id`, since)
	if err != nil {
		return nil, fmt.Errorf("querying postings: %w", err)
	}
	defer rows.Close()

	pool := &posting.Postings{Items: make([]*posting.Posting, 0)}
	for rows.Next() {
		var (
			p     posting.Posting
			id    int64
			scope string
		)
		if err := rows.Scan(
			&id, &p.Source, &p.SourceJobID, &p.Title, &p.Company, &p.Location, &scope, &p.JobRoles, &p.JobCategory,
			&p.Seniority, &p.EmploymentType, &p.Tags, &p.TechStack, &p.MinSalary, &p.MaxSalary, &p.Currency, &p.HighSalary,
			&p.PostedAt, &p.IngestedAt, &p.URL, &p.ApplyURL,
		); err != nil {
			return nil, fmt.Errorf("scanning posting: %w", err)
		}
		p.ID = strconv.FormatInt(id, 10)
		p.RemoteScope = posting.ParseRemoteScope(scope)
		pool.Items = append(pool.Items, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating postings: %w", err)
	}
	return pool, nil
}

func (s *Store) ListSubscribers(ctx context.Context) ([]*subscriber.Profile, error) {
	rows, err := s.pool.Query(ctx, `
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
			p  subscriber.Profile
			id int64
		)
		if err := rows.Scan(
			&id, &p.Email, &p.FirstName, &p.JobRoles, &p.LocationPref, &p.ExperienceLevel, &p.EmploymentType,
			&p.HighSalaryOnly, &p.TechnologiesPref, &p.LanguagesPref, &p.CompanyPref, &p.SearchTerm, &p.Frequency, &p.LastSentAt,
		); err != nil {
			return nil, fmt.Errorf("scanning subscriber: %w", err)
		}
		p.ID = strconv.FormatInt(id, 10)
		profiles = append(profiles, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating subscribers: %w", err)
	}
	return profiles, nil
}

func (s *Store) UpdateLastSent(ctx context.Context, id string, at time.Time) error {
	key, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid subscriber id %q: %w", id, err)
	}

	tag, err := s.pool.Exec(ctx, `UPDATE subscribers SET last_sent_at = $1 WHERE id = $2`, at.UTC(), key)
	if err != nil {
		return fmt.Errorf("updating subscriber %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("subscriber %s: %w", id, pgx.ErrNoRows)
	}
	return nil
}

// SavePosting inserts a posting or refreshes the stored copy with the same
// source and source job id.
func (s *Store) SavePosting(ctx context.Context, p *posting.Posting) error {
	jobID := p.SourceJobID
	if jobID == "" {
		jobID = posting.Fingerprint(p)
	}

	_, err := s.pool.Exec(ctx, `
INSERT INTO postings (source, source_job_id, title, company, location, remote_scope, job_roles, job_category,
	seniority, employment_type, tags, tech_stack, min_salary, max_salary, currency, high_salary,
	posted_at, ingested_at, url, apply_url)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, COALESCE($18, now()), $19, $20)
ON CONFLICT (source, source_job_id) DO UPDATE SET
	title = EXCLUDED.title,
	company = EXCLUDED.company,
	location = EXCLUDED.location,
	remote_scope = EXCLUDED.remote_scope,
	job_roles = EXCLUDED.job_roles,
	job_category = EXCLUDED.job_category,
	seniority = EXCLUDED.seniority,
	employment_type = EXCLUDED.employment_type,
	tags = EXCLUDED.tags,
	tech_stack = EXCLUDED.tech_stack,
	min_salary = EXCLUDED.min_salary,
	max_salary = EXCLUDED.max_salary,
	currency = EXCLUDED.currency,
	high_salary = EXCLUDED.high_salary,
	posted_at = EXCLUDED.posted_at,
	url = EXCLUDED.url,
	apply_url = EXCLUDED.apply_url`,
		p.Source, jobID, p.Title, p.Company, p.Location, string(p.RemoteScope.Normalized()), p.JobRoles, p.JobCategory,
		p.Seniority, p.EmploymentType, nonNil(p.Tags), nonNil(p.TechStack), p.MinSalary, p.MaxSalary, p.Currency, p.HighSalary,
		p.PostedAt, p.IngestedAt, p.URL, p.ApplyURL,
	)
	if err != nil {
		return fmt.Errorf("saving posting %q: %w", p.Title, err)
	}
	return nil
}

// SaveSubscriber inserts a subscriber or updates the preferences of the one
// with the same email. The last sent time is kept unless the profile has one.
func (s *Store) SaveSubscriber(ctx context.Context, p *subscriber.Profile) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO subscribers (email, first_name, job_roles, location_pref, experience_level, employment_type,
	high_salary_only, technologies_pref, languages_pref, company_pref, search_term, frequency, last_sent_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (email) DO UPDATE SET
	first_name = EXCLUDED.first_name,
	job_roles = EXCLUDED.job_roles,
	location_pref = EXCLUDED.location_pref,
	experience_level = EXCLUDED.experience_level,
	employment_type = EXCLUDED.employment_type,
	high_salary_only = EXCLUDED.high_salary_only,
	technologies_pref = EXCLUDED.technologies_pref,
	languages_pref = EXCLUDED.languages_pref,
	company_pref = EXCLUDED.company_pref,
	search_term = EXCLUDED.search_term,
	frequency = EXCLUDED.frequency,
	last_sent_at = COALESCE(EXCLUDED.last_sent_at, subscribers.last_sent_at)`,
		strings.TrimSpace(p.Email), p.FirstName, p.JobRoles, p.LocationPref, p.ExperienceLevel, p.EmploymentType,
		p.HighSalaryOnly, p.TechnologiesPref, p.LanguagesPref, p.CompanyPref, p.SearchTerm, p.Frequency, p.LastSentAt,
	)
	if err != nil {
		return fmt.Errorf("saving subscriber %q: %w", p.Email, err)
	}
	return nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
