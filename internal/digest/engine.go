package digest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/remote-digest/internal/filtering"
	"github.com/spigell/remote-digest/internal/logger"
	"github.com/spigell/remote-digest/internal/posting"
	"github.com/spigell/remote-digest/internal/scoring"
	"github.com/spigell/remote-digest/internal/subscriber"
	"github.com/spigell/remote-digest/internal/utils"
)

const (
	DefaultWindowDays = 2
	DefaultTopN       = 10
)

// Config holds the tunables of a run.
type Config struct {
	WindowDays      int
	TopN            int
	SalaryThreshold float64
	Weights         *scoring.Weights
	DisabledFilters []string
	// OnlyEmail restricts the run to a single subscriber when set.
	OnlyEmail string
}

// Deps are the engine's collaborators. Now and NewRunID default to the wall
// clock and random UUIDs.
type Deps struct {
	Postings    PostingStore
	Subscribers SubscriberStore
	Sender      Sender
	Logger      *zap.Logger
	Now         func() time.Time
	NewRunID    func() string
}

type Engine struct {
	cfg     Config
	deps    Deps
	filters *filtering.Filtering
	scorer  *scoring.Scorer
	logger  *zap.Logger
}

func New(cfg Config, deps Deps) (*Engine, error) {
	if deps.Postings == nil {
		return nil, ErrNoPostingStore
	}
	if deps.Subscribers == nil {
		return nil, ErrNoSubscriberStore
	}
	if deps.Sender == nil {
		return nil, ErrNoSender
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	if deps.NewRunID == nil {
		deps.NewRunID = uuid.NewString
	}

	if cfg.WindowDays <= 0 {
		cfg.WindowDays = DefaultWindowDays
	}
	if cfg.TopN <= 0 {
		cfg.TopN = DefaultTopN
	}
	if cfg.SalaryThreshold <= 0 {
		cfg.SalaryThreshold = filtering.DefaultSalaryThreshold
	}
	weights := scoring.DefaultWeights()
	if cfg.Weights != nil {
		weights = *cfg.Weights
	}

	filters, err := filtering.Default(&filtering.Config{
		SalaryThreshold: cfg.SalaryThreshold,
		Disabled:        cfg.DisabledFilters,
	}, deps.Logger)
	if err != nil {
		return nil, fmt.Errorf("building filters: %w", err)
	}

	return &Engine{
		cfg:     cfg,
		deps:    deps,
		filters: filters,
		scorer:  scoring.New(weights, cfg.SalaryThreshold),
		logger:  deps.Logger,
	}, nil
}

// Filters exposes the filter chain, mostly for describing it.
func (e *Engine) Filters() *filtering.Filtering {
	return e.filters
}

// Run plans and delivers in one go. Only a failure to load postings or
// subscribers is returned as an error.
func (e *Engine) Run(ctx context.Context) (*Report, error) {
	plan, err := e.Plan(ctx)
	if err != nil {
		return nil, err
	}
	return e.Deliver(ctx, plan), nil
}

// Plan loads the pool and the subscribers and matches every due subscriber.
// It has no side effects on the stores.
func (e *Engine) Plan(ctx context.Context) (*Plan, error) {
	now := e.deps.Now()
	plan := &Plan{RunID: e.deps.NewRunID(), CreatedAt: now}
	log := logger.WithRun(e.logger, plan.RunID)

	cutoff := now.Add(-time.Duration(e.cfg.WindowDays) * 24 * time.Hour)

	loaded, err := e.deps.Postings.ListPostings(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("loading postings: %w", err)
	}

	recent := loaded.Recent(cutoff)
	pool := recent.Eligible()
	plan.PoolSize = pool.Len()

	log.Info("posting pool ready",
		zap.Int("loaded", loaded.Len()),
		zap.Int("recent", recent.Len()),
		zap.Int("eligible", pool.Len()),
		zap.Int("window_days", e.cfg.WindowDays),
	)

	profiles, err := e.deps.Subscribers.ListSubscribers(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading subscribers: %w", err)
	}

	log.Info("subscribers loaded", zap.Int("count", len(profiles)))

	only := utils.Normalize(e.cfg.OnlyEmail)
	for _, profile := range profiles {
		if only != "" && utils.Normalize(profile.Email) != only {
			continue
		}

		entry := &Entry{Profile: profile}
		plan.Entries = append(plan.Entries, entry)

		subLog := logger.WithFields(log, logger.SubscriberFields(
			profile.Email, string(subscriber.NormalizeFrequency(profile.Frequency)),
		)...)

		switch {
		case !profile.HasIdentity():
			entry.Status = StatusNoIdentity
			subLog.Warn("skipping subscriber", zap.String("reason", "no email"), zap.String("id", profile.ID))
			continue
		case !subscriber.IsDueToSend(profile, now):
			entry.Status = StatusNotDue
			subLog.Debug("skipping subscriber", zap.String("reason", "not due"),
				zap.Float64("days_since_last_sent", profile.DaysSinceLastSent(now)),
			)
			continue
		}

		entry.Recommendations = e.match(profile, pool, now, subLog)
		if len(entry.Recommendations) == 0 {
			entry.Status = StatusNoMatches
			subLog.Info("no matching postings")
			continue
		}

		entry.Status = StatusPending
		subLog.Info("digest planned", zap.Int("matches", len(entry.Recommendations)))
	}

	return plan, nil
}

// Match selects and ranks the postings for one subscriber. Postings sharing
// a fingerprint with an already accepted posting are skipped; a rejected
// posting does not claim its fingerprint.
func (e *Engine) Match(profile *subscriber.Profile, pool *posting.Postings, now time.Time) []Recommendation {
	return e.match(profile, pool, now, e.logger)
}

func (e *Engine) match(profile *subscriber.Profile, pool *posting.Postings, now time.Time, log *zap.Logger) []Recommendation {
	seen := make(map[string]struct{})
	tally := e.filters.NewTally()
	matches := make([]Recommendation, 0)
	duplicates, unscored := 0, 0

	if pool == nil {
		return matches
	}

	for _, p := range pool.Items {
		fp := posting.Fingerprint(p)
		if _, ok := seen[fp]; ok {
			duplicates++
			continue
		}

		result := e.filters.Evaluate(p, profile)
		tally.Record(result)
		if !result.Passed {
			continue
		}

		score := e.scorer.Score(p, profile, now)
		if score.Total <= 0 {
			unscored++
			continue
		}

		matches = append(matches, Recommendation{Posting: p, Score: score, Fingerprint: fp})
		seen[fp] = struct{}{}
	}

	e.filters.LogTally(tally, logger.SubscriberFields(profile.Email, "")...)

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score.Total > matches[j].Score.Total
	})

	if len(matches) > e.cfg.TopN {
		matches = matches[:e.cfg.TopN]
	}

	log.Debug("matching finished",
		zap.Int("pool", pool.Len()),
		zap.Int("duplicates", duplicates),
		zap.Int("non_positive_score", unscored),
		zap.Int("selected", len(matches)),
		zap.String("search_term", utils.TruncateForLog(profile.SearchTerm, 40)),
	)

	return matches
}

// Deliver sends every pending digest and records the send time. A failure is
// logged and recorded for that subscriber only; the run goes on.
func (e *Engine) Deliver(ctx context.Context, plan *Plan) *Report {
	report := &Report{
		RunID:     plan.RunID,
		StartedAt: plan.CreatedAt,
		PoolSize:  plan.PoolSize,
	}
	log := logger.WithRun(e.logger, plan.RunID)

	for _, entry := range plan.Entries {
		if entry.Status != StatusPending {
			report.add(entry, entry.Status, nil)
			continue
		}

		subLog := logger.WithFields(log, logger.SubscriberFields(entry.Profile.Email, "")...)

		d := &Digest{
			RunID:     plan.RunID,
			CreatedAt: e.deps.Now(),
			Profile:   entry.Profile,
			Items:     entry.Recommendations,
		}

		if err := e.deps.Sender.Send(ctx, d); err != nil {
			subLog.Error("sending digest", zap.Error(err))
			report.add(entry, StatusSendFailed, fmt.Errorf("sending digest: %w", err))
			continue
		}

		if err := e.deps.Subscribers.UpdateLastSent(ctx, entry.Profile.ID, e.deps.Now()); err != nil {
			subLog.Error("updating last sent time", zap.Error(err))
			report.add(entry, StatusUpdateFailed, fmt.Errorf("updating last sent: %w", err))
			continue
		}

		subLog.Info("digest sent", zap.Int("matches", len(entry.Recommendations)))
		report.add(entry, StatusSent, nil)
	}

	report.FinishedAt = e.deps.Now()

	log.Info("run finished",
		zap.Int("sent", report.Count(StatusSent)),
		zap.Int("no_matches", report.Count(StatusNoMatches)),
		zap.Int("not_due", report.Count(StatusNotDue)),
		zap.Int("failed", len(report.Failures())),
		zap.String("failed_subscribers", strings.Join(emails(report.Failures()), ",")),
	)

	return report
}

func emails(outcomes []Outcome) []string {
	out := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		out = append(out, o.Email)
	}
	return out
}
