package filtering

import (
	"fmt"

	"github.com/spigell/remote-digest/internal/posting"
	"github.com/spigell/remote-digest/internal/rules"
	"github.com/spigell/remote-digest/internal/subscriber"
	"go.uber.org/zap"
)

// DefaultSalaryThreshold is the salary ceiling a posting must reach for
// subscribers asking for high-paying roles only.
const DefaultSalaryThreshold = 100000

// Verdict is the outcome of a single filter. Indeterminate passes.
type Verdict = rules.Outcome

// Filter represents a single matching step applied to a posting for a subscriber.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate(cfg *Config) error
	Match(p *posting.Posting, s *subscriber.Profile) Verdict
}

// Step describes how many candidates reached a filter and how many it dropped.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Config contains configuration settings consumed by the filters.
type Config struct {
	SalaryThreshold float64
	Disabled        []string
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string            `json:"name"`
	Enabled bool              `json:"enabled"`
	Reason  string            `json:"reason,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// statusProvider is implemented by filters that can supply detailed status information.
type statusProvider interface {
	Status() Status
}

// Result is the outcome of running the whole chain on one candidate.
type Result struct {
	Passed     bool
	RejectedBy string
}

// Filtering runs filters in order and stops at the first rejection.
type Filtering struct {
	steps  []Filter
	logger *zap.Logger
}

// New validates the enabled steps and returns the chain.
func New(cfg *Config, steps []Filter, logger *zap.Logger) (*Filtering, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = &Config{}
	}

	for _, name := range cfg.Disabled {
		DisableByName(steps, name, "disabled by configuration")
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			logger.Info("filter disabled", zap.String("name", step.Name()))
			continue
		}
		if err := step.Validate(cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	return &Filtering{steps: steps, logger: logger}, nil
}

// Steps returns the filters in evaluation order.
func (f *Filtering) Steps() []Filter {
	return f.steps
}

// Evaluate runs the chain on a single candidate.
func (f *Filtering) Evaluate(p *posting.Posting, s *subscriber.Profile) Result {
	for _, step := range f.steps {
		if !step.IsEnabled() {
			continue
		}
		if !step.Match(p, s).Passes() {
			return Result{RejectedBy: step.Name()}
		}
	}
	return Result{Passed: true}
}

// NewTally starts counting evaluations for one subscriber.
func (f *Filtering) NewTally() *Tally {
	names := make([]string, 0, len(f.steps))
	for _, step := range f.steps {
		if step.IsEnabled() {
			names = append(names, step.Name())
		}
	}
	return &Tally{names: names, dropped: make(map[string]int, len(names))}
}

// LogTally writes one debug line per filter step.
func (f *Filtering) LogTally(t *Tally, fields ...zap.Field) {
	for _, ns := range t.Steps() {
		f.logger.Debug("filter step", append([]zap.Field{
			zap.String("name", ns.Name),
			zap.Int("initial", ns.Initial),
			zap.Int("dropped", ns.Dropped),
			zap.Int("left", ns.Left),
		}, fields...)...)
	}
}

// NamedStep is a Step labelled with its filter name.
type NamedStep struct {
	Name string
	Step
}

// Tally accumulates per-filter counters over a series of evaluations.
type Tally struct {
	names     []string
	evaluated int
	dropped   map[string]int
}

// Record adds one evaluation result.
func (t *Tally) Record(r Result) {
	t.evaluated++
	if !r.Passed {
		t.dropped[r.RejectedBy]++
	}
}

// Steps returns the counters in filter order.
func (t *Tally) Steps() []NamedStep {
	steps := make([]NamedStep, 0, len(t.names))
	left := t.evaluated
	for _, name := range t.names {
		initial := left
		left -= t.dropped[name]
		steps = append(steps, NamedStep{
			Name: name,
			Step: Step{Initial: initial, Dropped: t.dropped[name], Left: left},
		})
	}
	return steps
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Filter, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}
