package digest

import "time"

// Outcome records what happened to one subscriber during a run.
type Outcome struct {
	SubscriberID string `json:"subscriber_id"`
	Email        string `json:"email"`
	Status       Status `json:"status"`
	Matches      int    `json:"matches"`
	Err          error  `json:"-"`
	Error        string `json:"error,omitempty"`
}

// Report summarizes a run.
type Report struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	PoolSize   int       `json:"pool_size"`
	Outcomes   []Outcome `json:"outcomes"`
}

func (r *Report) add(entry *Entry, status Status, err error) {
	outcome := Outcome{
		SubscriberID: entry.Profile.ID,
		Email:        entry.Profile.Email,
		Status:       status,
		Matches:      len(entry.Recommendations),
		Err:          err,
	}
	if err != nil {
		outcome.Error = err.Error()
	}
	r.Outcomes = append(r.Outcomes, outcome)
}

// Count returns the number of subscribers with the given status.
func (r *Report) Count(status Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// Failures returns the outcomes of subscribers whose delivery failed.
func (r *Report) Failures() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if o.Status.Failed() {
			failed = append(failed, o)
		}
	}
	return failed
}
