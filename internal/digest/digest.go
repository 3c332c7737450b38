// Package digest decides, for every subscriber, which collected postings to
// send and when, and hands the resulting digests to a Sender.
package digest

import (
	"context"
	"errors"
	"time"

	"github.com/spigell/remote-digest/internal/posting"
	"github.com/spigell/remote-digest/internal/scoring"
	"github.com/spigell/remote-digest/internal/subscriber"
)

var (
	ErrNoPostingStore    = errors.New("posting store is required")
	ErrNoSubscriberStore = errors.New("subscriber store is required")
	ErrNoSender          = errors.New("sender is required")
)

// PostingStore provides the posting pool. Implementations may pre-filter by
// since; the engine applies the window again either way.
type PostingStore interface {
	ListPostings(ctx context.Context, since time.Time) (*posting.Postings, error)
}

// SubscriberStore provides subscriber profiles and records sends.
type SubscriberStore interface {
	ListSubscribers(ctx context.Context) ([]*subscriber.Profile, error)
	UpdateLastSent(ctx context.Context, id string, at time.Time) error
}

// Sender delivers a rendered digest to one subscriber.
type Sender interface {
	Send(ctx context.Context, d *Digest) error
}

// Recommendation is a posting selected for a subscriber with its score.
type Recommendation struct {
	Posting     *posting.Posting  `json:"posting"`
	Score       scoring.Breakdown `json:"score"`
	Fingerprint string            `json:"fingerprint"`
}

// Digest is what a Sender receives: the ordered recommendations for one subscriber.
type Digest struct {
	RunID     string              `json:"run_id"`
	CreatedAt time.Time           `json:"created_at"`
	Profile   *subscriber.Profile `json:"profile"`
	Items     []Recommendation    `json:"items"`
}

type Status string

const (
	StatusNoIdentity   Status = "no_identity"
	StatusNotDue       Status = "not_due"
	StatusNoMatches    Status = "no_matches"
	StatusPending      Status = "pending"
	StatusSent         Status = "sent"
	StatusSendFailed   Status = "send_failed"
	StatusUpdateFailed Status = "update_failed"
)

// Failed reports whether the status is a delivery failure.
func (s Status) Failed() bool {
	return s == StatusSendFailed || s == StatusUpdateFailed
}
