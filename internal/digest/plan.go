package digest

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spigell/remote-digest/internal/subscriber"
)

// Entry is the planned outcome for one subscriber.
type Entry struct {
	Profile         *subscriber.Profile `json:"profile"`
	Status          Status              `json:"status"`
	Recommendations []Recommendation    `json:"recommendations,omitempty"`
}

// Plan is the result of matching a pool against every subscriber, before
// anything is sent or stored.
type Plan struct {
	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`
	PoolSize  int       `json:"pool_size"`
	Entries   []*Entry  `json:"entries"`
}

// Pending returns the entries that have a digest to send.
func (p *Plan) Pending() []*Entry {
	pending := make([]*Entry, 0)
	for _, entry := range p.Entries {
		if entry.Status == StatusPending {
			pending = append(pending, entry)
		}
	}
	return pending
}

func (p *Plan) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "digest_plan_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// ReportBySubscriber groups the pending recommendations by subscriber.
func (p *Plan) ReportBySubscriber() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, entry := range p.Pending() {
		key := fmt.Sprintf("%s (%s)", entry.Profile.Email, subscriber.NormalizeFrequency(entry.Profile.Frequency))
		for _, rec := range entry.Recommendations {
			report[key] = append(report[key], map[string]string{
				"title":    rec.Posting.Title,
				"company":  rec.Posting.Company,
				"location": rec.Posting.Location,
				"scope":    string(rec.Posting.RemoteScope),
				"url":      rec.Posting.Link(),
				"score":    fmt.Sprintf("%d", rec.Score.Total),
			})
		}
	}
	return report
}
