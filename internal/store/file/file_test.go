package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spigell/remote-digest/internal/posting"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

const postingsJSON = `[
  {
    "Title": "Senior Go Engineer",
    "Company": "Acme",
    "Remote Scope": "Global",
    "tags": "Go, Kubernetes",
    "tech_stack": ["PostgreSQL", "Redis"],
    "min_salary": "120,000",
    "max_salary": "n/a",
    "high_salary": "yes",
    "posted_at": "2024-05-10T08:00:00Z",
    "ingested_at": "yesterday"
  },
  {
    "id": 42,
    "title": "Support Specialist",
    "remote_scope": "hybrid",
    "min_salary": 50000,
    "posted_at": "2024-05-09"
  }
]`

func TestListPostingsDecodesLooseRecords(t *testing.T) {
	dir := t.TempDir()
	store := New(writeFile(t, dir, "postings.json", postingsJSON), "", nil)

	pool, err := store.ListPostings(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("listing postings: %v", err)
	}
	if pool.Len() != 2 {
		t.Fatalf("expected 2 postings, got %d", pool.Len())
	}

	first := pool.Items[0]
	if first.ID != "1" || first.RemoteScope != posting.ScopeGlobal {
		t.Fatalf("unexpected id/scope: %q %q", first.ID, first.RemoteScope)
	}
	if len(first.Tags) != 2 || first.Tags[1] != "Kubernetes" {
		t.Fatalf("unexpected tags %v", first.Tags)
	}
	if len(first.TechStack) != 2 || first.TechStack[0] != "PostgreSQL" {
		t.Fatalf("unexpected tech stack %v", first.TechStack)
	}
	if first.MinSalary == nil || *first.MinSalary != 120000 {
		t.Fatalf("expected min salary 120000, got %v", first.MinSalary)
	}
	if first.MaxSalary != nil {
		t.Fatalf("malformed salary must be absent, got %v", *first.MaxSalary)
	}
	if !first.HighSalary {
		t.Fatalf("expected high salary flag")
	}
	if first.PostedAt == nil || !first.PostedAt.Equal(time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected posted_at %v", first.PostedAt)
	}
	if first.IngestedAt != nil {
		t.Fatalf("malformed timestamp must be absent, got %v", first.IngestedAt)
	}

	second := pool.Items[1]
	if second.ID != "42" || second.RemoteScope != posting.ScopeUnknown {
		t.Fatalf("unexpected id/scope: %q %q", second.ID, second.RemoteScope)
	}
	if second.MinSalary == nil || *second.MinSalary != 50000 {
		t.Fatalf("expected numeric salary, got %v", second.MinSalary)
	}
	if second.PostedAt == nil || second.PostedAt.Day() != 9 {
		t.Fatalf("expected date-only timestamp, got %v", second.PostedAt)
	}
}

const subscribersYAML = `- email: a@example.com
  first_name: Ann
  job_roles: software engineer, sre
  high_salary_only: "Yes"
  frequency: 2x
  last_sent_at: 2024-05-01T10:00:00Z
- Email: b@example.com
  Frequency: weekly
  Last Sent At: not a date
`

func TestSubscribersYAMLRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "subscribers.yaml", subscribersYAML)
	store := New("", path, nil)
	ctx := context.Background()

	profiles, err := store.ListSubscribers(ctx)
	if err != nil {
		t.Fatalf("listing subscribers: %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("expected 2 subscribers, got %d", len(profiles))
	}

	ann := profiles[0]
	if ann.ID != "1" || ann.FirstName != "Ann" || !ann.HighSalaryOnly || ann.Frequency != "2x" {
		t.Fatalf("unexpected profile %+v", ann)
	}
	if ann.LastSentAt == nil || ann.LastSentAt.Day() != 1 {
		t.Fatalf("unexpected last sent %v", ann.LastSentAt)
	}
	if profiles[1].LastSentAt != nil {
		t.Fatalf("malformed last sent must be absent")
	}

	at := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	if err := store.UpdateLastSent(ctx, "2", at); err != nil {
		t.Fatalf("updating last sent: %v", err)
	}

	profiles, err = store.ListSubscribers(ctx)
	if err != nil {
		t.Fatalf("listing subscribers: %v", err)
	}
	if profiles[1].LastSentAt == nil || !profiles[1].LastSentAt.Equal(at) {
		t.Fatalf("expected updated last sent, got %v", profiles[1].LastSentAt)
	}
	if profiles[0].LastSentAt == nil || profiles[0].LastSentAt.Day() != 1 {
		t.Fatalf("other rows must keep their timestamps")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading file: %v", err)
	}
	if strings.Contains(string(raw), "not a date") || !strings.Contains(string(raw), "Last Sent At") {
		t.Fatalf("expected the original column to be overwritten:\n%s", raw)
	}
}

func TestUpdateLastSentErrors(t *testing.T) {
	dir := t.TempDir()
	store := New("", writeFile(t, dir, "subscribers.json", `[{"email": "a@example.com"}]`), nil)
	ctx := context.Background()

	for _, id := range []string{"0", "abc", "2"} {
		if err := store.UpdateLastSent(ctx, id, time.Now()); err == nil {
			t.Fatalf("expected error for id %q", id)
		}
	}

	if err := store.UpdateLastSent(ctx, "1", time.Now()); err != nil {
		t.Fatalf("updating last sent: %v", err)
	}
}

func TestMissingFile(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "missing.json"), "", nil)
	if _, err := store.ListPostings(context.Background(), time.Time{}); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if _, err := store.ListSubscribers(context.Background()); err == nil {
		t.Fatalf("expected error for unconfigured subscribers file")
	}
}
