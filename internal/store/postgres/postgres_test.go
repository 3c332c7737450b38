package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/spigell/remote-digest/internal/posting"
	"github.com/spigell/remote-digest/internal/subscriber"
)

// Set DIGEST_TEST_POSTGRES_DSN to a disposable database to run these tests.
func connect(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("DIGEST_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("DIGEST_TEST_POSTGRES_DSN is not set")
	}

	ctx := context.Background()
	store, err := Connect(ctx, dsn, nil)
	if err != nil {
		t.Fatalf("connecting: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	if _, err := store.pool.Exec(ctx, "TRUNCATE postings, subscribers RESTART IDENTITY"); err != nil {
		t.Fatalf("truncating: %v", err)
	}
	return store
}

func TestConnectRequiresDSN(t *testing.T) {
	if _, err := Connect(context.Background(), " ", nil); err == nil {
		t.Fatalf("expected error for empty dsn")
	}
}

func TestListPostingsAppliesWindowAndScope(t *testing.T) {
	store := connect(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	fresh := now.Add(-time.Hour)
	stale := now.Add(-10 * 24 * time.Hour)

	for _, p := range []*posting.Posting{
		{Source: "a", SourceJobID: "1", Title: "Fresh", RemoteScope: posting.ScopeGlobal, PostedAt: &fresh, IngestedAt: &fresh, Tags: []string{"Go"}},
		{Source: "a", SourceJobID: "2", Title: "Stale", RemoteScope: posting.ScopeGlobal, PostedAt: &stale, IngestedAt: &stale},
		{Source: "a", SourceJobID: "3", Title: "Onsite", RemoteScope: posting.ScopeOnsite, PostedAt: &fresh, IngestedAt: &fresh},
	} {
		if err := store.SavePosting(ctx, p); err != nil {
			t.Fatalf("saving posting: %v", err)
		}
	}

	pool, err := store.ListPostings(ctx, now.Add(-48*time.Hour))
	if err != nil {
		t.Fatalf("listing postings: %v", err)
	}
	if pool.Len() != 1 || pool.Items[0].Title != "Fresh" || len(pool.Items[0].Tags) != 1 {
		t.Fatalf("unexpected pool %+v", pool.Items)
	}
}

func TestUpdateLastSent(t *testing.T) {
	store := connect(t)
	ctx := context.Background()

	if err := store.SaveSubscriber(ctx, &subscriber.Profile{Email: "a@example.com"}); err != nil {
		t.Fatalf("saving subscriber: %v", err)
	}

	profiles, err := store.ListSubscribers(ctx)
	if err != nil || len(profiles) != 1 {
		t.Fatalf("listing subscribers: %v %v", profiles, err)
	}

	at := time.Now().UTC().Truncate(time.Second)
	if err := store.UpdateLastSent(ctx, profiles[0].ID, at); err != nil {
		t.Fatalf("updating last sent: %v", err)
	}
	if err := store.UpdateLastSent(ctx, "404", at); err == nil {
		t.Fatalf("expected error for unknown subscriber")
	}

	profiles, err = store.ListSubscribers(ctx)
	if err != nil {
		t.Fatalf("listing subscribers: %v", err)
	}
	if profiles[0].LastSentAt == nil || !profiles[0].LastSentAt.Equal(at) {
		t.Fatalf("expected last sent %v, got %v", at, profiles[0].LastSentAt)
	}
}
