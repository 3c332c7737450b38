package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), Config{Driver: "mongo"}, nil); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
	if _, err := OpenDatabase(context.Background(), Config{Driver: DriverFile}, nil); err == nil {
		t.Fatalf("expected file driver to be rejected for databases")
	}
	if _, err := OpenDatabase(context.Background(), Config{Driver: DriverSQLite}, nil); err == nil {
		t.Fatalf("expected error without sqlite path")
	}
}

func TestImportFileIntoSQLite(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	postings := filepath.Join(dir, "postings.json")
	subscribers := filepath.Join(dir, "subscribers.json")
	if err := os.WriteFile(postings, []byte(`[{"title": "Go Engineer", "company": "Acme", "remote_scope": "global"}]`), 0o644); err != nil {
		t.Fatalf("writing postings: %v", err)
	}
	if err := os.WriteFile(subscribers, []byte(`[{"email": "a@example.com"}, {"email": ""}]`), 0o644); err != nil {
		t.Fatalf("writing subscribers: %v", err)
	}

	src, err := Open(ctx, Config{Driver: DriverFile, PostingsFile: postings, SubscribersFile: subscribers}, nil)
	if err != nil {
		t.Fatalf("opening file store: %v", err)
	}
	defer src.Close()

	dst, err := OpenDatabase(ctx, Config{Driver: DriverSQLite, SQLitePath: filepath.Join(dir, "digest.db")}, nil)
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	defer dst.Close()

	if err := dst.Migrate(ctx); err != nil {
		t.Fatalf("migrating: %v", err)
	}

	nPostings, nSubscribers, err := Import(ctx, src, dst, nil)
	if err != nil {
		t.Fatalf("importing: %v", err)
	}
	if nPostings != 1 || nSubscribers != 1 {
		t.Fatalf("expected 1 posting and 1 subscriber, got %d and %d", nPostings, nSubscribers)
	}

	profiles, err := dst.ListSubscribers(ctx)
	if err != nil || len(profiles) != 1 || profiles[0].Email != "a@example.com" {
		t.Fatalf("unexpected subscribers %+v %v", profiles, err)
	}
}
