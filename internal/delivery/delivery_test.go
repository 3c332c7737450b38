package delivery

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/remote-digest/internal/digest"
	"github.com/spigell/remote-digest/internal/posting"
	"github.com/spigell/remote-digest/internal/subscriber"
)

func sampleDigest() *digest.Digest {
	return &digest.Digest{
		RunID:   "run/1",
		Profile: &subscriber.Profile{Email: "Ann.Lee+jobs@example.com", FirstName: "Ann"},
		Items: []digest.Recommendation{
			{Posting: &posting.Posting{Title: "Go Engineer", Company: "Acme", RemoteScope: posting.ScopeGlobal}},
		},
	}
}

func TestNew(t *testing.T) {
	if _, err := New(Config{Mode: "smtp"}, nil); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
	if _, err := New(Config{Mode: ModeOutbox}, nil); err == nil {
		t.Fatalf("expected error for outbox without dir")
	}

	sender, err := New(Config{}, nil)
	if err != nil {
		t.Fatalf("creating default sender: %v", err)
	}
	if _, ok := sender.(*DryRun); !ok {
		t.Fatalf("expected dry run by default, got %T", sender)
	}
}

func TestDryRunLogs(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	sender, err := New(Config{Mode: ModeDryRun}, zap.New(core))
	if err != nil {
		t.Fatalf("creating sender: %v", err)
	}

	if err := sender.Send(context.Background(), sampleDigest()); err != nil {
		t.Fatalf("sending: %v", err)
	}

	entries := observed.FilterMessage("dry run: digest not sent").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["subscriber"] != "Ann.Lee+jobs@example.com" || ctx["matches"] != int64(1) {
		t.Fatalf("unexpected fields %v", ctx)
	}
}

func TestOutboxWritesFile(t *testing.T) {
	dir := t.TempDir()
	sender, err := New(Config{Mode: ModeOutbox, OutboxDir: dir, Subject: "Fresh roles"}, nil)
	if err != nil {
		t.Fatalf("creating sender: %v", err)
	}

	d := sampleDigest()
	if err := sender.Send(context.Background(), d); err != nil {
		t.Fatalf("sending: %v", err)
	}

	path := filepath.Join(dir, "run_1", "ann.lee_jobs@example.com.html")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading outbox file: %v", err)
	}

	body := string(data)
	for _, want := range []string{"Subject: Fresh roles", "Hi Ann,", "Go Engineer"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in %s", want, body)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sender.Send(ctx, d); err == nil {
		t.Fatalf("expected error for cancelled context")
	}
}
