// Package delivery implements digest senders.
package delivery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/remote-digest/internal/digest"
	"github.com/spigell/remote-digest/internal/logger"
	"github.com/spigell/remote-digest/internal/render"
	"github.com/spigell/remote-digest/internal/utils"
)

const (
	ModeDryRun = "dry-run"
	ModeOutbox = "outbox"
)

type Config struct {
	Mode      string
	OutboxDir string
	Subject   string
}

// New returns the sender for cfg.Mode.
func New(cfg Config, log *zap.Logger) (digest.Sender, error) {
	log = logger.WithFields(log)
	subject := strings.TrimSpace(cfg.Subject)
	if subject == "" {
		subject = render.DefaultSubject
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Mode)) {
	case ModeDryRun, "":
		return &DryRun{subject: subject, logger: log}, nil
	case ModeOutbox:
		if strings.TrimSpace(cfg.OutboxDir) == "" {
			return nil, fmt.Errorf("delivery.outbox-dir is required for the outbox mode")
		}
		return &Outbox{dir: cfg.OutboxDir, subject: subject, logger: log}, nil
	default:
		return nil, fmt.Errorf("unsupported delivery mode: %s", cfg.Mode)
	}
}

// DryRun renders digests and logs them instead of sending.
type DryRun struct {
	subject string
	logger  *zap.Logger
}

func (d *DryRun) Send(ctx context.Context, dg *digest.Digest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := render.HTML(dg)
	if err != nil {
		return err
	}

	titles := make([]string, 0, len(dg.Items))
	for _, rec := range dg.Items {
		titles = append(titles, utils.TruncateForLog(rec.Posting.Title, 60))
	}

	d.logger.Info("dry run: digest not sent",
		zap.String(logger.FieldSubscriber, dg.Profile.Email),
		zap.String("subject", d.subject),
		zap.Int("matches", len(dg.Items)),
		zap.Int("body_bytes", len(body)),
		zap.Strings("titles", titles),
	)
	return nil
}

// Outbox writes each digest to <dir>/<run id>/<email>.html for a mail relay
// or a human to pick up.
type Outbox struct {
	dir     string
	subject string
	logger  *zap.Logger
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9@._-]+`)

func (o *Outbox) Send(ctx context.Context, dg *digest.Digest) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := render.HTML(dg)
	if err != nil {
		return err
	}

	dir := filepath.Join(o.dir, unsafeChars.ReplaceAllString(dg.RunID, "_"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating outbox dir: %w", err)
	}

	path := filepath.Join(dir, o.FileName(dg))
	content := fmt.Sprintf("<!-- To: %s -->\n<!-- Subject: %s -->\n%s", dg.Profile.Email, o.subject, body)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing digest: %w", err)
	}

	o.logger.Info("digest written to outbox",
		zap.String(logger.FieldSubscriber, dg.Profile.Email),
		zap.String("path", path),
		zap.Int("matches", len(dg.Items)),
	)
	return nil
}

// FileName returns the outbox file name for the digest's subscriber.
func (o *Outbox) FileName(dg *digest.Digest) string {
	name := unsafeChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(dg.Profile.Email)), "_")
	return name + ".html"
}
