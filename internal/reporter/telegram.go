// Package reporter sends run summaries to an operator chat.
package reporter

import (
	"fmt"
	"html"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/spigell/remote-digest/internal/digest"
)

// Reporter receives run summaries and fatal run errors.
type Reporter interface {
	SendReport(r *digest.Report) error
	SendError(err error) error
}

// Nop drops everything. Used when telegram is not configured.
type Nop struct{}

func (Nop) SendReport(*digest.Report) error { return nil }
func (Nop) SendError(error) error           { return nil }

type TelegramReporter struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *zap.Logger
}

func NewTelegramReporter(token string, chatID int64, logger *zap.Logger) (*TelegramReporter, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("telegram chat id is required")
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &TelegramReporter{bot: bot, chatID: chatID, logger: logger}, nil
}

func (t *TelegramReporter) SendMessage(text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}
	return nil
}

func (t *TelegramReporter) SendReport(r *digest.Report) error {
	if err := t.SendMessage(FormatReport(r)); err != nil {
		return err
	}
	t.logger.Debug("run report sent to telegram", zap.Int64("chat_id", t.chatID))
	return nil
}

func (t *TelegramReporter) SendError(errReq error) error {
	return t.SendMessage(FormatError(errReq))
}

// maxFailuresListed caps the failure lines of one message.
const maxFailuresListed = 10

// FormatReport renders a run summary as telegram HTML.
func FormatReport(r *digest.Report) string {
	if r == nil {
		return "<b>Digest run</b>: no report"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>Digest run</b> <code>%s</code>\n", html.EscapeString(r.RunID))
	fmt.Fprintf(&b, "Pool: %d postings\n", r.PoolSize)
	fmt.Fprintf(&b, "Sent: %d\n", r.Count(digest.StatusSent))
	fmt.Fprintf(&b, "No matches: %d\n", r.Count(digest.StatusNoMatches))
	fmt.Fprintf(&b, "Not due: %d\n", r.Count(digest.StatusNotDue))

	if skipped := r.Count(digest.StatusNoIdentity); skipped > 0 {
		fmt.Fprintf(&b, "Without email: %d\n", skipped)
	}

	if !r.FinishedAt.IsZero() && !r.StartedAt.IsZero() {
		fmt.Fprintf(&b, "Took: %s\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	}

	failures := r.Failures()
	if len(failures) == 0 {
		return strings.TrimRight(b.String(), "\n")
	}

	fmt.Fprintf(&b, "\n<b>Failed: %d</b>\n", len(failures))
	for i, f := range failures {
		if i == maxFailuresListed {
			fmt.Fprintf(&b, "... and %d more\n", len(failures)-maxFailuresListed)
			break
		}
		fmt.Fprintf(&b, "• %s: %s\n", html.EscapeString(f.Email), html.EscapeString(f.Error))
	}

	return strings.TrimRight(b.String(), "\n")
}

// FormatError renders a fatal run error as telegram HTML.
func FormatError(err error) string {
	return fmt.Sprintf("⚠️ <b>Digest run failed</b>:\n%s", html.EscapeString(fmt.Sprint(err)))
}
