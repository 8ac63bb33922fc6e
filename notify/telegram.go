// Package notify reports finished runs to a Telegram chat.
package notify

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"
	"unicode/utf8"

	"regdoc-scraper/logger"
	"regdoc-scraper/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// maxMessageLen is Telegram's limit on message text
const maxMessageLen = 4096

// Sender sends a Telegram message. *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends run summaries to one chat
type Telegram struct {
	sender Sender
	chatID int64
	logger *logger.Logger
}

// NewTelegram authenticates the bot token and creates a notifier for chatID
func NewTelegram(token string, chatID int64, log *logger.Logger) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	log.Info("authorized telegram bot", "account", bot.Self.UserName)

	return NewTelegramWithSender(bot, chatID, log), nil
}

// NewTelegramWithSender creates a notifier around an existing sender
func NewTelegramWithSender(sender Sender, chatID int64, log *logger.Logger) *Telegram {
	return &Telegram{
		sender: sender,
		chatID: chatID,
		logger: log,
	}
}

// NotifyRun sends the run summary
func (t *Telegram) NotifyRun(ctx context.Context, run models.RunReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(t.chatID, FormatRun(run))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := t.sender.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}

	t.logger.Debug("run notification sent", "run", run.ID, "chat", t.chatID)
	return nil
}

// FormatRun renders a run report as a Telegram HTML message
func FormatRun(run models.RunReport) string {
	var b strings.Builder

	icon := "✅"
	switch run.Status() {
	case "partial":
		icon = "⚠️"
	case "failed":
		icon = "❌"
	}

	totals := run.Totals()
	fmt.Fprintf(&b, "%s <b>%s</b> run %s\n", icon, html.EscapeString(run.Site), run.Status())
	fmt.Fprintf(&b, "<code>%s</code>\n", html.EscapeString(run.ID))
	if !run.FinishedAt.IsZero() {
		fmt.Fprintf(&b, "Duration: %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Second))
	}
	fmt.Fprintf(&b, "\nDocuments: %d\nPages: %d\nTables: %d\n", totals.Documents, totals.Pages, totals.Tables)
	if totals.Failed > 0 {
		fmt.Fprintf(&b, "Failed records: %d\n", totals.Failed)
	}
	if totals.Filtered > 0 {
		fmt.Fprintf(&b, "Filtered by date: %d\n", totals.Filtered)
	}

	if len(run.Keywords) > 0 {
		b.WriteString("\n")
	}
	for _, k := range run.Keywords {
		keyword := html.EscapeString(k.Keyword)
		if k.Err != nil && k.Stored() == 0 {
			fmt.Fprintf(&b, "• %s: %s\n", keyword, html.EscapeString(k.Err.Error()))
			continue
		}
		fmt.Fprintf(&b, "• %s: %d documents, %d pages from %d result pages", keyword, k.Documents, k.Pages, k.PagesVisited)
		if k.Err != nil {
			b.WriteString(" (stopped early)")
		}
		b.WriteString("\n")
	}

	return truncateLines(b.String(), maxMessageLen)
}

// truncateLines keeps whole lines of text so no tag or entity is cut, and
// marks the cut with an ellipsis line. limit counts runes.
func truncateLines(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}

	const marker = "…"
	budget := limit - utf8.RuneCountInString(marker)
	var b strings.Builder
	used := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		n := utf8.RuneCountInString(line)
		if used+n > budget || !strings.HasSuffix(line, "\n") {
			break
		}
		b.WriteString(line)
		used += n
	}
	b.WriteString(marker)
	return b.String()
}
