// Package alerting delivers ScraperAlert notifications (spec §4.4, §4.8)
// to operators. Grounded on the teacher's TelegramNotifier: same bot-api
// client, same send-interval throttling to stay under Telegram's ~30/min
// rate limit, same Markdown escaping.
package alerting

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/sportfeed/aggregator/internal/pkg/models"
)

// telegramSendInterval keeps sends under Telegram's ~30/min chat limit.
const telegramSendInterval = 2 * time.Second

// Channel delivers a ScraperAlert somewhere. RecordAlert's dedup already
// ran by the time a Channel sees an alert, so every call here is expected
// to actually notify.
type Channel interface {
	Name() string
	Send(ctx context.Context, alert models.ScraperAlert) error
}

// TelegramChannel sends alerts to one chat. A nil *TelegramChannel is safe
// to call Send on (returns an error) so a failed construction can still be
// wired in without a nil check at every call site.
type TelegramChannel struct {
	bot      *tgbotapi.BotAPI
	chatID   int64
	mu       sync.Mutex
	lastSend time.Time
}

// NewTelegramChannel builds a channel backed by a bot token and verifies
// connectivity. Returns nil, err rather than a half-usable channel.
func NewTelegramChannel(token string, chatID int64) (*TelegramChannel, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("alerting: create telegram bot: %w", err)
	}
	bot.Debug = false

	if _, err := bot.GetMe(); err != nil {
		return nil, fmt.Errorf("alerting: verify telegram bot: %w", err)
	}

	slog.Info("telegram alert channel initialized", "chat_id", chatID)
	return &TelegramChannel{bot: bot, chatID: chatID}, nil
}

func (c *TelegramChannel) Name() string { return "telegram" }

func (c *TelegramChannel) Send(ctx context.Context, alert models.ScraperAlert) error {
	if c == nil || c.bot == nil {
		return fmt.Errorf("alerting: telegram channel not initialized")
	}

	msg := tgbotapi.NewMessage(c.chatID, formatAlert(alert))
	msg.ParseMode = tgbotapi.ModeMarkdown

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.waitSendInterval(ctx); err != nil {
		return err
	}
	c.lastSend = time.Now()
	_, err := c.bot.Send(msg)
	if err != nil {
		return fmt.Errorf("alerting: telegram send: %w", err)
	}
	return nil
}

// waitSendInterval blocks until telegramSendInterval has elapsed since the
// last send. Call with c.mu held; it releases the lock while waiting.
func (c *TelegramChannel) waitSendInterval(ctx context.Context) error {
	for {
		elapsed := time.Since(c.lastSend)
		if elapsed >= telegramSendInterval {
			return nil
		}
		wait := telegramSendInterval - elapsed
		if wait > 500*time.Millisecond {
			wait = 500 * time.Millisecond
		}
		c.mu.Unlock()
		select {
		case <-ctx.Done():
			c.mu.Lock()
			return ctx.Err()
		case <-time.After(wait):
			c.mu.Lock()
		}
	}
}

func severityEmoji(sev models.AlertSeverity) string {
	if sev == models.SeverityCritical {
		return "🚨"
	}
	return "⚠️"
}

func formatAlert(alert models.ScraperAlert) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s *%s*\n\n", severityEmoji(alert.Severity), escapeMarkdown(alertTitle(alert.AlertType))))
	b.WriteString(escapeMarkdown(alert.Message))
	b.WriteString("\n")
	if source, ok := alert.Metadata["source"].(string); ok && source != "" {
		b.WriteString(fmt.Sprintf("\n📡 Source: %s", escapeMarkdown(source)))
	}
	if jobType, ok := alert.Metadata["job_type"].(string); ok && jobType != "" {
		b.WriteString(fmt.Sprintf("\n🔧 Job: %s", escapeMarkdown(jobType)))
	}
	b.WriteString(fmt.Sprintf("\n🕐 %s", alert.CreatedAt.Format("2006-01-02 15:04 UTC")))
	return b.String()
}

func alertTitle(t models.AlertType) string {
	parts := strings.Split(string(t), "_")
	for i, p := range parts {
		if len(p) > 0 {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}

func escapeMarkdown(text string) string {
	replacer := strings.NewReplacer(
		"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(", ")", "\\)",
		"~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#", "+", "\\+", "-", "\\-",
		"=", "\\=", "|", "\\|", "{", "\\{", "}", "\\}", ".", "\\.", "!", "\\!",
	)
	return replacer.Replace(text)
}
