package telegram

import (
	"fmt"
	"strings"
	"time"

	"github.com/haseebdoesdev/khaleej-job-pipeline/internal/pipeline"
	"github.com/haseebdoesdev/khaleej-job-pipeline/internal/store"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot sends run reports to a single chat.
type Bot struct {
	api    sender
	chatID int64
	log    *zap.Logger
}

func NewBot(token string, chatID int64, log *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, eris.Wrap(err, "telegram: init bot")
	}
	return newBot(api, chatID, log), nil
}

func newBot(api sender, chatID int64, log *zap.Logger) *Bot {
	return &Bot{api: api, chatID: chatID, log: log.Named("telegram")}
}

var markdownReplacer = strings.NewReplacer(
	"_", "\\_", "*", "\\*", "[", "\\[", "]", "\\]", "(", "\\(",
	")", "\\)", "~", "\\~", "`", "\\`", ">", "\\>", "#", "\\#",
	"+", "\\+", "-", "\\-", "=", "\\=", "|", "\\|", "{", "\\{",
	"}", "\\}", ".", "\\.", "!", "\\!",
)

func escapeMarkdown(text string) string {
	return markdownReplacer.Replace(text)
}

// FormatRunReport renders a run result as a MarkdownV2 message.
func FormatRunReport(res pipeline.Result) string {
	var b strings.Builder
	switch res.Status {
	case pipeline.StatusSuccess:
		b.WriteString("✅ *Khaleej pipeline run complete*\n")
	case pipeline.StatusInterrupted:
		b.WriteString("⏹ *Khaleej pipeline run interrupted*\n")
	default:
		b.WriteString("❌ *Khaleej pipeline run failed*\n")
	}

	fmt.Fprintf(&b, "🆔 `%s`\n", escapeMarkdown(res.RunID))
	if res.Status != pipeline.StatusError {
		fmt.Fprintf(&b, "🔍 Scraped: %d\n", res.Scraped)
		fmt.Fprintf(&b, "🤖 Processed: %d\n", res.Processed)
		fmt.Fprintf(&b, "📤 Published: %d\n", res.Published)
	}
	if res.Message != "" {
		fmt.Fprintf(&b, "📝 %s\n", escapeMarkdown(res.Message))
	}
	fmt.Fprintf(&b, "⏱ %s", escapeMarkdown(res.Duration.Round(time.Second).String()))
	return b.String()
}

// FormatStats renders store statistics as a MarkdownV2 message.
func FormatStats(st store.Stats) string {
	var b strings.Builder
	b.WriteString("📊 *Store statistics*\n")
	fmt.Fprintf(&b, "Raw jobs: %d\n", st.TotalRaw)
	fmt.Fprintf(&b, "Processed jobs: %d\n", st.TotalProcessed)
	fmt.Fprintf(&b, "Pending: %d\n", st.Pending)
	fmt.Fprintf(&b, "Processing rate: %s%%", escapeMarkdown(fmt.Sprintf("%.1f", st.ProcessingRate)))
	return b.String()
}

func (b *Bot) SendRunReport(res pipeline.Result) error {
	return b.send(FormatRunReport(res))
}

func (b *Bot) SendStats(st store.Stats) error {
	return b.send(FormatStats(st))
}

func (b *Bot) SendError(err error) error {
	return b.send(fmt.Sprintf("❌ Error: %s", escapeMarkdown(err.Error())))
}

func (b *Bot) send(text string) error {
	msg := tgbotapi.NewMessage(b.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		return eris.Wrap(err, "telegram: send message")
	}
	return nil
}

// Reporter returns a callback for the scheduler that sends every result and
// logs delivery failures.
func (b *Bot) Reporter() func(pipeline.Result) {
	return func(res pipeline.Result) {
		if err := b.SendRunReport(res); err != nil {
			b.log.Warn("⚠️ Failed to send run report", zap.Error(err))
		}
	}
}
