package display

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"skyticker/internal/ratelimiter"
	"strconv"
	"strings"
	"sync"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Taken from https://core.telegram.org/bots/api#markdownv2-style.
const markdownV2SpecialChars = `\_*[]()~>#+-=|{}.!` + "`"

type messageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// Telegram mirrors frames into a chat. A frame is only sent when its rendered
// text differs from the last one sent.
type Telegram struct {
	sender      messageSender
	chatID      int64
	rateLimiter *ratelimiter.RateLimiter
	log         *slog.Logger

	mu       sync.Mutex
	lastSent string
}

func NewTelegram(
	token string,
	chatID int64,
	rateLimiter *ratelimiter.RateLimiter,
	log *slog.Logger,
) (*Telegram, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("token is empty")
	}

	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	return newTelegram(b, chatID, rateLimiter, log), nil
}

func newTelegram(
	sender messageSender,
	chatID int64,
	rateLimiter *ratelimiter.RateLimiter,
	log *slog.Logger,
) *Telegram {
	return &Telegram{
		sender:      sender,
		chatID:      chatID,
		rateLimiter: rateLimiter,
		log:         log,
	}
}

func (t *Telegram) Show(ctx context.Context, frame Frame) error {
	message := renderMarkdownV2(frame)
	if message == "" {
		return nil
	}

	t.mu.Lock()
	unchanged := message == t.lastSent
	t.mu.Unlock()

	if unchanged {
		return nil
	}

	if err := t.rateLimiter.Wait(ctx, t.chatID); err != nil {
		return fmt.Errorf("wait for rate limiter: %w", err)
	}

	if _, err := t.sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    t.chatID,
		Text:      message,
		ParseMode: models.ParseModeMarkdown,
	}); err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	t.mu.Lock()
	t.lastSent = message
	t.mu.Unlock()

	t.log.DebugContext(ctx, "Frame is sent to Telegram",
		"chatID", t.chatID,
		"messageLen", len(message))

	return nil
}

func renderMarkdownV2(frame Frame) string {
	var b strings.Builder

	body := frame.Caption
	if body == "" {
		body = strings.Join(frame.Words, " ")
	}

	if body == "" {
		if frame.Status == "" {
			return ""
		}
		b.WriteString(escapeMarkdownV2(frame.Status))
	} else {
		if frame.Post.Handle != "" {
			b.WriteString("*@")
			b.WriteString(escapeMarkdownV2(frame.Post.Handle))
			b.WriteString("*")
			if frame.Post.Name != "" {
				b.WriteString(" ")
				b.WriteString(escapeMarkdownV2(frame.Post.Name))
			}
			b.WriteString("\n")
		}
		if frame.Post.Date != "" {
			b.WriteString("_")
			b.WriteString(escapeMarkdownV2(frame.Post.Date))
			b.WriteString("_\n")
		}
		b.WriteString("\n")
		b.WriteString(escapeMarkdownV2(body))
	}

	if frame.HasUnread {
		b.WriteString("\n\n")
		b.WriteString(escapeMarkdownV2("Unread: " + strconv.Itoa(frame.Unread)))
	}

	return b.String()
}

func escapeMarkdownV2(input string) string {
	if !strings.ContainsAny(input, markdownV2SpecialChars) {
		return input
	}

	var b strings.Builder
	b.Grow(len(input) * 2)

	for i := range len(input) {
		c := input[i]
		if strings.IndexByte(markdownV2SpecialChars, c) >= 0 {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}

	return b.String()
}
