package delivery

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/lueurxax/event-digest-bot/internal/platform/htmlutils"
	"github.com/lueurxax/event-digest-bot/internal/platform/trace"
)

// TelegramMessageLimit leaves headroom under Telegram's 4096 unit cap for closing tags.
const TelegramMessageLimit = 4000

// chattableSender is the part of tgbotapi.BotAPI the sender uses.
type chattableSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSender posts HTML digests to a chat.
type TelegramSender struct {
	api    chattableSender
	logger *zerolog.Logger
}

// NewTelegramSender connects to the Bot API. It fails when the token is rejected.
func NewTelegramSender(token string, logger *zerolog.Logger) (*TelegramSender, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot api: %w", err)
	}

	return newTelegramSender(api, logger), nil
}

func newTelegramSender(api chattableSender, logger *zerolog.Logger) *TelegramSender {
	return &TelegramSender{api: api, logger: logger}
}

// Send posts body to the chat identified by recipient, split on line
// boundaries when it exceeds TelegramMessageLimit.
func (s *TelegramSender) Send(ctx context.Context, recipient, _, body string) error {
	chatID, err := strconv.ParseInt(strings.TrimSpace(recipient), 10, 64)
	if err != nil {
		return fmt.Errorf("parse telegram chat id %q: %w", recipient, err)
	}

	parts := htmlutils.SplitHTML(body, TelegramMessageLimit)

	for i, part := range parts {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("telegram send canceled: %w", err)
		}

		msg := tgbotapi.NewMessage(chatID, part)
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = true

		if _, err := s.api.Send(msg); err != nil {
			return fmt.Errorf("send telegram part %d/%d: %w", i+1, len(parts), err)
		}
	}

	trace.Logger(ctx, s.logger).Debug().Int64("chat_id", chatID).Int("parts", len(parts)).Msg("telegram digest sent")

	return nil
}
