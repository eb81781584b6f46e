package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"resume-ai-credits/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.Notifier = (*TelegramNotifier)(nil)

// TelegramNotifier pushes lifecycle transitions to an ops channel. It is
// fire-and-forget from the caller's perspective; failures are logged and
// never block the originating transaction.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	log    *zerolog.Logger
}

func NewTelegramNotifier(token string, chatID int64, logger *zerolog.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: chatID, log: logger}, nil
}

func (n *TelegramNotifier) NotifyStateChange(ctx context.Context, userID, fromState, toState, event string) error {
	if fromState == "" {
		fromState = "(new)"
	}
	text := fmt.Sprintf("user %s: %s → %s (%s)", userID, fromState, toState, event)

	done := make(chan error, 1)
	go func() {
		_, err := n.bot.Send(tgbotapi.NewMessage(n.chatID, text))
		done <- err
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			n.log.Warn().Err(err).Str("user_id", userID).Msg("telegram notify failed")
		}
		return err
	}
}
