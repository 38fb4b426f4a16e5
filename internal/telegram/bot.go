package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Bot wraps the Telegram long-poll transport. It yields raw updates; all
// classification and admission happens downstream.
type Bot struct {
	api    *tgbotapi.BotAPI
	logger zerolog.Logger

	running bool
	updates tgbotapi.UpdatesChannel
}

// New authenticates against the Telegram API.
func New(token string, logger zerolog.Logger) (*Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}

	bot := &Bot{
		api:    api,
		logger: logger.With().Str("component", "telegram").Logger(),
	}

	bot.logger.Info().
		Str("username", api.Self.UserName).
		Int64("id", api.Self.ID).
		Msg("Telegram bot authenticated")

	return bot, nil
}

// Updates starts long polling and returns the update channel. Telegram
// redelivers unacknowledged updates after a reconnect, so consumers must
// tolerate duplicates.
func (b *Bot) Updates() tgbotapi.UpdatesChannel {
	if b.running {
		return b.updates
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	b.updates = b.api.GetUpdatesChan(u)
	b.running = true

	b.logger.Info().Msg("Telegram long polling started")

	return b.updates
}

// Stop stops receiving updates.
func (b *Bot) Stop() {
	if !b.running {
		return
	}

	b.running = false
	b.api.StopReceivingUpdates()

	b.logger.Info().Msg("Telegram bot stopped")
}

// SendReply sends text to a chat as a reply to the originating message.
func (b *Bot) SendReply(chatID int64, text string, replyToMessageID int) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyToMessageID = replyToMessageID

	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	b.logger.Debug().
		Int64("chat_id", chatID).
		Int("reply_to", replyToMessageID).
		Msg("Reply sent")

	return nil
}

// RegisterCommands publishes the bot command list to Telegram.
func (b *Bot) RegisterCommands() error {
	cfg := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "qwen", Description: "LLM request"},
		tgbotapi.BotCommand{Command: "help", Description: "Prints this help"},
		tgbotapi.BotCommand{Command: "health", Description: "Health check"},
	)

	if _, err := b.api.Request(cfg); err != nil {
		return fmt.Errorf("failed to set commands: %w", err)
	}

	b.logger.Info().Msg("Bot commands registered")
	return nil
}

// Username returns the authenticated bot username.
func (b *Bot) Username() string {
	return b.api.Self.UserName
}
