package telegram

import (
	"github.com/rs/zerolog"

	"qwenrelay/internal/metrics"
	"qwenrelay/pkg/relay"
)

// Sink delivers outcomes back to the originating chat. Best-effort: failures
// are counted and surfaced to the caller for logging, never retried.
type Sink struct {
	bot    *Bot
	logger zerolog.Logger
}

// NewSink wraps a bot as an outcome sink.
func NewSink(bot *Bot) *Sink {
	return &Sink{
		bot:    bot,
		logger: bot.logger.With().Str("component", "sink").Logger(),
	}
}

// Deliver sends the outcome's user-facing text as a reply.
func (s *Sink) Deliver(out relay.Outcome) error {
	if err := s.bot.SendReply(out.ChatID, out.UserText(), out.MessageID); err != nil {
		metrics.RecordTelegramSendError()
		return err
	}

	metrics.RecordTelegramSent()
	return nil
}
