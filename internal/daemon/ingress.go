package daemon

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"qwenrelay/internal/telegram"
	"qwenrelay/pkg/relay"
)

// consume pulls updates from the long-poll channel, classifies them, and
// submits them to the gate. It returns when the transport closes the channel.
func (d *Daemon) consume(updates tgbotapi.UpdatesChannel) {
	for update := range updates {
		ev, ok := telegram.EventFromUpdate(update)
		if !ok {
			continue
		}

		if !d.allowed(ev.ChatID) {
			d.logger.Warn().
				Int64("chat_id", ev.ChatID).
				Msg("Chat not in allowlist, ignoring command")
			continue
		}

		cmd := relay.Classify(ev.ChatID, ev.MessageID, ev.Sequence, ev.Text, ev.ReceivedAt)
		decision := d.gate.Submit(cmd)

		d.logger.Debug().
			Int64("chat_id", ev.ChatID).
			Int64("sequence", ev.Sequence).
			Str("kind", cmd.Kind.String()).
			Str("decision", decision.String()).
			Msg("Command submitted")
	}
}

// allowed checks the chat allowlist. An empty allowlist means open access.
func (d *Daemon) allowed(chatID int64) bool {
	if len(d.cfg.Telegram.Allowlist) == 0 {
		return true
	}
	for _, id := range d.cfg.Telegram.Allowlist {
		if id == chatID {
			return true
		}
	}
	return false
}
