package telegram

import (
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Event is one inbound command-bearing message. The update ID doubles as the
// arrival sequence: Telegram assigns them monotonically per bot.
type Event struct {
	ChatID     int64
	MessageID  int
	Sequence   int64
	Text       string
	ReceivedAt time.Time
}

// EventFromUpdate extracts a command event from an update. Non-message
// updates and plain chatter (anything that is not a slash command) are
// transport noise and yield ok=false; they never enter the admission core.
func EventFromUpdate(update tgbotapi.Update) (Event, bool) {
	msg := update.Message
	if msg == nil || !msg.IsCommand() {
		return Event{}, false
	}

	return Event{
		ChatID:     msg.Chat.ID,
		MessageID:  msg.MessageID,
		Sequence:   int64(update.UpdateID),
		Text:       msg.Text,
		ReceivedAt: time.Unix(int64(msg.Date), 0),
	}, true
}
