package telegram

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commandUpdate(updateID int, chatID int64, messageID int, text string, cmdLen int) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: updateID,
		Message: &tgbotapi.Message{
			MessageID: messageID,
			Chat:      &tgbotapi.Chat{ID: chatID},
			Text:      text,
			Date:      1700000000,
			Entities: []tgbotapi.MessageEntity{
				{Type: "bot_command", Offset: 0, Length: cmdLen},
			},
		},
	}
}

func TestEventFromUpdate(t *testing.T) {
	ev, ok := EventFromUpdate(commandUpdate(42, 100, 7, "/qwen what is Go?", 5))
	require.True(t, ok)

	assert.Equal(t, int64(100), ev.ChatID)
	assert.Equal(t, 7, ev.MessageID)
	assert.Equal(t, int64(42), ev.Sequence)
	assert.Equal(t, "/qwen what is Go?", ev.Text)
	assert.Equal(t, int64(1700000000), ev.ReceivedAt.Unix())
}

func TestEventFromUpdateIgnoresNonMessage(t *testing.T) {
	_, ok := EventFromUpdate(tgbotapi.Update{UpdateID: 1})
	assert.False(t, ok)
}

func TestEventFromUpdateIgnoresPlainChatter(t *testing.T) {
	update := tgbotapi.Update{
		UpdateID: 2,
		Message: &tgbotapi.Message{
			MessageID: 3,
			Chat:      &tgbotapi.Chat{ID: 100},
			Text:      "hello there",
			Date:      1700000000,
		},
	}

	_, ok := EventFromUpdate(update)
	assert.False(t, ok)
}
