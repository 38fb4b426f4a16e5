package relay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantKind Kind
		wantText string
	}{
		{
			name:     "query with prompt",
			text:     "/qwen what is the capital of France?",
			wantKind: KindQuery,
			wantText: "what is the capital of France?",
		},
		{
			name:     "query uppercase command word",
			text:     "/QWEN hello",
			wantKind: KindQuery,
			wantText: "hello",
		},
		{
			name:     "query with bot mention suffix",
			text:     "/qwen@relaybot hello there",
			wantKind: KindQuery,
			wantText: "hello there",
		},
		{
			name:     "query surrounding whitespace",
			text:     "  /qwen   spaced out prompt  ",
			wantKind: KindQuery,
			wantText: "spaced out prompt",
		},
		{
			name:     "bare query is unrecognized",
			text:     "/qwen",
			wantKind: KindUnrecognized,
		},
		{
			name:     "query with only spaces is unrecognized",
			text:     "/qwen    ",
			wantKind: KindUnrecognized,
		},
		{
			name:     "help",
			text:     "/help",
			wantKind: KindHelp,
		},
		{
			name:     "help with mention",
			text:     "/help@relaybot",
			wantKind: KindHelp,
		},
		{
			name:     "health",
			text:     "/health",
			wantKind: KindHealth,
		},
		{
			name:     "unknown command",
			text:     "/launch the missiles",
			wantKind: KindUnrecognized,
		},
		{
			name:     "plain text",
			text:     "just chatting",
			wantKind: KindUnrecognized,
		},
		{
			name:     "empty input",
			text:     "",
			wantKind: KindUnrecognized,
		},
		{
			name:     "slash only",
			text:     "/",
			wantKind: KindUnrecognized,
		},
	}

	now := time.Now()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := Classify(42, 7, 100, tt.text, now)

			assert.Equal(t, tt.wantKind, cmd.Kind)
			assert.Equal(t, tt.wantText, cmd.Text)
			assert.Equal(t, int64(42), cmd.ChatID)
			assert.Equal(t, 7, cmd.MessageID)
			assert.Equal(t, int64(100), cmd.Sequence)
			assert.Equal(t, now, cmd.ReceivedAt)
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	now := time.Now()

	first := Classify(1, 1, 1, "/qwen same input", now)
	second := Classify(1, 1, 1, "/qwen same input", now)

	assert.Equal(t, first, second)
}
