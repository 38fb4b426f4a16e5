package relay

import (
	"strings"
	"time"
)

// Kind identifies what an inbound command asks for.
type Kind int

const (
	// KindUnrecognized is any input that matches no known command.
	KindUnrecognized Kind = iota
	// KindQuery is a /qwen prompt bound for the LLM endpoint.
	KindQuery
	// KindHealth is a /health probe of the LLM endpoint.
	KindHealth
	// KindHelp is a /help request for the command list.
	KindHelp
)

// String returns the kind name used in logs and metrics labels.
func (k Kind) String() string {
	switch k {
	case KindQuery:
		return "query"
	case KindHealth:
		return "health"
	case KindHelp:
		return "help"
	default:
		return "unrecognized"
	}
}

// InboundCommand is one classified chat command. Immutable once constructed.
type InboundCommand struct {
	ChatID     int64
	MessageID  int
	Sequence   int64
	Kind       Kind
	Text       string
	ReceivedAt time.Time
}

// Classify maps raw message text to exactly one command kind. It is pure and
// total: every input yields a command, unknown inputs yield KindUnrecognized.
//
// Recognized forms, case-insensitive in the command word:
//
//	/qwen <prompt>  LLM query; a bare /qwen with no prompt is unrecognized
//	/help           command list
//	/health         endpoint health summary
//
// A "@botname" suffix on the command word (Telegram group syntax) is ignored.
func Classify(chatID int64, messageID int, sequence int64, text string, receivedAt time.Time) InboundCommand {
	cmd := InboundCommand{
		ChatID:     chatID,
		MessageID:  messageID,
		Sequence:   sequence,
		Kind:       KindUnrecognized,
		ReceivedAt: receivedAt,
	}

	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "/") {
		return cmd
	}

	word, rest, _ := strings.Cut(trimmed, " ")
	if at := strings.Index(word, "@"); at >= 0 {
		word = word[:at]
	}

	switch strings.ToLower(word) {
	case "/qwen":
		prompt := strings.TrimSpace(rest)
		if prompt == "" {
			return cmd
		}
		cmd.Kind = KindQuery
		cmd.Text = prompt
	case "/help":
		cmd.Kind = KindHelp
	case "/health":
		cmd.Kind = KindHealth
	}

	return cmd
}
