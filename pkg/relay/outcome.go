package relay

// Result classifies a terminal outcome.
type Result int

const (
	// ResultReplied means a response text was produced for the chat.
	ResultReplied Result = iota
	// ResultFailed means the command was serviced but the service failed.
	ResultFailed
	// ResultDropped means the command was never serviced.
	ResultDropped
)

// String returns the result name used in logs and metrics labels.
func (r Result) String() string {
	switch r {
	case ResultReplied:
		return "replied"
	case ResultFailed:
		return "failed"
	default:
		return "dropped"
	}
}

// Failure and drop reasons. These are the full error taxonomy of the core;
// every reason maps to a short user-facing message and nothing else escapes
// the gate/dispatcher boundary.
const (
	ReasonOverloaded   = "overloaded"
	ReasonStale        = "stale"
	ReasonUnavailable  = "llm_unavailable"
	ReasonRejected     = "llm_rejected"
	ReasonUnrecognized = "unrecognized"
	ReasonInternal     = "internal_error"
)

// Outcome is the single terminal result of one inbound command.
type Outcome struct {
	ChatID    int64
	MessageID int
	Result    Result
	Text      string
	Reason    string
}

// UserText renders the outcome as the message sent back to the chat.
func (o Outcome) UserText() string {
	if o.Result == ResultReplied {
		return o.Text
	}

	switch o.Reason {
	case ReasonOverloaded:
		return "Too many requests are waiting right now. Please try again in a moment."
	case ReasonStale:
		return "Your request waited too long and was discarded. Please send it again."
	case ReasonUnavailable:
		return "The language model is not responding. Please try again later."
	case ReasonRejected:
		return "The language model rejected the request."
	case ReasonUnrecognized:
		return "Unknown command. Send /help for the list of commands."
	default:
		return "An internal error occurred while handling the request."
	}
}

func replied(cmd InboundCommand, text string) Outcome {
	return Outcome{ChatID: cmd.ChatID, MessageID: cmd.MessageID, Result: ResultReplied, Text: text}
}

func failed(cmd InboundCommand, reason string) Outcome {
	return Outcome{ChatID: cmd.ChatID, MessageID: cmd.MessageID, Result: ResultFailed, Reason: reason}
}

func dropped(cmd InboundCommand, reason string) Outcome {
	return Outcome{ChatID: cmd.ChatID, MessageID: cmd.MessageID, Result: ResultDropped, Reason: reason}
}
