package llm

import (
	"errors"

	"github.com/openai/openai-go"
)

// ErrNoChoices indicates the endpoint returned a completion with no choices.
var ErrNoChoices = errors.New("completion response contained no choices")

// IsRetryable reports whether a completion error is worth retrying. Endpoint
// rejections (4xx) are permanent: retrying the same malformed request cannot
// succeed. Everything else (timeouts, connection failures, 5xx, overload)
// is treated as transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var apierr *openai.Error
	if errors.As(err, &apierr) {
		if apierr.StatusCode == 429 {
			return true
		}
		return apierr.StatusCode >= 500
	}

	if errors.Is(err, ErrNoChoices) {
		return false
	}

	// Transport-level failures: timeouts, refused connections, resets.
	return true
}
