package relay

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"qwenrelay/internal/metrics"
	"qwenrelay/pkg/llm"
)

// DefaultHelpText is the fixed /help response.
const DefaultHelpText = `These commands are supported:
/qwen <prompt> — LLM request
/help — Prints this help
/health — Health check`

// Completer is the single outbound LLM call the dispatcher performs.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// StatusSource supplies the /health summary without blocking on an external
// call in the dispatch path.
type StatusSource interface {
	StatusSummary() string
}

// DispatcherConfig bounds the external call.
type DispatcherConfig struct {
	// CallTimeout is the per-attempt deadline, enforced locally.
	CallTimeout time.Duration
	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int
	// BackoffBase is the delay before the first retry.
	BackoffBase time.Duration
	// BackoffMultiplier grows the delay per retry; the delay is capped at
	// BackoffBase * BackoffMultiplier^MaxRetries.
	BackoffMultiplier float64
}

// Dispatcher owns the single-occupancy dispatch slot and performs at most one
// external LLM call at a time.
type Dispatcher struct {
	llm      Completer
	status   StatusSource
	helpText string
	cfg      DispatcherConfig
	logger   zerolog.Logger

	// slot is the in-flight call token. Dispatch acquires it on entry and
	// releases it on every exit path.
	slot chan struct{}
}

// NewDispatcher creates a dispatcher around one LLM client.
func NewDispatcher(completer Completer, status StatusSource, cfg DispatcherConfig, logger zerolog.Logger) *Dispatcher {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 60 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = time.Second
	}
	if cfg.BackoffMultiplier < 1 {
		cfg.BackoffMultiplier = 2
	}

	return &Dispatcher{
		llm:      completer,
		status:   status,
		helpText: DefaultHelpText,
		cfg:      cfg,
		logger:   logger.With().Str("component", "dispatcher").Logger(),
		slot:     make(chan struct{}, 1),
	}
}

// Dispatch services one admitted ticket. It is invoked only by the gate's
// scheduler and never concurrently with itself; slot occupancy enforces that
// even against a misbehaving caller, failing only the offending ticket.
func (d *Dispatcher) Dispatch(ctx context.Context, t *Ticket) (out Outcome) {
	select {
	case d.slot <- struct{}{}:
	default:
		d.logger.Error().
			Str("ticket_id", t.ID).
			Msg("Dispatch slot already held, refusing concurrent entry")
		return failed(t.Cmd, ReasonInternal)
	}
	defer func() { <-d.slot }()

	logger := d.logger.With().
		Str("ticket_id", t.ID).
		Str("correlation_id", uuid.NewString()).
		Int64("chat_id", t.Cmd.ChatID).
		Logger()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("Dispatch panicked")
			out = failed(t.Cmd, ReasonInternal)
		}
	}()

	start := time.Now()

	switch t.Cmd.Kind {
	case KindQuery:
		out = d.query(ctx, logger, t.Cmd)
	case KindHealth, KindHelp:
		out = d.Passthrough(t.Cmd)
	default:
		out = dropped(t.Cmd, ReasonUnrecognized)
	}

	metrics.ObserveDispatch(time.Since(start).Seconds(), out.Result.String())

	logger.Debug().
		Str("result", out.Result.String()).
		Str("reason", out.Reason).
		Dur("duration", time.Since(start)).
		Msg("Dispatch finished")

	return out
}

// Passthrough serves commands that never touch the dispatch slot or the
// external endpoint.
func (d *Dispatcher) Passthrough(cmd InboundCommand) Outcome {
	switch cmd.Kind {
	case KindHealth:
		return replied(cmd, d.status.StatusSummary())
	case KindHelp:
		return replied(cmd, d.helpText)
	default:
		return dropped(cmd, ReasonUnrecognized)
	}
}

// query runs the bounded retry loop: an initial attempt plus up to MaxRetries
// retries, each attempt under its own CallTimeout, with exponential backoff
// between attempts.
func (d *Dispatcher) query(ctx context.Context, logger zerolog.Logger, cmd InboundCommand) Outcome {
	for attempt := 0; ; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, d.cfg.CallTimeout)
		text, err := d.llm.Complete(callCtx, cmd.Text)
		cancel()

		if err == nil {
			return replied(cmd, text)
		}

		if !llm.IsRetryable(err) {
			logger.Warn().Err(err).Msg("Endpoint rejected request")
			return failed(cmd, ReasonRejected)
		}

		logger.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Msg("LLM call failed")

		if attempt >= d.cfg.MaxRetries || ctx.Err() != nil {
			return failed(cmd, ReasonUnavailable)
		}

		metrics.RecordRetry()
		if !sleepCtx(ctx, d.backoff(attempt)) {
			return failed(cmd, ReasonUnavailable)
		}
	}
}

// backoff returns the delay before retry attempt+1.
func (d *Dispatcher) backoff(attempt int) time.Duration {
	delay := float64(d.cfg.BackoffBase) * math.Pow(d.cfg.BackoffMultiplier, float64(attempt))
	ceiling := float64(d.cfg.BackoffBase) * math.Pow(d.cfg.BackoffMultiplier, float64(d.cfg.MaxRetries))
	if delay > ceiling {
		delay = ceiling
	}
	return time.Duration(delay)
}

// sleepCtx sleeps for dur unless ctx is cancelled first.
func sleepCtx(ctx context.Context, dur time.Duration) bool {
	timer := time.NewTimer(dur)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
