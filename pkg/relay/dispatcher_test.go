package relay

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qwenrelay/pkg/llm"
)

// fakeCompleter scripts LLM behavior and tracks in-flight concurrency.
type fakeCompleter struct {
	fn func(ctx context.Context, prompt string) (string, error)

	mu          sync.Mutex
	calls       int
	inFlight    int
	maxInFlight int

	started chan struct{}
	release chan struct{}
}

func (c *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	c.mu.Lock()
	c.calls++
	c.inFlight++
	if c.inFlight > c.maxInFlight {
		c.maxInFlight = c.inFlight
	}
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight--
		c.mu.Unlock()
	}()

	if c.started != nil {
		select {
		case c.started <- struct{}{}:
		default:
		}
	}

	if c.release != nil {
		select {
		case <-c.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if c.fn != nil {
		return c.fn(ctx, prompt)
	}
	return "echo: " + prompt, nil
}

func (c *fakeCompleter) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type fixedStatus string

func (s fixedStatus) StatusSummary() string { return string(s) }

func queryCmd(chatID, seq int64, text string) InboundCommand {
	return InboundCommand{
		ChatID:     chatID,
		MessageID:  int(seq),
		Sequence:   seq,
		Kind:       KindQuery,
		Text:       text,
		ReceivedAt: time.Now(),
	}
}

func testDispatcher(c Completer, cfg DispatcherConfig) *Dispatcher {
	return NewDispatcher(c, fixedStatus("all good"), cfg, zerolog.Nop())
}

func TestDispatcher_QuerySuccess(t *testing.T) {
	completer := &fakeCompleter{}
	d := testDispatcher(completer, DispatcherConfig{CallTimeout: time.Second})

	out := d.Dispatch(context.Background(), newTicket(queryCmd(1, 1, "hello"), time.Now()))

	assert.Equal(t, ResultReplied, out.Result)
	assert.Equal(t, "echo: hello", out.Text)
	assert.Equal(t, 1, completer.callCount())
}

func TestDispatcher_NonRetryableFailsImmediately(t *testing.T) {
	completer := &fakeCompleter{
		fn: func(ctx context.Context, prompt string) (string, error) {
			return "", llm.ErrNoChoices
		},
	}
	d := testDispatcher(completer, DispatcherConfig{
		CallTimeout: time.Second,
		MaxRetries:  3,
		BackoffBase: 10 * time.Millisecond,
	})

	out := d.Dispatch(context.Background(), newTicket(queryCmd(1, 1, "hello"), time.Now()))

	assert.Equal(t, ResultFailed, out.Result)
	assert.Equal(t, ReasonRejected, out.Reason)
	assert.Equal(t, 1, completer.callCount(), "non-retryable errors must not be retried")
}

func TestDispatcher_RetryExhaustionWithBackoff(t *testing.T) {
	completer := &fakeCompleter{
		fn: func(ctx context.Context, prompt string) (string, error) {
			return "", errors.New("connection refused")
		},
	}
	d := testDispatcher(completer, DispatcherConfig{
		CallTimeout:       time.Second,
		MaxRetries:        3,
		BackoffBase:       10 * time.Millisecond,
		BackoffMultiplier: 2,
	})

	start := time.Now()
	out := d.Dispatch(context.Background(), newTicket(queryCmd(1, 1, "hello"), time.Now()))
	elapsed := time.Since(start)

	assert.Equal(t, ResultFailed, out.Result)
	assert.Equal(t, ReasonUnavailable, out.Reason)
	assert.Equal(t, 4, completer.callCount(), "initial attempt plus three retries")
	// Backoff delays 10ms, 20ms, 40ms must all have elapsed.
	assert.GreaterOrEqual(t, elapsed, 70*time.Millisecond)
}

func TestDispatcher_RefusesConcurrentEntry(t *testing.T) {
	completer := &fakeCompleter{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	d := testDispatcher(completer, DispatcherConfig{CallTimeout: time.Second})

	first := make(chan Outcome, 1)
	go func() {
		first <- d.Dispatch(context.Background(), newTicket(queryCmd(1, 1, "slow"), time.Now()))
	}()

	<-completer.started

	// Second entry while the slot is held must fail fast, not block.
	out := d.Dispatch(context.Background(), newTicket(queryCmd(2, 2, "fast"), time.Now()))
	assert.Equal(t, ResultFailed, out.Result)
	assert.Equal(t, ReasonInternal, out.Reason)

	close(completer.release)

	select {
	case out := <-first:
		assert.Equal(t, ResultReplied, out.Result)
	case <-time.After(time.Second):
		t.Fatal("first dispatch never finished")
	}

	assert.Equal(t, 1, completer.maxInFlight)
}

func TestDispatcher_SlotReleasedAfterPanic(t *testing.T) {
	calls := 0
	completer := &fakeCompleter{
		fn: func(ctx context.Context, prompt string) (string, error) {
			calls++
			if calls == 1 {
				panic("boom")
			}
			return "recovered", nil
		},
	}
	d := testDispatcher(completer, DispatcherConfig{CallTimeout: time.Second})

	out := d.Dispatch(context.Background(), newTicket(queryCmd(1, 1, "first"), time.Now()))
	require.Equal(t, ResultFailed, out.Result)
	require.Equal(t, ReasonInternal, out.Reason)

	// A panic must not wedge the slot.
	out = d.Dispatch(context.Background(), newTicket(queryCmd(1, 2, "second"), time.Now()))
	assert.Equal(t, ResultReplied, out.Result)
	assert.Equal(t, "recovered", out.Text)
}

func TestDispatcher_Passthrough(t *testing.T) {
	d := testDispatcher(&fakeCompleter{}, DispatcherConfig{})

	health := d.Passthrough(InboundCommand{ChatID: 1, Kind: KindHealth})
	assert.Equal(t, ResultReplied, health.Result)
	assert.Equal(t, "all good", health.Text)

	help := d.Passthrough(InboundCommand{ChatID: 1, Kind: KindHelp})
	assert.Equal(t, ResultReplied, help.Result)
	assert.Equal(t, DefaultHelpText, help.Text)

	other := d.Passthrough(InboundCommand{ChatID: 1, Kind: KindUnrecognized})
	assert.Equal(t, ResultDropped, other.Result)
	assert.Equal(t, ReasonUnrecognized, other.Reason)
}

func TestDispatcher_CancelledContextStopsRetries(t *testing.T) {
	completer := &fakeCompleter{
		fn: func(ctx context.Context, prompt string) (string, error) {
			return "", errors.New("connection refused")
		},
	}
	d := testDispatcher(completer, DispatcherConfig{
		CallTimeout:       time.Second,
		MaxRetries:        5,
		BackoffBase:       50 * time.Millisecond,
		BackoffMultiplier: 2,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	out := d.Dispatch(ctx, newTicket(queryCmd(1, 1, "hello"), time.Now()))

	assert.Equal(t, ResultFailed, out.Result)
	assert.Equal(t, ReasonUnavailable, out.Reason)
	assert.Less(t, time.Since(start), time.Second, "cancellation must stop retries promptly")
}
