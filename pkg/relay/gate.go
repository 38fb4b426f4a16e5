package relay

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"qwenrelay/internal/metrics"
)

// Decision is the gate's immediate answer to one submission. Servicing of
// admitted and enqueued commands happens asynchronously.
type Decision int

const (
	// DecisionAdmitted means the queue was empty and the slot free; the
	// command will be serviced next.
	DecisionAdmitted Decision = iota
	// DecisionEnqueued means the command is waiting behind earlier tickets.
	DecisionEnqueued
	// DecisionDroppedOverloaded means the queue was full and the command was
	// rejected with backpressure.
	DecisionDroppedOverloaded
	// DecisionDuplicate means a redelivery of an already accepted command was
	// absorbed without producing a second outcome.
	DecisionDuplicate
	// DecisionBypassed means the command was served outside the queue and
	// slot (health and help).
	DecisionBypassed
	// DecisionRejected means the command did not classify and was answered
	// with an unrecognized outcome.
	DecisionRejected
)

// String returns the decision name used in logs.
func (d Decision) String() string {
	switch d {
	case DecisionAdmitted:
		return "admitted"
	case DecisionEnqueued:
		return "enqueued"
	case DecisionDroppedOverloaded:
		return "dropped_overloaded"
	case DecisionDuplicate:
		return "duplicate"
	case DecisionBypassed:
		return "bypassed"
	default:
		return "rejected"
	}
}

// OutcomeSink delivers a terminal outcome back to the originating chat.
// Delivery is best-effort; a returned error is logged, never retried.
type OutcomeSink interface {
	Deliver(out Outcome) error
}

// GateConfig bounds the pending queue.
type GateConfig struct {
	// Capacity is the maximum number of pending tickets.
	Capacity int
	// MaxWait discards tickets that waited longer before reaching the head
	// of the queue. Zero disables the check.
	MaxWait time.Duration
	// Fairness selects FIFO or per-chat round-robin ordering.
	Fairness FairnessPolicy
	// DedupTTL bounds the redelivery window absorbed by the gate. Zero
	// disables deduplication.
	DedupTTL time.Duration
}

// Gate accepts classified commands, applies backpressure, and feeds the
// dispatcher one ticket at a time. The mutex is the single serialization
// point for queue and slot state; Submit never blocks on the LLM call.
type Gate struct {
	cfg        GateConfig
	dispatcher *Dispatcher
	sink       OutcomeSink
	dedup      *dedupCache
	logger     zerolog.Logger

	mu       sync.Mutex
	pending  admissionQueue
	slotBusy bool
	closed   bool

	wake   chan struct{}
	done   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewGate creates the gate and starts its scheduler.
func NewGate(cfg GateConfig, dispatcher *Dispatcher, sink OutcomeSink, logger zerolog.Logger) *Gate {
	metrics.EnsureRegistered()

	if cfg.Capacity <= 0 {
		cfg.Capacity = 1
	}

	ctx, cancel := context.WithCancel(context.Background())

	g := &Gate{
		cfg:        cfg,
		dispatcher: dispatcher,
		sink:       sink,
		logger:     logger.With().Str("component", "gate").Logger(),
		pending:    newAdmissionQueue(cfg.Fairness),
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}

	if cfg.DedupTTL > 0 {
		g.dedup = newDedupCache(cfg.DedupTTL)
	}

	go g.run()

	return g
}

// Submit decides the fate of one classified command. Safe for concurrent use;
// the critical section is a queue-length check plus a push.
func (g *Gate) Submit(cmd InboundCommand) Decision {
	metrics.RecordSubmission(cmd.Kind.String())

	switch cmd.Kind {
	case KindHealth, KindHelp:
		// Served immediately, never waiting on the dispatch slot.
		g.deliverAsync(g.dispatcher.Passthrough(cmd))
		return DecisionBypassed
	case KindUnrecognized:
		g.deliverAsync(dropped(cmd, ReasonUnrecognized))
		return DecisionRejected
	}

	now := time.Now()

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		g.deliverAsync(dropped(cmd, ReasonOverloaded))
		return DecisionDroppedOverloaded
	}

	if g.dedup != nil && g.dedup.Seen(dedupKey(cmd)) {
		g.mu.Unlock()
		g.logger.Debug().
			Int64("chat_id", cmd.ChatID).
			Int64("sequence", cmd.Sequence).
			Msg("Duplicate submission absorbed")
		return DecisionDuplicate
	}

	if g.pending.len() >= g.cfg.Capacity {
		g.mu.Unlock()
		g.logger.Warn().
			Int64("chat_id", cmd.ChatID).
			Int("capacity", g.cfg.Capacity).
			Msg("Queue full, dropping command")
		g.deliverAsync(dropped(cmd, ReasonOverloaded))
		return DecisionDroppedOverloaded
	}

	t := newTicket(cmd, now)
	g.pending.push(t)
	if g.dedup != nil {
		// Marked only on acceptance: a command dropped with backpressure must
		// stay eligible for redelivery.
		g.dedup.Mark(dedupKey(cmd))
	}
	depth := g.pending.len()
	idle := !g.slotBusy && depth == 1
	g.mu.Unlock()

	metrics.SetQueueDepth(depth)
	g.signal()

	g.logger.Debug().
		Str("ticket_id", t.ID).
		Int64("chat_id", cmd.ChatID).
		Int("queue_depth", depth).
		Msg("Ticket enqueued")

	if idle {
		return DecisionAdmitted
	}
	return DecisionEnqueued
}

// Stats returns the pending-ticket count and whether a call is in flight.
func (g *Gate) Stats() (pending int, inFlight bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pending.len(), g.slotBusy
}

// Close stops the scheduler, cancels any in-flight call, and drains pending
// tickets with stale outcomes. At-least-once redelivery from the transport
// re-serves them on the next start.
func (g *Gate) Close() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true
	g.mu.Unlock()

	g.cancel()
	<-g.done
	g.wg.Wait()

	if g.dedup != nil {
		g.dedup.Stop()
	}

	return nil
}

// run is the scheduler: it pops the oldest dispatchable ticket whenever the
// slot is free and hands it to the dispatcher.
func (g *Gate) run() {
	defer close(g.done)

	for {
		t := g.next()
		if t == nil {
			return
		}

		out := g.dispatcher.Dispatch(g.ctx, t)

		g.mu.Lock()
		g.slotBusy = false
		g.mu.Unlock()

		g.deliverAsync(out)
	}
}

// next blocks until a dispatchable ticket is available, discarding stale
// tickets along the way. Returns nil when the gate is shutting down.
func (g *Gate) next() *Ticket {
	for {
		if g.ctx.Err() != nil {
			g.drain()
			return nil
		}

		g.mu.Lock()
		t := g.pending.pop()
		if t != nil {
			if g.cfg.MaxWait > 0 && time.Since(t.EnqueuedAt) > g.cfg.MaxWait {
				t.cancelled = true
				depth := g.pending.len()
				g.mu.Unlock()

				metrics.SetQueueDepth(depth)
				g.logger.Info().
					Str("ticket_id", t.ID).
					Dur("waited", time.Since(t.EnqueuedAt)).
					Msg("Stale ticket discarded")
				g.deliverAsync(dropped(t.Cmd, ReasonStale))
				continue
			}

			g.slotBusy = true
			depth := g.pending.len()
			g.mu.Unlock()

			metrics.SetQueueDepth(depth)
			return t
		}
		g.mu.Unlock()

		select {
		case <-g.wake:
		case <-g.ctx.Done():
			g.drain()
			return nil
		}
	}
}

// drain discards all pending tickets on shutdown.
func (g *Gate) drain() {
	g.mu.Lock()
	var drained []*Ticket
	for t := g.pending.pop(); t != nil; t = g.pending.pop() {
		t.cancelled = true
		drained = append(drained, t)
	}
	g.mu.Unlock()

	metrics.SetQueueDepth(0)

	for _, t := range drained {
		g.logger.Info().Str("ticket_id", t.ID).Msg("Pending ticket discarded on shutdown")
		g.deliverAsync(dropped(t.Cmd, ReasonStale))
	}
}

// signal nudges the scheduler without blocking.
func (g *Gate) signal() {
	select {
	case g.wake <- struct{}{}:
	default:
	}
}

// deliverAsync records and delivers an outcome without blocking the caller.
func (g *Gate) deliverAsync(out Outcome) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()

		metrics.RecordOutcome(out.Result.String(), out.Reason)

		if err := g.sink.Deliver(out); err != nil {
			g.logger.Error().
				Err(err).
				Int64("chat_id", out.ChatID).
				Str("result", out.Result.String()).
				Msg("Failed to deliver outcome")
		}
	}()
}
