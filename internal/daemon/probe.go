package daemon

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"qwenrelay/internal/metrics"
	"qwenrelay/pkg/llm"
)

// unreachableSummary is the /health reply when the probe cannot reach the
// endpoint at all.
const unreachableSummary = "The LLM endpoint is unreachable."

// pendingSummary is the /health reply before the first probe completes.
const pendingSummary = "Health status is not available yet. Please try again in a moment."

// healthProbe polls the llama.cpp /health endpoint in the background and
// caches the latest summary. The /health command reads the cache, so health
// replies never block on an external call or the dispatch slot.
type healthProbe struct {
	client   *llm.Client
	interval time.Duration
	logger   zerolog.Logger

	// queueStats reports pending tickets and slot occupancy for the periodic
	// stats log. Bound after the gate exists.
	queueStats func() (pending int, inFlight bool)

	cron *cron.Cron

	mu      sync.RWMutex
	summary string
	ready   bool
	probed  bool
}

func newHealthProbe(client *llm.Client, interval time.Duration, logger zerolog.Logger) *healthProbe {
	return &healthProbe{
		client:   client,
		interval: interval,
		logger:   logger.With().Str("component", "health_probe").Logger(),
	}
}

func (p *healthProbe) bindQueueStats(stats func() (int, bool)) {
	p.queueStats = stats
}

// Start probes once immediately, then on the configured interval.
func (p *healthProbe) Start() error {
	p.probe()

	p.cron = cron.New()
	if _, err := p.cron.AddFunc(fmt.Sprintf("@every %s", p.interval), p.probe); err != nil {
		return fmt.Errorf("failed to schedule health probe: %w", err)
	}
	p.cron.Start()

	return nil
}

// Stop halts the probe schedule.
func (p *healthProbe) Stop() {
	if p.cron != nil {
		<-p.cron.Stop().Done()
	}
}

// StatusSummary returns the latest cached health summary.
func (p *healthProbe) StatusSummary() string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.probed {
		return pendingSummary
	}
	return p.summary
}

func (p *healthProbe) probe() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	report, err := p.client.Health(ctx)

	summary := unreachableSummary
	ready := false
	if err == nil {
		summary = report.Summary()
		ready = report.Ready()
	}

	p.mu.Lock()
	changed := !p.probed || p.ready != ready
	p.summary = summary
	p.ready = ready
	p.probed = true
	p.mu.Unlock()

	metrics.SetEndpointReady(ready)

	if changed {
		p.logger.Info().
			Bool("ready", ready).
			Str("summary", summary).
			Msg("Endpoint health changed")
	} else if err != nil {
		p.logger.Debug().Err(err).Msg("Health probe failed")
	}

	if p.queueStats != nil {
		pending, inFlight := p.queueStats()
		if pending > 0 || inFlight {
			p.logger.Debug().
				Int("pending", pending).
				Bool("in_flight", inFlight).
				Msg("Queue stats")
		}
	}
}
