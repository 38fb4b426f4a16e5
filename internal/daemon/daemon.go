package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"qwenrelay/internal/config"
	"qwenrelay/internal/logger"
	"qwenrelay/internal/metrics"
	"qwenrelay/internal/telegram"
	"qwenrelay/pkg/llm"
	"qwenrelay/pkg/relay"
)

// Daemon wires the transport, the admission core, and the LLM client into a
// running service.
type Daemon struct {
	cfg    *config.Config
	logger zerolog.Logger

	bot        *telegram.Bot
	gate       *relay.Gate
	dispatcher *relay.Dispatcher
	client     *llm.Client
	probe      *healthProbe

	metricsSrv *http.Server
	wg         sync.WaitGroup
}

// New builds the daemon from a validated config.
func New(cfg *config.Config, log *logger.Logger) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	zlog := log.GetZerolog()

	client, err := llm.New(llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	bot, err := telegram.New(cfg.Telegram.BotToken, zlog)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	probe := newHealthProbe(client, cfg.LLM.ProbeInterval, zlog)

	dispatcher := relay.NewDispatcher(client, probe, relay.DispatcherConfig{
		CallTimeout:       cfg.Relay.CallTimeout,
		MaxRetries:        cfg.Relay.MaxRetries,
		BackoffBase:       cfg.Relay.BackoffBase,
		BackoffMultiplier: cfg.Relay.BackoffMultiplier,
	}, zlog)

	gate := relay.NewGate(relay.GateConfig{
		Capacity: cfg.Relay.QueueCapacity,
		MaxWait:  cfg.Relay.MaxTicketWait,
		Fairness: relay.FairnessPolicy(cfg.Relay.Fairness),
		DedupTTL: cfg.Relay.DedupTTL,
	}, dispatcher, telegram.NewSink(bot), zlog)

	probe.bindQueueStats(gate.Stats)

	d := &Daemon{
		cfg:        cfg,
		logger:     zlog.With().Str("component", "daemon").Logger(),
		bot:        bot,
		gate:       gate,
		dispatcher: dispatcher,
		client:     client,
		probe:      probe,
	}

	if cfg.Metrics.Enabled {
		d.metricsSrv = &http.Server{
			Addr:    cfg.Metrics.Addr,
			Handler: metrics.Handler(),
		}
	}

	return d, nil
}

// Run starts the daemon and blocks until ctx is cancelled, then shuts down
// gracefully.
func (d *Daemon) Run(ctx context.Context) error {
	d.logger.Info().Msg("Starting qwenrelay daemon")

	if d.metricsSrv != nil {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.logger.Info().Str("addr", d.metricsSrv.Addr).Msg("Metrics endpoint listening")
			if err := d.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				d.logger.Error().Err(err).Msg("Metrics server failed")
			}
		}()
	}

	if err := d.probe.Start(); err != nil {
		return err
	}

	if err := d.bot.RegisterCommands(); err != nil {
		// Non-fatal: the command list is cosmetic, classification does not
		// depend on it.
		d.logger.Warn().Err(err).Msg("Failed to register bot commands")
	}

	updates := d.bot.Updates()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.consume(updates)
	}()

	d.logger.Info().Msg("Daemon started")

	<-ctx.Done()

	return d.shutdown()
}

func (d *Daemon) shutdown() error {
	d.logger.Info().Msg("Shutting down")

	// Stop ingress first so no new submissions race the gate drain, then
	// close the gate, which cancels any in-flight call and drains pending
	// tickets.
	d.bot.Stop()

	if d.metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.metricsSrv.Shutdown(shutdownCtx); err != nil {
			d.logger.Warn().Err(err).Msg("Metrics server shutdown failed")
		}
	}

	d.wg.Wait()

	if err := d.gate.Close(); err != nil {
		d.logger.Warn().Err(err).Msg("Gate close failed")
	}

	d.probe.Stop()

	d.logger.Info().Msg("Shutdown complete")
	return nil
}
