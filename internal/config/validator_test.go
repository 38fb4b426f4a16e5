package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Telegram.BotToken = "123456789:ABCdefGHIjklMNOpqrsTUVwxyz"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(cfg *Config) {},
		},
		{
			name:    "missing token",
			mutate:  func(cfg *Config) { cfg.Telegram.BotToken = "" },
			wantErr: "bot token",
		},
		{
			name:    "malformed token",
			mutate:  func(cfg *Config) { cfg.Telegram.BotToken = "not a token" },
			wantErr: "token format",
		},
		{
			name:    "bad base url",
			mutate:  func(cfg *Config) { cfg.LLM.BaseURL = "::nope" },
			wantErr: "base_url",
		},
		{
			name:    "temperature out of range",
			mutate:  func(cfg *Config) { cfg.LLM.Temperature = 3 },
			wantErr: "temperature",
		},
		{
			name:    "zero probe interval",
			mutate:  func(cfg *Config) { cfg.LLM.ProbeInterval = 0 },
			wantErr: "probe_interval",
		},
		{
			name:    "zero capacity",
			mutate:  func(cfg *Config) { cfg.Relay.QueueCapacity = 0 },
			wantErr: "queue_capacity",
		},
		{
			name:    "negative max wait",
			mutate:  func(cfg *Config) { cfg.Relay.MaxTicketWait = -time.Second },
			wantErr: "max_ticket_wait",
		},
		{
			name:    "unknown fairness",
			mutate:  func(cfg *Config) { cfg.Relay.Fairness = "lifo" },
			wantErr: "fairness",
		},
		{
			name:    "zero call timeout",
			mutate:  func(cfg *Config) { cfg.Relay.CallTimeout = 0 },
			wantErr: "call_timeout",
		},
		{
			name:    "negative retries",
			mutate:  func(cfg *Config) { cfg.Relay.MaxRetries = -1 },
			wantErr: "max_retries",
		},
		{
			name:    "zero backoff base",
			mutate:  func(cfg *Config) { cfg.Relay.BackoffBase = 0 },
			wantErr: "backoff_base",
		},
		{
			name:    "sub-unit multiplier",
			mutate:  func(cfg *Config) { cfg.Relay.BackoffMultiplier = 0.5 },
			wantErr: "backoff_multiplier",
		},
		{
			name: "metrics enabled without addr",
			mutate: func(cfg *Config) {
				cfg.Metrics.Enabled = true
				cfg.Metrics.Addr = ""
			},
			wantErr: "metrics addr",
		},
		{
			name:   "round robin is accepted",
			mutate: func(cfg *Config) { cfg.Relay.Fairness = "round_robin" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()

			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}
