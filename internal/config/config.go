package config

import "time"

// Config is the full qwenrelay configuration. All values are read once at
// startup; the running core has no mutation interface.
type Config struct {
	Telegram TelegramConfig `json:"telegram" mapstructure:"telegram"`
	LLM      LLMConfig      `json:"llm" mapstructure:"llm"`
	Relay    RelayConfig    `json:"relay" mapstructure:"relay"`
	Metrics  MetricsConfig  `json:"metrics" mapstructure:"metrics"`
	Logging  LoggingConfig  `json:"logging" mapstructure:"logging"`
}

// TelegramConfig holds the transport settings.
type TelegramConfig struct {
	BotToken string `json:"bot_token" mapstructure:"bot_token"`
	// Allowlist restricts the bot to the listed chat IDs. Empty means open.
	Allowlist []int64 `json:"allowlist" mapstructure:"allowlist"`
}

// LLMConfig holds the llama.cpp endpoint settings.
type LLMConfig struct {
	BaseURL string `json:"base_url" mapstructure:"base_url"`
	APIKey  string `json:"api_key" mapstructure:"api_key"`
	// Model is passed through to the endpoint; llama.cpp ignores it and
	// serves whatever model it was started with.
	Model       string  `json:"model" mapstructure:"model"`
	Temperature float64 `json:"temperature" mapstructure:"temperature"`
	// ProbeInterval is how often the background health probe runs.
	ProbeInterval time.Duration `json:"probe_interval" mapstructure:"probe_interval"`
}

// RelayConfig bounds the admission gate and dispatcher.
type RelayConfig struct {
	QueueCapacity     int           `json:"queue_capacity" mapstructure:"queue_capacity"`
	MaxTicketWait     time.Duration `json:"max_ticket_wait" mapstructure:"max_ticket_wait"`
	Fairness          string        `json:"fairness" mapstructure:"fairness"` // fifo, round_robin
	DedupTTL          time.Duration `json:"dedup_ttl" mapstructure:"dedup_ttl"`
	CallTimeout       time.Duration `json:"call_timeout" mapstructure:"call_timeout"`
	MaxRetries        int           `json:"max_retries" mapstructure:"max_retries"`
	BackoffBase       time.Duration `json:"backoff_base" mapstructure:"backoff_base"`
	BackoffMultiplier float64       `json:"backoff_multiplier" mapstructure:"backoff_multiplier"`
}

// MetricsConfig holds the Prometheus endpoint settings.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Addr    string `json:"addr" mapstructure:"addr"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `json:"level" mapstructure:"level"`
	File   string `json:"file" mapstructure:"file"`
	Pretty bool   `json:"pretty" mapstructure:"pretty"`
}

// DefaultConfig returns a config with defaults tuned for a single-core host
// running llama.cpp locally.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			BaseURL:       "http://127.0.0.1:8080",
			Model:         "gpt-3.5-turbo",
			Temperature:   0.4,
			ProbeInterval: time.Minute,
		},
		Relay: RelayConfig{
			QueueCapacity:     8,
			MaxTicketWait:     30 * time.Second,
			Fairness:          "fifo",
			DedupTTL:          5 * time.Minute,
			CallTimeout:       60 * time.Second,
			MaxRetries:        3,
			BackoffBase:       time.Second,
			BackoffMultiplier: 2,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9090",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
