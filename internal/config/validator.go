package config

import (
	"fmt"
	"net/url"
	"regexp"
)

var telegramTokenPattern = regexp.MustCompile(`^\d+:[A-Za-z0-9_-]+$`)

// Validate checks the config for values the daemon cannot start with.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram bot token cannot be empty")
	}
	if !telegramTokenPattern.MatchString(c.Telegram.BotToken) {
		return fmt.Errorf("invalid Telegram bot token format")
	}

	u, err := url.Parse(c.LLM.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("llm base_url must be a valid URL: %q", c.LLM.BaseURL)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm temperature must be in [0, 2], got %v", c.LLM.Temperature)
	}
	if c.LLM.ProbeInterval <= 0 {
		return fmt.Errorf("llm probe_interval must be positive")
	}

	if c.Relay.QueueCapacity < 1 {
		return fmt.Errorf("relay queue_capacity must be at least 1, got %d", c.Relay.QueueCapacity)
	}
	if c.Relay.MaxTicketWait < 0 {
		return fmt.Errorf("relay max_ticket_wait cannot be negative")
	}
	switch c.Relay.Fairness {
	case "fifo", "round_robin":
	default:
		return fmt.Errorf("relay fairness must be fifo or round_robin, got %q", c.Relay.Fairness)
	}
	if c.Relay.CallTimeout <= 0 {
		return fmt.Errorf("relay call_timeout must be positive")
	}
	if c.Relay.MaxRetries < 0 {
		return fmt.Errorf("relay max_retries cannot be negative")
	}
	if c.Relay.BackoffBase <= 0 {
		return fmt.Errorf("relay backoff_base must be positive")
	}
	if c.Relay.BackoffMultiplier < 1 {
		return fmt.Errorf("relay backoff_multiplier must be at least 1, got %v", c.Relay.BackoffMultiplier)
	}

	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics addr cannot be empty when metrics are enabled")
	}

	return nil
}
