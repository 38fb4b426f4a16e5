package relay

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// dedupCache tracks recently accepted (chat_id, sequence) pairs so that
// at-least-once redelivery from the transport does not trigger a second LLM
// call. Entries expire after the configured TTL.
type dedupCache struct {
	entries map[string]time.Time
	ttl     time.Duration
	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
}

func dedupKey(cmd InboundCommand) string {
	return fmt.Sprintf("%d:%d", cmd.ChatID, cmd.Sequence)
}

func newDedupCache(ttl time.Duration) *dedupCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())
	cache := &dedupCache{
		entries: make(map[string]time.Time),
		ttl:     ttl,
		ctx:     ctx,
		cancel:  cancel,
	}

	go cache.cleanup()

	return cache
}

func (dc *dedupCache) Stop() {
	if dc.cancel != nil {
		dc.cancel()
	}
}

// Seen reports whether key was marked within the TTL.
func (dc *dedupCache) Seen(key string) bool {
	dc.mu.Lock()
	defer dc.mu.Unlock()

	at, exists := dc.entries[key]
	if !exists {
		return false
	}
	return time.Since(at) <= dc.ttl
}

// Mark records key as accepted.
func (dc *dedupCache) Mark(key string) {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	dc.entries[key] = time.Now()
}

// cleanup periodically removes expired entries.
func (dc *dedupCache) cleanup() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-dc.ctx.Done():
			return
		case <-ticker.C:
			dc.mu.Lock()
			now := time.Now()
			for key, at := range dc.entries {
				if now.Sub(at) > dc.ttl {
					delete(dc.entries, key)
				}
			}
			dc.mu.Unlock()
		}
	}
}

// Size returns the number of entries in the cache.
func (dc *dedupCache) Size() int {
	dc.mu.Lock()
	defer dc.mu.Unlock()
	return len(dc.entries)
}
