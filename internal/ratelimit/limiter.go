// Package ratelimit provides per-key token bucket rate limiting for MCP tools.
package ratelimit

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/inventure/venturesim/internal/config"
	"github.com/inventure/venturesim/internal/constants"
)

// Limiter implements a per-key token bucket rate limiter.
// Each key gets its own bucket with the configured rate and burst.
// It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64          // tokens per second
	burst   int              // max burst size (also initial token count)
	nowFunc func() time.Time // injectable clock for testing
}

type bucket struct {
	tokens    float64
	lastCheck time.Time
}

// NewLimiter creates a rate limiter with the given rate (tokens/sec) and burst size.
// The burst size also serves as the initial number of tokens available.
func NewLimiter(rate float64, burst int) *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		burst:   burst,
		nowFunc: time.Now,
	}
}

// PerMinute creates a limiter allowing n requests per minute.
func PerMinute(n float64, burst int) *Limiter {
	return NewLimiter(n/60.0, burst)
}

// Allow reports whether a request for key may proceed, consuming a token if so.
func (l *Limiter) Allow(key string) bool {
	ok, _ := l.Reserve(key)
	return ok
}

// Reserve is Allow that also reports, on rejection, how long until the
// next token is available. The wait is negative when no refill will ever
// come (zero rate).
func (l *Limiter) Reserve(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.refill(key, l.nowFunc())
	if b.tokens >= 1.0 {
		b.tokens--
		return true, 0
	}
	if l.rate <= 0 {
		return false, -1
	}
	missing := 1.0 - b.tokens
	return false, time.Duration(math.Ceil(missing / l.rate * float64(time.Second)))
}

// refill tops up key's bucket for the time elapsed since its last use.
// Caller must hold l.mu.
func (l *Limiter) refill(key string, now time.Time) *bucket {
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(l.burst), lastCheck: now}
		l.buckets[key] = b
		return b
	}

	if elapsed := now.Sub(b.lastCheck).Seconds(); elapsed > 0 {
		b.tokens = math.Min(b.tokens+l.rate*elapsed, float64(l.burst))
		b.lastCheck = now
	}
	return b
}

// ToolLimiters maps tool names to their rate limiters.
type ToolLimiters map[string]*Limiter

// NewToolLimiters creates the per-tool limiters. Simulation tools share the
// configured budget; the cheap lookup tools get a fixed generous one.
func NewToolLimiters(cfg config.MCPConfig) ToolLimiters {
	return ToolLimiters{
		constants.ToolSimulate: PerMinute(cfg.SimulationsPerMinute, cfg.Burst),
		constants.ToolSweep:    PerMinute(cfg.SimulationsPerMinute/5, max(1, cfg.Burst/5)),
		constants.ToolEstimate: PerMinute(120, 20),
		constants.ToolPresets:  PerMinute(60, 10),
	}
}

// CheckLimit checks the rate limit for a given tool name.
// Returns nil if allowed, or an error if rate limited.
// Tools without a configured limiter are always allowed.
func CheckLimit(limiters ToolLimiters, toolName string) error {
	limiter, ok := limiters[toolName]
	if !ok {
		return nil
	}

	ok, wait := limiter.Reserve(toolName)
	if ok {
		return nil
	}
	if wait < 0 {
		return fmt.Errorf("rate limit exceeded for %s", toolName)
	}
	return fmt.Errorf("rate limit exceeded for %s, retry in %.1fs", toolName, wait.Seconds())
}
