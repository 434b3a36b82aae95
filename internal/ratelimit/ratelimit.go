package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/deusflow/newsbot/internal/logger"
)

// ErrQuotaExceeded is returned once a provider has used its daily budget.
var ErrQuotaExceeded = errors.New("daily quota exceeded")

// AIRateLimiter tracks daily call budgets per provider and paces requests.
type AIRateLimiter struct {
	mu        sync.Mutex
	counts    map[string]int
	limits    map[string]int
	maxTotal  int
	total     int
	resetTime time.Time
	now       func() time.Time

	pacers map[string]*rate.Limiter
}

// NewAIRateLimiter creates a limiter with the given per-provider daily limits.
// A zero limit means unlimited.
func NewAIRateLimiter(limits map[string]int, maxTotal int) *AIRateLimiter {
	copied := make(map[string]int, len(limits))
	for k, v := range limits {
		copied[k] = v
	}
	rl := &AIRateLimiter{
		counts:   make(map[string]int),
		limits:   copied,
		maxTotal: maxTotal,
		now:      time.Now,
		pacers:   make(map[string]*rate.Limiter),
	}
	rl.resetTime = rl.now().Add(24 * time.Hour)
	return rl
}

// SetInterval spaces calls to provider at least d apart.
func (rl *AIRateLimiter) SetInterval(provider string, d time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if d <= 0 {
		delete(rl.pacers, provider)
		return
	}
	rl.pacers[provider] = rate.NewLimiter(rate.Every(d), 1)
}

// CanUse reports whether provider still has budget.
func (rl *AIRateLimiter) CanUse(provider string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.checkReset()
	return rl.available(provider) == nil
}

// Use consumes one unit of provider's budget.
func (rl *AIRateLimiter) Use(provider string) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.checkReset()
	if err := rl.available(provider); err != nil {
		return err
	}

	rl.counts[provider]++
	rl.total++

	logger.Debug("AI usage", "provider", provider, "used", rl.counts[provider], "limit", rl.limits[provider], "total", rl.total)
	return nil
}

// Wait blocks until the provider's pacer admits the call, then consumes
// budget. A call abandoned while waiting is not charged.
func (rl *AIRateLimiter) Wait(ctx context.Context, provider string) error {
	rl.mu.Lock()
	rl.checkReset()
	err := rl.available(provider)
	pacer := rl.pacers[provider]
	rl.mu.Unlock()

	if err != nil {
		return err
	}
	if pacer != nil {
		if err := pacer.Wait(ctx); err != nil {
			return err
		}
	}
	return rl.Use(provider)
}

func (rl *AIRateLimiter) available(provider string) error {
	if limit := rl.limits[provider]; limit > 0 && rl.counts[provider] >= limit {
		return fmt.Errorf("%s: %w (%d/%d)", provider, ErrQuotaExceeded, rl.counts[provider], limit)
	}
	if rl.maxTotal > 0 && rl.total >= rl.maxTotal {
		return fmt.Errorf("total: %w (%d/%d)", ErrQuotaExceeded, rl.total, rl.maxTotal)
	}
	return nil
}

// GetStats returns current rate limiter statistics
func (rl *AIRateLimiter) GetStats() map[string]interface{} {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	stats := map[string]interface{}{
		"total_used":  rl.total,
		"total_limit": rl.maxTotal,
		"reset_time":  rl.resetTime,
	}
	for provider, limit := range rl.limits {
		stats[provider+"_used"] = rl.counts[provider]
		stats[provider+"_limit"] = limit
	}
	return stats
}

// checkReset resets counters if reset time has passed
func (rl *AIRateLimiter) checkReset() {
	now := rl.now()
	if now.After(rl.resetTime) {
		logger.Info("Resetting AI rate limiter counters", "total_used", rl.total)
		rl.counts = make(map[string]int)
		rl.total = 0
		rl.resetTime = now.Add(24 * time.Hour)
	}
}
