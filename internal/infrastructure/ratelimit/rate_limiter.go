package ratelimit

import (
	"sync"
	"time"
)

// TokenBucket is a simple refilling bucket guarding one (user, action) pair.
type TokenBucket struct {
	tokens     int
	maxTokens  int
	refillRate int
	refillTime time.Duration
	lastRefill time.Time
	mutex      sync.Mutex
}

func NewTokenBucket(maxTokens, refillRate int, refillTime time.Duration) *TokenBucket {
	return &TokenBucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		refillTime: refillTime,
		lastRefill: time.Now(),
	}
}

// Allow consumes a token if one is available, otherwise reports how long
// the caller has to wait.
func (tb *TokenBucket) Allow() (bool, time.Duration) {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill)
	tokensToAdd := int(elapsed/tb.refillTime) * tb.refillRate

	if tokensToAdd > 0 {
		tb.tokens += tokensToAdd
		if tb.tokens > tb.maxTokens {
			tb.tokens = tb.maxTokens
		}
		tb.lastRefill = now
	}

	if tb.tokens > 0 {
		tb.tokens--
		return true, 0
	}

	nextRefill := tb.lastRefill.Add(tb.refillTime)
	return false, nextRefill.Sub(now)
}

// RateLimiter manages buckets keyed by user and action.
type RateLimiter struct {
	buckets map[string]*TokenBucket
	limits  map[string]limit
	mutex   sync.RWMutex
}

type limit struct {
	maxTokens  int
	refillRate int
	refillTime time.Duration
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*TokenBucket),
		limits: map[string]limit{
			// Mirrors the 20-uploads-per-15-minutes policy on item creation.
			"create_item":  {maxTokens: 20, refillRate: 20, refillTime: 15 * time.Minute},
			"send_message": {maxTokens: 30, refillRate: 30, refillTime: time.Minute},
		},
	}
}

// Allow checks whether the user may perform the action right now.
func (rl *RateLimiter) Allow(userID, action string) (bool, time.Duration) {
	lim, ok := rl.limits[action]
	if !ok {
		return true, 0
	}

	key := userID + ":" + action

	rl.mutex.RLock()
	bucket, exists := rl.buckets[key]
	rl.mutex.RUnlock()

	if !exists {
		rl.mutex.Lock()
		bucket, exists = rl.buckets[key]
		if !exists {
			bucket = NewTokenBucket(lim.maxTokens, lim.refillRate, lim.refillTime)
			rl.buckets[key] = bucket
		}
		rl.mutex.Unlock()
	}

	return bucket.Allow()
}

// StartCleanupRoutine drops idle buckets periodically so the map does not
// grow without bound.
func (rl *RateLimiter) StartCleanupRoutine() {
	go func() {
		ticker := time.NewTicker(30 * time.Minute)
		defer ticker.Stop()

		for range ticker.C {
			rl.mutex.Lock()
			for key, bucket := range rl.buckets {
				bucket.mutex.Lock()
				idle := time.Since(bucket.lastRefill) > time.Hour && bucket.tokens == bucket.maxTokens
				bucket.mutex.Unlock()
				if idle {
					delete(rl.buckets, key)
				}
			}
			rl.mutex.Unlock()
		}
	}()
}
