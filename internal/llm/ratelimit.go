package llm

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// rateLimiter is a token bucket sized in requests per minute. Tokens
// accrue lazily at acquisition time, so there is no refill goroutine
// to manage.
type rateLimiter struct {
	mu       sync.Mutex
	tokens   float64
	capacity float64
	perMin   float64
	last     time.Time
}

func newRateLimiter(requestsPerMinute int) *rateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	return &rateLimiter{
		tokens:   float64(requestsPerMinute),
		capacity: float64(requestsPerMinute),
		perMin:   float64(requestsPerMinute),
		last:     time.Now(),
	}
}

// wait blocks until a token is available or the context is canceled.
func (rl *rateLimiter) wait(ctx context.Context) error {
	for {
		ok, retry := rl.acquire()
		if ok {
			return nil
		}

		timer := time.NewTimer(retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("rate limiter canceled: %w", ctx.Err())
		case <-timer.C:
		}
	}
}

// tryAcquire takes a token without blocking.
func (rl *rateLimiter) tryAcquire() bool {
	ok, _ := rl.acquire()
	return ok
}

// acquire credits the bucket for elapsed time and takes a token when
// one is available. When the bucket is empty it reports how long until
// the next token accrues.
func (rl *rateLimiter) acquire() (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.tokens += now.Sub(rl.last).Minutes() * rl.perMin
	if rl.tokens > rl.capacity {
		rl.tokens = rl.capacity
	}
	rl.last = now

	if rl.tokens >= 1 {
		rl.tokens--
		return true, 0
	}

	missing := 1 - rl.tokens
	return false, time.Duration(missing / rl.perMin * float64(time.Minute))
}
