package resilience

import (
	"context"
	"log"
	"math/rand"
	"time"
)

// Retrier retries an operation with exponential backoff and jitter.
type Retrier struct {
	MaxRetries      int
	BaseDelay       time.Duration
	MaxDelay        time.Duration
	ExponentialBase float64
	Jitter          bool
}

// NewRetrier creates a retrier with the default policy: 3 retries,
// 1s base delay doubling up to 60s, with jitter.
func NewRetrier() *Retrier {
	return &Retrier{
		MaxRetries:      3,
		BaseDelay:       time.Second,
		MaxDelay:        60 * time.Second,
		ExponentialBase: 2.0,
		Jitter:          true,
	}
}

// Do runs fn, retrying on error until the retry budget is exhausted or
// the context is cancelled. The last error is returned.
func (r *Retrier) Do(ctx context.Context, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= r.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		err := fn()
		if err == nil {
			if attempt > 0 {
				log.Printf("Retry successful on attempt %d", attempt+1)
			}
			return nil
		}
		lastErr = err

		if attempt < r.MaxRetries {
			delay := r.delay(attempt)
			log.Printf("Attempt %d/%d failed: %v. Retrying in %s", attempt+1, r.MaxRetries+1, err, delay.Round(time.Millisecond))

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return lastErr
			}
		} else {
			log.Printf("All %d attempts failed. Last error: %v", r.MaxRetries+1, err)
		}
	}

	return lastErr
}

// delay computes the backoff for the given attempt.
func (r *Retrier) delay(attempt int) time.Duration {
	delay := float64(r.BaseDelay)
	for i := 0; i < attempt; i++ {
		delay *= r.ExponentialBase
	}
	if delay > float64(r.MaxDelay) {
		delay = float64(r.MaxDelay)
	}

	if r.Jitter {
		// 50-100% of the computed delay
		delay = delay * (0.5 + rand.Float64()*0.5)
	}

	return time.Duration(delay)
}
