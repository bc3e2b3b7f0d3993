package httpclient

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/aleister1102/jssecretscanner/internal/common"
	"github.com/rs/zerolog"
)

// RetryHandler retries transient network failures with exponential backoff.
// HTTP status codes, timeouts and size violations are final.
type RetryHandler struct {
	cfg    RetryHandlerConfig
	logger zerolog.Logger
}

type RetryHandlerConfig struct {
	MaxRetries   int           `json:"max_retries"`
	BaseDelay    time.Duration `json:"base_delay"`
	MaxDelay     time.Duration `json:"max_delay"`
	EnableJitter bool          `json:"enable_jitter"` // up to +10% per wait
}

// DefaultRetryHandlerConfig allows two retries.
func DefaultRetryHandlerConfig() RetryHandlerConfig {
	return RetryHandlerConfig{
		MaxRetries:   2,
		BaseDelay:    200 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		EnableJitter: true,
	}
}

func NewRetryHandler(config RetryHandlerConfig, logger zerolog.Logger) *RetryHandler {
	return &RetryHandler{cfg: config, logger: logger.With().Str("component", "RetryHandler").Logger()}
}

// ShouldRetry reports whether err is a transient network failure and
// attempts remain.
func (rh *RetryHandler) ShouldRetry(err error, attempt int) bool {
	if err == nil || attempt >= rh.cfg.MaxRetries {
		return false
	}
	if IsTimeout(err) || errors.Is(err, context.Canceled) || errors.Is(err, common.ErrTooLarge) {
		return false
	}
	var networkErr *common.NetworkError
	return errors.As(err, &networkErr)
}

// CalculateDelay is BaseDelay doubled per attempt, capped at MaxDelay.
func (rh *RetryHandler) CalculateDelay(attempt int) time.Duration {
	delay := rh.cfg.BaseDelay
	for i := 0; i < attempt && delay < rh.cfg.MaxDelay; i++ {
		delay *= 2
	}
	if rh.cfg.MaxDelay > 0 && delay > rh.cfg.MaxDelay {
		delay = rh.cfg.MaxDelay
	}
	if rh.cfg.EnableJitter && delay >= 10*time.Millisecond {
		delay += rand.N(delay / 10)
	}
	return delay
}

// DoWithRetry runs op until it succeeds, fails permanently, or the retry
// budget is spent. A cancelled ctx ends the loop with ctx.Err().
func (rh *RetryHandler) DoWithRetry(ctx context.Context, url string, op func() error) error {
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := op()
		if !rh.ShouldRetry(err, attempt) {
			return err
		}

		delay := rh.CalculateDelay(attempt)
		rh.logger.Debug().
			Str("url", url).
			Err(err).
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Msg("Retrying after network error")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
