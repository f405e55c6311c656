package llm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sony/gobreaker"

	"tradeops/internal/models"
)

// Resilient wraps a Generator with bounded retries and a circuit breaker.
// Each attempt runs through the breaker; retries happen outside it so an
// open breaker stops the retry loop immediately.
type Resilient struct {
	gen        Generator
	breaker    *gobreaker.CircuitBreaker
	maxRetries int
	logger     *slog.Logger

	initialInterval time.Duration
}

func NewResilient(gen Generator, maxRetries int, cfg models.BreakerConfig, logger *slog.Logger) *Resilient {
	if logger == nil {
		logger = slog.Default()
	}
	if maxRetries < 0 {
		maxRetries = 0
	}

	r := &Resilient{
		gen:             gen,
		maxRetries:      maxRetries,
		logger:          logger,
		initialInterval: 500 * time.Millisecond,
	}

	minRequests := cfg.MinRequests
	if minRequests == 0 {
		minRequests = 3
	}
	ratio := cfg.FailureRatio
	if ratio <= 0 {
		ratio = 0.6
	}

	r.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "llm-" + gen.Model(),
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= ratio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("LLM circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String())
		},
		IsSuccessful: countsAsSuccess,
	})

	return r
}

func (r *Resilient) Model() string { return r.gen.Model() }

// BreakerState reports the breaker state ("closed", "half-open" or "open").
func (r *Resilient) BreakerState() string { return r.breaker.State().String() }

func (r *Resilient) Generate(ctx context.Context, prompt string) (string, error) {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = r.initialInterval

	attempt := 0
	op := func() (string, error) {
		attempt++
		out, err := r.breaker.Execute(func() (interface{}, error) {
			return r.gen.Generate(ctx, prompt)
		})
		if err == nil {
			return out.(string), nil
		}
		if !retryable(ctx, err) {
			return "", backoff.Permanent(err)
		}
		return "", err
	}

	text, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(eb),
		backoff.WithMaxTries(uint(r.maxRetries+1)),
		backoff.WithNotify(func(err error, wait time.Duration) {
			r.logger.Warn("LLM call failed, retrying",
				"model", r.gen.Model(),
				"attempt", attempt,
				"retry_in", wait,
				"error", err)
		}),
	)
	if err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			err = perm.Unwrap()
		}
		r.logger.Error("LLM generation failed",
			"model", r.gen.Model(),
			"attempts", attempt,
			"breaker_state", r.BreakerState(),
			"error", err)
		return "", err
	}
	return text, nil
}

// retryable reports whether another attempt may succeed.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	if errors.Is(err, ErrNotConfigured) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return true
}

// countsAsSuccess keeps caller mistakes and cancellations from tripping the breaker.
func countsAsSuccess(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrNotConfigured) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) && !se.Temporary() {
		return true
	}
	return false
}
