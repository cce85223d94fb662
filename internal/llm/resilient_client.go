package llm

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/tmc/langchaingo/llms"

	"github.com/recommender/internal/aiconnectors"
	"github.com/recommender/internal/metrics"
	"github.com/recommender/internal/recommendation"
	"github.com/recommender/internal/retry"
)

// Completer is the part of a provider connector the client drives
type Completer interface {
	Call(ctx context.Context, input string, options ...llms.CallOption) (string, error)
	Provider() aiconnectors.Provider
	Model() string
}

// BreakerConfig configures the circuit breaker guarding the provider
type BreakerConfig struct {
	Enabled          bool          `koanf:"enabled"`
	FailureThreshold uint32        `koanf:"failure_threshold" validate:"omitempty,min=1"`
	OpenTimeout      time.Duration `koanf:"open_timeout"`
	HalfOpenRequests uint32        `koanf:"half_open_requests"`
}

// DefaultBreakerConfig trips after five consecutive provider failures
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Enabled:          true,
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
		HalfOpenRequests: 1,
	}
}

// Options tunes the resiliency of generation calls
type Options struct {
	Retry   retry.RetryConfig
	Timeout time.Duration // 0 means the caller's context alone bounds the call
	Breaker BreakerConfig
}

// ResilientClient turns prompts into recommendation text through a provider,
// applying an optional timeout, retries with backoff and a circuit breaker.
type ResilientClient struct {
	completer   Completer
	retryConfig retry.RetryConfig
	timeout     time.Duration
	breaker     *gobreaker.CircuitBreaker[string]
}

var errEmptyCompletion = errors.New("empty completion")

// NewResilientClient wraps completer with the given options
func NewResilientClient(completer Completer, opts Options) *ResilientClient {
	rc := &ResilientClient{
		completer:   completer,
		retryConfig: opts.Retry,
		timeout:     opts.Timeout,
	}

	if opts.Breaker.Enabled {
		name := "generation-" + string(completer.Provider())
		threshold := opts.Breaker.FailureThreshold
		if threshold == 0 {
			threshold = DefaultBreakerConfig().FailureThreshold
		}
		metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

		rc.breaker = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
			Name:        name,
			MaxRequests: opts.Breaker.HalfOpenRequests,
			Timeout:     opts.Breaker.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
			IsSuccessful: func(err error) bool {
				// A caller that gave up says nothing about provider health
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn().
					Str("breaker", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("Generation circuit breaker changed state")
				metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
			},
		})
	}

	return rc
}

// NewResilientClientWithDefaults creates a client with a single attempt and a breaker
func NewResilientClientWithDefaults(completer Completer) *ResilientClient {
	return NewResilientClient(completer, Options{
		Retry:   retry.GenerationRetryConfig(),
		Breaker: DefaultBreakerConfig(),
	})
}

// Generate sends prompt to the provider and returns the completion text without
// surrounding whitespace.
// Provider failures come back as recommendation upstream errors and a blank
// completion as an empty generation error.
func (rc *ResilientClient) Generate(ctx context.Context, prompt string) (string, error) {
	if rc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rc.timeout)
		defer cancel()
	}

	logger := zerolog.Ctx(ctx).With().
		Str("provider", string(rc.completer.Provider())).
		Str("model", rc.completer.Model()).
		Logger()

	var text string
	result := retry.Do(ctx, rc.retryConfig, logger, func(attempt int) error {
		if attempt > 0 {
			metrics.GenerationRetries.Inc()
		}

		completion, err := rc.call(ctx, prompt)
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) || !retry.IsRetryableError(err) {
				return retry.Permanent(err)
			}
			return err
		}
		text = strings.TrimSpace(completion)
		if text == "" {
			return retry.Permanent(errEmptyCompletion)
		}
		return nil
	})

	if !result.Success {
		if errors.Is(result.LastError, errEmptyCompletion) {
			return "", recommendation.EmptyGeneration()
		}
		logger.Error().
			Err(result.LastError).
			Int("attempts", result.Attempts).
			Dur("total_duration", result.TotalDuration).
			Msg("Generation failed")
		return "", recommendation.Upstream(result.LastError)
	}

	logger.Debug().
		Int("attempts", result.Attempts).
		Dur("total_duration", result.TotalDuration).
		Msg("Generation succeeded")
	return text, nil
}

func (rc *ResilientClient) call(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	var (
		text string
		err  error
	)
	if rc.breaker != nil {
		text, err = rc.breaker.Execute(func() (string, error) {
			return rc.completer.Call(ctx, prompt)
		})
	} else {
		text, err = rc.completer.Call(ctx, prompt)
	}
	metrics.ObserveGeneration(string(rc.completer.Provider()), time.Since(start), err)
	return text, err
}

// BreakerState reports the breaker state, "disabled" when there is none
func (rc *ResilientClient) BreakerState() string {
	if rc.breaker == nil {
		return "disabled"
	}
	return rc.breaker.State().String()
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
