package services

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	gobreaker "github.com/sony/gobreaker/v2"
)

// BreakerConfig controls when the provider circuit opens and how long it stays open.
type BreakerConfig struct {
	Name             string
	FailureThreshold uint32
	Timeout          time.Duration
	MaxRequests      uint32
}

// DefaultBreakerConfig opens after five consecutive failures and probes again after a minute.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "kopis-api",
		FailureThreshold: 5,
		Timeout:          time.Minute,
		MaxRequests:      1,
	}
}

// NewBreaker builds the circuit breaker wrapped around every provider request.
func NewBreaker(cfg BreakerConfig, logger *log.Logger) *gobreaker.CircuitBreaker[[]byte] {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = DefaultBreakerConfig().FailureThreshold
	}
	if logger == nil {
		logger = log.Default()
	}

	providerBreakerState.WithLabelValues(cfg.Name).Set(float64(gobreaker.StateClosed))

	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
			providerBreakerState.WithLabelValues(name).Set(float64(to))
		},
		// Cancellation by the caller says nothing about provider health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
}
