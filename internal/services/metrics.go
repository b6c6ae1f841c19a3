package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	providerRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kopis_provider_requests_total",
		Help: "KOPIS API requests by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})

	providerBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "kopis_provider_breaker_state",
		Help: "Circuit breaker state (0 closed, 1 half-open, 2 open).",
	}, []string{"name"})
)

const (
	outcomeOK        = "ok"
	outcomeTransport = "transport"
	outcomeStatus    = "status"
	outcomeDecode    = "decode"
)
