// Package gateway holds the outbound HTTP collaborators: the card-network
// authorization service and the external fraud-decision service. Both sit
// behind retrying clients and circuit breakers so a slow downstream cannot
// stall transaction processing.
package gateway

import (
	"net/http"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sony/gobreaker"

	"github.com/jaortiz16/Payment-Processor-sub000/internal/pkg/config"
)

func newHTTPClient(cfg config.GatewayConfig) *http.Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.RetryMax
	rc.HTTPClient.Timeout = cfg.RequestTimeout
	rc.Logger = nil
	return rc.StandardClient()
}

func newBreaker(name string, cfg config.GatewayConfig) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerThreshold
		},
	})
}
