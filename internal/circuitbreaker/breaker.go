package circuitbreaker

import (
	"time"

	"github.com/fjod/go_storefront/internal/logger"
	"github.com/sony/gobreaker/v2"
)

const (
	consecutiveFailures = 5
	openTimeout         = 30 * time.Second
)

// New returns a breaker that opens after five consecutive failures and
// half-opens again after thirty seconds. State changes are logged.
func New[T any](name string, log *logger.Logger) *gobreaker.CircuitBreaker[T] {
	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= consecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
}
