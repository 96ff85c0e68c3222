// Package breaker builds the circuit breakers guarding outbound delivery calls.
package breaker

import (
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/vidyasetu/vidyasetu/core"
)

// ConsecutiveFailures opens a breaker.
const ConsecutiveFailures = 5

// New returns a breaker that opens after ConsecutiveFailures failed calls and probes again after a minute.
func New[T any](name string, logger core.Logger) *gobreaker.CircuitBreaker[T] {
	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if logger != nil {
				logger.Warn("circuit breaker state change", map[string]interface{}{
					"breaker": name,
					"from":    from.String(),
					"to":      to.String(),
				})
			}
		},
	})
}
