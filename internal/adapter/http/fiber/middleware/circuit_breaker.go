package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-route/pkg/config"
)

// CircuitBreaker trips when handlers keep failing with server errors and
// answers 503 until the breaker half-opens again. Client errors do not count.
func CircuitBreaker(cfg config.CircuitBreakerConfig, log *zap.Logger) fiber.Handler {
	if !cfg.Enabled {
		return func(c *fiber.Ctx) error { return c.Next() }
	}

	minRequests := uint32(cfg.MinRequests)
	if minRequests == 0 {
		minRequests = 3
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "sigec-route-api",
		MaxRequests: uint32(cfg.MaxRequests),
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= minRequests && failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return func(c *fiber.Ctx) error {
		var handlerErr error
		_, err := cb.Execute(func() (interface{}, error) {
			handlerErr = c.Next()
			if handlerErr != nil {
				if StatusFor(handlerErr) >= fiber.StatusInternalServerError {
					return nil, handlerErr
				}
				return nil, nil
			}
			if c.Response().StatusCode() >= fiber.StatusInternalServerError {
				return nil, errServerError
			}
			return nil, nil
		})

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Service temporarily unavailable",
			})
		}

		return handlerErr
	}
}

var errServerError = errors.New("handler responded with a server error")
