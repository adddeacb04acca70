package llm

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"

	"github.com/yungbote/tutorbridge-backend/internal/platform/logger"
)

type BreakerProvider struct {
	inner Provider
	cb    *gobreaker.CircuitBreaker
}

// WithBreaker trips after failures consecutive provider outages. Caller
// mistakes (bad requests, cancellations) do not count.
func WithBreaker(p Provider, failures uint32, openFor time.Duration, log *logger.Logger) Provider {
	if failures == 0 {
		failures = 5
	}
	if openFor <= 0 {
		openFor = 30 * time.Second
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "llm",
		MaxRequests: 1,
		Timeout:     openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var unavail *ErrProviderUnavailable
			var rl *ErrRateLimit
			return !errors.As(err, &unavail) && !errors.As(err, &rl)
		},
	})
	return &BreakerProvider{inner: p, cb: cb}
}

func (b *BreakerProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.Generate(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &ErrProviderUnavailable{Err: err}
		}
		return nil, err
	}
	resp, _ := out.(*Response)
	return resp, nil
}

func (b *BreakerProvider) ModelID() string {
	return b.inner.ModelID()
}
