// Package retry provides backoff policies for transient failures such as
// delivering build notifications.
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xamyl/wikii/internal/foundation/errors"
	"github.com/xamyl/wikii/internal/foundation/normalization"
	"github.com/xamyl/wikii/internal/logfields"
)

// BackoffMode selects how the delay grows between attempts.
type BackoffMode string

const (
	BackoffFixed       BackoffMode = "fixed"
	BackoffLinear      BackoffMode = "linear"
	BackoffExponential BackoffMode = "exponential"
)

var backoffNormalizer = normalization.NewNormalizer(map[string]BackoffMode{
	"fixed":       BackoffFixed,
	"constant":    BackoffFixed,
	"linear":      BackoffLinear,
	"exponential": BackoffExponential,
	"exp":         BackoffExponential,
}, BackoffLinear)

// Policy encapsulates retry/backoff settings. It is immutable after construction.
type Policy struct {
	Mode       BackoffMode
	Initial    time.Duration // base delay
	Max        time.Duration // cap for growth
	MaxRetries int           // attempts after the first failure
}

// DefaultPolicy is linear, 500ms initial, 5s cap, 2 retries.
func DefaultPolicy() Policy {
	return Policy{Mode: BackoffLinear, Initial: 500 * time.Millisecond, Max: 5 * time.Second, MaxRetries: 2}
}

// NewPolicy builds a policy from raw config fields; zero or invalid values
// fall back to the defaults. A negative maxRetries keeps the default count.
func NewPolicy(mode string, initial, maxDelay time.Duration, maxRetries int) Policy {
	p := DefaultPolicy()
	if mode != "" {
		p.Mode = backoffNormalizer.Normalize(mode)
	}
	if maxRetries >= 0 {
		p.MaxRetries = maxRetries
	}
	if initial > 0 {
		p.Initial = initial
	}
	if maxDelay > 0 {
		p.Max = maxDelay
	}
	if p.Initial > p.Max {
		p.Initial = p.Max
	}
	return p
}

// Delay returns the backoff delay for the given retry (1-based: first retry => 1).
func (p Policy) Delay(retryCount int) time.Duration {
	if retryCount <= 0 {
		return 0
	}
	switch p.Mode {
	case BackoffFixed:
		return p.Initial
	case BackoffExponential:
		d := p.Initial
		for i := 1; i < retryCount && d < p.Max; i++ {
			d *= 2
		}
		return min(d, p.Max)
	default:
		return min(time.Duration(retryCount)*p.Initial, p.Max)
	}
}

// Validate ensures the policy can be applied.
func (p Policy) Validate() error {
	if p.Initial <= 0 {
		return fmt.Errorf("initial must be >0")
	}
	if p.Max <= 0 {
		return fmt.Errorf("max must be >0")
	}
	if p.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	return nil
}

// Do calls fn until it succeeds, returns an error that is not retryable, the
// retries are exhausted or ctx is done. Only classified errors that allow
// retrying are retried.
func (p Policy) Do(ctx context.Context, op string, fn func(context.Context) error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		ce, ok := errors.AsClassified(err)
		if !ok || !ce.CanRetry() || attempt >= p.MaxRetries {
			return err
		}

		delay := p.Delay(attempt + 1)
		slog.Debug("Retrying after transient failure",
			slog.String("operation", op),
			slog.Int("attempt", attempt+1),
			logfields.DurationMS(float64(delay.Milliseconds())),
			logfields.Error(err))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
}
