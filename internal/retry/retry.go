package retry

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"syscall"
	"time"
)

// Policy bounds a retry loop. Backoff grows linearly: attempt n waits Backoff*n.
type Policy struct {
	Attempts int
	Backoff  time.Duration
	Name     string
}

// Do runs fn until it succeeds, returns a non-transient error, the attempts
// are exhausted, or ctx is done. The last error is returned unchanged.
func Do(ctx context.Context, p Policy, transient func(error) bool, fn func() error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if transient == nil || !transient(err) || attempt == attempts {
			return err
		}

		wait := p.Backoff * time.Duration(attempt)
		slog.Warn("transient failure, retrying", "op", p.Name, "attempt", attempt, "max", attempts, "wait", wait, "error", err)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
	return err
}

// IsNetworkTransient reports timeouts and connection resets/refusals.
func IsNetworkTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ETIMEDOUT) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}
