package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"strings"
	"time"

	"github.com/shiwutong/lostfound-backend/internal/retry"
)

const retryStep = 500 * time.Millisecond

// WithRetry runs fn up to attempts times, retrying only when the failure
// looks like a dropped or timed-out connection.
func WithRetry(ctx context.Context, attempts int, fn func() error) error {
	return retry.Do(ctx, retry.Policy{Attempts: attempts, Backoff: retryStep, Name: "database"}, IsTransient, fn)
}

// IsTransient reports connection-level failures that are worth retrying.
// Constraint violations, missing rows and validation errors are not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || retry.IsNetworkTransient(err) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"connection reset",
		"broken pipe",
		"connection refused",
		"i/o timeout",
		"invalid connection",
		"database is locked",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
