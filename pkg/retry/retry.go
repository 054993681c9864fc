package retry

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/backcountry-access/beacon-tracker/pkg/apperrors"
)

// Config defines retry behavior with exponential backoff
type Config struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	JitterFactor float64 // 0.0-1.0
}

// DefaultConfig returns defaults for connecting to the tracking database and
// the report archive: 3 retries from 250ms, capped at 5s, doubling, 10% jitter.
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:   3,
		InitialDelay: 250 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

// applyJitter returns delay +/- (delay * jitterFactor * random(-1 to +1)).
func applyJitter(delay time.Duration, jitterFactor float64) time.Duration {
	if jitterFactor <= 0 {
		return delay
	}
	jitter := float64(delay) * jitterFactor * (rand.Float64()*2 - 1)
	return time.Duration(float64(delay) + jitter)
}

// Do executes fn until it succeeds, returns a non-retryable error, or the
// retries are exhausted. Respects context cancellation during wait periods.
func Do(ctx context.Context, cfg *Config, fn func() error) error {
	_, err := DoWithResult(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// DoWithResult is Do for functions that return a value, such as opening a
// connection.
func DoWithResult[T any](ctx context.Context, cfg *Config, fn func() (T, error)) (T, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var zero T
	delay := cfg.InitialDelay

	for attempt := 0; ; attempt++ {
		r, err := fn()
		if err == nil {
			return r, nil
		}
		if attempt >= cfg.MaxRetries || !IsRetryable(err) {
			return zero, err
		}

		select {
		case <-time.After(applyJitter(delay, cfg.JitterFactor)):
			delay = time.Duration(float64(delay) * cfg.Multiplier)
			if delay > cfg.MaxDelay {
				delay = cfg.MaxDelay
			}
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// retryablePatterns are transient failures seen from SQL Server, PostgreSQL,
// SQLite and S3.
var retryablePatterns = []string{
	"connection refused",
	"connection reset",
	"broken pipe",
	"no such host",
	"i/o timeout",
	"timed out",
	"timeout",
	"temporary failure",
	"too many connections",
	"deadlock",
	"database is locked",
	"network is unreachable",
	"slowdown",
	"throttl",
	"statuscode: 500",
	"statuscode: 502",
	"statuscode: 503",
	"statuscode: 504",
	"service unavailable",
}

// IsRetryable reports whether err is transient. Errors from report parsing,
// schema checks, and lookups that found nothing are never retried, nor is
// context cancellation.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	for _, permanent := range []error{
		apperrors.ErrNotFound,
		apperrors.ErrSchemaMismatch,
		apperrors.ErrMissingField,
		apperrors.ErrReportParse,
		apperrors.ErrReportFormat,
		apperrors.ErrInvalidSerialNumber,
	} {
		if errors.Is(err, permanent) {
			return false
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}
