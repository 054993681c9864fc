package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/backcountry-access/beacon-tracker/pkg/apperrors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func fastConfig() *Config {
	return &Config{
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MaxRetries != 3 {
		t.Errorf("expected MaxRetries=3, got %d", cfg.MaxRetries)
	}
	if cfg.InitialDelay != 250*time.Millisecond {
		t.Errorf("expected InitialDelay=250ms, got %v", cfg.InitialDelay)
	}
	if cfg.MaxDelay != 5*time.Second {
		t.Errorf("expected MaxDelay=5s, got %v", cfg.MaxDelay)
	}
}

func TestDo_Success(t *testing.T) {
	callCount := 0
	err := Do(context.Background(), fastConfig(), func() error {
		callCount++
		return nil
	})

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
}

func TestDo_SuccessAfterRetries(t *testing.T) {
	callCount := 0
	err := Do(context.Background(), fastConfig(), func() error {
		callCount++
		if callCount < 3 {
			return errors.New("dial tcp 10.0.0.5:1433: connection refused")
		}
		return nil
	})

	if err != nil {
		t.Errorf("expected no error after retries, got %v", err)
	}
	if callCount != 3 {
		t.Errorf("expected 3 calls, got %d", callCount)
	}
}

func TestDo_MaxRetriesExhausted(t *testing.T) {
	callCount := 0
	want := errors.New("i/o timeout")
	err := Do(context.Background(), fastConfig(), func() error {
		callCount++
		return want
	})

	if !errors.Is(err, want) {
		t.Errorf("expected last error, got %v", err)
	}
	if callCount != 4 {
		t.Errorf("expected 4 calls (1 + 3 retries), got %d", callCount)
	}
}

func TestDo_NonRetryableReturnsImmediately(t *testing.T) {
	callCount := 0
	err := Do(context.Background(), fastConfig(), func() error {
		callCount++
		return errors.New("login failed for user 'reader'")
	})

	if err == nil {
		t.Fatal("expected error")
	}
	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}
}

func TestDo_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := &Config{MaxRetries: 5, InitialDelay: time.Second, MaxDelay: time.Second, Multiplier: 1}

	callCount := 0
	err := Do(ctx, cfg, func() error {
		callCount++
		cancel()
		return errors.New("connection reset by peer")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if callCount != 1 {
		t.Errorf("expected 1 call before cancellation, got %d", callCount)
	}
}

func TestDoWithResult_NilConfig(t *testing.T) {
	got, err := DoWithResult(context.Background(), nil, func() (string, error) {
		return "ok", nil
	})
	if err != nil || got != "ok" {
		t.Errorf("DoWithResult() = %q, %v", got, err)
	}
}

func TestDoWithResult_ZeroValueOnFailure(t *testing.T) {
	got, err := DoWithResult(context.Background(), fastConfig(), func() (int, error) {
		return 7, errors.New("bad sql")
	})
	if err == nil || got != 0 {
		t.Errorf("DoWithResult() = %d, %v; want 0 and error", got, err)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"deadlock", errors.New("Transaction (Process ID 51) was deadlocked on lock resources"), true},
		{"sqlite busy", errors.New("database is locked (5) (SQLITE_BUSY)"), true},
		{"s3 slowdown", errors.New("api error SlowDown: Please reduce your request rate"), true},
		{"s3 503", errors.New("https response error StatusCode: 503, RequestID: 1A2B"), true},
		{"digits in request id", errors.New("StatusCode: 403, RequestID: 4503AB"), false},
		{"auth", errors.New("login failed"), false},
		{"canceled", fmt.Errorf("select: %w", context.Canceled), false},
		{"not found wins over pattern", &apperrors.NotFoundError{Table: "employeeTable", Key: "employeeID", Value: "timeout"}, false},
		{"wrapped data access", &apperrors.DataAccessError{Op: "connect", Err: errors.New("i/o timeout")}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
