// Package retry runs an operation again when it fails with a
// connection-level error, sleeping on an exponential schedule between
// attempts.
package retry

import (
	"context"
	"math"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/ttsbytes/internal/tts"
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Policy bounds how often and how patiently an operation is retried.
// The zero value makes a single attempt.
type Policy struct {
	// MaxRetries is the total number of attempts, not the number of
	// retries after the first one.
	MaxRetries int

	// BackoffFactor is the delay before the second attempt. Each later
	// attempt waits twice as long as the one before.
	BackoffFactor time.Duration

	// Retryable decides which errors start another attempt.
	// Defaults to IsConnectionError.
	Retryable func(error) bool

	// Sleep defaults to a context-aware timer.
	Sleep SleepFunc

	// Logger defaults to log.Default().
	Logger *log.Logger
}

// DefaultPolicy returns the client defaults: three attempts, one second
// base backoff.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:    tts.DefaultMaxRetries,
		BackoffFactor: tts.DefaultBackoffFactor,
	}
}

// Attempts returns the number of attempts Do will make at most.
func (p Policy) Attempts() int {
	if p.MaxRetries < 1 {
		return 1
	}
	return p.MaxRetries
}

// maxDelay is the longest wait Delay reports.
const maxDelay = time.Duration(math.MaxInt64)

// Delay returns the wait before the given 1-based attempt:
// 0 for the first, BackoffFactor * 2^(attempt-2) afterwards, saturating
// at maxDelay.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 2 || p.BackoffFactor <= 0 {
		return 0
	}
	d := p.BackoffFactor
	for i := 2; i < attempt; i++ {
		if d > maxDelay/2 {
			return maxDelay
		}
		d *= 2
	}
	return d
}

// Do calls fn until it succeeds, fails with an error Retryable rejects,
// the attempts run out, or ctx is done.
//
// Exhaustion returns *tts.ExhaustedRetriesError wrapping the last error.
// A done context returns a CANCELED *tts.TTSError wrapping ctx.Err(), and
// no further attempt is made.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	logger := p.logger()
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsConnectionError
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	attempts := p.Attempts()
	var last error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			delay := p.Delay(attempt)
			logger.Debug("Retrying", "attempt", attempt, "max_attempts", attempts, "delay", delay)
			if err := sleep(ctx, delay); err != nil {
				return canceled(err)
			}
		}

		if err := ctx.Err(); err != nil {
			return canceled(err)
		}

		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return canceled(ctxErr)
		}
		if !retryable(err) {
			return err
		}

		last = err
		logger.Warn("Attempt failed with connection error", "attempt", attempt, "max_attempts", attempts, "error", err)
	}

	return tts.NewExhaustedRetriesError(attempts, last)
}

func (p Policy) logger() *log.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return log.Default()
}

func canceled(cause error) error {
	return tts.NewTTSError(tts.ErrorCodeCanceled, tts.ErrCanceled.Error(), cause)
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
