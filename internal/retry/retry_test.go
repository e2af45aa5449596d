package retry

import (
	"context"
	"errors"
	"io"
	"reflect"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/ttsbytes/internal/tts"
)

type sleepRecorder struct {
	delays []time.Duration
}

func (s *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return ctx.Err()
}

func testPolicy(maxRetries int, sleeper *sleepRecorder) Policy {
	return Policy{
		MaxRetries:    maxRetries,
		BackoffFactor: time.Second,
		Sleep:         sleeper.Sleep,
		Logger:        log.New(io.Discard),
	}
}

var errConn = tts.NewTransportError("connect", errors.New("connection refused"))

func TestPolicy_Delay(t *testing.T) {
	p := Policy{BackoffFactor: time.Second}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 0},
		{1, 0},
		{2, time.Second},
		{3, 2 * time.Second},
		{4, 4 * time.Second},
		{5, 8 * time.Second},
	}
	for _, tt := range tests {
		if got := p.Delay(tt.attempt); got != tt.want {
			t.Errorf("Delay(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}

	long := Policy{BackoffFactor: 10 * time.Second}
	prev := time.Duration(0)
	for attempt := 2; attempt <= 70; attempt++ {
		got := long.Delay(attempt)
		if got < prev {
			t.Fatalf("Delay(%d) = %v, shorter than Delay(%d) = %v", attempt, got, attempt-1, prev)
		}
		prev = got
	}
	if got := long.Delay(70); got != maxDelay {
		t.Errorf("Delay(70) = %v, want it to saturate at %v", got, maxDelay)
	}
	if got := long.Delay(31); got != 10*time.Second*(1<<29) {
		t.Errorf("Delay(31) = %v, want %v", got, 10*time.Second*(1<<29))
	}
	if got := long.Delay(32); got != maxDelay {
		t.Errorf("Delay(32) = %v, want %v", got, maxDelay)
	}

	if got := (Policy{}).Delay(3); got != 0 {
		t.Errorf("Zero backoff should not wait, got %v", got)
	}
}

func TestPolicy_Attempts(t *testing.T) {
	if got := (Policy{}).Attempts(); got != 1 {
		t.Errorf("Zero policy should make one attempt, got %d", got)
	}
	if got := DefaultPolicy().Attempts(); got != 3 {
		t.Errorf("Default policy attempts = %d, want 3", got)
	}
}

func TestPolicy_Do(t *testing.T) {
	tests := []struct {
		name       string
		maxRetries int
		failures   int
		wantCalls  int
		wantDelays []time.Duration
		exhausted  bool
	}{
		{"first try", 3, 0, 1, nil, false},
		{"one failure", 3, 1, 2, []time.Duration{time.Second}, false},
		{"two failures", 3, 2, 3, []time.Duration{time.Second, 2 * time.Second}, false},
		{"always failing", 3, 99, 3, []time.Duration{time.Second, 2 * time.Second}, true},
		{"single attempt", 1, 99, 1, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sleeper := &sleepRecorder{}
			calls := 0
			err := testPolicy(tt.maxRetries, sleeper).Do(context.Background(), func(_ context.Context, attempt int) error {
				calls++
				if attempt != calls {
					t.Errorf("attempt = %d, want %d", attempt, calls)
				}
				if calls <= tt.failures {
					return errConn
				}
				return nil
			})

			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if !reflect.DeepEqual(sleeper.delays, tt.wantDelays) {
				t.Errorf("delays = %v, want %v", sleeper.delays, tt.wantDelays)
			}

			if !tt.exhausted {
				if err != nil {
					t.Fatalf("Unexpected error: %v", err)
				}
				return
			}
			var exhausted *tts.ExhaustedRetriesError
			if !errors.As(err, &exhausted) {
				t.Fatalf("Expected ExhaustedRetriesError, got %v", err)
			}
			if exhausted.Attempts != tt.maxRetries {
				t.Errorf("Attempts = %d, want %d", exhausted.Attempts, tt.maxRetries)
			}
			if !errors.Is(err, errConn) {
				t.Error("Exhausted error should wrap the last failure")
			}
		})
	}
}

func TestPolicy_DoNonRetryable(t *testing.T) {
	sleeper := &sleepRecorder{}
	remote := tts.NewRemoteError(500, "bad voice")

	calls := 0
	err := testPolicy(3, sleeper).Do(context.Background(), func(context.Context, int) error {
		calls++
		return remote
	})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if len(sleeper.delays) != 0 {
		t.Errorf("Expected no delays, got %v", sleeper.delays)
	}
	if !errors.Is(err, remote) {
		t.Errorf("Expected the remote error back, got %v", err)
	}
}

func TestPolicy_DoCustomRetryable(t *testing.T) {
	sentinel := errors.New("flaky")
	p := testPolicy(2, &sleepRecorder{})
	p.Retryable = func(err error) bool { return errors.Is(err, sentinel) }

	calls := 0
	err := p.Do(context.Background(), func(context.Context, int) error {
		calls++
		return sentinel
	})
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	var exhausted *tts.ExhaustedRetriesError
	if !errors.As(err, &exhausted) {
		t.Errorf("Expected ExhaustedRetriesError, got %v", err)
	}
}

func TestPolicy_DoCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := testPolicy(5, &sleepRecorder{}).Do(ctx, func(context.Context, int) error {
		calls++
		cancel()
		return errConn
	})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	var tErr *tts.TTSError
	if !errors.As(err, &tErr) || tErr.Code != tts.ErrorCodeCanceled {
		t.Errorf("Expected CANCELED TTSError, got %v", err)
	}
}

func TestPolicy_DoCanceledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := testPolicy(3, &sleepRecorder{}).Do(ctx, func(context.Context, int) error {
		called = true
		return nil
	})
	if called {
		t.Error("fn should not run with a done context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestSleep(t *testing.T) {
	if err := Sleep(context.Background(), time.Millisecond); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	if err := Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Sleep should return as soon as the context is done")
	}
}
