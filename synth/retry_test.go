package synth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetryPolicyAttempts(t *testing.T) {
	if got := (RetryPolicy{MaxAttempts: 5}).attempts(); got != 5 {
		t.Errorf("attempts = %d, want 5", got)
	}
	if got := (RetryPolicy{}).attempts(); got != 1 {
		t.Errorf("zero policy attempts = %d, want 1", got)
	}
	if got := (RetryPolicy{MaxAttempts: -3}).attempts(); got != 1 {
		t.Errorf("negative attempts = %d, want 1", got)
	}
}

func TestRetryPolicyDelayDoubles(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5, Backoff: 500 * time.Millisecond, MaxBackoff: 30 * time.Second}
	want := []time.Duration{
		500 * time.Millisecond,
		time.Second,
		2 * time.Second,
		4 * time.Second,
	}
	for i, w := range want {
		if got := p.Delay(i); got != w {
			t.Errorf("Delay(%d) = %v, want %v", i, got, w)
		}
	}
}

func TestRetryPolicyDelayCapped(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 20, Backoff: time.Second, MaxBackoff: 5 * time.Second}
	if got := p.Delay(10); got != 5*time.Second {
		t.Errorf("Delay(10) = %v, want cap", got)
	}
	// Shift overflow must also land on the cap.
	if got := p.Delay(62); got != 5*time.Second {
		t.Errorf("Delay(62) = %v, want cap", got)
	}
}

func TestRetryPolicyZeroBackoff(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3}
	if got := p.Delay(0); got != 0 {
		t.Errorf("Delay(0) = %v, want 0", got)
	}
}

func TestSleepReturnsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("sleep = %v, want context.Canceled", err)
	}
}

func TestSleepZeroDuration(t *testing.T) {
	if err := sleep(context.Background(), 0); err != nil {
		t.Errorf("sleep(0) = %v", err)
	}
}
