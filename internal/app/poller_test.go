package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second}, // Would be 32s, capped to 30s
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	// Verify that backoff never exceeds maxBackoff regardless of input
	baseInterval := 2 * time.Second
	for failures := 0; failures <= 20; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

func TestStartPoller_RunsRefreshersUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan struct{})
	StartPoller(ctx, nil, 10*time.Millisecond, func(context.Context) error {
		if calls.Add(1) == 3 {
			close(done)
		}
		return nil
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("poller ran %d times, want at least 3", calls.Load())
	}
}

func TestPoll_RunsAllAndReturnsFirstError(t *testing.T) {
	first := errors.New("first")
	var ran []int
	err := poll(context.Background(), []Refresher{
		func(context.Context) error { ran = append(ran, 1); return first },
		func(context.Context) error { ran = append(ran, 2); return errors.New("second") },
		func(context.Context) error { ran = append(ran, 3); return nil },
	})
	if !errors.Is(err, first) {
		t.Fatalf("poll error = %v, want %v", err, first)
	}
	if len(ran) != 3 {
		t.Fatalf("ran = %v, want all three refreshers", ran)
	}
}
