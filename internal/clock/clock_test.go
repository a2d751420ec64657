package clock

import (
	"context"
	"testing"
	"time"
)

func TestSleepElapses(t *testing.T) {
	t.Parallel()
	c := Real{}
	start := c.Now()
	if !Sleep(context.Background(), c, 20*time.Millisecond, nil) {
		t.Fatalf("Sleep returned false without a wake signal")
	}
	if got := c.Since(start); got < 20*time.Millisecond {
		t.Fatalf("Since = %v, want >= 20ms", got)
	}
}

func TestSleepWokenByDone(t *testing.T) {
	t.Parallel()
	done := make(chan struct{})
	close(done)
	start := time.Now()
	if Sleep(context.Background(), Real{}, time.Second, done) {
		t.Fatalf("Sleep returned true after done was closed")
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Fatalf("Sleep did not return promptly")
	}
}

func TestSleepWokenByContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if Sleep(ctx, nil, time.Second, nil) {
		t.Fatalf("Sleep returned true after ctx was canceled")
	}
}
