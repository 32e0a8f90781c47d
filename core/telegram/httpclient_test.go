package telegram

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"
)

func TestLinearBackoff(t *testing.T) {
	for attempt, want := range []time.Duration{2 * time.Second, 4 * time.Second, 6 * time.Second, 6 * time.Second} {
		if got := linearBackoff(2*time.Second, 6*time.Second, attempt, nil); got != want {
			t.Fatalf("attempt %d: got %s, want %s", attempt, got, want)
		}
	}
}

func TestCheckRetry(t *testing.T) {
	ctx := context.Background()
	dialErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	if retry, err := checkRetry(ctx, nil, dialErr); !retry || err != nil {
		t.Fatalf("dial error should be retried, got %v, %v", retry, err)
	}
	if retry, _ := checkRetry(ctx, nil, errors.New("bad request")); retry {
		t.Fatal("plain errors should not be retried")
	}
	if retry, _ := checkRetry(ctx, nil, nil); retry {
		t.Fatal("responses are not retried")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if retry, err := checkRetry(cancelled, nil, dialErr); retry || !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled context should stop retries, got %v, %v", retry, err)
	}
}
