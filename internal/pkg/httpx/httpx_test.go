package httpx

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"
)

type statusErr int

func (e statusErr) Error() string       { return fmt.Sprintf("status %d", int(e)) }
func (e statusErr) HTTPStatusCode() int { return int(e) }

func TestIsRetryableError(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{context.Canceled, false},
		{context.DeadlineExceeded, true},
		{statusErr(429), true},
		{statusErr(503), true},
		{fmt.Errorf("wrapped: %w", statusErr(502)), true},
		{statusErr(400), false},
		{fmt.Errorf("plain"), false},
	}
	for _, tc := range cases {
		if got := IsRetryableError(tc.err); got != tc.want {
			t.Fatalf("IsRetryableError(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func within(t *testing.T, got, want time.Duration) {
	t.Helper()
	lo, hi := want*8/10, want*12/10
	if got < lo || got > hi {
		t.Fatalf("delay %v outside [%v, %v]", got, lo, hi)
	}
}

func TestBackoffDelay(t *testing.T) {
	b := Backoff{Base: 500 * time.Millisecond, Max: 10 * time.Second}
	within(t, b.Delay(0, nil), 500*time.Millisecond)
	within(t, b.Delay(2, nil), 2*time.Second)
	within(t, b.Delay(10, nil), 10*time.Second)

	resp := &http.Response{Header: http.Header{}}
	resp.Header.Set("Retry-After", "3")
	within(t, b.Delay(0, resp), 3*time.Second)
	resp.Header.Set("Retry-After", "30")
	within(t, b.Delay(0, resp), 10*time.Second)
	resp.Header.Set("Retry-After", "soon")
	within(t, b.Delay(1, resp), time.Second)
}

func TestRetryAfterHTTPDate(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	resp := &http.Response{Header: http.Header{}}
	resp.Header.Set("Retry-After", now.Add(4*time.Second).Format(http.TimeFormat))
	d, ok := retryAfter(resp, now)
	if !ok || d != 4*time.Second {
		t.Fatalf("retryAfter = %v, %v; want 4s, true", d, ok)
	}
	resp.Header.Set("Retry-After", now.Add(-time.Minute).Format(http.TimeFormat))
	if _, ok := retryAfter(resp, now); ok {
		t.Fatalf("a date in the past should be ignored")
	}
}

func TestSleepContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := SleepContext(ctx, time.Hour); err == nil {
		t.Fatalf("expected context error")
	}
}
