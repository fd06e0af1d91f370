package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// fakeCounter returns scripted results, one per call.
type fakeCounter struct {
	mu      sync.Mutex
	results []countResult
	calls   int
}

type countResult struct {
	count int
	err   error
}

func (f *fakeCounter) UnreadCount(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	r := f.results[i]
	return r.count, r.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func waitUpdate(t *testing.T, p *Poller) int {
	t.Helper()
	select {
	case n := <-p.Updates():
		return n
	case <-time.After(3 * time.Second):
		t.Fatal("no poller update")
		return 0
	}
}

func TestPollerDeliversCount(t *testing.T) {
	f := &fakeCounter{results: []countResult{{count: 5}}}
	p := NewPoller(f, time.Hour, discardLogger())
	p.Start()
	defer p.Stop()

	if got := waitUpdate(t, p); got != 5 {
		t.Errorf("update = %d, want 5", got)
	}
	if p.Count() != 5 {
		t.Errorf("Count() = %d, want 5", p.Count())
	}
}

// A failed fetch must leave the previously delivered count in place and
// surface nothing to the badge.
func TestPollerKeepsCountOnFailure(t *testing.T) {
	f := &fakeCounter{results: []countResult{
		{count: 7},
		{err: errors.New("network down")},
	}}
	p := NewPoller(f, time.Hour, discardLogger())
	p.Start()
	defer p.Stop()

	if got := waitUpdate(t, p); got != 7 {
		t.Fatalf("first update = %d, want 7", got)
	}

	p.Refresh() // second fetch fails

	if p.Count() != 7 {
		t.Errorf("Count() after failure = %d, want 7", p.Count())
	}
	select {
	case n := <-p.Updates():
		t.Errorf("unexpected update %d after failed fetch", n)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPollerRefresh(t *testing.T) {
	f := &fakeCounter{results: []countResult{{count: 1}, {count: 3}}}
	p := NewPoller(f, time.Hour, discardLogger())
	p.Start()
	defer p.Stop()

	waitUpdate(t, p)
	p.Refresh()
	if got := waitUpdate(t, p); got != 3 {
		t.Errorf("update after Refresh = %d, want 3", got)
	}
}

func TestFormatBadge(t *testing.T) {
	tests := []struct {
		count int
		want  string
	}{
		{0, ""},
		{-1, ""},
		{1, "1"},
		{42, "42"},
		{99, "99"},
		{100, "99+"},
		{150, "99+"},
		{100000, "99+"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := FormatBadge(tt.count); got != tt.want {
				t.Errorf("FormatBadge(%d) = %q, want %q", tt.count, got, tt.want)
			}
		})
	}
}
