// Package notify implements the unread-count poller and the read-state
// reconciler for notifications.
package notify

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"
)

// CountFetcher fetches the unread count. Satisfied by *api.Client.
type CountFetcher interface {
	UnreadCount(ctx context.Context) (int, error)
}

// fetchTimeout bounds a single count fetch.
const fetchTimeout = 10 * time.Second

// badgeCap is the largest count rendered numerically.
const badgeCap = 99

// Poller periodically fetches the unread notification count,
// independent of any chat connection. A failed fetch keeps the previous
// count on display: stale-but-available beats an error banner over the
// whole surface.
type Poller struct {
	fetcher  CountFetcher
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	count   int
	running bool

	updates chan int
	stopCh  chan struct{}
}

// NewPoller creates a poller fetching every interval (default 30s).
func NewPoller(fetcher CountFetcher, interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		fetcher:  fetcher,
		interval: interval,
		logger:   logger,
		updates:  make(chan int, 16),
		stopCh:   make(chan struct{}),
	}
}

// Start launches the polling loop with an immediate first fetch.
func (p *Poller) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.mu.Unlock()

	go p.loop()
}

// Stop halts the polling loop.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	close(p.stopCh)
	p.running = false
}

// Count returns the last successfully fetched count.
func (p *Poller) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

// Badge renders the current count for the badge, capped at "99+".
// An empty string means no badge (zero unread, or nothing fetched yet).
func (p *Poller) Badge() string {
	return FormatBadge(p.Count())
}

// Updates delivers a value after every successful fetch. Buffered and
// lossy: a slow consumer misses intermediate counts, never the channel.
func (p *Poller) Updates() <-chan int {
	return p.updates
}

// Refresh triggers an immediate fetch outside the tick schedule.
func (p *Poller) Refresh() {
	p.fetchOnce()
}

func (p *Poller) loop() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.fetchOnce()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.fetchOnce()
		}
	}
}

func (p *Poller) fetchOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	count, err := p.fetcher.UnreadCount(ctx)
	if err != nil {
		// Keep the previous count; the badge must not flicker or error
		// because one poll cycle failed.
		p.logger.Debug("unread count fetch failed", "error", err)
		return
	}

	p.mu.Lock()
	p.count = count
	p.mu.Unlock()

	select {
	case p.updates <- count:
	default:
	}
}

// FormatBadge renders an unread count for display. Zero renders empty;
// anything above 99 renders "99+" so the badge width stays bounded.
func FormatBadge(count int) string {
	switch {
	case count <= 0:
		return ""
	case count > badgeCap:
		return "99+"
	}
	return strconv.Itoa(count)
}
