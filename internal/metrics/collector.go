// Package metrics provides in-memory runtime statistics collection.
package metrics

import (
	"math"
	"sync"
	"time"
)

// OperationMetrics holds aggregated timings for a single operation type.
type OperationMetrics struct {
	Count     int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration
}

// OperationSnapshot provides computed stats from raw metrics.
type OperationSnapshot struct {
	Count       int64
	TotalTimeMs int64
	AvgTimeMs   float64
	MinTimeMs   int64
	MaxTimeMs   int64
}

// Snapshot represents the full client statistics at a point in time.
type Snapshot struct {
	UptimeSeconds float64

	APIRequest *OperationSnapshot
	SendAck    *OperationSnapshot

	FramesIn   int64
	FramesOut  int64
	Reconnects int64
	Dropped    int64
}

// Operation names for timed operations.
const (
	OpAPIRequest = "api_request"
	OpSendAck    = "send_ack"
)

// Counter names for event counters.
const (
	CntFramesIn   = "frames_in"
	CntFramesOut  = "frames_out"
	CntReconnects = "reconnects"
	CntDropped    = "dropped_frames"
)

// Collector aggregates in-memory runtime statistics.
// All methods are thread-safe.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	ops       map[string]*OperationMetrics
	counters  map[string]int64
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		ops:       make(map[string]*OperationMetrics),
		counters:  make(map[string]int64),
	}
}

// getOrCreate returns existing metrics or creates new ones for an operation.
// Caller must hold write lock.
func (c *Collector) getOrCreate(op string) *OperationMetrics {
	m, ok := c.ops[op]
	if !ok {
		m = &OperationMetrics{
			MinTime: time.Duration(math.MaxInt64),
		}
		c.ops[op] = m
	}
	return m
}

// RecordTiming records timing for an operation.
func (c *Collector) RecordTiming(op string, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.getOrCreate(op)
	m.Count++
	m.TotalTime += duration

	if duration < m.MinTime {
		m.MinTime = duration
	}
	if duration > m.MaxTime {
		m.MaxTime = duration
	}
}

// Increment bumps an event counter by one.
func (c *Collector) Increment(counter string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[counter]++
}

// Counter returns the current value of an event counter.
func (c *Collector) Counter(counter string) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.counters[counter]
}

// snapshotOp creates a snapshot for an operation, returning nil if no data.
func snapshotOp(m *OperationMetrics) *OperationSnapshot {
	if m == nil || m.Count == 0 {
		return nil
	}

	return &OperationSnapshot{
		Count:       m.Count,
		TotalTimeMs: m.TotalTime.Milliseconds(),
		AvgTimeMs:   float64(m.TotalTime.Milliseconds()) / float64(m.Count),
		MinTimeMs:   m.MinTime.Milliseconds(),
		MaxTimeMs:   m.MaxTime.Milliseconds(),
	}
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Snapshot{
		UptimeSeconds: time.Since(c.startTime).Seconds(),
		APIRequest:    snapshotOp(c.ops[OpAPIRequest]),
		SendAck:       snapshotOp(c.ops[OpSendAck]),
		FramesIn:      c.counters[CntFramesIn],
		FramesOut:     c.counters[CntFramesOut],
		Reconnects:    c.counters[CntReconnects],
		Dropped:       c.counters[CntDropped],
	}
}
