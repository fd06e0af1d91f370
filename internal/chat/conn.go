package chat

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"github.com/nwerner/talentline/internal/metrics"
)

// State is the readiness of the transport session.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Status is a point-in-time snapshot of the connection for UI surfaces.
type Status struct {
	State      State
	LastError  error
	Reconnects int64
}

// Connected reports whether frames can currently be written directly.
func (st Status) Connected() bool { return st.State == StateOpen }

// Config configures a Conn.
type Config struct {
	// Endpoint is the ws:// or wss:// URL of the chat endpoint.
	Endpoint string
	// UserID identifies this client in join and send frames.
	UserID string

	// AckTimeout bounds the wait for a delivery acknowledgment.
	// Defaults to 10s.
	AckTimeout time.Duration
	// ReconnectMinWait / ReconnectMaxWait bound the backoff between
	// redial attempts. Defaults: 1s / 30s.
	ReconnectMinWait time.Duration
	ReconnectMaxWait time.Duration

	Logger     *slog.Logger
	Metrics    *metrics.Collector
	Dispatcher *Dispatcher
}

// Conn owns the single transport session for all chat surfaces. A
// supervisor goroutine drives the dial/open/backoff cycle independent
// of any UI lifecycle, so a dropped connection recovers without
// remounting anything. Joined rooms are re-announced and queued frames
// flushed after every reconnect.
type Conn struct {
	cfg        Config
	logger     *slog.Logger
	metrics    *metrics.Collector
	dispatcher *Dispatcher
	dialer     *websocket.Dialer

	mu         sync.Mutex
	state      State
	ws         *websocket.Conn
	pending    []Frame
	rooms      map[int64]struct{}
	acks       map[string]chan Frame
	lastErr    error
	reconnects int64
	everOpen   bool

	// wmu serializes writes to the underlying socket; gorilla allows
	// only one concurrent writer.
	wmu sync.Mutex

	closed    chan struct{}
	closeOnce sync.Once
}

// New creates a connection manager. Call Start to begin dialing.
func New(cfg Config) *Conn {
	if cfg.AckTimeout <= 0 {
		cfg.AckTimeout = 10 * time.Second
	}
	if cfg.ReconnectMinWait <= 0 {
		cfg.ReconnectMinWait = time.Second
	}
	if cfg.ReconnectMaxWait <= 0 {
		cfg.ReconnectMaxWait = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewCollector()
	}

	return &Conn{
		cfg:        cfg,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
		dispatcher: cfg.Dispatcher,
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
		state:  StateDisconnected,
		rooms:  make(map[int64]struct{}),
		acks:   make(map[string]chan Frame),
		closed: make(chan struct{}),
	}
}

// Start launches the supervisor. It returns immediately; readiness is
// asynchronous and observable through Status.
func (c *Conn) Start(ctx context.Context) {
	go c.run(ctx)
}

// Close tears the session down and stops the supervisor.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.mu.Lock()
		c.state = StateClosed
		ws := c.ws
		c.ws = nil
		c.mu.Unlock()
		if ws != nil {
			_ = ws.Close()
		}
	})
	return nil
}

// Status returns a snapshot of the connection state.
func (c *Conn) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{State: c.state, LastError: c.lastErr, Reconnects: c.reconnects}
}

// Join announces membership in a room. Fire-and-forget: no ack frame
// exists for joins. The room is tracked so membership survives
// reconnects.
func (c *Conn) Join(roomID int64) error {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.rooms[roomID] = struct{}{}
	c.mu.Unlock()

	return c.writeFrame(JoinFrame(roomID, c.cfg.UserID))
}

// Leave withdraws membership in a room.
func (c *Conn) Leave(roomID int64) error {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return ErrClosed
	}
	delete(c.rooms, roomID)
	c.mu.Unlock()

	return c.writeFrame(LeaveFrame(roomID))
}

// run is the supervising state machine.
func (c *Conn) run(ctx context.Context) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.ReconnectMinWait
	bo.MaxInterval = c.cfg.ReconnectMaxWait
	bo.MaxElapsedTime = 0 // retry until closed

	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			return
		case <-c.closed:
			return
		default:
		}

		c.setState(StateConnecting)
		ws, _, err := c.dialer.DialContext(ctx, c.cfg.Endpoint, nil)
		if err != nil {
			c.noteError(err)
			c.setState(StateDisconnected)

			wait := bo.NextBackOff()
			c.logger.Warn("chat dial failed", "endpoint", c.cfg.Endpoint, "error", err, "retry_in", wait)
			select {
			case <-ctx.Done():
				c.shutdown()
				return
			case <-c.closed:
				return
			case <-time.After(wait):
			}
			continue
		}

		bo.Reset()
		c.attach(ws)
		c.logger.Info("chat connected", "endpoint", c.cfg.Endpoint)

		err = c.readLoop(ws)
		_ = ws.Close()

		select {
		case <-ctx.Done():
			c.shutdown()
			return
		case <-c.closed:
			return
		default:
		}

		c.noteError(err)
		c.setState(StateDisconnected)
		c.logger.Warn("chat connection lost", "error", err)
	}
}

// attach installs a freshly dialed socket, re-announces joined rooms,
// and flushes frames queued while disconnected. Rejoins go first so the
// server scopes the flushed sends correctly.
func (c *Conn) attach(ws *websocket.Conn) {
	c.mu.Lock()
	c.ws = ws
	c.state = StateOpen
	c.lastErr = nil
	if c.everOpen {
		c.reconnects++
		c.metrics.Increment(metrics.CntReconnects)
	}
	c.everOpen = true

	flush := make([]Frame, 0, len(c.rooms)+len(c.pending))
	for roomID := range c.rooms {
		flush = append(flush, JoinFrame(roomID, c.cfg.UserID))
	}
	flush = append(flush, c.pending...)
	c.pending = nil
	c.mu.Unlock()

	for i, f := range flush {
		if err := c.writeTo(ws, f); err != nil {
			c.logger.Warn("flush failed", "kind", string(f.Kind), "error", err)
			// Requeue what did not make it out. Joins are skipped,
			// they are regenerated from the room set on reattach.
			c.mu.Lock()
			for _, rest := range flush[i:] {
				if rest.Kind != KindJoin {
					c.pending = append(c.pending, rest)
				}
			}
			c.mu.Unlock()
			return
		}
	}
}

// readLoop consumes inbound frames until the socket errors. Delivery
// acks are routed to their waiting sender before dispatch.
func (c *Conn) readLoop(ws *websocket.Conn) error {
	for {
		var f Frame
		if err := ws.ReadJSON(&f); err != nil {
			return err
		}
		c.metrics.Increment(metrics.CntFramesIn)
		if !f.Kind.Known() {
			c.metrics.Increment(metrics.CntDropped)
		}

		if f.Kind == KindDelivered && f.TempID != "" {
			if ch := c.takeAck(f.TempID); ch != nil {
				ch <- f
			}
		}
		if c.dispatcher != nil {
			c.dispatcher.Dispatch(f)
		}
	}
}

// writeFrame sends a frame on the open socket, or queues it until the
// next open when the connection is down. Writing before the session
// reaches open readiness is therefore defined behavior: the frame waits.
func (c *Conn) writeFrame(f Frame) error {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state != StateOpen || c.ws == nil {
		c.pending = append(c.pending, f)
		c.mu.Unlock()
		return nil
	}
	ws := c.ws
	c.mu.Unlock()

	if err := c.writeTo(ws, f); err != nil {
		// Re-queue and force a reconnect; the frame goes out on the
		// next session.
		c.mu.Lock()
		c.pending = append(c.pending, f)
		c.mu.Unlock()
		_ = ws.Close()
		return nil
	}
	return nil
}

func (c *Conn) writeTo(ws *websocket.Conn, f Frame) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if err := ws.WriteJSON(f); err != nil {
		return err
	}
	c.metrics.Increment(metrics.CntFramesOut)
	return nil
}

func (c *Conn) registerAck(tempID string) chan Frame {
	ch := make(chan Frame, 1)
	c.mu.Lock()
	c.acks[tempID] = ch
	c.mu.Unlock()
	return ch
}

func (c *Conn) takeAck(tempID string) chan Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.acks[tempID]
	if !ok {
		return nil
	}
	delete(c.acks, tempID)
	return ch
}

func (c *Conn) releaseAck(tempID string) {
	c.mu.Lock()
	delete(c.acks, tempID)
	c.mu.Unlock()
}

func (c *Conn) setState(s State) {
	c.mu.Lock()
	if c.state != StateClosed {
		c.state = s
	}
	c.mu.Unlock()
}

func (c *Conn) noteError(err error) {
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
}

func (c *Conn) shutdown() {
	c.mu.Lock()
	c.state = StateClosed
	ws := c.ws
	c.ws = nil
	c.mu.Unlock()
	if ws != nil {
		_ = ws.Close()
	}
}
