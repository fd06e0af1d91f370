package chat

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nwerner/talentline/internal/cache"
	"github.com/nwerner/talentline/internal/metrics"
)

// wsServer is an in-process chat endpoint for tests. It records every
// inbound frame, optionally acknowledges sends, and can push frames to
// the most recent connection.
type wsServer struct {
	t       *testing.T
	srv     *httptest.Server
	autoAck bool
	// dropAfter closes each connection after that many frames (0 = never).
	dropAfter int

	mu        sync.Mutex
	conns     int
	current   *websocket.Conn
	nextMsgID int64

	frames chan Frame
}

func newWSServer(t *testing.T, autoAck bool, dropAfter int) *wsServer {
	t.Helper()

	s := &wsServer{
		t:         t,
		autoAck:   autoAck,
		dropAfter: dropAfter,
		nextMsgID: 100,
		frames:    make(chan Frame, 64),
	}

	upgrader := websocket.Upgrader{}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns++
		s.current = ws
		s.mu.Unlock()

		seen := 0
		for {
			var f Frame
			if err := ws.ReadJSON(&f); err != nil {
				return
			}
			s.frames <- f
			seen++

			if s.autoAck && f.Kind == KindSend {
				s.mu.Lock()
				s.nextMsgID++
				id := s.nextMsgID
				s.mu.Unlock()
				_ = ws.WriteJSON(Frame{
					Kind:      KindDelivered,
					RoomID:    f.RoomID,
					TempID:    f.TempID,
					MessageID: id,
				})
			}

			if s.dropAfter > 0 && seen >= s.dropAfter {
				_ = ws.Close()
				return
			}
		}
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *wsServer) url() string {
	return "ws" + strings.TrimPrefix(s.srv.URL, "http")
}

func (s *wsServer) connCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conns
}

// push writes a frame to the most recent connection.
func (s *wsServer) push(f Frame) {
	s.mu.Lock()
	ws := s.current
	s.mu.Unlock()
	if ws == nil {
		s.t.Fatal("push: no active connection")
	}
	if err := ws.WriteJSON(f); err != nil {
		s.t.Fatalf("push: %v", err)
	}
}

func (s *wsServer) waitFrame(t *testing.T) Frame {
	t.Helper()
	select {
	case f := <-s.frames:
		return f
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for frame")
		return Frame{}
	}
}

func (s *wsServer) expectNoFrame(t *testing.T, wait time.Duration) {
	t.Helper()
	select {
	case f := <-s.frames:
		t.Fatalf("unexpected frame: %+v", f)
	case <-time.After(wait):
	}
}

func testConn(t *testing.T, s *wsServer, d *Dispatcher) *Conn {
	t.Helper()
	c := New(Config{
		Endpoint:         s.url(),
		UserID:           "u1",
		AckTimeout:       2 * time.Second,
		ReconnectMinWait: 10 * time.Millisecond,
		ReconnectMaxWait: 50 * time.Millisecond,
		Logger:           slog.New(slog.DiscardHandler),
		Dispatcher:       d,
	})
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func waitConnected(t *testing.T, c *Conn) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if c.Status().Connected() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("connection never reached open state")
}

func TestJoinAndSend(t *testing.T) {
	s := newWSServer(t, true, 0)
	c := testConn(t, s, nil)
	c.Start(t.Context())
	waitConnected(t, c)

	if err := c.Join(42); err != nil {
		t.Fatalf("Join() error = %v", err)
	}

	msgID, err := c.Send(t.Context(), 42, "hello")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if msgID == 0 {
		t.Error("Send() returned zero message id")
	}

	// Exactly one join frame and one send frame, both scoped to room 42.
	join := s.waitFrame(t)
	if join.Kind != KindJoin || join.RoomID != 42 || join.UserID != "u1" {
		t.Errorf("join frame = %+v", join)
	}
	send := s.waitFrame(t)
	if send.Kind != KindSend || send.RoomID != 42 || send.Body != "hello" || send.SenderID != "u1" {
		t.Errorf("send frame = %+v", send)
	}
	if send.TempID == "" {
		t.Error("send frame missing temp id")
	}
	s.expectNoFrame(t, 100*time.Millisecond)
}

func TestSendRejectsBlankBody(t *testing.T) {
	s := newWSServer(t, true, 0)
	c := testConn(t, s, nil)
	c.Start(t.Context())
	waitConnected(t, c)

	for _, body := range []string{"", "   ", "\t\n  "} {
		if _, err := c.Send(t.Context(), 42, body); !errors.Is(err, ErrEmptyBody) {
			t.Errorf("Send(%q) error = %v, want ErrEmptyBody", body, err)
		}
	}

	// Nothing reached the wire.
	s.expectNoFrame(t, 150*time.Millisecond)
	if n := c.metrics.Counter(metrics.CntFramesOut); n != 0 {
		t.Errorf("frames out = %d, want 0", n)
	}
}

func TestSendTimesOutWithoutAck(t *testing.T) {
	s := newWSServer(t, false, 0)
	c := New(Config{
		Endpoint:         s.url(),
		UserID:           "u1",
		AckTimeout:       50 * time.Millisecond,
		ReconnectMinWait: 10 * time.Millisecond,
		Logger:           slog.New(slog.DiscardHandler),
	})
	t.Cleanup(func() { _ = c.Close() })
	c.Start(t.Context())
	waitConnected(t, c)

	if _, err := c.Send(t.Context(), 1, "hi"); !errors.Is(err, ErrSendTimeout) {
		t.Errorf("Send() error = %v, want ErrSendTimeout", err)
	}
}

func TestJoinBeforeOpenIsQueued(t *testing.T) {
	s := newWSServer(t, true, 0)
	c := testConn(t, s, nil)

	// Join before Start: the frame must wait for readiness, not be
	// dropped or written to a dead socket.
	if err := c.Join(7); err != nil {
		t.Fatalf("Join() error = %v", err)
	}

	c.Start(t.Context())

	f := s.waitFrame(t)
	if f.Kind != KindJoin || f.RoomID != 7 {
		t.Errorf("flushed frame = %+v, want join for room 7", f)
	}
}

func TestReconnectRejoinsRooms(t *testing.T) {
	// Server drops every connection after one frame; the supervisor
	// must redial and re-announce membership each time.
	s := newWSServer(t, false, 1)
	c := testConn(t, s, nil)
	c.Start(t.Context())
	waitConnected(t, c)

	if err := c.Join(7); err != nil {
		t.Fatalf("Join() error = %v", err)
	}

	first := s.waitFrame(t)
	if first.Kind != KindJoin || first.RoomID != 7 {
		t.Fatalf("first frame = %+v", first)
	}

	// The drop triggers a reconnect, which rejoins room 7.
	second := s.waitFrame(t)
	if second.Kind != KindJoin || second.RoomID != 7 {
		t.Errorf("rejoin frame = %+v", second)
	}
	if s.connCount() < 2 {
		t.Errorf("connection count = %d, want >= 2", s.connCount())
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) && c.Status().Reconnects == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	if c.Status().Reconnects == 0 {
		t.Error("status never recorded a reconnect")
	}
}

func TestInboundNewMessageInvalidatesRoomCache(t *testing.T) {
	qc, err := cache.New(16)
	if err != nil {
		t.Fatal(err)
	}
	d := NewDispatcher(qc, slog.New(slog.DiscardHandler))

	s := newWSServer(t, true, 0)
	c := testConn(t, s, d)
	c.Start(t.Context())
	waitConnected(t, c)

	keyA := cache.RoomMessagesKey(7)
	keyB := cache.RoomMessagesKey(8)
	qc.Store(keyA, qc.Version(keyA), "a")
	qc.Store(keyB, qc.Version(keyB), "b")

	events, cancel := d.Subscribe()
	defer cancel()

	s.push(Frame{Kind: KindNewMessage, RoomID: 7})

	select {
	case ev := <-events:
		if ev.Kind != KindNewMessage || ev.RoomID != 7 {
			t.Errorf("event = %+v", ev)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no event from inbound frame")
	}

	if _, fresh, _ := qc.Get(keyA); fresh {
		t.Error("room 7 cache still fresh after new_message")
	}
	if _, fresh, _ := qc.Get(keyB); !fresh {
		t.Error("room 8 cache invalidated by room 7 traffic")
	}
}

func TestSendClosedConnection(t *testing.T) {
	s := newWSServer(t, true, 0)
	c := testConn(t, s, nil)
	c.Start(t.Context())
	waitConnected(t, c)
	_ = c.Close()

	if _, err := c.Send(context.Background(), 1, "hello"); !errors.Is(err, ErrClosed) {
		t.Errorf("Send() after Close error = %v, want ErrClosed", err)
	}
	if err := c.Join(1); !errors.Is(err, ErrClosed) {
		t.Errorf("Join() after Close error = %v, want ErrClosed", err)
	}
}
