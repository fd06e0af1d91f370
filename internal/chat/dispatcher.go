package chat

import (
	"log/slog"
	"sync"

	"github.com/nwerner/talentline/internal/cache"
)

// Invalidator marks a cached resource stale. Satisfied by *cache.Cache.
type Invalidator interface {
	Invalidate(key string)
}

// Event is the room-scoped notification delivered to subscribers after
// a frame has been dispatched.
type Event struct {
	Kind      Kind
	RoomID    int64
	MessageID int64
}

// Dispatcher routes inbound frames: cache invalidation first, then a
// non-blocking broadcast to subscribers. Invalidation is scoped to the
// frame's room so activity in one room never disturbs another room's
// cache entries.
type Dispatcher struct {
	inv    Invalidator
	logger *slog.Logger

	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
}

// NewDispatcher creates a dispatcher writing invalidations to inv.
func NewDispatcher(inv Invalidator, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		inv:    inv,
		logger: logger,
		subs:   make(map[int]chan Event),
	}
}

// Dispatch handles one inbound frame. Unknown kinds are dropped.
func (d *Dispatcher) Dispatch(f Frame) {
	switch f.Kind {
	case KindNewMessage:
		d.inv.Invalidate(cache.RoomMessagesKey(f.RoomID))
		d.broadcast(Event{Kind: KindNewMessage, RoomID: f.RoomID, MessageID: f.MessageID})
	case KindDelivered:
		// Ack correlation happens in the connection's read loop; the
		// event is still broadcast so surfaces can clear pending state.
		d.broadcast(Event{Kind: KindDelivered, RoomID: f.RoomID, MessageID: f.MessageID})
	default:
		d.logger.Debug("dropping frame", "kind", string(f.Kind), "room_id", f.RoomID)
	}
}

// Subscribe registers an event listener. The returned cancel func must
// be called when the surface unmounts.
func (d *Dispatcher) Subscribe() (<-chan Event, func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := d.nextID
	d.nextID++
	ch := make(chan Event, 16)
	d.subs[id] = ch

	cancel := func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if sub, ok := d.subs[id]; ok {
			delete(d.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// broadcast fans the event out without blocking; a subscriber that has
// fallen 16 events behind misses this one and catches up on re-fetch.
func (d *Dispatcher) broadcast(ev Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, ch := range d.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
