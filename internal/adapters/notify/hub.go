package notify

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/okian/duel/pkg/logger"
	"github.com/okian/duel/pkg/metrics"
)

// Hub implements Notifier over websocket connections grouped by room id.
// A client joins exactly one room group; events broadcast to a room fan
// out to its clients only. Slow clients are dropped rather than blocking
// the fanout.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client

	log logger.Logger
}

// HubOption applies a configuration option to the Hub.
type HubOption func(*Hub)

// WithHubLogger sets a custom logger for the hub.
func WithHubLogger(log logger.Logger) HubOption {
	return func(h *Hub) {
		if log != nil {
			h.log = log
		}
	}
}

// NewHub creates a hub with configuration options.
func NewHub(opts ...HubOption) *Hub {
	h := &Hub{
		rooms:      make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        logger.Get().Named("hub"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run processes client registration until ctx is canceled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.add(ctx, c)
		case c := <-h.unregister:
			h.remove(ctx, c)
		}
	}
}

// Join registers a client with its room group.
func (h *Hub) Join(c *Client) {
	h.register <- c
}

// Leave removes a client; its send channel is closed.
func (h *Hub) Leave(c *Client) {
	h.unregister <- c
}

func (h *Hub) add(ctx context.Context, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group, ok := h.rooms[c.roomID]
	if !ok {
		group = make(map[*Client]struct{})
		h.rooms[c.roomID] = group
	}
	group[c] = struct{}{}
	metrics.UpdateConnectedClients(h.clientCountLocked())
	h.log.Debug(ctx, "client joined room",
		logger.String("room_id", c.roomID),
		logger.Int64("user_id", c.userID),
	)
}

func (h *Hub) remove(ctx context.Context, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group, ok := h.rooms[c.roomID]
	if !ok {
		return
	}
	if _, joined := group[c]; !joined {
		return
	}
	delete(group, c)
	close(c.send)
	if len(group) == 0 {
		delete(h.rooms, c.roomID)
	}
	metrics.UpdateConnectedClients(h.clientCountLocked())
	h.log.Debug(ctx, "client left room",
		logger.String("room_id", c.roomID),
		logger.Int64("user_id", c.userID),
	)
}

func (h *Hub) clientCountLocked() int {
	n := 0
	for _, group := range h.rooms {
		n += len(group)
	}
	return n
}

// Broadcast delivers an event to every client joined to roomID.
// Fire-and-forget: a full client buffer drops the frame for that client.
func (h *Hub) Broadcast(ctx context.Context, roomID string, ev Event) {
	ev.RoomID = roomID
	payload, err := json.Marshal(ev)
	if err != nil {
		h.log.Error(ctx, "marshal event", logger.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[roomID] {
		select {
		case c.send <- payload:
			metrics.RecordEventDelivered(string(ev.Kind))
		default:
			metrics.RecordEventDropped(string(ev.Kind))
		}
	}
}

// BroadcastGlobal delivers an event to every connected client.
func (h *Hub) BroadcastGlobal(ctx context.Context, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.log.Error(ctx, "marshal event", logger.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, group := range h.rooms {
		for c := range group {
			select {
			case c.send <- payload:
				metrics.RecordEventDelivered(string(ev.Kind))
			default:
				metrics.RecordEventDropped(string(ev.Kind))
			}
		}
	}
}
