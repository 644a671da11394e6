package notify

import (
	"context"
	"sync"
)

// Notifier delivers events to connected clients. Delivery is
// fire-and-forget: the engine neither awaits confirmation nor retries.
type Notifier interface {
	// Broadcast delivers an event to every client joined to roomID.
	Broadcast(ctx context.Context, roomID string, ev Event)

	// BroadcastGlobal delivers an event to every connected client.
	BroadcastGlobal(ctx context.Context, ev Event)
}

// Recorder is a Notifier that captures events in memory. Used by tests
// and as a no-op sink when no transport is wired.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Broadcast(ctx context.Context, roomID string, ev Event) {
	ev.RoomID = roomID
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *Recorder) BroadcastGlobal(ctx context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns every captured event in delivery order.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// ByKind returns captured events of one kind, in delivery order.
func (r *Recorder) ByKind(kind Kind) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, ev := range r.events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}
