// Package duel implements the in-memory matchmaking and room lifecycle
// engine: a wait queue of users, exact-tier pairing, live room tracking,
// scoring of terminated matches and write-back of ranking deltas.
//
// The engine is the single owner of the queue and room state for the
// lifetime of the process; a restart loses queued users and live rooms.
// All state mutations are serialized behind one mutex. External calls
// (tier lookups, persistence) run outside the lock, and their results are
// committed only after re-validating that the involved users and rooms
// are still in the expected state.
package duel

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/duel/internal/adapters/notify"
	"github.com/okian/duel/internal/adapters/repository"
	"github.com/okian/duel/internal/domain/model"
	"github.com/okian/duel/internal/domain/types"
	"github.com/okian/duel/pkg/logger"
	"github.com/okian/duel/pkg/metrics"
)

// Engine owns the queue and the room registry.
type Engine struct {
	mu     sync.Mutex
	queue  *Queue
	rooms  map[string]*model.Room
	byUser map[int64]string // user id -> room id

	store    repository.Store
	notifier notify.Notifier

	matchesCreated atomic.Int64
	matchesEnded   atomic.Int64

	now   func() time.Time
	newID func() string
	log   logger.Logger
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithLogger sets a custom logger for the engine.
func WithLogger(log logger.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithClock overrides the engine clock. Tests use this to control match
// durations.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithIDGenerator overrides room id generation.
func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) {
		if gen != nil {
			e.newID = gen
		}
	}
}

// New creates an engine bound to its persistence and notification
// collaborators.
func New(store repository.Store, notifier notify.Notifier, opts ...Option) *Engine {
	e := &Engine{
		queue:    NewQueue(),
		rooms:    make(map[string]*model.Room),
		byUser:   make(map[int64]string),
		store:    store,
		notifier: notifier,
		now:      time.Now,
		newID:    uuid.NewString,
		log:      logger.Get().Named("engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// JoinQueue adds a user to the wait queue. A user already queued or
// currently in a room is rejected; so is a non-positive id.
func (e *Engine) JoinQueue(ctx context.Context, userID int64) types.Result {
	if userID <= 0 {
		return types.Fail(ErrInvalidUser.Error())
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, inRoom := e.byUser[userID]; inRoom {
		return types.Fail("user is already in a room")
	}
	if !e.queue.Enqueue(userID) {
		return types.Fail("user is already queued")
	}
	metrics.UpdateQueueSize(e.queue.Len())
	e.log.Debug(ctx, "user joined queue", logger.Int64("user_id", userID))
	return types.OK()
}

// LeaveQueue removes a user from the wait queue.
func (e *Engine) LeaveQueue(ctx context.Context, userID int64) types.Result {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.queue.Dequeue(userID) {
		return types.Fail(ErrNotQueued.Error())
	}
	metrics.UpdateQueueSize(e.queue.Len())
	e.log.Debug(ctx, "user left queue", logger.Int64("user_id", userID))
	return types.OK()
}

// InQueue reports whether a user is currently waiting.
func (e *Engine) InQueue(userID int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queue.Contains(userID)
}

// QueueSnapshot returns the waiting users in insertion order.
func (e *Engine) QueueSnapshot() []int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queue.Snapshot()
}

// Rooms returns read-only views of every live room.
func (e *Engine) Rooms() []types.RoomView {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]types.RoomView, 0, len(e.rooms))
	for _, r := range e.rooms {
		out = append(out, roomView(r))
	}
	return out
}

// RoomByUser returns the room a user currently occupies.
func (e *Engine) RoomByUser(userID int64) (types.RoomView, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	roomID, ok := e.byUser[userID]
	if !ok {
		return types.RoomView{}, false
	}
	r, ok := e.rooms[roomID]
	if !ok {
		return types.RoomView{}, false
	}
	return roomView(r), true
}

// RoomOccupant reports whether userID occupies the given room; used by
// the websocket surface to gate room subscriptions.
func (e *Engine) RoomOccupant(roomID string, userID int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.rooms[roomID]
	return ok && r.Occupies(userID)
}

// Stats is a point-in-time snapshot of engine activity.
type Stats struct {
	QueueLen       int   `json:"queue_len"`
	OpenRooms      int   `json:"open_rooms"`
	MatchesCreated int64 `json:"matches_created"`
	MatchesEnded   int64 `json:"matches_ended"`
}

// Snapshot returns current engine counters.
func (e *Engine) Snapshot() Stats {
	e.mu.Lock()
	queueLen := e.queue.Len()
	openRooms := len(e.rooms)
	e.mu.Unlock()
	return Stats{
		QueueLen:       queueLen,
		OpenRooms:      openRooms,
		MatchesCreated: e.matchesCreated.Load(),
		MatchesEnded:   e.matchesEnded.Load(),
	}
}

// ApplyRankingDelta fetches the user's ranking row for a tier, applies
// the delta with a floor of zero, re-resolves the tier band for the
// adjusted points and writes the row back. A missing row is reported,
// not retried.
func (e *Engine) ApplyRankingDelta(ctx context.Context, userID, tierID int64, delta int) error {
	rec, err := e.store.Ranking(ctx, userID, tierID)
	if err != nil {
		return fmt.Errorf("ranking for user %d tier %d: %w", userID, tierID, err)
	}

	points := rec.Points + delta
	if points < 0 {
		points = 0
	}
	rec.Points = points

	tiers, err := e.store.Tiers(ctx)
	if err != nil {
		return fmt.Errorf("resolve tiers: %w", err)
	}
	for _, t := range tiers {
		if t.Contains(points) {
			rec.TierID = t.ID
			break
		}
	}

	if err := e.store.SaveRanking(ctx, rec); err != nil {
		return fmt.Errorf("save ranking for user %d: %w", userID, err)
	}
	return nil
}

func roomView(r *model.Room) types.RoomView {
	return types.RoomView{
		RoomID:    r.ID,
		User1:     r.User1,
		User2:     r.User2,
		TierID:    r.TierID,
		State:     r.State.String(),
		StartedAt: r.StartedAt,
	}
}
