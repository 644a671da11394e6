package duel

import (
	"context"
	"fmt"

	"github.com/okian/duel/internal/adapters/notify"
	"github.com/okian/duel/internal/domain/model"
	"github.com/okian/duel/pkg/logger"
	"github.com/okian/duel/pkg/metrics"
)

// MatchOutcome describes a pairing committed by TryMatch.
type MatchOutcome struct {
	RoomID string
	User1  int64
	User2  int64
	TierID int64
	Puzzle model.Puzzle
}

// TryMatch attempts to pair userID with another queued user of the exact
// same ranking tier. The scan is FIFO: the first equal-tier candidate in
// queue order wins, with no tier widening and no secondary ordering.
//
// Tier and puzzle lookups run outside the engine lock and may suspend;
// the pairing is committed only after re-validating that both users are
// still queued and room-free. A stale lookup result is discarded and nil
// is returned, leaving the queue for the next scan. A nil outcome with a
// nil error means no match this round.
func (e *Engine) TryMatch(ctx context.Context, userID int64) (*MatchOutcome, error) {
	e.mu.Lock()
	if !e.queue.Contains(userID) {
		e.mu.Unlock()
		return nil, nil
	}
	e.mu.Unlock()

	tier, err := e.store.UserTier(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve tier for user %d: %w", userID, err)
	}

	// The queue may have changed while the lookup was in flight.
	e.mu.Lock()
	if !e.queue.Contains(userID) {
		e.mu.Unlock()
		return nil, nil
	}
	candidates := make([]int64, 0, e.queue.Len())
	for _, id := range e.queue.Snapshot() {
		if id == userID {
			continue
		}
		if _, inRoom := e.byUser[id]; inRoom {
			continue
		}
		candidates = append(candidates, id)
	}
	e.mu.Unlock()

	var opponent int64
	for _, id := range candidates {
		candTier, err := e.store.UserTier(ctx, id)
		if err != nil {
			e.log.Warn(ctx, "skipping candidate with unresolved tier",
				logger.Int64("user_id", id), logger.Error(err))
			continue
		}
		if candTier.ID == tier.ID {
			opponent = id
			break
		}
	}
	if opponent == 0 {
		return nil, nil
	}

	puzzle, err := e.store.RandomPuzzle(ctx, tier.ID)
	if err != nil {
		return nil, fmt.Errorf("draw puzzle for tier %d: %w", tier.ID, err)
	}

	// Commit: both users must still be queued and room-free, otherwise
	// the lookups above are stale and the pairing is abandoned.
	e.mu.Lock()
	_, inRoom1 := e.byUser[userID]
	_, inRoom2 := e.byUser[opponent]
	if inRoom1 || inRoom2 || !e.queue.Contains(userID) || !e.queue.Contains(opponent) {
		e.mu.Unlock()
		return nil, nil
	}
	e.queue.Dequeue(userID)
	e.queue.Dequeue(opponent)

	room := &model.Room{
		ID:        e.newID(),
		User1:     userID,
		User2:     opponent,
		TierID:    tier.ID,
		Puzzle:    puzzle,
		StartedAt: e.now(),
		State:     model.RoomOpen,
	}
	e.rooms[room.ID] = room
	e.byUser[userID] = room.ID
	e.byUser[opponent] = room.ID
	queueLen := e.queue.Len()
	openRooms := len(e.rooms)
	e.mu.Unlock()

	e.matchesCreated.Add(1)
	metrics.UpdateQueueSize(queueLen)
	metrics.UpdateOpenRooms(openRooms)
	metrics.RecordMatchCreated(tier.Name)

	e.notifier.Broadcast(ctx, room.ID,
		notify.MatchFound(room.ID, room.User1, room.User2, puzzle.ID, puzzle.Body, room.StartedAt))
	e.log.Info(ctx, "match created",
		logger.String("room_id", room.ID),
		logger.Int64("user1", room.User1),
		logger.Int64("user2", room.User2),
		logger.Int64("tier_id", tier.ID),
	)

	return &MatchOutcome{
		RoomID: room.ID,
		User1:  room.User1,
		User2:  room.User2,
		TierID: tier.ID,
		Puzzle: puzzle,
	}, nil
}
