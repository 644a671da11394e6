package duel

import (
	"context"
	"fmt"
	"strconv"

	"github.com/okian/duel/internal/adapters/notify"
	"github.com/okian/duel/internal/domain/model"
	"github.com/okian/duel/internal/domain/scoring"
	"github.com/okian/duel/internal/domain/types"
	"github.com/okian/duel/pkg/logger"
	"github.com/okian/duel/pkg/metrics"
)

// Forfeits and timeouts have no meaningful board score.
const neutralScore = "0-0"

// LeaveRoom clears the caller's slot in the room they occupy. When an
// opponent remains, the match is scored as a forfeit in the opponent's
// favor; when the caller was the last occupant the room is simply closed
// and evicted without scoring.
func (e *Engine) LeaveRoom(ctx context.Context, userID int64) types.Result {
	e.mu.Lock()
	roomID, ok := e.byUser[userID]
	if !ok {
		e.mu.Unlock()
		return types.Fail("user is not in a room")
	}
	room := e.rooms[roomID]
	switch userID {
	case room.User1:
		room.User1 = 0
	case room.User2:
		room.User2 = 0
	}
	delete(e.byUser, userID)

	remaining := int64(0)
	if !room.Empty() {
		// Transient: the room closes and is evicted in this same call, so
		// the half-open state is never observable through queries.
		room.State = model.RoomHalfOpen
		if room.User1 != 0 {
			remaining = room.User1
		} else {
			remaining = room.User2
		}
	}

	if remaining == 0 {
		room.State = model.RoomClosed
		delete(e.rooms, roomID)
		openRooms := len(e.rooms)
		e.mu.Unlock()
		metrics.UpdateOpenRooms(openRooms)
		e.notifier.Broadcast(ctx, roomID, notify.UserLeftEvent(roomID, userID))
		e.log.Info(ctx, "room emptied", logger.String("room_id", roomID))
		return types.OK()
	}

	// Evict before the external scoring calls so a concurrent leave or
	// end cannot terminate the same room twice.
	room.State = model.RoomClosed
	delete(e.rooms, roomID)
	delete(e.byUser, remaining)
	openRooms := len(e.rooms)
	duration := int(e.now().Sub(room.StartedAt).Seconds())
	e.mu.Unlock()
	metrics.UpdateOpenRooms(openRooms)

	e.notifier.Broadcast(ctx, roomID, notify.UserLeftEvent(roomID, userID))
	e.notifier.Broadcast(ctx, roomID, notify.UserAloneEvent(roomID, remaining))
	e.finish(ctx, room, remaining, userID, model.StatusForfeit, neutralScore, duration)
	return types.OK()
}

// EndRoomByTimer terminates a room whose play time has expired.
//
// Scoring is positional: the first slot is treated as the loser and the
// second as the winner, regardless of progress.
// TODO: decide whether a timeout should be scored as a draw instead of
// awarding the win to the second slot.
func (e *Engine) EndRoomByTimer(ctx context.Context, roomID string) types.Result {
	e.mu.Lock()
	room, ok := e.rooms[roomID]
	if !ok {
		e.mu.Unlock()
		return types.Fail("room not found")
	}
	winner, loser := room.User2, room.User1
	e.evictLocked(room)
	openRooms := len(e.rooms)
	duration := int(e.now().Sub(room.StartedAt).Seconds())
	e.mu.Unlock()
	metrics.UpdateOpenRooms(openRooms)

	e.finish(ctx, room, winner, loser, model.StatusTimeout, neutralScore, duration)
	return types.OK()
}

// EndRoomByWinner terminates a room with a declared winner. The winner
// must occupy one of the room's slots; the other occupant, if any, is
// the loser. The final score is the caller-reported "A-B" string.
func (e *Engine) EndRoomByWinner(ctx context.Context, roomID string, winnerID int64, score string) types.Result {
	e.mu.Lock()
	room, ok := e.rooms[roomID]
	if !ok {
		e.mu.Unlock()
		return types.Fail("room not found")
	}
	if !room.Occupies(winnerID) {
		e.mu.Unlock()
		return types.Fail("winner is not in the room")
	}
	loser := room.Opponent(winnerID)
	e.evictLocked(room)
	openRooms := len(e.rooms)
	duration := int(e.now().Sub(room.StartedAt).Seconds())
	e.mu.Unlock()
	metrics.UpdateOpenRooms(openRooms)

	if score == "" {
		score = neutralScore
	}
	e.finish(ctx, room, winnerID, loser, model.StatusCompleted, score, duration)
	return types.OK()
}

// evictLocked removes a room and its occupant index entries. Callers
// hold the engine lock.
func (e *Engine) evictLocked(room *model.Room) {
	room.State = model.RoomClosed
	if room.User1 != 0 {
		delete(e.byUser, room.User1)
	}
	if room.User2 != 0 {
		delete(e.byUser, room.User2)
	}
	delete(e.rooms, room.ID)
}

// finish runs the terminal side effects for an evicted room: score the
// match, write ranking deltas, persist the result, then tell the room
// what happened. External failures are logged and do not stop the
// remaining steps; notification delivery is fire-and-forget.
func (e *Engine) finish(ctx context.Context, room *model.Room, winnerID, loserID int64, status model.MatchStatus, score string, durationSeconds int) {
	pts := scoring.Calculate(durationSeconds, score)

	if winnerID != 0 {
		if err := e.ApplyRankingDelta(ctx, winnerID, room.TierID, pts.Winner); err != nil {
			metrics.RecordRankingError()
			e.log.Error(ctx, "apply winner ranking delta", logger.Error(err))
		}
	}
	if loserID != 0 {
		if err := e.ApplyRankingDelta(ctx, loserID, room.TierID, pts.Loser); err != nil {
			metrics.RecordRankingError()
			e.log.Error(ctx, "apply loser ranking delta", logger.Error(err))
		}
	}

	res := model.MatchResult{
		RoomID:          room.ID,
		WinnerID:        winnerID,
		LoserID:         loserID,
		DurationSeconds: durationSeconds,
		StartedAt:       room.StartedAt,
		Status:          status,
		Score:           score,
		WinnerPoints:    pts.Winner,
		LoserPoints:     pts.Loser,
	}
	if err := e.store.SaveResult(ctx, res); err != nil {
		metrics.RecordResultPersistError()
		e.log.Error(ctx, "persist match result", logger.Error(err))
	}

	e.notifier.Broadcast(ctx, room.ID, notify.SystemChat(room.ID, e.summary(ctx, res)))
	e.notifier.Broadcast(ctx, room.ID, notify.MatchEnded(room.ID, notify.MatchEndedPayload{
		WinnerID:        winnerID,
		LoserID:         loserID,
		Status:          string(status),
		Score:           score,
		DurationSeconds: durationSeconds,
		WinnerPoints:    pts.Winner,
		LoserPoints:     pts.Loser,
	}))

	e.matchesEnded.Add(1)
	metrics.RecordMatchEnded(string(status), durationSeconds)
	e.log.Info(ctx, "match ended",
		logger.String("room_id", room.ID),
		logger.String("status", string(status)),
		logger.Int64("winner_id", winnerID),
		logger.Int64("loser_id", loserID),
		logger.Int("duration_s", durationSeconds),
	)
}

// summary renders the system chat line for a terminated match. Display
// name lookups are best effort; numeric ids stand in when they fail.
func (e *Engine) summary(ctx context.Context, res model.MatchResult) string {
	winner := e.displayName(ctx, res.WinnerID)
	switch res.Status {
	case model.StatusForfeit:
		return fmt.Sprintf("%s wins by forfeit (%+d points)", winner, res.WinnerPoints)
	case model.StatusTimeout:
		return fmt.Sprintf("time is up: %s wins (%+d points)", winner, res.WinnerPoints)
	default:
		return fmt.Sprintf("%s wins %s (%+d points)", winner, res.Score, res.WinnerPoints)
	}
}

func (e *Engine) displayName(ctx context.Context, userID int64) string {
	if userID == 0 {
		return "nobody"
	}
	name, err := e.store.DisplayName(ctx, userID)
	if err != nil || name == "" {
		return "user " + strconv.FormatInt(userID, 10)
	}
	return name
}
