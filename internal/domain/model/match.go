// Package model contains domain models passed between layers.
package model

import "time"

// RoomState tracks where a room is in its lifecycle.
type RoomState int

const (
	// RoomOpen means both slots are filled and the duel is live.
	RoomOpen RoomState = iota
	// RoomHalfOpen means one participant has left and the slot is empty.
	RoomHalfOpen
	// RoomClosed means the room has been terminated and evicted.
	RoomClosed
)

func (s RoomState) String() string {
	switch s {
	case RoomOpen:
		return "open"
	case RoomHalfOpen:
		return "half_open"
	case RoomClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Room is an ephemeral 1v1 puzzle session. Slots are user ids; a cleared
// slot holds zero. A room always has at least one occupied slot while it
// is registered.
type Room struct {
	ID        string    // opaque unique token
	User1     int64     // first slot, 0 when cleared
	User2     int64     // second slot, 0 when cleared
	TierID    int64     // ranking tier both participants matched on
	Puzzle    Puzzle    // puzzle served to both participants
	StartedAt time.Time // instant the match was created
	State     RoomState
}

// Occupies reports whether userID fills one of the room's slots.
func (r *Room) Occupies(userID int64) bool {
	return userID > 0 && (r.User1 == userID || r.User2 == userID)
}

// Opponent returns the other occupant, or 0 when the slot is empty.
func (r *Room) Opponent(userID int64) int64 {
	switch userID {
	case r.User1:
		return r.User2
	case r.User2:
		return r.User1
	default:
		return 0
	}
}

// Empty reports whether both slots have been cleared.
func (r *Room) Empty() bool {
	return r.User1 == 0 && r.User2 == 0
}

// MatchStatus describes how a match ended.
type MatchStatus string

const (
	StatusCompleted MatchStatus = "completed"
	StatusTimeout   MatchStatus = "timeout"
	StatusForfeit   MatchStatus = "forfeit"
)

// MatchResult is the immutable record of a terminated room. Created once
// per termination and persisted externally.
type MatchResult struct {
	RoomID          string
	WinnerID        int64
	LoserID         int64
	DurationSeconds int
	StartedAt       time.Time
	Status          MatchStatus
	Score           string // "A-B" formatted final score
	WinnerPoints    int
	LoserPoints     int
}

// Puzzle is the opaque content payload served to a room. The matchmaking
// core never interprets it.
type Puzzle struct {
	ID     int64
	TierID int64
	Body   string
}

// Tier is a ranking bracket bounding a point range. Matchmaking pairs only
// users of the same tier and draws puzzles from the tier's pool.
type Tier struct {
	ID        int64
	Name      string
	MinPoints int
	MaxPoints int
}

// Contains reports whether points falls inside the tier's band.
func (t Tier) Contains(points int) bool {
	return points >= t.MinPoints && points <= t.MaxPoints
}

// RankingRecord is the externally owned per-user ranking row. The core
// reads tier and points and writes updated values back through the store.
type RankingRecord struct {
	UserID int64
	TierID int64
	Points int
}
