// Package notify defines the outbound event contract between the
// matchmaking engine and connected clients, plus a websocket hub that
// delivers events grouped by room.
package notify

import "time"

// Kind enumerates the outbound event variants.
type Kind string

const (
	KindMatchFound  Kind = "match_found"
	KindUserLeft    Kind = "user_left"
	KindUserAlone   Kind = "user_alone"
	KindMatchEnded  Kind = "match_ended"
	KindChatMessage Kind = "chat_message"
)

// Event is a single outbound notification. Each Kind carries a fixed
// payload shape; exactly one payload field is set.
type Event struct {
	Kind       Kind               `json:"kind"`
	RoomID     string             `json:"room_id,omitempty"`
	MatchFound *MatchFoundPayload `json:"match_found,omitempty"`
	UserLeft   *UserPayload       `json:"user_left,omitempty"`
	UserAlone  *UserPayload       `json:"user_alone,omitempty"`
	MatchEnded *MatchEndedPayload `json:"match_ended,omitempty"`
	Chat       *ChatPayload       `json:"chat,omitempty"`
}

// MatchFoundPayload announces a freshly created room to both players.
type MatchFoundPayload struct {
	User1     int64     `json:"user1"`
	User2     int64     `json:"user2"`
	PuzzleID  int64     `json:"puzzle_id"`
	Puzzle    string    `json:"puzzle"`
	StartedAt time.Time `json:"started_at"`
}

// UserPayload identifies the subject of a user-scoped room event.
type UserPayload struct {
	UserID int64 `json:"user_id"`
}

// MatchEndedPayload carries the structured outcome of a terminated room.
type MatchEndedPayload struct {
	WinnerID        int64  `json:"winner_id"`
	LoserID         int64  `json:"loser_id"`
	Status          string `json:"status"`
	Score           string `json:"score"`
	DurationSeconds int    `json:"duration_seconds"`
	WinnerPoints    int    `json:"winner_points"`
	LoserPoints     int    `json:"loser_points"`
}

// ChatPayload is a chat line relayed to a room. System messages (match
// summaries) carry UserID 0.
type ChatPayload struct {
	UserID int64  `json:"user_id,omitempty"`
	From   string `json:"from,omitempty"`
	Text   string `json:"text"`
}

// MatchFound builds a match-found event for a room.
func MatchFound(roomID string, user1, user2, puzzleID int64, puzzle string, startedAt time.Time) Event {
	return Event{
		Kind:   KindMatchFound,
		RoomID: roomID,
		MatchFound: &MatchFoundPayload{
			User1:     user1,
			User2:     user2,
			PuzzleID:  puzzleID,
			Puzzle:    puzzle,
			StartedAt: startedAt,
		},
	}
}

// UserLeftEvent builds a user-left event for a room.
func UserLeftEvent(roomID string, userID int64) Event {
	return Event{Kind: KindUserLeft, RoomID: roomID, UserLeft: &UserPayload{UserID: userID}}
}

// UserAloneEvent tells the remaining occupant their opponent is gone.
func UserAloneEvent(roomID string, userID int64) Event {
	return Event{Kind: KindUserAlone, RoomID: roomID, UserAlone: &UserPayload{UserID: userID}}
}

// MatchEnded builds the structured end-of-match event.
func MatchEnded(roomID string, p MatchEndedPayload) Event {
	return Event{Kind: KindMatchEnded, RoomID: roomID, MatchEnded: &p}
}

// SystemChat builds a system chat line summarizing an outcome.
func SystemChat(roomID, text string) Event {
	return Event{Kind: KindChatMessage, RoomID: roomID, Chat: &ChatPayload{From: "system", Text: text}}
}

// UserChat builds a chat line authored by a room occupant.
func UserChat(roomID string, userID int64, from, text string) Event {
	return Event{Kind: KindChatMessage, RoomID: roomID, Chat: &ChatPayload{UserID: userID, From: from, Text: text}}
}
