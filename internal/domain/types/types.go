// Package types contains common types shared between the engine and the
// transport layers.
package types

import "time"

// Result is the uniform outcome of every engine operation. Failures are
// reported here, never as panics: Success is false and Message carries a
// human-readable reason.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// OK returns a successful result.
func OK() Result {
	return Result{Success: true}
}

// Fail returns a failed result with a reason.
func Fail(message string) Result {
	return Result{Success: false, Message: message}
}

// RoomView is the read-only projection of a live room returned by queries.
type RoomView struct {
	RoomID    string    `json:"room_id"`
	User1     int64     `json:"user1,omitempty"`
	User2     int64     `json:"user2,omitempty"`
	TierID    int64     `json:"tier_id"`
	State     string    `json:"state"`
	StartedAt time.Time `json:"started_at"`
}

// QueueView is the read-only projection of the wait queue, insertion order
// preserved.
type QueueView struct {
	Users []int64 `json:"users"`
}
