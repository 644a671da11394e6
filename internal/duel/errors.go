package duel

import "errors"

// Sentinel kinds for engine errors.
var (
	ErrInvalidUser = errors.New("invalid user id")
	ErrNotQueued   = errors.New("user is not queued")
)
