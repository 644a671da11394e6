package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNoRanking = errors.New("no ranking row for user")
	ErrNoPuzzle  = errors.New("no puzzle for tier")
	ErrNoUser    = errors.New("user not found")
)
