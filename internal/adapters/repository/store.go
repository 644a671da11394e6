// Package repository defines the persistence contracts the matchmaking
// engine depends on: ranking rows, tier bands, puzzle pools and match
// results. Two implementations exist: an in-memory store for tests and
// database-less runs, and a Postgres store backed by pgx.
package repository

import (
	"context"

	"github.com/okian/duel/internal/domain/model"
)

// RankingStore provides read/write access to user rankings and the
// content the matchmaker draws from.
type RankingStore interface {
	// UserTier resolves the ranking tier a user currently sits in.
	// Returns ErrNoRanking when the user has no ranking row.
	UserTier(ctx context.Context, userID int64) (model.Tier, error)

	// Ranking returns the user's ranking row for a tier.
	// Returns ErrNoRanking when absent.
	Ranking(ctx context.Context, userID, tierID int64) (model.RankingRecord, error)

	// SaveRanking writes back an updated ranking row (points and,
	// possibly, a new tier assignment).
	SaveRanking(ctx context.Context, rec model.RankingRecord) error

	// Tiers lists all tier bands ordered by MinPoints ascending.
	Tiers(ctx context.Context) ([]model.Tier, error)

	// RandomPuzzle draws a puzzle from the tier's pool.
	// Returns ErrNoPuzzle when the pool is empty.
	RandomPuzzle(ctx context.Context, tierID int64) (model.Puzzle, error)

	// DisplayName resolves a user's display name for outcome messages.
	// Returns ErrNoUser when the user is unknown.
	DisplayName(ctx context.Context, userID int64) (string, error)
}

// ResultStore persists immutable match results.
type ResultStore interface {
	SaveResult(ctx context.Context, res model.MatchResult) error
}

// Store bundles everything the engine needs from persistence.
type Store interface {
	RankingStore
	ResultStore
}
