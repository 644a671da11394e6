package repository

import (
	"context"
	"math/rand"
	"sync"

	"github.com/okian/duel/internal/domain/model"
)

// Default tier bands used when none are configured. Mirrors a typical
// three-bracket ladder.
var defaultTiers = []model.Tier{
	{ID: 1, Name: "Bronze", MinPoints: 0, MaxPoints: 99},
	{ID: 2, Name: "Silver", MinPoints: 100, MaxPoints: 299},
	{ID: 3, Name: "Gold", MinPoints: 300, MaxPoints: 1_000_000},
}

const defaultRandomSeed = 42

// MemStore implements Store entirely in memory. It backs unit tests and
// database-less development runs.
type MemStore struct {
	mu       sync.RWMutex
	tiers    []model.Tier
	rankings map[int64]model.RankingRecord // keyed by user id; one row per user
	names    map[int64]string
	puzzles  map[int64][]model.Puzzle // keyed by tier id
	results  []model.MatchResult
	rng      *rand.Rand
}

// MemOption applies a configuration option to the MemStore.
type MemOption func(*MemStore)

// WithTiers replaces the default tier bands.
func WithTiers(tiers []model.Tier) MemOption {
	return func(s *MemStore) {
		if len(tiers) > 0 {
			s.tiers = tiers
		}
	}
}

// WithSeed sets the puzzle-draw random seed, keeping draws reproducible
// in tests.
func WithSeed(seed int64) MemOption {
	return func(s *MemStore) {
		s.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic draws
	}
}

// NewMemStore creates an in-memory store with configuration options.
func NewMemStore(opts ...MemOption) *MemStore {
	s := &MemStore{
		tiers:    defaultTiers,
		rankings: make(map[int64]model.RankingRecord),
		names:    make(map[int64]string),
		puzzles:  make(map[int64][]model.Puzzle),
		rng:      rand.New(rand.NewSource(defaultRandomSeed)), //nolint:gosec // deterministic draws
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SeedUser registers a user with a display name and a ranking row.
func (s *MemStore) SeedUser(userID int64, name string, tierID int64, points int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names[userID] = name
	s.rankings[userID] = model.RankingRecord{UserID: userID, TierID: tierID, Points: points}
}

// SeedPuzzle adds a puzzle to a tier's pool.
func (s *MemStore) SeedPuzzle(p model.Puzzle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puzzles[p.TierID] = append(s.puzzles[p.TierID], p)
}

func (s *MemStore) UserTier(ctx context.Context, userID int64) (model.Tier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.rankings[userID]
	if !ok {
		return model.Tier{}, ErrNoRanking
	}
	for _, t := range s.tiers {
		if t.ID == rec.TierID {
			return t, nil
		}
	}
	return model.Tier{}, ErrNoRanking
}

func (s *MemStore) Ranking(ctx context.Context, userID, tierID int64) (model.RankingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.rankings[userID]
	if !ok || rec.TierID != tierID {
		return model.RankingRecord{}, ErrNoRanking
	}
	return rec, nil
}

func (s *MemStore) SaveRanking(ctx context.Context, rec model.RankingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rankings[rec.UserID]; !ok {
		return ErrNoRanking
	}
	s.rankings[rec.UserID] = rec
	return nil
}

func (s *MemStore) Tiers(ctx context.Context) ([]model.Tier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Tier, len(s.tiers))
	copy(out, s.tiers)
	return out, nil
}

func (s *MemStore) RandomPuzzle(ctx context.Context, tierID int64) (model.Puzzle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pool := s.puzzles[tierID]
	if len(pool) == 0 {
		return model.Puzzle{}, ErrNoPuzzle
	}
	return pool[s.rng.Intn(len(pool))], nil
}

func (s *MemStore) DisplayName(ctx context.Context, userID int64) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name, ok := s.names[userID]
	if !ok {
		return "", ErrNoUser
	}
	return name, nil
}

func (s *MemStore) SaveResult(ctx context.Context, res model.MatchResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, res)
	return nil
}

// Results returns the match results persisted so far, oldest first.
func (s *MemStore) Results() []model.MatchResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.MatchResult, len(s.results))
	copy(out, s.results)
	return out
}
