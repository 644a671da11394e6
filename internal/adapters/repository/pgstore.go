package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/okian/duel/internal/domain/model"
)

// Default connection pool settings.
const (
	defaultMaxConns    = 10
	defaultPingTimeout = 2 * time.Second
)

// PGStore implements Store on top of a Postgres database via pgx.
type PGStore struct {
	pool *pgxpool.Pool
}

// PGOption applies a configuration option to the pool before connecting.
type PGOption func(*pgxpool.Config)

// WithMaxConns caps the connection pool size.
func WithMaxConns(n int32) PGOption {
	return func(cfg *pgxpool.Config) {
		if n > 0 {
			cfg.MaxConns = n
		}
	}
}

// NewPGStore connects to the database and verifies the connection.
func NewPGStore(ctx context.Context, url string, opts ...PGOption) (*PGStore, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = defaultMaxConns
	for _, opt := range opts {
		opt(cfg)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultPingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PGStore{pool: pool}, nil
}

// Close releases the underlying connection pool.
func (s *PGStore) Close() {
	s.pool.Close()
}

func (s *PGStore) UserTier(ctx context.Context, userID int64) (model.Tier, error) {
	var t model.Tier
	err := s.pool.QueryRow(ctx,
		`SELECT t.id, t.name, t.min_points, t.max_points
		   FROM rankings r JOIN tiers t ON t.id = r.tier_id
		  WHERE r.user_id = $1`, userID).
		Scan(&t.ID, &t.Name, &t.MinPoints, &t.MaxPoints)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Tier{}, ErrNoRanking
	}
	if err != nil {
		return model.Tier{}, fmt.Errorf("user tier: %w", err)
	}
	return t, nil
}

func (s *PGStore) Ranking(ctx context.Context, userID, tierID int64) (model.RankingRecord, error) {
	var rec model.RankingRecord
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, tier_id, points FROM rankings
		  WHERE user_id = $1 AND tier_id = $2`, userID, tierID).
		Scan(&rec.UserID, &rec.TierID, &rec.Points)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.RankingRecord{}, ErrNoRanking
	}
	if err != nil {
		return model.RankingRecord{}, fmt.Errorf("ranking: %w", err)
	}
	return rec, nil
}

func (s *PGStore) SaveRanking(ctx context.Context, rec model.RankingRecord) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE rankings SET tier_id = $2, points = $3 WHERE user_id = $1`,
		rec.UserID, rec.TierID, rec.Points)
	if err != nil {
		return fmt.Errorf("save ranking: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRanking
	}
	return nil
}

func (s *PGStore) Tiers(ctx context.Context) ([]model.Tier, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, min_points, max_points FROM tiers ORDER BY min_points`)
	if err != nil {
		return nil, fmt.Errorf("tiers: %w", err)
	}
	defer rows.Close()

	var tiers []model.Tier
	for rows.Next() {
		var t model.Tier
		if err := rows.Scan(&t.ID, &t.Name, &t.MinPoints, &t.MaxPoints); err != nil {
			return nil, fmt.Errorf("tiers scan: %w", err)
		}
		tiers = append(tiers, t)
	}
	return tiers, rows.Err()
}

func (s *PGStore) RandomPuzzle(ctx context.Context, tierID int64) (model.Puzzle, error) {
	var p model.Puzzle
	err := s.pool.QueryRow(ctx,
		`SELECT id, tier_id, body FROM puzzles
		  WHERE tier_id = $1 ORDER BY random() LIMIT 1`, tierID).
		Scan(&p.ID, &p.TierID, &p.Body)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Puzzle{}, ErrNoPuzzle
	}
	if err != nil {
		return model.Puzzle{}, fmt.Errorf("random puzzle: %w", err)
	}
	return p, nil
}

func (s *PGStore) DisplayName(ctx context.Context, userID int64) (string, error) {
	var name string
	err := s.pool.QueryRow(ctx,
		`SELECT display_name FROM users WHERE id = $1`, userID).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNoUser
	}
	if err != nil {
		return "", fmt.Errorf("display name: %w", err)
	}
	return name, nil
}

func (s *PGStore) SaveResult(ctx context.Context, res model.MatchResult) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO match_results
		   (room_id, winner_id, loser_id, duration_seconds, started_at,
		    status, score, winner_points, loser_points)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		res.RoomID, res.WinnerID, res.LoserID, res.DurationSeconds, res.StartedAt,
		string(res.Status), res.Score, res.WinnerPoints, res.LoserPoints)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	return nil
}
