package repository

import (
	"context"
	"encoding/json"
	"errors"

	"promptmatch/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MatchResultRepository struct {
	db *pgxpool.Pool
}

func NewMatchResultRepository(db *pgxpool.Pool) *MatchResultRepository {
	return &MatchResultRepository{db: db}
}

// Record archives a finished match. A match restarted and finished again
// overwrites its earlier result.
func (r *MatchResultRepository) Record(ctx context.Context, res *domain.MatchResult) error {
	players, err := json.Marshal(res.Players)
	if err != nil {
		return err
	}

	return r.db.QueryRow(ctx,
		`INSERT INTO match_results (match_id, winner, players, tile_count, finished_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (match_id) DO UPDATE
		   SET winner = EXCLUDED.winner,
		       players = EXCLUDED.players,
		       tile_count = EXCLUDED.tile_count,
		       finished_at = EXCLUDED.finished_at
		 RETURNING id`,
		res.MatchID,
		res.Winner,
		players,
		res.TileCount,
		res.FinishedAt,
	).Scan(&res.ID)
}

// Recent returns the latest results, newest first.
func (r *MatchResultRepository) Recent(ctx context.Context, limit int) ([]*domain.MatchResult, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, match_id, winner, players, tile_count, finished_at
		 FROM match_results
		 ORDER BY finished_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.MatchResult
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, res)
	}
	return result, rows.Err()
}

// GetByMatch returns nil when the match has no archived result.
func (r *MatchResultRepository) GetByMatch(ctx context.Context, matchID string) (*domain.MatchResult, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, match_id, winner, players, tile_count, finished_at
		 FROM match_results
		 WHERE match_id = $1`,
		matchID,
	)
	res, err := scanResult(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return res, err
}

func scanResult(row pgx.Row) (*domain.MatchResult, error) {
	var (
		res     domain.MatchResult
		players []byte
	)
	if err := row.Scan(&res.ID, &res.MatchID, &res.Winner, &players, &res.TileCount, &res.FinishedAt); err != nil {
		return nil, err
	}
	if len(players) > 0 {
		if err := json.Unmarshal(players, &res.Players); err != nil {
			return nil, err
		}
	}
	return &res, nil
}
