package repository

import (
	"context"

	"gomoku_arena/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MatchRepository struct {
	db *pgxpool.Pool
}

func NewMatchRepository(db *pgxpool.Pool) *MatchRepository {
	return &MatchRepository{db: db}
}

// создает запись о завершенной партии
func (r *MatchRepository) Create(ctx context.Context, m *domain.Match) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO matches (room_id, black_id, white_id, winner_id, reason, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, m.RoomID, m.BlackID, m.WhiteID, m.WinnerID, m.Reason, m.FinishedAt).Scan(&m.ID)
}

// получает запись по id
func (r *MatchRepository) GetByID(ctx context.Context, id int64) (*domain.Match, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, room_id, black_id, white_id, winner_id, reason, finished_at
		FROM matches
		WHERE id = $1
	`, id)

	var m domain.Match
	if err := row.Scan(
		&m.ID, &m.RoomID, &m.BlackID, &m.WhiteID, &m.WinnerID, &m.Reason, &m.FinishedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &m, nil
}

// история партий игрока, свежие первыми
func (r *MatchRepository) ListByPlayer(ctx context.Context, playerID string, limit int) ([]domain.Match, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, room_id, black_id, white_id, winner_id, reason, finished_at
		FROM matches
		WHERE black_id = $1 OR white_id = $1
		ORDER BY finished_at DESC
		LIMIT $2
	`, playerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Match
	for rows.Next() {
		var m domain.Match
		if err := rows.Scan(
			&m.ID, &m.RoomID, &m.BlackID, &m.WhiteID, &m.WinnerID, &m.Reason, &m.FinishedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// количество побед игрока
func (r *MatchRepository) CountWins(ctx context.Context, playerID string) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM matches WHERE winner_id = $1
	`, playerID).Scan(&n)
	return n, err
}
