package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"telegram-xp-bot/internal/model"
)

// LevelUpRepository handles the append-only log of level increases.
type LevelUpRepository struct {
	pool *pgxpool.Pool
}

// NewLevelUpRepository creates a new LevelUpRepository instance.
func NewLevelUpRepository(pool *pgxpool.Pool) *LevelUpRepository {
	return &LevelUpRepository{pool: pool}
}

// Create appends a level-up event.
func (r *LevelUpRepository) Create(ctx context.Context, userID int64, oldLevel, newLevel int) (*model.LevelUpEvent, error) {
	const query = `
		INSERT INTO level_ups (user_id, old_level, new_level, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, user_id, old_level, new_level, created_at
	`

	var ev model.LevelUpEvent
	err := r.pool.QueryRow(ctx, query, userID, oldLevel, newLevel).Scan(
		&ev.ID,
		&ev.UserID,
		&ev.OldLevel,
		&ev.NewLevel,
		&ev.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create level-up event: %w", err)
	}

	return &ev, nil
}

// GetByUserID retrieves a user's level-up history, newest first.
func (r *LevelUpRepository) GetByUserID(ctx context.Context, userID int64, limit int) ([]*model.LevelUpEvent, error) {
	const query = `
		SELECT id, user_id, old_level, new_level, created_at
		FROM level_ups
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get level-up events: %w", err)
	}
	defer rows.Close()

	var events []*model.LevelUpEvent
	for rows.Next() {
		var ev model.LevelUpEvent
		err := rows.Scan(
			&ev.ID,
			&ev.UserID,
			&ev.OldLevel,
			&ev.NewLevel,
			&ev.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan level-up event: %w", err)
		}
		events = append(events, &ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating level-up events: %w", err)
	}

	return events, nil
}
