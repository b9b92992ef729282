// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"telegram-xp-bot/internal/model"
)

// Common errors for repository operations.
var (
	ErrUserNotFound = errors.New("user not found")
	// ErrInsufficientCoins is returned by conditional debits when the
	// balance would go negative. It exists so a racing spend can never
	// produce a negative balance even if the caller's pre-check passed.
	ErrInsufficientCoins = errors.New("insufficient coins")
)

const userColumns = `user_id, username, first_name, xp, level, coins, rank,
	last_daily, daily_streak, total_messages, join_date, last_active,
	created_at, updated_at`

// UserRepository handles user data persistence.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository instance.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.UserID,
		&user.Username,
		&user.FirstName,
		&user.XP,
		&user.Level,
		&user.Coins,
		&user.Rank,
		&user.LastDaily,
		&user.DailyStreak,
		&user.TotalMessages,
		&user.JoinDate,
		&user.LastActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create creates a new user with the starting state: 100 coins, 0 XP at
// level 1, Newbie rank.
func (r *UserRepository) Create(ctx context.Context, userID int64, username, firstName string) (*model.User, error) {
	query := `
		INSERT INTO users (user_id, username, first_name, xp, level, coins, rank,
			daily_streak, total_messages, join_date, last_active, created_at, updated_at)
		VALUES ($1, $2, $3, 0, 1, 100, 'Newbie', 0, 0, NOW(), NOW(), NOW(), NOW())
		RETURNING ` + userColumns

	user, err := scanUser(r.pool.QueryRow(ctx, query, userID, username, firstName))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user by their ID.
// Returns ErrUserNotFound if the user does not exist.
func (r *UserRepository) GetByID(ctx context.Context, userID int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetOrCreate retrieves a user by ID, creating one if it doesn't exist.
// Returns the user and whether it was newly created.
func (r *UserRepository) GetOrCreate(ctx context.Context, userID int64, username, firstName string) (*model.User, bool, error) {
	user, err := r.GetByID(ctx, userID)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, false, err
	}

	user, err = r.Create(ctx, userID, username, firstName)
	if err != nil {
		// Another request might have created the user in between.
		user, err = r.GetByID(ctx, userID)
		if err != nil {
			return nil, false, err
		}
		return user, false, nil
	}

	return user, true, nil
}

// UpdateIdentity refreshes a user's username and first name.
// Useful when the user changes their Telegram profile.
func (r *UserRepository) UpdateIdentity(ctx context.Context, userID int64, username, firstName string) error {
	const query = `
		UPDATE users
		SET username = $2, first_name = $3, updated_at = NOW()
		WHERE user_id = $1
	`

	result, err := r.pool.Exec(ctx, query, userID, username, firstName)
	if err != nil {
		return fmt.Errorf("failed to update identity: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ApplyDelta adds XP, coins and a message-count increment to a user and
// stores the recomputed level, all in a single update so a concurrent read
// never sees new XP paired with an old level.
func (r *UserRepository) ApplyDelta(ctx context.Context, userID int64, xpDelta, coinsDelta, msgDelta int64, newLevel int) (*model.User, error) {
	query := `
		UPDATE users
		SET xp = xp + $2,
		    coins = coins + $3,
		    total_messages = total_messages + $4,
		    level = $5,
		    last_active = NOW(),
		    updated_at = NOW()
		WHERE user_id = $1
		RETURNING ` + userColumns

	user, err := scanUser(r.pool.QueryRow(ctx, query, userID, xpDelta, coinsDelta, msgDelta, newLevel))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to apply delta: %w", err)
	}
	return user, nil
}

// ApplyDailyClaim commits a successful daily claim: reward deltas, the
// recomputed level, the claim date and the new streak, atomically.
func (r *UserRepository) ApplyDailyClaim(ctx context.Context, userID int64, coinsDelta, xpDelta int64, newLevel int, claimedAt time.Time, streak int) (*model.User, error) {
	query := `
		UPDATE users
		SET coins = coins + $2,
		    xp = xp + $3,
		    level = $4,
		    last_daily = $5,
		    daily_streak = $6,
		    last_active = NOW(),
		    updated_at = NOW()
		WHERE user_id = $1
		RETURNING ` + userColumns

	user, err := scanUser(r.pool.QueryRow(ctx, query, userID, coinsDelta, xpDelta, newLevel, claimedAt, streak))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to apply daily claim: %w", err)
	}
	return user, nil
}

// Debit subtracts a price from a user's coins. The update is conditional
// on the balance covering the amount, so the balance can never go negative.
// Returns ErrInsufficientCoins when the condition fails for an existing user.
func (r *UserRepository) Debit(ctx context.Context, userID int64, price int64) (*model.User, error) {
	query := `
		UPDATE users
		SET coins = coins - $2, last_active = NOW(), updated_at = NOW()
		WHERE user_id = $1 AND coins >= $2
		RETURNING ` + userColumns

	user, err := scanUser(r.pool.QueryRow(ctx, query, userID, price))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.debitFailure(ctx, userID)
		}
		return nil, fmt.Errorf("failed to debit user: %w", err)
	}
	return user, nil
}

// SetRank debits the rank price and sets the new rank in one update.
// The same balance condition as Debit applies.
func (r *UserRepository) SetRank(ctx context.Context, userID int64, price int64, rank string) (*model.User, error) {
	query := `
		UPDATE users
		SET coins = coins - $2, rank = $3, last_active = NOW(), updated_at = NOW()
		WHERE user_id = $1 AND coins >= $2
		RETURNING ` + userColumns

	user, err := scanUser(r.pool.QueryRow(ctx, query, userID, price, rank))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.debitFailure(ctx, userID)
		}
		return nil, fmt.Errorf("failed to set rank: %w", err)
	}
	return user, nil
}

// debitFailure distinguishes a missing user from an uncovered balance after
// a conditional update matched no rows.
func (r *UserRepository) debitFailure(ctx context.Context, userID int64) error {
	const query = `SELECT EXISTS(SELECT 1 FROM users WHERE user_id = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check user existence: %w", err)
	}
	if !exists {
		return ErrUserNotFound
	}
	return ErrInsufficientCoins
}

// GetTopByXP retrieves the top N users ordered by accumulated XP.
func (r *UserRepository) GetTopByXP(ctx context.Context, limit int) ([]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY xp DESC LIMIT $1`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// Exists checks if a user with the given ID exists.
func (r *UserRepository) Exists(ctx context.Context, userID int64) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM users WHERE user_id = $1)`

	var exists bool
	err := r.pool.QueryRow(ctx, query, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}
