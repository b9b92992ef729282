// Package repository provides data access layer implementations.
// Tests use testcontainers-go to spin up a PostgreSQL container.
package repository

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"telegram-xp-bot/internal/model"
)

// checkDockerAvailable checks if Docker is available and running
func checkDockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	err := cmd.Run()
	return err == nil
}

// setupTestDB creates a PostgreSQL container and returns a connection pool
// Skips the test if Docker is not available
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	// Create PostgreSQL container
	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	// Get connection string
	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Create connection pool
	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	// Run migrations
	err = runMigrations(ctx, pool)
	require.NoError(t, err)

	// Return cleanup function
	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

// runMigrations applies the database schema
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	// Create users table
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			user_id BIGINT PRIMARY KEY,
			username VARCHAR(255) NOT NULL DEFAULT '',
			first_name VARCHAR(255) NOT NULL DEFAULT '',
			xp BIGINT NOT NULL DEFAULT 0,
			level INT NOT NULL DEFAULT 1,
			coins BIGINT NOT NULL DEFAULT 100 CHECK (coins >= 0),
			rank VARCHAR(50) NOT NULL DEFAULT 'Newbie',
			last_daily DATE,
			daily_streak INT NOT NULL DEFAULT 0,
			total_messages BIGINT NOT NULL DEFAULT 0,
			join_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_active TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return err
	}

	// Create transactions table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS transactions (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
			amount BIGINT NOT NULL,
			type VARCHAR(50) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return err
	}

	// Create level_ups table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS level_ups (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
			old_level INT NOT NULL,
			new_level INT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

// ============================================================================
// UserRepository Tests
// ============================================================================

func TestUserRepository_Create(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool)
	ctx := context.Background()

	user, err := repo.Create(ctx, 12345, "testuser", "Test")
	require.NoError(t, err)
	assert.Equal(t, int64(12345), user.UserID)
	assert.Equal(t, "testuser", user.Username)
	assert.Equal(t, "Test", user.FirstName)

	// New users start at level 1 with 0 XP, 100 coins and no claimed daily
	assert.Equal(t, int64(0), user.XP)
	assert.Equal(t, 1, user.Level)
	assert.Equal(t, int64(100), user.Coins)
	assert.Equal(t, model.RankNewbie, user.Rank)
	assert.Nil(t, user.LastDaily)
	assert.Equal(t, 0, user.DailyStreak)
	assert.Equal(t, int64(0), user.TotalMessages)

	// Duplicate creation must fail on the primary key
	_, err = repo.Create(ctx, 12345, "testuser", "Test")
	assert.Error(t, err)
}

func TestUserRepository_GetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool)
	ctx := context.Background()

	_, err := repo.Create(ctx, 111, "alice", "Alice")
	require.NoError(t, err)

	user, err := repo.GetByID(ctx, 111)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	_, err = repo.GetByID(ctx, 999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_GetOrCreate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool)
	ctx := context.Background()

	user, created, err := repo.GetOrCreate(ctx, 222, "bob", "Bob")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(100), user.Coins)

	user, created, err = repo.GetOrCreate(ctx, 222, "bob", "Bob")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(222), user.UserID)
}

func TestUserRepository_UpdateIdentity(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool)
	ctx := context.Background()

	_, err := repo.Create(ctx, 333, "old_name", "Old")
	require.NoError(t, err)

	err = repo.UpdateIdentity(ctx, 333, "new_name", "New")
	require.NoError(t, err)

	user, err := repo.GetByID(ctx, 333)
	require.NoError(t, err)
	assert.Equal(t, "new_name", user.Username)
	assert.Equal(t, "New", user.FirstName)

	err = repo.UpdateIdentity(ctx, 999, "nobody", "Nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_ApplyDelta(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool)
	ctx := context.Background()

	_, err := repo.Create(ctx, 444, "carol", "Carol")
	require.NoError(t, err)

	// Message reward: +5 XP, +2 coins, one message, level unchanged
	user, err := repo.ApplyDelta(ctx, 444, 5, 2, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(5), user.XP)
	assert.Equal(t, int64(102), user.Coins)
	assert.Equal(t, int64(1), user.TotalMessages)
	assert.Equal(t, 1, user.Level)

	// Level-up write: XP crosses the threshold and the bonus rides along
	user, err = repo.ApplyDelta(ctx, 444, 95, 52, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(100), user.XP)
	assert.Equal(t, int64(154), user.Coins)
	assert.Equal(t, int64(2), user.TotalMessages)
	assert.Equal(t, 2, user.Level)

	_, err = repo.ApplyDelta(ctx, 999, 5, 2, 1, 1)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_ApplyDailyClaim(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool)
	ctx := context.Background()

	_, err := repo.Create(ctx, 555, "dave", "Dave")
	require.NoError(t, err)

	claimedAt := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)
	user, err := repo.ApplyDailyClaim(ctx, 555, 100, 50, 1, claimedAt, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(200), user.Coins)
	assert.Equal(t, int64(50), user.XP)
	assert.Equal(t, 1, user.DailyStreak)
	require.NotNil(t, user.LastDaily)
	assert.Equal(t, claimedAt.Year(), user.LastDaily.Year())
	assert.Equal(t, claimedAt.Month(), user.LastDaily.Month())
	assert.Equal(t, claimedAt.Day(), user.LastDaily.Day())

	// Streak update overwrites rather than accumulates
	user, err = repo.ApplyDailyClaim(ctx, 555, 110, 55, 2, claimedAt.AddDate(0, 0, 1), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, user.DailyStreak)
	assert.Equal(t, int64(310), user.Coins)
}

func TestUserRepository_Debit(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool)
	ctx := context.Background()

	_, err := repo.Create(ctx, 666, "eve", "Eve")
	require.NoError(t, err)

	user, err := repo.Debit(ctx, 666, 60)
	require.NoError(t, err)
	assert.Equal(t, int64(40), user.Coins)

	// Uncovered debit is rejected and leaves the balance untouched
	_, err = repo.Debit(ctx, 666, 41)
	assert.ErrorIs(t, err, ErrInsufficientCoins)

	user, err = repo.GetByID(ctx, 666)
	require.NoError(t, err)
	assert.Equal(t, int64(40), user.Coins)

	// Exact balance is allowed
	user, err = repo.Debit(ctx, 666, 40)
	require.NoError(t, err)
	assert.Equal(t, int64(0), user.Coins)

	_, err = repo.Debit(ctx, 999, 10)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_SetRank(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool)
	ctx := context.Background()

	_, err := repo.Create(ctx, 777, "frank", "Frank")
	require.NoError(t, err)

	// Fund the account enough for a VIP upgrade
	_, err = repo.ApplyDelta(ctx, 777, 0, 5000, 0, 1)
	require.NoError(t, err)

	user, err := repo.SetRank(ctx, 777, 5000, model.RankVIP)
	require.NoError(t, err)
	assert.Equal(t, model.RankVIP, user.Rank)
	assert.Equal(t, int64(100), user.Coins)

	// Not enough left for Premium: rank and balance stay as they were
	_, err = repo.SetRank(ctx, 777, 15000, model.RankPremium)
	assert.ErrorIs(t, err, ErrInsufficientCoins)

	user, err = repo.GetByID(ctx, 777)
	require.NoError(t, err)
	assert.Equal(t, model.RankVIP, user.Rank)
	assert.Equal(t, int64(100), user.Coins)

	_, err = repo.SetRank(ctx, 999, 10, model.RankVIP)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_GetTopByXP(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool)
	ctx := context.Background()

	for i, xp := range []int64{50, 300, 175} {
		id := int64(1000 + i)
		_, err := repo.Create(ctx, id, "user", "User")
		require.NoError(t, err)
		_, err = repo.ApplyDelta(ctx, id, xp, 0, 0, 1)
		require.NoError(t, err)
	}

	top, err := repo.GetTopByXP(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, int64(300), top[0].XP)
	assert.Equal(t, int64(175), top[1].XP)
}

func TestUserRepository_Exists(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewUserRepository(pool)
	ctx := context.Background()

	_, err := repo.Create(ctx, 888, "grace", "Grace")
	require.NoError(t, err)

	exists, err := repo.Exists(ctx, 888)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists(ctx, 999)
	require.NoError(t, err)
	assert.False(t, exists)
}

// ============================================================================
// TransactionRepository Tests
// ============================================================================

func TestTransactionRepository_Create(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	userRepo := NewUserRepository(pool)
	txRepo := NewTransactionRepository(pool)
	ctx := context.Background()

	_, err := userRepo.Create(ctx, 2001, "heidi", "Heidi")
	require.NoError(t, err)

	tx, err := txRepo.Create(ctx, 2001, 100, model.TxTypeDailyReward, "Daily reward (streak 1)")
	require.NoError(t, err)
	assert.NotZero(t, tx.ID)
	assert.Equal(t, int64(2001), tx.UserID)
	assert.Equal(t, int64(100), tx.Amount)
	assert.Equal(t, model.TxTypeDailyReward, tx.Type)
	assert.Equal(t, "Daily reward (streak 1)", tx.Description)

	// Spends record negative amounts
	tx, err = txRepo.Create(ctx, 2001, -500, model.TxTypePurchase, "Bought Double XP")
	require.NoError(t, err)
	assert.Equal(t, int64(-500), tx.Amount)
}

func TestTransactionRepository_GetByUserID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	userRepo := NewUserRepository(pool)
	txRepo := NewTransactionRepository(pool)
	ctx := context.Background()

	_, err := userRepo.Create(ctx, 2002, "ivan", "Ivan")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := txRepo.Create(ctx, 2002, int64(i+1), model.TxTypeMessageReward, "")
		require.NoError(t, err)
	}

	txs, err := txRepo.GetByUserID(ctx, 2002, 3)
	require.NoError(t, err)
	assert.Len(t, txs, 3)

	// Newest first
	assert.Equal(t, int64(5), txs[0].Amount)
}

func TestTransactionRepository_GetByUserIDAndType(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	userRepo := NewUserRepository(pool)
	txRepo := NewTransactionRepository(pool)
	ctx := context.Background()

	_, err := userRepo.Create(ctx, 2003, "judy", "Judy")
	require.NoError(t, err)

	_, err = txRepo.Create(ctx, 2003, 2, model.TxTypeMessageReward, "")
	require.NoError(t, err)
	_, err = txRepo.Create(ctx, 2003, 100, model.TxTypeDailyReward, "")
	require.NoError(t, err)
	_, err = txRepo.Create(ctx, 2003, -5000, model.TxTypeRankUpgrade, "Upgraded to VIP")
	require.NoError(t, err)

	txs, err := txRepo.GetByUserIDAndType(ctx, 2003, model.TxTypeDailyReward, 10)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, int64(100), txs[0].Amount)
}

// ============================================================================
// LevelUpRepository Tests
// ============================================================================

func TestLevelUpRepository_Create(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	userRepo := NewUserRepository(pool)
	levelUpRepo := NewLevelUpRepository(pool)
	ctx := context.Background()

	_, err := userRepo.Create(ctx, 3001, "mallory", "Mallory")
	require.NoError(t, err)

	event, err := levelUpRepo.Create(ctx, 3001, 1, 2)
	require.NoError(t, err)
	assert.NotZero(t, event.ID)
	assert.Equal(t, int64(3001), event.UserID)
	assert.Equal(t, 1, event.OldLevel)
	assert.Equal(t, 2, event.NewLevel)
}

func TestLevelUpRepository_GetByUserID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	userRepo := NewUserRepository(pool)
	levelUpRepo := NewLevelUpRepository(pool)
	ctx := context.Background()

	_, err := userRepo.Create(ctx, 3002, "oscar", "Oscar")
	require.NoError(t, err)

	for lvl := 1; lvl <= 3; lvl++ {
		_, err := levelUpRepo.Create(ctx, 3002, lvl, lvl+1)
		require.NoError(t, err)
	}

	events, err := levelUpRepo.GetByUserID(ctx, 3002, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)

	// Newest first
	assert.Equal(t, 4, events[0].NewLevel)
	assert.Equal(t, 3, events[1].NewLevel)
}
