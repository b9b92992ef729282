// Package main is the entry point for the Telegram XP Bot.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"telegram-xp-bot/internal/bot"
	"telegram-xp-bot/internal/config"
	"telegram-xp-bot/internal/level"
	"telegram-xp-bot/internal/pkg/db"
	"telegram-xp-bot/internal/pkg/lock"
	"telegram-xp-bot/internal/repository"
	"telegram-xp-bot/internal/reward"
	"telegram-xp-bot/internal/service"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().Msg("Configuration loaded successfully")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	// Run database migrations
	if err := runMigrations(ctx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(dbPool.Pool)
	txRepo := repository.NewTransactionRepository(dbPool.Pool)
	levelUpRepo := repository.NewLevelUpRepository(dbPool.Pool)

	// Initialize the progression curve and reward amounts from config
	calc := level.NewCalculator(cfg.Rewards.BaseXP, cfg.Rewards.XPMultiplier)
	dispenser := reward.NewDispenser(
		cfg.Rewards.XPPerMessage,
		cfg.Rewards.CoinsPerMessage,
		cfg.Rewards.DailyXP,
		cfg.Rewards.DailyCoins,
	)

	// Initialize services
	economyService := service.NewEconomyService(
		userRepo,
		txRepo,
		levelUpRepo,
		calc,
		dispenser,
		cfg.Rewards.LevelUpBonus,
	)

	// Initialize user lock
	userLock := lock.NewUserLock()

	shopService := service.NewShopService(userRepo, txRepo, cfg, userLock)

	// Create bot dependencies
	deps := &bot.Dependencies{
		Config:         cfg,
		EconomyService: economyService,
		ShopService:    shopService,
		UserLock:       userLock,
	}

	// Initialize bot
	telegramBot, err := bot.New(deps)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start bot in a goroutine
	go func() {
		log.Info().Msg("Bot is starting...")
		telegramBot.Start()
	}()

	// Wait for shutdown signal
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	// Graceful shutdown
	telegramBot.Stop()
	log.Info().Msg("Bot stopped gracefully")
}

// runMigrations executes database migrations.
func runMigrations(ctx context.Context, pool *db.Pool) error {
	log.Info().Msg("Running database migrations...")

	// Migration 1: Create users table
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
		);
		CREATE INDEX IF NOT EXISTS idx_users_xp ON users(xp DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 1: users table created")

	// Migration 2: Create transactions table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS transactions (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
			amount BIGINT NOT NULL,
			type VARCHAR(50) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_transactions_user_time ON transactions(user_id, created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_transactions_type_time ON transactions(type, created_at DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 2: transactions table created")

	// Migration 3: Create level_ups table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS level_ups (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
			old_level INT NOT NULL,
			new_level INT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_level_ups_user_time ON level_ups(user_id, created_at DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 3: level_ups table created")

	log.Info().Msg("All migrations completed successfully")
	return nil
}
