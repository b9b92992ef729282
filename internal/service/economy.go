// Package service provides business logic implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"telegram-xp-bot/internal/level"
	"telegram-xp-bot/internal/model"
	"telegram-xp-bot/internal/repository"
	"telegram-xp-bot/internal/reward"
)

// Common errors for economy operations.
var (
	ErrUserNotFound = errors.New("user not found")
)

// AlreadyClaimedError is returned when the daily reward was already claimed
// today. TimeLeft is the wait until local midnight.
type AlreadyClaimedError struct {
	TimeLeft time.Duration
}

func (e *AlreadyClaimedError) Error() string {
	return "daily reward already claimed today"
}

// MessageResult describes the outcome of awarding a qualifying message.
type MessageResult struct {
	User        *model.User
	XPGained    int64
	CoinsGained int64
	LeveledUp   bool
	OldLevel    int
	NewLevel    int
	// LevelBonus is the fixed coin bonus granted on a level crossing,
	// zero otherwise. It is included in CoinsGained.
	LevelBonus int64
}

// DailyResult describes a successful daily claim.
type DailyResult struct {
	User         *model.User
	Coins        int64
	XP           int64
	Streak       int
	BonusPercent int
	LeveledUp    bool
	OldLevel     int
	NewLevel     int
}

// ProfileView is a user record enriched with level-progress numbers for
// rendering.
type ProfileView struct {
	User     *model.User
	XPInto   int64 // XP earned inside the current level band
	XPSpan   int64 // width of the current level band
	XPToNext int64 // XP remaining to the next level
}

// EconomyService is the ledger of the XP economy: it turns raw events into
// atomic state changes plus audit records. Decisions are delegated to the
// pure level calculator and reward dispenser.
type EconomyService struct {
	users        *repository.UserRepository
	txs          *repository.TransactionRepository
	levelUps     *repository.LevelUpRepository
	calc         *level.Calculator
	dispenser    *reward.Dispenser
	levelUpBonus int64
	now          func() time.Time
}

// NewEconomyService creates a new EconomyService instance.
func NewEconomyService(
	users *repository.UserRepository,
	txs *repository.TransactionRepository,
	levelUps *repository.LevelUpRepository,
	calc *level.Calculator,
	dispenser *reward.Dispenser,
	levelUpBonus int64,
) *EconomyService {
	return &EconomyService{
		users:        users,
		txs:          txs,
		levelUps:     levelUps,
		calc:         calc,
		dispenser:    dispenser,
		levelUpBonus: levelUpBonus,
		now:          time.Now,
	}
}

// EnsureUser ensures a user exists, creating one lazily on first
// interaction. Returns the user and whether it was newly created.
func (s *EconomyService) EnsureUser(ctx context.Context, userID int64, username, firstName string) (*model.User, bool, error) {
	user, created, err := s.users.GetOrCreate(ctx, userID, username, firstName)
	if err != nil {
		return nil, false, fmt.Errorf("failed to ensure user: %w", err)
	}

	if !created && identityChanged(user, username, firstName) {
		if err := s.users.UpdateIdentity(ctx, userID, username, firstName); err != nil {
			// Non-fatal: the record exists, only the names are stale.
			log.Warn().Err(err).Int64("user_id", userID).Msg("Failed to refresh identity")
		} else {
			user.Username = username
			user.FirstName = firstName
		}
	}

	return user, created, nil
}

func identityChanged(u *model.User, username, firstName string) bool {
	if username != "" && u.Username != username {
		return true
	}
	if firstName != "" && u.FirstName != firstName {
		return true
	}
	return false
}

// AwardMessage grants the per-message XP and coins to a user and reports
// whether the grant crossed a level boundary. A crossing adds the fixed
// level-up coin bonus in the same atomic write and appends a level-up
// event exactly once.
func (s *EconomyService) AwardMessage(ctx context.Context, userID int64, username, firstName string) (*MessageResult, error) {
	user, _, err := s.EnsureUser(ctx, userID, username, firstName)
	if err != nil {
		return nil, err
	}

	xp, coins := s.dispenser.MessageGrant()
	newLevel := s.calc.FromXP(user.XP + xp)

	leveledUp := newLevel > user.Level
	var bonus int64
	if leveledUp {
		bonus = s.levelUpBonus
	}

	updated, err := s.users.ApplyDelta(ctx, userID, xp, coins+bonus, 1, newLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to award message: %w", err)
	}

	desc := "Message reward"
	if leveledUp {
		desc = fmt.Sprintf("Message reward + level %d bonus", newLevel)
	}
	s.appendTransaction(ctx, userID, coins+bonus, model.TxTypeMessageReward, desc)

	if leveledUp {
		if _, err := s.levelUps.Create(ctx, userID, user.Level, newLevel); err != nil {
			log.Warn().Err(err).Int64("user_id", userID).Msg("Failed to append level-up event")
		}
	}

	return &MessageResult{
		User:        updated,
		XPGained:    xp,
		CoinsGained: coins + bonus,
		LeveledUp:   leveledUp,
		OldLevel:    user.Level,
		NewLevel:    newLevel,
		LevelBonus:  bonus,
	}, nil
}

// ClaimDaily attempts to claim the daily reward. Returns an
// AlreadyClaimedError when today's reward was already taken; on success the
// reward, streak and claim date are committed in a single update.
func (s *EconomyService) ClaimDaily(ctx context.Context, userID int64, username, firstName string) (*DailyResult, error) {
	user, _, err := s.EnsureUser(ctx, userID, username, firstName)
	if err != nil {
		return nil, err
	}

	now := s.now()
	status := s.dispenser.CheckDaily(user.LastDaily, user.DailyStreak, now)
	if !status.CanClaim {
		return nil, &AlreadyClaimedError{TimeLeft: status.TimeLeft}
	}

	coins, xp, bonusPct := s.dispenser.DailyAmount(status.Streak)
	newLevel := s.calc.FromXP(user.XP + xp)
	leveledUp := newLevel > user.Level

	updated, err := s.users.ApplyDailyClaim(ctx, userID, coins, xp, newLevel, now, status.Streak)
	if err != nil {
		return nil, fmt.Errorf("failed to apply daily claim: %w", err)
	}

	s.appendTransaction(ctx, userID, coins, model.TxTypeDailyReward,
		fmt.Sprintf("Daily reward (streak: %d)", status.Streak))

	if leveledUp {
		if _, err := s.levelUps.Create(ctx, userID, user.Level, newLevel); err != nil {
			log.Warn().Err(err).Int64("user_id", userID).Msg("Failed to append level-up event")
		}
	}

	return &DailyResult{
		User:         updated,
		Coins:        coins,
		XP:           xp,
		Streak:       status.Streak,
		BonusPercent: bonusPct,
		LeveledUp:    leveledUp,
		OldLevel:     user.Level,
		NewLevel:     newLevel,
	}, nil
}

// Profile returns a user's record with level-progress numbers.
func (s *EconomyService) Profile(ctx context.Context, userID int64) (*ProfileView, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	_, into, span := s.calc.Progress(user.XP)
	return &ProfileView{
		User:     user,
		XPInto:   into,
		XPSpan:   span,
		XPToNext: s.calc.XPToNext(user.XP),
	}, nil
}

// Leaderboard returns the top users by accumulated XP.
func (s *EconomyService) Leaderboard(ctx context.Context, limit int) ([]*model.User, error) {
	return s.users.GetTopByXP(ctx, limit)
}

// appendTransaction writes an audit record. A failure here is logged and
// not propagated: the balance change already committed and the audit log
// is advisory.
func (s *EconomyService) appendTransaction(ctx context.Context, userID, amount int64, txType, description string) {
	if _, err := s.txs.Create(ctx, userID, amount, txType, description); err != nil {
		log.Warn().
			Err(err).
			Int64("user_id", userID).
			Str("type", txType).
			Msg("Failed to append transaction")
	}
}
