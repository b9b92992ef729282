// Package model defines the data models for the XP bot.
package model

import "time"

// User represents a chat member tracked by the economy system.
// A record is created lazily on first interaction with 100 starting coins,
// 0 XP at level 1 and the Newbie rank.
type User struct {
	UserID        int64      `db:"user_id"`
	Username      string     `db:"username"`
	FirstName     string     `db:"first_name"`
	XP            int64      `db:"xp"`
	Level         int        `db:"level"`
	Coins         int64      `db:"coins"`
	Rank          string     `db:"rank"`
	LastDaily     *time.Time `db:"last_daily"`
	DailyStreak   int        `db:"daily_streak"`
	TotalMessages int64      `db:"total_messages"`
	JoinDate      time.Time  `db:"join_date"`
	LastActive    time.Time  `db:"last_active"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

// DisplayName returns the name to address the user by.
// Falls back to the username when the first name is empty.
func (u *User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Username
}

// Transaction represents an append-only audit record of a coin change.
// Rows are never mutated or deleted.
type Transaction struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	Amount      int64     `db:"amount"`
	Type        string    `db:"type"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}

// LevelUpEvent represents an append-only record of a level increase.
type LevelUpEvent struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	OldLevel  int       `db:"old_level"`
	NewLevel  int       `db:"new_level"`
	CreatedAt time.Time `db:"created_at"`
}

// Transaction types for categorizing coin changes.
const (
	TxTypeMessageReward = "message_reward" // XP/coin grant for a qualifying message
	TxTypeDailyReward   = "daily_reward"   // Daily claim with streak bonus
	TxTypePurchase      = "purchase"       // Shop item purchase
	TxTypeRankUpgrade   = "rank_upgrade"   // Paid rank change
)

// Ranks, ordered from default to highest. Rank changes only via paid
// upgrade and carry no enforced hierarchy.
const (
	RankNewbie  = "Newbie"
	RankMember  = "Member"
	RankVIP     = "VIP"
	RankPremium = "Premium"
	RankAdmin   = "Admin"
	RankOwner   = "Owner"
)

// Ranks returns the ordered set of known ranks.
func Ranks() []string {
	return []string{RankNewbie, RankMember, RankVIP, RankPremium, RankAdmin, RankOwner}
}

// IsValidRank reports whether name is a known rank.
func IsValidRank(name string) bool {
	for _, r := range Ranks() {
		if r == name {
			return true
		}
	}
	return false
}
