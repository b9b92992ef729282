// Package handler provides Telegram bot command handlers.
package handler

import (
	"fmt"
	"strings"
	"time"

	"telegram-xp-bot/internal/model"
)

// FormatNumber formats large numbers with K, M, B suffixes.
func FormatNumber(n int64) string {
	switch {
	case n >= 1_000_000_000:
		return fmt.Sprintf("%.1fB", float64(n)/1_000_000_000)
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

// ProgressBar renders a glyph progress bar of the given length.
func ProgressBar(current, total int64, length int) string {
	if total <= 0 {
		return strings.Repeat("▱", length)
	}
	filled := int(current * int64(length) / total)
	if filled > length {
		filled = length
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("▰", filled) + strings.Repeat("▱", length-filled)
}

// RankEmoji returns the emoji for a rank.
func RankEmoji(rank string) string {
	switch rank {
	case model.RankNewbie:
		return "🌱"
	case model.RankMember:
		return "👤"
	case model.RankVIP:
		return "⭐"
	case model.RankPremium:
		return "💎"
	case model.RankAdmin:
		return "👑"
	case model.RankOwner:
		return "🔥"
	default:
		return "👤"
	}
}

// LevelEmoji returns the emoji tier for a level.
func LevelEmoji(level int) string {
	switch {
	case level >= 100:
		return "🏆"
	case level >= 50:
		return "💎"
	case level >= 25:
		return "⭐"
	case level >= 10:
		return "🌟"
	default:
		return "🌱"
	}
}

// FormatDuration renders a wait duration as "3h 25m".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
