// Package handler provides Telegram bot command handlers.
package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v3"

	"telegram-xp-bot/internal/pkg/lock"
	"telegram-xp-bot/internal/service"
)

// Menu callback data for the main inline keyboard.
const (
	CallbackProfile = "profile"
	CallbackShop    = "shop"
	CallbackDaily   = "daily"
	CallbackHelp    = "help"
	CallbackStart   = "start"
)

// AccountHandler handles account-related commands: /start, /help, /me,
// /daily and /top.
type AccountHandler struct {
	economy  *service.EconomyService
	userLock *lock.UserLock
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(economy *service.EconomyService, userLock *lock.UserLock) *AccountHandler {
	return &AccountHandler{economy: economy, userLock: userLock}
}

func mainMenu() *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(markup.Data("📊 My Profile", CallbackProfile)),
		markup.Row(
			markup.Data("🛒 Shop", CallbackShop),
			markup.Data("🎁 Daily Reward", CallbackDaily),
		),
		markup.Row(markup.Data("📋 Help", CallbackHelp)),
	)
	return markup
}

// HandleStart handles the /start command: lazily creates the account and
// shows the welcome menu.
func (h *AccountHandler) HandleStart(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	return h.userLock.WithLock(sender.ID, func() error {
		user, created, err := h.economy.EnsureUser(ctx, sender.ID, sender.Username, sender.FirstName)
		if err != nil {
			return c.Send("❌ Something went wrong, please try again later")
		}

		var text string
		if created {
			text = fmt.Sprintf(
				"🎉 Welcome, %s!\n\n"+
					"Earn XP and coins by chatting in groups.\n"+
					"Starting coins: %d\n\n"+
					"Commands:\n"+
					"/me - your profile\n"+
					"/daily - daily reward\n"+
					"/shop - upgrades shop\n"+
					"/top - leaderboard",
				user.DisplayName(), user.Coins,
			)
		} else {
			text = fmt.Sprintf(
				"👋 Welcome back, %s!\n\n"+
					"%s Level %d | 💰 %s coins",
				user.DisplayName(), LevelEmoji(user.Level), user.Level, FormatNumber(user.Coins),
			)
		}

		return c.Send(text, mainMenu())
	})
}

// HandleHelp handles the /help command.
func (h *AccountHandler) HandleHelp(c tele.Context) error {
	text := "📋 Available commands:\n\n" +
		"/start - welcome and main menu\n" +
		"/help - this list\n" +
		"/me - your profile\n" +
		"/daily - claim the daily reward\n" +
		"/shop - items and rank upgrades\n" +
		"/top - XP leaderboard\n\n" +
		"💡 Tips:\n" +
		"• Write messages in groups to earn XP and coins\n" +
		"• Claim the daily reward every day to grow your streak bonus\n" +
		"• Spend coins in the shop or on rank upgrades"

	markup := &tele.ReplyMarkup{}
	markup.Inline(markup.Row(markup.Data("🔙 Main menu", CallbackStart)))
	return c.Send(text, markup)
}

// HandleProfile handles the /me command: profile with level progress.
func (h *AccountHandler) HandleProfile(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	profile, err := h.economy.Profile(ctx, sender.ID)
	if errors.Is(err, service.ErrUserNotFound) {
		// First interaction via /me: create the record, then reload.
		if _, _, err := h.economy.EnsureUser(ctx, sender.ID, sender.Username, sender.FirstName); err != nil {
			return c.Send("❌ Failed to load your profile, please try again later")
		}
		profile, err = h.economy.Profile(ctx, sender.ID)
		if err != nil {
			return c.Send("❌ Failed to load your profile, please try again later")
		}
	} else if err != nil {
		return c.Send("❌ Failed to load your profile, please try again later")
	}

	u := profile.User
	handle := u.Username
	if handle == "" {
		handle = "not set"
	}

	text := fmt.Sprintf(
		"👤 Profile\n"+
			"━━━━━━━━━━━━━━━\n"+
			"🏷 Name: %s\n"+
			"🆔 Handle: @%s\n\n"+
			"%s Level: %d\n"+
			"%s Rank: %s\n\n"+
			"⚡ XP: %s\n"+
			"📊 Progress: %s (%d/%d)\n"+
			"🎯 XP to next level: %s\n\n"+
			"💰 Coins: %s\n"+
			"💬 Messages: %s\n"+
			"🔥 Daily streak: %d days\n\n"+
			"📅 Joined: %s",
		u.DisplayName(),
		handle,
		LevelEmoji(u.Level), u.Level,
		RankEmoji(u.Rank), u.Rank,
		FormatNumber(u.XP),
		ProgressBar(profile.XPInto, profile.XPSpan, 15), profile.XPInto, profile.XPSpan,
		FormatNumber(profile.XPToNext),
		FormatNumber(u.Coins),
		FormatNumber(u.TotalMessages),
		u.DailyStreak,
		u.JoinDate.Format("2006-01-02"),
	)

	markup := &tele.ReplyMarkup{}
	markup.Inline(
		markup.Row(
			markup.Data("🛒 Shop", CallbackShop),
			markup.Data("🎁 Daily Reward", CallbackDaily),
		),
	)
	return c.Send(text, markup)
}

// HandleDaily handles the /daily command.
func (h *AccountHandler) HandleDaily(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	return h.userLock.WithLock(sender.ID, func() error {
		result, err := h.economy.ClaimDaily(ctx, sender.ID, sender.Username, sender.FirstName)
		if err != nil {
			var claimed *service.AlreadyClaimedError
			if errors.As(err, &claimed) {
				return c.Send(fmt.Sprintf(
					"⏰ You already claimed today's reward!\n\n"+
						"🕐 Time left: %s",
					FormatDuration(claimed.TimeLeft),
				))
			}
			return c.Send("❌ Failed to claim the daily reward, please try again later")
		}

		var b strings.Builder
		fmt.Fprintf(&b, "🎁 Daily reward!\n\n")
		fmt.Fprintf(&b, "💰 Coins: +%s\n", FormatNumber(result.Coins))
		fmt.Fprintf(&b, "⚡ XP: +%s\n", FormatNumber(result.XP))
		fmt.Fprintf(&b, "🔥 Streak: %d days\n", result.Streak)
		if result.BonusPercent > 0 {
			fmt.Fprintf(&b, "\n🎉 Streak bonus: +%d%%\n", result.BonusPercent)
		}
		if result.LeveledUp {
			fmt.Fprintf(&b, "\n🎊 Congratulations! You reached level %d!\n", result.NewLevel)
		}
		b.WriteString("\n💡 Come back tomorrow for a bigger reward!")

		return c.Send(b.String(), mainMenu())
	})
}

// HandleTop handles the /top command: the XP leaderboard.
func (h *AccountHandler) HandleTop(c tele.Context) error {
	ctx := context.Background()

	users, err := h.economy.Leaderboard(ctx, 10)
	if err != nil {
		return c.Send("❌ Failed to load the leaderboard, please try again later")
	}
	if len(users) == 0 {
		return c.Send("🏆 The leaderboard is empty so far. Start chatting!")
	}

	medals := []string{"🥇", "🥈", "🥉"}
	var b strings.Builder
	b.WriteString("🏆 Leaderboard\n━━━━━━━━━━━━━━━\n")
	for i, u := range users {
		place := fmt.Sprintf("%d.", i+1)
		if i < len(medals) {
			place = medals[i]
		}
		fmt.Fprintf(&b, "%s %s — Level %d, %s XP\n",
			place, u.DisplayName(), u.Level, FormatNumber(u.XP))
	}

	return c.Send(b.String())
}
