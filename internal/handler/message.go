// Package handler provides Telegram bot command handlers.
package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-xp-bot/internal/pkg/lock"
	"telegram-xp-bot/internal/service"
)

// ActivityHandler awards XP and coins for regular group messages.
type ActivityHandler struct {
	economy  *service.EconomyService
	userLock *lock.UserLock
}

// NewActivityHandler creates a new ActivityHandler.
func NewActivityHandler(economy *service.EconomyService, userLock *lock.UserLock) *ActivityHandler {
	return &ActivityHandler{economy: economy, userLock: userLock}
}

// HandleText processes a text message. A message qualifies for a grant
// when it is sent in a group or supergroup by a human and is not a
// command. Grants are silent except for level-up announcements.
func (h *ActivityHandler) HandleText(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	chat := c.Chat()
	if sender == nil || chat == nil {
		return nil
	}

	if chat.Type != tele.ChatGroup && chat.Type != tele.ChatSuperGroup {
		return nil
	}
	if sender.IsBot {
		return nil
	}
	if strings.HasPrefix(c.Text(), "/") {
		return nil
	}

	return h.userLock.WithLock(sender.ID, func() error {
		result, err := h.economy.AwardMessage(ctx, sender.ID, sender.Username, sender.FirstName)
		if err != nil {
			// Grants are best-effort background work; don't disturb the chat.
			log.Warn().Err(err).Int64("user_id", sender.ID).Msg("Failed to award message")
			return nil
		}

		if !result.LeveledUp {
			return nil
		}

		return c.Reply(fmt.Sprintf(
			"🎊 Congratulations, %s!\n\n"+
				"%s You reached level %d!\n"+
				"⚡ XP: %s\n"+
				"💰 Coins: %s\n\n"+
				"🎁 Level bonus: +%d coins",
			result.User.DisplayName(),
			LevelEmoji(result.NewLevel), result.NewLevel,
			FormatNumber(result.User.XP),
			FormatNumber(result.User.Coins),
			result.LevelBonus,
		))
	})
}
