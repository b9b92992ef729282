// Package handler provides Telegram bot command handlers.
package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-xp-bot/internal/service"
	"telegram-xp-bot/internal/shop"
)

// ShopHandler handles the /shop command and its purchase callbacks.
type ShopHandler struct {
	shopService *service.ShopService
	economy     *service.EconomyService
}

// NewShopHandler creates a new ShopHandler.
func NewShopHandler(shopService *service.ShopService, economy *service.EconomyService) *ShopHandler {
	return &ShopHandler{shopService: shopService, economy: economy}
}

// HandleShop handles the /shop command: the catalog plus rank upgrades,
// with buy buttons for everything the user can afford. The user's current
// rank is never offered.
func (h *ShopHandler) HandleShop(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	user, _, err := h.economy.EnsureUser(ctx, sender.ID, sender.Username, sender.FirstName)
	if err != nil {
		return c.Send("❌ Failed to open the shop, please try again later")
	}

	offers := h.rankOffers(user.Rank)

	var b strings.Builder
	fmt.Fprintf(&b, "🛒 Upgrades Shop\n\n💰 Your balance: %s coins\n\n", FormatNumber(user.Coins))

	b.WriteString("🛍 Items:\n\n")
	for _, item := range h.shopService.Items() {
		marker := "❌"
		if user.Coins >= item.Price {
			marker = "✅"
		}
		fmt.Fprintf(&b, "%s %s %s — %s coins\n", marker, item.Emoji, item.Name, FormatNumber(item.Price))
	}

	b.WriteString("\n⭐ Rank upgrades:\n\n")
	for _, offer := range offers {
		marker := "❌"
		if user.Coins >= offer.Price {
			marker = "✅"
		}
		fmt.Fprintf(&b, "%s %s %s — %s coins\n", marker, offer.Emoji, offer.Rank, FormatNumber(offer.Price))
	}

	return c.Send(b.String(), shop.BuildShopPanel(user.Coins, offers))
}

// rankOffers decorates the service's rank list with presentation emoji.
func (h *ShopHandler) rankOffers(currentRank string) []shop.RankOffer {
	offers := h.shopService.RankOffers(currentRank)
	for i := range offers {
		offers[i].Emoji = RankEmoji(offers[i].Rank)
	}
	return offers
}

// HandleShopCallback routes shop button presses: refresh, item purchases
// and rank upgrades.
func (h *ShopHandler) HandleShopCallback(c tele.Context) error {
	callback := c.Callback()
	sender := c.Sender()
	if callback == nil || sender == nil {
		return nil
	}

	data := strings.TrimPrefix(callback.Data, "\f")

	switch {
	case data == shop.CallbackRefresh:
		if err := c.Respond(&tele.CallbackResponse{}); err != nil {
			log.Debug().Err(err).Msg("Failed to answer callback")
		}
		return h.HandleShop(c)

	case strings.HasPrefix(data, shop.CallbackBuyItem):
		itemID := shop.ItemID(strings.TrimPrefix(data, shop.CallbackBuyItem))
		return h.handleBuyItem(c, itemID)

	case strings.HasPrefix(data, shop.CallbackUpgradeRank):
		rank := strings.TrimPrefix(data, shop.CallbackUpgradeRank)
		return h.handleUpgradeRank(c, rank)
	}

	return c.Respond(&tele.CallbackResponse{Text: "❌ Unknown option"})
}

func (h *ShopHandler) handleBuyItem(c tele.Context, itemID shop.ItemID) error {
	ctx := context.Background()
	sender := c.Sender()

	result, err := h.shopService.PurchaseItem(ctx, sender.ID, itemID)
	if err != nil {
		return h.respondPurchaseError(c, err)
	}

	if err := c.Respond(&tele.CallbackResponse{Text: "✅ Purchased!"}); err != nil {
		log.Debug().Err(err).Msg("Failed to answer callback")
	}

	return c.Edit(fmt.Sprintf(
		"✅ Purchase complete!\n\n"+
			"🛍 Item: %s %s\n"+
			"💰 Price: %s coins\n"+
			"💰 Remaining balance: %s coins\n\n"+
			"🎉 Enjoy!",
		result.Item.Emoji, result.Item.Name,
		FormatNumber(result.Item.Price),
		FormatNumber(result.User.Coins),
	))
}

func (h *ShopHandler) handleUpgradeRank(c tele.Context, rank string) error {
	ctx := context.Background()
	sender := c.Sender()

	result, err := h.shopService.UpgradeRank(ctx, sender.ID, rank)
	if err != nil {
		return h.respondPurchaseError(c, err)
	}

	if err := c.Respond(&tele.CallbackResponse{Text: "✅ Rank upgraded!"}); err != nil {
		log.Debug().Err(err).Msg("Failed to answer callback")
	}

	return c.Edit(fmt.Sprintf(
		"🎉 Congratulations!\n\n"+
			"%s You are now %s!\n\n"+
			"💰 Cost: %s coins\n"+
			"💰 Remaining balance: %s coins",
		RankEmoji(result.Rank), result.Rank,
		FormatNumber(result.Price),
		FormatNumber(result.User.Coins),
	))
}

// respondPurchaseError maps business failures to specific alerts; anything
// else is a store fault reported generically.
func (h *ShopHandler) respondPurchaseError(c tele.Context, err error) error {
	var funds *service.InsufficientFundsError
	switch {
	case errors.As(err, &funds):
		return c.Respond(&tele.CallbackResponse{
			Text: fmt.Sprintf("❌ Not enough coins: need %s, you have %s",
				FormatNumber(funds.Price), FormatNumber(funds.Balance)),
			ShowAlert: true,
		})
	case errors.Is(err, service.ErrAlreadyThisRank):
		return c.Respond(&tele.CallbackResponse{
			Text:      "❌ You already have this rank",
			ShowAlert: true,
		})
	case errors.Is(err, service.ErrItemNotFound), errors.Is(err, service.ErrUnknownRank):
		return c.Respond(&tele.CallbackResponse{
			Text:      "❌ This offer is no longer available",
			ShowAlert: true,
		})
	default:
		log.Error().Err(err).Msg("Purchase failed")
		return c.Respond(&tele.CallbackResponse{
			Text:      "❌ Something went wrong, please try again later",
			ShowAlert: true,
		})
	}
}
