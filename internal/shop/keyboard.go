// Package shop provides the static item catalog and shop keyboards.
package shop

import (
	"fmt"

	tele "gopkg.in/telebot.v3"
)

// Callback data prefixes for shop buttons.
const (
	CallbackBuyItem     = "shop_buy:"  // shop_buy:double_xp
	CallbackUpgradeRank = "shop_rank:" // shop_rank:vip
	CallbackRefresh     = "shop_refresh"
)

// RankOffer is one purchasable rank listed in the shop.
type RankOffer struct {
	Rank  string
	Emoji string
	Price int64
}

// BuildShopPanel creates the shop keyboard: a buy button for every
// affordable item and rank offer, plus a refresh button.
func BuildShopPanel(balance int64, offers []RankOffer) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}

	var rows []tele.Row
	for _, item := range AllItems() {
		if balance < item.Price {
			continue
		}
		btn := markup.Data(
			fmt.Sprintf("%s %s (%d💰)", item.Emoji, item.Name, item.Price),
			CallbackBuyItem+string(item.ID),
		)
		rows = append(rows, markup.Row(btn))
	}

	for _, offer := range offers {
		if balance < offer.Price {
			continue
		}
		btn := markup.Data(
			fmt.Sprintf("%s Upgrade to %s (%d💰)", offer.Emoji, offer.Rank, offer.Price),
			CallbackUpgradeRank+offer.Rank,
		)
		rows = append(rows, markup.Row(btn))
	}

	refreshBtn := markup.Data("🔄 Refresh", CallbackRefresh)
	rows = append(rows, markup.Row(refreshBtn))

	markup.Inline(rows...)
	return markup
}
