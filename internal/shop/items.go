// Package shop provides the static item catalog and shop keyboards.
//
// The catalog is startup configuration, not runtime state: the engine only
// validates affordability and debits. Activation and expiry of timed boosts
// belong to a collaborator inventory system.
package shop

import "time"

// ItemID identifies a catalog item.
type ItemID string

// Catalog item ids.
const (
	ItemDoubleXP         ItemID = "double_xp"
	ItemCoinMultiplier   ItemID = "coin_multiplier"
	ItemCustomTitle      ItemID = "custom_title"
	ItemProfileTheme     ItemID = "profile_theme"
	ItemAchievementBadge ItemID = "achievement_badge"
)

// Category classifies an item.
type Category string

const (
	CategoryBoost    Category = "boost"    // time-limited effect
	CategoryCosmetic Category = "cosmetic" // permanent cosmetic
)

// Item holds the configuration for one catalog entry.
type Item struct {
	ID       ItemID
	Name     string
	Emoji    string
	Price    int64
	Category Category
	// Duration of the granted effect; zero for cosmetics.
	Duration time.Duration
}

// Items contains all available shop items.
// New items only need an entry here.
var Items = map[ItemID]Item{
	ItemDoubleXP: {
		ID:       ItemDoubleXP,
		Name:     "Double XP (1 hour)",
		Emoji:    "🎯",
		Price:    500,
		Category: CategoryBoost,
		Duration: time.Hour,
	},
	ItemCoinMultiplier: {
		ID:       ItemCoinMultiplier,
		Name:     "Coin Multiplier (1 hour)",
		Emoji:    "💰",
		Price:    750,
		Category: CategoryBoost,
		Duration: time.Hour,
	},
	ItemCustomTitle: {
		ID:       ItemCustomTitle,
		Name:     "Custom Title",
		Emoji:    "🌟",
		Price:    2000,
		Category: CategoryCosmetic,
	},
	ItemProfileTheme: {
		ID:       ItemProfileTheme,
		Name:     "Profile Theme",
		Emoji:    "🎨",
		Price:    1500,
		Category: CategoryCosmetic,
	},
	ItemAchievementBadge: {
		ID:       ItemAchievementBadge,
		Name:     "Achievement Badge",
		Emoji:    "🏆",
		Price:    3000,
		Category: CategoryCosmetic,
	},
}

// AllItems returns the catalog in display order.
func AllItems() []Item {
	order := []ItemID{
		ItemDoubleXP,
		ItemCoinMultiplier,
		ItemCustomTitle,
		ItemProfileTheme,
		ItemAchievementBadge,
	}

	items := make([]Item, 0, len(order))
	for _, id := range order {
		if item, ok := Items[id]; ok {
			items = append(items, item)
		}
	}
	return items
}

// GetItem returns the catalog entry for an id.
func GetItem(id ItemID) (Item, bool) {
	item, ok := Items[id]
	return item, ok
}

// IsBoost reports whether the item grants a time-limited effect.
func (i Item) IsBoost() bool {
	return i.Category == CategoryBoost
}
