// Package service provides business logic implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"telegram-xp-bot/internal/config"
	"telegram-xp-bot/internal/model"
	"telegram-xp-bot/internal/pkg/lock"
	"telegram-xp-bot/internal/repository"
	"telegram-xp-bot/internal/shop"
)

// Shop service errors. These are expected business outcomes, not faults,
// and each maps to a specific user-facing message.
var (
	ErrItemNotFound    = errors.New("item not found")
	ErrUnknownRank     = errors.New("unknown rank")
	ErrAlreadyThisRank = errors.New("already at this rank")
)

// InsufficientFundsError is returned when a purchase or upgrade costs more
// than the user has. The balance and rank stay unchanged.
type InsufficientFundsError struct {
	Price   int64
	Balance int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: need %d, have %d", e.Price, e.Balance)
}

// PurchaseResult describes a completed item purchase.
type PurchaseResult struct {
	User *model.User
	Item shop.Item
}

// UpgradeResult describes a completed rank upgrade.
type UpgradeResult struct {
	User  *model.User
	Rank  string
	Price int64
}

// ShopService validates affordability and applies purchase and rank-upgrade
// effects. A per-user lock serializes read-validate-debit so two rapid
// purchases cannot both pass the balance check.
type ShopService struct {
	users    *repository.UserRepository
	txs      *repository.TransactionRepository
	cfg      *config.Config
	userLock *lock.UserLock
}

// NewShopService creates a new ShopService instance.
func NewShopService(
	users *repository.UserRepository,
	txs *repository.TransactionRepository,
	cfg *config.Config,
	userLock *lock.UserLock,
) *ShopService {
	return &ShopService{
		users:    users,
		txs:      txs,
		cfg:      cfg,
		userLock: userLock,
	}
}

// Items returns the full catalog in display order.
func (s *ShopService) Items() []shop.Item {
	return shop.AllItems()
}

// RankOffers returns the purchasable ranks for a user, excluding their
// current rank. Order follows the canonical rank set.
func (s *ShopService) RankOffers(currentRank string) []shop.RankOffer {
	var offers []shop.RankOffer
	for _, rank := range model.Ranks() {
		if rank == currentRank {
			continue
		}
		price, ok := s.cfg.RankPrice(rank)
		if !ok {
			continue
		}
		offers = append(offers, shop.RankOffer{Rank: rank, Price: price})
	}
	return offers
}

// PurchaseItem validates affordability and debits the item price. Timed
// boost activation is a collaborator concern: the engine only charges and
// records the purchase.
func (s *ShopService) PurchaseItem(ctx context.Context, userID int64, itemID shop.ItemID) (*PurchaseResult, error) {
	item, ok := shop.GetItem(itemID)
	if !ok {
		return nil, ErrItemNotFound
	}

	s.userLock.Lock(userID)
	defer s.userLock.Unlock(userID)

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if user.Coins < item.Price {
		return nil, &InsufficientFundsError{Price: item.Price, Balance: user.Coins}
	}

	updated, err := s.users.Debit(ctx, userID, item.Price)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientCoins) {
			return nil, &InsufficientFundsError{Price: item.Price, Balance: user.Coins}
		}
		return nil, fmt.Errorf("failed to debit purchase: %w", err)
	}

	// The debit already committed; an audit failure is logged, not
	// surfaced as a purchase failure.
	if _, err := s.txs.Create(ctx, userID, -item.Price, model.TxTypePurchase, "Bought "+item.Name); err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("Failed to record purchase")
	}

	return &PurchaseResult{User: updated, Item: item}, nil
}

// UpgradeRank validates and applies a paid rank change. The target simply
// overwrites the current rank: upgrades are not cumulative and no ordering
// is enforced.
func (s *ShopService) UpgradeRank(ctx context.Context, userID int64, target string) (*UpgradeResult, error) {
	rank, ok := resolveRank(target)
	if !ok {
		return nil, ErrUnknownRank
	}
	price, ok := s.cfg.RankPrice(rank)
	if !ok {
		return nil, ErrUnknownRank
	}

	s.userLock.Lock(userID)
	defer s.userLock.Unlock(userID)

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if user.Rank == rank {
		return nil, ErrAlreadyThisRank
	}
	if user.Coins < price {
		return nil, &InsufficientFundsError{Price: price, Balance: user.Coins}
	}

	updated, err := s.users.SetRank(ctx, userID, price, rank)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientCoins) {
			return nil, &InsufficientFundsError{Price: price, Balance: user.Coins}
		}
		return nil, fmt.Errorf("failed to set rank: %w", err)
	}

	if _, err := s.txs.Create(ctx, userID, -price, model.TxTypeRankUpgrade, "Upgraded to "+rank); err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("Failed to record rank upgrade")
	}

	return &UpgradeResult{User: updated, Rank: rank, Price: price}, nil
}

// resolveRank maps a case-insensitive name to the canonical rank spelling.
func resolveRank(name string) (string, bool) {
	for _, rank := range model.Ranks() {
		if strings.EqualFold(rank, name) {
			return rank, true
		}
	}
	return "", false
}
