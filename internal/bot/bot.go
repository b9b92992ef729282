// Package bot provides the Telegram bot initialization and handler
// registration.
package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-xp-bot/internal/config"
	"telegram-xp-bot/internal/handler"
	"telegram-xp-bot/internal/pkg/lock"
	"telegram-xp-bot/internal/service"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot      *tele.Bot
	cfg      *config.Config
	economy  *service.EconomyService
	shop     *service.ShopService
	userLock *lock.UserLock

	accountHandler  *handler.AccountHandler
	activityHandler *handler.ActivityHandler
	shopHandler     *handler.ShopHandler
}

// Dependencies holds everything the bot handlers need.
type Dependencies struct {
	Config         *config.Config
	EconomyService *service.EconomyService
	ShopService    *service.ShopService
	UserLock       *lock.UserLock
}

// New creates a new Bot instance with the given dependencies.
func New(deps *Dependencies) (*Bot, error) {
	if deps.Config.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pref := tele.Settings{
		Token:  deps.Config.Bot.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{
		bot:      teleBot,
		cfg:      deps.Config,
		economy:  deps.EconomyService,
		shop:     deps.ShopService,
		userLock: deps.UserLock,
	}

	b.accountHandler = handler.NewAccountHandler(deps.EconomyService, deps.UserLock)
	b.activityHandler = handler.NewActivityHandler(deps.EconomyService, deps.UserLock)
	b.shopHandler = handler.NewShopHandler(deps.ShopService, deps.EconomyService)

	b.registerMiddleware()
	b.registerHandlers()

	return b, nil
}

// registerMiddleware registers all middleware.
func (b *Bot) registerMiddleware() {
	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(WhitelistMiddleware(b.cfg))
	b.bot.Use(LoggingMiddleware())
}

// registerHandlers registers all command and callback handlers.
func (b *Bot) registerHandlers() {
	b.bot.Handle("/start", b.accountHandler.HandleStart)
	b.bot.Handle("/help", b.accountHandler.HandleHelp)
	b.bot.Handle("/me", b.accountHandler.HandleProfile)
	b.bot.Handle("/daily", b.accountHandler.HandleDaily)
	b.bot.Handle("/top", b.accountHandler.HandleTop)
	b.bot.Handle("/shop", b.shopHandler.HandleShop)

	// XP/coin grants for regular group messages
	b.bot.Handle(tele.OnText, b.activityHandler.HandleText)

	// Inline keyboard buttons
	b.bot.Handle(tele.OnCallback, b.handleCallback)
}

// handleCallback routes inline button presses to the right handler.
func (b *Bot) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		return nil
	}

	// Telebot v3 may add a \f prefix to callback data
	data := strings.TrimPrefix(callback.Data, "\f")

	if strings.HasPrefix(data, "shop_") {
		return b.shopHandler.HandleShopCallback(c)
	}

	switch data {
	case handler.CallbackStart:
		b.answer(c)
		return b.accountHandler.HandleStart(c)
	case handler.CallbackProfile:
		b.answer(c)
		return b.accountHandler.HandleProfile(c)
	case handler.CallbackDaily:
		b.answer(c)
		return b.accountHandler.HandleDaily(c)
	case handler.CallbackHelp:
		b.answer(c)
		return b.accountHandler.HandleHelp(c)
	case handler.CallbackShop:
		b.answer(c)
		return b.shopHandler.HandleShop(c)
	}

	log.Debug().Str("data", data).Msg("Unknown callback")
	return c.Respond(&tele.CallbackResponse{Text: "❌ Unknown option"})
}

// answer acknowledges a callback so the client stops the button spinner.
func (b *Bot) answer(c tele.Context) {
	if err := c.Respond(&tele.CallbackResponse{}); err != nil {
		log.Debug().Err(err).Msg("Failed to answer callback")
	}
}

// Start starts the bot polling. Blocks until Stop is called.
func (b *Bot) Start() {
	log.Info().Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
}
