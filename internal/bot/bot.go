// Package bot provides the Telegram bot initialization and handler registration.
package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"red-or-black-bot/internal/config"
	"red-or-black-bot/internal/game"
	"red-or-black-bot/internal/handler"
	"red-or-black-bot/internal/ledger"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot *tele.Bot
	cfg *config.Config

	accountHandler *handler.AccountHandler
	gameHandler    *handler.GameHandler
}

// Dependencies holds all the dependencies needed by the bot handlers.
type Dependencies struct {
	Config *config.Config
	Ledger *ledger.Ledger
	Engine *game.Engine
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

	return newBot(teleBot, deps), nil
}

func newBot(teleBot *tele.Bot, deps *Dependencies) *Bot {
	b := &Bot{
		bot:            teleBot,
		cfg:            deps.Config,
		accountHandler: handler.NewAccountHandler(deps.Ledger, deps.Engine),
		gameHandler:    handler.NewGameHandler(&deps.Config.Game, deps.Engine, deps.Ledger),
	}

	b.registerMiddleware()
	b.registerHandlers()
	return b
}

// registerMiddleware registers all middleware.
func (b *Bot) registerMiddleware() {
	b.bot.Use(RecoveryMiddleware())

	// Whitelist middleware - check if chat is allowed
	b.bot.Use(WhitelistMiddleware(b.cfg))

	b.bot.Use(LoggingMiddleware())
}

// registerHandlers registers all command and callback handlers.
func (b *Bot) registerHandlers() {
	b.bot.Handle("/start", b.accountHandler.HandleStart)
	b.bot.Handle("/balance", b.accountHandler.HandleBalance)
	b.bot.Handle("/stats", b.accountHandler.HandleStats)
	b.bot.Handle("/top", b.accountHandler.HandleTop)
	b.bot.Handle("/rules", b.accountHandler.HandleRules)
	b.bot.Handle("/help", b.accountHandler.HandleHelp)

	b.bot.Handle("/play", b.gameHandler.HandlePlay)

	b.bot.Handle(tele.OnCallback, b.handleCallback)
}

// handleCallback routes inline button presses by their data prefix.
func (b *Bot) handleCallback(c tele.Context) error {
	callback := c.Callback()
	if callback == nil {
		return nil
	}

	// Telebot v3 adds a \f prefix to callback data
	data := strings.TrimPrefix(callback.Data, "\f")
	log.Debug().Str("data", data).Msg("Callback received")

	if strings.HasPrefix(data, handler.DoubleCallback+"|") {
		return b.gameHandler.HandleDoubleCallback(c)
	}

	return c.Respond()
}

// Start starts the bot polling. It blocks until Stop is called.
func (b *Bot) Start() {
	log.Info().Str("username", b.bot.Me.Username).Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
}
