// Package handler provides Telegram bot command handlers.
package handler

import (
	tele "gopkg.in/telebot.v3"

	"red-or-black-bot/internal/game"
	"red-or-black-bot/internal/ledger"
	"red-or-black-bot/internal/model"
)

// TopLimit is how many players /top lists.
const TopLimit = 10

// AccountHandler handles balance, statistics and informational commands.
type AccountHandler struct {
	ledger *ledger.Ledger
	engine *game.Engine
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(l *ledger.Ledger, engine *game.Engine) *AccountHandler {
	return &AccountHandler{
		ledger: l,
		engine: engine,
	}
}

// PlayerOf returns the ledger key for a Telegram user.
func PlayerOf(sender *tele.User) model.PlayerID {
	return model.TelegramPlayer(sender.ID)
}

// DisplayName prefers @username and falls back to the first name.
func DisplayName(sender *tele.User) string {
	if sender.Username != "" {
		return "@" + sender.Username
	}
	return sender.FirstName
}

// touch opens the sender's account and records the current display name.
func (h *AccountHandler) touch(sender *tele.User) model.PlayerID {
	player := PlayerOf(sender)
	h.ledger.SetName(player, DisplayName(sender))
	return player
}

// HandleStart handles the /start command.
// The account is opened with the initial balance on first contact.
func (h *AccountHandler) HandleStart(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	player := h.touch(sender)
	return c.Reply(WelcomeText(
		DisplayName(sender),
		h.ledger.Balance(player),
		h.engine.MinBet(),
		h.engine.MaxBet(),
		h.ledger.InitialBalance(),
	))
}

// HandleBalance handles the /balance command.
func (h *AccountHandler) HandleBalance(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	player := h.touch(sender)
	return c.Reply(BalanceText(h.ledger.Balance(player)))
}

// HandleStats handles the /stats command.
func (h *AccountHandler) HandleStats(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	player := h.touch(sender)
	return c.Reply(StatsText(h.ledger.Stats(player)))
}

// HandleTop handles the /top command.
// Displays the richest players in this process.
func (h *AccountHandler) HandleTop(c tele.Context) error {
	return c.Reply(TopText(h.ledger.Top(TopLimit)))
}

// HandleRules handles the /rules command.
func (h *AccountHandler) HandleRules(c tele.Context) error {
	return c.Reply(RulesText(h.engine.MinBet(), h.engine.MaxBet(), int(h.engine.DoubleTimeout().Seconds())))
}

// HandleHelp handles the /help command.
func (h *AccountHandler) HandleHelp(c tele.Context) error {
	return c.Reply(HelpText())
}
