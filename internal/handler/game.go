package handler

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"red-or-black-bot/internal/config"
	"red-or-black-bot/internal/game"
	"red-or-black-bot/internal/ledger"
)

// GameHandler handles /play and the double or nothing button.
type GameHandler struct {
	engine *game.Engine
	ledger *ledger.Ledger

	spinFrames   int
	spinInterval time.Duration
}

// NewGameHandler creates a new GameHandler.
func NewGameHandler(cfg *config.GameConfig, engine *game.Engine, l *ledger.Ledger) *GameHandler {
	return &GameHandler{
		engine:       engine,
		ledger:       l,
		spinFrames:   cfg.SpinFrames,
		spinInterval: cfg.SpinInterval,
	}
}

// HandlePlay handles the /play <amount> <red|black> command.
func (h *GameHandler) HandlePlay(c tele.Context) error {
	ctx := context.Background()
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	amount, side, err := ParsePlayArgs(c.Args())
	if err != nil {
		return c.Reply(ErrorText(err))
	}

	player := PlayerOf(sender)
	h.ledger.SetName(player, DisplayName(sender))

	// Reject before spinning; Resolve checks again under the player lock
	if err := h.engine.ValidateBet(amount, side); err != nil {
		return c.Reply(ErrorText(err))
	}
	if amount > h.ledger.Balance(player) {
		return c.Reply(ErrorText(game.ErrInsufficientBalance))
	}

	msg := h.spin(c)

	res, err := h.engine.Resolve(ctx, player, amount, side)
	if err != nil {
		log.Debug().Err(err).Str("player", string(player)).Int64("amount", amount).Msg("Wager rejected")
		return h.show(c, msg, ErrorText(err), nil)
	}

	log.Info().
		Str("player", string(player)).
		Int64("amount", amount).
		Str("side", string(side)).
		Str("drawn", string(res.Outcome.Side)).
		Bool("won", res.Outcome.Won).
		Int64("balance", res.Balance).
		Msg("Wager resolved")

	window := int(h.engine.DoubleTimeout().Seconds())
	if res.Offer == nil {
		return h.show(c, msg, ResultText(res, window), nil)
	}

	markup := &tele.ReplyMarkup{}
	btn := markup.Data("🎲 Double or nothing", DoubleCallback, res.Offer.ID)
	markup.Inline(markup.Row(btn))

	shown, err := h.send(c, msg, ResultText(res, window), markup)
	if err != nil {
		log.Error().Err(err).Str("offer_id", res.Offer.ID).Msg("Failed to show double or nothing offer")
		if derr := h.engine.Decline(res.Offer.ID, player); derr != nil {
			log.Debug().Err(derr).Str("offer_id", res.Offer.ID).Msg("Failed to withdraw double or nothing offer")
		}
		return err
	}

	go h.watchOffer(c.Bot(), shown, res)
	return nil
}

// HandleDoubleCallback handles a press of the 🎲 button.
// Only the player who won the wager may accept it.
func (h *GameHandler) HandleDoubleCallback(c tele.Context) error {
	ctx := context.Background()
	callback := c.Callback()
	sender := c.Sender()
	if callback == nil || sender == nil {
		return nil
	}

	offerID, ok := ParseDoubleCallback(callback.Data)
	if !ok {
		return c.Respond()
	}

	player := PlayerOf(sender)
	offer, found := h.engine.Offer(offerID)

	out, err := h.engine.Accept(ctx, offerID, player)
	if err != nil {
		log.Debug().Err(err).Str("offer_id", offerID).Str("player", string(player)).Msg("Double or nothing rejected")
		return c.Respond(&tele.CallbackResponse{Text: ErrorText(err), ShowAlert: true})
	}

	log.Info().
		Str("player", string(player)).
		Str("offer_id", offerID).
		Str("kind", out.Kind.String()).
		Int64("balance", out.Balance).
		Msg("Double or nothing settled")

	_ = c.Respond(&tele.CallbackResponse{Text: "🎲 Spinning again..."})

	if found {
		res := &game.Result{
			Player: player,
			Outcome: game.Outcome{
				Chosen: offer.Chosen,
				Side:   offer.Chosen,
				Won:    true,
				Amount: offer.Amount,
			},
		}
		return c.Edit(DoubleResultText(res, out))
	}
	return nil
}

// spin sends the wheel animation and returns its message, or nil if it could
// not be sent.
func (h *GameHandler) spin(c tele.Context) *tele.Message {
	if h.spinFrames <= 0 {
		return nil
	}

	msg, err := c.Bot().Reply(c.Message(), SpinFrame(0))
	if err != nil {
		log.Debug().Err(err).Msg("Failed to send spin animation")
		return nil
	}

	for i := 1; i < h.spinFrames; i++ {
		time.Sleep(h.spinInterval)
		if _, err := c.Bot().Edit(msg, SpinFrame(i)); err != nil {
			log.Debug().Err(err).Int("frame", i).Msg("Failed to edit spin animation")
		}
	}
	time.Sleep(h.spinInterval)
	return msg
}

// send replaces the animation with text, or replies if there is no animation.
func (h *GameHandler) send(c tele.Context, msg *tele.Message, text string, markup *tele.ReplyMarkup) (*tele.Message, error) {
	opts := []interface{}{}
	if markup != nil {
		opts = append(opts, markup)
	}

	if msg != nil {
		if edited, err := c.Bot().Edit(msg, text, opts...); err == nil {
			return edited, nil
		}
	}
	return c.Bot().Reply(c.Message(), text, opts...)
}

func (h *GameHandler) show(c tele.Context, msg *tele.Message, text string, markup *tele.ReplyMarkup) error {
	_, err := h.send(c, msg, text, markup)
	return err
}

// watchOffer removes the 🎲 button once the offer closes without being
// accepted. Accepted offers are rendered by HandleDoubleCallback.
func (h *GameHandler) watchOffer(bot *tele.Bot, msg *tele.Message, res *game.Result) {
	<-res.Offer.Done()

	out, _ := res.Offer.Outcome()
	if out.Kind != game.NotDoubled {
		return
	}

	if _, err := bot.Edit(msg, DoubleResultText(res, out)); err != nil {
		log.Debug().Err(err).Str("offer_id", res.Offer.ID).Msg("Failed to close double or nothing offer")
	}
}
