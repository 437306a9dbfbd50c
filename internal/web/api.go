package web

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"red-or-black-bot/internal/game"
	"red-or-black-bot/internal/model"
)

// PlayRequest is the body of POST /api/play. Amount is kept raw so that
// fractional or non-numeric amounts are rejected as invalid bets rather than
// as malformed JSON.
type PlayRequest struct {
	Amount json.RawMessage `json:"amount"`
	Side   string          `json:"side"`
}

// parseAmount accepts a JSON integer or a string holding one.
func parseAmount(raw json.RawMessage) (int64, error) {
	text := strings.TrimSpace(string(raw))
	if unquoted, err := strconv.Unquote(text); err == nil {
		text = strings.TrimSpace(unquoted)
	}

	amount, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return 0, game.ErrInvalidAmount
	}
	return amount, nil
}

// OfferResponse describes an open double or nothing offer.
type OfferResponse struct {
	ID        string    `json:"id"`
	Amount    int64     `json:"amount"`
	ExpiresAt time.Time `json:"expires_at"`
}

// PlayResponse is the result of a primary wager.
type PlayResponse struct {
	Chosen  model.Side     `json:"chosen"`
	Side    model.Side     `json:"side"`
	Won     bool           `json:"won"`
	Amount  int64          `json:"amount"`
	Balance int64          `json:"balance"`
	Offer   *OfferResponse `json:"offer"`
}

// DoubleResponse is the settled double or nothing offer.
type DoubleResponse struct {
	Kind    string     `json:"kind"`
	Side    model.Side `json:"side,omitempty"`
	Amount  int64      `json:"amount"`
	Balance int64      `json:"balance"`
}

func jsonSuccess(c *fiber.Ctx, message string, data any) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": message,
		"data":    data,
	})
}

func jsonError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
		"data":    nil,
	})
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrInvalidAmount),
		errors.Is(err, game.ErrInvalidSide),
		errors.Is(err, game.ErrBetTooHigh):
		return fiber.StatusBadRequest
	case errors.Is(err, game.ErrInsufficientBalance):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, game.ErrOfferNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, game.ErrOfferClosed):
		return fiber.StatusConflict
	case errors.Is(err, game.ErrNotOfferOwner):
		return fiber.StatusForbidden
	case errors.Is(err, game.ErrBusy):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func engineError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		return err
	}
	return jsonError(c, status, err.Error())
}

func (s *Server) balance(c *fiber.Ctx) error {
	return jsonSuccess(c, "Balance retrieved successfully", fiber.Map{
		"balance": s.ledger.Balance(playerFrom(c)),
	})
}

func (s *Server) stats(c *fiber.Ctx) error {
	stats := s.ledger.Stats(playerFrom(c))
	return jsonSuccess(c, "Statistics retrieved successfully", fiber.Map{
		"stats":    stats,
		"win_rate": stats.WinRate(),
	})
}

func (s *Server) play(c *fiber.Ctx) error {
	var req PlayRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "INVALID_JSON")
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		return engineError(c, err)
	}

	side, ok := model.ParseSide(req.Side)
	if !ok {
		return engineError(c, game.ErrInvalidSide)
	}

	player := playerFrom(c)
	res, err := s.engine.Resolve(c.UserContext(), player, amount, side)
	if err != nil {
		return engineError(c, err)
	}

	log.Info().
		Str("player", string(player)).
		Int64("amount", amount).
		Str("side", string(side)).
		Bool("won", res.Outcome.Won).
		Int64("balance", res.Balance).
		Msg("Wager resolved")

	resp := PlayResponse{
		Chosen:  res.Outcome.Chosen,
		Side:    res.Outcome.Side,
		Won:     res.Outcome.Won,
		Amount:  res.Outcome.Amount,
		Balance: res.Balance,
	}
	if res.Offer != nil {
		resp.Offer = &OfferResponse{
			ID:        res.Offer.ID,
			Amount:    res.Offer.Amount,
			ExpiresAt: res.Offer.ExpiresAt,
		}
	}

	msg := "You lost!"
	if res.Outcome.Won {
		msg = "You won!"
	}
	return jsonSuccess(c, msg, resp)
}

func (s *Server) acceptDouble(c *fiber.Ctx) error {
	out, err := s.engine.Accept(c.UserContext(), c.Params("id"), playerFrom(c))
	if err != nil {
		return engineError(c, err)
	}

	msg := "DOUBLE LOSS!"
	if out.Kind == game.DoubleWin {
		msg = "DOUBLE WIN!"
	}
	return jsonSuccess(c, msg, doubleResponse(out))
}

func (s *Server) declineDouble(c *fiber.Ctx) error {
	player := playerFrom(c)
	if err := s.engine.Decline(c.Params("id"), player); err != nil {
		return engineError(c, err)
	}

	return jsonSuccess(c, "Winnings collected", DoubleResponse{
		Kind:    game.NotDoubled.String(),
		Balance: s.ledger.Balance(player),
	})
}

func doubleResponse(out game.DoubleResult) DoubleResponse {
	return DoubleResponse{
		Kind:    out.Kind.String(),
		Side:    out.Side,
		Amount:  out.Amount,
		Balance: out.Balance,
	}
}
