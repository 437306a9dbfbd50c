package web

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"red-or-black-bot/internal/model"
)

const (
	// PlayerCookie holds the browser player's session UUID.
	PlayerCookie = "player"

	playerLocal = "player"
)

// PlayerSession identifies the browser player by cookie, issuing a new UUID
// when the cookie is missing or malformed.
func PlayerSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Cookies(PlayerCookie))
		if err != nil {
			id = uuid.New()
			c.Cookie(&fiber.Cookie{
				Name:     PlayerCookie,
				Value:    id.String(),
				Path:     "/",
				Expires:  time.Now().Add(365 * 24 * time.Hour),
				HTTPOnly: true,
				SameSite: fiber.CookieSameSiteLaxMode,
			})
		}

		c.Locals(playerLocal, model.WebPlayer(id.String()))
		return c.Next()
	}
}

// playerFrom returns the player set by PlayerSession.
func playerFrom(c *fiber.Ctx) model.PlayerID {
	player, _ := c.Locals(playerLocal).(model.PlayerID)
	return player
}
