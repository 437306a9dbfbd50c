// Package web serves the browser version of the game and its JSON API.
package web

import (
	"embed"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"red-or-black-bot/internal/game"
	"red-or-black-bot/internal/ledger"
)

//go:embed static/index.html
var static embed.FS

// Server is the HTTP front end of the game.
type Server struct {
	app    *fiber.App
	engine *game.Engine
	ledger *ledger.Ledger
}

// NewServer builds the fiber app and registers every route.
func NewServer(engine *game.Engine, l *ledger.Ledger) *Server {
	s := &Server{
		app: fiber.New(fiber.Config{
			AppName:               "red-or-black",
			DisableStartupMessage: true,
			ErrorHandler:          errorHandler,
		}),
		engine: engine,
		ledger: l,
	}

	s.app.Use(recoverMiddleware())
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	s.app.Get("/", PlayerSession(), s.index)

	api := s.app.Group("/api", PlayerSession())
	api.Get("/balance", s.balance)
	api.Get("/stats", s.stats)
	api.Post("/play", s.play)
	api.Post("/double/:id", s.acceptDouble)
	api.Delete("/double/:id", s.declineDouble)

	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	log.Info().Str("addr", addr).Msg("Starting web server")
	return s.app.Listen(addr)
}

// Shutdown stops the server, waiting for active requests.
func (s *Server) Shutdown() error {
	log.Info().Msg("Stopping web server...")
	return s.app.Shutdown()
}

func (s *Server) index(c *fiber.Ctx) error {
	page, err := static.ReadFile("static/index.html")
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(http.StatusOK).Send(page)
}

// errorHandler renders errors that escape the handlers as JSON.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	} else {
		log.Error().Err(err).Str("path", c.Path()).Msg("Request failed")
	}
	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"message": http.StatusText(code),
		"data":    nil,
	})
}

func recoverMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Interface("panic", r).
					Str("path", c.Path()).
					Msg("Recovered from panic in web handler")
				err = fiber.ErrInternalServerError
			}
		}()
		return c.Next()
	}
}
