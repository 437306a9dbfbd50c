// Package main is the entry point for the Red or Black bot.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"red-or-black-bot/internal/bot"
	"red-or-black-bot/internal/config"
	"red-or-black-bot/internal/game"
	"red-or-black-bot/internal/ledger"
	"red-or-black-bot/internal/pkg/db"
	"red-or-black-bot/internal/pkg/lock"
	"red-or-black-bot/internal/repository"
	"red-or-black-bot/internal/web"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().
		Int64("initial_balance", cfg.Game.InitialBalance).
		Int64("min_bet", cfg.Game.MinBet).
		Int64("max_bet", cfg.Game.MaxBet).
		Dur("double_timeout", cfg.Game.DoubleTimeout).
		Msg("Configuration loaded successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	accounts := ledger.New(cfg.Game.InitialBalance)
	engine := game.New(accounts, lock.New(), &game.Config{
		MinBet:             cfg.Game.MinBet,
		MaxBet:             cfg.Game.MaxBet,
		DoubleTimeout:      cfg.Game.DoubleTimeout,
		CountDoubleInStats: cfg.Game.CountDoubleInStats,
		LockTimeout:        cfg.Game.LockTimeout,
	})
	defer engine.Close()

	if cfg.Journal.Enabled {
		dbPool, err := db.NewPool(ctx, &cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer dbPool.Close()

		journal := repository.NewWagerRepository(dbPool.Pool)
		if err := journal.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to run database migrations")
		}
		engine.SetJournal(journal)
		log.Info().Msg("Wager journal enabled")
	}

	var telegramBot *bot.Bot
	if cfg.Bot.Enabled {
		telegramBot, err = bot.New(&bot.Dependencies{
			Config: cfg,
			Ledger: accounts,
			Engine: engine,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create bot")
		}
		go telegramBot.Start()
	}

	var server *web.Server
	if cfg.Web.Enabled {
		server = web.NewServer(engine, accounts)
		go func() {
			if err := server.Listen(cfg.Web.Addr); err != nil {
				log.Fatal().Err(err).Msg("Web server failed")
			}
		}()
	}

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	if telegramBot != nil {
		telegramBot.Stop()
	}
	if server != nil {
		if err := server.Shutdown(); err != nil {
			log.Error().Err(err).Msg("Web server forced to shutdown")
		}
	}

	log.Info().
		Int("open_offers", engine.PendingOffers()).
		Int("players", accounts.Count()).
		Msg("Shut down gracefully")
}
