package bot

import (
	"sync"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"red-or-black-bot/internal/config"
)

// privateUsers tracks users who have played in a whitelisted group.
// They may keep playing with the bot in private chat.
type privateUsers struct {
	mu    sync.RWMutex
	users map[int64]bool
}

func newPrivateUsers() *privateUsers {
	return &privateUsers{users: make(map[int64]bool)}
}

func (p *privateUsers) allow(userID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users[userID] = true
}

func (p *privateUsers) allowed(userID int64) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.users[userID]
}

// chatAllowed decides whether an update from chat/sender is served.
// With an empty whitelist every chat is allowed.
func chatAllowed(cfg *config.Config, cache *privateUsers, chat *tele.Chat, sender *tele.User) bool {
	if chat.Type == tele.ChatPrivate {
		return len(cfg.Whitelist.Chats) == 0 || cache.allowed(sender.ID)
	}

	if !cfg.IsChatAllowed(chat.ID) {
		return false
	}
	cache.allow(sender.ID)
	return true
}

// WhitelistMiddleware creates a middleware that checks if the chat is whitelisted.
func WhitelistMiddleware(cfg *config.Config) tele.MiddlewareFunc {
	cache := newPrivateUsers()

	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			chat := c.Chat()
			sender := c.Sender()

			if chat == nil || sender == nil {
				return nil
			}

			if !chatAllowed(cfg, cache, chat, sender) {
				log.Debug().
					Int64("chat_id", chat.ID).
					Int64("user_id", sender.ID).
					Str("chat_type", string(chat.Type)).
					Msg("Ignoring update from non-whitelisted chat")
				return nil
			}

			return next(c)
		}
	}
}

// LoggingMiddleware creates a middleware that logs all incoming updates.
func LoggingMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			sender := c.Sender()
			chat := c.Chat()

			logEvent := log.Debug()
			if sender != nil {
				logEvent = logEvent.
					Int64("user_id", sender.ID).
					Str("username", sender.Username)
			}
			if chat != nil {
				logEvent = logEvent.
					Int64("chat_id", chat.ID).
					Str("chat_type", string(chat.Type))
			}
			logEvent.
				Str("text", c.Text()).
				Msg("Received update")

			err := next(c)
			if err != nil {
				log.Warn().Err(err).Str("text", c.Text()).Msg("Handler failed")
			}
			return err
		}
	}
}

// RecoveryMiddleware creates a middleware that recovers from panics.
func RecoveryMiddleware() tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error().
						Interface("panic", r).
						Msg("Recovered from panic in handler")
					err = c.Reply("❌ Something went wrong, please try again later")
				}
			}()
			return next(c)
		}
	}
}
