// Package model defines the data models for the red or black game bot.
package model

import (
	"fmt"
	"strings"
	"time"
)

// PlayerID identifies a player across every surface of the bot.
// Telegram players are "tg:<user id>", browser players are "web:<uuid>".
type PlayerID string

// TelegramPlayer returns the PlayerID for a Telegram user.
func TelegramPlayer(userID int64) PlayerID {
	return PlayerID(fmt.Sprintf("tg:%d", userID))
}

// WebPlayer returns the PlayerID for a browser session.
func WebPlayer(sessionID string) PlayerID {
	return PlayerID("web:" + sessionID)
}

// Side is one of the two outcomes of the wheel.
type Side string

const (
	Red   Side = "red"
	Black Side = "black"
)

// ParseSide parses user input into a Side. Matching is case-insensitive.
func ParseSide(s string) (Side, bool) {
	switch Side(strings.ToLower(strings.TrimSpace(s))) {
	case Red:
		return Red, true
	case Black:
		return Black, true
	default:
		return "", false
	}
}

// Emoji returns the display emoji for the side.
func (s Side) Emoji() string {
	if s == Red {
		return "🔴"
	}
	return "⚫"
}

// Stats is a snapshot of a player's cumulative results.
type Stats struct {
	Wins      int64 `json:"wins"`
	Losses    int64 `json:"losses"`
	TotalWon  int64 `json:"total_won"`
	TotalLost int64 `json:"total_lost"`
	NetProfit int64 `json:"net_profit"`
}

// WinRate returns wins/(wins+losses), or 0 when no game has been played.
func (s Stats) WinRate() float64 {
	total := s.Wins + s.Losses
	if total == 0 {
		return 0
	}
	return float64(s.Wins) / float64(total)
}

// Standing is one row of the balance leaderboard.
type Standing struct {
	Player  PlayerID
	Name    string
	Balance int64
}

// WagerRecord is one journal entry describing a balance change made by the engine.
type WagerRecord struct {
	ID        int64     `db:"id"`
	PlayerID  PlayerID  `db:"player_id"`
	Kind      string    `db:"kind"`
	Side      Side      `db:"side"`
	Chosen    Side      `db:"chosen"`
	Amount    int64     `db:"amount"`
	Delta     int64     `db:"delta"`
	Balance   int64     `db:"balance"`
	CreatedAt time.Time `db:"created_at"`
}

// Journal kinds for categorizing balance changes.
const (
	KindWin        = "win"         // Primary wager won
	KindLoss       = "loss"        // Primary wager lost
	KindDoubleWin  = "double_win"  // Double or nothing won
	KindDoubleLoss = "double_loss" // Double or nothing lost
)
