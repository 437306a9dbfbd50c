package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"red-or-black-bot/internal/game"
	"red-or-black-bot/internal/model"
)

// DoubleCallback is the unique prefix of the double or nothing button data.
const DoubleCallback = "double"

const divider = "━━━━━━━━━━━━━━━"

// Errors for command argument parsing
var (
	ErrPlayUsage = errors.New("usage: /play <amount> <red|black>")
)

// spinFrames are cycled while the wheel spins.
var spinFrames = []string{
	"🔴 ⚫ 《 ⚫ 🔴",
	"⚫ 🔴 《 🔴 ⚫",
}

// ParsePlayArgs parses "/play <amount> <red|black>" arguments. The side may
// come first as well.
func ParsePlayArgs(args []string) (int64, model.Side, error) {
	if len(args) != 2 {
		return 0, "", ErrPlayUsage
	}

	amountArg, sideArg := args[0], args[1]
	if _, ok := model.ParseSide(amountArg); ok {
		amountArg, sideArg = sideArg, amountArg
	}

	side, ok := model.ParseSide(sideArg)
	if !ok {
		return 0, "", ErrPlayUsage
	}

	amount, err := strconv.ParseInt(amountArg, 10, 64)
	if err != nil {
		return 0, "", game.ErrInvalidAmount
	}

	return amount, side, nil
}

// SpinFrame returns the animation frame shown at step i.
func SpinFrame(i int) string {
	return "🎡 Spinning the wheel!\n\n" + spinFrames[i%len(spinFrames)]
}

// ParseDoubleCallback extracts the offer ID from double or nothing button data.
// Telebot prefixes inline button data with \f.
func ParseDoubleCallback(data string) (string, bool) {
	data = strings.TrimPrefix(data, "\f")
	unique, offerID, ok := strings.Cut(data, "|")
	if !ok || unique != DoubleCallback || offerID == "" {
		return "", false
	}
	return offerID, true
}

// ErrorText turns an engine or parsing error into a reply.
func ErrorText(err error) string {
	switch {
	case errors.Is(err, ErrPlayUsage):
		return "❌ Please use the format: /play <amount> <red|black>"
	case errors.Is(err, game.ErrInvalidSide):
		return "❌ Please pick red or black"
	case errors.Is(err, game.ErrInvalidAmount):
		return "❌ " + capitalize(unwrapDetail(err, "Please enter a valid bet amount!"))
	case errors.Is(err, game.ErrBetTooHigh):
		return "❌ " + capitalize(unwrapDetail(err, "Bet is too high"))
	case errors.Is(err, game.ErrInsufficientBalance):
		return "❌ Not enough coins!"
	case errors.Is(err, game.ErrBusy):
		return "⏳ Your previous bet is still being settled, try again in a moment"
	case errors.Is(err, game.ErrOfferNotFound), errors.Is(err, game.ErrOfferClosed):
		return "⏰ This double or nothing offer has expired"
	case errors.Is(err, game.ErrNotOfferOwner):
		return "🚫 Only the winner can double this bet"
	default:
		return "❌ Something went wrong, please try again later"
	}
}

// unwrapDetail returns the text after the sentinel for wrapped errors such as
// "...: minimum bet is 10", or fallback for the bare sentinel.
func unwrapDetail(err error, fallback string) string {
	if errors.Unwrap(err) == nil {
		return fallback
	}
	if _, detail, ok := strings.Cut(err.Error(), ": "); ok {
		return detail
	}
	return fallback
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// BettingLimits describes the configured bet range.
func BettingLimits(minBet, maxBet, initialBalance int64) string {
	maxText := "your balance"
	if maxBet > 0 {
		maxText = fmt.Sprintf("%d coins", maxBet)
	}
	return fmt.Sprintf(
		"- Minimum bet: %d coins\n"+
			"- Maximum bet: %s\n"+
			"- Starting balance: %d coins",
		minBet, maxText, initialBalance,
	)
}

// WelcomeText is sent on /start.
func WelcomeText(name string, balance, minBet, maxBet, initialBalance int64) string {
	return fmt.Sprintf(
		"🎲 Welcome to Red or Black Roulette, %s! 🎲\n\n"+
			"📌 Game Rules\n"+
			"Place your bet on either red or black. If the wheel lands on your color, you win!\n\n"+
			"💰 Betting System\n%s\n\n"+
			"🎲 Double or Nothing\n"+
			"After winning, you can double your winnings by pressing 🎲. But be careful, you could lose it all!\n\n"+
			"📜 Commands\n%s\n\n"+
			"Your balance: %d coins",
		name, BettingLimits(minBet, maxBet, initialBalance), commandList, balance,
	)
}

const commandList = "/play <amount> <red|black> - Place a bet\n" +
	"/balance - Check your balance\n" +
	"/stats - View your statistics\n" +
	"/top - Richest players\n" +
	"/rules - Review the rules\n" +
	"/help - Show all commands"

// HelpText is sent on /help.
func HelpText() string {
	return "🎡 Red or Black - Help\n" + divider + "\n" +
		"Welcome to Red or Black! Try your luck by betting on red or black.\n\n" +
		commandList
}

// RulesText is sent on /rules.
func RulesText(minBet, maxBet int64, doubleWindowSecs int) string {
	limit := "You cannot bet more than your balance."
	if maxBet > 0 {
		limit = fmt.Sprintf("You cannot bet more than %d coins or your balance.", maxBet)
	}
	return fmt.Sprintf(
		"📖 Red or Black - Rules\n"+divider+"\n"+
			"📌 Basic Rules\nBet on either red or black. If you guess correctly, you win your bet!\n\n"+
			"💰 Betting\nMinimum bet is %d coin(s). %s\n\n"+
			"🎲 Double or Nothing\nAfter winning, you have %d seconds to press 🎲 and spin again on the same color.\n\n"+
			"⚠️ Risk\nIf you double and win, you get your bet again. If you lose, you lose twice your bet.",
		minBet, limit, doubleWindowSecs,
	)
}

// BalanceText is the reply to /balance.
func BalanceText(balance int64) string {
	return fmt.Sprintf("💰 Balance: %d coins", balance)
}

// StatsText renders a player's statistics.
func StatsText(stats model.Stats) string {
	return fmt.Sprintf(
		"📊 Player Statistics\n"+divider+"\n"+
			"🎯 Win Rate: %.1f%%\n"+
			"✅ Total Wins: %d\n"+
			"❌ Total Losses: %d\n"+
			"💰 Total Won: %d coins\n"+
			"💸 Total Lost: %d coins\n"+
			"📈 Net Profit: %s coins\n"+divider,
		stats.WinRate()*100,
		stats.Wins, stats.Losses,
		stats.TotalWon, stats.TotalLost,
		signed(stats.NetProfit),
	)
}

// TopText renders the balance leaderboard.
func TopText(standings []model.Standing) string {
	if len(standings) == 0 {
		return "📊 Nobody has played yet"
	}

	var sb strings.Builder
	sb.WriteString("🏆 Richest Players\n")
	sb.WriteString(divider + "\n")

	medals := []string{"🥇", "🥈", "🥉"}
	for i, s := range standings {
		rank := fmt.Sprintf("%d.", i+1)
		if i < len(medals) {
			rank = medals[i]
		}

		name := s.Name
		if name == "" {
			name = string(s.Player)
		}
		fmt.Fprintf(&sb, "%s %s: %d\n", rank, name, s.Balance)
	}

	sb.WriteString(divider)
	return sb.String()
}

// ResultText renders the outcome of a primary wager.
func ResultText(res *game.Result, doubleWindowSecs int) string {
	o := res.Outcome
	var sb strings.Builder
	fmt.Fprintf(&sb, "🎡 Red or Black\n%s\nThe wheel landed on %s %s\n\n", divider, o.Side.Emoji(), o.Side)
	if o.Won {
		fmt.Fprintf(&sb, "✅ You won %d coins!\n", o.Amount)
	} else {
		fmt.Fprintf(&sb, "❌ You lost %d coins!\n", o.Amount)
	}
	fmt.Fprintf(&sb, "💰 Balance: %d coins", res.Balance)
	if res.Offer != nil {
		fmt.Fprintf(&sb, "\n\n🎲 Double or Nothing? Press 🎲 within %d seconds to double your winnings!", doubleWindowSecs)
	}
	return sb.String()
}

// DoubleResultText renders how a double or nothing offer settled.
func DoubleResultText(res *game.Result, out game.DoubleResult) string {
	o := res.Outcome
	head := fmt.Sprintf("🎡 Red or Black\n%s\nThe wheel landed on %s %s\n✅ You won %d coins!\n\n", divider, o.Side.Emoji(), o.Side, o.Amount)

	switch out.Kind {
	case game.DoubleWin:
		return head + fmt.Sprintf(
			"🎲 DOUBLE WIN! The wheel landed on %s %s again\nYou won %d coins in total!\n💰 Balance: %d coins",
			out.Side.Emoji(), out.Side, 2*out.Amount, out.Balance,
		)
	case game.DoubleLoss:
		return head + fmt.Sprintf(
			"🎲 DOUBLE LOSS! The wheel landed on %s %s\nYou lost %d coins!\n💰 Balance: %d coins",
			out.Side.Emoji(), out.Side, 2*out.Amount, out.Balance,
		)
	default:
		return head + fmt.Sprintf("💰 Balance: %d coins\n⏰ Double or nothing closed", out.Balance)
	}
}

func signed(n int64) string {
	if n > 0 {
		return fmt.Sprintf("+%d", n)
	}
	return fmt.Sprintf("%d", n)
}
