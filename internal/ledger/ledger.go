// Package ledger keeps per-player coin balances and cumulative game statistics in memory.
// Accounts live for the lifetime of the process.
package ledger

import (
	"sort"
	"sync"

	"red-or-black-bot/internal/model"
)

// DefaultInitialBalance is the balance a new account starts with.
const DefaultInitialBalance = 1000

type account struct {
	name      string
	balance   int64
	wins      int64
	losses    int64
	totalWon  int64
	totalLost int64
}

// Ledger owns every player account. It is safe for concurrent use and each
// method is atomic with respect to the others.
type Ledger struct {
	initialBalance int64

	mu       sync.RWMutex
	accounts map[model.PlayerID]*account
}

// New creates a Ledger whose accounts start with initialBalance coins.
// A non-positive value falls back to DefaultInitialBalance.
func New(initialBalance int64) *Ledger {
	if initialBalance <= 0 {
		initialBalance = DefaultInitialBalance
	}
	return &Ledger{
		initialBalance: initialBalance,
		accounts:       make(map[model.PlayerID]*account),
	}
}

// InitialBalance returns the balance new accounts start with.
func (l *Ledger) InitialBalance() int64 {
	return l.initialBalance
}

// getOrCreate must be called with l.mu held for writing.
func (l *Ledger) getOrCreate(player model.PlayerID) *account {
	acc, ok := l.accounts[player]
	if !ok {
		acc = &account{balance: l.initialBalance}
		l.accounts[player] = acc
	}
	return acc
}

// Balance returns the player's balance, opening the account on first access.
func (l *Ledger) Balance(player model.PlayerID) int64 {
	l.mu.RLock()
	acc, ok := l.accounts[player]
	if ok {
		balance := acc.balance
		l.mu.RUnlock()
		return balance
	}
	l.mu.RUnlock()

	l.mu.Lock()
	defer l.mu.Unlock()
	return l.getOrCreate(player).balance
}

// Adjust adds delta to the player's balance and returns the new balance.
// There is no floor: callers validate sufficiency before debiting.
func (l *Ledger) Adjust(player model.PlayerID, delta int64) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc := l.getOrCreate(player)
	acc.balance += delta
	return acc.balance
}

// RecordOutcome counts a won or lost wager of the given amount.
func (l *Ledger) RecordOutcome(player model.PlayerID, won bool, amount int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc := l.getOrCreate(player)
	if won {
		acc.wins++
		acc.totalWon += amount
	} else {
		acc.losses++
		acc.totalLost += amount
	}
}

// Stats returns a snapshot of the player's statistics.
func (l *Ledger) Stats(player model.PlayerID) model.Stats {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc := l.getOrCreate(player)
	return model.Stats{
		Wins:      acc.wins,
		Losses:    acc.losses,
		TotalWon:  acc.totalWon,
		TotalLost: acc.totalLost,
		NetProfit: acc.totalWon - acc.totalLost,
	}
}

// SetName records the player's current display name.
func (l *Ledger) SetName(player model.PlayerID, name string) {
	if name == "" {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.getOrCreate(player).name = name
}

// Top returns up to limit accounts ordered by balance, richest first.
// Ties are broken by player ID so the order is stable.
func (l *Ledger) Top(limit int) []model.Standing {
	l.mu.RLock()
	standings := make([]model.Standing, 0, len(l.accounts))
	for id, acc := range l.accounts {
		standings = append(standings, model.Standing{
			Player:  id,
			Name:    acc.name,
			Balance: acc.balance,
		})
	}
	l.mu.RUnlock()

	sort.Slice(standings, func(i, j int) bool {
		if standings[i].Balance != standings[j].Balance {
			return standings[i].Balance > standings[j].Balance
		}
		return standings[i].Player < standings[j].Player
	})

	if limit > 0 && len(standings) > limit {
		standings = standings[:limit]
	}
	return standings
}

// Count returns the number of open accounts.
func (l *Ledger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.accounts)
}
