// Package game implements the red or black wager engine: bet validation, the
// coin draw, ledger settlement and the double-or-nothing follow-up.
package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"red-or-black-bot/internal/model"
	"red-or-black-bot/internal/pkg/lock"
)

const (
	// DefaultDoubleTimeout is how long a winner may accept double or nothing.
	DefaultDoubleTimeout = 30 * time.Second

	// DefaultLockTimeout bounds the wait for a player's lock.
	DefaultLockTimeout = 5 * time.Second
)

// Errors for the wager engine
var (
	ErrInvalidAmount       = errors.New("bet amount must be a positive number of coins")
	ErrInsufficientBalance = errors.New("not enough coins")
	ErrBetTooHigh          = errors.New("bet exceeds maximum allowed")
	ErrInvalidSide         = errors.New("side must be red or black")
	ErrBusy                = errors.New("another wager for this player is being settled")
	ErrOfferNotFound       = errors.New("double or nothing offer not found or expired")
	ErrOfferClosed         = errors.New("double or nothing offer already settled")
	ErrNotOfferOwner       = errors.New("double or nothing offer belongs to another player")
)

// Ledger is the account store the engine settles wagers against.
type Ledger interface {
	Balance(player model.PlayerID) int64
	Adjust(player model.PlayerID, delta int64) int64
	RecordOutcome(player model.PlayerID, won bool, amount int64)
}

// Journal receives a record of every balance change the engine makes.
type Journal interface {
	Record(ctx context.Context, rec *model.WagerRecord) error
}

// Config holds configuration for the wager engine.
type Config struct {
	MinBet             int64
	MaxBet             int64 // 0 means no maximum
	DoubleTimeout      time.Duration
	CountDoubleInStats bool
	LockTimeout        time.Duration
}

// Outcome describes a primary wager after the draw.
type Outcome struct {
	Chosen model.Side
	Side   model.Side
	Won    bool
	Amount int64
}

// Result is returned by Resolve. Offer is non-nil only when the wager was won.
type Result struct {
	Player  model.PlayerID
	Outcome Outcome
	Balance int64
	Offer   *Offer
}

// Engine resolves red or black wagers.
type Engine struct {
	ledger  Ledger
	locks   *lock.PlayerLock
	coin    Coin
	journal Journal

	minBet             int64
	maxBet             int64
	doubleTimeout      time.Duration
	countDoubleInStats bool
	lockTimeout        time.Duration

	mu     sync.Mutex
	offers map[string]*Offer
}

// New creates an Engine settling against ledger. A nil locks gets a private
// PlayerLock; a nil cfg uses the defaults.
func New(ledger Ledger, locks *lock.PlayerLock, cfg *Config) *Engine {
	if locks == nil {
		locks = lock.New()
	}

	e := &Engine{
		ledger:        ledger,
		locks:         locks,
		coin:          FairCoin{},
		minBet:        1,
		doubleTimeout: DefaultDoubleTimeout,
		lockTimeout:   DefaultLockTimeout,
		offers:        make(map[string]*Offer),
	}

	if cfg != nil {
		if cfg.MinBet > 1 {
			e.minBet = cfg.MinBet
		}
		if cfg.MaxBet > 0 {
			e.maxBet = cfg.MaxBet
		}
		if cfg.DoubleTimeout > 0 {
			e.doubleTimeout = cfg.DoubleTimeout
		}
		if cfg.LockTimeout > 0 {
			e.lockTimeout = cfg.LockTimeout
		}
		e.countDoubleInStats = cfg.CountDoubleInStats
	}

	return e
}

// SetCoin replaces the coin used for every draw.
func (e *Engine) SetCoin(c Coin) {
	e.coin = c
}

// SetJournal sets the journal that records balance changes.
func (e *Engine) SetJournal(j Journal) {
	e.journal = j
}

// MinBet returns the smallest accepted bet.
func (e *Engine) MinBet() int64 {
	return e.minBet
}

// MaxBet returns the largest accepted bet, or 0 if there is no maximum.
func (e *Engine) MaxBet() int64 {
	return e.maxBet
}

// DoubleTimeout returns how long a double or nothing offer stays open.
func (e *Engine) DoubleTimeout() time.Duration {
	return e.doubleTimeout
}

// ValidateBet checks the bet amount and side without looking at the balance.
func (e *Engine) ValidateBet(amount int64, side model.Side) error {
	if side != model.Red && side != model.Black {
		return ErrInvalidSide
	}
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if amount < e.minBet {
		return fmt.Errorf("%w: minimum bet is %d", ErrInvalidAmount, e.minBet)
	}
	if e.maxBet > 0 && amount > e.maxBet {
		return fmt.Errorf("%w: max bet is %d", ErrBetTooHigh, e.maxBet)
	}
	return nil
}

// Resolve validates and settles a wager of amount coins on chosen.
// On a win the result carries an open double or nothing Offer.
// A rejected wager never changes the ledger.
func (e *Engine) Resolve(ctx context.Context, player model.PlayerID, amount int64, chosen model.Side) (*Result, error) {
	if err := e.ValidateBet(amount, chosen); err != nil {
		return nil, err
	}

	var res *Result
	err := e.locks.WithLockContext(ctx, player, e.lockTimeout, func() error {
		balance := e.ledger.Balance(player)
		if amount > balance {
			return fmt.Errorf("%w: balance is %d", ErrInsufficientBalance, balance)
		}

		side := e.coin.Flip()
		won := side == chosen

		delta := -amount
		if won {
			delta = amount
		}
		newBalance := e.ledger.Adjust(player, delta)
		e.ledger.RecordOutcome(player, won, amount)

		res = &Result{
			Player: player,
			Outcome: Outcome{
				Chosen: chosen,
				Side:   side,
				Won:    won,
				Amount: amount,
			},
			Balance: newBalance,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, lock.ErrLockTimeout) {
			return nil, ErrBusy
		}
		return nil, err
	}

	kind := model.KindLoss
	delta := -amount
	if res.Outcome.Won {
		kind = model.KindWin
		delta = amount
	}
	e.record(ctx, &model.WagerRecord{
		PlayerID: player,
		Kind:     kind,
		Side:     res.Outcome.Side,
		Chosen:   chosen,
		Amount:   amount,
		Delta:    delta,
		Balance:  res.Balance,
	})

	if res.Outcome.Won {
		res.Offer = e.openOffer(player, chosen, amount)
	}

	return res, nil
}

// Offer returns the open offer with the given ID.
func (e *Engine) Offer(id string) (*Offer, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	o, ok := e.offers[id]
	return o, ok
}

// PendingOffers returns the number of open offers.
func (e *Engine) PendingOffers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.offers)
}

// Accept takes up the double or nothing offer for player. Only the first
// acceptance before the deadline is honored: a fresh draw on the original
// side either adds amount (DoubleWin) or removes 2*amount (DoubleLoss).
func (e *Engine) Accept(ctx context.Context, offerID string, player model.PlayerID) (DoubleResult, error) {
	o, err := e.lookup(offerID, player)
	if err != nil {
		return DoubleResult{}, err
	}

	if !o.claim(time.Now()) {
		return DoubleResult{}, ErrOfferClosed
	}

	var out DoubleResult
	err = e.locks.WithLockContext(ctx, player, e.lockTimeout, func() error {
		side := e.coin.Flip()
		out = DoubleResult{Side: side, Amount: o.Amount}

		var won bool
		if side == o.Chosen {
			won = true
			out.Kind = DoubleWin
			out.Balance = e.ledger.Adjust(player, o.Amount)
		} else {
			out.Kind = DoubleLoss
			out.Balance = e.ledger.Adjust(player, -2*o.Amount)
		}

		if e.countDoubleInStats {
			if won {
				e.ledger.RecordOutcome(player, true, o.Amount)
			} else {
				e.ledger.RecordOutcome(player, false, 2*o.Amount)
			}
		}
		return nil
	})
	if err != nil {
		// The claim is spent; the offer closes without a second draw.
		o.settle(o.notDoubled(), false)
		if errors.Is(err, lock.ErrLockTimeout) {
			return DoubleResult{}, ErrBusy
		}
		return DoubleResult{}, err
	}

	o.settle(out, false)

	rec := &model.WagerRecord{
		PlayerID: player,
		Kind:     model.KindDoubleWin,
		Side:     out.Side,
		Chosen:   o.Chosen,
		Amount:   o.Amount,
		Delta:    o.Amount,
		Balance:  out.Balance,
	}
	if out.Kind == DoubleLoss {
		rec.Kind = model.KindDoubleLoss
		rec.Delta = -2 * o.Amount
	}
	e.record(ctx, rec)

	return out, nil
}

// Decline closes the offer without a second draw.
func (e *Engine) Decline(offerID string, player model.PlayerID) error {
	o, err := e.lookup(offerID, player)
	if err != nil {
		return err
	}
	if !o.expire() {
		return ErrOfferClosed
	}
	return nil
}

// Close settles every open offer as NotDoubled. Used on shutdown.
func (e *Engine) Close() {
	e.mu.Lock()
	open := make([]*Offer, 0, len(e.offers))
	for _, o := range e.offers {
		open = append(open, o)
	}
	e.mu.Unlock()

	for _, o := range open {
		o.expire()
	}
}

func (e *Engine) lookup(offerID string, player model.PlayerID) (*Offer, error) {
	o, ok := e.Offer(offerID)
	if !ok {
		return nil, ErrOfferNotFound
	}
	if o.Player != player {
		return nil, ErrNotOfferOwner
	}
	return o, nil
}

func (e *Engine) openOffer(player model.PlayerID, chosen model.Side, amount int64) *Offer {
	o := &Offer{
		ID:        uuid.NewString(),
		Player:    player,
		Chosen:    chosen,
		Amount:    amount,
		ExpiresAt: time.Now().Add(e.doubleTimeout),
		engine:    e,
		done:      make(chan struct{}),
	}

	e.mu.Lock()
	e.offers[o.ID] = o
	e.mu.Unlock()

	o.mu.Lock()
	o.timer = time.AfterFunc(e.doubleTimeout, func() { o.expire() })
	o.mu.Unlock()
	return o
}

func (e *Engine) removeOffer(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.offers, id)
}

// record writes to the journal. Journal failures never fail a wager.
func (e *Engine) record(ctx context.Context, rec *model.WagerRecord) {
	if e.journal == nil {
		return
	}
	if err := e.journal.Record(ctx, rec); err != nil {
		log.Warn().
			Err(err).
			Str("player", string(rec.PlayerID)).
			Str("kind", rec.Kind).
			Int64("amount", rec.Amount).
			Msg("Failed to journal wager")
	}
}
