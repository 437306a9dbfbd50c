package game

import (
	"context"
	"sync"
	"time"

	"red-or-black-bot/internal/model"
)

// DoubleKind is the terminal state of a double or nothing offer.
type DoubleKind int

const (
	NotDoubled DoubleKind = iota
	DoubleWin
	DoubleLoss
)

func (k DoubleKind) String() string {
	switch k {
	case DoubleWin:
		return "double_win"
	case DoubleLoss:
		return "double_loss"
	default:
		return "not_doubled"
	}
}

// DoubleResult describes how an offer settled. Side is empty for NotDoubled.
type DoubleResult struct {
	Kind    DoubleKind
	Side    model.Side
	Amount  int64
	Balance int64
}

type offerState int

const (
	offerOpen offerState = iota
	offerClaimed
	offerSettled
)

// Offer is a single-shot, deadline-bound double or nothing gate for one player.
// It settles exactly once: accepted and won, accepted and lost, or not doubled
// (declined or expired).
type Offer struct {
	ID        string
	Player    model.PlayerID
	Chosen    model.Side
	Amount    int64
	ExpiresAt time.Time

	engine *Engine
	timer  *time.Timer

	mu      sync.Mutex
	state   offerState
	outcome DoubleResult
	done    chan struct{}
}

// Done is closed once the offer has settled.
func (o *Offer) Done() <-chan struct{} {
	return o.done
}

// Outcome returns the settled result. ok is false while the offer is still open.
func (o *Offer) Outcome() (DoubleResult, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state != offerSettled {
		return DoubleResult{}, false
	}
	return o.outcome, true
}

// Wait blocks until the offer settles or ctx is done.
func (o *Offer) Wait(ctx context.Context) (DoubleResult, error) {
	select {
	case <-o.done:
		out, _ := o.Outcome()
		return out, nil
	case <-ctx.Done():
		return DoubleResult{}, ctx.Err()
	}
}

// claim reserves the offer for an acceptance. It fails if the offer is no
// longer open or now is past the deadline; a late claim closes the offer.
func (o *Offer) claim(now time.Time) bool {
	o.mu.Lock()
	if o.state != offerOpen {
		o.mu.Unlock()
		return false
	}
	if !now.Before(o.ExpiresAt) {
		o.mu.Unlock()
		o.expire()
		return false
	}
	o.state = offerClaimed
	o.mu.Unlock()
	return true
}

// settle moves the offer to its terminal state. With onlyIfOpen set, a claimed
// offer is left to the acceptance in flight. Returns false if nothing changed.
func (o *Offer) settle(out DoubleResult, onlyIfOpen bool) bool {
	o.mu.Lock()
	if o.state == offerSettled || (onlyIfOpen && o.state != offerOpen) {
		o.mu.Unlock()
		return false
	}
	o.state = offerSettled
	o.outcome = out
	close(o.done)
	timer := o.timer
	o.mu.Unlock()

	if timer != nil {
		timer.Stop()
	}
	o.engine.removeOffer(o.ID)
	return true
}

// expire settles an open offer as NotDoubled.
func (o *Offer) expire() bool {
	return o.settle(o.notDoubled(), true)
}

func (o *Offer) notDoubled() DoubleResult {
	return DoubleResult{
		Kind:    NotDoubled,
		Amount:  o.Amount,
		Balance: o.engine.ledger.Balance(o.Player),
	}
}
