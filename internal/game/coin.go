package game

import (
	"math/rand"

	"red-or-black-bot/internal/model"
)

// Coin draws the side the wheel lands on.
type Coin interface {
	Flip() model.Side
}

// FairCoin lands on red or black with probability 0.5 each, independent of
// every previous flip.
type FairCoin struct{}

// Flip returns a uniformly random side.
func (FairCoin) Flip() model.Side {
	if rand.Intn(2) == 0 {
		return model.Red
	}
	return model.Black
}
