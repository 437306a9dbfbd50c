// Package lock provides per-player locking for balance-changing operations.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"red-or-black-bot/internal/model"
)

// ErrLockTimeout is returned when a lock cannot be acquired within the timeout period.
var ErrLockTimeout = errors.New("lock acquisition timeout")

// PlayerLock serializes balance-changing steps for the same player while
// letting different players proceed in parallel.
type PlayerLock struct {
	locks sync.Map // map[model.PlayerID]chan struct{}
}

// New creates a new PlayerLock instance.
func New() *PlayerLock {
	return &PlayerLock{}
}

// slot returns the player's one-element semaphore, creating it on first use.
func (pl *PlayerLock) slot(player model.PlayerID) chan struct{} {
	if v, ok := pl.locks.Load(player); ok {
		return v.(chan struct{})
	}
	actual, _ := pl.locks.LoadOrStore(player, make(chan struct{}, 1))
	return actual.(chan struct{})
}

// Lock acquires the lock for a player, blocking until it is free.
func (pl *PlayerLock) Lock(player model.PlayerID) {
	pl.slot(player) <- struct{}{}
}

// Unlock releases the lock for a player.
// Unlocking a player that is not locked is a no-op.
func (pl *PlayerLock) Unlock(player model.PlayerID) {
	select {
	case <-pl.slot(player):
	default:
	}
}

// LockWithTimeout attempts to acquire the lock until the timeout elapses or
// ctx is done. Returns true if the lock was acquired.
func (pl *PlayerLock) LockWithTimeout(ctx context.Context, player model.PlayerID, timeout time.Duration) bool {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case pl.slot(player) <- struct{}{}:
		return true
	case <-timeoutCtx.Done():
		return false
	}
}

// WithLockContext executes fn while holding the player's lock. It returns
// ErrLockTimeout if the lock is not acquired within timeout.
func (pl *PlayerLock) WithLockContext(ctx context.Context, player model.PlayerID, timeout time.Duration, fn func() error) error {
	if !pl.LockWithTimeout(ctx, player, timeout) {
		if err := ctx.Err(); err != nil {
			return err
		}
		return ErrLockTimeout
	}
	defer pl.Unlock(player)
	return fn()
}
