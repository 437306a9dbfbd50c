// Package lock provides per-player locking for balance-changing operations.
// Property-based tests for concurrent balance safety.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"red-or-black-bot/internal/model"
)

func drawPlayer(t *rapid.T, label string) model.PlayerID {
	return model.TelegramPlayer(rapid.Int64Range(1, 1000000).Draw(t, label))
}

// held reports whether another holder keeps the player's lock.
func held(pl *PlayerLock, player model.PlayerID) bool {
	if pl.LockWithTimeout(context.Background(), player, time.Millisecond) {
		pl.Unlock(player)
		return false
	}
	return true
}

// TestConcurrentBalanceSafetyProperty checks that concurrent balance operations on
// the same player end at the same balance as sequential execution.
func TestConcurrentBalanceSafetyProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		initialBalance := rapid.Int64Range(1000, 100000).Draw(t, "initialBalance")
		numOps := rapid.IntRange(2, 20).Draw(t, "numOps")

		amounts := make([]int64, numOps)
		expectedFinalBalance := initialBalance
		for i := range amounts {
			amounts[i] = rapid.Int64Range(-500, 500).Draw(t, "amount")
			expectedFinalBalance += amounts[i]
		}

		player := drawPlayer(t, "player")
		pl := New()
		balance := initialBalance

		var wg sync.WaitGroup
		wg.Add(numOps)
		for _, amount := range amounts {
			go func(amount int64) {
				defer wg.Done()
				pl.Lock(player)
				defer pl.Unlock(player)
				balance += amount
			}(amount)
		}
		wg.Wait()

		if balance != expectedFinalBalance {
			t.Fatalf("Balance mismatch with locking: expected %d, got %d (initial=%d, numOps=%d)",
				expectedFinalBalance, balance, initialBalance, numOps)
		}
	})
}

// TestWithLockContextSerializesProperty checks that WithLockContext serializes operations.
func TestWithLockContextSerializesProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		initialBalance := rapid.Int64Range(1000, 100000).Draw(t, "initialBalance")
		numOps := rapid.IntRange(5, 30).Draw(t, "numOps")
		amountPerOp := rapid.Int64Range(1, 100).Draw(t, "amountPerOp")
		expectedFinalBalance := initialBalance + int64(numOps)*amountPerOp

		player := drawPlayer(t, "player")
		pl := New()
		balance := initialBalance

		var wg sync.WaitGroup
		wg.Add(numOps)
		for i := 0; i < numOps; i++ {
			go func() {
				defer wg.Done()
				_ = pl.WithLockContext(context.Background(), player, time.Minute, func() error {
					balance += amountPerOp
					return nil
				})
			}()
		}
		wg.Wait()

		if balance != expectedFinalBalance {
			t.Fatalf("Balance mismatch with WithLockContext: expected %d, got %d",
				expectedFinalBalance, balance)
		}
	})
}

// TestMultiplePlayersIndependentLocksProperty checks that locks for different
// players are independent.
func TestMultiplePlayersIndependentLocksProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		numPlayers := rapid.IntRange(2, 10).Draw(t, "numPlayers")
		opsPerPlayer := rapid.IntRange(5, 20).Draw(t, "opsPerPlayer")

		pl := New()
		balances := make(map[model.PlayerID]*int64)
		expected := make(map[model.PlayerID]int64)
		for i := 0; i < numPlayers; i++ {
			player := model.PlayerID(fmt.Sprintf("web:%d", i))
			b := rapid.Int64Range(1000, 10000).Draw(t, "initialBalance")
			expected[player] = b + int64(opsPerPlayer)*10
			balances[player] = &b
		}

		var wg sync.WaitGroup
		wg.Add(numPlayers * opsPerPlayer)
		for player := range balances {
			for j := 0; j < opsPerPlayer; j++ {
				go func(p model.PlayerID) {
					defer wg.Done()
					pl.Lock(p)
					defer pl.Unlock(p)
					*balances[p] += 10
				}(player)
			}
		}
		wg.Wait()

		for player, want := range expected {
			if *balances[player] != want {
				t.Fatalf("Player %s balance mismatch: expected %d, got %d", player, want, *balances[player])
			}
		}
	})
}

// TestLockExclusiveProperty checks that concurrent timed acquisitions never
// hold the lock at the same time, and the lock is free afterwards.
func TestLockExclusiveProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		player := drawPlayer(t, "player")
		numAttempts := rapid.IntRange(5, 20).Draw(t, "numAttempts")

		pl := New()
		var holders, maxHolders atomic.Int32
		var successCount atomic.Int32
		var wg sync.WaitGroup
		wg.Add(numAttempts)
		startCh := make(chan struct{})

		for i := 0; i < numAttempts; i++ {
			go func() {
				defer wg.Done()
				<-startCh
				_ = pl.WithLockContext(context.Background(), player, 5*time.Millisecond, func() error {
					successCount.Add(1)
					n := holders.Add(1)
					for {
						m := maxHolders.Load()
						if n <= m || maxHolders.CompareAndSwap(m, n) {
							break
						}
					}
					holders.Add(-1)
					return nil
				})
			}()
		}
		close(startCh)
		wg.Wait()

		if successCount.Load() < 1 {
			t.Fatalf("At least one acquisition should succeed, got %d", successCount.Load())
		}
		if maxHolders.Load() > 1 {
			t.Fatalf("Lock held by %d goroutines at once", maxHolders.Load())
		}
		if held(pl, player) {
			t.Fatal("Lock should be available after all operations complete")
		}
	})
}

// TestLockUnlockSymmetryProperty checks that balanced Lock/Unlock cycles leave the lock free.
func TestLockUnlockSymmetryProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		player := drawPlayer(t, "player")
		numCycles := rapid.IntRange(1, 50).Draw(t, "numCycles")

		pl := New()
		for i := 0; i < numCycles; i++ {
			pl.Lock(player)
			pl.Unlock(player)
		}

		if held(pl, player) {
			t.Fatal("Lock should be available after symmetric lock/unlock cycles")
		}
	})
}

func TestLockWithTimeout(t *testing.T) {
	pl := New()
	player := model.PlayerID("tg:1")

	require.True(t, pl.LockWithTimeout(context.Background(), player, 10*time.Millisecond))
	assert.True(t, held(pl, player))

	// Held lock times out
	start := time.Now()
	assert.False(t, pl.LockWithTimeout(context.Background(), player, 20*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	// A timed-out attempt must not leave the lock in a bad state
	pl.Unlock(player)
	assert.False(t, held(pl, player))
}

func TestWithLockContext(t *testing.T) {
	pl := New()
	player := model.PlayerID("tg:1")

	called := false
	err := pl.WithLockContext(context.Background(), player, time.Second, func() error {
		called = true
		assert.True(t, held(pl, player))
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
	assert.False(t, held(pl, player))

	// fn's error is returned as-is
	sentinel := errors.New("boom")
	err = pl.WithLockContext(context.Background(), player, time.Second, func() error { return sentinel })
	assert.ErrorIs(t, err, sentinel)

	// Timeout while another holder keeps the lock
	pl.Lock(player)
	err = pl.WithLockContext(context.Background(), player, 10*time.Millisecond, func() error {
		t.Fatal("fn must not run without the lock")
		return nil
	})
	assert.ErrorIs(t, err, ErrLockTimeout)

	// Cancelled context reports the context error
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = pl.WithLockContext(ctx, player, time.Second, func() error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
	pl.Unlock(player)
}

func TestUnlockWithoutLockIsNoop(t *testing.T) {
	pl := New()
	pl.Unlock("tg:9")
	assert.False(t, held(pl, "tg:9"))
}
