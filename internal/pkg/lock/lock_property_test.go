// Package lock property tests for per-user serialization.
package lock

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"pgregory.net/rapid"
)

// TestSerializedDeltasProperty verifies that concurrent XP/coin deltas for
// one user, applied under the lock as read-modify-write, always land on the
// sequential sum.
func TestSerializedDeltasProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		initial := rapid.Int64Range(0, 100_000).Draw(rt, "initial")
		numOps := rapid.IntRange(2, 20).Draw(rt, "numOps")
		userID := rapid.Int64Range(1, 1_000_000).Draw(rt, "userID")

		deltas := make([]int64, numOps)
		expected := initial
		for i := range deltas {
			deltas[i] = rapid.Int64Range(-500, 500).Draw(rt, "delta")
			expected += deltas[i]
		}

		ul := NewUserLock()
		balance := initial

		var wg sync.WaitGroup
		wg.Add(numOps)
		for _, d := range deltas {
			go func(delta int64) {
				defer wg.Done()
				ul.Lock(userID)
				defer ul.Unlock(userID)
				balance += delta
			}(d)
		}
		wg.Wait()

		if balance != expected {
			rt.Fatalf("balance = %d, want %d (initial=%d, ops=%d)",
				balance, expected, initial, numOps)
		}
	})
}

// TestWithLockExclusionProperty verifies that WithLock bodies for one user
// never overlap and every body runs exactly once.
func TestWithLockExclusionProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		userID := rapid.Int64Range(1, 1_000_000).Draw(rt, "userID")
		numOps := rapid.IntRange(2, 20).Draw(rt, "numOps")

		ul := NewUserLock()
		var inside, overlapped int32
		count := 0

		var wg sync.WaitGroup
		wg.Add(numOps)
		for i := 0; i < numOps; i++ {
			go func() {
				defer wg.Done()
				_ = ul.WithLock(userID, func() error {
					if atomic.AddInt32(&inside, 1) != 1 {
						atomic.StoreInt32(&overlapped, 1)
					}
					count++
					atomic.AddInt32(&inside, -1)
					return nil
				})
			}()
		}
		wg.Wait()

		if overlapped != 0 {
			rt.Fatalf("WithLock bodies for user %d overlapped", userID)
		}
		if count != numOps {
			rt.Fatalf("ran %d bodies, want %d", count, numOps)
		}
	})
}

// TestWithLockPropagatesError verifies the body's error reaches the caller.
func TestWithLockPropagatesError(t *testing.T) {
	ul := NewUserLock()
	sentinel := errors.New("debit rejected")

	if err := ul.WithLock(1, func() error { return sentinel }); !errors.Is(err, sentinel) {
		t.Fatalf("WithLock returned %v, want %v", err, sentinel)
	}
	if err := ul.WithLock(1, func() error { return nil }); err != nil {
		t.Fatalf("WithLock returned %v for a nil body error", err)
	}
}
