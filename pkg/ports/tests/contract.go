package tests

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/promptflow/pkg/ports"
)

// LockerContractTest is a reusable test suite that verifies if an adapter complies with ports.DistributedLocker.
func LockerContractTest(t *testing.T, locker ports.DistributedLocker) {
	t.Helper()
	key := "contract-lock-" + time.Now().Format("150405.000000")

	// 1. Lock and Unlock
	t.Run("Lock_Unlock", func(t *testing.T) {
		unlock, err := locker.Lock(context.Background(), key, time.Second)
		if err != nil {
			t.Fatalf("unexpected error acquiring lock: %v", err)
		}
		if err := unlock(context.Background()); err != nil {
			t.Fatalf("unexpected error releasing lock: %v", err)
		}
	})

	// 2. Held lock blocks until the context ends
	t.Run("Lock_Contended", func(t *testing.T) {
		unlock, err := locker.Lock(context.Background(), key, 5*time.Second)
		if err != nil {
			t.Fatalf("unexpected error acquiring lock: %v", err)
		}
		defer func() { _ = unlock(context.Background()) }()

		ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
		defer cancel()
		if _, err := locker.Lock(ctx, key, time.Second); err == nil {
			t.Error("expected error acquiring a held lock, got nil")
		}
	})

	// 3. Released lock can be taken again
	t.Run("Lock_Reacquire", func(t *testing.T) {
		unlock, err := locker.Lock(context.Background(), key, time.Second)
		if err != nil {
			t.Fatalf("expected lock to be free again: %v", err)
		}
		_ = unlock(context.Background())
	})
}
