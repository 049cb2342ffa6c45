package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/promptflow/pkg/adapters/memory"
	"github.com/aretw0/promptflow/pkg/store"
)

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(memory.NewStore(), WithCacheSize(8))
	ctx := context.Background()
	count := 1000

	// 1. Create and Delete many flows
	for i := 0; i < count; i++ {
		name := fmt.Sprintf("flow-%d", i)
		_ = mgr.Update(ctx, name, func(s *store.Store) error {
			s.AddNode()
			return nil
		})
		_ = mgr.Delete(ctx, name)
	}

	// 2. Count locks remaining in map
	lockCount := len(mgr.locks)

	t.Logf("Flows Created: %d, Locks Leaked: %d", count, lockCount)
	if lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Delete", lockCount)
	}
	if n := mgr.editors.Len(); n != 0 {
		t.Errorf("expected no open editors, got %d", n)
	}
}
