package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/wayfinder/pkg/adapters/memory"
	"github.com/aretw0/wayfinder/pkg/domain"
)

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(memory.NewStore())
	ctx := context.Background()
	count := 10000

	// 1. Create and Delete many layouts
	for i := 0; i < count; i++ {
		name := fmt.Sprintf("layout-%d", i)
		_ = mgr.SaveLayout(ctx, &domain.Layout{Name: name, Width: 1, Height: 1})
		_ = mgr.DeleteLayout(ctx, name)
	}

	// 2. Count locks remaining in map
	lockCount := len(mgr.locks)

	t.Logf("Layouts Created: %d, Locks Leaked: %d", count, lockCount)

	if lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Delete", lockCount)
	}
}
