package habit

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func newTestHabitService(t *testing.T) (*Service, *RedisRetentionStore) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := NewRedisRetentionStore(client)
	return NewService(store), store
}

func TestService_DetectTriggers_NotProvisioned(t *testing.T) {
	svc, _ := newTestHabitService(t)

	_, err := svc.DetectTriggers(context.Background(), "user-1", "deal_saved", nil)
	if !errors.Is(err, ErrRetentionStateNotFound) {
		t.Errorf("Expected ErrRetentionStateNotFound, got %v", err)
	}
}

func TestService_DetectTriggers_PersistsCounters(t *testing.T) {
	svc, store := newTestHabitService(t)
	ctx := context.Background()

	if err := store.PutRetentionState(ctx, "user-1", allLoopsEnabled()); err != nil {
		t.Fatalf("PutRetentionState failed: %v", err)
	}

	fired, err := svc.DetectTriggers(ctx, "user-1", "deal_analysis_shared", map[string]interface{}{"dealId": "d-1"})
	if err != nil {
		t.Fatalf("DetectTriggers failed: %v", err)
	}
	if len(fired) != 2 {
		t.Fatalf("Expected 2 fired triggers, got %d", len(fired))
	}

	state, err := store.GetRetentionState(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetRetentionState failed: %v", err)
	}
	if got := state.HabitLoops[LoopInsight].TriggerCount; got != 1 {
		t.Errorf("Expected persisted insight count 1, got %d", got)
	}
	if got := state.HabitLoops[LoopSocial].TriggerCount; got != 1 {
		t.Errorf("Expected persisted social count 1, got %d", got)
	}
	if state.HabitLoops[LoopSocial].LastTriggeredAt == nil {
		t.Error("Expected persisted LastTriggeredAt")
	}
}

func TestService_DetectTriggers_NoMatchIsNotPersisted(t *testing.T) {
	svc, store := newTestHabitService(t)
	ctx := context.Background()

	if err := store.PutRetentionState(ctx, "user-1", allLoopsEnabled()); err != nil {
		t.Fatalf("PutRetentionState failed: %v", err)
	}

	fired, err := svc.DetectTriggers(ctx, "user-1", "password_changed", nil)
	if err != nil {
		t.Fatalf("DetectTriggers failed: %v", err)
	}
	if fired != nil {
		t.Errorf("Expected no fired triggers, got %v", fired)
	}

	state, err := store.GetRetentionState(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetRetentionState failed: %v", err)
	}
	for name, loop := range state.HabitLoops {
		if loop.TriggerCount != 0 {
			t.Errorf("Expected loop %q count untouched, got %d", name, loop.TriggerCount)
		}
	}
}

// failingPutStore serves reads from memory but fails every write.
type failingPutStore struct {
	state  *RetentionState
	putErr error
}

func (s *failingPutStore) GetRetentionState(ctx context.Context, userID string) (*RetentionState, error) {
	if s.state == nil {
		return nil, ErrRetentionStateNotFound
	}
	return s.state, nil
}

func (s *failingPutStore) PutRetentionState(ctx context.Context, userID string, state *RetentionState) error {
	return s.putErr
}

func TestService_DetectTriggers_CounterWriteFailureIsSoft(t *testing.T) {
	store := &failingPutStore{
		state:  allLoopsEnabled(),
		putErr: errors.New("redis down"),
	}
	svc := NewService(store)

	fired, err := svc.DetectTriggers(context.Background(), "user-1", "deal_analysis_shared", nil)
	if err != nil {
		t.Fatalf("Expected nil error despite counter write failure, got %v", err)
	}
	if len(fired) != 2 {
		t.Fatalf("Expected 2 fired triggers despite counter write failure, got %d", len(fired))
	}
	for _, f := range fired {
		if f.LoopType != LoopInsight && f.LoopType != LoopSocial {
			t.Errorf("Unexpected loop %q", f.LoopType)
		}
	}
}

func TestService_Provision_CreatesState(t *testing.T) {
	svc, store := newTestHabitService(t)
	ctx := context.Background()

	state, err := svc.Provision(ctx, "user-1", map[string]bool{LoopDiscovery: true})
	if err != nil {
		t.Fatalf("Provision failed: %v", err)
	}
	if !state.HabitLoops[LoopDiscovery].Active {
		t.Error("Expected discovery loop active")
	}
	if state.HabitLoops[LoopInsight].Active || state.HabitLoops[LoopSocial].Active {
		t.Error("Expected unlisted loops disabled")
	}

	persisted, err := store.GetRetentionState(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetRetentionState failed: %v", err)
	}
	if len(persisted.HabitLoops) != 3 {
		t.Errorf("Expected all 3 loops provisioned, got %d", len(persisted.HabitLoops))
	}
}

func TestService_Provision_PreservesCounters(t *testing.T) {
	svc, store := newTestHabitService(t)
	ctx := context.Background()

	if _, err := svc.Provision(ctx, "user-1", map[string]bool{LoopDiscovery: true}); err != nil {
		t.Fatalf("Provision failed: %v", err)
	}
	if _, err := svc.DetectTriggers(ctx, "user-1", "deal_viewed", nil); err != nil {
		t.Fatalf("DetectTriggers failed: %v", err)
	}

	// Re-provisioning flips enablement but keeps history.
	state, err := svc.Provision(ctx, "user-1", map[string]bool{LoopDiscovery: false, LoopSocial: true})
	if err != nil {
		t.Fatalf("Provision failed: %v", err)
	}
	if state.HabitLoops[LoopDiscovery].Active {
		t.Error("Expected discovery loop disabled after re-provision")
	}
	if got := state.HabitLoops[LoopDiscovery].TriggerCount; got != 1 {
		t.Errorf("Expected discovery counter preserved at 1, got %d", got)
	}
	if !state.HabitLoops[LoopSocial].Active {
		t.Error("Expected social loop enabled after re-provision")
	}

	persisted, err := store.GetRetentionState(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetRetentionState failed: %v", err)
	}
	if got := persisted.HabitLoops[LoopDiscovery].TriggerCount; got != 1 {
		t.Errorf("Expected persisted discovery counter 1, got %d", got)
	}
}
