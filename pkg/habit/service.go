package habit

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dealscholar/lifecycle-engine/pkg/metrics"
)

// Service runs trigger detection against a user's habit-loop state.
type Service struct {
	store RetentionStore
	now   func() time.Time
}

// NewService creates a habit trigger detection service.
func NewService(store RetentionStore) *Service {
	return &Service{
		store: store,
		now:   time.Now,
	}
}

// DetectTriggers evaluates an incoming action for a user and updates the
// per-loop counters. Returns ErrRetentionStateNotFound when the user has no
// habit-loop state.
//
// The counter write is a secondary side effect: if it fails, the fired
// triggers are still returned to the caller.
func (s *Service) DetectTriggers(ctx context.Context, userID, actionType string, actionData map[string]interface{}) ([]FiredTrigger, error) {
	state, err := s.store.GetRetentionState(ctx, userID)
	if err != nil {
		return nil, err
	}

	fired := DetectTriggers(actionType, actionData, state)
	if len(fired) == 0 {
		return nil, nil
	}

	ApplyFiredTriggers(state, fired, s.now())
	if err := s.store.PutRetentionState(ctx, userID, state); err != nil {
		logrus.Warnf("failed to persist habit loop counters for user %s: %v (returning triggers anyway)",
			userID, err)
	}

	for _, f := range fired {
		metrics.HabitTriggersTotal.WithLabelValues(f.LoopType).Inc()
	}

	return fired, nil
}

// Provision writes the user's habit-loop enablement. Existing counters are
// preserved so re-running onboarding does not reset history.
func (s *Service) Provision(ctx context.Context, userID string, enabled map[string]bool) (*RetentionState, error) {
	state, err := s.store.GetRetentionState(ctx, userID)
	if err == ErrRetentionStateNotFound {
		state = NewRetentionState(enabled)
		if putErr := s.store.PutRetentionState(ctx, userID, state); putErr != nil {
			return nil, putErr
		}
		return state, nil
	}
	if err != nil {
		return nil, err
	}

	for _, name := range LoopNames {
		loop, ok := state.HabitLoops[name]
		if !ok {
			loop = &HabitLoop{}
			state.HabitLoops[name] = loop
		}
		loop.Active = enabled[name]
	}
	if err := s.store.PutRetentionState(ctx, userID, state); err != nil {
		return nil, err
	}
	return state, nil
}
