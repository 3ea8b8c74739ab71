package habit

import (
	"testing"
	"time"
)

func allLoopsEnabled() *RetentionState {
	return NewRetentionState(map[string]bool{
		LoopDiscovery: true,
		LoopInsight:   true,
		LoopSocial:    true,
	})
}

func TestDetectTriggers(t *testing.T) {
	tests := []struct {
		name       string
		actionType string
		enabled    map[string]bool
		expectLoop []string
	}{
		{
			name:       "deal saved fires discovery",
			actionType: "deal_saved",
			enabled:    map[string]bool{LoopDiscovery: true},
			expectLoop: []string{LoopDiscovery},
		},
		{
			name:       "shared analysis fires insight and social",
			actionType: "deal_analysis_shared",
			enabled:    map[string]bool{LoopInsight: true, LoopSocial: true},
			expectLoop: []string{LoopInsight, LoopSocial},
		},
		{
			name:       "shared analysis with only social enabled",
			actionType: "deal_analysis_shared",
			enabled:    map[string]bool{LoopSocial: true},
			expectLoop: []string{LoopSocial},
		},
		{
			name:       "inactive loop fires nothing",
			actionType: "comment_posted",
			enabled:    map[string]bool{LoopDiscovery: true},
			expectLoop: nil,
		},
		{
			name:       "unknown action type fires nothing",
			actionType: "password_changed",
			enabled:    map[string]bool{LoopDiscovery: true, LoopInsight: true, LoopSocial: true},
			expectLoop: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := NewRetentionState(tt.enabled)
			fired := DetectTriggers(tt.actionType, nil, state)

			if len(fired) != len(tt.expectLoop) {
				t.Fatalf("Expected %d fired triggers, got %d", len(tt.expectLoop), len(fired))
			}
			for i, loop := range tt.expectLoop {
				if fired[i].LoopType != loop {
					t.Errorf("Expected trigger %d on loop %q, got %q", i, loop, fired[i].LoopType)
				}
			}
		})
	}
}

func TestDetectTriggers_CarriesContextAndAction(t *testing.T) {
	state := allLoopsEnabled()
	actionData := map[string]interface{}{"dealId": "deal-42"}

	fired := DetectTriggers("deal_saved", actionData, state)
	if len(fired) != 1 {
		t.Fatalf("Expected 1 fired trigger, got %d", len(fired))
	}
	if fired[0].Trigger != "deal_saved" {
		t.Errorf("Expected trigger 'deal_saved', got %q", fired[0].Trigger)
	}
	if fired[0].Action != "show_related_deals" {
		t.Errorf("Expected action 'show_related_deals', got %q", fired[0].Action)
	}
	if fired[0].Context["dealId"] != "deal-42" {
		t.Errorf("Expected action data carried into context, got %v", fired[0].Context)
	}
}

func TestApplyFiredTriggers_OneIncrementPerLoop(t *testing.T) {
	state := allLoopsEnabled()
	now := time.Now()

	// Two triggers on the same loop in one call still count once.
	fired := []FiredTrigger{
		{LoopType: LoopDiscovery, Trigger: "deal_saved"},
		{LoopType: LoopDiscovery, Trigger: "deal_viewed"},
	}
	ApplyFiredTriggers(state, fired, now)

	if got := state.HabitLoops[LoopDiscovery].TriggerCount; got != 1 {
		t.Errorf("Expected discovery count 1, got %d", got)
	}
	if state.HabitLoops[LoopDiscovery].LastTriggeredAt == nil {
		t.Error("Expected LastTriggeredAt to be set")
	}
	if got := state.HabitLoops[LoopInsight].TriggerCount; got != 0 {
		t.Errorf("Expected insight count untouched, got %d", got)
	}
}

func TestApplyFiredTriggers_CrossLoopAction(t *testing.T) {
	state := allLoopsEnabled()
	now := time.Now()

	fired := DetectTriggers("deal_analysis_shared", nil, state)
	ApplyFiredTriggers(state, fired, now)

	if got := state.HabitLoops[LoopInsight].TriggerCount; got != 1 {
		t.Errorf("Expected insight count 1, got %d", got)
	}
	if got := state.HabitLoops[LoopSocial].TriggerCount; got != 1 {
		t.Errorf("Expected social count 1, got %d", got)
	}
	if got := state.HabitLoops[LoopDiscovery].TriggerCount; got != 0 {
		t.Errorf("Expected discovery count untouched, got %d", got)
	}
}

func TestApplyFiredTriggers_Monotonic(t *testing.T) {
	state := allLoopsEnabled()
	now := time.Now()

	for i := 1; i <= 5; i++ {
		fired := DetectTriggers("deal_viewed", nil, state)
		ApplyFiredTriggers(state, fired, now.Add(time.Duration(i)*time.Minute))
		if got := state.HabitLoops[LoopDiscovery].TriggerCount; got != i {
			t.Fatalf("Expected discovery count %d after %d calls, got %d", i, i, got)
		}
	}
}

func TestKnownActionTypes(t *testing.T) {
	types := KnownActionTypes()
	if len(types) != 9 {
		t.Errorf("Expected 9 known action types, got %d", len(types))
	}
	seen := make(map[string]bool)
	for _, at := range types {
		seen[at] = true
	}
	for _, want := range []string{"deal_saved", "inactivity_5_days", "deal_analysis_shared"} {
		if !seen[want] {
			t.Errorf("Expected action type %q to be known", want)
		}
	}
}
