// Copyright (c) 2026 DealScholar Inc. All Rights Reserved.
// This is licensed software from DealScholar Inc, for limitations
// and restrictions contact your company contract manager.

package habit

import (
	"time"
)

// Habit loop names. Loops are enabled per user by the onboarding flow.
const (
	LoopDiscovery = "discovery_loop"
	LoopInsight   = "insight_loop"
	LoopSocial    = "social_loop"
)

// LoopNames lists every known habit loop.
var LoopNames = []string{LoopDiscovery, LoopInsight, LoopSocial}

// RetentionState is the per-user habit-loop document. It is provisioned by
// the onboarding step, not fabricated by the detector.
type RetentionState struct {
	HabitLoops map[string]*HabitLoop `json:"habitLoops"`
}

// HabitLoop tracks one behavioral feedback cycle for a user.
// TriggerCount is monotonically non-decreasing and increments at most once
// per detector call, regardless of how many triggers the loop fired in it.
type HabitLoop struct {
	Active          bool       `json:"active"`
	TriggerCount    int        `json:"triggerCount"`
	LastTriggeredAt *time.Time `json:"lastTriggeredAt,omitempty"`
}

// FiredTrigger describes one trigger that fired for an incoming action.
type FiredTrigger struct {
	LoopType string                 `json:"loop_type"`
	Trigger  string                 `json:"trigger"`
	Context  map[string]interface{} `json:"context,omitempty"`
	Action   string                 `json:"action"`
}

// NewRetentionState builds a retention state with the given loop enablement.
// Loops absent from the map are created disabled.
func NewRetentionState(enabled map[string]bool) *RetentionState {
	state := &RetentionState{HabitLoops: make(map[string]*HabitLoop, len(LoopNames))}
	for _, name := range LoopNames {
		state.HabitLoops[name] = &HabitLoop{Active: enabled[name]}
	}
	return state
}
