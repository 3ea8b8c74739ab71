// Copyright (c) 2026 DealScholar Inc. All Rights Reserved.
// This is licensed software from DealScholar Inc, for limitations
// and restrictions contact your company contract manager.

package lifecycle

import (
	"time"
)

// StateName is a coarse user-engagement phase.
type StateName string

const (
	StateNew       StateName = "new"
	StateActivated StateName = "activated"
	StateEngaged   StateName = "engaged"
	StatePowerUser StateName = "power_user"
	StateAtRisk    StateName = "at_risk"
	StateDormant   StateName = "dormant"
	StateReturning StateName = "returning"
)

// Trigger reasons recorded on state transitions.
const (
	ReasonInitial            = "initial"
	ReasonOnboarding         = "onboarding_in_progress"
	ReasonCoreMilestone      = "core_milestone_hit"
	ReasonCapabilityUsage    = "advanced_capability_usage"
	ReasonConsistentActivity = "consistent_engagement"
	ReasonEngagementDecline  = "engagement_decline"
	ReasonExtendedInactivity = "extended_inactivity"
	ReasonReactivation       = "reactivation_signal"
	ReasonNoChange           = "no_change"
)

// Trend directions computed from the engagement snapshot.
const (
	TrendIncreasing = "increasing"
	TrendDeclining  = "declining"
	TrendStable     = "stable"
)

// LifecycleState is the per-user lifecycle record owned by this service.
// Created on the first classification call, mutated only by the classifier,
// never deleted.
type LifecycleState struct {
	UserID           string           `json:"userId"`
	CurrentState     StateName        `json:"currentState"`
	StateHistory     []HistoryEntry   `json:"stateHistory"`
	EngagementTrends EngagementTrends `json:"engagementTrends"`
	LastStateCheckAt time.Time        `json:"lastStateCheckAt"`
}

// HistoryEntry records one stay in a lifecycle state. The history is
// append-only: exactly one entry (the current one) has a nil ExitedAt.
type HistoryEntry struct {
	State         StateName  `json:"state"`
	EnteredAt     time.Time  `json:"enteredAt"`
	ExitedAt      *time.Time `json:"exitedAt,omitempty"`
	DaysInState   *int       `json:"daysInState,omitempty"`
	TriggerReason string     `json:"triggerReason"`
}

// EngagementTrends is the last-computed trend figures, kept for display.
type EngagementTrends struct {
	WeeklySessions         int       `json:"weeklySessions"`
	Sessions14d            int       `json:"sessions14d"`
	SessionsChangePct      float64   `json:"sessionsChangePct"`
	TrendDirection         string    `json:"trendDirection"`
	DaysSinceLastAction    int       `json:"daysSinceLastAction"`
	ConsecutiveWeeksActive int       `json:"consecutiveWeeksActive"`
	ComputedAt             time.Time `json:"computedAt"`
}

// Classification is the outcome of evaluating the state decision table.
type Classification struct {
	NewState      StateName
	TriggerReason string
	Trends        EngagementTrends
}

// CurrentEntry returns a pointer to the open history entry, or nil if the
// history is empty.
func (s *LifecycleState) CurrentEntry() *HistoryEntry {
	for i := len(s.StateHistory) - 1; i >= 0; i-- {
		if s.StateHistory[i].ExitedAt == nil {
			return &s.StateHistory[i]
		}
	}
	return nil
}
