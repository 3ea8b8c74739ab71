// Copyright (c) 2026 DealScholar Inc. All Rights Reserved.
// This is licensed software from DealScholar Inc, for limitations
// and restrictions contact your company contract manager.

package lifecycle

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dealscholar/lifecycle-engine/pkg/engagement"
)

// Thresholds holds the tunable boundaries of the state decision table.
// Loaded from config/engine.yaml; zero values are replaced by the defaults
// below so a missing config section keeps the shipped behavior. This means
// a field cannot be tuned to literally 0: a `trend_decline_threshold_pct: 0`
// in the YAML reads back as the -10 default. None of the boundaries has a
// meaningful zero setting, so the trade is acceptable.
type Thresholds struct {
	RecentActivityDays         int     `yaml:"recent_activity_days"`
	DormantAfterDays           int     `yaml:"dormant_after_days"`
	TrendIncreaseThresholdPct  float64 `yaml:"trend_increase_threshold_pct"`
	TrendDeclineThresholdPct   float64 `yaml:"trend_decline_threshold_pct"`
	DeclineRiskThresholdPct    float64 `yaml:"decline_risk_threshold_pct"`
	PowerUserMinWeeklySessions int     `yaml:"power_user_min_weekly_sessions"`
	EngagedMinWeeklySessions   int     `yaml:"engaged_min_weekly_sessions"`
	EngagedMinWeeksActive      int     `yaml:"engaged_min_weeks_active"`
	ActivatedMaxWeeksActive    int     `yaml:"activated_max_weeks_active"`
}

// DefaultThresholds returns the shipped decision-table boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{
		RecentActivityDays:         7,
		DormantAfterDays:           21,
		TrendIncreaseThresholdPct:  10,
		TrendDeclineThresholdPct:   -10,
		DeclineRiskThresholdPct:    -40,
		PowerUserMinWeeklySessions: 4,
		EngagedMinWeeklySessions:   2,
		EngagedMinWeeksActive:      2,
		ActivatedMaxWeeksActive:    2,
	}
}

// normalize replaces unset fields with their defaults.
func (t Thresholds) normalize() Thresholds {
	def := DefaultThresholds()
	if t.RecentActivityDays == 0 {
		t.RecentActivityDays = def.RecentActivityDays
	}
	if t.DormantAfterDays == 0 {
		t.DormantAfterDays = def.DormantAfterDays
	}
	if t.TrendIncreaseThresholdPct == 0 {
		t.TrendIncreaseThresholdPct = def.TrendIncreaseThresholdPct
	}
	if t.TrendDeclineThresholdPct == 0 {
		t.TrendDeclineThresholdPct = def.TrendDeclineThresholdPct
	}
	if t.DeclineRiskThresholdPct == 0 {
		t.DeclineRiskThresholdPct = def.DeclineRiskThresholdPct
	}
	if t.PowerUserMinWeeklySessions == 0 {
		t.PowerUserMinWeeklySessions = def.PowerUserMinWeeklySessions
	}
	if t.EngagedMinWeeklySessions == 0 {
		t.EngagedMinWeeklySessions = def.EngagedMinWeeklySessions
	}
	if t.EngagedMinWeeksActive == 0 {
		t.EngagedMinWeeksActive = def.EngagedMinWeeksActive
	}
	if t.ActivatedMaxWeeksActive == 0 {
		t.ActivatedMaxWeeksActive = def.ActivatedMaxWeeksActive
	}
	return t
}

// Classifier evaluates the state decision table against an engagement
// snapshot. Classification itself is pure; history bookkeeping happens in
// ApplyClassification.
type Classifier struct {
	thresholds Thresholds

	// retainOnNoMatch keeps the previous state (reason "no_change") when no
	// decision rule matches, instead of resetting to "new"/"initial". The
	// reset is the original product behavior; the flag exists because an
	// established user can fall through every rule (e.g. a flat trend with
	// ConsecutiveWeeksActive below the engaged minimum).
	retainOnNoMatch bool
}

// NewClassifier creates a classifier with the given thresholds.
func NewClassifier(thresholds Thresholds, retainOnNoMatch bool) *Classifier {
	return &Classifier{
		thresholds:      thresholds.normalize(),
		retainOnNoMatch: retainOnNoMatch,
	}
}

// ComputeTrends derives the trend figures from a snapshot.
// The denominator is floored at 1 to guard division by zero.
func (c *Classifier) ComputeTrends(snapshot engagement.Snapshot, now time.Time) EngagementTrends {
	denom := snapshot.Sessions14d
	if denom < 1 {
		denom = 1
	}
	changePct := float64(snapshot.WeeklySessions-snapshot.Sessions14d) / float64(denom) * 100

	direction := TrendStable
	switch {
	case changePct > c.thresholds.TrendIncreaseThresholdPct:
		direction = TrendIncreasing
	case changePct < c.thresholds.TrendDeclineThresholdPct:
		direction = TrendDeclining
	}

	return EngagementTrends{
		WeeklySessions:         snapshot.WeeklySessions,
		Sessions14d:            snapshot.Sessions14d,
		SessionsChangePct:      changePct,
		TrendDirection:         direction,
		DaysSinceLastAction:    snapshot.DaysSinceLastAction,
		ConsecutiveWeeksActive: snapshot.ConsecutiveWeeksActive,
		ComputedAt:             now,
	}
}

// Classify evaluates the decision table in strict order; the first matching
// rule wins. The ordering is the tie-break policy: later rules assume
// earlier ones did not match.
func (c *Classifier) Classify(
	snapshot engagement.Snapshot,
	activation engagement.ActivationSignal,
	powerUser engagement.PowerUserSignal,
	previous *LifecycleState,
	now time.Time,
) Classification {
	t := c.thresholds
	trends := c.ComputeTrends(snapshot, now)

	// Rule 1: onboarding not finished but recently active.
	if !activation.CoreMilestoneAchieved && snapshot.DaysSinceLastAction < t.RecentActivityDays {
		return Classification{StateNew, ReasonOnboarding, trends}
	}

	// Rule 2: milestone hit but habit not yet formed.
	if activation.CoreMilestoneAchieved && snapshot.ConsecutiveWeeksActive < t.ActivatedMaxWeeksActive {
		return Classification{StateActivated, ReasonCoreMilestone, trends}
	}

	// Rule 3: advanced capability in frequent use. Precedes the engaged rule
	// so capability holders with high session counts land here.
	if powerUser.HasUnlockedCapability() && snapshot.WeeklySessions >= t.PowerUserMinWeeklySessions {
		return Classification{StatePowerUser, ReasonCapabilityUsage, trends}
	}

	// Rule 4: steady multi-week usage with a flat or rising trend.
	if snapshot.ConsecutiveWeeksActive >= t.EngagedMinWeeksActive &&
		snapshot.WeeklySessions >= t.EngagedMinWeeklySessions &&
		(trends.TrendDirection == TrendStable || trends.TrendDirection == TrendIncreasing) {
		return Classification{StateEngaged, ReasonConsistentActivity, trends}
	}

	// Rule 5: sharp week-over-week decline of an established user.
	if trends.SessionsChangePct < t.DeclineRiskThresholdPct &&
		snapshot.ConsecutiveWeeksActive >= t.EngagedMinWeeksActive {
		return Classification{StateAtRisk, ReasonEngagementDecline, trends}
	}

	// Rule 6: extended inactivity, regardless of anything else.
	if snapshot.DaysSinceLastAction >= t.DormantAfterDays {
		return Classification{StateDormant, ReasonExtendedInactivity, trends}
	}

	// Rule 7: previously dormant user showing up again.
	if previous != nil && previous.CurrentState == StateDormant &&
		snapshot.DaysSinceLastAction < t.RecentActivityDays {
		return Classification{StateReturning, ReasonReactivation, trends}
	}

	// Fallback: nothing matched.
	if c.retainOnNoMatch && previous != nil {
		logrus.Debugf("no lifecycle rule matched for user %s, retaining state %s",
			previous.UserID, previous.CurrentState)
		return Classification{previous.CurrentState, ReasonNoChange, trends}
	}
	return Classification{StateNew, ReasonInitial, trends}
}

// ApplyClassification folds a classification into the user's lifecycle
// record. When the state is unchanged the history is left untouched; trends
// and LastStateCheckAt are updated either way. Returns the (possibly newly
// created) record and whether the state changed.
func ApplyClassification(previous *LifecycleState, userID string, cls Classification, now time.Time) (*LifecycleState, bool) {
	if previous == nil {
		state := &LifecycleState{
			UserID:       userID,
			CurrentState: cls.NewState,
			StateHistory: []HistoryEntry{{
				State:         cls.NewState,
				EnteredAt:     now,
				TriggerReason: cls.TriggerReason,
			}},
			EngagementTrends: cls.Trends,
			LastStateCheckAt: now,
		}
		logrus.Infof("created lifecycle state for user %s: %s (%s)", userID, cls.NewState, cls.TriggerReason)
		return state, true
	}

	previous.EngagementTrends = cls.Trends
	previous.LastStateCheckAt = now

	if cls.NewState == previous.CurrentState {
		return previous, false
	}

	if entry := previous.CurrentEntry(); entry != nil {
		exited := now
		days := int(now.Sub(entry.EnteredAt).Hours() / 24)
		if days < 0 {
			days = 0
		}
		entry.ExitedAt = &exited
		entry.DaysInState = &days
	}

	previous.StateHistory = append(previous.StateHistory, HistoryEntry{
		State:         cls.NewState,
		EnteredAt:     now,
		TriggerReason: cls.TriggerReason,
	})
	logrus.Infof("lifecycle transition for user %s: %s -> %s (%s)",
		userID, previous.CurrentState, cls.NewState, cls.TriggerReason)
	previous.CurrentState = cls.NewState

	return previous, true
}
