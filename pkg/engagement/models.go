// Copyright (c) 2026 DealScholar Inc. All Rights Reserved.
// This is licensed software from DealScholar Inc, for limitations
// and restrictions contact your company contract manager.

package engagement

import (
	"time"
)

const (
	// NeverActiveSentinel is the DaysSinceLastAction value the analytics
	// aggregator writes for users with no recorded activity at all.
	NeverActiveSentinel = 999
)

// Activation path values written by the analytics aggregator.
const (
	PathDealFirst      = "deal_first"
	PathPortfolioFirst = "portfolio_first"
	PathCommunityFirst = "community_first"
)

// Churn risk levels computed by the analytics aggregator.
const (
	RiskLow      = "low"
	RiskMedium   = "medium"
	RiskHigh     = "high"
	RiskCritical = "critical"
)

// EngagementProfile is the per-user rolling engagement document written by
// the external analytics aggregator. The lifecycle engine only reads it.
type EngagementProfile struct {
	Snapshot   Snapshot         `json:"snapshot"`
	Activation ActivationSignal `json:"activation"`
	PowerUser  PowerUserSignal  `json:"powerUser"`
	ChurnRisk  string           `json:"churnRisk"` // "low", "medium", "high", "critical"; empty means low
	UpdatedAt  time.Time        `json:"updatedAt"`
}

// Snapshot holds the rolling engagement metrics for a user.
// All counts are non-negative. Sessions14d is the wider window that
// semantically contains the 7-day WeeklySessions window.
type Snapshot struct {
	WeeklySessions         int        `json:"weeklySessions"`
	Sessions14d            int        `json:"sessions14d"`
	WeeklyActions          int        `json:"weeklyActions"`
	TotalActions30d        int        `json:"totalActions30d"`
	DaysSinceLastAction    int        `json:"daysSinceLastAction"`
	ConsecutiveWeeksActive int        `json:"consecutiveWeeksActive"`
	LastActivityDate       *time.Time `json:"lastActivityDate"`
}

// ActivationSignal captures the user's onboarding progress.
type ActivationSignal struct {
	ActivationPath        string `json:"activationPath"` // "deal_first", "portfolio_first", "community_first" or empty
	CoreMilestoneAchieved bool   `json:"coreMilestoneAchieved"`
}

// PowerUserSignal captures advanced capabilities the user has unlocked.
type PowerUserSignal struct {
	UnlockedCapabilities map[string]bool `json:"unlockedCapabilities"`
}

// HasUnlockedCapability returns true if any capability is unlocked.
func (p *PowerUserSignal) HasUnlockedCapability() bool {
	for _, unlocked := range p.UnlockedCapabilities {
		if unlocked {
			return true
		}
	}
	return false
}

// RiskLevel returns the profile's churn risk, defaulting to low when the
// aggregator has not written one yet.
func (p *EngagementProfile) RiskLevel() string {
	if p.ChurnRisk == "" {
		return RiskLow
	}
	return p.ChurnRisk
}
