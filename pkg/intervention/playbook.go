package intervention

import (
	"github.com/dealscholar/lifecycle-engine/pkg/lifecycle"
)

// statePlaybook maps each lifecycle state to its ordered candidate list.
// Order matters: absent risk arbitration, the first non-dismissed candidate
// wins. The tables are fixed at build time.
var statePlaybook = map[lifecycle.StateName][]Candidate{
	lifecycle.StateNew: {
		{
			Type:         "onboarding_checklist",
			Headline:     "Finish setting up",
			Message:      "Complete your first deal analysis to unlock your dashboard.",
			CallToAction: "resume_onboarding",
			Priority:     PriorityHigh,
		},
		{
			Type:         "guided_deal_tour",
			Headline:     "See how a pro reads a deal",
			Message:      "Take a five-minute guided walkthrough of a sample deal.",
			CallToAction: "start_tour",
			Priority:     PriorityMedium,
		},
	},
	lifecycle.StateActivated: {
		{
			Type:         "first_portfolio_nudge",
			Headline:     "Start your portfolio",
			Message:      "Add the deals you're watching to a portfolio and track them over time.",
			CallToAction: "create_portfolio",
			Priority:     PriorityMedium,
		},
		{
			Type:         "community_intro",
			Headline:     "Meet other investors",
			Message:      "Join the weekly community thread and share what you're analyzing.",
			CallToAction: "open_community",
			Priority:     PriorityLow,
		},
	},
	lifecycle.StateEngaged: {
		{
			Type:         "weekly_digest_optin",
			Headline:     "Your week in deals",
			Message:      "Get a weekly digest of deals matching your saved criteria.",
			CallToAction: "enable_digest",
			Priority:     PriorityLow,
		},
		{
			Type:         "advanced_course_offer",
			Headline:     "Ready for the next level?",
			Message:      "The advanced underwriting course picks up where you are now.",
			CallToAction: "view_course",
			Priority:     PriorityMedium,
		},
	},
	lifecycle.StatePowerUser: {
		{
			Type:         "beta_features_invite",
			Headline:     "Try what's next",
			Message:      "Get early access to features before they ship.",
			CallToAction: "join_beta",
			Priority:     PriorityLow,
		},
		{
			Type:         "mentor_program_invite",
			Headline:     "Share what you know",
			Message:      "Mentor newer members and earn community standing.",
			CallToAction: "apply_mentor",
			Priority:     PriorityMedium,
		},
	},
	lifecycle.StateAtRisk: {
		{
			Type:         "progress_reminder",
			Headline:     "You were on a roll",
			Message:      "Your analysis streak is one session away from continuing.",
			CallToAction: "resume_streak",
			Priority:     PriorityHigh,
		},
		{
			Type:         "reengagement_sequence",
			Headline:     "New deals matching your criteria",
			Message:      "Three new deals match the filters you saved.",
			CallToAction: "view_matches",
			Priority:     PriorityMedium,
		},
		{
			Type:         "winback_discount",
			Headline:     "A month on us",
			Message:      "Come back this week and your next month is free.",
			CallToAction: "claim_offer",
			Priority:     PriorityHigh,
		},
	},
	lifecycle.StateDormant: {
		{
			Type:         "winback_campaign",
			Headline:     "The market moved",
			Message:      "Here's what changed in your markets since your last visit.",
			CallToAction: "view_market_update",
			Priority:     PriorityHigh,
		},
		{
			Type:         "whats_new_digest",
			Headline:     "What you've missed",
			Message:      "A quick summary of new courses and features since you left.",
			CallToAction: "view_digest",
			Priority:     PriorityMedium,
		},
	},
	lifecycle.StateReturning: {
		{
			Type:         "welcome_back_tour",
			Headline:     "Welcome back",
			Message:      "A 2-minute refresher on where you left off.",
			CallToAction: "start_refresher",
			Priority:     PriorityMedium,
		},
		{
			Type:         "resume_course_prompt",
			Headline:     "Pick up your course",
			Message:      "You were 60% through the underwriting course.",
			CallToAction: "resume_course",
			Priority:     PriorityHigh,
		},
	},
}

// segmentPlaybook is the flat segment-to-intervention lookup. Unlike the
// state playbook there is exactly one candidate per segment, and the
// selector applies no dismissal filtering or risk arbitration.
var segmentPlaybook = map[string]Candidate{
	"emerging_power_users": {
		Type:         "power_features_tour",
		Headline:     "Unlock the full toolkit",
		Message:      "You're using the platform like our power users. See what else is there.",
		CallToAction: "start_tour",
		Priority:     PriorityMedium,
	},
	"at_risk_engaged_users": {
		Type:         "reengagement_challenge",
		Headline:     "One deal this week",
		Message:      "Analyze one deal this week to keep your momentum.",
		CallToAction: "start_challenge",
		Priority:     PriorityHigh,
	},
	"trial_converters": {
		Type:         "upgrade_success_tips",
		Headline:     "Make the most of your plan",
		Message:      "Three things members do in their first paid week.",
		CallToAction: "view_tips",
		Priority:     PriorityMedium,
	},
	"dormant_premium_users": {
		Type:         "premium_winback_offer",
		Headline:     "Your premium tools are waiting",
		Message:      "Your subscription is active and the market has moved.",
		CallToAction: "view_market_update",
		Priority:     PriorityHigh,
	},
}

// StateCandidates returns the playbook entries for a state, in order.
func StateCandidates(state lifecycle.StateName) []Candidate {
	return statePlaybook[state]
}

// SegmentCandidate returns the intervention mapped to a segment, if any.
func SegmentCandidate(segment string) (Candidate, bool) {
	c, ok := segmentPlaybook[segment]
	return c, ok
}
