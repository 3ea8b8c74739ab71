package habit

import (
	"time"

	"github.com/sirupsen/logrus"
)

// triggerMapping maps an action type to a candidate trigger on one loop.
type triggerMapping struct {
	loopType string
	trigger  string
	action   string
}

// triggerTable is the static action-to-trigger playbook. Action types are
// disjoint; an action fires at most one trigger per loop, but may span
// loops (see deal_analysis_shared).
var triggerTable = map[string][]triggerMapping{
	"deal_saved": {
		{LoopDiscovery, "deal_saved", "show_related_deals"},
	},
	"deal_viewed": {
		{LoopDiscovery, "deal_viewed", "recommend_next_deal"},
	},
	"search_performed": {
		{LoopDiscovery, "search_performed", "suggest_saved_search"},
	},
	"inactivity_5_days": {
		{LoopInsight, "inactivity_5_days", "send_periodic_insights"},
	},
	"insight_bookmarked": {
		{LoopInsight, "insight_bookmarked", "send_related_insights"},
	},
	"weekly_summary_viewed": {
		{LoopInsight, "weekly_summary_viewed", "schedule_next_summary"},
	},
	"followed_person": {
		{LoopSocial, "followed_person", "suggest_related_content"},
	},
	"comment_posted": {
		{LoopSocial, "comment_posted", "notify_followers"},
	},
	"deal_analysis_shared": {
		{LoopInsight, "deal_analysis_shared", "send_related_insights"},
		{LoopSocial, "deal_analysis_shared", "suggest_related_content"},
	},
}

// KnownActionTypes returns the action types the detector understands.
func KnownActionTypes() []string {
	types := make([]string, 0, len(triggerTable))
	for actionType := range triggerTable {
		types = append(types, actionType)
	}
	return types
}

// DetectTriggers evaluates one action against the trigger table. Only
// mappings whose loop is active for the user fire. Unknown action types fire
// nothing; that is a normal outcome, not an error.
func DetectTriggers(actionType string, actionData map[string]interface{}, state *RetentionState) []FiredTrigger {
	mappings, ok := triggerTable[actionType]
	if !ok {
		logrus.Debugf("no trigger mappings for action type '%s'", actionType)
		return nil
	}

	var fired []FiredTrigger
	for _, m := range mappings {
		loop, ok := state.HabitLoops[m.loopType]
		if !ok || !loop.Active {
			continue
		}
		fired = append(fired, FiredTrigger{
			LoopType: m.loopType,
			Trigger:  m.trigger,
			Context:  actionData,
			Action:   m.action,
		})
	}

	return fired
}

// ApplyFiredTriggers updates per-loop counters for a detector call. Each
// loop that fired at least one trigger has its count incremented by exactly
// 1: the counter tracks "loop was engaged this call", not trigger volume.
func ApplyFiredTriggers(state *RetentionState, fired []FiredTrigger, now time.Time) {
	touched := make(map[string]bool)
	for _, f := range fired {
		if touched[f.LoopType] {
			continue
		}
		touched[f.LoopType] = true

		loop, ok := state.HabitLoops[f.LoopType]
		if !ok {
			continue
		}
		loop.TriggerCount++
		ts := now
		loop.LastTriggeredAt = &ts
	}
}
