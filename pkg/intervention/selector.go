package intervention

import (
	"github.com/sirupsen/logrus"

	"github.com/dealscholar/lifecycle-engine/pkg/engagement"
	"github.com/dealscholar/lifecycle-engine/pkg/lifecycle"
)

// Selection outcome reasons returned to the caller when no intervention is
// available. These are normal outcomes, not errors: the caller suppresses
// the nudge UI.
const (
	ReasonNoPlaybookForState  = "no playbook defined for state"
	ReasonAllDismissed        = "all candidates dismissed"
	ReasonNoSegmentMapping    = "no intervention defined for segment"
	ReasonNoSegmentsRequested = "no segments provided"
)

// SelectForState picks one candidate from the state playbook.
//
// Candidates whose type is in the dismissed set are filtered out first. When
// churn risk is high or critical the first remaining high-priority candidate
// is preferred; otherwise playbook order decides. An empty remainder returns
// (nil, reason).
func SelectForState(state lifecycle.StateName, churnRisk string, dismissed []string) (*Candidate, string) {
	candidates := StateCandidates(state)
	if len(candidates) == 0 {
		logrus.Debugf("no intervention playbook for state '%s'", state)
		return nil, ReasonNoPlaybookForState
	}

	dismissedSet := make(map[string]bool, len(dismissed))
	for _, t := range dismissed {
		dismissedSet[t] = true
	}

	var remaining []Candidate
	for _, c := range candidates {
		if dismissedSet[c.Type] {
			continue
		}
		remaining = append(remaining, c)
	}
	if len(remaining) == 0 {
		logrus.Debugf("all interventions for state '%s' dismissed", state)
		return nil, ReasonAllDismissed
	}

	if churnRisk == engagement.RiskHigh || churnRisk == engagement.RiskCritical {
		for i := range remaining {
			if remaining[i].Priority == PriorityHigh {
				return &remaining[i], ""
			}
		}
	}

	return &remaining[0], ""
}

// SelectForSegment picks the intervention for the first segment in the
// caller-provided list. Remaining segments are ignored, and no dismissal
// filtering or risk arbitration applies: segment to intervention is a flat
// 1:1 mapping.
func SelectForSegment(segments []string) (*Candidate, string) {
	if len(segments) == 0 {
		return nil, ReasonNoSegmentsRequested
	}

	primary := segments[0]
	candidate, ok := SegmentCandidate(primary)
	if !ok {
		logrus.Debugf("no intervention mapping for segment '%s'", primary)
		return nil, ReasonNoSegmentMapping
	}
	return &candidate, ""
}
