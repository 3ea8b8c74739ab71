package intervention

import (
	"time"
)

// Intervention record statuses.
const (
	StatusTriggered = "triggered"
	StatusActedOn   = "acted_on"
	StatusDismissed = "dismissed"
)

// Selection sources recorded on interventions.
const (
	SourceLifecycleState = "lifecycle_state"
	SourceSegment        = "segment"
)

// Candidate priorities. Playbook order encodes the default priority; the
// explicit tag only matters for churn-risk arbitration.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Candidate is one playbook entry: a nudge descriptor that can be selected
// for a user. The presentation layer maps Action/CallToAction to UI.
type Candidate struct {
	Type         string `json:"type"`
	Headline     string `json:"headline"`
	Message      string `json:"message"`
	CallToAction string `json:"callToAction"`
	Priority     string `json:"priority"`
}

// Record is a selected intervention occupying a user's active slot.
type Record struct {
	InterventionID string    `json:"interventionId"`
	Type           string    `json:"type"`
	Headline       string    `json:"headline"`
	Message        string    `json:"message"`
	CallToAction   string    `json:"callToAction"`
	Priority       string    `json:"priority"`
	Source         string    `json:"source"`    // "lifecycle_state" or "segment"
	SourceKey      string    `json:"sourceKey"` // the state or segment that selected it
	TriggeredAt    time.Time `json:"triggeredAt"`
	Status         string    `json:"status"`
}

// AuditEntry records one selection in the per-user audit trail.
type AuditEntry struct {
	Type       string    `json:"type"`
	Source     string    `json:"source"`
	SourceKey  string    `json:"sourceKey"`
	SelectedAt time.Time `json:"selectedAt"`
}

// UserInterventionState is the per-user intervention document.
//
// Active is a single slot: selecting a new intervention overwrites whatever
// is there, without checking whether the previous one is still triggered.
// There is no single-active-intervention guarantee.
type UserInterventionState struct {
	Active         *Record      `json:"active,omitempty"`
	DismissedTypes []string     `json:"dismissedTypes"` // accumulates, never shrinks
	History        []AuditEntry `json:"history"`
}

// IsDismissed reports whether the given intervention type was ever dismissed.
func (s *UserInterventionState) IsDismissed(interventionType string) bool {
	for _, t := range s.DismissedTypes {
		if t == interventionType {
			return true
		}
	}
	return false
}

// addDismissedType appends a type to the dismissed set if not already there.
func (s *UserInterventionState) addDismissedType(interventionType string) {
	if !s.IsDismissed(interventionType) {
		s.DismissedTypes = append(s.DismissedTypes, interventionType)
	}
}
