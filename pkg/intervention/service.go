package intervention

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dealscholar/lifecycle-engine/pkg/engagement"
	"github.com/dealscholar/lifecycle-engine/pkg/lifecycle"
	"github.com/dealscholar/lifecycle-engine/pkg/metrics"
)

// ErrNoLifecycleState is returned when a state-based selection is requested
// for a user who was never classified.
var ErrNoLifecycleState = errors.New("no lifecycle state for user")

// ErrActiveInterventionNotFound is returned when a dismiss/acted-on call
// references an intervention that is not the user's current active slot.
var ErrActiveInterventionNotFound = errors.New("active intervention not found")

// Result is the outcome of a selection request.
type Result struct {
	Intervention *Record
	Reason       string // set when Intervention is nil; a normal outcome
}

// Service selects and records interventions.
type Service struct {
	store          Store
	lifecycleStore lifecycle.StateStore
	profiles       engagement.Provider
	now            func() time.Time
	newID          func() string
}

// NewService creates an intervention selection service.
func NewService(store Store, lifecycleStore lifecycle.StateStore, profiles engagement.Provider) *Service {
	return &Service{
		store:          store,
		lifecycleStore: lifecycleStore,
		profiles:       profiles,
		now:            time.Now,
		newID:          func() string { return uuid.NewString() },
	}
}

// TriggerForState selects an intervention from the state playbook for the
// user's current lifecycle state, applying the dismissed-type filter and
// churn-risk arbitration, and records it as the active slot.
func (s *Service) TriggerForState(ctx context.Context, userID string) (*Result, error) {
	lcState, err := s.lifecycleStore.GetState(ctx, userID)
	if err != nil {
		return nil, err
	}
	if lcState == nil {
		return nil, ErrNoLifecycleState
	}

	churnRisk := engagement.RiskLow
	if profile, err := s.profiles.GetProfile(ctx, userID); err == nil {
		churnRisk = profile.RiskLevel()
	} else if !errors.Is(err, engagement.ErrProfileNotFound) {
		// Risk only arbitrates priority; a flaky read should not block the
		// selection itself.
		logrus.Warnf("failed to read churn risk for user %s: %v (treating as low)", userID, err)
	}

	state, err := s.store.GetInterventionState(ctx, userID)
	if err != nil {
		return nil, err
	}

	candidate, reason := SelectForState(lcState.CurrentState, churnRisk, state.DismissedTypes)
	if candidate == nil {
		return &Result{Reason: reason}, nil
	}

	record := s.activate(state, candidate, SourceLifecycleState, string(lcState.CurrentState))
	if err := s.store.PutInterventionState(ctx, userID, state); err != nil {
		return nil, fmt.Errorf("failed to persist intervention: %w", err)
	}

	metrics.InterventionsSelectedTotal.WithLabelValues(record.Type, SourceLifecycleState).Inc()
	logrus.Infof("selected intervention %s (%s) for user %s in state %s",
		record.InterventionID, record.Type, userID, lcState.CurrentState)

	return &Result{Intervention: record}, nil
}

// TriggerForSegment selects an intervention for the first segment in the
// caller-provided list and records it as the active slot. No dismissal
// filtering or risk arbitration applies here.
func (s *Service) TriggerForSegment(ctx context.Context, userID string, segments []string) (*Result, error) {
	candidate, reason := SelectForSegment(segments)
	if candidate == nil {
		return &Result{Reason: reason}, nil
	}

	state, err := s.store.GetInterventionState(ctx, userID)
	if err != nil {
		return nil, err
	}

	record := s.activate(state, candidate, SourceSegment, segments[0])
	if err := s.store.PutInterventionState(ctx, userID, state); err != nil {
		return nil, fmt.Errorf("failed to persist intervention: %w", err)
	}

	metrics.InterventionsSelectedTotal.WithLabelValues(record.Type, SourceSegment).Inc()
	logrus.Infof("selected intervention %s (%s) for user %s via segment %s",
		record.InterventionID, record.Type, userID, segments[0])

	return &Result{Intervention: record}, nil
}

// Dismiss closes the active slot and adds the type to the user's dismissed
// set so state-based selection never offers it again.
func (s *Service) Dismiss(ctx context.Context, userID, interventionID string) error {
	return s.closeSlot(ctx, userID, interventionID, StatusDismissed)
}

// MarkActedOn closes the active slot, recording that the user engaged.
func (s *Service) MarkActedOn(ctx context.Context, userID, interventionID string) error {
	return s.closeSlot(ctx, userID, interventionID, StatusActedOn)
}

// activate writes the record into the active slot and appends to the audit
// trail. Any prior active record is overwritten without a status check.
func (s *Service) activate(state *UserInterventionState, candidate *Candidate, source, sourceKey string) *Record {
	now := s.now()
	record := &Record{
		InterventionID: s.newID(),
		Type:           candidate.Type,
		Headline:       candidate.Headline,
		Message:        candidate.Message,
		CallToAction:   candidate.CallToAction,
		Priority:       candidate.Priority,
		Source:         source,
		SourceKey:      sourceKey,
		TriggeredAt:    now,
		Status:         StatusTriggered,
	}
	state.Active = record
	state.History = append(state.History, AuditEntry{
		Type:       candidate.Type,
		Source:     source,
		SourceKey:  sourceKey,
		SelectedAt: now,
	})
	return record
}

func (s *Service) closeSlot(ctx context.Context, userID, interventionID, status string) error {
	state, err := s.store.GetInterventionState(ctx, userID)
	if err != nil {
		return err
	}
	if state.Active == nil || state.Active.InterventionID != interventionID {
		return ErrActiveInterventionNotFound
	}

	state.Active.Status = status
	if status == StatusDismissed {
		state.addDismissedType(state.Active.Type)
	}
	state.Active = nil

	return s.store.PutInterventionState(ctx, userID, state)
}
