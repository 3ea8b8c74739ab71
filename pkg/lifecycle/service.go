// Copyright (c) 2026 DealScholar Inc. All Rights Reserved.
// This is licensed software from DealScholar Inc, for limitations
// and restrictions contact your company contract manager.

package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/dealscholar/lifecycle-engine/pkg/engagement"
	"github.com/dealscholar/lifecycle-engine/pkg/metrics"
)

// DetectResult is the outcome of a lifecycle detection run.
type DetectResult struct {
	CurrentState  StateName
	TriggerReason string
	Trends        EngagementTrends
	StateChanged  bool
}

// Service runs lifecycle detection: read the engagement profile, classify,
// and fold the result into the user's ledger.
type Service struct {
	profiles   engagement.Provider
	store      StateStore
	classifier *Classifier
	now        func() time.Time
}

// NewService creates a lifecycle detection service.
func NewService(profiles engagement.Provider, store StateStore, classifier *Classifier) *Service {
	return &Service{
		profiles:   profiles,
		store:      store,
		classifier: classifier,
		now:        time.Now,
	}
}

// DetectState classifies the user and persists the resulting record.
// Returns engagement.ErrProfileNotFound (no mutation) when the analytics
// aggregator has not written a profile for the user yet.
func (s *Service) DetectState(ctx context.Context, userID string) (*DetectResult, error) {
	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	previous, err := s.store.GetState(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	cls := s.classifier.Classify(profile.Snapshot, profile.Activation, profile.PowerUser, previous, now)

	previousState := StateName("")
	if previous != nil {
		previousState = previous.CurrentState
	}

	state, changed := ApplyClassification(previous, userID, cls, now)
	if err := s.store.PutState(ctx, userID, state); err != nil {
		return nil, fmt.Errorf("failed to persist lifecycle state: %w", err)
	}

	metrics.ClassificationsTotal.WithLabelValues(string(cls.NewState)).Inc()
	if changed && previousState != "" {
		metrics.StateTransitionsTotal.WithLabelValues(string(previousState), string(cls.NewState)).Inc()
	}

	return &DetectResult{
		CurrentState:  state.CurrentState,
		TriggerReason: cls.TriggerReason,
		Trends:        cls.Trends,
		StateChanged:  changed,
	}, nil
}
