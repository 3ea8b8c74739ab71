package intervention

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"github.com/dealscholar/lifecycle-engine/pkg/engagement"
	"github.com/dealscholar/lifecycle-engine/pkg/lifecycle"
)

func newTestInterventionService(t *testing.T) (*Service, *RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := NewRedisStore(client)
	svc := NewService(store, lifecycle.NewRedisStateStore(client), engagement.NewRedisProvider(client))
	return svc, store, mr
}

func seedLifecycleState(t *testing.T, mr *miniredis.Miniredis, userID string, state lifecycle.StateName) {
	t.Helper()

	data, err := json.Marshal(&lifecycle.LifecycleState{UserID: userID, CurrentState: state})
	if err != nil {
		t.Fatalf("Failed to marshal lifecycle state: %v", err)
	}
	mr.Set("lifecycle_engine:lifecycle_state:"+userID, string(data))
}

func seedChurnRisk(t *testing.T, mr *miniredis.Miniredis, userID, risk string) {
	t.Helper()

	data, err := json.Marshal(&engagement.EngagementProfile{ChurnRisk: risk})
	if err != nil {
		t.Fatalf("Failed to marshal profile: %v", err)
	}
	mr.Set("lifecycle_engine:engagement_profile:"+userID, string(data))
}

func TestService_TriggerForState_NoLifecycleState(t *testing.T) {
	svc, _, _ := newTestInterventionService(t)

	_, err := svc.TriggerForState(context.Background(), "user-1")
	if !errors.Is(err, ErrNoLifecycleState) {
		t.Errorf("Expected ErrNoLifecycleState, got %v", err)
	}
}

func TestService_TriggerForState_SelectsAndActivates(t *testing.T) {
	svc, store, mr := newTestInterventionService(t)
	ctx := context.Background()

	seedLifecycleState(t, mr, "user-1", lifecycle.StateNew)

	result, err := svc.TriggerForState(ctx, "user-1")
	if err != nil {
		t.Fatalf("TriggerForState failed: %v", err)
	}
	if result.Intervention == nil {
		t.Fatalf("Expected intervention, got reason %q", result.Reason)
	}
	if result.Intervention.Type != "onboarding_checklist" {
		t.Errorf("Expected type 'onboarding_checklist', got %q", result.Intervention.Type)
	}
	if result.Intervention.InterventionID == "" {
		t.Error("Expected generated intervention ID")
	}
	if result.Intervention.Status != StatusTriggered {
		t.Errorf("Expected status %q, got %q", StatusTriggered, result.Intervention.Status)
	}
	if result.Intervention.Source != SourceLifecycleState {
		t.Errorf("Expected source %q, got %q", SourceLifecycleState, result.Intervention.Source)
	}
	if result.Intervention.SourceKey != "new" {
		t.Errorf("Expected source key 'new', got %q", result.Intervention.SourceKey)
	}

	state, err := store.GetInterventionState(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetInterventionState failed: %v", err)
	}
	if state.Active == nil || state.Active.InterventionID != result.Intervention.InterventionID {
		t.Error("Expected active slot to hold the selected intervention")
	}
	if len(state.History) != 1 {
		t.Errorf("Expected 1 audit entry, got %d", len(state.History))
	}
}

func TestService_TriggerForState_FreshIDPerEmission(t *testing.T) {
	svc, _, mr := newTestInterventionService(t)
	ctx := context.Background()

	seedLifecycleState(t, mr, "user-1", lifecycle.StateNew)

	first, err := svc.TriggerForState(ctx, "user-1")
	if err != nil {
		t.Fatalf("TriggerForState failed: %v", err)
	}
	second, err := svc.TriggerForState(ctx, "user-1")
	if err != nil {
		t.Fatalf("TriggerForState failed: %v", err)
	}
	if first.Intervention.InterventionID == second.Intervention.InterventionID {
		t.Error("Expected a fresh intervention ID per emission")
	}
}

func TestService_TriggerForState_RiskArbitration(t *testing.T) {
	svc, _, mr := newTestInterventionService(t)
	ctx := context.Background()

	seedLifecycleState(t, mr, "user-1", lifecycle.StateReturning)
	seedChurnRisk(t, mr, "user-1", engagement.RiskCritical)

	result, err := svc.TriggerForState(ctx, "user-1")
	if err != nil {
		t.Fatalf("TriggerForState failed: %v", err)
	}
	// resume_course_prompt is the high-priority entry; playbook order alone
	// would pick welcome_back_tour.
	if result.Intervention.Type != "resume_course_prompt" {
		t.Errorf("Expected 'resume_course_prompt' under critical risk, got %q", result.Intervention.Type)
	}
}

func TestService_TriggerForState_MissingProfileDefaultsToLowRisk(t *testing.T) {
	svc, _, mr := newTestInterventionService(t)
	ctx := context.Background()

	seedLifecycleState(t, mr, "user-1", lifecycle.StateReturning)

	result, err := svc.TriggerForState(ctx, "user-1")
	if err != nil {
		t.Fatalf("TriggerForState failed: %v", err)
	}
	if result.Intervention.Type != "welcome_back_tour" {
		t.Errorf("Expected playbook order without risk arbitration, got %q", result.Intervention.Type)
	}
}

func TestService_TriggerForState_AllDismissed(t *testing.T) {
	svc, store, mr := newTestInterventionService(t)
	ctx := context.Background()

	seedLifecycleState(t, mr, "user-1", lifecycle.StateNew)
	if err := store.PutInterventionState(ctx, "user-1", &UserInterventionState{
		DismissedTypes: []string{"onboarding_checklist", "guided_deal_tour"},
	}); err != nil {
		t.Fatalf("PutInterventionState failed: %v", err)
	}

	result, err := svc.TriggerForState(ctx, "user-1")
	if err != nil {
		t.Fatalf("TriggerForState failed: %v", err)
	}
	if result.Intervention != nil {
		t.Errorf("Expected no intervention, got %+v", result.Intervention)
	}
	if result.Reason != ReasonAllDismissed {
		t.Errorf("Expected reason %q, got %q", ReasonAllDismissed, result.Reason)
	}
}

func TestService_TriggerForSegment(t *testing.T) {
	svc, store, _ := newTestInterventionService(t)
	ctx := context.Background()

	result, err := svc.TriggerForSegment(ctx, "user-1", []string{"at_risk_engaged_users", "trial_converters"})
	if err != nil {
		t.Fatalf("TriggerForSegment failed: %v", err)
	}
	if result.Intervention == nil {
		t.Fatalf("Expected intervention, got reason %q", result.Reason)
	}
	if result.Intervention.Type != "reengagement_challenge" {
		t.Errorf("Expected type for primary segment only, got %q", result.Intervention.Type)
	}
	if result.Intervention.SourceKey != "at_risk_engaged_users" {
		t.Errorf("Expected source key 'at_risk_engaged_users', got %q", result.Intervention.SourceKey)
	}

	state, err := store.GetInterventionState(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetInterventionState failed: %v", err)
	}
	if state.Active == nil {
		t.Error("Expected active slot set by segment selection")
	}
}

func TestService_TriggerForSegment_UnknownSegment(t *testing.T) {
	svc, _, _ := newTestInterventionService(t)

	result, err := svc.TriggerForSegment(context.Background(), "user-1", []string{"left_handed_users"})
	if err != nil {
		t.Fatalf("TriggerForSegment failed: %v", err)
	}
	if result.Intervention != nil {
		t.Errorf("Expected no intervention for unknown segment, got %+v", result.Intervention)
	}
	if result.Reason != ReasonNoSegmentMapping {
		t.Errorf("Expected reason %q, got %q", ReasonNoSegmentMapping, result.Reason)
	}
}

func TestService_TriggerForState_OverwritesActiveSlot(t *testing.T) {
	svc, store, mr := newTestInterventionService(t)
	ctx := context.Background()

	seedLifecycleState(t, mr, "user-1", lifecycle.StateNew)

	first, err := svc.TriggerForState(ctx, "user-1")
	if err != nil {
		t.Fatalf("TriggerForState failed: %v", err)
	}
	if _, err := svc.TriggerForSegment(ctx, "user-1", []string{"trial_converters"}); err != nil {
		t.Fatalf("TriggerForSegment failed: %v", err)
	}

	state, err := store.GetInterventionState(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetInterventionState failed: %v", err)
	}
	if state.Active == nil {
		t.Fatal("Expected active slot")
	}
	if state.Active.InterventionID == first.Intervention.InterventionID {
		t.Error("Expected the second selection to overwrite the active slot")
	}
	if len(state.History) != 2 {
		t.Errorf("Expected 2 audit entries, got %d", len(state.History))
	}
}

func TestService_Dismiss(t *testing.T) {
	svc, store, mr := newTestInterventionService(t)
	ctx := context.Background()

	seedLifecycleState(t, mr, "user-1", lifecycle.StateNew)
	result, err := svc.TriggerForState(ctx, "user-1")
	if err != nil {
		t.Fatalf("TriggerForState failed: %v", err)
	}

	if err := svc.Dismiss(ctx, "user-1", result.Intervention.InterventionID); err != nil {
		t.Fatalf("Dismiss failed: %v", err)
	}

	state, err := store.GetInterventionState(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetInterventionState failed: %v", err)
	}
	if state.Active != nil {
		t.Error("Expected active slot cleared after dismissal")
	}
	if !state.IsDismissed("onboarding_checklist") {
		t.Error("Expected dismissed type recorded")
	}

	// The dismissed type is never offered again.
	next, err := svc.TriggerForState(ctx, "user-1")
	if err != nil {
		t.Fatalf("TriggerForState failed: %v", err)
	}
	if next.Intervention.Type != "guided_deal_tour" {
		t.Errorf("Expected next candidate after dismissal, got %q", next.Intervention.Type)
	}

	// Dismissing the second one exhausts the playbook.
	if err := svc.Dismiss(ctx, "user-1", next.Intervention.InterventionID); err != nil {
		t.Fatalf("Dismiss failed: %v", err)
	}
	exhausted, err := svc.TriggerForState(ctx, "user-1")
	if err != nil {
		t.Fatalf("TriggerForState failed: %v", err)
	}
	if exhausted.Intervention != nil || exhausted.Reason != ReasonAllDismissed {
		t.Errorf("Expected all-dismissed outcome, got %+v / %q", exhausted.Intervention, exhausted.Reason)
	}
}

func TestService_MarkActedOn(t *testing.T) {
	svc, store, mr := newTestInterventionService(t)
	ctx := context.Background()

	seedLifecycleState(t, mr, "user-1", lifecycle.StateAtRisk)
	result, err := svc.TriggerForState(ctx, "user-1")
	if err != nil {
		t.Fatalf("TriggerForState failed: %v", err)
	}

	if err := svc.MarkActedOn(ctx, "user-1", result.Intervention.InterventionID); err != nil {
		t.Fatalf("MarkActedOn failed: %v", err)
	}

	state, err := store.GetInterventionState(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetInterventionState failed: %v", err)
	}
	if state.Active != nil {
		t.Error("Expected active slot cleared after acting on")
	}
	// Acting on does not add to the dismissed set.
	if state.IsDismissed(result.Intervention.Type) {
		t.Error("Expected acted-on type to stay eligible")
	}

	next, err := svc.TriggerForState(ctx, "user-1")
	if err != nil {
		t.Fatalf("TriggerForState failed: %v", err)
	}
	if next.Intervention.Type != result.Intervention.Type {
		t.Errorf("Expected acted-on type offered again, got %q", next.Intervention.Type)
	}
}

func TestService_CloseSlot_StaleID(t *testing.T) {
	svc, _, mr := newTestInterventionService(t)
	ctx := context.Background()

	seedLifecycleState(t, mr, "user-1", lifecycle.StateNew)
	if _, err := svc.TriggerForState(ctx, "user-1"); err != nil {
		t.Fatalf("TriggerForState failed: %v", err)
	}

	err := svc.Dismiss(ctx, "user-1", "no-such-id")
	if !errors.Is(err, ErrActiveInterventionNotFound) {
		t.Errorf("Expected ErrActiveInterventionNotFound, got %v", err)
	}

	// No active slot at all.
	err = svc.Dismiss(ctx, "user-2", "no-such-id")
	if !errors.Is(err, ErrActiveInterventionNotFound) {
		t.Errorf("Expected ErrActiveInterventionNotFound, got %v", err)
	}
}
