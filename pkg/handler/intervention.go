package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dealscholar/lifecycle-engine/pkg/common"
	"github.com/dealscholar/lifecycle-engine/pkg/intervention"
)

// interventionResponse is the body for both selection endpoints. When no
// intervention is available, Success is false and Reason says why; that is
// a normal outcome the caller uses to suppress the nudge UI.
type interventionResponse struct {
	Success      bool                 `json:"success"`
	Intervention *intervention.Record `json:"intervention,omitempty"`
	Reason       string               `json:"reason,omitempty"`
}

// TriggerLifecycleIntervention selects an intervention from the state
// playbook for the user's current lifecycle state.
func (h *Handler) TriggerLifecycleIntervention(w http.ResponseWriter, r *http.Request) {
	scope := common.ScopeFromContext(r.Context(), "Handler.TriggerLifecycleIntervention")
	defer scope.Finish()

	userID := userIDFromContext(r.Context())
	scope.SetAttribute("user.id", userID)

	result, err := h.interventionService.TriggerForState(scope.Ctx, userID)
	if err != nil {
		if errors.Is(err, intervention.ErrNoLifecycleState) {
			writeNotFound(w, "no lifecycle state for user")
			return
		}
		scope.TraceError(err)
		scope.Log.Errorf("lifecycle intervention selection failed for user %s: %v", userID, err)
		writeInternalError(w, "intervention selection failed")
		return
	}

	writeSelection(w, result)
}

// triggerSegmentedRequest is the body for POST /v1/interventions/segmented.
type triggerSegmentedRequest struct {
	Segments []string `json:"segments"`
}

// TriggerSegmentedIntervention selects an intervention for the first
// segment in the caller-provided list.
func (h *Handler) TriggerSegmentedIntervention(w http.ResponseWriter, r *http.Request) {
	scope := common.ScopeFromContext(r.Context(), "Handler.TriggerSegmentedIntervention")
	defer scope.Finish()

	userID := userIDFromContext(r.Context())
	scope.SetAttribute("user.id", userID)

	var req triggerSegmentedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if len(req.Segments) == 0 {
		writeBadRequest(w, "segments is required")
		return
	}

	result, err := h.interventionService.TriggerForSegment(scope.Ctx, userID, req.Segments)
	if err != nil {
		scope.TraceError(err)
		scope.Log.Errorf("segmented intervention selection failed for user %s: %v", userID, err)
		writeInternalError(w, "intervention selection failed")
		return
	}

	writeSelection(w, result)
}

// closeSlotRequest is the body for the dismiss and acted-on endpoints.
type closeSlotRequest struct {
	InterventionID string `json:"intervention_id"`
}

// DismissIntervention closes the active slot and records the dismissal so
// the type is never offered to this user again.
func (h *Handler) DismissIntervention(w http.ResponseWriter, r *http.Request) {
	h.closeSlot(w, r, "Handler.DismissIntervention", h.interventionService.Dismiss)
}

// MarkInterventionActedOn closes the active slot marking user engagement.
func (h *Handler) MarkInterventionActedOn(w http.ResponseWriter, r *http.Request) {
	h.closeSlot(w, r, "Handler.MarkInterventionActedOn", h.interventionService.MarkActedOn)
}

func (h *Handler) closeSlot(
	w http.ResponseWriter,
	r *http.Request,
	spanName string,
	close func(ctx context.Context, userID, interventionID string) error,
) {
	scope := common.ScopeFromContext(r.Context(), spanName)
	defer scope.Finish()

	userID := userIDFromContext(r.Context())
	scope.SetAttribute("user.id", userID)

	var req closeSlotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.InterventionID == "" {
		writeBadRequest(w, "intervention_id is required")
		return
	}

	if err := close(scope.Ctx, userID, req.InterventionID); err != nil {
		if errors.Is(err, intervention.ErrActiveInterventionNotFound) {
			writeNotFound(w, "no matching active intervention")
			return
		}
		scope.TraceError(err)
		scope.Log.Errorf("intervention slot update failed for user %s: %v", userID, err)
		writeInternalError(w, "intervention update failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func writeSelection(w http.ResponseWriter, result *intervention.Result) {
	if result.Intervention == nil {
		writeJSON(w, http.StatusOK, interventionResponse{Success: false, Reason: result.Reason})
		return
	}
	writeJSON(w, http.StatusOK, interventionResponse{Success: true, Intervention: result.Intervention})
}
