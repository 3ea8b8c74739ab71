package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dealscholar/lifecycle-engine/pkg/common"
	"github.com/dealscholar/lifecycle-engine/pkg/habit"
)

// detectHabitTriggersRequest is the body for POST /v1/habit/triggers.
type detectHabitTriggersRequest struct {
	ActionType string                 `json:"action_type"`
	ActionData map[string]interface{} `json:"action_data"`
}

// detectHabitTriggersResponse lists the triggers an action fired.
type detectHabitTriggersResponse struct {
	Success        bool                 `json:"success"`
	TriggeredLoops []habit.FiredTrigger `json:"triggered_loops"`
	Count          int                  `json:"count"`
}

// DetectHabitTriggers evaluates an incoming user action against the habit
// loop trigger table.
func (h *Handler) DetectHabitTriggers(w http.ResponseWriter, r *http.Request) {
	scope := common.ScopeFromContext(r.Context(), "Handler.DetectHabitTriggers")
	defer scope.Finish()

	userID := userIDFromContext(r.Context())
	scope.SetAttribute("user.id", userID)

	var req detectHabitTriggersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.ActionType == "" {
		writeBadRequest(w, "action_type is required")
		return
	}
	scope.SetAttribute("action.type", req.ActionType)

	fired, err := h.habitService.DetectTriggers(scope.Ctx, userID, req.ActionType, req.ActionData)
	if err != nil {
		if errors.Is(err, habit.ErrRetentionStateNotFound) {
			writeNotFound(w, "no retention state for user")
			return
		}
		scope.TraceError(err)
		scope.Log.Errorf("habit trigger detection failed for user %s: %v", userID, err)
		writeInternalError(w, "trigger detection failed")
		return
	}

	if fired == nil {
		fired = []habit.FiredTrigger{}
	}
	writeJSON(w, http.StatusOK, detectHabitTriggersResponse{
		Success:        true,
		TriggeredLoops: fired,
		Count:          len(fired),
	})
}

// provisionHabitLoopsRequest is the body for POST /v1/habit/loops.
type provisionHabitLoopsRequest struct {
	Loops map[string]bool `json:"loops"`
}

// ProvisionHabitLoops writes the user's habit-loop enablement. This is the
// hook the onboarding flow calls; the detector itself never creates loops.
func (h *Handler) ProvisionHabitLoops(w http.ResponseWriter, r *http.Request) {
	scope := common.ScopeFromContext(r.Context(), "Handler.ProvisionHabitLoops")
	defer scope.Finish()

	userID := userIDFromContext(r.Context())

	var req provisionHabitLoopsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if len(req.Loops) == 0 {
		writeBadRequest(w, "loops is required")
		return
	}
	for name := range req.Loops {
		known := false
		for _, loop := range habit.LoopNames {
			if name == loop {
				known = true
				break
			}
		}
		if !known {
			writeBadRequest(w, "unknown habit loop: "+name)
			return
		}
	}

	state, err := h.habitService.Provision(scope.Ctx, userID, req.Loops)
	if err != nil {
		scope.TraceError(err)
		scope.Log.Errorf("habit loop provisioning failed for user %s: %v", userID, err)
		writeInternalError(w, "provisioning failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"habit_loops": state.HabitLoops,
	})
}
