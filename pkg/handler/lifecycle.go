package handler

import (
	"errors"
	"net/http"

	"github.com/dealscholar/lifecycle-engine/pkg/common"
	"github.com/dealscholar/lifecycle-engine/pkg/engagement"
	"github.com/dealscholar/lifecycle-engine/pkg/lifecycle"
)

// detectLifecycleResponse is the body for POST /v1/lifecycle/detect.
type detectLifecycleResponse struct {
	Success          bool                       `json:"success"`
	CurrentState     lifecycle.StateName        `json:"current_state"`
	TriggerReason    string                     `json:"trigger_reason"`
	EngagementTrends lifecycle.EngagementTrends `json:"engagement_trends"`
	StateChanged     bool                       `json:"state_changed"`
}

// DetectLifecycleState classifies the authenticated user's lifecycle state
// from their engagement profile and records the transition.
func (h *Handler) DetectLifecycleState(w http.ResponseWriter, r *http.Request) {
	scope := common.ScopeFromContext(r.Context(), "Handler.DetectLifecycleState")
	defer scope.Finish()

	userID := userIDFromContext(r.Context())
	scope.SetAttribute("user.id", userID)

	result, err := h.lifecycleService.DetectState(scope.Ctx, userID)
	if err != nil {
		if errors.Is(err, engagement.ErrProfileNotFound) {
			writeNotFound(w, "no engagement profile for user")
			return
		}
		scope.TraceError(err)
		scope.Log.Errorf("lifecycle detection failed for user %s: %v", userID, err)
		writeInternalError(w, "lifecycle detection failed")
		return
	}

	scope.SetAttribute("lifecycle.state", string(result.CurrentState))
	writeJSON(w, http.StatusOK, detectLifecycleResponse{
		Success:          true,
		CurrentState:     result.CurrentState,
		TriggerReason:    result.TriggerReason,
		EngagementTrends: result.Trends,
		StateChanged:     result.StateChanged,
	})
}

// Health reports backing-store availability.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if !h.health.IsHealthy(r.Context()) {
		writeError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
