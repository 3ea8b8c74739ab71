package handler

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dealscholar/lifecycle-engine/pkg/habit"
	"github.com/dealscholar/lifecycle-engine/pkg/intervention"
	"github.com/dealscholar/lifecycle-engine/pkg/lifecycle"
)

// Handler wires the lifecycle engine's services to their HTTP endpoints.
type Handler struct {
	lifecycleService    *lifecycle.Service
	habitService        *habit.Service
	interventionService *intervention.Service
	health              HealthChecker
}

// HealthChecker reports backing-store availability for the health endpoint.
type HealthChecker interface {
	IsHealthy(ctx context.Context) bool
}

// New creates a handler for the lifecycle engine endpoints.
func New(
	lifecycleService *lifecycle.Service,
	habitService *habit.Service,
	interventionService *intervention.Service,
	health HealthChecker,
) *Handler {
	return &Handler{
		lifecycleService:    lifecycleService,
		habitService:        habitService,
		interventionService: interventionService,
		health:              health,
	}
}

// Register attaches all routes to the router. Every /v1 route requires an
// authenticated identity; /healthz does not.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.Use(RequireIdentity)
	v1.HandleFunc("/lifecycle/detect", h.DetectLifecycleState).Methods(http.MethodPost)
	v1.HandleFunc("/habit/triggers", h.DetectHabitTriggers).Methods(http.MethodPost)
	v1.HandleFunc("/habit/loops", h.ProvisionHabitLoops).Methods(http.MethodPost)
	v1.HandleFunc("/interventions/lifecycle", h.TriggerLifecycleIntervention).Methods(http.MethodPost)
	v1.HandleFunc("/interventions/segmented", h.TriggerSegmentedIntervention).Methods(http.MethodPost)
	v1.HandleFunc("/interventions/active/dismiss", h.DismissIntervention).Methods(http.MethodPost)
	v1.HandleFunc("/interventions/active/acted", h.MarkInterventionActedOn).Methods(http.MethodPost)
}
