package workflows

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rpattn/schemaflow/internal/auth"
	"github.com/rpattn/schemaflow/internal/domain"
)

// AdminStore is the write-and-lookup surface the workflow admin endpoints use.
type AdminStore interface {
	Create(ctx context.Context, workflow domain.Workflow) (domain.Workflow, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Workflow, error)
}

type Handler struct {
	store AdminStore
}

func NewHTTPHandler(store AdminStore) http.Handler {
	return &Handler{store: store}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleCreate(w, r)
	case http.MethodGet:
		h.handleGet(w, r)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

type createWorkflowPayload struct {
	OrganizationID string                  `json:"organizationId"`
	WorkspaceID    string                  `json:"workspaceId"`
	Name           string                  `json:"name"`
	Trigger        domain.WorkflowTrigger  `json:"trigger"`
	Actions        []domain.WorkflowAction `json:"actions"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var payload createWorkflowPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, fmt.Sprintf("invalid payload: %v", err), http.StatusBadRequest)
		return
	}
	orgID, err := uuid.Parse(strings.TrimSpace(payload.OrganizationID))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid organizationId: %v", err), http.StatusBadRequest)
		return
	}
	if err := auth.EnforceOrganizationScope(r.Context(), orgID); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}
	workspaceID, err := uuid.Parse(strings.TrimSpace(payload.WorkspaceID))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid workspaceId: %v", err), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(payload.Name) == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	if payload.Trigger.SchemaID == uuid.Nil {
		http.Error(w, "trigger.schema_id is required", http.StatusBadRequest)
		return
	}

	now := time.Now()
	created, err := h.store.Create(r.Context(), domain.Workflow{
		ID:             uuid.New(),
		OrganizationID: orgID,
		WorkspaceID:    workspaceID,
		Name:           payload.Name,
		Status:         domain.WorkflowStatusActive,
		Trigger:        payload.Trigger,
		Actions:        payload.Actions,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		http.Error(w, fmt.Sprintf("create workflow: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(strings.TrimSpace(r.URL.Query().Get("id")))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid id: %v", err), http.StatusBadRequest)
		return
	}

	workflow, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err := auth.EnforceOrganizationScope(r.Context(), workflow.OrganizationID); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}
	writeJSON(w, http.StatusOK, workflow)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
