package conversion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/rpattn/schemaflow/internal/auth"
	"github.com/rpattn/schemaflow/internal/domain"
)

// PendingApprovalLister lists conversion approvals awaiting a decision.
type PendingApprovalLister interface {
	ListPending(ctx context.Context, organizationID uuid.UUID) ([]domain.ConversionApproval, error)
}

type Handler struct {
	approvals PendingApprovalLister
}

func NewHTTPHandler(approvals PendingApprovalLister) http.Handler {
	return &Handler{approvals: approvals}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	h.handleListPending(w, r)
}

func (h *Handler) handleListPending(w http.ResponseWriter, r *http.Request) {
	orgID, err := uuid.Parse(strings.TrimSpace(r.URL.Query().Get("organizationId")))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid organizationId: %v", err), http.StatusBadRequest)
		return
	}
	if err := auth.EnforceOrganizationScope(r.Context(), orgID); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	pending, err := h.approvals.ListPending(r.Context(), orgID)
	if err != nil {
		http.Error(w, fmt.Sprintf("list pending approvals: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, pending)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
