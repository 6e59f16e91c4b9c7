package schema

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/rpattn/schemaflow/internal/auth"
	"github.com/rpattn/schemaflow/internal/domain"
)

type Handler struct {
	service *Service
}

func NewHTTPHandler(service *Service) http.Handler {
	return &Handler{service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/apply"):
		h.handleApply(w, r)
		return
	case r.Method == http.MethodPost:
		h.handleCreate(w, r)
		return
	case r.Method == http.MethodGet:
		h.handleGet(w, r)
		return
	default:
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
}

type createSchemaPayload struct {
	OrganizationID string               `json:"organizationId"`
	WorkspaceID    string               `json:"workspaceId"`
	Name           string               `json:"name"`
	Fields         []domain.SchemaField `json:"fields"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var payload createSchemaPayload
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

	created, err := h.service.Create(r.Context(), domain.NewSchema(orgID, workspaceID, payload.Name, payload.Fields))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleApply(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var updated domain.Schema
	if err := json.NewDecoder(r.Body).Decode(&updated); err != nil {
		http.Error(w, fmt.Sprintf("invalid payload: %v", err), http.StatusBadRequest)
		return
	}
	if updated.ID == uuid.Nil {
		http.Error(w, "schema id is required", http.StatusBadRequest)
		return
	}
	if err := auth.EnforceOrganizationScope(r.Context(), updated.OrganizationID); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	result, err := h.service.ApplyUpdate(r.Context(), updated)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	orgID, err := uuid.Parse(strings.TrimSpace(query.Get("organizationId")))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid organizationId: %v", err), http.StatusBadRequest)
		return
	}
	if err := auth.EnforceOrganizationScope(r.Context(), orgID); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}

	if raw := strings.TrimSpace(query.Get("schemaId")); raw != "" {
		schemaID, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid schemaId: %v", err), http.StatusBadRequest)
			return
		}
		schema, err := h.service.Get(r.Context(), orgID, schemaID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, schema)
		return
	}

	schemas, err := h.service.List(r.Context(), orgID)
	if err != nil {
		http.Error(w, fmt.Sprintf("list schemas: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, schemas)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
