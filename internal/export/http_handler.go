package export

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/rpattn/schemaflow/internal/auth"
)

type Handler struct {
	service *Service
}

func NewHTTPHandler(service *Service) http.Handler {
	return &Handler{service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/summary"):
		h.handleSummary(w, r)
		return
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/report"):
		h.handleReport(w, r)
		return
	default:
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	schemaID, ok := h.scopedSchemaID(w, r)
	if !ok {
		return
	}
	summary, err := h.service.ImpactSummary(r.Context(), schemaID)
	if err != nil {
		http.Error(w, fmt.Sprintf("impact summary: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	schemaID, ok := h.scopedSchemaID(w, r)
	if !ok {
		return
	}
	summary, err := h.service.ImpactSummary(r.Context(), schemaID)
	if err != nil {
		http.Error(w, fmt.Sprintf("impact summary: %v", err), http.StatusInternalServerError)
		return
	}
	workbook, err := h.service.BuildImpactWorkbook(summary)
	if err != nil {
		http.Error(w, fmt.Sprintf("build report: %v", err), http.StatusInternalServerError)
		return
	}
	defer workbook.Close()

	filename := h.service.ImpactReportFileName(schemaID)
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	if err := workbook.Write(w); err != nil {
		// Headers are already sent; nothing left to report to the client.
		return
	}
}

func (h *Handler) scopedSchemaID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	query := r.URL.Query()

	if raw := strings.TrimSpace(query.Get("organizationId")); raw != "" {
		orgID, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid organizationId: %v", err), http.StatusBadRequest)
			return uuid.Nil, false
		}
		if err := auth.EnforceOrganizationScope(r.Context(), orgID); err != nil {
			http.Error(w, err.Error(), http.StatusForbidden)
			return uuid.Nil, false
		}
	}

	raw := strings.TrimSpace(query.Get("schemaId"))
	if raw == "" {
		http.Error(w, "schemaId is required", http.StatusBadRequest)
		return uuid.Nil, false
	}
	schemaID, err := uuid.Parse(raw)
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid schemaId: %v", err), http.StatusBadRequest)
		return uuid.Nil, false
	}
	return schemaID, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
