package leads

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/tenancy"
	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/pkg/logging"
)

// Handler handles HTTP requests for leads
type Handler struct {
	repo   Repository
	logger *logging.Logger
}

// NewHandler creates a new leads handler
func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if repo == nil {
		panic("leads: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

// agencyFromRequest reads the route agency. When an authenticated agency is in
// the context the two must agree.
func agencyFromRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	agencyID := strings.TrimSpace(chi.URLParam(r, "agencyID"))
	if agencyID == "" {
		http.Error(w, "missing agency_id", http.StatusBadRequest)
		return "", false
	}
	if authed, ok := tenancy.AgencyIDFromContext(r.Context()); ok && authed != agencyID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return "", false
	}
	return agencyID, true
}

// ListLeadsResponse is the response for listing leads
type ListLeadsResponse struct {
	Leads  []*Lead `json:"leads"`
	Count  int     `json:"count"`
	Total  int     `json:"total"`
	Offset int     `json:"offset"`
	Limit  int     `json:"limit"`
}

// ListLeads handles GET /agencies/{agencyID}/leads requests
func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	agencyID, ok := agencyFromRequest(w, r)
	if !ok {
		return
	}

	filter := ListFilter{
		Limit:  50,
		Offset: 0,
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit <= 500 {
			filter.Limit = limit
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}

	leads, err := h.repo.ListByAgency(r.Context(), agencyID, filter)
	if err != nil {
		h.logger.Error("failed to list leads", "error", err, "agency_id", agencyID)
		http.Error(w, "failed to list leads", http.StatusInternalServerError)
		return
	}
	total, err := h.repo.CountByAgency(r.Context(), agencyID)
	if err != nil {
		h.logger.Warn("failed to count leads", "error", err, "agency_id", agencyID)
		total = len(leads)
	}

	response := ListLeadsResponse{
		Leads:  leads,
		Count:  len(leads),
		Total:  total,
		Offset: filter.Offset,
		Limit:  filter.Limit,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// ExportLeads handles GET /agencies/{agencyID}/leads/export?format=csv|xlsx&tz=Area/City
func (h *Handler) ExportLeads(w http.ResponseWriter, r *http.Request) {
	agencyID, ok := agencyFromRequest(w, r)
	if !ok {
		return
	}
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = "xlsx"
	}
	if format != "csv" && format != "xlsx" {
		http.Error(w, "format must be csv or xlsx", http.StatusBadRequest)
		return
	}
	loc := time.UTC
	if tz := r.URL.Query().Get("tz"); tz != "" {
		parsed, err := time.LoadLocation(tz)
		if err != nil {
			http.Error(w, "invalid tz", http.StatusBadRequest)
			return
		}
		loc = parsed
	}

	leads, err := h.repo.ListByAgency(r.Context(), agencyID, ListFilter{})
	if err != nil {
		h.logger.Error("failed to load leads for export", "error", err, "agency_id", agencyID)
		http.Error(w, "failed to export leads", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("leads-%s.%s", time.Now().UTC().Format("20060102"), format)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	switch format {
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		err = WriteCSV(w, leads, loc)
	default:
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		err = WriteXLSX(w, leads, loc)
	}
	if err != nil {
		h.logger.Error("failed to write export", "error", err, "agency_id", agencyID, "format", format)
		return
	}
	h.logger.Info("leads exported", "agency_id", agencyID, "format", format, "count", len(leads))
}
