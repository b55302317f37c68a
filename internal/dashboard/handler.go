package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/pkg/logging"
)

const dayLayout = "2006-01-02"

// AgencyDashboard is the owner's activity overview.
type AgencyDashboard struct {
	AgencyID        string             `json:"agency_id"`
	PeriodStart     string             `json:"period_start"`
	PeriodEnd       string             `json:"period_end"`
	Leads           int64              `json:"leads"`
	FieldLeads      int64              `json:"field_leads"`
	EngagementLeads int64              `json:"engagement_leads"`
	LLMLatency      LLMLatencySnapshot `json:"llm_latency"`
	Daily           []LeadDay          `json:"daily"`
}

// Handler serves GET /agencies/{agencyID}/dashboard.
type Handler struct {
	repo     Repository
	gatherer prometheus.Gatherer
	logger   *logging.Logger
	now      func() time.Time
}

func NewHandler(repo Repository, gatherer prometheus.Gatherer, logger *logging.Logger) *Handler {
	if repo == nil {
		panic("dashboard: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Handler{repo: repo, gatherer: gatherer, logger: logger, now: time.Now}
}

// GetDashboard returns lead totals for a window.
// Query params:
//   - start, end: RFC3339 timestamps (both or neither)
//   - days: window ending today, 1-90 (default 7)
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	agencyID := strings.TrimSpace(chi.URLParam(r, "agencyID"))
	if agencyID == "" {
		writeError(w, http.StatusBadRequest, "agency_id required")
		return
	}

	start, end, err := parseWindow(r, h.now().UTC())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	days, err := h.repo.LeadsByDay(r.Context(), agencyID, start, end)
	if err != nil {
		if errors.Is(err, errInvalidRange) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to query dashboard", "agency_id", agencyID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	days = fillMissingDays(days, start, end)

	resp := AgencyDashboard{
		AgencyID:    agencyID,
		PeriodStart: start.Format(time.RFC3339),
		PeriodEnd:   end.Format(time.RFC3339),
		LLMLatency:  snapshotLLMLatency(h.gatherer),
		Daily:       days,
	}
	for _, d := range days {
		resp.Leads += d.Leads
		resp.FieldLeads += d.Fields
		resp.EngagementLeads += d.Engagement
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func parseWindow(r *http.Request, now time.Time) (time.Time, time.Time, error) {
	q := r.URL.Query()
	startRaw := strings.TrimSpace(q.Get("start"))
	endRaw := strings.TrimSpace(q.Get("end"))
	if (startRaw == "") != (endRaw == "") {
		return time.Time{}, time.Time{}, fmt.Errorf("both start and end must be provided, or neither")
	}
	if startRaw != "" {
		start, err := time.Parse(time.RFC3339, startRaw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start time, use RFC3339 format")
		}
		end, err := time.Parse(time.RFC3339, endRaw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end time, use RFC3339 format")
		}
		if !end.After(start) {
			return time.Time{}, time.Time{}, fmt.Errorf("end must be after start")
		}
		return start.UTC(), end.UTC(), nil
	}

	days := 7
	if raw := strings.TrimSpace(q.Get("days")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 90 {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid days; must be 1-90")
		}
		days = parsed
	}
	end := truncateDay(now).AddDate(0, 0, 1)
	return end.AddDate(0, 0, -days), end, nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// fillMissingDays returns one entry per day in [start, end), zero-filled.
func fillMissingDays(existing []LeadDay, start, end time.Time) []LeadDay {
	lookup := make(map[string]LeadDay, len(existing))
	for _, d := range existing {
		lookup[d.Day.UTC().Format(dayLayout)] = d
	}

	startDay, endDay := truncateDay(start), truncateDay(end)
	if endDay.Before(end) {
		endDay = endDay.AddDate(0, 0, 1)
	}
	out := make([]LeadDay, 0, int(endDay.Sub(startDay).Hours()/24))
	for day := startDay; day.Before(endDay); day = day.AddDate(0, 0, 1) {
		key := day.Format(dayLayout)
		if found, ok := lookup[key]; ok {
			found.Day, found.DayLabel = day, key
			out = append(out, found)
			continue
		}
		out = append(out, LeadDay{Day: day, DayLabel: key})
	}
	return out
}
