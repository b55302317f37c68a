// Package admin serves the platform operator endpoints.
package admin

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/agency"
	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/pkg/logging"
)

const maxStatusBatch = 500

// Handler lists tenants and changes their status.
type Handler struct {
	db     *sql.DB
	logger *logging.Logger
}

func NewHandler(db *sql.DB, logger *logging.Logger) *Handler {
	if db == nil {
		panic("admin: database required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{db: db, logger: logger}
}

// AgencySummary is one row of the operator's agency list.
type AgencySummary struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	OwnerEmail *string   `json:"owner_email"`
	Plan       string    `json:"plan"`
	Status     string    `json:"status"`
	LeadCount  int       `json:"lead_count"`
	CreatedAt  time.Time `json:"created_at"`
}

type ListAgenciesResponse struct {
	Agencies []AgencySummary `json:"agencies"`
	Total    int             `json:"total"`
}

// ListAgencies returns every agency with its lead count, newest first.
// GET /admin/agencies
func (h *Handler) ListAgencies(w http.ResponseWriter, r *http.Request) {
	query := `
		SELECT a.id, a.name, a.owner_email, a.plan, a.status, a.created_at, COUNT(l.id)
		FROM agencies a
		LEFT JOIN leads l ON l.agency_id = a.id
		GROUP BY a.id
		ORDER BY a.created_at DESC
	`
	rows, err := h.db.QueryContext(r.Context(), query)
	if err != nil {
		h.logger.Error("failed to list agencies", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list agencies")
		return
	}
	defer rows.Close()

	out := make([]AgencySummary, 0)
	for rows.Next() {
		var a AgencySummary
		var ownerEmail sql.NullString
		if err := rows.Scan(&a.ID, &a.Name, &ownerEmail, &a.Plan, &a.Status, &a.CreatedAt, &a.LeadCount); err != nil {
			h.logger.Error("failed to scan agency", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to list agencies")
			return
		}
		if ownerEmail.Valid {
			a.OwnerEmail = &ownerEmail.String
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		h.logger.Error("failed to iterate agencies", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list agencies")
		return
	}

	writeJSON(w, http.StatusOK, ListAgenciesResponse{Agencies: out, Total: len(out)})
}

type statusRequest struct {
	AgencyIDs []string `json:"agency_ids"`
	Status    string   `json:"status"`
}

type statusResponse struct {
	Updated int64  `json:"updated"`
	Status  string `json:"status"`
}

// UpdateStatus suspends or reactivates a batch of agencies.
// POST /admin/agencies/status
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	status := strings.ToLower(strings.TrimSpace(req.Status))
	if !agency.ValidStatus(status) {
		writeError(w, http.StatusBadRequest, agency.ErrInvalidStatus.Error())
		return
	}

	ids := make([]string, 0, len(req.AgencyIDs))
	seen := make(map[string]struct{}, len(req.AgencyIDs))
	for _, raw := range req.AgencyIDs {
		id := strings.TrimSpace(raw)
		if _, err := uuid.Parse(id); err != nil {
			writeError(w, http.StatusBadRequest, "invalid agency id: "+raw)
			return
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		writeError(w, http.StatusBadRequest, "agency_ids required")
		return
	}
	if len(ids) > maxStatusBatch {
		writeError(w, http.StatusBadRequest, "too many agency ids")
		return
	}

	res, err := h.db.ExecContext(r.Context(),
		`UPDATE agencies SET status = $1 WHERE id = ANY($2::uuid[])`,
		status, pq.Array(ids))
	if err != nil {
		h.logger.Error("failed to update agency status", "status", status, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update status")
		return
	}
	updated, err := res.RowsAffected()
	if err != nil {
		h.logger.Warn("rows affected unavailable", "error", err)
	}
	h.logger.Info("agency status updated", "status", status, "requested", len(ids), "updated", updated)
	writeJSON(w, http.StatusOK, statusResponse{Updated: updated, Status: status})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
