package agency

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/pkg/logging"
)

// Handler exposes agency registration, lookup, login and deletion.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

// NewHandler creates a new agency handler
func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if svc == nil {
		panic("agency: service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// RegisterResponse is returned after a successful registration.
type RegisterResponse struct {
	AgencyID string  `json:"agency_id"`
	Agency   *Agency `json:"agency"`
}

// Register handles POST /agencies.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	a, err := h.svc.Register(r.Context(), req)
	switch {
	case err == nil:
	case errors.Is(err, ErrMissingName), errors.Is(err, ErrMissingPrompt), errors.Is(err, ErrPasswordTooShort):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, ErrOwnerEmailTaken):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	default:
		h.logger.Error("failed to register agency", "error", err)
		http.Error(w, "failed to register agency", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, RegisterResponse{AgencyID: a.ID, Agency: a})
}

// Info handles GET /agencies/{agencyID}.
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Get(r.Context(), chi.URLParam(r, "agencyID"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "Agency not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load agency", "error", err)
		http.Error(w, "failed to load agency", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=60")
	writeJSON(w, http.StatusOK, a.Public())
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	res, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		h.logger.Error("owner login failed", "error", err)
		http.Error(w, "login unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Delete handles DELETE /agencies/{agencyID}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "agencyID")
	if err := h.svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "Agency not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to delete agency", "error", err, "agency_id", id)
		http.Error(w, "failed to delete agency", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
