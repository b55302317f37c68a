package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/agency"
	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/pkg/logging"
)

const maxChatBodyBytes = 64 << 10

// TurnProcessor runs a chat turn.
type TurnProcessor interface {
	HandleTurn(ctx context.Context, req TurnRequest) (*TurnResult, error)
}

// Handler wires HTTP requests to the conversation service.
type Handler struct {
	service TurnProcessor
	logger  *logging.Logger
}

// NewHandler creates a conversation handler.
func NewHandler(service TurnProcessor, logger *logging.Logger) *Handler {
	if service == nil {
		panic("conversation: turn processor required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	AgencyID  string `json:"agency_id"`
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

// ChatResponse is returned for a successful turn.
type ChatResponse struct {
	Reply        string `json:"reply"`
	SessionID    string `json:"session_id,omitempty"`
	LeadCaptured bool   `json:"lead_captured"`
}

// Chat handles POST /chat.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBodyBytes)).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.service.HandleTurn(r.Context(), TurnRequest{
		AgencyID:  req.AgencyID,
		SessionID: req.SessionID,
		Message:   req.Message,
	})
	if err != nil {
		status, msg := StatusForError(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("chat turn failed", "error", err, "agency_id", req.AgencyID)
		}
		http.Error(w, msg, status)
		return
	}

	h.writeJSON(w, http.StatusOK, ChatResponse{
		Reply:        result.Reply,
		SessionID:    req.SessionID,
		LeadCaptured: result.Lead != nil,
	})
}

// StatusForError maps a turn error to an HTTP status and a client-safe message.
func StatusForError(err error) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, "Missing agency_id or message"
	case errors.Is(err, agency.ErrNotFound):
		return http.StatusBadRequest, "Invalid agency ID"
	case errors.Is(err, agency.ErrSuspended):
		return http.StatusForbidden, "Agency is not accepting chats"
	case errors.Is(err, ErrCompletionFailed):
		return http.StatusBadGateway, "Assistant is unavailable, please try again"
	default:
		return http.StatusInternalServerError, "Failed to process message"
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}
