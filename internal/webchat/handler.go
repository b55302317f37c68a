package webchat

import (
	"crypto/rand"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/internal/conversation"
	"github.com/Luxury-Leads-AI/Luxury-Leads-AI/pkg/logging"
)

//go:embed widget.js
var widgetJS []byte

// WidgetJS returns the embeddable widget script.
func WidgetJS() []byte {
	return widgetJS
}

// InboundMessage is what the widget sends over the socket.
type InboundMessage struct {
	Type string `json:"type"` // "message", "ping"
	Text string `json:"text"`
}

// OutboundMessage is what we send to the widget.
type OutboundMessage struct {
	Type         string `json:"type"` // "session", "typing", "message", "error", "pong"
	Text         string `json:"text,omitempty"`
	Role         string `json:"role,omitempty"`
	SessionID    string `json:"session_id,omitempty"`
	LeadCaptured bool   `json:"lead_captured,omitempty"`
	Timestamp    string `json:"timestamp,omitempty"`
}

// Handler serves the widget script and its websocket transport.
type Handler struct {
	turns    conversation.TurnProcessor
	logger   *logging.Logger
	upgrader websocket.Upgrader
	widgetJS []byte
}

// NewHandler builds the webchat handler. allowedOrigins limits which sites
// may open sockets; "*" or an empty list allows any.
func NewHandler(turns conversation.TurnProcessor, allowedOrigins []string, logger *logging.Logger) *Handler {
	if turns == nil {
		panic("webchat: turn processor required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		turns:  turns,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		widgetJS: widgetJS,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		if o != "" {
			set[strings.ToLower(o)] = true
		}
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil || u.Host == "" {
			return false
		}
		return set[strings.ToLower(u.Scheme+"://"+u.Host)]
	}
}

// generateSessionID creates a random session identifier.
func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return uuid.New().String()
	}
	return hex.EncodeToString(b)
}

// HandleWebSocket serves GET /ws?agency=<id>&session=<id>.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	agencyID := strings.TrimSpace(r.URL.Query().Get("agency"))
	if agencyID == "" {
		http.Error(w, "agency parameter required", http.StatusBadRequest)
		return
	}
	sessionID := strings.TrimSpace(r.URL.Query().Get("session"))
	if sessionID == "" {
		sessionID = generateSessionID()
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the response.
		h.logger.Debug("webchat: upgrade failed", "error", err)
		return
	}
	conn := newConnection(ws)
	defer conn.shutdown(websocket.CloseNormalClosure, "session closed")

	ws.SetReadLimit(16 << 10)
	_ = ws.SetReadDeadline(time.Now().Add(readTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(readTimeout))
	})

	logger := h.logger.WithAgency(agencyID)
	_ = conn.sendJSON(OutboundMessage{Type: "session", SessionID: sessionID})
	logger.Debug("webchat: connection opened", "session_id", sessionID)

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) &&
				!errors.Is(err, websocket.ErrCloseSent) {
				logger.Debug("webchat: connection closed", "session_id", sessionID, "error", err)
			}
			return
		}
		_ = ws.SetReadDeadline(time.Now().Add(readTimeout))

		var msg InboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = conn.sendJSON(OutboundMessage{Type: "error", Text: "invalid payload"})
			continue
		}

		switch msg.Type {
		case "ping":
			_ = conn.sendJSON(OutboundMessage{Type: "pong"})
		case "message":
			if strings.TrimSpace(msg.Text) == "" {
				continue
			}
			h.processMessage(r, conn, logger, agencyID, sessionID, msg.Text)
		default:
			_ = conn.sendJSON(OutboundMessage{Type: "error", Text: "unknown frame type"})
		}
	}
}

func (h *Handler) processMessage(r *http.Request, conn *connection, logger *logging.Logger, agencyID, sessionID, text string) {
	_ = conn.sendJSON(OutboundMessage{Type: "typing"})

	result, err := h.turns.HandleTurn(r.Context(), conversation.TurnRequest{
		AgencyID:  agencyID,
		SessionID: sessionID,
		Message:   text,
	})
	if err != nil {
		status, msg := conversation.StatusForError(err)
		if status >= http.StatusInternalServerError {
			logger.Error("webchat: turn failed", "session_id", sessionID, "error", err)
		}
		_ = conn.sendJSON(OutboundMessage{Type: "error", Text: msg})
		return
	}

	_ = conn.sendJSON(OutboundMessage{
		Type:         "message",
		Role:         conversation.ChatRoleAssistant,
		Text:         result.Reply,
		SessionID:    sessionID,
		LeadCaptured: result.Lead != nil,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleWidgetJS serves the embeddable widget JavaScript.
func (h *Handler) HandleWidgetJS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	_, _ = w.Write(h.widgetJS)
}
