package conversation

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrInvalidTurn is returned when a turn has an unknown role or an empty key.
var ErrInvalidTurn = errors.New("conversation: invalid turn")

// Turn is one message in a conversation window.
type Turn struct {
	Role string    `json:"role"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Memory keeps a bounded window of recent turns per conversation key.
// Implementations are safe for concurrent use; ordering of turns appended to
// the same key from different goroutines is the caller's concern.
type Memory interface {
	AppendTurn(ctx context.Context, key, role, text string) error
	// RecentContext returns at most n turns, oldest first.
	RecentContext(ctx context.Context, key string, n int) ([]Turn, error)
	// Window returns every stored turn, oldest first.
	Window(ctx context.Context, key string) ([]Turn, error)
	Len(ctx context.Context, key string) (int, error)
	Clear(ctx context.Context, key string) error
}

// ConversationKey scopes a window to an agency and, when the widget sends
// one, a visitor session.
func ConversationKey(agencyID, sessionID string) string {
	agencyID = strings.TrimSpace(agencyID)
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return agencyID
	}
	return agencyID + ":" + sessionID
}

func validateTurn(key, role string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidTurn
	}
	if role != ChatRoleUser && role != ChatRoleAssistant {
		return ErrInvalidTurn
	}
	return nil
}
